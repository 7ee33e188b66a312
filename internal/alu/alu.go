// Package alu implements the pure arithmetic/logic kernel COMET II's EXECUTE
// phase dispatches to. Every operation returns a result Word and the three
// flags it sets; none of them can fail or trap.
package alu

import "github.com/casl2/comet2emu/internal/word"

// Flags is the three-bit [OF, SF, ZF] vector spec.md calls FR.
type Flags struct {
	OF bool // overflow
	SF bool // sign
	ZF bool // zero
}

// Result bundles an ALU operation's output word with the flags it produced.
type Result struct {
	Value word.Word
	Flags Flags
}

func flagsFor(result word.Word, overflow bool) Flags {
	return Flags{OF: overflow, SF: result.SignBit(), ZF: result.IsZero()}
}

// And computes a&b. Never overflows.
func And(a, b word.Word) Result {
	r := a & b
	return Result{Value: r, Flags: flagsFor(r, false)}
}

// Or computes a|b. Never overflows. LD routes its loaded value through
// Or(v, 0) so the load also refreshes FR; LAD does not touch FR.
func Or(a, b word.Word) Result {
	r := a | b
	return Result{Value: r, Flags: flagsFor(r, false)}
}

// Xor computes a^b. Never overflows.
func Xor(a, b word.Word) Result {
	r := a ^ b
	return Result{Value: r, Flags: flagsFor(r, false)}
}

// Adda adds a and b as signed 16-bit values, wrapping on overflow.
func Adda(a, b word.Word) Result {
	sum := int32(a.Signed()) + int32(b.Signed())
	r := word.FromSigned(int16(sum))
	overflow := sum > 32767 || sum < -32768
	return Result{Value: r, Flags: flagsFor(r, overflow)}
}

// Suba subtracts b from a as signed 16-bit values, wrapping on overflow.
func Suba(a, b word.Word) Result {
	diff := int32(a.Signed()) - int32(b.Signed())
	r := word.FromSigned(int16(diff))
	overflow := diff > 32767 || diff < -32768
	return Result{Value: r, Flags: flagsFor(r, overflow)}
}

// Addl adds a and b as unsigned 16-bit values, wrapping on carry.
func Addl(a, b word.Word) Result {
	sum := uint32(a) + uint32(b)
	r := word.Word(uint16(sum))
	carry := sum > 0xFFFF
	return Result{Value: r, Flags: flagsFor(r, carry)}
}

// Subl subtracts b from a as unsigned 16-bit values, wrapping on borrow.
func Subl(a, b word.Word) Result {
	diff := int64(a) - int64(b)
	r := word.Word(uint16(diff))
	borrow := diff < 0
	return Result{Value: r, Flags: flagsFor(r, borrow)}
}

// shiftCount extracts the shift amount from b: the low 4 bits (spec.md
// §4.B leaves 4-vs-5 bits as an implementation choice; 4 bits is the
// documented choice here, see SPEC_FULL.md §4.B).
func shiftCount(b word.Word) int {
	return int(b.Lo4())
}

// Sla performs an arithmetic left shift: the sign bit (bit 15) is held
// fixed, bits 14..0 shift left, zero-filled from the low end. OF is set iff
// the bit shifted out of bit 14 differs from the sign bit.
func Sla(a, b word.Word) Result {
	n := shiftCount(b)
	sign := a & 0x8000
	magnitude := uint16(a & 0x7FFF)
	var out uint16
	var lastOut uint16
	if n == 0 {
		out = magnitude
		lastOut = boolToBit(sign != 0)
	} else if n >= 15 {
		out = 0
		if n == 15 {
			lastOut = (magnitude >> 14) & 1
		} else {
			lastOut = 0
		}
	} else {
		lastOut = (magnitude >> (15 - n)) & 1
		out = (magnitude << n) & 0x7FFF
	}
	r := sign | word.Word(out)
	overflow := lastOut != boolToBit(sign != 0)
	return Result{Value: r, Flags: flagsFor(r, overflow)}
}

// Sra performs an arithmetic right shift: sign-extended, the low bit shifted
// out becomes OF.
func Sra(a, b word.Word) Result {
	n := shiftCount(b)
	s := a.Signed()
	var lastOut bool
	var result int16
	if n == 0 {
		result = s
		lastOut = false
	} else if n >= 16 {
		if s < 0 {
			result = -1
		} else {
			result = 0
		}
		lastOut = s < 0
	} else {
		lastOut = (uint16(s)>>(n-1))&1 != 0
		result = s >> n
	}
	r := word.FromSigned(result)
	return Result{Value: r, Flags: flagsFor(r, lastOut)}
}

// Sll performs a logical left shift, zero-filled; OF is the last bit shifted
// out of bit 15.
func Sll(a, b word.Word) Result {
	n := shiftCount(b)
	var r word.Word
	var lastOut bool
	if n == 0 {
		r = a
		lastOut = false
	} else if n >= 16 {
		r = 0
		lastOut = false
	} else {
		lastOut = (uint16(a)>>(16-n))&1 != 0
		r = word.Word(uint16(a) << n)
	}
	return Result{Value: r, Flags: flagsFor(r, lastOut)}
}

// Srl performs a logical right shift, zero-filled; OF is the last bit
// shifted out of bit 0.
func Srl(a, b word.Word) Result {
	n := shiftCount(b)
	var r word.Word
	var lastOut bool
	if n == 0 {
		r = a
		lastOut = false
	} else if n >= 16 {
		r = 0
		lastOut = false
	} else {
		lastOut = (uint16(a)>>(n-1))&1 != 0
		r = word.Word(uint16(a) >> n)
	}
	return Result{Value: r, Flags: flagsFor(r, lastOut)}
}

// Cpa compares a and b as signed values. Result is always 0; SF is set iff
// a<b signed, ZF iff a==b.
func Cpa(a, b word.Word) Result {
	return Result{Value: 0, Flags: Flags{OF: false, SF: a.Signed() < b.Signed(), ZF: a == b}}
}

// Cpl compares a and b as unsigned values. Result is always 0; SF is set iff
// a<b unsigned, ZF iff a==b.
func Cpl(a, b word.Word) Result {
	return Result{Value: 0, Flags: Flags{OF: false, SF: a < b, ZF: a == b}}
}

func boolToBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
