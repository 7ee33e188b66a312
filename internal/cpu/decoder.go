package cpu

import (
	"github.com/casl2/comet2emu/internal/isa"
	"github.com/casl2/comet2emu/internal/word"
)

// Decoded is the result of classifying an instruction register pair: which
// form it takes, the opcode, the register/index fields, and the address
// word. r1/r2/addr are meaningful only for the slots the opcode's form
// actually uses (spec.md §3).
type Decoded struct {
	Form   isa.Form
	Opcode uint8
	R1     uint8
	R2     uint8
	Addr   word.Word
	Known  bool // false for an opcode absent from the isa table
}

// IsTwoWord reports whether the instruction beginning with ir0 is a 2-word
// form, used by the FETCH phase to decide whether to read a second word.
func IsTwoWord(ir0 word.Word) bool {
	e, ok := isa.Lookup(ir0.HiByte())
	if !ok {
		// An unrecognized opcode is treated as 1-word so FETCH doesn't stall
		// waiting on a second word that has no defined meaning; EXECUTE is
		// what turns it into a fatal trap.
		return false
	}
	return e.Form == isa.Form2W
}

// Decode classifies ir (IR[0], IR[1]) into its instruction fields.
func Decode(ir [2]word.Word) Decoded {
	opcode := ir[0].HiByte()
	e, ok := isa.Lookup(opcode)
	if !ok {
		return Decoded{Form: isa.Form1W, Opcode: opcode, Known: false}
	}

	switch opcode {
	case isa.NOP, isa.RET:
		return Decoded{Form: isa.Form1W, Opcode: opcode, Known: true}
	case isa.POP:
		return Decoded{Form: isa.Form1W, Opcode: opcode, R1: ir[0].Nibble(4), Known: true}
	}

	if e.Form == isa.Form1W {
		return Decoded{
			Form:   isa.Form1W,
			Opcode: opcode,
			R1:     ir[0].Nibble(4),
			R2:     ir[0].Lo4(),
			Known:  true,
		}
	}

	switch opcode {
	case isa.JMI, isa.JNZ, isa.JZE, isa.JUMP, isa.JPL, isa.JOV, isa.PUSH, isa.CALL, isa.SVC:
		return Decoded{
			Form:   isa.Form2W,
			Opcode: opcode,
			R2:     ir[0].Lo4(),
			Addr:   ir[1],
			Known:  true,
		}
	default:
		return Decoded{
			Form:   isa.Form2W,
			Opcode: opcode,
			R1:     ir[0].Nibble(4),
			R2:     ir[0].Lo4(),
			Addr:   ir[1],
			Known:  true,
		}
	}
}
