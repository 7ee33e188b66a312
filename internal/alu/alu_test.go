package alu

import (
	"testing"

	"github.com/casl2/comet2emu/internal/word"
)

func TestAddaOverflow(t *testing.T) {
	r := Adda(0x7FFF, 1)
	if r.Value != 0x8000 || !r.Flags.OF || !r.Flags.SF || r.Flags.ZF {
		t.Errorf("Adda(0x7FFF,1) = %+v, want value 0x8000 OF=1 SF=1 ZF=0", r)
	}
}

func TestSublBorrow(t *testing.T) {
	r := Subl(0, 1)
	if r.Value != 0xFFFF || !r.Flags.OF || !r.Flags.SF || r.Flags.ZF {
		t.Errorf("Subl(0,1) = %+v, want value 0xFFFF OF=1 SF=1 ZF=0", r)
	}
}

func TestSlaOverflow(t *testing.T) {
	r := Sla(0x4000, 1)
	if !r.Flags.OF {
		t.Errorf("Sla(0x4000,1) OF = %v, want true (bit shifted out of bit14 differs from sign)", r.Flags.OF)
	}
}

func TestCpaSignedCompare(t *testing.T) {
	r := Cpa(0x8000, 0x0001)
	if !r.Flags.SF || r.Flags.ZF {
		t.Errorf("Cpa(0x8000,0x0001) = %+v, want SF=1 ZF=0", r)
	}
}

func TestCplUnsignedCompare(t *testing.T) {
	r := Cpl(0x8000, 0x0001)
	if r.Flags.SF || r.Flags.ZF {
		t.Errorf("Cpl(0x8000,0x0001) = %+v, want SF=0 ZF=0", r)
	}
}

func TestAndOrXorZeroFlag(t *testing.T) {
	if r := And(0x00FF, 0xFF00); r.Value != 0 || !r.Flags.ZF || r.Flags.OF {
		t.Errorf("And(0x00FF,0xFF00) = %+v, want value 0 ZF=1 OF=0", r)
	}
	if r := Or(0, 0); !r.Flags.ZF {
		t.Errorf("Or(0,0) should set ZF")
	}
	if r := Xor(0xFFFF, 0xFFFF); !r.Flags.ZF {
		t.Errorf("Xor(a,a) should set ZF")
	}
}

func TestAddlCarry(t *testing.T) {
	r := Addl(0xFFFF, 1)
	if r.Value != 0 || !r.Flags.OF || !r.Flags.ZF {
		t.Errorf("Addl(0xFFFF,1) = %+v, want value 0 OF=1 ZF=1", r)
	}
}

func TestShiftByZero(t *testing.T) {
	for _, f := range []func(a, b word.Word) Result{Sla, Sra, Sll, Srl} {
		r := f(0x1234, 0)
		if r.Value != 0x1234 {
			t.Errorf("shift by 0 should be identity, got %+v", r)
		}
	}
}

func TestSraSignExtends(t *testing.T) {
	r := Sra(0x8000, 1)
	if r.Value != 0xC000 {
		t.Errorf("Sra(0x8000,1) = 0x%04X, want 0xC000", uint16(r.Value))
	}
}

func TestSrlZeroFills(t *testing.T) {
	r := Srl(0x8000, 1)
	if r.Value != 0x4000 {
		t.Errorf("Srl(0x8000,1) = 0x%04X, want 0x4000", uint16(r.Value))
	}
}

func TestSllOverflowBit(t *testing.T) {
	r := Sll(0x8001, 1)
	if r.Value != 0x0002 || !r.Flags.OF {
		t.Errorf("Sll(0x8001,1) = %+v, want value 0x0002 OF=1", r)
	}
}
