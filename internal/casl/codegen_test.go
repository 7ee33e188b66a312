package casl

import (
	"testing"

	"github.com/casl2/comet2emu/internal/word"
)

func assemble(t *testing.T, src string) *Object {
	t.Helper()
	obj, errs := Assemble(src, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors assembling %q: %v", src, errs)
	}
	return obj
}

func TestAssembleLadRet(t *testing.T) {
	obj := assemble(t, "MAIN\tSTART\n\tLAD\tGR1,5\n\tRET\n\tEND\n")
	if len(obj.Image) != 3 {
		t.Fatalf("image length = %d, want 3", len(obj.Image))
	}
	if obj.Image[0] != 0x1210 {
		t.Errorf("word0 = 0x%04X, want 0x1210", uint16(obj.Image[0]))
	}
	if obj.Image[1] != 5 {
		t.Errorf("word1 = 0x%04X, want 0x0005", uint16(obj.Image[1]))
	}
	if obj.Image[2] != 0x8100 {
		t.Errorf("word2 = 0x%04X, want 0x8100 (RET)", uint16(obj.Image[2]))
	}
	if obj.Entry != 0 {
		t.Errorf("entry = %d, want 0", obj.Entry)
	}
}

func TestAssembleExplicitEntryLabel(t *testing.T) {
	obj := assemble(t, "MAIN\tSTART\tBEGIN\n\tDC\t1\nBEGIN\tRET\n\tEND\n")
	if obj.Entry != 1 {
		t.Errorf("entry = %d, want 1 (address of BEGIN)", obj.Entry)
	}
}

func TestAssembleForwardLabelResolution(t *testing.T) {
	obj := assemble(t, "MAIN\tSTART\n\tJUMP\tTARGET\nTARGET\tRET\n\tEND\n")
	if obj.Image[1] != 2 {
		t.Errorf("JUMP operand = %d, want 2 (address of TARGET)", obj.Image[1])
	}
}

func TestAssembleUndefinedLabelFails(t *testing.T) {
	_, errs := Assemble("MAIN\tSTART\n\tJUMP\tNOWHERE\n\tEND\n", "t.cas")
	if !errs.HasErrors() || errs.Errors[0].Kind != ErrorUndefinedLabel {
		t.Fatalf("expected ErrorUndefinedLabel, got %v", errs)
	}
}

func TestAssembleDuplicateLabelFails(t *testing.T) {
	_, errs := Assemble("MAIN\tSTART\nX\tDC\t1\nX\tDC\t2\n\tEND\n", "t.cas")
	if !errs.HasErrors() || errs.Errors[0].Kind != ErrorDuplicateLabel {
		t.Fatalf("expected ErrorDuplicateLabel, got %v", errs)
	}
}

func TestAssembleDcString(t *testing.T) {
	obj := assemble(t, "MAIN\tSTART\n\tDC\t'HI'\n\tEND\n")
	if len(obj.Image) != 2 || obj.Image[0] != word.Word('H') || obj.Image[1] != word.Word('I') {
		t.Fatalf("image = %v, want one word per character", obj.Image)
	}
}

func TestAssembleDsReservesZeroWords(t *testing.T) {
	obj := assemble(t, "MAIN\tSTART\n\tDS\t3\n\tDC\t7\n\tEND\n")
	if len(obj.Image) != 4 {
		t.Fatalf("image length = %d, want 4", len(obj.Image))
	}
	if obj.Image[0] != 0 || obj.Image[1] != 0 || obj.Image[2] != 0 {
		t.Errorf("DS should reserve zero words, got %v", obj.Image[:3])
	}
	if obj.Image[3] != 7 {
		t.Errorf("image[3] = %d, want 7", obj.Image[3])
	}
}

func TestAssembleIndexedAddressing(t *testing.T) {
	obj := assemble(t, "MAIN\tSTART\n\tLAD\tGR1,5,GR2\n\tEND\n")
	// opcode LAD=0x12, r1=1, r2=2 (index)
	if obj.Image[0] != 0x1212 {
		t.Errorf("word0 = 0x%04X, want 0x1212", uint16(obj.Image[0]))
	}
	if obj.Image[1] != 5 {
		t.Errorf("word1 = %d, want 5", obj.Image[1])
	}
}
