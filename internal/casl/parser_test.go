package casl

import "testing"

func TestParseSimpleProgram(t *testing.T) {
	src := "MAIN\tSTART\n" +
		"\tLAD\tGR1,5\n" +
		"\tRET\n" +
		"\tEND\n"

	prog, errs := Parse(src, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(prog.Statements) != 4 {
		t.Fatalf("got %d statements, want 4", len(prog.Statements))
	}
	if prog.Statements[0].Kind != StmtStart || prog.Statements[0].Label != "MAIN" {
		t.Errorf("statement 0 = %+v", prog.Statements[0])
	}
	if prog.Statements[1].Kind != StmtMachine2 || prog.Statements[1].Mnemonic != "LAD" {
		t.Errorf("statement 1 = %+v", prog.Statements[1])
	}
	if prog.Statements[2].Kind != StmtMachine1 || prog.Statements[2].Mnemonic != "RET" {
		t.Errorf("statement 2 = %+v", prog.Statements[2])
	}
}

func TestParseLabelTooLong(t *testing.T) {
	src := "TOOLONGLABEL\tSTART\n"
	_, errs := Parse(src, "t.cas")
	if !errs.HasErrors() || errs.Errors[0].Kind != ErrorLabelTooLong {
		t.Fatalf("expected ErrorLabelTooLong, got %v", errs)
	}
}

func TestParseOperandKinds(t *testing.T) {
	src := "\tDC\t1,#00FF,'HI',LBL\n"
	prog, errs := Parse(src, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	ops := prog.Statements[0].Operands
	if len(ops) != 4 {
		t.Fatalf("got %d operands, want 4", len(ops))
	}
	if ops[0].Kind != OperandDecimal || ops[0].Value != 1 {
		t.Errorf("operand 0 = %+v", ops[0])
	}
	if ops[1].Kind != OperandHex || ops[1].Value != 0xFF {
		t.Errorf("operand 1 = %+v", ops[1])
	}
	if ops[2].Kind != OperandString || ops[2].Str != "HI" {
		t.Errorf("operand 2 = %+v", ops[2])
	}
	if ops[3].Kind != OperandLabel || ops[3].Str != "LBL" {
		t.Errorf("operand 3 = %+v", ops[3])
	}
}

func TestParseRegRegIsOneWord(t *testing.T) {
	src := "\tADDA\tGR1,GR2\n"
	prog, errs := Parse(src, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if prog.Statements[0].Kind != StmtMachine1 {
		t.Errorf("ADDA GR1,GR2 should classify as 1-word, got %v", prog.Statements[0].Kind)
	}
}

func TestParseIndexedThreeOperandIsTwoWord(t *testing.T) {
	src := "\tLAD\tGR1,5,GR2\n"
	prog, errs := Parse(src, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if prog.Statements[0].Kind != StmtMachine2 {
		t.Errorf("LAD GR1,5,GR2 should classify as 2-word, got %v", prog.Statements[0].Kind)
	}
}

func TestParseUnknownOpcode(t *testing.T) {
	src := "\tFROB\tGR1,GR2\n"
	_, errs := Parse(src, "t.cas")
	if !errs.HasErrors() || errs.Errors[0].Kind != ErrorUnknownOpcode {
		t.Fatalf("expected ErrorUnknownOpcode, got %v", errs)
	}
}

func TestParseComment(t *testing.T) {
	src := "\tNOP\t; does nothing\n"
	prog, errs := Parse(src, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if prog.Statements[0].Comment != "does nothing" {
		t.Errorf("comment = %q", prog.Statements[0].Comment)
	}
}
