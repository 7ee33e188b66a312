package casl

import (
	"strconv"
	"strings"

	"github.com/casl2/comet2emu/internal/isa"
)

const maxLabelLen = 8

// Parse turns source into a Program, collecting every error it finds along
// the way rather than stopping at the first (spec.md §4.F/§7: "collect
// errors, do not stop at the first").
func Parse(source, filename string) (*Program, *ErrorList) {
	errs := &ErrorList{}
	prog := &Program{}

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		if i == len(lines)-1 && line == "" {
			break // the empty piece after a trailing newline is not a line
		}
		lineNo := i + 1
		raw := lexLine(line)
		if raw.blank {
			prog.Statements = append(prog.Statements, Statement{
				Kind:    StmtEmpty,
				Comment: raw.comment,
				Pos:     Position{Filename: filename, Line: lineNo, Column: 1},
			})
			continue
		}

		pos := Position{Filename: filename, Line: lineNo, Column: 1}
		if len(raw.label) > maxLabelLen {
			errs.add(pos, ErrorLabelTooLong,
				"label \""+raw.label+"\" exceeds 8 characters", line)
		}

		operandTokens := splitOperands(raw.operandsRaw)
		operands := make([]Operand, 0, len(operandTokens))
		for _, tok := range operandTokens {
			if tok == "" {
				continue
			}
			op, opErr := parseOperand(tok, pos, line)
			if opErr != nil {
				errs.Errors = append(errs.Errors, opErr)
				continue
			}
			operands = append(operands, op)
		}

		stmt := Statement{
			Pos:      pos,
			Label:    raw.label,
			Mnemonic: raw.mnemonic,
			Operands: operands,
			Comment:  raw.comment,
		}
		stmt.Kind = classify(stmt, pos, line, errs)
		prog.Statements = append(prog.Statements, stmt)
	}

	return prog, errs
}

func parseOperand(tok string, pos Position, context string) (Operand, *Error) {
	switch {
	case isRegisterToken(tok):
		n, _ := strconv.Atoi(tok[2:])
		return Operand{Kind: OperandRegister, Reg: uint8(n)}, nil

	case strings.HasPrefix(tok, "#"):
		v, err := strconv.ParseUint(tok[1:], 16, 16)
		if err != nil {
			return Operand{}, newError(pos, ErrorBadLiteral, "invalid hex literal \""+tok+"\"", context)
		}
		return Operand{Kind: OperandHex, Value: int32(v)}, nil

	case len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'':
		return Operand{Kind: OperandString, Str: strings.ReplaceAll(tok[1:len(tok)-1], "''", "'")}, nil

	case isDecimalToken(tok):
		v, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return Operand{}, newError(pos, ErrorBadLiteral, "invalid decimal literal \""+tok+"\"", context)
		}
		return Operand{Kind: OperandDecimal, Value: int32(v)}, nil

	default:
		return Operand{Kind: OperandLabel, Str: tok}, nil
	}
}

func isRegisterToken(tok string) bool {
	if len(tok) != 3 || (tok[0] != 'G' && tok[0] != 'g') || (tok[1] != 'R' && tok[1] != 'r') {
		return false
	}
	return tok[2] >= '0' && tok[2] <= '7'
}

func isDecimalToken(tok string) bool {
	s := tok
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// classify assigns a StmtKind and validates operand shape/count against the
// directive or the isa table's per-form shape (spec.md §4.F's
// operand-count disambiguation table).
func classify(stmt Statement, pos Position, context string, errs *ErrorList) StmtKind {
	switch stmt.Mnemonic {
	case "START":
		if len(stmt.Operands) > 1 {
			errs.add(pos, ErrorOperandCount, "START takes at most one operand", context)
		}
		return StmtStart
	case "END":
		if len(stmt.Operands) != 0 {
			errs.add(pos, ErrorOperandCount, "END takes no operands", context)
		}
		return StmtEnd
	case "DC":
		if len(stmt.Operands) == 0 {
			errs.add(pos, ErrorOperandCount, "DC requires at least one operand", context)
		}
		return StmtDirective
	case "DS":
		if len(stmt.Operands) != 1 || stmt.Operands[0].Kind != OperandDecimal {
			errs.add(pos, ErrorOperandCount, "DS requires exactly one decimal operand", context)
		}
		return StmtDirective
	case "":
		// A label-only line defines the label at the next location.
		return StmtEmpty
	}

	form, shapeErr := disambiguateForm(stmt.Operands)
	if shapeErr != "" {
		errs.add(pos, ErrorOperandCount, shapeErr, context)
		return StmtMachine1
	}

	if !isa.HasForm(stmt.Mnemonic, form) {
		errs.add(pos, ErrorUnknownOpcode, "unknown opcode \""+stmt.Mnemonic+"\" for this operand shape", context)
	}
	for _, op := range stmt.Operands {
		if op.Kind == OperandRegister && op.Reg > 7 {
			errs.add(pos, ErrorBadRegister, "register out of range GR0..GR7", context)
		}
	}

	if form == isa.Form1W {
		return StmtMachine1
	}
	return StmtMachine2
}

// disambiguateForm applies spec.md §4.F's operand-count table to decide
// 1-word vs 2-word, independent of which mnemonic it is.
func disambiguateForm(ops []Operand) (isa.Form, string) {
	switch len(ops) {
	case 0:
		return isa.Form1W, ""
	case 1:
		if ops[0].Kind == OperandRegister {
			return isa.Form1W, ""
		}
		return isa.Form2W, ""
	case 2:
		if ops[0].Kind == OperandRegister && ops[1].Kind == OperandRegister {
			return isa.Form1W, ""
		}
		if ops[0].Kind == OperandRegister {
			return isa.Form2W, ""
		}
		return isa.Form1W, "first operand must be a register"
	case 3:
		if ops[0].Kind == OperandRegister && ops[2].Kind == OperandRegister {
			return isa.Form2W, ""
		}
		return isa.Form1W, "3-operand form must be register, address, register"
	default:
		return isa.Form1W, "too many operands"
	}
}
