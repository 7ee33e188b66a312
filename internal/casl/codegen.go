package casl

import (
	"github.com/casl2/comet2emu/internal/isa"
	"github.com/casl2/comet2emu/internal/word"
)

// Object is the output of assembling a Program: a flat memory image ready to
// hand to cpu.CPU.Load, and the resolved entry address (spec.md §4.G:
// "Output is a pair (entry_addr, memory_image)").
type Object struct {
	Image   []word.Word
	Entry   word.Word
	Symbols *SymbolTable
}

// Assemble runs the full two-pass pipeline: Parse, then location-counter
// assignment (pass 1), then word emission and label resolution (pass 2).
func Assemble(source, filename string) (*Object, *ErrorList) {
	prog, errs := Parse(source, filename)
	if errs.HasErrors() {
		return nil, errs
	}
	return AssembleProgram(prog)
}

// AssembleProgram runs the code generator over an already-parsed Program.
func AssembleProgram(prog *Program) (*Object, *ErrorList) {
	errs := &ErrorList{}
	symbols := NewSymbolTable()

	sizes := make([]int, len(prog.Statements))
	var loc word.Word
	for i, stmt := range prog.Statements {
		if stmt.Label != "" {
			if err, ok := symbols.Define(stmt.Label, loc, stmt.Pos); !ok {
				errs.Errors = append(errs.Errors, err)
			}
		}
		n := statementSize(stmt)
		sizes[i] = n
		loc += word.Word(n)
	}

	image := make([]word.Word, loc)
	var entry word.Word
	entrySeen := false
	loc = 0
	for _, stmt := range prog.Statements {
		switch stmt.Kind {
		case StmtEmpty, StmtEnd:
			// no words, no state change

		case StmtStart:
			entrySeen = true
			if len(stmt.Operands) == 1 {
				op := stmt.Operands[0]
				if op.Kind != OperandLabel {
					errs.add(stmt.Pos, ErrorSyntax, "START operand must be a label", "")
				} else if addr, ok := symbols.Lookup(op.Str); ok {
					entry = addr
				} else {
					errs.add(stmt.Pos, ErrorUndefinedLabel, "undefined entry label \""+op.Str+"\"", "")
				}
			} else {
				entry = loc
			}

		case StmtDirective:
			loc = emitDirective(image, loc, stmt, symbols, errs)
			continue

		case StmtMachine1:
			opc, ok := isa.LookupMnemonic(stmt.Mnemonic, isa.Form1W)
			if !ok {
				errs.add(stmt.Pos, ErrorUnknownOpcode, "unknown opcode \""+stmt.Mnemonic+"\"", "")
				break
			}
			r1, r2, _ := fieldsFor(stmt.Operands)
			image[loc] = word.Word(opc.Opcode)<<8 | word.Word(r1)<<4 | word.Word(r2)
			loc++

		case StmtMachine2:
			opc, ok := isa.LookupMnemonic(stmt.Mnemonic, isa.Form2W)
			if !ok {
				errs.add(stmt.Pos, ErrorUnknownOpcode, "unknown opcode \""+stmt.Mnemonic+"\"", "")
				break
			}
			r1, r2, addrOp := fieldsFor(stmt.Operands)
			image[loc] = word.Word(opc.Opcode)<<8 | word.Word(r1)<<4 | word.Word(r2)
			loc++
			var addr word.Word
			if addrOp != nil {
				addr = resolveAddrOperand(*addrOp, symbols, stmt.Pos, errs)
			}
			image[loc] = addr
			loc++
		}
	}

	if !entrySeen {
		errs.add(Position{Filename: "", Line: 0}, ErrorSyntax, "missing START statement", "")
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return &Object{Image: image, Entry: entry, Symbols: symbols}, errs
}

// statementSize returns how many words a statement occupies in the final
// image (spec.md §4.G pass 1).
func statementSize(stmt Statement) int {
	switch stmt.Kind {
	case StmtMachine1:
		return 1
	case StmtMachine2:
		return 2
	case StmtDirective:
		if stmt.Mnemonic == "DS" {
			if len(stmt.Operands) == 1 {
				return int(stmt.Operands[0].Value)
			}
			return 0
		}
		// DC: one word per literal operand, or one word per character for
		// a string literal.
		n := 0
		for _, op := range stmt.Operands {
			if op.Kind == OperandString {
				n += len(op.Str)
			} else {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

func emitDirective(image []word.Word, loc word.Word, stmt Statement, symbols *SymbolTable, errs *ErrorList) word.Word {
	if stmt.Mnemonic == "DS" {
		if len(stmt.Operands) == 1 {
			loc += word.Word(stmt.Operands[0].Value) // already zero-filled
		}
		return loc
	}
	for _, op := range stmt.Operands {
		switch op.Kind {
		case OperandString:
			for _, r := range op.Str {
				image[loc] = word.Word(r)
				loc++
			}
		case OperandHex, OperandDecimal:
			image[loc] = word.Word(uint16(op.Value))
			loc++
		case OperandLabel:
			image[loc] = resolveAddrOperand(op, symbols, stmt.Pos, errs)
			loc++
		default:
			loc++
		}
	}
	return loc
}

func resolveAddrOperand(op Operand, symbols *SymbolTable, pos Position, errs *ErrorList) word.Word {
	switch op.Kind {
	case OperandLabel:
		addr, ok := symbols.Lookup(op.Str)
		if !ok {
			errs.add(pos, ErrorUndefinedLabel, "undefined label \""+op.Str+"\"", "")
			return 0
		}
		return addr
	default:
		return word.Word(uint16(op.Value))
	}
}

// fieldsFor applies the decoder's field convention to a statement's operand
// list: a register appearing before the address operand is r1, one
// appearing after it is r2/index; for 1-word forms there is no address
// operand and registers fill r1 then r2 in order.
func fieldsFor(ops []Operand) (r1, r2 uint8, addr *Operand) {
	addrIdx := -1
	for i := range ops {
		if ops[i].Kind != OperandRegister {
			addrIdx = i
			break
		}
	}
	if addrIdx == -1 {
		// 1-word form: registers fill r1 then r2 in order.
		if len(ops) > 0 {
			r1 = ops[0].Reg
		}
		if len(ops) > 1 {
			r2 = ops[1].Reg
		}
		return r1, r2, nil
	}
	for i := range ops {
		if i == addrIdx || ops[i].Kind != OperandRegister {
			continue
		}
		if i < addrIdx {
			r1 = ops[i].Reg
		} else {
			r2 = ops[i].Reg
		}
	}
	return r1, r2, &ops[addrIdx]
}
