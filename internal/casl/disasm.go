package casl

import (
	"fmt"
	"strings"

	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/casl2/comet2emu/internal/isa"
	"github.com/casl2/comet2emu/internal/word"
)

// Disassemble renders every instruction in image as one text line per
// instruction, starting at address 0. It is a thin formatter over the same
// isa table and cpu.Decode the CPU itself uses for fetch/decode — not an
// independent decoding path — so it can never disagree with how the machine
// actually interprets a word (spec.md §4.G: "disassembly of each word
// matches the original AST instruction").
func Disassemble(image []word.Word) []string {
	var lines []string
	addr := word.Word(0)
	for int(addr) < len(image) {
		var ir [2]word.Word
		ir[0] = image[addr]
		twoWord := cpu.IsTwoWord(ir[0])
		if twoWord && int(addr)+1 < len(image) {
			ir[1] = image[addr+1]
		}
		d := cpu.Decode(ir)
		lines = append(lines, FormatInstruction(addr, d))
		if twoWord {
			addr += 2
		} else {
			addr++
		}
	}
	return lines
}

// FormatInstruction renders one decoded instruction at addr the same way
// Disassemble does, so any caller that already has a cpu.Decoded (the
// debugger's disassembly view, the driver's trace) gets identical text
// without re-deriving the operand shape rules itself.
func FormatInstruction(addr word.Word, d cpu.Decoded) string {
	entry, ok := isa.Lookup(d.Opcode)
	if !ok {
		return fmt.Sprintf("%04X  DC    #%04X", uint16(addr), d.Opcode)
	}

	var operands []string
	switch entry.Shape {
	case isa.ShapeNone:
		// no operands
	case isa.ShapeReg:
		operands = append(operands, fmt.Sprintf("GR%d", d.R1))
	case isa.ShapeRegReg:
		operands = append(operands, fmt.Sprintf("GR%d", d.R1), fmt.Sprintf("GR%d", d.R2))
	case isa.ShapeAddr:
		operands = append(operands, fmt.Sprintf("#%04X", uint16(d.Addr)))
		if d.R2 != 0 {
			operands = append(operands, fmt.Sprintf("GR%d", d.R2))
		}
	case isa.ShapeRegAddr, isa.ShapeRegAddrIdx:
		operands = append(operands, fmt.Sprintf("GR%d", d.R1), fmt.Sprintf("#%04X", uint16(d.Addr)))
		if d.R2 != 0 {
			operands = append(operands, fmt.Sprintf("GR%d", d.R2))
		}
	}

	return fmt.Sprintf("%04X  %-5s %s", uint16(addr), entry.Mnemonic, strings.Join(operands, ","))
}
