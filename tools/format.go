// Package tools provides source-level utilities for CASL II programs that
// sit alongside the assembler rather than inside it: today, a canonical
// source formatter.
package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/casl2/comet2emu/internal/casl"
)

// FormatStyle selects a column layout preset.
type FormatStyle int

const (
	FormatDefault FormatStyle = iota
	FormatCompact
	FormatExpanded
)

// FormatOptions controls column placement and alignment. The zero value is
// not useful on its own; use DefaultFormatOptions or one of its siblings.
type FormatOptions struct {
	Style              FormatStyle
	LabelColumn        int
	InstructionColumn  int
	OperandColumn      int
	CommentColumn      int
	AlignOperands      bool
	AlignComments      bool
	PreserveEmptyLines bool
}

// DefaultFormatOptions mirrors the column widths CASL II textbooks typically
// typeset: an 8-column label field, one tab of instruction indent.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatDefault,
		LabelColumn:        0,
		InstructionColumn:  8,
		OperandColumn:      16,
		CommentColumn:      32,
		AlignOperands:      true,
		AlignComments:      true,
		PreserveEmptyLines: true,
	}
}

// CompactFormatOptions minimizes whitespace: single spaces, no column
// alignment.
func CompactFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatCompact,
		InstructionColumn:  1,
		OperandColumn:      1,
		CommentColumn:      1,
		AlignOperands:      false,
		AlignComments:      false,
		PreserveEmptyLines: false,
	}
}

// ExpandedFormatOptions widens every column for maximum legibility.
func ExpandedFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatExpanded,
		LabelColumn:        0,
		InstructionColumn:  12,
		OperandColumn:      24,
		CommentColumn:      48,
		AlignOperands:      true,
		AlignComments:      true,
		PreserveEmptyLines: true,
	}
}

// Formatter renders a parsed Program back to canonical CASL II source text.
type Formatter struct {
	options *FormatOptions
	output  strings.Builder
}

// NewFormatter builds a Formatter with the given options.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format parses input and re-renders it in canonical column layout.
// casl.Program.Statements is already a single source-ordered list, so
// unlike a formatter working from a split instruction/directive AST there is
// no line-number interleaving to do: one statement in, one line out.
func (f *Formatter) Format(input, filename string) (string, error) {
	prog, errs := casl.Parse(input, filename)
	if errs.HasErrors() {
		return "", fmt.Errorf("parse: %s", errs.Error())
	}

	f.output.Reset()
	for _, stmt := range prog.Statements {
		f.formatStatement(stmt)
	}
	return f.output.String(), nil
}

func (f *Formatter) formatStatement(stmt casl.Statement) {
	if stmt.Kind == casl.StmtEmpty && stmt.Label == "" && stmt.Comment == "" {
		if f.options.PreserveEmptyLines {
			f.output.WriteString("\n")
		}
		return
	}

	var line strings.Builder

	if stmt.Label != "" {
		line.WriteString(stmt.Label)
	}
	padTo(&line, f.options.InstructionColumn)

	if stmt.Mnemonic != "" {
		line.WriteString(stmt.Mnemonic)
		if f.options.AlignOperands {
			padTo(&line, f.options.OperandColumn)
		} else {
			padTo(&line, line.Len()+f.operandGap())
		}

		if len(stmt.Operands) > 0 {
			line.WriteString(formatOperands(stmt.Operands))
		}
	}

	if stmt.Comment != "" {
		if f.options.AlignComments {
			padTo(&line, f.options.CommentColumn)
		} else if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString("; ")
		line.WriteString(stmt.Comment)
	}

	f.output.WriteString(line.String())
	f.output.WriteString("\n")
}

func (f *Formatter) operandGap() int {
	if f.options.Style == FormatCompact {
		return 1
	}
	return 1
}

func formatOperands(ops []casl.Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = formatOperand(op)
	}
	return strings.Join(parts, ",")
}

func formatOperand(op casl.Operand) string {
	switch op.Kind {
	case casl.OperandRegister:
		return "GR" + strconv.Itoa(int(op.Reg))
	case casl.OperandHex:
		return "#" + strings.ToUpper(strconv.FormatUint(uint64(uint16(op.Value)), 16))
	case casl.OperandDecimal:
		return strconv.Itoa(int(op.Value))
	case casl.OperandString:
		return "'" + strings.ReplaceAll(op.Str, "'", "''") + "'"
	case casl.OperandLabel:
		return op.Str
	default:
		return ""
	}
}

// padTo appends spaces until b's length reaches col, always writing at
// least one space so adjacent fields never run together.
func padTo(b *strings.Builder, col int) {
	if b.Len() >= col {
		b.WriteString(" ")
		return
	}
	b.WriteString(strings.Repeat(" ", col-b.Len()))
}

// FormatString formats source using DefaultFormatOptions.
func FormatString(source, filename string) (string, error) {
	return NewFormatter(DefaultFormatOptions()).Format(source, filename)
}

// FormatStringWithStyle formats source with one of the named presets.
func FormatStringWithStyle(source, filename string, style FormatStyle) (string, error) {
	var options *FormatOptions
	switch style {
	case FormatCompact:
		options = CompactFormatOptions()
	case FormatExpanded:
		options = ExpandedFormatOptions()
	default:
		options = DefaultFormatOptions()
	}
	return NewFormatter(options).Format(source, filename)
}
