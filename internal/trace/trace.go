// Package trace records one line per executed instruction and writes the
// run to a file, the form SPEC_FULL.md's [trace] config section describes
// (output file, whether to include flags, entry cap) beyond the driver's simple
// stderr echo.
package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/casl2/comet2emu/internal/alu"
	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/casl2/comet2emu/internal/word"
)

// Entry is one recorded instruction execution.
type Entry struct {
	Sequence        uint64
	Address         word.Word
	Disassembly     string
	RegisterChanges map[string]word.Word
	Flags           string // e.g. "O-Z" (OF, SF, ZF; '-' when clear), empty string if disabled
}

// Trace accumulates Entries as a program runs and flushes them to Writer in
// one pass. It holds entries in memory rather than writing incrementally,
// matching the teacher's own buffer-then-flush shape.
type Trace struct {
	Writer       io.Writer
	FilterRegs   map[string]bool // empty: track all of GR0-7 and SP
	IncludeFlags bool
	MaxEntries   int

	// NumberFormat is config.Config.Display.NumberFormat ("hex" or "dec").
	// Empty defaults to hex.
	NumberFormat string

	entries  []Entry
	snapshot map[string]word.Word
}

// New builds a Trace that writes to w. IncludeFlags and MaxEntries default
// to false/0 (no cap); set them, along with NumberFormat, from
// config.Config.Trace/Display before use.
func New(w io.Writer) *Trace {
	return &Trace{
		Writer:   w,
		snapshot: make(map[string]word.Word),
	}
}

// SetFilterRegisters restricts recording to the named registers (GR0-7 and
// SP, case-insensitive; PR is not tracked). An empty or nil list tracks
// everything.
func (t *Trace) SetFilterRegisters(regs []string) {
	t.FilterRegs = make(map[string]bool, len(regs))
	for _, r := range regs {
		t.FilterRegs[strings.ToUpper(r)] = true
	}
}

// Record snapshots c's register file after one executed instruction and
// appends an Entry describing what changed since the last Record call.
func (t *Trace) Record(c *cpu.CPU, seq uint64, disasm string) {
	if t.MaxEntries > 0 && len(t.entries) >= t.MaxEntries {
		return
	}

	entry := Entry{
		Sequence:        seq,
		Address:         c.PR,
		Disassembly:     disasm,
		RegisterChanges: make(map[string]word.Word),
	}

	current := map[string]word.Word{
		"GR0": c.GR.Get(0), "GR1": c.GR.Get(1), "GR2": c.GR.Get(2), "GR3": c.GR.Get(3),
		"GR4": c.GR.Get(4), "GR5": c.GR.Get(5), "GR6": c.GR.Get(6), "GR7": c.GR.Get(7),
		"SP": c.SP,
	}
	for name, value := range current {
		if len(t.FilterRegs) > 0 && !t.FilterRegs[name] {
			continue
		}
		if old, ok := t.snapshot[name]; !ok || old != value {
			entry.RegisterChanges[name] = value
			t.snapshot[name] = value
		}
	}

	if t.IncludeFlags {
		entry.Flags = flagString(c.FR)
	}

	t.entries = append(t.entries, entry)
}

func flagString(fr alu.Flags) string {
	bit := func(set bool, ch byte) byte {
		if set {
			return ch
		}
		return '-'
	}
	return string([]byte{bit(fr.OF, 'O'), bit(fr.SF, 'S'), bit(fr.ZF, 'Z')})
}

// Flush writes every recorded entry to Writer, one line each.
func (t *Trace) Flush() error {
	if t.Writer == nil {
		return nil
	}
	for _, entry := range t.entries {
		if err := t.writeEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trace) writeEntry(entry Entry) error {
	line := fmt.Sprintf("[%06d] %s: %-30s", entry.Sequence, t.formatWord(entry.Address), entry.Disassembly)

	if len(entry.RegisterChanges) > 0 {
		changes := make([]string, 0, len(entry.RegisterChanges))
		for name, value := range entry.RegisterChanges {
			changes = append(changes, fmt.Sprintf("%s=%s", name, t.formatWord(value)))
		}
		line += " | " + strings.Join(changes, " ")
	} else {
		line += " | (no changes)"
	}

	if entry.Flags != "" {
		line += " | " + entry.Flags
	}

	line += "\n"
	_, err := t.Writer.Write([]byte(line))
	return err
}

// formatWord renders w as hex (0xNNNN, the default) or, when NumberFormat is
// "dec", as a plain decimal string.
func (t *Trace) formatWord(w word.Word) string {
	if t.NumberFormat == "dec" {
		return strconv.FormatUint(uint64(uint16(w)), 10)
	}
	return fmt.Sprintf("0x%04X", uint16(w))
}

// Entries returns every recorded entry so far.
func (t *Trace) Entries() []Entry {
	return t.entries
}
