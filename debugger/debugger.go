// Package debugger is an interactive front end over internal/cpu: a small
// gdb-style command set plus an optional tcell/tview single-step view, for
// students who want to watch FETCH/DECODE/ADDR_GEN/EXECUTE advance one
// instruction (or one micro-step) at a time.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/casl2/comet2emu/internal/casl"
	"github.com/casl2/comet2emu/internal/config"
	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/casl2/comet2emu/internal/word"
)

// Debugger wraps a CPU with breakpoints, command history, and the
// bookkeeping needed to single-step or run it from a command line or TUI.
type Debugger struct {
	CPU *cpu.CPU

	Breakpoints *BreakpointManager
	History     *CommandHistory

	Symbols   map[string]word.Word
	SourceMap map[word.Word]string

	// ShowRegisters, ShowSource and ColorOutput come from the loaded
	// config's [debugger]/[display] sections; the TUI consults them when
	// deciding what to render and how.
	ShowRegisters bool
	ShowSource    bool
	ColorOutput   bool

	LastCommand string
	Output      strings.Builder
}

// NewDebugger wraps c for interactive stepping. A nil cfg falls back to
// config.DefaultConfig().
func NewDebugger(c *cpu.CPU, cfg *config.Config) *Debugger {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Debugger{
		CPU:           c,
		Breakpoints:   NewBreakpointManager(),
		History:       NewCommandHistory(cfg.Debugger.HistorySize),
		Symbols:       make(map[string]word.Word),
		SourceMap:     make(map[word.Word]string),
		ShowRegisters: cfg.Debugger.ShowRegisters,
		ShowSource:    cfg.Debugger.ShowSource,
		ColorOutput:   cfg.Display.ColorOutput,
	}
}

// LoadObject records an assembled program's symbol table for label
// resolution in commands like "break MAIN" or "print COUNT".
func (d *Debugger) LoadObject(obj *casl.Object) {
	if obj.Symbols != nil {
		d.Symbols = obj.Symbols.All()
	}
}

// ResolveAddress resolves a label to its address, falling back to decimal
// or 0x-prefixed hex parsing.
func (d *Debugger) ResolveAddress(s string) (word.Word, error) {
	if addr, ok := d.Symbols[s]; ok {
		return addr, nil
	}
	if v, ok := parseAddrLiteral(s); ok {
		return v, nil
	}
	return 0, fmt.Errorf("not a known label or address: %q", s)
}

func parseAddrLiteral(s string) (word.Word, bool) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, false
	}
	return word.Word(v), true
}

// ExecuteCommand parses and runs one command line. An empty line repeats
// the previous command.
func (d *Debugger) ExecuteCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.LastCommand
	}
	if line != "" {
		d.History.Add(line)
		d.LastCommand = line
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return d.dispatch(strings.ToLower(fields[0]), fields[1:])
}

func (d *Debugger) dispatch(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s":
		return d.cmdStep(args)
	case "micro", "mi":
		return d.cmdMicro(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "x":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "list", "l":
		return d.cmdList(args)

	case "load":
		return d.cmdLoad(args)
	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for the command list)", cmd)
	}
}

// runUntil steps whole instructions, invoking onStep every
// displayUpdateFrequency instructions, until stop reports true or the CPU
// halts. stop is consulted after every instruction.
func (d *Debugger) runUntil(onStep func(count int), stop func() (bool, string)) {
	count := 0
	for d.CPU.MachineCycle != cpu.CycleEnd {
		u := d.CPU.StepInstruction()
		count++
		if onStep != nil && count%displayUpdateFrequency == 0 {
			onStep(count)
		}
		if u.Kind == cpu.UpdateEnd {
			d.Printf("halted: %v\n", u.Halt)
			return
		}
		if done, reason := stop(); done {
			d.Printf("stopped: %s at PR=0x%04X\n", reason, uint16(d.CPU.PR))
			return
		}
	}
}

// runToBreakpoint runs until a breakpoint fires or the machine halts; used
// by "continue" and "run".
func (d *Debugger) runToBreakpoint(onStep func(count int)) {
	d.runUntil(onStep, func() (bool, string) {
		if bp := d.Breakpoints.Hit(d.CPU.PR); bp != nil {
			return true, fmt.Sprintf("breakpoint %d", bp.ID)
		}
		return false, ""
	})
}

// GetOutput returns and clears the accumulated output buffer.
func (d *Debugger) GetOutput() string {
	out := d.Output.String()
	d.Output.Reset()
	return out
}

// Printf writes formatted text to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}
