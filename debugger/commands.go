package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/casl2/comet2emu/internal/isa"
	"github.com/casl2/comet2emu/internal/word"
)

func (d *Debugger) cmdRun(args []string) error {
	d.CPU.MachineCycle = cpu.CycleFetch
	d.CPU.StepCycle = 0
	d.runToBreakpoint(nil)
	return nil
}

func (d *Debugger) cmdContinue(args []string) error {
	if d.CPU.MachineCycle == cpu.CycleEnd {
		return fmt.Errorf("program is halted; use 'reset' or 'load' first")
	}
	d.runToBreakpoint(nil)
	return nil
}

// cmdStep executes exactly one whole instruction.
func (d *Debugger) cmdStep(args []string) error {
	if d.CPU.MachineCycle == cpu.CycleEnd {
		return fmt.Errorf("program is halted")
	}
	u := d.CPU.StepInstruction()
	if u.Kind == cpu.UpdateEnd {
		d.Printf("halted: %v\n", u.Halt)
	} else {
		d.Printf("PR=0x%04X\n", uint16(d.CPU.PR))
	}
	return nil
}

// cmdMicro executes exactly one micro-step, for watching FETCH/DECODE/
// ADDR_GEN/EXECUTE advance individually.
func (d *Debugger) cmdMicro(args []string) error {
	if d.CPU.MachineCycle == cpu.CycleEnd {
		return fmt.Errorf("program is halted")
	}
	u := d.CPU.StepMicro()
	d.Printf("%s: %v\n", d.CPU.MachineCycle, u)
	return nil
}

// cmdNext steps over a CALL at the current PR (running until SP recovers to
// its pre-call depth) or behaves like "step" for any other instruction.
func (d *Debugger) cmdNext(args []string) error {
	if d.CPU.MachineCycle == cpu.CycleEnd {
		return fmt.Errorf("program is halted")
	}

	ir0 := d.CPU.Memory.Read(d.CPU.PR)
	isCall := cpu.IsTwoWord(ir0) && cpu.Decode([2]word.Word{ir0, 0}).Opcode == isa.CALL
	preCallSP := d.CPU.SP

	u := d.CPU.StepInstruction()
	if u.Kind == cpu.UpdateEnd {
		d.Printf("halted: %v\n", u.Halt)
		return nil
	}
	if !isCall {
		d.Printf("PR=0x%04X\n", uint16(d.CPU.PR))
		return nil
	}

	d.runUntil(nil, func() (bool, string) {
		return d.CPU.SP >= preCallSP, "step over"
	})
	return nil
}

// cmdFinish runs until the current call frame returns (SP climbs back above
// its value when finish was issued).
func (d *Debugger) cmdFinish(args []string) error {
	if d.CPU.MachineCycle == cpu.CycleEnd {
		return fmt.Errorf("program is halted")
	}
	targetSP := d.CPU.SP
	d.runUntil(nil, func() (bool, string) {
		return d.CPU.SP > targetSP, "step out"
	})
	return nil
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, false)
	d.Printf("breakpoint %d at 0x%04X\n", bp.ID, uint16(addr))
	return nil
}

func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, true)
	d.Printf("temporary breakpoint %d at 0x%04X\n", bp.ID, uint16(addr))
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	if err := d.Breakpoints.Delete(id); err != nil {
		return err
	}
	d.Printf("deleted breakpoint %d\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error  { return d.setBreakpointEnabled(args, true) }
func (d *Debugger) cmdDisable(args []string) error { return d.setBreakpointEnabled(args, false) }

func (d *Debugger) setBreakpointEnabled(args []string, enabled bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: enable|disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	return d.Breakpoints.SetEnabled(id, enabled)
}

// cmdPrint prints a general register (GR0..GR7), a control register
// (PR/SP/FR), or a resolved label's address.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: print <GRn|PR|SP|FR|label>")
	}
	name := strings.ToUpper(args[0])
	switch {
	case name == "PR":
		d.Printf("PR = 0x%04X\n", uint16(d.CPU.PR))
	case name == "SP":
		d.Printf("SP = 0x%04X\n", uint16(d.CPU.SP))
	case name == "FR":
		d.Printf("FR = OF:%v SF:%v ZF:%v\n", d.CPU.FR.OF, d.CPU.FR.SF, d.CPU.FR.ZF)
	case strings.HasPrefix(name, "GR") && len(name) == 3:
		n, err := strconv.Atoi(name[2:])
		if err != nil || n < 0 || n > 7 {
			return fmt.Errorf("invalid register: %s", args[0])
		}
		d.Printf("GR%d = 0x%04X\n", n, uint16(d.CPU.GR.Get(uint8(n))))
	default:
		addr, err := d.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		d.Printf("%s = 0x%04X (MEM[%s] = 0x%04X)\n", args[0], uint16(addr), args[0], uint16(d.CPU.Memory.Read(addr)))
	}
	return nil
}

// cmdExamine dumps a run of memory words starting at an address or label.
func (d *Debugger) cmdExamine(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: x <address|label> [count]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	count := word.Word(8)
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		count = word.Word(n)
	}
	for i := word.Word(0); i < count; i++ {
		d.Printf("0x%04X: 0x%04X\n", uint16(addr+i), uint16(d.CPU.Memory.Read(addr+i)))
	}
	return nil
}

func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <registers|breakpoints|symbols>")
	}
	switch args[0] {
	case "registers", "regs", "r":
		for i := uint8(0); i < 8; i++ {
			d.Printf("GR%d = 0x%04X  ", i, uint16(d.CPU.GR.Get(i)))
		}
		d.Printf("\nPR = 0x%04X  SP = 0x%04X  FR(OF:%v SF:%v ZF:%v)\n",
			uint16(d.CPU.PR), uint16(d.CPU.SP), d.CPU.FR.OF, d.CPU.FR.SF, d.CPU.FR.ZF)
	case "breakpoints", "break", "b":
		bps := d.Breakpoints.All()
		if len(bps) == 0 {
			d.Printf("no breakpoints set\n")
			return nil
		}
		for _, bp := range bps {
			status := "enabled"
			if !bp.Enabled {
				status = "disabled"
			}
			d.Printf("%d: 0x%04X %s (hits: %d)\n", bp.ID, uint16(bp.Address), status, bp.HitCount)
		}
	case "symbols", "sym":
		for name, addr := range d.Symbols {
			d.Printf("%-8s 0x%04X\n", name, uint16(addr))
		}
	default:
		return fmt.Errorf("unknown info topic: %s", args[0])
	}
	return nil
}

// cmdList prints the source lines around PR, if a source map was loaded.
func (d *Debugger) cmdList(args []string) error {
	if len(d.SourceMap) == 0 {
		return fmt.Errorf("no source map loaded")
	}
	pr := d.CPU.PR
	for addr := pr; addr < pr+10; addr++ {
		if line, ok := d.SourceMap[addr]; ok {
			marker := "  "
			if addr == pr {
				marker = "->"
			}
			d.Printf("%s 0x%04X: %s\n", marker, uint16(addr), line)
		}
	}
	return nil
}

func (d *Debugger) cmdLoad(args []string) error {
	return fmt.Errorf("use loader.LoadFile before starting the debugger")
}

func (d *Debugger) cmdReset(args []string) error {
	d.CPU.Init(cpu.ZeroFill)
	d.Printf("CPU reset\n")
	return nil
}

func (d *Debugger) cmdHelp(args []string) error {
	d.Printf(`commands:
  run, continue         start or resume execution until a breakpoint or halt
  step                  execute one instruction
  micro                 execute one micro-step (FETCH/DECODE/ADDR_GEN/EXECUTE)
  next                  step, treating CALL as one step
  finish                run until the current call returns
  break <addr>          set a breakpoint
  tbreak <addr>         set a one-shot breakpoint
  delete <id>           remove a breakpoint
  enable/disable <id>   toggle a breakpoint
  print <GRn|PR|SP|FR>  show a register
  x <addr> [count]      dump memory words
  info registers|breakpoints|symbols
  list                  show source lines around PR
  reset                 reinitialize the CPU
`)
	return nil
}
