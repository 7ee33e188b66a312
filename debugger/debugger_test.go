package debugger

import (
	"testing"

	"github.com/casl2/comet2emu/internal/casl"
	"github.com/casl2/comet2emu/internal/config"
	"github.com/casl2/comet2emu/internal/cpu"
)

func newTestDebugger(t *testing.T, source string) *Debugger {
	t.Helper()
	c := cpu.New()
	c.Init(cpu.ZeroFill)

	obj, errs := casl.Assemble(source, "t.cas")
	if errs.HasErrors() {
		t.Fatalf("assemble: %v", errs)
	}
	c.Load(obj.Image, obj.Entry)

	dbg := NewDebugger(c, nil)
	dbg.LoadObject(obj)
	return dbg
}

const sumProgram = "MAIN\tSTART\n" +
	"\tLAD\tGR1,2\n" +
	"\tLAD\tGR2,3\n" +
	"\tADDA\tGR1,GR2\n" +
	"\tRET\n" +
	"\tEND\n"

func TestResolveAddressLabel(t *testing.T) {
	dbg := newTestDebugger(t, sumProgram)

	addr, err := dbg.ResolveAddress("MAIN")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if addr != 0 {
		t.Errorf("MAIN = 0x%04X, want 0", uint16(addr))
	}
}

func TestResolveAddressLiteral(t *testing.T) {
	dbg := newTestDebugger(t, sumProgram)

	if addr, err := dbg.ResolveAddress("0x10"); err != nil || addr != 0x10 {
		t.Errorf("ResolveAddress(0x10) = 0x%04X, %v", uint16(addr), err)
	}
	if addr, err := dbg.ResolveAddress("16"); err != nil || addr != 16 {
		t.Errorf("ResolveAddress(16) = %d, %v", addr, err)
	}
	if _, err := dbg.ResolveAddress("NOSUCHLABEL"); err == nil {
		t.Error("expected an error for an unknown label")
	}
}

func TestExecuteCommandRepeatsLastOnEmptyLine(t *testing.T) {
	dbg := newTestDebugger(t, sumProgram)

	if err := dbg.ExecuteCommand("step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	dbg.GetOutput()
	pr1 := dbg.CPU.PR

	if err := dbg.ExecuteCommand(""); err != nil {
		t.Fatalf("empty command: %v", err)
	}
	if dbg.CPU.PR == pr1 {
		t.Error("empty line should have repeated the previous step")
	}
}

func TestExecuteCommandUnknown(t *testing.T) {
	dbg := newTestDebugger(t, sumProgram)

	if err := dbg.ExecuteCommand("frobnicate"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	dbg := newTestDebugger(t, sumProgram)

	addr, err := dbg.ResolveAddress("MAIN")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	dbg.Breakpoints.Add(addr+2, false)

	if err := dbg.ExecuteCommand("run"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if dbg.CPU.PR != addr+2 {
		t.Errorf("PR = 0x%04X, want 0x%04X", uint16(dbg.CPU.PR), uint16(addr+2))
	}
	if dbg.CPU.MachineCycle == cpu.CycleEnd {
		t.Error("run should have stopped at the breakpoint, not halted")
	}
}

func TestNewDebuggerReadsConfig(t *testing.T) {
	c := cpu.New()
	c.Init(cpu.ZeroFill)

	cfg := config.DefaultConfig()
	cfg.Debugger.HistorySize = 2
	cfg.Debugger.ShowRegisters = false
	cfg.Debugger.ShowSource = false
	cfg.Display.ColorOutput = false

	dbg := NewDebugger(c, cfg)

	if dbg.ShowRegisters {
		t.Error("ShowRegisters should follow cfg.Debugger.ShowRegisters")
	}
	if dbg.ShowSource {
		t.Error("ShowSource should follow cfg.Debugger.ShowSource")
	}
	if dbg.ColorOutput {
		t.Error("ColorOutput should follow cfg.Display.ColorOutput")
	}

	dbg.History.Add("a")
	dbg.History.Add("b")
	dbg.History.Add("c")
	if dbg.History.Size() != 2 {
		t.Errorf("History.Size() = %d, want 2 (cfg.Debugger.HistorySize)", dbg.History.Size())
	}
}

func TestNewDebuggerNilConfigUsesDefaults(t *testing.T) {
	c := cpu.New()
	c.Init(cpu.ZeroFill)

	dbg := NewDebugger(c, nil)
	if !dbg.ShowRegisters || !dbg.ShowSource || !dbg.ColorOutput {
		t.Error("a nil config should fall back to config.DefaultConfig()'s enabled defaults")
	}
}

func TestRunToCompletionWithoutBreakpoints(t *testing.T) {
	dbg := newTestDebugger(t, sumProgram)

	if err := dbg.ExecuteCommand("run"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if dbg.CPU.MachineCycle != cpu.CycleEnd {
		t.Error("program should have run to completion")
	}
	if dbg.CPU.GR.Get(1) != 5 {
		t.Errorf("GR1 = %d, want 5", dbg.CPU.GR.Get(1))
	}
}
