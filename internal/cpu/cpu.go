// Package cpu implements the COMET II register file, memory, decoder, and
// the micro-stepped fetch/decode/addr-gen/execute engine that drives them.
package cpu

import (
	"github.com/casl2/comet2emu/internal/alu"
	"github.com/casl2/comet2emu/internal/word"
)

// MachineCycle is the outer state of the two-level step engine (spec.md
// §3, §4.E).
type MachineCycle uint8

const (
	CycleFetch MachineCycle = iota
	CycleDecode
	CycleAddrGen
	CycleExecute
	CycleEnd
)

func (c MachineCycle) String() string {
	switch c {
	case CycleFetch:
		return "FETCH"
	case CycleDecode:
		return "DECODE"
	case CycleAddrGen:
		return "ADDR_GEN"
	case CycleExecute:
		return "EXECUTE"
	case CycleEnd:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// InitMode selects how Init fills memory and registers.
type InitMode int

const (
	ZeroFill InitMode = iota
	NegativeFill
)

// CPU is a complete COMET II machine: registers, memory, the control-unit
// latches, and the micro-step state machine's cursor. One CPU instance owns
// its memory and register file exclusively; multiple CPUs may run on
// separate goroutines because none of this state is shared (spec.md §5).
type CPU struct {
	GR Registers

	PR      word.Word
	SP      word.Word
	MAR     word.Word
	MDR     word.Word
	IR      [2]word.Word
	FR      alu.Flags
	GenAddr word.Word

	Memory Memory

	MachineCycle MachineCycle
	StepCycle    uint8

	decoded Decoded // cached result of the DECODE phase
}

// New constructs a CPU at zero state: every register and memory cell is
// zero, PR/SP are zero, MachineCycle is FETCH.
func New() *CPU {
	return &CPU{}
}

// Init fills memory and every register per mode. NegativeFill models
// uninitialized hardware by writing 0xFFFF everywhere; ZeroFill writes
// zero everywhere (equivalent to New, but explicit).
func (c *CPU) Init(mode InitMode) {
	var fill word.Word
	if mode == NegativeFill {
		fill = 0xFFFF
	}
	for i := range c.GR {
		c.GR[i] = fill
	}
	for i := range c.Memory {
		c.Memory[i] = fill
	}
	c.PR = fill
	c.SP = fill
	c.MAR = fill
	c.MDR = fill
	c.IR[0] = fill
	c.IR[1] = fill
	c.GenAddr = fill
	c.FR = alu.Flags{}
	c.MachineCycle = CycleFetch
	c.StepCycle = 0
	c.decoded = Decoded{}
}

// Load copies image into memory starting at address 0 and sets PR to entry,
// ready for the driver to begin stepping. SP is set to 0xFFFF: the loader's
// convention treats the stack as already holding one implicit frame at the
// top of memory, so the program's own RET, once every PUSH/CALL it made has
// been matched by a POP/RET, pops SP back to 0x0000 and the machine halts
// (HaltNormal) rather than running off into undefined code.
func (c *CPU) Load(image []word.Word, entry word.Word) {
	c.Memory.Load(0, image)
	c.PR = entry
	c.SP = 0xFFFF
	c.MachineCycle = CycleFetch
	c.StepCycle = 0
}

// Snapshot captures a read-only copy of the full CPU state, for display and
// for tests that assert on state after N micro-steps (spec.md §6,
// Cpu::snapshot).
type Snapshot struct {
	GR           Registers
	PR, SP       word.Word
	MAR, MDR     word.Word
	IR           [2]word.Word
	FR           alu.Flags
	GenAddr      word.Word
	MachineCycle MachineCycle
	StepCycle    uint8
	Decoded      Decoded
}

// Snapshot returns the current state of c. Memory is intentionally excluded
// (64 KiW is too large to copy on every call); read it directly via
// c.Memory.Read for the addresses that matter.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		GR:           c.GR,
		PR:           c.PR,
		SP:           c.SP,
		MAR:          c.MAR,
		MDR:          c.MDR,
		IR:           c.IR,
		FR:           c.FR,
		GenAddr:      c.GenAddr,
		MachineCycle: c.MachineCycle,
		StepCycle:    c.StepCycle,
		Decoded:      c.decoded,
	}
}
