package cpu

import (
	"github.com/casl2/comet2emu/internal/alu"
	"github.com/casl2/comet2emu/internal/isa"
	"github.com/casl2/comet2emu/internal/word"
)

// fetch step_cycle markers. FETCH consumes 3 micro-steps for a 1-word
// instruction and 6 for a 2-word instruction.
const (
	fetchPR2Mar uint8 = iota
	fetchMem2Mdr
	fetchMdr2Ir0
	fetchPR2MarW2
	fetchMem2MdrW2
	fetchMdr2Ir1
)

// StepMicro advances the machine by exactly one micro-step and returns the
// Update it produced. The caller drives the machine by calling StepMicro
// repeatedly; StepInstruction is a convenience that runs a whole instruction.
func (c *CPU) StepMicro() Update {
	switch c.MachineCycle {
	case CycleFetch:
		return c.stepFetch()
	case CycleDecode:
		return c.stepDecode()
	case CycleAddrGen:
		return c.stepAddrGen()
	case CycleExecute:
		return c.stepExecute()
	default: // CycleEnd
		return Update{Kind: UpdateNone}
	}
}

// StepInstruction runs StepMicro until the machine returns to FETCH (one
// full instruction) or reaches END, whichever comes first. It returns the
// last Update produced.
func (c *CPU) StepInstruction() Update {
	u := c.StepMicro()
	for c.MachineCycle != CycleEnd && !(c.MachineCycle == CycleFetch && c.StepCycle == 0) {
		u = c.StepMicro()
	}
	return u
}

func (c *CPU) stepFetch() Update {
	switch c.StepCycle {
	case fetchPR2Mar:
		c.MAR = c.PR
		c.StepCycle++
		return Update{Kind: UpdateMAR, Word: c.MAR}
	case fetchMem2Mdr:
		c.MDR = c.Memory.Read(c.MAR)
		c.StepCycle++
		return Update{Kind: UpdateMDR, Word: c.MDR}
	case fetchMdr2Ir0:
		c.IR[0] = c.MDR
		c.PR++
		if !IsTwoWord(c.IR[0]) {
			c.MachineCycle = CycleDecode
			c.StepCycle = 0
		} else {
			c.StepCycle++
		}
		return Update{Kind: UpdateIR0, Word: c.IR[0]}
	case fetchPR2MarW2:
		c.MAR = c.PR
		c.StepCycle++
		return Update{Kind: UpdateMAR, Word: c.MAR}
	case fetchMem2MdrW2:
		c.MDR = c.Memory.Read(c.MAR)
		c.StepCycle++
		return Update{Kind: UpdateMDR, Word: c.MDR}
	default: // fetchMdr2Ir1
		c.IR[1] = c.MDR
		c.PR++
		c.MachineCycle = CycleDecode
		c.StepCycle = 0
		return Update{Kind: UpdateIR1, Word: c.IR[1]}
	}
}

func (c *CPU) stepDecode() Update {
	switch c.StepCycle {
	case 0:
		c.decoded = Decode(c.IR)
		c.StepCycle++
		return Update{Kind: UpdateDecoder, IR: c.IR}
	default:
		c.MachineCycle = CycleAddrGen
		c.StepCycle = 0
		return Update{Kind: UpdateController, Glyph: isa.Glyph4(c.decoded.Opcode)}
	}
}

// needsAddrGen reports whether opcode's effective address (gen_addr) must be
// computed before EXECUTE. Every 2-word opcode does except the shapes with
// no address operand at all; 1-word opcodes never do (LD GRa,GRb copies a
// register directly and the rest have no address field).
func needsAddrGen(d Decoded) bool {
	if d.Form != isa.Form2W {
		return false
	}
	return true
}

func (c *CPU) stepAddrGen() Update {
	if !c.decoded.Known {
		c.MachineCycle = CycleExecute
		c.StepCycle = 0
		return Update{Kind: UpdateNone}
	}
	if !needsAddrGen(c.decoded) {
		c.MachineCycle = CycleExecute
		c.StepCycle = 0
		return Update{Kind: UpdateNone}
	}
	var idx word.Word
	if c.decoded.R2 != 0 {
		idx = c.GR.Get(c.decoded.R2)
	}
	c.GenAddr = c.decoded.Addr + idx
	c.MachineCycle = CycleExecute
	c.StepCycle = 0
	return Update{Kind: UpdateGenAddr, Word: c.GenAddr}
}

// finish returns the machine to FETCH for the next instruction. PR has
// already been advanced to point past every word this instruction consumed
// (FETCH increments it once per fetched word), so finish never touches PR;
// only a taken branch, CALL, or RET override PR explicitly.
func (c *CPU) finish() {
	c.MachineCycle = CycleFetch
	c.StepCycle = 0
}

func (c *CPU) halt(reason HaltReason) Update {
	c.MachineCycle = CycleEnd
	c.StepCycle = 0
	return Update{Kind: UpdateEnd, Halt: reason}
}

func (c *CPU) execAlu(r1 uint8, res alu.Result) Update {
	c.GR.Set(r1, res.Value)
	c.FR = res.Flags
	c.finish()
	return Update{Kind: UpdateExecALU, Reg: r1, Word: res.Value, Flags: res.Flags}
}

func (c *CPU) stepExecute() Update {
	d := c.decoded
	if !d.Known {
		return c.halt(HaltInvalidOpcode)
	}

	switch d.Opcode {
	case isa.NOP:
		c.finish()
		return Update{Kind: UpdateNone}

	case isa.ADDA1:
		return c.execAlu(d.R1, alu.Adda(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.SUBA1:
		return c.execAlu(d.R1, alu.Suba(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.ADDL1:
		return c.execAlu(d.R1, alu.Addl(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.SUBL1:
		return c.execAlu(d.R1, alu.Subl(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.AND1:
		return c.execAlu(d.R1, alu.And(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.OR1:
		return c.execAlu(d.R1, alu.Or(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.XOR1:
		return c.execAlu(d.R1, alu.Xor(c.GR.Get(d.R1), c.GR.Get(d.R2)))
	case isa.CPA1:
		res := alu.Cpa(c.GR.Get(d.R1), c.GR.Get(d.R2))
		c.FR = res.Flags
		c.finish()
		return Update{Kind: UpdateExecALU, Reg: d.R1, Word: res.Value, Flags: res.Flags}
	case isa.CPL1:
		res := alu.Cpl(c.GR.Get(d.R1), c.GR.Get(d.R2))
		c.FR = res.Flags
		c.finish()
		return Update{Kind: UpdateExecALU, Reg: d.R1, Word: res.Value, Flags: res.Flags}

	case isa.LD1:
		// Register-to-register copy, routed through Or(v, 0) so FR is
		// refreshed the same way a memory-sourced LD refreshes it.
		return c.execAlu(d.R1, alu.Or(c.GR.Get(d.R2), 0))

	case isa.ADDA2, isa.SUBA2, isa.ADDL2, isa.SUBL2, isa.AND2, isa.OR2, isa.XOR2,
		isa.CPA2, isa.CPL2, isa.SLA, isa.SRA, isa.SLL, isa.SRL:
		return c.stepMemoryAlu(d)

	case isa.LD2:
		return c.stepLoad(d)

	case isa.ST:
		return c.stepStore(d)

	case isa.LAD:
		c.GR.Set(d.R1, c.GenAddr)
		c.finish()
		return Update{Kind: UpdateAccessGR, Reg: d.R1, Word: c.GenAddr}

	case isa.JMI:
		return c.stepBranch(d, c.FR.SF)
	case isa.JNZ:
		return c.stepBranch(d, !c.FR.ZF)
	case isa.JZE:
		return c.stepBranch(d, c.FR.ZF)
	case isa.JUMP:
		return c.stepBranch(d, true)
	case isa.JPL:
		return c.stepBranch(d, !c.FR.SF && !c.FR.ZF)
	case isa.JOV:
		return c.stepBranch(d, c.FR.OF)

	case isa.PUSH:
		return c.stepPush(c.GenAddr)
	case isa.POP:
		return c.stepPop(d)
	case isa.CALL:
		return c.stepCall(d)
	case isa.RET:
		return c.stepRet()

	case isa.SVC:
		c.finish()
		return Update{Kind: UpdateTrap, Word: c.GenAddr}

	default:
		return c.halt(HaltInvalidOpcode)
	}
}

// stepMemoryAlu covers the 2-word memory-referencing ALU forms (ADDA, SUBA,
// ADDL, SUBL, AND, OR, XOR, CPA, CPL) and the shifts, which all share the
// same 3-micro-step shape: MAR<-gen_addr, MDR<-MEM[MAR], then apply the ALU.
func (c *CPU) stepMemoryAlu(d Decoded) Update {
	switch c.StepCycle {
	case 0:
		c.MAR = c.GenAddr
		c.StepCycle++
		return Update{Kind: UpdateMAR, Word: c.MAR}
	case 1:
		c.MDR = c.Memory.Read(c.MAR)
		c.StepCycle++
		return Update{Kind: UpdateMDR, Word: c.MDR}
	default:
		lhs := c.GR.Get(d.R1)
		var res alu.Result
		switch d.Opcode {
		case isa.ADDA2:
			res = alu.Adda(lhs, c.MDR)
		case isa.SUBA2:
			res = alu.Suba(lhs, c.MDR)
		case isa.ADDL2:
			res = alu.Addl(lhs, c.MDR)
		case isa.SUBL2:
			res = alu.Subl(lhs, c.MDR)
		case isa.AND2:
			res = alu.And(lhs, c.MDR)
		case isa.OR2:
			res = alu.Or(lhs, c.MDR)
		case isa.XOR2:
			res = alu.Xor(lhs, c.MDR)
		case isa.CPA2:
			res = alu.Cpa(lhs, c.MDR)
		case isa.CPL2:
			res = alu.Cpl(lhs, c.MDR)
		case isa.SLA:
			res = alu.Sla(lhs, c.MDR)
		case isa.SRA:
			res = alu.Sra(lhs, c.MDR)
		case isa.SLL:
			res = alu.Sll(lhs, c.MDR)
		case isa.SRL:
			res = alu.Srl(lhs, c.MDR)
		}
		if d.Opcode == isa.CPA2 || d.Opcode == isa.CPL2 {
			c.FR = res.Flags
			c.finish()
			return Update{Kind: UpdateExecALU, Reg: d.R1, Word: res.Value, Flags: res.Flags}
		}
		return c.execAlu(d.R1, res)
	}
}

func (c *CPU) stepLoad(d Decoded) Update {
	switch c.StepCycle {
	case 0:
		c.MAR = c.GenAddr
		c.StepCycle++
		return Update{Kind: UpdateMAR, Word: c.MAR}
	case 1:
		c.MDR = c.Memory.Read(c.MAR)
		c.StepCycle++
		return Update{Kind: UpdateMDR, Word: c.MDR}
	default:
		return c.execAlu(d.R1, alu.Or(c.MDR, 0))
	}
}

func (c *CPU) stepStore(d Decoded) Update {
	switch c.StepCycle {
	case 0:
		c.MAR = c.GenAddr
		c.StepCycle++
		return Update{Kind: UpdateMAR, Word: c.MAR}
	case 1:
		c.MDR = c.GR.Get(d.R1)
		c.StepCycle++
		return Update{Kind: UpdateMDR, Word: c.MDR}
	default:
		c.Memory.Write(c.MAR, c.MDR)
		c.finish()
		return Update{Kind: UpdateNone}
	}
}

func (c *CPU) stepBranch(d Decoded, taken bool) Update {
	if !taken {
		c.finish()
		return Update{Kind: UpdateNone}
	}
	c.PR = c.GenAddr
	c.finish()
	return Update{Kind: UpdatePR, Word: c.PR}
}

// stepPush implements PUSH: SP<-SP-1, then value (gen_addr) is stored at the
// new top of stack. CALL does its own push in stepCall.
func (c *CPU) stepPush(value word.Word) Update {
	switch c.StepCycle {
	case 0:
		if c.SP == 0 {
			return c.halt(HaltStackFault)
		}
		c.SP--
		c.StepCycle++
		return Update{Kind: UpdateSP, Word: c.SP}
	default:
		c.Memory.Write(c.SP, value)
		c.finish()
		return Update{Kind: UpdateNone}
	}
}

func (c *CPU) stepPop(d Decoded) Update {
	switch c.StepCycle {
	case 0:
		c.GR.Set(d.R1, c.Memory.Read(c.SP))
		c.StepCycle++
		return Update{Kind: UpdateAccessGR, Reg: d.R1, Word: c.GR.Get(d.R1)}
	default:
		c.SP++
		c.finish()
		return Update{Kind: UpdateSP, Word: c.SP}
	}
}

// stepCall fixes the original's dropped return-address push: SP<-SP-1,
// MEM[SP]<-PR (the address of the instruction after CALL, already advanced
// by FETCH), PR<-gen_addr.
func (c *CPU) stepCall(d Decoded) Update {
	switch c.StepCycle {
	case 0:
		if c.SP == 0 {
			return c.halt(HaltStackFault)
		}
		c.SP--
		c.StepCycle++
		return Update{Kind: UpdateSP, Word: c.SP}
	case 1:
		c.Memory.Write(c.SP, c.PR)
		c.StepCycle++
		return Update{Kind: UpdateMDR, Word: c.PR}
	default:
		c.PR = c.GenAddr
		c.finish()
		return Update{Kind: UpdatePR, Word: c.PR}
	}
}

// stepRet pops the return address into PR. If SP wraps to 0 on the pop, the
// frame popped was the loader's sentinel return address pushed under the
// program's entry point, and the machine halts (spec.md §4.E, §9).
func (c *CPU) stepRet() Update {
	switch c.StepCycle {
	case 0:
		c.PR = c.Memory.Read(c.SP)
		c.StepCycle++
		return Update{Kind: UpdatePR, Word: c.PR}
	default:
		c.SP++
		if c.SP == 0 {
			return c.halt(HaltNormal)
		}
		c.finish()
		return Update{Kind: UpdateSP, Word: c.SP}
	}
}
