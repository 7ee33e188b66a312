package cpu

import (
	"fmt"

	"github.com/casl2/comet2emu/internal/alu"
	"github.com/casl2/comet2emu/internal/word"
)

// UpdateKind identifies which observable change an Update reports, mirroring
// spec.md §6's Update variant set.
type UpdateKind int

const (
	UpdatePR UpdateKind = iota
	UpdateSP
	UpdateMAR
	UpdateMDR
	UpdateIR0
	UpdateIR1
	UpdateDecoder
	UpdateController
	UpdateGenAddr
	UpdateAccessGR
	UpdateExecALU
	UpdateNone
	UpdateEnd
	UpdateTrap
)

// String names an UpdateKind the way trace output and event JSON refer to
// it, independent of the formatted detail Update.String adds.
func (k UpdateKind) String() string {
	switch k {
	case UpdatePR:
		return "PR"
	case UpdateSP:
		return "SP"
	case UpdateMAR:
		return "MAR"
	case UpdateMDR:
		return "MDR"
	case UpdateIR0:
		return "IR0"
	case UpdateIR1:
		return "IR1"
	case UpdateDecoder:
		return "DECODER"
	case UpdateController:
		return "CONTROLLER"
	case UpdateGenAddr:
		return "GEN_ADDR"
	case UpdateAccessGR:
		return "ACCESS_GR"
	case UpdateExecALU:
		return "EXEC_ALU"
	case UpdateNone:
		return "NONE"
	case UpdateEnd:
		return "END"
	case UpdateTrap:
		return "TRAP"
	default:
		return "UNKNOWN"
	}
}

// HaltReason explains why the CPU reached the END machine cycle.
type HaltReason int

const (
	HaltNormal HaltReason = iota // RET popped the loader's sentinel return address
	HaltInvalidOpcode
	HaltStackFault
)

// Update is the single structured notification every micro-step emits. A
// UI or test observes the machine at single-cycle resolution by collecting
// these.
type Update struct {
	Kind UpdateKind

	Word  word.Word   // PR, SP, MAR, MDR, IR0, IR1, GenAddr
	IR    [2]word.Word // Decoder
	Glyph [4]byte      // Controller

	Reg   uint8      // AccessGR, ExecALU: which GRn
	Flags alu.Flags  // ExecALU

	Halt HaltReason // End
}

func (u Update) String() string {
	switch u.Kind {
	case UpdatePR:
		return fmt.Sprintf("SET PR(0x%04X)", uint16(u.Word))
	case UpdateSP:
		return fmt.Sprintf("SET SP(0x%04X)", uint16(u.Word))
	case UpdateMAR:
		return fmt.Sprintf("SET MAR(0x%04X)", uint16(u.Word))
	case UpdateMDR:
		return fmt.Sprintf("SET MDR(0x%04X)", uint16(u.Word))
	case UpdateIR0:
		return fmt.Sprintf("SET IR0(0x%04X)", uint16(u.Word))
	case UpdateIR1:
		return fmt.Sprintf("SET IR1(0x%04X)", uint16(u.Word))
	case UpdateDecoder:
		return fmt.Sprintf("SET DECODER([0x%04X, 0x%04X])", uint16(u.IR[0]), uint16(u.IR[1]))
	case UpdateController:
		return fmt.Sprintf("SET CONTROLLER(%q)", string(u.Glyph[:]))
	case UpdateGenAddr:
		return fmt.Sprintf("GEN ADDR(0x%04X)", uint16(u.Word))
	case UpdateAccessGR:
		return fmt.Sprintf("ACCESS GR(%d, 0x%04X)", u.Reg, uint16(u.Word))
	case UpdateExecALU:
		return fmt.Sprintf("EXEC ALU(r%d, 0x%04X, [OF:%v SF:%v ZF:%v])", u.Reg, uint16(u.Word), u.Flags.OF, u.Flags.SF, u.Flags.ZF)
	case UpdateNone:
		return "NONE"
	case UpdateEnd:
		return fmt.Sprintf("END(%v)", u.Halt)
	case UpdateTrap:
		return fmt.Sprintf("TRAP(0x%04X)", uint16(u.Word))
	default:
		return "UNKNOWN"
	}
}
