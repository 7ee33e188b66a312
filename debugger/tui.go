package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/casl2/comet2emu/internal/casl"
	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/casl2/comet2emu/internal/word"
)

// TUI is the tcell/tview single-step viewer: source, registers, memory,
// disassembly, breakpoints and a command line wired to the same Debugger a
// CLI session would drive.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	DisassemblyView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress word.Word
}

// NewTUI builds a TUI over dbg, ready for Run.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{
		Debugger: dbg,
		App:      tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.DisassemblyView, 0, 2, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 6, 0, false).
		AddItem(t.MemoryView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyF9:
			t.executeCommand("micro")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("%s %v\n", t.colorize("red", "error:"), err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	t.RefreshAll()
}

// colorize wraps text in a tview color tag, unless the debugger's
// cfg.Display.ColorOutput is false, in which case text passes through
// unchanged.
func (t *TUI) colorize(color, text string) string {
	if !t.Debugger.ColorOutput {
		return text
	}
	return fmt.Sprintf("[%s]%s[white]", color, text)
}

// WriteOutput appends text to the output pane and scrolls to the bottom.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from the current CPU state.
func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateDisassemblyView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateSourceView shows the assembly source lines around PR, if a source
// map was loaded.
func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()

	if !t.Debugger.ShowSource {
		t.SourceView.SetText("(source view disabled by config)")
		return
	}

	if len(t.Debugger.SourceMap) == 0 {
		t.SourceView.SetText(t.colorize("yellow", "no source map loaded"))
		return
	}

	pr := t.Debugger.CPU.PR
	startAddr := word.Word(0)
	if pr > 10 {
		startAddr = pr - 10
	}

	var lines []string
	for addr := startAddr; addr < pr+20; addr++ {
		sourceLine, ok := t.Debugger.SourceMap[addr]
		if !ok {
			continue
		}
		marker, color := "  ", "white"
		if addr == pr {
			marker, color = "->", "yellow"
		}
		if t.Debugger.Breakpoints.At(addr) != nil {
			marker = "* "
		}
		lines = append(lines, t.colorize(color, fmt.Sprintf("%s 0x%04X: %s", marker, uint16(addr), sourceLine)))
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateRegisterView shows GR0-7, PR, SP and the FR flags.
func (t *TUI) UpdateRegisterView() {
	t.RegisterView.Clear()

	if !t.Debugger.ShowRegisters {
		t.RegisterView.SetText("(register view disabled by config)")
		return
	}

	c := t.Debugger.CPU
	var lines []string
	for row := 0; row < 2; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			n := row*4 + col
			cols = append(cols, fmt.Sprintf("GR%d: 0x%04X", n, uint16(c.GR.Get(uint8(n)))))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}

	flags := t.flagChar(c.FR.OF, "yellow", 'O', 'o') +
		t.flagChar(c.FR.SF, "red", 'S', 's') +
		t.flagChar(c.FR.ZF, "blue", 'Z', 'z')

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PR: 0x%04X  SP: 0x%04X  FR: %s", uint16(c.PR), uint16(c.SP), flags))
	lines = append(lines, fmt.Sprintf("cycle: %s / %d", c.MachineCycle, c.StepCycle))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

// flagChar renders one FR flag: onCh (optionally colored) when set, offCh
// when clear.
func (t *TUI) flagChar(set bool, color string, onCh, offCh byte) string {
	if !set {
		return string(offCh)
	}
	return t.colorize(color, string(onCh))
}

// UpdateMemoryView hex-dumps a window of words starting at MemoryAddress
// (PR, if unset).
func (t *TUI) UpdateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.CPU.PR
	}

	var lines []string
	lines = append(lines, t.colorize("yellow", fmt.Sprintf("0x%04X", uint16(addr))))
	for row := word.Word(0); row < word.Word(memoryDisplayRows); row++ {
		rowAddr := addr + row*word.Word(memoryDisplayColumns)
		line := fmt.Sprintf("0x%04X: ", uint16(rowAddr))
		var words []string
		for col := word.Word(0); col < word.Word(memoryDisplayColumns); col++ {
			words = append(words, fmt.Sprintf("%04X", uint16(t.Debugger.CPU.Memory.Read(rowAddr+col))))
		}
		line += strings.Join(words, " ")
		lines = append(lines, line)
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// UpdateDisassemblyView decodes and shows the instructions around PR.
func (t *TUI) UpdateDisassemblyView() {
	t.DisassemblyView.Clear()

	pr := t.Debugger.CPU.PR
	addr := word.Word(0)
	if pr > 16 {
		addr = pr - 16
	}

	var lines []string
	for count := 0; count < 24 && int(addr) < len(t.Debugger.CPU.Memory); count++ {
		ir0 := t.Debugger.CPU.Memory.Read(addr)
		var ir1 word.Word
		twoWord := cpu.IsTwoWord(ir0)
		if twoWord && int(addr)+1 < len(t.Debugger.CPU.Memory) {
			ir1 = t.Debugger.CPU.Memory.Read(addr + 1)
		}
		d := cpu.Decode([2]word.Word{ir0, ir1})

		marker, color := "  ", "white"
		if addr == pr {
			marker, color = "->", "yellow"
		}
		if t.Debugger.Breakpoints.At(addr) != nil {
			marker = "* "
		}

		text := casl.FormatInstruction(addr, d)
		if sym := t.findSymbolForAddress(addr); sym != "" {
			text += fmt.Sprintf("  <%s>", sym)
		}
		lines = append(lines, t.colorize(color, fmt.Sprintf("%s %s", marker, text)))

		if twoWord {
			addr += 2
		} else {
			addr++
		}
	}

	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView lists every breakpoint with status and hit count.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	bps := t.Debugger.Breakpoints.All()
	if len(bps) == 0 {
		t.BreakpointsView.SetText(t.colorize("yellow", "no breakpoints set"))
		return
	}

	var lines []string
	for _, bp := range bps {
		status, color := "enabled", "green"
		if !bp.Enabled {
			status, color = "disabled", "red"
		}
		line := fmt.Sprintf("%d: %s 0x%04X", bp.ID, t.colorize(color, status), uint16(bp.Address))
		if sym := t.findSymbolForAddress(bp.Address); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}
		line += fmt.Sprintf(" (hits: %d)", bp.HitCount)
		lines = append(lines, line)
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) findSymbolForAddress(addr word.Word) string {
	for sym, symAddr := range t.Debugger.Symbols {
		if symAddr == addr {
			return sym
		}
	}
	return ""
}

// Run shows the TUI and blocks until it quits.
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput(t.colorize("green", "CASL II / COMET II debugger") + "\n")
	t.WriteOutput("F1 help, F5 continue, F9 micro-step, F10 next, F11 step\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop tears down the TUI application.
func (t *TUI) Stop() {
	t.App.Stop()
}
