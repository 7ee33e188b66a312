package debugger

// displayUpdateFrequency is how many instructions runUntil executes between
// calls to its onStep callback. The run and continue commands pass no
// callback, so the TUI redraws only after a command returns.
const displayUpdateFrequency = 200

// Memory view layout.
const (
	memoryDisplayRows    = 16
	memoryDisplayColumns = 8
)

// historyMaxSize is the number of past commands CommandHistory retains when
// NewCommandHistory is given a maxSize of zero or less.
const historyMaxSize = 1000
