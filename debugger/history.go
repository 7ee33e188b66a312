package debugger

import (
	"strings"
	"sync"
)

// CommandHistory remembers commands typed into the debugger's command line,
// for the "empty input repeats the last command" convention and for
// up/down-arrow recall in the TUI's command field.
type CommandHistory struct {
	mu       sync.RWMutex
	commands []string
	position int
	maxSize  int
}

// NewCommandHistory returns an empty history that retains at most maxSize
// commands. maxSize <= 0 falls back to historyMaxSize, the debugger's
// built-in default.
func NewCommandHistory(maxSize int) *CommandHistory {
	if maxSize <= 0 {
		maxSize = historyMaxSize
	}
	return &CommandHistory{commands: make([]string, 0, 64), maxSize: maxSize}
}

// Add appends cmd, unless it is empty or repeats the immediately preceding
// command, and resets recall position to the end.
func (h *CommandHistory) Add(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cmd == "" {
		return
	}
	if n := len(h.commands); n > 0 && h.commands[n-1] == cmd {
		h.position = n
		return
	}

	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
	h.position = len(h.commands)
}

// Previous moves recall position back one entry and returns it, or "" if
// already at the oldest command.
func (h *CommandHistory) Previous() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.commands) == 0 || h.position == 0 {
		return ""
	}
	h.position--
	return h.commands[h.position]
}

// Next moves recall position forward one entry, returning "" once it runs
// past the newest command.
func (h *CommandHistory) Next() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.commands) == 0 || h.position >= len(h.commands)-1 {
		h.position = len(h.commands)
		return ""
	}
	h.position++
	return h.commands[h.position]
}

// Last returns the most recently added command, without moving recall
// position.
func (h *CommandHistory) Last() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.commands) == 0 {
		return ""
	}
	return h.commands[len(h.commands)-1]
}

// All returns a copy of the full history, oldest first.
func (h *CommandHistory) All() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]string, len(h.commands))
	copy(result, h.commands)
	return result
}

// Size returns the number of commands currently retained.
func (h *CommandHistory) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.commands)
}

// Clear empties the history.
func (h *CommandHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = h.commands[:0]
	h.position = 0
}

// Matching returns every retained command starting with prefix.
func (h *CommandHistory) Matching(prefix string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var results []string
	for _, cmd := range h.commands {
		if strings.HasPrefix(cmd, prefix) {
			results = append(results, cmd)
		}
	}
	return results
}
