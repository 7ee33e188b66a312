package debugger

import (
	"testing"
)

func TestCommandHistoryAdd(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("step")
	h.Add("continue")
	h.Add("break 0x1000")

	if h.Size() != 3 {
		t.Errorf("Size = %d, want 3", h.Size())
	}

	all := h.All()
	if len(all) != 3 {
		t.Errorf("All() length = %d, want 3", len(all))
	}
	if all[0] != "step" {
		t.Errorf("first command = %s, want step", all[0])
	}
}

func TestCommandHistoryIgnoreEmpty(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("step")
	h.Add("")
	h.Add("continue")

	if h.Size() != 2 {
		t.Errorf("Size = %d, want 2 (empty commands should be ignored)", h.Size())
	}
}

func TestCommandHistoryIgnoreDuplicates(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("step")
	h.Add("step")
	h.Add("continue")

	if h.Size() != 2 {
		t.Errorf("Size = %d, want 2 (consecutive duplicate should be ignored)", h.Size())
	}

	all := h.All()
	if all[0] != "step" || all[1] != "continue" {
		t.Error("duplicate command was not ignored correctly")
	}
}

func TestCommandHistoryPrevious(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")

	if prev := h.Previous(); prev != "cmd3" {
		t.Errorf("Previous() = %s, want cmd3", prev)
	}
	if prev := h.Previous(); prev != "cmd2" {
		t.Errorf("Previous() = %s, want cmd2", prev)
	}
	if prev := h.Previous(); prev != "cmd1" {
		t.Errorf("Previous() = %s, want cmd1", prev)
	}
	if prev := h.Previous(); prev != "" {
		t.Errorf("Previous() at start = %s, want empty", prev)
	}
}

func TestCommandHistoryNext(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")

	h.Previous()
	h.Previous()
	h.Previous()

	if next := h.Next(); next != "cmd2" {
		t.Errorf("Next() = %s, want cmd2", next)
	}
	if next := h.Next(); next != "cmd3" {
		t.Errorf("Next() = %s, want cmd3", next)
	}
	if next := h.Next(); next != "" {
		t.Errorf("Next() at end = %s, want empty", next)
	}
}

func TestCommandHistoryLast(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")

	if last := h.Last(); last != "cmd3" {
		t.Errorf("Last() = %s, want cmd3", last)
	}
	if last := h.Last(); last != "cmd3" {
		t.Errorf("Last() should not move recall position; got %s", last)
	}
}

func TestCommandHistoryClear(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")

	h.Clear()

	if h.Size() != 0 {
		t.Errorf("Size after clear = %d, want 0", h.Size())
	}
	if last := h.Last(); last != "" {
		t.Errorf("Last() after clear = %s, want empty", last)
	}
}

func TestCommandHistoryMatching(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("break 0x1000")
	h.Add("break 0x2000")
	h.Add("step")
	h.Add("continue")

	results := h.Matching("break")

	if len(results) != 2 {
		t.Errorf("Matching results length = %d, want 2", len(results))
	}
	if results[0] != "break 0x1000" {
		t.Errorf("Matching result[0] = %s, want 'break 0x1000'", results[0])
	}
	if results[1] != "break 0x2000" {
		t.Errorf("Matching result[1] = %s, want 'break 0x2000'", results[1])
	}
}

func TestCommandHistoryMatchingNoMatches(t *testing.T) {
	h := NewCommandHistory(0)

	h.Add("step")
	h.Add("continue")

	if results := h.Matching("break"); len(results) != 0 {
		t.Errorf("Matching with no matches should return empty, got %d results", len(results))
	}
}

func TestCommandHistoryMaxSize(t *testing.T) {
	h := NewCommandHistory(0)

	for i := 0; i < historyMaxSize+100; i++ {
		h.Add("cmd")
		h.Add("cmd2")
	}

	if h.Size() > historyMaxSize {
		t.Errorf("Size = %d, should not exceed max size of %d", h.Size(), historyMaxSize)
	}
}

func TestCommandHistoryCustomMaxSize(t *testing.T) {
	h := NewCommandHistory(3)

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")
	h.Add("cmd4")

	if h.Size() != 3 {
		t.Errorf("Size = %d, want 3", h.Size())
	}
	all := h.All()
	if all[0] != "cmd2" {
		t.Errorf("oldest retained command = %s, want cmd2", all[0])
	}
}

func TestCommandHistoryEmptyHistory(t *testing.T) {
	h := NewCommandHistory(0)

	if h.Size() != 0 {
		t.Errorf("new history size = %d, want 0", h.Size())
	}
	if last := h.Last(); last != "" {
		t.Errorf("Last() on empty history = %s, want empty", last)
	}
	if prev := h.Previous(); prev != "" {
		t.Errorf("Previous() on empty history = %s, want empty", prev)
	}
	if next := h.Next(); next != "" {
		t.Errorf("Next() on empty history = %s, want empty", next)
	}
}
