package debugger

import (
	"fmt"
	"sync"

	"github.com/casl2/comet2emu/internal/word"
)

// Breakpoint pauses execution when PR reaches Address.
type Breakpoint struct {
	ID        int
	Address   word.Word
	Enabled   bool
	Temporary bool // auto-deletes after its first hit
	HitCount  int
}

// BreakpointManager owns every breakpoint, keyed by address so StepLoop can
// do an O(1) lookup on every instruction boundary.
type BreakpointManager struct {
	mu          sync.RWMutex
	breakpoints map[word.Word]*Breakpoint
	nextID      int
}

// NewBreakpointManager returns an empty manager ready for use.
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{
		breakpoints: make(map[word.Word]*Breakpoint),
		nextID:      1,
	}
}

// Add sets a breakpoint at address, replacing any breakpoint already there.
func (bm *BreakpointManager) Add(address word.Word, temporary bool) *Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bp, exists := bm.breakpoints[address]; exists {
		bp.Enabled = true
		bp.Temporary = temporary
		return bp
	}

	bp := &Breakpoint{
		ID:        bm.nextID,
		Address:   address,
		Enabled:   true,
		Temporary: temporary,
	}
	bm.breakpoints[address] = bp
	bm.nextID++
	return bp
}

// Delete removes the breakpoint with the given ID.
func (bm *BreakpointManager) Delete(id int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for addr, bp := range bm.breakpoints {
		if bp.ID == id {
			delete(bm.breakpoints, addr)
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// SetEnabled toggles the breakpoint with the given ID.
func (bm *BreakpointManager) SetEnabled(id int, enabled bool) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, bp := range bm.breakpoints {
		if bp.ID == id {
			bp.Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// At returns the breakpoint at address, or nil if there is none.
func (bm *BreakpointManager) At(address word.Word) *Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.breakpoints[address]
}

// ByID returns the breakpoint with the given ID, or nil.
func (bm *BreakpointManager) ByID(id int) *Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	for _, bp := range bm.breakpoints {
		if bp.ID == id {
			return bp
		}
	}
	return nil
}

// All returns every breakpoint, in no particular order.
func (bm *BreakpointManager) All() []*Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	result := make([]*Breakpoint, 0, len(bm.breakpoints))
	for _, bp := range bm.breakpoints {
		result = append(result, bp)
	}
	return result
}

// Count returns the number of breakpoints currently set.
func (bm *BreakpointManager) Count() int {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return len(bm.breakpoints)
}

// Hit records a hit at address, deleting the breakpoint if it was
// temporary, and returns a snapshot of it for display. Returns nil if
// nothing is set at address or it is disabled.
func (bm *BreakpointManager) Hit(address word.Word) *Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	bp, exists := bm.breakpoints[address]
	if !exists || !bp.Enabled {
		return nil
	}
	bp.HitCount++
	result := *bp
	if bp.Temporary {
		delete(bm.breakpoints, address)
	}
	return &result
}
