package debugger

import (
	"testing"
)

func TestBreakpointManagerAdd(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.Add(0x1000, false)

	if bp == nil {
		t.Fatal("Add returned nil")
	}
	if bp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", bp.ID)
	}
	if bp.Address != 0x1000 {
		t.Errorf("Expected address 0x1000, got 0x%04X", uint16(bp.Address))
	}
	if !bp.Enabled {
		t.Error("Breakpoint should be enabled by default")
	}
	if bp.Temporary {
		t.Error("Breakpoint should not be temporary")
	}
	if bp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", bp.HitCount)
	}
}

func TestBreakpointManagerAddMultiple(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.Add(0x1000, false)
	bp2 := bm.Add(0x2000, false)

	if bp1.ID == bp2.ID {
		t.Error("Breakpoint IDs should be unique")
	}
	if bm.Count() != 2 {
		t.Errorf("Expected 2 breakpoints, got %d", bm.Count())
	}
}

func TestBreakpointManagerAddSameAddressReplaces(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.Add(0x1000, false)
	bp2 := bm.Add(0x1000, true)

	if bp1.ID != bp2.ID {
		t.Error("second Add at the same address should reuse the existing breakpoint")
	}
	if bm.Count() != 1 {
		t.Errorf("Expected 1 breakpoint after re-adding the same address, got %d", bm.Count())
	}
	if !bm.At(0x1000).Temporary {
		t.Error("At(0x1000) should reflect the latest Add")
	}
}

func TestBreakpointManagerDelete(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.Add(0x1000, false)

	if err := bm.Delete(bp.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if bm.At(0x1000) != nil {
		t.Error("breakpoint not deleted")
	}
	if err := bm.Delete(999); err == nil {
		t.Error("expected error when deleting non-existent breakpoint")
	}
}

func TestBreakpointManagerSetEnabled(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.Add(0x1000, false)

	if err := bm.SetEnabled(bp.ID, false); err != nil {
		t.Fatalf("SetEnabled(false) failed: %v", err)
	}
	if bp.Enabled {
		t.Error("breakpoint not disabled")
	}

	if err := bm.SetEnabled(bp.ID, true); err != nil {
		t.Fatalf("SetEnabled(true) failed: %v", err)
	}
	if !bp.Enabled {
		t.Error("breakpoint not enabled")
	}

	if err := bm.SetEnabled(999, true); err == nil {
		t.Error("expected error for unknown breakpoint id")
	}
}

func TestBreakpointManagerAt(t *testing.T) {
	bm := NewBreakpointManager()

	bm.Add(0x1000, false)
	bm.Add(0x2000, false)

	bp := bm.At(0x1000)
	if bp == nil {
		t.Fatal("At returned nil")
	}
	if bp.Address != 0x1000 {
		t.Errorf("wrong breakpoint returned: got 0x%04X, want 0x1000", uint16(bp.Address))
	}
	if bm.At(0x3000) != nil {
		t.Error("At should return nil for a non-existent address")
	}
}

func TestBreakpointManagerByID(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.Add(0x1000, false)
	bp2 := bm.Add(0x2000, false)

	if bm.ByID(bp1.ID) != bp1 {
		t.Error("ByID returned the wrong breakpoint")
	}
	if bm.ByID(bp2.ID) != bp2 {
		t.Error("ByID returned the wrong breakpoint")
	}
	if bm.ByID(999) != nil {
		t.Error("ByID should return nil for a non-existent id")
	}
}

func TestBreakpointManagerAll(t *testing.T) {
	bm := NewBreakpointManager()

	bm.Add(0x1000, false)
	bm.Add(0x2000, false)
	bm.Add(0x3000, false)

	if len(bm.All()) != 3 {
		t.Errorf("expected 3 breakpoints, got %d", len(bm.All()))
	}
}

func TestBreakpointManagerHit(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.Add(0x1000, false)

	hit := bm.Hit(0x1000)
	if hit == nil {
		t.Fatal("Hit returned nil for a set breakpoint")
	}
	if hit.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", hit.HitCount)
	}
	if bm.At(0x1000) == nil || bm.At(0x1000).ID != bp.ID {
		t.Error("a non-temporary breakpoint should survive a hit")
	}

	if bm.Hit(0x9999) != nil {
		t.Error("Hit at an address with no breakpoint should return nil")
	}
}

func TestBreakpointManagerHitTemporaryIsConsumed(t *testing.T) {
	bm := NewBreakpointManager()

	bm.Add(0x1000, true)

	hit := bm.Hit(0x1000)
	if hit == nil {
		t.Fatal("Hit returned nil")
	}
	if bm.At(0x1000) != nil {
		t.Error("a temporary breakpoint should be removed after it fires")
	}
}

func TestBreakpointManagerHitDisabledDoesNotFire(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.Add(0x1000, false)
	if err := bm.SetEnabled(bp.ID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	if bm.Hit(0x1000) != nil {
		t.Error("a disabled breakpoint should not fire")
	}
}
