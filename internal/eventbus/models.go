// Package eventbus fans the CPU's Update stream out to WebSocket
// subscribers without ever blocking the stepping loop that produces it.
package eventbus

import (
	"time"

	"github.com/casl2/comet2emu/internal/cpu"
)

// BroadcastEvent is one Update tagged with the session and wall-clock time
// it was observed at, the unit the broadcaster fans out and a client
// receives as a single JSON message.
type BroadcastEvent struct {
	SessionID string     `json:"sessionId"`
	Timestamp time.Time  `json:"timestamp"`
	Update    cpu.Update `json:"update"`
	Kind      string     `json:"kind"`
}

func newBroadcastEvent(sessionID string, u cpu.Update, now time.Time) BroadcastEvent {
	return BroadcastEvent{
		SessionID: sessionID,
		Timestamp: now,
		Update:    u,
		Kind:      u.Kind.String(),
	}
}
