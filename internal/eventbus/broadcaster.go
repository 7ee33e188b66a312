package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/casl2/comet2emu/internal/cpu"
)

const (
	broadcastBufferSize    = 256
	subscriptionBufferSize = 64
)

// Subscription is one client's view of the event stream, optionally
// narrowed to a single session. An empty SessionID receives every session's
// events.
type Subscription struct {
	id        uint64
	SessionID string
	Channel   chan BroadcastEvent
}

// Broadcaster fans Update events out to subscribers over a single
// goroutine. Publish never blocks the caller (the CPU's stepping loop): a
// full internal channel drops the event and increments Dropped rather than
// stall the stepper, per the event bus's degraded-observability contract.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[uint64]*Subscription
	nextID        uint64

	broadcast  chan BroadcastEvent
	register   chan *Subscription
	unregister chan *Subscription
	done       chan struct{}

	dropped uint64
}

// NewBroadcaster starts the fan-out goroutine and returns a ready
// Broadcaster. Call Close when done to stop the goroutine.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[uint64]*Subscription),
		broadcast:     make(chan BroadcastEvent, broadcastBufferSize),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub.id] = sub
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.subscriptions[sub.id]; ok {
				delete(b.subscriptions, sub.id)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for _, sub := range b.subscriptions {
				if sub.SessionID != "" && sub.SessionID != event.SessionID {
					continue
				}
				select {
				case sub.Channel <- event:
				default:
					atomic.AddUint64(&b.dropped, 1)
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			return
		}
	}
}

// Subscribe registers a new subscriber. sessionID "" receives every
// session's events.
func (b *Broadcaster) Subscribe(sessionID string) *Subscription {
	id := atomic.AddUint64(&b.nextID, 1)
	sub := &Subscription{
		id:        id,
		SessionID: sessionID,
		Channel:   make(chan BroadcastEvent, subscriptionBufferSize),
	}
	select {
	case b.register <- sub:
	case <-b.done:
	}
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	select {
	case b.unregister <- sub:
	case <-b.done:
	}
}

// Publish fans u out to every matching subscriber. Non-blocking: a full
// broadcast buffer drops the event rather than stall the caller.
func (b *Broadcaster) Publish(sessionID string, u cpu.Update) {
	event := newBroadcastEvent(sessionID, u, time.Now())
	select {
	case b.broadcast <- event:
	default:
		atomic.AddUint64(&b.dropped, 1)
	}
}

// Dropped returns the number of events discarded because a buffer was full.
func (b *Broadcaster) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// SubscriptionCount returns the number of active subscribers.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

// Close stops the fan-out goroutine and closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for id, sub := range b.subscriptions {
		close(sub.Channel)
		delete(b.subscriptions, id)
	}
	b.mu.Unlock()
	close(b.done)
}
