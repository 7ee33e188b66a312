package eventbus

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/gorilla/websocket"
)

func TestHandleHealthReportsSubscriptionCount(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	s := NewServer("127.0.0.1:0", b)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestWebSocketStreamsPublishedEvents(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	s := NewServer("127.0.0.1:0", b)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=sess-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the upgrade handler time to register the subscription before
	// publishing, since Subscribe round-trips through the broadcaster's
	// goroutine.
	deadline := time.Now().Add(time.Second)
	for b.SubscriptionCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish("sess-1", cpu.Update{Kind: cpu.UpdatePR, Word: 0x10})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var event BroadcastEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if event.SessionID != "sess-1" || event.Kind != "PR" {
		t.Errorf("got %+v, want session sess-1 kind PR", event)
	}
}

func TestWebSocketFiltersToRequestedSession(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	s := NewServer("127.0.0.1:0", b)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=sess-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for b.SubscriptionCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish("sess-2", cpu.Update{Kind: cpu.UpdateSP})
	b.Publish("sess-1", cpu.Update{Kind: cpu.UpdatePR})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var event BroadcastEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if event.Kind != "PR" {
		t.Errorf("Kind = %q, want PR (sess-2's SP event should have been filtered out)", event.Kind)
	}
}
