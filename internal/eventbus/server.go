package eventbus

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 // clients never send payloads, only pings/pongs
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes the event bus over HTTP: a health check and a read-only
// WebSocket stream of Update events. There is no control plane over the
// socket, matching spec.md's synchronous single-driver execution model.
type Server struct {
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	addr        string
}

// NewServer wires b into a new Server listening on addr (e.g. "127.0.0.1:8080").
func NewServer(addr string, b *Broadcaster) *Server {
	s := &Server{
		broadcaster: b,
		mux:         http.NewServeMux(),
		addr:        addr,
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Handler returns the server's HTTP handler, for use in tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("event bus listening on http://%s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and closes the broadcaster.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broadcaster.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "ok",
		"subscriptions": s.broadcaster.SubscriptionCount(),
		"dropped":       s.broadcaster.Dropped(),
	})
}

// handleWebSocket upgrades the connection and streams every matching Update
// as JSON until the client disconnects. ?session=<id> narrows the stream to
// one session; omitted, the client sees every session's events.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	sub := s.broadcaster.Subscribe(r.URL.Query().Get("session"))
	client := &wsClient{conn: conn, sub: sub, broadcaster: s.broadcaster}

	go client.readPump()
	client.writePump()
}

// wsClient pumps events from its Subscription to the WebSocket connection
// and drains client-sent pings so dead connections are detected promptly.
type wsClient struct {
	conn        *websocket.Conn
	sub         *Subscription
	broadcaster *Broadcaster
}

func (c *wsClient) readPump() {
	defer c.broadcaster.Unsubscribe(c.sub)
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case event, ok := <-c.sub.Channel:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
