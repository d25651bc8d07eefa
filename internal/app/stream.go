package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"RoverCore/internal/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Streamer pushes a telemetry record to every websocket client once per interval.
// The snapshot is only taken while at least one client is connected.
type Streamer struct {
	ctrl     Controller
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewStreamer creates a Streamer reading from ctrl.
func NewStreamer(ctrl Controller, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Streamer{ctrl: ctrl, interval: interval, clients: map[*websocket.Conn]bool{}}
}

// handleWS upgrades HTTP to websocket and registers the client for broadcasts.
func (s *Streamer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade failed: %v", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("[stream] client %s connected (%d total)", r.RemoteAddr, n)

	// Reader loop only detects the client going away; inbound frames are ignored.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Clients returns the number of connected clients.
func (s *Streamer) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run broadcasts until stop is closed.
func (s *Streamer) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.Clients() == 0 {
				continue
			}
			s.Publish(s.ctrl.Telemetry())
		}
	}
}

// Publish sends one snapshot to all clients, dropping any that fail.
func (s *Streamer) Publish(snap model.SensorSnapshot) {
	msg, err := json.Marshal(model.NewTelemetryRecord(snap))
	if err != nil {
		log.Printf("[stream] encode failed: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.Close()
			delete(s.clients, c)
		}
	}
}

// CloseAll disconnects every client.
func (s *Streamer) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(time.Second))
		_ = c.Close()
		delete(s.clients, c)
	}
}

func (s *Streamer) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if s.clients[conn] {
		delete(s.clients, conn)
		_ = conn.Close()
	}
	s.mu.Unlock()
}
