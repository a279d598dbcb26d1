// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/racketlab/swingsense/internal/store"
	"github.com/racketlab/swingsense/internal/swing"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Status is the live pipeline snapshot served at /api/status.
type Status struct {
	SessionID string  `json:"session_id"`
	Samples   uint64  `json:"samples"`
	Swings    uint64  `json:"swings"`
	Rate      float64 `json:"rate"`
	Gate      string  `json:"gate"`
}

// StatusFunc supplies the live pipeline counters. Nil when no live
// session is running (replay-only processes).
type StatusFunc func() Status

// Server exposes recorded sessions over HTTP and live swing events over
// a WebSocket.
type Server struct {
	store  *store.Store
	status StatusFunc

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// New creates a server over the given store. status may be nil.
func New(st *store.Store, status StatusFunc) *Server {
	return &Server{
		store:   st,
		status:  status,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/swings", s.handleSwings)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("api: shutdown error: %v", err)
		}
	}()

	log.Printf("api: listening on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Broadcast pushes one swing event to every connected WebSocket client.
// A client that cannot be written to is dropped.
func (s *Server) Broadcast(ev swing.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("api: dropping websocket client: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// ClientCount returns the number of connected WebSocket clients (for
// testing and inspection).
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.status == nil {
		http.Error(w, "no live session", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.status())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessions, err := s.store.Sessions()
	if err != nil {
		log.Printf("api: list sessions: %v", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, sessions)
}

func (s *Server) handleSwings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}
	events, err := s.store.SessionSwings(sessionID)
	if err != nil {
		log.Printf("api: list swings: %v", err)
		http.Error(w, "Failed to list swings", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []swing.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}
	sum, err := s.store.SessionSummary(sessionID)
	if err != nil {
		log.Printf("api: summarize session: %v", err)
		http.Error(w, "Failed to summarize session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sum)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade error: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Drain the connection so closes are noticed; clients never send
	// anything meaningful.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}
