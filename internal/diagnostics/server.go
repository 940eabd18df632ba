package diagnostics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server is an HTTP + WebSocket surface over a Metrics collector,
// grounded on internal/api/monitor_api.go's MonitorAPI: a mux.Router
// of JSON status endpoints plus a /ws/events stream fed by a buffered
// event channel.
type Server struct {
	metrics  *Metrics
	router   *mux.Router
	upgrader websocket.Upgrader
	events   chan Event
	started  time.Time
}

// NewServer wires the routes and starts the started-at clock; events
// published before the first WebSocket client connects are simply
// dropped once the channel fills, same as MonitorAPI.PublishEvent.
func NewServer(metrics *Metrics) *Server {
	s := &Server{
		metrics: metrics,
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		events:  make(chan Event, 100),
		started: time.Now(),
	}
	s.setupRoutes()
	s.router.Use(corsMiddleware)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/v1/metrics", s.handleMetrics).Methods("GET")
	s.router.HandleFunc("/ws/events", s.handleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"running":    true,
		"start_time": s.started,
		"version":    "1.0.0",
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.metrics.Snapshot())
}

// handleWebSocket upgrades the connection and streams Events until the
// client disconnects or the server shuts the channel down.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	welcome := Event{Type: "connected", Timestamp: time.Now()}
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}

	for event := range s.events {
		if err := conn.WriteJSON(event); err != nil {
			break
		}
	}
}

// PublishEvent pushes event to connected WebSocket clients, dropping it
// if the channel is full rather than blocking the caller.
func (s *Server) PublishEvent(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

// Serve starts the HTTP server on addr, blocking until it exits.
func (s *Server) Serve(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// ServeWithServer runs the router on a caller-supplied *http.Server,
// letting callers configure timeouts or TLS.
func (s *Server) ServeWithServer(server *http.Server) error {
	server.Handler = s.router
	return server.ListenAndServe()
}
