package diagnostics

import "time"

// Event is one fixture-run notification pushed to connected WebSocket
// clients, the transform-debugging analogue of monitor.MonitorEvent.
type Event struct {
	Type       string                 `json:"type"`
	Fixture    string                 `json:"fixture,omitempty"`
	ClauseKind string                 `json:"clause_kind,omitempty"`
	Err        string                 `json:"error,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Details    map[string]interface{} `json:"details,omitempty"`
}
