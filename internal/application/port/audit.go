package port

import "context"

// AuditEvent is one append-only audit record.
type AuditEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Details   string `json:"details"` // JSON payload
	Timestamp int64  `json:"ts_ms"`
}

// AuditSink records engine events. Calls are fire-and-forget: failures are
// logged by the caller and must never block trading operations.
type AuditSink interface {
	// LogEvent stores an event and returns its id.
	LogEvent(ctx context.Context, eventType, details string) (string, error)
	Close() error
}
