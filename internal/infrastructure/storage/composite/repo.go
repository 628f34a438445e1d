package composite

import (
	"context"

	"tradewire/internal/application/port"
)

// Repo fans every audit event out to multiple sinks. The first sink's id
// is returned; the first error encountered is reported after all sinks
// were attempted.
type Repo struct {
	sinks []port.AuditSink
}

func New(sinks ...port.AuditSink) *Repo {
	// nil sinks are allowed; filter in constructor for safety
	out := make([]port.AuditSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Repo{sinks: out}
}

func (r *Repo) LogEvent(ctx context.Context, eventType, details string) (string, error) {
	var firstID string
	var firstErr error
	for _, s := range r.sinks {
		id, err := s.LogEvent(ctx, eventType, details)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if firstID == "" {
			firstID = id
		}
	}
	return firstID, firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
