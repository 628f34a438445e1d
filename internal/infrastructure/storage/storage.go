package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"tradewire/internal/application/port"
	"tradewire/internal/infrastructure/config"
	"tradewire/internal/infrastructure/storage/composite"
	"tradewire/internal/infrastructure/storage/postgres"
	"tradewire/internal/infrastructure/storage/redis"
	"tradewire/internal/infrastructure/storage/sqlite"
)

// Open builds the audit sink selected by cfg.Driver: "none", "memory",
// "sqlite", "postgres", "redis", or a comma-free "all" fanning out to every
// configured backend.
func Open(cfg config.StorageConfig) (port.AuditSink, error) {
	switch cfg.Driver {
	case "", "none":
		return NewNoopSink(), nil
	case "memory":
		return NewMemorySink(), nil
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		return redis.New(rdb, cfg.RedisPrefix), nil
	case "all":
		sinks := make([]port.AuditSink, 0, 3)
		if cfg.SQLitePath != "" {
			s, err := sqlite.New(cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		}
		if cfg.PostgresDSN != "" {
			s, err := postgres.New(cfg.PostgresDSN)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		}
		if cfg.RedisAddr != "" {
			rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
			sinks = append(sinks, redis.New(rdb, cfg.RedisPrefix))
		}
		if len(sinks) == 0 {
			return NewNoopSink(), nil
		}
		return composite.New(sinks...), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NoopSink discards every event. Used when auditing is disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (s *NoopSink) LogEvent(ctx context.Context, eventType, details string) (string, error) {
	return uuid.NewString(), nil
}

func (s *NoopSink) Close() error { return nil }

// MemorySink keeps events in memory. Useful for tests and dry runs.
type MemorySink struct {
	mu     sync.Mutex
	events []port.AuditEvent
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) LogEvent(ctx context.Context, eventType, details string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt := port.AuditEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Details:   details,
		Timestamp: time.Now().UnixMilli(),
	}
	s.events = append(s.events, evt)
	return evt.ID, nil
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []port.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]port.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemorySink) Close() error { return nil }
