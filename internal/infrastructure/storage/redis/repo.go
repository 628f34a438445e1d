package redis

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// maxStreamLen bounds the audit stream; XADD trims approximately.
const maxStreamLen = 100_000

type Repo struct {
	rdb    *redis.Client
	stream string // prefix + ":audit"
}

func New(rdb *redis.Client, prefix string) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "tradewire"
	}
	return &Repo{
		rdb:    rdb,
		stream: prefix + ":audit",
	}
}

func (r *Repo) LogEvent(ctx context.Context, eventType, details string) (string, error) {
	id := uuid.NewString()
	streamID, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"id":      id,
			"type":    eventType,
			"details": details,
		},
	}).Result()
	if err != nil {
		return "", err
	}
	log.Debug().Str("stream", r.stream).Str("entry", streamID).Msg("audit event appended")
	return id, nil
}

func (r *Repo) Close() error { return r.rdb.Close() }
