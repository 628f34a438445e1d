package credstore

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"tradewire/internal/application/port"
)

// Redis stores tokens in a hash keyed by platform, so tokens can be
// rotated out of process while the engine runs.
type Redis struct {
	rdb *redis.Client
	key string
}

func NewRedis(rdb *redis.Client, key string) *Redis {
	if strings.TrimSpace(key) == "" {
		key = "tradewire:credentials"
	}
	return &Redis{rdb: rdb, key: key}
}

func (r *Redis) Get(ctx context.Context, platform string) (string, error) {
	token, err := r.rdb.HGet(ctx, r.key, platform).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (r *Redis) Set(ctx context.Context, platform, token string) error {
	return r.rdb.HSet(ctx, r.key, platform, token).Err()
}

func (r *Redis) Delete(ctx context.Context, platform string) error {
	return r.rdb.HDel(ctx, r.key, platform).Err()
}

var _ port.CredentialStore = (*Redis)(nil)
