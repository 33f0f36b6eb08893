package scores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces best scores: squishies:best:{mode}
const keyPrefix = "squishies:best:"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore shares best scores between machines through Redis.
type RedisStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRedisStore connects lazily; the first command reports connection errors.
func NewRedisStore(opts RedisOptions) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStore{rdb: rdb, logger: slog.Default()}
}

func buildKey(mode string) string {
	return keyPrefix + mode
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisStore) Get(ctx context.Context, mode string) (int, error) {
	v, err := r.rdb.Get(ctx, buildKey(mode)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get best score: %w", err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, mode string, score int) error {
	if err := r.rdb.Set(ctx, buildKey(mode), score, 0).Err(); err != nil {
		return fmt.Errorf("set best score: %w", err)
	}
	r.logger.Debug("best score stored", "mode", mode, "score", score)
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
