package flight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/BDNK1/flowendpoint/runtime"
)

// RedisStore keeps prefetched rows as JSON strings with a TTL.
type RedisStore struct {
	Config CacheConfig
	l      *slog.Logger
	client *redis.Client
}

func NewRedisStore(config CacheConfig, l *slog.Logger) *RedisStore {
	if l == nil {
		l = slog.Default()
	}
	return &RedisStore{
		Config: config,
		l:      l,
		client: redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		}),
	}
}

func (s *RedisStore) key(flowToken string) string {
	return s.Config.KeyPrefix + flowToken
}

// Initialize implements runtime.Lifecycle by checking connectivity.
func (s *RedisStore) Initialize(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", s.Config.RedisAddr, err)
	}
	s.l.InfoContext(ctx, "Prefetch cache connected", "addr", s.Config.RedisAddr, "db", s.Config.RedisDB)
	return nil
}

// Shutdown implements runtime.Lifecycle.
func (s *RedisStore) Shutdown(ctx context.Context) error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, flowToken string, rows []runtime.FlightRow) error {
	if rows == nil {
		rows = []runtime.FlightRow{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	if err := s.client.Set(ctx, s.key(flowToken), payload, s.Config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to cache rows for %s: %w", flowToken, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, flowToken string) ([]runtime.FlightRow, bool, error) {
	payload, err := s.client.Get(ctx, s.key(flowToken)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows for %s: %w", flowToken, err)
	}

	var rows []runtime.FlightRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode rows for %s: %w", flowToken, err)
	}
	return rows, true, nil
}
