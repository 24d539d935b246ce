package flight

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BDNK1/flowendpoint/runtime"
)

// CacheConfig selects and tunes the prefetch store. An empty RedisAddr keeps
// results in process memory.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" default:"15m" validate:"gt=0"`
	RedisAddr     string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" default:"0" validate:"gte=0,lte=15"`
	KeyPrefix     string        `yaml:"key_prefix" default:"flowendpoint:flights:"`
}

// NewStore returns the Redis store when an address is configured and the
// in-memory store otherwise.
func NewStore(config CacheConfig, l *slog.Logger) runtime.PrefetchStore {
	if config.RedisAddr != "" {
		return NewRedisStore(config, l)
	}
	return NewMemoryStore(config.TTL)
}

type memoryEntry struct {
	rows      []runtime.FlightRow
	expiresAt time.Time
}

// MemoryStore keeps prefetched rows in a map guarded by a mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, flowToken string, rows []runtime.FlightRow) error {
	if rows == nil {
		rows = []runtime.FlightRow{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[flowToken] = memoryEntry{rows: rows, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, flowToken string) ([]runtime.FlightRow, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[flowToken]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if s.ttl > 0 && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, flowToken)
		s.mu.Unlock()
		return nil, false, nil
	}

	return entry.rows, true, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
