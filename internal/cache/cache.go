// Package cache implements a key-value cache: a Redis primary backend
// with binary (msgpack) serialization, falling back transparently to an
// in-process map when Redis is unreachable or unconfigured. The cache is
// never authoritative.
package cache

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Stats reports basic cache usage counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	UsingMemory bool
}

// Service is the cache facade callers use.
type Service struct {
	log   zerolog.Logger
	redis *redis.Client

	mu    sync.Mutex
	mem   map[string]entry
	stats Stats
}

type entry struct {
	data    []byte
	expires time.Time
}

// New builds a Service. An empty redisURL means in-memory only.
func New(redisURL string, log zerolog.Logger) *Service {
	s := &Service{
		log: log.With().Str("component", "cache").Logger(),
		mem: make(map[string]entry),
	}

	if redisURL == "" {
		s.stats.UsingMemory = true
		return s
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		s.log.Warn().Err(err).Msg("invalid redis url, falling back to memory cache")
		s.stats.UsingMemory = true
		return s
	}
	s.redis = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.log.Warn().Err(err).Msg("redis unreachable, falling back to memory cache")
		s.redis = nil
		s.stats.UsingMemory = true
	}

	return s
}

// Get retrieves a value into dest (a pointer), returning false on miss.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			if decodeErr := msgpack.Unmarshal(data, dest); decodeErr == nil {
				s.recordHit()
				return true
			}
		}
		s.recordMiss()
		return false
	}

	s.mu.Lock()
	e, ok := s.mem[key]
	s.mu.Unlock()
	if !ok || time.Now().After(e.expires) {
		s.recordMiss()
		return false
	}
	if err := msgpack.Unmarshal(e.data, dest); err != nil {
		s.recordMiss()
		return false
	}
	s.recordHit()
	return true
}

// Set stores value with the given TTL.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stats.Sets++
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, data, ttl).Err(); err == nil {
			return nil
		}
		s.log.Warn().Str("key", key).Msg("redis set failed, using memory fallback")
	}

	s.mu.Lock()
	s.mem[key] = entry{data: data, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes a single key.
func (s *Service) Delete(ctx context.Context, key string) {
	if s.redis != nil {
		s.redis.Del(ctx, key)
	}
	s.mu.Lock()
	delete(s.mem, key)
	s.mu.Unlock()
}

// DeletePattern removes all keys matching a glob pattern.
func (s *Service) DeletePattern(ctx context.Context, pattern string) {
	if s.redis != nil {
		iter := s.redis.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			s.redis.Del(ctx, iter.Val())
		}
	}

	s.mu.Lock()
	for k := range s.mem {
		if matched, _ := filepath.Match(pattern, k); matched {
			delete(s.mem, k)
		}
	}
	s.mu.Unlock()
}

// Exists reports whether key is present and unexpired.
func (s *Service) Exists(ctx context.Context, key string) bool {
	if s.redis != nil {
		n, err := s.redis.Exists(ctx, key).Result()
		if err == nil {
			return n > 0
		}
	}
	s.mu.Lock()
	e, ok := s.mem[key]
	s.mu.Unlock()
	return ok && time.Now().Before(e.expires)
}

// GetOrSet returns the cached value if present, otherwise calls compute,
// stores its result, and returns that.
func (s *Service) GetOrSet(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute func() (interface{}, error)) error {
	if s.Get(ctx, key, dest) {
		return nil
	}
	value, err := compute()
	if err != nil {
		return err
	}
	if err := s.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if !s.Get(ctx, key, dest) { // normalizes dest through the same (de)serialization path
		return errors.New("cache: stored value could not be read back")
	}
	return nil
}

// Clear empties the cache.
func (s *Service) Clear(ctx context.Context) {
	if s.redis != nil {
		s.redis.FlushDB(ctx)
	}
	s.mu.Lock()
	s.mem = make(map[string]entry)
	s.mu.Unlock()
}

// GetStats returns a snapshot of usage counters.
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Service) recordHit() {
	s.mu.Lock()
	s.stats.Hits++
	s.mu.Unlock()
}

func (s *Service) recordMiss() {
	s.mu.Lock()
	s.stats.Misses++
	s.mu.Unlock()
}

// Standard TTLs used across the pipeline's cached reads.
const (
	TTLArticleListing = 60 * time.Second
	TTLSimplified     = 5 * time.Minute
)

// KeyJoin builds a cache key from parts, mirroring the glob-friendly
// "namespace:sub:id" shape delete_pattern expects.
func KeyJoin(parts ...string) string {
	return strings.Join(parts, ":")
}
