// Package cache is the expiring key/value layer in front of the catalog API.
//
// Entries are JSON envelopes {value, timestamp} written to a Storage
// namespace. The persisted namespace is the single source of truth; an
// optional in-memory LRU only accelerates reads and is cleared whenever the
// namespace is.
//
// Writes never fail observably. A capacity failure clears the namespace and
// retries once, then drops the write.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/s0up4200/dexbrowse/connectivity"
	"github.com/s0up4200/dexbrowse/metrics"
	"github.com/s0up4200/dexbrowse/storage"
)

// DefaultTTL is how long an entry is fresh while online
const DefaultTTL = 30 * time.Minute

// Storage is the persisted key/value backend
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// envelope is the persisted form of an entry
type envelope struct {
	Value    json.RawMessage `json:"value"`
	StoredAt int64           `json:"timestamp"` // epoch milliseconds
}

// Store is a TTL cache with an offline override
type Store struct {
	storage Storage
	oracle  connectivity.Oracle
	logger  zerolog.Logger
	ttl     time.Duration
	memory  *lru.Cache[string, envelope]
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a Store
type Option func(*Store)

// WithTTL sets how long entries stay fresh while online
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMemoryLayer enables an in-memory LRU of the given size in front of storage.
// Sizes below one disable it.
func WithMemoryLayer(size int) Option {
	return func(s *Store) {
		if size <= 0 {
			return
		}
		memory, err := lru.New[string, envelope](size)
		if err != nil {
			s.logger.Warn().Err(err).Int("size", size).Msg("Memory layer disabled")
			return
		}
		s.memory = memory
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMetrics records lookups and writes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a new Store
func New(backend Storage, oracle connectivity.Oracle, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		storage: backend,
		oracle:  oracle,
		logger:  logger,
		ttl:     DefaultTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TTL returns the configured freshness window
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Set stores value under key. Failures are logged and absorbed.
func (s *Store) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode cache value")
		s.countWrite("dropped")
		return
	}

	env := envelope{Value: raw, StoredAt: s.now().UnixMilli()}
	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode cache envelope")
		s.countWrite("dropped")
		return
	}

	err = s.storage.Set(key, data)
	if err == nil {
		s.remember(key, env)
		s.countWrite("ok")
		return
	}

	if !errors.Is(err, storage.ErrNoSpace) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		s.forget(key)
		s.countWrite("dropped")
		return
	}

	s.logger.Warn().Err(err).Str("key", key).Msg("Cache storage full, clearing namespace")
	if err := s.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear cache namespace")
	}

	if err := s.storage.Set(key, data); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write dropped after recovery")
		s.countWrite("dropped")
		return
	}

	s.remember(key, env)
	s.countWrite("recovered")
}

// Get decodes the entry under key into dst. It reports false when the entry
// is missing, unreadable, or older than the TTL while online.
func (s *Store) Get(key string, dst any) bool {
	return s.get(key, dst, false)
}

// GetStale is Get without the expiry check
func (s *Store) GetStale(key string, dst any) bool {
	return s.get(key, dst, true)
}

func (s *Store) get(key string, dst any, ignoreExpiry bool) bool {
	env, ok := s.load(key)
	if !ok {
		return false
	}

	stale := s.now().Sub(time.UnixMilli(env.StoredAt)) > s.ttl
	if stale && !ignoreExpiry && !s.offline() {
		s.countLookup("expired")
		return false
	}

	if err := json.Unmarshal(env.Value, dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		s.discard(key)
		return false
	}

	if stale {
		s.countLookup("stale_hit")
	} else {
		s.countLookup("hit")
	}
	return true
}

// load returns the envelope from memory or storage
func (s *Store) load(key string) (envelope, bool) {
	if s.memory != nil {
		if env, ok := s.memory.Get(key); ok {
			return env, true
		}
	}

	data, err := s.storage.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		}
		s.countLookup("miss")
		return envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Discarding corrupt cache entry")
		s.discard(key)
		return envelope{}, false
	}

	s.remember(key, env)
	return env, true
}

// Clear drops the persisted namespace and the memory layer
func (s *Store) Clear() error {
	if s.memory != nil {
		s.memory.Purge()
	}
	if err := s.storage.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *Store) discard(key string) {
	s.forget(key)
	if err := s.storage.Delete(key); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("Failed to delete corrupt cache entry")
	}
	s.countLookup("corrupt")
}

func (s *Store) remember(key string, env envelope) {
	if s.memory != nil {
		s.memory.Add(key, env)
	}
}

func (s *Store) forget(key string) {
	if s.memory != nil {
		s.memory.Remove(key)
	}
}

func (s *Store) offline() bool {
	return s.oracle != nil && s.oracle.IsOffline()
}

func (s *Store) countLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *Store) countWrite(result string) {
	if s.metrics != nil {
		s.metrics.CacheWrites.WithLabelValues(result).Inc()
	}
}
