// Package memo caches computed values for a fixed time-to-live, keyed by a
// stable digest of the inputs that produced them.
package memo

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// DefaultTTL is how long a generated table stays fresh.
	DefaultTTL = time.Hour
	// MaxEntries bounds the cache; the entry nearest expiry goes first.
	MaxEntries = 512
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a TTL memo safe for concurrent use. Computation runs under the
// lock, so concurrent callers for the same key compute once.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]entry[V]
	log     zerolog.Logger
}

// New creates a cache whose entries expire ttl after they are stored.
// A non-positive ttl falls back to DefaultTTL.
func New[V any](ttl time.Duration, log zerolog.Logger) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:     ttl,
		max:     MaxEntries,
		now:     time.Now,
		entries: make(map[string]entry[V]),
		log:     log.With().Str("component", "memo").Logger(),
	}
}

// GetOrCompute returns the fresh value stored under key, or calls fn and
// stores its result. Errors are returned as-is and never cached.
func (c *Cache[V]) GetOrCompute(key string, fn func() (V, error)) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expires) {
		return e.value, true, nil
	}

	v, err := fn()
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.evictExpired(now)
	for len(c.entries) >= c.max {
		c.evictOldest()
	}
	c.entries[key] = entry[V]{value: v, expires: now.Add(c.ttl)}
	c.log.Debug().Str("key", short(key)).Int("entries", len(c.entries)).Msg("Cached computed value")
	return v, false, nil
}

// Invalidate drops every entry.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	clear(c.entries)
	c.log.Info().Int("dropped", n).Msg("Cache invalidated")
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) evictExpired(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache[V]) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range c.entries {
		if oldest == "" || e.expires.Before(at) {
			oldest, at = k, e.expires
		}
	}
	delete(c.entries, oldest)
}

// Key digests v into a cache key. Map keys are sorted before encoding so
// equal inputs always produce the same key.
func Key(v any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
