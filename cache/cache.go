// Package cache memoizes fetch results for a short time.
//
// Entries expire lazily: Get never returns an entry past its expiry and drops
// it on the way, while Cleanup, usually run by the janitor, sweeps the keys
// nobody asks for anymore.
package cache

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// expired reports whether e is stale at now.
func (e entry) expired(now time.Time) bool { return !now.Before(e.expiresAt) }

// Observer receives cache events, typically to export metrics.
type Observer interface {
	Hit(key string)
	Miss(key string)
	Evicted(n int)
}

type noopObserver struct{}

func (noopObserver) Hit(string)  {}
func (noopObserver) Miss(string) {}
func (noopObserver) Evicted(int) {}

// Stats counts entries at a point in time.
type Stats struct {
	Total int `json:"total"`
	Valid int `json:"valid"`
	// Expired counts stale entries not swept yet.
	Expired int `json:"expired"`
}

// Option customizes a Cache.
type Option func(*Cache)

// WithObserver registers o to receive cache events.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.obs = o
		}
	}
}

// WithLogger sets the logger, defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Cache) { c.log = l }
}

// Cache is an in memory TTL key value store, safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now func() time.Time
	obs Observer
	log log.FieldLogger

	mu      sync.Mutex
	entries map[string]entry

	janitor sync.Once
	done    chan struct{}
	stopped chan struct{}
}

// New returns an empty cache. defaultTTL applies to Set calls without a
// positive ttl.
func New(defaultTTL time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     defaultTTL,
		now:     time.Now,
		obs:     noopObserver{},
		log:     log.StandardLogger(),
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "cache")
	return c
}

// Set stores value under key until now + ttl, replacing any previous entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.expired(c.now()) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.obs.Miss(key)
		return nil, false
	}
	c.obs.Hit(key)
	return e.value, true
}

// GetAs is a typed Get. A value of another type is reported as absent.
func GetAs[T any](c *Cache, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Has reports whether Get would find key.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Cleanup evicts all expired entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	c.mu.Unlock()

	if n > 0 {
		c.obs.Evicted(n)
		c.log.Debugf("evicted %d expired entries", n)
	}
	return n
}

// Stats counts the entries, valid or stale.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	s := Stats{Total: len(c.entries)}
	for _, e := range c.entries {
		if e.expired(now) {
			s.Expired++
		}
	}
	s.Valid = s.Total - s.Expired
	return s
}

// StartJanitor runs Cleanup every interval until Close. Only the first call
// has an effect.
func (c *Cache) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.janitor.Do(func() {
		c.stopped = make(chan struct{})
		go func() {
			defer close(c.stopped)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.Cleanup()
				case <-c.done:
					return
				}
			}
		}()
	})
}

// Close stops the janitor.
func (c *Cache) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	// disarm a later StartJanitor
	c.janitor.Do(func() {})
	if c.stopped != nil {
		<-c.stopped
	}
	return nil
}
