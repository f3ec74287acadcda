// Package cache implements the bounded TTL+FIFO response cache for
// by-metadata detection requests (spec §4.6), following the design note's
// explicit doubly-linked list over a hash index rather than a generic
// third-party LRU — FIFO-by-insertion-order (not recency) eviction is
// part of the contract, which an LRU cache does not provide.
package cache

import (
	"container/list"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/normalize"
)

// entry is one cache slot: the stored response plus its insertion-order
// list element, so eviction and expiry both run in O(1).
type entry struct {
	key       string
	response  model.DetectionResponse
	expiresAt time.Time
	elem      *list.Element
}

// Cache is the keyed TTL cache described in §4.6. Reads and writes are
// linearizable under a single mutex (§4.6 "Concurrency" permits this —
// single-flight is explicitly not required).
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	index   map[string]*entry
	order   *list.List // front = oldest insertion, back = newest
	logger  zerolog.Logger

	hits   int64
	misses int64
}

// New creates a Cache with the given TTL and maximum entry count (both
// already clamped by config.Load per §6's ranges).
func New(ttl time.Duration, maxSize int, logger zerolog.Logger) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		index:   make(map[string]*entry),
		order:   list.New(),
		logger:  logger,
	}
}

// Key is the request parameters that participate in the cache key (§4.6):
// everything a by-metadata request's response could vary on.
type Key struct {
	Metadata            model.Metadata
	SimilarityThreshold float64
	SearchFields        []model.Field
	MaxCandidates       int
}

// HashKey computes the stable cache key for k: a hash over the
// normalized title, the first 100 characters of the whitespace-trimmed
// description, the normalized URL, sorted keywords, threshold, active
// field set, and max_candidates (§4.6).
func HashKey(k Key) string {
	var b strings.Builder
	b.WriteString(normalize.Title(k.Metadata.Title))
	b.WriteByte('\x00')

	desc := strings.TrimSpace(k.Metadata.Description)
	if r := []rune(desc); len(r) > 100 {
		desc = string(r[:100])
	}
	b.WriteString(desc)
	b.WriteByte('\x00')

	b.WriteString(normalize.URL(k.Metadata.URL))
	b.WriteByte('\x00')

	keywords := append([]string(nil), k.Metadata.Keywords...)
	sort.Strings(keywords)
	b.WriteString(strings.Join(keywords, ","))
	b.WriteByte('\x00')

	b.WriteString(strconv.FormatFloat(k.SimilarityThreshold, 'f', -1, 64))
	b.WriteByte('\x00')

	fields := append([]model.Field(nil), k.SearchFields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	strFields := make([]string, len(fields))
	for i, f := range fields {
		strFields[i] = string(f)
	}
	b.WriteString(strings.Join(strFields, ","))
	b.WriteByte('\x00')

	b.WriteString(strconv.Itoa(k.MaxCandidates))

	sum := xxhash.Sum64String(b.String())
	return strconv.FormatUint(sum, 16)
}

// Get returns the cached response for key if present and unexpired
// (§4.6 "On lookup").
func (c *Cache) Get(key string) (model.DetectionResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		c.misses++
		return model.DetectionResponse{}, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		c.misses++
		return model.DetectionResponse{}, false
	}
	c.hits++
	return e.response, true
}

// Set inserts or overwrites the entry for key, evicting the oldest entry
// by insertion time if the cache is at capacity (§4.6 "On insert when at
// capacity"). Overwriting an existing key re-inserts it at the back of
// the FIFO order, since it represents a fresh detection result rather
// than a read of the old one.
func (c *Cache) Set(key string, response model.DetectionResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.index[key]; ok {
		c.removeLocked(existing)
	}

	if len(c.index) >= c.maxSize {
		oldest := c.order.Front()
		if oldest != nil {
			c.removeLocked(oldest.Value.(*entry))
		}
	}

	e := &entry{key: key, response: response, expiresAt: time.Now().Add(c.ttl)}
	e.elem = c.order.PushBack(e)
	c.index[key] = e
}

// Clear purges every entry and returns the count removed (§4.6 "Admin
// purge").
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.index)
	c.index = make(map[string]*entry)
	c.order.Init()
	return n
}

// removeLocked detaches e from both the index and the FIFO list. Caller
// must hold c.mu.
func (c *Cache) removeLocked(e *entry) {
	delete(c.index, e.key)
	c.order.Remove(e.elem)
}

// Stats returns cumulative hit/miss counters, for structured logging.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
