// Package ratelimit implements the per-IP token bucket described in spec
// §4.7, built directly on golang.org/x/time/rate — the spec's model
// ("default capacity 100 tokens, refill to full every 60 seconds") is
// exactly that package's Limiter contract.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	rpm      int
	capacity int
}

// New creates a Limiter with the given requests-per-minute rate. Burst
// capacity equals rpm, so a client can spend its full allotment
// immediately and then refills continuously (§4.7 "100 requests per
// minute").
func New(rpm int) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		rpm:      rpm,
		capacity: rpm,
	}
}

// Allow reports whether ip may make a request now, consuming a token if
// so.
func (l *Limiter) Allow(ip string) bool {
	return l.bucketFor(ip).Allow()
}

func (l *Limiter) bucketFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		// rpm tokens per minute == rpm/60 tokens per second.
		b = rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), l.capacity)
		l.buckets[ip] = b
	}
	return b
}
