package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for a single client.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

func (b *bucket) allow(now time.Time, rate, capacity float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * rate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// UserRateLimiter keeps one bucket per identity. Buckets idle for longer
// than expiration are swept in the background.
type UserRateLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	rate       float64
	capacity   float64
	expiration time.Duration
	now        func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

func New(rate, capacity float64, expiration time.Duration) *UserRateLimiter {
	rl := &UserRateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		capacity:   capacity,
		expiration: expiration,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *UserRateLimiter) Allow(identity string) bool {
	now := rl.now()

	rl.mu.RLock()
	b, ok := rl.buckets[identity]
	rl.mu.RUnlock()

	if !ok {
		rl.mu.Lock()
		if b, ok = rl.buckets[identity]; !ok {
			b = &bucket{tokens: rl.capacity, lastRefill: now, lastSeen: now}
			rl.buckets[identity] = b
		}
		rl.mu.Unlock()
	}

	return b.allow(now, rl.rate, rl.capacity)
}

func (rl *UserRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.expiration)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *UserRateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.expiration)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, b := range rl.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, id)
		}
	}
}

func (rl *UserRateLimiter) size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.buckets)
}

// Stop ends the background sweep. Safe to call more than once.
func (rl *UserRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
