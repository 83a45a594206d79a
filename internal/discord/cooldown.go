// Package discord – per-user command cooldowns.
//
// Self-service commands allow one invocation per user per command per
// window. This is a per-key token-bucket limiter with opportunistic garbage
// collection: each (user, command) pair gets a bucket holding a single token
// that refills once per window. Process-local by contract; state is lost on
// restart.
package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds a single rate limiter and the last time it was seen.
// Used to opportunistically evict idle buckets.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Cooldowns enforces one invocation per bucket key per window. Callers key
// buckets by (user, command) so one gated command does not lock out the
// others. Safe for concurrent use.
type Cooldowns struct {
	window   time.Duration
	mu       sync.Mutex
	visitors map[string]*visitor
	cleanupN uint64

	// now is the clock; overridable in tests.
	now func() time.Time
}

// NewCooldowns constructs a Cooldowns with the given window. A window of 0
// disables limiting (every Allow succeeds).
func NewCooldowns(window time.Duration) *Cooldowns {
	return &Cooldowns{
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow reports whether the bucket identified by key may fire now. When the
// window is still open, it returns false and the remaining wait time so the
// rejection reply can show it. An allowed call consumes the bucket's token.
func (c *Cooldowns) Allow(key string) (bool, time.Duration) {
	if c.window <= 0 {
		return true, 0
	}
	now := c.now()

	c.mu.Lock()
	// Opportunistic cleanup after a threshold of lookups. Run it before
	// touching the requested bucket so an idle bucket can be evicted even
	// when it is the one being fetched.
	c.cleanupN++
	if c.cleanupN >= 5000 {
		for k, v := range c.visitors {
			if now.Sub(v.lastSeen) >= 2*c.window {
				delete(c.visitors, k)
			}
		}
		c.cleanupN = 0
	}
	v, ok := c.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(c.window), 1)}
		c.visitors[key] = v
	}
	v.lastSeen = now
	lim := v.limiter
	c.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, c.window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}
