package antispam

import (
	"sync"
	"time"
)

const (
	// DefaultWindow is the minimum spacing between two accepted leads from one address.
	DefaultWindow  = 15 * time.Second
	evictionFactor = 4
)

// RateLimiter allows one accepted request per address per window. State lives in
// process memory only, so each instance enforces its own limit.
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	now      func() time.Time
	lastSeen map[string]time.Time
}

// RateLimiterOption configures optional behaviour.
type RateLimiterOption func(*RateLimiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		if now != nil {
			rl.now = now
		}
	}
}

// NewRateLimiter creates a limiter with the given window (DefaultWindow when <= 0).
func NewRateLimiter(window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	rl := &RateLimiter{
		window:   window,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Window returns the configured spacing.
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// IsRateLimited reports whether address must be throttled. Accepted requests record
// their time and sweep stale entries; rejected ones leave the state untouched.
// An empty address is untraceable and always passes.
func (rl *RateLimiter) IsRateLimited(address string) bool {
	if address == "" {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if last, ok := rl.lastSeen[address]; ok && now.Sub(last) < rl.window {
		return true
	}
	rl.lastSeen[address] = now

	horizon := evictionFactor * rl.window
	for addr, last := range rl.lastSeen {
		if now.Sub(last) > horizon {
			delete(rl.lastSeen, addr)
		}
	}
	return false
}

// Len returns the number of tracked addresses.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.lastSeen)
}

// Tracked reports whether address currently has an entry.
func (rl *RateLimiter) Tracked(address string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, ok := rl.lastSeen[address]
	return ok
}
