package antispam

import "time"

// DefaultMinSubmitDelay is the fastest plausible time for a human to fill the form.
const DefaultMinSubmitDelay = 2500 * time.Millisecond

// TimingGuard rejects submissions that arrive too soon after the form was rendered.
// The timestamp comes from the client unsigned, so this only stops naive bots.
type TimingGuard struct {
	minDelay time.Duration
	now      func() time.Time
}

// NewTimingGuard builds a guard; a negative minDelay falls back to the default.
func NewTimingGuard(minDelay time.Duration, now func() time.Time) *TimingGuard {
	if minDelay < 0 {
		minDelay = DefaultMinSubmitDelay
	}
	if now == nil {
		now = time.Now
	}
	return &TimingGuard{minDelay: minDelay, now: now}
}

// TooFast reports whether less than the minimum delay elapsed since renderedAtMillis
// (milliseconds since epoch). Timestamps in the future count as too fast.
func (g *TimingGuard) TooFast(renderedAtMillis int64) bool {
	elapsed := g.now().UnixMilli() - renderedAtMillis
	return elapsed < g.minDelay.Milliseconds()
}
