package chat

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the minimum spacing between two accepted messages
// from a single connection.
const DefaultMinInterval = 300 * time.Millisecond

// Limiter gates message submission for one connection. A denied attempt
// consumes nothing, so the next accepted send is still measured from the
// last successful one.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter returns a Limiter enforcing minInterval between sends. A
// non-positive interval falls back to the default.
func NewLimiter(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Limiter{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Allow reports whether a message may be sent now.
func (l *Limiter) Allow() bool {
	return l.AllowAt(time.Now())
}

// AllowAt is Allow with an explicit timestamp so tests can drive the clock.
func (l *Limiter) AllowAt(now time.Time) bool {
	return l.lim.AllowN(now, 1)
}
