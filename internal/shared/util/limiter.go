package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket that throttles workspace reloads.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows perSecond events on average and up to burst back to
// back.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// Delay reports how long until a token is available without taking one.
// The reservation is cancelled at the instant it was made, so a token that
// was ready is handed back as well.
func (l *Limiter) Delay() time.Duration {
	now := time.Now()
	r := l.inner.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return 0
	}
	return r.DelayFrom(now)
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
