package market

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between successive calls to an upstream
// API. It wraps a token-bucket limiter with burst 1, so acquisitions are
// spaced at least minInterval apart.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer creates a pacer with the given minimum interval. A non-positive
// interval disables pacing.
func NewPacer(minInterval time.Duration) *Pacer {
	if minInterval <= 0 {
		return &Pacer{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Acquire blocks until the interval has elapsed since the previous
// acquisition, or the context is cancelled. The slot is reserved before the
// wait begins, so a cancelled Acquire still counts against the interval and
// the next caller waits the full spacing.
func (p *Pacer) Acquire(ctx context.Context) error {
	r := p.lim.Reserve()
	delay := r.DelayFrom(time.Now())
	if delay <= 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
