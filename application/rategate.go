package application

import (
	"context"
	"sync"
	"time"
)

// rateGate is the shared rate-limit state for one comparison: a single
// hold-until clock observed by the lister and every fetch worker. When any
// caller is told to back off, the whole pool throttles through this gate
// instead of each worker retrying on its own clock.
type rateGate struct {
	mu        sync.Mutex
	holdUntil time.Time
}

func newRateGate() *rateGate {
	return &rateGate{}
}

// Wait blocks until any active hold has elapsed or the context is done.
func (g *rateGate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		remaining := time.Until(g.holdUntil)
		g.mu.Unlock()

		if remaining <= 0 {
			return ctx.Err()
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Re-check: another worker may have extended the hold.
		}
	}
}

// HoldFor throttles all gate users for at least the given duration.
func (g *rateGate) HoldFor(d time.Duration) {
	g.HoldUntil(time.Now().Add(d))
}

// HoldUntil extends the hold; it only ever moves the clock forward.
func (g *rateGate) HoldUntil(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.After(g.holdUntil) {
		g.holdUntil = t
	}
}
