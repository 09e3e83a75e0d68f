package provider

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default admission limits for the catalog.
const (
	DefaultConcurrency       = 100
	DefaultRequestsPerSecond = 5
)

// Clock supplies time to the admission policy so tests can run it without
// real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Admission gates how many requests may start per second using a token
// bucket with a burst of one, so starts are spaced evenly. Consecutive starts
// are at least interval apart.
type Admission struct {
	limiter  *rate.Limiter
	clock    Clock
	interval time.Duration

	mu       sync.Mutex
	last     time.Time
	admitted bool
}

// NewAdmission creates an admission policy allowing perSecond request starts.
func NewAdmission(perSecond float64) *Admission {
	return newAdmissionWithClock(perSecond, realClock{})
}

func newAdmissionWithClock(perSecond float64, clock Clock) *Admission {
	return &Admission{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		clock:    clock,
		interval: startInterval(perSecond),
	}
}

// startInterval rounds up so that perSecond intervals never sum to less than
// one second.
func startInterval(perSecond float64) time.Duration {
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return 0
	}
	return time.Duration(math.Ceil(float64(time.Second) / perSecond))
}

// Wait blocks until the caller may start a request, or the context is canceled.
func (a *Admission) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	now := a.clock.Now()
	r := a.limiter.ReserveN(now, 1)
	if !r.OK() {
		a.mu.Unlock()
		return fmt.Errorf("admission: reservation refused")
	}
	at := now.Add(r.DelayFrom(now))
	if a.admitted {
		if floor := a.last.Add(a.interval); at.Before(floor) {
			at = floor
		}
	}
	a.last = at
	a.admitted = true
	a.mu.Unlock()

	// The limiter token is returned on cancel; the spacing slot stays taken.
	if err := a.clock.Sleep(ctx, at.Sub(now)); err != nil {
		r.CancelAt(now)
		return err
	}
	return nil
}
