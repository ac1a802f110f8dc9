package plugin

import (
	"time"

	"golang.org/x/time/rate"
)

// WallClockLogger requests a progress log at most once per wall-clock
// interval. Step-driven scheduling cannot see wall time, so the plugin asks
// to be consulted every stepPeriod steps and lets a rate limiter decide
// whether enough real time has passed to be worth a log line.
type WallClockLogger[S any] struct {
	Base[S]

	limiter    *rate.Limiter
	stepPeriod uint64
}

// NewWallClockLogger creates a WallClockLogger that logs at most once per
// interval and is consulted every stepPeriod steps. A stepPeriod of 0 means
// the plugin never forces a consultation and only piggybacks on others.
func NewWallClockLogger[S any](interval time.Duration, stepPeriod uint64) *WallClockLogger[S] {
	return &WallClockLogger[S]{
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		stepPeriod: stepPeriod,
	}
}

// Name returns "wallclock".
func (w *WallClockLogger[S]) Name() string { return "wallclock" }

// Decide requests Log when the wall-clock interval has elapsed.
func (w *WallClockLogger[S]) Decide(Simulation, S) Action {
	if w.limiter.Allow() {
		return ActionLog
	}
	return ActionNone
}

// RunPeriod returns the configured step period.
func (w *WallClockLogger[S]) RunPeriod() (uint64, bool) {
	if w.stepPeriod == 0 {
		return 0, false
	}
	return w.stepPeriod, true
}
