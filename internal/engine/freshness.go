package engine

import (
	"time"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

// FreshnessTracker measures time since the last accepted sample. Stale and
// Disconnected are derived from a single accumulator on every read.
type FreshnessTracker struct {
	staleAfter        float64
	disconnectedAfter float64
	elapsed           float64
}

// NewFreshnessTracker validates the thresholds and returns a tracker that
// reports Disconnected until the first sample is accepted.
func NewFreshnessTracker(staleAfter, disconnectedAfter time.Duration) (*FreshnessTracker, error) {
	if staleAfter <= 0 {
		return nil, configErrorf("freshness.stale_after", "must be > 0, got %s", staleAfter)
	}
	if disconnectedAfter <= 0 {
		return nil, configErrorf("freshness.disconnected_after", "must be > 0, got %s", disconnectedAfter)
	}
	if staleAfter >= disconnectedAfter {
		return nil, configErrorf("freshness.stale_after", "must be < disconnected_after (%s >= %s)", staleAfter, disconnectedAfter)
	}
	return &FreshnessTracker{
		staleAfter:        staleAfter.Seconds(),
		disconnectedAfter: disconnectedAfter.Seconds(),
		elapsed:           disconnectedAfter.Seconds(),
	}, nil
}

// Advance accumulates tick time. Negative steps are ignored.
func (f *FreshnessTracker) Advance(seconds float64) {
	if seconds > 0 {
		f.elapsed += seconds
	}
}

// Accept records the arrival of a decoded sample.
func (f *FreshnessTracker) Accept() { f.elapsed = 0 }

// Elapsed returns seconds since the last accepted sample.
func (f *FreshnessTracker) Elapsed() float64 { return f.elapsed }

func (f *FreshnessTracker) IsStale() bool { return f.elapsed >= f.staleAfter }

func (f *FreshnessTracker) IsDisconnected() bool { return f.elapsed >= f.disconnectedAfter }

// State collapses the predicates into the most severe freshness label.
func (f *FreshnessTracker) State() domain.FreshnessState {
	switch {
	case f.IsDisconnected():
		return domain.Disconnected
	case f.IsStale():
		return domain.Stale
	default:
		return domain.Live
	}
}
