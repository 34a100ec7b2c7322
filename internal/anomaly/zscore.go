// Package anomaly flags readings that sit far outside their recent history.
package anomaly

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidWindow = errors.New("anomaly: invalid window")

// minStdDev guards against flat windows where any change is infinitely
// surprising.
const minStdDev = 1e-9

// Score describes a triggered reading.
type Score struct {
	Value  float64
	Mean   float64
	StdDev float64
	Z      float64
}

// RollingZScore keeps a fixed-size window of recent values and reports when a
// new value's population z-score reaches the threshold. Every value enters
// the window after it is scored.
type RollingZScore struct {
	threshold  float64
	minSamples int

	buf  []float64
	next int
	n    int
}

func NewRollingZScore(window, minSamples int, threshold float64) (*RollingZScore, error) {
	if window <= 1 {
		return nil, fmt.Errorf("%w: window must be > 1, got %d", ErrInvalidWindow, window)
	}
	if minSamples < 1 {
		return nil, fmt.Errorf("%w: min samples must be >= 1, got %d", ErrInvalidWindow, minSamples)
	}
	if minSamples > window {
		return nil, fmt.Errorf("%w: min samples %d exceeds window %d", ErrInvalidWindow, minSamples, window)
	}
	return &RollingZScore{
		threshold:  threshold,
		minSamples: minSamples,
		buf:        make([]float64, window),
	}, nil
}

// Update scores v against the current window and then records it.
func (r *RollingZScore) Update(v float64) (Score, bool) {
	defer r.push(v)
	if r.n < r.minSamples {
		return Score{}, false
	}
	mean, sd := r.stats()
	if sd <= minStdDev {
		return Score{}, false
	}
	z := (v - mean) / sd
	if math.Abs(z) < r.threshold {
		return Score{}, false
	}
	return Score{Value: v, Mean: mean, StdDev: sd, Z: z}, true
}

// Len is the number of values currently in the window.
func (r *RollingZScore) Len() int { return r.n }

func (r *RollingZScore) push(v float64) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *RollingZScore) stats() (mean, sd float64) {
	for i := 0; i < r.n; i++ {
		mean += r.buf[i]
	}
	mean /= float64(r.n)
	var ss float64
	for i := 0; i < r.n; i++ {
		d := r.buf[i] - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(r.n))
}
