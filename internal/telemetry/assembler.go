package telemetry

import (
	"sync"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

// Assembler folds partial updates (one channel per per-signal message) into
// complete samples so downstream consumers only ever see whole-sample
// replacements. It is safe for concurrent producers.
type Assembler struct {
	mu      sync.Mutex
	current domain.Sample
}

// Apply merges update into the running sample and returns a copy of the
// result. Empty updates return ok=false and leave the state untouched.
func (a *Assembler) Apply(update domain.Sample) (domain.Sample, bool) {
	if update.Empty() {
		return domain.Sample{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = a.current.Merge(update)
	return a.current, true
}

// Replace discards the running sample and starts over from s, so channels
// absent from a combined record do not linger from earlier ones. Empty
// samples return ok=false and leave the state untouched.
func (a *Assembler) Replace(s domain.Sample) (domain.Sample, bool) {
	if s.Empty() {
		return domain.Sample{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = s
	return a.current, true
}

// Current returns the assembled sample so far.
func (a *Assembler) Current() domain.Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}
