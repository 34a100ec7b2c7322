package replay

import (
	"fmt"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
	"github.com/NkanyeziNgobese/ares-1/internal/telemetry"
)

// Scheduler hands out rows strictly in order, one per unpaused tick.
type Scheduler struct {
	rows         []domain.Sample
	cursor       int
	transformers []ports.Transformer
}

func NewScheduler(rows []domain.Sample, transformers ...ports.Transformer) *Scheduler {
	return &Scheduler{rows: rows, transformers: transformers}
}

// Tick returns the next row. Paused ticks return nothing and keep the
// cursor in place. ok is false once the table is exhausted.
func (s *Scheduler) Tick(paused bool) (row domain.Sample, ok bool, err error) {
	if paused || s.cursor >= len(s.rows) {
		return domain.Sample{}, false, nil
	}
	row = s.rows[s.cursor]
	for _, t := range s.transformers {
		if row, err = t.Transform(row); err != nil {
			return domain.Sample{}, false, fmt.Errorf("replay: transform row %d (v%d): %w", s.cursor, t.Version(), err)
		}
	}
	s.cursor++
	return row, true, nil
}

func (s *Scheduler) Done() bool { return s.cursor >= len(s.rows) }

func (s *Scheduler) Position() (cursor, total int) { return s.cursor, len(s.rows) }

// NewFromTable sorts t by depth and maps it onto [top, bottom].
func NewFromTable(t *Table, top, bottom float64) *Scheduler {
	t.SortByDepth()
	lo, hi := t.DepthRange()
	return NewScheduler(t.Rows, DepthMapper{SrcMin: lo, SrcMax: hi, Top: top, Bottom: bottom})
}

// Feed pulls rows from a Scheduler on the engine's own tick, one row per
// unpaused tick, so no row is superseded in the mailbox before it is applied.
// Each row is encoded and decoded again so replayed data takes the same path
// as broker payloads.
type Feed struct {
	sched    *Scheduler
	onDone   func()
	finished bool
}

type FeedOption func(*Feed)

// WithOnDone registers a callback run once the table is exhausted.
func WithOnDone(fn func()) FeedOption {
	return func(f *Feed) { f.onDone = fn }
}

func NewFeed(sched *Scheduler, opts ...FeedOption) *Feed {
	f := &Feed{sched: sched}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Next returns the row for this tick. Paused ticks and an exhausted table
// return ok=false. A row that fails to transform or encode ends the replay.
// Next must be called from the tick goroutine only.
func (f *Feed) Next(paused bool) (domain.Sample, bool, error) {
	if f.finished {
		return domain.Sample{}, false, nil
	}
	row, ok, err := f.sched.Tick(paused)
	if err != nil {
		f.finish()
		return domain.Sample{}, false, err
	}
	if !ok {
		if f.sched.Done() {
			f.finish()
		}
		return domain.Sample{}, false, nil
	}

	payload, err := telemetry.Encode(row)
	if err != nil {
		f.finish()
		return domain.Sample{}, false, err
	}
	sample, err := telemetry.Decode(payload)
	if err != nil {
		f.finish()
		return domain.Sample{}, false, err
	}
	return sample, true, nil
}

// Done reports whether the replay has ended.
func (f *Feed) Done() bool { return f.finished }

func (f *Feed) finish() {
	f.finished = true
	if f.onDone != nil {
		f.onDone()
	}
}
