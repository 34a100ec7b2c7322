// Package engine turns a stream of telemetry samples into classified frames.
//
// The Engine is driven by a single consumer goroutine calling Tick at a fixed
// rate. Producers hand samples over through a ports.Mailbox; every other piece
// of state (smoothing filters, the freshness accumulator, the mission timer)
// belongs to the tick goroutine and is never touched by producers.
package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// TickInput is everything that varies between ticks. Paused replaces the
// process-wide pause flag.
type TickInput struct {
	Elapsed time.Duration
	Paused  bool
}

type Option func(*Engine)

// WithClock sets the wall clock used to stamp frames and events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the event id source.
func WithIDGenerator(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

type Engine struct {
	cfg     Config
	mailbox ports.Mailbox

	freshness *FreshnessTracker
	smoothing *SmoothingBank
	rules     [domain.ChannelCount]*ThresholdRule
	mission   *MissionClassifier

	tick uint64
	raw  domain.Sample
	last domain.Frame

	now   func() time.Time
	newID func() string
}

// New validates cfg and builds an engine reading from mailbox.
func New(cfg Config, mailbox ports.Mailbox, opts ...Option) (*Engine, error) {
	if mailbox == nil {
		return nil, errors.New("engine: mailbox is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fresh, err := NewFreshnessTracker(cfg.Freshness.StaleAfter, cfg.Freshness.DisconnectedAfter)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		mailbox:   mailbox,
		freshness: fresh,
		smoothing: NewSmoothingBank(cfg.Smoothing),
		mission:   NewMissionClassifier(cfg.Mission),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for i := range cfg.Thresholds {
		rule := cfg.Thresholds[i]
		ch, _ := domain.ParseChannel(rule.Channel)
		e.rules[ch] = &rule
	}
	for _, opt := range opts {
		opt(e)
	}

	e.last = domain.Frame{
		Freshness:   e.freshness.State(),
		SinceSample: e.freshness.Elapsed(),
		Mission:     domain.Unknown,
		Candidate:   domain.Unknown,
	}
	return e, nil
}

// Offer hands a sample to the tick goroutine. Safe for concurrent use.
func (e *Engine) Offer(s domain.Sample) { e.mailbox.Offer(s) }

func (e *Engine) Config() Config { return e.cfg }

// Backlog is the number of samples waiting for the next tick.
func (e *Engine) Backlog() int { return e.mailbox.Len() }

// Last returns the most recent frame.
func (e *Engine) Last() domain.Frame { return e.last }

// ResumeFromRaw discards smoothing history so every channel restarts from
// its last raw reading.
func (e *Engine) ResumeFromRaw() { e.smoothing.ResetToRaw() }

// SetSmoothing flips the global smoothing switch.
func (e *Engine) SetSmoothing(enabled bool) { e.smoothing.SetEnabled(enabled) }

// Tick advances the engine by one step. While paused the mailbox is left
// alone, no timers move and the previous frame is repeated with Paused set.
func (e *Engine) Tick(in TickInput) domain.Frame {
	e.tick++
	at := e.now()

	if in.Paused {
		f := e.last
		f.Tick = e.tick
		f.At = at
		f.Paused = true
		f.Applied = false
		f.Superseded = 0
		f.Events = nil
		e.last = f
		return f
	}

	dt := in.Elapsed.Seconds()
	if dt < 0 {
		dt = 0
	}
	e.freshness.Advance(dt)

	f := domain.Frame{Tick: e.tick, At: at}
	if s, superseded, ok := e.mailbox.Drain(); ok {
		f.Superseded = superseded
		if !s.Empty() {
			e.apply(s)
			e.freshness.Accept()
			f.Applied = true
		}
	}

	f.Freshness = e.freshness.State()
	f.SinceSample = e.freshness.Elapsed()
	f.Raw = e.raw

	for _, c := range domain.Channels() {
		if !e.raw.Present.Has(c) {
			continue
		}
		sm, _ := e.smoothing.Smoothed(c)
		f.Smoothed = f.Smoothed.With(c, sm)
		if rule := e.rules[c]; rule != nil {
			f.Severity[c] = rule.Evaluate(sm)
			f.Evaluated = f.Evaluated.With(c)
			f.MaxSeverity = domain.MaxSeverity(f.MaxSeverity, f.Severity[c])
		}
	}

	inputs := MissionInputsFrom(e.raw, f.Freshness == domain.Disconnected)
	f.Mission, _ = e.mission.Update(inputs, dt)
	f.Candidate, f.CandidateSeconds = e.mission.Candidate()

	if depth, ok := e.raw.Value(domain.Depth); ok {
		f.Zone = e.cfg.Zones.Classify(depth)
		f.HasZone = true
	}

	f.Events = e.transitions(e.last, f)
	e.last = f
	return f
}

// apply replaces the raw sample and feeds each present channel through its
// smoothing filter.
func (e *Engine) apply(s domain.Sample) {
	e.raw = s
	for _, c := range domain.Channels() {
		if v, ok := s.Value(c); ok {
			e.smoothing.Update(c, v)
		}
	}
}

func (e *Engine) transitions(prev, cur domain.Frame) []domain.Event {
	var events []domain.Event
	depth := cur.Raw.Get(domain.Depth)
	emit := func(ev domain.Event) {
		ev.ID = e.newID()
		ev.Tick = cur.Tick
		ev.At = cur.At
		ev.Depth = depth
		events = append(events, ev)
	}

	if prev.Freshness != cur.Freshness {
		emit(domain.Event{
			Type:  domain.EventLink,
			From:  prev.Freshness.String(),
			To:    cur.Freshness.String(),
			Value: cur.SinceSample,
		})
	}
	if prev.Mission != cur.Mission {
		emit(domain.Event{
			Type:  domain.EventMissionState,
			From:  prev.Mission.String(),
			To:    cur.Mission.String(),
			Value: cur.CandidateSeconds,
		})
	}
	for _, c := range domain.Channels() {
		sev, ok := cur.SeverityOf(c)
		if !ok {
			continue
		}
		before, _ := prev.SeverityOf(c)
		if sev == before {
			continue
		}
		emit(domain.Event{
			Type:    domain.EventThreshold,
			Channel: c.Key(),
			From:    before.String(),
			To:      sev.String(),
			Value:   cur.Smoothed.Get(c),
		})
	}
	if cur.HasZone && (!prev.HasZone || prev.Zone != cur.Zone) {
		from := ""
		if prev.HasZone {
			from = prev.Zone.String()
		}
		emit(domain.Event{
			Type:  domain.EventZone,
			From:  from,
			To:    cur.Zone.String(),
			Value: depth,
		})
	}
	return events
}
