package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/NkanyeziNgobese/ares-1/internal/adapters/observability"
	"github.com/NkanyeziNgobese/ares-1/internal/anomaly"
	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// TickPipeline drives the engine at its configured rate and fans every frame
// out to the sinks. It is the only goroutine that touches engine state.
type TickPipeline struct {
	eng      *engine.Engine
	sinks    []ports.Sink
	obs      ports.Observability
	detector *anomaly.TorqueDetector
	paused   func() bool
	newID    func() string
	summary  rate.Sometimes

	feed RowFeed

	mu      sync.Mutex
	pending []func(*engine.Engine)
}

// RowFeed supplies at most one sample per tick. Replay tables are paced this
// way so every row reaches the engine.
type RowFeed interface {
	Next(paused bool) (domain.Sample, bool, error)
}

type TickOption func(*TickPipeline)

// WithRowFeed offers one sample from feed to the engine's mailbox at the start
// of every tick, before the engine drains it.
func WithRowFeed(feed RowFeed) TickOption {
	return func(p *TickPipeline) { p.feed = feed }
}

// WithTorqueDetector scores every applied sample for torque anomalies.
func WithTorqueDetector(d *anomaly.TorqueDetector) TickOption {
	return func(p *TickPipeline) { p.detector = d }
}

// WithPauseControl supplies the pause flag read at the start of every tick.
func WithPauseControl(paused func() bool) TickOption {
	return func(p *TickPipeline) { p.paused = paused }
}

// WithSummaryInterval sets how often the latest-values line is logged.
func WithSummaryInterval(d time.Duration) TickOption {
	return func(p *TickPipeline) { p.summary = rate.Sometimes{Interval: d} }
}

func NewTickPipeline(eng *engine.Engine, sinks []ports.Sink, obs ports.Observability, opts ...TickOption) *TickPipeline {
	p := &TickPipeline{
		eng:     eng,
		sinks:   sinks,
		obs:     obs,
		paused:  func() bool { return false },
		newID:   uuid.NewString,
		summary: rate.Sometimes{Interval: time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do queues fn to run on the tick goroutine before the next tick. Engine
// controls such as ResumeFromRaw go through here. Do never blocks, whether or
// not the tick loop is running.
func (p *TickPipeline) Do(fn func(*engine.Engine)) {
	p.mu.Lock()
	p.pending = append(p.pending, fn)
	p.mu.Unlock()
}

// Step runs one tick of elapsed wall time.
func (p *TickPipeline) Step(elapsed time.Duration) domain.Frame {
	start := time.Now()
	p.runPending()

	paused := p.paused()
	if p.feed != nil {
		p.feedRow(paused)
	}
	p.obs.SetGauge(observability.MailboxBacklog, float64(p.eng.Backlog()))
	f := p.eng.Tick(engine.TickInput{Elapsed: elapsed, Paused: paused})
	if f.Applied {
		if ev, ok := p.checkTorque(f); ok {
			f.Events = append(f.Events, ev)
		}
	}

	p.obs.IncCounter(observability.SamplesSuperseded, float64(f.Superseded))
	p.obs.IncCounter(observability.EventsEmitted, float64(len(f.Events)))
	p.obs.SetGauge(observability.MissionState, float64(f.Mission))
	p.obs.SetGauge(observability.FreshnessState, float64(f.Freshness))

	for _, s := range p.sinks {
		if err := s.WriteFrame(&f); err != nil {
			p.obs.IncCounter(observability.SinkErrors, 1)
			p.obs.LogError("sink_write_failed", err, ports.Field{Key: "sink", Value: s.Name()})
		}
	}
	for _, ev := range f.Events {
		p.obs.LogInfo("event",
			ports.Field{Key: "type", Value: string(ev.Type)},
			ports.Field{Key: "channel", Value: ev.Channel},
			ports.Field{Key: "from", Value: ev.From},
			ports.Field{Key: "to", Value: ev.To},
			ports.Field{Key: "depth_m", Value: ev.Depth})
	}
	p.summary.Do(func() { p.logSummary(f) })

	p.obs.ObserveLatency(observability.TickSeconds, time.Since(start).Seconds())
	return f
}

// Run ticks until ctx is cancelled. Elapsed time is measured between ticks
// so a slow tick does not stretch the engine's notion of time.
func (p *TickPipeline) Run(ctx context.Context) error {
	interval := p.eng.Config().TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			p.Step(now.Sub(last))
			last = now
		}
	}
}

func (p *TickPipeline) runPending() {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, fn := range pending {
		fn(p.eng)
	}
}

func (p *TickPipeline) feedRow(paused bool) {
	s, ok, err := p.feed.Next(paused)
	if err != nil {
		p.obs.LogError("replay_row_failed", err)
		return
	}
	if !ok {
		return
	}
	p.eng.Offer(s)
	p.obs.IncCounter(observability.SamplesAccepted, 1)
}

func (p *TickPipeline) checkTorque(f domain.Frame) (domain.Event, bool) {
	if p.detector == nil {
		return domain.Event{}, false
	}
	depth, okDepth := f.Raw.Value(domain.Depth)
	torque, okTorque := f.Raw.Value(domain.Torque)
	if !okDepth || !okTorque {
		return domain.Event{}, false
	}
	hit, ok := p.detector.Update(depth, torque)
	if !ok {
		return domain.Event{}, false
	}
	cfg := p.detector.Config()
	return domain.Event{
		ID:      p.newID(),
		Type:    domain.EventTorqueAnomaly,
		Tick:    f.Tick,
		At:      f.At,
		Channel: domain.Torque.Key(),
		Value:   torque,
		Depth:   depth,
		Detail: map[string]float64{
			"baseline_nm": hit.BaselineNm,
			"residual_nm": hit.ResidualNm,
			"z_score":     hit.Score.Z,
			"z_threshold": cfg.ZThreshold,
			"mean":        hit.Score.Mean,
			"stdev":       hit.Score.StdDev,
		},
	}, true
}

func (p *TickPipeline) logSummary(f domain.Frame) {
	fields := []ports.Field{
		{Key: "tick", Value: f.Tick},
		{Key: "state", Value: f.Mission.String()},
		{Key: "freshness", Value: f.Freshness.String()},
		{Key: "paused", Value: f.Paused},
	}
	for _, r := range f.Readings() {
		fields = append(fields, ports.Field{Key: r.Channel, Value: r.Smoothed})
	}
	if f.HasZone {
		fields = append(fields, ports.Field{Key: "zone", Value: f.Zone.String()})
	}
	p.obs.LogInfo("latest", fields...)
}
