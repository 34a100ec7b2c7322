package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

const (
	SamplesAccepted   = "ares_samples_accepted_total"
	SamplesRejected   = "ares_samples_rejected_total"
	SamplesSuperseded = "ares_samples_superseded_total"
	EventsEmitted     = "ares_events_total"
	SinkErrors        = "ares_sink_errors_total"

	MissionState   = "ares_mission_state"
	FreshnessState = "ares_freshness_state"
	MailboxBacklog = "ares_mailbox_backlog"

	TickSeconds = "ares_tick_seconds"
)

// PromObs implements ports.Observability with Prometheus metrics and zap
// logs.
type PromObs struct {
	log *zap.Logger

	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer

	rejectLog rate.Sometimes
}

// NewLogger builds a production zap logger. level "debug" lowers the
// threshold.
func NewLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if level == "debug" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func NewPromObs(logger *zap.Logger) *PromObs {
	if logger == nil {
		logger = zap.NewNop()
	}
	accepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SamplesAccepted,
		Help: "Samples decoded and offered to the engine.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SamplesRejected,
		Help: "Payloads that failed to decode.",
	})
	superseded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SamplesSuperseded,
		Help: "Samples discarded because a newer one arrived before the tick.",
	})
	events := prometheus.NewCounter(prometheus.CounterOpts{
		Name: EventsEmitted,
		Help: "Classifier and alarm transitions emitted.",
	})
	sinkErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SinkErrors,
		Help: "Frame writes that failed in any sink.",
	})
	mission := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MissionState,
		Help: "Committed mission state (0 unknown, 1 drilling, 2 circulating, 3 connection, 4 off bottom).",
	})
	freshness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: FreshnessState,
		Help: "Data freshness (0 live, 1 stale, 2 disconnected).",
	})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MailboxBacklog,
		Help: "Samples waiting in the mailbox at tick time.",
	})
	tick := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    TickSeconds,
		Help:    "Time spent processing one engine tick including sinks.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	accepted = register(accepted)
	rejected = register(rejected)
	superseded = register(superseded)
	events = register(events)
	sinkErrors = register(sinkErrors)
	mission = register(mission)
	freshness = register(freshness)
	backlog = register(backlog)
	tick = register(tick)

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			SamplesAccepted:   accepted,
			SamplesRejected:   rejected,
			SamplesSuperseded: superseded,
			EventsEmitted:     events,
			SinkErrors:        sinkErrors,
		},
		gauges: map[string]prometheus.Gauge{
			MissionState:   mission,
			FreshnessState: freshness,
			MailboxBacklog: backlog,
		},
		histos: map[string]prometheus.Observer{
			TickSeconds: tick,
		},
		rejectLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// register adds c to the default registerer. When an identical collector is
// already registered, as happens with several runtimes in one process, the
// existing one is shared.
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Logger exposes the underlying zap logger.
func (p *PromObs) Logger() *zap.Logger { return p.log }

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, zapFields(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.DPanic(msg, append(zapFields(fields), zap.Error(err))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

// RecordRejected counts every rejected payload but only logs a sample of
// them so a misbehaving publisher cannot flood the log.
func (p *PromObs) RecordRejected(source string, payload []byte, err error) {
	p.IncCounter(SamplesRejected, 1)
	p.rejectLog.Do(func() {
		p.log.Warn("payload rejected",
			zap.String("source", source),
			zap.Int("bytes", len(payload)),
			zap.ByteString("head", head(payload, 64)),
			zap.Error(err))
	})
}

func head(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func zapFields(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
