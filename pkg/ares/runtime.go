package ares

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NkanyeziNgobese/ares-1/internal/adapters/mqtt"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/observability"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/opcua"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/queue"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/sink"
	"github.com/NkanyeziNgobese/ares-1/internal/anomaly"
	"github.com/NkanyeziNgobese/ares-1/internal/app/config"
	"github.com/NkanyeziNgobese/ares-1/internal/app/pipeline"
	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
	"github.com/NkanyeziNgobese/ares-1/internal/replay"
)

// ErrRuntimeClosed is returned by controls used after Shutdown.
var ErrRuntimeClosed = errors.New("ares: runtime is shut down")

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collector     Collector
	sinks         []Sink
	mailbox       Mailbox
	observability Observability
}

// WithCollector replaces the collector selected by cfg.Source.
func WithCollector(col Collector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.collector = col
	}
}

// WithSink adds a frame sink. Once any sink is supplied the file, Timescale
// and MQTT event outputs from the config are not opened.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithMailbox injects a custom mailbox implementation.
func WithMailbox(mb Mailbox) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.mailbox = mb
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// Runtime wires the collector → mailbox → engine → sinks pipeline and exposes
// lifecycle and operator controls for embedding Ares-1 inside any Go service.
type Runtime struct {
	cfg       *Config
	policy    ports.Policy
	obs       ports.Observability
	logger    *zap.Logger
	mailbox   ports.Mailbox
	collector ports.Collector
	engine    *engine.Engine
	feed      *replay.Feed
	tick      *pipeline.TickPipeline
	sinks     []ports.Sink

	paused atomic.Bool
	latest atomic.Pointer[domain.Frame]

	started    atomic.Bool
	closed     atomic.Bool
	cancel     context.CancelFunc
	edgeDone   <-chan struct{}
	tickDone   chan struct{}
	metricsSrv *http.Server
}

// NewRuntime bootstraps the default adapters (collector chosen by
// cfg.Source, latest-wins mailbox, file/Timescale/MQTT sinks, Prometheus
// observability). RuntimeOption values override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	// A replay run ticks at replay.hz so each row gets its own tick.
	engCfg := cfg.Engine
	if cfg.Source == config.SourceReplay && overrides.collector == nil && cfg.Replay.Hz > 0 {
		engCfg.TickHz = cfg.Replay.Hz
	}

	r := &Runtime{cfg: cfg, policy: cfg.Policy}
	r.policy.TickInterval = engCfg.TickInterval()

	r.obs = overrides.observability
	if r.obs == nil {
		logger, err := observability.NewLogger(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("ares: build logger: %w", err)
		}
		r.logger = logger
		r.obs = observability.NewPromObs(logger)
	}

	r.mailbox = overrides.mailbox
	if r.mailbox == nil {
		r.mailbox = queue.NewMemQueue(cfg.Policy.MaxBacklog)
	}

	eng, err := engine.New(engCfg, r.mailbox)
	if err != nil {
		return nil, err
	}
	r.engine = eng

	r.collector = overrides.collector
	if r.collector == nil {
		if r.collector, r.feed, err = r.newSource(); err != nil {
			return nil, err
		}
	}

	if len(overrides.sinks) > 0 {
		r.sinks = overrides.sinks
	} else if r.sinks, err = openSinks(cfg); err != nil {
		return nil, err
	}
	r.sinks = append(r.sinks, latestSink{r})

	tickOpts := []pipeline.TickOption{pipeline.WithPauseControl(r.paused.Load)}
	if r.feed != nil {
		tickOpts = append(tickOpts, pipeline.WithRowFeed(r.feed))
	}
	if cfg.Anomaly.Enabled {
		det, err := anomaly.NewTorqueDetector(cfg.Anomaly)
		if err != nil {
			closeSinks(r.sinks)
			return nil, err
		}
		tickOpts = append(tickOpts, pipeline.WithTorqueDetector(det))
	}
	r.tick = pipeline.NewTickPipeline(eng, r.sinks, r.obs, tickOpts...)
	return r, nil
}

// newSource builds the collector for live sources. Replay has no collector:
// its rows are pulled by the tick loop, one per unpaused tick.
func (r *Runtime) newSource() (ports.Collector, *replay.Feed, error) {
	switch r.cfg.Source {
	case config.SourceMQTT:
		col, err := mqtt.NewCollector(r.cfg.MQTT, r.obs)
		return col, nil, err
	case config.SourceOPCUA:
		col, err := opcua.NewCollector(r.cfg.OPCUA, r.obs)
		return col, nil, err
	case config.SourceReplay:
		rc := r.cfg.Replay
		table, err := replay.Load(rc.File, rc.Options)
		if err != nil {
			return nil, nil, err
		}
		r.obs.LogInfo("replay_loaded",
			ports.Field{Key: "file", Value: rc.File},
			ports.Field{Key: "rows", Value: len(table.Rows)})
		sched := replay.NewFromTable(table, rc.Origin, rc.TD)
		return nil, replay.NewFeed(sched, replay.WithOnDone(func() {
			cursor, total := sched.Position()
			r.obs.LogInfo("replay_complete",
				ports.Field{Key: "rows", Value: cursor},
				ports.Field{Key: "total", Value: total})
		})), nil
	default:
		return nil, nil, fmt.Errorf("ares: unknown source %q", r.cfg.Source)
	}
}

func openSinks(cfg *Config) ([]ports.Sink, error) {
	var sinks []ports.Sink
	if !cfg.Outputs.Disabled {
		files, err := sink.OpenOutputs(cfg.Outputs.Dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, files...)
	}
	if cfg.Timescale.DSN != "" {
		ts, err := sink.OpenTimescale(cfg.Timescale.DSN, cfg.Timescale.Table, cfg.Timescale.BatchSize)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, ts)
	}
	if cfg.Outputs.PublishEvents {
		ev, err := mqtt.DialEventSink(cfg.MQTT)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, ev)
	}
	return sinks, nil
}

// Start begins the edge and tick pipelines and launches the metrics server.
// It returns immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if r.closed.Load() {
		return ErrRuntimeClosed
	}
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("runtime already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if r.collector != nil {
		done, err := pipeline.RunEdgePipeline(ctx, r.collector, r.mailbox, r.policy, r.obs)
		if err != nil {
			cancel()
			return err
		}
		r.edgeDone = done
	}
	r.cancel = cancel

	r.tickDone = make(chan struct{})
	go func() {
		defer close(r.tickDone)
		_ = r.tick.Run(ctx)
	}()

	r.startMetrics()
	r.obs.LogInfo("runtime_started",
		ports.Field{Key: "source", Value: r.cfg.Source},
		ports.Field{Key: "tick_hz", Value: r.engine.Config().TickHz})
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the collector, drains both pipelines and closes the sinks.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error

	if r.collector != nil {
		if err := r.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.cancel != nil {
		r.cancel()
		for _, done := range []<-chan struct{}{r.edgeDone, r.tickDone} {
			if done == nil {
				continue
			}
			select {
			case <-done:
			case <-ctx.Done():
				errs = append(errs, ctx.Err())
			}
		}
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	errs = append(errs, closeSinks(r.sinks))
	if r.logger != nil {
		_ = r.logger.Sync()
	}
	return errors.Join(errs...)
}

// Pause freezes the engine: the mailbox is not drained, timers stop and a
// replay source holds its position.
func (r *Runtime) Pause() { r.paused.Store(true) }

// Resume continues from the filtered state held at pause time.
func (r *Runtime) Resume() { r.paused.Store(false) }

// ResumeFromRaw pins every smoothing filter to its last raw value before
// resuming, so stale filtered values do not lag the live data. Before Start
// the reset waits for the first tick.
func (r *Runtime) ResumeFromRaw() error {
	if r.closed.Load() {
		return ErrRuntimeClosed
	}
	r.tick.Do(func(e *engine.Engine) { e.ResumeFromRaw() })
	r.paused.Store(false)
	return nil
}

func (r *Runtime) Paused() bool { return r.paused.Load() }

// SetSmoothing flips the global smoothing switch on the next tick.
func (r *Runtime) SetSmoothing(enabled bool) error {
	if r.closed.Load() {
		return ErrRuntimeClosed
	}
	r.tick.Do(func(e *engine.Engine) { e.SetSmoothing(enabled) })
	return nil
}

// Latest returns the most recent frame, if any tick has run.
func (r *Runtime) Latest() (Frame, bool) {
	f := r.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()
}

func closeSinks(sinks []ports.Sink) error {
	var errs []error
	for _, s := range sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// latestSink keeps a copy of the newest frame for Runtime.Latest.
type latestSink struct{ r *Runtime }

func (l latestSink) Name() string { return "latest-frame" }

func (l latestSink) WriteFrame(f *domain.Frame) error {
	cp := *f
	l.r.latest.Store(&cp)
	return nil
}
