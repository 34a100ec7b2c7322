package ares

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NkanyeziNgobese/ares-1/internal/adapters/observability"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/queue"
	"github.com/NkanyeziNgobese/ares-1/internal/anomaly"
	"github.com/NkanyeziNgobese/ares-1/internal/app/pipeline"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
	"github.com/NkanyeziNgobese/ares-1/internal/telemetry"
)

var (
	// ErrEmptySample is returned when a published sample carries no channels.
	ErrEmptySample = errors.New("ares: sample has no channels")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("ares: publisher closed")
)

// ExternalPublisherConfig configures the engine behind an ExternalPublisher.
type ExternalPublisherConfig struct {
	Engine     EngineConfig
	Anomaly    AnomalyConfig
	MaxBacklog int
}

func (c *ExternalPublisherConfig) applyDefaults() {
	if len(c.Engine.Thresholds) == 0 && c.Engine.TickHz == 0 {
		c.Engine = engine.DefaultConfig()
	}
	c.Engine.ApplyDefaults()
	if c.MaxBacklog == 0 {
		c.MaxBacklog = 64
	}
}

// ExternalPublisher runs the engine for callers that produce samples
// themselves. Frames are delivered to the handler on every tick.
type ExternalPublisher struct {
	mailbox ports.Mailbox
	obs     ports.Observability
	tick    *pipeline.TickPipeline
	paused  atomic.Bool
	closed  atomic.Bool

	cancel   context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewExternalPublisher wires a mailbox, engine and tick loop so callers can
// push samples while reusing the classification pipeline.
func NewExternalPublisher(cfg *ExternalPublisherConfig, handler FrameHandler) (*ExternalPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("frame handler is required")
	}
	cfg.applyDefaults()

	mb := queue.NewMemQueue(cfg.MaxBacklog)
	eng, err := engine.New(cfg.Engine, mb)
	if err != nil {
		return nil, err
	}
	obs := observability.NewPromObs(nil)

	p := &ExternalPublisher{
		mailbox: mb,
		obs:     obs,
		doneCh:  make(chan struct{}),
	}

	opts := []pipeline.TickOption{pipeline.WithPauseControl(p.paused.Load)}
	if cfg.Anomaly.Enabled {
		det, err := anomaly.NewTorqueDetector(cfg.Anomaly)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithTorqueDetector(det))
	}
	p.tick = pipeline.NewTickPipeline(eng, []ports.Sink{NewCallbackSink("external", handler)}, obs, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go func() {
		defer close(p.doneCh)
		_ = p.tick.Run(ctx)
	}()
	return p, nil
}

// Publish offers a whole sample to the engine. Only the newest sample
// published between two ticks is applied.
func (p *ExternalPublisher) Publish(sample Sample) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	if sample.Empty() {
		return ErrEmptySample
	}
	p.mailbox.Offer(sample)
	p.obs.IncCounter(observability.SamplesAccepted, 1)
	return nil
}

// PublishJSON decodes a combined telemetry payload and publishes it.
func (p *ExternalPublisher) PublishJSON(payload []byte) error {
	sample, err := telemetry.Decode(payload)
	if err != nil {
		p.obs.RecordRejected("external", payload, err)
		return err
	}
	return p.Publish(sample)
}

func (p *ExternalPublisher) Pause()  { p.paused.Store(true) }
func (p *ExternalPublisher) Resume() { p.paused.Store(false) }

// Close stops the tick loop, respecting the provided context.
func (p *ExternalPublisher) Close(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.closed.Store(true)
		p.cancel()
	})

	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
