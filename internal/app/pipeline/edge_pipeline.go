package pipeline

import (
	"context"

	"github.com/NkanyeziNgobese/ares-1/internal/adapters/observability"
	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// RunEdgePipeline starts the collector and forwards every sample it produces
// into the mailbox. The returned channel closes once ctx is cancelled and
// the forwarding goroutine has exited. Stopping the collector is the
// caller's job.
func RunEdgePipeline(ctx context.Context, col ports.Collector, mb ports.Mailbox, pol ports.Policy, obs ports.Observability) (<-chan struct{}, error) {
	buf := pol.CollectorBuf
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan domain.Sample, buf)

	if err := col.Start(ch); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-ch:
				offerWithPolicy(mb, s, pol, obs)
			}
		}
	}()
	return done, nil
}

// offerWithPolicy hands s to the mailbox. When the backlog is already at the
// policy limit the sample still goes in; the mailbox drops its oldest entry
// and the drop is logged.
func offerWithPolicy(mb ports.Mailbox, s domain.Sample, pol ports.Policy, obs ports.Observability) {
	backlog := mb.Len()
	if pol.MaxBacklog > 0 && backlog >= pol.MaxBacklog {
		obs.LogInfo("mailbox_backlog_full", ports.Field{Key: "backlog", Value: backlog})
	}
	mb.Offer(s)
	obs.IncCounter(observability.SamplesAccepted, 1)
}
