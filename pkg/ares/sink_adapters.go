package ares

import (
	"errors"
	"fmt"
	"sync"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

var (
	// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
	ErrChannelSinkClosed = errors.New("ares: channel sink closed")
	// ErrChannelSinkFull is returned when the reader has fallen behind and a
	// frame was dropped.
	ErrChannelSinkFull = errors.New("ares: channel sink full")
)

// NewCallbackSink adapts a FrameHandler into a full Sink implementation so
// callers can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn FrameHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes frames via a channel; it returns the sink, the
// read-only channel, and a close function that the caller should invoke
// during shutdown. Frames are never allowed to stall the tick loop: when the
// buffer is full the frame is dropped and ErrChannelSinkFull returned.
func NewChannelSink(name string, buffer int) (Sink, <-chan Frame, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Frame, buffer)
	s := &channelSink{
		name: name,
		ch:   ch,
	}
	return s, ch, s.close
}

type callbackSink struct {
	name string
	fn   FrameHandler
}

func (s *callbackSink) WriteFrame(f *domain.Frame) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(copyFrame(f))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	mu     sync.Mutex
	ch     chan Frame
	closed bool
}

func (s *channelSink) WriteFrame(f *domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrChannelSinkClosed
	}
	select {
	case s.ch <- copyFrame(f):
		return nil
	default:
		return ErrChannelSinkFull
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// copyFrame detaches the event slice so receivers may keep frames around.
func copyFrame(f *domain.Frame) Frame {
	out := *f
	if len(f.Events) > 0 {
		out.Events = append([]domain.Event(nil), f.Events...)
	}
	return out
}
