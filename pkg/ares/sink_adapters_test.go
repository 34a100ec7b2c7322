package ares

import (
	"errors"
	"testing"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

func TestNewCallbackSink(t *testing.T) {
	var received []Frame
	sink := NewCallbackSink("cb", func(f Frame) error {
		received = append(received, f)
		return nil
	})

	input := &Frame{
		Tick:    42,
		Applied: true,
		Raw:     NewSample(-100, 1, 2, 3, 4, 5, 6),
		Events:  []Event{{Type: domain.EventZone, To: "ok"}},
	}
	if err := sink.WriteFrame(input); err != nil {
		t.Fatalf("WriteFrame returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(received))
	}
	got := received[0]
	if got.Tick != 42 || got.Raw.Get(Torque) != 4 {
		t.Fatalf("mismatched frame payload: %+v", got)
	}

	input.Events[0].To = "changed"
	if got.Events[0].To != "ok" {
		t.Fatalf("expected events to be copied")
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.WriteFrame(&Frame{}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %s", sink.Name())
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	if err := sink.WriteFrame(&Frame{Tick: 7}); err != nil {
		t.Fatalf("WriteFrame returned error: %v", err)
	}
	if err := sink.WriteFrame(&Frame{Tick: 8}); !errors.Is(err, ErrChannelSinkFull) {
		t.Fatalf("expected ErrChannelSinkFull, got %v", err)
	}
	if f := <-ch; f.Tick != 7 {
		t.Fatalf("unexpected frame: %+v", f)
	}

	closeFn()
	if err := sink.WriteFrame(&Frame{Tick: 9}); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}
