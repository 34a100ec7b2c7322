package ares

import (
	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// Sample is one whole telemetry reading. Channels that were not reported are
// absent rather than zero.
type Sample = domain.Sample

// Frame is the engine's complete output for one tick.
type Frame = domain.Frame

// Event is one classifier or alarm transition.
type Event = domain.Event

type (
	Channel        = domain.Channel
	Severity       = domain.Severity
	MissionState   = domain.MissionState
	FreshnessState = domain.FreshnessState
	ZoneStatus     = domain.ZoneStatus
	EventType      = domain.EventType
)

const (
	Depth   = domain.Depth
	ROP     = domain.ROP
	WOB     = domain.WOB
	RPM     = domain.RPM
	Torque  = domain.Torque
	FlowIn  = domain.FlowIn
	FlowOut = domain.FlowOut
)

// Collector streams samples from any data source (MQTT, OPC UA, replay
// tables, simulators) into the runtime.
type Collector = ports.Collector

// Mailbox hands samples to the tick loop. Only the newest sample is applied.
type Mailbox = ports.Mailbox

// Transformer rewrites samples before they reach the mailbox.
type Transformer = ports.Transformer

// Sink consumes every frame the engine produces.
type Sink = ports.Sink

// Observability emits metrics and logs about the runtime.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// FrameHandler receives frames from a callback sink.
type FrameHandler func(Frame) error

// NewSample builds a sample with every channel present.
func NewSample(depth, rop, wob, rpm, torque, flowIn, flowOut float64) Sample {
	return domain.NewSample(depth, rop, wob, rpm, torque, flowIn, flowOut)
}
