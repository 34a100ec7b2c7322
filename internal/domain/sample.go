package domain

import "fmt"

// Channel identifies one physical drilling signal.
type Channel uint8

const (
	Depth Channel = iota
	ROP
	WOB
	RPM
	Torque
	FlowIn
	FlowOut

	ChannelCount = 7
)

var channelKeys = [ChannelCount]string{"depth", "rop", "wob", "rpm", "torque", "flowIn", "flowOut"}

// Channels lists every channel in wire order.
func Channels() []Channel {
	return []Channel{Depth, ROP, WOB, RPM, Torque, FlowIn, FlowOut}
}

// Key returns the fixed wire field name of the channel.
func (c Channel) Key() string {
	if int(c) < ChannelCount {
		return channelKeys[c]
	}
	return fmt.Sprintf("channel(%d)", c)
}

func (c Channel) String() string { return c.Key() }

// ParseChannel maps a wire field name onto a channel. Snake-case aliases used
// by older publishers are accepted.
func ParseChannel(key string) (Channel, bool) {
	switch key {
	case "depth":
		return Depth, true
	case "rop":
		return ROP, true
	case "wob":
		return WOB, true
	case "rpm":
		return RPM, true
	case "torque":
		return Torque, true
	case "flowIn", "flow_in", "flowin":
		return FlowIn, true
	case "flowOut", "flow_out", "flowout":
		return FlowOut, true
	}
	return 0, false
}

// ChannelSet is a bitmask of channels.
type ChannelSet uint8

// AllChannels has every channel set.
const AllChannels ChannelSet = 1<<ChannelCount - 1

func (s ChannelSet) Has(c Channel) bool        { return s&(1<<c) != 0 }
func (s ChannelSet) With(c Channel) ChannelSet { return s | 1<<c }
func (s ChannelSet) Union(o ChannelSet) ChannelSet {
	return s | o
}

// Sample is one decoded telemetry reading. Channels that were not carried by
// the source are absent from Present and read as zero. Samples are values:
// every mutation helper returns a copy.
type Sample struct {
	Values  [ChannelCount]float64
	Present ChannelSet
}

// NewSample builds a sample with all channels present.
func NewSample(depth, rop, wob, rpm, torque, flowIn, flowOut float64) Sample {
	return Sample{
		Values:  [ChannelCount]float64{depth, rop, wob, rpm, torque, flowIn, flowOut},
		Present: AllChannels,
	}
}

// Value returns the channel reading and whether the channel is present.
func (s Sample) Value(c Channel) (float64, bool) {
	if int(c) >= ChannelCount {
		return 0, false
	}
	return s.Values[c], s.Present.Has(c)
}

// Get returns the channel reading, zero when absent.
func (s Sample) Get(c Channel) float64 {
	v, _ := s.Value(c)
	return v
}

// With returns a copy of s carrying v on channel c.
func (s Sample) With(c Channel, v float64) Sample {
	s.Values[c] = v
	s.Present = s.Present.With(c)
	return s
}

// Merge overlays the present channels of o onto s.
func (s Sample) Merge(o Sample) Sample {
	for _, c := range Channels() {
		if v, ok := o.Value(c); ok {
			s = s.With(c, v)
		}
	}
	return s
}

// Empty reports whether no channel is present.
func (s Sample) Empty() bool { return s.Present == 0 }
