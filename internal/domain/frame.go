package domain

import "time"

// EventType names a classifier or alarm transition.
type EventType string

const (
	EventMissionState  EventType = "mission_state"
	EventThreshold     EventType = "threshold"
	EventLink          EventType = "link"
	EventZone          EventType = "zone"
	EventTorqueAnomaly EventType = "torque_anomaly"
)

// Event is one entry of the append-only transition log.
type Event struct {
	ID      string             `json:"id"`
	Type    EventType          `json:"event_type"`
	Tick    uint64             `json:"tick"`
	At      time.Time          `json:"timestamp"`
	Channel string             `json:"channel,omitempty"`
	From    string             `json:"from,omitempty"`
	To      string             `json:"to,omitempty"`
	Value   float64            `json:"value"`
	Depth   float64            `json:"depth_m"`
	Detail  map[string]float64 `json:"detail,omitempty"`
}

// Frame is everything the engine knows after one tick. It is plain data and
// safe to hand to writers on other goroutines.
type Frame struct {
	Tick       uint64
	At         time.Time
	Paused     bool
	Applied    bool
	Superseded int

	Freshness   FreshnessState
	SinceSample float64

	Raw      Sample
	Smoothed Sample

	Severity    [ChannelCount]Severity
	Evaluated   ChannelSet
	MaxSeverity Severity

	Mission          MissionState
	Candidate        MissionState
	CandidateSeconds float64

	Zone    ZoneStatus
	HasZone bool

	Events []Event
}

// SeverityOf returns the severity of channel c and whether a rule produced it.
func (f Frame) SeverityOf(c Channel) (Severity, bool) {
	return f.Severity[c], f.Evaluated.Has(c)
}

// ChannelReading is a flattened per-channel view of a frame.
type ChannelReading struct {
	Channel  string   `json:"channel"`
	Raw      float64  `json:"raw"`
	Smoothed float64  `json:"smoothed"`
	Severity Severity `json:"severity"`
}

// Readings lists the present channels of the frame in wire order.
func (f Frame) Readings() []ChannelReading {
	out := make([]ChannelReading, 0, ChannelCount)
	for _, c := range Channels() {
		raw, ok := f.Raw.Value(c)
		if !ok {
			continue
		}
		out = append(out, ChannelReading{
			Channel:  c.Key(),
			Raw:      raw,
			Smoothed: f.Smoothed.Get(c),
			Severity: f.Severity[c],
		})
	}
	return out
}
