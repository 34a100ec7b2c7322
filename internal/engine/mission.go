package engine

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// stableEpsilon absorbs drift from summing fractional tick steps.
const stableEpsilon = 1e-9

// MissionInputs are the raw readings the mission rules look at.
type MissionInputs struct {
	ROP          float64
	WOB          float64
	RPM          float64
	Torque       float64
	FlowIn       float64
	Disconnected bool
}

// MissionInputsFrom reads the rule inputs from a raw sample. Absent channels
// read as zero.
func MissionInputsFrom(s domain.Sample, disconnected bool) MissionInputs {
	return MissionInputs{
		ROP:          s.Get(domain.ROP),
		WOB:          s.Get(domain.WOB),
		RPM:          s.Get(domain.RPM),
		Torque:       s.Get(domain.Torque),
		FlowIn:       s.Get(domain.FlowIn),
		Disconnected: disconnected,
	}
}

// Candidate applies the mission rules in priority order. The first matching
// rule wins.
func (c MissionConfig) Candidate(in MissionInputs) domain.MissionState {
	if in.Disconnected {
		return domain.Unknown
	}
	switch {
	case in.ROP > c.ROPMin && in.WOB > c.WOBMin && (in.RPM > c.RPMMin || in.Torque > c.TorqueMin):
		return domain.Drilling
	case in.FlowIn > c.FlowMin && in.RPM < c.RPMMin && in.ROP < c.ROPMin:
		return domain.Circulating
	case in.WOB < c.WOBMin && in.ROP < c.ROPMin && in.FlowIn > c.FlowMin:
		return domain.OffBottom
	case in.RPM < c.RPMMin && in.FlowIn < c.FlowMin && in.WOB < c.WOBMin && in.ROP < c.ROPMin:
		return domain.Connection
	default:
		return domain.Unknown
	}
}

// MissionClassifier debounces rule output. A candidate must hold for the
// configured stable time before it becomes the committed state.
type MissionClassifier struct {
	cfg       MissionConfig
	stable    float64
	committed domain.MissionState
	candidate domain.MissionState
	timer     float64
}

func NewMissionClassifier(cfg MissionConfig) *MissionClassifier {
	return &MissionClassifier{cfg: cfg, stable: cfg.StableFor.Seconds()}
}

// Update evaluates the rules for one tick of dt seconds and returns the
// committed state and whether it changed on this tick.
func (m *MissionClassifier) Update(in MissionInputs, dt float64) (domain.MissionState, bool) {
	next := m.cfg.Candidate(in)
	if next != m.candidate {
		m.candidate = next
		m.timer = 0
	} else if dt > 0 {
		m.timer += dt
	}
	if m.candidate != m.committed && m.timer+stableEpsilon >= m.stable {
		m.committed = m.candidate
		return m.committed, true
	}
	return m.committed, false
}

func (m *MissionClassifier) Committed() domain.MissionState { return m.committed }

// Candidate returns the pending state and how long it has held.
func (m *MissionClassifier) Candidate() (domain.MissionState, float64) {
	return m.candidate, m.timer
}
