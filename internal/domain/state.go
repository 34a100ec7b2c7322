package domain

// Severity is the outcome of a threshold evaluation. Values are ordered:
// Safe < Warning < Danger.
type Severity uint8

const (
	Safe Severity = iota
	Warning
	Danger
)

func (s Severity) String() string {
	switch s {
	case Safe:
		return "safe"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// FreshnessState describes how recently the data source delivered a sample.
type FreshnessState uint8

const (
	Live FreshnessState = iota
	Stale
	Disconnected
)

func (f FreshnessState) String() string {
	switch f {
	case Live:
		return "live"
	case Stale:
		return "stale"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

func (f FreshnessState) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// MissionState is the coarse rig operating mode.
type MissionState uint8

const (
	Unknown MissionState = iota
	Drilling
	Circulating
	Connection
	OffBottom
)

func (m MissionState) String() string {
	switch m {
	case Drilling:
		return "drilling"
	case Circulating:
		return "circulating"
	case Connection:
		return "connection"
	case OffBottom:
		return "off_bottom"
	default:
		return "unknown"
	}
}

func (m MissionState) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ZoneStatus is the geology hazard classification of a depth.
type ZoneStatus uint8

const (
	ZoneOK ZoneStatus = iota
	ZoneDoleriteSill
	ZoneEccaHazard
)

func (z ZoneStatus) String() string {
	switch z {
	case ZoneDoleriteSill:
		return "dolerite_sill"
	case ZoneEccaHazard:
		return "ecca_hazard"
	default:
		return "ok"
	}
}

func (z ZoneStatus) MarshalText() ([]byte, error) { return []byte(z.String()), nil }
