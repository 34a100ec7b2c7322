package engine

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// ZoneConfig holds the geology boundaries in metres. Depths are negative
// below the surface.
type ZoneConfig struct {
	EccaThreshold float64 `yaml:"ecca_threshold"`
	DoleriteHigh  float64 `yaml:"dolerite_high"`
	DoleriteLow   float64 `yaml:"dolerite_low"`
}

// DefaultZones are the Karoo well boundaries.
func DefaultZones() ZoneConfig {
	return ZoneConfig{EccaThreshold: -1400, DoleriteLow: -1375, DoleriteHigh: -1225}
}

// Classify maps a depth onto a hazard zone. The Ecca check runs first, so it
// wins where the bands overlap.
func (z ZoneConfig) Classify(depth float64) domain.ZoneStatus {
	if depth <= z.EccaThreshold {
		return domain.ZoneEccaHazard
	}
	if depth >= z.DoleriteLow && depth <= z.DoleriteHigh {
		return domain.ZoneDoleriteSill
	}
	return domain.ZoneOK
}

func (z ZoneConfig) validate() error {
	if !isFinite(z.EccaThreshold) {
		return configErrorf("zones.ecca_threshold", "must be finite")
	}
	if !isFinite(z.DoleriteLow) || !isFinite(z.DoleriteHigh) {
		return configErrorf("zones.dolerite", "bounds must be finite")
	}
	if z.DoleriteLow > z.DoleriteHigh {
		return configErrorf("zones.dolerite_low", "must be <= dolerite_high (%v > %v)", z.DoleriteLow, z.DoleriteHigh)
	}
	return nil
}
