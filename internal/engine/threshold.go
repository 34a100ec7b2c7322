package engine

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// ThresholdRule configures the alarm bands for one channel.
//
// A bound of exactly zero means that check is disabled. A channel that
// genuinely needs an alarm at 0 cannot express it; use a small offset.
type ThresholdRule struct {
	Channel    string  `yaml:"channel"`
	Enabled    bool    `yaml:"enabled"`
	UseHigh    bool    `yaml:"use_high"`
	WarnHigh   float64 `yaml:"warn_high"`
	DangerHigh float64 `yaml:"danger_high"`
	UseLow     bool    `yaml:"use_low"`
	WarnLow    float64 `yaml:"warn_low"`
	DangerLow  float64 `yaml:"danger_low"`
}

// Evaluate classifies value against the rule. Danger is checked before
// Warning within each zone and the result is the worse of the two zones.
// Bounds are inclusive.
func (r ThresholdRule) Evaluate(value float64) domain.Severity {
	if !r.Enabled {
		return domain.Safe
	}
	high := domain.Safe
	if r.UseHigh {
		switch {
		case r.DangerHigh != 0 && value >= r.DangerHigh:
			high = domain.Danger
		case r.WarnHigh != 0 && value >= r.WarnHigh:
			high = domain.Warning
		}
	}
	low := domain.Safe
	if r.UseLow {
		switch {
		case r.DangerLow != 0 && value <= r.DangerLow:
			low = domain.Danger
		case r.WarnLow != 0 && value <= r.WarnLow:
			low = domain.Warning
		}
	}
	return domain.MaxSeverity(high, low)
}

func (r ThresholdRule) validate(path string) error {
	if _, ok := domain.ParseChannel(r.Channel); !ok {
		return configErrorf(path+".channel", "unknown channel %q", r.Channel)
	}
	for name, v := range map[string]float64{
		"warn_high": r.WarnHigh, "danger_high": r.DangerHigh,
		"warn_low": r.WarnLow, "danger_low": r.DangerLow,
	} {
		if !isFinite(v) {
			return configErrorf(path+"."+name, "must be finite, got %v", v)
		}
	}
	if r.UseHigh && r.WarnHigh != 0 && r.DangerHigh != 0 && r.DangerHigh < r.WarnHigh {
		return configErrorf(path+".danger_high", "must be >= warn_high (%v < %v)", r.DangerHigh, r.WarnHigh)
	}
	if r.UseLow && r.WarnLow != 0 && r.DangerLow != 0 && r.DangerLow > r.WarnLow {
		return configErrorf(path+".danger_low", "must be <= warn_low (%v > %v)", r.DangerLow, r.WarnLow)
	}
	return nil
}
