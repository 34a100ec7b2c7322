package engine

import (
	"math"
	"strconv"
	"time"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

// Config is the full engine configuration surface.
type Config struct {
	TickHz     float64         `yaml:"tick_hz"`
	Smoothing  SmoothingConfig `yaml:"smoothing"`
	Thresholds []ThresholdRule `yaml:"thresholds"`
	Freshness  FreshnessConfig `yaml:"freshness"`
	Mission    MissionConfig   `yaml:"mission"`
	Zones      ZoneConfig      `yaml:"zones"`
}

type SmoothingConfig struct {
	Enabled  bool                        `yaml:"enabled"`
	Alpha    float64                     `yaml:"alpha"`
	Channels map[string]ChannelSmoothing `yaml:"channels"`
}

// ChannelSmoothing overrides the global smoothing switches for one channel.
// A zero Alpha inherits the global value.
type ChannelSmoothing struct {
	Disabled bool    `yaml:"disabled"`
	Alpha    float64 `yaml:"alpha"`
}

type FreshnessConfig struct {
	StaleAfter        time.Duration `yaml:"stale_after"`
	DisconnectedAfter time.Duration `yaml:"disconnected_after"`
}

// MissionConfig holds the comparator thresholds for the mission rules and
// the time a candidate must hold before it is committed.
type MissionConfig struct {
	ROPMin    float64       `yaml:"rop_min"`
	WOBMin    float64       `yaml:"wob_min"`
	RPMMin    float64       `yaml:"rpm_min"`
	TorqueMin float64       `yaml:"torque_min"`
	FlowMin   float64       `yaml:"flow_min"`
	StableFor time.Duration `yaml:"stable_for"`
}

// DefaultConfig returns a configuration that passes Validate.
func DefaultConfig() Config {
	return Config{
		TickHz:    10,
		Smoothing: SmoothingConfig{Enabled: true, Alpha: 0.2},
		Thresholds: []ThresholdRule{
			{Channel: "torque", Enabled: true, UseHigh: true, WarnHigh: 30, DangerHigh: 40},
			{Channel: "wob", Enabled: true, UseHigh: true, WarnHigh: 25, DangerHigh: 35},
			{Channel: "rpm", Enabled: true, UseHigh: true, WarnHigh: 180, DangerHigh: 220},
			{Channel: "flowIn", Enabled: true, UseLow: true, WarnLow: 400, DangerLow: 200},
		},
		Freshness: FreshnessConfig{StaleAfter: 2 * time.Second, DisconnectedAfter: 5 * time.Second},
		Mission: MissionConfig{
			ROPMin: 1, WOBMin: 2, RPMMin: 30, TorqueMin: 5, FlowMin: 100,
			StableFor: 2 * time.Second,
		},
		Zones: DefaultZones(),
	}
}

// ApplyDefaults fills zero-valued scalars from DefaultConfig. Threshold rules
// and mission comparators are left as configured.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.TickHz == 0 {
		c.TickHz = def.TickHz
	}
	if c.Smoothing.Alpha == 0 {
		c.Smoothing.Alpha = def.Smoothing.Alpha
	}
	if c.Freshness.StaleAfter == 0 {
		c.Freshness.StaleAfter = def.Freshness.StaleAfter
	}
	if c.Freshness.DisconnectedAfter == 0 {
		c.Freshness.DisconnectedAfter = def.Freshness.DisconnectedAfter
	}
	if c.Zones == (ZoneConfig{}) {
		c.Zones = def.Zones
	}
}

// TickInterval is the wall time between ticks.
func (c Config) TickInterval() time.Duration {
	if c.TickHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.TickHz)
}

// Validate rejects invalid configuration. Every error matches ErrInvalidConfig.
func (c Config) Validate() error {
	if !(c.TickHz > 0) || math.IsInf(c.TickHz, 0) {
		return configErrorf("tick_hz", "must be > 0, got %v", c.TickHz)
	}
	if err := validateAlpha("smoothing.alpha", c.Smoothing.Alpha, false); err != nil {
		return err
	}
	for key, ch := range c.Smoothing.Channels {
		if _, ok := domain.ParseChannel(key); !ok {
			return configErrorf("smoothing.channels."+key, "unknown channel")
		}
		if err := validateAlpha("smoothing.channels."+key+".alpha", ch.Alpha, true); err != nil {
			return err
		}
	}

	seen := map[domain.Channel]bool{}
	for i, r := range c.Thresholds {
		path := "thresholds[" + strconv.Itoa(i) + "]"
		if err := r.validate(path); err != nil {
			return err
		}
		ch, _ := domain.ParseChannel(r.Channel)
		if seen[ch] {
			return configErrorf(path+".channel", "duplicate rule for %s", ch)
		}
		seen[ch] = true
	}

	if _, err := NewFreshnessTracker(c.Freshness.StaleAfter, c.Freshness.DisconnectedAfter); err != nil {
		return err
	}

	m := c.Mission
	for name, v := range map[string]float64{
		"rop_min": m.ROPMin, "wob_min": m.WOBMin, "rpm_min": m.RPMMin,
		"torque_min": m.TorqueMin, "flow_min": m.FlowMin,
	} {
		if !isFinite(v) {
			return configErrorf("mission."+name, "must be finite, got %v", v)
		}
	}
	if m.StableFor < 0 {
		return configErrorf("mission.stable_for", "must be >= 0, got %s", m.StableFor)
	}
	return c.Zones.validate()
}

// validateAlpha rejects negative and non-finite coefficients. Values above 1
// are accepted and clamped when the filter runs.
func validateAlpha(path string, alpha float64, zeroOK bool) error {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha < 0 {
		return configErrorf(path, "must be a finite value in (0, 1], got %v", alpha)
	}
	if alpha == 0 && !zeroOK {
		return configErrorf(path, "must be > 0")
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
