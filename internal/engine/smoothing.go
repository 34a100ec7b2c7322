package engine

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// EMA is a single-channel exponential moving average filter.
type EMA struct {
	raw         float64
	smoothed    float64
	initialized bool
}

// Update feeds raw into the filter. A disabled filter snaps to raw so no lag
// is carried when smoothing is switched back on. The first update after
// construction always returns raw exactly. alpha is clamped into (0, 1];
// values outside that range make the filter track raw.
func (e *EMA) Update(raw float64, enabled bool, alpha float64) float64 {
	e.raw = raw
	if !enabled || !e.initialized {
		e.smoothed = raw
		e.initialized = true
		return raw
	}
	e.smoothed += clampAlpha(alpha) * (raw - e.smoothed)
	return e.smoothed
}

// Reset discards history and pins both raw and smoothed to value.
func (e *EMA) Reset(value float64) {
	e.raw = value
	e.smoothed = value
	e.initialized = true
}

func (e *EMA) Raw() float64 { return e.raw }

// Smoothed returns the filter output and whether the filter has seen a value.
func (e *EMA) Smoothed() (float64, bool) { return e.smoothed, e.initialized }

func clampAlpha(alpha float64) float64 {
	if !(alpha > 0) || alpha > 1 {
		return 1
	}
	return alpha
}

// SmoothingBank owns one EMA per channel plus the per-channel switches.
type SmoothingBank struct {
	enabled  bool
	channels [domain.ChannelCount]channelSmoothing
}

type channelSmoothing struct {
	filter  EMA
	enabled bool
	alpha   float64
}

// NewSmoothingBank builds the per-channel filters from a validated config.
func NewSmoothingBank(cfg SmoothingConfig) *SmoothingBank {
	b := &SmoothingBank{enabled: cfg.Enabled}
	for _, c := range domain.Channels() {
		slot := &b.channels[c]
		slot.enabled = true
		slot.alpha = cfg.Alpha
		if ch, ok := cfg.Channels[c.Key()]; ok {
			slot.enabled = !ch.Disabled
			if ch.Alpha != 0 {
				slot.alpha = ch.Alpha
			}
		}
	}
	return b
}

// Update runs the channel's filter with its configured switches.
func (b *SmoothingBank) Update(c domain.Channel, raw float64) float64 {
	slot := &b.channels[c]
	return slot.filter.Update(raw, b.enabled && slot.enabled, slot.alpha)
}

// Reset pins channel c to value.
func (b *SmoothingBank) Reset(c domain.Channel, value float64) {
	b.channels[c].filter.Reset(value)
}

// ResetToRaw pins every initialised channel to its last raw input.
func (b *SmoothingBank) ResetToRaw() {
	for i := range b.channels {
		f := &b.channels[i].filter
		if _, ok := f.Smoothed(); ok {
			f.Reset(f.Raw())
		}
	}
}

// SetEnabled flips the global smoothing switch.
func (b *SmoothingBank) SetEnabled(enabled bool) { b.enabled = enabled }

func (b *SmoothingBank) Smoothed(c domain.Channel) (float64, bool) {
	return b.channels[c].filter.Smoothed()
}
