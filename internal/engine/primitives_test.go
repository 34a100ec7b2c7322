package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

func TestEMAFirstUpdateIsExact(t *testing.T) {
	for _, alpha := range []float64{1e-6, 0.05, 0.2, 0.5, 0.999, 1} {
		var f EMA
		assert.Equal(t, 1234.5678, f.Update(1234.5678, true, alpha), "alpha=%v", alpha)
	}
}

func TestEMAConvergesOnConstantInput(t *testing.T) {
	var f EMA
	f.Update(0, true, 0.2)
	var got float64
	for i := 0; i < 200; i++ {
		got = f.Update(100, true, 0.2)
	}
	assert.InDelta(t, 100, got, 1e-9)
}

func TestEMADisabledTracksRaw(t *testing.T) {
	var f EMA
	f.Update(10, true, 0.1)
	f.Update(20, true, 0.1)
	for _, v := range []float64{50, -3, 7.25} {
		assert.Equal(t, v, f.Update(v, false, 0.1))
	}
	// Re-enabling continues from the last raw value without lag.
	assert.InDelta(t, 7.25, f.Update(7.25, true, 0.1), 1e-12)
}

func TestEMAClampsAlpha(t *testing.T) {
	var f EMA
	f.Update(0, true, 5)
	assert.Equal(t, 10.0, f.Update(10, true, 5))
}

func TestEMAReset(t *testing.T) {
	var f EMA
	f.Update(0, true, 0.1)
	f.Update(100, true, 0.1)
	f.Reset(42)
	sm, ok := f.Smoothed()
	require.True(t, ok)
	assert.Equal(t, 42.0, sm)
	assert.Equal(t, 42.0, f.Raw())
}

func TestSmoothingBankPerChannelSwitches(t *testing.T) {
	bank := NewSmoothingBank(SmoothingConfig{
		Enabled: true,
		Alpha:   0.5,
		Channels: map[string]ChannelSmoothing{
			"rpm":    {Disabled: true},
			"torque": {Alpha: 1},
		},
	})

	bank.Update(domain.ROP, 0)
	assert.Equal(t, 5.0, bank.Update(domain.ROP, 10))

	bank.Update(domain.RPM, 0)
	assert.Equal(t, 10.0, bank.Update(domain.RPM, 10))

	bank.Update(domain.Torque, 0)
	assert.Equal(t, 10.0, bank.Update(domain.Torque, 10))

	bank.SetEnabled(false)
	assert.Equal(t, 30.0, bank.Update(domain.ROP, 30))

	_, ok := bank.Smoothed(domain.FlowOut)
	assert.False(t, ok)
}

func TestSmoothingBankResetToRaw(t *testing.T) {
	bank := NewSmoothingBank(SmoothingConfig{Enabled: true, Alpha: 0.1})
	bank.Update(domain.WOB, 0)
	bank.Update(domain.WOB, 100)

	bank.ResetToRaw()
	sm, _ := bank.Smoothed(domain.WOB)
	assert.Equal(t, 100.0, sm)
}

func TestThresholdDisabledRuleIsSafe(t *testing.T) {
	rule := ThresholdRule{Channel: "torque", UseHigh: true, WarnHigh: 1, DangerHigh: 2, UseLow: true, WarnLow: -1, DangerLow: -2}
	for _, v := range []float64{-1e9, -2, 0, 2, 1e9, math.Inf(1)} {
		assert.Equal(t, domain.Safe, rule.Evaluate(v))
	}
}

func TestThresholdHighZone(t *testing.T) {
	rule := ThresholdRule{Channel: "torque", Enabled: true, UseHigh: true, WarnHigh: 30, DangerHigh: 40}

	assert.Equal(t, domain.Danger, rule.Evaluate(40))
	assert.Equal(t, domain.Danger, rule.Evaluate(1000))
	assert.Equal(t, domain.Warning, rule.Evaluate(30))
	assert.Equal(t, domain.Warning, rule.Evaluate(39.999))
	assert.Equal(t, domain.Safe, rule.Evaluate(30-1e-9))
	assert.Equal(t, domain.Safe, rule.Evaluate(-1000))
}

func TestThresholdLowZoneAndMax(t *testing.T) {
	rule := ThresholdRule{
		Channel: "flowIn", Enabled: true,
		UseLow: true, WarnLow: 400, DangerLow: 200,
		UseHigh: true, WarnHigh: 1000,
	}
	assert.Equal(t, domain.Danger, rule.Evaluate(200))
	assert.Equal(t, domain.Warning, rule.Evaluate(399))
	assert.Equal(t, domain.Safe, rule.Evaluate(700))
	assert.Equal(t, domain.Warning, rule.Evaluate(1000))
}

func TestThresholdZeroBoundIsDisabled(t *testing.T) {
	rule := ThresholdRule{Channel: "rop", Enabled: true, UseLow: true, WarnLow: 0, DangerLow: 0, UseHigh: true, WarnHigh: 0, DangerHigh: 50}

	assert.Equal(t, domain.Safe, rule.Evaluate(0))
	assert.Equal(t, domain.Safe, rule.Evaluate(-10))
	assert.Equal(t, domain.Safe, rule.Evaluate(49))
	assert.Equal(t, domain.Danger, rule.Evaluate(50))
}

func TestThresholdInvertedBoundsStayDeterministic(t *testing.T) {
	rule := ThresholdRule{Channel: "rpm", Enabled: true, UseHigh: true, WarnHigh: 100, DangerHigh: 50}
	assert.Equal(t, domain.Danger, rule.Evaluate(60))
	assert.Equal(t, domain.Danger, rule.Evaluate(150))
	assert.Equal(t, domain.Safe, rule.Evaluate(40))
}

func TestFreshnessLifecycle(t *testing.T) {
	f, err := NewFreshnessTracker(2*time.Second, 5*time.Second)
	require.NoError(t, err)

	assert.True(t, f.IsDisconnected())
	assert.Equal(t, domain.Disconnected, f.State())

	f.Accept()
	assert.False(t, f.IsStale())
	assert.Equal(t, domain.Live, f.State())

	f.Advance(1.5)
	assert.False(t, f.IsStale())
	f.Advance(0.5)
	assert.True(t, f.IsStale())
	assert.False(t, f.IsDisconnected())
	assert.Equal(t, domain.Stale, f.State())

	f.Advance(-10)
	assert.Equal(t, 2.0, f.Elapsed())

	f.Advance(3)
	assert.True(t, f.IsDisconnected())
}

func TestFreshnessRejectsInvertedTimeouts(t *testing.T) {
	_, err := NewFreshnessTracker(5*time.Second, 5*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "freshness.stale_after", cfgErr.Path)

	_, err = NewFreshnessTracker(0, time.Second)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestZoneClassify(t *testing.T) {
	z := DefaultZones()

	assert.Equal(t, domain.ZoneEccaHazard, z.Classify(-1500))
	assert.Equal(t, domain.ZoneEccaHazard, z.Classify(-1400))
	assert.Equal(t, domain.ZoneDoleriteSill, z.Classify(-1300))
	assert.Equal(t, domain.ZoneDoleriteSill, z.Classify(-1375))
	assert.Equal(t, domain.ZoneDoleriteSill, z.Classify(-1225))
	assert.Equal(t, domain.ZoneOK, z.Classify(-1224.9))
	assert.Equal(t, domain.ZoneOK, z.Classify(-1390))
	assert.Equal(t, domain.ZoneOK, z.Classify(-500))
	assert.Equal(t, domain.ZoneOK, z.Classify(0))
}

func TestZoneEccaWinsOnOverlap(t *testing.T) {
	z := ZoneConfig{EccaThreshold: -1300, DoleriteLow: -1375, DoleriteHigh: -1225}

	assert.Equal(t, domain.ZoneEccaHazard, z.Classify(-1300))
	assert.Equal(t, domain.ZoneEccaHazard, z.Classify(-1350))
	assert.Equal(t, domain.ZoneDoleriteSill, z.Classify(-1299))
}
