package anomaly

import (
	"math"

	"github.com/NkanyeziNgobese/ares-1/internal/physics"
)

// TorqueConfig configures the torque residual detector.
type TorqueConfig struct {
	Enabled    bool                `yaml:"enabled"`
	Model      physics.TorqueModel `yaml:"model"`
	ZThreshold float64             `yaml:"z_threshold"`
	Window     int                 `yaml:"window"`
	MinSamples int                 `yaml:"min_samples"`
}

func DefaultTorqueConfig() TorqueConfig {
	return TorqueConfig{
		Enabled:    true,
		Model:      physics.DefaultTorqueModel(),
		ZThreshold: 3,
		Window:     60,
		MinSamples: 30,
	}
}

// TorqueAnomaly is a torque reading whose residual against the friction
// baseline stands out from recent residuals.
type TorqueAnomaly struct {
	DepthM     float64
	TorqueNm   float64
	BaselineNm float64
	ResidualNm float64
	Score      Score
}

// TorqueDetector scores torque against the physics baseline.
type TorqueDetector struct {
	cfg    TorqueConfig
	scorer *RollingZScore
}

func NewTorqueDetector(cfg TorqueConfig) (*TorqueDetector, error) {
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	scorer, err := NewRollingZScore(cfg.Window, cfg.MinSamples, cfg.ZThreshold)
	if err != nil {
		return nil, err
	}
	return &TorqueDetector{cfg: cfg, scorer: scorer}, nil
}

func (d *TorqueDetector) Config() TorqueConfig { return d.cfg }

// Update feeds one depth/torque pair. Depth is measured below the datum, so
// signed depths are folded to their magnitude before the baseline is taken.
func (d *TorqueDetector) Update(depth, torque float64) (TorqueAnomaly, bool) {
	depthM := math.Abs(depth)
	baseline, err := d.cfg.Model.Baseline(depthM)
	if err != nil {
		return TorqueAnomaly{}, false
	}
	residual := torque - baseline
	score, ok := d.scorer.Update(residual)
	if !ok {
		return TorqueAnomaly{}, false
	}
	return TorqueAnomaly{
		DepthM:     depthM,
		TorqueNm:   torque,
		BaselineNm: baseline,
		ResidualNm: residual,
		Score:      score,
	}, true
}
