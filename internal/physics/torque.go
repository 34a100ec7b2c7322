// Package physics holds first-order drillstring models used as baselines for
// anomaly residuals.
package physics

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("physics: invalid input")

// TorqueModel parameterises the friction torque baseline.
type TorqueModel struct {
	Mu      float64 `yaml:"mu"`       // friction coefficient
	RadiusM float64 `yaml:"radius_m"` // effective radius
	FnPerM  float64 `yaml:"fn_per_m"` // distributed normal force, N/m
}

func DefaultTorqueModel() TorqueModel {
	return TorqueModel{Mu: 0.35, RadiusM: 0.1, FnPerM: 3500}
}

func (m TorqueModel) Validate() error {
	switch {
	case m.Mu < 0:
		return fmt.Errorf("%w: mu must be non-negative, got %v", ErrInvalidInput, m.Mu)
	case m.RadiusM <= 0:
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidInput, m.RadiusM)
	case m.FnPerM < 0:
		return fmt.Errorf("%w: fn_per_m must be non-negative, got %v", ErrInvalidInput, m.FnPerM)
	}
	return nil
}

// Baseline returns the expected torque in N·m at measured depth depthM:
// mu * (fn_per_m * depth) * r.
func (m TorqueModel) Baseline(depthM float64) (float64, error) {
	if depthM < 0 {
		return 0, fmt.Errorf("%w: depth must be non-negative, got %v", ErrInvalidInput, depthM)
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m.Mu * m.FnPerM * depthM * m.RadiusM, nil
}
