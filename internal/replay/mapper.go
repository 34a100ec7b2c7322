package replay

import (
	"math"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// DepthMapper rescales source depths linearly onto the well datum. The
// shallowest source depth lands on Top and the deepest on Bottom.
type DepthMapper struct {
	SrcMin, SrcMax float64
	Top, Bottom    float64
}

// Map converts one source depth. A degenerate source range maps to Top.
func (m DepthMapper) Map(v float64) float64 {
	if m.SrcMax == m.SrcMin {
		return m.Top
	}
	ratio := (v - m.SrcMin) / (m.SrcMax - m.SrcMin)
	return math.Round((m.Top+ratio*(m.Bottom-m.Top))*1e4) / 1e4
}

func (m DepthMapper) Transform(s domain.Sample) (domain.Sample, error) {
	if d, ok := s.Value(domain.Depth); ok {
		s = s.With(domain.Depth, m.Map(d))
	}
	return s, nil
}

func (DepthMapper) Version() uint16 { return 1 }

var _ ports.Transformer = DepthMapper{}
