package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StandardNormal provides the N(0,1) functions the z-test relies on
type StandardNormal struct {
	dist distuv.Normal
}

// NewStandardNormal creates a unit normal distribution helper
func NewStandardNormal() *StandardNormal {
	return &StandardNormal{dist: distuv.UnitNormal}
}

// CDF computes Φ(x)
func (sn *StandardNormal) CDF(x float64) float64 {
	return sn.dist.CDF(x)
}

// Quantile computes Φ⁻¹(p). p must lie in [0,1]; distuv panics otherwise.
func (sn *StandardNormal) Quantile(p float64) float64 {
	return sn.dist.Quantile(p)
}

// PDF computes the density at x
func (sn *StandardNormal) PDF(x float64) float64 {
	return sn.dist.Prob(x)
}

// Curve samples the density at n evenly spaced points over [lo, hi]
func (sn *StandardNormal) Curve(lo, hi float64, n int) (xs, ys []float64) {
	if n < 2 || hi <= lo {
		return nil, nil
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*step
		xs[i] = x
		ys[i] = sn.PDF(x)
	}
	return xs, ys
}

func clampProbability(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
