package engine

import (
	"fmt"
	"math"
	"strconv"

	"zhypo/domain/core"
	"zhypo/domain/ztest"
	"zhypo/internal/errors"
)

var unitNormal = NewStandardNormal()

const (
	conclusionReject = "There is enough evidence to reject the null hypothesis"
	conclusionRetain = "There is not enough evidence to reject the null hypothesis"
)

// ComputeZStatistic computes (x̄ − μ₀) / (σ / √n)
func ComputeZStatistic(sampleMean, hypothesizedMean, populationSD float64, sampleSize int) (float64, error) {
	if !(populationSD > 0) || math.IsInf(populationSD, 0) {
		return 0, errors.InvalidInputCause(core.NewInvalidInputError("population_sd", "must be a finite value > 0"))
	}
	if sampleSize < 1 {
		return 0, errors.InvalidInputCause(core.NewInvalidInputError("sample_size", "must be >= 1"))
	}
	diff := sampleMean - hypothesizedMean
	if !isFinite(diff) {
		return 0, errors.InvalidInputCause(core.NewInvalidInputError("sample_mean", "minus hypothesized_mean overflows float64"))
	}
	standardError := populationSD / math.Sqrt(float64(sampleSize))
	z := diff / standardError
	if !isFinite(z) {
		return 0, errors.InvalidInputCause(core.NewInvalidInputError("population_sd", "is too small, the z statistic overflows"))
	}
	return z, nil
}

// ComputePValue returns the p-value of z under the given alternative.
// Anything that is not two-tailed or left-tailed is treated as right-tailed.
func ComputePValue(z float64, alt ztest.Alternative) float64 {
	var p float64
	switch alt {
	case ztest.TwoTailed:
		p = 2 * (1 - unitNormal.CDF(math.Abs(z)))
	case ztest.LeftTailed:
		p = unitNormal.CDF(z)
	default:
		p = 1 - unitNormal.CDF(z)
	}
	return clampProbability(p)
}

// ComputeCriticalValue returns Φ⁻¹(1 − α/2) for two-tailed tests and
// Φ⁻¹(1 − α) otherwise. The left-tailed value is returned as a magnitude;
// the sign is applied when describing the rejection region.
func ComputeCriticalValue(alpha float64, alt ztest.Alternative) (float64, error) {
	if !(alpha > 0 && alpha < 1) {
		return 0, errors.InvalidInputCause(core.NewInvalidInputError("significance_level", "must lie in (0, 1)"))
	}
	var cv float64
	if alt == ztest.TwoTailed {
		cv = unitNormal.Quantile(1 - alpha/2)
	} else {
		cv = unitNormal.Quantile(1 - alpha)
	}
	// 1-α rounds to 0 or 1 when α sits too close to either end
	if !isFinite(cv) {
		return 0, errors.InvalidInputCause(core.NewInvalidInputError("significance_level", "is too close to 0 or 1 to resolve a critical value"))
	}
	return cv, nil
}

// DescribeRejectionRegion renders the rejection rule with the numeric boundary
func DescribeRejectionRegion(criticalValue float64, alt ztest.Alternative) string {
	switch alt {
	case ztest.TwoTailed:
		return fmt.Sprintf("Reject Null Hypothesis if Z < %s or Z > %s", formatFloat(-criticalValue), formatFloat(criticalValue))
	case ztest.LeftTailed:
		return fmt.Sprintf("Reject Null Hypothesis if Z < %s", formatFloat(-criticalValue))
	default:
		return fmt.Sprintf("Reject Null Hypothesis if Z > %s", formatFloat(criticalValue))
	}
}

// ComputeConfidenceInterval returns x̄ ± cv·σ/√n. The margin is two-sided
// for every alternative.
func ComputeConfidenceInterval(sampleMean, populationSD float64, sampleSize int, criticalValue float64) ztest.ConfidenceInterval {
	margin := math.Abs(criticalValue * (populationSD / math.Sqrt(float64(sampleSize))))
	return ztest.ConfidenceInterval{
		Lower: sampleMean - margin,
		Upper: sampleMean + margin,
	}
}

// Decide applies the p-value rule. Any other approach, or a missing
// p-value, yields Invalid.
func Decide(pValue *float64, significanceLevel float64, approach ztest.Approach) ztest.Decision {
	if approach != ztest.PValueApproach || pValue == nil {
		return ztest.Invalid
	}
	if *pValue < significanceLevel {
		return ztest.Reject
	}
	return ztest.FailToReject
}

// Conclude turns a decision into the closing sentence of a report
func Conclude(decision ztest.Decision) string {
	if decision == ztest.Reject {
		return conclusionReject
	}
	return conclusionRetain
}

// BuildChartSpec packages the values an external renderer needs
func BuildChartSpec(zStatistic, criticalValue float64, alt ztest.Alternative) ztest.ChartSpec {
	return ztest.ChartSpec{
		ZStatistic:    zStatistic,
		CriticalValue: criticalValue,
		Alternative:   alt,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
