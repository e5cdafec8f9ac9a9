package ztest

import (
	"strings"

	"zhypo/domain/core"
)

// Alternative is the shape of the alternative hypothesis
type Alternative string

const (
	TwoTailed   Alternative = "two-tailed"
	LeftTailed  Alternative = "left-tailed"
	RightTailed Alternative = "right-tailed"
)

// Normalize maps underscore spellings (two_tailed) onto the canonical
// hyphenated values. Unknown values are returned unchanged.
func (a Alternative) Normalize() Alternative {
	return Alternative(strings.ReplaceAll(strings.TrimSpace(string(a)), "_", "-"))
}

// IsKnown reports whether a is one of the three recognized alternatives
func (a Alternative) IsKnown() bool {
	switch a {
	case TwoTailed, LeftTailed, RightTailed:
		return true
	}
	return false
}

// Approach selects the decision rule
type Approach string

const (
	PValueApproach        Approach = "p-value"
	CriticalValueApproach Approach = "critical-value"
)

// Normalize maps p_value / critical_value onto the hyphenated forms
func (a Approach) Normalize() Approach {
	return Approach(strings.ReplaceAll(strings.TrimSpace(string(a)), "_", "-"))
}

// Decision is the outcome of the decision rule
type Decision string

const (
	Reject       Decision = "Reject"
	FailToReject Decision = "FailToReject"
	// Invalid is produced for any approach other than p-value.
	Invalid Decision = "Invalid"
)

// Label returns the human-readable wording shown to end users
func (d Decision) Label() string {
	switch d {
	case Reject:
		return "Reject Null Hypothesis"
	case FailToReject:
		return "Fail to Reject Null Hypothesis"
	default:
		return "Invalid approach"
	}
}

// TestInput carries the sample statistics and test configuration
type TestInput struct {
	SampleMean        float64     `json:"sample_mean"`
	HypothesizedMean  float64     `json:"hypothesized_mean"`
	PopulationSD      float64     `json:"population_sd"`
	SampleSize        int         `json:"sample_size"`
	SignificanceLevel float64     `json:"significance_level"`
	Alternative       Alternative `json:"alternative"`
	Approach          Approach    `json:"approach"`
}

// ConfidenceLevel is 1 - alpha
func (in TestInput) ConfidenceLevel() float64 {
	return 1 - in.SignificanceLevel
}

// Hash fingerprints the parameters so repeated requests can be correlated
func (in TestInput) Hash() core.InputHash {
	return core.ComputeInputHash(map[string]interface{}{
		"sample_mean":        in.SampleMean,
		"hypothesized_mean":  in.HypothesizedMean,
		"population_sd":      in.PopulationSD,
		"sample_size":        in.SampleSize,
		"significance_level": in.SignificanceLevel,
		"alternative":        in.Alternative,
		"approach":           in.Approach,
	})
}

// ConfidenceInterval is a closed interval around the sample mean.
// Lower <= Upper always holds.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns Upper - Lower
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// TestResult is the outcome of one evaluation.
// PValue is nil when the approach is unsupported.
type TestResult struct {
	ZStatistic         float64            `json:"z_statistic"`
	CriticalValue      float64            `json:"critical_value"`
	RejectionRegion    string             `json:"rejection_region"`
	PValue             *float64           `json:"p_value"`
	Decision           Decision           `json:"decision"`
	Conclusion         string             `json:"conclusion"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	ConfidenceLevel    float64            `json:"confidence_level"`
	Chart              ChartSpec          `json:"chart"`
}

// HasPValue reports whether a p-value was computed
func (r *TestResult) HasPValue() bool {
	return r.PValue != nil
}

// ChartSpec holds what an external renderer needs to draw the normal curve,
// the shaded rejection region and the marker at the statistic.
type ChartSpec struct {
	ZStatistic    float64     `json:"z_statistic"`
	CriticalValue float64     `json:"critical_value"`
	Alternative   Alternative `json:"alternative"`
}

// InRejectionRegion reports whether x falls in the shaded area. Unknown
// alternatives shade the right tail.
func (c ChartSpec) InRejectionRegion(x float64) bool {
	switch c.Alternative {
	case TwoTailed:
		return x < -c.CriticalValue || x > c.CriticalValue
	case LeftTailed:
		return x < -c.CriticalValue
	default:
		return x > c.CriticalValue
	}
}

// Observations is one numeric column read from an uploaded file
type Observations struct {
	Source  string    `json:"source"`
	Column  string    `json:"column"`
	Values  []float64 `json:"-"`
	Skipped int       `json:"skipped"` // non-empty cells that were not numeric
}

// SampleSummary describes raw observations that were reduced to a sample mean
type SampleSummary struct {
	Size    int     `json:"size"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"` // sample standard deviation (n-1)
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
	Q25     float64 `json:"q25"`
	Q75     float64 `json:"q75"`
	Dropped int     `json:"dropped"` // NaN/Inf values ignored
}
