package profiling

import (
	"fmt"
	"math"

	"zhypo/domain/core"
	"zhypo/domain/ztest"

	"github.com/montanaflynn/stats"
)

// SampleAnalyzer summarises observations before they enter a z-test
type SampleAnalyzer struct{}

// NewSampleAnalyzer creates a new sample analyzer
func NewSampleAnalyzer() *SampleAnalyzer {
	return &SampleAnalyzer{}
}

// Summarize computes the summary statistics of data. Non-finite values are
// dropped; at least one finite value is required.
func (sa *SampleAnalyzer) Summarize(data []float64) (ztest.SampleSummary, error) {
	summary := ztest.SampleSummary{}

	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			summary.Dropped++
			continue
		}
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return summary, fmt.Errorf("%w: no finite observations", core.ErrInsufficientData)
	}
	summary.Size = len(clean)

	mean, err := stats.Mean(clean)
	if err != nil {
		return summary, err
	}
	summary.Mean = mean

	if len(clean) > 1 {
		sd, err := stats.StandardDeviationSample(clean)
		if err != nil {
			return summary, err
		}
		summary.StdDev = sd
	}

	if summary.Min, err = stats.Min(clean); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(clean); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(clean); err != nil {
		return summary, err
	}
	// Quartiles for small samples fall back to the extremes
	if summary.Q25, err = stats.Percentile(clean, 25); err != nil {
		summary.Q25 = summary.Min
	}
	if summary.Q75, err = stats.Percentile(clean, 75); err != nil {
		summary.Q75 = summary.Max
	}

	return summary, nil
}

// SummarizeSample is a convenience wrapper around SampleAnalyzer.Summarize
func SummarizeSample(data []float64) (ztest.SampleSummary, error) {
	return NewSampleAnalyzer().Summarize(data)
}
