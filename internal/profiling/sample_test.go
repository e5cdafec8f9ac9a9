package profiling

import (
	"errors"
	"math"
	"testing"

	"zhypo/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSample(t *testing.T) {
	summary, err := SummarizeSample([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)

	assert.Equal(t, 8, summary.Size)
	assert.InDelta(t, 5.0, summary.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), summary.StdDev, 1e-12)
	assert.Equal(t, 2.0, summary.Min)
	assert.Equal(t, 9.0, summary.Max)
	assert.InDelta(t, 4.5, summary.Median, 1e-12)
	assert.Zero(t, summary.Dropped)
}

func TestSummarizeSample_DropsNonFinite(t *testing.T) {
	summary, err := SummarizeSample([]float64{1, math.NaN(), 3, math.Inf(1)})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Size)
	assert.Equal(t, 2, summary.Dropped)
	assert.InDelta(t, 2.0, summary.Mean, 1e-12)
}

func TestSummarizeSample_SingleObservation(t *testing.T) {
	summary, err := SummarizeSample([]float64{42})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Size)
	assert.Equal(t, 42.0, summary.Mean)
	assert.Zero(t, summary.StdDev)
}

func TestSummarizeSample_Empty(t *testing.T) {
	_, err := SummarizeSample(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = SummarizeSample([]float64{math.NaN()})
	assert.True(t, core.IsInvalidInput(err))
}
