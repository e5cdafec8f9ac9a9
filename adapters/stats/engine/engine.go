package engine

import (
	"math"

	"zhypo/domain/core"
	"zhypo/domain/ztest"
	"zhypo/internal/errors"
	"zhypo/ports"
)

// ZTestEngine evaluates one-sample Z tests. It holds no per-call state and
// is safe for concurrent use.
type ZTestEngine struct {
	strictAlternative bool
}

var _ ports.HypothesisTester = (*ZTestEngine)(nil)

// Option configures a ZTestEngine
type Option func(*ZTestEngine)

// WithStrictAlternative rejects unrecognized alternatives instead of
// evaluating them as right-tailed.
func WithStrictAlternative(strict bool) Option {
	return func(e *ZTestEngine) {
		e.strictAlternative = strict
	}
}

// NewZTestEngine creates a new z-test engine
func NewZTestEngine(opts ...Option) *ZTestEngine {
	e := &ZTestEngine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the test name
func (e *ZTestEngine) Name() string {
	return "one_sample_z"
}

// Evaluate runs the full pipeline. Invalid numeric input aborts with an
// INVALID_INPUT error before any result is built.
func (e *ZTestEngine) Evaluate(in ztest.TestInput) (*ztest.TestResult, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	z, err := ComputeZStatistic(in.SampleMean, in.HypothesizedMean, in.PopulationSD, in.SampleSize)
	if err != nil {
		return nil, err
	}

	criticalValue, err := ComputeCriticalValue(in.SignificanceLevel, in.Alternative)
	if err != nil {
		return nil, err
	}

	ci := ComputeConfidenceInterval(in.SampleMean, in.PopulationSD, in.SampleSize, criticalValue)
	if !isFinite(ci.Lower) || !isFinite(ci.Upper) {
		return nil, errors.InvalidInputCause(core.NewInvalidInputError("population_sd", "is too large for sample_mean, the confidence interval overflows"))
	}

	var pValue *float64
	if in.Approach == ztest.PValueApproach {
		p := ComputePValue(z, in.Alternative)
		pValue = &p
	}
	decision := Decide(pValue, in.SignificanceLevel, in.Approach)

	return &ztest.TestResult{
		ZStatistic:         z,
		CriticalValue:      criticalValue,
		RejectionRegion:    DescribeRejectionRegion(criticalValue, in.Alternative),
		PValue:             pValue,
		Decision:           decision,
		Conclusion:         Conclude(decision),
		ConfidenceInterval: ci,
		ConfidenceLevel:    in.ConfidenceLevel(),
		Chart:              BuildChartSpec(z, criticalValue, in.Alternative),
	}, nil
}

func (e *ZTestEngine) validate(in ztest.TestInput) error {
	if math.IsNaN(in.SampleMean) || math.IsInf(in.SampleMean, 0) {
		return errors.InvalidInputCause(core.NewInvalidInputError("sample_mean", "must be finite"))
	}
	if math.IsNaN(in.HypothesizedMean) || math.IsInf(in.HypothesizedMean, 0) {
		return errors.InvalidInputCause(core.NewInvalidInputError("hypothesized_mean", "must be finite"))
	}
	if !(in.PopulationSD > 0) || math.IsInf(in.PopulationSD, 0) {
		return errors.InvalidInputCause(core.NewInvalidInputError("population_sd", "must be a finite value > 0"))
	}
	if in.SampleSize < 1 {
		return errors.InvalidInputCause(core.NewInvalidInputError("sample_size", "must be >= 1"))
	}
	if !(in.SignificanceLevel > 0 && in.SignificanceLevel < 1) {
		return errors.InvalidInputCause(core.NewInvalidInputError("significance_level", "must lie in (0, 1)"))
	}
	if e.strictAlternative && !in.Alternative.IsKnown() {
		return errors.InvalidInputCause(core.NewInvalidInputError("alternative", "must be two-tailed, left-tailed or right-tailed"))
	}
	return nil
}
