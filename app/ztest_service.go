package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"zhypo/domain/core"
	"zhypo/domain/ztest"
	"zhypo/internal"
	"zhypo/internal/errors"
	"zhypo/internal/metrics"
	"zhypo/internal/profiling"
	"zhypo/ports"
)

const (
	zFormula        = "Z = (Sample Mean - Population Mean) / (Population Std Dev / √Sample Size)"
	intervalFormula = "Confidence Interval = Sample Mean ± (Critical Value * (Population Std Dev / √Sample Size))"
)

// ZTestService evaluates one request end to end: engine, chart and the
// narrative report shown to the user
type ZTestService struct {
	tester   ports.HypothesisTester
	renderer ports.ChartRenderer
	reader   ports.ObservationReader
	analyzer *profiling.SampleAnalyzer
	metrics  *metrics.Collector
	logger   *internal.Logger
}

// ServiceOption configures optional collaborators
type ServiceOption func(*ZTestService)

// WithChartRenderer enables chart rendering
func WithChartRenderer(renderer ports.ChartRenderer) ServiceOption {
	return func(s *ZTestService) { s.renderer = renderer }
}

// WithObservationReader enables file uploads
func WithObservationReader(reader ports.ObservationReader) ServiceOption {
	return func(s *ZTestService) { s.reader = reader }
}

// WithMetrics records evaluation metrics
func WithMetrics(collector *metrics.Collector) ServiceOption {
	return func(s *ZTestService) { s.metrics = collector }
}

// WithLogger overrides the default logger
func WithLogger(logger *internal.Logger) ServiceOption {
	return func(s *ZTestService) { s.logger = logger }
}

// NewZTestService creates the z-test application service
func NewZTestService(tester ports.HypothesisTester, opts ...ServiceOption) *ZTestService {
	s := &ZTestService{
		tester:   tester,
		analyzer: profiling.NewSampleAnalyzer(),
		logger:   internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs the test for already summarised sample statistics
func (s *ZTestService) Evaluate(ctx context.Context, input ztest.TestInput) (*ztest.Report, error) {
	reportID := core.NewReportID()

	result, err := s.tester.Evaluate(input)
	if err != nil {
		s.metrics.RecordEvaluationError(errors.GetCode(err))
		s.logger.Warn("[ZTestService] report %s rejected: %v", reportID, err)
		return nil, err
	}
	s.metrics.RecordEvaluation(string(input.Alternative), string(input.Approach), string(result.Decision))
	s.logger.Debug("[ZTestService] report %s: z=%.4f cv=%.4f decision=%s", reportID, result.ZStatistic, result.CriticalValue, result.Decision)

	report := buildReport(reportID, input, result)
	report.GraphImage = s.renderChart(ctx, reportID, result.Chart)
	return report, nil
}

// EvaluateObservations derives the sample mean and size from raw
// observations, then evaluates. The remaining fields of base are used as-is.
func (s *ZTestService) EvaluateObservations(ctx context.Context, base ztest.TestInput, observations []float64) (*ztest.Report, error) {
	summary, err := s.analyzer.Summarize(observations)
	if err != nil {
		s.metrics.RecordEvaluationError(errors.CodeInvalidInput)
		return nil, errors.InvalidInputCause(err)
	}

	base.SampleMean = summary.Mean
	base.SampleSize = summary.Size

	report, err := s.Evaluate(ctx, base)
	if err != nil {
		return nil, err
	}
	report.Sample = &summary
	return report, nil
}

// EvaluateUpload reads observations from an uploaded file and evaluates them
func (s *ZTestService) EvaluateUpload(ctx context.Context, base ztest.TestInput, src io.Reader, filename, column string) (*ztest.Report, error) {
	if s.reader == nil {
		return nil, errors.InternalError("file uploads are not configured")
	}

	obs, err := s.reader.ReadObservations(ctx, src, filename, column)
	if err != nil {
		if core.IsInvalidInput(err) {
			s.metrics.RecordEvaluationError(errors.CodeInvalidInput)
			return nil, errors.InvalidInputCause(err)
		}
		return nil, errors.Wrapf(err, "failed to read %s", filename)
	}

	report, err := s.EvaluateObservations(ctx, base, obs.Values)
	if err != nil {
		return nil, err
	}
	report.Observations = obs
	return report, nil
}

// renderChart returns the base64 PNG, or "" when rendering is disabled or
// fails; the chart never blocks the numeric result
func (s *ZTestService) renderChart(ctx context.Context, reportID core.ReportID, spec ztest.ChartSpec) string {
	if s.renderer == nil {
		return ""
	}

	start := time.Now()
	img, err := s.renderer.RenderPNG(ctx, spec)
	s.metrics.ObserveChartRender(time.Since(start))
	if err != nil {
		s.logger.Warn("[ZTestService] report %s: %v", reportID, errors.RenderError(err))
		return ""
	}
	return base64.StdEncoding.EncodeToString(img)
}

func buildReport(reportID core.ReportID, in ztest.TestInput, result *ztest.TestResult) *ztest.Report {
	ci := result.ConfidenceInterval

	return &ztest.Report{
		ReportID:    reportID,
		InputHash:   in.Hash(),
		EvaluatedAt: core.Now(),
		TableData: []ztest.TableRow{
			{Parameter: "Sample Mean", Value: in.SampleMean},
			{Parameter: "Population Mean", Value: in.HypothesizedMean},
			{Parameter: "Population Standard Deviation", Value: in.PopulationSD},
			{Parameter: "Sample Size", Value: in.SampleSize},
			{Parameter: "Significance Level (alpha)", Value: in.SignificanceLevel},
			{Parameter: "Alternative Hypothesis", Value: in.Alternative},
			{Parameter: "Approach", Value: in.Approach},
		},
		NullAlternative: fmt.Sprintf("The following null and alternative hypotheses need to be tested: μ = %s, Alternative Hypothesis: μ %s %s",
			num(in.HypothesizedMean), alternativeSymbol(in.Alternative), num(in.HypothesizedMean)),
		TestType:        "Test Type: " + capitalize(string(in.Alternative)),
		RejectionRegion: result.RejectionRegion,
		ZStatisticComputation: ztest.FormulaText{
			Formula: zFormula,
			Computation: fmt.Sprintf("Z = (%s - %s) / (%s / √%d) = %.2f",
				num(in.SampleMean), num(in.HypothesizedMean), num(in.PopulationSD), in.SampleSize, result.ZStatistic),
		},
		Decision: ztest.DecisionText{
			PValue:      result.PValue,
			Decision:    result.Decision.Label(),
			Explanation: explain(result.PValue, in, result.Decision),
		},
		Conclusion: result.Conclusion,
		ConfidenceInterval: ztest.IntervalText{
			Formula: intervalFormula,
			Computation: fmt.Sprintf("Confidence Interval = %s ± (%s * (%s / √%d)) = %.2f to %.2f",
				num(in.SampleMean), num(result.CriticalValue), num(in.PopulationSD), in.SampleSize, ci.Lower, ci.Upper),
			Lower: ci.Lower,
			Upper: ci.Upper,
			Level: result.ConfidenceLevel,
		},
		Result: result,
	}
}

func explain(pValue *float64, in ztest.TestInput, decision ztest.Decision) string {
	if decision == ztest.Invalid {
		return fmt.Sprintf("No decision was made: %v %q. Use %q.", core.ErrUnsupportedApproach, in.Approach, ztest.PValueApproach)
	}
	if pValue == nil {
		return ""
	}
	alpha := in.SignificanceLevel
	comparison, verb := "is greater than", "fail to reject"
	switch {
	case decision == ztest.Reject:
		comparison, verb = "is less than", "reject"
	case *pValue == alpha:
		comparison = "is equal to"
	}
	return fmt.Sprintf("The p-value is %.4f. Since the p-value %s the significance level, we %s the null hypothesis.", *pValue, comparison, verb)
}

// Unrecognized alternatives are evaluated right-tailed, so they read as ">".
func alternativeSymbol(alt ztest.Alternative) string {
	switch alt {
	case ztest.TwoTailed:
		return "≠"
	case ztest.LeftTailed:
		return "<"
	default:
		return ">"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
