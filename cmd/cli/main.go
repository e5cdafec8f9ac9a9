package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"zhypo/adapters/chart"
	"zhypo/adapters/excel"
	"zhypo/adapters/stats/engine"
	"zhypo/app"
	"zhypo/domain/ztest"
	"zhypo/internal"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zhypo-cli",
		Short: "One-sample Z-test from the command line",
	}

	rootCmd.AddCommand(newEvaluateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type evaluateOptions struct {
	input            ztest.TestInput
	alternative      string
	approach         string
	strict           bool
	observationsFile string
	column           string
	pngPath          string
	asJSON           bool
	logLevel         string
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run a one-sample Z-test and print the report",
		Long: `Run a one-sample Z-test from summary statistics, or from one column
of a .csv/.xlsx file when --observations-file is given.

Example: zhypo-cli evaluate --sample-mean 105 --mu0 100 --sigma 15 --n 36 --alpha 0.05 --alternative two-tailed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input.Alternative = ztest.Alternative(opts.alternative).Normalize()
			opts.input.Approach = ztest.Approach(opts.approach).Normalize()
			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Float64Var(&opts.input.SampleMean, "sample-mean", 0, "Sample mean x̄")
	cmd.Flags().Float64Var(&opts.input.HypothesizedMean, "mu0", 0, "Hypothesized population mean μ0")
	cmd.Flags().Float64Var(&opts.input.PopulationSD, "sigma", 0, "Known population standard deviation σ")
	cmd.Flags().IntVar(&opts.input.SampleSize, "n", 0, "Sample size")
	cmd.Flags().Float64Var(&opts.input.SignificanceLevel, "alpha", 0.05, "Significance level")
	cmd.Flags().StringVar(&opts.alternative, "alternative", string(ztest.TwoTailed), "two-tailed, left-tailed or right-tailed")
	cmd.Flags().StringVar(&opts.approach, "approach", string(ztest.PValueApproach), "Decision approach")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject unknown alternatives instead of treating them as right-tailed")
	cmd.Flags().StringVar(&opts.observationsFile, "observations-file", "", "CSV or XLSX file with raw observations")
	cmd.Flags().StringVar(&opts.column, "column", "", "Column to read from --observations-file (first column when empty)")
	cmd.Flags().StringVar(&opts.pngPath, "png", "", "Write the chart to this PNG file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full report as JSON")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "WARN", "Log level")

	return cmd
}

func runEvaluate(ctx context.Context, out io.Writer, opts *evaluateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := internal.NewLogger(internal.ParseLogLevel(opts.logLevel))
	defer logger.Sync()

	service := app.NewZTestService(
		engine.NewZTestEngine(engine.WithStrictAlternative(opts.strict)),
		app.WithLogger(logger),
		app.WithObservationReader(excel.NewDataReader(excel.DefaultExcelConfig(), logger)),
	)

	var (
		report *ztest.Report
		err    error
	)
	if opts.observationsFile != "" {
		f, openErr := os.Open(opts.observationsFile)
		if openErr != nil {
			return fmt.Errorf("failed to open observations file: %w", openErr)
		}
		defer f.Close()
		report, err = service.EvaluateUpload(ctx, opts.input, f, filepath.Base(opts.observationsFile), opts.column)
	} else {
		report, err = service.Evaluate(ctx, opts.input)
	}
	if err != nil {
		return err
	}

	if opts.pngPath != "" {
		img, err := chart.NewRenderer(chart.DefaultRenderConfig()).RenderPNG(ctx, report.Result.Chart)
		if err != nil {
			return fmt.Errorf("failed to render chart: %w", err)
		}
		if err := os.WriteFile(opts.pngPath, img, 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report)
	return nil
}

func printReport(out io.Writer, report *ztest.Report) {
	fmt.Fprintf(out, "Z-TEST REPORT %s\n", report.ReportID)
	for _, row := range report.TableData {
		fmt.Fprintf(out, "  %-28s %v\n", row.Parameter, row.Value)
	}
	if report.Sample != nil {
		fmt.Fprintf(out, "  %-28s n=%d sd=%.4f median=%.4f\n", "Sample", report.Sample.Size, report.Sample.StdDev, report.Sample.Median)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.NullAlternative)
	fmt.Fprintln(out, report.TestType)
	fmt.Fprintln(out, report.RejectionRegion)
	fmt.Fprintln(out, report.ZStatisticComputation.Computation)
	if report.Decision.PValue != nil {
		fmt.Fprintf(out, "p-value: %.4f\n", *report.Decision.PValue)
	}
	fmt.Fprintf(out, "Decision: %s\n", report.Decision.Decision)
	if report.Decision.Explanation != "" {
		fmt.Fprintln(out, report.Decision.Explanation)
	}
	fmt.Fprintf(out, "Conclusion: %s\n", report.Conclusion)
	fmt.Fprintln(out, report.ConfidenceInterval.Computation)
}
