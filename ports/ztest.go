package ports

import (
	"context"
	"io"

	"zhypo/domain/ztest"
)

// HypothesisTester evaluates a one-sample z-test
type HypothesisTester interface {
	Name() string
	Evaluate(input ztest.TestInput) (*ztest.TestResult, error)
}

// ChartRenderer turns a ChartSpec into an encoded image
type ChartRenderer interface {
	RenderPNG(ctx context.Context, spec ztest.ChartSpec) ([]byte, error)
}

// ObservationReader extracts a numeric column from an uploaded file
type ObservationReader interface {
	ReadObservations(ctx context.Context, src io.Reader, filename, column string) (*ztest.Observations, error)
}
