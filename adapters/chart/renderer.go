package chart

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"

	"zhypo/adapters/stats/engine"
	"zhypo/domain/ztest"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // registers the png format
)

const (
	axisLimit = 4.0
	title     = "Z-Test Graph"
)

var (
	curveColor     = color.RGBA{B: 255, A: 255}
	rejectionColor = color.NRGBA{R: 255, A: 128}
	markerColor    = color.RGBA{G: 128, A: 255}
)

// RenderConfig controls image size and curve resolution
type RenderConfig struct {
	WidthInches  float64
	HeightInches float64
	Samples      int
}

// DefaultRenderConfig matches a 640x480 figure at 100 dpi
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{WidthInches: 6.4, HeightInches: 4.8, Samples: 1000}
}

// Renderer draws the standard normal curve with the rejection region shaded
// and a dashed marker at the test statistic
type Renderer struct {
	config RenderConfig
	normal *engine.StandardNormal
}

// NewRenderer creates a PNG chart renderer
func NewRenderer(config RenderConfig) *Renderer {
	def := DefaultRenderConfig()
	if config.WidthInches <= 0 {
		config.WidthInches = def.WidthInches
	}
	if config.HeightInches <= 0 {
		config.HeightInches = def.HeightInches
	}
	if config.Samples < 2 {
		config.Samples = def.Samples
	}
	return &Renderer{config: config, normal: engine.NewStandardNormal()}
}

// RenderPNG renders spec as a PNG image
func (r *Renderer) RenderPNG(ctx context.Context, spec ztest.ChartSpec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if math.IsNaN(spec.ZStatistic) || math.IsNaN(spec.CriticalValue) {
		return nil, fmt.Errorf("chart spec contains NaN values")
	}

	p, err := r.buildPlot(spec)
	if err != nil {
		return nil, err
	}

	w := vg.Length(r.config.WidthInches) * vg.Inch
	h := vg.Length(r.config.HeightInches) * vg.Inch
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) buildPlot(spec ztest.ChartSpec) (*plot.Plot, error) {
	xs, ys := r.normal.Curve(-axisLimit, axisLimit, r.config.Samples)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Z"
	p.Y.Label.Text = "Density"
	p.Legend.Top = true

	for _, segment := range rejectionSegments(xs, ys, spec) {
		poly, err := plotter.NewPolygon(segment)
		if err != nil {
			return nil, fmt.Errorf("failed to build rejection region: %w", err)
		}
		poly.Color = rejectionColor
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	curvePts := make(plotter.XYs, len(xs))
	for i := range xs {
		curvePts[i].X = xs[i]
		curvePts[i].Y = ys[i]
	}
	curve, err := plotter.NewLine(curvePts)
	if err != nil {
		return nil, fmt.Errorf("failed to build density curve: %w", err)
	}
	curve.LineStyle.Color = curveColor
	curve.LineStyle.Width = vg.Points(1.5)
	p.Add(curve)
	p.Legend.Add("Normal Distribution", curve)

	// The marker is pinned to the visible range so extreme statistics stay
	// on the chart; the legend carries the exact value.
	markerX := math.Max(-axisLimit, math.Min(axisLimit, spec.ZStatistic))
	peak := r.normal.PDF(0)
	marker, err := plotter.NewLine(plotter.XYs{{X: markerX, Y: 0}, {X: markerX, Y: peak * 1.05}})
	if err != nil {
		return nil, fmt.Errorf("failed to build statistic marker: %w", err)
	}
	marker.LineStyle.Color = markerColor
	marker.LineStyle.Width = vg.Points(1.5)
	marker.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf("Z-statistic = %.2f", spec.ZStatistic), marker)

	p.X.Min, p.X.Max = -axisLimit, axisLimit
	p.Y.Min = 0
	return p, nil
}

// rejectionSegments returns one closed outline per contiguous run of
// samples inside the rejection region
func rejectionSegments(xs, ys []float64, spec ztest.ChartSpec) []plotter.XYs {
	var segments []plotter.XYs
	var current plotter.XYs

	flush := func() {
		if len(current) >= 2 {
			first, last := current[0].X, current[len(current)-1].X
			outline := make(plotter.XYs, 0, len(current)+2)
			outline = append(outline, plotter.XY{X: first, Y: 0})
			outline = append(outline, current...)
			outline = append(outline, plotter.XY{X: last, Y: 0})
			segments = append(segments, outline)
		}
		current = nil
	}

	for i, x := range xs {
		if spec.InRejectionRegion(x) {
			current = append(current, plotter.XY{X: x, Y: ys[i]})
			continue
		}
		flush()
	}
	flush()
	return segments
}
