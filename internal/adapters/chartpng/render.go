// Package chartpng renders DPS charts to PNG images.
package chartpng

import (
	"fmt"
	"io"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/dpsmeter/internal/domain/bucket"
	"github.com/okian/dpsmeter/internal/domain/window"
	"github.com/okian/dpsmeter/pkg/metrics"
)

// Renderer draws bucket charts.
type Renderer struct {
	width  int
	height int
	title  string
}

// New creates a Renderer with a 1024x400 default canvas.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 1024, height: 400}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes c as a PNG to w. A non-nil rng is drawn as a shaded band.
func (r *Renderer) Render(w io.Writer, c bucket.Chart, rng *window.Range) error {
	if c.Empty() || c.Count() == 0 {
		return ErrEmptyChart
	}
	start := time.Now()
	defer func() {
		metrics.RecordChartRenderDuration(float64(time.Since(start).Microseconds()) / 1000)
	}()

	interval := float64(c.IntervalSeconds)
	xs := make([]float64, c.Count())
	for i := range xs {
		xs[i] = float64(i) * interval
	}
	// A single bucket has no x extent; the axis is widened to one interval.
	xMax := xs[len(xs)-1]
	if xMax <= 0 {
		xMax = interval
	}

	yMax := 0.0
	series := make([]chart.Series, 0, len(c.Series)+1)
	for _, s := range c.Series {
		for _, v := range s.Data {
			if v > yMax {
				yMax = v
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: s.Data,
			Style: chart.Style{
				StrokeColor: color(s.Color),
				StrokeWidth: float64(s.BorderWidth),
				DotWidth:    float64(s.PointRadius),
			},
		})
	}
	if yMax <= 0 {
		yMax = 1
	}
	if band, ok := rangeBand(rng, xMax, yMax); ok {
		series = append(series, band)
	}

	ch := chart.Chart{
		Title:      r.title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "seconds",
			Range:          &chart.ContinuousRange{Min: 0, Max: xMax},
			ValueFormatter: secondsLabel,
		},
		YAxis: chart.YAxis{
			Name:  "DPS",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax * 1.05},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		metrics.RecordErrorByComponent("chartpng", "render")
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// rangeBand returns a filled series covering the committed range.
func rangeBand(rng *window.Range, xMax, yMax float64) (chart.Series, bool) {
	if rng == nil {
		return nil, false
	}
	lo, hi := clamp(rng.Start, 0, xMax), clamp(rng.End, 0, xMax)
	if hi <= lo {
		return nil, false
	}
	return chart.ContinuousSeries{
		Name:    "selection",
		XValues: []float64{lo, lo, hi, hi},
		YValues: []float64{0, yMax, yMax, 0},
		Style: chart.Style{
			StrokeWidth: 0,
			FillColor:   drawing.ColorFromHex("2196f3").WithAlpha(40),
		},
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func color(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if hex == "" {
		return chart.ColorBlue
	}
	return drawing.ColorFromHex(hex)
}

func secondsLabel(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0fs", f)
	}
	return ""
}
