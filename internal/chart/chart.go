// Package chart renders report figures to PNG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Kind selects the figure type of a Spec.
type Kind string

const (
	Histogram Kind = "histogram"
	Line      Kind = "line"
	Scatter   Kind = "scatter"
)

// Spec is a renderer-independent description of one figure.
type Spec struct {
	Kind   Kind           `json:"kind"`
	Title  string         `json:"title"`
	XLabel string         `json:"x_label"`
	YLabel string         `json:"y_label"`
	Bins   []analysis.Bin `json:"bins,omitempty"`
	Times  []time.Time    `json:"times,omitempty"`
	X      []float64      `json:"x,omitempty"`
	Y      []float64      `json:"y,omitempty"`
}

// Default canvas size.
const (
	Width  = 960
	Height = 540
)

var (
	skyBlue   = drawing.Color{R: 135, G: 206, B: 235, A: 255}
	lineBlue  = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	dotBlue   = drawing.Color{R: 31, G: 119, B: 180, A: 128}
	edgeBlack = drawing.ColorBlack
)

// ErrNoData is returned for a spec with nothing to draw.
var ErrNoData = errors.New("chart has no data")

// RenderPNG renders s at the default size.
func RenderPNG(s Spec) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, s, Width, Height); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes s as a PNG of the given size to w.
func Render(w io.Writer, s Spec, width, height int) error {
	var ch gochart.Chart
	var err error
	switch s.Kind {
	case Histogram:
		ch, err = histogram(s)
	case Line:
		ch, err = line(s)
	case Scatter:
		ch, err = scatter(s)
	default:
		return fmt.Errorf("render chart: unknown kind %q", s.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", s.Kind, err)
	}
	ch.Title = s.Title
	ch.Width = width
	ch.Height = height
	ch.Background = gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", s.Kind, err)
	}
	return nil
}

// histogram draws bins as a filled step outline.
func histogram(s Spec) (gochart.Chart, error) {
	if len(s.Bins) == 0 {
		return gochart.Chart{}, ErrNoData
	}
	xs := make([]float64, 0, 2*len(s.Bins)+2)
	ys := make([]float64, 0, 2*len(s.Bins)+2)
	top := 0
	xs = append(xs, s.Bins[0].Lo)
	ys = append(ys, 0)
	for _, b := range s.Bins {
		xs = append(xs, b.Lo, b.Hi)
		ys = append(ys, float64(b.Count), float64(b.Count))
		if b.Count > top {
			top = b.Count
		}
	}
	xs = append(xs, s.Bins[len(s.Bins)-1].Hi)
	ys = append(ys, 0)
	if top == 0 {
		top = 1
	}
	return gochart.Chart{
		XAxis: gochart.XAxis{Name: s.XLabel, Range: &gochart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]}},
		YAxis: gochart.YAxis{Name: s.YLabel, Range: &gochart.ContinuousRange{Min: 0, Max: float64(top) * 1.1}},
		Series: []gochart.Series{gochart.ContinuousSeries{
			Name:    s.Title,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: edgeBlack,
				StrokeWidth: 1,
				FillColor:   skyBlue,
			},
		}},
	}, nil
}

// line draws a time series with point markers and date ticks.
func line(s Spec) (gochart.Chart, error) {
	if len(s.Times) == 0 || len(s.Times) != len(s.Y) {
		return gochart.Chart{}, ErrNoData
	}
	times, ys := s.Times, s.Y
	minT, maxT := times[0], times[len(times)-1]
	if len(times) == 1 {
		// go-chart cannot range a single point.
		minT, maxT = minT.Add(-12*time.Hour), maxT.Add(12*time.Hour)
	}
	lo, hi := padded(ys)
	return gochart.Chart{
		XAxis: gochart.XAxis{
			Name:           s.XLabel,
			ValueFormatter: gochart.TimeValueFormatterWithFormat("2006-01-02"),
			Range:          &gochart.ContinuousRange{Min: gochart.TimeToFloat64(minT), Max: gochart.TimeToFloat64(maxT)},
		},
		YAxis: gochart.YAxis{Name: s.YLabel, Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Series: []gochart.Series{gochart.TimeSeries{
			Name:    s.Title,
			XValues: times,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: lineBlue,
				StrokeWidth: 2,
				DotColor:    lineBlue,
				DotWidth:    3,
			},
		}},
	}, nil
}

// scatter draws unconnected semi-transparent points.
func scatter(s Spec) (gochart.Chart, error) {
	if len(s.X) == 0 || len(s.X) != len(s.Y) {
		return gochart.Chart{}, ErrNoData
	}
	xlo, xhi := padded(s.X)
	ylo, yhi := padded(s.Y)
	return gochart.Chart{
		XAxis: gochart.XAxis{Name: s.XLabel, Range: &gochart.ContinuousRange{Min: xlo, Max: xhi}},
		YAxis: gochart.YAxis{Name: s.YLabel, Range: &gochart.ContinuousRange{Min: ylo, Max: yhi}},
		Series: []gochart.Series{gochart.ContinuousSeries{
			Name:    s.Title,
			XValues: s.X,
			YValues: s.Y,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    3,
				DotColor:    dotBlue,
			},
		}},
	}, nil
}

// padded returns a non-degenerate axis range covering vs.
func padded(vs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
