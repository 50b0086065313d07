// Package chart provides a time-series chart that exports itself as PNG.
//
// [TimeSeries] implements [capture.Exporter], so charts take the native
// capture path. Rendering is done with go-chart.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/matzehuels/stackreport/pkg/capture"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

// Line is one plotted series.
type Line struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// TimeSeries is a line chart of one or more series sharing a time axis.
type TimeSeries struct {
	Title  string
	Unit   string
	Lines  []Line
	Width  int
	Height int
}

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorGreen,
	gochart.ColorOrange,
	gochart.ColorRed,
	gochart.ColorAlternateGray,
}

// Export renders the chart. It fails when no line has a point.
func (c *TimeSeries) Export(ctx context.Context) (capture.ExportedImage, error) {
	w, h := c.size()

	var series []gochart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, l := range c.Lines {
		n := min(len(l.Times), len(l.Values))
		if n == 0 {
			continue
		}
		st := gochart.Style{
			StrokeColor: palette[i%len(palette)],
			StrokeWidth: 2,
		}
		xs, ys := l.Times[:n], l.Values[:n]
		for _, v := range ys {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if n == 1 {
			// go-chart needs two X values to compute a range.
			xs = []time.Time{xs[0], xs[0].Add(time.Second)}
			ys = []float64{ys[0], ys[0]}
			st.DotWidth = 6
			st.DotColor = st.StrokeColor
		}
		series = append(series, gochart.TimeSeries{Name: l.Name, XValues: xs, YValues: ys, Style: st})
	}
	if len(series) == 0 {
		return capture.ExportedImage{}, fmt.Errorf("chart %q has no points", c.Title)
	}
	if err := ctx.Err(); err != nil {
		return capture.ExportedImage{}, err
	}

	ch := gochart.Chart{
		Title:      c.Title,
		Width:      w,
		Height:     h,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 12, Bottom: 12}},
		XAxis: gochart.XAxis{
			Name:           "Time",
			ValueFormatter: gochart.TimeValueFormatterWithFormat("01-02 15:04"),
		},
		YAxis:  gochart.YAxis{Name: c.Unit},
		Series: series,
	}
	if lo == hi {
		// A flat line has a zero value range, which go-chart rejects.
		ch.YAxis.Range = &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return capture.ExportedImage{}, fmt.Errorf("render chart %q: %w", c.Title, err)
	}
	return capture.ExportedImage{Data: buf.Bytes(), Width: w, Height: h}, nil
}

func (c *TimeSeries) size() (int, int) {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

var _ capture.Exporter = (*TimeSeries)(nil)
