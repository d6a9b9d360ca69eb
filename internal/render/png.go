package render

import (
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"uems/internal/core"
)

// PNG size in pixels.
const (
	PNGWidth  = 1200
	PNGHeight = 500
)

var fallbackColor = drawing.ColorFromHex("4e79a7")

func color(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return fallbackColor
	}
	return drawing.ColorFromHex(hex)
}

// PNG draws the chart with go-chart. Line gaps are bridged and bar charts
// with more than one dataset are drawn as lines.
func PNG(w io.Writer, cd core.ChartData) error {
	if cd.Empty() {
		return ErrEmptyChart
	}
	switch {
	case cd.Kind == core.ChartPie:
		return pngPie(w, cd)
	case cd.Kind == core.ChartBar && len(cd.Datasets) == 1:
		return pngBar(w, cd)
	default:
		return pngLine(w, cd)
	}
}

func pngLine(w io.Writer, cd core.ChartData) error {
	ticks := make([]chart.Tick, len(cd.Labels))
	for i, l := range cd.Labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	var series []chart.Series
	for _, ds := range cd.Datasets {
		var xs, ys []float64
		for i, v := range ds.Values {
			if v != nil {
				xs = append(xs, float64(i))
				ys = append(ys, *v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		// go-chart needs two points to compute a range.
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color(ds.Color),
				StrokeWidth: 2,
			},
		})
	}

	xRange := &chart.ContinuousRange{Min: 0, Max: float64(len(cd.Labels) - 1)}
	if xRange.Max < 1 {
		xRange.Max = 1
	}

	ch := chart.Chart{
		Title:      cd.Title,
		Width:      PNGWidth,
		Height:     PNGHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: xRange,
			Ticks: ticks,
			Style: chart.Style{TextRotationDegrees: 45},
		},
		YAxis:  chart.YAxis{Name: cd.YLabel},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

func pngBar(w io.Writer, cd core.ChartData) error {
	ds := cd.Datasets[0]
	bars := make([]chart.Value, 0, len(ds.Values))
	for i, v := range ds.Values {
		val := 0.0
		if v != nil {
			val = *v
		}
		label := ""
		if i < len(cd.Labels) {
			label = cd.Labels[i]
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: val,
			Style: chart.Style{FillColor: color(ds.Color), StrokeColor: color(ds.Color)},
		})
	}
	bc := chart.BarChart{
		Title:      cd.Title,
		Width:      PNGWidth,
		Height:     PNGHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

func pngPie(w io.Writer, cd core.ChartData) error {
	var values []chart.Value
	for i, v := range cd.Datasets[0].Values {
		if v == nil || *v <= 0 || i >= len(cd.Labels) {
			continue
		}
		c := fallbackColor
		if i < len(cd.SliceColors) {
			c = color(cd.SliceColors[i])
		}
		values = append(values, chart.Value{
			Label: cd.Labels[i],
			Value: *v,
			Style: chart.Style{FillColor: c},
		})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}
	pc := chart.PieChart{
		Title:  cd.Title,
		Width:  PNGHeight,
		Height: PNGHeight,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}
