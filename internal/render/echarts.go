// Package render draws chart data as go-echarts snippets and go-chart PNGs.
package render

import (
	"errors"
	"html/template"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"

	"uems/internal/core"
)

// ErrEmptyChart is returned when a chart has no point to draw.
var ErrEmptyChart = errors.New("chart has no data")

const (
	snippetWidth  = "100%"
	snippetHeight = "400px"
)

func boolPtr(b bool) *bool { return &b }

// ElementID is the DOM id of a chart container.
func ElementID(view, chart string) string {
	return "chart-" + view + "-" + chart
}

type snippetRenderer interface {
	RenderSnippet() render.ChartSnippet
}

// Snippet renders the chart as an HTML element plus its init script.
func Snippet(elementID string, cd core.ChartData) template.HTML {
	var r snippetRenderer
	switch cd.Kind {
	case core.ChartPie:
		r = pieChart(elementID, cd)
	case core.ChartBar:
		r = barChart(elementID, cd)
	default:
		r = lineChart(elementID, cd)
	}
	s := r.RenderSnippet()
	return template.HTML(s.Element + "\n" + s.Script)
}

func globalOptions(elementID string, cd core.ChartData) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: elementID,
			Width:   snippetWidth,
			Height:  snippetHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: cd.Title}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Top: "bottom"}),
	}
}

func axisOptions(cd core.ChartData) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: cd.YLabel}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithGridOpts(opts.Grid{
			ContainLabel: boolPtr(true),
			Left:         "3%",
			Right:        "4%",
			Bottom:       "15%",
		}),
	}
}

// pointValue keeps gaps as JSON null so echarts breaks the line.
func pointValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func lineChart(elementID string, cd core.ChartData) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(globalOptions(elementID, cd), axisOptions(cd)...)...)
	line.SetXAxis(cd.Labels)
	for _, ds := range cd.Datasets {
		data := make([]opts.LineData, len(ds.Values))
		for i, v := range ds.Values {
			data[i] = opts.LineData{Value: pointValue(v)}
		}
		line.AddSeries(ds.Label, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ds.Color}),
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: boolPtr(false)}))
	}
	return line
}

func barChart(elementID string, cd core.ChartData) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(elementID, cd), axisOptions(cd)...)...)
	bar.SetXAxis(cd.Labels)
	for _, ds := range cd.Datasets {
		data := make([]opts.BarData, len(ds.Values))
		for i, v := range ds.Values {
			data[i] = opts.BarData{Value: pointValue(v)}
		}
		bar.AddSeries(ds.Label, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: ds.Color}))
	}
	return bar
}

func pieChart(elementID string, cd core.ChartData) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(append(globalOptions(elementID, cd),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "item"}))...)

	var data []opts.PieData
	if len(cd.Datasets) > 0 {
		for i, v := range cd.Datasets[0].Values {
			if v == nil || i >= len(cd.Labels) {
				continue
			}
			d := opts.PieData{Name: cd.Labels[i], Value: *v}
			if i < len(cd.SliceColors) && cd.SliceColors[i] != "" {
				d.ItemStyle = &opts.ItemStyle{Color: cd.SliceColors[i]}
			}
			data = append(data, d)
		}
	}
	pie.AddSeries(strings.TrimSpace(cd.Title), data,
		charts.WithLabelOpts(opts.Label{Show: boolPtr(true), Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: "60%"}))
	return pie
}
