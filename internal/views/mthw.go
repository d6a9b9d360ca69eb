package views

import (
	"strings"

	"uems/internal/core"
)

const mthwConsumptionPath = "/api/mthw/consumption"

var mthwMonths = core.MonthRange("Nov_2021", "Mar_2025")

var mthwHighlights = core.NewHighlightSet(
	"St Margaret's MTHW",
	"G404, Microbiology",
	"G405, Science 3",
	"F505, Richardson Total",
	"G413, Science 2 total",
	"F419, ISB",
	"E201 Dental Steam Total",
	"F402, Union",
	"F518, Arts Building",
	"G401 Mellor Lab total",
).Trimmed()

// The consumption rows carry trailing spaces on some names; the chart
// matches them exactly as delivered.
var mthwChartMeters = []string{
	"St Margaret's MTHW ",
	"G404, Microbiology ",
	"G405, Science 3 ",
	"F505, Richardson Total",
	"G413, Science 2 total",
	"F419, ISB ",
	"E201 Dental Steam Total",
	"F402, Union",
	"F518, Arts Building ",
	"G401 Mellor Lab total",
}

var mthwColors = []string{
	"#1f77b4", "#2ca02c", "#d62728", "#9467bd", "#8c564b",
	"#e377c2", "#ff7f0e", "#17becf", "#bcbd22",
}

// MTHW covers medium temperature hot water meters.
func MTHW() *View {
	table := func(id, tab string, meta ...string) *Table {
		return &Table{
			ID:       id,
			Tab:      tab,
			Title:    tab,
			Endpoint: "/api/mthw/" + id,
			Columns:  append(meta, mthwMonths...),
			Label:    core.SpaceLabel,
			Format:   core.FormatClampedFixed,
			Search:   &Search{Fields: []string{"meter_location"}, Placeholder: "Search by meter location..."},
			Highlights: []Highlight{{
				Field: "meter_location",
				Set:   mthwHighlights,
				Class: ClassHighlight,
			}},
		}
	}

	series := make([]core.Series, len(mthwChartMeters))
	for i, m := range mthwChartMeters {
		series[i] = core.Series{Key: m, Label: strings.TrimSpace(m), Color: mthwColors[i%len(mthwColors)]}
	}

	return &View{
		ID:    "mthw",
		Label: "MTHW",
		Title: "MTHW Data",
		Tables: []*Table{
			table("meter", "MTHW Meter Reading", "meter_location", "multiplier_for_unit"),
			table("consumption", "MTHW Consumption", "meter_location", "misc1", "misc2", "multiplier_for_unit"),
		},
		Charts: []*Chart{{
			ID:      "consumption",
			Tab:     "MTHW Consumption",
			Title:   "MTHW Consumption",
			Kind:    core.ChartLine,
			YLabel:  "Consumption",
			Sources: []string{mthwConsumptionPath},
			Build: func(in Inputs) (core.ChartData, error) {
				rows := in.Rows[mthwConsumptionPath]
				present := make(map[string]struct{}, len(rows))
				for _, r := range rows {
					present[r.String("meter_location")] = struct{}{}
				}
				var found []core.Series
				for _, s := range series {
					if _, ok := present[s.Key]; ok {
						found = append(found, s)
					}
				}
				return core.ByRow(rows, "meter_location", found, mthwMonths, core.PointOptions{ZeroFill: true}), nil
			},
		}},
	}
}
