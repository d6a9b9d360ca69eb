package views

import (
	"strings"

	"uems/internal/core"
)

const lthwConsumptionPath = "/api/lthw/consumption"

var lthwMonths = core.MonthRange("Jan_2022", "Mar_2025")

var lthwBoilers = []string{
	"F622 Psychology wood boiler (IP 10.81.146.160)",
	"F916 College of Education wood boiler (10.81.147.145)",
	"H538 Childcare boiler (IP 10.81.149.14)",
	"H633 Arana Boiler (IP 10.81.148.22)",
	"J122 Carrington Jenkins boiler",
	"XI01 Invercargill Boiler (IP 10.85.4.21)",
}

var lthwColors = []string{"#1f77b4", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2"}

// boilerLabel keeps the name in front of the address in brackets.
func boilerLabel(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// LTHW covers low temperature hot water meters and boilers.
func LTHW() *View {
	table := func(id, tab string, meta ...string) *Table {
		return &Table{
			ID:       id,
			Tab:      tab,
			Title:    "LTHW " + tab,
			Endpoint: "/api/lthw/" + id,
			Columns:  append(meta, lthwMonths...),
			Label:    core.TitleLabel,
			Format:   core.FormatDecimalOnly("misc", "identifier"),
			Dropdown: &Dropdown{Field: "object_name", AllLabel: "All " + tab},
		}
	}

	consumption := table("consumption", "Consumption Values", "object_name", "notes", "comments", "misc")
	consumption.Highlights = []Highlight{{
		Field: "object_name",
		Set:   core.NewHighlightSet(lthwBoilers...),
		Class: ClassHighlight,
	}}

	series := make([]core.Series, len(lthwBoilers))
	for i, b := range lthwBoilers {
		series[i] = core.Series{Key: b, Label: boilerLabel(b), Color: lthwColors[i]}
	}

	return &View{
		ID:    "lthw",
		Label: "LTHW Data",
		Title: "LTHW Data",
		Tables: []*Table{
			consumption,
			table("automated", "Automated Meters", "object_name", "object_description", "company", "identifier", "notes"),
			table("manual", "Manual Meters", "object_name", "meter_location", "company", "identifier", "notes"),
		},
		Charts: []*Chart{{
			ID:      "boilers",
			Tab:     "Consumption Values",
			Title:   "Boiler Consumption",
			Kind:    core.ChartLine,
			Sources: []string{lthwConsumptionPath},
			Build: func(in Inputs) (core.ChartData, error) {
				return core.ByRow(in.Rows[lthwConsumptionPath], "object_name", series, lthwMonths, core.PointOptions{}), nil
			},
		}},
	}
}
