package views

import "uems/internal/core"

const (
	gasAutomatedPath   = "/api/gas/automated"
	gasManualPath      = "/api/gas/manual"
	gasConsumptionPath = "/api/gas/consumption"
	gasAnalysisPath    = "/api/gas/analysis"
)

var (
	gasMonths      = core.MonthRange("Jan_2022", "Dec_2025")
	gasChartMonths = core.MonthRange("Jan_2022", "Mar_2025")
	gasColors      = []string{"#1f77b4", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}
)

const (
	gasTotalDN       = " Total Gas Energy - DN"
	gasTotalColleges = "Total Gas Energy - Colleges"
)

var gasAutomatedHighlights = core.NewHighlightSet(
	"G608,ST MARGARET'S COLLEGE,333 LEITH",
	"G601,UNIVERSITY COLLEGE (KITCHEN),315 LEITH",
	"ARANA 110 CLYDE STREET,DUNEDIN",
	"ECCLES GREAT KING STREET,UNIVERSITY OF",
	"AQUINAS 74 GLADSTONE ROAD,DUNEDIN",
	"K427,CFC EAST ABBEY COLLEGE,682 CASTLE STREET,DUNEDIN",
	"G412,SCIENCE 2 BOILER HOUSE,72 UNION PLACE",
)

var gasConsumptionHighlights = core.NewHighlightSet(gasTotalDN, gasTotalColleges)

// Gas covers automated and manual gas meters plus the precomputed analysis.
func Gas() *View {
	table := func(id, tab, endpoint string, meta ...string) *Table {
		return &Table{
			ID:       id,
			Tab:      tab,
			Title:    tab,
			Endpoint: endpoint,
			Columns:  append(meta, gasMonths...),
			Label:    core.SpaceLabel,
			Format:   core.FormatTrimmed,
		}
	}

	automated := table("automated", "Automated Meters", gasAutomatedPath, "meter_description", "icp")
	automated.Search = &Search{Fields: []string{"meter_description"}, Placeholder: "Search automated meters..."}
	automated.Highlights = []Highlight{{Field: "meter_description", Set: gasAutomatedHighlights, Class: ClassHighlight}}

	manual := table("manual", "Manual Meters", gasManualPath, "meter_description", "misc1", "misc2")
	manual.Search = &Search{Fields: []string{"meter_description"}, Placeholder: "Search manual meters..."}

	consumption := table("consumption", "Consumption Data", gasConsumptionPath, "object_description", "misc")
	consumption.Search = &Search{Fields: []string{"object_description"}, Placeholder: "Search consumption data..."}
	consumption.Highlights = []Highlight{{Field: "object_description", Set: gasConsumptionHighlights, Class: ClassHighlight}}

	return &View{
		ID:     "gas",
		Label:  "Gas Data",
		Title:  "Gas Data",
		Tables: []*Table{automated, manual, consumption},
		Charts: []*Chart{
			{
				ID:      "colleges",
				Tab:     "Automated Meters",
				Title:   "Gas Consumption Breakdown - Colleges",
				Kind:    core.ChartLine,
				Sources: []string{gasAutomatedPath},
				Build:   buildGasColleges,
			},
			{
				ID:      "dn-colleges",
				Tab:     "Consumption Data",
				Title:   "Gas Consumption Break down - DN vs Colleges",
				Kind:    core.ChartLine,
				Sources: []string{gasAutomatedPath, gasConsumptionPath},
				Build:   buildGasDNColleges,
			},
			{
				ID:        "cluster-patterns",
				Tab:       gasAnalysisTab,
				Title:     "Consumption Patterns by Cluster",
				Kind:      core.ChartLine,
				YLabel:    "Consumption",
				Documents: []string{gasAnalysisPath},
				Build:     buildClusterPatterns,
			},
			{
				ID:        "college-comparison",
				Tab:       gasAnalysisTab,
				Title:     "College Gas Consumption Analysis",
				Kind:      core.ChartBar,
				YLabel:    "Consumption",
				Documents: []string{gasAnalysisPath},
				Build:     buildCollegeComparison,
			},
		},
		Analysis: &Analysis{
			Tab:      gasAnalysisTab,
			Title:    "Gas Consumption Analysis - Automated Meter",
			Endpoint: gasAnalysisPath,
		},
	}
}

func buildGasColleges(in Inputs) (core.ChartData, error) {
	names := []struct{ key, label string }{
		{"G601,UNIVERSITY COLLEGE (KITCHEN),315 LEITH", "University College"},
		{"K427,CFC EAST ABBEY COLLEGE,682 CASTLE STREET,DUNEDIN", "Caroline Freeman College East"},
		{"G608,ST MARGARET'S COLLEGE,333 LEITH", "St Margaret's College"},
		{"ARANA 110 CLYDE STREET,DUNEDIN", "Arana"},
		{"AQUINAS 74 GLADSTONE ROAD,DUNEDIN", "Aquinas"},
	}
	series := make([]core.Series, len(names))
	for i, n := range names {
		series[i] = core.Series{Key: n.key, Label: n.label, Color: gasColors[i]}
	}
	return core.ByRow(in.Rows[gasAutomatedPath], "meter_description", series, gasChartMonths, core.PointOptions{}), nil
}

// buildGasDNColleges draws each series from the table that holds it and
// merges them onto one month axis.
func buildGasDNColleges(in Inputs) (core.ChartData, error) {
	parts := []struct {
		source, field string
		series        core.Series
	}{
		{gasAutomatedPath, "meter_description", core.Series{Key: "F940 PLAZA BUILDING,132 ANZAC AVENUE,FORSYTH", Label: "Plaza"}},
		{gasAutomatedPath, "meter_description", core.Series{Key: "G412,SCIENCE 2 BOILER HOUSE,72 UNION PLACE", Label: "Science 2 Boiler"}},
		{gasAutomatedPath, "meter_description", core.Series{Key: "ECCLES GREAT KING STREET,UNIVERSITY OF", Label: "Eccles"}},
		{gasConsumptionPath, "object_description", core.Series{Key: gasTotalDN, Label: "Total DN Gas Consumption"}},
		{gasConsumptionPath, "object_description", core.Series{Key: gasTotalColleges, Label: "Total Colleges Gas Consumption"}},
	}
	var out core.ChartData
	for i, p := range parts {
		s := p.series
		s.Color = gasColors[i]
		s.Source = p.source
		cd := core.ByRow(in.Rows[p.source], p.field, []core.Series{s}, gasChartMonths, core.PointOptions{})
		if i == 0 {
			out = cd
			continue
		}
		out.Datasets = append(out.Datasets, cd.Datasets...)
	}
	return out, nil
}
