package views

import (
	"sort"
	"strconv"
	"strings"

	"uems/internal/core"
)

const (
	energyPath = "/api/energy-total/dashboard"

	energyDataTab       = "Energy Data"
	energyAnalyticsTab  = "Energy Analytics"
	energyComparisonTab = "Energy Year-wise Comparison"

	energyTotalKey = "total_kwh"
	shareSuffix    = "_share"
)

type energyCarrier struct {
	key   string
	label string
	// pie labels differ between the analytics and comparison tabs
	analyticsName  string
	comparisonName string

	trendColor      string
	analyticsColor  string
	comparisonColor string
}

var energyCarriers = []energyCarrier{
	{"total_stream_dn_electricity_kwh", "Total Stream DN Electricity (kWh)", "Electricity", "Electricity", "#8884d8", "#1a237e", "#1a73e8"},
	{"mthw_kwh", "MTHW (kWh)", "MTHW", "Mthw", "#82ca9d", "#2e7d32", "#34a853"},
	{"steam_kwh", "Steam (kWh)", "Steam", "Steam", "#ffc658", "#c62828", "#ea4335"},
	{"lpg_kwh", "LPG (kWh)", "LPG", "Lpg", "#ff7300", "#6a1b9a", "#fbbc04"},
	{"woodchip_pellet_kwh", "Woodchip/Pellet (kWh)", "Woodchip", "Woodchip", "#00C49F", "#4a148c", "#9334e8"},
	{"solar_kwh", "Solar (kWh)", "Solar", "Solar", "#FFBB28", "#ef6c00", "#ff6d01"},
}

// Only these carriers decide whether a month has any data.
var energyActiveKeys = []string{"total_stream_dn_electricity_kwh", "mthw_kwh", "steam_kwh", "lpg_kwh"}

var energyPieYears = []int{2022, 2023, 2024}

func energyLabels() map[string]string {
	labels := map[string]string{
		"month":        "Month",
		"year":         "Year",
		energyTotalKey: "Total (kWh)",
	}
	for _, c := range energyCarriers {
		labels[c.key] = c.label
		labels[c.key+shareSuffix] = strings.TrimSuffix(c.label, " (kWh)") + " (%)"
	}
	return labels
}

func energyColumns(lead string, withTotal bool, suffix string) []string {
	cols := []string{lead}
	if lead == "month" {
		cols = append(cols, "year")
	}
	for _, c := range energyCarriers {
		cols = append(cols, c.key+suffix)
	}
	if withTotal {
		cols = append(cols, energyTotalKey)
	}
	return cols
}

// activeEnergyRows drops months where none of the main carriers reported.
func activeEnergyRows(rows []core.Row) []core.Row {
	return core.Filter(rows, func(r core.Row) bool {
		for _, k := range energyActiveKeys {
			if n, ok := core.Coerce(r[k]); ok && n > 0 {
				return true
			}
		}
		return false
	})
}

func energyYear(r core.Row) int {
	y, ok := core.Coerce(r["year"])
	if !ok {
		return 0
	}
	return int(y)
}

// energyRowClass banding alternates within each year colour.
func energyRowClass(i int, r core.Row) string {
	class := "year-" + strconv.Itoa(energyYear(r))
	if i%2 == 1 {
		class += " alt"
	}
	return class
}

// YearTotals sums every carrier per year, in ascending year order. Each row
// carries the year, one kWh total per carrier, their sum under total_kwh
// and each carrier's share of that sum in percent.
func YearTotals(rows []core.Row) []core.Row {
	sums := make(map[int]map[string]float64)
	for _, r := range rows {
		y := energyYear(r)
		if y == 0 {
			continue
		}
		if sums[y] == nil {
			sums[y] = make(map[string]float64)
		}
		for _, c := range energyCarriers {
			if n, ok := core.Coerce(r[c.key]); ok {
				sums[y][c.key] += n
			}
		}
	}
	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]core.Row, 0, len(years))
	for _, y := range years {
		row := core.Row{"year": strconv.Itoa(y)}
		var total float64
		for _, c := range energyCarriers {
			row[c.key] = sums[y][c.key]
			total += sums[y][c.key]
		}
		row[energyTotalKey] = total
		for _, c := range energyCarriers {
			share := 0.0
			if total > 0 {
				share = sums[y][c.key] / total * 100
			}
			row[c.key+shareSuffix] = share
		}
		out = append(out, row)
	}
	return out
}

func formatShare(col string, v any) string {
	if !strings.HasSuffix(col, shareSuffix) {
		return core.FormatRoundedGrouped(col, v)
	}
	n, ok := core.Number(v)
	if !ok {
		return core.Dash
	}
	return core.FormatPercent(n)
}

func energyMonthLabel(r core.Row) string {
	return r.String("month") + "-" + r.String("year")
}

func energySeries(color func(energyCarrier) string) []core.Series {
	series := make([]core.Series, len(energyCarriers))
	for i, c := range energyCarriers {
		series[i] = core.Series{Key: c.key, Label: c.analyticsName, Color: color(c)}
	}
	return series
}

func buildEnergyTrend(in Inputs) (core.ChartData, error) {
	rows := core.Filter(activeEnergyRows(in.Rows[energyPath]), func(r core.Row) bool {
		_, ok := core.Coerce(r[energyTotalKey])
		return ok
	})
	series := energySeries(func(c energyCarrier) string { return c.trendColor })
	series[0].Label = "Electricity"
	series[4].Label = "Woodchip/Pellet"
	series = append(series, core.Series{Key: energyTotalKey, Label: "Total", Color: "#FF8042"})
	return core.ByColumn(rows, energyMonthLabel, series, core.PointOptions{ZeroFill: true}), nil
}

func buildEnergyAnalytics(in Inputs) (core.ChartData, error) {
	series := energySeries(func(c energyCarrier) string { return c.analyticsColor })
	series = append(series, core.Series{Key: energyTotalKey, Label: "Total", Color: "#b71c1c"})
	rows := activeEnergyRows(in.Rows[energyPath])
	return core.ByColumn(rows, energyMonthLabel, series, core.PointOptions{ZeroFill: true}), nil
}

// buildEnergyShare sums each carrier over the pie years.
func buildEnergyShare(in Inputs) (core.ChartData, error) {
	values := make([]float64, len(energyCarriers))
	for _, r := range activeEnergyRows(in.Rows[energyPath]) {
		y := energyYear(r)
		if y < energyPieYears[0] || y > energyPieYears[len(energyPieYears)-1] {
			continue
		}
		for i, c := range energyCarriers {
			if n, ok := core.Coerce(r[c.key]); ok {
				values[i] += n
			}
		}
	}
	labels := make([]string, len(energyCarriers))
	colors := make([]string, len(energyCarriers))
	for i, c := range energyCarriers {
		labels[i], colors[i] = c.analyticsName, c.analyticsColor
	}
	return core.Pie(labels, values, colors), nil
}

func buildYearComparison(in Inputs) (core.ChartData, error) {
	totals := YearTotals(activeEnergyRows(in.Rows[energyPath]))
	series := make([]core.Series, len(energyCarriers))
	for i, c := range energyCarriers {
		series[i] = core.Series{Key: c.key, Label: c.comparisonName, Color: c.comparisonColor}
	}
	return core.ByColumn(totals, func(r core.Row) string { return r.String("year") }, series, core.PointOptions{}), nil
}

func yearDistribution(year int) func(Inputs) (core.ChartData, error) {
	return func(in Inputs) (core.ChartData, error) {
		labels := make([]string, len(energyCarriers))
		colors := make([]string, len(energyCarriers))
		values := make([]float64, len(energyCarriers))
		for i, c := range energyCarriers {
			labels[i], colors[i] = c.comparisonName, c.comparisonColor
		}
		for _, r := range YearTotals(activeEnergyRows(in.Rows[energyPath])) {
			if r.String("year") != strconv.Itoa(year) {
				continue
			}
			for i, c := range energyCarriers {
				values[i], _ = core.Number(r[c.key+shareSuffix])
			}
		}
		return core.Pie(labels, values, colors), nil
	}
}

// EnergyTotal summarises every energy carrier per month.
func EnergyTotal() *View {
	labels := core.MapLabel(energyLabels(), core.SpaceLabel)
	v := &View{
		ID:    "energy-total",
		Label: "Energy Total",
		Title: "Energy Total Dashboard",
		Period: &Period{
			YearField:   "year",
			MonthField:  "month",
			Ascending:   true,
			AllYears:    "All Years",
			AllMonths:   "All Months",
			ShortMonths: true,
		},
		Tables: []*Table{
			{
				ID:       "monthly",
				Tab:      energyDataTab,
				Title:    "Monthly Energy Consumption",
				Endpoint: energyPath,
				Columns:  energyColumns("month", true, ""),
				Label:    labels,
				Format:   core.FormatRoundedGrouped,
				RowClass: energyRowClass,
				Prepare:  activeEnergyRows,
			},
			{
				ID:           "yearly",
				Tab:          energyComparisonTab,
				Title:        "Yearly Energy Totals",
				Endpoint:     energyPath,
				Columns:      energyColumns("year", true, ""),
				Label:        labels,
				Format:       core.FormatRoundedGrouped,
				Prepare:      func(rows []core.Row) []core.Row { return YearTotals(activeEnergyRows(rows)) },
				IgnorePeriod: true,
			},
			{
				ID:           "shares",
				Tab:          energyComparisonTab,
				Title:        "Yearly Energy Share",
				Endpoint:     energyPath,
				Columns:      energyColumns("year", false, shareSuffix),
				Label:        labels,
				Format:       formatShare,
				Prepare:      func(rows []core.Row) []core.Row { return YearTotals(activeEnergyRows(rows)) },
				IgnorePeriod: true,
			},
		},
		Charts: []*Chart{
			{
				ID:      "trend",
				Tab:     energyDataTab,
				Title:   "Energy Consumption Trend",
				Kind:    core.ChartLine,
				YLabel:  "Energy (kWh)",
				Sources: []string{energyPath},
				Build:   buildEnergyTrend,
			},
			{
				ID:           "analytics",
				Tab:          energyAnalyticsTab,
				Title:        "Energy Consumption Analytics",
				Kind:         core.ChartLine,
				YLabel:       "Energy (kWh)",
				Sources:      []string{energyPath},
				IgnorePeriod: true,
				Build:        buildEnergyAnalytics,
			},
			{
				ID:           "share",
				Tab:          energyAnalyticsTab,
				Title:        "Energy Source Distribution (2022-2024)",
				Kind:         core.ChartPie,
				Sources:      []string{energyPath},
				IgnorePeriod: true,
				Build:        buildEnergyShare,
			},
			{
				ID:           "year-comparison",
				Tab:          energyComparisonTab,
				Title:        "Year-wise Energy Comparison",
				Kind:         core.ChartLine,
				YLabel:       "Energy (kWh)",
				Sources:      []string{energyPath},
				IgnorePeriod: true,
				Build:        buildYearComparison,
			},
		},
	}
	for _, y := range energyPieYears {
		v.Charts = append(v.Charts, &Chart{
			ID:           "distribution-" + strconv.Itoa(y),
			Tab:          energyComparisonTab,
			Title:        strconv.Itoa(y) + " Energy Distribution",
			Kind:         core.ChartPie,
			Sources:      []string{energyPath},
			IgnorePeriod: true,
			Build:        yearDistribution(y),
		})
	}
	return v
}
