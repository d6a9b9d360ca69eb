package views

import "uems/internal/core"

const steamReadingsPath = "/api/steam-mthw/readings"

func group(title string, cols ...core.Column) core.HeaderGroup {
	return core.HeaderGroup{Title: title, Columns: cols}
}

// spanning is a single column group occupying both header rows.
func spanning(title, key string) core.HeaderGroup {
	return core.HeaderGroup{Title: title, Columns: []core.Column{{Key: key}}}
}

func col(key, label string) core.Column {
	return core.Column{Key: key, Label: label}
}

var steamGroups = []core.HeaderGroup{
	spanning("Month", "month"),
	spanning("Year", "year"),
	spanning("MTHW Consumption kWh", "mthw_consumption_kwh"),
	group("Castle 192",
		col("castle_192_reading_kwh", "Reading kWh"),
		col("castle_192_consumption_kwh", "Consumption kWh")),
	group("Med School Line A",
		col("med_school_a_reading_kg", "Reading kg"),
		col("med_school_a_reading_kwh", "Reading kWh"),
		col("med_school_a_consumption_kg", "Consumption kg"),
		col("med_school_a_consumption_kwh", "Consumption kWh")),
	group("Med School Line B",
		col("med_school_b_reading_kg", "Reading kg"),
		col("med_school_b_reading_kwh", "Reading kWh"),
		col("med_school_b_consumption_kg", "Consumption kg"),
		col("med_school_b_consumption_kwh", "Consumption kWh")),
	group("Med School Total",
		col("med_school_consumption_kg", "Consumption kg"),
		col("med_school_consumption_kwh", "Consumption kWh")),
	group("Cumberland",
		col("cumberland_d401_dining_reading_kg", "D401 Reading kg"),
		col("cumberland_d404_castle_reading_kg", "D404 Reading kg"),
		col("cumberland_d401_d404_consumption_kg", "Consumption kg"),
		col("cumberland_d401_d404_consumption_kwh", "Consumption kWh")),
	spanning("Total Steam Consumption kWh", "total_steam_consumption_kwh"),
}

// coerceSteam turns every reading into a number or nil. month, year and id
// are kept as delivered.
func coerceSteam(rows []core.Row) []core.Row {
	out := make([]core.Row, len(rows))
	for i, r := range rows {
		clean := make(core.Row, len(r))
		for k, v := range r {
			switch k {
			case "id", "month", "year":
				clean[k] = v
			default:
				if n, ok := core.Coerce(v); ok {
					clean[k] = n
				} else {
					clean[k] = nil
				}
			}
		}
		out[i] = clean
	}
	return out
}

// SteamMTHW is the combined steam and MTHW readings view.
func SteamMTHW() *View {
	return &View{
		ID:    "steam-mthw",
		Label: "Steam & MTHW Data",
		Title: "Steam and MTHW Data",
		Period: &Period{
			YearField:  "year",
			MonthField: "month",
			AllYears:   "All Years",
			AllMonths:  "All Months",
		},
		Tables: []*Table{{
			ID:       "readings",
			Title:    "Steam and MTHW Data",
			Endpoint: steamReadingsPath,
			Groups:   steamGroups,
			Format:   core.FormatSteam,
			HighlightColumns: []string{
				"castle_192_consumption_kwh",
				"med_school_consumption_kwh",
				"cumberland_d401_d404_consumption_kwh",
				"total_steam_consumption_kwh",
			},
			Prepare: coerceSteam,
		}},
		Charts: []*Chart{{
			ID:      "consumption-trends",
			Title:   "Consumption Trends Over Time (in kWh)",
			Kind:    core.ChartLine,
			YLabel:  "kWh",
			Sources: []string{steamReadingsPath},
			Build: func(in Inputs) (core.ChartData, error) {
				rows := coerceSteam(in.Rows[steamReadingsPath])
				label := func(r core.Row) string { return r.String("month") + " " + r.String("year") }
				series := []core.Series{
					{Key: "mthw_consumption_kwh", Label: "MTHW Consumption", Color: "#8884d8"},
					{Key: "med_school_consumption_kwh", Label: "Med School Consumption", Color: "#82ca9d"},
					{Key: "total_steam_consumption_kwh", Label: "Total Steam Consumption", Color: "#ff7300"},
				}
				return core.ByColumn(rows, label, series, core.PointOptions{ZeroAsGap: true}), nil
			},
		}},
	}
}
