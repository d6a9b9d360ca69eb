package views

import "uems/internal/core"

const (
	aucklandElectricityPath = "/api/auckland/electricity"
	aucklandWaterCalcPath   = "/api/auckland/water-calculated"
	aucklandWaterPath       = "/api/auckland/water"
)

const manukauDental = "XA05 Manukau Dental  - kWh "

var aucklandMonths = append([]string{"Dec_2021"}, core.MonthRange("Jan_2022", "Mar_2025")...)

// Auckland covers the Auckland campus electricity and water meters.
func Auckland() *View {
	label := core.MonthLabel(core.MapLabel(map[string]string{
		"object_name":         "Object Name",
		"object_description":  "Description",
		"meter_location":      "Meter Location",
		"reading_description": "Reading Description",
	}, core.SpaceLabel))

	meta := []string{"object_name", "object_description", "meter_location", "reading_description"}
	columns := append(append([]string{}, meta...), aucklandMonths...)
	waterColumns := append(append([]string{}, meta[:3]...), aucklandMonths...)

	table := func(id, title, endpoint string, cols []string) *Table {
		return &Table{
			ID:       id,
			Title:    title,
			Endpoint: endpoint,
			Columns:  cols,
			Label:    label,
			Format:   core.FormatThreshold,
		}
	}

	water := table("water", "Water Consumption", aucklandWaterPath, waterColumns)
	water.Notes = []string{
		"** (From Desigo CC System2) The values from the monthly report are unreliable. The water meters drop to 0 and back to value",
	}

	return &View{
		ID:    "auckland",
		Label: "Auckland Data",
		Title: "Auckland Campus Data",
		Tables: []*Table{
			table("electricity", "Electricity Consumption", aucklandElectricityPath, columns),
			table("water-calculated", "Water Calculated Consumption", aucklandWaterCalcPath, columns),
			water,
		},
		Charts: []*Chart{{
			ID:      "electricity-trend",
			Title:   "Electricity Consumption Trend",
			Kind:    core.ChartLine,
			Sources: []string{aucklandElectricityPath},
			Build: func(in Inputs) (core.ChartData, error) {
				series := []core.Series{{Key: manukauDental, Label: "XA05 Manukau Dental  - kWh", Color: "#8884d8"}}
				opts := core.PointOptions{Blank: map[string]struct{}{"Apr_2024": {}}}
				cd := core.ByRow(in.Rows[aucklandElectricityPath], "meter_location", series, aucklandMonths, opts)
				return cd.CompactGaps(), nil
			},
		}},
	}
}
