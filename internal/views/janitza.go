package views

import "uems/internal/core"

var janitzaColumns = append([]string{"meter_location"}, core.MonthRange("Jan_2022", "Mar_2025")...)

// Janitza lists the six Janitza power meter groups.
func Janitza() *View {
	table := func(id, name, allName string) *Table {
		return &Table{
			ID:       id,
			Tab:      name,
			Title:    name,
			Endpoint: "/api/janitza/" + id,
			Columns:  janitzaColumns,
			Label:    core.SpaceLabel,
			Format:   core.FormatThreshold,
			Dropdown: &Dropdown{
				Field:    "meter_location",
				AllLabel: "All " + allName + " Meter Locations",
			},
		}
	}
	return &View{
		ID:    "janitza",
		Label: "Janitza Data",
		Title: "Janitza Data",
		Tables: []*Table{
			table("med", "MED Meters", "MED"),
			table("freezer", "Freezer", "Freezer"),
			table("uod4f6", "UoD4F6", "UoD4F6"),
			table("uof8x", "UoF8X", "UoF8X"),
			table("manual", "Manual Meters", "Manual"),
			table("calculated", "Calculated", "Calculated"),
		},
	}
}
