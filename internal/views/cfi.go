package views

import (
	"strings"

	"uems/internal/core"
)

var cfiBoldLocations = core.NewHighlightSet(
	"Centre for Innovation main meters total (without Castle St houses)",
	"CfI-DB-2W",
	"CfI-DB-1W",
	"CfI-DB-GW",
	"CfI-DB-2E",
	"CfI-DB-1E",
	"CfI-DB-GE",
)

var cfiMetaColumns = []string{
	"building_code", "location", "meter_type", "meter_number",
	"digit_to_read", "multipier_ct_rating", "remark", "mod",
}

// cfiReadings runs R1_Dec_2021 through R1_Jan_2023, then plain month keys
// from Jan_2023.
var cfiReadings = append(
	core.Prefixed("R1_", core.MonthRange("Dec_2021", "Jan_2023")),
	core.MonthRange("Jan_2023", "Mar_2025")...,
)

// cfiLabel capitalises the metadata columns and lowercases the rest of
// each word. Reading columns keep their raw keys.
func cfiLabel(key string) string {
	for _, m := range cfiMetaColumns {
		if m == key {
			words := strings.Split(key, "_")
			for i, w := range words {
				words[i] = core.TitleLabel(strings.ToLower(w))
			}
			return strings.Join(words, " ")
		}
	}
	return key
}

// CFI covers the Centre for Innovation meters and rooms.
func CFI() *View {
	return &View{
		ID:    "cfi",
		Label: "CFI",
		Title: "Centre for Innovation",
		Tables: []*Table{
			{
				ID:       "meter",
				Tab:      "Meter Readings",
				Title:    "Center for Innovation Meter Readings",
				Endpoint: "/api/cfi/meter",
				Columns:  append(append([]string{}, cfiMetaColumns...), cfiReadings...),
				Label:    cfiLabel,
				Format:   core.FormatClampedTrimmed,
				Search:   &Search{Fields: []string{"location"}, Placeholder: "Search by location..."},
				Highlights: []Highlight{{
					Field:    "location",
					Set:      cfiBoldLocations,
					Class:    ClassBold,
					CellOnly: true,
				}},
			},
			{
				ID:       "rooms",
				Tab:      "Room Types",
				Title:    "CFI Room Types",
				Endpoint: "/api/cfi/rooms",
				Columns:  []string{"room_number", "area_m2", "type", "suite"},
				Label:    core.TitleLabel,
				Format:   func(_ string, v any) string { return core.Text(v) },
				Search: &Search{
					Fields:      []string{"room_number", "type", "suite"},
					Placeholder: "Search room types...",
				},
			},
		},
	}
}
