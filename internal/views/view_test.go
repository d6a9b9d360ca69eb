package views

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uems/internal/core"
	"uems/internal/source"
)

func cellTexts(m TableModel) [][]string {
	out := make([][]string, len(m.Rows))
	for i, r := range m.Rows {
		for _, c := range r.Cells {
			out[i] = append(out[i], c.Text)
		}
	}
	return out
}

func TestRenderDropdownFilter(t *testing.T) {
	v := Janitza()
	tbl, err := v.Table("med")
	require.NoError(t, err)

	rows := []core.Row{
		{"id": 1.0, "meter_location": "Lab A", "Jan_2022": 99.99, "Feb_2022": 100.0},
		{"id": 2.0, "meter_location": "Lab B", "Jan_2022": 12345.6, "Feb_2022": nil},
		{"id": 3.0, "meter_location": "Lab A", "Jan_2022": "", "Feb_2022": 1.5},
	}

	m := v.Render(tbl, rows, Query{})
	require.Len(t, m.Columns, 3)
	assert.Equal(t, "meter location", m.Columns[0].Label)
	assert.Equal(t, "Jan 2022", m.Columns[1].Label)
	assert.Equal(t, [][]string{
		{"Lab A", "99.99", "100"},
		{"Lab B", "12,346", "-"},
		{"Lab A", "-", "1.5"},
	}, cellTexts(m))

	require.NotNil(t, m.Dropdown)
	assert.Equal(t, "All MED Meter Locations", m.Dropdown.AllLabel)
	require.Len(t, m.Dropdown.Options, 2)
	assert.Equal(t, "Lab A", m.Dropdown.Options[0].Value)

	m = v.Render(tbl, rows, Query{Filter: "Lab B"})
	require.Len(t, m.Rows, 1)
	assert.Equal(t, "Lab B", m.Rows[0].Cells[0].Text)
	assert.True(t, m.Dropdown.Options[1].Selected)
	assert.Equal(t, 3, m.Total)
}

func TestRenderSearchAndHighlight(t *testing.T) {
	v := MTHW()
	tbl, err := v.Table("meter")
	require.NoError(t, err)

	rows := []core.Row{
		{"meter_location": "St Margaret's MTHW ", "multiplier_for_unit": 1.0, "Nov_2021": 3.14159},
		{"meter_location": "Some Other Meter", "multiplier_for_unit": 1.0, "Nov_2021": -2.0},
	}
	m := v.Render(tbl, rows, Query{})
	require.Len(t, m.Rows, 2)
	assert.Equal(t, ClassHighlight, m.Rows[0].Class)
	assert.Empty(t, m.Rows[1].Class)

	m = v.Render(tbl, rows, Query{Search: "other"})
	require.Len(t, m.Rows, 1)
	assert.Equal(t, "Some Other Meter", m.Rows[0].Cells[0].Text)
	assert.Equal(t, "other", m.Search.Value)

	m = v.Render(tbl, rows, Query{Search: "nothing matches"})
	assert.True(t, m.Empty())
	assert.Len(t, m.Columns, 3)
}

func TestRenderCellOnlyHighlight(t *testing.T) {
	v := CFI()
	tbl, err := v.Table("meter")
	require.NoError(t, err)

	rows := []core.Row{
		{"building_code": "F8", "location": "CfI-DB-2W", "R1_Dec_2021": 1.0},
		{"building_code": "F8", "location": "Elsewhere", "R1_Dec_2021": 2.0},
	}
	m := v.Render(tbl, rows, Query{})
	require.Len(t, m.Columns, 3)
	assert.Equal(t, "Building Code", m.Columns[0].Label)
	assert.Equal(t, "R1_Dec_2021", m.Columns[2].Label)
	assert.Empty(t, m.Rows[0].Class)
	assert.Equal(t, ClassBold, m.Rows[0].Cells[1].Class)
	assert.Empty(t, m.Rows[0].Cells[0].Class)
	assert.Empty(t, m.Rows[1].Cells[1].Class)
}

func TestRenderGroupedHeaders(t *testing.T) {
	v := StreamElec()
	tbl, err := v.Table("ring-mains")
	require.NoError(t, err)

	rows := []core.Row{
		{"meter_reading_month": "January", "meter_reading_year": 2023.0, "ring_main_1_mp4889_kwh": 10.50, "ring_mains_total_kwh": 30.0},
		{"meter_reading_month": "February", "meter_reading_year": 2024.0, "ring_main_1_mp4889_kwh": 3.0},
	}
	m := v.Render(tbl, rows, Query{})
	require.True(t, m.Grouped())
	assert.Equal(t, "Month", m.Columns[0].Label)
	assert.Equal(t, "Ring Main #1 MP4889 kWh", m.Columns[2].Label)
	assert.Equal(t, "Total kWh", m.Columns[len(m.Columns)-1].Label)
	assert.Len(t, m.Columns, 9)
	assert.Equal(t, "10.5", m.Rows[0].Cells[2].Text)
	assert.Equal(t, "-", m.Rows[1].Cells[8].Text)

	m = v.Render(tbl, rows, Query{Year: 2024})
	require.Len(t, m.Rows, 1)
	assert.Equal(t, "February", m.Rows[0].Cells[0].Text)

	m = v.Render(tbl, rows, Query{Year: 2023, Month: time.February})
	assert.True(t, m.Empty())
}

func TestRenderRowClass(t *testing.T) {
	v := EnergyTotal()
	tbl, err := v.Table("monthly")
	require.NoError(t, err)

	rows := []core.Row{
		{"month": "Jan", "year": 2023.0, "total_stream_dn_electricity_kwh": 1234.5, "total_kwh": 1234.5},
		{"month": "Feb", "year": 2023.0, "total_stream_dn_electricity_kwh": 0.0, "mthw_kwh": nil, "total_kwh": 0.0},
		{"month": "Mar", "year": 2023.0, "steam_kwh": 10.0, "total_kwh": 10.0},
		{"month": "Jan", "year": 2024.0, "lpg_kwh": 5.0, "total_kwh": 5.0},
	}
	m := v.Render(tbl, rows, Query{})
	require.Len(t, m.Rows, 3)
	assert.Equal(t, "year-2023", m.Rows[0].Class)
	assert.Equal(t, "year-2023 alt", m.Rows[1].Class)
	assert.Equal(t, "year-2024", m.Rows[2].Class)
	assert.Equal(t, "Total Stream DN Electricity (kWh)", m.Columns[2].Label)
	assert.Equal(t, "1,235", m.Rows[0].Cells[2].Text)
}

func TestPeriodOptions(t *testing.T) {
	rows := []core.Row{{"year": 2022.0}, {"year": 2024.0}, {"year": 2023.0}}

	pm := EnergyTotal().PeriodOptions(rows, Query{Year: 2023, Month: time.March})
	require.NotNil(t, pm)
	var years []string
	for _, o := range pm.Years {
		years = append(years, o.Value)
	}
	assert.Equal(t, []string{"all", "2022", "2023", "2024"}, years)
	assert.True(t, pm.Years[2].Selected)
	require.Len(t, pm.Months, 13)
	assert.Equal(t, "Mar", pm.Months[3].Label)
	assert.True(t, pm.Months[3].Selected)

	pm = StreamElec().PeriodOptions(nil, Query{})
	assert.Len(t, pm.Years, 7)
	assert.Equal(t, "All Years", pm.Years[0].Label)
	assert.True(t, pm.Years[0].Selected)
	assert.Equal(t, "January", pm.Months[1].Label)

	assert.Nil(t, Gas().PeriodOptions(rows, Query{}))
}

func TestBuildChartAppliesPeriod(t *testing.T) {
	v := SteamMTHW()
	c, err := v.Chart("consumption-trends")
	require.NoError(t, err)

	rows := []core.Row{
		{"month": "January", "year": 2023.0, "mthw_consumption_kwh": 5.0},
		{"month": "February", "year": 2024.0, "mthw_consumption_kwh": 0.0},
	}
	in := Inputs{Rows: map[string][]core.Row{steamReadingsPath: rows}}

	cd, err := v.BuildChart(c, in)
	require.NoError(t, err)
	assert.Equal(t, "consumption-trends", cd.ID)
	assert.Equal(t, c.Title, cd.Title)
	assert.Len(t, cd.Labels, 2)
	assert.Nil(t, cd.Datasets[0].Values[1], "zero plots as a gap")

	in.Query = Query{Year: 2024}
	cd, err = v.BuildChart(c, in)
	require.NoError(t, err)
	assert.Len(t, cd.Labels, 1)
}

func TestBuildChartWrapsErrors(t *testing.T) {
	v := Gas()
	c, err := v.Chart("college-comparison")
	require.NoError(t, err)

	_, err = v.BuildChart(c, Inputs{Docs: map[string][]byte{gasAnalysisPath: []byte("null")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAnalysis))
	assert.Contains(t, err.Error(), "gas/college-comparison")
}

func TestStreamDivisions(t *testing.T) {
	v := StreamElec()
	c, err := v.Chart("divisions")
	require.NoError(t, err)

	in := Inputs{Rows: map[string][]core.Row{
		"/api/stream-elec/ring-mains": {
			{"meter_reading_month": "January", "meter_reading_year": 2023.0, "ring_mains_total_kwh": 100.0},
			{"meter_reading_month": "February", "meter_reading_year": 2023.0, "ring_mains_total_kwh": 90.0},
		},
		"/api/stream-elec/libraries": {
			{"meter_reading_month": "February", "meter_reading_year": 2023.0, "libraries_total_kwh": 12.345},
			{"meter_reading_month": "January", "meter_reading_year": 2023.0, "libraries_total_kwh": "-"},
		},
		"/api/stream-elec/colleges": {
			{"meter_reading_month": "January", "meter_reading_year": 2023.0, "colleges_total_kwh": 0.0},
		},
	}}
	cd, err := v.BuildChart(c, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-January", "2023-February"}, cd.Labels)
	require.Len(t, cd.Datasets, len(streamDivisions))
	assert.Equal(t, 100.0, *cd.Datasets[0].Values[0])
	assert.Nil(t, cd.Datasets[1].Values[0])
	assert.Equal(t, 12.35, *cd.Datasets[1].Values[1])
	assert.Nil(t, cd.Datasets[2].Values[0], "zero totals are gaps")

	pie, err := v.Chart("division-share")
	require.NoError(t, err)
	share, err := v.BuildChart(pie, in)
	require.NoError(t, err)
	assert.Equal(t, core.ChartPie, share.Kind)
	assert.Equal(t, "Ring Mains", share.Labels[0])
	assert.Equal(t, 190.0, *share.Datasets[0].Values[0])
	assert.Equal(t, "#0066cc", share.SliceColors[0])
}

func TestYearTotals(t *testing.T) {
	rows := []core.Row{
		{"year": 2023.0, "total_stream_dn_electricity_kwh": 75.0, "mthw_kwh": 25.0},
		{"year": 2022.0, "steam_kwh": 10.0, "solar_kwh": "n/a"},
		{"year": "2023", "total_stream_dn_electricity_kwh": 0.0},
	}
	totals := YearTotals(rows)
	require.Len(t, totals, 2)
	assert.Equal(t, "2022", totals[0]["year"])
	assert.Equal(t, 10.0, totals[0]["total_kwh"])
	assert.Equal(t, 100.0, totals[0]["steam_kwh_share"])
	assert.Equal(t, 100.0, totals[1]["total_kwh"])
	assert.Equal(t, 75.0, totals[1]["total_stream_dn_electricity_kwh_share"])

	v := EnergyTotal()
	tbl, err := v.Table("shares")
	require.NoError(t, err)
	m := v.Render(tbl, rows, Query{Year: 2022})
	require.Len(t, m.Rows, 2, "yearly tables ignore the period filter")
	assert.Equal(t, "Total Stream DN Electricity (%)", m.Columns[1].Label)
	assert.Equal(t, "75.000%", m.Rows[1].Cells[1].Text)
}

func TestRegistry(t *testing.T) {
	r := Default()
	require.Len(t, r.Views(), 9)
	assert.Equal(t, "auckland", r.First().ID)

	v, err := r.View("gas")
	require.NoError(t, err)
	assert.Equal(t, []string{"Automated Meters", "Manual Meters", "Consumption Data", gasAnalysisTab}, v.Tabs())
	assert.Equal(t, []string{gasAnalysisPath}, v.Documents())

	_, err = r.View("nope")
	assert.ErrorIs(t, err, ErrUnknownView)
	_, err = v.Table("nope")
	assert.ErrorIs(t, err, ErrUnknownTable)
	_, err = v.Chart("nope")
	assert.ErrorIs(t, err, ErrUnknownChart)

	seen := make(map[string]bool)
	for _, p := range r.Endpoints() {
		assert.False(t, seen[p], "duplicate endpoint %s", p)
		seen[p] = true
	}
	assert.True(t, seen["/api/stream-elec/commerce"])
	assert.True(t, seen[energyPath])

	assert.Panics(t, func() { NewRegistry(Gas(), Gas()) })
}

func TestFailureText(t *testing.T) {
	boom := errors.New("upstream returned 502")
	assert.Equal(t, "Failed to fetch data. Please try again later.", StreamElec().Failure(boom))
	assert.Equal(t, "upstream returned 502", Gas().Failure(boom))
}

func TestFailureStripsLoadPrefixes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "api message",
			err: fmt.Errorf("load view gas: %w", fmt.Errorf("load /api/gas/consumption: %w",
				&source.StatusError{Path: "/api/gas/consumption", Status: 500, Message: "database offline"})),
			want: "database offline",
		},
		{
			name: "api status only",
			err:  fmt.Errorf("load view gas: %w", &source.StatusError{Path: "/api/gas/manual", Status: 503}),
			want: "HTTP error! status: 503",
		},
		{
			name: "root cause",
			err:  fmt.Errorf("load view gas: %w", fmt.Errorf("load /api/gas/manual: %w", context.DeadlineExceeded)),
			want: "context deadline exceeded",
		},
		{
			name: "unwrapped",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gas().Failure(tt.err))
		})
	}
	assert.Equal(t, "Failed to fetch data. Please try again later.",
		StreamElec().Failure(&source.StatusError{Status: 500, Message: "database offline"}))
}
