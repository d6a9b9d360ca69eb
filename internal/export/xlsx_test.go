package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"uems/internal/core"
	"uems/internal/views"
)

func flatModel() views.TableModel {
	return views.TableModel{
		View:  "gas",
		ID:    "automated",
		Title: "Automated Gas Meter Readings",
		Columns: []core.Column{
			{Key: "meter_description", Label: "Meter Description"},
			{Key: "Jan_2024", Label: "Jan 2024"},
		},
		Rows: []views.RowModel{
			{Class: views.ClassHighlight, Cells: []views.Cell{{Text: "Arana Hall"}, {Text: "1,200"}}},
			{Cells: []views.Cell{{Text: "Total"}, {Text: "3,400", Class: views.ClassColumnHighlight}}},
		},
	}
}

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, flatModel()))

	f := open(t, &buf)
	assert.Equal(t, []string{"Automated Gas Meter Readings"}, f.GetSheetList())

	rows, err := f.GetRows("Automated Gas Meter Readings")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Meter Description", "Jan 2024"},
		{"Arana Hall", "1,200"},
		{"Total", "3,400"},
	}, rows)

	header, err := f.GetCellStyle("Automated Gas Meter Readings", "A1")
	require.NoError(t, err)
	body, err := f.GetCellStyle("Automated Gas Meter Readings", "A2")
	require.NoError(t, err)
	plain, err := f.GetCellStyle("Automated Gas Meter Readings", "A3")
	require.NoError(t, err)
	assert.NotZero(t, header)
	assert.NotZero(t, body)
	assert.Zero(t, plain)
	assert.NotEqual(t, header, body)
}

func TestWriteTableGroupedHeader(t *testing.T) {
	m := views.TableModel{
		ID:    "ring-mains",
		Title: "Ring Mains",
		Groups: []core.HeaderGroup{
			{Title: "Month", Columns: []core.Column{{Key: "meter_reading_month"}}},
			{Title: "Ring Main 1", Columns: []core.Column{{Key: "rm1_kwh", Label: "kWh"}, {Key: "rm1_pf", Label: "PF"}}},
		},
		Columns: []core.Column{
			{Key: "meter_reading_month", Label: "Month"},
			{Key: "rm1_kwh", Label: "Ring Main 1 kWh"},
			{Key: "rm1_pf", Label: "Ring Main 1 PF"},
		},
		Rows: []views.RowModel{{Cells: []views.Cell{{Text: "January"}, {Text: "10.5"}, {Text: "0.98"}}}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, m))

	f := open(t, &buf)
	rows, err := f.GetRows("Ring Mains")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Month", rows[0][0])
	assert.Equal(t, "Ring Main 1", rows[0][1])
	assert.Equal(t, []string{"", "kWh", "PF"}, rows[1])
	assert.Equal(t, []string{"January", "10.5", "0.98"}, rows[2])

	merged, err := f.GetMergeCells("Ring Mains")
	require.NoError(t, err)
	var refs []string
	for _, mc := range merged {
		refs = append(refs, mc.GetStartAxis()+":"+mc.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"A1:A2", "B1:C1"}, refs)
}

func TestWriteWorkbook(t *testing.T) {
	a, b := flatModel(), flatModel()
	b.ID = "consumption"
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, []views.TableModel{a, b, {ID: "empty"}}))

	f := open(t, &buf)
	assert.Equal(t, []string{
		"Automated Gas Meter Readings",
		"Automated Gas Meter Reading (2)",
		"empty",
	}, f.GetSheetList())
	v, err := f.GetCellValue("empty", "A1")
	require.NoError(t, err)
	assert.Equal(t, views.NoDataText, v)

	assert.ErrorIs(t, WriteWorkbook(&buf, nil), ErrNoTables)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	cases := []struct{ in, want string }{
		{"Gas: Automated [2024]", "Gas  Automated (2024)"},
		{"", "Table"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{"table", "table (2)"},
	}
	for _, tc := range cases {
		if got := SheetName(tc.in, used); got != tc.want {
			t.Errorf("SheetName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
