package sheets

import (
	"testing"

	"uems/internal/core"
	"uems/internal/views"
)

func TestGrid(t *testing.T) {
	m := views.TableModel{
		View:    "gas",
		ID:      "automated",
		Columns: []core.Column{{Key: "meter", Label: "Meter"}, {Key: "2023", Label: "2023"}},
		Rows: []views.RowModel{
			{Cells: []views.Cell{{Text: "ARANA"}, {Text: "1,250"}}},
			{Cells: []views.Cell{{Text: "Otago Museum"}}},
		},
	}

	grid := Grid(m)
	if len(grid) != 3 {
		t.Fatalf("got %d rows, want 3", len(grid))
	}
	if grid[0][0] != "Meter" || grid[0][1] != "2023" {
		t.Errorf("header = %v", grid[0])
	}
	if grid[1][1] != "1,250" {
		t.Errorf("formatted cell = %q", grid[1][1])
	}
	if len(grid[2]) != 2 || grid[2][1] != "" {
		t.Errorf("short row not padded: %v", grid[2])
	}
}

func TestGridNoColumns(t *testing.T) {
	grid := Grid(views.TableModel{})
	if len(grid) != 1 || grid[0][0] != views.NoDataText {
		t.Errorf("got %v", grid)
	}
}

func TestSheetTitle(t *testing.T) {
	if got := SheetTitle(views.TableModel{Title: " Steam "}); got != "Steam" {
		t.Errorf("got %q", got)
	}
	if got := SheetTitle(views.TableModel{View: "gas", ID: "manual"}); got != "gas manual" {
		t.Errorf("got %q", got)
	}
}
