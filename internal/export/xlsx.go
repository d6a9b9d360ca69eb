// Package export writes rendered tables to xlsx workbooks.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"uems/internal/views"
)

// ContentType is the media type of the written workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	maxSheetName = 31
	defaultSheet = "Sheet1"
	columnWidth  = 16
)

var ErrNoTables = errors.New("export: no tables")

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// SheetName turns a table title into a valid, unique sheet name.
func SheetName(title string, used map[string]bool) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(title))
	if name == "" {
		name = "Table"
	}
	if len(name) > maxSheetName {
		name = strings.TrimSpace(name[:maxSheetName])
	}
	base := name
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		cut := base
		if len(cut)+len(suffix) > maxSheetName {
			cut = cut[:maxSheetName-len(suffix)]
		}
		name = cut + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

type styles struct {
	header    int
	highlight int
	bold      int
	column    int
	up        int
	down      int
}

func newStyles(f *excelize.File) (*styles, error) {
	var s styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&s.highlight, &excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF3B0"}, Pattern: 1},
		}},
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.column, &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		}},
		{&s.up, &excelize.Style{Font: &excelize.Font{Color: "#C00000"}}},
		{&s.down, &excelize.Style{Font: &excelize.Font{Color: "#2E7D32"}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return &s, nil
}

// cellStyle picks the style for a cell from its row and cell classes.
// Cell classes win over row classes.
func (s *styles) cellStyle(rowClass, cellClass string) int {
	has := func(classes, c string) bool {
		for _, f := range strings.Fields(classes) {
			if f == c {
				return true
			}
		}
		return false
	}
	switch {
	case has(cellClass, views.ClassColumnHighlight):
		return s.column
	case has(cellClass, views.ClassBold):
		return s.bold
	case has(cellClass, views.ClassHighlight):
		return s.highlight
	case has(cellClass, "change-up"):
		return s.up
	case has(cellClass, "change-down"):
		return s.down
	case has(rowClass, views.ClassHighlight):
		return s.highlight
	case has(rowClass, views.ClassBold):
		return s.bold
	}
	return 0
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// writeHeader writes one or two header rows and returns the first body row.
func writeHeader(f *excelize.File, sheet string, m views.TableModel, st *styles) (int, error) {
	last := cell(len(m.Columns), 1)
	if !m.Grouped() {
		for i, c := range m.Columns {
			if err := f.SetCellValue(sheet, cell(i+1, 1), c.Label); err != nil {
				return 0, err
			}
		}
		return 2, f.SetCellStyle(sheet, "A1", last, st.header)
	}

	col := 1
	for _, g := range m.Groups {
		start := col
		if g.RowSpan() {
			if err := f.SetCellValue(sheet, cell(col, 1), g.Title); err != nil {
				return 0, err
			}
			if err := f.MergeCell(sheet, cell(col, 1), cell(col, 2)); err != nil {
				return 0, err
			}
			col++
			continue
		}
		for _, c := range g.Columns {
			if err := f.SetCellValue(sheet, cell(col, 2), c.Label); err != nil {
				return 0, err
			}
			col++
		}
		if err := f.SetCellValue(sheet, cell(start, 1), g.Title); err != nil {
			return 0, err
		}
		if col-1 > start {
			if err := f.MergeCell(sheet, cell(start, 1), cell(col-1, 1)); err != nil {
				return 0, err
			}
		}
	}
	return 3, f.SetCellStyle(sheet, "A1", cell(len(m.Columns), 2), st.header)
}

func writeSheet(f *excelize.File, sheet string, m views.TableModel, st *styles) error {
	if len(m.Columns) == 0 {
		return f.SetCellValue(sheet, "A1", views.NoDataText)
	}
	row, err := writeHeader(f, sheet, m, st)
	if err != nil {
		return fmt.Errorf("write header of %s: %w", m.ID, err)
	}
	for _, r := range m.Rows {
		values := make([]interface{}, len(r.Cells))
		for i, c := range r.Cells {
			values[i] = c.Text
		}
		if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
			return fmt.Errorf("write row %d of %s: %w", row, m.ID, err)
		}
		for i, c := range r.Cells {
			if id := st.cellStyle(r.Class, c.Class); id != 0 {
				if err := f.SetCellStyle(sheet, cell(i+1, row), cell(i+1, row), id); err != nil {
					return err
				}
			}
		}
		row++
	}
	lastCol, _ := excelize.ColumnNumberToName(len(m.Columns))
	return f.SetColWidth(sheet, "A", lastCol, columnWidth)
}

// WriteTable writes a single table as a one sheet workbook.
func WriteTable(w io.Writer, m views.TableModel) error {
	return WriteWorkbook(w, []views.TableModel{m})
}

// WriteWorkbook writes one sheet per table, in order.
func WriteWorkbook(w io.Writer, models []views.TableModel) error {
	if len(models) == 0 {
		return ErrNoTables
	}
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	used := make(map[string]bool, len(models))
	for i, m := range models {
		title := m.Title
		if title == "" {
			title = m.ID
		}
		name := SheetName(title, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, m, st); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
