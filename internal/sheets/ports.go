package sheets

import (
	"context"
	"strings"

	"uems/internal/views"
)

// TablePublisher writes a rendered table into a named spreadsheet tab,
// replacing whatever the tab held before.
type TablePublisher interface {
	PublishTable(ctx context.Context, sheet string, m views.TableModel) error
}

// Grid flattens a table into spreadsheet rows: the flat header first, then
// the cell texts exactly as the dashboard shows them. A table without
// columns becomes a single placeholder row.
func Grid(m views.TableModel) [][]string {
	if len(m.Columns) == 0 {
		return [][]string{{views.NoDataText}}
	}
	out := make([][]string, 0, len(m.Rows)+1)
	out = append(out, m.Header())
	for _, r := range m.Rows {
		row := make([]string, len(m.Columns))
		for i := range row {
			if i < len(r.Cells) {
				row[i] = r.Cells[i].Text
			}
		}
		out = append(out, row)
	}
	return out
}

// SheetTitle names the tab a table is published to when none is given.
func SheetTitle(m views.TableModel) string {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = m.View + " " + m.ID
	}
	return title
}
