package views

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"uems/internal/core"
	"uems/internal/source"
)

var (
	ErrUnknownView  = errors.New("unknown view")
	ErrUnknownTable = errors.New("unknown table")
	ErrUnknownChart = errors.New("unknown chart")
)

// Row classes understood by the templates and the xlsx exporter.
const (
	ClassHighlight       = "highlight"
	ClassBold            = "bold"
	ClassColumnHighlight = "col-highlight"
)

// NoDataText is shown in place of a table body without rows.
const NoDataText = "No data available"

// Query carries the filter selections of one request.
type Query struct {
	Search string
	Filter string
	Year   int
	Month  time.Month
}

// Search is a free text filter over one or more fields.
type Search struct {
	Fields      []string
	Placeholder string
}

// Dropdown filters on the exact value of a field. Options come from the data.
type Dropdown struct {
	Field    string
	AllLabel string
}

// Period filters a whole view by year and month.
type Period struct {
	YearField  string
	MonthField string
	// Years lists fixed options. When empty they are read from the data.
	Years     []int
	Ascending bool
	AllYears  string
	AllMonths string
	// ShortMonths labels month options Jan..Dec instead of full names.
	ShortMonths bool
}

// Highlight styles rows whose Field value is in Set. With CellOnly only
// the Field cell gets the class.
type Highlight struct {
	Field    string
	Set      core.HighlightSet
	Class    string
	CellOnly bool
}

// Table is one rendered reading table.
type Table struct {
	ID       string
	Tab      string
	Title    string
	Endpoint string

	// Columns is the canonical key order, intersected with the data.
	Columns []string
	// Groups replaces Columns with a fixed two row header.
	Groups []core.HeaderGroup
	Label  core.Labeler
	Format core.Formatter

	Search     *Search
	Dropdown   *Dropdown
	Highlights []Highlight
	// HighlightColumns get cell level emphasis.
	HighlightColumns []string
	// RowClass adds a class per rendered row; index counts filtered rows.
	RowClass func(index int, r core.Row) string
	Notes    []string

	// Prepare reshapes the loaded rows before any filter runs.
	Prepare      func([]core.Row) []core.Row
	IgnorePeriod bool
}

// Inputs are the loaded sources handed to a chart builder.
type Inputs struct {
	Rows  map[string][]core.Row
	Docs  map[string][]byte
	Query Query
}

// Chart is one chart of a view.
type Chart struct {
	ID     string
	Tab    string
	Title  string
	Kind   core.ChartKind
	YLabel string

	// Sources are row endpoints, Documents are endpoints returning a single
	// JSON object.
	Sources      []string
	Documents    []string
	IgnorePeriod bool

	Build func(in Inputs) (core.ChartData, error)
}

// Analysis is a document backed section rendered by its own template.
type Analysis struct {
	Tab      string
	Title    string
	Endpoint string
}

// View is one top level tab of the dashboard.
type View struct {
	ID     string
	Label  string
	Title  string
	Tables []*Table
	Charts []*Chart
	Period *Period

	Analysis *Analysis
	// FailureText replaces upstream error messages when set.
	FailureText string
}

// Table looks a table up by id.
func (v *View) Table(id string) (*Table, error) {
	for _, t := range v.Tables {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTable, v.ID, id)
}

// Chart looks a chart up by id.
func (v *View) Chart(id string) (*Chart, error) {
	for _, c := range v.Charts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownChart, v.ID, id)
}

// Tabs lists the sub tab labels in display order.
func (v *View) Tabs() []string {
	var tabs []string
	seen := make(map[string]struct{})
	add := func(tab string) {
		if tab == "" {
			return
		}
		if _, ok := seen[tab]; ok {
			return
		}
		seen[tab] = struct{}{}
		tabs = append(tabs, tab)
	}
	for _, t := range v.Tables {
		add(t.Tab)
	}
	for _, c := range v.Charts {
		add(c.Tab)
	}
	if v.Analysis != nil {
		add(v.Analysis.Tab)
	}
	return tabs
}

// Endpoints lists every row endpoint of the view without duplicates.
func (v *View) Endpoints() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, t := range v.Tables {
		add(t.Endpoint)
	}
	for _, c := range v.Charts {
		for _, p := range c.Sources {
			add(p)
		}
	}
	return out
}

// Documents lists the object endpoints of the view.
func (v *View) Documents() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, c := range v.Charts {
		for _, p := range c.Documents {
			add(p)
		}
	}
	if v.Analysis != nil {
		add(v.Analysis.Endpoint)
	}
	return out
}

// Failure turns a load error into the text shown in place of the view:
// the upstream message when the API answered, otherwise the innermost
// error without the load path prefixes.
func (v *View) Failure(err error) string {
	if v.FailureText != "" {
		return v.FailureText
	}
	var se *source.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}

func (v *View) inPeriod(q Query) func(core.Row) bool {
	return func(r core.Row) bool {
		return core.MatchYearMonth(r, v.Period.YearField, v.Period.MonthField, q.Year, q.Month)
	}
}

// Cell is one formatted table cell.
type Cell struct {
	Text  string
	Class string
}

// RowModel is one rendered table row.
type RowModel struct {
	Class string
	Cells []Cell
}

// Option is a select option.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

type SearchModel struct {
	Placeholder string
	Value       string
}

type DropdownModel struct {
	AllLabel string
	Options  []Option
}

// PeriodModel holds the year and month selectors of a view.
type PeriodModel struct {
	Years  []Option
	Months []Option
}

// TableModel is a table ready for a template or an exporter.
type TableModel struct {
	View     string
	ID       string
	Tab      string
	Title    string
	Groups   []core.HeaderGroup
	Columns  []core.Column
	Rows     []RowModel
	Search   *SearchModel
	Dropdown *DropdownModel
	Notes    []string
	// Total counts rows before filtering.
	Total int
}

// Grouped reports whether the header spans two rows.
func (m TableModel) Grouped() bool { return len(m.Groups) > 0 }

// Empty reports whether there is nothing to show in the body.
func (m TableModel) Empty() bool { return len(m.Rows) == 0 || len(m.Columns) == 0 }

// Header returns one flat label per column, used by exporters.
func (m TableModel) Header() []string {
	out := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = c.Label
	}
	return out
}

func (t *Table) columns(rows []core.Row) []core.Column {
	if len(t.Groups) > 0 {
		var cols []core.Column
		for _, g := range t.Groups {
			for _, c := range g.Columns {
				label := c.Label
				switch {
				case g.RowSpan():
					label = g.Title
				case g.Title != "":
					label = g.Title + " " + c.Label
				}
				cols = append(cols, core.Column{Key: c.Key, Label: label})
			}
		}
		return cols
	}
	label := t.Label
	if label == nil {
		label = core.SpaceLabel
	}
	keys := core.DeriveColumns(t.Columns, rows)
	cols := make([]core.Column, len(keys))
	for i, k := range keys {
		cols[i] = core.Column{Key: k, Label: label(k)}
	}
	return cols
}

func (t *Table) rowClass(i int, r core.Row) string {
	var classes []string
	for _, h := range t.Highlights {
		if !h.CellOnly && h.Set.Has(r.String(h.Field)) {
			classes = append(classes, h.Class)
		}
	}
	if t.RowClass != nil {
		if c := t.RowClass(i, r); c != "" {
			classes = append(classes, c)
		}
	}
	return strings.Join(classes, " ")
}

// Render shapes, filters and formats rows for table t.
func (v *View) Render(t *Table, rows []core.Row, q Query) TableModel {
	if t.Prepare != nil {
		rows = t.Prepare(rows)
	}
	m := TableModel{
		View:    v.ID,
		ID:      t.ID,
		Tab:     t.Tab,
		Title:   t.Title,
		Groups:  t.Groups,
		Columns: t.columns(rows),
		Notes:   t.Notes,
		Total:   len(rows),
	}

	if v.Period != nil && !t.IgnorePeriod {
		rows = core.Filter(rows, v.inPeriod(q))
	}
	if t.Dropdown != nil {
		dd := &DropdownModel{AllLabel: t.Dropdown.AllLabel}
		for _, val := range core.UniqueValues(rows, t.Dropdown.Field) {
			dd.Options = append(dd.Options, Option{Value: val, Label: val, Selected: val == q.Filter})
		}
		m.Dropdown = dd
		if q.Filter != "" {
			rows = core.Filter(rows, func(r core.Row) bool { return core.MatchExact(r, t.Dropdown.Field, q.Filter) })
		}
	}
	if t.Search != nil {
		m.Search = &SearchModel{Placeholder: t.Search.Placeholder, Value: q.Search}
		if q.Search != "" {
			rows = core.Filter(rows, func(r core.Row) bool { return core.MatchSubstring(r, t.Search.Fields, q.Search) })
		}
	}

	format := t.Format
	if format == nil {
		format = core.FormatTrimmed
	}
	m.Rows = make([]RowModel, len(rows))
	for i, r := range rows {
		rm := RowModel{Class: t.rowClass(i, r), Cells: make([]Cell, len(m.Columns))}
		for j, c := range m.Columns {
			rm.Cells[j] = Cell{Text: format(c.Key, r[c.Key]), Class: t.cellClass(c.Key, r)}
		}
		m.Rows[i] = rm
	}
	return m
}

func (t *Table) cellClass(key string, r core.Row) string {
	var classes []string
	for _, k := range t.HighlightColumns {
		if k == key {
			classes = append(classes, ClassColumnHighlight)
			break
		}
	}
	for _, h := range t.Highlights {
		if h.CellOnly && h.Field == key && h.Set.Has(r.String(key)) {
			classes = append(classes, h.Class)
		}
	}
	return strings.Join(classes, " ")
}

// PeriodOptions builds the year and month selectors. rows feed the year
// options when the view does not fix them.
func (v *View) PeriodOptions(rows []core.Row, q Query) *PeriodModel {
	p := v.Period
	if p == nil {
		return nil
	}
	years := p.Years
	if len(years) == 0 {
		years = core.Years(rows, p.YearField)
		if p.Ascending {
			for i, j := 0, len(years)-1; i < j; i, j = i+1, j-1 {
				years[i], years[j] = years[j], years[i]
			}
		}
	}
	pm := &PeriodModel{}
	pm.Years = append(pm.Years, Option{Value: "all", Label: p.AllYears, Selected: q.Year == 0})
	for _, y := range years {
		s := strconv.Itoa(y)
		pm.Years = append(pm.Years, Option{Value: s, Label: s, Selected: q.Year == y})
	}
	pm.Months = append(pm.Months, Option{Value: "all", Label: p.AllMonths, Selected: q.Month == 0})
	for m := time.January; m <= time.December; m++ {
		label := m.String()
		if p.ShortMonths {
			label = label[:3]
		}
		pm.Months = append(pm.Months, Option{Value: strconv.Itoa(int(m)), Label: label, Selected: q.Month == m})
	}
	return pm
}

// BuildChart applies the view filters to the inputs and runs the builder.
func (v *View) BuildChart(c *Chart, in Inputs) (core.ChartData, error) {
	if v.Period != nil && !c.IgnorePeriod {
		filtered := make(map[string][]core.Row, len(in.Rows))
		for path, rows := range in.Rows {
			filtered[path] = core.Filter(rows, v.inPeriod(in.Query))
		}
		in.Rows = filtered
	}
	cd, err := c.Build(in)
	if err != nil {
		return core.ChartData{}, fmt.Errorf("build chart %s/%s: %w", v.ID, c.ID, err)
	}
	cd.ID = c.ID
	cd.Title = c.Title
	if c.Kind != "" {
		cd.Kind = c.Kind
	}
	if cd.YLabel == "" {
		cd.YLabel = c.YLabel
	}
	return cd, nil
}
