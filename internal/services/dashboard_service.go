package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uems/internal/core"
	"uems/internal/log"
	"uems/internal/readings"
	"uems/internal/views"
)

// RefreshPublisher announces a cache refresh to other processes.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, view string, paths []string, reason string) error
}

// ChartRef points a template at a chart of the view.
type ChartRef struct {
	View  string
	ID    string
	Title string
	Kind  core.ChartKind
}

// TabModel is one sub tab of a rendered view.
type TabModel struct {
	Label    string
	Slug     string
	Tables   []views.TableModel
	Charts   []ChartRef
	Analysis *views.AnalysisModel
	// AnalysisText replaces the analysis body when there is nothing to show.
	AnalysisText string
}

// ViewPage is a fully loaded view ready for the template.
type ViewPage struct {
	ID     string
	Title  string
	Period *views.PeriodModel
	Query  views.Query
	Tabs   []TabModel
}

// DashboardService ties the view registry to the readings loader.
type DashboardService struct {
	registry  *views.Registry
	loader    *readings.Loader
	publisher RefreshPublisher
	logger    *log.Logger
}

// NewDashboardService creates the service. publisher may be nil.
func NewDashboardService(registry *views.Registry, loader *readings.Loader, publisher RefreshPublisher, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{
		registry:  registry,
		loader:    loader,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentViews),
	}
}

// Views returns the top level tabs in order.
func (s *DashboardService) Views() []*views.View {
	return s.registry.Views()
}

// DefaultView is the view selected when the dashboard opens.
func (s *DashboardService) DefaultView() *views.View {
	return s.registry.First()
}

func (s *DashboardService) View(id string) (*views.View, error) {
	return s.registry.View(id)
}

// RenderView loads every table of the view in one batch. Any failing
// endpoint fails the whole view.
func (s *DashboardService) RenderView(ctx context.Context, viewID string, q views.Query) (*ViewPage, error) {
	start := time.Now()
	v, err := s.registry.View(viewID)
	if err != nil {
		return nil, err
	}
	data, err := s.loader.LoadAll(ctx, v.Endpoints())
	if err != nil {
		return nil, fmt.Errorf("load view %s: %w", v.ID, err)
	}

	page := &ViewPage{ID: v.ID, Title: v.Title, Query: q}
	if v.Period != nil && len(v.Tables) > 0 {
		page.Period = v.PeriodOptions(data[v.Tables[0].Endpoint], q)
	}

	index := make(map[string]int)
	tab := func(label string) *TabModel {
		i, ok := index[label]
		if !ok {
			i = len(page.Tabs)
			index[label] = i
			page.Tabs = append(page.Tabs, TabModel{Label: label, Slug: slug(label)})
		}
		return &page.Tabs[i]
	}
	for _, t := range v.Tables {
		tab(t.Tab)
	}
	for _, label := range v.Tabs() {
		tab(label)
	}

	for _, t := range v.Tables {
		tt := tab(t.Tab)
		tt.Tables = append(tt.Tables, v.Render(t, data[t.Endpoint], q))
	}
	for _, c := range v.Charts {
		tc := tab(c.Tab)
		tc.Charts = append(tc.Charts, ChartRef{View: v.ID, ID: c.ID, Title: c.Title, Kind: c.Kind})
	}
	if v.Analysis != nil {
		s.attachAnalysis(ctx, v, tab(v.Analysis.Tab))
	}

	s.logger.DebugContext(ctx, "View rendered",
		log.FieldView, v.ID,
		log.FieldDuration, time.Since(start).Milliseconds())
	return page, nil
}

// attachAnalysis renders the analysis document. A missing document shows
// a notice instead of failing the view.
func (s *DashboardService) attachAnalysis(ctx context.Context, v *views.View, t *TabModel) {
	body, err := s.loader.Body(ctx, v.Analysis.Endpoint)
	if err != nil {
		s.logger.WarnContext(ctx, "Analysis not loaded",
			log.FieldView, v.ID,
			log.FieldEndpoint, v.Analysis.Endpoint,
			log.FieldError, err.Error())
		t.AnalysisText = views.NoAnalysisText
		return
	}
	a, err := views.DecodeGasAnalysis(body)
	if err != nil {
		if !errors.Is(err, views.ErrNoAnalysis) {
			s.logger.WarnContext(ctx, "Analysis not decoded",
				log.FieldView, v.ID,
				log.FieldError, err.Error())
		}
		t.AnalysisText = views.NoAnalysisText
		return
	}
	m := views.BuildAnalysis(v.Analysis.Title, a)
	t.Analysis = &m
}

// RenderTable loads and renders a single table.
func (s *DashboardService) RenderTable(ctx context.Context, viewID, tableID string, q views.Query) (views.TableModel, error) {
	v, t, err := s.lookupTable(viewID, tableID)
	if err != nil {
		return views.TableModel{}, err
	}
	rows, err := s.loader.Load(ctx, t.Endpoint)
	if err != nil {
		return views.TableModel{}, fmt.Errorf("load table %s/%s: %w", v.ID, t.ID, err)
	}
	return v.Render(t, rows, q), nil
}

func (s *DashboardService) lookupTable(viewID, tableID string) (*views.View, *views.Table, error) {
	v, err := s.registry.View(viewID)
	if err != nil {
		return nil, nil, err
	}
	t, err := v.Table(tableID)
	if err != nil {
		return nil, nil, err
	}
	return v, t, nil
}

// Chart loads the chart sources and builds its data.
func (s *DashboardService) Chart(ctx context.Context, viewID, chartID string, q views.Query) (core.ChartData, error) {
	v, err := s.registry.View(viewID)
	if err != nil {
		return core.ChartData{}, err
	}
	c, err := v.Chart(chartID)
	if err != nil {
		return core.ChartData{}, err
	}

	in := views.Inputs{Query: q, Docs: make(map[string][]byte, len(c.Documents))}
	if len(c.Sources) > 0 {
		if in.Rows, err = s.loader.LoadAll(ctx, c.Sources); err != nil {
			return core.ChartData{}, fmt.Errorf("load chart %s/%s: %w", v.ID, c.ID, err)
		}
	}
	for _, p := range c.Documents {
		body, err := s.loader.Body(ctx, p)
		if err != nil {
			return core.ChartData{}, fmt.Errorf("load chart %s/%s: %w", v.ID, c.ID, err)
		}
		in.Docs[p] = body
	}
	return v.BuildChart(c, in)
}

// ExportTable renders a table for export, filters applied.
func (s *DashboardService) ExportTable(ctx context.Context, viewID, tableID string, q views.Query) (views.TableModel, error) {
	return s.RenderTable(ctx, viewID, tableID, q)
}

// ExportView renders every table of a view from one batch load.
func (s *DashboardService) ExportView(ctx context.Context, viewID string, q views.Query) ([]views.TableModel, error) {
	v, err := s.registry.View(viewID)
	if err != nil {
		return nil, err
	}
	data, err := s.loader.LoadAll(ctx, v.Endpoints())
	if err != nil {
		return nil, fmt.Errorf("load view %s: %w", v.ID, err)
	}
	out := make([]views.TableModel, 0, len(v.Tables))
	for _, t := range v.Tables {
		out = append(out, v.Render(t, data[t.Endpoint], q))
	}
	return out, nil
}

// RefreshPaths lists the endpoints behind a view, or behind every view
// when viewID is empty.
func (s *DashboardService) RefreshPaths(viewID string) ([]string, error) {
	if viewID == "" {
		var paths []string
		for _, v := range s.registry.Views() {
			paths = append(paths, v.Endpoints()...)
			paths = append(paths, v.Documents()...)
		}
		return dedupe(paths), nil
	}
	v, err := s.registry.View(viewID)
	if err != nil {
		return nil, err
	}
	return dedupe(append(v.Endpoints(), v.Documents()...)), nil
}

// Refresh drops cached readings for a view (all views when viewID is
// empty) and announces the refresh. Publishing failures are logged only.
func (s *DashboardService) Refresh(ctx context.Context, viewID, reason string) ([]string, error) {
	paths, err := s.RefreshPaths(viewID)
	if err != nil {
		return nil, err
	}
	s.loader.Invalidate(paths...)
	s.logger.InfoContext(ctx, "Readings invalidated",
		log.FieldView, viewID,
		"paths", len(paths),
		log.FieldOperation, log.OpRefresh)

	if s.publisher == nil {
		return paths, nil
	}
	if err := s.publisher.PublishRefresh(ctx, viewID, paths, reason); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish refresh message",
			log.FieldView, viewID,
			log.FieldError, err.Error())
	}
	return paths, nil
}

// Warm loads the given paths so the next page view hits the cache.
func (s *DashboardService) Warm(ctx context.Context, paths []string) error {
	return s.loader.Refresh(ctx, paths)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// slug turns a tab label into an element id fragment.
func slug(label string) string {
	if label == "" {
		return "main"
	}
	out := make([]rune, 0, len(label))
	dash := false
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			dash = false
		default:
			if !dash && len(out) > 0 {
				out = append(out, '-')
				dash = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}
