package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"uems/internal/core"
	"uems/internal/log"
	"uems/internal/render"
)

func (s *Server) loadChart(w http.ResponseWriter, r *http.Request, viewID, chartID string) (core.ChartData, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cd, err := s.dashboard.Chart(ctx, viewID, chartID, ParseViewQuery(r.URL.Query()))
	if err != nil {
		s.writeLoadError(w, r, viewID, err)
		return core.ChartData{}, false
	}
	log.FromContext(ctx).DebugContext(ctx, "Chart built",
		log.FieldView, viewID,
		log.FieldChart, chartID,
		log.FieldOperation, log.OpChart)
	return cd, true
}

// handleChartJSON returns the chart data as JSON.
func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	cd, ok := s.loadChart(w, r, r.PathValue("view"), r.PathValue("chart"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cd)
}

// handleChartSnippet returns the go-echarts element and script for a chart
// container.
func (s *Server) handleChartSnippet(w http.ResponseWriter, r *http.Request) {
	viewID, chartID := r.PathValue("view"), r.PathValue("chart")
	cd, ok := s.loadChart(w, r, viewID, chartID)
	if !ok {
		return
	}
	data := struct {
		Empty   bool
		Snippet template.HTML
	}{Empty: cd.Empty()}
	if !data.Empty {
		data.Snippet = render.Snippet(render.ElementID(viewID, chartID), cd)
	}
	s.render(w, r, "chart", data)
}

// handleChartPNG draws the chart as a PNG image.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	chartID, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || chartID == "" {
		NotFoundError("unknown chart image").Write(w)
		return
	}
	viewID := r.PathValue("view")
	cd, ok := s.loadChart(w, r, viewID, chartID)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, cd); err != nil {
		if errors.Is(err, render.ErrEmptyChart) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart rendering failed",
			log.FieldView, viewID,
			log.FieldChart, chartID,
			log.FieldError, err.Error())
		InternalServerError("Failed to render chart").Write(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
