package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"uems/internal/log"
	"uems/internal/views"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and the configured dependencies.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for name, check := range s.readyChecks {
		if err := check(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}
	checks["security"] = map[string]interface{}{
		"suspicious_requests": s.detector.SuspiciousCount(),
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex renders the tab shell with the first view selected.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	first := s.dashboard.DefaultView()
	if first == nil {
		InternalServerError("No views configured").Write(w)
		return
	}
	data := struct {
		Views   []*views.View
		Current string
	}{
		Views:   s.dashboard.Views(),
		Current: first.ID,
	}
	s.render(w, r, "index", data)
}

// handleView renders a whole view. A failed load replaces the view with an
// error block.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	viewID := r.PathValue("view")
	v, err := s.dashboard.View(viewID)
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	page, err := s.dashboard.RenderView(ctx, v.ID, ParseViewQuery(r.URL.Query()))
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "View load failed",
			log.FieldView, v.ID,
			log.FieldOperation, log.OpRender,
			log.FieldError, err.Error())
		BadGatewayError(v.Failure(err)).Write(w)
		return
	}
	s.render(w, r, "view", page)

	rows := 0
	for _, t := range page.Tabs {
		for _, m := range t.Tables {
			rows += len(m.Rows)
		}
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogViewRendered(ctx, v.ID, "", rows, time.Since(start).Milliseconds())
}

// handleTable re-renders one table with new filters.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	viewID, tableID := r.PathValue("view"), r.PathValue("table")
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	m, err := s.dashboard.RenderTable(ctx, viewID, tableID, ParseViewQuery(r.URL.Query()))
	if err != nil {
		s.writeLoadError(w, r, viewID, err)
		return
	}
	s.render(w, r, "table", m)
	log.NewStructuredLogger(log.FromContext(ctx)).LogViewRendered(ctx, viewID, tableID, len(m.Rows), time.Since(start).Milliseconds())
}

// handleRefresh drops cached readings for one view, or all views when no
// view is given.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	req, err := ParseRefreshRequest(w, r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	paths, err := s.dashboard.Refresh(r.Context(), req.View, req.Reason)
	if err != nil {
		s.writeLoadError(w, r, req.View, err)
		return
	}
	NewHTMXResponse().
		TriggerReadingsRefreshed(req.View, len(paths)).
		Notify(NotificationSuccess, "Readings refreshed").
		Status(http.StatusOK).
		Write(w)
}

// writeLoadError maps unknown views and tables to 404 and everything else
// to the view failure text.
func (s *Server) writeLoadError(w http.ResponseWriter, r *http.Request, viewID string, err error) {
	switch {
	case errors.Is(err, views.ErrUnknownView),
		errors.Is(err, views.ErrUnknownTable),
		errors.Is(err, views.ErrUnknownChart):
		NotFoundError(err.Error()).Write(w)
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldView, viewID,
		log.FieldPath, r.URL.Path,
		log.FieldError, err.Error())
	msg := err.Error()
	if v, verr := s.dashboard.View(viewID); verr == nil {
		msg = v.Failure(err)
	}
	BadGatewayError(msg).Write(w)
}

// render executes a template into a buffer first so a template error never
// leaves a half written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate,
			"template", name,
			log.FieldError, err.Error())
		InternalServerError("Failed to render page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
