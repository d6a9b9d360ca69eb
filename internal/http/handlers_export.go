package http

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"uems/internal/export"
	"uems/internal/log"
	"uems/internal/views"
)

// handleExport streams a table as xlsx with the request filters applied.
// "all.xlsx" exports every table of the view, one sheet each.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	tableID, ok := strings.CutSuffix(r.PathValue("file"), ".xlsx")
	if !ok || tableID == "" {
		NotFoundError("unknown export").Write(w)
		return
	}
	viewID := r.PathValue("view")
	q := ParseViewQuery(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		models []views.TableModel
		err    error
	)
	if tableID == "all" {
		models, err = s.dashboard.ExportView(ctx, viewID, q)
	} else {
		var m views.TableModel
		m, err = s.dashboard.ExportTable(ctx, viewID, tableID, q)
		models = []views.TableModel{m}
	}
	if err != nil {
		s.writeLoadError(w, r, viewID, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, models); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export failed",
			log.FieldComponent, log.ComponentExport,
			log.FieldView, viewID,
			log.FieldTable, tableID,
			log.FieldError, err.Error())
		InternalServerError("Failed to export table").Write(w)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+viewID+"-"+tableID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	size := buf.Len()
	_, _ = buf.WriteTo(w)
	log.FromContext(ctx).InfoContext(ctx, "Table exported",
		log.FieldView, viewID,
		log.FieldTable, tableID,
		log.FieldBytes, size,
		log.FieldOperation, log.OpExport)
}
