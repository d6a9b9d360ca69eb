package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeEvents(t *testing.T, w *httptest.ResponseRecorder) map[string]map[string]any {
	t.Helper()
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("HX-Trigger header not set")
	}
	var events map[string]map[string]any
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%s)", err, raw)
	}
	return events
}

func TestHTMXResponse_RefreshEvents(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerReadingsRefreshed("gas", 3).
		Notify(NotificationSuccess, "Readings refreshed").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	events := decodeEvents(t, w)

	refreshed, ok := events["readings:refreshed"]
	if !ok {
		t.Fatalf("missing readings:refreshed in %v", events)
	}
	if refreshed["view"] != "gas" || refreshed["paths"] != float64(3) {
		t.Errorf("readings:refreshed = %v", refreshed)
	}

	toast := events["show-notification"]
	if toast["type"] != "success" || toast["duration"] != float64(3000) {
		t.Errorf("show-notification = %v", toast)
	}
}

func TestHTMXResponse_NoEventsNoHeader(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("HX-Trigger = %q, want empty", got)
	}
}

func TestHTMXResponse_TriggerReplaces(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerReadingsRefreshed("gas", 1).
		TriggerReadingsRefreshed("", 9).
		Write(w)

	got := decodeEvents(t, w)["readings:refreshed"]
	if got["view"] != "" || got["paths"] != float64(9) {
		t.Errorf("readings:refreshed = %v", got)
	}
}

func TestNotify_Durations(t *testing.T) {
	tests := []struct {
		kind NotificationType
		want float64
	}{
		{NotificationSuccess, 3000},
		{NotificationInfo, 3000},
		{NotificationWarning, 3000},
		{NotificationError, 5000},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHTMXResponse().Notify(tt.kind, "upstream slow").Write(w)

			toast := decodeEvents(t, w)["show-notification"]
			if toast["type"] != string(tt.kind) {
				t.Errorf("type = %v, want %s", toast["type"], tt.kind)
			}
			if toast["duration"] != tt.want {
				t.Errorf("duration = %v, want %v", toast["duration"], tt.want)
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		resp       *HTMXResponse
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("Invalid request format"), http.StatusBadRequest, `<div class="error">Invalid request format</div>`},
		{"unknown view", NotFoundError(`unknown view "boilers"`), http.StatusNotFound, `<div class="error">unknown view &#34;boilers&#34;</div>`},
		{"upstream", BadGatewayError("Failed to fetch data. Please try again later."), http.StatusBadGateway, `<div class="error">Failed to fetch data. Please try again later.</div>`},
		{"template", InternalServerError("Failed to render page"), http.StatusInternalServerError, `<div class="error">Failed to render page</div>`},
		{"rate limited", ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded"), http.StatusTooManyRequests, `<div class="error">Rate limit exceeded</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.resp.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	BadGatewayError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("error block was not escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("body = %q", body)
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "POST" {
		t.Errorf("Allow = %q", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("HX-Reswap"); got != "" {
		t.Errorf("HX-Reswap = %q, want empty", got)
	}
}
