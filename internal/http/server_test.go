package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"uems/internal/cache"
	"uems/internal/core"
	"uems/internal/metrics"
	"uems/internal/readings"
	"uems/internal/services"
	"uems/internal/source/memory"
	"uems/internal/views"
)

func gasStore() *memory.Store {
	s := memory.New()
	s.Put("/api/gas/automated", []byte(`[
		{"meter_description":"ARANA 110 CLYDE STREET,DUNEDIN","icp":"1","Jan_2022":10.5},
		{"meter_description":"Otago Museum","icp":"2","Jan_2022":4}
	]`))
	s.Put("/api/gas/manual", []byte(`[{"meter_description":"Manual 1","misc1":"a","misc2":"b","Jan_2022":NaN}]`))
	s.Put("/api/gas/consumption", []byte(`[{"object_description":"Total Gas Energy - Colleges","misc":"","Jan_2022":3}]`))
	s.Put("/api/gas/analysis", []byte(`{"cluster_results":[{"cluster_id":0,"meters":["ARANA"],"size":1}]}`))
	return s
}

func newTestServer(t *testing.T, store *memory.Store, opts Options) (*Server, *cache.LRUCache[[]byte]) {
	t.Helper()
	c := cache.NewLRUCache[[]byte](100, time.Minute)
	loader := readings.NewLoader(store, readings.WithCache(c))
	svc := services.NewDashboardService(views.Default(), loader, nil, nil)
	return NewServer(":0", svc, opts), c
}

func do(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Auckland Data")
	assert.Contains(t, body, `hx-get="/ui/views/auckland"`)
	assert.Contains(t, body, "Energy Total")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope", "").Code)
}

func TestReadyFailingCheck(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{
		ReadyChecks: map[string]ReadyCheck{
			"snapshots": func(context.Context) error { return errors.New("database is locked") },
		},
	})
	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "failed: database is locked", resp.Checks["snapshots"])
}

func TestViewPartial(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/ui/views/gas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Automated Meters")
	assert.Contains(t, body, "ARANA 110 CLYDE STREET,DUNEDIN")
	assert.Contains(t, body, `<tr class="highlight">`)
	assert.Contains(t, body, `hx-get="/ui/views/gas/charts/colleges"`)
	assert.Contains(t, body, "Cluster 1")

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/ui/views/nope", "").Code)
}

func TestViewFailure(t *testing.T) {
	store := gasStore()
	srv, _ := newTestServer(t, store, Options{})

	// Only one of the three gas tables is served.
	store2 := memory.New()
	store2.Put("/api/gas/automated", []byte(`[]`))
	srv2, _ := newTestServer(t, store2, Options{})

	rec := do(t, srv2, http.MethodGet, "/ui/views/gas", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, `<div class="error">no data for path</div>`, rec.Body.String())
	assert.Equal(t, "innerHTML", rec.Header().Get("HX-Reswap"))

	rec = do(t, srv, http.MethodGet, "/ui/views/stream-elec", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, `<div class="error">Failed to fetch data. Please try again later.</div>`, rec.Body.String())
	assert.Equal(t, "innerHTML", rec.Header().Get("HX-Reswap"))

	rec = do(t, srv2, http.MethodGet, "/ui/views/gas/tables/manual", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "innerHTML", rec.Header().Get("HX-Reswap"))
	assert.Equal(t, "innerHTML", do(t, srv, http.MethodGet, "/ui/views/nope", "").Header().Get("HX-Reswap"))
}

func TestAppScriptSwapsErrorsAndReloadsCurrentView(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	js := rec.Body.String()
	assert.Contains(t, js, `"htmx:beforeSwap"`)
	assert.Contains(t, js, `getResponseHeader("HX-Reswap")`)
	assert.Contains(t, js, "shouldSwap = true")
	assert.Contains(t, js, `htmx.ajax("GET", "/ui/views/" + view.dataset.view`)

	index := do(t, srv, http.MethodGet, "/", "").Body.String()
	assert.NotContains(t, index, "view:reload")
}

func TestTableFiltersTriggerOnOwnControls(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/ui/views/gas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "from:input")
	assert.NotContains(t, body, "from:select")
	assert.Contains(t, body, `hx-get="/ui/views/gas/tables/automated" hx-trigger="keyup changed delay:300ms, search"`)
	assert.Contains(t, body, `hx-get="/ui/views/gas/tables/manual" hx-trigger="keyup changed delay:300ms, search"`)
}

func TestTableFilter(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/ui/views/gas/tables/automated?q=arana", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ARANA")
	assert.NotContains(t, rec.Body.String(), "Otago Museum")
	assert.Contains(t, rec.Body.String(), `value="arana"`)

	rec = do(t, srv, http.MethodGet, "/ui/views/gas/tables/automated?q=zzz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data available")

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/ui/views/gas/tables/nope", "").Code)
}

func TestChartEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/api/charts/gas/colleges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cd core.ChartData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cd))
	assert.Equal(t, "colleges", cd.ID)
	assert.Len(t, cd.Labels, 39)
	require.Len(t, cd.Datasets, 5)
	require.NotNil(t, cd.Datasets[3].Values[0])
	assert.Equal(t, 10.5, *cd.Datasets[3].Values[0])

	rec = do(t, srv, http.MethodGet, "/ui/views/gas/charts/colleges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="chart-gas-colleges"`)

	rec = do(t, srv, http.MethodGet, "/charts/gas/colleges.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/charts/gas/colleges.gif", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/charts/gas/nope", "").Code)
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})

	rec := do(t, srv, http.MethodGet, "/export/gas/automated.xlsx?q=arana", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "gas-automated.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Automated Meters")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ARANA 110 CLYDE STREET,DUNEDIN", rows[1][0])

	rec = do(t, srv, http.MethodGet, "/export/gas/all.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f2, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f2.Close()
	assert.Equal(t, []string{"Automated Meters", "Manual Meters", "Consumption Data"}, f2.GetSheetList())

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/export/gas/nope.xlsx", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/export/gas/automated.csv", "").Code)
}

func TestRefresh(t *testing.T) {
	srv, c := newTestServer(t, gasStore(), Options{})

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/ui/views/gas/tables/automated", "").Code)
	require.Equal(t, 1, c.Size())

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, "/ui/refresh", "").Code)

	rec := do(t, srv, http.MethodPost, "/ui/refresh", url.Values{"view": {"gas"}}.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	trigger := rec.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, `"readings:refreshed"`)
	assert.Contains(t, trigger, `"view":"gas"`)
	assert.Equal(t, 0, c.Size())

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/ui/refresh", "view=nope").Code)
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/.env", "").Code)
	assert.Equal(t, int64(1), srv.detector.SuspiciousCount())
}

func TestRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{RateLimitRPM: 2})
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	}
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `<div class="error">`)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.HTTPRequests)
	srv, _ := newTestServer(t, gasStore(), Options{Metrics: m, Gatherer: reg})

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `uems_http_requests_total{code="200",method="GET"} 1`)
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, gasStore(), Options{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, srv.Shutdown(ctx))
}
