package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"uems/internal/core"
	"uems/internal/views"
)

// Query parameter names shared by the templates and the handlers.
const (
	ParamSearch = "q"
	ParamFilter = "filter"
	ParamYear   = "year"
	ParamMonth  = "month"
)

// ParseViewQuery reads the table filters from query parameters. Missing or
// invalid year and month values mean no period filter.
func ParseViewQuery(query url.Values) views.Query {
	return views.Query{
		Search: sanitizeInput(query.Get(ParamSearch)),
		Filter: sanitizeInput(query.Get(ParamFilter)),
		Year:   core.ParseYear(query.Get(ParamYear)),
		Month:  core.ParseMonth(query.Get(ParamMonth)),
	}
}

// EncodeViewQuery turns a query back into URL parameters, skipping empty values.
func EncodeViewQuery(q views.Query) url.Values {
	out := url.Values{}
	if q.Search != "" {
		out.Set(ParamSearch, q.Search)
	}
	if q.Filter != "" {
		out.Set(ParamFilter, q.Filter)
	}
	if q.Year != 0 {
		out.Set(ParamYear, strconv.Itoa(q.Year))
	}
	if q.Month != 0 {
		out.Set(ParamMonth, strconv.Itoa(int(q.Month)))
	}
	return out
}

// maxRefreshBody bounds the refresh form or JSON body.
const maxRefreshBody = 4 << 10

// RefreshRequest is the body of POST /ui/refresh. Both fields are optional:
// an empty View refreshes every view and an empty Reason becomes "manual".
type RefreshRequest struct {
	View   string `json:"view"`
	Reason string `json:"reason"`
}

// ParseRefreshRequest accepts the HTMX form encoding or a JSON object.
func ParseRefreshRequest(w http.ResponseWriter, r *http.Request) (RefreshRequest, error) {
	var req RefreshRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRefreshBody))
	if err != nil {
		return req, err
	}
	body = []byte(strings.TrimSpace(string(body)))

	switch {
	case len(body) == 0:
	case body[0] == '{' || strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"):
		if err := json.Unmarshal(body, &req); err != nil {
			return req, err
		}
	default:
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return req, err
		}
		req.View = form.Get("view")
		req.Reason = form.Get("reason")
	}

	req.View = sanitizeInput(req.View)
	req.Reason = sanitizeInput(req.Reason)
	if req.Reason == "" {
		req.Reason = "manual"
	}
	return req, nil
}

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponse {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponse {
	return RequireMethod(r, http.MethodPost)
}
