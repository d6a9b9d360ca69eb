package http

import (
	"strings"

	"uems/internal/views"
)

// queryString encodes the filters of a query as a "?..." suffix, or "".
func queryString(q views.Query) string {
	if enc := EncodeViewQuery(q).Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
