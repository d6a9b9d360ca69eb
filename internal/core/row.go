package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is one reading record as delivered by the metering API: metadata
// fields plus Month_Year keys. Values are float64, string, bool or nil.
type Row map[string]any

// Number returns v as a float64 when it holds a finite or NaN number.
// Numeric strings are not coerced; see Coerce for that.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// Coerce parses v into a number, accepting numeric strings. Anything that
// does not parse yields ok=false.
func Coerce(v any) (float64, bool) {
	if n, ok := Number(v); ok {
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// Text renders a non-numeric cell value. Falsy values (nil, "", false)
// render as the placeholder dash.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return Dash
	case string:
		if t == "" {
			return Dash
		}
		return t
	case bool:
		if !t {
			return Dash
		}
		return "true"
	}
	return fmt.Sprint(v)
}

// String returns the raw string form of a field, "" when absent.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := Number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Float returns the numeric value of a field.
func (r Row) Float(key string) (float64, bool) {
	n, ok := Number(r[key])
	if !ok || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
