package core

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// MatchSubstring reports whether any of the fields contains query,
// ignoring case. An empty query matches every row.
func MatchSubstring(row Row, fields []string, query string) bool {
	query = strings.ToLower(query)
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(row.String(f)), query) {
			return true
		}
	}
	return false
}

// MatchExact reports whether the field equals value. An empty value
// matches every row.
func MatchExact(row Row, field, value string) bool {
	return value == "" || row.String(field) == value
}

// MatchYearMonth filters on a year field and a month field. Zero values
// mean "all". Month fields may hold names, abbreviations or numbers.
func MatchYearMonth(row Row, yearField, monthField string, year int, month time.Month) bool {
	if year != 0 {
		y, ok := Coerce(row[yearField])
		if !ok || int(y) != year {
			return false
		}
	}
	if month != 0 {
		m, ok := MonthFromName(row.String(monthField))
		if !ok || m != month {
			return false
		}
	}
	return true
}

// Filter returns the rows for which keep is true.
func Filter(rows []Row, keep func(Row) bool) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// UniqueValues lists the distinct non-empty values of field in first-seen
// order.
func UniqueValues(rows []Row, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		v := r.String(field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Years lists the distinct years found in field, newest first.
func Years(rows []Row, field string) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range rows {
		y, ok := Coerce(r[field])
		if !ok {
			continue
		}
		if _, dup := seen[int(y)]; dup {
			continue
		}
		seen[int(y)] = struct{}{}
		out = append(out, int(y))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// ParseYear reads a year selector; "all", "" and junk mean no filter.
func ParseYear(s string) int {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1900 {
		return 0
	}
	return y
}

// ParseMonth reads a month selector; "all", "" and junk mean no filter.
func ParseMonth(s string) time.Month {
	m, ok := MonthFromName(s)
	if !ok {
		return 0
	}
	return m
}
