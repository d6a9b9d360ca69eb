package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column is one rendered table column.
type Column struct {
	Key   string
	Label string
}

// HeaderGroup is a spanning header over one or more sub columns. A group
// with a single sub column and an empty label spans both header rows.
type HeaderGroup struct {
	Title   string
	Columns []Column
}

// RowSpan reports whether the group occupies both header rows.
func (g HeaderGroup) RowSpan() bool {
	return len(g.Columns) == 1 && g.Columns[0].Label == ""
}

// systemColumns never appear in a rendered table.
var systemColumns = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
}

// DeriveColumns filters the canonical key order down to the keys present in
// the first row. System columns are always dropped.
func DeriveColumns(canonical []string, rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]
	out := make([]string, 0, len(canonical))
	for _, key := range canonical {
		if _, skip := systemColumns[key]; skip {
			continue
		}
		if _, ok := first[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

// ParseMonthKey splits a Mon_YYYY key. Prefixed keys such as R1_Dec_2021
// are accepted; the prefix is ignored.
func ParseMonthKey(key string) (time.Month, int, bool) {
	parts := strings.Split(key, "_")
	if len(parts) < 2 {
		return 0, 0, false
	}
	mon, yr := parts[len(parts)-2], parts[len(parts)-1]
	m, ok := MonthFromName(mon)
	if !ok {
		return 0, 0, false
	}
	y, err := strconv.Atoi(yr)
	if err != nil || len(yr) != 4 {
		return 0, 0, false
	}
	return m, y, true
}

// MonthKey formats a month as Mon_YYYY.
func MonthKey(m time.Month, year int) string {
	return fmt.Sprintf("%s_%d", m.String()[:3], year)
}

// MonthRange returns the Mon_YYYY keys from start to end inclusive.
// It panics on malformed bounds since ranges are declared in code.
func MonthRange(start, end string) []string {
	sm, sy, ok := ParseMonthKey(start)
	if !ok {
		panic("core: bad month key " + start)
	}
	em, ey, ok := ParseMonthKey(end)
	if !ok {
		panic("core: bad month key " + end)
	}
	var out []string
	for y, m := sy, sm; y < ey || (y == ey && m <= em); {
		out = append(out, MonthKey(m, y))
		if m == time.December {
			m, y = time.January, y+1
		} else {
			m++
		}
	}
	return out
}

// Prefixed prepends prefix to each key.
func Prefixed(prefix string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + k
	}
	return out
}

// MonthFromName resolves "Jan", "january" or "1" to a month.
func MonthFromName(s string) (time.Month, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	if len(s) < 3 {
		return 0, false
	}
	lower := strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || lower == name[:3] {
			return m, true
		}
	}
	return 0, false
}

// Labeler turns a column key into a header label.
type Labeler func(key string) string

// SpaceLabel replaces underscores with spaces.
func SpaceLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// TitleLabel splits on underscores and capitalises each word. A Caser
// keeps state, so one is built per call.
func TitleLabel(key string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}

// MonthLabel renders Month_Year keys as "Mon YYYY" and falls back to the
// given labeler for everything else.
func MonthLabel(fallback Labeler) Labeler {
	return func(key string) string {
		if strings.Contains(key, "_20") {
			return strings.ReplaceAll(key, "_", " ")
		}
		return fallback(key)
	}
}

// MapLabel looks the key up in labels and falls back otherwise.
func MapLabel(labels map[string]string, fallback Labeler) Labeler {
	return func(key string) string {
		if l, ok := labels[key]; ok {
			return l
		}
		return fallback(key)
	}
}

// RawLabel keeps the key as is.
func RawLabel(key string) string { return key }
