package core

import "strings"

// HighlightSet is a fixed list of entity names that get special styling.
// Matching is exact; Trim makes it ignore surrounding whitespace on the
// row value.
type HighlightSet struct {
	names map[string]struct{}
	Trim  bool
}

// NewHighlightSet builds an exact-match set.
func NewHighlightSet(names ...string) HighlightSet {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return HighlightSet{names: m}
}

// Trimmed returns a copy that trims row values before matching.
func (h HighlightSet) Trimmed() HighlightSet {
	h.Trim = true
	return h
}

// Has reports whether value is in the set.
func (h HighlightSet) Has(value string) bool {
	if h.Trim {
		value = strings.TrimSpace(value)
	}
	_, ok := h.names[value]
	return ok
}

// Len returns the number of names.
func (h HighlightSet) Len() int { return len(h.names) }
