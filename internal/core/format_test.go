package core

import (
	"math"
	"testing"
)

func TestFormatThreshold(t *testing.T) {
	cases := []struct {
		in  any
		out string
	}{
		{nil, "-"},
		{0.0, "0.00"},
		{99.99, "99.99"},
		{99.994, "99.99"},
		{99.995, "100.00"},
		{1.005, "1.00"},
		{2.675, "2.67"},
		{1.125, "1.13"},
		{100.0, "100"},
		{100.5, "101"},
		{12345.6, "12,346"},
		{1234567.0, "1,234,567"},
		{-5.5, "-5.50"},
		{-1500.0, "-1,500"},
		{"kWh meter", "kWh meter"},
		{"", "-"},
	}
	for _, tc := range cases {
		if got := FormatThreshold("Jan_2024", tc.in); got != tc.out {
			t.Errorf("FormatThreshold(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatTrimmed(t *testing.T) {
	cases := []struct {
		in  any
		out string
	}{
		{nil, "-"},
		{12.5, "12.5"},
		{12.0, "12"},
		{0.0, "0"},
		{3.14159, "3.14"},
		{1000.1, "1000.1"},
		{math.NaN(), "-"},
		{"note", "note"},
	}
	for _, tc := range cases {
		if got := FormatTrimmed("k", tc.in); got != tc.out {
			t.Errorf("FormatTrimmed(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatClamped(t *testing.T) {
	if got := FormatClampedTrimmed("k", -4.2); got != "0" {
		t.Errorf("clamped trimmed = %q, want 0", got)
	}
	if got := FormatClampedTrimmed("k", 4.20); got != "4.2" {
		t.Errorf("clamped trimmed = %q, want 4.2", got)
	}
	if got := FormatClampedFixed("k", -4.2); got != "0.00" {
		t.Errorf("clamped fixed = %q, want 0.00", got)
	}
	if got := FormatClampedFixed("k", 7.0); got != "7.00" {
		t.Errorf("clamped fixed = %q, want 7.00", got)
	}
	if got := FormatClampedFixed("k", nil); got != "-" {
		t.Errorf("clamped fixed nil = %q", got)
	}
}

func TestFormatDecimalOnly(t *testing.T) {
	f := FormatDecimalOnly("misc", "identifier")
	cases := []struct {
		col string
		in  any
		out string
	}{
		{"Jan_2023", 1234.0, "1234"},
		{"Jan_2023", 12.345, "12.35"},
		{"Jan_2023", 12.5, "12.5"},
		{"misc", 12.345, "12.345"},
		{"identifier", 40012.0, "40012"},
		{"Jan_2023", nil, "-"},
		{"notes", "check valve", "check valve"},
	}
	for _, tc := range cases {
		if got := f(tc.col, tc.in); got != tc.out {
			t.Errorf("decimal only %s %v = %q, want %q", tc.col, tc.in, got, tc.out)
		}
	}
}

func TestFormatSteam(t *testing.T) {
	cases := []struct {
		in  any
		out string
	}{
		{nil, "-"},
		{math.NaN(), "-"},
		{0.004, "0"},
		{-0.004, "0"},
		{0.5, "0.5"},
		{1234.567, "1,234.57"},
		{1234.5, "1,234.5"},
		{1.005, "1"},
		{2.675, "2.67"},
		{2000000.0, "2,000,000"},
	}
	for _, tc := range cases {
		if got := FormatSteam("k", tc.in); got != tc.out {
			t.Errorf("FormatSteam(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatRoundedGrouped(t *testing.T) {
	if got := FormatRoundedGrouped("k", 1234567.5); got != "1,234,568" {
		t.Errorf("got %q", got)
	}
	if got := FormatRoundedGrouped("k", nil); got != "-" {
		t.Errorf("got %q", got)
	}
	if got := FormatRoundedGrouped("k", math.NaN()); got != "-" {
		t.Errorf("got %q", got)
	}
}

func TestFormatPercentChange(t *testing.T) {
	cases := map[float64]string{
		12.5:   "+12.50%",
		-3.333: "-3.33%",
		0:      "0.00%",
	}
	for in, want := range cases {
		if got := FormatPercentChange(in); got != want {
			t.Errorf("FormatPercentChange(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimZeros(t *testing.T) {
	cases := map[string]string{
		"100.00": "100",
		"0.00":   "0",
		"10.50":  "10.5",
		"7":      "7",
		"1.25":   "1.25",
	}
	for in, want := range cases {
		if got := TrimZeros(in); got != want {
			t.Errorf("TrimZeros(%q) = %q, want %q", in, got, want)
		}
	}
}
