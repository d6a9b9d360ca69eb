package core

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dash is the placeholder rendered for missing values.
const Dash = "-"

// Formatter renders a single cell. The column key is passed so that
// formatters can leave identifier columns alone.
type Formatter func(column string, v any) string

var nzTag = language.MustParse("en-NZ")

// Fixed renders v with exactly places decimals, rounding half away from zero.
func Fixed(v float64, places int32) string {
	return exact(v).StringFixed(places)
}

// exact returns the full binary expansion of v, so 1.005 (stored as
// 1.00499999999999989...) rounds down to 1.00 rather than up.
func exact(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NewFromFloat(v)
	}
	return decimal.RequireFromString(new(big.Float).SetFloat64(v).Text('f', exactDigits))
}

const exactDigits = 40

// TrimZeros drops trailing zeros and a dangling decimal point from a fixed
// decimal string ("12.50" -> "12.5", "3.00" -> "3").
func TrimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Grouped renders v with en-NZ thousands separators and at most maxFrac
// fraction digits, trailing zeros omitted.
func Grouped(v float64, maxFrac int32) string {
	d := exact(v).Round(maxFrac)
	neg := d.Sign() < 0
	d = d.Abs()
	whole := d.Truncate(0)
	// message.Printer is not safe for concurrent use.
	p := message.NewPrinter(nzTag)
	s := p.Sprintf("%d", whole.IntPart())
	if frac := d.Sub(whole); maxFrac > 0 && !frac.IsZero() {
		s += TrimZeros(frac.StringFixed(maxFrac))[1:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func finite(v any) (float64, bool) {
	n, ok := Number(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// FormatThreshold shows small magnitudes with two decimals and everything
// from 100 up as a grouped integer.
func FormatThreshold(_ string, v any) string {
	if v == nil {
		return Dash
	}
	n, ok := Number(v)
	if !ok {
		return Text(v)
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.Abs(n) < 100 {
		return Fixed(n, 2)
	}
	return Grouped(n, 0)
}

// FormatTrimmed renders numbers with two decimals, trailing zeros trimmed.
func FormatTrimmed(_ string, v any) string {
	if v == nil {
		return Dash
	}
	n, ok := finite(v)
	if !ok {
		if _, isNum := Number(v); isNum {
			return Dash
		}
		return Text(v)
	}
	return TrimZeros(Fixed(n, 2))
}

// FormatClampedTrimmed clamps negative readings to zero before trimming.
func FormatClampedTrimmed(col string, v any) string {
	if n, ok := finite(v); ok && n < 0 {
		v = 0.0
	}
	return FormatTrimmed(col, v)
}

// FormatClampedFixed clamps negative readings to zero and keeps two decimals.
func FormatClampedFixed(_ string, v any) string {
	if v == nil {
		return Dash
	}
	n, ok := finite(v)
	if !ok {
		if _, isNum := Number(v); isNum {
			return Dash
		}
		return Text(v)
	}
	return Fixed(math.Max(n, 0), 2)
}

// FormatDecimalOnly formats numbers that carry a fractional part and prints
// whole numbers verbatim. The listed columns are never formatted.
func FormatDecimalOnly(raw ...string) Formatter {
	skip := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		skip[c] = struct{}{}
	}
	return func(col string, v any) string {
		if v == nil {
			return Dash
		}
		n, ok := finite(v)
		if !ok {
			return Text(v)
		}
		if _, raw := skip[col]; raw || n == math.Trunc(n) {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return TrimZeros(Fixed(n, 2))
	}
}

// FormatSteam renders near-zero readings as "0" and the rest grouped with
// up to two decimals.
func FormatSteam(_ string, v any) string {
	n, ok := finite(v)
	if !ok {
		if v != nil {
			if _, isNum := Number(v); !isNum {
				return Text(v)
			}
		}
		return Dash
	}
	if math.Abs(n) < 0.01 {
		return "0"
	}
	return Grouped(n, 2)
}

// FormatRoundedGrouped rounds to an integer and groups thousands.
func FormatRoundedGrouped(_ string, v any) string {
	n, ok := finite(v)
	if !ok {
		if v != nil {
			if _, isNum := Number(v); !isNum {
				return Text(v)
			}
		}
		return Dash
	}
	return Grouped(n, 0)
}

// FormatGrouped2 groups thousands with up to two decimals.
func FormatGrouped2(_ string, v any) string {
	n, ok := finite(v)
	if !ok {
		return Text(v)
	}
	return Grouped(n, 2)
}

// FormatPercentChange renders a signed percentage such as "+12.50%".
func FormatPercentChange(v float64) string {
	s := Fixed(v, 2) + "%"
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatPercent renders a share with three decimals ("12.345%").
func FormatPercent(v float64) string {
	return Fixed(v, 3) + "%"
}

// Round2 rounds a chart value to two decimals the way Fixed does.
func Round2(v float64) float64 {
	f, _ := exact(v).Round(2).Float64()
	return f
}
