// Package money holds the fixed two-decimal rounding rules used by every
// IGV calculation. Amounts travel as float64 (they come from forms and JSON)
// but every rounding step is done in decimal so half-cent cases resolve the
// same way on every platform.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Round2 rounds x to two decimals, halves going toward positive infinity.
// NaN and infinities are treated as 0.
func Round2(x float64) float64 {
	if !finite(x) {
		return 0
	}
	scaled := x * 100
	if !finite(scaled) {
		return 0
	}
	n := decimal.NewFromFloat(scaled).Add(half).Floor()
	return n.Div(hundred).InexactFloat64()
}

// RoundToInt rounds x to the nearest integer, halves going toward positive
// infinity. NaN and infinities are treated as 0.
func RoundToInt(x float64) int64 {
	if !finite(x) {
		return 0
	}
	return decimal.NewFromFloat(x).Add(half).Floor().IntPart()
}

// Sum adds the values exactly and returns the nearest float64.
func Sum(xs ...float64) float64 {
	total := decimal.Zero
	for _, x := range xs {
		if !finite(x) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(x))
	}
	return total.InexactFloat64()
}

// Sub returns a-b computed in decimal.
func Sub(a, b float64) float64 {
	if !finite(a) {
		a = 0
	}
	if !finite(b) {
		b = 0
	}
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

// ParseAmount reads a user-typed amount such as "1,234.56", "S/ 63,060" or
// "US$ 100123.78". Anything that does not parse is 0.
func ParseAmount(text string) float64 {
	cleaned := strings.TrimSpace(text)
	for _, token := range []string{"US$", "USD", "PEN", "S/.", "S/", "$", ",", " ", " "} {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// Format renders x with two decimals and comma thousands separators, the way
// amounts are printed on vouchers ("349,331.87").
func Format(x float64) string {
	if !finite(x) {
		x = 0
	}
	s := decimal.NewFromFloat(x).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return sign + group(intPart) + "." + frac
}

// FormatInt renders an integer amount with thousands separators.
func FormatInt(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + group(decimal.NewFromInt(n).String())
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
