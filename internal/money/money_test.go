package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"scenario igv soles", 18022.28 * 3.499, 63059.96},
		{"igv usd", 100123.78 * 0.18, 18022.28},
		{"half cent goes up", 0.125, 0.13},
		{"negative half goes toward zero", -0.125, -0.12},
		{"float drift below half", 1.005, 1},
		{"already two decimals", 418621.61, 418621.61},
		{"zero", 0, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestRoundToInt(t *testing.T) {
	assert.Equal(t, int64(63060), RoundToInt(63059.96))
	assert.Equal(t, int64(418622), RoundToInt(418621.61))
	assert.Equal(t, int64(3), RoundToInt(2.5))
	assert.Equal(t, int64(-2), RoundToInt(-2.5))
	assert.Equal(t, int64(0), RoundToInt(math.NaN()))
}

func TestSum(t *testing.T) {
	got := Sum(389835.71, 0, 29973.73, 236.53, -889.35, -354.57, -180.44)
	assert.Equal(t, 418621.61, got)
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 1.0, Sum(1, math.NaN()))
}

func TestSub(t *testing.T) {
	assert.Equal(t, 0.04, Round2(Sub(63060, 63059.96)))
	assert.Equal(t, 0.1, Sub(0.3, 0.2))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1234.56, ParseAmount("1,234.56"))
	assert.Equal(t, 63060.0, ParseAmount("S/ 63,060"))
	assert.Equal(t, 100123.78, ParseAmount("US$ 100123.78"))
	assert.Equal(t, -4940.65, ParseAmount("-4,940.65"))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("abc"))
	assert.Equal(t, 0.0, ParseAmount("12..3"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "349,331.87", Format(349331.87))
	assert.Equal(t, "2,165,754.19", Format(2165754.19))
	assert.Equal(t, "0.04", Format(0.04))
	assert.Equal(t, "-4,940.65", Format(-4940.65))
	assert.Equal(t, "100.00", Format(100))
	assert.Equal(t, "63,060", FormatInt(63060))
	assert.Equal(t, "999", FormatInt(999))
	assert.Equal(t, "-1,000", FormatInt(-1000))
}
