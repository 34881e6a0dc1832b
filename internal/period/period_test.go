package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, ok := Parse("09-2025")
	require.True(t, ok)
	assert.Equal(t, Period{Year: 2025, Month: 9}, p)

	p, ok = Parse("2025-12")
	require.True(t, ok)
	assert.Equal(t, Period{Year: 2025, Month: 12}, p)

	p, ok = Parse("1-2026")
	require.True(t, ok)
	assert.Equal(t, "01-2026", p.UI())

	for _, bad := range []string{"", "2025", "13-2025", "00-2025", "ab-2025", "09/2025", "09-25"} {
		_, ok := Parse(bad)
		assert.False(t, ok, bad)
	}
}

func TestIsUI(t *testing.T) {
	assert.True(t, IsUI("09-2025"))
	assert.False(t, IsUI("2025-09"))
	assert.False(t, IsUI("9-2025"))
	assert.False(t, IsUI("13-2025"))
}

func TestConversions(t *testing.T) {
	assert.Equal(t, "2025-09", ToStorage("09-2025"))
	assert.Equal(t, "2025-09", ToStorage("2025-09"))
	assert.Equal(t, "09-2025", ToUI("2025-09"))
	assert.Equal(t, "09-2025", ToUI("09-2025"))
	assert.Equal(t, "garbage", ToStorage("garbage"))
}

func TestRollover(t *testing.T) {
	assert.Equal(t, "01-2026", Next("12-2025"))
	assert.Equal(t, "10-2025", Next("09-2025"))
	assert.Equal(t, "2026-01", Next("2025-12"))
	assert.Equal(t, "12-2024", Previous("01-2025"))
	assert.Equal(t, "2024-12", Previous("2025-01"))
	assert.Equal(t, "08-2025", Previous("09-2025"))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "ENERO", MonthName("01"))
	assert.Equal(t, "SETIEMBRE", MonthName("09"))
	assert.Equal(t, "SETIEMBRE", MonthName("9"))
	assert.Equal(t, "DICIEMBRE", MonthName("12"))
	assert.Equal(t, "13", MonthName("13"))
}

func TestLastDay(t *testing.T) {
	assert.Equal(t, "2025-09-30", LastDayISO("09-2025"))
	assert.Equal(t, "2024-02-29", LastDayISO("02-2024"))
	assert.Equal(t, "2025-02-28", LastDayISO("2025-02"))
	assert.Equal(t, "31/12/2025", LastDayDisplay("12-2025"))
	assert.Equal(t, "", LastDayISO("x"))
}

func TestSuggestedDocumentNumber(t *testing.T) {
	assert.Equal(t, "IGVFCRSET2025", SuggestedDocumentNumber("09-2025"))
	assert.Equal(t, "IGVFCRENE2025", SuggestedDocumentNumber("2025-01"))
	assert.Equal(t, "IGVFCRDIC2025", SuggestedDocumentNumber("12-2025"))
}

func TestDisplayHelpers(t *testing.T) {
	assert.Equal(t, "SETIEMBRE DE 2025", Heading("09-2025"))
	assert.Equal(t, "24 de setiembre de 2025", LongDate("2025-09-24"))
	assert.Equal(t, "1 de enero de 2026", LongDate("2026-01-01"))
	assert.Equal(t, "05/03/2026", Today(time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)))
}

func TestOracleDates(t *testing.T) {
	assert.Equal(t, "2025-09-16", ParseOracleDate("16/09/25"))
	assert.Equal(t, "", ParseOracleDate("2025-09-16"))
	assert.Equal(t, "09-2025", TaxPeriodFromDate("2025-09-16"))
	assert.Equal(t, "", TaxPeriodFromDate(""))
}
