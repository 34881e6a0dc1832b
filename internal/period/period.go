// Package period converts between the two fiscal-period notations in use:
// "MM-YYYY" as typed by operators and printed on vouchers, and "YYYY-MM" as
// stored on accrual records.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DocumentPrefix is prepended to suggested domiciled document numbers.
const DocumentPrefix = "IGVFCR"

var monthNames = map[string]string{
	"01": "ENERO",
	"02": "FEBRERO",
	"03": "MARZO",
	"04": "ABRIL",
	"05": "MAYO",
	"06": "JUNIO",
	"07": "JULIO",
	"08": "AGOSTO",
	"09": "SETIEMBRE",
	"10": "OCTUBRE",
	"11": "NOVIEMBRE",
	"12": "DICIEMBRE",
}

// Period is a fiscal month.
type Period struct {
	Year  int
	Month int
}

// Parse accepts "MM-YYYY" or "YYYY-MM". The month may come without padding.
func Parse(s string) (Period, bool) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, false
	}
	var yearStr, monthStr string
	switch {
	case len(left) == 4:
		yearStr, monthStr = left, right
	case len(right) == 4:
		yearStr, monthStr = right, left
	default:
		return Period{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Period{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 || len(monthStr) > 2 {
		return Period{}, false
	}
	return Period{Year: year, Month: month}, true
}

// IsUI reports whether s is a well formed "MM-YYYY" period.
func IsUI(s string) bool {
	if len(s) != 7 || s[2] != '-' {
		return false
	}
	_, ok := Parse(s)
	return ok
}

// UI renders the period as "MM-YYYY".
func (p Period) UI() string {
	return fmt.Sprintf("%02d-%04d", p.Month, p.Year)
}

// Storage renders the period as "YYYY-MM".
func (p Period) Storage() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Previous returns the preceding month.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// LastDay returns the last calendar day of the month.
func (p Period) LastDay() int {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ToStorage converts "MM-YYYY" to "YYYY-MM". Values already in storage form
// are normalized; anything unparseable is returned unchanged.
func ToStorage(s string) string {
	p, ok := Parse(s)
	if !ok {
		return s
	}
	return p.Storage()
}

// ToUI converts "YYYY-MM" to "MM-YYYY", with the same tolerance as ToStorage.
func ToUI(s string) string {
	p, ok := Parse(s)
	if !ok {
		return s
	}
	return p.UI()
}

// Next returns the month after s in the same notation s was written in.
// Next("12-2025") is "01-2026".
func Next(s string) string {
	return shift(s, Period.Next)
}

// Previous returns the month before s in the same notation.
func Previous(s string) string {
	return shift(s, Period.Previous)
}

func shift(s string, step func(Period) Period) string {
	p, ok := Parse(s)
	if !ok {
		return s
	}
	if isStorage(s) {
		return step(p).Storage()
	}
	return step(p).UI()
}

func isStorage(s string) bool {
	left, _, _ := strings.Cut(strings.TrimSpace(s), "-")
	return len(left) == 4
}

// MonthName maps "01".."12" (or "1".."12") to the Spanish month name used on
// SUNAT forms. Unknown input is returned as is.
func MonthName(month string) string {
	key := month
	if len(key) == 1 {
		key = "0" + key
	}
	if name, ok := monthNames[key]; ok {
		return name
	}
	return month
}

// LastDayISO returns the last day of the period as "YYYY-MM-DD".
func LastDayISO(s string) string {
	p, ok := Parse(s)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.LastDay())
}

// LastDayDisplay returns the last day of the period as "DD/MM/YYYY".
func LastDayDisplay(s string) string {
	p, ok := Parse(s)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", p.LastDay(), p.Month, p.Year)
}

// SuggestedDocumentNumber builds the document number for a domiciled
// accrual: "IGVFCR" + three-letter month + year, e.g. "IGVFCRSET2025".
func SuggestedDocumentNumber(s string) string {
	p, ok := Parse(s)
	if !ok {
		return ""
	}
	name := MonthName(fmt.Sprintf("%02d", p.Month))
	return fmt.Sprintf("%s%s%04d", DocumentPrefix, name[:3], p.Year)
}

// Heading renders "SETIEMBRE DE 2025".
func Heading(s string) string {
	p, ok := Parse(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%s DE %04d", MonthName(fmt.Sprintf("%02d", p.Month)), p.Year)
}

// LongDate renders an ISO date as "24 de setiembre de 2025".
func LongDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), strings.ToLower(MonthName(fmt.Sprintf("%02d", int(t.Month())))), t.Year())
}

// Today renders t as "DD/MM/YYYY".
func Today(t time.Time) string {
	return t.Format("02/01/2006")
}

// ISODate renders t as "YYYY-MM-DD".
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseOracleDate converts the "dd/mm/yy" dates exported by the ERP into
// "20yy-mm-dd". JSON-escaped slashes are accepted. Other values yield "".
func ParseOracleDate(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), `\/`, "/")
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[2]) != 2 {
		return ""
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", 2000+year, month, day)
}

// TaxPeriodFromDate derives the "MM-YYYY" tax period of an ISO date.
func TaxPeriodFromDate(iso string) string {
	if len(iso) < 7 {
		return ""
	}
	p, ok := Parse(iso[:7])
	if !ok {
		return ""
	}
	return p.UI()
}
