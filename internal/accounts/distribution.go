package accounts

import (
	"math"

	"igvtools/internal/money"
)

// Line is one row of an accounting distribution. Amounts are in soles
// (Local) and dollars (USD); only one side of each row is non-zero.
type Line struct {
	Entry
	DebeLocal  float64 `json:"debeLocal"`
	HaberLocal float64 `json:"haberLocal"`
	DebeUSD    float64 `json:"debeUsd"`
	HaberUSD   float64 `json:"haberUsd"`
}

// Distribution is the set of lines proposed for an accrual together with
// its totals. Diferencia is only an indicator; nothing is rejected when it
// is not zero.
type Distribution struct {
	Lines           []Line  `json:"lines"`
	TotalDebeLocal  float64 `json:"totalDebeLocal"`
	TotalHaberLocal float64 `json:"totalHaberLocal"`
	TotalDebeUSD    float64 `json:"totalDebeUsd"`
	TotalHaberUSD   float64 `json:"totalHaberUsd"`
	DiferenciaLocal float64 `json:"diferenciaLocal"`
	DiferenciaUSD   float64 `json:"diferenciaUsd"`
	Pending         bool    `json:"pending"`
}

// Balanced reports whether debits equal credits in both currencies.
func (d Distribution) Balanced() bool {
	return d.DiferenciaLocal == 0 && d.DiferenciaUSD == 0
}

// DistributeND builds the four non-domiciled lines: commission and IGV on
// the credit side, then the same commission and the IGV expense on the
// debit side. Soles amounts are converted per line at tc.
func DistributeND(res Resolution, baseUSD, igvUSD, tc float64) Distribution {
	baseSoles := money.Round2(baseUSD * tc)
	igvSoles := money.Round2(igvUSD * tc)

	lines := []Line{
		{Entry: res.Haber, HaberLocal: baseSoles, HaberUSD: baseUSD},
		{Entry: IGVServicioND, HaberLocal: igvSoles, HaberUSD: igvUSD},
		{Entry: res.Debe, DebeLocal: baseSoles, DebeUSD: baseUSD},
		{Entry: IGVNoDomiciliado, DebeLocal: igvSoles, DebeUSD: igvUSD},
	}
	d := totals(lines)
	d.Pending = res.Pending
	return d
}

// DistributeD builds the single domiciled line: the whole IGV amount on the
// entity's own IGV account.
func DistributeD(monto float64) Distribution {
	return totals([]Line{{Entry: IGVCuentaPropia, DebeLocal: monto}})
}

func totals(lines []Line) Distribution {
	var debeL, haberL, debeU, haberU []float64
	for _, l := range lines {
		debeL = append(debeL, l.DebeLocal)
		haberL = append(haberL, l.HaberLocal)
		debeU = append(debeU, l.DebeUSD)
		haberU = append(haberU, l.HaberUSD)
	}
	d := Distribution{
		Lines:           lines,
		TotalDebeLocal:  money.Sum(debeL...),
		TotalHaberLocal: money.Sum(haberL...),
		TotalDebeUSD:    money.Sum(debeU...),
		TotalHaberUSD:   money.Sum(haberU...),
	}
	d.DiferenciaLocal = math.Abs(money.Sub(d.TotalDebeLocal, d.TotalHaberLocal))
	d.DiferenciaUSD = math.Abs(money.Sub(d.TotalDebeUSD, d.TotalHaberUSD))
	return d
}
