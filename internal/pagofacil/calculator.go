// Package pagofacil computes the amounts printed on "Pago Fácil" tax
// payment vouchers: form 1011 for the entity's own (domiciled) IGV and form
// 1041 for IGV withheld on services from non-domiciled providers.
package pagofacil

import (
	"igvtools/internal/money"
)

// IGVRate is the general sales tax rate.
const IGVRate = 0.18

// Tax codes printed on the vouchers.
const (
	CodigoDomiciliado    = "1011"
	CodigoNoDomiciliado  = "1041"
	TributoDomiciliado   = "IMP. GENERAL VTA."
	TributoNoDomiciliado = "IGV NO DOMICILIADO"
)

// Computed holds the derived amounts of a non-domiciled voucher.
type Computed struct {
	IGVUSD            float64 `json:"igvUsd"`
	IGVSoles          float64 `json:"igvSoles"`
	TotalIGVSoles     int64   `json:"totalIgvSoles"`
	Redondeo          float64 `json:"redondeo"`
	TotalFacturaSoles float64 `json:"totalFacturaSoles"`
	ImportePagarSoles int64   `json:"importePagarSoles"`
}

// ComputeND derives the voucher amounts from the USD commission base and the
// SUNAT selling exchange rate. Negative bases are computed as given.
func ComputeND(baseUSD, tc float64) Computed {
	return fromIGV(baseUSD, money.Round2(baseUSD*IGVRate), tc)
}

// fromIGV derives the soles figures from an IGV amount that may have been
// typed in rather than computed from the base.
func fromIGV(baseUSD, igvUSD, tc float64) Computed {
	igvSoles := money.Round2(igvUSD * tc)
	total := money.RoundToInt(igvSoles)
	return Computed{
		IGVUSD:            igvUSD,
		IGVSoles:          igvSoles,
		TotalIGVSoles:     total,
		Redondeo:          money.Round2(money.Sub(float64(total), igvSoles)),
		TotalFacturaSoles: money.Round2(baseUSD * tc),
		ImportePagarSoles: total,
	}
}

// DomiciledTotal is the total obligation of a domiciled accrual entered in
// soles: a plain sum of its components.
func DomiciledTotal(montoAfecto, noAfecto, igv, otrosImpuestos float64) float64 {
	return money.Sum(montoAfecto, noAfecto, igv, otrosImpuestos)
}
