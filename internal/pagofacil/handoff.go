package pagofacil

import (
	"igvtools/internal/period"
)

// DomiciledHandoff is what the liquidation screen passes on when an accrual
// is generated from a form 1011 voucher.
type DomiciledHandoff struct {
	PeriodoTributario string `json:"periodoTributario"` // MM-YYYY
	ImporteIGV        int64  `json:"importeIGV"`
}

// DomiciledVoucher is the form 1011 summary for a liquidation.
type DomiciledVoucher struct {
	PeriodoTributario string `json:"periodoTributario"`
	CodigoTributo     string `json:"codigoTributo"`
	Tributo           string `json:"tributo"`
	ImportePagar      int64  `json:"importePagar"`
}

// NewDomiciledVoucher builds the 1011 voucher for a payable amount.
func NewDomiciledVoucher(periodo string, importe int64) DomiciledVoucher {
	return DomiciledVoucher{
		PeriodoTributario: period.ToUI(periodo),
		CodigoTributo:     CodigoDomiciliado,
		Tributo:           TributoDomiciliado,
		ImportePagar:      importe,
	}
}

// Handoff returns the data the accrual registration needs.
func (d DomiciledVoucher) Handoff() DomiciledHandoff {
	return DomiciledHandoff{PeriodoTributario: d.PeriodoTributario, ImporteIGV: d.ImportePagar}
}

// NDHandoff carries a finished 1041 voucher together with the portfolio
// and providers it was built for.
type NDHandoff struct {
	Voucher     Voucher  `json:"voucher"`
	Portafolio  string   `json:"portafolio"`
	Proveedores []string `json:"proveedores"`
}
