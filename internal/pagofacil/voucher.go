package pagofacil

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"igvtools/internal/money"
	"igvtools/internal/period"
	"igvtools/pkg/models"
)

// Voucher is the non-domiciled Pago Fácil (form 1041). The derived fields
// are kept in sync by the Set* methods; callers assigning fields directly
// must call Recompute.
type Voucher struct {
	PeriodoTributario string  `json:"periodoTributario" validate:"periodo"`
	CodigoTributo     string  `json:"codigoTributo"`
	Tributo           string  `json:"tributo"`
	ImportePagarSoles int64   `json:"importePagarSoles"`
	FacturaNro        string  `json:"facturaNro" validate:"required"`
	Proveedor         string  `json:"proveedor"`
	DireccionProv     string  `json:"direccionProveedor"`
	FechaPagoServicio string  `json:"fechaPagoServicio"`
	TCSunatVenta      float64 `json:"tcSunatVenta" validate:"gt=0"`
	ExpedienteNro     string  `json:"expedienteNro" validate:"required"`
	BaseUSD           float64 `json:"baseUsd" validate:"gt=0"`
	IGVUSD            float64 `json:"igvUsd"`
	IGVSoles          float64 `json:"igvSoles"`
	Redondeo          float64 `json:"redondeo"`
	TotalIGVSoles     int64   `json:"totalIgvSoles"`
	TotalFacturaSoles float64 `json:"totalFacturaSoles"`
	TCSBS             float64 `json:"tcSbs"`
	PeriodoComision   string  `json:"periodoComision"`
	FechaEmisionLima  string  `json:"fechaEmisionLima"`
}

// NewVoucher returns an empty 1041 voucher.
func NewVoucher() *Voucher {
	return &Voucher{
		CodigoTributo: CodigoNoDomiciliado,
		Tributo:       TributoNoDomiciliado,
	}
}

// Apply copies computed amounts into the voucher.
func (v *Voucher) Apply(c Computed) {
	v.IGVUSD = c.IGVUSD
	v.IGVSoles = c.IGVSoles
	v.TotalIGVSoles = c.TotalIGVSoles
	v.Redondeo = c.Redondeo
	v.TotalFacturaSoles = c.TotalFacturaSoles
	v.ImportePagarSoles = c.ImportePagarSoles
}

// Recompute derives every amount from BaseUSD and TCSunatVenta.
func (v *Voucher) Recompute() {
	v.Apply(ComputeND(v.BaseUSD, v.TCSunatVenta))
}

// SetBaseUSD changes the commission base and re-derives the IGV.
func (v *Voucher) SetBaseUSD(base float64) {
	v.BaseUSD = base
	v.Recompute()
}

// SetIGVUSD overrides the IGV in dollars, e.g. when the invoice states a
// value that differs by a cent. Soles amounts follow the given IGV.
func (v *Voucher) SetIGVUSD(igv float64) {
	v.Apply(fromIGV(v.BaseUSD, money.Round2(igv), v.TCSunatVenta))
}

// SetTCSunatVenta changes the exchange rate. A manually entered IGV is kept.
func (v *Voucher) SetTCSunatVenta(tc float64) {
	v.TCSunatVenta = tc
	v.Apply(fromIGV(v.BaseUSD, v.IGVUSD, tc))
}

// ApplyInvoice prefills the voucher from an extracted provider invoice.
func (v *Voucher) ApplyInvoice(inv *models.ProviderInvoice) {
	if inv == nil {
		return
	}
	if inv.InvoiceNumber != "" {
		v.FacturaNro = inv.InvoiceNumber
	}
	if inv.Provider != "" {
		v.Proveedor = inv.Provider
	}
	if inv.ProviderAddress != "" {
		v.DireccionProv = inv.ProviderAddress
	}
	if inv.Period != "" {
		v.PeriodoComision = inv.Period
	}
	if !inv.PaymentDate.IsZero() {
		v.FechaPagoServicio = period.ISODate(inv.PaymentDate)
		if v.PeriodoTributario == "" {
			v.PeriodoTributario = period.TaxPeriodFromDate(v.FechaPagoServicio)
		}
	}
	if inv.NetAmount != 0 {
		v.SetBaseUSD(inv.NetAmount)
	}
}

// ValidationError reports a field that blocks voucher generation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func voucherValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("periodo", func(fl validator.FieldLevel) bool {
			return period.IsUI(fl.Field().String())
		})
	})
	return validate
}

var fieldMessages = map[string]string{
	"PeriodoTributario": "El periodo tributario debe tener el formato MM-AAAA",
	"FacturaNro":        "Debe ingresar el número de factura",
	"TCSunatVenta":      "El tipo de cambio debe ser mayor a 0",
	"ExpedienteNro":     "Debe ingresar el número de expediente",
	"BaseUSD":           "La base imponible debe ser mayor a 0",
}

// Validate checks the fields required to issue the voucher and returns one
// ValidationError per failing field, joined.
func (v *Voucher) Validate() error {
	copyForCheck := *v
	copyForCheck.FacturaNro = strings.TrimSpace(v.FacturaNro)
	copyForCheck.ExpedienteNro = strings.TrimSpace(v.ExpedienteNro)

	err := voucherValidator().Struct(&copyForCheck)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var out []error
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("failed on %s", fe.Tag())
		}
		out = append(out, &ValidationError{Field: fe.Field(), Value: fe.Value(), Message: msg})
	}
	return errors.Join(out...)
}
