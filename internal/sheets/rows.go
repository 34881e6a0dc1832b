package sheets

import (
	"igvtools/internal/period"
	"igvtools/pkg/models"
)

// DevengadoHeaders are the column titles of the accrual export.
var DevengadoHeaders = []string{
	"ID", "Periodo", "Tipo", "Grupo", "Rol", "Proveedor", "RUC", "Documento",
	"Moneda", "Monto", "Base USD", "IGV USD", "Total USD", "IGV S/",
	"Estado", "Fecha Registro", "Fecha Pago", "Entidad", "Unidad Negocio",
	"Tipo Pago", "Cuenta", "Asiento", "Observación",
}

// PagoHeaders are the column titles of the payment export.
var PagoHeaders = []string{
	"ID", "Devengado", "Periodo", "Proveedor", "Moneda", "Monto", "Tipo Pago",
	"Cuenta", "Fecha Generación", "Fecha Pago", "Estado", "Sustentos",
}

// DevengadoRows converts accruals to sheet rows, in the column order of
// DevengadoHeaders. Periods are written as MM-YYYY.
func DevengadoRows(recs []*models.Devengado) [][]interface{} {
	rows := make([][]interface{}, 0, len(recs))
	for _, d := range recs {
		rows = append(rows, []interface{}{
			d.ID,
			period.ToUI(d.Periodo),
			string(d.TipoDevengado),
			d.GroupID,
			d.RolLabel(),
			d.Proveedor,
			d.RUC,
			d.DocumentoNro,
			d.Moneda,
			d.Monto,
			optionalAmount(d.MontoBaseUSD, d.IsND()),
			optionalAmount(d.MontoIgvUSD, d.IsND()),
			optionalAmount(d.TotalObligacionUSD, d.IsND()),
			optionalAmount(d.IgvSoles, d.IsND()),
			string(d.Estado),
			d.FechaRegistro,
			deref(d.FechaPago),
			d.Entidad,
			d.UnidadNegocio,
			d.TipoPago,
			cuentaLabel(d.CuentaBancaria),
			d.Asiento,
			d.Observacion,
		})
	}
	return rows
}

// PagoRows converts payments to sheet rows.
func PagoRows(pagos []*models.Pago) [][]interface{} {
	rows := make([][]interface{}, 0, len(pagos))
	for _, p := range pagos {
		rows = append(rows, []interface{}{
			p.ID,
			p.DevengadoID,
			period.ToUI(p.Periodo),
			p.Proveedor,
			p.Moneda,
			p.Monto,
			p.TipoPago,
			cuentaLabel(p.CuentaBancaria),
			p.FechaGeneracion,
			deref(p.FechaPago),
			string(p.Estado),
			attachedCount(p.Sustento),
		})
	}
	return rows
}

func optionalAmount(x float64, show bool) interface{} {
	if !show {
		return ""
	}
	return x
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cuentaLabel(c *models.CuentaBancaria) string {
	if c == nil {
		return ""
	}
	return c.Banco + " " + c.NumeroMasked
}

func attachedCount(s *models.Sustento) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, slot := range models.Slots {
		if s.Get(slot) != nil {
			n++
		}
	}
	return n
}

// columnLetter returns the A1 column name of the n-th column (1-based).
func columnLetter(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
