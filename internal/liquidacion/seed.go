package liquidacion

import (
	"errors"

	"igvtools/internal/period"
)

// Entity data printed on liquidation documents.
const (
	EntidadNombre = "FONDO CONSOLIDADO DE RESERVAS PREVISIONALES – FCR"
	EntidadArea   = "EQUIPO DE TRABAJO DE CONTABILIDAD"
	EntidadRUC    = "20421413216"
)

// ErrPeriodUnavailable is returned when no worksheet exists for a period.
var ErrPeriodUnavailable = errors.New("Periodo no disponible")

var seeds = map[string]func() Worksheet{
	"2025-09": septiembre2025,
}

// Available reports whether a built-in worksheet exists for the period.
func Available(periodo string) bool {
	_, ok := seeds[period.ToStorage(periodo)]
	return ok
}

// SeedWorksheet returns the built-in worksheet for the period.
func SeedWorksheet(periodo string) (Worksheet, error) {
	build, ok := seeds[period.ToStorage(periodo)]
	if !ok {
		return Worksheet{}, ErrPeriodUnavailable
	}
	return build(), nil
}

func septiembre2025() Worksheet {
	return Worksheet{
		Periodo: "09-2025",
		Facturas: []LineItem{
			{ID: "f1", Concepto: "C / Factura Electrónica Alquiler", Rango: "D-JF001-0006212 al F001-0006273", Base: 2165754.19, IGV: 389835.71},
			{ID: "f2", Concepto: "C / Factura Electrónica Garantías", Rango: "D-JF001", Base: 0, IGV: 0},
		},
		Boletas: []LineItem{
			{ID: "b1", Concepto: "C / Boleta de Venta Elec Alquiler", Rango: "D-JB001-0031511 al B001-0031771", Base: 166521.18, IGV: 29973.73},
			{ID: "b2", Concepto: "C / Boleta de Venta Elec Garantías", Rango: "D-JB001-0031760", Base: 1314.07, IGV: 236.53},
		},
		NotasDebito: []LineItem{
			{ID: "nd1", Concepto: "C / Nota de Débito Elec Alq Boleta", Rango: "D-JBD01-0029385 al BD01-0029418", Base: 1015.82, IGV: 182.86},
			{ID: "nd2", Concepto: "C / Nota de Débito Elec Alq Fact", Rango: "D-JFD01-0004170 al FD01-0004212", Base: 402.62, IGV: 72.46},
		},
		NotasCredito: []LineItem{
			{ID: "nc1", Concepto: "C / Nota de Crédito Elec Alquiler boleta", Rango: "D-JBC001-0000595 - BC001-0000610", Base: -4940.65, IGV: -889.35, IsNegative: true},
			{ID: "nc2", Concepto: "C / Nota de Crédito Elec Alquiler factura", Base: -1968.94, IGV: -354.57, IsNegative: true},
			{ID: "nc3", Concepto: "C / Nota de Crédito Elec Garantía boleta", Rango: "D-JBC001-0000587 - BC001-00000611", Base: -1002.45, IGV: -180.44, IsNegative: true},
			{ID: "nc4", Concepto: "C / Nota de Crédito Elec Garantía factura", Rango: "D-JFC001-0000185 - FC001-0000186", Base: 0, IGV: 0, IsNegative: true},
		},
		NoGravadas: []LineItem{
			{ID: "ng1", Concepto: "C / Boleta"},
			{ID: "ng2", Concepto: "C / Nota de Débito", Rango: "Del BD01-0029385 al BD01-0029618/ FD01-0004170 al FD01-0004212", Base: 240.75},
			{ID: "ng3", Concepto: "C / Nota de Crédito", Rango: "Del BC001-0000587 - BC001-0000611 /FC001-0000185 - FC001-0000186", Base: -2.88},
		},
	}
}
