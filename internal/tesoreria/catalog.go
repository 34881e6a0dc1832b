package tesoreria

import "igvtools/pkg/models"

// Payment types.
const (
	TipoCheque         = "Cheque"
	TipoTransferencia  = "Transferencia"
	TipoEfectivo       = "Efectivo"
	TipoCartaOrden     = "Carta Orden"
	TipoDeposito       = "Depósito en Cuenta"
	TipoDebitoEnCuenta = "Débito en cuenta"
)

// TiposPago lists the payment types offered when configuring a payment.
var TiposPago = []string{TipoCheque, TipoTransferencia, TipoEfectivo, TipoCartaOrden, TipoDeposito}

var cuentas = map[string][]models.CuentaBancaria{
	TipoCheque: {
		{ID: "CHQ-001", Banco: "BCP", NumeroMasked: "****1234", Moneda: "PEN"},
		{ID: "CHQ-002", Banco: "BBVA", NumeroMasked: "****5678", Moneda: "PEN"},
	},
	TipoTransferencia: {
		{ID: "TRF-001", Banco: "BCP", NumeroMasked: "****9012", Moneda: "PEN"},
		{ID: "TRF-002", Banco: "Interbank", NumeroMasked: "****3456", Moneda: "PEN"},
		{ID: "TRF-003", Banco: "Scotiabank", NumeroMasked: "****7890", Moneda: "USD"},
	},
	TipoEfectivo: {},
	TipoCartaOrden: {
		{ID: "CO-001", Banco: "Banco de la Nación", NumeroMasked: "****1111", Moneda: "PEN"},
	},
	TipoDeposito: {
		{ID: "DEP-001", Banco: "BCP", NumeroMasked: "****2222", Moneda: "PEN"},
		{ID: "DEP-002", Banco: "BBVA", NumeroMasked: "****3333", Moneda: "PEN"},
	},
}

// KnownTipo reports whether tipo is a payment type of the catalog. Accrual
// defaults such as "Débito en cuenta" are accepted too.
func KnownTipo(tipo string) bool {
	if tipo == TipoDebitoEnCuenta {
		return true
	}
	_, ok := cuentas[tipo]
	return ok
}

// Cuentas returns the bank accounts usable with a payment type.
func Cuentas(tipo string) []models.CuentaBancaria {
	return append([]models.CuentaBancaria(nil), cuentas[tipo]...)
}

// RequiresCuenta reports whether a payment type needs a bank account.
func RequiresCuenta(tipo string) bool {
	return len(cuentas[tipo]) > 0
}

// FindCuenta looks up an account of a payment type by id.
func FindCuenta(tipo, id string) (models.CuentaBancaria, bool) {
	for _, c := range cuentas[tipo] {
		if c.ID == id {
			return c, true
		}
	}
	return models.CuentaBancaria{}, false
}
