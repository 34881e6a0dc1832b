package tesoreria

import (
	"errors"
	"fmt"
)

var (
	ErrPagoNotFound       = errors.New("Pago no encontrado")
	ErrTipoPagoRequired   = errors.New("Debe configurar el Tipo de Pago antes de generar el Pre-Pago")
	ErrCuentaRequired     = errors.New("Debe configurar la Cuenta Bancaria antes de generar el Pre-Pago")
	ErrFechaPagoRequired  = errors.New("Debe ingresar la fecha de pago")
	ErrUnknownTipoPago    = errors.New("tipo de pago desconocido")
	ErrUnknownCuenta      = errors.New("cuenta bancaria no corresponde al tipo de pago")
	ErrUnknownSlot        = errors.New("tipo de sustento desconocido")
	ErrNotPayable         = errors.New("el devengado no está disponible para tesorería")
	ErrInvalidPagoState   = errors.New("estado del pago no permite la operación")
	ErrAccrualSync        = errors.New("no se pudo actualizar el devengado; el pago no fue confirmado")
	ErrSustentoFileAccess = errors.New("no se pudo leer el archivo de sustento")
)

// TreasuryError wraps a failed treasury operation with the payment and
// accrual it concerned.
type TreasuryError struct {
	Op          string
	Err         error
	Details     string
	PagoID      string
	DevengadoID int64
}

// Error implements the error interface.
func (e *TreasuryError) Error() string {
	target := ""
	switch {
	case e.PagoID != "":
		target = " " + e.PagoID
	case e.DevengadoID != 0:
		target = fmt.Sprintf(" devengado %d", e.DevengadoID)
	}
	if e.Details != "" {
		return fmt.Sprintf("tesoreria: %s%s: %s: %v", e.Op, target, e.Details, e.Err)
	}
	return fmt.Sprintf("tesoreria: %s%s: %v", e.Op, target, e.Err)
}

// Unwrap returns the underlying error.
func (e *TreasuryError) Unwrap() error {
	return e.Err
}

// Is matches the underlying error.
func (e *TreasuryError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
