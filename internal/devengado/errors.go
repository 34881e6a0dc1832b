package devengado

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when an accrual id does not exist.
	ErrRecordNotFound = errors.New("Registro no encontrado")

	// ErrGroupNotFound is returned when a group id matches no record.
	ErrGroupNotFound = errors.New("Grupo ND no encontrado")

	// ErrGroupIntegrity is returned when a non-domiciled group does not hold
	// exactly one PRINCIPAL and one IGV record.
	ErrGroupIntegrity = errors.New("grupo ND inconsistente")

	// ErrGroupExists is returned when renaming a group onto an id already in use.
	ErrGroupExists = errors.New("ya existe un grupo ND con ese número de documento")

	// ErrDuplicatePeriod is returned when a domiciled accrual already exists
	// for the period.
	ErrDuplicatePeriod = errors.New("devengado duplicado para el periodo")

	// ErrInvalidTransition is returned for state changes outside the
	// REGISTRADO -> EN_PREPAGO -> PAGADO / ANULADO lifecycle.
	ErrInvalidTransition = errors.New("transición de estado no permitida")

	// ErrWrongType is returned when a domiciled-only operation receives a
	// non-domiciled record, or the reverse.
	ErrWrongType = errors.New("tipo de devengado no corresponde a la operación")
)

// LedgerError wraps a failure of a ledger operation with the record or group
// it concerned.
type LedgerError struct {
	Op      string
	Err     error
	Details string
	ID      int64
	GroupID string
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	var target string
	switch {
	case e.GroupID != "":
		target = fmt.Sprintf(" (grupo %s)", e.GroupID)
	case e.ID != 0:
		target = fmt.Sprintf(" (id %d)", e.ID)
	}
	if e.Details != "" {
		return fmt.Sprintf("devengado: %s%s: %s: %v", e.Op, target, e.Details, e.Err)
	}
	return fmt.Sprintf("devengado: %s%s: %v", e.Op, target, e.Err)
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// Is matches the underlying error.
func (e *LedgerError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func recordError(op string, id int64, err error, details string) error {
	return &LedgerError{Op: op, ID: id, Err: err, Details: details}
}

func groupError(op, groupID string, err error, details string) error {
	return &LedgerError{Op: op, GroupID: groupID, Err: err, Details: details}
}

// ValidationError is a user-facing rejection of a draft. Message is meant to
// be shown as is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}
