package services

import (
	"context"
	"errors"

	"igvtools/pkg/models"
)

// ErrNotFound is returned by stores when a lookup by id has no match.
var ErrNotFound = errors.New("record not found")

// DevengadoStore persists accrual records. Implementations keep a monotonic
// id sequence: records saved with ID 0 receive the next value, in order.
type DevengadoStore interface {
	// GetAll returns every record.
	GetAll(ctx context.Context) ([]*models.Devengado, error)

	// GetByID returns the record or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Devengado, error)

	// Upsert writes all records atomically, inserting or replacing by id.
	Upsert(ctx context.Context, recs ...*models.Devengado) error

	// NextSeq returns the id the next inserted record will receive.
	NextSeq(ctx context.Context) (int64, error)

	// DeleteAll resets the store.
	DeleteAll(ctx context.Context) error
}

// PagoStore persists treasury payments. Payments saved with an empty ID
// receive the next "PAG-000001" style identifier.
type PagoStore interface {
	GetAll(ctx context.Context) ([]*models.Pago, error)
	GetByID(ctx context.Context, id string) (*models.Pago, error)
	Upsert(ctx context.Context, p *models.Pago) error
	DeleteAll(ctx context.Context) error
}
