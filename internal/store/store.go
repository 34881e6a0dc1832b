// Package store implements the record stores behind the accrual ledger and
// the treasury: a JSON file per collection by default, or a SQL database
// through gorm.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"gorm.io/gorm"

	"igvtools/internal/config"
	"igvtools/internal/logger"
	"igvtools/pkg/services"
)

// Stores bundles the stores of one backend.
type Stores struct {
	Devengados services.DevengadoStore
	Pagos      services.PagoStore
	db         *gorm.DB
}

// Open builds the stores selected by the configuration.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	const op = "store.Open"
	log := logger.WithComponent("store")

	switch cfg.StoreBackend {
	case config.BackendFile:
		log.Debug().Str("data_dir", cfg.DataDir).Bool("seed", cfg.SeedData).Msg("Using file store")
		return &Stores{
			Devengados: NewFileDevengadoStore(cfg.DataDir, cfg.SeedData),
			Pagos:      NewFilePagoStore(cfg.DataDir),
		}, nil

	case config.BackendSQLite, config.BackendPostgres:
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			dsn = filepath.Join(cfg.DataDir, "igvtools.db")
		}
		db, err := OpenDatabase(cfg.StoreBackend, dsn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		devengados, err := NewGormDevengadoStore(ctx, db, cfg.SeedData)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pagos, err := NewGormPagoStore(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Debug().Str("backend", cfg.StoreBackend).Msg("Using SQL store")
		return &Stores{Devengados: devengados, Pagos: pagos, db: db}, nil
	}
	return nil, fmt.Errorf("%s: unknown backend %q", op, cfg.StoreBackend)
}

// Close releases the database connection, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
