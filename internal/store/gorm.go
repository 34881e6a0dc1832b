package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"igvtools/internal/logger"
	"igvtools/pkg/models"
	"igvtools/pkg/services"
)

const (
	seqDevengados = "devengados"
	seqPagos      = "pagos"
)

// sequence stores the next id to hand out for a table.
type sequence struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value int64
}

func (sequence) TableName() string { return "store_sequences" }

// OpenDatabase connects to sqlite or postgres and creates the tables.
func OpenDatabase(backend, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch backend {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger("gorm"),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if backend == "sqlite" {
		// one writer at a time; transactions would otherwise hit SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(2)
	}

	if err := db.AutoMigrate(&sequence{}, &models.Devengado{}, &models.Pago{}); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	return db, nil
}

func ensureSequence(tx *gorm.DB, name string, initial int64) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sequence{Name: name, Value: initial}).Error
}

// reserve returns the current value of a sequence under a row lock.
func reserve(tx *gorm.DB, name string) (int64, error) {
	var seq sequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "name = ?", name).Error
	if err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return seq.Value, nil
}

func advance(tx *gorm.DB, name string, value int64) error {
	return tx.Model(&sequence{}).Where("name = ?", name).Update("value", value).Error
}

// GormDevengadoStore keeps accruals in a SQL table. Multi-record writes run
// in one transaction.
type GormDevengadoStore struct {
	db   *gorm.DB
	seed bool
	log  zerolog.Logger
}

// NewGormDevengadoStore prepares the accrual table: it migrates legacy rows
// and, with seed set, loads the demonstration data into an empty table.
func NewGormDevengadoStore(ctx context.Context, db *gorm.DB, seed bool) (*GormDevengadoStore, error) {
	s := &GormDevengadoStore{db: db, seed: seed, log: logger.WithComponent("store").With().Str("table", "devengados").Logger()}
	if err := s.prepare(ctx); err != nil {
		return nil, fmt.Errorf("NewGormDevengadoStore: %w", err)
	}
	return s, nil
}

func (s *GormDevengadoStore) prepare(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Devengado{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return s.reset(tx)
		}
		if err := ensureSequence(tx, seqDevengados, 1); err != nil {
			return err
		}

		var recs []*models.Devengado
		if err := tx.Find(&recs).Error; err != nil {
			return err
		}
		if !Migrate(recs) {
			return nil
		}
		for _, r := range recs {
			if err := tx.Save(r).Error; err != nil {
				return err
			}
		}
		s.log.Info().Int("records", len(recs)).Msg("Migrated accrual records")
		return nil
	})
}

// reset empties the table and loads the initial content.
func (s *GormDevengadoStore) reset(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&models.Devengado{}).Error; err != nil {
		return err
	}
	initial := int64(1)
	if s.seed {
		initial = SeedSeq
		if err := tx.Create(SeedDevengados()).Error; err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	if err := ensureSequence(tx, seqDevengados, initial); err != nil {
		return err
	}
	return advance(tx, seqDevengados, initial)
}

// GetAll implements services.DevengadoStore.
func (s *GormDevengadoStore) GetAll(ctx context.Context) ([]*models.Devengado, error) {
	var recs []*models.Devengado
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("GormDevengadoStore.GetAll: %w", err)
	}
	return recs, nil
}

// GetByID implements services.DevengadoStore.
func (s *GormDevengadoStore) GetByID(ctx context.Context, id int64) (*models.Devengado, error) {
	var rec models.Devengado
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GormDevengadoStore.GetByID: %w", err)
	}
	return &rec, nil
}

// Upsert implements services.DevengadoStore. Ids handed out to records are
// cleared again if the transaction fails.
func (s *GormDevengadoStore) Upsert(ctx context.Context, recs ...*models.Devengado) error {
	var assigned []*models.Devengado
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		start, err := reserve(tx, seqDevengados)
		if err != nil {
			return err
		}
		next := start
		for _, r := range recs {
			if r.ID == 0 {
				r.ID = next
				next++
				assigned = append(assigned, r)
			} else if r.ID >= next {
				next = r.ID + 1
			}
		}
		if next != start {
			if err := advance(tx, seqDevengados, next); err != nil {
				return err
			}
		}
		for _, r := range recs {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(r).Error; err != nil {
				return fmt.Errorf("write record %d: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		for _, r := range assigned {
			r.ID = 0
		}
		return fmt.Errorf("GormDevengadoStore.Upsert: %w", err)
	}
	return nil
}

// NextSeq implements services.DevengadoStore.
func (s *GormDevengadoStore) NextSeq(ctx context.Context) (int64, error) {
	var seq sequence
	if err := s.db.WithContext(ctx).First(&seq, "name = ?", seqDevengados).Error; err != nil {
		return 0, fmt.Errorf("GormDevengadoStore.NextSeq: %w", err)
	}
	return seq.Value, nil
}

// DeleteAll implements services.DevengadoStore.
func (s *GormDevengadoStore) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Transaction(s.reset); err != nil {
		return fmt.Errorf("GormDevengadoStore.DeleteAll: %w", err)
	}
	return nil
}

// GormPagoStore keeps treasury payments in a SQL table.
type GormPagoStore struct {
	db *gorm.DB
}

// NewGormPagoStore prepares the payments sequence.
func NewGormPagoStore(ctx context.Context, db *gorm.DB) (*GormPagoStore, error) {
	if err := ensureSequence(db.WithContext(ctx), seqPagos, 1); err != nil {
		return nil, fmt.Errorf("NewGormPagoStore: %w", err)
	}
	return &GormPagoStore{db: db}, nil
}

// GetAll implements services.PagoStore.
func (s *GormPagoStore) GetAll(ctx context.Context) ([]*models.Pago, error) {
	var pagos []*models.Pago
	if err := s.db.WithContext(ctx).Order("id").Find(&pagos).Error; err != nil {
		return nil, fmt.Errorf("GormPagoStore.GetAll: %w", err)
	}
	return pagos, nil
}

// GetByID implements services.PagoStore.
func (s *GormPagoStore) GetByID(ctx context.Context, id string) (*models.Pago, error) {
	var p models.Pago
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GormPagoStore.GetByID: %w", err)
	}
	return &p, nil
}

// Upsert implements services.PagoStore.
func (s *GormPagoStore) Upsert(ctx context.Context, p *models.Pago) error {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ID == "" {
			seq, err := reserve(tx, seqPagos)
			if err != nil {
				return err
			}
			p.ID = PagoID(seq)
			created = true
			if err := advance(tx, seqPagos, seq+1); err != nil {
				return err
			}
			return tx.Create(p).Error
		}

		var n int64
		if err := tx.Model(&models.Pago{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return services.ErrNotFound
		}
		return tx.Save(p).Error
	})
	if err != nil {
		if created {
			p.ID = ""
		}
		if errors.Is(err, services.ErrNotFound) {
			return err
		}
		return fmt.Errorf("GormPagoStore.Upsert: %w", err)
	}
	return nil
}

// DeleteAll implements services.PagoStore.
func (s *GormPagoStore) DeleteAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Pago{}).Error; err != nil {
			return err
		}
		return advance(tx, seqPagos, 1)
	})
	if err != nil {
		return fmt.Errorf("GormPagoStore.DeleteAll: %w", err)
	}
	return nil
}
