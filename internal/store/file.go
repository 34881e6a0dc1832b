package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"igvtools/internal/logger"
	"igvtools/pkg/models"
	"igvtools/pkg/services"
)

// File names inside the data directory.
const (
	DevengadosFile = "igv_devengados_v1.json"
	PagosFile      = "igv_pagos_v1.json"
)

type devengadosData struct {
	Seq        int64               `json:"seq"`
	Devengados []*models.Devengado `json:"devengados"`
}

// FileDevengadoStore keeps accruals in a single JSON document. Every write
// replaces the file through a temporary file and a rename, so readers see
// either the old or the new content.
type FileDevengadoStore struct {
	path string
	seed bool
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewFileDevengadoStore opens (or lazily creates) the accrual file in dir.
// With seed set, a missing or unreadable file starts from the demonstration
// data instead of an empty ledger.
func NewFileDevengadoStore(dir string, seed bool) *FileDevengadoStore {
	return &FileDevengadoStore{
		path: filepath.Join(dir, DevengadosFile),
		seed: seed,
		log:  logger.WithComponent("store").With().Str("file", DevengadosFile).Logger(),
	}
}

func (s *FileDevengadoStore) initial() *devengadosData {
	if s.seed {
		return &devengadosData{Seq: SeedSeq, Devengados: SeedDevengados()}
	}
	return &devengadosData{Seq: 1}
}

// load reads the document, applying migrations. Callers hold s.mu.
func (s *FileDevengadoStore) load() (*devengadosData, error) {
	const op = "FileDevengadoStore.load"

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data := s.initial()
		if err := writeJSONAtomic(s.path, data); err != nil {
			return nil, fmt.Errorf("%s: initialize: %w", op, err)
		}
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read: %w", op, err)
	}

	var data devengadosData
	if err := json.Unmarshal(raw, &data); err != nil {
		aside, mvErr := setAside(s.path)
		if mvErr != nil {
			return nil, fmt.Errorf("%s: keep unreadable file: %w", op, mvErr)
		}
		s.log.Warn().Err(err).Str("moved_to", aside).Msg("Unreadable accrual file, starting over")
		fresh := s.initial()
		if err := writeJSONAtomic(s.path, fresh); err != nil {
			return nil, fmt.Errorf("%s: reset: %w", op, err)
		}
		return fresh, nil
	}
	if data.Seq < 1 {
		data.Seq = 1
	}

	if Migrate(data.Devengados) {
		s.log.Info().Int("records", len(data.Devengados)).Msg("Migrated accrual records")
		if err := writeJSONAtomic(s.path, &data); err != nil {
			return nil, fmt.Errorf("%s: save migration: %w", op, err)
		}
	}
	return &data, nil
}

// GetAll implements services.DevengadoStore.
func (s *FileDevengadoStore) GetAll(_ context.Context) ([]*models.Devengado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Devengado, len(data.Devengados))
	for i, r := range data.Devengados {
		out[i] = r.Clone()
	}
	return out, nil
}

// GetByID implements services.DevengadoStore.
func (s *FileDevengadoStore) GetByID(_ context.Context, id int64) (*models.Devengado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, r := range data.Devengados {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, services.ErrNotFound
}

// Upsert implements services.DevengadoStore. Records with ID 0 are assigned
// the next sequence values; records with an explicit id above the sequence
// move it forward.
func (s *FileDevengadoStore) Upsert(ctx context.Context, recs ...*models.Devengado) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}

	index := make(map[int64]int, len(data.Devengados))
	for i, r := range data.Devengados {
		index[r.ID] = i
	}
	for _, r := range recs {
		if r.ID == 0 {
			r.ID = data.Seq
			data.Seq++
		} else if r.ID >= data.Seq {
			data.Seq = r.ID + 1
		}
		if i, ok := index[r.ID]; ok {
			data.Devengados[i] = r.Clone()
			continue
		}
		index[r.ID] = len(data.Devengados)
		data.Devengados = append(data.Devengados, r.Clone())
	}

	if err := writeJSONAtomic(s.path, data); err != nil {
		return fmt.Errorf("FileDevengadoStore.Upsert: %w", err)
	}
	return nil
}

// NextSeq implements services.DevengadoStore.
func (s *FileDevengadoStore) NextSeq(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return 0, err
	}
	return data.Seq, nil
}

// DeleteAll implements services.DevengadoStore. The ledger goes back to its
// initial content.
func (s *FileDevengadoStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSONAtomic(s.path, s.initial()); err != nil {
		return fmt.Errorf("FileDevengadoStore.DeleteAll: %w", err)
	}
	return nil
}

type pagosData struct {
	Seq   int64          `json:"seq"`
	Pagos []*models.Pago `json:"pagos"`
}

// FilePagoStore keeps treasury payments in a JSON document next to the
// accruals.
type FilePagoStore struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewFilePagoStore opens (or lazily creates) the payments file in dir.
func NewFilePagoStore(dir string) *FilePagoStore {
	return &FilePagoStore{
		path: filepath.Join(dir, PagosFile),
		log:  logger.WithComponent("store").With().Str("file", PagosFile).Logger(),
	}
}

func (s *FilePagoStore) load() (*pagosData, error) {
	const op = "FilePagoStore.load"

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data := &pagosData{Seq: 1}
		if err := writeJSONAtomic(s.path, data); err != nil {
			return nil, fmt.Errorf("%s: initialize: %w", op, err)
		}
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read: %w", op, err)
	}
	var data pagosData
	if err := json.Unmarshal(raw, &data); err != nil {
		aside, mvErr := setAside(s.path)
		if mvErr != nil {
			return nil, fmt.Errorf("%s: keep unreadable file: %w", op, mvErr)
		}
		s.log.Warn().Err(err).Str("moved_to", aside).Msg("Unreadable payments file, starting over")
		fresh := &pagosData{Seq: 1}
		if err := writeJSONAtomic(s.path, fresh); err != nil {
			return nil, fmt.Errorf("%s: reset: %w", op, err)
		}
		return fresh, nil
	}
	if data.Seq < 1 {
		data.Seq = 1
	}
	return &data, nil
}

// GetAll implements services.PagoStore.
func (s *FilePagoStore) GetAll(_ context.Context) ([]*models.Pago, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Pago, len(data.Pagos))
	for i, p := range data.Pagos {
		out[i] = p.Clone()
	}
	return out, nil
}

// GetByID implements services.PagoStore.
func (s *FilePagoStore) GetByID(_ context.Context, id string) (*models.Pago, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, p := range data.Pagos {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, services.ErrNotFound
}

// Upsert implements services.PagoStore. An empty ID creates a payment; an
// unknown non-empty ID is ErrNotFound.
func (s *FilePagoStore) Upsert(ctx context.Context, p *models.Pago) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = PagoID(data.Seq)
		data.Seq++
		data.Pagos = append(data.Pagos, p.Clone())
	} else {
		found := false
		for i, existing := range data.Pagos {
			if existing.ID == p.ID {
				data.Pagos[i] = p.Clone()
				found = true
				break
			}
		}
		if !found {
			return services.ErrNotFound
		}
	}
	sort.SliceStable(data.Pagos, func(i, j int) bool { return data.Pagos[i].ID < data.Pagos[j].ID })

	if err := writeJSONAtomic(s.path, data); err != nil {
		return fmt.Errorf("FilePagoStore.Upsert: %w", err)
	}
	return nil
}

// DeleteAll implements services.PagoStore.
func (s *FilePagoStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSONAtomic(s.path, &pagosData{Seq: 1}); err != nil {
		return fmt.Errorf("FilePagoStore.DeleteAll: %w", err)
	}
	return nil
}

// PagoID formats a payment sequence value as "PAG-000001".
func PagoID(seq int64) string {
	return fmt.Sprintf("PAG-%06d", seq)
}

// setAside renames an unreadable data file to <name>.corrupt-<timestamp>
// next to it and returns the new path.
func setAside(path string) (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%s", path, time.Now().Format("20060102T150405.000"))
	if err := os.Rename(path, aside); err != nil {
		return "", err
	}
	return aside, nil
}

func writeJSONAtomic(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
