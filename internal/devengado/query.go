package devengado

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"igvtools/internal/period"
	"igvtools/pkg/models"
)

// DefaultSuggestedPeriod is proposed when no accrual of the type exists.
const DefaultSuggestedPeriod = "09-2025"

// Filter selects records in List. Zero fields match everything.
type Filter struct {
	Periodo       string
	Tipo          models.TipoDevengado
	Estado        models.Estado
	UnidadNegocio string
	Search        string // proveedor, ruc or documento, case-insensitive
}

func (f Filter) match(r *models.Devengado) bool {
	if f.Periodo != "" && r.Periodo != period.ToStorage(f.Periodo) {
		return false
	}
	if f.Tipo != "" && tipoOf(r) != f.Tipo {
		return false
	}
	if f.Estado != "" && r.Estado != f.Estado {
		return false
	}
	if f.UnidadNegocio != "" && r.UnidadNegocio != f.UnidadNegocio {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(r.Proveedor + " " + r.RUC + " " + r.DocumentoNro)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

func tipoOf(r *models.Devengado) models.TipoDevengado {
	if r.IsND() {
		return models.TipoNoDomiciliado
	}
	return models.TipoDomiciliado
}

// Get returns a copy of a record.
func (m *Manager) Get(ctx context.Context, id int64) (*models.Devengado, error) {
	rec, err := m.get(ctx, "Get", id)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// List returns matching records ordered by id descending, newest first.
// Group members stay adjacent with the principal first.
func (m *Manager) List(ctx context.Context, f Filter) ([]*models.Devengado, error) {
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	var out []*models.Devengado
	for _, r := range all {
		if f.match(r) {
			out = append(out, r.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst orders records by id descending, keeping the two members
// of a group together under the lower id of the pair.
func sortNewestFirst(recs []*models.Devengado) {
	anchor := make(map[string]int64)
	for _, r := range recs {
		if r.GroupID == "" {
			continue
		}
		if a, ok := anchor[r.GroupID]; !ok || r.ID < a {
			anchor[r.GroupID] = r.ID
		}
	}
	key := func(r *models.Devengado) int64 {
		if a, ok := anchor[r.GroupID]; ok && r.GroupID != "" {
			return a
		}
		return r.ID
	}
	sort.SliceStable(recs, func(i, j int) bool {
		ki, kj := key(recs[i]), key(recs[j])
		if ki != kj {
			return ki > kj
		}
		return recs[i].IsPrincipal() && !recs[j].IsPrincipal()
	})
}

// ByPeriodo returns the record of the given type for a period, or nil.
// Domiciled lookups also match legacy records without a type tag; for
// non-domiciled ones only the principal is returned.
func (m *Manager) ByPeriodo(ctx context.Context, periodo string, tipo models.TipoDevengado) (*models.Devengado, error) {
	target := period.ToStorage(periodo)
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ByPeriodo: %w", err)
	}
	for _, r := range all {
		if r.Periodo != target || tipoOf(r) != tipo {
			continue
		}
		if tipo == models.TipoNoDomiciliado && !r.IsPrincipal() {
			continue
		}
		return r.Clone(), nil
	}
	return nil, nil
}

// Group returns both records of a non-domiciled group, principal first.
func (m *Manager) Group(ctx context.Context, groupID string) ([]*models.Devengado, error) {
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Group: %w", err)
	}
	principal, igv, err := pairOf(all, groupID)
	if err != nil {
		return nil, groupError("Group", groupID, err, "")
	}
	return []*models.Devengado{principal.Clone(), igv.Clone()}, nil
}

// Principal returns the principal record of the group a record belongs to,
// or the record itself when it is domiciled or already the principal.
func (m *Manager) Principal(ctx context.Context, id int64) (*models.Devengado, error) {
	rec, err := m.get(ctx, "Principal", id)
	if err != nil {
		return nil, err
	}
	if !rec.IsND() || rec.IsPrincipal() {
		return rec.Clone(), nil
	}
	members, err := m.Group(ctx, rec.GroupID)
	if err != nil {
		return nil, err
	}
	return members[0], nil
}

// Latest returns the record of the given type with the most recent period,
// preferring the principal for groups. It returns nil when none exists.
func (m *Manager) Latest(ctx context.Context, tipo models.TipoDevengado) (*models.Devengado, error) {
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	var best *models.Devengado
	for _, r := range all {
		if tipoOf(r) != tipo || (r.IsND() && !r.IsPrincipal()) {
			continue
		}
		if best == nil || r.Periodo > best.Periodo || (r.Periodo == best.Periodo && r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Clone(), nil
}

// Previous returns the record of the given type registered for the month
// before periodo, or nil.
func (m *Manager) Previous(ctx context.Context, periodo string, tipo models.TipoDevengado) (*models.Devengado, error) {
	prev := period.ToStorage(period.Previous(periodo))
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Previous: %w", err)
	}
	var found *models.Devengado
	for _, r := range all {
		if r.Periodo != prev || tipoOf(r) != tipo || r.Estado == models.EstadoAnulado {
			continue
		}
		if r.IsND() && !r.IsPrincipal() {
			continue
		}
		if found == nil || r.ID > found.ID {
			found = r
		}
	}
	if found == nil {
		return nil, nil
	}
	return found.Clone(), nil
}

// SuggestedPeriod proposes the month after the latest accrual of the type,
// in MM-YYYY.
func (m *Manager) SuggestedPeriod(ctx context.Context, tipo models.TipoDevengado) (string, error) {
	latest, err := m.Latest(ctx, tipo)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return DefaultSuggestedPeriod, nil
	}
	return period.ToUI(period.Next(latest.Periodo)), nil
}
