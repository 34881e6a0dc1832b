// Package devengado manages accrual (devengado) records. Domiciled accruals
// are single records, one per period. Non-domiciled accruals are groups of
// exactly two records, PRINCIPAL and IGV, that are always created and
// edited together through the Manager.
package devengado

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"igvtools/internal/logger"
	"igvtools/internal/money"
	"igvtools/internal/period"
	"igvtools/pkg/models"
	"igvtools/pkg/services"
)

// Manager is the single entry point for mutating accrual records.
type Manager struct {
	store services.DevengadoStore
	now   func() time.Time
	mu    sync.Mutex
	log   zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, used for registration dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager over the given store.
func NewManager(store services.DevengadoStore, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
		log:   logger.WithComponent("devengado"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) today() string {
	return period.ISODate(m.now())
}

// Of returns a pointer to v, for building patches.
func Of[T any](v T) *T {
	return &v
}

// CreateDomiciled registers a domiciled accrual. Only one domiciled accrual
// may exist per period.
func (m *Manager) CreateDomiciled(ctx context.Context, rec *models.Devengado) (*models.Devengado, error) {
	const op = "CreateDomiciled"

	if rec == nil {
		return nil, recordError(op, 0, ErrWrongType, "registro vacío")
	}
	if rec.IsND() {
		return nil, recordError(op, 0, ErrWrongType, "use CreateNonDomiciledGroup para devengados ND")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := rec.Clone()
	out.ID = 0
	out.Periodo = period.ToStorage(out.Periodo)
	out.TipoDevengado = models.TipoDomiciliado
	applyDomiciledDefaults(out, m.today())

	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: load records: %w", op, err)
	}
	if dup := findDomiciled(all, out.Periodo, 0); dup != nil {
		return nil, recordError(op, dup.ID, ErrDuplicatePeriod,
			fmt.Sprintf("Ya existe un devengado para el periodo %s", out.Periodo))
	}

	if err := m.store.Upsert(ctx, out); err != nil {
		return nil, fmt.Errorf("%s: save record: %w", op, err)
	}

	m.log.Info().
		Int64("id", out.ID).
		Str("periodo", out.Periodo).
		Float64("monto", out.Monto).
		Msg("Domiciled accrual registered")

	return out.Clone(), nil
}

func applyDomiciledDefaults(rec *models.Devengado, today string) {
	p := ParamsDomiciliado
	if rec.Estado == "" {
		rec.Estado = models.EstadoRegistrado
	}
	if rec.Proveedor == "" {
		rec.Proveedor = p.Proveedor
	}
	if rec.RUC == "" {
		rec.RUC = p.RUC
	}
	if rec.Moneda == "" {
		rec.Moneda = p.Moneda
	}
	if rec.Entidad == "" {
		rec.Entidad = p.Entidad
	}
	if rec.UnidadNegocio == "" {
		rec.UnidadNegocio = p.UnidadNegocio
	}
	if rec.TipoDocumento == "" {
		rec.TipoDocumento = p.TipoDocumento
	}
	if rec.TipoServicio == "" {
		rec.TipoServicio = p.TipoServicio
	}
	if rec.TipoPago == "" {
		rec.TipoPago = p.TipoPago
	}
	if rec.FechaRegistro == "" {
		rec.FechaRegistro = today
	}
}

func findDomiciled(all []*models.Devengado, periodo string, exceptID int64) *models.Devengado {
	for _, r := range all {
		if r.ID != exceptID && !r.IsND() && r.Periodo == periodo {
			return r
		}
	}
	return nil
}

// CreateNonDomiciledGroup registers a non-domiciled accrual as a PRINCIPAL
// record (base plus IGV, in USD) and an IGV record (IGV only). Both share
// the group id, journal code and group-level fields of base. documentoNumero
// becomes the group id; when empty one is generated as GE/<seq>.
func (m *Manager) CreateNonDomiciledGroup(ctx context.Context, base *models.Devengado, montoBaseUSD, montoIgvUSD, igvSoles float64, documentoNumero string) ([]*models.Devengado, error) {
	const op = "CreateNonDomiciledGroup"

	if base == nil {
		base = &models.Devengado{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seq, err := m.store.NextSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: read sequence: %w", op, err)
	}

	groupID := strings.TrimSpace(documentoNumero)
	if groupID == "" {
		groupID = fmt.Sprintf("GE/%07d", seq)
	}

	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: load records: %w", op, err)
	}
	if len(groupMembers(all, groupID)) > 0 {
		return nil, groupError(op, groupID, ErrGroupExists, "")
	}

	periodo := period.ToStorage(base.Periodo)
	asiento := fmt.Sprintf("%s-APF%07d", strings.ReplaceAll(periodo, "-", ""), seq)
	total := money.Round2(montoBaseUSD + montoIgvUSD)

	shared := base.Clone()
	shared.ID = 0
	shared.Periodo = periodo
	shared.TipoDevengado = models.TipoNoDomiciliado
	shared.GroupID = groupID
	shared.MontoBaseUSD = montoBaseUSD
	shared.MontoIgvUSD = montoIgvUSD
	shared.TotalObligacionUSD = total
	shared.IgvSoles = igvSoles
	shared.Asiento = asiento
	applyNDDefaults(shared, m.today())

	principal := shared.Clone()
	principal.Rol = models.RolPrincipal
	principal.DocumentoNro = groupID
	principal.Monto = total

	igv := shared.Clone()
	igv.Rol = models.RolIGV
	igv.DocumentoNro = groupID + "-1"
	igv.Monto = montoIgvUSD

	if err := m.store.Upsert(ctx, principal, igv); err != nil {
		return nil, groupError(op, groupID, err, "no se guardó el grupo")
	}

	after, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: reload records: %w", op, err)
	}
	if _, _, err := pairOf(after, groupID); err != nil {
		return nil, groupError(op, groupID, ErrGroupIntegrity, "el grupo no quedó con dos registros")
	}

	m.log.Info().
		Str("group_id", groupID).
		Str("asiento", asiento).
		Int64("principal_id", principal.ID).
		Int64("igv_id", igv.ID).
		Float64("monto_base_usd", montoBaseUSD).
		Float64("monto_igv_usd", montoIgvUSD).
		Msg("Non-domiciled accrual group registered")

	return []*models.Devengado{principal.Clone(), igv.Clone()}, nil
}

func applyNDDefaults(rec *models.Devengado, today string) {
	p := ParamsNoDomiciliado
	rec.Entidad = p.Entidad
	rec.Moneda = p.Moneda
	if rec.Estado == "" {
		rec.Estado = models.EstadoRegistrado
	}
	if rec.TipoDocumento == "" {
		rec.TipoDocumento = p.TipoDocumento
	}
	if rec.TipoServicio == "" {
		rec.TipoServicio = p.TipoServicio
	}
	if rec.TipoPago == "" {
		rec.TipoPago = p.TipoPago
	}
	if rec.UnidadNegocio == "" {
		rec.UnidadNegocio = p.UnidadNegocio
	}
	rec.FechaRegistro = today
}

// GroupUpdate lists the group-level fields an edit may change. Nil fields
// are left as they are.
type GroupUpdate struct {
	Periodo         *string
	Proveedor       *string
	RUC             *string
	Observacion     *string
	TipoDocumento   *string
	TipoServicio    *string
	TipoPago        *string
	UnidadNegocio   *string
	DocumentoNumero *string
	MontoBaseUSD    *float64
	MontoIgvUSD     *float64
	IgvSoles        *float64
}

// UpdateGroup applies upd to both records of a non-domiciled group and
// recomputes each record's amount from its role. Either both records are
// written or neither is.
func (m *Manager) UpdateGroup(ctx context.Context, groupID string, upd GroupUpdate) ([]*models.Devengado, error) {
	const op = "UpdateGroup"

	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: load records: %w", op, err)
	}
	principal, igv, err := pairOf(all, groupID)
	if err != nil {
		return nil, groupError(op, groupID, err, "")
	}

	updated, err := applyGroup(all, principal, igv, upd)
	if err != nil {
		return nil, groupError(op, groupID, err, "")
	}
	if err := m.store.Upsert(ctx, updated...); err != nil {
		return nil, groupError(op, groupID, err, "no se guardó el grupo")
	}

	m.log.Info().
		Str("group_id", groupID).
		Str("new_group_id", updated[0].GroupID).
		Float64("monto_principal", updated[0].Monto).
		Float64("monto_igv", updated[1].Monto).
		Msg("Non-domiciled accrual group updated")

	return []*models.Devengado{updated[0].Clone(), updated[1].Clone()}, nil
}

// applyGroup returns updated copies of the pair, principal first.
func applyGroup(all []*models.Devengado, principal, igv *models.Devengado, upd GroupUpdate) ([]*models.Devengado, error) {
	p, c := principal.Clone(), igv.Clone()
	members := []*models.Devengado{p, c}

	if upd.DocumentoNumero != nil {
		newID := strings.TrimSpace(*upd.DocumentoNumero)
		if newID != "" && newID != p.GroupID {
			if len(groupMembers(all, newID)) > 0 {
				return nil, ErrGroupExists
			}
			for _, r := range members {
				r.GroupID = newID
			}
			p.DocumentoNro = newID
			c.DocumentoNro = newID + "-1"
		}
	}

	for _, r := range members {
		if upd.Periodo != nil {
			r.Periodo = period.ToStorage(*upd.Periodo)
		}
		if upd.Proveedor != nil {
			r.Proveedor = *upd.Proveedor
		}
		if upd.RUC != nil {
			r.RUC = *upd.RUC
		}
		if upd.Observacion != nil {
			r.Observacion = *upd.Observacion
		}
		if upd.TipoDocumento != nil {
			r.TipoDocumento = *upd.TipoDocumento
		}
		if upd.TipoServicio != nil {
			r.TipoServicio = *upd.TipoServicio
		}
		if upd.TipoPago != nil {
			r.TipoPago = *upd.TipoPago
		}
		if upd.UnidadNegocio != nil {
			r.UnidadNegocio = *upd.UnidadNegocio
		}
		if upd.MontoBaseUSD != nil {
			r.MontoBaseUSD = *upd.MontoBaseUSD
		}
		if upd.MontoIgvUSD != nil {
			r.MontoIgvUSD = *upd.MontoIgvUSD
		}
		if upd.IgvSoles != nil {
			r.IgvSoles = *upd.IgvSoles
		}
		r.Entidad = models.EntidadFCR
		r.TipoDevengado = models.TipoNoDomiciliado
		r.TotalObligacionUSD = money.Round2(r.MontoBaseUSD + r.MontoIgvUSD)
	}
	p.Monto = p.TotalObligacionUSD
	c.Monto = c.MontoIgvUSD
	return members, nil
}

// Patch lists the fields a single-record edit may change. On records of a
// non-domiciled group, group-level fields are applied to both records;
// TipoPago and CuentaBancaria stay per record; Monto, Moneda and Entidad are
// derived and ignored.
type Patch struct {
	Periodo        *string
	Proveedor      *string
	RUC            *string
	DocumentoNro   *string
	Moneda         *string
	Monto          *float64
	Observacion    *string
	Entidad        *string
	UnidadNegocio  *string
	TipoPago       *string
	TipoServicio   *string
	TipoDocumento  *string
	CuentaBancaria *models.CuentaBancaria
	// ClearCuenta removes the bank account, e.g. for cash payments.
	ClearCuenta bool
}

// Update merges p into the record. Identity fields (group id, role, USD
// amounts, journal code) are never taken from the patch.
func (m *Manager) Update(ctx context.Context, id int64, p Patch) (*models.Devengado, error) {
	const op = "Update"

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.get(ctx, op, id)
	if err != nil {
		return nil, err
	}
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: load records: %w", op, err)
	}

	if !existing.IsND() {
		rec := existing.Clone()
		if p.Periodo != nil {
			newPeriodo := period.ToStorage(*p.Periodo)
			if dup := findDomiciled(all, newPeriodo, rec.ID); dup != nil {
				return nil, recordError(op, id, ErrDuplicatePeriod,
					fmt.Sprintf("Ya existe un devengado para el periodo %s", newPeriodo))
			}
			rec.Periodo = newPeriodo
		}
		setString(&rec.Proveedor, p.Proveedor)
		setString(&rec.RUC, p.RUC)
		setString(&rec.DocumentoNro, p.DocumentoNro)
		setString(&rec.Moneda, p.Moneda)
		setString(&rec.Observacion, p.Observacion)
		setString(&rec.Entidad, p.Entidad)
		setString(&rec.UnidadNegocio, p.UnidadNegocio)
		setString(&rec.TipoPago, p.TipoPago)
		setString(&rec.TipoServicio, p.TipoServicio)
		setString(&rec.TipoDocumento, p.TipoDocumento)
		if p.Monto != nil {
			rec.Monto = *p.Monto
		}
		applyCuenta(rec, p)
		if err := m.store.Upsert(ctx, rec); err != nil {
			return nil, fmt.Errorf("%s: save record: %w", op, err)
		}
		m.log.Info().Int64("id", id).Msg("Accrual updated")
		return rec.Clone(), nil
	}

	principal, igv, err := pairOf(all, existing.GroupID)
	if err != nil {
		return nil, groupError(op, existing.GroupID, err, "")
	}
	upd := GroupUpdate{
		Periodo:       p.Periodo,
		Proveedor:     p.Proveedor,
		RUC:           p.RUC,
		Observacion:   p.Observacion,
		TipoDocumento: p.TipoDocumento,
		TipoServicio:  p.TipoServicio,
		UnidadNegocio: p.UnidadNegocio,
	}
	if p.DocumentoNro != nil {
		root := strings.TrimSpace(*p.DocumentoNro)
		if existing.Rol == models.RolIGV {
			root = strings.TrimSuffix(root, "-1")
		}
		upd.DocumentoNumero = &root
	}
	updated, err := applyGroup(all, principal, igv, upd)
	if err != nil {
		return nil, groupError(op, existing.GroupID, err, "")
	}

	target := updated[0]
	if existing.ID == updated[1].ID {
		target = updated[1]
	}
	setString(&target.TipoPago, p.TipoPago)
	applyCuenta(target, p)
	if p.Monto != nil || p.Moneda != nil || p.Entidad != nil {
		m.log.Debug().Int64("id", id).Msg("Ignoring derived fields on non-domiciled record")
	}

	if err := m.store.Upsert(ctx, updated...); err != nil {
		return nil, groupError(op, existing.GroupID, err, "no se guardó el grupo")
	}
	m.log.Info().Int64("id", id).Str("group_id", target.GroupID).Msg("Non-domiciled accrual updated")
	return target.Clone(), nil
}

func applyCuenta(rec *models.Devengado, p Patch) {
	switch {
	case p.ClearCuenta:
		rec.CuentaBancaria = nil
	case p.CuentaBancaria != nil:
		cb := *p.CuentaBancaria
		rec.CuentaBancaria = &cb
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

var transitions = map[models.Estado][]models.Estado{
	models.EstadoRegistrado: {models.EstadoEnPrepago, models.EstadoAnulado},
	models.EstadoEnPrepago:  {models.EstadoPagado, models.EstadoAnulado},
}

// CanTransition reports whether an accrual may move from one state to another.
func CanTransition(from, to models.Estado) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Advance moves a record to a new state. fechaPago is stored when moving to
// PAGADO.
func (m *Manager) Advance(ctx context.Context, id int64, estado models.Estado, fechaPago string) (*models.Devengado, error) {
	const op = "Advance"

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.get(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rec.Estado, estado) {
		return nil, recordError(op, id, ErrInvalidTransition, fmt.Sprintf("%s -> %s", rec.Estado, estado))
	}

	out := rec.Clone()
	out.Estado = estado
	if estado == models.EstadoPagado && fechaPago != "" {
		f := fechaPago
		out.FechaPago = &f
	}
	if err := m.store.Upsert(ctx, out); err != nil {
		return nil, fmt.Errorf("%s: save record: %w", op, err)
	}

	m.log.Info().
		Int64("id", id).
		Str("from", string(rec.Estado)).
		Str("to", string(estado)).
		Msg("Accrual state changed")
	return out.Clone(), nil
}

// Reset removes every record.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	m.log.Warn().Msg("Accrual store reset")
	return nil
}

func (m *Manager) get(ctx context.Context, op string, id int64) (*models.Devengado, error) {
	rec, err := m.store.GetByID(ctx, id)
	if errors.Is(err, services.ErrNotFound) || (err == nil && rec == nil) {
		return nil, recordError(op, id, ErrRecordNotFound, "")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: load record %d: %w", op, id, err)
	}
	return rec, nil
}

func groupMembers(all []*models.Devengado, groupID string) []*models.Devengado {
	var out []*models.Devengado
	for _, r := range all {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out
}

// pairOf returns the two records of a group or the reason they are not a
// valid pair.
func pairOf(all []*models.Devengado, groupID string) (principal, igv *models.Devengado, err error) {
	if groupID == "" {
		return nil, nil, ErrGroupNotFound
	}
	members := groupMembers(all, groupID)
	if len(members) == 0 {
		return nil, nil, ErrGroupNotFound
	}
	if len(members) != 2 {
		return nil, nil, ErrGroupIntegrity
	}
	for _, r := range members {
		switch r.Rol {
		case models.RolPrincipal:
			principal = r
		case models.RolIGV:
			igv = r
		}
	}
	if principal == nil || igv == nil {
		return nil, nil, ErrGroupIntegrity
	}
	return principal, igv, nil
}
