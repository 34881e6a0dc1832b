package devengado

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvtools/internal/pagofacil"
	"igvtools/pkg/models"
	"igvtools/pkg/services"
)

// memStore is an in-memory DevengadoStore.
type memStore struct {
	mu      sync.Mutex
	seq     int64
	records map[int64]*models.Devengado
	writes  int
}

func newMemStore(seq int64, recs ...*models.Devengado) *memStore {
	s := &memStore{seq: seq, records: make(map[int64]*models.Devengado)}
	for _, r := range recs {
		s.records[r.ID] = r.Clone()
	}
	return s
}

func (s *memStore) GetAll(_ context.Context) ([]*models.Devengado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Devengado, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*models.Devengado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *memStore) Upsert(_ context.Context, recs ...*models.Devengado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for _, r := range recs {
		if r.ID == 0 {
			r.ID = s.seq
			s.seq++
		}
		s.records[r.ID] = r.Clone()
	}
	return nil
}

func (s *memStore) NextSeq(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq, nil
}

func (s *memStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[int64]*models.Devengado)
	s.seq = 1
	return nil
}

var fixedNow = time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)

func newTestManager(s *memStore) *Manager {
	return NewManager(s, WithClock(func() time.Time { return fixedNow }))
}

func domiciled(id int64, periodo string, monto float64) *models.Devengado {
	return &models.Devengado{
		ID:            id,
		Periodo:       periodo,
		Proveedor:     "SUNAT/BANCO DE LA NACION",
		RUC:           "20131312955",
		Moneda:        "PEN",
		Monto:         monto,
		Estado:        models.EstadoRegistrado,
		TipoDevengado: models.TipoDomiciliado,
	}
}

func TestCreateNonDomiciledGroup(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(1127)
	m := newTestManager(s)

	base := &models.Devengado{
		Periodo:     "09-2025",
		Proveedor:   "BBVA Asset Management",
		RUC:         "28597854",
		Entidad:     "OTRA",
		Observacion: "COMISIÓN DE ADMINISTRACIÓN DE CARTERA SETIEMBRE 2025 – BBVA",
	}
	recs, err := m.CreateNonDomiciledGroup(ctx, base, 100123.78, 18022.28, 63060, "")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	principal, igv := recs[0], recs[1]
	assert.Equal(t, int64(1127), principal.ID)
	assert.Equal(t, int64(1128), igv.ID)
	assert.Equal(t, "GE/0001127", principal.GroupID)
	assert.Equal(t, principal.GroupID, igv.GroupID)
	assert.Equal(t, "GE/0001127", principal.DocumentoNro)
	assert.Equal(t, "GE/0001127-1", igv.DocumentoNro)
	assert.Equal(t, "202509-APF0001127", principal.Asiento)
	assert.Equal(t, principal.Asiento, igv.Asiento)
	assert.Equal(t, 118146.06, principal.Monto)
	assert.Equal(t, 18022.28, igv.Monto)
	assert.Equal(t, 118146.06, igv.TotalObligacionUSD)
	assert.Equal(t, "2025-09", principal.Periodo)
	assert.Equal(t, models.EntidadFCR, principal.Entidad)
	assert.Equal(t, "USD", igv.Moneda)
	assert.Equal(t, models.UnidadMacrofondo, principal.UnidadNegocio)
	assert.Equal(t, "Débito en cuenta", principal.TipoPago)
	assert.Equal(t, "2025-10-15", principal.FechaRegistro)
	assert.Equal(t, models.RolPrincipal, principal.Rol)
	assert.Equal(t, models.RolIGV, igv.Rol)

	issues, err := m.CheckGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCreateNonDomiciledGroupWithDocumentNumber(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(10))

	recs, err := m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "2025-09"}, 1000, 180, 630, "F001-99")
	require.NoError(t, err)
	assert.Equal(t, "F001-99", recs[0].GroupID)
	assert.Equal(t, "F001-99-1", recs[1].DocumentoNro)

	_, err = m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "2025-10"}, 1000, 180, 630, "F001-99")
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestUpdateGroupMissingOrMalformed(t *testing.T) {
	ctx := context.Background()
	orphan := &models.Devengado{ID: 5, GroupID: "GE/0000005", Rol: models.RolPrincipal, TipoDevengado: models.TipoNoDomiciliado}
	s := newMemStore(6, orphan)
	m := newTestManager(s)

	_, err := m.UpdateGroup(ctx, "GE/9999999", GroupUpdate{Proveedor: Of("X")})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = m.UpdateGroup(ctx, "GE/0000005", GroupUpdate{Proveedor: Of("X")})
	assert.ErrorIs(t, err, ErrGroupIntegrity)
	assert.Zero(t, s.writes)

	issues, err := m.CheckGroups(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Records)
}

func TestUpdateGroupRecomputesAndRenames(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(1))
	_, err := m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "09-2025", Proveedor: "A"}, 1000, 180, 630, "")
	require.NoError(t, err)
	_, err = m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "10-2025", Proveedor: "B"}, 10, 1.8, 6.3, "")
	require.NoError(t, err)

	recs, err := m.UpdateGroup(ctx, "GE/0000001", GroupUpdate{
		Proveedor:       Of("Wellington"),
		DocumentoNumero: Of("INV-77"),
		MontoBaseUSD:    Of(2000.0),
		MontoIgvUSD:     Of(360.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-77", recs[0].GroupID)
	assert.Equal(t, "INV-77-1", recs[1].DocumentoNro)
	assert.Equal(t, 2360.0, recs[0].Monto)
	assert.Equal(t, 360.0, recs[1].Monto)
	assert.Equal(t, "Wellington", recs[1].Proveedor)

	_, err = m.Group(ctx, "GE/0000001")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = m.UpdateGroup(ctx, "INV-77", GroupUpdate{DocumentoNumero: Of("GE/0000003")})
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestUpdateRoutesNDFields(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(1))
	recs, err := m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "09-2025", Proveedor: "A"}, 1000, 180, 630, "")
	require.NoError(t, err)
	childID := recs[1].ID

	cuenta := models.CuentaBancaria{ID: "TRF-001", Banco: "BCP", NumeroMasked: "****9012", Moneda: "PEN"}
	updated, err := m.Update(ctx, childID, Patch{
		Proveedor:      Of("Allspring"),
		TipoPago:       Of("Transferencia"),
		CuentaBancaria: &cuenta,
		Monto:          Of(1.0),
		Entidad:        Of("OTRA"),
	})
	require.NoError(t, err)
	assert.Equal(t, childID, updated.ID)
	assert.Equal(t, 180.0, updated.Monto)
	assert.Equal(t, models.EntidadFCR, updated.Entidad)

	group, err := m.Group(ctx, recs[0].GroupID)
	require.NoError(t, err)
	assert.Equal(t, "Allspring", group[0].Proveedor)
	assert.Equal(t, "Allspring", group[1].Proveedor)
	assert.Equal(t, "Débito en cuenta", group[0].TipoPago)
	assert.Equal(t, "Transferencia", group[1].TipoPago)
	assert.Nil(t, group[0].CuentaBancaria)
	require.NotNil(t, group[1].CuentaBancaria)
	assert.Equal(t, "TRF-001", group[1].CuentaBancaria.ID)
}

func TestUpdateUnknownRecord(t *testing.T) {
	m := newTestManager(newMemStore(1))
	_, err := m.Update(context.Background(), 42, Patch{Proveedor: Of("X")})
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.Contains(t, err.Error(), "Registro no encontrado")
}

func TestCreateDomiciledRejectsDuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(1120, domiciled(1119, "2025-09", 418622)))

	_, err := m.CreateDomiciled(ctx, &models.Devengado{Periodo: "09-2025", Monto: 1})
	require.ErrorIs(t, err, ErrDuplicatePeriod)
	assert.Contains(t, err.Error(), "Ya existe un devengado para el periodo 2025-09")

	rec, err := m.CreateDomiciled(ctx, &models.Devengado{Periodo: "10-2025", Monto: 5000})
	require.NoError(t, err)
	assert.Equal(t, int64(1120), rec.ID)
	assert.Equal(t, "SUNAT/BANCO DE LA NACION", rec.Proveedor)
	assert.Equal(t, models.EstadoRegistrado, rec.Estado)

	_, err = m.Update(ctx, rec.ID, Patch{Periodo: Of("09-2025")})
	assert.ErrorIs(t, err, ErrDuplicatePeriod)

	_, err = m.CreateDomiciled(ctx, &models.Devengado{GroupID: "X", Periodo: "11-2025"})
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(2, domiciled(1, "2025-09", 100)))

	_, err := m.Advance(ctx, 1, models.EstadoPagado, "2025-10-01")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Advance(ctx, 1, models.EstadoEnPrepago, "")
	require.NoError(t, err)

	rec, err := m.Advance(ctx, 1, models.EstadoPagado, "2025-10-01")
	require.NoError(t, err)
	require.NotNil(t, rec.FechaPago)
	assert.Equal(t, "2025-10-01", *rec.FechaPago)

	_, err = m.Advance(ctx, 1, models.EstadoAnulado, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.EstadoRegistrado, models.EstadoAnulado))
	assert.True(t, CanTransition(models.EstadoEnPrepago, models.EstadoAnulado))
	assert.False(t, CanTransition(models.EstadoAnulado, models.EstadoRegistrado))
	assert.False(t, CanTransition(models.EstadoPagado, models.EstadoEnPrepago))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(10,
		domiciled(1, "2024-12", 100),
		domiciled(2, "2025-01", 200),
	)
	m := newTestManager(s)
	_, err := m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "09-2025", Proveedor: "A"}, 1000, 180, 630, "")
	require.NoError(t, err)

	prev, err := m.Previous(ctx, "01-2025", models.TipoDomiciliado)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, int64(1), prev.ID)

	suggested, err := m.SuggestedPeriod(ctx, models.TipoDomiciliado)
	require.NoError(t, err)
	assert.Equal(t, "02-2025", suggested)

	suggested, err = m.SuggestedPeriod(ctx, models.TipoNoDomiciliado)
	require.NoError(t, err)
	assert.Equal(t, "10-2025", suggested)

	nd, err := m.ByPeriodo(ctx, "09-2025", models.TipoNoDomiciliado)
	require.NoError(t, err)
	require.NotNil(t, nd)
	assert.True(t, nd.IsPrincipal())

	all, err := m.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, int64(10), all[0].ID)
	assert.Equal(t, int64(11), all[1].ID)
	assert.Equal(t, int64(2), all[2].ID)

	onlyD, err := m.List(ctx, Filter{Tipo: models.TipoDomiciliado, Search: "sunat"})
	require.NoError(t, err)
	assert.Len(t, onlyD, 2)
}

func TestSuggestedPeriodDefault(t *testing.T) {
	m := newTestManager(newMemStore(1))
	p, err := m.SuggestedPeriod(context.Background(), models.TipoNoDomiciliado)
	require.NoError(t, err)
	assert.Equal(t, DefaultSuggestedPeriod, p)
}

func TestDraftValidateOrder(t *testing.T) {
	d := NewDraft(models.TipoDomiciliado, "09-2025")
	d.FechaRecepcion = ""
	d.Glosa = "  "

	err := d.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Debe completar todas las fechas", verr.Message)

	d.SetDates("2025-09-30")
	assert.EqualError(t, d.Validate(), "Debe ingresar la glosa del asiento")

	d.Glosa = "LIQUIDACIÓN IGV SETIEMBRE 2025"
	assert.EqualError(t, d.Validate(), "El monto del IGV debe ser mayor a 0")

	d.TotalObligacion = 418622
	assert.NoError(t, d.Validate())
}

func TestDraftFromPagoFacil(t *testing.T) {
	d := DraftFromPagoFacil(pagofacil.DomiciledHandoff{PeriodoTributario: "09-2025", ImporteIGV: 418622})
	assert.Equal(t, "IGVFCRSET2025", d.DocumentoNumero)
	assert.Equal(t, "2025-09-30", d.FechaVencimiento)
	assert.Equal(t, "Cheque", d.TipoPago)
	assert.Equal(t, "LIQUIDACIÓN IGV SETIEMBRE 2025", d.Glosa)
	assert.Equal(t, 418622.0, d.TotalObligacion)
	assert.NoError(t, d.Validate())

	dist := d.Distribution()
	require.Len(t, dist.Lines, 1)
	assert.Equal(t, "4011101", dist.Lines[0].Cuenta)
	assert.Equal(t, 418622.0, dist.TotalDebeLocal)
}

func TestDraftFromPagoFacilND(t *testing.T) {
	v := pagofacil.NewVoucher()
	v.PeriodoTributario = "09-2025"
	v.Proveedor = "BBVA Asset Management"
	v.FacturaNro = "INV-2025-09"
	v.FechaPagoServicio = "2025-09-24"
	v.PeriodoComision = "AGOSTO 2025"
	v.TCSunatVenta = 3.499
	v.SetBaseUSD(100123.78)

	d := DraftFromPagoFacilND(pagofacil.NDHandoff{Voucher: *v, Portafolio: "MILA", Proveedores: []string{"BBVA"}})
	assert.Equal(t, "28597854", d.RUC)
	assert.Equal(t, "INV-2025-09", d.DocumentoNumero)
	assert.Equal(t, "2025-09-24", d.FechaProgramacionPago)
	assert.Equal(t, "COMISIÓN DE ADMINISTRACIÓN DE CARTERA AGOSTO 2025 – BBVA Asset Management", d.Glosa)
	assert.Equal(t, 18022.28, d.IGV)
	assert.Equal(t, 63060.0, d.TotalObligacion)
	assert.True(t, d.Distribution().Pending)
}

func TestSaveCreatesAndEdits(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(1127))

	d := NewDraft(models.TipoNoDomiciliado, "09-2025")
	d.Proveedor = "Wellington"
	d.Glosa = "COMISIÓN"
	d.MontoAfecto = 100123.78
	d.IGV = 18022.28
	d.TotalObligacion = 63060
	d.IgvSoles = 63060

	recs, err := m.Save(ctx, d, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 118146.06, recs[0].Monto)
	assert.Equal(t, 63060.0, recs[1].IgvSoles)

	edit, editID, err := m.DraftForEdit(ctx, recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, recs[0].ID, editID)
	assert.Equal(t, 100123.78, edit.MontoAfecto)
	assert.Equal(t, 63060.0, edit.TotalObligacion)

	edit.IGV = 18022.30
	edit.Glosa = "COMISIÓN EDITADA"
	updated, err := m.Save(ctx, edit, editID)
	require.NoError(t, err)
	assert.Equal(t, 118146.08, updated[0].Monto)
	assert.Equal(t, 18022.30, updated[1].Monto)
	assert.Equal(t, "COMISIÓN EDITADA", updated[1].Observacion)

	dd := DraftFromPagoFacil(pagofacil.DomiciledHandoff{PeriodoTributario: "09-2025", ImporteIGV: 418622})
	dRecs, err := m.Save(ctx, dd, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1129), dRecs[0].ID)
	assert.Equal(t, "IGVFCRSET2025", dRecs[0].DocumentoNro)

	_, err = m.Save(ctx, dd, 0)
	assert.ErrorIs(t, err, ErrDuplicatePeriod)
}

func TestDraftFromCopyAndPrevious(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newMemStore(10, domiciled(1, "2025-08", 350000)))
	recs, err := m.CreateNonDomiciledGroup(ctx, &models.Devengado{Periodo: "08-2025", Proveedor: "Allspring", Observacion: "COMISIÓN AGOSTO"}, 1000, 180, 630, "F-1")
	require.NoError(t, err)

	cp, err := m.DraftFromCopy(ctx, recs[1].ID, "09-2025")
	require.NoError(t, err)
	assert.Empty(t, cp.DocumentoNumero)
	assert.Equal(t, 1180.0, cp.TotalObligacion)
	assert.Equal(t, "COMISIÓN DE ADMINISTRACIÓN DE CARTERA SETIEMBRE 2025 – Allspring", cp.Glosa)

	prev, found, err := m.DraftFromPrevious(ctx, "09-2025", models.TipoDomiciliado)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 350000.0, prev.TotalObligacion)
	assert.Equal(t, "LIQUIDACIÓN IGV AGOSTO 2025", prev.Glosa)
	assert.Equal(t, "IGVFCRSET2025", prev.DocumentoNumero)

	prevND, found, err := m.DraftFromPrevious(ctx, "09-2025", models.TipoNoDomiciliado)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 630.0, prevND.TotalObligacion)
	assert.Equal(t, "COMISIÓN AGOSTO", prevND.Glosa)

	_, found, err = m.DraftFromPrevious(ctx, "03-2025", models.TipoDomiciliado)
	require.NoError(t, err)
	assert.False(t, found)
}
