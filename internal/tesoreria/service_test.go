package tesoreria

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvtools/internal/devengado"
	"igvtools/internal/store"
	"igvtools/pkg/models"
)

var testNow = time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *devengado.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	clock := func() time.Time { return testNow }
	ledger := devengado.NewManager(store.NewFileDevengadoStore(dir, true), devengado.WithClock(clock))
	svc := NewService(ledger, store.NewFilePagoStore(dir), dir).WithClock(clock)
	return svc, ledger, dir
}

func registerD(t *testing.T, ledger *devengado.Manager) *models.Devengado {
	t.Helper()
	rec, err := ledger.CreateDomiciled(context.Background(), &models.Devengado{Periodo: "09-2025", Monto: 418622})
	require.NoError(t, err)
	return rec
}

func TestGeneratePrepagoRequiresConfiguration(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	_, err := svc.Configure(ctx, rec.ID, TipoCheque, "")
	require.NoError(t, err)

	_, err = svc.GeneratePrepago(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrCuentaRequired)

	_, err = ledger.Update(ctx, rec.ID, devengado.Patch{TipoPago: devengado.Of("")})
	require.NoError(t, err)
	_, err = svc.GeneratePrepago(ctx, rec.ID)
	require.ErrorIs(t, err, ErrTipoPagoRequired)
	assert.Contains(t, err.Error(), "Debe configurar el Tipo de Pago")
}

func TestPrepagoConfirmLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	_, err := svc.Configure(ctx, rec.ID, TipoTransferencia, "TRF-009")
	assert.ErrorIs(t, err, ErrUnknownCuenta)

	configured, err := svc.Configure(ctx, rec.ID, TipoTransferencia, "TRF-001")
	require.NoError(t, err)
	require.NotNil(t, configured.CuentaBancaria)
	assert.Equal(t, "BCP", configured.CuentaBancaria.Banco)

	pago, err := svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAG-000001", pago.ID)
	assert.Equal(t, models.PagoGenerado, pago.Estado)
	assert.Equal(t, "2025-10-20", pago.FechaGeneracion)
	assert.Equal(t, 418622.0, pago.Monto)
	assert.Equal(t, models.UnidadDL19990, pago.UnidadNegocio)

	after, err := ledger.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoEnPrepago, after.Estado)

	_, err = svc.GeneratePrepago(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotPayable)

	_, err = svc.Confirm(ctx, pago.ID, "")
	assert.ErrorIs(t, err, ErrFechaPagoRequired)

	confirmed, err := svc.Confirm(ctx, pago.ID, "2025-10-22")
	require.NoError(t, err)
	assert.Equal(t, models.PagoPagado, confirmed.Estado)

	after, err = ledger.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoPagado, after.Estado)
	require.NotNil(t, after.FechaPago)
	assert.Equal(t, "2025-10-22", *after.FechaPago)

	_, err = svc.Annul(ctx, pago.ID)
	assert.ErrorIs(t, err, ErrInvalidPagoState)
}

func TestAnnulLeavesAccrualInPrepago(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	_, err := svc.Configure(ctx, rec.ID, TipoEfectivo, "")
	require.NoError(t, err)
	pago, err := svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, pago.CuentaBancaria)

	annulled, err := svc.Annul(ctx, pago.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PagoAnulado, annulled.Estado)

	after, err := ledger.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoEnPrepago, after.Estado)

	_, err = svc.Annul(ctx, "PAG-404040")
	assert.ErrorIs(t, err, ErrPagoNotFound)
}

func TestConfirmRefusesAnnulledAccrual(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	_, err := svc.Configure(ctx, rec.ID, TipoEfectivo, "")
	require.NoError(t, err)
	pago, err := svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)

	_, err = ledger.Advance(ctx, rec.ID, models.EstadoAnulado, "")
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, pago.ID, "2025-10-22")
	require.ErrorIs(t, err, ErrNotPayable)
	assert.Nil(t, confirmed)

	stored, err := svc.List(ctx, PagoFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.PagoGenerado, stored[0].Estado)
	assert.Nil(t, stored[0].FechaPago)

	after, err := ledger.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoAnulado, after.Estado)
	assert.Nil(t, after.FechaPago)
}

func TestAnnulDevengadoAnnulsGeneratedPayments(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	_, err := svc.Configure(ctx, rec.ID, TipoEfectivo, "")
	require.NoError(t, err)
	pago, err := svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)

	annulledRec, pagos, err := svc.AnnulDevengado(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoAnulado, annulledRec.Estado)
	require.Len(t, pagos, 1)
	assert.Equal(t, pago.ID, pagos[0].ID)

	stored, err := svc.ForDevengado(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.PagoAnulado, stored[0].Estado)

	_, err = svc.Confirm(ctx, pago.ID, "2025-10-22")
	assert.ErrorIs(t, err, ErrInvalidPagoState)

	_, _, err = svc.AnnulDevengado(ctx, rec.ID)
	assert.ErrorIs(t, err, devengado.ErrInvalidTransition)
}

func TestAnnulDevengadoKeepsPaidAccrual(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	_, err := svc.Configure(ctx, rec.ID, TipoEfectivo, "")
	require.NoError(t, err)
	pago, err := svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, pago.ID, "2025-10-22")
	require.NoError(t, err)

	_, _, err = svc.AnnulDevengado(ctx, rec.ID)
	require.ErrorIs(t, err, devengado.ErrInvalidTransition)

	stored, err := svc.ForDevengado(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.PagoPagado, stored[0].Estado)
}

func TestAttachSustento(t *testing.T) {
	ctx := context.Background()
	svc, ledger, dir := setup(t)
	rec := registerD(t, ledger)
	_, err := svc.Configure(ctx, rec.ID, TipoEfectivo, "")
	require.NoError(t, err)
	pago, err := svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "Constancia.PDF")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))

	_, err = svc.AttachSustento(ctx, pago.ID, "fotoCarnet", src)
	assert.ErrorIs(t, err, ErrUnknownSlot)

	updated, err := svc.AttachSustento(ctx, pago.ID, models.SlotConstanciaSunat, src)
	require.NoError(t, err)
	assert.Equal(t, models.PagoGenerado, updated.Estado)

	doc := updated.Sustento.Get(models.SlotConstanciaSunat)
	require.NotNil(t, doc)
	assert.Equal(t, "Constancia.PDF", doc.Nombre)
	assert.Equal(t, "2025-10-20", doc.Adjuntado)
	assert.Equal(t, ".pdf", filepath.Ext(doc.Archivo))

	raw, err := os.ReadFile(filepath.Join(dir, doc.Archivo))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))

	_, err = svc.AttachSustento(ctx, pago.ID, models.SlotCopiaCheque, filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, ErrSustentoFileAccess)
}

func TestPendingAndList(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := setup(t)
	rec := registerD(t, ledger)

	pending, err := svc.Pending(ctx, PendingFilter{Entidad: "fcr", UnidadNegocio: "FCR - DL 19990"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rec.ID, pending[0].ID)

	nd, err := svc.Pending(ctx, PendingFilter{UnidadNegocio: models.UnidadMacrofondo})
	require.NoError(t, err)
	assert.Len(t, nd, 2)

	_, err = svc.Configure(ctx, rec.ID, TipoEfectivo, "")
	require.NoError(t, err)
	_, err = svc.GeneratePrepago(ctx, rec.ID)
	require.NoError(t, err)

	pagos, err := svc.List(ctx, PagoFilter{Estado: models.PagoGenerado, Periodo: "09-2025"})
	require.NoError(t, err)
	assert.Len(t, pagos, 1)

	byDev, err := svc.ForDevengado(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, byDev, 1)
}

func TestCatalog(t *testing.T) {
	assert.True(t, RequiresCuenta(TipoCheque))
	assert.False(t, RequiresCuenta(TipoEfectivo))
	assert.True(t, KnownTipo(TipoDebitoEnCuenta))
	assert.False(t, KnownTipo("Bitcoin"))
	c, ok := FindCuenta(TipoTransferencia, "TRF-003")
	require.True(t, ok)
	assert.Equal(t, "USD", c.Moneda)
	assert.Len(t, Cuentas(TipoDeposito), 2)
}
