package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvtools/internal/config"
	"igvtools/pkg/models"
	"igvtools/pkg/services"
)

// stores returns each backend under test, fresh.
func stores(t *testing.T, seed bool) map[string]*Stores {
	t.Helper()
	ctx := context.Background()

	fileDir := t.TempDir()
	out := map[string]*Stores{
		"file": {
			Devengados: NewFileDevengadoStore(fileDir, seed),
			Pagos:      NewFilePagoStore(fileDir),
		},
	}

	db, err := OpenDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	dev, err := NewGormDevengadoStore(ctx, db, seed)
	require.NoError(t, err)
	pag, err := NewGormPagoStore(ctx, db)
	require.NoError(t, err)
	sqlStores := &Stores{Devengados: dev, Pagos: pag, db: db}
	t.Cleanup(func() { _ = sqlStores.Close() })
	out["sqlite"] = sqlStores

	return out
}

func TestDevengadoStoreSequence(t *testing.T) {
	for name, s := range stores(t, false) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			next, err := s.Devengados.NextSeq(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), next)

			a := &models.Devengado{Periodo: "2025-09", Proveedor: "A"}
			b := &models.Devengado{Periodo: "2025-09", Proveedor: "B"}
			require.NoError(t, s.Devengados.Upsert(ctx, a, b))
			assert.Equal(t, int64(1), a.ID)
			assert.Equal(t, int64(2), b.ID)

			next, err = s.Devengados.NextSeq(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), next)

			a.Proveedor = "A2"
			require.NoError(t, s.Devengados.Upsert(ctx, a))
			got, err := s.Devengados.GetByID(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "A2", got.Proveedor)

			all, err := s.Devengados.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)

			_, err = s.Devengados.GetByID(ctx, 99)
			assert.ErrorIs(t, err, services.ErrNotFound)

			require.NoError(t, s.Devengados.Upsert(ctx, &models.Devengado{ID: 50, Periodo: "2025-01"}))
			next, err = s.Devengados.NextSeq(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(51), next)
		})
	}
}

func TestDevengadoStoreRoundTripsOptionalFields(t *testing.T) {
	for name, s := range stores(t, false) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fecha := "2025-10-01"
			rec := &models.Devengado{
				Periodo:        "2025-09",
				FechaPago:      &fecha,
				CuentaBancaria: &models.CuentaBancaria{ID: "TRF-003", Banco: "Scotiabank", NumeroMasked: "****7890", Moneda: "USD"},
				GroupID:        "GE/0000001",
				Rol:            models.RolIGV,
				MontoIgvUSD:    18022.28,
			}
			require.NoError(t, s.Devengados.Upsert(ctx, rec))

			got, err := s.Devengados.GetByID(ctx, rec.ID)
			require.NoError(t, err)
			require.NotNil(t, got.FechaPago)
			assert.Equal(t, fecha, *got.FechaPago)
			require.NotNil(t, got.CuentaBancaria)
			assert.Equal(t, "Scotiabank", got.CuentaBancaria.Banco)
			assert.Equal(t, models.RolIGV, got.Rol)
			assert.Equal(t, 18022.28, got.MontoIgvUSD)
		})
	}
}

func TestDevengadoStoreSeedAndReset(t *testing.T) {
	for name, s := range stores(t, true) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			all, err := s.Devengados.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 10)

			next, err := s.Devengados.NextSeq(ctx)
			require.NoError(t, err)
			assert.Equal(t, SeedSeq, next)

			require.NoError(t, s.Devengados.Upsert(ctx, &models.Devengado{Periodo: "2025-09"}))
			require.NoError(t, s.Devengados.DeleteAll(ctx))

			all, err = s.Devengados.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 10)
		})
	}
}

func TestPagoStore(t *testing.T) {
	for name, s := range stores(t, false) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p := &models.Pago{DevengadoID: 1125, Periodo: "2025-12", Monto: 63060, Estado: models.PagoGenerado}
			require.NoError(t, s.Pagos.Upsert(ctx, p))
			assert.Equal(t, "PAG-000001", p.ID)

			q := &models.Pago{DevengadoID: 1120, Estado: models.PagoGenerado}
			require.NoError(t, s.Pagos.Upsert(ctx, q))
			assert.Equal(t, "PAG-000002", q.ID)

			p.Estado = models.PagoPagado
			p.Sustento = &models.Sustento{}
			p.Sustento.Set(models.SlotVoucherBancario, &models.Documento{Nombre: "voucher.pdf", Archivo: "x.pdf"})
			require.NoError(t, s.Pagos.Upsert(ctx, p))

			got, err := s.Pagos.GetByID(ctx, "PAG-000001")
			require.NoError(t, err)
			assert.Equal(t, models.PagoPagado, got.Estado)
			require.NotNil(t, got.Sustento)
			require.NotNil(t, got.Sustento.VoucherBancario)
			assert.Equal(t, "voucher.pdf", got.Sustento.VoucherBancario.Nombre)

			err = s.Pagos.Upsert(ctx, &models.Pago{ID: "PAG-999999"})
			assert.ErrorIs(t, err, services.ErrNotFound)

			require.NoError(t, s.Pagos.DeleteAll(ctx))
			all, err := s.Pagos.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			r := &models.Pago{Estado: models.PagoGenerado}
			require.NoError(t, s.Pagos.Upsert(ctx, r))
			assert.Equal(t, "PAG-000001", r.ID)
		})
	}
}

func TestMigrate(t *testing.T) {
	recs := []*models.Devengado{
		{ID: 1, Periodo: "10-2025"},
		{ID: 2, Periodo: "2025-09", GroupID: "GE/1", Entidad: "bbva"},
		{ID: 3, Periodo: "2025-08", Entidad: "FCR", UnidadNegocio: models.UnidadDL19990, TipoDevengado: models.TipoDomiciliado},
	}
	assert.True(t, Migrate(recs))

	assert.Equal(t, "2025-10", recs[0].Periodo)
	assert.Equal(t, models.EntidadFCR, recs[0].Entidad)
	assert.Equal(t, models.UnidadDL19990, recs[0].UnidadNegocio)
	assert.Equal(t, models.TipoDomiciliado, recs[0].TipoDevengado)

	assert.Equal(t, models.EntidadFCR, recs[1].Entidad)
	assert.Equal(t, models.UnidadMacrofondo, recs[1].UnidadNegocio)
	assert.Equal(t, models.TipoNoDomiciliado, recs[1].TipoDevengado)

	assert.False(t, Migrate(recs[2:]))
}

func TestFileStoreMigratesOnLoad(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"seq": 5, "devengados": [{"id": 4, "periodo": "09-2025", "monto": 10, "estado": "REGISTRADO"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DevengadosFile), []byte(legacy), 0o644))

	s := NewFileDevengadoStore(dir, false)
	got, err := s.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "2025-09", got.Periodo)
	assert.Equal(t, models.UnidadDL19990, got.UnidadNegocio)

	raw, err := os.ReadFile(filepath.Join(dir, DevengadosFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"periodo": "2025-09"`)
}

func TestFileStoreRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DevengadosFile), []byte("{not json"), 0o644))

	s := NewFileDevengadoStore(dir, true)
	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 10)

	kept, err := filepath.Glob(filepath.Join(dir, DevengadosFile+".corrupt-*"))
	require.NoError(t, err)
	require.Len(t, kept, 1)
	raw, err := os.ReadFile(kept[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestPagoStoreKeepsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PagosFile), []byte("[]]"), 0o644))

	s := NewFilePagoStore(dir)
	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	kept, err := filepath.Glob(filepath.Join(dir, PagosFile+".corrupt-*"))
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestOpenFileBackend(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendFile, DataDir: t.TempDir()}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(context.Background(), &config.Config{StoreBackend: "redis"})
	assert.Error(t, err)
}
