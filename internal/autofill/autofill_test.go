package autofill

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, time.October, 24, 9, 0, 0, 0, time.UTC)

func loadTestdata(t *testing.T) *Repository {
	t.Helper()
	r, err := Load("testdata")
	require.NoError(t, err)
	return r
}

func TestLoad(t *testing.T) {
	r := loadTestdata(t)
	assert.Len(t, r.Cases(), 3)
	assert.Equal(t, []string{"202509", "202510"}, r.Periodos())
	assert.Equal(t, []string{"Amundi", "BBVA", "BlackRock", "WELLINGTON"}, r.ProveedoresFLAR())

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestFindCase(t *testing.T) {
	r := loadTestdata(t)

	c, ok := r.FindCase(PortafolioFLAR, []string{"bbva"}, "202510")
	require.True(t, ok)
	assert.Equal(t, "FLAR-202510-BBVA", c.ID)

	c, ok = r.FindCase(PortafolioFLAR, []string{"BLACKROCK", "amundi"}, "202510")
	require.True(t, ok)
	assert.Equal(t, "FLAR-202510-MULTI", c.ID)

	c, ok = r.FindCase("flar", []string{"BBVA"}, "202510")
	require.True(t, ok, "portfolio is matched ignoring case")
	assert.Equal(t, "FLAR-202510-BBVA", c.ID)

	_, ok = r.FindCase(PortafolioFLAR, []string{"Amundi"}, "202510")
	assert.False(t, ok, "a subset of the providers is not a match")

	_, ok = r.FindCase(PortafolioMILA, []string{"BBVA"}, "202510")
	assert.False(t, ok)

	_, ok = r.FindCase(PortafolioFLAR, []string{"BBVA"}, "202511")
	assert.False(t, ok)
}

func TestCaseLookups(t *testing.T) {
	r := loadTestdata(t)
	c, ok := r.FindCase(PortafolioFLAR, []string{"BBVA"}, "202510")
	require.True(t, ok)

	h, ok := r.Header(c)
	require.True(t, ok)
	assert.Equal(t, 3.452, h.ExchangeRate)

	trx, ok := r.TrxCFL(c)
	require.True(t, ok)
	assert.Equal(t, int64(500101), trx.NumeroTransaccion)

	assert.Len(t, r.Detalles(c), 2)
}

func TestBuild(t *testing.T) {
	r := loadTestdata(t)
	c, _ := r.FindCase(PortafolioFLAR, []string{"BBVA"}, "202510")

	res, err := r.Build(c, []string{"BBVA"}, today)
	require.NoError(t, err)
	v := res.Voucher

	assert.Equal(t, "Caso 1 - BBVA octubre", res.CasoLabel)
	assert.False(t, res.Manual)
	assert.Equal(t, "BBVA", v.Proveedor)
	assert.Equal(t, "2025-10-14", v.FechaPagoServicio)
	assert.Equal(t, "10-2025", v.PeriodoTributario)
	assert.Equal(t, "1041", v.CodigoTributo)
	assert.Equal(t, 3.499, v.TCSunatVenta)
	assert.Equal(t, 3.452, v.TCSBS)
	assert.Equal(t, 100123.78, v.BaseUSD)
	assert.Equal(t, 18022.28, v.IGVUSD)
	assert.Equal(t, 63059.96, v.IGVSoles)
	assert.Equal(t, int64(63060), v.ImportePagarSoles)
	assert.Equal(t, 0.04, v.Redondeo)
	assert.Equal(t, "2025-10-24", v.FechaEmisionLima)
	assert.Empty(t, v.FacturaNro)
	assert.Empty(t, v.ExpedienteNro)

	assert.True(t, res.Readonly["baseUsd"])
	assert.False(t, res.Readonly["facturaNro"])
	assert.False(t, res.Readonly["tcSbs"])
}

func TestBuildJoinsProviders(t *testing.T) {
	r := loadTestdata(t)
	c, _ := r.FindCase(PortafolioFLAR, []string{"Amundi", "BlackRock"}, "202510")

	res, err := r.Build(c, []string{"Amundi", "BlackRock"}, today)
	require.NoError(t, err)
	assert.Equal(t, "Amundi + BlackRock", res.Voucher.Proveedor)
	assert.Equal(t, "11-2025", res.Voucher.PeriodoTributario)
	assert.Equal(t, int64(3114), res.Voucher.ImportePagarSoles)
	assert.Equal(t, 17300.0, res.Voucher.TotalFacturaSoles)
}

func TestBuildWithoutCFL(t *testing.T) {
	r := loadTestdata(t)
	c, ok := r.FindCase(PortafolioFLAR, []string{"BBVA"}, "202509")
	require.True(t, ok)

	_, err := r.Build(c, []string{"BBVA"}, today)
	assert.True(t, errors.Is(err, ErrNoCFLTransaction))
}

func TestBuildFallsBackToVoucherPeriod(t *testing.T) {
	c := CaseEntry{ID: "X", Portafolio: PortafolioFLAR, Proveedores: []string{"BBVA"}, TrxNumbers: []int64{1}}
	c.Voucher.Period = "202508"
	r := NewRepository([]CaseEntry{c}, nil, []TrxPrevia{
		{NumeroTransaccion: 1, TipoTransaccion: "CFL", FechaTransaccion: "2025-08-31", MontoDolares: 100, TipoDeCambio: 3.5},
	}, nil)

	res, err := r.Build(&c, []string{"BBVA"}, today)
	require.NoError(t, err)
	assert.Empty(t, res.Voucher.FechaPagoServicio)
	assert.Equal(t, "08-2025", res.Voucher.PeriodoTributario)
	assert.Zero(t, res.Voucher.TCSBS)
}

func TestPrefill(t *testing.T) {
	r := loadTestdata(t)

	res, err := r.Prefill(PortafolioFLAR, []string{"BBVA"}, "202510", today)
	require.NoError(t, err)
	assert.False(t, res.Manual)
	assert.Equal(t, int64(63060), res.Voucher.ImportePagarSoles)

	res, err = r.Prefill(" flar ", []string{"bbva"}, "202510", today)
	require.NoError(t, err)
	assert.False(t, res.Manual)
	assert.Equal(t, int64(63060), res.Voucher.ImportePagarSoles)

	res, err = r.Prefill(PortafolioFLAR, []string{"WELLINGTON"}, "202510", today)
	require.NoError(t, err)
	assert.True(t, res.Manual)
	assert.Zero(t, res.Voucher.BaseUSD)
	assert.False(t, res.Readonly["baseUsd"])
	assert.True(t, res.Readonly["igvUsd"])

	res, err = r.Prefill(PortafolioMILA, ProveedoresMILA, "202510", today)
	require.NoError(t, err)
	assert.True(t, res.Manual)
}
