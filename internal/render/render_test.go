package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvtools/internal/accounts"
	"igvtools/internal/liquidacion"
	"igvtools/internal/pagofacil"
)

func fixedClock() time.Time {
	return time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)
}

func requirePDF(t *testing.T, path string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")), "not a PDF")
	assert.Greater(t, len(raw), 1000)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "Liquidacion_IGV_PagoFacil_09-2025.pdf", DomiciledFileName("2025-09"))
	assert.Equal(t, "PagoFacil_ND_09-2025.pdf", NonDomiciledFileName("09-2025"))
}

func TestDomiciled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := liquidacion.Worksheet{
		Periodo:      "09-2025",
		Facturas:     []liquidacion.LineItem{{ID: "f1", Concepto: "Alquiler de inmuebles", Rango: "F001-00012 al F001-00020", Base: 1000, IGV: 180}},
		NotasCredito: []liquidacion.LineItem{{ID: "nc1", Concepto: "Descuento", Rango: "FC01-0003", Base: -100, IGV: -18, IsNegative: true}},
		NoGravadas:   []liquidacion.LineItem{{ID: "ng1", Concepto: "Intereses", Rango: "-", Base: 50}},
	}
	v := pagofacil.NewDomiciledVoucher("09-2025", liquidacion.Aggregate(w).ImportePagar)

	path, err := NewRenderer(dir).WithClock(fixedClock).Domiciled(v, w)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Liquidacion_IGV_PagoFacil_09-2025.pdf"), path)
	requirePDF(t, path)
}

func TestNonDomiciled(t *testing.T) {
	dir := t.TempDir()
	v := pagofacil.NewVoucher()
	v.PeriodoTributario = "09-2025"
	v.FacturaNro = "GE/0002499"
	v.Proveedor = "BBVA Asset Management S.A."
	v.FechaPagoServicio = "2025-09-16"
	v.ExpedienteNro = "OGR.RF20250000153"
	v.TCSunatVenta = 3.499
	v.TCSBS = 3.489
	v.PeriodoComision = "Abril - Junio 2025"
	v.FechaEmisionLima = "2025-09-24"
	v.SetBaseUSD(100123.78)

	res := accounts.Resolve("MILA", []string{"BBVA"})
	dist := accounts.DistributeND(res, v.BaseUSD, v.IGVUSD, v.TCSunatVenta)

	path, err := NewRenderer(dir).NonDomiciled(v, "MILA", &dist)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "PagoFacil_ND_09-2025.pdf"), path)
	requirePDF(t, path)

	path, err = NewRenderer(dir).NonDomiciled(v, "", nil)
	require.NoError(t, err)
	requirePDF(t, path)
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "16/09/2025", displayDate("2025-09-16"))
	assert.Equal(t, "", displayDate(""))
	assert.Equal(t, "1.500", rate(1.5))
	assert.Equal(t, "", blankZero(0))
}
