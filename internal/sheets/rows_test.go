package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvtools/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/sheet")
	assert.Error(t, err)
}

func TestDevengadoRows(t *testing.T) {
	fecha := "2025-10-02"
	recs := []*models.Devengado{
		{
			ID: 1120, Periodo: "2025-08", Proveedor: "SUNAT/BANCO DE LA NACION", RUC: "20131312955",
			DocumentoNro: "IGVFCRAGO2025", Moneda: "PEN", Monto: 346650, Estado: models.EstadoPagado,
			FechaPago: &fecha, TipoDevengado: models.TipoDomiciliado,
			CuentaBancaria: &models.CuentaBancaria{ID: "CHQ-001", Banco: "BCP", NumeroMasked: "****1234"},
		},
		{
			ID: 1125, Periodo: "2025-12", GroupID: "GE/0002499", Rol: models.RolPrincipal,
			TipoDevengado: models.TipoNoDomiciliado, Moneda: "USD", Monto: 118146.06,
			MontoBaseUSD: 100123.78, MontoIgvUSD: 18022.28, TotalObligacionUSD: 118146.06, IgvSoles: 63060,
		},
	}

	rows := DevengadoRows(recs)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Len(t, r, len(DevengadoHeaders))
	}

	assert.Equal(t, "08-2025", rows[0][1])
	assert.Equal(t, "", rows[0][10], "USD columns are blank for domiciled rows")
	assert.Equal(t, "2025-10-02", rows[0][16])
	assert.Equal(t, "BCP ****1234", rows[0][20])

	assert.Equal(t, "Principal", rows[1][4])
	assert.Equal(t, 100123.78, rows[1][10])
	assert.Equal(t, "", rows[1][16])
}

func TestPagoRows(t *testing.T) {
	p := &models.Pago{ID: "PAG-000001", DevengadoID: 1121, Periodo: "2025-09", Estado: models.PagoGenerado}
	p.Sustento = &models.Sustento{}
	p.Sustento.Set(models.SlotConstanciaSunat, &models.Documento{Nombre: "constancia.pdf"})

	rows := PagoRows([]*models.Pago{p})
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(PagoHeaders))
	assert.Equal(t, "09-2025", rows[0][2])
	assert.Equal(t, 1, rows[0][11])
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "W", columnLetter(23))
	assert.Equal(t, "AA", columnLetter(27))
}
