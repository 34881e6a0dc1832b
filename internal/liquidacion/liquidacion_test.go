package liquidacion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateWithoutDebitNotes(t *testing.T) {
	w, err := SeedWorksheet("09-2025")
	require.NoError(t, err)
	w.NotasDebito = nil

	got := Aggregate(w)

	assert.Equal(t, 389835.71, got.Facturas.IGV)
	assert.Equal(t, 30210.26, got.Boletas.IGV)
	assert.Equal(t, -1424.36, got.NotasCredito.IGV)
	assert.Equal(t, 418621.61, got.IGVGravado)
	assert.Equal(t, 418621.61, got.IGVNeto)
	assert.Equal(t, int64(418622), got.ImportePagar)
	assert.Zero(t, got.SaldoAFavor)
}

func TestAggregateSeed(t *testing.T) {
	w, err := SeedWorksheet("2025-09")
	require.NoError(t, err)

	got := Aggregate(w)

	assert.Equal(t, Subtotal{Base: 1418.44, IGV: 255.32}, got.NotasDebito)
	assert.Equal(t, Subtotal{Base: 237.87, IGV: 0}, got.NoGravadas)
	assert.Equal(t, 2327095.84, got.BaseGravada)
	assert.Equal(t, 418876.93, got.IGVNeto)
	assert.Equal(t, int64(418877), got.ImportePagar)
	assert.Equal(t, 420301.29, got.SubtotalPositivos.IGV)
}

func TestAggregateDoesNotMutate(t *testing.T) {
	w, _ := SeedWorksheet("09-2025")
	before := w.Facturas[0]

	_ = Aggregate(w)
	updated, err := w.WithAmount(Facturas, "f1", 100, 18)
	require.NoError(t, err)

	assert.Equal(t, before, w.Facturas[0])
	assert.Equal(t, 100.0, updated.Facturas[0].Base)
	assert.Equal(t, 18.0, updated.Facturas[0].IGV)
	assert.Equal(t, Aggregate(w), Aggregate(w))
}

func TestWithAmountUnknownLine(t *testing.T) {
	w, _ := SeedWorksheet("09-2025")
	_, err := w.WithAmount(Boletas, "zz", 1, 1)
	assert.Error(t, err)
}

func TestAggregateCreditBalance(t *testing.T) {
	w := Worksheet{
		Facturas:     []LineItem{{ID: "f1", Base: 100, IGV: 18}},
		NotasCredito: []LineItem{{ID: "nc1", Base: -500, IGV: -90.4, IsNegative: true}},
	}
	got := Aggregate(w)
	assert.Equal(t, int64(0), got.ImportePagar)
	assert.Equal(t, int64(72), got.SaldoAFavor)
}

func TestAvailability(t *testing.T) {
	assert.True(t, Available("09-2025"))
	assert.False(t, Available("10-2025"))
	_, err := SeedWorksheet("10-2025")
	assert.ErrorIs(t, err, ErrPeriodUnavailable)
}

func TestLoadWorksheet(t *testing.T) {
	w, err := LoadWorksheet(strings.NewReader(`{"periodo":"10-2025","facturas":[{"id":"f1","base":1000,"igv":180}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(180), Aggregate(w).ImportePagar)

	_, err = LoadWorksheet(strings.NewReader(`{`))
	assert.Error(t, err)
}
