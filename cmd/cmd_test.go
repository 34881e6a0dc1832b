package cmd

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvtools/internal/devengado"
	"igvtools/internal/liquidacion"
	"igvtools/internal/pagofacil"
	"igvtools/internal/tesoreria"
	"igvtools/pkg/models"
)

func TestParseAjuste(t *testing.T) {
	cat, id, base, igv, err := parseAjuste("facturas/f2=1,200.50/216.09")
	require.NoError(t, err)
	assert.Equal(t, liquidacion.Facturas, cat)
	assert.Equal(t, "f2", id)
	assert.Equal(t, 1200.5, base)
	assert.Equal(t, 216.09, igv)

	_, _, _, _, err = parseAjuste("facturas=1/2")
	assert.Error(t, err)
}

func TestParseTipoAndEstado(t *testing.T) {
	tipo, err := parseTipo("no_domiciliado")
	require.NoError(t, err)
	assert.Equal(t, models.TipoNoDomiciliado, tipo)

	_, err = parseTipo("otro")
	assert.Error(t, err)

	estado, err := parseEstado(" en_prepago ")
	require.NoError(t, err)
	assert.Equal(t, models.EstadoEnPrepago, estado)

	estado, err = parseEstado("")
	require.NoError(t, err)
	assert.Empty(t, estado)
}

func TestSplitListAndParseID(t *testing.T) {
	assert.Equal(t, []string{"AMUNDI", "BLACKROCK"}, splitList(" AMUNDI, ,BLACKROCK "))
	assert.Nil(t, splitList(""))

	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseID("0")
	assert.Error(t, err)
}

func voucherFlagsCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	f := c.Flags()
	f.String("factura", "", "")
	f.String("periodo", "", "")
	f.Float64("tc", 0, "")
	f.Float64("base", 0, "")
	require.NoError(t, f.Parse(args))
	return c
}

func TestApplyVoucherFlags(t *testing.T) {
	c := voucherFlagsCommand(t, "--factura", "GE/0002499", "--periodo", "2025-09", "--tc", "3.499", "--base", "100123.78")
	v := pagofacil.NewVoucher()
	applyVoucherFlags(c, v, map[string]bool{}, zerolog.Nop())

	assert.Equal(t, "GE/0002499", v.FacturaNro)
	assert.Equal(t, "09-2025", v.PeriodoTributario)
	assert.Equal(t, 18022.28, v.IGVUSD)
	assert.Equal(t, int64(63060), v.ImportePagarSoles)
}

func TestApplyVoucherFlagsKeepsLockedFields(t *testing.T) {
	c := voucherFlagsCommand(t, "--base", "1", "--factura", "F-1")
	v := pagofacil.NewVoucher()
	v.SetTCSunatVenta(3.46)
	v.SetBaseUSD(5000)
	applyVoucherFlags(c, v, map[string]bool{"baseUsd": true}, zerolog.Nop())

	assert.Equal(t, 5000.0, v.BaseUSD)
	assert.Equal(t, "F-1", v.FacturaNro)
}

func TestUnwrapAll(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	assert.Len(t, unwrapAll(errors.Join(a, b)), 2)
	assert.Equal(t, []error{a}, unwrapAll(a))
}

func TestOperatorErrors(t *testing.T) {
	err := userError(fmt.Errorf("Save: %w", devengado.NewValidationError("Glosa", "", "Debe ingresar la glosa del asiento")))
	assert.EqualError(t, err, "Debe ingresar la glosa del asiento")

	err = treasuryError(&tesoreria.TreasuryError{Op: "GeneratePrepago", DevengadoID: 3, Err: tesoreria.ErrTipoPagoRequired})
	assert.Equal(t, tesoreria.ErrTipoPagoRequired, err)

	err = treasuryError(&tesoreria.TreasuryError{Op: "Configure", Err: tesoreria.ErrUnknownTipoPago, Details: "Trueque"})
	assert.EqualError(t, err, tesoreria.ErrUnknownTipoPago.Error()+" (Trueque)")
}

func TestStatusWriterKeepsJSONOnStdout(t *testing.T) {
	assert.Equal(t, os.Stderr, statusWriter(true))
	assert.Equal(t, os.Stdout, statusWriter(false))
}
