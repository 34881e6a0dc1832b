package render

import (
	"fmt"
	"strings"

	"igvtools/internal/liquidacion"
	"igvtools/internal/money"
	"igvtools/internal/pagofacil"
	"igvtools/internal/period"
)

// DomiciledFileName is the PDF name of a form 1011 voucher.
func DomiciledFileName(periodo string) string {
	return fmt.Sprintf("Liquidacion_IGV_PagoFacil_%s.pdf", period.ToUI(periodo))
}

// Domiciled writes the form 1011 voucher: the Pago Fácil summary on page 1
// and the liquidation detail of the worksheet on page 2.
func (r *Renderer) Domiciled(v pagofacil.DomiciledVoucher, w liquidacion.Worksheet) (string, error) {
	t := liquidacion.Aggregate(w)
	d := newDoc()

	d.pdf.AddPage()
	d.entityHeader(EntityName, "CONTABILIDAD")
	d.font("B", 16)
	d.line("SISTEMA DE PAGO FÁCIL", "C")
	d.font("I", 9)
	d.line("FONDO : Saldo de la Reserva del Decreto Ley N° 19990 - Decreto de Urgencia N° 067-98", "C")
	d.pdf.Ln(4)
	importe := money.FormatInt(v.ImportePagar)
	d.summaryBox(v.PeriodoTributario, v.CodigoTributo, v.Tributo, importe)
	d.font("", 10)
	d.line("Lima, "+period.LongDate(period.ISODate(r.now())), "R")
	d.signatures()

	d.pdf.AddPage()
	d.entityHeader(liquidacion.EntidadNombre, liquidacion.EntidadArea)
	d.font("B", 13)
	d.line("LIQUIDACIÓN DEL IMPUESTO GENERAL A LAS VENTAS", "C")
	d.font("", 10)
	d.line("Mes de "+period.Heading(v.PeriodoTributario), "C")
	d.line("(En soles)", "C")
	d.pdf.Ln(4)

	cols := []float64{d.width * 0.34, d.width * 0.30, d.width * 0.18, d.width * 0.18}
	d.font("B", 11)
	d.line("VENTAS GRAVADAS", "L")
	d.font("B", 9)
	d.cell(cols[0], "Concepto", "B", "L", 0)
	d.cell(cols[1], "Rango de comprobantes", "B", "L", 0)
	d.cell(cols[2], "Base imponible", "B", "R", 0)
	d.cell(cols[3], "IGV 18%", "B", "R", 1)

	for _, c := range []liquidacion.Category{liquidacion.Facturas, liquidacion.Boletas, liquidacion.NotasDebito} {
		d.itemRows(cols, c, w.Items(c))
	}
	d.subtotalRow(cols, "Subtotal Base:", t.SubtotalPositivos)
	d.pdf.SetTextColor(198, 40, 40)
	d.itemRows(cols, liquidacion.NotasCredito, w.NotasCredito)
	d.subtotalRow(cols, "Subtotal Base:", t.NotasCredito)
	d.pdf.SetTextColor(0, 0, 0)
	d.subtotalRow(cols, "TOTAL NETO:", liquidacion.Subtotal{Base: t.BaseNeta, IGV: t.IGVNeto})
	d.pdf.Ln(4)

	d.font("B", 11)
	d.line("VENTAS NO GRAVADAS", "L")
	d.font("B", 9)
	d.cell(cols[0], "Concepto", "B", "L", 0)
	d.cell(cols[1], "Rango de comprobantes", "B", "L", 0)
	d.cell(cols[2]+cols[3], "Base imponible", "B", "R", 1)
	d.font("", 9)
	for _, it := range w.NoGravadas {
		d.cell(cols[0], it.Concepto, "", "L", 0)
		d.cell(cols[1], it.Rango, "", "L", 0)
		d.cell(cols[2]+cols[3], money.Format(it.Base), "", "R", 1)
	}
	d.font("B", 9)
	d.cell(cols[0]+cols[1], "Total no gravado:", "T", "L", 0)
	d.cell(cols[2]+cols[3], money.Format(t.NoGravadas.Base), "T", "R", 1)
	d.pdf.Ln(6)

	d.rule()
	d.font("B", 11)
	d.cell(cols[0]+cols[1]+cols[2], "IGV A PAGAR S/", "", "L", 0)
	d.cell(cols[3], money.FormatInt(t.ImportePagar), "", "R", 1)
	if t.SaldoAFavor > 0 {
		d.font("", 10)
		d.cell(cols[0]+cols[1]+cols[2], "Saldo a favor S/", "", "L", 0)
		d.cell(cols[3], money.FormatInt(t.SaldoAFavor), "", "R", 1)
	}

	return r.write(d, DomiciledFileName(v.PeriodoTributario))
}

func (d *doc) itemRows(cols []float64, c liquidacion.Category, items []liquidacion.LineItem) {
	d.font("B", 9)
	d.cell(d.width, strings.ToUpper(c.Title()), "", "L", 1)
	d.font("", 9)
	for _, it := range items {
		d.cell(cols[0], it.Concepto, "", "L", 0)
		d.cell(cols[1], it.Rango, "", "L", 0)
		d.cell(cols[2], money.Format(it.Base), "", "R", 0)
		d.cell(cols[3], money.Format(it.IGV), "", "R", 1)
	}
}

func (d *doc) subtotalRow(cols []float64, label string, s liquidacion.Subtotal) {
	d.font("B", 9)
	d.cell(cols[0]+cols[1], label, "T", "L", 0)
	d.cell(cols[2], money.Format(s.Base), "T", "R", 0)
	d.cell(cols[3], money.Format(s.IGV), "T", "R", 1)
}
