package render

import (
	"fmt"
	"strconv"

	"igvtools/internal/accounts"
	"igvtools/internal/money"
	"igvtools/internal/pagofacil"
	"igvtools/internal/period"
)

// NonDomiciledFileName is the PDF name of a form 1041 voucher.
func NonDomiciledFileName(periodo string) string {
	return fmt.Sprintf("PagoFacil_ND_%s.pdf", period.ToUI(periodo))
}

// NonDomiciled writes the form 1041 voucher: the Pago Fácil summary with
// the invoice data on page 1, and the IGV calculation on page 2. When a
// distribution is given its lines are printed below the calculation.
func (r *Renderer) NonDomiciled(v *pagofacil.Voucher, portafolio string, dist *accounts.Distribution) (string, error) {
	d := newDoc()

	d.pdf.AddPage()
	d.entityHeader(EntityName)
	d.font("B", 16)
	d.line("SISTEMA DE PAGO FÁCIL", "C")
	d.pdf.Ln(4)
	importe := money.Format(float64(v.ImportePagarSoles))
	d.summaryBox(v.PeriodoTributario, v.CodigoTributo, v.Tributo, importe)

	d.labelValue("Factura Nro", v.FacturaNro)
	d.labelValue("Proveedor", v.Proveedor)
	d.labelValue("Fecha Pago del Servicio", displayDate(v.FechaPagoServicio))
	d.labelValue("Importe en Dólares", money.Format(v.IGVUSD))
	d.labelValue("T.C.P.P.Vta Publicado SUNAT", rate(v.TCSunatVenta))
	d.labelValue("Expediente Nro", v.ExpedienteNro)
	d.pdf.Ln(6)
	d.font("", 10)
	d.line("Lima, "+displayDate(v.FechaEmisionLima), "R")
	d.signatures()

	d.pdf.AddPage()
	d.entityHeader(EntityName)
	d.font("B", 13)
	d.line("LIQUIDACIÓN DEL IMPUESTO GENERAL A LAS VENTAS", "C")
	d.line("NO DOMICILIADOS", "C")
	d.font("", 10)
	d.line("MES DE "+period.Heading(v.PeriodoTributario), "C")
	d.line("(En Soles)", "C")
	d.pdf.Ln(4)
	if portafolio != "" {
		d.pdf.MultiCell(d.width, lineHeight, d.tr(fmt.Sprintf(
			"Por concepto de administración del Portafolio %s llevado a cabo por %s.", portafolio, v.Proveedor)), "", "L", false)
		d.pdf.Ln(2)
	}

	d.labelValue("Proveedor", v.Proveedor)
	d.labelValue("Factura N°", v.FacturaNro)
	d.labelValue("Expediente", v.ExpedienteNro)
	d.labelValue("Fecha pago del Servicio", displayDate(v.FechaPagoServicio))
	d.pdf.Ln(4)

	amountCol := 40.0
	labelCol := d.width - amountCol - 15
	amountRow := func(label, currency string, value float64, border string) {
		d.cell(labelCol, label, border, "L", 0)
		d.cell(15, currency, border, "R", 0)
		d.cell(amountCol, money.Format(value), border, "R", 1)
	}

	d.font("B", 10)
	d.line(v.PeriodoComision, "L")
	d.font("", 10)
	amountRow("Comisión de administración", "US$", v.BaseUSD, "")
	amountRow("Impuesto General a las Ventas - No Domiciliados", "US$", v.IGVUSD, "")
	d.pdf.Ln(2)
	d.labelValue("T.C.P.P.Venta Publicado - SUNAT", rate(v.TCSunatVenta))
	d.labelValue("T.C.P.P.C. Vigente - SBS", rate(v.TCSBS))
	d.labelValue("Total Factura US$", money.Format(v.BaseUSD))
	d.labelValue("Total Factura S/", money.Format(v.TotalFacturaSoles))
	d.pdf.Ln(4)

	d.font("", 10)
	amountRow("Impuesto General a las Ventas No Domiciliados", "S/", v.IGVSoles, "")
	amountRow("Redondeo", "S/", v.Redondeo, "")
	d.font("B", 10)
	amountRow("Total Impuesto General a las Ventas No Domiciliados 18%", "S/", float64(v.TotalIGVSoles), "T")

	if dist != nil {
		d.pdf.Ln(8)
		d.distribution(*dist)
	}

	return r.write(d, NonDomiciledFileName(v.PeriodoTributario))
}

func (d *doc) distribution(dist accounts.Distribution) {
	d.font("B", 11)
	d.line("DISTRIBUCIÓN CONTABLE", "L")
	cols := []float64{20, d.width - 20 - 4*30, 30, 30, 30, 30}
	d.font("B", 8)
	for i, h := range []string{"Cuenta", "Descripción", "Debe S/", "Haber S/", "Debe US$", "Haber US$"} {
		align, ln := "R", 0
		if i < 2 {
			align = "L"
		}
		if i == len(cols)-1 {
			ln = 1
		}
		d.cell(cols[i], h, "B", align, ln)
	}
	d.font("", 8)
	for _, l := range dist.Lines {
		d.cell(cols[0], l.Cuenta, "", "L", 0)
		d.cell(cols[1], l.Descripcion, "", "L", 0)
		d.cell(cols[2], blankZero(l.DebeLocal), "", "R", 0)
		d.cell(cols[3], blankZero(l.HaberLocal), "", "R", 0)
		d.cell(cols[4], blankZero(l.DebeUSD), "", "R", 0)
		d.cell(cols[5], blankZero(l.HaberUSD), "", "R", 1)
	}
	d.font("B", 8)
	d.cell(cols[0]+cols[1], "Totales", "T", "L", 0)
	d.cell(cols[2], money.Format(dist.TotalDebeLocal), "T", "R", 0)
	d.cell(cols[3], money.Format(dist.TotalHaberLocal), "T", "R", 0)
	d.cell(cols[4], money.Format(dist.TotalDebeUSD), "T", "R", 0)
	d.cell(cols[5], money.Format(dist.TotalHaberUSD), "T", "R", 1)
	if dist.Pending {
		d.font("I", 8)
		d.line("Cuenta de comisiones pendiente de configurar.", "L")
	}
}

func rate(tc float64) string {
	return strconv.FormatFloat(tc, 'f', 3, 64)
}

func blankZero(x float64) string {
	if x == 0 {
		return ""
	}
	return money.Format(x)
}
