// Package liquidacion aggregates the monthly sales worksheet into the IGV
// payable amount that goes on the form 1011 voucher.
package liquidacion

import (
	"encoding/json"
	"fmt"
	"io"

	"igvtools/internal/money"
)

// Category names a worksheet section.
type Category string

const (
	Facturas     Category = "facturas"
	Boletas      Category = "boletas"
	NotasDebito  Category = "notasDebito"
	NotasCredito Category = "notasCredito"
	NoGravadas   Category = "noGravadas"
)

// Categories lists the sections in print order.
var Categories = []Category{Facturas, Boletas, NotasDebito, NotasCredito, NoGravadas}

// Title is the heading printed for the category.
func (c Category) Title() string {
	switch c {
	case Facturas:
		return "Facturas"
	case Boletas:
		return "Boletas de venta"
	case NotasDebito:
		return "Notas de débito"
	case NotasCredito:
		return "Notas de crédito"
	case NoGravadas:
		return "Ventas no gravadas"
	}
	return string(c)
}

// LineItem is one row of the worksheet. Credit notes carry negative
// amounts already; IsNegative only drives presentation.
type LineItem struct {
	ID         string  `json:"id"`
	Concepto   string  `json:"concepto"`
	Rango      string  `json:"rango"`
	Base       float64 `json:"base"`
	IGV        float64 `json:"igv"`
	IsNegative bool    `json:"isNegative,omitempty"`
}

// Worksheet holds the line items of one period.
type Worksheet struct {
	Periodo      string     `json:"periodo"`
	Facturas     []LineItem `json:"facturas"`
	Boletas      []LineItem `json:"boletas"`
	NotasDebito  []LineItem `json:"notasDebito"`
	NotasCredito []LineItem `json:"notasCredito"`
	NoGravadas   []LineItem `json:"noGravadas"`
}

// Items returns the rows of a category.
func (w Worksheet) Items(c Category) []LineItem {
	switch c {
	case Facturas:
		return w.Facturas
	case Boletas:
		return w.Boletas
	case NotasDebito:
		return w.NotasDebito
	case NotasCredito:
		return w.NotasCredito
	case NoGravadas:
		return w.NoGravadas
	}
	return nil
}

// WithAmount returns a copy of the worksheet with the base and IGV of one
// line replaced. The receiver is left untouched.
func (w Worksheet) WithAmount(c Category, id string, base, igv float64) (Worksheet, error) {
	items := w.Items(c)
	idx := -1
	for i, it := range items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return w, fmt.Errorf("liquidacion: line %q not found in %s", id, c)
	}
	updated := make([]LineItem, len(items))
	copy(updated, items)
	updated[idx].Base = base
	updated[idx].IGV = igv

	out := w
	switch c {
	case Facturas:
		out.Facturas = updated
	case Boletas:
		out.Boletas = updated
	case NotasDebito:
		out.NotasDebito = updated
	case NotasCredito:
		out.NotasCredito = updated
	case NoGravadas:
		out.NoGravadas = updated
	}
	return out, nil
}

// Subtotal is the sum of a set of rows.
type Subtotal struct {
	Base float64 `json:"base"`
	IGV  float64 `json:"igv"`
}

// Totals is the result of aggregating a worksheet.
type Totals struct {
	Facturas          Subtotal `json:"facturas"`
	Boletas           Subtotal `json:"boletas"`
	NotasDebito       Subtotal `json:"notasDebito"`
	NotasCredito      Subtotal `json:"notasCredito"`
	NoGravadas        Subtotal `json:"noGravadas"`
	SubtotalPositivos Subtotal `json:"subtotalPositivos"`
	BaseGravada       float64  `json:"baseGravada"`
	IGVGravado        float64  `json:"igvGravado"`
	BaseNeta          float64  `json:"baseNeta"`
	IGVNeto           float64  `json:"igvNeto"`
	ImportePagar      int64    `json:"importePagar"`
	SaldoAFavor       int64    `json:"saldoAFavor"`
}

// Category returns the subtotal of one section.
func (t Totals) Category(c Category) Subtotal {
	switch c {
	case Facturas:
		return t.Facturas
	case Boletas:
		return t.Boletas
	case NotasDebito:
		return t.NotasDebito
	case NotasCredito:
		return t.NotasCredito
	case NoGravadas:
		return t.NoGravadas
	}
	return Subtotal{}
}

func sum(items ...[]LineItem) Subtotal {
	var bases, igvs []float64
	for _, list := range items {
		for _, it := range list {
			bases = append(bases, it.Base)
			igvs = append(igvs, it.IGV)
		}
	}
	return Subtotal{Base: money.Sum(bases...), IGV: money.Sum(igvs...)}
}

// Aggregate computes the worksheet totals. Non-taxed sales are reported but
// do not count toward the payable amount. When credit notes exceed the
// taxed IGV the payable amount is 0 and the excess goes to SaldoAFavor.
func Aggregate(w Worksheet) Totals {
	t := Totals{
		Facturas:     sum(w.Facturas),
		Boletas:      sum(w.Boletas),
		NotasDebito:  sum(w.NotasDebito),
		NotasCredito: sum(w.NotasCredito),
		NoGravadas:   sum(w.NoGravadas),
	}
	t.SubtotalPositivos = sum(w.Facturas, w.Boletas, w.NotasDebito)
	gravado := sum(w.Facturas, w.Boletas, w.NotasDebito, w.NotasCredito)
	t.BaseGravada = gravado.Base
	t.IGVGravado = gravado.IGV
	t.BaseNeta = t.BaseGravada
	t.IGVNeto = t.IGVGravado

	importe := money.RoundToInt(t.IGVNeto)
	if importe < 0 {
		t.SaldoAFavor = -importe
		importe = 0
	}
	t.ImportePagar = importe
	return t
}

// LoadWorksheet decodes a worksheet from JSON.
func LoadWorksheet(r io.Reader) (Worksheet, error) {
	const op = "LoadWorksheet"
	var w Worksheet
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Worksheet{}, fmt.Errorf("%s: decode worksheet: %w", op, err)
	}
	return w, nil
}
