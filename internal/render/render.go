// Package render writes the Pago Fácil vouchers as two-page A4 PDFs.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"igvtools/internal/liquidacion"
	"igvtools/internal/logger"
	"igvtools/internal/period"
)

// EntityName heads the Pago Fácil pages.
const EntityName = "FONDO CONSOLIDADO DE RESERVAS PREVISIONALES"

const (
	pageMargin = 15.0
	lineHeight = 6.0
	fontFamily = "Helvetica"
)

// Renderer writes voucher PDFs into an output directory.
type Renderer struct {
	outDir string
	now    func() time.Time
	log    zerolog.Logger
}

// NewRenderer creates a renderer writing into outDir.
func NewRenderer(outDir string) *Renderer {
	return &Renderer{
		outDir: outDir,
		now:    time.Now,
		log:    logger.WithComponent("render"),
	}
}

// WithClock sets the clock used for the printed emission date.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// doc wraps an fpdf document with the cp1252 translator the core fonts
// need for accented text.
type doc struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64
}

func newDoc() *doc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pageW, _ := pdf.GetPageSize()
	return &doc{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		width: pageW - 2*pageMargin,
	}
}

func (d *doc) font(style string, size float64) {
	d.pdf.SetFont(fontFamily, style, size)
}

// line prints a full-width cell.
func (d *doc) line(text, align string) {
	d.pdf.CellFormat(d.width, lineHeight, d.tr(text), "", 1, align, false, 0, "")
}

// cell prints a cell without moving to the next line unless ln is 1.
func (d *doc) cell(w float64, text, border, align string, ln int) {
	d.pdf.CellFormat(w, lineHeight, d.tr(text), border, ln, align, false, 0, "")
}

// labelValue prints "label : value" with a bold label column.
func (d *doc) labelValue(label, value string) {
	d.font("B", 10)
	d.cell(55, label, "", "L", 0)
	d.font("", 10)
	d.cell(d.width-55, ": "+value, "", "L", 1)
}

func (d *doc) rule() {
	y := d.pdf.GetY()
	d.pdf.Line(pageMargin, y, pageMargin+d.width, y)
	d.pdf.Ln(2)
}

func (d *doc) entityHeader(name string, sub ...string) {
	d.font("B", 12)
	d.line(name, "C")
	d.font("", 10)
	for _, s := range sub {
		d.line(s, "C")
	}
	d.line("RUC: "+liquidacion.EntidadRUC, "C")
	d.pdf.Ln(4)
}

// summaryBox prints the three blocks of the Pago Fácil form: tax period,
// tax code and amount payable, followed by the boxed total.
func (d *doc) summaryBox(periodo, codigo, tributo, importe string) {
	col := d.width / 3
	d.font("B", 9)
	d.cell(col, "PERIODO TRIBUTARIO", "1", "C", 0)
	d.cell(col, "CODIGO DEL TRIBUTO", "1", "C", 0)
	d.cell(col, "IMPORTE A PAGAR S/.", "1", "C", 1)
	d.font("", 11)
	d.cell(col, periodo, "1", "C", 0)
	d.cell(col, codigo+" "+tributo, "1", "C", 0)
	d.cell(col, importe, "1", "C", 1)
	d.pdf.Ln(4)

	d.font("B", 12)
	d.cell(d.width-col, "TOTAL S/", "1", "R", 0)
	d.cell(col, importe, "1", "C", 1)
	d.pdf.Ln(6)
}

func (d *doc) signatures() {
	d.pdf.Ln(25)
	half := d.width / 2
	y := d.pdf.GetY()
	d.pdf.Line(pageMargin+10, y, pageMargin+half-10, y)
	d.pdf.Line(pageMargin+half+10, y, pageMargin+d.width-10, y)
	d.font("", 10)
	d.cell(half, "Elaborado", "", "C", 0)
	d.cell(half, "V° B°", "", "C", 1)
}

func (r *Renderer) write(d *doc, name string) (string, error) {
	const op = "render.write"

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", fmt.Errorf("%s: create output dir: %w", op, err)
	}
	path := filepath.Join(r.outDir, name)
	pages := d.pdf.PageCount()
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("%s: write %s: %w", op, name, err)
	}
	r.log.Info().
		Str("file", path).
		Int("pages", pages).
		Msg("Voucher written")
	return path, nil
}

// displayDate renders an ISO date as dd/mm/yyyy, leaving other input as is.
func displayDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return period.Today(t)
}
