// Package autofill prefills the non-domiciled Pago Fácil voucher from the
// ERP extracts of FLAR portfolio cases: an index of cases, voucher headers,
// prior transactions and voucher detail lines.
package autofill

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"igvtools/internal/logger"
	"igvtools/internal/pagofacil"
	"igvtools/internal/period"
)

// Portfolios.
const (
	PortafolioFLAR = "FLAR"
	PortafolioMILA = "MILA"
)

// ProveedoresMILA are the MILA providers; MILA has no extracts and is always
// filled by hand.
var ProveedoresMILA = []string{"BBVA", "COMPASS", "BCP"}

// File names inside the cases directory.
const (
	CasesIndexFile = "casesIndex.json"
	CabeceraFile   = "cabecera.json"
	TrxPreviaFile  = "trx_previa.json"
	DetalleFile    = "detalle.json"
)

// ErrNoCFLTransaction is returned when a case has no CFL transaction to
// take the amounts from.
var ErrNoCFLTransaction = errors.New("el caso no tiene transacción CFL")

// CaseEntry is one entry of the cases index.
type CaseEntry struct {
	ID          string   `json:"id"`
	Portafolio  string   `json:"portafolio"`
	Proveedores []string `json:"proveedores"`
	Voucher     struct {
		Period    string `json:"period"` // YYYYMM
		VoucherNo string `json:"voucherNo"`
	} `json:"voucher"`
	TrxNumbers []int64 `json:"trxNumbers"`
	Labels     struct {
		CasoLabel string `json:"casoLabel"`
	} `json:"labels"`
}

// Cabecera is a voucher header row.
type Cabecera struct {
	Period       string  `json:"period"`
	VoucherNo    string  `json:"voucherno"`
	VoucherTitle string  `json:"vouchertitle"`
	ExchangeRate float64 `json:"exchangerate"`
	VoucherDate  string  `json:"voucherdate"`
	BusinessUnit string  `json:"businessunit"`
}

// TrxPrevia is a prior transaction row.
type TrxPrevia struct {
	NumeroTransaccion int64   `json:"numerotransaccion"`
	TipoTransaccion   string  `json:"tipotransaccion"`
	FechaTransaccion  string  `json:"fechatransaccion"` // dd/mm/yy
	PeriodoContable   string  `json:"periodocontable"`
	VoucherNo         string  `json:"voucherno"`
	MontoDolares      float64 `json:"montodolares"`
	MontoLocal        float64 `json:"montolocal"`
	TipoDeCambio      float64 `json:"tipodecambio"`
	Comentario        string  `json:"comentario"`
	UnidadNegocio     string  `json:"unidadnegocio"`
	Secuencia         int     `json:"secuencia"`
}

// Detalle is a voucher detail line.
type Detalle struct {
	Period       string  `json:"period"`
	VoucherNo    string  `json:"voucherno"`
	VoucherLine  int     `json:"voucherline"`
	Account      string  `json:"account"`
	LocalAmount  float64 `json:"localamount"`
	DollarAmount float64 `json:"dollaramount"`
	Invoice      string  `json:"invoice"`
	Vendor       int64   `json:"vendor"`
}

// oracleExport is the envelope of an ERP REST export.
type oracleExport[T any] struct {
	Results []struct {
		Items []T `json:"items"`
	} `json:"results"`
}

func (e oracleExport[T]) items() []T {
	if len(e.Results) == 0 {
		return nil
	}
	return e.Results[0].Items
}

// Repository holds the loaded extracts.
type Repository struct {
	cases     []CaseEntry
	cabeceras []Cabecera
	trx       []TrxPrevia
	detalles  []Detalle
	log       zerolog.Logger
}

// NewRepository builds a repository from already decoded data.
func NewRepository(cases []CaseEntry, cabeceras []Cabecera, trx []TrxPrevia, detalles []Detalle) *Repository {
	return &Repository{
		cases:     cases,
		cabeceras: cabeceras,
		trx:       trx,
		detalles:  detalles,
		log:       logger.WithComponent("autofill"),
	}
}

// Load reads the four extracts from dir.
func Load(dir string) (*Repository, error) {
	const op = "autofill.Load"

	var cases []CaseEntry
	if err := readJSON(filepath.Join(dir, CasesIndexFile), &cases); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cab oracleExport[Cabecera]
	if err := readJSON(filepath.Join(dir, CabeceraFile), &cab); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var trx oracleExport[TrxPrevia]
	if err := readJSON(filepath.Join(dir, TrxPreviaFile), &trx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var det oracleExport[Detalle]
	if err := readJSON(filepath.Join(dir, DetalleFile), &det); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := NewRepository(cases, cab.items(), trx.items(), det.items())
	r.log.Debug().
		Str("dir", dir).
		Int("cases", len(r.cases)).
		Int("transactions", len(r.trx)).
		Msg("Loaded FLAR extracts")
	return r, nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Cases returns the loaded cases.
func (r *Repository) Cases() []CaseEntry {
	return append([]CaseEntry(nil), r.cases...)
}

// ProveedoresFLAR lists the FLAR providers seen in any case, plus
// WELLINGTON, sorted.
func (r *Repository) ProveedoresFLAR() []string {
	set := map[string]bool{"WELLINGTON": true}
	for _, c := range r.cases {
		for _, p := range c.Proveedores {
			set[p] = true
		}
	}
	return sortedKeys(set)
}

// Periodos lists the voucher periods (YYYYMM) of the cases, sorted.
func (r *Repository) Periodos() []string {
	set := map[string]bool{}
	for _, c := range r.cases {
		set[c.Voucher.Period] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FindCase returns the case of a portfolio and voucher period whose
// provider set equals the selection, ignoring case and order.
func (r *Repository) FindCase(portafolio string, proveedores []string, periodo string) (*CaseEntry, bool) {
	want := upperSet(proveedores)
	for i := range r.cases {
		c := &r.cases[i]
		if !strings.EqualFold(c.Portafolio, strings.TrimSpace(portafolio)) || c.Voucher.Period != periodo {
			continue
		}
		have := upperSet(c.Proveedores)
		if len(have) != len(want) {
			continue
		}
		match := true
		for p := range want {
			if !have[p] {
				match = false
				break
			}
		}
		if match {
			return c, true
		}
	}
	return nil, false
}

func upperSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[strings.ToUpper(v)] = true
	}
	return set
}

// Header returns the voucher header of a case.
func (r *Repository) Header(c *CaseEntry) (*Cabecera, bool) {
	for i := range r.cabeceras {
		h := &r.cabeceras[i]
		if h.Period == c.Voucher.Period && h.VoucherNo == c.Voucher.VoucherNo {
			return h, true
		}
	}
	return nil, false
}

// TrxCFL returns the CFL transaction among the case's transactions.
func (r *Repository) TrxCFL(c *CaseEntry) (*TrxPrevia, bool) {
	for i := range r.trx {
		t := &r.trx[i]
		if t.TipoTransaccion != "CFL" {
			continue
		}
		for _, n := range c.TrxNumbers {
			if n == t.NumeroTransaccion {
				return t, true
			}
		}
	}
	return nil, false
}

// Detalles returns the voucher lines of a case.
func (r *Repository) Detalles(c *CaseEntry) []Detalle {
	var out []Detalle
	for _, d := range r.detalles {
		if d.Period == c.Voucher.Period && d.VoucherNo == c.Voucher.VoucherNo {
			out = append(out, d)
		}
	}
	return out
}

// Result is a prefilled voucher with the fields the operator may not edit.
type Result struct {
	Voucher   *pagofacil.Voucher
	Readonly  map[string]bool
	CasoLabel string
	Manual    bool
}

// Build maps a case onto a voucher. The base is the absolute USD amount of
// the CFL transaction, the rate its exchange rate, and the tax period comes
// from the transaction date.
func (r *Repository) Build(c *CaseEntry, proveedores []string, today time.Time) (*Result, error) {
	trx, ok := r.TrxCFL(c)
	if !ok {
		return nil, fmt.Errorf("autofill.Build %s: %w", c.ID, ErrNoCFLTransaction)
	}

	v := pagofacil.NewVoucher()
	v.Proveedor = strings.Join(proveedores, " + ")
	v.FechaPagoServicio = period.ParseOracleDate(trx.FechaTransaccion)
	v.PeriodoTributario = period.TaxPeriodFromDate(v.FechaPagoServicio)
	if v.PeriodoTributario == "" && len(c.Voucher.Period) == 6 {
		p := c.Voucher.Period
		v.PeriodoTributario = p[4:] + "-" + p[:4]
	}
	if h, ok := r.Header(c); ok {
		v.TCSBS = h.ExchangeRate
	}
	v.FechaEmisionLima = period.ISODate(today)
	v.TCSunatVenta = trx.TipoDeCambio
	base := trx.MontoDolares
	if base < 0 {
		base = -base
	}
	v.SetBaseUSD(base)

	r.log.Info().
		Str("case", c.ID).
		Str("proveedor", v.Proveedor).
		Float64("base_usd", v.BaseUSD).
		Int64("importe", v.ImportePagarSoles).
		Msg("Voucher prefilled from FLAR case")

	return &Result{Voucher: v, Readonly: CaseReadonly(), CasoLabel: c.Labels.CasoLabel}, nil
}

// Prefill looks up the case for the selection and builds the voucher. When
// no case matches, or the portfolio has no extracts, it returns an empty
// voucher in manual mode.
func (r *Repository) Prefill(portafolio string, proveedores []string, periodo string, today time.Time) (*Result, error) {
	manual := &Result{Voucher: pagofacil.NewVoucher(), Readonly: DefaultReadonly(), Manual: true}
	if !strings.EqualFold(strings.TrimSpace(portafolio), PortafolioFLAR) {
		return manual, nil
	}
	c, ok := r.FindCase(portafolio, proveedores, periodo)
	if !ok {
		r.log.Warn().
			Strs("proveedores", proveedores).
			Str("periodo", periodo).
			Msg("No FLAR case for selection, manual entry")
		return manual, nil
	}
	return r.Build(c, proveedores, today)
}

// CaseReadonly marks the fields locked after a case prefill.
func CaseReadonly() map[string]bool {
	return map[string]bool{
		"periodoTributario": true,
		"codigoTributo":     true,
		"tributo":           true,
		"importePagarSoles": true,
		"proveedor":         true,
		"fechaPagoServicio": true,
		"tcSunatVenta":      true,
		"baseUsd":           true,
		"igvUsd":            true,
		"igvSoles":          true,
		"redondeo":          true,
		"totalIgvSoles":     true,
		"totalFacturaSoles": true,
		"facturaNro":        false,
		"expedienteNro":     false,
		"periodoComision":   false,
		"fechaEmisionLima":  false,
		"tcSbs":             false,
	}
}

// DefaultReadonly marks the fields locked in manual entry: only computed
// ones.
func DefaultReadonly() map[string]bool {
	return map[string]bool{
		"codigoTributo":     true,
		"tributo":           true,
		"igvUsd":            true,
		"igvSoles":          true,
		"redondeo":          true,
		"totalIgvSoles":     true,
		"importePagarSoles": true,
		"totalFacturaSoles": true,
		"periodoTributario": false,
		"proveedor":         false,
		"facturaNro":        false,
		"fechaPagoServicio": false,
		"tcSunatVenta":      false,
		"baseUsd":           false,
		"expedienteNro":     false,
		"tcSbs":             false,
		"periodoComision":   false,
		"fechaEmisionLima":  false,
	}
}
