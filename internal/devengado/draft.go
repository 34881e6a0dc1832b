package devengado

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"igvtools/internal/accounts"
	"igvtools/internal/money"
	"igvtools/internal/pagofacil"
	"igvtools/internal/period"
	"igvtools/pkg/models"
)

// Draft is the accrual registration form. It is filled from a voucher, a
// previous record or by hand, and turned into records by Save.
type Draft struct {
	Tipo    models.TipoDevengado `json:"tipo"`
	Periodo string               `json:"periodo"` // MM-YYYY

	Proveedor       string `json:"proveedor"`
	RUC             string `json:"ruc"`
	Entidad         string `json:"entidad"`
	TipoDocumento   string `json:"tipoDocumento"`
	DocumentoNumero string `json:"documentoNumero"`
	UnidadNegocio   string `json:"unidadNegocio"`
	TipoServicio    string `json:"tipoServicio"`
	TipoPago        string `json:"tipoPago"`
	Moneda          string `json:"moneda"`

	FechaEmision          string `json:"fechaEmision" validate:"required"`
	FechaRecepcion        string `json:"fechaRecepcion" validate:"required"`
	FechaVencimiento      string `json:"fechaVencimiento" validate:"required"`
	FechaProgramacionPago string `json:"fechaProgramacionPago" validate:"required"`

	Glosa string `json:"glosa" validate:"required"`

	MontoAfecto     float64 `json:"montoAfecto"`
	NoAfecto        float64 `json:"noAfecto"`
	IGV             float64 `json:"igv"`
	OtrosImpuestos  float64 `json:"otrosImpuestos"`
	TotalObligacion float64 `json:"totalObligacion" validate:"gt=0"`
	TipoCambio      float64 `json:"tipoCambio"`
	IgvSoles        float64 `json:"igvSoles"`

	Portafolio  string   `json:"portafolio,omitempty"`
	Proveedores []string `json:"proveedores,omitempty"`
}

// IsND reports whether the draft registers a non-domiciled group.
func (d *Draft) IsND() bool {
	return d.Tipo == models.TipoNoDomiciliado
}

// SetDates sets the four form dates to the same day.
func (d *Draft) SetDates(iso string) {
	d.FechaEmision = iso
	d.FechaRecepcion = iso
	d.FechaVencimiento = iso
	d.FechaProgramacionPago = iso
}

// RecomputeTotal derives the obligation of a domiciled draft from its
// components. Non-domiciled totals come from the voucher and are left alone.
func (d *Draft) RecomputeTotal() {
	if d.IsND() {
		return
	}
	d.TotalObligacion = pagofacil.DomiciledTotal(d.MontoAfecto, d.NoAfecto, d.IGV, d.OtrosImpuestos)
}

// Distribution returns the accounting lines the draft would book.
func (d *Draft) Distribution() accounts.Distribution {
	if d.IsND() {
		res := accounts.Resolve(d.Portafolio, d.Proveedores)
		return accounts.DistributeND(res, d.MontoAfecto, d.IGV, d.TipoCambio)
	}
	return accounts.DistributeD(d.TotalObligacion)
}

var (
	draftValidate     *validator.Validate
	draftValidateOnce sync.Once
)

func draftValidator() *validator.Validate {
	draftValidateOnce.Do(func() {
		draftValidate = validator.New()
	})
	return draftValidate
}

// draftRules lists the checks in the order they are reported.
var draftRules = []struct {
	fields  []string
	message string
}{
	{[]string{"FechaEmision", "FechaRecepcion", "FechaVencimiento", "FechaProgramacionPago"}, "Debe completar todas las fechas"},
	{[]string{"Glosa"}, "Debe ingresar la glosa del asiento"},
	{[]string{"TotalObligacion"}, "El monto del IGV debe ser mayor a 0"},
}

// Validate returns the first blocking problem of the draft as a
// *ValidationError, or nil.
func (d *Draft) Validate() error {
	check := *d
	check.Glosa = strings.TrimSpace(d.Glosa)
	check.FechaEmision = strings.TrimSpace(d.FechaEmision)
	check.FechaRecepcion = strings.TrimSpace(d.FechaRecepcion)
	check.FechaVencimiento = strings.TrimSpace(d.FechaVencimiento)
	check.FechaProgramacionPago = strings.TrimSpace(d.FechaProgramacionPago)

	err := draftValidator().Struct(&check)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	failed := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = fe.Value()
	}
	for _, rule := range draftRules {
		for _, f := range rule.fields {
			if v, ok := failed[f]; ok {
				return NewValidationError(f, v, rule.message)
			}
		}
	}
	fe := verrs[0]
	return NewValidationError(fe.Field(), fe.Value(), fmt.Sprintf("campo inválido: %s", fe.Tag()))
}

// NewDraft returns an empty form for manual entry, with the type defaults
// and every date on the last day of the period.
func NewDraft(tipo models.TipoDevengado, periodo string) Draft {
	p := ParamsFor(tipo)
	d := Draft{
		Tipo:          tipo,
		Periodo:       period.ToUI(periodo),
		Proveedor:     p.Proveedor,
		RUC:           p.RUC,
		Entidad:       p.Entidad,
		TipoDocumento: p.TipoDocumento,
		UnidadNegocio: p.UnidadNegocio,
		TipoServicio:  p.TipoServicio,
		TipoPago:      p.TipoPago,
		Moneda:        p.Moneda,
	}
	d.SetDates(period.LastDayISO(d.Periodo))
	if tipo == models.TipoDomiciliado {
		d.DocumentoNumero = period.SuggestedDocumentNumber(d.Periodo)
	}
	return d
}

// LiquidacionGlosa is the journal description of a domiciled accrual.
func LiquidacionGlosa(periodo string) string {
	p, ok := period.Parse(periodo)
	if !ok {
		return "LIQUIDACIÓN IGV"
	}
	return fmt.Sprintf("LIQUIDACIÓN IGV %s %d", period.MonthName(fmt.Sprintf("%02d", p.Month)), p.Year)
}

func comisionGlosa(periodoComision, proveedor string) string {
	return fmt.Sprintf("COMISIÓN DE ADMINISTRACIÓN DE CARTERA %s – %s", periodoComision, proveedor)
}

// DraftFromPagoFacil prefills a domiciled draft from a form 1011 voucher.
func DraftFromPagoFacil(h pagofacil.DomiciledHandoff) Draft {
	d := NewDraft(models.TipoDomiciliado, h.PeriodoTributario)
	d.TipoPago = "Cheque"
	d.Glosa = LiquidacionGlosa(d.Periodo)
	d.MontoAfecto = float64(h.ImporteIGV)
	d.TotalObligacion = float64(h.ImporteIGV)
	return d
}

// DraftFromPagoFacilND prefills a non-domiciled draft from a form 1041
// voucher.
func DraftFromPagoFacilND(h pagofacil.NDHandoff) Draft {
	v := h.Voucher
	d := NewDraft(models.TipoNoDomiciliado, v.PeriodoTributario)
	d.Proveedor = v.Proveedor
	d.RUC = "000000"
	if strings.Contains(strings.ToLower(v.Proveedor), "bbva") {
		d.RUC = "28597854"
	}
	d.DocumentoNumero = v.FacturaNro
	if v.FechaPagoServicio != "" {
		d.SetDates(v.FechaPagoServicio)
	}
	d.Glosa = comisionGlosa(v.PeriodoComision, v.Proveedor)
	d.MontoAfecto = v.BaseUSD
	d.IGV = v.IGVUSD
	d.TotalObligacion = float64(v.TotalIGVSoles)
	d.TipoCambio = v.TCSunatVenta
	d.IgvSoles = float64(v.TotalIGVSoles)
	d.Portafolio = h.Portafolio
	d.Proveedores = append([]string(nil), h.Proveedores...)
	return d
}

// DraftFromCopy prefills a draft for periodo from an existing record. The
// document number is cleared so the copy gets its own.
func (m *Manager) DraftFromCopy(ctx context.Context, id int64, periodo string) (Draft, error) {
	src, err := m.Principal(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if periodo == "" {
		periodo = src.Periodo
	}
	d := NewDraft(tipoOf(src), periodo)
	d.Proveedor = src.Proveedor
	d.Entidad = firstNonEmpty(src.Entidad, d.Entidad)
	d.TipoDocumento = firstNonEmpty(src.TipoDocumento, d.TipoDocumento)
	d.UnidadNegocio = firstNonEmpty(src.UnidadNegocio, d.UnidadNegocio)
	d.TipoServicio = firstNonEmpty(src.TipoServicio, d.TipoServicio)
	d.TipoPago = firstNonEmpty(src.TipoPago, d.TipoPago)
	d.DocumentoNumero = ""

	if src.IsND() {
		base := src.MontoBaseUSD
		igv := src.MontoIgvUSD
		if igv < 0 || (igv == 0 && base != 0) {
			igv = money.Round2(base * pagofacil.IGVRate)
		}
		d.RUC = ""
		d.MontoAfecto = base
		d.IGV = igv
		d.TotalObligacion = money.Round2(base + igv)
		d.IgvSoles = src.IgvSoles
		d.Glosa = comisionGlosa(periodHeadingShort(d.Periodo), src.Proveedor)
		return d, nil
	}

	d.RUC = src.RUC
	d.Glosa = firstNonEmpty(src.Observacion, LiquidacionGlosa(d.Periodo))
	d.MontoAfecto = src.Monto
	d.TotalObligacion = src.Monto
	return d, nil
}

// periodHeadingShort renders "SETIEMBRE 2025" for a period.
func periodHeadingShort(periodo string) string {
	p, ok := period.Parse(periodo)
	if !ok {
		return periodo
	}
	return fmt.Sprintf("%s %d", period.MonthName(fmt.Sprintf("%02d", p.Month)), p.Year)
}

// DraftFromPrevious prefills a draft for periodo from the record of the
// previous month. found is false when there is none; the draft then holds
// the type defaults only.
func (m *Manager) DraftFromPrevious(ctx context.Context, periodo string, tipo models.TipoDevengado) (d Draft, found bool, err error) {
	d = NewDraft(tipo, periodo)
	prev, err := m.Previous(ctx, periodo, tipo)
	if err != nil {
		return d, false, err
	}
	if prev == nil {
		m.log.Warn().
			Str("periodo", d.Periodo).
			Str("tipo", string(tipo)).
			Msg("No accrual found for the previous month")
		return d, false, nil
	}

	if tipo == models.TipoNoDomiciliado {
		d.Proveedor = prev.Proveedor
		d.RUC = prev.RUC
		d.MontoAfecto = prev.MontoBaseUSD
		d.IGV = prev.MontoIgvUSD
		d.TotalObligacion = prev.IgvSoles
		d.IgvSoles = prev.IgvSoles
		d.DocumentoNumero = ""
		d.Glosa = firstNonEmpty(prev.Observacion, "COMISIÓN DE ADMINISTRACIÓN – "+prev.Proveedor)
		d.TipoPago = firstNonEmpty(prev.TipoPago, d.TipoPago)
		d.UnidadNegocio = firstNonEmpty(prev.UnidadNegocio, d.UnidadNegocio)
		return d, true, nil
	}

	d.Glosa = LiquidacionGlosa(prev.Periodo)
	d.MontoAfecto = prev.Monto
	d.TotalObligacion = prev.Monto
	d.TipoPago = firstNonEmpty(prev.TipoPago, d.TipoPago)
	return d, true, nil
}

// DraftForEdit loads a record into a draft. Editing an IGV record edits its
// group, so the principal's id is returned as editID.
func (m *Manager) DraftForEdit(ctx context.Context, id int64) (d Draft, editID int64, err error) {
	rec, err := m.Principal(ctx, id)
	if err != nil {
		return Draft{}, 0, err
	}
	tipo := tipoOf(rec)
	d = NewDraft(tipo, rec.Periodo)
	d.Proveedor = rec.Proveedor
	d.RUC = rec.RUC
	d.Entidad = firstNonEmpty(rec.Entidad, d.Entidad)
	d.TipoDocumento = firstNonEmpty(rec.TipoDocumento, d.TipoDocumento)
	d.DocumentoNumero = rec.DocumentoNro
	d.UnidadNegocio = firstNonEmpty(rec.UnidadNegocio, d.UnidadNegocio)
	d.TipoServicio = firstNonEmpty(rec.TipoServicio, d.TipoServicio)
	d.TipoPago = firstNonEmpty(rec.TipoPago, d.TipoPago)
	d.Moneda = firstNonEmpty(rec.Moneda, d.Moneda)
	d.Glosa = rec.Observacion

	if rec.IsND() {
		d.MontoAfecto = rec.MontoBaseUSD
		if d.MontoAfecto == 0 {
			d.MontoAfecto = rec.Monto
		}
		d.IGV = rec.MontoIgvUSD
		d.IgvSoles = rec.IgvSoles
		d.TotalObligacion = rec.IgvSoles
		if d.TotalObligacion == 0 {
			d.TotalObligacion = rec.Monto
		}
	} else {
		d.MontoAfecto = rec.Monto
		d.TotalObligacion = rec.Monto
	}
	return d, rec.ID, nil
}

// Save validates the draft and registers or updates the records. editID is
// zero for a new registration.
func (m *Manager) Save(ctx context.Context, d Draft, editID int64) ([]*models.Devengado, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	glosa := strings.TrimSpace(d.Glosa)

	if editID != 0 {
		existing, err := m.Get(ctx, editID)
		if err != nil {
			return nil, err
		}
		if existing.IsND() {
			igvSoles := d.IgvSoles
			if igvSoles == 0 {
				igvSoles = d.TotalObligacion
			}
			return m.UpdateGroup(ctx, existing.GroupID, GroupUpdate{
				Periodo:         Of(d.Periodo),
				Proveedor:       Of(d.Proveedor),
				RUC:             Of(d.RUC),
				Observacion:     Of(glosa),
				TipoDocumento:   Of(d.TipoDocumento),
				TipoServicio:    Of(d.TipoServicio),
				TipoPago:        Of(d.TipoPago),
				UnidadNegocio:   Of(d.UnidadNegocio),
				DocumentoNumero: Of(d.DocumentoNumero),
				MontoBaseUSD:    Of(d.MontoAfecto),
				MontoIgvUSD:     Of(d.IGV),
				IgvSoles:        Of(igvSoles),
			})
		}
		rec, err := m.Update(ctx, editID, Patch{
			Periodo:       Of(d.Periodo),
			Proveedor:     Of(d.Proveedor),
			RUC:           Of(d.RUC),
			DocumentoNro:  Of(d.DocumentoNumero),
			Observacion:   Of(glosa),
			Entidad:       Of(d.Entidad),
			UnidadNegocio: Of(d.UnidadNegocio),
			TipoPago:      Of(d.TipoPago),
			TipoServicio:  Of(d.TipoServicio),
			TipoDocumento: Of(d.TipoDocumento),
			Monto:         Of(d.TotalObligacion),
		})
		if err != nil {
			return nil, err
		}
		return []*models.Devengado{rec}, nil
	}

	if d.IsND() {
		igvSoles := d.IgvSoles
		if igvSoles == 0 {
			igvSoles = d.TotalObligacion
		}
		base := &models.Devengado{
			Periodo:       d.Periodo,
			Proveedor:     d.Proveedor,
			RUC:           d.RUC,
			Observacion:   glosa,
			TipoDocumento: d.TipoDocumento,
			TipoServicio:  d.TipoServicio,
			TipoPago:      d.TipoPago,
			UnidadNegocio: d.UnidadNegocio,
		}
		return m.CreateNonDomiciledGroup(ctx, base, d.MontoAfecto, d.IGV, igvSoles, d.DocumentoNumero)
	}

	rec, err := m.CreateDomiciled(ctx, &models.Devengado{
		Periodo:       d.Periodo,
		Proveedor:     d.Proveedor,
		RUC:           d.RUC,
		DocumentoNro:  d.DocumentoNumero,
		Moneda:        d.Moneda,
		Monto:         d.TotalObligacion,
		Observacion:   glosa,
		Entidad:       d.Entidad,
		UnidadNegocio: d.UnidadNegocio,
		TipoPago:      d.TipoPago,
		TipoServicio:  d.TipoServicio,
		TipoDocumento: d.TipoDocumento,
	})
	if err != nil {
		return nil, err
	}
	return []*models.Devengado{rec}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
