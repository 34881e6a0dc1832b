// Package tesoreria turns registered accruals into treasury payments:
// configuring how each accrual is paid, generating the pre-payment,
// confirming or annulling it and keeping its supporting documents.
package tesoreria

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"igvtools/internal/devengado"
	"igvtools/internal/logger"
	"igvtools/internal/period"
	"igvtools/pkg/models"
	"igvtools/pkg/services"
)

// SustentoDir is the directory, under the data dir, holding attached files.
const SustentoDir = "sustentos"

// Service coordinates payments with the accrual ledger.
type Service struct {
	ledger  *devengado.Manager
	pagos   services.PagoStore
	dataDir string
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a treasury service. Attached documents are copied
// under dataDir.
func NewService(ledger *devengado.Manager, pagos services.PagoStore, dataDir string) *Service {
	return &Service{
		ledger:  ledger,
		pagos:   pagos,
		dataDir: dataDir,
		now:     time.Now,
		log:     logger.WithComponent("tesoreria"),
	}
}

// WithClock replaces time.Now, used for generation and attachment dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func payable(rec *models.Devengado) bool {
	return rec.Estado == models.EstadoRegistrado || rec.Estado == models.EstadoEnPrepago
}

// Configure sets the payment type and bank account of an accrual. cuentaID
// may be empty; it is checked again when the pre-payment is generated.
func (s *Service) Configure(ctx context.Context, devengadoID int64, tipoPago, cuentaID string) (*models.Devengado, error) {
	const op = "Configure"

	rec, err := s.ledger.Get(ctx, devengadoID)
	if err != nil {
		return nil, err
	}
	if !payable(rec) {
		return nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: ErrNotPayable, Details: string(rec.Estado)}
	}
	if !KnownTipo(tipoPago) {
		return nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: ErrUnknownTipoPago, Details: tipoPago}
	}

	patch := devengado.Patch{TipoPago: devengado.Of(tipoPago)}
	switch {
	case cuentaID != "":
		cuenta, ok := FindCuenta(tipoPago, cuentaID)
		if !ok {
			return nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: ErrUnknownCuenta, Details: cuentaID}
		}
		patch.CuentaBancaria = &cuenta
	case !RequiresCuenta(tipoPago):
		patch.ClearCuenta = true
	}

	updated, err := s.ledger.Update(ctx, devengadoID, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int64("devengado_id", devengadoID).
		Str("tipo_pago", tipoPago).
		Str("cuenta", cuentaID).
		Msg("Payment configured")
	return updated, nil
}

// GeneratePrepago creates a GENERADO payment for a REGISTRADO accrual and
// moves the accrual to EN_PREPAGO. If the accrual cannot be advanced, the
// payment is annulled again.
func (s *Service) GeneratePrepago(ctx context.Context, devengadoID int64) (*models.Pago, error) {
	const op = "GeneratePrepago"

	rec, err := s.ledger.Get(ctx, devengadoID)
	if err != nil {
		return nil, err
	}
	if rec.Estado != models.EstadoRegistrado {
		return nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: ErrNotPayable, Details: string(rec.Estado)}
	}
	if strings.TrimSpace(rec.TipoPago) == "" {
		return nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: ErrTipoPagoRequired}
	}
	if RequiresCuenta(rec.TipoPago) && rec.CuentaBancaria == nil {
		return nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: ErrCuentaRequired}
	}

	pago := &models.Pago{
		DevengadoID:     rec.ID,
		Periodo:         rec.Periodo,
		Entidad:         orDefault(rec.Entidad, models.EntidadFCR),
		UnidadNegocio:   orDefault(rec.UnidadNegocio, models.UnidadDL19990),
		Proveedor:       rec.Proveedor,
		Monto:           rec.Monto,
		Moneda:          rec.Moneda,
		TipoPago:        rec.TipoPago,
		FechaGeneracion: period.ISODate(s.now()),
		Estado:          models.PagoGenerado,
	}
	if rec.CuentaBancaria != nil {
		cb := *rec.CuentaBancaria
		pago.CuentaBancaria = &cb
	}
	if err := s.pagos.Upsert(ctx, pago); err != nil {
		return nil, fmt.Errorf("%s: save payment: %w", op, err)
	}

	if _, err := s.ledger.Advance(ctx, devengadoID, models.EstadoEnPrepago, ""); err != nil {
		pago.Estado = models.PagoAnulado
		pago.Observacion = "Anulado: no se pudo actualizar el devengado"
		if rbErr := s.pagos.Upsert(ctx, pago); rbErr != nil {
			s.log.Error().Err(rbErr).Str("pago_id", pago.ID).Msg("Failed to annul orphan payment")
		}
		return nil, &TreasuryError{Op: op, PagoID: pago.ID, DevengadoID: devengadoID, Err: err}
	}

	s.log.Info().
		Str("pago_id", pago.ID).
		Int64("devengado_id", devengadoID).
		Float64("monto", pago.Monto).
		Msg("Pre-payment generated")
	return pago.Clone(), nil
}

func (s *Service) getPago(ctx context.Context, op, id string) (*models.Pago, error) {
	p, err := s.pagos.GetByID(ctx, id)
	if errors.Is(err, services.ErrNotFound) || (err == nil && p == nil) {
		return nil, &TreasuryError{Op: op, PagoID: id, Err: ErrPagoNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: load payment %s: %w", op, id, err)
	}
	return p, nil
}

// Confirm marks a GENERADO payment and its accrual as PAGADO on fechaPago.
// Nothing is written unless the accrual can move to PAGADO; if the accrual
// update fails the payment is put back to GENERADO and the error matches
// ErrAccrualSync.
func (s *Service) Confirm(ctx context.Context, pagoID, fechaPago string) (*models.Pago, error) {
	const op = "Confirm"

	if strings.TrimSpace(fechaPago) == "" {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, Err: ErrFechaPagoRequired}
	}
	pago, err := s.getPago(ctx, op, pagoID)
	if err != nil {
		return nil, err
	}
	if pago.Estado != models.PagoGenerado {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, Err: ErrInvalidPagoState, Details: string(pago.Estado)}
	}
	rec, err := s.ledger.Get(ctx, pago.DevengadoID)
	if err != nil {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, DevengadoID: pago.DevengadoID, Err: ErrAccrualSync, Details: err.Error()}
	}
	if !devengado.CanTransition(rec.Estado, models.EstadoPagado) {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, DevengadoID: rec.ID, Err: ErrNotPayable, Details: string(rec.Estado)}
	}

	confirmed := pago.Clone()
	f := fechaPago
	confirmed.Estado = models.PagoPagado
	confirmed.FechaPago = &f
	if err := s.pagos.Upsert(ctx, confirmed); err != nil {
		return nil, fmt.Errorf("%s: save payment: %w", op, err)
	}

	if _, err := s.ledger.Advance(ctx, pago.DevengadoID, models.EstadoPagado, fechaPago); err != nil {
		if rbErr := s.pagos.Upsert(ctx, pago); rbErr != nil {
			s.log.Error().Err(rbErr).Str("pago_id", pagoID).Msg("Failed to restore payment after accrual update")
		}
		return nil, &TreasuryError{Op: op, PagoID: pagoID, DevengadoID: pago.DevengadoID, Err: ErrAccrualSync, Details: err.Error()}
	}

	s.log.Info().Str("pago_id", pagoID).Str("fecha_pago", fechaPago).Msg("Payment confirmed")
	return confirmed.Clone(), nil
}

// AnnulDevengado annuls an accrual together with its GENERADO payments.
// Nothing is written when the accrual cannot be annulled.
func (s *Service) AnnulDevengado(ctx context.Context, devengadoID int64) (*models.Devengado, []*models.Pago, error) {
	const op = "AnnulDevengado"

	rec, err := s.ledger.Get(ctx, devengadoID)
	if err != nil {
		return nil, nil, err
	}
	if !devengado.CanTransition(rec.Estado, models.EstadoAnulado) {
		return nil, nil, &TreasuryError{Op: op, DevengadoID: devengadoID, Err: devengado.ErrInvalidTransition, Details: string(rec.Estado)}
	}
	pagos, err := s.ForDevengado(ctx, devengadoID)
	if err != nil {
		return nil, nil, err
	}

	var annulled, originals []*models.Pago
	restore := func() {
		for _, p := range originals {
			if err := s.pagos.Upsert(ctx, p); err != nil {
				s.log.Error().Err(err).Str("pago_id", p.ID).Msg("Failed to restore payment")
			}
		}
	}
	for _, p := range pagos {
		if p.Estado != models.PagoGenerado {
			continue
		}
		out := p.Clone()
		out.Estado = models.PagoAnulado
		out.Observacion = "Anulado junto con el devengado"
		if err := s.pagos.Upsert(ctx, out); err != nil {
			restore()
			return nil, nil, fmt.Errorf("%s: save payment %s: %w", op, p.ID, err)
		}
		annulled = append(annulled, out)
		originals = append(originals, p)
	}

	updated, err := s.ledger.Advance(ctx, devengadoID, models.EstadoAnulado, "")
	if err != nil {
		restore()
		return nil, nil, err
	}
	s.log.Info().
		Int64("devengado_id", devengadoID).
		Int("pagos_anulados", len(annulled)).
		Msg("Accrual annulled")
	return updated, annulled, nil
}

// Annul cancels a GENERADO payment. The accrual stays EN_PREPAGO.
func (s *Service) Annul(ctx context.Context, pagoID string) (*models.Pago, error) {
	const op = "Annul"

	pago, err := s.getPago(ctx, op, pagoID)
	if err != nil {
		return nil, err
	}
	if pago.Estado != models.PagoGenerado {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, Err: ErrInvalidPagoState, Details: string(pago.Estado)}
	}
	pago.Estado = models.PagoAnulado
	if err := s.pagos.Upsert(ctx, pago); err != nil {
		return nil, fmt.Errorf("%s: save payment: %w", op, err)
	}
	s.log.Info().Str("pago_id", pagoID).Msg("Payment annulled")
	return pago.Clone(), nil
}

// AttachSustento copies srcPath under the data dir with a generated name and
// records it in the payment's slot. The payment state does not change.
func (s *Service) AttachSustento(ctx context.Context, pagoID, slot, srcPath string) (*models.Pago, error) {
	const op = "AttachSustento"

	pago, err := s.getPago(ctx, op, pagoID)
	if err != nil {
		return nil, err
	}
	if !validSlot(slot) {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, Err: ErrUnknownSlot, Details: slot}
	}
	if pago.Sustento == nil {
		pago.Sustento = &models.Sustento{}
	}

	stored, err := s.copyFile(srcPath)
	if err != nil {
		return nil, &TreasuryError{Op: op, PagoID: pagoID, Err: ErrSustentoFileAccess, Details: err.Error()}
	}
	pago.Sustento.Set(slot, &models.Documento{
		Nombre:    filepath.Base(srcPath),
		Archivo:   stored,
		Adjuntado: period.ISODate(s.now()),
	})
	if err := s.pagos.Upsert(ctx, pago); err != nil {
		return nil, fmt.Errorf("%s: save payment: %w", op, err)
	}

	s.log.Info().
		Str("pago_id", pagoID).
		Str("slot", slot).
		Str("archivo", stored).
		Msg("Supporting document attached")
	return pago.Clone(), nil
}

func validSlot(slot string) bool {
	for _, s := range models.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// copyFile returns the stored path relative to the data dir.
func (s *Service) copyFile(srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(s.dataDir, SustentoDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(srcPath))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return filepath.Join(SustentoDir, name), nil
}

// PendingFilter narrows the accruals awaiting treasury action. Empty fields
// match everything; records without entity or unit match any value.
type PendingFilter struct {
	Entidad       string
	UnidadNegocio string
	Periodo       string
	Estado        models.Estado
	Proveedor     string
}

// normalizeKey makes "FCR - MACROFONDO" and "fcr-macrofondo" compare equal.
func normalizeKey(v string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToUpper(r.Replace(v))
}

// Pending returns REGISTRADO and EN_PREPAGO accruals, newest period first.
func (s *Service) Pending(ctx context.Context, f PendingFilter) ([]*models.Devengado, error) {
	all, err := s.ledger.List(ctx, devengado.Filter{})
	if err != nil {
		return nil, err
	}
	periodo := ""
	if f.Periodo != "" {
		periodo = period.ToStorage(f.Periodo)
	}
	var out []*models.Devengado
	for _, r := range all {
		if !payable(r) {
			continue
		}
		if f.Entidad != "" && r.Entidad != "" && normalizeKey(r.Entidad) != normalizeKey(f.Entidad) {
			continue
		}
		if f.UnidadNegocio != "" && r.UnidadNegocio != "" && normalizeKey(r.UnidadNegocio) != normalizeKey(f.UnidadNegocio) {
			continue
		}
		if periodo != "" && r.Periodo != periodo {
			continue
		}
		if f.Estado != "" && r.Estado != f.Estado {
			continue
		}
		if f.Proveedor != "" && !strings.Contains(strings.ToLower(r.Proveedor), strings.ToLower(f.Proveedor)) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Periodo != out[j].Periodo {
			return out[i].Periodo > out[j].Periodo
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// PagoFilter narrows List.
type PagoFilter struct {
	Estado    models.EstadoPago
	Periodo   string
	FechaPago string
}

// List returns payments matching f, newest first.
func (s *Service) List(ctx context.Context, f PagoFilter) ([]*models.Pago, error) {
	all, err := s.pagos.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	periodo := ""
	if f.Periodo != "" {
		periodo = period.ToStorage(f.Periodo)
	}
	var out []*models.Pago
	for _, p := range all {
		if f.Estado != "" && p.Estado != f.Estado {
			continue
		}
		if periodo != "" && p.Periodo != periodo {
			continue
		}
		if f.FechaPago != "" && (p.FechaPago == nil || *p.FechaPago != f.FechaPago) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ForDevengado returns the payments generated for an accrual.
func (s *Service) ForDevengado(ctx context.Context, devengadoID int64) ([]*models.Pago, error) {
	all, err := s.pagos.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ForDevengado: %w", err)
	}
	var out []*models.Pago
	for _, p := range all {
		if p.DevengadoID == devengadoID {
			out = append(out, p)
		}
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
