package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"igvtools/internal/accounts"
	"igvtools/internal/autofill"
	"igvtools/internal/config"
	"igvtools/internal/devengado"
	"igvtools/internal/invoice"
	"igvtools/internal/logger"
	"igvtools/internal/money"
	"igvtools/internal/pagofacil"
	"igvtools/internal/period"
	"igvtools/internal/render"
	"igvtools/pkg/models"
)

var pagofacilNDCmd = &cobra.Command{
	Use:   "pagofacil-nd",
	Short: "Generate the form 1041 Pago Fácil voucher for a non-domiciled commission",
	Long: `Compute the IGV withheld on the commission billed by a non-domiciled
portfolio manager and generate the Pago Fácil voucher (form 1041, IGV NO
DOMICILIADO) as a two-page PDF.

The voucher can be prefilled three ways, in this order:
  1. from a FLAR case (--caso-periodo), read from CASES_DIR
  2. from the provider invoice PDF (--invoice), read with Document AI
  3. from the individual flags

Fields filled from a FLAR case are locked; flags for them are ignored.
With --registrar the voucher is registered as a non-domiciled accrual group.`,
	Example: `  # FLAR case for October 2025, with invoice and file numbers typed in
  igvtools pagofacil-nd --portafolio FLAR --proveedores BBVA --caso-periodo 202510 \
    --factura GE/0002499 --expediente OGR.RF20250000153

  # MILA commission entered by hand
  igvtools pagofacil-nd --portafolio MILA --proveedores BBVA --periodo 09-2025 \
    --factura GE/0002499 --fecha-pago 2025-09-16 --tc 3.499 --base 100123.78 \
    --expediente OGR.RF20250000153 --periodo-comision "Abril - Junio 2025" --registrar

  # Prefill from the provider invoice
  igvtools pagofacil-nd --portafolio MILA --proveedores BBVA --invoice GE-0002499.pdf --tc 3.499 --expediente X-1`,
	Args: cobra.NoArgs,
	RunE: runPagoFacilND,
}

func init() {
	rootCmd.AddCommand(pagofacilNDCmd)

	f := pagofacilNDCmd.Flags()
	f.String("portafolio", autofill.PortafolioMILA, "Portfolio (FLAR or MILA)")
	f.String("proveedores", "", "Comma-separated providers of the portfolio")
	f.String("caso-periodo", "", "FLAR case voucher period YYYYMM")
	f.String("invoice", "", "Provider invoice PDF to read with Document AI")
	f.String("periodo", "", "Tax period MM-YYYY")
	f.String("factura", "", "Invoice number")
	f.String("proveedor", "", "Provider name as printed on the voucher")
	f.String("fecha-pago", "", "Service payment date YYYY-MM-DD")
	f.Float64("tc", 0, "SUNAT published selling exchange rate")
	f.Float64("tc-sbs", 0, "SBS exchange rate")
	f.Float64("base", 0, "Commission base in USD")
	f.String("expediente", "", "File number")
	f.String("periodo-comision", "", "Commission period label, e.g. \"Abril - Junio 2025\"")
	f.String("fecha-emision", "", "Emission date YYYY-MM-DD (default: today)")
	f.Bool("registrar", false, "Register the non-domiciled accrual group")
	f.Bool("no-pdf", false, "Skip the PDF voucher")
	f.Bool("json", false, "Print the voucher and distribution as JSON")
	f.Int("timeout", 120, "Timeout in seconds")
}

func runPagoFacilND(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pagofacil-nd")

	portafolio, _ := cmd.Flags().GetString("portafolio")
	proveedoresFlag, _ := cmd.Flags().GetString("proveedores")
	casoPeriodo, _ := cmd.Flags().GetString("caso-periodo")
	invoicePath, _ := cmd.Flags().GetString("invoice")
	registrar, _ := cmd.Flags().GetBool("registrar")
	noPDF, _ := cmd.Flags().GetBool("no-pdf")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	proveedores := splitList(proveedoresFlag)
	if len(proveedores) == 0 {
		return fmt.Errorf("--proveedores is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	status := statusWriter(asJSON)
	now := time.Now()
	res := &autofill.Result{Voucher: pagofacil.NewVoucher(), Readonly: autofill.DefaultReadonly(), Manual: true}
	if casoPeriodo != "" {
		repo, err := autofill.Load(cfg.CasesDir)
		if err != nil {
			return err
		}
		if res, err = repo.Prefill(portafolio, proveedores, casoPeriodo, now); err != nil {
			return err
		}
		if res.Manual {
			fmt.Fprintln(status, "Sin caso FLAR para la selección: ingreso manual")
		} else {
			fmt.Fprintf(status, "Caso: %s\n", res.CasoLabel)
		}
	}
	v := res.Voucher

	if invoicePath != "" {
		inv, err := readProviderInvoice(ctx, cfg, invoicePath, log)
		if err != nil {
			return err
		}
		if res.Manual {
			v.ApplyInvoice(inv)
		} else {
			v.FacturaNro = inv.InvoiceNumber
			v.DireccionProv = inv.ProviderAddress
			v.PeriodoComision = inv.Period
		}
	}

	applyVoucherFlags(cmd, v, res.Readonly, log)
	if v.Proveedor == "" {
		v.Proveedor = joinProviders(proveedores)
	}
	if v.FechaEmisionLima == "" {
		v.FechaEmisionLima = period.ISODate(now)
	}

	if err := v.Validate(); err != nil {
		var msgs []string
		for _, e := range unwrapAll(err) {
			var ve *pagofacil.ValidationError
			if errors.As(e, &ve) {
				msgs = append(msgs, ve.Message)
			}
		}
		for _, m := range msgs {
			fmt.Fprintln(os.Stderr, "- "+m)
		}
		return fmt.Errorf("el voucher tiene %d campos por completar", len(msgs))
	}

	dist := accounts.DistributeND(accounts.Resolve(portafolio, proveedores), v.BaseUSD, v.IGVUSD, v.TCSunatVenta)

	if asJSON {
		if err := writeJSON(struct {
			Voucher      *pagofacil.Voucher    `json:"voucher"`
			Readonly     map[string]bool       `json:"readonly"`
			Distribucion accounts.Distribution `json:"distribucion"`
		}{v, res.Readonly, dist}, "", log); err != nil {
			return err
		}
	} else {
		printNDVoucher(v, dist)
	}

	if !noPDF {
		path, err := render.NewRenderer(cfg.OutputDir).NonDomiciled(v, portafolio, &dist)
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "PDF: %s\n", path)
	}

	if !registrar {
		return nil
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	d := devengado.DraftFromPagoFacilND(pagofacil.NDHandoff{Voucher: *v, Portafolio: portafolio, Proveedores: proveedores})
	recs, err := a.ledger.Save(ctx, d, 0)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(status, "Grupo registrado: %s (#%d principal, #%d IGV)\n", recs[0].GroupID, recs[0].ID, recs[1].ID)
	return nil
}

// readProviderInvoice extracts the invoice with Document AI.
func readProviderInvoice(ctx context.Context, cfg *config.Config, path string, log zerolog.Logger) (*models.ProviderInvoice, error) {
	if err := cfg.ValidateDocumentAI(); err != nil {
		return nil, err
	}
	processor, err := invoice.NewDocumentAIProcessor(ctx, invoice.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice processor: %w", err)
	}
	defer func() {
		if err := processor.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Document AI client")
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice PDF: %w", err)
	}
	defer f.Close()

	inv, err := processor.Extract(ctx, f)
	if err != nil {
		var ve *invoice.ValidationError
		if errors.As(err, &ve) && inv != nil {
			log.Warn().
				Str("field", ve.Field).
				Str("reason", ve.Message).
				Msg("Invoice read partially, complete the voucher with flags")
			return inv, nil
		}
		return nil, err
	}
	log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("provider", inv.Provider).
		Float64("net_amount", inv.NetAmount).
		Msg("Provider invoice read")
	return inv, nil
}

// applyVoucherFlags copies the flags the user set onto the voucher, skipping
// locked fields.
func applyVoucherFlags(cmd *cobra.Command, v *pagofacil.Voucher, readonly map[string]bool, log zerolog.Logger) {
	flags := cmd.Flags()
	allowed := func(flag, field string) bool {
		if !flags.Changed(flag) {
			return false
		}
		if readonly[field] {
			log.Warn().Str("flag", flag).Msg("Field filled from the FLAR case, flag ignored")
			return false
		}
		return true
	}
	str := func(flag string) string {
		s, _ := flags.GetString(flag)
		return s
	}
	num := func(flag string) float64 {
		x, _ := flags.GetFloat64(flag)
		return x
	}

	if allowed("periodo", "periodoTributario") {
		v.PeriodoTributario = period.ToUI(str("periodo"))
	}
	if allowed("factura", "facturaNro") {
		v.FacturaNro = str("factura")
	}
	if allowed("proveedor", "proveedor") {
		v.Proveedor = str("proveedor")
	}
	if allowed("fecha-pago", "fechaPagoServicio") {
		v.FechaPagoServicio = str("fecha-pago")
		if v.PeriodoTributario == "" {
			v.PeriodoTributario = period.TaxPeriodFromDate(v.FechaPagoServicio)
		}
	}
	if allowed("expediente", "expedienteNro") {
		v.ExpedienteNro = str("expediente")
	}
	if allowed("periodo-comision", "periodoComision") {
		v.PeriodoComision = str("periodo-comision")
	}
	if allowed("fecha-emision", "fechaEmisionLima") {
		v.FechaEmisionLima = str("fecha-emision")
	}
	if allowed("tc-sbs", "tcSbs") {
		v.TCSBS = num("tc-sbs")
	}
	if allowed("tc", "tcSunatVenta") {
		v.SetTCSunatVenta(num("tc"))
	}
	if allowed("base", "baseUsd") {
		v.SetBaseUSD(num("base"))
	}
}

func joinProviders(p []string) string {
	return strings.Join(p, " + ")
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func printNDVoucher(v *pagofacil.Voucher, dist accounts.Distribution) {
	fmt.Printf("PAGO FÁCIL %s %s\n", v.CodigoTributo, v.Tributo)
	tw := newTable()
	fmt.Fprintf(tw, "Periodo tributario\t%s\n", v.PeriodoTributario)
	fmt.Fprintf(tw, "Proveedor\t%s\n", v.Proveedor)
	fmt.Fprintf(tw, "Factura\t%s\n", v.FacturaNro)
	fmt.Fprintf(tw, "Fecha pago servicio\t%s\n", v.FechaPagoServicio)
	fmt.Fprintf(tw, "T.C. SUNAT venta\t%.3f\n", v.TCSunatVenta)
	fmt.Fprintf(tw, "Base US$\t%s\n", money.Format(v.BaseUSD))
	fmt.Fprintf(tw, "IGV US$\t%s\n", money.Format(v.IGVUSD))
	fmt.Fprintf(tw, "IGV S/\t%s\n", money.Format(v.IGVSoles))
	fmt.Fprintf(tw, "Redondeo\t%s\n", money.Format(v.Redondeo))
	fmt.Fprintf(tw, "Importe a pagar S/\t%s\n", money.FormatInt(v.ImportePagarSoles))
	_ = tw.Flush()

	fmt.Println()
	tw = newTable()
	fmt.Fprintln(tw, "CUENTA\tDESCRIPCIÓN\tDEBE S/\tHABER S/\tDEBE US$\tHABER US$")
	for _, l := range dist.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.Cuenta, l.Descripcion,
			money.Format(l.DebeLocal), money.Format(l.HaberLocal), money.Format(l.DebeUSD), money.Format(l.HaberUSD))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\t%s\t%s\t%s\n",
		money.Format(dist.TotalDebeLocal), money.Format(dist.TotalHaberLocal), money.Format(dist.TotalDebeUSD), money.Format(dist.TotalHaberUSD))
	_ = tw.Flush()
	if dist.Pending {
		fmt.Println("Atención: la cuenta de comisiones del portafolio está pendiente de configurar")
	}
}
