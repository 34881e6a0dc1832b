package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"igvtools/internal/logger"
	"igvtools/internal/money"
	"igvtools/internal/period"
	"igvtools/internal/tesoreria"
	"igvtools/pkg/models"
)

var tesoreriaCmd = &cobra.Command{
	Use:     "tesoreria",
	Aliases: []string{"tes"},
	Short:   "Pay registered accruals",
	Long: `Treasury work queue for registered accruals.

An accrual is paid in three steps: configure the payment type and bank
account, generate the pre-payment (the accrual moves to EN_PREPAGO) and
confirm it with the payment date (the accrual moves to PAGADO). Supporting
documents can be attached to a payment at any time.`,
}

var tesoreriaPendientesCmd = &cobra.Command{
	Use:   "pendientes",
	Short: "List accruals awaiting payment",
	Args:  cobra.NoArgs,
	RunE:  runTesoreriaPendientes,
}

var tesoreriaCuentasCmd = &cobra.Command{
	Use:   "cuentas",
	Short: "List payment types and their bank accounts",
	Args:  cobra.NoArgs,
	RunE:  runTesoreriaCuentas,
}

var tesoreriaConfigurarCmd = &cobra.Command{
	Use:     "configurar <devengado-id>",
	Short:   "Set the payment type and bank account of an accrual",
	Example: `  igvtools tesoreria configurar 12 --tipo Cheque --cuenta CHQ-001`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTesoreriaConfigurar,
}

var tesoreriaPrepagoCmd = &cobra.Command{
	Use:   "prepago <devengado-id>",
	Short: "Generate the pre-payment of a configured accrual",
	Args:  cobra.ExactArgs(1),
	RunE:  runTesoreriaPrepago,
}

var tesoreriaPagarCmd = &cobra.Command{
	Use:     "pagar <pago-id>",
	Short:   "Confirm a pre-payment",
	Example: `  igvtools tesoreria pagar PAG-000001 --fecha 2025-10-20`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTesoreriaPagar,
}

var tesoreriaAnularCmd = &cobra.Command{
	Use:   "anular <pago-id>",
	Short: "Annul a pre-payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runTesoreriaAnular,
}

var tesoreriaSustentoCmd = &cobra.Command{
	Use:   "sustento <pago-id>",
	Short: "Attach a supporting document to a payment",
	Long: `Attach a supporting document to a payment. The file is copied under
DATA_DIR with a generated name. Slots: comprobanteGiro, constanciaSunat,
copiaCheque, voucherBancario.`,
	Example: `  igvtools tesoreria sustento PAG-000001 --slot constanciaSunat --file constancia.pdf`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTesoreriaSustento,
}

var tesoreriaPagosCmd = &cobra.Command{
	Use:   "pagos",
	Short: "List payments, newest first",
	Args:  cobra.NoArgs,
	RunE:  runTesoreriaPagos,
}

func init() {
	rootCmd.AddCommand(tesoreriaCmd)
	tesoreriaCmd.AddCommand(tesoreriaPendientesCmd, tesoreriaCuentasCmd, tesoreriaConfigurarCmd,
		tesoreriaPrepagoCmd, tesoreriaPagarCmd, tesoreriaAnularCmd, tesoreriaSustentoCmd, tesoreriaPagosCmd)

	f := tesoreriaPendientesCmd.Flags()
	f.String("entidad", "", "Entity")
	f.String("unidad", "", "Business unit")
	f.String("periodo", "", "Period MM-YYYY")
	f.String("estado", "", "REGISTRADO or EN_PREPAGO")
	f.String("proveedor", "", "Text in the provider name")
	f.Bool("json", false, "Print the accruals as JSON")

	tesoreriaConfigurarCmd.Flags().String("tipo", "", "Payment type")
	tesoreriaConfigurarCmd.Flags().String("cuenta", "", "Bank account id")
	_ = tesoreriaConfigurarCmd.MarkFlagRequired("tipo")

	tesoreriaPagarCmd.Flags().String("fecha", "", "Payment date YYYY-MM-DD (default: today)")

	tesoreriaSustentoCmd.Flags().String("slot", "", "Evidence slot")
	tesoreriaSustentoCmd.Flags().String("file", "", "File to attach")
	_ = tesoreriaSustentoCmd.MarkFlagRequired("slot")
	_ = tesoreriaSustentoCmd.MarkFlagRequired("file")

	f = tesoreriaPagosCmd.Flags()
	f.String("estado", "", "GENERADO, PAGADO or ANULADO")
	f.String("periodo", "", "Period MM-YYYY")
	f.String("fecha", "", "Payment date YYYY-MM-DD")
	f.Bool("json", false, "Print the payments as JSON")
}

// treasuryError shows the operator the message of the treasury sentinel.
func treasuryError(err error) error {
	var te *tesoreria.TreasuryError
	if errors.As(err, &te) {
		if te.Details != "" {
			return fmt.Errorf("%v (%s)", te.Err, te.Details)
		}
		return te.Err
	}
	return userError(err)
}

func runTesoreriaPendientes(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")
	f := cmd.Flags()
	entidad, _ := f.GetString("entidad")
	unidad, _ := f.GetString("unidad")
	periodo, _ := f.GetString("periodo")
	estadoFlag, _ := f.GetString("estado")
	proveedor, _ := f.GetString("proveedor")
	asJSON, _ := f.GetBool("json")

	estado, err := parseEstado(estadoFlag)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	recs, err := a.treasury.Pending(ctx, tesoreria.PendingFilter{
		Entidad:       entidad,
		UnidadNegocio: unidad,
		Periodo:       periodo,
		Estado:        estado,
		Proveedor:     proveedor,
	})
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(recs, "", log)
	}
	if len(recs) == 0 {
		fmt.Println("Sin devengados pendientes")
		return nil
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tPERIODO\tPROVEEDOR\tMONTO\tESTADO\tTIPO PAGO\tCUENTA")
	for _, r := range recs {
		cuenta := ""
		if r.CuentaBancaria != nil {
			cuenta = r.CuentaBancaria.ID
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
			r.ID, period.ToUI(r.Periodo), r.Proveedor, r.Moneda, money.Format(r.Monto),
			r.Estado, r.TipoPago, cuenta)
	}
	return tw.Flush()
}

func runTesoreriaCuentas(cmd *cobra.Command, args []string) error {
	tw := newTable()
	fmt.Fprintln(tw, "TIPO\tCUENTA\tBANCO\tNÚMERO\tMONEDA")
	for _, tipo := range tesoreria.TiposPago {
		cs := tesoreria.Cuentas(tipo)
		if len(cs) == 0 {
			fmt.Fprintf(tw, "%s\t-\t\t\t\n", tipo)
			continue
		}
		for _, c := range cs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tipo, c.ID, c.Banco, c.NumeroMasked, c.Moneda)
		}
	}
	return tw.Flush()
}

func runTesoreriaConfigurar(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	tipo, _ := cmd.Flags().GetString("tipo")
	cuenta, _ := cmd.Flags().GetString("cuenta")

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	rec, err := a.treasury.Configure(ctx, id, tipo, cuenta)
	if err != nil {
		return treasuryError(err)
	}
	fmt.Printf("Devengado #%d: %s", rec.ID, rec.TipoPago)
	if rec.CuentaBancaria != nil {
		fmt.Printf(", %s %s", rec.CuentaBancaria.Banco, rec.CuentaBancaria.NumeroMasked)
	}
	fmt.Println()
	return nil
}

func runTesoreriaPrepago(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	pago, err := a.treasury.GeneratePrepago(ctx, id)
	if err != nil {
		return treasuryError(err)
	}
	fmt.Printf("Pre-pago %s generado por %s %s\n", pago.ID, pago.Moneda, money.Format(pago.Monto))
	return nil
}

func runTesoreriaPagar(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")
	fecha, _ := cmd.Flags().GetString("fecha")
	if fecha == "" {
		fecha = period.ISODate(time.Now())
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	pago, err := a.treasury.Confirm(ctx, strings.TrimSpace(args[0]), fecha)
	if err != nil {
		return treasuryError(err)
	}
	fmt.Printf("Pago %s confirmado el %s\n", pago.ID, fecha)
	return nil
}

func runTesoreriaAnular(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	pago, err := a.treasury.Annul(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return treasuryError(err)
	}
	fmt.Printf("Pago %s anulado; el devengado #%d sigue EN_PREPAGO\n", pago.ID, pago.DevengadoID)
	return nil
}

func runTesoreriaSustento(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")
	slot, _ := cmd.Flags().GetString("slot")
	file, _ := cmd.Flags().GetString("file")

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	pago, err := a.treasury.AttachSustento(ctx, strings.TrimSpace(args[0]), slot, file)
	if err != nil {
		return treasuryError(err)
	}
	doc := pago.Sustento.Get(slot)
	fmt.Printf("Sustento %s adjuntado al pago %s: %s\n", slot, pago.ID, doc.Archivo)
	return nil
}

func runTesoreriaPagos(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("tesoreria")
	f := cmd.Flags()
	estado, _ := f.GetString("estado")
	periodo, _ := f.GetString("periodo")
	fecha, _ := f.GetString("fecha")
	asJSON, _ := f.GetBool("json")

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	pagos, err := a.treasury.List(ctx, tesoreria.PagoFilter{
		Estado:    models.EstadoPago(strings.ToUpper(strings.TrimSpace(estado))),
		Periodo:   periodo,
		FechaPago: fecha,
	})
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(pagos, "", log)
	}
	printPagos(pagos)
	return nil
}

func printPagos(pagos []*models.Pago) {
	if len(pagos) == 0 {
		fmt.Println("Sin pagos")
		return
	}
	tw := newTable()
	fmt.Fprintln(tw, "PAGO\tDEVENGADO\tPERIODO\tPROVEEDOR\tMONTO\tTIPO\tESTADO\tFECHA PAGO\tSUSTENTOS")
	for _, p := range pagos {
		adjuntos := 0
		if p.Sustento != nil {
			for _, slot := range models.Slots {
				if p.Sustento.Get(slot) != nil {
					adjuntos++
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s %s\t%s\t%s\t%s\t%d/%d\n",
			p.ID, p.DevengadoID, period.ToUI(p.Periodo), p.Proveedor, p.Moneda, money.Format(p.Monto),
			p.TipoPago, p.Estado, deref(p.FechaPago), adjuntos, len(models.Slots))
	}
	_ = tw.Flush()
}
