package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"igvtools/internal/devengado"
	"igvtools/internal/liquidacion"
	"igvtools/internal/logger"
	"igvtools/internal/money"
	"igvtools/internal/pagofacil"
	"igvtools/internal/render"
)

var pagofacilCmd = &cobra.Command{
	Use:   "pagofacil [worksheet.json]",
	Short: "Generate the form 1011 Pago Fácil voucher for the domiciled IGV",
	Long: `Liquidate the worksheet and generate the Pago Fácil voucher (form 1011,
IMP. GENERAL VTA.) as a two-page PDF: the voucher summary and the
liquidation detail.

With --registrar the payable amount is registered as the domiciled accrual
of the period.`,
	Example: `  # Voucher for the built-in September worksheet
  igvtools pagofacil --periodo 09-2025

  # Voucher and accrual registration
  igvtools pagofacil --periodo 09-2025 --registrar`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPagoFacil,
}

func init() {
	rootCmd.AddCommand(pagofacilCmd)
	addWorksheetFlags(pagofacilCmd)
	pagofacilCmd.Flags().Bool("registrar", false, "Register the domiciled accrual for the period")
	pagofacilCmd.Flags().Bool("no-pdf", false, "Skip the PDF voucher")
	pagofacilCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runPagoFacil(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pagofacil")

	registrar, _ := cmd.Flags().GetBool("registrar")
	noPDF, _ := cmd.Flags().GetBool("no-pdf")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	w, err := loadWorksheet(cmd, args)
	if err != nil {
		return err
	}
	t := liquidacion.Aggregate(w)
	v := pagofacil.NewDomiciledVoucher(w.Periodo, t.ImportePagar)

	fmt.Printf("PAGO FÁCIL %s %s\n", v.CodigoTributo, v.Tributo)
	fmt.Printf("Periodo tributario: %s\n", v.PeriodoTributario)
	fmt.Printf("Importe a pagar S/: %s\n", money.FormatInt(v.ImportePagar))

	if !noPDF {
		path, err := render.NewRenderer(outputDir()).Domiciled(v, w)
		if err != nil {
			return err
		}
		fmt.Printf("PDF: %s\n", path)
	}

	if !registrar {
		return nil
	}

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	recs, err := a.ledger.Save(ctx, devengado.DraftFromPagoFacil(v.Handoff()), 0)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Devengado registrado: #%d %s S/ %s\n", recs[0].ID, recs[0].DocumentoNro, money.Format(recs[0].Monto))
	return nil
}
