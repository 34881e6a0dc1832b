package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"igvtools/internal/devengado"
	"igvtools/internal/logger"
	"igvtools/internal/sheets"
	"igvtools/internal/tesoreria"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the accrual ledger and payments to Google Sheets",
	Long: `Replace the contents of two worksheets of GOOGLE_SHEET_URL with the
accrual ledger and the treasury payments.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL`,
	Example: `  # Export everything to the default worksheets
  igvtools export

  # Export one period only
  igvtools export --periodo 09-2025 --devengados-sheet Devengados_092025`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("periodo", "", "Only records of this period MM-YYYY")
	exportCmd.Flags().String("devengados-sheet", "", "Worksheet for the ledger (default: GOOGLE_SHEET_WORKSHEET)")
	exportCmd.Flags().String("pagos-sheet", "Pagos_IGV", "Worksheet for the payments")
	exportCmd.Flags().Bool("sin-pagos", false, "Skip the payments worksheet")
	exportCmd.Flags().Int("timeout", 120, "Timeout in seconds")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	periodo, _ := cmd.Flags().GetString("periodo")
	devSheet, _ := cmd.Flags().GetString("devengados-sheet")
	pagosSheet, _ := cmd.Flags().GetString("pagos-sheet")
	sinPagos, _ := cmd.Flags().GetBool("sin-pagos")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	if err := a.cfg.ValidateSheets(); err != nil {
		return err
	}
	if devSheet == "" {
		devSheet = a.cfg.GoogleSheetWorksheet
	}

	recs, err := a.ledger.List(ctx, devengado.Filter{Periodo: periodo})
	if err != nil {
		return err
	}
	pagos, err := a.treasury.List(ctx, tesoreria.PagoFilter{Periodo: periodo})
	if err != nil {
		return err
	}

	svc, err := sheets.NewSheetsService(ctx, a.cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}

	if err := svc.ExportDevengados(ctx, recs, devSheet); err != nil {
		return err
	}
	fmt.Printf("%d devengados exportados a %q\n", len(recs), devSheet)

	if sinPagos {
		return nil
	}
	if err := svc.ExportPagos(ctx, pagos, pagosSheet); err != nil {
		return err
	}
	fmt.Printf("%d pagos exportados a %q\n", len(pagos), pagosSheet)
	return nil
}
