package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"igvtools/internal/config"
	"igvtools/internal/liquidacion"
	"igvtools/internal/logger"
	"igvtools/internal/money"
	"igvtools/internal/period"
)

var liquidacionCmd = &cobra.Command{
	Use:   "liquidacion [worksheet.json]",
	Short: "Aggregate the monthly sales worksheet into the IGV payable",
	Long: `Aggregate the sales worksheet of a period (facturas, boletas, notas de débito,
notas de crédito and ventas no gravadas) into the IGV payable amount.

Without a worksheet file the built-in worksheet of --periodo is used.
Single lines can be corrected with --ajuste before aggregating.`,
	Example: `  # Liquidate the built-in September worksheet
  igvtools liquidacion --periodo 09-2025

  # Liquidate a worksheet exported from the sales system, fixing one line
  igvtools liquidacion ventas-2025-09.json --ajuste facturas/f2=1200.50/216.09

  # Print the totals as JSON
  igvtools liquidacion --periodo 09-2025 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLiquidacion,
}

func init() {
	rootCmd.AddCommand(liquidacionCmd)
	addWorksheetFlags(liquidacionCmd)
	liquidacionCmd.Flags().Bool("json", false, "Print worksheet and totals as JSON")
	liquidacionCmd.Flags().StringP("output", "o", "", "JSON output file (default: stdout)")
}

func addWorksheetFlags(cmd *cobra.Command) {
	cmd.Flags().String("periodo", "", "Tax period MM-YYYY (default: last month)")
	cmd.Flags().StringArray("ajuste", nil, "Line correction category/id=base/igv (repeatable)")
}

// loadWorksheet reads the worksheet file given as argument, or the built-in
// worksheet of the period, and applies the --ajuste corrections.
func loadWorksheet(cmd *cobra.Command, args []string) (liquidacion.Worksheet, error) {
	log := logger.WithComponent("liquidacion")
	periodo, _ := cmd.Flags().GetString("periodo")
	ajustes, _ := cmd.Flags().GetStringArray("ajuste")

	var w liquidacion.Worksheet
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return w, fmt.Errorf("failed to open worksheet: %w", err)
		}
		defer f.Close()
		if w, err = liquidacion.LoadWorksheet(f); err != nil {
			return w, err
		}
		if periodo != "" {
			w.Periodo = period.ToUI(periodo)
		}
	} else {
		if periodo == "" {
			periodo = period.Previous(period.ISODate(time.Now())[:7])
		}
		var err error
		if w, err = liquidacion.SeedWorksheet(periodo); err != nil {
			return w, fmt.Errorf("%s: %w", period.ToUI(periodo), err)
		}
	}

	for _, a := range ajustes {
		cat, id, base, igv, err := parseAjuste(a)
		if err != nil {
			return w, err
		}
		if w, err = w.WithAmount(cat, id, base, igv); err != nil {
			return w, err
		}
		log.Info().
			Str("category", string(cat)).
			Str("line", id).
			Float64("base", base).
			Float64("igv", igv).
			Msg("Worksheet line corrected")
	}
	return w, nil
}

// parseAjuste reads "category/id=base/igv".
func parseAjuste(v string) (liquidacion.Category, string, float64, float64, error) {
	target, amounts, ok := strings.Cut(v, "=")
	cat, id, ok2 := strings.Cut(target, "/")
	base, igv, ok3 := strings.Cut(amounts, "/")
	if !ok || !ok2 || !ok3 {
		return "", "", 0, 0, fmt.Errorf("invalid --ajuste %q, expected category/id=base/igv", v)
	}
	return liquidacion.Category(strings.TrimSpace(cat)), strings.TrimSpace(id),
		money.ParseAmount(base), money.ParseAmount(igv), nil
}

func runLiquidacion(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	w, err := loadWorksheet(cmd, args)
	if err != nil {
		return err
	}
	t := liquidacion.Aggregate(w)

	if asJSON {
		return writeJSON(struct {
			Worksheet liquidacion.Worksheet `json:"worksheet"`
			Totales   liquidacion.Totals    `json:"totales"`
		}{w, t}, outputPath, logger.WithComponent("liquidacion"))
	}

	fmt.Printf("%s\nLIQUIDACIÓN DEL IGV - MES DE %s\n\n", liquidacion.EntidadNombre, period.Heading(w.Periodo))
	tw := newTable()
	fmt.Fprintln(tw, "CONCEPTO\tRANGO\tBASE\tIGV 18%")
	for _, c := range liquidacion.Categories {
		fmt.Fprintf(tw, "%s\t\t\t\n", strings.ToUpper(c.Title()))
		for _, it := range w.Items(c) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", it.Concepto, it.Rango, money.Format(it.Base), money.Format(it.IGV))
		}
		sub := t.Category(c)
		fmt.Fprintf(tw, "  Subtotal\t\t%s\t%s\n", money.Format(sub.Base), money.Format(sub.IGV))
	}
	fmt.Fprintf(tw, "SUBTOTAL POSITIVOS\t\t%s\t%s\n", money.Format(t.SubtotalPositivos.Base), money.Format(t.SubtotalPositivos.IGV))
	fmt.Fprintf(tw, "TOTAL NETO\t\t%s\t%s\n", money.Format(t.BaseNeta), money.Format(t.IGVNeto))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nIGV a pagar S/ %s\n", money.FormatInt(t.ImportePagar))
	if t.SaldoAFavor > 0 {
		fmt.Printf("Saldo a favor S/ %s\n", money.FormatInt(t.SaldoAFavor))
	}
	return nil
}

// outputDir returns the configured voucher directory.
func outputDir() string {
	if cfg, err := config.Load(); err == nil && cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "output"
}
