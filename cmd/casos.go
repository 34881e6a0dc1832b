package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"igvtools/internal/autofill"
	"igvtools/internal/config"
	"igvtools/internal/logger"
)

var casosCmd = &cobra.Command{
	Use:   "casos",
	Short: "List the FLAR cases available for voucher prefill",
	Long: `List the FLAR cases read from CASES_DIR, with the provider and period
choices they offer to "pagofacil-nd --caso-periodo".`,
	Args: cobra.NoArgs,
	RunE: runCasos,
}

func init() {
	rootCmd.AddCommand(casosCmd)
	casosCmd.Flags().Bool("json", false, "Print the cases as JSON")
}

func runCasos(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("casos")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	repo, err := autofill.Load(cfg.CasesDir)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(struct {
			Casos           []autofill.CaseEntry `json:"casos"`
			ProveedoresFLAR []string             `json:"proveedoresFlar"`
			ProveedoresMILA []string             `json:"proveedoresMila"`
			Periodos        []string             `json:"periodos"`
		}{repo.Cases(), repo.ProveedoresFLAR(), autofill.ProveedoresMILA, repo.Periodos()}, "", log)
	}

	tw := newTable()
	fmt.Fprintln(tw, "CASO\tPORTAFOLIO\tPROVEEDORES\tPERIODO\tVOUCHER")
	for _, c := range repo.Cases() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Portafolio,
			strings.Join(c.Proveedores, ", "), c.Voucher.Period, c.Voucher.VoucherNo)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nProveedores FLAR: %s\n", strings.Join(repo.ProveedoresFLAR(), ", "))
	fmt.Printf("Proveedores MILA: %s\n", strings.Join(autofill.ProveedoresMILA, ", "))
	fmt.Printf("Periodos: %s\n", strings.Join(repo.Periodos(), ", "))
	return nil
}
