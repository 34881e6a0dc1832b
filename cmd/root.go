package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igvtools/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "igvtools",
	Short: "IGV liquidation, Pago Fácil vouchers and accrual ledger",
	Long: `igvtools prepares the monthly IGV (sales tax) work of the accounting team:

  - liquidates the domiciled IGV from the sales worksheet (form 1011)
  - computes the IGV withheld on non-domiciled commissions (form 1041)
  - registers accruals (devengados) and follows them through treasury
    until they are paid`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("igvtools executed without subcommand")

		_ = cmd.Help()
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
