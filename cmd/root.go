package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zbtools/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "zbtools",
	Short: "zbtools - Zoho Books reports and sales orders for the group firms",
	Long: `zbtools talks to Zoho Books on behalf of each configured firm.

It builds the customer outstanding (aging) report and the sales-order dispatch
status, exports them to JSON, XLSX, PDF or Google Sheets, downloads merged
invoice PDFs, and books new sales orders priced from the shared price list.

Firms are configured through environment variables (or a .env file):
  FIRMS=TT,RK
  ZOHO_TT_ORG_ID, ZOHO_TT_CLIENT_ID, ZOHO_TT_CLIENT_SECRET, ZOHO_TT_REFRESH_TOKEN`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
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

func init() {
	rootCmd.PersistentFlags().String("firm", "", "Firm code as listed in FIRMS")
	rootCmd.PersistentFlags().Int("timeout", 0, "Abort after this many seconds (0 = no limit)")
}
