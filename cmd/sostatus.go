package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"zbtools/internal/export"
	"zbtools/internal/logger"
	"zbtools/internal/sostatus"
	"zbtools/pkg/models"
)

var soStatusCmd = &cobra.Command{
	Use:   "so-status",
	Short: "Dispatch status of sales orders",
	Long: `Show, for every sales-order line in a date range, the invoices that
dispatched it with their quantities, LR numbers and transport.

Each sales order and invoice is loaded individually to read its line items,
so large ranges take a while; calls are paced by ZOHO_DETAIL_DELAY_MS.`,
	Example: `  # Current month
  zbtools so-status --firm TT

  # One customer, one quarter, as a workbook
  zbtools so-status --firm TT --from 2024-04-01 --to 2024-06-30 \
    --customer "Asha Traders" --format xlsx -o dispatch.xlsx`,
	Args: cobra.NoArgs,
	RunE: runSOStatus,
}

func init() {
	rootCmd.AddCommand(soStatusCmd)

	soStatusCmd.Flags().String("from", "", "First sales-order date (format: YYYY-MM-DD, default: start of month)")
	soStatusCmd.Flags().String("to", "", "Last sales-order date (format: YYYY-MM-DD, default: today)")
	soStatusCmd.Flags().String("customer", "", "Customer name or contact id")
	soStatusCmd.Flags().String("format", formatJSON, "Output format: json, xlsx, pdf, sheet")
	soStatusCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout for json)")
}

func runSOStatus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("so-status")

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	customer, _ := cmd.Flags().GetString("customer")

	ctx, cancel := createCommandContext(cmd, log)
	defer cancel()

	a, err := setupApp(ctx, cmd, log)
	if err != nil {
		return err
	}

	customerID, err := resolveCustomer(ctx, a, customer)
	if err != nil {
		return handleAPIError(err, log)
	}
	window, err := parseWindow(cmd, time.Now(), customerID)
	if err != nil {
		return err
	}

	log.Info().
		Str("firm", a.firm.Code).
		Str("from", window.From.Format(models.DateLayout)).
		Str("to", window.To.Format(models.DateLayout)).
		Str("customer_id", window.CustomerID).
		Msg("Building dispatch status")

	status, err := sostatus.NewLinker(a.client, a.firm, a.aliases).Build(ctx, window)
	if err != nil {
		return handleAPIError(err, log)
	}

	doc := export.Document{
		Title:    "Sales order dispatch status: " + a.firm.Name,
		Subtitle: status.From + " to " + status.To,
		Tables:   export.StatusTables(status),
	}
	return writeReport(ctx, a.cfg, format, outputPath, a.firm.Code, status, doc, log)
}
