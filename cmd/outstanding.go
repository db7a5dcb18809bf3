package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"zbtools/internal/cache"
	"zbtools/internal/export"
	"zbtools/internal/logger"
	"zbtools/internal/outstanding"
	"zbtools/pkg/models"
)

// reportCacheTTL bounds how long a same-day report is served from the cache.
const reportCacheTTL = 6 * time.Hour

var outstandingCmd = &cobra.Command{
	Use:   "outstanding",
	Short: "Customer outstanding and aging report",
	Long: `Build the outstanding report of a firm from Zoho Books.

For every customer the unpaid invoice balances are spread over eleven aging
buckets (0-15 up to Above_730 days), open credit notes and unused payments
and advances are subtracted, and payments received in the last 0-15 and
16-90 days are shown. Customers with nothing outstanding are left out.

Reports are cached per firm and day; use --refresh to fetch again.`,
	Example: `  # JSON to stdout
  zbtools outstanding --firm TT

  # Excel workbook with the summary and the unpaid invoices
  zbtools outstanding --firm TT --format xlsx -o outstanding.xlsx

  # Publish to the configured Google Sheet
  zbtools outstanding --firm TT --format sheet --refresh`,
	Args: cobra.NoArgs,
	RunE: runOutstanding,
}

func init() {
	rootCmd.AddCommand(outstandingCmd)

	outstandingCmd.Flags().String("as-of", "", "Aging reference date (format: YYYY-MM-DD, default: today)")
	outstandingCmd.Flags().String("format", formatJSON, "Output format: json, xlsx, pdf, sheet")
	outstandingCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout for json)")
	outstandingCmd.Flags().Bool("refresh", false, "Ignore the cached report")
}

func runOutstanding(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("outstanding")

	asOfStr, _ := cmd.Flags().GetString("as-of")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	refresh, _ := cmd.Flags().GetBool("refresh")

	asOf := time.Now()
	if asOfStr != "" {
		d, ok := models.ParseDate(asOfStr)
		if !ok {
			return fmt.Errorf("invalid --as-of date %q (format: YYYY-MM-DD)", asOfStr)
		}
		asOf = d
	}

	ctx, cancel := createCommandContext(cmd, log)
	defer cancel()

	a, err := setupApp(ctx, cmd, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("firm", a.firm.Code).
		Str("as_of", asOf.Format(models.DateLayout)).
		Str("format", format).
		Bool("refresh", refresh).
		Msg("Building outstanding report")

	store := openCache(ctx, a.cfg, log)
	key := fmt.Sprintf("outstanding:%s:%s", a.firm.Code, asOf.Format(models.DateLayout))
	if refresh {
		if err := store.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to drop cached report")
		}
	}

	agg := outstanding.NewAggregator(a.client, a.firm, a.aliases)
	agg.Now = func() time.Time { return asOf }

	var report outstanding.Report
	err = cache.FetchJSON(ctx, store, key, reportCacheTTL, &report, func(ctx context.Context) (any, error) {
		return agg.Build(ctx)
	})
	if err != nil {
		return handleAPIError(err, log)
	}

	totals := report.Totals()
	log.Info().
		Int("customers", len(report.Rows)).
		Str("total", totals.Total.StringFixed(2)).
		Str("balance", totals.Balance.StringFixed(2)).
		Msg("Outstanding report ready")

	doc := export.Document{
		Title:    "Outstanding: " + a.firm.Name,
		Subtitle: fmt.Sprintf("%s as of %s", a.firm.Code, asOf.Format("02 Jan 2006")),
		Tables:   export.OutstandingTables(&report),
	}
	return writeReport(ctx, a.cfg, format, outputPath, a.firm.Code, &report, doc, log)
}
