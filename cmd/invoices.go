package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zbtools/internal/logger"
	"zbtools/internal/zoho"
	"zbtools/pkg/models"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Invoice utilities",
}

var invoicesPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Download invoices of a date range as merged PDFs",
	Long: `Download every invoice dated inside the range as PDF. Zoho merges up to
25 invoices per file; larger ranges are written as <name>_1.pdf, <name>_2.pdf, ...

If any part fails the parts already written are removed.`,
	Example: `  zbtools invoices pdf --firm TT --from 2024-06-01 --to 2024-06-30 -o june.pdf
  zbtools invoices pdf --firm TT --customer "Asha Traders" -o asha.pdf`,
	Args: cobra.NoArgs,
	RunE: runInvoicesPDF,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(invoicesPDFCmd)

	invoicesPDFCmd.Flags().String("from", "", "First invoice date (format: YYYY-MM-DD, default: start of month)")
	invoicesPDFCmd.Flags().String("to", "", "Last invoice date (format: YYYY-MM-DD, default: today)")
	invoicesPDFCmd.Flags().String("customer", "", "Customer name or contact id")
	invoicesPDFCmd.Flags().StringP("output", "o", "invoices.pdf", "Output PDF path")
}

func runInvoicesPDF(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices-pdf")

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

	invoices, err := a.client.ListInvoices(ctx, window)
	if err != nil {
		return handleAPIError(err, log)
	}
	if len(invoices) == 0 {
		log.Info().Msg("No invoices in range")
		return nil
	}

	ids := make([]string, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.InvoiceID
	}
	batches := chunk(ids, zoho.MaxPDFBatch)
	paths := partPaths(outputPath, len(batches))

	log.Info().
		Int("invoices", len(ids)).
		Int("files", len(paths)).
		Str("from", window.From.Format(models.DateLayout)).
		Str("to", window.To.Format(models.DateLayout)).
		Msg("Downloading invoice PDFs")

	var written []string
	for i, batch := range batches {
		pdf, err := a.client.InvoicesPDF(ctx, batch)
		if err == nil {
			err = writePart(paths[i], pdf)
		}
		if err != nil {
			removeParts(written, log)
			return handleAPIError(fmt.Errorf("part %d of %d: %w", i+1, len(batches), err), log)
		}
		written = append(written, paths[i])
		log.Info().
			Str("output_file", paths[i]).
			Int("invoices", len(batch)).
			Int("bytes", len(pdf)).
			Msg("PDF written")
	}
	return nil
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// partPaths returns outputPath for a single part, otherwise name_1.pdf ... name_n.pdf.
func partPaths(outputPath string, n int) []string {
	if n <= 1 {
		return []string{outputPath}
	}
	ext := filepath.Ext(outputPath)
	base := strings.TrimSuffix(outputPath, ext)
	if ext == "" {
		ext = ".pdf"
	}
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s_%d%s", base, i+1, ext)
	}
	return paths
}

// writePart writes data next to path and renames it into place, so a failed
// write never leaves a truncated PDF behind.
func writePart(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func removeParts(paths []string, log zerolog.Logger) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			log.Warn().Err(err).Str("file", p).Msg("Failed to remove partial PDF")
		}
	}
}
