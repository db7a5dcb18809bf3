package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zbtools/internal/cache"
	"zbtools/internal/config"
	"zbtools/internal/export"
	"zbtools/internal/fields"
	"zbtools/internal/sheets"
	"zbtools/internal/zoho"
	"zbtools/pkg/models"
)

// Output formats accepted by the report commands.
const (
	formatJSON  = "json"
	formatXLSX  = "xlsx"
	formatPDF   = "pdf"
	formatSheet = "sheet"
)

// app bundles what every Zoho-backed command needs.
type app struct {
	cfg     *config.Config
	firm    config.FirmConfig
	aliases fields.Aliases
	client  *zoho.Client
}

// setupApp loads the configuration, resolves --firm and creates the Zoho client.
func setupApp(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Configuration invalid")
		return nil, err
	}

	code, _ := cmd.Flags().GetString("firm")
	if code == "" {
		if len(cfg.Firms) != 1 {
			return nil, fmt.Errorf("--firm is required (configured: %s)", strings.Join(cfg.FirmCodes(), ", "))
		}
		code = cfg.FirmCodes()[0]
	}
	firm, err := cfg.Firm(code)
	if err != nil {
		return nil, err
	}

	aliases, err := fields.LoadAliases(cfg.LabelsFile)
	if err != nil {
		log.Error().Err(err).Str("file", cfg.LabelsFile).Msg("Failed to load label aliases")
		return nil, err
	}

	client, err := zoho.New(ctx, zoho.OptionsFromConfig(cfg), firm)
	if err != nil {
		return nil, handleAPIError(err, log)
	}

	log.Debug().
		Str("firm", firm.Code).
		Str("org_id", firm.OrgID).
		Str("group_by", firm.GroupBy).
		Msg("Zoho client ready")

	return &app{cfg: cfg, firm: firm, aliases: aliases, client: client}, nil
}

// createCommandContext creates a context cancelled on SIGINT/SIGTERM and, when
// timeoutSecs > 0, after the timeout.
func createCommandContext(cmd *cobra.Command, log zerolog.Logger) (context.Context, context.CancelFunc) {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	var ctx context.Context
	var cancel context.CancelFunc
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleAPIError provides user-friendly error messages for Zoho failures
func handleAPIError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Zoho request failed")

	var apiErr *zoho.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("timed out talking to Zoho Books. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("canceled")
	case errors.Is(err, zoho.ErrMissingCredentials):
		return fmt.Errorf("missing Zoho OAuth credentials. Please set for the firm:\n"+
			"  ZOHO_<FIRM>_CLIENT_ID\n"+
			"  ZOHO_<FIRM>_CLIENT_SECRET\n"+
			"  ZOHO_<FIRM>_REFRESH_TOKEN\n"+
			"Original error: %w", err)
	case errors.Is(err, zoho.ErrUnauthorized),
		strings.Contains(err.Error(), "invalid_grant"),
		strings.Contains(err.Error(), "invalid_client"):
		return fmt.Errorf("Zoho authentication failed. The refresh token may be expired or revoked, "+
			"or the organization id may be wrong.\nOriginal error: %w", err)
	case errors.Is(err, zoho.ErrRetriesExhausted):
		return fmt.Errorf("Zoho Books kept throttling or was unavailable. Try again later or raise ZOHO_MAX_RETRIES: %w", err)
	case errors.Is(err, zoho.ErrNotFound):
		return fmt.Errorf("Zoho Books resource not found: %w", err)
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return fmt.Errorf("Zoho Books rejected the request (%s): %w", apiErr.Message, err)
	default:
		return fmt.Errorf("Zoho Books request failed: %w", err)
	}
}

// parseWindow reads --from and --to. Dates default to the current month.
func parseWindow(cmd *cobra.Command, now time.Time, customerID string) (models.Window, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	w := models.Window{
		From:       time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		CustomerID: customerID,
	}
	if fromStr != "" {
		d, ok := models.ParseDate(fromStr)
		if !ok {
			return w, fmt.Errorf("invalid --from date %q (format: YYYY-MM-DD)", fromStr)
		}
		w.From = d
	}
	if toStr != "" {
		d, ok := models.ParseDate(toStr)
		if !ok {
			return w, fmt.Errorf("invalid --to date %q (format: YYYY-MM-DD)", toStr)
		}
		w.To = d
	}
	if w.To.Before(w.From) {
		return w, fmt.Errorf("--to %s is before --from %s", w.To.Format(models.DateLayout), w.From.Format(models.DateLayout))
	}
	return w, nil
}

// resolveCustomer turns --customer (contact id or exact name) into a contact id.
func resolveCustomer(ctx context.Context, a *app, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	contacts, err := a.client.ListContacts(ctx)
	if err != nil {
		return "", err
	}
	var ids []string
	for _, c := range contacts {
		if c.ContactID == value {
			return c.ContactID, nil
		}
		if strings.EqualFold(c.ContactName, value) {
			ids = append(ids, c.ContactID)
		}
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no customer named %q", value)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%d customers are named %q, pass the contact id instead (%s)", len(ids), value, strings.Join(ids, ", "))
	}
}

// openCache opens the configured cache, falling back to no caching on failure.
func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.Store {
	store, err := cache.Open(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.CacheBackend).Msg("Cache unavailable, continuing without")
		return cache.NopStore{}
	}
	return store
}

// writeReport writes a report in the requested format. value is used for JSON,
// doc for every other format. Worksheets are named "<sheetPrefix> <table title>".
func writeReport(ctx context.Context, cfg *config.Config, format, outputPath, sheetPrefix string, value any, doc export.Document, log zerolog.Logger) error {
	switch format {
	case formatJSON:
		return outputJSON(value, outputPath, log)

	case formatXLSX:
		if outputPath == "" {
			return fmt.Errorf("--output is required for xlsx")
		}
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := export.WriteXLSX(file, doc.Tables); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().Str("output_file", outputPath).Msg("Workbook written")
		return nil

	case formatPDF:
		if outputPath == "" {
			return fmt.Errorf("--output is required for pdf")
		}
		exporter := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: cfg.HTTPTimeout}}
		pdf, err := exporter.Render(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to render PDF: %w", err)
		}
		return writeFile(outputPath, pdf, log)

	case formatSheet:
		if cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required for --format sheet")
		}
		svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return err
		}
		for _, t := range doc.Tables {
			name := strings.TrimSpace(sheetPrefix + " " + t.Title)
			if err := svc.WriteTable(ctx, name, t); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown --format %q (json, xlsx, pdf, sheet)", format)
	}
}

// outputJSON writes value as indented JSON to outputPath or stdout.
func outputJSON(value any, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		return writeFile(outputPath, jsonData, log)
	}

	if _, err = os.Stdout.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}

func writeFile(path string, data []byte, log zerolog.Logger) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", path).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}
