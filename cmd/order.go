package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zbtools/internal/logger"
	"zbtools/internal/pricelist"
	"zbtools/internal/salesorder"
	"zbtools/pkg/models"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Sales order utilities",
}

var orderCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a sales order in Zoho Books",
	Long: `Create a sales order for an existing customer. Every --line is
ITEM|SIZE|QTY or ITEM|SIZE|QTY|RATE; lines without a rate are priced from the
price list (PRICE_LIST_URL) by item and size.

The order is posted exactly once. If the request fails, check Zoho Books
before running the command again.`,
	Example: `  zbtools order create --firm TT --customer "Asha Traders" \
    --line "Cotton Shirting|40|12" --line "Linen Suiting||3|850" \
    --salesperson "Ravi Kumar" --reference PO-77

  # Show what would be posted
  zbtools order create --firm TT --customer "Asha Traders" --line "Cotton Shirting|40|12" --dry-run`,
	Args: cobra.NoArgs,
	RunE: runOrderCreate,
}

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderCreateCmd)

	orderCreateCmd.Flags().String("customer", "", "Customer name [REQUIRED]")
	orderCreateCmd.Flags().StringArray("line", nil, "Order line ITEM|SIZE|QTY[|RATE], repeatable [REQUIRED]")
	orderCreateCmd.Flags().String("date", "", "Order date (format: YYYY-MM-DD, default: today)")
	orderCreateCmd.Flags().String("salesperson", "", "Salesperson name")
	orderCreateCmd.Flags().String("reference", "", "Reference number, e.g. the customer's PO")
	orderCreateCmd.Flags().String("notes", "", "Notes printed on the order")
	orderCreateCmd.Flags().Bool("dry-run", false, "Resolve and print the order without posting it")
	_ = orderCreateCmd.MarkFlagRequired("customer")
	_ = orderCreateCmd.MarkFlagRequired("line")
}

func runOrderCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("order")

	customer, _ := cmd.Flags().GetString("customer")
	lines, _ := cmd.Flags().GetStringArray("line")
	dateStr, _ := cmd.Flags().GetString("date")
	salesperson, _ := cmd.Flags().GetString("salesperson")
	reference, _ := cmd.Flags().GetString("reference")
	notes, _ := cmd.Flags().GetString("notes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	req := salesorder.Request{
		Customer:    customer,
		Salesperson: salesperson,
		Reference:   reference,
		Notes:       notes,
	}
	if dateStr != "" {
		d, ok := models.ParseDate(dateStr)
		if !ok {
			return fmt.Errorf("invalid --date %q (format: YYYY-MM-DD)", dateStr)
		}
		req.Date = d
	}
	for _, raw := range lines {
		line, err := salesorder.ParseLine(raw)
		if err != nil {
			return err
		}
		req.Lines = append(req.Lines, line)
	}

	ctx, cancel := createCommandContext(cmd, log)
	defer cancel()

	a, err := setupApp(ctx, cmd, log)
	if err != nil {
		return err
	}

	var prices salesorder.PriceLookup
	if a.cfg.PriceListURL != "" {
		store := openCache(ctx, a.cfg, log)
		prices = pricelist.NewSource(a.cfg.PriceListURL, a.cfg.PriceListTTL, store, &http.Client{Timeout: a.cfg.HTTPTimeout}, a.aliases)
	}
	svc := salesorder.NewService(a.client, prices)

	log.Info().
		Str("firm", a.firm.Code).
		Str("customer", customer).
		Int("lines", len(req.Lines)).
		Bool("dry_run", dryRun).
		Msg("Preparing sales order")

	if dryRun {
		order, err := svc.Prepare(ctx, req)
		if err != nil {
			return handleOrderError(err, log)
		}
		return outputJSON(order, "", log)
	}

	created, err := svc.Create(ctx, req)
	if err != nil {
		return handleOrderError(err, log)
	}
	return outputJSON(created, "", log)
}

// handleOrderError keeps validation and lookup failures readable and routes
// everything else through handleAPIError.
func handleOrderError(err error, log zerolog.Logger) error {
	switch {
	case errors.Is(err, salesorder.ErrInvalidRequest),
		errors.Is(err, salesorder.ErrCustomerNotFound),
		errors.Is(err, salesorder.ErrAmbiguousCustomer),
		errors.Is(err, salesorder.ErrItemNotFound),
		errors.Is(err, salesorder.ErrUnknownSalesperson),
		errors.Is(err, salesorder.ErrNoRate):
		log.Error().Err(err).Msg("Sales order rejected")
		return err
	case errors.Is(err, pricelist.ErrHeaderNotFound):
		log.Error().Err(err).Msg("Price list unreadable")
		return fmt.Errorf("price list has no header row with item and rate columns (see price_* in LABELS_FILE): %w", err)
	default:
		return handleAPIError(err, log)
	}
}
