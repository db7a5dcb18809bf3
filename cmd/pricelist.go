package cmd

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"zbtools/internal/config"
	"zbtools/internal/fields"
	"zbtools/internal/logger"
	"zbtools/internal/pricelist"
)

var priceListCmd = &cobra.Command{
	Use:   "pricelist",
	Short: "Price list utilities",
}

var priceListShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the price list",
	Example: `  zbtools pricelist show
  zbtools pricelist show --item shirting --refresh
  zbtools pricelist show --json`,
	Args: cobra.NoArgs,
	RunE: runPriceListShow,
}

func init() {
	rootCmd.AddCommand(priceListCmd)
	priceListCmd.AddCommand(priceListShowCmd)

	priceListShowCmd.Flags().String("item", "", "Only items containing this text")
	priceListShowCmd.Flags().Bool("refresh", false, "Download the price list again")
	priceListShowCmd.Flags().Bool("json", false, "Output as JSON")
}

func runPriceListShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pricelist")

	query, _ := cmd.Flags().GetString("item")
	refresh, _ := cmd.Flags().GetBool("refresh")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	aliases, err := fields.LoadAliases(cfg.LabelsFile)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(cmd, log)
	defer cancel()

	store := openCache(ctx, cfg, log)
	src := pricelist.NewSource(cfg.PriceListURL, cfg.PriceListTTL, store, &http.Client{Timeout: cfg.HTTPTimeout}, aliases)
	if refresh {
		if err := src.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to drop cached price list")
		}
	}

	list, err := src.Load(ctx)
	if err != nil {
		return err
	}
	entries := list.Search(query)

	if jsonOutput {
		return outputJSON(entries, "", log)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Item\tSize\tPacking\tRate\t")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", e.Item, e.Size, e.Packing, e.Rate.StringFixed(2))
	}
	return w.Flush()
}
