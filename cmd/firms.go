package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"zbtools/internal/config"
)

var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "List the configured firms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tORGANIZATION\tGROUP BY")
		for _, code := range cfg.FirmCodes() {
			firm := cfg.Firms[code]
			groupBy := firm.GroupBy
			if groupBy == config.GroupNone {
				groupBy = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", firm.Code, firm.Name, firm.OrgID, groupBy)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(firmsCmd)
}
