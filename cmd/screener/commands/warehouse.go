package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Transfer ingested data into the conformed store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.warehouse.Transfer(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("companies=%d prices=%d metrics=%d fundamentals=%d financials=%d\n",
			stats.Companies, stats.Prices, stats.Metrics, stats.Fundamentals, stats.Financials)
		return nil
	},
}
