package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Refresh the tracked universe from the index constituent pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.refresher.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("sp500=%d tsx60=%d mappings=%d\n", stats.SP500, stats.TSX60, stats.Mappings)
		return nil
	},
}
