package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var fundamentalsCmd = &cobra.Command{
	Use:   "fundamentals",
	Short: "Refresh stale fundamentals and financial snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.collector.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("requested=%d succeeded=%d failed=%d elapsed=%s\n",
			stats.Requested, stats.Succeeded, stats.Failed, stats.Elapsed.Round(time.Millisecond))
		return nil
	},
}
