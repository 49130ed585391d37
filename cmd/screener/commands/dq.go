package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/dataquality"
)

var dqNotes string

var dqCmd = &cobra.Command{
	Use:   "dq",
	Short: "Compute and store today's data quality snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		var notes *string
		if dqNotes != "" {
			notes = &dqNotes
		}
		snap, err := a.aggregator.Run(cmd.Context(), dataquality.Today(), notes)
		if err != nil {
			return err
		}
		fmt.Printf("dq_date=%s universe=%d with_price=%d (%.2f%%) with_metrics=%d (%.2f%%)\n",
			snap.DQDate.Format("2006-01-02"), snap.UniverseCompanies,
			snap.TickersWithPriceToday, snap.PctWithPriceToday,
			snap.TickersWithMetricsToday, snap.PctWithMetricsToday)
		return nil
	},
}

func init() {
	dqCmd.Flags().StringVar(&dqNotes, "notes", "", "operator note to attach to the snapshot")
}
