package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var pipelineTickers string

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the daily ingestion pipeline once",
	Long: `Fetches the trailing price window for every tracked ticker, recomputes
indicators for the fetched dates, and prints the run summary. Use --tickers
to restrict the run to a comma-separated subset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		tickers, err := a.companies.Tickers(ctx)
		if err != nil {
			return err
		}
		if pipelineTickers != "" {
			tickers = splitTickers(pipelineTickers)
		}
		if len(tickers) == 0 {
			return fmt.Errorf("universe is empty, run 'screener universe' first")
		}

		summary, err := a.engine.Run(ctx, tickers)
		if err != nil {
			return err
		}

		fmt.Printf("requested=%d succeeded=%d failed=%d healed=%d bars=%d elapsed=%s\n",
			summary.Requested, summary.Succeeded, summary.Failed,
			summary.Healed, summary.BarsWritten, summary.Elapsed.Round(time.Millisecond))
		for _, f := range summary.Failures {
			fmt.Printf("  failed %s: %s\n", f.Ticker, f.Reason)
		}
		return nil
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineTickers, "tickers", "", "comma-separated tickers to ingest instead of the full universe")
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(strings.ToUpper(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
