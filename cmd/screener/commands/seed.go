package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/seed"
)

var (
	seedCompanies int
	seedDays      int
	seedValue     uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with a synthetic universe for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.Env == "production" {
			return fmt.Errorf("refusing to seed a production database")
		}

		gen := seed.NewGenerator(a.db.Pool, a.companies, a.prices, a.indicators, a.funds, seedValue, a.log)
		if err := gen.Run(cmd.Context(), seedCompanies, seedDays); err != nil {
			return err
		}
		fmt.Printf("seeded %d companies with %d days of history\n", seedCompanies, seedDays)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCompanies, "companies", 50, "number of companies to generate")
	seedCmd.Flags().IntVar(&seedDays, "days", 400, "days of price history per company")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed (0 for nondeterministic)")
}
