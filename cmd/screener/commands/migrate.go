package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Applies the embedded schema: ingestion tables, the conformed star schema, and its views. Idempotent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := store.Migrate(cmd.Context(), a.db.Pool); err != nil {
			return err
		}
		fmt.Println("schema up to date")
		return nil
	},
}
