package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bakehouse/internal/db"
	"bakehouse/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations (postgres backend only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.StoreBackend != "postgres" {
			return fmt.Errorf("migrate: backend %q has no migrations", cfg.StoreBackend)
		}

		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer pool.Close()

		if err := migrate.Apply(ctx, pool); err != nil {
			return err
		}

		fmt.Println("Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
