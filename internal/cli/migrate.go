// internal/cli/migrate.go
package cli

import (
	"fmt"
	"log"

	"questlab/internal/config"
	"questlab/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := database.InitDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := database.MigrateDB(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Println("migrations applied")
			return nil
		},
	}
}
