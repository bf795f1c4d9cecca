// internal/cli/seed.go
package cli

import (
	"fmt"
	"log"

	"questlab/internal/config"
	"questlab/internal/database"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate and load the default admin and sample quests",
		Long:  "Creates the schema, a default admin account and two sample quests when the store is empty. Development only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := database.InitDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := database.MigrateDB(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			if err := database.Seed(db); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
			log.Println("seed complete")
			return nil
		},
	}
}
