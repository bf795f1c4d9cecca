// internal/cli/serve.go
package cli

import (
	"fmt"
	"log"

	"questlab/internal/auth"
	"questlab/internal/config"
	"questlab/internal/database"
	"questlab/internal/feedback"
	"questlab/internal/handlers"
	"questlab/internal/services"
	"questlab/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the QuestLab API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides PORT)")
	return cmd
}

func runServer(portFlag string) error {
	cfg := config.Load()
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.MigrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}

	generator := newGenerator(cfg)
	tokens := auth.NewManager(cfg.SecretKey)

	router := handlers.NewRouter(handlers.Deps{
		DB:          db,
		Tokens:      tokens,
		Users:       services.NewUserService(db),
		Quests:      services.NewQuestService(db, store),
		Submissions: services.NewSubmissionService(db, cfg, store, generator),
		Dashboards:  services.NewDashboardService(db),
		Store:       store,
	})

	port := portFlag
	if port == "" {
		port = cfg.Port
	}
	log.Printf("Server starting on port %s", port)
	return router.Run(":" + port)
}

// newStore picks MinIO when an endpoint is configured, otherwise the local
// upload directory.
func newStore(cfg config.Config) (storage.Store, error) {
	if cfg.MinioEndpoint != "" {
		return storage.NewMinIOStore(cfg)
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

// newGenerator picks the external feedback service when configured,
// otherwise the in-process keyword analyzer.
func newGenerator(cfg config.Config) feedback.Generator {
	if cfg.FeedbackURL != "" {
		return feedback.NewHTTPGenerator(cfg.FeedbackURL, cfg.FeedbackTimeout)
	}
	return feedback.KeywordAnalyzer{}
}
