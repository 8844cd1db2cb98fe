package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Annany2002/nebula-studio/api"
	"github.com/Annany2002/nebula-studio/config"
	"github.com/Annany2002/nebula-studio/internal/metrics"
	"github.com/Annany2002/nebula-studio/internal/storage"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (overrides SERVER_PORT)")
}

func runServe() error {
	customLog.Println("Starting Nebula Studio server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if servePort != "" {
		cfg.ServerPort = servePort
	}

	// 2. Component catalog
	registry, err := loadRegistry(cfg.ComponentCatalog)
	if err != nil {
		return err
	}

	// 3. Studio database
	db, err := storage.ConnectDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize studio database: %w", err)
	}
	defer func() {
		customLog.Println("Closing studio database connection...")
		if err := db.Close(); err != nil {
			customLog.Printf("Error closing studio database: %v", err)
		}
	}()

	// 4. Router and server
	router := api.SetupRouter(db, cfg, registry, metrics.New())
	customLog.Printf("Server listening on port %s (data binding enabled: %t)", cfg.ServerPort, cfg.EnableDataBinding)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
