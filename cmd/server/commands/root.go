// Package commands implements the nebula-studio command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Annany2002/nebula-studio/internal/component"
	"github.com/Annany2002/nebula-studio/internal/logger"
)

var (
	customLog = logger.NewLogger()

	// Global flags
	catalogPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nebula-studio",
	Short: "Nebula Studio - collections, records and widget rendering for app builders",
	Long: `Nebula Studio stores user-defined collections and their records, keeps a
catalog of UI components, and renders widget instances into client render
trees, optionally bound to live record data.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Component catalog YAML file (default: the built-in catalog)")
}

// loadRegistry builds the component registry from --catalog, falling back to fallbackPath.
func loadRegistry(fallbackPath string) (*component.Registry, error) {
	path := catalogPath
	if path == "" {
		path = fallbackPath
	}
	registry, err := component.NewDefaultRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load component catalog: %w", err)
	}
	return registry, nil
}
