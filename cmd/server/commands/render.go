package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/render"
)

var renderFile string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a widget instance without a database",
	Long: `Read a widget instance ({"type": ..., "config": {...}}) as JSON and print its
render tree. Data bindings are not resolved.

Examples:
  echo '{"type":"Button","config":{"label":"Go"}}' | nebula-studio render
  nebula-studio render --file widget.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "Widget JSON file (default: stdin)")
}

func runRender(stdin io.Reader) error {
	in := stdin
	if renderFile != "" {
		f, err := os.Open(renderFile)
		if err != nil {
			return fmt.Errorf("failed to open widget file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var w domain.WidgetInstance
	if err := json.NewDecoder(in).Decode(&w); err != nil {
		return fmt.Errorf("invalid widget JSON: %w", err)
	}

	registry, err := loadRegistry("")
	if err != nil {
		return err
	}
	tree, err := render.NewEngine(registry, nil, false, nil).Render(context.Background(), w, "")
	if err != nil {
		return err
	}
	return writeJSON(tree)
}
