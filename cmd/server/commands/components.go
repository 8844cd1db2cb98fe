package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	componentCategory string
	componentsJSON    bool
)

var componentsCmd = &cobra.Command{
	Use:   "components [type]",
	Short: "List the component catalog or show one component",
	Long: `List active components, optionally filtered by category, or print the
full definition of one component type.

Examples:
  nebula-studio components
  nebula-studio components --category form
  nebula-studio components Button`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runComponents(args)
	},
}

func init() {
	rootCmd.AddCommand(componentsCmd)
	componentsCmd.Flags().StringVar(&componentCategory, "category", "", "Only list components of this category")
	componentsCmd.Flags().BoolVar(&componentsJSON, "json", false, "Output in JSON format")
}

func runComponents(args []string) error {
	registry, err := loadRegistry("")
	if err != nil {
		return err
	}

	if len(args) == 1 {
		def, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		return writeJSON(def)
	}

	defs := registry.ListActive(componentCategory, "")
	if componentsJSON {
		return writeJSON(defs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCATEGORY\tBINDINGS\tDESCRIPTION")
	for _, def := range defs {
		slots := make([]string, 0, len(def.Bindings))
		for slot := range def.Bindings {
			slots = append(slots, slot)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Type, def.Category, strings.Join(sortedCopy(slots), ","), def.Description)
	}
	return w.Flush()
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
