package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/artpar/adminkit/config"
	"github.com/artpar/adminkit/core/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and module composition",
	Long: `Load the configuration, parse module manifests and run the loader
without serving.

Checks:
  - Configuration parses and passes validation
  - Every manifest in modules.manifests_dir is well formed
  - Every module initializes and no two routes share a name or path

Examples:
  adminkit validate
  adminkit validate --config /etc/adminkit/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Configuration valid\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Configuration valid\n", checkMark)

	if dir := cfg.Modules.ManifestsDir; dir != "" {
		manifests, err := schema.ParseManifestDir(dir)
		if err != nil {
			fmt.Fprintf(out, "  %s Manifests in %s\n", crossMark, dir)
			return err
		}
		fmt.Fprintf(out, "  %s Manifests in %s (%d)\n", checkMark, dir, len(manifests))
	}

	app, err := inspect(cmd.Context(), cfg, io.Discard)
	if err != nil {
		fmt.Fprintf(out, "  %s Module composition\n", crossMark)
		return err
	}
	defer app.Shutdown()

	fmt.Fprintf(out, "  %s Module composition\n", checkMark)
	for _, m := range app.Composed.Modules {
		fmt.Fprintf(out, "      %-16s load order %d\n", m.Name, m.LoadOrder)
	}
	fmt.Fprintf(out, "\n%d modules, %d routes, %d navbar entries\n",
		len(app.Composed.Modules), app.Composed.Table.Len(), len(app.Composed.Navbar))
	return nil
}
