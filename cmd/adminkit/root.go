package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/adminkit/bootstrap"
	"github.com/artpar/adminkit/config"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adminkit",
	Short: "Composable admin dashboard modules",
	Long: `adminkit composes admin dashboard modules into one route table,
navigation menu and localization store, and serves them over HTTP.

Quick start:
  adminkit serve              # Compose the modules and serve the API
  adminkit routes             # Print the composed route table

Inspection:
  adminkit navbar             # Print the navigation menu
  adminkit locales ru         # Print the merged Russian strings
  adminkit validate           # Check configuration and module composition`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "adminkit.yaml", "config file path")
}

// compose builds the application for inspection commands. Storage is
// replaced by empty in-memory services since composition never reads
// records.
func compose(ctx context.Context, logs io.Writer) (*bootstrap.App, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, err
	}
	return inspect(ctx, cfg, logs)
}

func inspect(ctx context.Context, cfg *config.Config, logs io.Writer) (*bootstrap.App, error) {
	cfg.Storage = config.StorageConfig{Driver: config.DriverMemory}
	cfg.Metrics.Enabled = false
	cfg.Logging.Level = "warn"
	return bootstrap.New(ctx, cfg, bootstrap.Options{Output: logs})
}
