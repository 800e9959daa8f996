package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/adminkit/bootstrap"
	"github.com/artpar/adminkit/config"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Compose the modules and serve them over HTTP",
	Long: `Compose every enabled module and serve the route table, navigation,
locales, grids and CRUD pages over HTTP until SIGINT or SIGTERM.

Configuration comes from adminkit.yaml (or --config) when it exists,
otherwise from ADMINKIT_* environment variables:
  ADMINKIT_SERVER_PORT            - Server port (default: 8080)
  ADMINKIT_STORAGE_DRIVER         - memory, sqlite or remote (default: memory)
  ADMINKIT_STORAGE_SEED           - Load demo records into empty collections
  ADMINKIT_MODULES_DISABLED       - Comma-separated module names to skip
  ADMINKIT_LOG_LEVEL              - debug, info, warn, error

Examples:
  adminkit serve
  adminkit serve --config /etc/adminkit/config.yaml
  ADMINKIT_STORAGE_SEED=true adminkit serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload the log level when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	var (
		app *bootstrap.App
		err error
	)

	_, statErr := os.Stat(cfgFile)
	if statErr == nil && hotReload {
		app, err = bootstrap.NewWithHotReload(cmd.Context(), cfgFile, bootstrap.Options{})
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return loadErr
		}
		app, err = bootstrap.New(cmd.Context(), cfg, bootstrap.Options{})
	}
	if err != nil {
		return err
	}

	// Blocks until shutdown
	return app.Run()
}
