package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/adminkit/core/formatter"
)

var (
	outputFormat string
	noHeader     bool
	routesModule string
	localePrefix string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the composed route table",
	Long: `Compose every enabled module and print the resulting route table in
load order.

Examples:
  adminkit routes
  adminkit routes --module Tasks
  adminkit routes -o yaml`,
	Args: cobra.NoArgs,
	RunE: runRoutes,
}

var navbarCmd = &cobra.Command{
	Use:   "navbar",
	Short: "Print the navigation menu",
	Args:  cobra.NoArgs,
	RunE:  runNavbar,
}

var localesCmd = &cobra.Command{
	Use:   "locales [locale]",
	Short: "Print merged localization strings",
	Long: `Print the merged strings of a locale, with fallback keys filled in.
Without a locale, the available locale codes are listed.

Examples:
  adminkit locales
  adminkit locales ru
  adminkit locales en --prefix navigation`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocales,
}

func init() {
	for _, cmd := range []*cobra.Command{routesCmd, navbarCmd, localesCmd} {
		cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: "+strings.Join(formatter.List(), ", "))
		cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the header row of tables")
		rootCmd.AddCommand(cmd)
	}
	routesCmd.Flags().StringVar(&routesModule, "module", "", "only routes of this module")
	localesCmd.Flags().StringVar(&localePrefix, "prefix", "", "only keys under this prefix")
}

func writeDataset(w io.Writer, data formatter.Dataset) error {
	f, ok := formatter.Get(outputFormat)
	if !ok {
		return fmt.Errorf("unknown output format %q (available: %s)", outputFormat, strings.Join(formatter.List(), ", "))
	}
	return f.Format(w, data, formatter.Options{NoHeader: noHeader})
}

func runRoutes(cmd *cobra.Command, args []string) error {
	app, err := compose(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Shutdown()

	routes := app.Composed.Routes()
	if routesModule != "" {
		filtered := routes[:0]
		for _, r := range routes {
			if r.Module == routesModule {
				filtered = append(filtered, r)
			}
		}
		routes = filtered
	}
	return writeDataset(cmd.OutOrStdout(), formatter.Routes(routes))
}

func runNavbar(cmd *cobra.Command, args []string) error {
	app, err := compose(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Shutdown()

	return writeDataset(cmd.OutOrStdout(), formatter.Navbar(app.Composed.Navbar))
}

func runLocales(cmd *cobra.Command, args []string) error {
	app, err := compose(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Shutdown()

	if len(args) == 0 {
		for _, l := range app.Composed.I18n.Locales() {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	}

	locale, table := app.Composed.I18n.Table(args[0])
	if locale != args[0] {
		fmt.Fprintf(cmd.ErrOrStderr(), "locale %s not available, showing %s\n", args[0], locale)
	}
	return writeDataset(cmd.OutOrStdout(), formatter.Locale(locale, table, localePrefix))
}
