package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/you/busroutes/internal/config"
	"github.com/you/busroutes/internal/search"
	"github.com/you/busroutes/internal/static/gtfs"
	"github.com/you/busroutes/internal/static/seed"
	"github.com/you/busroutes/models"
	"github.com/you/busroutes/repository"
)

type app struct {
	sqlitePath  string
	databaseURL string
	logLevel    string

	logger *slog.Logger
	store  catalogStore
	open   func(ctx context.Context, sqlitePath, databaseURL string, logger *slog.Logger) (catalogStore, error)
}

func newApp() *app {
	return &app{open: openStore}
}

// execute runs root and then closes the catalog store, also when the
// command failed.
func (a *app) execute(root *cobra.Command) error {
	err := root.Execute()
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close catalog: %w", cerr)
		}
		a.store = nil
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	defaults := config.Defaults()

	root := &cobra.Command{
		Use:           "routectl",
		Short:         "Manage the bus route catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Flags win over the environment
			if !cmd.Flags().Changed("db") {
				a.sqlitePath = cfg.SQLiteDatabase
			}
			if !cmd.Flags().Changed("database-url") {
				a.databaseURL = cfg.DatabaseURL
			}
			if !cmd.Flags().Changed("log-level") {
				a.logLevel = cfg.LogLevel
			}
			a.logger = config.NewLogger(a.logLevel)

			store, err := a.open(cmd.Context(), a.sqlitePath, a.databaseURL, a.logger)
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			a.store = store
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.sqlitePath, "db", defaults.SQLiteDatabase, "Path to SQLite database")
	root.PersistentFlags().StringVar(&a.databaseURL, "database-url", "", "PostgreSQL connection string (overrides --db)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")

	root.AddCommand(a.importCmd(), a.findCmd(), a.routesCmd(), a.deleteCmd())
	return root
}

func (a *app) importCmd() *cobra.Command {
	var dryRun bool

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import routes into the catalog",
	}

	seedCmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Import routes from a YAML or JSON seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, routes, dryRun)
		},
	}

	gtfsCmd := &cobra.Command{
		Use:   "gtfs [zip]",
		Short: "Import routes from a GTFS static feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := gtfs.Parse(args[0], a.logger)
			if err != nil {
				return err
			}
			return a.write(cmd, gtfs.BuildRoutes(data, a.logger), dryRun)
		},
	}

	importCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Validate without writing")
	importCmd.AddCommand(seedCmd, gtfsCmd)
	return importCmd
}

func (a *app) write(cmd *cobra.Command, routes []models.Route, dryRun bool) error {
	if dryRun {
		for i := range routes {
			if err := routes[i].Validate(); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d routes valid (dry run)\n", len(routes))
		return nil
	}
	if err := a.store.UpsertRoutes(cmd.Context(), routes); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d routes\n", len(routes))
	return nil
}

func (a *app) findCmd() *cobra.Command {
	opts := search.DefaultOptions()
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find [from] [to]",
		Short: "Find journeys between two stops",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" || strings.TrimSpace(args[1]) == "" {
				return errors.New("from and to must not be blank")
			}
			routes, err := a.store.AllRoutes(cmd.Context())
			if err != nil {
				return err
			}

			paths := search.FindRoutes(args[0], args[1], routes, opts)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(paths)
			}
			printPaths(cmd.OutOrStdout(), paths)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.MaxTransfers, "max-transfers", opts.MaxTransfers, "Maximum number of transfers (0-2)")
	cmd.Flags().BoolVar(&opts.ForwardOnly, "forward-only", false, "Only ride routes in their listed stop order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func printPaths(w io.Writer, paths []search.Path) {
	if len(paths) == 0 {
		fmt.Fprintln(w, "no routes found")
		return
	}
	for i, p := range paths {
		fmt.Fprintf(w, "%d. %s\n", i+1, p.Kind)
		for j, leg := range p.Legs {
			fmt.Fprintf(w, "   %s: %s -> %s (%d stops)\n",
				leg.Route.Number, leg.Boarding(), leg.Alighting(), len(leg.Stops)-1)
			if j < len(p.Transfers) {
				fmt.Fprintf(w, "   change at %s\n", p.Transfers[j])
			}
		}
	}
}

func (a *app) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes [number]",
		Short: "List the catalog, or show one route",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				r, err := a.store.GetRouteByNumber(cmd.Context(), args[0])
				if errors.Is(err, repository.ErrRouteNotFound) {
					return fmt.Errorf("route %s is not in the catalog", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s\n", r.Number, r.Name)
				for i, stop := range r.Stops {
					fmt.Fprintf(out, "%3d  %s\n", i+1, stop)
				}
				return nil
			}

			routes, err := a.store.AllRoutes(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tNAME\tSTOPS\tHOURS\tEVERY")
			for _, r := range routes {
				hours := ""
				if r.StartTime != "" || r.EndTime != "" {
					hours = r.StartTime + "-" + r.EndTime
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Number, r.Name, len(r.Stops), hours, r.Frequency)
			}
			return tw.Flush()
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [number]",
		Short: "Remove a route from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.store.DeleteRoute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("route %s is not in the catalog", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted route %s\n", args[0])
			return nil
		},
	}
}
