// Command citysim runs the grid city simulation: an HTTP server for player
// sessions and offline tools for simulating and inspecting saved cities.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/talgya/gridcity/internal/config"
)

func main() {
	var (
		cfg        config.Config
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:           "citysim",
		Short:         "Grid city simulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is normal outside development.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				slog.Warn("could not read .env", "error", err)
			}
			if configPath != "" {
				os.Setenv("CITYSIM_CONFIG", configPath)
			}
			loaded, err := config.FromEnv()
			if err != nil {
				return err
			}
			cfg = loaded

			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			slog.SetDefault(logger)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CITYSIM_CONFIG or citysim.yaml)")

	rootCmd.AddCommand(serveCmd(&cfg))
	rootCmd.AddCommand(simulateCmd(&cfg))
	rootCmd.AddCommand(showCmd(&cfg))
	rootCmd.AddCommand(exportCmd(&cfg))
	rootCmd.AddCommand(importCmd(&cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd(cfg *config.Config) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API serving player cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfg, resume)
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", true, "load every saved city into a session at startup")
	return cmd
}

func simulateCmd(cfg *config.Config) *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Advance a city offline and print the yearly reports",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSimulate(*cfg, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.years, "years", "y", 10, "years to advance")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "city name")
	cmd.Flags().StringVar(&opts.from, "from", "", "start from this save file instead of a new city")
	cmd.Flags().BoolVar(&opts.starter, "starter", true, "lay out a starter town on a new city")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the final city to this save file")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the final city in the database")
	return cmd
}

func showCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show [save-id | save-file]",
		Short: "Print a saved city, or list saves when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runList(cmd.Context(), *cfg)
			}
			return runShow(cmd.Context(), *cfg, args[0])
		},
	}
}

func exportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export [save-id] [file]",
		Short: "Write a database save to a compressed save file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return runExport(cmd.Context(), *cfg, args[0], path)
		},
	}
}

func importCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Validate a save file and store it in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *cfg, args[0])
		},
	}
}
