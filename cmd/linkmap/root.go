package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"linkmap/core-go/internal/config"
	"linkmap/core-go/internal/db"
	"linkmap/core-go/internal/httpapi"
)

// app is the state shared by every subcommand once flags and config are
// resolved.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "linkmap",
		Short:         "Map microwave links between sites without overlapping markers or lines",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfg.ApplyEnv(os.Getenv); err != nil {
				return fmt.Errorf("reading environment: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = a.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a.cfg = cfg
			a.log = httpapi.NewLoggerTo(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "linkmap.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newSchemaCmd(a))
	root.AddCommand(newRenderCmd(a))
	return root
}

// openPool connects to the configured database or fails with a hint.
func (a *app) openPool(ctx context.Context) (*db.Pool, error) {
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("no database configured: set DATABASE_URL or database.url")
	}
	pool, err := db.Open(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}
