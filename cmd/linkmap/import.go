package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"linkmap/core-go/internal/importer"
)

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load clients, sites and links from a licensing CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			plan, err := importer.Parse(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			if dryRun {
				return out.Encode(plan.Summary())
			}

			ctx := cmd.Context()
			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			stats, err := importer.New(a.log, importer.PoolStore(pool), nil).Run(ctx, plan)
			if err != nil {
				return fmt.Errorf("import batch %s: %w", stats.BatchID, err)
			}
			return out.Encode(stats)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and summarise without writing")
	return cmd
}
