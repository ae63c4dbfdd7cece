package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"linkmap/core-go/internal/mapview"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		asGeoJSON bool
		clientID  int64
		outPath   string
		noSpread  bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the map model (or GeoJSON) for the current data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := a.cfg.Map.Options()
			if cmd.Flags().Changed("client-id") {
				opts.ClientID = &clientID
			}
			if noSpread {
				opts.SeparationEnabled = false
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			m, err := mapview.New(mapview.Config{Source: pool.Queries(), Logger: a.log}).Build(ctx, opts)
			if err != nil {
				return err
			}
			if m.Dropped > 0 {
				a.log.Warn().Int("dropped_links", m.Dropped).Msg("links without endpoint coordinates were left out")
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if asGeoJSON {
				return enc.Encode(mapview.GeoJSON(m))
			}
			return enc.Encode(m)
		},
	}
	cmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "Emit a GeoJSON FeatureCollection")
	cmd.Flags().Int64Var(&clientID, "client-id", 0, "Only include links for this client")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&noSpread, "no-spread", false, "Draw co-located sites on top of each other")
	return cmd
}
