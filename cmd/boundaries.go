package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/geo"
)

var boundariesOut string

var boundariesCmd = &cobra.Command{
	Use:   "boundaries <file>",
	Short: "Convert borough boundaries (shapefile, zipped shapefile or GeoJSON) to GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := geo.LoadBoundaries(args[0])
		if err != nil {
			return err
		}

		if boundariesOut == "" {
			return b.WriteGeoJSON(os.Stdout)
		}
		f, err := os.Create(boundariesOut)
		if err != nil {
			return eris.Wrap(err, "create output")
		}
		if err := b.WriteGeoJSON(f); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "close output")
		}
		zap.L().Info("boundaries written",
			zap.String("path", boundariesOut),
			zap.Int("boroughs", len(b.Names())),
		)
		fmt.Fprintf(os.Stderr, "%d boroughs written to %s\n", len(b.Names()), boundariesOut)
		return nil
	},
}

func init() {
	boundariesCmd.Flags().StringVarP(&boundariesOut, "out", "o", "", "output GeoJSON file (default stdout)")
	rootCmd.AddCommand(boundariesCmd)
}
