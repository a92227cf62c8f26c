package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/store"
	"github.com/sells-group/crimemap/internal/yearly"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Persist the computed snapshots of every loaded year",
	Long:  "Loads every configured year and saves crime and subtype rates as one run in the configured store (sqlite or postgres).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ys, err := loadData(ctx, cfg)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := exportSnapshots(ctx, st, cfg.Data.Base, ys)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "run %s: %d-%d, %d boroughs\n", run.ID, run.FirstYear, run.LastYear, run.Boroughs)
		return nil
	},
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func exportSnapshots(ctx context.Context, st store.Store, source string, ys *yearly.Store) (*store.Run, error) {
	snaps := make([]*model.YearlySnapshot, 0, len(ys.Years()))
	for _, year := range ys.Years() {
		snap, err := ys.Snapshot(year)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	run, err := st.SaveRun(ctx, source, snaps)
	if err != nil {
		return nil, eris.Wrap(err, "export")
	}
	zap.L().Info("snapshots exported",
		zap.String("run_id", run.ID),
		zap.String("driver", cfg.Store.Driver),
		zap.Int("years", len(snaps)),
	)
	return run, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
