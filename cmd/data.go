package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/config"
	"github.com/sells-group/crimemap/internal/fetcher"
	"github.com/sells-group/crimemap/internal/geo"
	"github.com/sells-group/crimemap/internal/socio"
	"github.com/sells-group/crimemap/internal/yearly"
)

// newLoader builds the tabular loader for the configured data base.
func newLoader(c *config.Config) (*fetcher.Loader, error) {
	return fetcher.NewLoader(c.Data.Base, fetcher.LoaderOptions{
		HTTP: fetcher.HTTPOptions{
			UserAgent:         c.Fetch.UserAgent,
			Timeout:           c.Fetch.Timeout(),
			MaxRetries:        c.Fetch.MaxRetries,
			RequestsPerSecond: c.Fetch.RequestsPerSecond,
		},
		FTP:     fetcher.FTPOptions{Timeout: c.Fetch.Timeout()},
		TempDir: c.Fetch.TempDir,
	})
}

// indicatorTable returns the configured indicator table, or the built-in one.
func indicatorTable(c *config.Config) (socio.Table, error) {
	if c.Data.IndicatorsFile == "" {
		return socio.DefaultTable(), nil
	}
	return socio.LoadTable(c.Data.IndicatorsFile)
}

// loadData runs the startup barrier: every configured year and indicator is
// loaded before anything is returned.
func loadData(ctx context.Context, c *config.Config) (*yearly.Store, error) {
	loader, err := newLoader(c)
	if err != nil {
		return nil, err
	}
	table, err := indicatorTable(c)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	st, err := yearly.Load(ctx, loader, yearly.Options{
		FirstYear:   c.Data.FirstYear,
		LastYear:    c.Data.LastYear,
		DefaultYear: c.Data.DefaultYear,
		Table:       table,
		Concurrency: c.Data.Concurrency,
	})
	if err != nil {
		return nil, eris.Wrap(err, "load data")
	}
	zap.L().Info("data loaded",
		zap.String("base", loader.Base()),
		zap.Ints("years", st.Years()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return st, nil
}

// loadBoundaries reads the borough polygons. A relative path is resolved
// against the data base and fetched when the base is remote.
func loadBoundaries(ctx context.Context, c *config.Config) (*geo.Boundaries, error) {
	if c.Data.Boundaries == "" {
		return nil, nil
	}
	loader, err := newLoader(c)
	if err != nil {
		return nil, err
	}
	path, cleanup, err := loader.LocalCopy(ctx, c.Data.Boundaries)
	if err != nil {
		return nil, eris.Wrap(err, "load boundaries")
	}
	defer cleanup()
	return geo.LoadBoundaries(path)
}
