package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/fetcher"
	"github.com/sells-group/readiness-cli/internal/loader"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/stats"
	"github.com/sells-group/readiness-cli/internal/store"
)

// initStore opens and migrates the load audit log. Driver "none" returns a
// nil store, which disables recording.
func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "readiness.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.DatabaseURL, &store.PoolConfig{
			MaxConns: c.MaxConns,
			MinConns: c.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// newLoader builds a Loader for the data section.
func newLoader(c config.DataConfig) *loader.Loader {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	router := fetcher.NewRouter(fetcher.RouterOptions{
		HTTP: fetcher.HTTPOptions{
			UserAgent:  c.UserAgent,
			Timeout:    timeout,
			MaxRetries: c.MaxRetries,
		},
		FTP: fetcher.FTPOptions{Timeout: timeout},
	})
	return loader.New(router, loader.Options{
		Source:            c.Source,
		ChildFile:         c.ChildFile,
		RiskFile:          c.RiskFile,
		ParticipationFile: c.ParticipationFile,
		DuplicateRisk:     loader.DuplicatePolicy(c.DuplicateRiskPolicy),
		PartialLoad:       c.PartialLoad,
	})
}

// loadCohort runs one recorded load. The audit log is closed before return.
func loadCohort(ctx context.Context) (*cohort.Snapshot, *model.LoadRun, error) {
	if err := cfg.Validate("load"); err != nil {
		return nil, nil, err
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	var rec loader.Recorder
	if st != nil {
		defer st.Close() //nolint:errcheck
		rec = st
	}

	return newLoader(cfg.Data).LoadAndRecord(ctx, rec)
}

func statsOptions(c config.StatsConfig) stats.Options {
	return stats.Options{
		MinCountySize:     c.MinCountySize,
		MinCountyTierSize: c.MinCountyTierSize,
		MinRegionSize:     c.MinRegionSize,
		MinProgramSize:    c.MinProgramSize,
		TopN:              c.TopN,
		TopHighRisk:       c.TopHighRisk,
		TopDrivers:        c.TopDrivers,
	}
}

func simulationOptions(c config.SimulationConfig) stats.SimulationOptions {
	return stats.SimulationOptions{
		SampleSize:      c.SampleSize,
		Share:           c.Share,
		Reduction:       c.Reduction,
		CostPerChild:    c.CostPerChild,
		BenefitPerChild: c.BenefitPerChild,
	}
}
