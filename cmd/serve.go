package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/monitoring"
	"github.com/sells-group/readiness-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the cohort and serve the explorer, stats and export API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		srv := server.New(newLoader(cfg.Data), st, server.Options{
			PageSize:       cfg.Cohort.PageSize,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Stats:          statsOptions(cfg.Stats),
			Simulation:     simulationOptions(cfg.Simulation),
			Seed:           cfg.Simulation.Seed,
			LookbackHours:  cfg.Monitoring.LookbackWindowHours,
		})

		// A failed first load leaves the API up with an empty cohort; a
		// later POST /api/reload can recover it.
		if _, err := srv.Reload(ctx); err != nil {
			zap.L().Error("initial load failed, serving empty cohort", zap.Error(err))
		}

		if cfg.Monitoring.Enabled {
			if st == nil {
				zap.L().Warn("monitoring enabled but store driver is none, skipping load checker")
			} else {
				checker := monitoring.NewChecker(
					monitoring.NewCollector(st),
					monitoring.NewAlerter(cfg.Monitoring),
					cfg.Monitoring,
				)
				go checker.Run(ctx)
			}
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("source", cfg.Data.Source),
			zap.Int("records", srv.Snapshot().Len()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
