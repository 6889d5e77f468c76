// Package server exposes the loaded cohort over a JSON HTTP API: the
// explorer, the dashboard aggregates, exports, reloads and the load audit log.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/loader"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/monitoring"
	"github.com/sells-group/readiness-cli/internal/stats"
	"github.com/sells-group/readiness-cli/internal/store"
)

// ErrLoadInProgress is returned by Reload while another load is running.
var ErrLoadInProgress = errors.New("server: load already in progress")

// Loader produces snapshots. *loader.Loader satisfies it.
type Loader interface {
	Source() string
	LoadAndRecord(ctx context.Context, rec loader.Recorder) (*cohort.Snapshot, *model.LoadRun, error)
}

// Options configures the API.
type Options struct {
	PageSize       int
	AllowedOrigins []string
	Stats          stats.Options
	Simulation     stats.SimulationOptions
	// Seed fixes the simulation randomness. Zero draws a fresh seed per request.
	Seed          uint64
	LookbackHours int
}

// Server serves one snapshot at a time. A reload swaps the snapshot only
// after the new load completes, so readers never see a partial collection.
type Server struct {
	opts     Options
	loader   Loader
	store    store.Store
	runs     *monitoring.Collector
	validate *validator.Validate
	metrics  *metrics

	snap    atomic.Pointer[cohort.Snapshot]
	loading sync.Mutex
}

// New creates a Server. st may be nil when the audit log is disabled.
func New(l Loader, st store.Store, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = cohort.DefaultPageSize
	}
	if opts.LookbackHours <= 0 {
		opts.LookbackHours = 24
	}
	s := &Server{
		opts:     opts,
		loader:   l,
		store:    st,
		validate: newValidator(),
		metrics:  newMetrics(),
	}
	if st != nil {
		s.runs = monitoring.NewCollector(st)
	}
	return s
}

// Snapshot returns the snapshot currently served. Nil before the first
// successful load.
func (s *Server) Snapshot() *cohort.Snapshot {
	return s.snap.Load()
}

// Reload runs the loader and swaps in the new snapshot on success. A failed
// load keeps the previous snapshot. Concurrent calls get ErrLoadInProgress.
func (s *Server) Reload(ctx context.Context) (*model.LoadRun, error) {
	if !s.loading.TryLock() {
		return nil, ErrLoadInProgress
	}
	defer s.loading.Unlock()

	start := time.Now()
	snap, run, err := s.loader.LoadAndRecord(ctx, s.recorder())
	s.metrics.loadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.loads.WithLabelValues(string(model.LoadStatusFailed)).Inc()
		zap.L().Warn("server: reload failed, keeping previous snapshot",
			zap.String("source", s.loader.Source()),
			zap.Int("records", s.Snapshot().Len()),
			zap.Error(err),
		)
		return run, err
	}

	s.snap.Store(snap)
	s.metrics.loads.WithLabelValues(string(model.LoadStatusComplete)).Inc()
	s.metrics.records.Set(float64(snap.Len()))
	s.metrics.lastLoad.Set(float64(snap.LoadedAt().Unix()))
	s.metrics.degraded.Set(float64(len(snap.Degraded())))
	return run, nil
}

func (s *Server) recorder() loader.Recorder {
	if s.store == nil {
		return nil
	}
	return s.store
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.metrics.instrument)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/children", s.handleChildren)
			r.Get("/filters", s.handleFilters)
			r.Get("/stats", s.handleStats)
			r.Get("/simulation", s.handleSimulation)
			r.Post("/reload", s.handleReload)

			r.Route("/runs", func(r chi.Router) {
				r.Use(s.requireStore)
				r.Get("/", s.handleListRuns)
				r.Get("/summary", s.handleRunSummary)
				r.Get("/{runID}", s.handleGetRun)
			})
		})

		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
	})

	return r
}
