package server

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/export"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/stats"
	"github.com/sells-group/readiness-cli/internal/store"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string, details ...string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg, Details: details})
}

// bindAndValidate parses the shared view parameters, rendering a 400 on
// failure. ok is false when a response has already been written.
func (s *Server) bindAndValidate(w http.ResponseWriter, r *http.Request) (viewQuery, bool) {
	q, err := bindView(r.URL.Query(), s.opts.PageSize)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid query", err.Error())
		return q, false
	}
	if err := s.validate.Struct(q); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid query", validationMessages(err)...)
		return q, false
	}
	return q, true
}

type healthResponse struct {
	Status   string     `json:"status"`
	Source   string     `json:"source"`
	Records  int        `json:"records"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Degraded []string   `json:"degraded,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	resp := healthResponse{
		Status:   "ok",
		Source:   s.loader.Source(),
		Records:  snap.Len(),
		Degraded: snap.Degraded(),
	}
	if snap.IsEmpty() {
		resp.Status = "empty"
	}
	if at := snap.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = &at
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	q, ok := s.bindAndValidate(w, r)
	if !ok {
		return
	}
	records := q.apply(s.Snapshot().Records())
	render.JSON(w, r, cohort.Paginate(records, q.Page, q.PageSize))
}

type filtersResponse struct {
	Counties      []string             `json:"counties"`
	Districts     []string             `json:"districts"`
	Tiers         []string             `json:"tiers"`
	PovertyLevels []string             `json:"poverty_levels"`
	SortKeys      []cohort.SortKey     `json:"sort_keys"`
	Defaults      model.FilterCriteria `json:"defaults"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	records := s.Snapshot().Records()
	render.JSON(w, r, filtersResponse{
		Counties:      nonNil(cohort.UniqueValues(records, cohort.FieldCounty)),
		Districts:     nonNil(cohort.UniqueValues(records, cohort.FieldDistrict)),
		Tiers:         nonNil(cohort.UniqueValues(records, cohort.FieldTier)),
		PovertyLevels: model.PovertyLabels(),
		SortKeys:      cohort.SortKeys,
		Defaults:      model.DefaultFilter(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q, ok := s.bindAndValidate(w, r)
	if !ok {
		return
	}
	records := cohort.Filter(s.Snapshot().Records(), q.criteria())
	render.JSON(w, r, stats.Summarize(records, s.opts.Stats))
}

type simulationResponse struct {
	Seed uint64 `json:"seed"`
	stats.Simulation
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	q, ok := s.bindAndValidate(w, r)
	if !ok {
		return
	}

	// An explicit seed, zero included, is used as given.
	seed := s.opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	if r.URL.Query().Has("seed") {
		n, err := strconv.ParseUint(r.URL.Query().Get("seed"), 10, 64)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, "invalid query", "seed must be an unsigned integer")
			return
		}
		seed = n
	}

	records := cohort.Filter(s.Snapshot().Records(), q.criteria())
	sim := stats.Simulate(records, stats.NewRand(seed), s.opts.Simulation)
	render.JSON(w, r, simulationResponse{Seed: seed, Simulation: sim})
}

type reloadResponse struct {
	Run     *model.LoadRun `json:"run,omitempty"`
	Records int            `json:"records"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	run, err := s.Reload(r.Context())
	switch {
	case errors.Is(err, ErrLoadInProgress):
		renderError(w, r, http.StatusConflict, err.Error())
		return
	case err != nil:
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, reloadResponse{Run: run, Records: s.Snapshot().Len(), Error: err.Error()})
		return
	}
	render.JSON(w, r, reloadResponse{Run: run, Records: s.Snapshot().Len()})
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			renderError(w, r, http.StatusServiceUnavailable, "load audit log is disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q, err := bindRuns(r.URL.Query())
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if err := s.validate.Struct(q); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid query", validationMessages(err)...)
		return
	}

	runs, err := s.store.ListLoadRuns(r.Context(), store.RunFilter{
		Status: model.LoadStatus(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		zap.L().Error("server: list load runs", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "failed to list load runs")
		return
	}
	render.JSON(w, r, nonNil(runs))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	run, err := s.store.GetLoadRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		renderError(w, r, http.StatusNotFound, fmt.Sprintf("load run %s not found", id))
		return
	}
	if err != nil {
		zap.L().Error("server: get load run", zap.String("run_id", id), zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "failed to get load run")
		return
	}
	render.JSON(w, r, run)
}

func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	hours, err := intParam(r.URL.Query(), "hours", s.opts.LookbackHours)
	if err != nil || hours <= 0 {
		renderError(w, r, http.StatusBadRequest, "invalid query", "hours must be a positive integer")
		return
	}
	snap, err := s.runs.Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("server: collect run summary", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "failed to summarize load runs")
		return
	}
	render.JSON(w, r, snap)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "xlsx", xlsxContentType, export.WriteXLSX)
}

type writeFunc func(w io.Writer, records []model.ChildRecord) error

// serveExport writes the filtered, searched and sorted view without paging.
func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write writeFunc) {
	q, ok := s.bindAndValidate(w, r)
	if !ok {
		return
	}
	records := q.apply(s.Snapshot().Records())

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now(), ext)))
	if err := write(w, records); err != nil {
		// Headers are already sent; the client sees a truncated file.
		zap.L().Error("server: export failed", zap.String("format", ext), zap.Error(err))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
