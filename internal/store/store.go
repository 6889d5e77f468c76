// Package store persists the load audit log. Only run metadata is stored;
// child records never leave memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/readiness-cli/internal/model"
)

// ErrNotFound is returned when a load run id is unknown.
var ErrNotFound = errors.New("store: load run not found")

// RunFilter specifies criteria for listing load runs.
type RunFilter struct {
	Status model.LoadStatus `json:"status,omitempty"`
	Since  time.Time        `json:"since,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// DefaultListLimit caps ListLoadRuns when the filter sets no limit.
const DefaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for load runs.
type Store interface {
	CreateLoadRun(ctx context.Context, source string) (*model.LoadRun, error)
	CompleteLoadRun(ctx context.Context, runID string, result *model.LoadResult) error
	FailLoadRun(ctx context.Context, runID string, errMsg string) error
	GetLoadRun(ctx context.Context, runID string) (*model.LoadRun, error)
	ListLoadRuns(ctx context.Context, filter RunFilter) ([]model.LoadRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
