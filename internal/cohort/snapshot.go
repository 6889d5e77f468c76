// Package cohort holds the loaded snapshot of merged child records and the
// pure operations views run over it: filter, search, sort and paginate. None
// of them mutate their input.
package cohort

import (
	"slices"
	"time"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Snapshot is an immutable merged collection produced by one load.
// A nil *Snapshot behaves like an empty one.
type Snapshot struct {
	records  []model.ChildRecord
	source   string
	result   model.LoadResult
	loadedAt time.Time
}

// NewSnapshot wraps records produced by a load. The slice is owned by the
// snapshot from this point on.
func NewSnapshot(records []model.ChildRecord, source string, result model.LoadResult, loadedAt time.Time) *Snapshot {
	result.Records = len(records)
	return &Snapshot{records: records, source: source, result: result, loadedAt: loadedAt}
}

// Empty returns a snapshot with no records, the result of a failed load.
func Empty(source string) *Snapshot {
	return &Snapshot{source: source}
}

// Records returns a copy of the record slice.
func (s *Snapshot) Records() []model.ChildRecord {
	if s == nil {
		return nil
	}
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// IsEmpty reports whether the snapshot holds no records.
func (s *Snapshot) IsEmpty() bool {
	return s.Len() == 0
}

// Source returns the record source the snapshot was loaded from.
func (s *Snapshot) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// Result returns the per-source row counts of the load.
func (s *Snapshot) Result() model.LoadResult {
	if s == nil {
		return model.LoadResult{}
	}
	r := s.result
	r.Degraded = slices.Clone(r.Degraded)
	return r
}

// Degraded lists the sources that failed but were tolerated by a partial load.
func (s *Snapshot) Degraded() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.result.Degraded)
}

// LoadedAt returns when the load completed. Zero for an empty snapshot.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}
