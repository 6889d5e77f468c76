// Package stats computes the descriptive aggregates behind each dashboard
// view. Every reduction is zero-safe: an empty input or group yields 0, never
// NaN.
package stats

import (
	"cmp"
	"slices"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Group is one bucket of a grouped reduction.
type Group struct {
	Key   string  `json:"key" yaml:"key"`
	Count int     `json:"count" yaml:"count"`
	Value float64 `json:"value" yaml:"value"`
}

// Metric extracts a numeric value. ok is false when the record has none, and
// such records are skipped.
type Metric func(model.ChildRecord) (float64, bool)

// Predicate tests a record.
type Predicate func(model.ChildRecord) bool

// KeyFunc assigns a record to a group. ok is false to leave it out.
type KeyFunc func(model.ChildRecord) (string, bool)

// Mean averages a metric over the records that have it.
func Mean(records []model.ChildRecord, m Metric) float64 {
	var sum float64
	n := 0
	for _, r := range records {
		if v, ok := m(r); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Count returns how many records satisfy p.
func Count(records []model.ChildRecord, p Predicate) int {
	n := 0
	for _, r := range records {
		if p(r) {
			n++
		}
	}
	return n
}

// Prevalence returns the percentage (0-100) of records satisfying p.
func Prevalence(records []model.ChildRecord, p Predicate) float64 {
	return percent(Count(records, p), len(records))
}

// Where returns the records satisfying p, in order.
func Where(records []model.ChildRecord, p Predicate) []model.ChildRecord {
	out := make([]model.ChildRecord, 0, len(records))
	for _, r := range records {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

// Lift is the prevalence of p within subgroup minus its prevalence within
// all, in percentage points.
func Lift(subgroup, all []model.ChildRecord, p Predicate) float64 {
	return Prevalence(subgroup, p) - Prevalence(all, p)
}

// MeanBy averages a metric per group. When keys are given the result lists
// exactly those groups in that order, empty ones included; otherwise groups
// appear in first-seen order.
func MeanBy(records []model.ChildRecord, key KeyFunc, m Metric, keys ...string) []Group {
	return reduceBy(records, key, keys, func(members []model.ChildRecord) float64 {
		return Mean(members, m)
	})
}

// PrevalenceBy returns the prevalence of p per group. Keys behave as in MeanBy.
func PrevalenceBy(records []model.ChildRecord, key KeyFunc, p Predicate, keys ...string) []Group {
	return reduceBy(records, key, keys, func(members []model.ChildRecord) float64 {
		return Prevalence(members, p)
	})
}

// CountBy counts records satisfying p per group. Keys behave as in MeanBy.
func CountBy(records []model.ChildRecord, key KeyFunc, p Predicate, keys ...string) []Group {
	return reduceBy(records, key, keys, func(members []model.ChildRecord) float64 {
		return float64(Count(members, p))
	})
}

func reduceBy(records []model.ChildRecord, key KeyFunc, keys []string, reduce func([]model.ChildRecord) float64) []Group {
	order, members := partition(records, key)
	if len(keys) > 0 {
		order = keys
	}

	out := make([]Group, 0, len(order))
	for _, k := range order {
		m := members[k]
		out = append(out, Group{Key: k, Count: len(m), Value: reduce(m)})
	}
	return out
}

func partition(records []model.ChildRecord, key KeyFunc) ([]string, map[string][]model.ChildRecord) {
	var order []string
	members := make(map[string][]model.ChildRecord)
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := members[k]; !seen {
			order = append(order, k)
		}
		members[k] = append(members[k], r)
	}
	return order, members
}

// TopGroups keeps groups with at least minSize members, orders them by value
// descending (ties by key), and truncates to limit. limit <= 0 keeps all.
func TopGroups(groups []Group, minSize, limit int) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Count >= minSize {
			out = append(out, g)
		}
	}
	slices.SortStableFunc(out, func(a, b Group) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func stableByValue(groups []Group) []Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b Group) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
