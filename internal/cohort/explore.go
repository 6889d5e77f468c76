package cohort

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/readiness-cli/internal/model"
)

// DefaultPageSize is the explorer page size when none is given.
const DefaultPageSize = 25

// Search returns the records whose child id or county name contains term,
// ignoring case. An empty term returns a copy of the input.
func Search(records []model.ChildRecord, term string) []model.ChildRecord {
	term = strings.TrimSpace(term)
	if term == "" {
		return slices.Clone(records)
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]model.ChildRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(fold.String(r.ChildDCN), needle) ||
			strings.Contains(fold.String(r.CountyName), needle) {
			out = append(out, r)
		}
	}
	return out
}

// SortKey names a sortable column of the explorer.
type SortKey string

const (
	SortChildDCN      SortKey = "child_dcn"
	SortCounty        SortKey = "county"
	SortDistrict      SortKey = "district"
	SortComposite     SortKey = "composite_risk_score"
	SortTier          SortKey = "risk_tier"
	SortStability     SortKey = "stability_score"
	SortEngagement    SortKey = "engagement_score"
	SortDevelopmental SortKey = "developmental_score"
	SortContext       SortKey = "context_score"
	SortPoverty       SortKey = "poverty_percent"
)

// SortKeys lists every valid sort key.
var SortKeys = []SortKey{
	SortChildDCN, SortCounty, SortDistrict, SortComposite, SortTier,
	SortStability, SortEngagement, SortDevelopmental, SortContext, SortPoverty,
}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if !slices.Contains(SortKeys, k) {
		return "", eris.Errorf("cohort: unknown sort key %q", s)
	}
	return k, nil
}

// sortValue extracts the comparable value of a key. ok is false when the
// record has no value for it.
func sortValue(r model.ChildRecord, key SortKey) (num float64, str string, ok bool) {
	switch key {
	case SortChildDCN:
		return 0, r.ChildDCN, r.ChildDCN != ""
	case SortCounty:
		return 0, r.CountyName, r.CountyName != ""
	case SortDistrict:
		return 0, r.DistrictID, r.DistrictID != ""
	case SortPoverty:
		return r.PovertyPercent, "", r.PovertyKnown
	}

	if r.Risk == nil {
		return 0, "", false
	}
	switch key {
	case SortComposite:
		return r.Risk.CompositeScore, "", true
	case SortTier:
		rank := r.Risk.Tier.Rank()
		return float64(rank), "", rank > 0
	case SortStability:
		return r.Risk.StabilityScore, "", true
	case SortEngagement:
		return r.Risk.EngagementScore, "", true
	case SortDevelopmental:
		return r.Risk.DevelopmentalScore, "", true
	case SortContext:
		return r.Risk.ContextScore, "", true
	}
	return 0, "", false
}

// Sort returns a stably sorted copy. Records missing the key's value go last
// in both directions. Risk tiers order by severity.
func Sort(records []model.ChildRecord, key SortKey, desc bool) []model.ChildRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.ChildRecord) int {
		an, as, aok := sortValue(a, key)
		bn, bs, bok := sortValue(b, key)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := cmp.Compare(an, bn)
		if c == 0 {
			c = strings.Compare(as, bs)
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Page is one page of the explorer.
type Page struct {
	Records    []model.ChildRecord `json:"records"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// Paginate slices out a 1-based page. A page outside [1, TotalPages] is empty.
func Paginate(records []model.ChildRecord, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	p := Page{
		Records:    []model.ChildRecord{},
		Total:      len(records),
		Page:       page,
		PageSize:   size,
		TotalPages: (len(records) + size - 1) / size,
	}
	if page < 1 || page > p.TotalPages {
		return p
	}

	start := (page - 1) * size
	end := min(start+size, len(records))
	p.Records = slices.Clone(records[start:end])
	return p
}

// Field names a categorical column offered as a filter choice.
type Field string

const (
	FieldCounty   Field = "county"
	FieldDistrict Field = "district"
	FieldTier     Field = "tier"
)

// UniqueValues returns the distinct non-empty values of a field. Counties and
// districts sort lexically and tiers by severity.
func UniqueValues(records []model.ChildRecord, field Field) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		var v string
		switch field {
		case FieldCounty:
			v = r.CountyName
		case FieldDistrict:
			v = r.DistrictID
		case FieldTier:
			v = string(r.Tier())
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if field == FieldTier {
		slices.SortFunc(out, func(a, b string) int {
			return cmp.Compare(model.RiskTier(a).Rank(), model.RiskTier(b).Rank())
		})
		return out
	}
	slices.Sort(out)
	return out
}
