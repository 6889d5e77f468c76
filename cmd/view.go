package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/model"
)

// viewFlags are the filter, search and sort flags shared by the cohort,
// export and stats commands.
type viewFlags struct {
	county   string
	district string
	tier     string
	poverty  string
	search   string
	sort     string
	asc      bool
}

func (v *viewFlags) register(cmd *cobra.Command, withSort bool) {
	fs := cmd.Flags()
	fs.StringVar(&v.county, "county", model.AllCounties, "county name filter")
	fs.StringVar(&v.district, "district", model.AllDistricts, "district id filter")
	fs.StringVar(&v.tier, "tier", model.AllRiskTiers, "risk tier filter (Low, Moderate, High)")
	fs.StringVar(&v.poverty, "poverty", model.AllPovertyLevels, `poverty band label, e.g. "Deep Poverty (<100%)"`)
	if !withSort {
		return
	}
	fs.StringVar(&v.search, "search", "", "case-insensitive match on child id or county")
	fs.StringVar(&v.sort, "sort", string(cohort.SortComposite), "sort column")
	fs.BoolVar(&v.asc, "asc", false, "sort ascending (default descending)")
}

func (v *viewFlags) criteria() model.FilterCriteria {
	return model.FilterCriteria{
		County:       v.county,
		District:     v.district,
		RiskTier:     v.tier,
		PovertyLevel: v.poverty,
	}
}

// apply filters, searches and sorts records, the order the explorer uses.
func (v *viewFlags) apply(records []model.ChildRecord) ([]model.ChildRecord, error) {
	out := cohort.Filter(records, v.criteria())
	out = cohort.Search(out, v.search)
	if v.sort == "" {
		return out, nil
	}
	key, err := cohort.ParseSortKey(v.sort)
	if err != nil {
		return nil, err
	}
	return cohort.Sort(out, key, !v.asc), nil
}
