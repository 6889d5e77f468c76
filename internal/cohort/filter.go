package cohort

import (
	"github.com/sells-group/readiness-cli/internal/model"
)

// Filter returns the records matching every non-sentinel criterion, in input
// order. An empty criterion is treated as its sentinel, and an unrecognized
// poverty label leaves that dimension unfiltered.
func Filter(records []model.ChildRecord, c model.FilterCriteria) []model.ChildRecord {
	preds := predicates(c)

	out := make([]model.ChildRecord, 0, len(records))
	for _, r := range records {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

type predicate func(model.ChildRecord) bool

func predicates(c model.FilterCriteria) []predicate {
	var preds []predicate

	if active(c.County, model.AllCounties) {
		county := c.County
		preds = append(preds, func(r model.ChildRecord) bool { return r.CountyName == county })
	}
	if active(c.District, model.AllDistricts) {
		district := c.District
		preds = append(preds, func(r model.ChildRecord) bool { return r.DistrictID == district })
	}
	if active(c.RiskTier, model.AllRiskTiers) {
		tier := model.RiskTier(c.RiskTier)
		preds = append(preds, func(r model.ChildRecord) bool { return r.HasRisk() && r.Risk.Tier == tier })
	}
	if active(c.PovertyLevel, model.AllPovertyLevels) {
		if band, ok := model.ParsePovertyLabel(c.PovertyLevel); ok {
			preds = append(preds, func(r model.ChildRecord) bool { return r.PovertyBand() == band })
		}
	}
	return preds
}

func active(value, sentinel string) bool {
	return value != "" && value != sentinel
}

func matchAll(r model.ChildRecord, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}
