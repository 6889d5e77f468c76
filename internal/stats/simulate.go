package stats

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/sells-group/readiness-cli/internal/model"
)

// SimulationOptions parameterizes the illustrative intervention scenario.
type SimulationOptions struct {
	SampleSize      int     `mapstructure:"sample_size"`
	Share           float64 `mapstructure:"share"`
	Reduction       float64 `mapstructure:"reduction"`
	CostPerChild    float64 `mapstructure:"cost_per_child"`
	BenefitPerChild float64 `mapstructure:"benefit_per_child"`
}

// DefaultSimulationOptions targets the top 20% of risk with a 20% reduction.
func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{
		SampleSize:      500,
		Share:           0.2,
		Reduction:       0.2,
		CostPerChild:    3000,
		BenefitPerChild: 8000,
	}
}

// SimPoint is one child in the scatter sample.
type SimPoint struct {
	ChildDCN     string  `json:"child_dcn" yaml:"child_dcn"`
	Score        float64 `json:"score" yaml:"score"`
	Simulated    float64 `json:"simulated" yaml:"simulated"`
	Intervention bool    `json:"intervention" yaml:"intervention"`
}

// Simulation is the outcome of one scenario run.
type Simulation struct {
	Threshold         float64 `json:"threshold" yaml:"threshold"`
	InterventionCount int     `json:"intervention_count" yaml:"intervention_count"`
	ControlCount      int     `json:"control_count" yaml:"control_count"`

	InterventionRisk       float64 `json:"intervention_risk" yaml:"intervention_risk"`
	InterventionSimulated  float64 `json:"intervention_simulated" yaml:"intervention_simulated"`
	InterventionWithEffect float64 `json:"intervention_with_effect" yaml:"intervention_with_effect"`
	ControlRisk            float64 `json:"control_risk" yaml:"control_risk"`
	ControlSimulated       float64 `json:"control_simulated" yaml:"control_simulated"`
	OverallRisk            float64 `json:"overall_risk" yaml:"overall_risk"`
	OverallSimulated       float64 `json:"overall_simulated" yaml:"overall_simulated"`

	TotalCost    float64 `json:"total_cost" yaml:"total_cost"`
	TotalBenefit float64 `json:"total_benefit" yaml:"total_benefit"`
	ROI          float64 `json:"roi_percent" yaml:"roi_percent"`

	Sample []SimPoint `json:"sample" yaml:"sample"`
}

// Simulate projects a later-grade risk for every scored record as
// clamp(score*0.7 + U(-10,10), 0, 100) and applies a proportional reduction to
// the highest-risk share. rng supplies all randomness.
func Simulate(records []model.ChildRecord, rng *rand.Rand, opts SimulationOptions) Simulation {
	scored := Where(records, Scored)
	if len(scored) == 0 {
		return Simulation{Sample: []SimPoint{}}
	}

	points := make([]SimPoint, len(scored))
	for i, r := range scored {
		score := r.Risk.CompositeScore
		points[i] = SimPoint{
			ChildDCN:  r.ChildDCN,
			Score:     score,
			Simulated: clamp(score*0.7+(rng.Float64()-0.5)*20, 0, 100),
		}
	}

	desc := make([]float64, len(points))
	for i, p := range points {
		desc[i] = p.Score
	}
	slices.SortFunc(desc, func(a, b float64) int { return cmp.Compare(b, a) })
	idx := min(int(float64(len(desc))*opts.Share), len(desc)-1)
	threshold := desc[max(idx, 0)]

	var (
		iRisk, iSim, cRisk, cSim, allRisk, allSim float64
		nI, nC                                    int
	)
	for i := range points {
		p := &points[i]
		allRisk += p.Score
		allSim += p.Simulated
		if p.Score >= threshold {
			p.Intervention = true
			iRisk += p.Score
			iSim += p.Simulated
			nI++
			continue
		}
		cRisk += p.Score
		cSim += p.Simulated
		nC++
	}

	s := Simulation{
		Threshold:         threshold,
		InterventionCount: nI,
		ControlCount:      nC,
		InterventionRisk:  ratio(iRisk, nI),
		ControlRisk:       ratio(cRisk, nC),
		ControlSimulated:  ratio(cSim, nC),
		OverallRisk:       ratio(allRisk, len(points)),
		OverallSimulated:  ratio(allSim, len(points)),
		TotalCost:         float64(nI) * opts.CostPerChild,
		TotalBenefit:      float64(nI) * opts.BenefitPerChild,
	}
	s.InterventionSimulated = ratio(iSim, nI)
	s.InterventionWithEffect = s.InterventionSimulated * (1 - opts.Reduction)
	if s.TotalCost > 0 {
		s.ROI = (s.TotalBenefit - s.TotalCost) / s.TotalCost * 100
	}

	rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
	if opts.SampleSize > 0 && len(points) > opts.SampleSize {
		points = points[:opts.SampleSize]
	}
	s.Sample = points
	return s
}

// NewRand returns the deterministic source Simulate expects for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed>>32|seed<<32))
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
