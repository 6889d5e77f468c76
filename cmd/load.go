package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/stats"
)

// loadSummary is what `load` prints.
type loadSummary struct {
	RunID    string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source   string           `json:"source" yaml:"source"`
	LoadedAt time.Time        `json:"loaded_at" yaml:"loaded_at"`
	Result   model.LoadResult `json:"result" yaml:"result"`
	Unscored int              `json:"unscored" yaml:"unscored"`
	Tiers    []stats.Group    `json:"tiers" yaml:"tiers"`
}

func summarizeLoad(snap *cohort.Snapshot, run *model.LoadRun) loadSummary {
	records := snap.Records()
	s := loadSummary{
		Source:   snap.Source(),
		LoadedAt: snap.LoadedAt(),
		Result:   snap.Result(),
		Unscored: stats.Count(records, func(r model.ChildRecord) bool { return !r.HasRisk() }),
		Tiers:    stats.CountBy(records, stats.ByTier, func(model.ChildRecord) bool { return true }, tierKeys()...),
	}
	if run != nil {
		s.RunID = run.ID
	}
	return s
}

func tierKeys() []string {
	keys := make([]string, len(model.RiskTiers))
	for i, t := range model.RiskTiers {
		keys[i] = string(t)
	}
	return keys
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load and join the source tables once and print a summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snap, run, err := loadCohort(cmd.Context())
		if err != nil {
			return err
		}
		return writeOutput(os.Stdout, outputFormat(cmd), summarizeLoad(snap, run))
	},
}

func init() {
	addFormatFlag(loadCmd, "yaml")
	rootCmd.AddCommand(loadCmd)
}
