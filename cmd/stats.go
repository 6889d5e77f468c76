package main

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/stats"
)

var (
	statsView    viewFlags
	statsSection string

	simulateView   viewFlags
	simulateSeed   uint64
	simulateSample bool
)

// summarySections maps --section names to their part of the summary.
var summarySections = map[string]func(stats.Summary) any{
	"overview":      func(s stats.Summary) any { return s.Overview },
	"tiers":         func(s stats.Summary) any { return s.Tiers },
	"domains":       func(s stats.Summary) any { return s.Domains },
	"poverty":       func(s stats.Summary) any { return s.Poverty },
	"participation": func(s stats.Summary) any { return s.Participation },
	"developmental": func(s stats.Summary) any { return s.Developmental },
	"indicators":    func(s stats.Summary) any { return s.Indicators },
	"drivers":       func(s stats.Summary) any { return s.Drivers },
	"geography":     func(s stats.Summary) any { return s.Geography },
}

func sectionNames() []string {
	names := make([]string, 0, len(summarySections))
	for k := range summarySections {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard aggregates for the filtered cohort",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var pick func(stats.Summary) any
		if statsSection != "" {
			var ok bool
			if pick, ok = summarySections[statsSection]; !ok {
				return eris.Errorf("unknown section %q (want one of %s)", statsSection, strings.Join(sectionNames(), ", "))
			}
		}

		snap, _, err := loadCohort(cmd.Context())
		if err != nil {
			return err
		}

		records := cohort.Filter(snap.Records(), statsView.criteria())
		summary := stats.Summarize(records, statsOptions(cfg.Stats))
		if pick != nil {
			return writeOutput(os.Stdout, outputFormat(cmd), pick(summary))
		}
		return writeOutput(os.Stdout, outputFormat(cmd), summary)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the illustrative intervention scenario over the filtered cohort",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed := resolveSeed(cmd.Flags().Changed("seed"), simulateSeed, cfg.Simulation.Seed)

		snap, _, err := loadCohort(cmd.Context())
		if err != nil {
			return err
		}

		records := cohort.Filter(snap.Records(), simulateView.criteria())
		sim := stats.Simulate(records, stats.NewRand(seed), simulationOptions(cfg.Simulation))
		if !simulateSample {
			sim.Sample = nil
		}
		return writeOutput(os.Stdout, outputFormat(cmd), struct {
			Seed             uint64 `json:"seed" yaml:"seed"`
			stats.Simulation `yaml:",inline"`
		}{seed, sim})
	},
}

// resolveSeed returns the --seed value when it was given, zero included,
// else the configured seed, else one drawn from the clock.
func resolveSeed(explicit bool, flag, configured uint64) uint64 {
	if explicit {
		return flag
	}
	if configured != 0 {
		return configured
	}
	return uint64(time.Now().UnixNano())
}

func init() {
	statsView.register(statsCmd, false)
	statsCmd.Flags().StringVar(&statsSection, "section", "", "print one section: "+strings.Join(sectionNames(), ", "))
	addFormatFlag(statsCmd, "yaml")

	simulateView.register(simulateCmd, false)
	simulateCmd.Flags().Uint64Var(&simulateSeed, "seed", 0, "random seed (default from config, else the clock)")
	simulateCmd.Flags().BoolVar(&simulateSample, "sample", false, "include the per-child scatter sample")
	addFormatFlag(simulateCmd, "yaml")

	statsCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statsCmd)
}
