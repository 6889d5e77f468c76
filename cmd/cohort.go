package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/export"
)

var (
	cohortView     viewFlags
	cohortPage     int
	cohortPageSize int
	cohortJSON     bool
)

var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Browse the merged cohort: filter, search, sort and page",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cohortView.sort != "" {
			if _, err := cohort.ParseSortKey(cohortView.sort); err != nil {
				return err
			}
		}
		size := cohortPageSize
		if size == 0 {
			size = cfg.Cohort.PageSize
		}
		if cohortPage < 1 {
			return eris.New("--page must be >= 1")
		}

		snap, _, err := loadCohort(cmd.Context())
		if err != nil {
			return err
		}

		records, err := cohortView.apply(snap.Records())
		if err != nil {
			return err
		}
		page := cohort.Paginate(records, cohortPage, size)

		if cohortJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		}
		formatCohortPage(os.Stdout, page)
		return nil
	},
}

func init() {
	cohortView.register(cohortCmd, true)
	cohortCmd.Flags().IntVar(&cohortPage, "page", 1, "1-based page number")
	cohortCmd.Flags().IntVar(&cohortPageSize, "page-size", 0, "rows per page (default from config)")
	cohortCmd.Flags().BoolVar(&cohortJSON, "json", false, "print the page as JSON")
	rootCmd.AddCommand(cohortCmd)
}

// formatCohortPage writes the explorer table to w.
func formatCohortPage(out io.Writer, p cohort.Page) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHILD_DCN\tCOUNTY\tRISK\tTIER\tSTABILITY\tENGAGEMENT\tDEVELOPMENTAL\tCONTEXT\tDRIVERS")
	for _, r := range p.Records {
		row := export.Row(r)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row[0], row[1], orDash(row[2]), orDash(row[3]), orDash(row[4]),
			orDash(row[5]), orDash(row[6]), orDash(row[7]), row[8])
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\nPage %d of %d (%d children)\n", p.Page, max(p.TotalPages, 1), p.Total)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
