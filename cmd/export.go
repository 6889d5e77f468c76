package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/export"
	"github.com/sells-group/readiness-cli/internal/model"
)

var (
	exportView   viewFlags
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered, searched and sorted cohort as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		exportFormat = strings.ToLower(exportFormat)
		write, err := exportWriter(exportFormat)
		if err != nil {
			return err
		}

		snap, _, err := loadCohort(cmd.Context())
		if err != nil {
			return err
		}
		records, err := exportView.apply(snap.Records())
		if err != nil {
			return err
		}

		path := exportOut
		if path == "" {
			path = export.FileName(time.Now(), exportFormat)
		}
		if path == "-" {
			return write(os.Stdout, records)
		}

		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create export file")
		}
		if err := write(f, records); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "close export file")
		}

		zap.L().Info("export complete",
			zap.String("path", path),
			zap.String("format", exportFormat),
			zap.Int("rows", len(records)),
		)
		return nil
	},
}

func exportWriter(format string) (func(io.Writer, []model.ChildRecord) error, error) {
	switch format {
	case "csv":
		return export.WriteCSV, nil
	case "xlsx":
		return export.WriteXLSX, nil
	default:
		return nil, eris.Errorf("unsupported export format %q (want csv or xlsx)", format)
	}
}

func init() {
	exportView.register(exportCmd, true)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format (csv, xlsx)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", `output path, "-" for stdout (default cohort-explorer-<date>.<format>)`)
	rootCmd.AddCommand(exportCmd)
}
