package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Flag kinds in CSV output.
const (
	flagExcellent = "excellent"
	flagAnomaly   = "anomaly"
)

// PrintFlaggedResults outputs the special-students view.
func PrintFlaggedResults(flagged schema.FlaggedResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, flagged)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFlaggedCSV(w, flagged, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFlaggedText(w, flagged, cfg, fmtFloat, duration)
		}, "Wrote text")
	}
}

func writeFlaggedText(w io.Writer, flagged schema.FlaggedResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	nameWidth := getMaxTableNameWidth(cfg)

	if _, err := fmt.Fprintf(w, "🏆 Excellent students (%d)\n", len(flagged.Excellent)); err != nil {
		return err
	}
	if len(flagged.Excellent) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Rank", "ID", "Name", "Class", "Score"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for i, r := range flagged.Excellent {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(r.StudentID, 10),
				contract.TruncateText(r.Name, nameWidth),
				r.ClassCode,
				fmtFloat(r.CompositeScore),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n⚠️  Anomalies (%d)\n", len(flagged.Anomalies)); err != nil {
		return err
	}
	if len(flagged.Anomalies) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Rank", "ID", "Name", "Class", "Tier", "Severity", "Reason"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for i, r := range flagged.Anomalies {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(r.StudentID, 10),
				contract.TruncateText(r.Name, nameWidth),
				r.ClassCode,
				tierLabel(r.FinalTier, cfg),
				contract.GetSeverityLabel(r.AnomalySeverity),
				reasonCell(r),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Classification completed in %v with %d workers. Roster: %s\n", duration, cfg.Workers, rosterSource(cfg))
	return err
}

// writeFlaggedCSV writes both lists into one table keyed by flag kind.
func writeFlaggedCSV(w io.Writer, flagged schema.FlaggedResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"flag", "rank", "student_id", "name", "class", "final_tier", "composite_score", "anomaly_severity", "anomaly_reason"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		write := func(kind string, results []schema.ClassificationResult) error {
			for i, r := range results {
				rec := []string{
					kind,
					strconv.Itoa(i + 1),
					strconv.FormatInt(r.StudentID, 10),
					r.Name,
					r.ClassCode,
					string(r.FinalTier),
					fmtFloat(r.CompositeScore),
					fmt.Sprintf(intFmt, r.AnomalySeverity),
					r.AnomalyReason,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		}
		if err := write(flagExcellent, flagged.Excellent); err != nil {
			return err
		}
		return write(flagAnomaly, flagged.Anomalies)
	})
}
