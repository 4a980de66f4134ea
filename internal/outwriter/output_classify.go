package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/parquet"
	"github.com/huangsam/tierscope/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintClassificationResults outputs the classification results, dispatching based on the output format configured.
func PrintClassificationResults(results []schema.ClassificationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassificationJSON(w, results)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassificationCSV(w, results, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteClassifications(w, parquet.ConvertClassificationResults(results))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassificationTable(w, results, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

// writeClassificationTable generates and writes the human-readable table.
func writeClassificationTable(w io.Writer, results []schema.ClassificationResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "ID", "Name", "Class", "Tier", "Score", "Severity"}
	if cfg.Detail {
		headers = append(headers, "Cluster", "Neighbor", "Primary", "Total", "Attend%", "Behavior", "Late", "Avg Min")
	}
	if cfg.Explain {
		headers = append(headers, "Explain")
	}
	headers = append(headers, "Reason")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxTableNameWidth(cfg)
	var data [][]string
	for i, r := range results {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(r.StudentID, 10),
			contract.TruncateText(r.Name, nameWidth),
			r.ClassCode,
			tierLabel(r.FinalTier, cfg),
			fmtFloat(r.CompositeScore),
			contract.GetSeverityLabel(r.AnomalySeverity),
		}
		if cfg.Detail {
			row = append(row,
				string(r.KMeansTier),
				string(r.KNNTier),
				string(r.PrimaryTier),
			)
			if d := r.Details; d != nil {
				row = append(row,
					fmtFloat(d.TotalScore),
					fmtFloat(d.AttendanceRate),
					fmtFloat(d.BehaviorScore),
					fmt.Sprintf(intFmt, d.LateSubmissions),
					fmtFloat(d.AvgTimeMinutes),
				)
			} else {
				row = append(row, "-", "-", "-", "-", "-")
			}
		}
		if cfg.Explain {
			row = append(row, formatTopBreakdown(r.Breakdown))
		}
		row = append(row, reasonCell(r))
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d students (%s)\n", len(results), formatTierCounts(schema.TierCounts(results))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Classification completed in %v with %d workers. Roster: %s\n", duration, cfg.Workers, rosterSource(cfg)); err != nil {
		return err
	}
	return nil
}

// writeClassificationCSV writes one row per student.
func writeClassificationCSV(w io.Writer, results []schema.ClassificationResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"rank",
		"student_id",
		"name",
		"class",
		"final_tier",
		"primary_tier",
		"kmeans_tier",
		"knn_tier",
		"composite_score",
		"anomaly_detected",
		"anomaly_severity",
		"anomaly_reason",
		"total_score",
		"attendance_rate",
		"behavior_score",
		"late_submissions",
		"avg_time_minutes",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range results {
			d := r.Details
			if d == nil {
				d = &schema.DetailedScores{}
			}
			rec := []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(r.StudentID, 10),
				r.Name,
				r.ClassCode,
				string(r.FinalTier),
				string(r.PrimaryTier),
				string(r.KMeansTier),
				string(r.KNNTier),
				fmtFloat(r.CompositeScore),
				strconv.FormatBool(r.AnomalyDetected),
				fmt.Sprintf(intFmt, r.AnomalySeverity),
				r.AnomalyReason,
				fmtFloat(d.TotalScore),
				fmtFloat(d.AttendanceRate),
				fmtFloat(d.BehaviorScore),
				fmt.Sprintf(intFmt, d.LateSubmissions),
				fmtFloat(d.AvgTimeMinutes),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeClassificationJSON writes the results with a rank added.
func writeClassificationJSON(w io.Writer, results []schema.ClassificationResult) error {
	type JSONClassificationResult struct {
		Rank int `json:"rank"`
		schema.ClassificationResult
	}

	output := make([]JSONClassificationResult, len(results))
	for i, r := range results {
		output[i] = JSONClassificationResult{Rank: i + 1, ClassificationResult: r}
	}
	return writeJSON(w, output)
}

// reasonCell is the reason column of a table row.
func reasonCell(r schema.ClassificationResult) string {
	if r.AnomalyReason == "" {
		return "-"
	}
	return r.AnomalyReason
}

// formatTierCounts renders tier counts best first, with the sentinel last when present.
func formatTierCounts(counts map[schema.Tier]int) string {
	parts := make([]string, 0, len(schema.TierOrder)+1)
	for _, tier := range schema.TierOrder {
		parts = append(parts, fmt.Sprintf("%s: %d", tier, counts[tier]))
	}
	if n := counts[schema.InsufficientTier]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s: %d", schema.InsufficientTier, n))
	}
	return strings.Join(parts, ", ")
}

// rosterSource names where the roster came from.
func rosterSource(cfg *contract.Config) string {
	if cfg.RosterPath != "" {
		return cfg.RosterPath
	}
	return fmt.Sprintf("%s store", cfg.RosterBackend)
}
