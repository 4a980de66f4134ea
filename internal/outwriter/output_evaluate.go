package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Evaluation sections in CSV output.
const (
	sectionSplit         = "split"
	sectionNormalization = "normalization"
	sectionCrossVal      = "cross_validation"
	sectionNeighbors     = "neighbors"
)

// PrintEvaluationReport outputs the evaluation harness report.
func PrintEvaluationReport(report schema.EvaluationReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationCSV(w, report, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationText(w, report, cfg, fmtFloat, duration)
		}, "Wrote text")
	}
}

// metricCells formats the metric columns of a row, or the skip reason.
func metricCells(m *schema.ClassMetrics, skipped string, fmtFloat func(float64) string) []string {
	if m == nil {
		return []string{"-", "-", "-", "-", skipped}
	}
	return []string{fmtFloat(m.Accuracy), fmtFloat(m.Precision), fmtFloat(m.Recall), fmtFloat(m.F1), "-"}
}

// renderMetricsTable renders a table whose trailing columns are metricCells.
func renderMetricsTable(w io.Writer, lead []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(append(lead, "Accuracy", "Precision", "Recall", "F1", "Skipped"))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func writeEvaluationText(w io.Writer, report schema.EvaluationReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "📊 Evaluation of %d students against %s reference labels\n\n", report.Students, report.Reference); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "Train/test splits"); err != nil {
		return err
	}
	var rows [][]string
	for _, s := range report.Splits {
		row := []string{fmt.Sprintf("%.0f%%", s.TestFraction*100), strconv.Itoa(s.TrainSize), strconv.Itoa(s.TestSize)}
		rows = append(rows, append(row, metricCells(s.Metrics, s.Skipped, fmtFloat)...))
	}
	if err := renderMetricsTable(w, []string{"Test", "Train", "Holdout"}, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nNormalization methods"); err != nil {
		return err
	}
	rows = nil
	for _, n := range report.Normalizations {
		rows = append(rows, append([]string{string(n.Method)}, metricCells(n.Metrics, n.Skipped, fmtFloat)...))
	}
	if err := renderMetricsTable(w, []string{"Method"}, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nNeighbor sweep"); err != nil {
		return err
	}
	rows = nil
	for _, n := range report.NeighborSweep {
		rows = append(rows, append([]string{strconv.Itoa(n.K)}, metricCells(n.Metrics, n.Skipped, fmtFloat)...))
	}
	if err := renderMetricsTable(w, []string{"K"}, rows); err != nil {
		return err
	}

	cv := report.CrossValidation
	if cv.Skipped != "" {
		if _, err := fmt.Fprintf(w, "\n%d-fold cross-validation skipped: %s\n", cv.Folds, cv.Skipped); err != nil {
			return err
		}
	} else {
		scores := make([]string, len(cv.Scores))
		for i, s := range cv.Scores {
			scores[i] = fmtFloat(s)
		}
		if _, err := fmt.Fprintf(w, "\n%d-fold cross-validation accuracy: %s ± %s [%s]\n",
			cv.Folds, fmtFloat(cv.Mean), fmtFloat(cv.Std), strings.Join(scores, ", ")); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Evaluation completed in %v. Roster: %s\n", duration, rosterSource(cfg))
	return err
}

// writeEvaluationCSV flattens every section into rows keyed by section and setting.
func writeEvaluationCSV(w io.Writer, report schema.EvaluationReport, fmtFloat func(float64) string) error {
	header := []string{"section", "setting", "train_size", "test_size", "accuracy", "precision", "recall", "f1", "std", "skipped"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		row := func(section, setting, train, test string, m *schema.ClassMetrics, skipped string) []string {
			rec := []string{section, setting, train, test}
			if m == nil {
				return append(rec, "", "", "", "", "", skipped)
			}
			return append(rec, fmtFloat(m.Accuracy), fmtFloat(m.Precision), fmtFloat(m.Recall), fmtFloat(m.F1), "", skipped)
		}

		var recs [][]string
		for _, s := range report.Splits {
			recs = append(recs, row(sectionSplit, fmtFloat(s.TestFraction), strconv.Itoa(s.TrainSize), strconv.Itoa(s.TestSize), s.Metrics, s.Skipped))
		}
		for _, n := range report.Normalizations {
			recs = append(recs, row(sectionNormalization, string(n.Method), "", "", n.Metrics, n.Skipped))
		}
		for _, n := range report.NeighborSweep {
			recs = append(recs, row(sectionNeighbors, strconv.Itoa(n.K), "", "", n.Metrics, n.Skipped))
		}
		cv := report.CrossValidation
		cvRec := []string{sectionCrossVal, strconv.Itoa(cv.Folds), "", "", "", "", "", "", "", cv.Skipped}
		if cv.Skipped == "" {
			cvRec[4], cvRec[8] = fmtFloat(cv.Mean), fmtFloat(cv.Std)
		}
		recs = append(recs, cvRec)

		return cw.WriteAll(recs)
	})
}
