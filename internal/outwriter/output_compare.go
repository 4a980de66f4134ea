package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Agreement bands used to color the comparison table.
const (
	agreementGood = 0.8
	agreementFair = 0.6
)

// PrintComparisonResults outputs the method comparison, dispatching based on the output format configured.
func PrintComparisonResults(result schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeComparisonTable writes one row per method with its tier distribution.
func writeComparisonTable(w io.Writer, result schema.ComparisonResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Method"}
	for _, tier := range schema.TierOrder {
		headers = append(headers, string(tier))
	}
	headers = append(headers, "Agreement", "Holdout", "Note")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var red, green, yellow func(...any) string
	if cfg.UseColors {
		red = color.New(color.FgRed).SprintFunc()
		green = color.New(color.FgGreen).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
	} else {
		red = fmt.Sprint
		green = fmt.Sprint
		yellow = fmt.Sprint
	}

	var data [][]string
	for _, m := range result.Methods {
		row := []string{m.Method}
		for _, tier := range schema.TierOrder {
			row = append(row, strconv.Itoa(m.Distribution[tier]))
		}
		agreement := fmtFloat(m.Agreement)
		switch {
		case m.Agreement >= agreementGood:
			agreement = green(agreement)
		case m.Agreement >= agreementFair:
			agreement = yellow(agreement)
		default:
			agreement = red(agreement)
		}
		note := m.Note
		if note == "" {
			note = "-"
		}
		row = append(row, agreement, fmtOptional(m.HoldoutAccuracy, fmtFloat), note)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Reference labels: %s. Classified %d of %d students\n", result.Reference, result.ClassifiedStudents, result.TotalStudents); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Comparison completed in %v with %d workers. Roster: %s\n", duration, cfg.Workers, rosterSource(cfg)); err != nil {
		return err
	}
	return nil
}

// writeComparisonCSV writes one row per method.
func writeComparisonCSV(w io.Writer, result schema.ComparisonResult, fmtFloat func(float64) string) error {
	header := []string{"method", "reference"}
	for _, tier := range schema.TierOrder {
		header = append(header, "count_"+string(tier))
	}
	header = append(header, "agreement", "holdout_accuracy", "note")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range result.Methods {
			rec := []string{m.Method, string(result.Reference)}
			for _, tier := range schema.TierOrder {
				rec = append(rec, strconv.Itoa(m.Distribution[tier]))
			}
			holdout := ""
			if m.HoldoutAccuracy != nil {
				holdout = fmtFloat(*m.HoldoutAccuracy)
			}
			rec = append(rec, fmtFloat(m.Agreement), holdout, m.Note)
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
