package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
)

// PrintMetricsDefinitions displays the formal definitions of the classification formulas.
// This is a static display that does not require a roster.
func PrintMetricsDefinitions(model schema.MetricsRenderModel, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsCSV(w, model)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsText(w, model)
		}, "Wrote text")
	}
}

// writeMetricsText displays metrics in human-readable text format.
func writeMetricsText(w io.Writer, model schema.MetricsRenderModel) error {
	p := func(format string, args ...any) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	}

	if err := p("🎓 %s\n========================\n\n%s\n\n", model.Title, model.Description); err != nil {
		return err
	}

	if err := p("Cluster presets\n"); err != nil {
		return err
	}
	for _, preset := range model.ClusterPresets {
		marker := " "
		if preset.Active {
			marker = "*"
		}
		if err := p("%s %s: %s\n   Formula: Score = %s\n", marker, preset.Name, preset.Purpose, preset.Formula); err != nil {
			return err
		}
	}

	if err := p("\nPrimary composite\n   %s\n", model.PrimaryFormula); err != nil {
		return err
	}
	for _, ladder := range model.Penalties {
		if err := p("   %s:\n", ladder.Name); err != nil {
			return err
		}
		for _, step := range ladder.Steps {
			if err := p("      %-24s %.2f\n", step.Condition, step.Value); err != nil {
				return err
			}
		}
	}

	if err := p("\nTier cut-offs\n"); err != nil {
		return err
	}
	for _, step := range model.TierCutoffs {
		if err := p("   %-24s %.2f\n", step.Condition, step.Value); err != nil {
			return err
		}
	}

	if err := p("\nAnomaly rules\n"); err != nil {
		return err
	}
	for _, rule := range model.AnomalyRules {
		if err := p("   [%s] %s -> severity %d: %s\n", rule.Group, rule.Condition, rule.Severity, rule.Reason); err != nil {
			return err
		}
	}

	if err := p("\nDemotion by severity\n"); err != nil {
		return err
	}
	for _, severity := range slices.Sorted(maps.Keys(model.Demotion)) {
		if err := p("   %d: %s\n", severity, model.Demotion[severity]); err != nil {
			return err
		}
	}
	return nil
}

// writeMetricsCSV writes every formula part as one row.
func writeMetricsCSV(w io.Writer, model schema.MetricsRenderModel) error {
	header := []string{"section", "name", "condition", "value", "detail"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		var recs [][]string
		for _, preset := range model.ClusterPresets {
			for _, term := range preset.Terms {
				recs = append(recs, []string{"preset", preset.Name, term.Key, strconv.FormatFloat(term.Weight, 'f', 2, 64), strconv.FormatBool(preset.Active)})
			}
		}
		recs = append(recs, []string{"primary", "composite", "", "", model.PrimaryFormula})
		for _, ladder := range model.Penalties {
			for _, step := range ladder.Steps {
				recs = append(recs, []string{"penalty", ladder.Name, step.Condition, strconv.FormatFloat(step.Value, 'f', 2, 64), ""})
			}
		}
		for _, step := range model.TierCutoffs {
			recs = append(recs, []string{"tier", "cutoff", step.Condition, strconv.FormatFloat(step.Value, 'f', 2, 64), ""})
		}
		for _, rule := range model.AnomalyRules {
			recs = append(recs, []string{"anomaly", rule.Group, rule.Condition, strconv.Itoa(rule.Severity), rule.Reason})
		}
		for _, severity := range slices.Sorted(maps.Keys(model.Demotion)) {
			recs = append(recs, []string{"demotion", "severity", strconv.Itoa(severity), "", model.Demotion[severity]})
		}
		return cw.WriteAll(recs)
	})
}
