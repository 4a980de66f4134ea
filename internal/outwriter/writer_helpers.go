// Package outwriter renders classification, comparison, evaluation and metrics output.
package outwriter

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"golang.org/x/term"
)

// errParquetUnsupported is returned by views that have no row layout.
var errParquetUnsupported = eris.New("parquet output is only supported by classify")

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return eris.Wrapf(err, "outwriter: open %s", outputFile)
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return eris.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return eris.Wrap(err, "failed to write CSV header")
	}
	return writeRows(csvWriter)
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
	return fmtFloat, intFmt
}

// tierLabel returns the tier, colored for tables when colors are on.
func tierLabel(tier schema.Tier, cfg *contract.Config) string {
	if !cfg.UseColors {
		return string(tier)
	}
	return contract.GetColorTier(tier)
}

// fmtOptional formats a metric that may be missing.
func fmtOptional(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return "-"
	}
	return fmtFloat(*v)
}

const (
	breakdownMinimum = 0.01
	topNBreakdown    = 3
)

// formatTopBreakdown lists the composite parts with the largest absolute contribution.
func formatTopBreakdown(breakdown map[schema.BreakdownKey]float64) string {
	keys := make([]schema.BreakdownKey, 0, len(breakdown))
	for k, v := range breakdown {
		if math.Abs(v) >= breakdownMinimum {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "Not applicable"
	}

	slices.SortFunc(keys, func(a, b schema.BreakdownKey) int {
		if c := cmp.Compare(math.Abs(breakdown[b]), math.Abs(breakdown[a])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	keys = keys[:min(len(keys), topNBreakdown)]

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, " > ")
}

// getMaxTableNameWidth calculates the maximum width for student names in table output
// based on terminal width and table configuration.
func getMaxTableNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + ID + Class + Tier + Score + Severity with borders/padding
	baseWidth := 60
	if cfg.Detail {
		baseWidth += 70
	}
	if cfg.Explain {
		baseWidth += 40
	}
	// Reason column
	baseWidth += 30

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}
