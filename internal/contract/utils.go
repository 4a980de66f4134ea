package contract

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Color variables for console output.
var (
	ExcellentColor    = color.New(color.FgGreen, color.Bold) // ExcellentColor marks the top tier.
	GoodColor         = color.New(color.FgCyan)              // GoodColor marks solid performance.
	AverageColor      = color.New(color.FgYellow)            // AverageColor marks standard caution.
	WeakColor         = color.New(color.FgRed, color.Bold)   // WeakColor marks students needing attention.
	InsufficientColor = color.New(color.Faint)               // InsufficientColor marks unclassified students.
)

// GetColorTier returns a colored tier label for console output (table).
func GetColorTier(tier schema.Tier) string {
	text := string(tier)

	switch tier {
	case schema.ExcellentTier:
		return ExcellentColor.Sprint(text)
	case schema.GoodTier:
		return GoodColor.Sprint(text)
	case schema.AverageTier:
		return AverageColor.Sprint(text)
	case schema.WeakTier:
		return WeakColor.Sprint(text)
	default:
		return InsufficientColor.Sprint(text)
	}
}

// GetSeverityLabel returns a short label for an anomaly severity.
func GetSeverityLabel(severity int) string {
	switch severity {
	case 3:
		return "high"
	case 2:
		return "medium"
	case 1:
		return "low"
	default:
		return "-"
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	SyncLogger()
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	zap.L().Warn(msg, zap.Error(err))
}

// GetRosterDBFilePath returns the path to the SQLite DB file for roster storage.
func GetRosterDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tierscope_roster.db"
	}
	return filepath.Join(homeDir, ".tierscope_roster.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tierscope_runs.db"
	}
	return filepath.Join(homeDir, ".tierscope_runs.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, eris.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
