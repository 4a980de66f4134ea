// Package roster reads and writes student rosters as JSON, YAML or flat CSV files.
package roster

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a roster file.
type Format string

// All roster formats supported.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
	CSVFormat  Format = "csv"
)

// ErrDuplicateStudent is returned when a structured roster repeats a student id.
var ErrDuplicateStudent = eris.New("duplicate student id")

// ErrNonFinite is returned when a roster value is NaN or infinite.
var ErrNonFinite = eris.New("non-finite value")

// envelope is the object form of a structured roster.
type envelope struct {
	Students []schema.StudentRecord `json:"students" yaml:"students"`
}

// FormatFromPath picks the roster format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	case ".csv":
		return CSVFormat, nil
	default:
		return "", eris.Errorf("roster: unsupported file extension %q. must be .json, .yaml, .yml, .csv", filepath.Ext(path))
	}
}

// LoadFile reads a roster from disk.
func LoadFile(path string) ([]schema.StudentRecord, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: open %s", path)
	}
	defer func() { _ = f.Close() }()

	records, err := Decode(f, format)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: load %s", path)
	}
	return records, nil
}

// Decode reads a roster in the given format. JSON and YAML accept either a list of
// students or an object with a students list.
func Decode(r io.Reader, format Format) ([]schema.StudentRecord, error) {
	switch format {
	case JSONFormat:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "roster: read json")
		}
		return ParseJSON(data)
	case YAMLFormat:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "roster: read yaml")
		}
		return parseYAML(data)
	case CSVFormat:
		return decodeCSV(r)
	default:
		return nil, eris.Errorf("roster: unknown format %q", format)
	}
}

// ParseJSON decodes a JSON roster.
func ParseJSON(data []byte) ([]schema.StudentRecord, error) {
	data = bytes.TrimSpace(data)
	var records []schema.StudentRecord
	if bytes.HasPrefix(data, []byte("{")) {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, eris.Wrap(err, "roster: decode json")
		}
		records = env.Students
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "roster: decode json")
	}
	return records, validate(records)
}

func parseYAML(data []byte) ([]schema.StudentRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, eris.Wrap(err, "roster: decode yaml")
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var records []schema.StudentRecord
	if node.Content[0].Kind == yaml.MappingNode {
		var env envelope
		if err := node.Decode(&env); err != nil {
			return nil, eris.Wrap(err, "roster: decode yaml")
		}
		records = env.Students
	} else if err := node.Decode(&records); err != nil {
		return nil, eris.Wrap(err, "roster: decode yaml")
	}
	return records, validate(records)
}

// validate rejects non-positive and repeated student ids and non-finite values.
func validate(records []schema.StudentRecord) error {
	seen := make(map[int64]struct{}, len(records))
	for i, r := range records {
		if r.ID <= 0 {
			return eris.Errorf("roster: student at position %d has invalid id %d", i, r.ID)
		}
		if _, ok := seen[r.ID]; ok {
			return eris.Wrapf(ErrDuplicateStudent, "roster: student %d", r.ID)
		}
		seen[r.ID] = struct{}{}
		if field := nonFiniteField(&r); field != "" {
			return eris.Wrapf(ErrNonFinite, "roster: student %d field %s", r.ID, field)
		}
	}
	return nil
}

// nonFiniteField names the first NaN or infinite value in r, or returns "".
func nonFiniteField(r *schema.StudentRecord) string {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	badPtr := func(p *float64) bool { return p != nil && bad(*p) }
	for _, name := range r.CourseNames() {
		c := r.Courses[name]
		if bad(c.Score) || bad(c.Midterm) || bad(c.Final) || bad(c.Homework) || bad(c.TimeMinutes) {
			return "courses." + name
		}
	}
	b, a := r.Behavioral, r.Aggregates
	switch {
	case badPtr(b.AttendanceRate):
		return "attendance_rate"
	case badPtr(b.BehaviorScore):
		return "behavior_score_100"
	case badPtr(b.AssignmentCompletion):
		return "assignment_completion"
	case badPtr(b.StudyHoursPerWeek):
		return "study_hours_per_week"
	case badPtr(a.TotalScore):
		return "total_score"
	case badPtr(a.MidtermScore):
		return "midterm_score"
	case badPtr(a.FinalScore):
		return "final_score"
	}
	return ""
}

// Encode writes a roster in the given format.
func Encode(w io.Writer, records []schema.StudentRecord, format Format) error {
	switch format {
	case JSONFormat:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(records), "roster: encode json")
	case YAMLFormat:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(envelope{Students: records}); err != nil {
			return eris.Wrap(err, "roster: encode yaml")
		}
		return eris.Wrap(enc.Close(), "roster: encode yaml")
	case CSVFormat:
		return encodeCSV(w, records)
	default:
		return eris.Errorf("roster: unknown format %q", format)
	}
}

// WriteFile writes a roster to path in the format named by its extension.
func WriteFile(path string, records []schema.StudentRecord) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "roster: create %s", path)
	}
	if err := Encode(f, records, format); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "roster: close %s", path)
}
