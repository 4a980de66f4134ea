package roster

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `[
  {
    "student_id": 1,
    "name": "Ann",
    "class": "22CT111",
    "courses": {"math": {"score": 8.5, "midterm_score": 8, "final_score": 9, "homework_score": 8.5, "time_minutes": 120}},
    "behavioral": {"attendance_rate": 0.9, "behavior_score_100": 88, "late_submissions": 1},
    "aggregates": {"total_score": 8.4}
  },
  {"student_id": 2, "name": "Bo", "class": "22CT112", "courses": {}}
]`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"roster.json", JSONFormat, false},
		{"ROSTER.JSON", JSONFormat, false},
		{"roster.yaml", YAMLFormat, false},
		{"roster.yml", YAMLFormat, false},
		{"dir/roster.csv", CSVFormat, false},
		{"roster.xlsx", "", true},
		{"roster", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSON(t *testing.T) {
	records, err := ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)
	require.Len(t, records, 2)

	ann := records[0]
	assert.Equal(t, int64(1), ann.ID)
	assert.Equal(t, "22CT111", ann.ClassCode)
	assert.InDelta(t, 8.5, ann.Courses["math"].Score, 1e-9)
	assert.InDelta(t, 120, ann.Courses["math"].TimeMinutes, 1e-9)
	assert.InDelta(t, 0.9, *ann.Behavioral.AttendanceRate, 1e-9)
	assert.Equal(t, 1, *ann.Behavioral.LateSubmissions)
	assert.Nil(t, ann.Behavioral.AssignmentCompletion)
	assert.InDelta(t, 8.4, *ann.Aggregates.TotalScore, 1e-9)
	assert.Nil(t, records[1].Behavioral.AttendanceRate)
}

func TestParseJSONEnvelope(t *testing.T) {
	records, err := ParseJSON([]byte(`{"students": ` + sampleJSON + `}`))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		dup  bool
	}{
		{"malformed", `[{"student_id": }]`, false},
		{"zero id", `[{"name": "x"}]`, false},
		{"duplicate id", `[{"student_id": 3}, {"student_id": 3}]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.dup, eris.Is(err, ErrDuplicateStudent))
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	const doc = `
students:
  - student_id: 10
    name: Cy
    class: 22CT113
    courses:
      math: {score: 7, time_minutes: 60}
    behavioral:
      late_submissions: 4
`
	records, err := Decode(strings.NewReader(doc), YAMLFormat)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(10), records[0].ID)
	assert.InDelta(t, 7, records[0].Courses["math"].Score, 1e-9)
	assert.Equal(t, 4, *records[0].Behavioral.LateSubmissions)

	list, err := Decode(strings.NewReader("- student_id: 1\n- student_id: 2\n"), YAMLFormat)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = Decode(strings.NewReader("- student_id: 1\n- student_id: 1\n"), YAMLFormat)
	assert.True(t, eris.Is(err, ErrDuplicateStudent))

	empty, err := Decode(strings.NewReader(""), YAMLFormat)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeCSVMergesRows(t *testing.T) {
	const doc = `student_id,name,class,course,score,midterm_score,final_score,homework_score,time_minutes,total_score,attendance_rate,behavior_score_100,late_submissions,assignment_completion,study_hours_per_week
2,Bo,22CT112,math,6,5,7,6,90,,0.8,,3,,
1,Ann,22CT111,math,9,9,9,9,120,8.8,0.95,90,0,1,12
2,Bo,22CT112,physics,7,6,8,7,60,6.5,0.5,70,9,,

1,Ann,22CT111,,,,,,,,,,,,
`
	records, err := Decode(strings.NewReader(doc), CSVFormat)
	require.NoError(t, err)
	require.Len(t, records, 2)

	bo := records[0]
	assert.Equal(t, int64(2), bo.ID, "first appearance order")
	assert.Len(t, bo.Courses, 2)
	assert.InDelta(t, 60, bo.Courses["physics"].TimeMinutes, 1e-9)
	assert.InDelta(t, 6.5, *bo.Aggregates.TotalScore, 1e-9, "first non-empty cell wins")
	assert.InDelta(t, 0.8, *bo.Behavioral.AttendanceRate, 1e-9)
	assert.Equal(t, 3, *bo.Behavioral.LateSubmissions)
	assert.InDelta(t, 70, *bo.Behavioral.BehaviorScore, 1e-9)
	assert.Nil(t, bo.Behavioral.AssignmentCompletion)

	ann := records[1]
	assert.Len(t, ann.Courses, 1)
	assert.InDelta(t, 12, *ann.Behavioral.StudyHoursPerWeek, 1e-9)
}

func TestDecodeCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id column", "name,course\nAnn,math\n"},
		{"bad id", "student_id,name\nabc,Ann\n"},
		{"negative id", "student_id,name\n-4,Ann\n"},
		{"bad score", "student_id,course,score\n1,math,high\n"},
		{"bad late", "student_id,late_submissions\n1,many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), CSVFormat)
			assert.Error(t, err)
		})
	}
}

func TestDecodeRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"csv nan score", "student_id,course,score,time_minutes\n1,math,NaN,60\n", CSVFormat},
		{"csv inf time", "student_id,course,score,time_minutes\n1,math,7,+Inf\n", CSVFormat},
		{"csv nan attendance", "student_id,attendance_rate\n1,nan\n", CSVFormat},
		{"yaml nan score", "- student_id: 1\n  courses:\n    math: {score: .nan, time_minutes: 60}\n", YAMLFormat},
		{"yaml inf total", "- student_id: 1\n  aggregates:\n    total_score: .inf\n", YAMLFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrNonFinite))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := Generate(6, 7)
	for _, format := range []Format{JSONFormat, YAMLFormat, CSVFormat} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, original, format))
			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			require.Len(t, decoded, len(original))
			for i := range original {
				assert.Equal(t, original[i].ID, decoded[i].ID)
				assert.Equal(t, original[i].Courses, decoded[i].Courses)
				assert.Equal(t, original[i].Behavioral, decoded[i].Behavioral)
				assert.Equal(t, original[i].Aggregates.TotalScore, decoded[i].Aggregates.TotalScore)
			}
		})
	}
}

func TestLoadAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	records := Generate(3, 1)

	path := filepath.Join(dir, "roster.yaml")
	require.NoError(t, WriteFile(path, records))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	assert.Error(t, WriteFile(filepath.Join(dir, "roster.txt"), records))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestUnknownFormat(t *testing.T) {
	_, err := Decode(strings.NewReader(""), Format("xml"))
	assert.Error(t, err)
	assert.Error(t, Encode(&bytes.Buffer{}, nil, Format("xml")))
}

func TestRecordsWithoutCoursesEncodeOneRow(t *testing.T) {
	var buf bytes.Buffer
	records := []schema.StudentRecord{{ID: 5, Name: "Di", Aggregates: schema.Aggregates{TotalScore: schema.Ptr(6.0)}}}
	require.NoError(t, Encode(&buf, records, CSVFormat))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)

	decoded, err := Decode(&buf, CSVFormat)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Empty(t, decoded[0].Courses)
	assert.InDelta(t, 6.0, *decoded[0].Aggregates.TotalScore, 1e-9)
}
