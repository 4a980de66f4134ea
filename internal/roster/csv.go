package roster

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
)

// Flat CSV columns. Each row carries one course; student-level cells may repeat.
const (
	colStudentID            = "student_id"
	colName                 = "name"
	colClass                = "class"
	colCourse               = "course"
	colScore                = "score"
	colMidterm              = "midterm_score"
	colFinal                = "final_score"
	colHomework             = "homework_score"
	colTimeMinutes          = "time_minutes"
	colTotalScore           = "total_score"
	colAttendanceRate       = "attendance_rate"
	colBehaviorScore        = "behavior_score_100"
	colLateSubmissions      = "late_submissions"
	colAssignmentCompletion = "assignment_completion"
	colStudyHours           = "study_hours_per_week"
)

// CSVHeader is the column order written by Encode.
var CSVHeader = []string{
	colStudentID, colName, colClass, colCourse,
	colScore, colMidterm, colFinal, colHomework, colTimeMinutes,
	colTotalScore, colAttendanceRate, colBehaviorScore, colLateSubmissions,
	colAssignmentCompletion, colStudyHours,
}

// csvRow gives named access to one CSV record.
type csvRow struct {
	line   int
	cells  []string
	header map[string]int
}

func (r csvRow) get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r csvRow) float(col string) (*float64, error) {
	s := r.get(col)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "line %d: column %s", r.line, col)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, eris.Wrapf(ErrNonFinite, "line %d: column %s", r.line, col)
	}
	return &v, nil
}

func (r csvRow) int(col string) (*int, error) {
	s := r.get(col)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, eris.Wrapf(err, "line %d: column %s", r.line, col)
	}
	return &v, nil
}

// decodeCSV merges rows by student id, keeping the order of first appearance.
// Student-level cells take the first non-empty value seen for that student.
func decodeCSV(r io.Reader) ([]schema.StudentRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "roster: read csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := header[colStudentID]; !ok {
		return nil, eris.Errorf("roster: csv header is missing %s", colStudentID)
	}

	var records []schema.StudentRecord
	index := make(map[int64]int)
	for i, cells := range rows[1:] {
		row := csvRow{line: i + 2, cells: cells, header: header}
		if strings.Join(cells, "") == "" {
			continue
		}
		id, err := strconv.ParseInt(row.get(colStudentID), 10, 64)
		if err != nil || id <= 0 {
			return nil, eris.Errorf("roster: line %d: invalid %s %q", row.line, colStudentID, row.get(colStudentID))
		}
		pos, ok := index[id]
		if !ok {
			pos = len(records)
			index[id] = pos
			records = append(records, schema.StudentRecord{ID: id, Courses: map[string]schema.CourseScores{}})
		}
		if err := mergeRow(&records[pos], row); err != nil {
			return nil, eris.Wrap(err, "roster: parse csv")
		}
	}
	return records, nil
}

func mergeRow(rec *schema.StudentRecord, row csvRow) error {
	if rec.Name == "" {
		rec.Name = row.get(colName)
	}
	if rec.ClassCode == "" {
		rec.ClassCode = row.get(colClass)
	}

	if course := row.get(colCourse); course != "" {
		var cs schema.CourseScores
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{colScore, &cs.Score},
			{colMidterm, &cs.Midterm},
			{colFinal, &cs.Final},
			{colHomework, &cs.Homework},
			{colTimeMinutes, &cs.TimeMinutes},
		} {
			v, err := row.float(f.col)
			if err != nil {
				return err
			}
			*f.dst = schema.ValueOr(v, 0)
		}
		rec.Courses[course] = cs
	}

	floats := []struct {
		col string
		dst **float64
	}{
		{colTotalScore, &rec.Aggregates.TotalScore},
		{colAttendanceRate, &rec.Behavioral.AttendanceRate},
		{colBehaviorScore, &rec.Behavioral.BehaviorScore},
		{colAssignmentCompletion, &rec.Behavioral.AssignmentCompletion},
		{colStudyHours, &rec.Behavioral.StudyHoursPerWeek},
	}
	for _, f := range floats {
		if *f.dst != nil {
			continue
		}
		v, err := row.float(f.col)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if rec.Behavioral.LateSubmissions == nil {
		v, err := row.int(colLateSubmissions)
		if err != nil {
			return err
		}
		rec.Behavioral.LateSubmissions = v
	}
	return nil
}

// encodeCSV writes one row per course in sorted order, or a single row without courses.
func encodeCSV(w io.Writer, records []schema.StudentRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return eris.Wrap(err, "roster: write csv header")
	}
	for i := range records {
		r := &records[i]
		names := r.CourseNames()
		if len(names) == 0 {
			names = []string{""}
		}
		for _, name := range names {
			row := []string{
				strconv.FormatInt(r.ID, 10), r.Name, r.ClassCode, name,
				"", "", "", "", "",
				formatOptional(r.Aggregates.TotalScore),
				formatOptional(r.Behavioral.AttendanceRate),
				formatOptional(r.Behavioral.BehaviorScore),
				"",
				formatOptional(r.Behavioral.AssignmentCompletion),
				formatOptional(r.Behavioral.StudyHoursPerWeek),
			}
			if name != "" {
				c := r.Courses[name]
				row[4], row[5], row[6], row[7], row[8] = formatFloat(c.Score), formatFloat(c.Midterm),
					formatFloat(c.Final), formatFloat(c.Homework), formatFloat(c.TimeMinutes)
			}
			if late := r.Behavioral.LateSubmissions; late != nil {
				row[12] = strconv.Itoa(*late)
			}
			if err := writer.Write(row); err != nil {
				return eris.Wrap(err, "roster: write csv row")
			}
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "roster: flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}
