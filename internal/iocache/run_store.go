package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
)

// Table names for run tracking.
const (
	runsTable           = "tierscope_runs"
	studentResultsTable = "tierscope_student_results"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, eris.Wrap(err, "store: initialize run store")
	}
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{studentResultsTable, getCreateStudentResultsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return eris.Wrapf(err, "store: create table %s", table.name)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for tierscope_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_students INT NOT NULL DEFAULT 0,
				classified_students INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_students INT NOT NULL DEFAULT 0,
				classified_students INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_students INTEGER NOT NULL DEFAULT 0,
				classified_students INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateStudentResultsQuery returns the CREATE TABLE query for tierscope_student_results.
func getCreateStudentResultsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(studentResultsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				student_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				class_code VARCHAR(64) NOT NULL,
				kmeans_tier VARCHAR(32) NOT NULL,
				knn_tier VARCHAR(32) NOT NULL,
				primary_tier VARCHAR(32) NOT NULL,
				final_tier VARCHAR(32) NOT NULL,
				composite_score DOUBLE NOT NULL,
				anomaly_detected BOOLEAN NOT NULL,
				anomaly_severity INT NOT NULL,
				anomaly_reason TEXT,
				PRIMARY KEY (run_id, student_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				student_id BIGINT NOT NULL,
				name TEXT NOT NULL,
				class_code TEXT NOT NULL,
				kmeans_tier TEXT NOT NULL,
				knn_tier TEXT NOT NULL,
				primary_tier TEXT NOT NULL,
				final_tier TEXT NOT NULL,
				composite_score DOUBLE PRECISION NOT NULL,
				anomaly_detected BOOLEAN NOT NULL,
				anomaly_severity INT NOT NULL,
				anomaly_reason TEXT,
				PRIMARY KEY (run_id, student_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				student_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				class_code TEXT NOT NULL,
				kmeans_tier TEXT NOT NULL,
				knn_tier TEXT NOT NULL,
				primary_tier TEXT NOT NULL,
				final_tier TEXT NOT NULL,
				composite_score REAL NOT NULL,
				anomaly_detected INTEGER NOT NULL,
				anomaly_severity INTEGER NOT NULL,
				anomaly_reason TEXT,
				PRIMARY KEY (run_id, student_id)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new classification run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, eris.Wrap(err, "store: marshal config params")
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	runUUID := uuid.NewString()
	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (%s)`, quotedTableName, bindVars(rs.backend, 3))
	args := []any{runUUID, formatTime(startTime, rs.backend), string(configJSON)}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		err = rs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, eris.Wrap(err, "store: insert run")
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalStudents, classifiedStudents int) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, bindVar(rs.backend, 1))
	start := newTimeColumn(rs.backend)
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return eris.Wrapf(err, "store: get start_time for run %d", runID)
	}
	if err := start.resolve(); err != nil {
		return err
	}

	durationMs := endTime.Sub(start.Time).Milliseconds()
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_students = %s, classified_students = %s WHERE run_id = %s`,
		quotedTableName,
		bindVar(rs.backend, 1), bindVar(rs.backend, 2), bindVar(rs.backend, 3), bindVar(rs.backend, 4), bindVar(rs.backend, 5))
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, totalStudents, classifiedStudents, runID); err != nil {
		return eris.Wrapf(err, "store: update run %d", runID)
	}
	return nil
}

// RecordResults stores the per-student results of a run in a single transaction.
func (rs *RunStoreImpl) RecordResults(runID int64, results []schema.ClassificationResult) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return eris.Wrap(err, "store: begin results transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, student_id, name, class_code, kmeans_tier, knn_tier, primary_tier,
		                final_tier, composite_score, anomaly_detected, anomaly_severity, anomaly_reason)
		VALUES (%s)
	`, quoteTableName(studentResultsTable, rs.backend), bindVars(rs.backend, 12))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return eris.Wrap(err, "store: prepare results insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, result := range results {
		rec := schema.NewStudentResultRecord(runID, result)
		if _, err := stmt.Exec(
			rec.RunID, rec.StudentID, rec.Name, rec.ClassCode, rec.KMeansTier, rec.KNNTier, rec.PrimaryTier,
			rec.FinalTier, rec.CompositeScore, rec.AnomalyDetected, rec.AnomalySeverity, rec.AnomalyReason,
		); err != nil {
			return eris.Wrapf(err, "store: insert result for student %d", rec.StudentID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit results transaction")
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	totalRuns, err := countRows(rs.db, runsTable, rs.backend)
	if err != nil {
		return status, err
	}
	status.TotalRuns = int(totalRuns)

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT run_id, run_uuid, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedTableName)
		last := newTimeColumn(rs.backend)
		if err := rs.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &status.LastRunUUID, last.dest()); err != nil {
			return status, eris.Wrap(err, "store: get last run info")
		}
		if err := last.resolve(); err != nil {
			return status, err
		}
		status.LastRunTime = last.Time

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedTableName)
		oldest := newTimeColumn(rs.backend)
		if err := rs.db.QueryRow(oldestRunQuery).Scan(oldest.dest()); err != nil {
			return status, eris.Wrap(err, "store: get oldest run time")
		}
		if err := oldest.resolve(); err != nil {
			return status, err
		}
		status.OldestRunTime = oldest.Time

		seenQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_students), 0) FROM %s", quotedTableName)
		if err := rs.db.QueryRow(seenQuery).Scan(&status.TotalStudentsSeen); err != nil {
			return status, eris.Wrap(err, "store: get total students seen")
		}
	}

	for _, table := range []string{runsTable, studentResultsTable} {
		count, err := countRows(rs.db, table, rs.backend)
		if err != nil {
			return status, err
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, start_time, end_time, run_duration_ms, total_students,
		classified_students, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, eris.Wrap(err, "store: query runs")
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start, end := newTimeColumn(rs.backend), newTimeColumn(rs.backend)
		if err := rows.Scan(&record.RunID, &record.RunUUID, start.dest(), end.dest(), &record.RunDurationMs,
			&record.TotalStudents, &record.ClassifiedStudents, &record.ConfigParams); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		if err := start.resolve(); err != nil {
			return nil, err
		}
		if err := end.resolve(); err != nil {
			return nil, err
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate runs")
	}
	return results, nil
}

// GetAllStudentResults retrieves all stored student results ordered by run and student.
func (rs *RunStoreImpl) GetAllStudentResults() ([]schema.StudentResultRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, student_id, name, class_code, kmeans_tier, knn_tier, primary_tier,
		final_tier, composite_score, anomaly_detected, anomaly_severity, anomaly_reason
		FROM %s ORDER BY run_id, student_id`, quoteTableName(studentResultsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, eris.Wrap(err, "store: query student results")
	}
	defer func() { _ = rows.Close() }()

	var results []schema.StudentResultRecord
	for rows.Next() {
		var r schema.StudentResultRecord
		if err := rows.Scan(&r.RunID, &r.StudentID, &r.Name, &r.ClassCode, &r.KMeansTier, &r.KNNTier, &r.PrimaryTier,
			&r.FinalTier, &r.CompositeScore, &r.AnomalyDetected, &r.AnomalySeverity, &r.AnomalyReason); err != nil {
			return nil, eris.Wrap(err, "store: scan student result")
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate student results")
	}
	return results, nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
