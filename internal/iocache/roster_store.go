package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
)

// rosterTable is the name of the table for stored students.
const rosterTable = "tierscope_students"

// RosterStoreImpl stores student records as JSON documents keyed by student id.
type RosterStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	now     func() time.Time
}

var _ contract.RosterStore = &RosterStoreImpl{} // Compile-time check

// NewRosterStore creates a new RosterStore with the specified backend.
func NewRosterStore(backend schema.DatabaseBackend, connStr string) (contract.RosterStore, error) {
	if backend == schema.NoneBackend {
		return &RosterStoreImpl{backend: backend, now: time.Now}, nil
	}

	db, err := openDB(backend, connStr, GetRosterDBFilePath())
	if err != nil {
		return nil, eris.Wrap(err, "store: initialize roster store")
	}
	if _, err := db.Exec(getCreateRosterQuery(backend)); err != nil {
		_ = db.Close()
		return nil, eris.Wrapf(err, "store: create table %s", rosterTable)
	}
	return &RosterStoreImpl{db: db, backend: backend, now: time.Now}, nil
}

// getCreateRosterQuery returns the CREATE TABLE query for tierscope_students.
func getCreateRosterQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(rosterTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				student_id BIGINT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				class_code VARCHAR(64) NOT NULL,
				record_json MEDIUMTEXT NOT NULL,
				updated_at DATETIME(6) NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				student_id BIGINT PRIMARY KEY,
				name TEXT NOT NULL,
				class_code TEXT NOT NULL,
				record_json TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				student_id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				class_code TEXT NOT NULL,
				record_json TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
		`, quotedTableName)
	}
}

// getUpsertRosterQuery returns the UPSERT query for the backend.
func getUpsertRosterQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(rosterTable, backend)
	columns := "student_id, name, class_code, record_json, updated_at"
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE name = new.name, class_code = new.class_code, record_json = new.record_json, updated_at = new.updated_at`,
			quotedTableName, columns, bindVars(backend, 5))

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (student_id) DO UPDATE SET name = EXCLUDED.name, class_code = EXCLUDED.class_code, record_json = EXCLUDED.record_json, updated_at = EXCLUDED.updated_at`,
			quotedTableName, columns, bindVars(backend, 5))

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`, quotedTableName, columns, bindVars(backend, 5))
	}
}

// SaveStudents upserts every student in a single transaction.
func (rs *RosterStoreImpl) SaveStudents(students []schema.StudentRecord) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return eris.Wrap(err, "store: begin roster transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(getUpsertRosterQuery(rs.backend))
	if err != nil {
		return eris.Wrap(err, "store: prepare roster upsert")
	}
	defer func() { _ = stmt.Close() }()

	updatedAt := formatTime(rs.now(), rs.backend)
	for _, student := range students {
		doc, err := json.Marshal(student)
		if err != nil {
			return eris.Wrapf(err, "store: encode student %d", student.ID)
		}
		if _, err := stmt.Exec(student.ID, student.Name, student.ClassCode, string(doc), updatedAt); err != nil {
			return eris.Wrapf(err, "store: save student %d", student.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit roster transaction")
	}
	return nil
}

// LoadStudents returns every stored student ordered by id.
func (rs *RosterStoreImpl) LoadStudents() ([]schema.StudentRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT student_id, record_json FROM %s ORDER BY student_id", quoteTableName(rosterTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, eris.Wrap(err, "store: query students")
	}
	defer func() { _ = rows.Close() }()

	var students []schema.StudentRecord
	for rows.Next() {
		var id int64
		var doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, eris.Wrap(err, "store: scan student")
		}
		var student schema.StudentRecord
		if err := json.Unmarshal([]byte(doc), &student); err != nil {
			return nil, eris.Wrapf(err, "store: decode student %d", id)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate students")
	}
	return students, nil
}

// GetStatus returns status information about the roster store.
func (rs *RosterStoreImpl) GetStatus() (schema.RosterStatus, error) {
	status := schema.RosterStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	total, err := countRows(rs.db, rosterTable, rs.backend)
	if err != nil {
		return status, err
	}
	status.TotalStudents = int(total)
	if total == 0 {
		return status, nil
	}

	query := fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", quoteTableName(rosterTable, rs.backend))
	last, oldest := newTimeColumn(rs.backend), newTimeColumn(rs.backend)
	if err := rs.db.QueryRow(query).Scan(last.dest(), oldest.dest()); err != nil {
		return status, eris.Wrap(err, "store: get roster update times")
	}
	if err := last.resolve(); err != nil {
		return status, err
	}
	if err := oldest.resolve(); err != nil {
		return status, err
	}
	status.LastUpdateTime = last.Time
	status.OldestUpdateTime = oldest.Time
	return status, nil
}

// Close closes the underlying connection.
func (rs *RosterStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
