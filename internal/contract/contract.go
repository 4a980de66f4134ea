// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/tierscope/schema"
)

// StoreManager defines the interface for managing the roster and run stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRosterStore() RosterStore
	GetRunStore() RunStore
}

// RosterStore defines the interface for student roster storage.
type RosterStore interface {
	// SaveStudents upserts students by id
	SaveStudents(students []schema.StudentRecord) error

	// LoadStudents returns all students ordered by id
	LoadStudents() ([]schema.StudentRecord, error)

	// GetStatus returns status information about the roster store
	GetStatus() (schema.RosterStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking classification runs and their results.
type RunStore interface {
	// BeginRun creates a new classification run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalStudents, classifiedStudents int) error

	// RecordResults stores the per-student results of a run
	RecordResults(runID int64, results []schema.ClassificationResult) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every run ordered by id
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllStudentResults returns every stored student result ordered by run and student
	GetAllStudentResults() ([]schema.StudentResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
