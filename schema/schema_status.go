package schema

import "time"

// RosterStatus represents the status of the roster store.
type RosterStatus struct {
	Backend          string    `json:"backend"`
	Connected        bool      `json:"connected"`
	TotalStudents    int       `json:"total_students"`
	LastUpdateTime   time.Time `json:"last_update_time"`
	OldestUpdateTime time.Time `json:"oldest_update_time"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend           string           `json:"backend"`
	Connected         bool             `json:"connected"`
	TotalRuns         int              `json:"total_runs"`
	LastRunID         int64            `json:"last_run_id"`
	LastRunUUID       string           `json:"last_run_uuid"`
	LastRunTime       time.Time        `json:"last_run_time"`
	OldestRunTime     time.Time        `json:"oldest_run_time"`
	TotalStudentsSeen int              `json:"total_students_seen"`
	TableSizes        map[string]int64 `json:"table_sizes"`
}
