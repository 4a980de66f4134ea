package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
)

// PrintRosterStatus prints roster store status information.
func PrintRosterStatus(w io.Writer, status schema.RosterStatus) {
	_, _ = fmt.Fprintf(w, "Roster Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Students: %d\n", status.TotalStudents)
	if status.TotalStudents > 0 {
		_, _ = fmt.Fprintf(w, "Last Update: %s\n", status.LastUpdateTime.Local().Format(contract.DateTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Update: %s\n", status.OldestUpdateTime.Local().Format(contract.DateTimeFormat))
	}
}

// PrintRunStatus prints run store status information.
func PrintRunStatus(w io.Writer, status schema.RunStatus) {
	_, _ = fmt.Fprintf(w, "Runs Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d (%s)\n", status.LastRunID, status.LastRunUUID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Local().Format(contract.DateTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Local().Format(contract.DateTimeFormat))
		_, _ = fmt.Fprintf(w, "Total Students Seen: %d\n", status.TotalStudentsSeen)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
