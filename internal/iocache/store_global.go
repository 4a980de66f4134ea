package iocache

import (
	"os"
	"sync"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetRosterDBFilePath returns the path to the SQLite DB file for roster storage.
func GetRosterDBFilePath() string {
	return contract.GetRosterDBFilePath()
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunsDBFilePath() string {
	return contract.GetRunsDBFilePath()
}

// InitStores initializes the global store manager with separate roster and run stores.
// An empty backend leaves that store uninitialized.
func InitStores(rosterBackend schema.DatabaseBackend, rosterConnStr string, runsBackend schema.DatabaseBackend, runsConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var rosterStore contract.RosterStore
		if rosterBackend != "" {
			rosterStore, err = NewRosterStore(rosterBackend, rosterConnStr)
			if err != nil {
				initErr = eris.Wrap(err, "store: initialize roster storage")
				return
			}
		}

		var runStore contract.RunStore
		if runsBackend != "" {
			runStore, err = NewRunStore(runsBackend, runsConnStr)
			if err != nil {
				if rosterStore != nil {
					_ = rosterStore.Close()
				}
				initErr = eris.Wrap(err, "store: initialize run tracking")
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.roster = rosterStore
		Manager.runs = runStore
		zap.L().Debug("store: initialized",
			zap.String("roster_backend", string(rosterBackend)),
			zap.String("runs_backend", string(runsBackend)))
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.roster != nil {
			_ = Manager.roster.Close()
		}
		if Manager.runs != nil {
			_ = Manager.runs.Close()
		}
	})
}

// ClearRoster removes stored students for the specified backend.
// For SQLite, it deletes the database file. For MySQL and PostgreSQL, it drops the table.
func ClearRoster(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, rosterTable)
}

// ClearRuns removes run history for the specified backend.
// For SQLite, it deletes the database file. For MySQL and PostgreSQL, it drops the run tables.
func ClearRuns(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, runsTable, studentResultsTable, migrationsTable)
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return eris.New("store: dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "store: remove SQLite database file %s", dbFilePath)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropTables(backend, connStr, tables...)

	case schema.NoneBackend:
		return nil

	default:
		return eris.Errorf("store: unsupported backend for clearing: %s", backend)
	}
}
