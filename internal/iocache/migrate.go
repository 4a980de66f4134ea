package iocache

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// migrationsTable records the applied schema version of the run store.
const migrationsTable = "tierscope_schema_migrations"

//go:embed migrations
var migrationsFS embed.FS

// migrationDir maps a backend to its embedded migration directory.
func migrationDir(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "migrations/mysql"
	case schema.PostgreSQLBackend:
		return "migrations/postgres"
	default:
		return "migrations/sqlite"
	}
}

// MigrateRuns runs database migrations for the run store and returns a summary line.
//   - If targetVersion < 0, it migrates to the latest version.
//   - If targetVersion == 0, it rolls back all migrations.
//   - If targetVersion > 0, it migrates to the specified version.
func MigrateRuns(backend schema.DatabaseBackend, connStr string, targetVersion int) (string, error) {
	if backend == schema.NoneBackend {
		return "", eris.New("store: migrations are not supported for the none backend")
	}

	db, err := openDB(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()

	m, err := newMigrator(db, backend)
	if err != nil {
		return "", err
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !eris.Is(err, migrate.ErrNilVersion) {
		return "", eris.Wrap(err, "store: get current migration version")
	}
	if dirty {
		return "", eris.Errorf("store: database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}

	if eris.Is(err, migrate.ErrNoChange) {
		return fmt.Sprintf("No migration needed. Database is already at version %d", currentVersion), nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "store: migrate to version %d", targetVersion)
	}

	newVersion, _, verr := m.Version()
	if eris.Is(verr, migrate.ErrNilVersion) {
		newVersion = 0
	} else if verr != nil {
		return "", eris.Wrap(verr, "store: get new migration version")
	}
	zap.L().Info("store: migrated run store",
		zap.String("backend", string(backend)),
		zap.Uint("from", currentVersion),
		zap.Uint("to", newVersion))
	return fmt.Sprintf("Successfully migrated from version %d to version %d", currentVersion, newVersion), nil
}

// newMigrator builds a migrate instance over an open connection and the embedded SQL.
func newMigrator(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	var driver database.Driver
	var err error
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	default:
		return nil, eris.Errorf("store: unsupported backend: %s", backend)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: create %s migrate driver", backend)
	}

	sub, err := fs.Sub(migrationsFS, migrationDir(backend))
	if err != nil {
		return nil, eris.Wrap(err, "store: access migrations directory")
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, eris.Wrap(err, "store: create migration source")
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
	if err != nil {
		return nil, eris.Wrap(err, "store: create migrate instance")
	}
	return m, nil
}
