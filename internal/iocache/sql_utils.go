package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// sqliteTimeLayout is fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName guards every table name that is formatted into a query.
func validateTableName(name string) error {
	if name == "" {
		return eris.New("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return eris.Errorf("invalid table name: %s (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// driverName maps a backend to its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", eris.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// openDB opens and pings a connection. An empty SQLite connection string falls back to defaultPath.
func openDB(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = defaultPath
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s database", backend)
	}
	if backend == schema.SQLiteBackend {
		// A single connection avoids "database is locked" errors and keeps :memory: databases alive
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var detail string
		switch backend {
		case schema.MySQLBackend:
			detail = "Check that MySQL is running and the connection string is user:password@tcp(host:port)/dbname?parseTime=true"
		case schema.PostgreSQLBackend:
			detail = "Check that PostgreSQL is running and the connection string is host=... port=... user=... dbname=..."
		default:
			detail = "Check that the directory is writable"
		}
		return nil, eris.Wrapf(err, "store: connect to %s database. %s", backend, detail)
	}
	return db, nil
}

// bindVar returns the i-th (1-based) parameter placeholder for the backend.
func bindVar(backend schema.DatabaseBackend, i int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// bindVars returns n comma separated placeholders starting at 1.
func bindVars(backend schema.DatabaseBackend, n int) string {
	vars := make([]string, n)
	for i := range n {
		vars[i] = bindVar(backend, i+1)
	}
	return strings.Join(vars, ", ")
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}

// parseSQLiteTime reverses formatTime for SQLite text columns.
func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "store: parse time %q", s)
	}
	return t, nil
}

// timeColumn scans a time column regardless of how the backend stores it.
// SQLite stores text while MySQL and PostgreSQL store native datetimes.
type timeColumn struct {
	backend schema.DatabaseBackend
	Valid   bool
	Time    time.Time
	text    sql.NullString
	native  sql.NullTime
}

func newTimeColumn(backend schema.DatabaseBackend) *timeColumn {
	return &timeColumn{backend: backend}
}

// dest returns the scan destination for this column.
func (tc *timeColumn) dest() any {
	if tc.backend == schema.SQLiteBackend {
		return &tc.text
	}
	return &tc.native
}

// resolve converts the scanned value after Scan returns.
func (tc *timeColumn) resolve() error {
	if tc.backend == schema.SQLiteBackend {
		if !tc.text.Valid {
			return nil
		}
		t, err := parseSQLiteTime(tc.text.String)
		if err != nil {
			return err
		}
		tc.Time, tc.Valid = t, true
		return nil
	}
	tc.Time, tc.Valid = tc.native.Time, tc.native.Valid
	return nil
}

// ptr returns nil for a NULL column.
func (tc *timeColumn) ptr() *time.Time {
	if !tc.Valid {
		return nil
	}
	t := tc.Time
	return &t
}

// countRows returns the number of rows in a table.
func countRows(db *sql.DB, table string, backend schema.DatabaseBackend) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, backend))
	if err := db.QueryRow(query).Scan(&count); err != nil {
		return 0, eris.Wrapf(err, "store: count rows in %s", table)
	}
	return count, nil
}

// dropTables connects to the SQL database and drops the tables if they exist.
func dropTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	db, err := openDB(backend, connStr, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return eris.Wrapf(err, "store: drop table %s", table)
		}
	}
	return nil
}
