//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestTierscopeWithMySQL tests the tierscope CLI with MySQL roster and run stores.
func TestTierscopeWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "tierscope",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/tierscope?parseTime=true", host, port.Port())
	runDatabaseWorkflow(t, "mysql", connStr)
}

// TestTierscopeWithPostgres tests the tierscope CLI with PostgreSQL roster and run stores.
func TestTierscopeWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runDatabaseWorkflow(t, "postgresql", connStr)
}

// runDatabaseWorkflow drives import, classify, status, export, migrate and clear
// against one database shared by the roster and run stores.
func runDatabaseWorkflow(t *testing.T, backend, connStr string) {
	t.Helper()
	env := newCLIEnv(t)
	env.set("TIERSCOPE_ROSTER_BACKEND", backend)
	env.set("TIERSCOPE_ROSTER_DB_CONNECT", connStr)
	env.set("TIERSCOPE_RUNS_BACKEND", backend)
	env.set("TIERSCOPE_RUNS_DB_CONNECT", connStr)

	// Start from empty tables
	env.mustRun(t, "roster", "clear")
	env.mustRun(t, "runs", "clear")

	roster := filepath.Join(env.home, "students.csv")
	env.mustRun(t, "generate", "--count", "40", "--seed", "9", "--output-file", roster)
	assert.Contains(t, env.mustRun(t, "roster", "import", roster), "Imported 40 students from")

	// Re-importing upserts by id
	env.mustRun(t, "roster", "import", roster)
	assert.Contains(t, env.mustRun(t, "roster", "status"), "Total Students: 40")

	out := env.mustRun(t, "classify", "--output", "json")
	var results []schema.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 40)

	status := env.mustRun(t, "runs", "status")
	assert.Contains(t, status, "Runs Backend: "+backend)
	assert.Contains(t, status, "Total Runs: 1")

	prefix := filepath.Join(env.home, "history")
	env.mustRun(t, "runs", "export", "--output-file", prefix)
	assert.FileExists(t, prefix+".runs.parquet")
	assert.FileExists(t, prefix+".student_results.parquet")

	// Tables created at startup are already at the latest version.
	assert.Contains(t, env.mustRun(t, "runs", "migrate"), "version")

	env.mustRun(t, "runs", "clear")
	env.mustRun(t, "roster", "clear")
}
