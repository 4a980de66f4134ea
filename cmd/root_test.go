package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteFilePath(t *testing.T) {
	assert.Equal(t, "/data/roster.db", sqliteFilePath("/data/roster.db", "/home/me/.tierscope_roster.db"))
	assert.Equal(t, "/home/me/.tierscope_roster.db", sqliteFilePath("", "/home/me/.tierscope_roster.db"))
}

func TestCommandTree(t *testing.T) {
	tests := []struct {
		path []string
		use  string
	}{
		{path: []string{"classify"}, use: "classify [roster]"},
		{path: []string{"compare"}, use: "compare [roster]"},
		{path: []string{"evaluate"}, use: "evaluate [roster]"},
		{path: []string{"flagged"}, use: "flagged [roster]"},
		{path: []string{"generate"}, use: "generate"},
		{path: []string{"metrics"}, use: "metrics"},
		{path: []string{"roster", "import"}, use: "import <roster>"},
		{path: []string{"roster", "status"}, use: "status"},
		{path: []string{"runs", "export"}, use: "export"},
		{path: []string{"runs", "migrate"}, use: "migrate"},
		{path: []string{"mcp"}, use: "mcp"},
		{path: []string{"version"}, use: "version"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			found, _, err := rootCmd.Find(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.use, found.Use)
		})
	}
}

func TestCommandFlags(t *testing.T) {
	for _, name := range []string{"clusters", "normalization", "preset", "reference", "seed", "output", "roster-backend", "runs-backend", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.NotNil(t, classifyCmd.Flags().Lookup("explain"))
	assert.NotNil(t, generateCmd.Flags().Lookup("count"))
	assert.NotNil(t, runsMigrateCmd.Flags().Lookup("target-version"))
}

func TestClassifyArgs(t *testing.T) {
	assert.NoError(t, classifyCmd.Args(classifyCmd, nil))
	assert.NoError(t, classifyCmd.Args(classifyCmd, []string{"students.csv"}))
	assert.Error(t, classifyCmd.Args(classifyCmd, []string{"a.csv", "b.csv"}))
	assert.Error(t, rosterImportCmd.Args(rosterImportCmd, nil))
}

func TestVersionWritesToStdout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = stdout })

	var stderr bytes.Buffer
	versionCmd.SetErr(&stderr)
	t.Cleanup(func() { versionCmd.SetErr(nil) })

	versionCmd.Run(versionCmd, nil)
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Contains(t, string(out), "tierscope CLI")
	assert.Contains(t, string(out), "Runtime: go")
	assert.Empty(t, stderr.String())
}
