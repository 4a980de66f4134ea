package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/iocache"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// rosterCmd focused on roster store management.
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the stored student roster",
	Long: `Manage the roster store that classify, compare, evaluate and flagged read from
when no roster file is given.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show roster statistics and connection info
  clear  - Remove all stored students
  import - Load a roster file into the store

Examples:
  # Import a CSV roster
  tierscope roster import students.csv

  # Check how many students are stored
  tierscope roster status`,
}

// rosterStatusCmd shows roster status.
var rosterStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display roster statistics and connection details",
	Long: `Show detailed information about the roster store.

Displays:
- Backend type and connection status
- Total number of stored students
- Last and oldest update timestamps

Examples:
  # Check roster status
  tierscope roster status

  # Check a PostgreSQL roster (set connection string via env variable)
  TIERSCOPE_ROSTER_BACKEND=postgresql TIERSCOPE_ROSTER_DB_CONNECT="..." tierscope roster status`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := storeManager.GetRosterStore()
		if store == nil {
			contract.LogFatal("Failed to get roster status", eris.New("roster store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get roster status", err)
		}
		iocache.PrintRosterStatus(os.Stdout, status)
	},
}

// rosterClearCmd clears the roster store.
var rosterClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored students",
	Long: `Delete all students from the configured roster store.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the roster table

Run history is kept. Use 'tierscope runs clear' to remove it.

Examples:
  # Clear the SQLite roster (default)
  tierscope roster clear

  # Clear a MySQL roster (set connection string via env variable)
  TIERSCOPE_ROSTER_BACKEND=mysql TIERSCOPE_ROSTER_DB_CONNECT="..." tierscope roster clear`,
	Args:    cobra.NoArgs,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFilePath(cfg.RosterDBConnect, contract.GetRosterDBFilePath())
		if err := iocache.ClearRoster(cfg.RosterBackend, dbFile, cfg.RosterDBConnect); err != nil {
			contract.LogFatal("Failed to clear roster", err)
		}
		fmt.Println("Roster cleared successfully.")
	},
}

// rosterImportCmd loads a roster file into the store.
var rosterImportCmd = &cobra.Command{
	Use:   "import <roster>",
	Short: "Load a .json, .yaml or .csv roster into the store",
	Long: `Read a roster file and upsert its students into the roster store.

Students are keyed by id, so importing the same file twice updates the stored records
instead of duplicating them.

Examples:
  # Import a CSV export
  tierscope roster import students.csv

  # Import into MySQL
  TIERSCOPE_ROSTER_BACKEND=mysql TIERSCOPE_ROSTER_DB_CONNECT="..." tierscope roster import students.yaml`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.RosterBackend == schema.NoneBackend {
			contract.LogFatal("Failed to import roster", eris.New("the roster store is disabled. Set --roster-backend to sqlite, mysql or postgresql"))
		}
		if err := core.ExecuteRosterImport(rootCtx, cfg, storeManager, os.Stdout); err != nil {
			contract.LogFatal("Failed to import roster", err)
		}
	},
}
