package core

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/roster"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ExecuteGenerate draws a synthetic roster. It is written to the output file in the
// format of its extension, to stdout as JSON, or saved to the roster store.
func ExecuteGenerate(_ context.Context, cfg *contract.Config, mgr contract.StoreManager, w io.Writer) error {
	records := roster.Generate(cfg.GenerateCount, cfg.Seed)
	zap.L().Debug("core: roster generated", zap.Int("students", len(records)), zap.Uint64("seed", cfg.Seed))

	if cfg.GenerateSave {
		if err := saveRoster(cfg, mgr, records); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Saved %d generated students to the %s roster store\n", len(records), cfg.RosterBackend)
		return err
	}
	if cfg.OutputFile != "" {
		if err := roster.WriteFile(cfg.OutputFile, records); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Wrote %d generated students to %s\n", len(records), cfg.OutputFile)
		return err
	}
	return roster.Encode(w, records, roster.JSONFormat)
}

// ExecuteRosterImport loads the roster file and upserts it into the roster store.
func ExecuteRosterImport(_ context.Context, cfg *contract.Config, mgr contract.StoreManager, w io.Writer) error {
	if cfg.RosterPath == "" {
		return eris.New("a roster file is required. Example: tierscope roster import students.csv")
	}
	records, err := roster.LoadFile(cfg.RosterPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return eris.Wrapf(ErrEmptyRoster, "core: %s has no students", cfg.RosterPath)
	}
	if err := saveRoster(cfg, mgr, records); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Imported %d students from %s into the %s roster store\n", len(records), cfg.RosterPath, cfg.RosterBackend)
	return err
}

func saveRoster(cfg *contract.Config, mgr contract.StoreManager, records []schema.StudentRecord) error {
	store := mgr.GetRosterStore()
	if store == nil || cfg.RosterBackend == schema.NoneBackend {
		return eris.New("the roster store is disabled. Set --roster-backend to sqlite, mysql or postgresql")
	}
	return eris.Wrap(store.SaveStudents(records), "core: save roster")
}
