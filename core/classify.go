package core

import (
	"context"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/outwriter"
	"github.com/huangsam/tierscope/internal/roster"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrEmptyRoster is returned when there are no students to work on.
var ErrEmptyRoster = eris.New("roster is empty")

// ExecuteClassify classifies the roster and prints results in the configured format.
// It serves as the main entry point for the 'classify' command.
func ExecuteClassify(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	results, err := runClassification(ctx, cfg, mgr, nil)
	if err != nil {
		return err
	}
	return outwriter.PrintClassificationResults(TopResults(results, cfg.ResultLimit), cfg, time.Since(start))
}

// GetClassificationResults classifies records without printing anything. A nil records
// slice loads the configured roster instead.
func GetClassificationResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, records []schema.StudentRecord) ([]schema.ClassificationResult, error) {
	return runClassification(withSuppressProgress(ctx), cfg, mgr, records)
}

// runClassification loads the roster unless records are given, fits a session, predicts
// every student and records the run when a run store is configured.
func runClassification(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, records []schema.StudentRecord) ([]schema.ClassificationResult, error) {
	progress := newStageProgress(ctx, 4)
	defer progress.finish()

	progress.step("Loading roster")
	if records == nil {
		var err error
		if records, err = LoadRoster(cfg, mgr); err != nil {
			return nil, err
		}
	} else if len(records) == 0 {
		return nil, ErrEmptyRoster
	}

	// --- 0. Begin Run Tracking (if configured) ---
	runStore := mgr.GetRunStore()
	if runStore != nil {
		runID, err := runStore.BeginRun(time.Now(), cfg.ConfigParams())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if runID > 0 {
			ctx = withRunID(ctx, runID)
		}
	}

	// --- 1. Fit and 2. Predict ---
	results, err := fitAndPredict(ctx, cfg, records, progress)

	// --- 3. End Run Tracking ---
	progress.step("Recording run")
	if runID := runIDFromContext(ctx); runStore != nil && runID > 0 {
		if err == nil {
			if recErr := runStore.RecordResults(runID, results); recErr != nil {
				contract.LogWarn("Failed to record run results", recErr)
			}
		}
		// A failed run is closed with no results.
		if endErr := runStore.EndRun(runID, time.Now(), len(results), countSufficient(results)); endErr != nil {
			contract.LogWarn("Failed to finalize run tracking", endErr)
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// fitAndPredict trains a fresh session on records and classifies every student.
func fitAndPredict(ctx context.Context, cfg *contract.Config, records []schema.StudentRecord, progress *stageProgress) ([]schema.ClassificationResult, error) {
	progress.step("Fitting models")
	session := NewSession(OptionsFromConfig(cfg))
	session.Init(records)
	if err := session.Fit(ctx); err != nil {
		return nil, err
	}
	logDiagnostics(session.Diagnostics())

	progress.step("Classifying students")
	return session.Predict(ctx, records)
}

// LoadRoster reads the roster file when one is given, otherwise the roster store.
func LoadRoster(cfg *contract.Config, mgr contract.StoreManager) ([]schema.StudentRecord, error) {
	var records []schema.StudentRecord
	if cfg.RosterPath != "" {
		var err error
		if records, err = roster.LoadFile(cfg.RosterPath); err != nil {
			return nil, err
		}
	} else {
		store := mgr.GetRosterStore()
		if store == nil {
			return nil, eris.New("no roster file given and the roster store is disabled")
		}
		var err error
		if records, err = store.LoadStudents(); err != nil {
			return nil, eris.Wrap(err, "core: load roster from store")
		}
	}
	if len(records) == 0 {
		return nil, eris.Wrap(ErrEmptyRoster, "core: import students with 'tierscope roster import' or 'tierscope generate --save'")
	}
	zap.L().Debug("core: roster loaded", zap.Int("students", len(records)), zap.String("source", rosterSource(cfg)))
	return records, nil
}

func rosterSource(cfg *contract.Config) string {
	if cfg.RosterPath != "" {
		return cfg.RosterPath
	}
	return string(cfg.RosterBackend)
}

func logDiagnostics(d Diagnostics) {
	fields := []zap.Field{
		zap.Int("students", d.Students),
		zap.Int("sufficient", d.Sufficient),
		zap.Ints("cluster_sizes", d.ClusterSizes),
		zap.Int("neighbors", d.Neighbors),
	}
	if d.ValidationAccuracy != nil {
		fields = append(fields, zap.Float64("validation_accuracy", *d.ValidationAccuracy))
	}
	zap.L().Info("core: models fitted", fields...)
}

func countSufficient(results []schema.ClassificationResult) int {
	n := 0
	for _, r := range results {
		if r.Sufficient {
			n++
		}
	}
	return n
}
