package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/iocache"
	"github.com/huangsam/tierscope/internal/roster"
	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// classifyConfig returns a JSON config reading rosterPath and writing to a temp file.
func classifyConfig(t *testing.T, rosterPath string) *contract.Config {
	t.Helper()
	return &contract.Config{
		RosterPath:    rosterPath,
		Clusters:      contract.DefaultClusters,
		Normalization: schema.MinMaxNorm,
		Preset:        schema.StandardPreset,
		Reference:     schema.TotalScoreReference,
		Workers:       2,
		Seed:          algo.DefaultSeed,
		Precision:     2,
		Output:        schema.JSONOut,
		OutputFile:    filepath.Join(t.TempDir(), "out.json"),
		RosterBackend: schema.SQLiteBackend,
		RunsBackend:   schema.SQLiteBackend,
	}
}

// writeRoster writes records to a temp roster file.
func writeRoster(t *testing.T, name string, records []schema.StudentRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, roster.WriteFile(path, records))
	return path
}

func readJSONOutput(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestExecuteClassifyTracksRun(t *testing.T) {
	cfg := classifyConfig(t, writeRoster(t, "students.csv", cohort()))

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return(int64(7), nil)
	runStore.On("RecordResults", int64(7), mock.Anything).Return(nil)
	runStore.On("EndRun", int64(7), mock.Anything, 53, 52).Return(nil)
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	require.NoError(t, ExecuteClassify(context.Background(), cfg, mgr))

	var got []schema.ClassificationResult
	readJSONOutput(t, cfg.OutputFile, &got)
	require.Len(t, got, 53)
	assert.Equal(t, schema.InsufficientTier, got[52].FinalTier)

	runStore.AssertExpectations(t)
	mgr.AssertNotCalled(t, "GetRosterStore")
	recorded := runStore.Calls[1].Arguments.Get(1).([]schema.ClassificationResult)
	require.Len(t, recorded, 53)
	assert.Equal(t, int64(roster.FirstStudentID), recorded[0].StudentID, "the run store keeps input order")
}

func TestExecuteClassifyLimit(t *testing.T) {
	cfg := classifyConfig(t, writeRoster(t, "students.json", cohort()))
	cfg.ResultLimit = 5

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(nil)

	require.NoError(t, ExecuteClassify(context.Background(), cfg, mgr))

	var got []schema.ClassificationResult
	readJSONOutput(t, cfg.OutputFile, &got)
	require.Len(t, got, 5)

	all, err := Classify(context.Background(), cohort(), OptionsFromConfig(cfg))
	require.NoError(t, err)
	best := 0.0
	for _, r := range all {
		if r.Sufficient {
			best = max(best, r.CompositeScore)
		}
	}
	assert.InDelta(t, best, got[0].CompositeScore, 1e-9, "the limit keeps the top students")
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].CompositeScore, got[i].CompositeScore)
	}
}

func TestExecuteClassifyEndsFailedRun(t *testing.T) {
	records := []schema.StudentRecord{
		uniformStudent(1, 9, 60, 0.9, 0, 90),
		uniformStudent(2, 5, 60, 0.7, 2, 60),
	}
	cfg := classifyConfig(t, writeRoster(t, "small.json", records))

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return(int64(11), nil)
	runStore.On("EndRun", int64(11), mock.Anything, 0, 0).Return(nil)
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	err := ExecuteClassify(context.Background(), cfg, mgr)
	assert.ErrorIs(t, err, algo.ErrDataInsufficient)
	runStore.AssertExpectations(t)
	runStore.AssertNotCalled(t, "RecordResults", mock.Anything, mock.Anything)
}

func TestExecuteClassifyRunTrackingFailure(t *testing.T) {
	cfg := classifyConfig(t, writeRoster(t, "students.yaml", cohort()))

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	require.NoError(t, ExecuteClassify(context.Background(), cfg, mgr))
	runStore.AssertNotCalled(t, "RecordResults", mock.Anything, mock.Anything)
	runStore.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteClassifyRecordFailureIsNotFatal(t *testing.T) {
	cfg := classifyConfig(t, writeRoster(t, "students.json", cohort()))

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return(int64(3), nil)
	runStore.On("RecordResults", int64(3), mock.Anything).Return(errors.New("disk full"))
	runStore.On("EndRun", int64(3), mock.Anything, 53, 52).Return(errors.New("disk full"))
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	require.NoError(t, ExecuteClassify(context.Background(), cfg, mgr))
	runStore.AssertExpectations(t)
}

func TestExecuteClassifyInsufficientRoster(t *testing.T) {
	records := []schema.StudentRecord{
		uniformStudent(1, 9, 60, 0.9, 0, 90),
		uniformStudent(2, 5, 60, 0.7, 2, 60),
	}
	cfg := classifyConfig(t, writeRoster(t, "small.json", records))

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(nil)

	err := ExecuteClassify(context.Background(), cfg, mgr)
	assert.ErrorIs(t, err, algo.ErrDataInsufficient)
	_, statErr := os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadRoster(t *testing.T) {
	students := roster.Generate(5, 1)

	tests := []struct {
		name    string
		setup   func(t *testing.T, cfg *contract.Config, mgr *iocache.MockStoreManager)
		wantLen int
		wantErr error
	}{
		{
			name: "from file",
			setup: func(t *testing.T, cfg *contract.Config, _ *iocache.MockStoreManager) {
				cfg.RosterPath = writeRoster(t, "students.json", students)
			},
			wantLen: 5,
		},
		{
			name: "from store",
			setup: func(_ *testing.T, _ *contract.Config, mgr *iocache.MockStoreManager) {
				store := &iocache.MockRosterStore{}
				store.On("LoadStudents").Return(students, nil)
				mgr.On("GetRosterStore").Return(store)
			},
			wantLen: 5,
		},
		{
			name: "empty store",
			setup: func(_ *testing.T, _ *contract.Config, mgr *iocache.MockStoreManager) {
				store := &iocache.MockRosterStore{}
				store.On("LoadStudents").Return([]schema.StudentRecord{}, nil)
				mgr.On("GetRosterStore").Return(store)
			},
			wantErr: ErrEmptyRoster,
		},
		{
			name: "empty file",
			setup: func(t *testing.T, cfg *contract.Config, _ *iocache.MockStoreManager) {
				path := filepath.Join(t.TempDir(), "empty.json")
				require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
				cfg.RosterPath = path
			},
			wantErr: ErrEmptyRoster,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{RosterBackend: schema.SQLiteBackend}
			mgr := &iocache.MockStoreManager{}
			tt.setup(t, cfg, mgr)

			records, err := LoadRoster(cfg, mgr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestLoadRosterStoreErrors(t *testing.T) {
	t.Run("store disabled", func(t *testing.T) {
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetRosterStore").Return(nil)
		_, err := LoadRoster(&contract.Config{}, mgr)
		assert.ErrorContains(t, err, "roster store is disabled")
	})

	t.Run("store failure", func(t *testing.T) {
		store := &iocache.MockRosterStore{}
		store.On("LoadStudents").Return(nil, errors.New("connection refused"))
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetRosterStore").Return(store)
		_, err := LoadRoster(&contract.Config{}, mgr)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRoster(&contract.Config{RosterPath: filepath.Join(t.TempDir(), "nope.json")}, &iocache.MockStoreManager{})
		assert.Error(t, err)
	})
}

func TestCountSufficient(t *testing.T) {
	results := []schema.ClassificationResult{{Sufficient: true}, {}, {Sufficient: true}}
	assert.Equal(t, 2, countSufficient(results))
	assert.Equal(t, 0, countSufficient(nil))
}

func TestGetClassificationResults(t *testing.T) {
	cfg := classifyConfig(t, "")
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(nil)

	t.Run("inline records", func(t *testing.T) {
		results, err := GetClassificationResults(context.Background(), cfg, mgr, cohort())
		require.NoError(t, err)
		assert.Len(t, results, 53)
		mgr.AssertNotCalled(t, "GetRosterStore")
		_, statErr := os.Stat(cfg.OutputFile)
		assert.True(t, os.IsNotExist(statErr), "nothing is printed")
	})

	t.Run("empty records", func(t *testing.T) {
		_, err := GetClassificationResults(context.Background(), cfg, mgr, []schema.StudentRecord{})
		assert.ErrorIs(t, err, ErrEmptyRoster)
	})
}
