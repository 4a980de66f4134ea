package iocache

import (
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRosterStore implements the StoreManager interface.
func (m *MockStoreManager) GetRosterStore() contract.RosterStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RosterStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRosterStore is a mock implementation of RosterStore for testing.
type MockRosterStore struct {
	mock.Mock
}

var _ contract.RosterStore = &MockRosterStore{} // Compile-time check

// SaveStudents implements the RosterStore interface.
func (m *MockRosterStore) SaveStudents(students []schema.StudentRecord) error {
	args := m.Called(students)
	return args.Error(0)
}

// LoadStudents implements the RosterStore interface.
func (m *MockRosterStore) LoadStudents() ([]schema.StudentRecord, error) {
	args := m.Called()
	students, _ := args.Get(0).([]schema.StudentRecord)
	return students, args.Error(1)
}

// GetStatus implements the RosterStore interface.
func (m *MockRosterStore) GetStatus() (schema.RosterStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RosterStatus), args.Error(1)
}

// Close implements the RosterStore interface.
func (m *MockRosterStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, totalStudents, classifiedStudents int) error {
	args := m.Called(runID, endTime, totalStudents, classifiedStudents)
	return args.Error(0)
}

// RecordResults implements the RunStore interface.
func (m *MockRunStore) RecordResults(runID int64, results []schema.ClassificationResult) error {
	args := m.Called(runID, results)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllStudentResults implements the RunStore interface.
func (m *MockRunStore) GetAllStudentResults() ([]schema.StudentResultRecord, error) {
	args := m.Called()
	results, _ := args.Get(0).([]schema.StudentResultRecord)
	return results, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
