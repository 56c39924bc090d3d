package storagemock

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
)

// MockJournalRepository is a mock type for the storage.JournalRepository type.
type MockJournalRepository struct {
	mock.Mock
}

// AddTaskRecord provides a mock function with given fields: ctx, r
func (_m *MockJournalRepository) AddTaskRecord(ctx context.Context, r model.TaskRecord) error {
	ret := _m.Called(ctx, r)
	return ret.Error(0)
}

// CreateRun provides a mock function with given fields: ctx, r
func (_m *MockJournalRepository) CreateRun(ctx context.Context, r model.Run) error {
	ret := _m.Called(ctx, r)
	return ret.Error(0)
}

// GetRun provides a mock function with given fields: ctx, id
func (_m *MockJournalRepository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Run)
	}

	return r0, ret.Error(1)
}

// ListRuns provides a mock function with given fields: ctx, opts
func (_m *MockJournalRepository) ListRuns(ctx context.Context, opts storage.ListRunsOpts) ([]model.Run, error) {
	ret := _m.Called(ctx, opts)

	var r0 []model.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Run)
	}

	return r0, ret.Error(1)
}

// ListTaskRecords provides a mock function with given fields: ctx, runID
func (_m *MockJournalRepository) ListTaskRecords(ctx context.Context, runID string) ([]model.TaskRecord, error) {
	ret := _m.Called(ctx, runID)

	var r0 []model.TaskRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.TaskRecord)
	}

	return r0, ret.Error(1)
}

// UpdateRun provides a mock function with given fields: ctx, r
func (_m *MockJournalRepository) UpdateRun(ctx context.Context, r model.Run) error {
	ret := _m.Called(ctx, r)
	return ret.Error(0)
}

// NewMockJournalRepository creates a new instance of MockJournalRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockJournalRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJournalRepository {
	m := &MockJournalRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
