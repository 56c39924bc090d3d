package storagemock

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/slok/questline/internal/model"
)

// MockDefinitionRepository is a mock type for the storage.DefinitionRepository type.
type MockDefinitionRepository struct {
	mock.Mock
}

// GetDefinition provides a mock function with given fields: ctx, id
func (_m *MockDefinitionRepository) GetDefinition(ctx context.Context, id model.QuestID) (*model.Definition, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.Definition
	if rf, ok := ret.Get(0).(func(context.Context, model.QuestID) *model.Definition); ok {
		r0 = rf(ctx, id)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Definition)
	}

	return r0, ret.Error(1)
}

// ListDefinitions provides a mock function with given fields: ctx
func (_m *MockDefinitionRepository) ListDefinitions(ctx context.Context) ([]model.Definition, error) {
	ret := _m.Called(ctx)

	var r0 []model.Definition
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Definition)
	}

	return r0, ret.Error(1)
}

// NewMockDefinitionRepository creates a new instance of MockDefinitionRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockDefinitionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDefinitionRepository {
	m := &MockDefinitionRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockDefinitionReloader is a mock type for the storage.DefinitionReloader type.
type MockDefinitionReloader struct {
	mock.Mock
}

// Reload provides a mock function with given fields: ctx
func (_m *MockDefinitionReloader) Reload(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// NewMockDefinitionReloader creates a new instance of MockDefinitionReloader. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockDefinitionReloader(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDefinitionReloader {
	m := &MockDefinitionReloader{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
