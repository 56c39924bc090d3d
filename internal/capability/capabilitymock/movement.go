package capabilitymock

import (
	"time"

	mock "github.com/stretchr/testify/mock"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
)

// MockMovement is a mock type for the capability.Movement type.
type MockMovement struct {
	mock.Mock
}

// IsNavmeshReady provides a mock function with no fields
func (_m *MockMovement) IsNavmeshReady() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// IsPathRunning provides a mock function with no fields
func (_m *MockMovement) IsPathRunning() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// IsPathfinding provides a mock function with no fields
func (_m *MockMovement) IsPathfinding() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// Land provides a mock function with no fields
func (_m *MockMovement) Land() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// MovementStartedAt provides a mock function with no fields
func (_m *MockMovement) MovementStartedAt() time.Time {
	ret := _m.Called()
	return ret.Get(0).(time.Time)
}

// NavigateTo provides a mock function with given fields: destination, opts
func (_m *MockMovement) NavigateTo(destination model.Vec3, opts capability.MovementOptions) error {
	ret := _m.Called(destination, opts)
	return ret.Error(0)
}

// Stop provides a mock function with no fields
func (_m *MockMovement) Stop() {
	_m.Called()
}

// NewMockMovement creates a new instance of MockMovement. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockMovement(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMovement {
	m := &MockMovement{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
