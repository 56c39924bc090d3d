package capabilitymock

import mock "github.com/stretchr/testify/mock"

// MockInteraction is a mock type for the capability.Interaction type.
type MockInteraction struct {
	mock.Mock
}

func (_m *MockInteraction) boolCall(method string, args ...interface{}) bool {
	ret := _m.MethodCalled(method, args...)
	return ret.Bool(0)
}

// Craft provides a mock function with given fields: itemID, quantity
func (_m *MockInteraction) Craft(itemID uint32, quantity int) bool {
	return _m.boolCall("Craft", itemID, quantity)
}

// Emote provides a mock function with given fields: emoteID, dataID
func (_m *MockInteraction) Emote(emoteID uint32, dataID *uint32) bool {
	return _m.boolCall("Emote", emoteID, dataID)
}

// Equip provides a mock function with given fields: itemID
func (_m *MockInteraction) Equip(itemID uint32) bool {
	return _m.boolCall("Equip", itemID)
}

// InteractWith provides a mock function with given fields: dataID
func (_m *MockInteraction) InteractWith(dataID uint32) bool {
	return _m.boolCall("InteractWith", dataID)
}

// Mount provides a mock function with no fields
func (_m *MockInteraction) Mount() bool {
	return _m.boolCall("Mount")
}

// Say provides a mock function with given fields: message
func (_m *MockInteraction) Say(message string) bool {
	return _m.boolCall("Say", message)
}

// Unmount provides a mock function with no fields
func (_m *MockInteraction) Unmount() bool {
	return _m.boolCall("Unmount")
}

// UseAction provides a mock function with given fields: actionID, dataID
func (_m *MockInteraction) UseAction(actionID uint32, dataID *uint32) bool {
	return _m.boolCall("UseAction", actionID, dataID)
}

// UseItem provides a mock function with given fields: itemID
func (_m *MockInteraction) UseItem(itemID uint32) bool {
	return _m.boolCall("UseItem", itemID)
}

// UseItemOn provides a mock function with given fields: itemID, dataID
func (_m *MockInteraction) UseItemOn(itemID uint32, dataID uint32) bool {
	return _m.boolCall("UseItemOn", itemID, dataID)
}

// UseItemOnGround provides a mock function with given fields: itemID, dataID
func (_m *MockInteraction) UseItemOnGround(itemID uint32, dataID uint32) bool {
	return _m.boolCall("UseItemOnGround", itemID, dataID)
}

// NewMockInteraction creates a new instance of MockInteraction. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockInteraction(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockInteraction {
	m := &MockInteraction{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
