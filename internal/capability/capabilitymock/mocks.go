package capabilitymock

import "github.com/slok/questline/internal/capability"

// Make sure mocks implement the interfaces.
var (
	_ capability.Interaction = &MockInteraction{}
	_ capability.Movement    = &MockMovement{}
)
