package storagemock

import "github.com/slok/questline/internal/storage"

// Make sure mocks implement the interfaces.
var (
	_ storage.DefinitionRepository = &MockDefinitionRepository{}
	_ storage.DefinitionReloader   = &MockDefinitionReloader{}
	_ storage.JournalRepository    = &MockJournalRepository{}
)
