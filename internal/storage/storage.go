package storage

import (
	"context"

	"github.com/slok/questline/internal/model"
)

// DefinitionRepository is the read side of quest definitions.
type DefinitionRepository interface {
	GetDefinition(ctx context.Context, id model.QuestID) (*model.Definition, error)
	ListDefinitions(ctx context.Context) ([]model.Definition, error)
}

// DefinitionReloader drops cached definitions and loads them again.
type DefinitionReloader interface {
	Reload(ctx context.Context) error
}

// ListRunsOpts filters the journaled runs.
type ListRunsOpts struct {
	QuestID *model.QuestID
	// Limit is the max number of runs returned, newest first. 0 means no limit.
	Limit int
}

// JournalRepository is the audit history of runs and their finished tasks.
type JournalRepository interface {
	CreateRun(ctx context.Context, r model.Run) error
	UpdateRun(ctx context.Context, r model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, opts ListRunsOpts) ([]model.Run, error)
	AddTaskRecord(ctx context.Context, r model.TaskRecord) error
	ListTaskRecords(ctx context.Context, runID string) ([]model.TaskRecord, error)
}
