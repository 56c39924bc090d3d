package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
)

// JournalConfig is the configuration for the memory journal.
type JournalConfig struct {
	Logger log.Logger
}

func (c *JournalConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.MemoryJournal"})
	return nil
}

// Journal is an in-memory implementation of storage.JournalRepository.
type Journal struct {
	runs     map[string]model.Run
	runOrder []string
	records  map[string][]model.TaskRecord
	mu       sync.RWMutex
	logger   log.Logger
}

var _ storage.JournalRepository = &Journal{}

// NewJournal creates a new memory journal.
func NewJournal(cfg JournalConfig) (*Journal, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Journal{
		runs:    map[string]model.Run{},
		records: map[string][]model.TaskRecord{},
		logger:  cfg.Logger,
	}, nil
}

// CreateRun stores a new run.
func (j *Journal) CreateRun(ctx context.Context, r model.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.runs[r.ID]; ok {
		return fmt.Errorf("run %s: %w", r.ID, model.ErrAlreadyExists)
	}

	j.runs[r.ID] = r
	j.runOrder = append(j.runOrder, r.ID)
	j.logger.Debugf("Created run in journal: %s", r.ID)

	return nil
}

// UpdateRun updates an existing run.
func (j *Journal) UpdateRun(ctx context.Context, r model.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.runs[r.ID]; !ok {
		return fmt.Errorf("run %s: %w", r.ID, model.ErrNotFound)
	}

	j.runs[r.ID] = r

	return nil
}

// GetRun returns a run by ID.
func (j *Journal) GetRun(ctx context.Context, id string) (*model.Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	r, ok := j.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	return &r, nil
}

// ListRuns returns the runs newest first.
func (j *Journal) ListRuns(ctx context.Context, opts storage.ListRunsOpts) ([]model.Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	runs := []model.Run{}
	for i := len(j.runOrder) - 1; i >= 0; i-- {
		r := j.runs[j.runOrder[i]]
		if opts.QuestID != nil && r.QuestID != *opts.QuestID {
			continue
		}
		runs = append(runs, r)
		if opts.Limit > 0 && len(runs) == opts.Limit {
			break
		}
	}

	return runs, nil
}

// AddTaskRecord appends a finished task to its run.
func (j *Journal) AddTaskRecord(ctx context.Context, r model.TaskRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.runs[r.RunID]; !ok {
		return fmt.Errorf("run %s: %w", r.RunID, model.ErrNotFound)
	}
	j.records[r.RunID] = append(j.records[r.RunID], r)

	return nil
}

// ListTaskRecords returns the task records of a run in insertion order.
func (j *Journal) ListTaskRecords(ctx context.Context, runID string) ([]model.TaskRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if _, ok := j.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}

	return append([]model.TaskRecord{}, j.records[runID]...), nil
}
