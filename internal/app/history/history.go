package history

import (
	"context"
	"fmt"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.JournalRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service shows the journaled runs.
type Service struct {
	repo   storage.JournalRepository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// ListRequest represents the run list request parameters.
type ListRequest struct {
	QuestID *model.QuestID
	Limit   int
}

// ListRuns returns the journaled runs, newest first.
func (s *Service) ListRuns(ctx context.Context, req ListRequest) ([]model.Run, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	runs, err := s.repo.ListRuns(ctx, storage.ListRunsOpts{QuestID: req.QuestID, Limit: req.Limit})
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	s.logger.Debugf("found %d runs", len(runs))
	return runs, nil
}

// RunDetail is a run with its finished tasks.
type RunDetail struct {
	Run   model.Run
	Tasks []model.TaskRecord
}

// GetRun returns a run with all its task records in execution order.
func (s *Service) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID is required: %w", model.ErrNotValid)
	}

	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("could not get run %q: %w", runID, err)
	}

	tasks, err := s.repo.ListTaskRecords(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks of run %q: %w", runID, err)
	}

	return &RunDetail{Run: *run, Tasks: tasks}, nil
}
