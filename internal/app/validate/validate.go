package validate

import (
	"context"
	"fmt"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
	"github.com/slok/questline/internal/validation"
)

// ServiceConfig is the configuration for the validate service.
type ServiceConfig struct {
	Repository storage.DefinitionRepository
	// Validators are optional, by default the validation package default set is used.
	Validators  []validation.Validator
	Concurrency int
	Logger      log.Logger
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

// Service validates the loaded definitions.
type Service struct {
	worker *validation.Worker
	logger log.Logger
}

// NewService creates a new validate service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	w, err := validation.NewWorker(validation.WorkerConfig{
		Definitions: cfg.Repository,
		Validators:  cfg.Validators,
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create validation worker: %w", err)
	}

	return &Service{
		worker: w,
		logger: cfg.Logger,
	}, nil
}

// Request represents the validate request parameters.
type Request struct {
	// QuestID is optional, when set only the issues of this definition are returned.
	QuestID *model.QuestID
}

// Result is the outcome of a validation.
type Result struct {
	Issues []model.ValidationIssue
	Errors int
	Infos  int
}

// HasErrors returns true if any of the issues is an error.
func (r Result) HasErrors() bool { return r.Errors > 0 }

// Run validates all the definitions and returns the sorted issues.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	issues, err := s.worker.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not validate definitions: %w", err)
	}

	if req.QuestID != nil {
		filtered := make([]model.ValidationIssue, 0, len(issues))
		for _, i := range issues {
			if i.QuestID == *req.QuestID {
				filtered = append(filtered, i)
			}
		}
		issues = filtered
	}

	infos, errs := model.CountBySeverity(issues)
	s.logger.Debugf("validation found %d errors and %d infos", errs, infos)

	return &Result{
		Issues: issues,
		Errors: errs,
		Infos:  infos,
	}, nil
}
