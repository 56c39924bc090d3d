package list

import (
	"context"
	"fmt"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	Repository storage.DefinitionRepository
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

// Service lists definitions with optional filtering.
type Service struct {
	repo   storage.DefinitionRepository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// KindFilter is an optional filter to only show definitions of this kind.
	KindFilter *model.DefinitionKind
	// IncludeDisabled also returns the disabled definitions.
	IncludeDisabled bool
}

// Run lists all definitions sorted by ID, optionally filtered.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Definition, error) {
	s.logger.Debugf("listing definitions with filter: %v", req.KindFilter)

	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list definitions: %w", err)
	}

	filtered := make([]model.Definition, 0, len(defs))
	for _, d := range defs {
		if req.KindFilter != nil && d.Kind != *req.KindFilter {
			continue
		}
		if d.Disabled && !req.IncludeDisabled {
			continue
		}
		filtered = append(filtered, d)
	}

	s.logger.Debugf("found %d definitions", len(filtered))
	return filtered, nil
}
