package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
)

// DefinitionLoader loads every definition from its source.
type DefinitionLoader interface {
	LoadDefinitions(ctx context.Context) ([]model.Definition, error)
}

// StaticLoader is a loader of fixed definitions.
type StaticLoader []model.Definition

// LoadDefinitions satisfies DefinitionLoader.
func (s StaticLoader) LoadDefinitions(ctx context.Context) ([]model.Definition, error) {
	return s, nil
}

// DefinitionRegistryConfig is the configuration for the definition registry.
type DefinitionRegistryConfig struct {
	Loader DefinitionLoader
	Logger log.Logger
}

func (c *DefinitionRegistryConfig) defaults() error {
	if c.Loader == nil {
		return fmt.Errorf("loader is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.MemoryDefinitionRegistry"})
	return nil
}

// DefinitionRegistry caches the loaded definitions in memory. Definitions are
// loaded lazily on first access and on every Reload.
type DefinitionRegistry struct {
	loader      DefinitionLoader
	definitions map[model.QuestID]model.Definition
	loaded      bool
	mu          sync.RWMutex
	logger      log.Logger
}

var (
	_ storage.DefinitionRepository = &DefinitionRegistry{}
	_ storage.DefinitionReloader   = &DefinitionRegistry{}
)

// NewDefinitionRegistry creates a new memory definition registry.
func NewDefinitionRegistry(cfg DefinitionRegistryConfig) (*DefinitionRegistry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &DefinitionRegistry{
		loader:      cfg.Loader,
		definitions: map[model.QuestID]model.Definition{},
		logger:      cfg.Logger,
	}, nil
}

// Reload drops the cached definitions and loads them again. On failure the
// previous definitions are kept.
func (r *DefinitionRegistry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *DefinitionRegistry) load(ctx context.Context) error {
	defs, err := r.loader.LoadDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("could not load definitions: %w", err)
	}

	loaded := make(map[model.QuestID]model.Definition, len(defs))
	for _, d := range defs {
		if _, ok := loaded[d.ID]; ok {
			return fmt.Errorf("definition %d: %w", d.ID, model.ErrAlreadyExists)
		}
		loaded[d.ID] = d
	}

	r.definitions = loaded
	r.loaded = true
	r.logger.Debugf("Loaded %d definitions", len(loaded))

	return nil
}

func (r *DefinitionRegistry) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}
	return r.load(ctx)
}

// GetDefinition returns a definition by ID.
func (r *DefinitionRegistry) GetDefinition(ctx context.Context, id model.QuestID) (*model.Definition, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.definitions[id]
	if !ok {
		return nil, fmt.Errorf("definition %d: %w", id, model.ErrNotFound)
	}

	return &d, nil
}

// ListDefinitions returns every definition sorted by ID.
func (r *DefinitionRegistry) ListDefinitions(ctx context.Context) ([]model.Definition, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.Definition, 0, len(r.definitions))
	for _, d := range r.definitions {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	return defs, nil
}
