package lib

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slok/questline/internal/app/history"
	"github.com/slok/questline/internal/controller"
	"github.com/slok/questline/internal/conventions"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/metrics"
	metricsprometheus "github.com/slok/questline/internal/metrics/prometheus"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
	"github.com/slok/questline/internal/storage"
	storageio "github.com/slok/questline/internal/storage/io"
	"github.com/slok/questline/internal/storage/memory"
	"github.com/slok/questline/internal/storage/sqlite"
	"github.com/slok/questline/internal/validation"
)

// Services are the capability services the host provides. All are required.
type Services struct {
	Movement    Movement
	Combat      Combat
	Gathering   Gathering
	Interaction Interaction
	Journal     Journal
	Teleport    Teleport
	Environment Environment
}

// Config configures the SDK engine.
//
// Only Services are required. An empty Config with services loads the
// definitions from ~/.questline/definitions and journals runs in memory.
type Config struct {
	// Services are the host capability services.
	Services Services

	// DefinitionsDir is the directory the YAML definitions are loaded from.
	// Default: ~/.questline/definitions. Ignored when DefinitionsFS is set.
	DefinitionsDir string

	// DefinitionsFS is the filesystem the YAML definitions are loaded from.
	DefinitionsFS fs.FS

	// DBPath is the SQLite run journal path. When empty runs are journaled in memory.
	DBPath string

	// Messages are the environment error texts, by default the english ones.
	Messages Messages

	// ChainNextQuest starts the next quest declared by a completed quest.
	ChainNextQuest bool

	// MetricsRegisterer registers the engine Prometheus metrics. Optional.
	MetricsRegisterer prometheus.Registerer

	// Now is the clock used by timed tasks. Default: time.Now.
	Now func() time.Time

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DefinitionsFS == nil {
		if c.DefinitionsDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("could not get user home dir: %w", err)
			}
			c.DefinitionsDir = conventions.DefinitionsPath(home)
		}
		c.DefinitionsFS = os.DirFS(filepath.Clean(c.DefinitionsDir))
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Engine is the SDK entry point, the host drives it from its frame loop.
//
// Create an Engine with [New] and release its resources with [Engine.Close].
// An Engine is safe for concurrent use, calls are serialized.
type Engine struct {
	mu        sync.Mutex
	ctrl      *controller.Controller
	registry  *memory.DefinitionRegistry
	validator *validation.Worker
	history   *history.Service
	logger    log.Logger
	closeFn   func() error
}

// New creates a new engine and starts validating the definitions in the background.
//
// The caller must call [Engine.Close] when done:
//
//	engine, err := lib.New(ctx, lib.Config{Services: services})
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry, err := memory.NewDefinitionRegistry(memory.DefinitionRegistryConfig{
		Loader: storageio.NewDefinitionYAMLRepository(cfg.DefinitionsFS, storageio.DefaultPattern),
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create definition registry: %w", err)
	}

	var journal storage.JournalRepository
	closeFn := func() error { return nil }
	if cfg.DBPath != "" {
		j, err := sqlite.NewJournal(ctx, sqlite.JournalConfig{DBPath: cfg.DBPath, Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create journal: %w", err)
		}
		journal, closeFn = j, j.Close
	} else {
		j, err := memory.NewJournal(memory.JournalConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create journal: %w", err)
		}
		journal = j
	}

	var recorder metrics.Recorder = metrics.Noop
	if cfg.MetricsRegisterer != nil {
		recorder = metricsprometheus.NewRecorder(cfg.MetricsRegisterer)
	}

	svc := step.Services{
		Movement:    cfg.Services.Movement,
		Combat:      cfg.Services.Combat,
		Gathering:   cfg.Services.Gathering,
		Interaction: cfg.Services.Interaction,
		Journal:     cfg.Services.Journal,
		Teleport:    cfg.Services.Teleport,
		Environment: cfg.Services.Environment,
	}
	compiler, err := step.NewCompiler(step.CompilerConfig{
		Services: svc,
		Messages: cfg.Messages,
		Now:      cfg.Now,
		Logger:   cfg.Logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, mapError(fmt.Errorf("could not create compiler: %w: %w", model.ErrNotValid, err))
	}

	ctrl, err := controller.New(controller.Config{
		Definitions:    registry,
		Reloader:       registry,
		Compiler:       compiler,
		Movement:       cfg.Services.Movement,
		Combat:         cfg.Services.Combat,
		Environment:    cfg.Services.Environment,
		Journal:        journal,
		Metrics:        recorder,
		ChainNextQuest: cfg.ChainNextQuest,
		Now:            cfg.Now,
		Logger:         cfg.Logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create controller: %w", err)
	}

	validator, err := validation.NewWorker(validation.WorkerConfig{
		Definitions: registry,
		Logger:      cfg.Logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create validation worker: %w", err)
	}

	hist, err := history.NewService(history.ServiceConfig{Repository: journal, Logger: cfg.Logger})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create history service: %w", err)
	}

	validator.Start(context.WithoutCancel(ctx))

	return &Engine{
		ctrl:      ctrl,
		registry:  registry,
		validator: validator,
		history:   hist,
		logger:    cfg.Logger,
		closeFn:   closeFn,
	}, nil
}

// Close stops the running quest and releases the journal.
// After Close returns, the engine must not be used.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ctrl.Stop("closed")
	return e.closeFn()
}

// OnTick drives the running quest once, call it on every host frame.
//
// When the run faults the fault is returned (matching [ErrDataFault] or
// [ErrExecutionFault]) and the engine is left stopped. Ticks without a
// running quest do nothing.
func (e *Engine) OnTick() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return mapError(e.ctrl.Tick())
}

// StartRun starts running the quest from the start, or from the optional
// sequence and step.
//
// Returns [ErrNotFound] if the quest, sequence or step don't exist and
// [ErrNotValid] if a quest is already running. A fault compiling the first
// step stops the run and is returned.
func (e *Engine) StartRun(ctx context.Context, id QuestID, opts *StartRunOpts) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts == nil {
		opts = &StartRunOpts{}
	}
	return mapError(e.ctrl.StartRun(context.WithoutCancel(ctx), id, opts.Sequence, opts.Step))
}

// Stop stops the running quest, movement and combat are stopped too.
func (e *Engine) Stop(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ctrl.Stop(reason)
}

// Reset moves a stopped or completed engine back to idle.
// Returns [ErrNotValid] while running.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return mapError(e.ctrl.Reset())
}

// Reload stops the running quest, reloads the definitions and revalidates them
// in the background. On error the previous definitions are kept.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ctrl.Reload(ctx); err != nil {
		return mapError(err)
	}
	e.validator.Start(context.WithoutCancel(ctx))

	return nil
}

// State returns the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State(e.ctrl.State())
}

// CurrentProgress returns the position of the run, false when there is nothing to report.
func (e *Engine) CurrentProgress() (Progress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.ctrl.CurrentProgress()
	if !ok {
		return Progress{}, false
	}
	return fromInternalProgress(p), true
}

// LastFault returns the fault that stopped the last run, nil if it didn't fault.
func (e *Engine) LastFault() *Fault {
	e.mu.Lock()
	defer e.mu.Unlock()

	return fromInternalFault(e.ctrl.LastFault())
}

// NotifyPrompt offers a prompt raised by the environment. It returns the
// answer index to select and true when the running step expects the prompt.
// Unexpected prompts return false and must be left to the user.
func (e *Engine) NotifyPrompt(kind PromptKind, prompt string, answers []string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ctrl.NotifyPrompt(model.DialogueChoiceType(kind), prompt, answers)
}

// NotifyEnvironmentError offers an error message raised by the environment to
// the running task. It returns true when the task handled it. If the task
// treats it as fatal the fault is returned and the engine is left stopped.
func (e *Engine) NotifyEnvironmentError(message string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handled, err := e.ctrl.NotifyEnvironmentError(message)
	return handled, mapError(err)
}

// IncreaseStepCount moves the running quest to its next step. The key
// identifies the notification, repeated keys without cursor movement in between
// are ignored.
func (e *Engine) IncreaseStepCount(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ctrl.IncreaseStepCount(key)
}

// ValidationIssues returns the issues found by the last validation, it can
// still be running. Issues are sorted by quest, sequence, step and description.
func (e *Engine) ValidationIssues() []ValidationIssue {
	return fromInternalIssues(e.validator.Issues())
}

// WaitValidation blocks until the running validation finishes.
func (e *Engine) WaitValidation(ctx context.Context) error {
	return mapError(e.validator.Wait(ctx))
}

// ListDefinitions returns the loaded definitions sorted by ID.
func (e *Engine) ListDefinitions(ctx context.Context) ([]Definition, error) {
	defs, err := e.registry.ListDefinitions(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return fromInternalDefinitions(defs), nil
}

// ListRuns returns the journaled runs, newest first.
func (e *Engine) ListRuns(ctx context.Context, opts *ListRunsOpts) ([]Run, error) {
	req := history.ListRequest{}
	if opts != nil {
		req.QuestID, req.Limit = opts.QuestID, opts.Limit
	}

	runs, err := e.history.ListRuns(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	res := make([]Run, 0, len(runs))
	for _, r := range runs {
		res = append(res, fromInternalRun(r))
	}
	return res, nil
}

// GetRun returns a journaled run with its finished tasks.
// Returns [ErrNotFound] if the run doesn't exist.
func (e *Engine) GetRun(ctx context.Context, id string) (*Run, error) {
	detail, err := e.history.GetRun(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	run := fromInternalRunDetail(detail)
	return &run, nil
}
