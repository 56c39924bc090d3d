package validation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
)

// WorkerConfig is the configuration of the validation worker.
type WorkerConfig struct {
	Definitions storage.DefinitionRepository
	Validators  []Validator
	// Concurrency is the max number of definitions validated at the same time.
	Concurrency int
	Logger      log.Logger
}

func (c *WorkerConfig) defaults() error {
	if c.Definitions == nil {
		return fmt.Errorf("definitions repository is required")
	}
	if len(c.Validators) == 0 {
		c.Validators = DefaultValidators
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "validation.Worker"})
	return nil
}

// Worker validates every definition in the background. Results are only appended
// to its own issue list, readers get sorted snapshots.
type Worker struct {
	cfg    WorkerConfig
	logger log.Logger

	mu      sync.Mutex
	issues  []model.ValidationIssue
	running bool
	done    chan struct{}
	err     error
}

// NewWorker returns a new validation worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	done := make(chan struct{})
	close(done)
	return &Worker{
		cfg:    cfg,
		logger: cfg.Logger,
		done:   done,
	}, nil
}

// Start resets the issues and validates all the definitions in the background.
// Starting while a validation is running is ignored.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Debugf("Validation already running")
		return
	}
	w.running = true
	w.issues = nil
	w.err = nil
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go func() {
		err := w.run(ctx)

		w.mu.Lock()
		w.running = false
		w.err = err
		w.mu.Unlock()
		close(done)
	}()
}

// Run resets the issues and validates all the definitions, blocking until done.
func (w *Worker) Run(ctx context.Context) ([]model.ValidationIssue, error) {
	w.Start(ctx)
	if err := w.Wait(ctx); err != nil {
		return nil, err
	}
	return w.Issues(), nil
}

// Wait blocks until the running validation finishes and returns its error.
func (w *Worker) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Running returns true while a validation is in progress.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Issues returns the issues found so far, sorted by definition, sequence, step and description.
func (w *Worker) Issues() []model.ValidationIssue {
	w.mu.Lock()
	issues := append([]model.ValidationIssue{}, w.issues...)
	w.mu.Unlock()

	sortIssues(issues)
	return issues
}

func (w *Worker) run(ctx context.Context) error {
	defs, err := w.cfg.Definitions.ListDefinitions(ctx)
	if err != nil {
		w.logger.Errorf("Could not list definitions to validate: %s", err)
		return fmt.Errorf("could not list definitions: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	for _, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, v := range w.cfg.Validators {
				w.append(def, v.Validate(def))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	infos, errs := model.CountBySeverity(w.Issues())
	w.logger.Infof("Validated %d definitions: %d errors, %d infos", len(defs), errs, infos)
	return nil
}

func (w *Worker) append(def model.Definition, issues []model.ValidationIssue) {
	if len(issues) == 0 {
		return
	}

	for _, i := range issues {
		msg := "Validation failed: %s / %s / %s - %s"
		if i.Severity == model.IssueSeverityError {
			w.logger.Warningf(msg, def, fmtPtr(i.Sequence), fmtPtr(i.Step), i.Description)
		} else {
			w.logger.Infof(msg, def, fmtPtr(i.Sequence), fmtPtr(i.Step), i.Description)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.issues = append(w.issues, issues...)
}

func fmtPtr[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func sortIssues(issues []model.ValidationIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.QuestID != b.QuestID {
			return a.QuestID < b.QuestID
		}
		if c := comparePtr(a.Sequence, b.Sequence); c != 0 {
			return c < 0
		}
		if c := comparePtr(a.Step, b.Step); c != 0 {
			return c < 0
		}
		return a.Description < b.Description
	})
}

// comparePtr orders nil before any value.
func comparePtr[T uint8 | int](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
