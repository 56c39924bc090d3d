package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/questline/internal/controller"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
)

// Controller is the quest controller driven by the service.
type Controller interface {
	StartRun(ctx context.Context, id model.QuestID, sequence *uint8, step *int) error
	Tick() error
	Stop(reason string)
	State() controller.State
	CurrentProgress() (controller.Progress, bool)
	Cursor() controller.Cursor
	LastFault() *controller.Fault
	StopReason() string
	RunID() string
	NotifyEnvironmentError(message string) (bool, error)
}

// World is the environment the controller acts on. It is advanced before every
// controller tick, and the errors it raised are offered to the controller.
type World interface {
	Advance()
	DrainErrors() []string
}

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Controller Controller
	// World is optional, a real host advances itself.
	World        World
	TickInterval time.Duration
	// MaxTicks stops the run after this many ticks. 0 means no limit.
	MaxTicks int
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Controller == nil {
		return fmt.Errorf("controller is required")
	}

	if c.TickInterval <= 0 {
		c.TickInterval = 100 * time.Millisecond
	}

	if c.MaxTicks < 0 {
		return fmt.Errorf("max ticks can't be negative")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service runs a quest until it completes, stops or the context is cancelled.
type Service struct {
	ctrl         Controller
	world        World
	tickInterval time.Duration
	maxTicks     int
	logger       log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		ctrl:         cfg.Controller,
		world:        cfg.World,
		tickInterval: cfg.TickInterval,
		maxTicks:     cfg.MaxTicks,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the run request parameters.
type Request struct {
	QuestID model.QuestID
	// Sequence and Step are optional start positions.
	Sequence *uint8
	Step     *int
}

// Result is the outcome of a run.
type Result struct {
	RunID      string
	State      controller.State
	Cursor     controller.Cursor
	StopReason string
	Fault      *controller.Fault
	Ticks      int
}

const (
	reasonInterrupted = "interrupted"
	reasonMaxTicks    = "max ticks reached"
)

// Run starts the quest and ticks the controller until the run leaves the running
// state. Chained quests keep the run going. Faults are reported in the result,
// only start errors that are not faults are returned.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	// The journal must be able to record the stop after the context is cancelled.
	runCtx := context.WithoutCancel(ctx)

	err := s.ctrl.StartRun(runCtx, req.QuestID, req.Sequence, req.Step)
	if err != nil {
		var fault *controller.Fault
		if !errors.As(err, &fault) {
			return nil, fmt.Errorf("could not start run: %w", err)
		}
		s.logger.Errorf("Run faulted on start: %s", fault)
	}

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	ticks := 0
	for s.ctrl.State() == controller.StateRunning {
		if s.maxTicks > 0 && ticks >= s.maxTicks {
			s.logger.Warningf("Stopping run after %d ticks", ticks)
			s.ctrl.Stop(reasonMaxTicks)
			break
		}

		select {
		case <-ctx.Done():
			s.logger.Infof("Run interrupted")
			s.ctrl.Stop(reasonInterrupted)
			return s.result(ticks), nil
		case <-ticker.C:
		}

		s.advanceWorld()
		if s.ctrl.State() != controller.StateRunning {
			break
		}

		ticks++
		if err := s.ctrl.Tick(); err != nil {
			s.logger.Errorf("Run faulted: %s", err)
		}
	}

	return s.result(ticks), nil
}

func (s *Service) advanceWorld() {
	if s.world == nil {
		return
	}

	s.world.Advance()
	for _, msg := range s.world.DrainErrors() {
		handled, err := s.ctrl.NotifyEnvironmentError(msg)
		if err != nil {
			s.logger.Errorf("Run faulted on environment error: %s", err)
			return
		}
		if handled {
			s.logger.Debugf("Environment error handled: %s", msg)
		}
	}
}

func (s *Service) result(ticks int) *Result {
	return &Result{
		RunID:      s.ctrl.RunID(),
		State:      s.ctrl.State(),
		Cursor:     s.ctrl.Cursor(),
		StopReason: s.ctrl.StopReason(),
		Fault:      s.ctrl.LastFault(),
		Ticks:      ticks,
	}
}
