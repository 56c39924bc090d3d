// Package step compiles declarative steps into ordered task queues.
package step

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

// Services are the capability handles tasks are built with.
type Services struct {
	Movement    capability.Movement
	Combat      capability.Combat
	Gathering   capability.Gathering
	Interaction capability.Interaction
	Journal     capability.Journal
	Teleport    capability.Teleport
	Environment capability.Environment
}

func (s Services) validate() error {
	switch {
	case s.Movement == nil:
		return fmt.Errorf("movement service is required")
	case s.Combat == nil:
		return fmt.Errorf("combat service is required")
	case s.Gathering == nil:
		return fmt.Errorf("gathering service is required")
	case s.Interaction == nil:
		return fmt.Errorf("interaction service is required")
	case s.Journal == nil:
		return fmt.Errorf("journal service is required")
	case s.Teleport == nil:
		return fmt.Errorf("teleport service is required")
	case s.Environment == nil:
		return fmt.Errorf("environment service is required")
	}
	return nil
}

// CompilerConfig is the configuration of the step compiler.
type CompilerConfig struct {
	Services Services
	Messages capability.Messages
	// SettleDelay is waited after single shot actions and between post step waits.
	SettleDelay time.Duration
	// RetryInterval is the time between attempts of retried actions.
	RetryInterval time.Duration
	// MaxAttempts is the number of attempts before a retried action faults.
	MaxAttempts int
	// MountDistance is the distance above which the character mounts before moving.
	MountDistance float64
	// StopDistance is used when a step doesn't declare one.
	StopDistance float64
	// TeleportDelay is the time given to a teleport to finish.
	TeleportDelay time.Duration
	// LandRetry is the time between landing requests.
	LandRetry time.Duration
	// MovementGrace is the time movement is trusted after being requested.
	MovementGrace time.Duration
	Now           func() time.Time
	Logger        log.Logger
}

func (c *CompilerConfig) defaults() error {
	if err := c.Services.validate(); err != nil {
		return err
	}
	if c.Messages.CannotExecuteAtThisTime == "" {
		c.Messages.CannotExecuteAtThisTime = capability.DefaultMessages.CannotExecuteAtThisTime
	}
	if c.Messages.InsufficientArmorySpace == "" {
		c.Messages.InsufficientArmorySpace = capability.DefaultMessages.InsufficientArmorySpace
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = time.Second
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.MountDistance == 0 {
		c.MountDistance = 30
	}
	if c.StopDistance == 0 {
		c.StopDistance = 3
	}
	if c.TeleportDelay == 0 {
		c.TeleportDelay = 8 * time.Second
	}
	if c.LandRetry == 0 {
		c.LandRetry = 250 * time.Millisecond
	}
	if c.MovementGrace == 0 {
		c.MovementGrace = 2 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "step.Compiler"})
	return nil
}

// NextQuestRecorder receives the follow up quest declared by a step.
type NextQuestRecorder interface {
	SetNextQuest(id model.QuestID)
}

// Request addresses the step to compile.
type Request struct {
	Definition *model.Definition
	SequenceID uint8
	StepIndex  int
	// NextQuest is optional.
	NextQuest NextQuestRecorder
}

type coreFactory func(c *Compiler, sc *stepContext) ([]task.Task, error)

// Compiler maps declarative steps to ordered task lists.
type Compiler struct {
	svc    Services
	cfg    CompilerConfig
	core   map[model.InteractionType]coreFactory
	logger log.Logger
}

// NewCompiler returns a new step compiler.
func NewCompiler(cfg CompilerConfig) (*Compiler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Compiler{
		svc:    cfg.Services,
		cfg:    cfg,
		core:   coreFactories(),
		logger: cfg.Logger,
	}, nil
}

// stepContext is the per compilation state shared by the pipeline stages.
type stepContext struct {
	def       *model.Definition
	seq       *model.Sequence
	index     int
	step      *model.Step
	nextQuest NextQuestRecorder

	// teleporting is set when a teleport shortcut to another territory was emitted.
	teleporting bool
}

func (sc *stepContext) isLastStep() bool { return sc.index == len(sc.seq.Steps)-1 }

// CompileStep compiles the addressed step into the tasks that execute it, in order.
// Missing required step fields return an error wrapping model.ErrDataFault.
func (c *Compiler) CompileStep(req Request) ([]task.Task, error) {
	if req.Definition == nil {
		return nil, fmt.Errorf("definition is required: %w", model.ErrNotValid)
	}
	seq, ok := req.Definition.FindSequence(req.SequenceID)
	if !ok {
		return nil, fmt.Errorf("quest %s sequence %d: %w", req.Definition, req.SequenceID, model.ErrNotFound)
	}
	st, ok := seq.FindStep(req.StepIndex)
	if !ok {
		return nil, fmt.Errorf("quest %s sequence %d step %d: %w", req.Definition, req.SequenceID, req.StepIndex, model.ErrNotFound)
	}

	if err := ValidateStep(*st); err != nil {
		return nil, fmt.Errorf("quest %s sequence %d step %d: %w", req.Definition, req.SequenceID, req.StepIndex, err)
	}

	sc := &stepContext{
		def:       req.Definition,
		seq:       seq,
		index:     req.StepIndex,
		step:      st,
		nextQuest: req.NextQuest,
	}

	if st.Disabled {
		c.logger.Debugf("Step %d/%d of quest %s is disabled", seq.ID, req.StepIndex, req.Definition)
		return []task.Task{task.NewSkipStep()}, nil
	}

	stages := []func(sc *stepContext) ([]task.Task, error){
		c.skipTasks,
		c.gatheringTasks,
		c.teleportTasks,
		c.waitAtStartTasks,
		c.movementTasks,
		c.nextQuestTasks,
		c.coreTasks,
		c.postTasks,
	}

	var tasks []task.Task
	for _, stage := range stages {
		ts, err := stage(sc)
		if err != nil {
			return nil, fmt.Errorf("quest %s sequence %d step %d: %w", req.Definition, req.SequenceID, req.StepIndex, err)
		}
		tasks = append(tasks, ts...)
	}

	c.logger.Debugf("Compiled step %d/%d of quest %s: [%s]", seq.ID, req.StepIndex, req.Definition, strings.Join(task.Names(tasks), ", "))

	return tasks, nil
}

func (c *Compiler) waitAtStartTasks(sc *stepContext) ([]task.Task, error) {
	if sc.step.DelaySecondsAtStart == nil || *sc.step.DelaySecondsAtStart <= 0 {
		return nil, nil
	}
	return []task.Task{task.NewDelay(seconds(*sc.step.DelaySecondsAtStart), c.cfg.Now)}, nil
}

func (c *Compiler) nextQuestTasks(sc *stepContext) ([]task.Task, error) {
	if sc.step.NextQuestID == nil || sc.nextQuest == nil {
		return nil, nil
	}
	id := *sc.step.NextQuestID
	return []task.Task{task.Func{
		Name: fmt.Sprintf("SetNextQuest(%d)", id),
		Fn: func() error {
			sc.nextQuest.SetNextQuest(id)
			return nil
		},
	}}, nil
}

func (c *Compiler) coreTasks(sc *stepContext) ([]task.Task, error) {
	f, ok := c.core[sc.step.Interaction]
	if !ok {
		return nil, fmt.Errorf("%w: no factory for interaction %q", model.ErrDataFault, sc.step.Interaction)
	}
	return f(c, sc)
}

func (c *Compiler) timing() timing {
	return timing{
		now:         c.cfg.Now,
		settle:      c.cfg.SettleDelay,
		retry:       c.cfg.RetryInterval,
		maxAttempts: c.cfg.MaxAttempts,
	}
}

// distanceTo returns the compile time distance to the position, infinite when it
// can't be known yet.
func (c *Compiler) distanceTo(sc *stepContext, target model.Vec3) float64 {
	if sc.teleporting {
		return inf
	}
	if sc.step.TerritoryID != 0 && c.svc.Environment.TerritoryID() != sc.step.TerritoryID {
		return inf
	}
	pos, ok := c.svc.Environment.Position()
	if !ok {
		return inf
	}
	return pos.Distance(target)
}

var inf = math.Inf(1)

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
