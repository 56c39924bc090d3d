// Package controller drives a quest run: it owns the progress cursor and the task
// queue of the current step and walks the sequence/step hierarchy tick by tick.
package controller

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/metrics"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
	"github.com/slok/questline/internal/storage"
	"github.com/slok/questline/internal/task"
)

// State is the state of the controller.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
)

// Cursor is the position of the controller inside a definition.
type Cursor struct {
	QuestID  model.QuestID
	Sequence uint8
	Step     int
	Task     int
}

func (c Cursor) String() string {
	return fmt.Sprintf("quest %d sequence %d step %d task %d", c.QuestID, c.Sequence, c.Step, c.Task)
}

// Progress is the public view of the cursor.
type Progress struct {
	QuestID                 model.QuestID
	Sequence                uint8
	Step                    int
	DialogueChoicesSelected int
}

// Fault is an unrecoverable error that aborted a run.
type Fault struct {
	Cursor Cursor
	Task   string
	Err    error
}

func (f *Fault) Error() string {
	if f.Task == "" {
		return fmt.Sprintf("%s: %s", f.Cursor, f.Err)
	}
	return fmt.Sprintf("%s (%s): %s", f.Cursor, f.Task, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// StepCompiler compiles steps into task lists.
type StepCompiler interface {
	CompileStep(req step.Request) ([]task.Task, error)
}

// Config is the configuration of the controller.
type Config struct {
	Definitions storage.DefinitionRepository
	// Reloader is optional, used by Reload to drop cached definitions.
	Reloader    storage.DefinitionReloader
	Compiler    StepCompiler
	Movement    capability.Movement
	Combat      capability.Combat
	Environment capability.Environment
	// Journal is optional, runs and finished tasks are recorded on it.
	Journal storage.JournalRepository
	Metrics metrics.Recorder
	// ChainNextQuest starts the next quest declared by a completed run.
	ChainNextQuest bool
	Now            func() time.Time
	Logger         log.Logger
}

func (c *Config) defaults() error {
	if c.Definitions == nil {
		return fmt.Errorf("definitions repository is required")
	}
	if c.Compiler == nil {
		return fmt.Errorf("compiler is required")
	}
	if c.Movement == nil {
		return fmt.Errorf("movement service is required")
	}
	if c.Combat == nil {
		return fmt.Errorf("combat service is required")
	}
	if c.Environment == nil {
		return fmt.Errorf("environment service is required")
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "controller.Controller"})
	return nil
}

// Controller is the quest state machine. It is not safe for concurrent use,
// every call is expected from the host tick loop.
type Controller struct {
	cfg    Config
	logger log.Logger

	state      State
	definition *model.Definition
	cursor     Cursor
	queue      *task.Queue
	run        *model.Run
	lastFault  *Fault
	nudges     map[string]bool
	nextQuest  *model.QuestID
	dialogues  int
	ctx        context.Context
	stopReason string

	// Environment errors pushed by an ErrorNotifier, handed to the next tick.
	errSub    capability.Subscription
	pendingMu sync.Mutex
	pending   []string
}

// New returns a new controller in the idle state.
func New(cfg Config) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Controller{
		cfg:    cfg,
		logger: cfg.Logger,
		state:  StateIdle,
		ctx:    context.Background(),
	}, nil
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// LastFault returns the fault that stopped the last run, if any.
func (c *Controller) LastFault() *Fault { return c.lastFault }

// StopReason returns the reason of the last stop.
func (c *Controller) StopReason() string { return c.stopReason }

// NextQuest returns the follow up quest declared by the current or last run.
func (c *Controller) NextQuest() (model.QuestID, bool) {
	if c.nextQuest == nil {
		return 0, false
	}
	return *c.nextQuest, true
}

// SetNextQuest records the follow up quest, steps declare it while they run.
func (c *Controller) SetNextQuest(id model.QuestID) {
	c.nextQuest = &id
	c.logger.Infof("Next quest set to %d", id)
}

// CurrentProgress returns the cursor, false when there is no run to report.
func (c *Controller) CurrentProgress() (Progress, bool) {
	if c.definition == nil {
		return Progress{}, false
	}
	return Progress{
		QuestID:                 c.cursor.QuestID,
		Sequence:                c.cursor.Sequence,
		Step:                    c.cursor.Step,
		DialogueChoicesSelected: c.dialogues,
	}, true
}

// Cursor returns the full cursor including the task index.
func (c *Controller) Cursor() Cursor { return c.cursor }

// StartRun starts a run of the definition. Sequence and step are optional, by
// default the run starts at the first step of the first declared sequence. A
// compile fault of the first step stops the run right away and is returned.
func (c *Controller) StartRun(ctx context.Context, id model.QuestID, sequence *uint8, stepIndex *int) error {
	if c.state == StateRunning {
		return fmt.Errorf("a run of quest %d is in progress: %w", c.cursor.QuestID, model.ErrNotValid)
	}

	def, err := c.cfg.Definitions.GetDefinition(ctx, id)
	if err != nil {
		return fmt.Errorf("could not get definition: %w", err)
	}
	if len(def.Sequences) == 0 {
		return fmt.Errorf("quest %s has no sequences: %w", def, model.ErrNotValid)
	}

	cursor := Cursor{QuestID: def.ID, Sequence: def.Sequences[0].ID}
	if sequence != nil {
		if _, ok := def.FindSequence(*sequence); !ok {
			return fmt.Errorf("quest %s sequence %d: %w", def, *sequence, model.ErrNotFound)
		}
		cursor.Sequence = *sequence
	}
	if stepIndex != nil {
		seq, _ := def.FindSequence(cursor.Sequence)
		if *stepIndex < 0 || *stepIndex >= len(seq.Steps) {
			return fmt.Errorf("quest %s sequence %d step %d: %w", def, cursor.Sequence, *stepIndex, model.ErrNotFound)
		}
		cursor.Step = *stepIndex
	}

	c.ctx = ctx
	c.definition = def
	c.cursor = cursor
	c.queue = nil
	c.lastFault = nil
	c.nudges = nil
	c.nextQuest = nil
	c.dialogues = 0
	c.stopReason = ""
	c.state = StateRunning
	c.subscribeErrors()
	c.startJournal()
	c.cfg.Metrics.RunStarted(def.ID)
	c.logger.Infof("Started quest %s at %s", def, c.cursor)

	ok, err := c.skipEmptySequences()
	if err != nil || !ok {
		return err
	}
	if err := c.compile(); err != nil {
		return c.fail(err)
	}
	if _, err := c.queue.Start(); err != nil {
		return c.fail(err)
	}

	return nil
}

// Tick drives the run once. Consecutive steps that complete without needing
// further ticks are chained within the same tick, bounded by the number of steps.
// A returned error is always a *Fault, the run is stopped when returned.
func (c *Controller) Tick() error {
	if c.state != StateRunning {
		return nil
	}

	start := c.cfg.Now()
	defer func() { c.cfg.Metrics.TickDuration(c.cfg.Now().Sub(start)) }()

	for _, msg := range c.drainPending() {
		if _, err := c.NotifyEnvironmentError(msg); err != nil {
			return err
		}
	}

	run := c.run
	budget := c.definition.StepCount() + 1
	for i := 0; i < budget && c.state == StateRunning; i++ {
		if c.queue == nil {
			if err := c.compile(); err != nil {
				return c.fail(err)
			}
		}

		outcome, err := c.queue.Tick()
		c.cursor.Task = c.queue.Index()
		if err != nil {
			return c.fail(err)
		}

		switch outcome {
		case task.OutcomeRunning:
			return nil
		case task.OutcomeStepComplete, task.OutcomeNextStep, task.OutcomeSkipStep:
			c.logger.Debugf("Step finished with %s at %s", outcome, c.cursor)
			if _, err := c.advance(); err != nil {
				return err
			}
			// A chained quest has already started its first task, it is
			// polled on the next tick.
			if c.run != run {
				return nil
			}
		case task.OutcomeEnd:
			c.finish(StateStopped, model.RunStatusStopped, "control handed off to an external system", nil)
			return nil
		}
	}

	return nil
}

// Stop stops the running run. The cursor is kept for inspection.
func (c *Controller) Stop(reason string) {
	if c.state != StateRunning {
		return
	}
	c.finish(StateStopped, model.RunStatusStopped, reason, nil)
}

// Reset moves a stopped or completed controller back to idle.
func (c *Controller) Reset() error {
	if c.state == StateRunning {
		return fmt.Errorf("can't reset a running controller: %w", model.ErrNotValid)
	}
	c.state = StateIdle
	c.definition = nil
	c.cursor = Cursor{}
	c.queue = nil
	c.lastFault = nil
	c.nudges = nil
	c.dialogues = 0
	c.run = nil
	return nil
}

// Reload drops the cached definitions. A running run is stopped because its
// compiled state may refer to stale data, other states are untouched.
func (c *Controller) Reload(ctx context.Context) error {
	c.Stop("reload")
	if c.cfg.Reloader == nil {
		return nil
	}
	if err := c.cfg.Reloader.Reload(ctx); err != nil {
		return fmt.Errorf("could not reload definitions: %w", err)
	}
	return nil
}

// IncreaseStepCount advances the cursor to the next step, dropping the current
// queue. Repeated calls with the same key and no cursor movement in between are
// ignored. Returns true if the cursor was advanced.
func (c *Controller) IncreaseStepCount(key string) bool {
	if c.state != StateRunning {
		return false
	}
	if c.isRepeatedNudge("step:" + key) {
		c.logger.Debugf("Ignoring repeated step nudge %q at %s", key, c.cursor)
		return false
	}

	c.logger.Infof("Step nudged by %q at %s", key, c.cursor)
	if _, err := c.advance(); err != nil {
		// The fault of a chained quest stays inspectable with LastFault.
		return true
	}
	c.rememberNudge("step:" + key)
	return true
}

// IncreaseDialogueChoicesSelected counts an answered dialogue choice on the current
// step. Repeated calls with the same key on the same cursor are ignored.
func (c *Controller) IncreaseDialogueChoicesSelected(key string) bool {
	if c.state != StateRunning {
		return false
	}
	if c.isRepeatedNudge("dialogue:" + key) {
		return false
	}
	c.dialogues++
	c.rememberNudge("dialogue:" + key)
	return true
}

// isRepeatedNudge reports if the key was already applied on the current step,
// the keys are forgotten every time the cursor moves to another step.
func (c *Controller) isRepeatedNudge(key string) bool {
	return c.nudges[key]
}

func (c *Controller) rememberNudge(key string) {
	if c.nudges == nil {
		c.nudges = map[string]bool{}
	}
	c.nudges[key] = true
}

// NotifyEnvironmentError offers an environment error to the active task. A
// fault raised by the task stops the run.
func (c *Controller) NotifyEnvironmentError(message string) (bool, error) {
	if c.state != StateRunning || c.queue == nil {
		return false, nil
	}

	handled, err := c.queue.OnEnvironmentError(message)
	if err != nil {
		return false, c.fail(err)
	}
	if !handled {
		c.logger.Infof("Unhandled environment error at %s: %s", c.cursor, message)
	}
	return handled, nil
}

// compile compiles the step under the cursor into a new queue.
func (c *Controller) compile() error {
	tasks, err := c.cfg.Compiler.CompileStep(step.Request{
		Definition: c.definition,
		SequenceID: c.cursor.Sequence,
		StepIndex:  c.cursor.Step,
		NextQuest:  c,
	})
	if err != nil {
		return err
	}

	if st, ok := c.currentStep(); ok {
		c.cfg.Metrics.StepCompiled(st.Interaction, len(tasks))
	}
	c.cursor.Task = 0
	cursor := c.cursor
	c.queue = task.NewQueue(tasks, func(i int, t task.Task, res task.Result, err error) {
		c.recordTask(cursor, i, t, res, err)
	})
	return nil
}

func (c *Controller) currentStep() (*model.Step, bool) {
	if c.definition == nil {
		return nil, false
	}
	seq, ok := c.definition.FindSequence(c.cursor.Sequence)
	if !ok {
		return nil, false
	}
	return seq.FindStep(c.cursor.Step)
}

// advance moves the cursor to the next step, wrapping to the first step of the
// next declared sequence. Exhausting the terminal or the last sequence completes
// the run. Returns false when the run is over, the error is the fault of a
// chained quest that could not start.
func (c *Controller) advance() (bool, error) {
	c.queue = nil
	c.cursor.Task = 0
	c.dialogues = 0
	c.nudges = nil

	seq, _ := c.definition.FindSequence(c.cursor.Sequence)
	if c.cursor.Step+1 < len(seq.Steps) {
		c.cursor.Step++
		return true, nil
	}

	return c.nextSequence()
}

func (c *Controller) nextSequence() (bool, error) {
	idx := c.definition.SequenceIndex(c.cursor.Sequence)
	seq := c.definition.Sequences[idx]
	if seq.IsTerminal() {
		return false, c.complete()
	}
	if idx+1 >= len(c.definition.Sequences) {
		c.logger.Warningf("Quest %s has no terminal sequence, completing after sequence %d", c.definition, seq.ID)
		return false, c.complete()
	}

	c.cursor.Sequence = c.definition.Sequences[idx+1].ID
	c.cursor.Step = 0
	return c.skipEmptySequences()
}

// skipEmptySequences moves the cursor past sequences without steps.
func (c *Controller) skipEmptySequences() (bool, error) {
	seq, _ := c.definition.FindSequence(c.cursor.Sequence)
	if len(seq.Steps) > 0 {
		return true, nil
	}
	return c.nextSequence()
}

// complete ends the run and starts the next quest when chaining is enabled. Only
// a fault of the chained quest is returned, a quest that can't be started leaves
// the controller completed.
func (c *Controller) complete() error {
	c.finish(StateCompleted, model.RunStatusCompleted, "", nil)
	c.definition = nil
	c.cursor = Cursor{}

	if !c.cfg.ChainNextQuest || c.nextQuest == nil {
		return nil
	}
	next := *c.nextQuest
	c.logger.Infof("Chaining next quest %d", next)
	err := c.StartRun(c.ctx, next, nil, nil)
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}
	if err != nil {
		c.logger.Errorf("Could not start next quest %d: %s", next, err)
	}
	return nil
}

// fail stops the run with a fault.
func (c *Controller) fail(err error) error {
	f := &Fault{Cursor: c.cursor, Err: err}
	if c.queue != nil {
		if t := c.queue.Current(); t != nil {
			f.Task = t.String()
		}
	}
	if !errors.Is(err, model.ErrDataFault) && !errors.Is(err, model.ErrExecutionFault) {
		f.Err = fmt.Errorf("%w: %w", model.ErrExecutionFault, err)
	}

	c.logger.Errorf("Run faulted: %s", f)
	c.lastFault = f
	c.finish(StateStopped, model.RunStatusFailed, "fault", f)
	return f
}

// finish ends the run, discarding the queue and stopping the services holding
// multi tick operations.
func (c *Controller) finish(state State, status model.RunStatus, reason string, fault *Fault) {
	c.releaseErrors()
	c.state = state
	c.queue = nil
	c.stopReason = reason

	if state == StateStopped {
		c.cfg.Movement.Stop()
		c.cfg.Combat.Stop(reason)
		c.logger.Infof("Run stopped at %s: %s", c.cursor, reason)
	} else {
		c.logger.Infof("Quest %s completed", c.definition)
	}

	if c.definition != nil {
		c.cfg.Metrics.RunFinished(c.definition.ID, status)
	}
	c.finishJournal(status, reason, fault)
}

// subscribeErrors registers on the environment errors for the run lifetime,
// finish releases it.
func (c *Controller) subscribeErrors() {
	n, ok := c.cfg.Environment.(capability.ErrorNotifier)
	if !ok {
		return
	}
	c.releaseErrors()
	c.errSub = n.SubscribeErrors(func(message string) {
		c.pendingMu.Lock()
		defer c.pendingMu.Unlock()
		c.pending = append(c.pending, message)
	})
}

func (c *Controller) releaseErrors() {
	if c.errSub != nil {
		c.errSub.Release()
		c.errSub = nil
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.pending = nil
}

func (c *Controller) drainPending() []string {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs
}

func (c *Controller) startJournal() {
	now := c.cfg.Now().UTC()
	c.run = &model.Run{
		ID:        c.newID(),
		QuestID:   c.cursor.QuestID,
		Status:    model.RunStatusRunning,
		Sequence:  c.cursor.Sequence,
		Step:      c.cursor.Step,
		StartedAt: now,
	}
	if c.cfg.Journal == nil {
		return
	}
	if err := c.cfg.Journal.CreateRun(c.ctx, *c.run); err != nil {
		c.logger.Warningf("Could not journal run: %s", err)
	}
}

func (c *Controller) finishJournal(status model.RunStatus, reason string, fault *Fault) {
	if c.run == nil {
		return
	}
	now := c.cfg.Now().UTC()
	c.run.Status = status
	c.run.Sequence = c.cursor.Sequence
	c.run.Step = c.cursor.Step
	c.run.Reason = reason
	c.run.FinishedAt = &now
	if fault != nil {
		c.run.Error = fault.Error()
	}
	if c.cfg.Journal == nil {
		return
	}
	if err := c.cfg.Journal.UpdateRun(c.ctx, *c.run); err != nil {
		c.logger.Warningf("Could not journal run: %s", err)
	}
}

// RunID returns the ID of the current or last run.
func (c *Controller) RunID() string {
	if c.run == nil {
		return ""
	}
	return c.run.ID
}

func (c *Controller) recordTask(cursor Cursor, index int, t task.Task, res task.Result, err error) {
	result := res.String()
	if err != nil {
		result = "fault"
	}
	c.cfg.Metrics.TaskFinished(taskKind(t), result)

	if c.cfg.Journal == nil || c.run == nil {
		return
	}
	rec := model.TaskRecord{
		ID:        c.newID(),
		RunID:     c.run.ID,
		Sequence:  cursor.Sequence,
		Step:      cursor.Step,
		Index:     index,
		Name:      t.String(),
		Result:    result,
		CreatedAt: c.cfg.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if err := c.cfg.Journal.AddTaskRecord(c.ctx, rec); err != nil {
		c.logger.Warningf("Could not journal task: %s", err)
	}
}

// newID returns a journal ID timestamped with the controller clock.
func (c *Controller) newID() string {
	return ulid.MustNew(ulid.Timestamp(c.cfg.Now()), rand.Reader).String()
}

// taskKind returns the task name without its arguments.
func taskKind(t task.Task) string {
	name := t.String()
	if i := strings.Index(name, "("); i > 0 {
		return name[:i]
	}
	return name
}
