package step

import (
	"fmt"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

// arrivalTolerance is added to stop distances when checking arrival.
const arrivalTolerance = 0.5

// movementTasks returns the preconditions bringing the character into range of the
// step. Every decision uses the state at compile time, satisfied preconditions
// are omitted.
func (c *Compiler) movementTasks(sc *stepContext) ([]task.Task, error) {
	s := sc.step
	env := c.svc.Environment
	var tasks []task.Task

	if s.TerritoryID != 0 && env.TerritoryID() != s.TerritoryID {
		tasks = append(tasks, c.waitTerritoryTask(s.TerritoryID))
	}

	if s.Position == nil {
		if s.Mount != nil && !*s.Mount && env.HasCondition(capability.ConditionMounted) {
			tasks = append(tasks, c.unmountTask())
		}
		if s.DataID != nil && s.StopDistance != nil {
			tasks = append(tasks, c.approachObjectTasks(sc, *s.DataID, *s.StopDistance)...)
		}
		return tasks, nil
	}

	if !s.DisableNavmesh && !c.svc.Movement.IsNavmeshReady() {
		tasks = append(tasks, task.NewWaitCondition("WaitNavmeshReady", c.svc.Movement.IsNavmeshReady))
	}

	stopDistance := s.StopDistanceOr(c.cfg.StopDistance)
	distance := c.distanceTo(sc, *s.Position)
	needsMove := distance > stopDistance
	mounted := env.HasCondition(capability.ConditionMounted)
	fly := s.Fly && env.IsFlyingUnlocked(s.TerritoryID)

	switch {
	case s.Mount != nil && *s.Mount && !mounted:
		tasks = append(tasks, c.mountTask())
	case s.Mount != nil && !*s.Mount && mounted:
		tasks = append(tasks, c.unmountTask())
	case s.Mount == nil && !mounted && needsMove && (distance > c.cfg.MountDistance || fly):
		tasks = append(tasks, c.mountTask())
	}

	if needsMove {
		tasks = append(tasks, c.moveTask(*s.Position, c.movementOptions(s, stopDistance, fly)))
	}

	if fly && s.Land {
		tasks = append(tasks, c.landTask())
	}

	return tasks, nil
}

// approachObjectTasks handles steps targeting an object without a declared position.
func (c *Compiler) approachObjectTasks(sc *stepContext, dataID uint32, stopDistance float64) []task.Task {
	objPos, found := c.svc.Environment.FindObject(dataID)
	if !found {
		return []task.Task{&expectNearTask{env: c.svc.Environment, dataID: dataID, stopDistance: stopDistance}}
	}
	if c.distanceTo(sc, objPos) <= stopDistance {
		return nil
	}
	opts := c.movementOptions(sc.step, stopDistance, false)
	return []task.Task{c.moveTask(objPos, opts)}
}

func (c *Compiler) movementOptions(s *model.Step, stopDistance float64, fly bool) capability.MovementOptions {
	sprint := true
	if s.Sprint != nil {
		sprint = *s.Sprint
	}
	return capability.MovementOptions{
		DataID:                 s.DataID,
		StopDistance:           stopDistance,
		Fly:                    fly,
		Sprint:                 sprint,
		Land:                   s.Land,
		DisableNavmesh:         s.DisableNavmesh,
		IgnoreDistanceToObject: s.IgnoreDistanceToObject,
	}
}

func (c *Compiler) waitTerritoryTask(territory uint16) task.Task {
	env := c.svc.Environment
	return task.NewWaitCondition(fmt.Sprintf("WaitTerritory(%d)", territory), func() bool {
		return env.TerritoryID() == territory
	})
}

func (c *Compiler) mountTask() task.Task {
	return &mountTask{
		interaction: c.svc.Interaction,
		env:         c.svc.Environment,
		now:         c.cfg.Now,
		timeout:     c.cfg.RetryInterval * time.Duration(c.cfg.MaxAttempts),
		logger:      c.logger,
	}
}

func (c *Compiler) unmountTask() task.Task {
	return &unmountTask{
		interaction: c.svc.Interaction,
		movement:    c.svc.Movement,
		env:         c.svc.Environment,
		now:         c.cfg.Now,
		retry:       c.cfg.RetryInterval,
		landRetry:   c.cfg.LandRetry,
	}
}

func (c *Compiler) landTask() task.Task {
	return &landTask{
		movement: c.svc.Movement,
		env:      c.svc.Environment,
		now:      c.cfg.Now,
		retry:    c.cfg.LandRetry,
	}
}

func (c *Compiler) moveTask(dest model.Vec3, opts capability.MovementOptions) task.Task {
	return &moveTask{
		movement: c.svc.Movement,
		env:      c.svc.Environment,
		dest:     dest,
		opts:     opts,
		grace:    c.cfg.MovementGrace,
		timing:   c.timing(),
		messages: c.cfg.Messages,
	}
}

// mountTask mounts when possible. Failing to mount is not a fault, the
// character walks instead.
type mountTask struct {
	interaction capability.Interaction
	env         capability.Environment
	now         func() time.Time
	timeout     time.Duration
	logger      log.Logger

	startedAt time.Time
}

func (t *mountTask) Start() (bool, error) {
	if t.env.HasCondition(capability.ConditionMounted) {
		return false, nil
	}
	if !t.interaction.Mount() {
		t.logger.Warningf("Could not mount, continuing on foot")
		return false, nil
	}
	t.startedAt = t.now()
	return true, nil
}

func (t *mountTask) Update() (task.Result, error) {
	if t.env.HasCondition(capability.ConditionMounted) {
		return task.TaskComplete, nil
	}
	if t.now().Sub(t.startedAt) > t.timeout {
		t.logger.Warningf("Mount timed out, continuing on foot")
		return task.TaskComplete, nil
	}
	return task.StillRunning, nil
}

func (t *mountTask) String() string { return "Mount" }

// unmountTask lands first when flying.
type unmountTask struct {
	interaction capability.Interaction
	movement    capability.Movement
	env         capability.Environment
	now         func() time.Time
	retry       time.Duration
	landRetry   time.Duration

	lastAttempt time.Time
}

func (t *unmountTask) Start() (bool, error) {
	if !t.env.HasCondition(capability.ConditionMounted) {
		return false, nil
	}
	t.attempt()
	return true, nil
}

func (t *unmountTask) Update() (task.Result, error) {
	if !t.env.HasCondition(capability.ConditionMounted) {
		return task.TaskComplete, nil
	}

	wait := t.retry
	if t.env.HasCondition(capability.ConditionInFlight) {
		wait = t.landRetry
	}
	if t.now().Sub(t.lastAttempt) >= wait {
		t.attempt()
	}
	return task.StillRunning, nil
}

func (t *unmountTask) attempt() {
	if t.env.HasCondition(capability.ConditionInFlight) {
		t.movement.Land()
	} else {
		t.interaction.Unmount()
	}
	t.lastAttempt = t.now()
}

func (t *unmountTask) String() string { return "Unmount" }

// landTask lands after a flight.
type landTask struct {
	movement capability.Movement
	env      capability.Environment
	now      func() time.Time
	retry    time.Duration

	lastAttempt time.Time
}

func (t *landTask) Start() (bool, error) {
	if !t.env.HasCondition(capability.ConditionInFlight) {
		return false, nil
	}
	t.movement.Land()
	t.lastAttempt = t.now()
	return true, nil
}

func (t *landTask) Update() (task.Result, error) {
	if !t.env.HasCondition(capability.ConditionInFlight) {
		return task.TaskComplete, nil
	}
	if t.now().Sub(t.lastAttempt) >= t.retry {
		t.movement.Land()
		t.lastAttempt = t.now()
	}
	return task.StillRunning, nil
}

func (t *landTask) String() string { return "Land" }

// moveTask navigates to the destination and checks the arrival, renavigating a
// bounded number of times.
type moveTask struct {
	movement capability.Movement
	env      capability.Environment
	dest     model.Vec3
	opts     capability.MovementOptions
	grace    time.Duration
	timing   timing
	messages capability.Messages

	attempts int
}

func (t *moveTask) Start() (bool, error) {
	return true, t.navigate()
}

func (t *moveTask) Update() (task.Result, error) {
	if t.movement.IsPathfinding() || t.movement.IsPathRunning() {
		return task.StillRunning, nil
	}
	if t.timing.now().Before(t.movement.MovementStartedAt().Add(t.grace)) {
		return task.StillRunning, nil
	}

	if t.arrived() {
		return task.TaskComplete, nil
	}
	return task.StillRunning, t.navigate()
}

func (t *moveTask) arrived() bool {
	pos, ok := t.env.Position()
	if !ok {
		return false
	}
	if pos.Distance(t.dest) <= t.opts.StopDistance+arrivalTolerance {
		return true
	}
	if t.opts.DataID != nil && !t.opts.IgnoreDistanceToObject {
		if objPos, found := t.env.FindObject(*t.opts.DataID); found && pos.Distance(objPos) <= t.opts.StopDistance+arrivalTolerance {
			return true
		}
	}
	return false
}

func (t *moveTask) navigate() error {
	t.attempts++
	if t.attempts > t.timing.maxAttempts {
		return fmt.Errorf("%w: could not reach %s after %d attempts", model.ErrExecutionFault, t.dest, t.timing.maxAttempts)
	}
	if err := t.movement.NavigateTo(t.dest, t.opts); err != nil {
		return fmt.Errorf("%w: could not navigate to %s: %w", model.ErrExecutionFault, t.dest, err)
	}
	return nil
}

// OnEnvironmentError swallows the action rejections raised while moving underwater.
func (t *moveTask) OnEnvironmentError(message string) (bool, error) {
	if message == t.messages.CannotExecuteAtThisTime && t.env.HasCondition(capability.ConditionDiving) {
		return true, nil
	}
	return false, nil
}

func (t *moveTask) String() string { return fmt.Sprintf("MoveTo(%s)", t.dest) }

// expectNearTask faults unless the object is within range.
type expectNearTask struct {
	env          capability.Environment
	dataID       uint32
	stopDistance float64
}

func (t *expectNearTask) Start() (bool, error) {
	objPos, found := t.env.FindObject(t.dataID)
	if !found {
		return false, fmt.Errorf("%w: object %d not found", model.ErrExecutionFault, t.dataID)
	}
	pos, ok := t.env.Position()
	if !ok || pos.Distance(objPos) > t.stopDistance+arrivalTolerance {
		return false, fmt.Errorf("%w: object %d is not within %.1f", model.ErrExecutionFault, t.dataID, t.stopDistance)
	}
	return false, nil
}

func (t *expectNearTask) Update() (task.Result, error) { return task.TaskComplete, nil }

func (t *expectNearTask) String() string { return fmt.Sprintf("ExpectToBeNear(%d)", t.dataID) }
