package step

import (
	"fmt"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

// teleportSkipDistance is the distance to a location under which teleporting to it is pointless.
const teleportSkipDistance = 11

func (c *Compiler) teleportTasks(sc *stepContext) ([]task.Task, error) {
	s := sc.step
	if s.TeleportShortcut == nil {
		return nil, nil
	}

	env := c.svc.Environment
	if s.SkipConditions != nil && s.SkipConditions.TeleportShortcutIf != nil {
		cond := s.SkipConditions.TeleportShortcutIf
		if cond.Never {
			return nil, nil
		}
		if cond.InSameTerritory && s.TerritoryID != 0 && env.TerritoryID() == s.TerritoryID {
			return nil, nil
		}
	}

	location := *s.TeleportShortcut
	if loc, ok := c.svc.Teleport.Location(location); ok && loc.TerritoryID != env.TerritoryID() {
		sc.teleporting = true
	}

	return []task.Task{
		task.NewWaitCondition("WaitCanTeleport", c.svc.Teleport.CanTeleport),
		&teleportTask{
			teleport: c.svc.Teleport,
			env:      env,
			location: location,
			delay:    c.cfg.TeleportDelay,
			now:      c.cfg.Now,
		},
	}, nil
}

// teleportTask teleports to an unlocked location and waits for the arrival.
type teleportTask struct {
	teleport capability.Teleport
	env      capability.Environment
	location uint32
	delay    time.Duration
	now      func() time.Time

	startedAt   time.Time
	destination uint16
}

func (t *teleportTask) Start() (bool, error) {
	loc, ok := t.teleport.Location(t.location)
	if !ok {
		return false, fmt.Errorf("%w: unknown location %d", model.ErrExecutionFault, t.location)
	}

	if t.env.TerritoryID() == loc.TerritoryID {
		if pos, ok := t.env.Position(); ok && pos.Distance(loc.Position) <= teleportSkipDistance {
			return false, nil
		}
	}

	if !t.teleport.IsUnlocked(t.location) {
		return false, fmt.Errorf("%w: location %d is not unlocked", model.ErrExecutionFault, t.location)
	}
	if !t.teleport.TeleportTo(t.location) {
		return false, fmt.Errorf("%w: unable to teleport to location %d", model.ErrExecutionFault, t.location)
	}
	t.startedAt = t.now()
	t.destination = loc.TerritoryID
	return true, nil
}

func (t *teleportTask) Update() (task.Result, error) {
	if t.now().Sub(t.startedAt) < t.delay {
		return task.StillRunning, nil
	}
	if t.env.TerritoryID() != t.destination {
		return task.StillRunning, nil
	}
	return task.TaskComplete, nil
}

func (t *teleportTask) String() string { return fmt.Sprintf("Teleport(%d)", t.location) }
