package step

import (
	"fmt"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

type timing struct {
	now         func() time.Time
	settle      time.Duration
	retry       time.Duration
	maxAttempts int
}

// actionTask fires a single action and retries it until it succeeds. Once fired
// it settles before completing, or waits for done when given.
type actionTask struct {
	name string
	fire func() bool
	// done is optional, when set the action is retried until it holds.
	done   func() bool
	timing timing

	attempts  int
	fired     bool
	lastFired time.Time
	fault     error
}

func (t *actionTask) Start() (bool, error) {
	if t.done != nil && t.done() {
		return false, nil
	}
	return true, t.attempt()
}

func (t *actionTask) Update() (task.Result, error) {
	if t.fault != nil {
		return task.StillRunning, t.fault
	}

	wait := t.timing.retry
	if t.fired {
		wait = t.timing.settle
	}
	if t.timing.now().Sub(t.lastFired) < wait {
		return task.StillRunning, nil
	}

	if t.done != nil {
		if t.done() {
			return task.TaskComplete, nil
		}
	} else if t.fired {
		return task.TaskComplete, nil
	}

	return task.StillRunning, t.attempt()
}

func (t *actionTask) attempt() error {
	t.attempts++
	if t.attempts > t.timing.maxAttempts {
		return fmt.Errorf("%w: %s failed after %d attempts", model.ErrExecutionFault, t.name, t.timing.maxAttempts)
	}
	t.fired = t.fire()
	t.lastFired = t.timing.now()
	return nil
}

func (t *actionTask) String() string { return t.name }

// equipTask is an action that faults right away when the armory is full.
type equipTask struct {
	*actionTask
	messages capability.Messages
}

func (t *equipTask) OnEnvironmentError(message string) (bool, error) {
	if message != t.messages.InsufficientArmorySpace {
		return false, nil
	}
	t.fault = fmt.Errorf("%w: no free armory space to equip %s", model.ErrExecutionFault, t.name)
	return true, nil
}

func (c *Compiler) newAction(name string, fire func() bool, done func() bool) *actionTask {
	return &actionTask{name: name, fire: fire, done: done, timing: c.timing()}
}

func (c *Compiler) interactTask(dataID uint32) task.Task {
	return c.newAction(fmt.Sprintf("Interact(%d)", dataID), func() bool {
		return c.svc.Interaction.InteractWith(dataID)
	}, nil)
}

func (c *Compiler) useItemTask(s *model.Step) task.Task {
	itemID := *s.ItemID
	switch {
	case s.DataID != nil && s.GroundTarget:
		dataID := *s.DataID
		return c.newAction(fmt.Sprintf("UseItemOnGround(%d, %d)", itemID, dataID), func() bool {
			return c.svc.Interaction.UseItemOnGround(itemID, dataID)
		}, nil)
	case s.DataID != nil:
		dataID := *s.DataID
		return c.newAction(fmt.Sprintf("UseItemOn(%d, %d)", itemID, dataID), func() bool {
			return c.svc.Interaction.UseItemOn(itemID, dataID)
		}, nil)
	}
	return c.newAction(fmt.Sprintf("UseItem(%d)", itemID), func() bool {
		return c.svc.Interaction.UseItem(itemID)
	}, nil)
}

// craftTask starts a craft and waits until the inventory holds the wanted amount.
type craftTask struct {
	interaction capability.Interaction
	env         capability.Environment
	itemID      uint32
	quantity    int
}

func (t *craftTask) Start() (bool, error) {
	have := t.env.ItemCount(t.itemID)
	if have >= t.quantity {
		return false, nil
	}
	if !t.interaction.Craft(t.itemID, t.quantity-have) {
		return false, fmt.Errorf("%w: unable to start crafting item %d", model.ErrExecutionFault, t.itemID)
	}
	return true, nil
}

func (t *craftTask) Update() (task.Result, error) {
	if t.env.ItemCount(t.itemID) >= t.quantity {
		return task.TaskComplete, nil
	}
	return task.StillRunning, nil
}

func (t *craftTask) String() string { return fmt.Sprintf("Craft(%d, %d)", t.itemID, t.quantity) }

// waitTeleportAwayTask waits until the character is moved away from where it
// was when the task started.
type waitTeleportAwayTask struct {
	env   capability.Environment
	from  model.Vec3
	known bool
}

const teleportAwayDistance = 10

func (t *waitTeleportAwayTask) Start() (bool, error) {
	t.from, t.known = t.env.Position()
	return true, nil
}

func (t *waitTeleportAwayTask) Update() (task.Result, error) {
	pos, ok := t.env.Position()
	if !ok {
		return task.StillRunning, nil
	}
	if !t.known {
		t.from, t.known = pos, true
		return task.StillRunning, nil
	}
	if pos.Distance(t.from) > teleportAwayDistance {
		return task.TaskComplete, nil
	}
	return task.StillRunning, nil
}

func (t *waitTeleportAwayTask) String() string { return "WaitTeleportAway" }
