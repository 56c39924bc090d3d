package step

import (
	"slices"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

// skipTasks emits the runtime skip check. It runs before every other task of the
// step, so a skip wins over the "already done" checks of core tasks.
func (c *Compiler) skipTasks(sc *stepContext) ([]task.Task, error) {
	var cond *model.StepSkipConditions
	if sc.step.SkipConditions != nil {
		cond = sc.step.SkipConditions.Step
	}
	if cond != nil && cond.Never {
		return nil, nil
	}
	if cond == nil && !sc.step.HasCompletionFlags() {
		return nil, nil
	}

	return []task.Task{&skipTask{
		env:      c.svc.Environment,
		teleport: c.svc.Teleport,
		questID:  sc.def.ID,
		step:     sc.step,
		cond:     cond,
	}}, nil
}

// skipTask drops the step when any of its skip conditions holds.
type skipTask struct {
	env      capability.Environment
	teleport capability.Teleport
	questID  model.QuestID
	step     *model.Step
	cond     *model.StepSkipConditions
}

func (t *skipTask) Start() (bool, error) { return t.shouldSkip(), nil }

func (t *skipTask) Update() (task.Result, error) { return task.SkipRemainingTasksForStep, nil }

func (t *skipTask) String() string { return "CheckSkip" }

func (t *skipTask) shouldSkip() bool {
	if t.step.HasCompletionFlags() {
		if work, ok := t.env.QuestProgress(t.questID); ok && model.MatchesQuestWork(t.step.CompletionFlags, work) {
			return true
		}
	}

	c := t.cond
	if c == nil {
		return false
	}

	territory := t.env.TerritoryID()
	switch {
	case slices.Contains(c.InTerritory, territory):
		return true
	case len(c.NotInTerritory) > 0 && !slices.Contains(c.NotInTerritory, territory):
		return true
	case c.FlyingUnlocked && t.env.IsFlyingUnlocked(t.step.TerritoryID):
		return true
	case c.FlyingLocked && !t.env.IsFlyingUnlocked(t.step.TerritoryID):
		return true
	case c.LocationUnlocked != nil && t.teleport.IsUnlocked(*c.LocationUnlocked):
		return true
	case c.LocationLocked != nil && !t.teleport.IsUnlocked(*c.LocationLocked):
		return true
	case c.ItemInInventory != nil && t.env.ItemCount(*c.ItemInInventory) > 0:
		return true
	case c.ItemNotInInventory != nil && t.env.ItemCount(*c.ItemNotInInventory) == 0:
		return true
	case c.QuestAccepted != nil && t.env.IsQuestAccepted(*c.QuestAccepted):
		return true
	}

	if model.HasCompletionFlags(c.CompletionFlags) {
		if work, ok := t.env.QuestProgress(t.questID); ok && model.MatchesQuestWork(c.CompletionFlags, work) {
			return true
		}
	}

	return false
}
