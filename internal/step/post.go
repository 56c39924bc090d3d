package step

import (
	"fmt"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

// postTasks decide how the step is known to be done. Completion flags take
// precedence over the default of the interaction kind.
func (c *Compiler) postTasks(sc *stepContext) ([]task.Task, error) {
	s := sc.step
	env := c.svc.Environment

	if s.HasCompletionFlags() {
		return []task.Task{c.waitCompletionFlagsTask(sc), c.settle(), task.NewNextStep()}, nil
	}

	switch s.Interaction {
	case model.InteractionCombat:
		return []task.Task{
			c.settle(),
			waitCondition(env, capability.ConditionInCombat, false),
			c.settle(),
			task.NewNextStep(),
		}, nil

	case model.InteractionWaitForManualProgress, model.InteractionInstruction:
		return []task.Task{task.WaitForever{}}, nil

	case model.InteractionDuty, model.InteractionSinglePlayerDuty:
		return []task.Task{task.NewEnd()}, nil

	case model.InteractionWaitForObjectAtPosition:
		dataID, pos := *s.DataID, *s.Position
		return []task.Task{
			task.NewWaitCondition(fmt.Sprintf("WaitObjectAtPosition(%d, %s)", dataID, pos), func() bool {
				objPos, found := env.FindObject(dataID)
				return found && objPos.Distance(pos) <= arrivalTolerance
			}),
			c.settle(),
			task.NewNextStep(),
		}, nil

	case model.InteractionInteract, model.InteractionUseItem:
		if s.TargetTerritoryID == nil {
			return nil, nil
		}
		var wait task.Task = &waitTeleportAwayTask{env: env}
		if *s.TargetTerritoryID != s.TerritoryID {
			wait = c.waitTerritoryTask(*s.TargetTerritoryID)
		}
		return []task.Task{wait, c.settle(), task.NewNextStep()}, nil

	case model.InteractionAcceptQuest:
		id := pickupQuest(sc)
		return []task.Task{
			task.NewWaitCondition(fmt.Sprintf("WaitQuestAccepted(%d)", id), func() bool { return env.IsQuestAccepted(id) }),
			c.settle(),
		}, nil

	case model.InteractionCompleteQuest:
		id := turnInQuest(sc)
		return []task.Task{
			task.NewWaitCondition(fmt.Sprintf("WaitQuestCompleted(%d)", id), func() bool { return env.IsQuestComplete(id) }),
			c.settle(),
		}, nil
	}

	return nil, nil
}

func (c *Compiler) settle() task.Task { return task.NewDelay(c.cfg.SettleDelay, c.cfg.Now) }

func (c *Compiler) waitCompletionFlagsTask(sc *stepContext) task.Task {
	env, id, flags := c.svc.Environment, sc.def.ID, sc.step.CompletionFlags
	return task.NewWaitCondition("WaitCompletionFlags", func() bool {
		work, ok := env.QuestProgress(id)
		return ok && model.MatchesQuestWork(flags, work)
	})
}
