package step

import (
	"fmt"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

func (c *Compiler) combatCore(sc *stepContext) ([]task.Task, error) {
	s := sc.step
	var tasks []task.Task

	if c.svc.Environment.HasCondition(capability.ConditionMounted) {
		tasks = append(tasks, c.unmountTask())
	}
	if s.CombatDelaySecondsAtStart != nil && *s.CombatDelaySecondsAtStart > 0 {
		tasks = append(tasks, task.NewDelay(seconds(*s.CombatDelaySecondsAtStart), c.cfg.Now))
	}

	switch s.EnemySpawnType {
	case model.EnemySpawnAfterInteraction:
		tasks = append(tasks, c.interactTask(*s.DataID))
	case model.EnemySpawnAfterItemUse:
		tasks = append(tasks, c.useItemTask(s))
	}

	tasks = append(tasks, &combatTask{
		combat: c.svc.Combat,
		env:    c.svc.Environment,
		spec: capability.CombatSpec{
			QuestID:          sc.def.ID,
			SpawnType:        s.EnemySpawnType,
			KillEnemyDataIDs: s.KillEnemyDataIDs,
		},
		flags:      s.CompletionFlags,
		sequenceID: sc.seq.ID,
		lastStep:   sc.isLastStep(),
	})

	return tasks, nil
}

// combatTask hands the fight to the combat service. Steps with completion
// flags complete once the flags match, the last step of a sequence completes once
// the quest moves to another sequence, the rest once the combat is over.
type combatTask struct {
	combat     capability.Combat
	env        capability.Environment
	spec       capability.CombatSpec
	flags      []*model.QuestWorkValue
	sequenceID uint8
	lastStep   bool

	combatDone bool
}

func (t *combatTask) Start() (bool, error) {
	if !t.combat.Start(t.spec) {
		return false, fmt.Errorf("%w: unable to start combat", model.ErrExecutionFault)
	}
	return true, nil
}

func (t *combatTask) Update() (task.Result, error) {
	if !t.combatDone {
		status := t.combat.Update()
		if status != capability.CombatStatusComplete {
			return task.StillRunning, nil
		}
		t.combatDone = true
	}

	work, ok := t.env.QuestProgress(t.spec.QuestID)
	switch {
	case model.HasCompletionFlags(t.flags):
		if !ok || !model.MatchesQuestWork(t.flags, work) {
			// More enemies may still be needed.
			t.combatDone = false
			return task.StillRunning, nil
		}
	case t.lastStep:
		if ok && work.Sequence == t.sequenceID {
			return task.StillRunning, nil
		}
	}

	t.combat.Stop("combat step complete")
	return task.TaskComplete, nil
}

func (t *combatTask) String() string { return fmt.Sprintf("Combat(%s)", t.spec.SpawnType) }
