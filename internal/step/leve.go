package step

import (
	"fmt"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

const journalReopenInterval = 3 * time.Second

func (c *Compiler) initiateLeveCore(sc *stepContext) ([]task.Task, error) {
	id := sc.def.ID
	journal := c.svc.Journal
	return []task.Task{
		&skipIfLeveActiveTask{journal: journal, id: id},
		&openJournalTask{journal: journal, id: id, kind: sc.def.Kind, now: c.cfg.Now},
		task.NewWaitCondition(fmt.Sprintf("InitiateLeve(%d)", id), func() bool { return journal.InitiateLeve(id) }),
		task.NewWaitCondition("SelectLeveDifficulty", journal.SelectLeveDifficulty),
		waitCondition(c.svc.Environment, capability.ConditionBoundByDuty, true),
	}, nil
}

// skipIfLeveActiveTask skips the rest of the step when the leve is already running.
type skipIfLeveActiveTask struct {
	journal capability.Journal
	id      model.QuestID
}

func (t *skipIfLeveActiveTask) Start() (bool, error) {
	active, ok := t.journal.ActiveLeve()
	return ok && active == t.id, nil
}

func (t *skipIfLeveActiveTask) Update() (task.Result, error) {
	return task.SkipRemainingTasksForStep, nil
}

func (t *skipIfLeveActiveTask) String() string { return fmt.Sprintf("SkipIfLeveActive(%d)", t.id) }

// openJournalTask opens the journal on the quest, reopening it while it doesn't show up.
type openJournalTask struct {
	journal capability.Journal
	id      model.QuestID
	kind    model.DefinitionKind
	now     func() time.Time

	openedAt time.Time
}

func (t *openJournalTask) Start() (bool, error) {
	t.open()
	return true, nil
}

func (t *openJournalTask) Update() (task.Result, error) {
	if t.journal.IsJournalOpen(t.id, t.kind) {
		return task.TaskComplete, nil
	}
	if t.now().Sub(t.openedAt) >= journalReopenInterval {
		t.open()
	}
	return task.StillRunning, nil
}

func (t *openJournalTask) open() {
	t.journal.OpenJournal(t.id, t.kind)
	t.openedAt = t.now()
}

func (t *openJournalTask) String() string { return fmt.Sprintf("OpenJournal(%d)", t.id) }
