package step_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/capability/fake"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
	"github.com/slok/questline/internal/task"
)

func worldServices(w *fake.World) step.Services {
	return step.Services{
		Movement:    w.Movement(),
		Combat:      w.Combat(),
		Gathering:   w,
		Interaction: w,
		Journal:     w,
		Teleport:    w,
		Environment: w,
	}
}

func newServicesCompiler(t *testing.T, svc step.Services, clock *testClock) *step.Compiler {
	c, err := step.NewCompiler(step.CompilerConfig{Services: svc, Now: clock.Now})
	require.NoError(t, err)
	return c
}

// compileTask compiles the first step of the definition and returns the named task.
func compileTask(t *testing.T, c *step.Compiler, def *model.Definition, name string) task.Task {
	t.Helper()

	tasks, err := c.CompileStep(step.Request{Definition: def, SequenceID: 0, StepIndex: 0})
	require.NoError(t, err)
	for _, tk := range tasks {
		if tk.String() == name {
			return tk
		}
	}
	require.FailNowf(t, "task not compiled", "%q not in %v", name, task.Names(tasks))
	return nil
}

type countingGathering struct {
	capability.Gathering
	gathers int
	closes  int
}

func (g *countingGathering) GatherItem(itemID uint32) bool {
	g.gathers++
	return g.Gathering.GatherItem(itemID)
}

func (g *countingGathering) Close() {
	g.closes++
	g.Gathering.Close()
}

func TestGatherTask(t *testing.T) {
	tests := map[string]struct {
		world      func(w *fake.World)
		expResult  task.Result
		expErr     error
		expGathers int
		expCloses  int
	}{
		"Gathering should close the node once the requested items are in the inventory.": {
			expResult:  task.TaskComplete,
			expGathers: 2,
			expCloses:  1,
		},
		"A node that disappeared should complete the task without gathering.": {
			world:     func(w *fake.World) { w.RemoveObject(60) },
			expResult: task.TaskComplete,
		},
		"A full inventory should fault.": {
			world:  func(w *fake.World) { w.SetFreeInventorySlots(0) },
			expErr: model.ErrExecutionFault,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			clock := newTestClock()
			w := newTestWorldWithClock(t, clock)
			w.SetTerritory(1, model.Vec3{X: 50})
			w.PlaceObject(fake.Object{DataID: 60, TerritoryID: 1, Position: model.Vec3{X: 50}, Node: true})
			require.True(w.InteractWith(60))

			g := &countingGathering{Gathering: w}
			svc := worldServices(w)
			svc.Gathering = g
			c := newServicesCompiler(t, svc, clock)

			gather := compileTask(t, c, testDefinition(model.Step{
				Interaction: model.InteractionGather,
				RequiredGatheredItems: []model.GatheredItem{
					{ItemID: 50, Quantity: 2, NodeDataID: 60, NodePosition: model.Vec3{X: 50}, TerritoryID: 1},
				},
			}), "Gather(50, 2)")

			if test.world != nil {
				test.world(w)
			}

			needsUpdate, err := gather.Start()
			require.NoError(err)
			require.True(needsUpdate)

			var res task.Result
			for i := 0; i < 10; i++ {
				res, err = gather.Update()
				if err != nil || res != task.StillRunning {
					break
				}

				if i == 0 {
					// Polling again before the retry interval doesn't gather.
					res, err = gather.Update()
					require.NoError(err)
					require.Equal(task.StillRunning, res)
					require.Equal(1, g.gathers)
				}

				clock.Add(time.Second)
			}

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				require.NoError(err)
				assert.Equal(test.expResult, res)
			}
			assert.Equal(test.expGathers, g.gathers)
			assert.Equal(test.expCloses, g.closes)
		})
	}
}

func TestCombatTask(t *testing.T) {
	combatStep := model.Step{
		Interaction:    model.InteractionCombat,
		EnemySpawnType: model.EnemySpawnOverworldEnemies,
		TerritoryID:    1,
	}
	sayStep := model.Step{Interaction: model.InteractionSay, ChatMessage: "hi"}

	tests := map[string]struct {
		def func() *model.Definition
		// progress is set on the quest once the fight is over.
		progress *model.QuestWork
		// finalProgress is set after checking the fight keeps going.
		finalProgress *model.QuestWork
		expWaiting    bool
	}{
		"A fight without completion flags should complete once the combat is over.": {
			def: func() *model.Definition { return testDefinition(combatStep, sayStep) },
		},
		"Unmatched completion flags should keep fighting until they match.": {
			def: func() *model.Definition {
				s := combatStep
				s.CompletionFlags = flags(-1, 16, -1, -1, -1, -1)
				return testDefinition(s, sayStep)
			},
			progress:      &model.QuestWork{Variables: [model.CompletionFlagSlots]uint8{0, 1}},
			finalProgress: &model.QuestWork{Variables: [model.CompletionFlagSlots]uint8{0, 16}},
			expWaiting:    true,
		},
		"The last step of a sequence should wait until the quest moves to another sequence.": {
			def:           func() *model.Definition { return testDefinition(combatStep) },
			progress:      &model.QuestWork{Sequence: 0},
			finalProgress: &model.QuestWork{Sequence: 1},
			expWaiting:    true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			clock := newTestClock()
			w := newTestWorldWithClock(t, clock)
			c := newServicesCompiler(t, worldServices(w), clock)
			combat := compileTask(t, c, test.def(), "Combat(overworld_enemies)")

			needsUpdate, err := combat.Start()
			require.NoError(err)
			require.True(needsUpdate)
			assert.True(w.HasCondition(capability.ConditionInCombat))

			res, err := combat.Update()
			require.NoError(err)
			require.Equal(task.StillRunning, res)

			for i := 0; i < 3; i++ {
				w.Advance()
			}
			if test.progress != nil {
				w.SetQuestProgress(5, *test.progress)
			}

			res, err = combat.Update()
			require.NoError(err)
			if test.expWaiting {
				require.Equal(task.StillRunning, res)
				w.SetQuestProgress(5, *test.finalProgress)
				res, err = combat.Update()
				require.NoError(err)
			}
			assert.Equal(task.TaskComplete, res)
			assert.False(w.HasCondition(capability.ConditionInCombat))
		})
	}
}

func TestCraftTask(t *testing.T) {
	tests := map[string]struct {
		world  func(w *fake.World)
		expErr error
	}{
		"Crafting should complete once the inventory holds the wanted amount.": {
			world: func(w *fake.World) { w.AddItem(70, 1) },
		},
		"A craft that can't start should fault.": {
			world:  func(w *fake.World) { w.SetCondition(capability.ConditionInCombat, true) },
			expErr: model.ErrExecutionFault,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			clock := newTestClock()
			w := newTestWorldWithClock(t, clock)
			c := newServicesCompiler(t, worldServices(w), clock)
			count := 3
			craft := compileTask(t, c, testDefinition(model.Step{Interaction: model.InteractionCraft, ItemID: u32(70), ItemCount: &count}), "Craft(70, 3)")

			test.world(w)

			needsUpdate, err := craft.Start()
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			require.True(needsUpdate)

			res, err := craft.Update()
			require.NoError(err)
			require.Equal(task.StillRunning, res)

			w.Advance()
			res, err = craft.Update()
			require.NoError(err)
			assert.Equal(task.TaskComplete, res)
			assert.Equal(3, w.ItemCount(70))
		})
	}
}

type failingTeleport struct{ capability.Teleport }

func (failingTeleport) TeleportTo(uint32) bool { return false }

func TestTeleportTask(t *testing.T) {
	tests := map[string]struct {
		world          func(w *fake.World)
		failTeleport   bool
		expErr         error
		expNeedsUpdate bool
	}{
		"An unknown location should fault.": {
			expErr: model.ErrExecutionFault,
		},
		"A locked location should fault.": {
			world:  func(w *fake.World) { w.AddLocation(capability.Location{ID: 7, TerritoryID: 2}, false) },
			expErr: model.ErrExecutionFault,
		},
		"A teleport that fails should fault.": {
			world:        func(w *fake.World) { w.AddLocation(capability.Location{ID: 7, TerritoryID: 2}, true) },
			failTeleport: true,
			expErr:       model.ErrExecutionFault,
		},
		"Being already near the location should not teleport.": {
			world: func(w *fake.World) {
				w.AddLocation(capability.Location{ID: 7, TerritoryID: 2, Position: model.Vec3{X: 1}}, true)
				w.SetTerritory(2, model.Vec3{X: 5})
			},
		},
		"A teleport should complete once settled in the location territory.": {
			world:          func(w *fake.World) { w.AddLocation(capability.Location{ID: 7, TerritoryID: 2}, true) },
			expNeedsUpdate: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			clock := newTestClock()
			w := newTestWorldWithClock(t, clock)
			svc := worldServices(w)
			if test.failTeleport {
				svc.Teleport = failingTeleport{Teleport: w}
			}
			c := newServicesCompiler(t, svc, clock)
			teleport := compileTask(t, c, testDefinition(model.Step{
				Interaction:      model.InteractionInteract,
				DataID:           u32(10),
				TerritoryID:      2,
				Position:         &model.Vec3{X: 5},
				TeleportShortcut: u32(7),
			}), "Teleport(7)")

			if test.world != nil {
				test.world(w)
			}

			needsUpdate, err := teleport.Start()
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			require.Equal(test.expNeedsUpdate, needsUpdate)
			if !needsUpdate {
				return
			}
			assert.Equal(uint16(2), w.TerritoryID())

			res, err := teleport.Update()
			require.NoError(err)
			require.Equal(task.StillRunning, res)

			clock.Add(8 * time.Second)
			res, err = teleport.Update()
			require.NoError(err)
			assert.Equal(task.TaskComplete, res)
		})
	}
}

// slowJournal shows the journal only after it has been opened a number of times.
type slowJournal struct {
	capability.Journal
	opens       int
	visibleFrom int
}

func (j *slowJournal) OpenJournal(id model.QuestID, kind model.DefinitionKind) bool {
	j.opens++
	return j.Journal.OpenJournal(id, kind)
}

func (j *slowJournal) IsJournalOpen(id model.QuestID, kind model.DefinitionKind) bool {
	return j.opens >= j.visibleFrom && j.Journal.IsJournalOpen(id, kind)
}

func leveDefinition() *model.Definition {
	d := testDefinition(model.Step{Interaction: model.InteractionInitiateLeve})
	d.Kind = model.DefinitionKindLeve
	return d
}

func TestOpenJournalTaskReopens(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	clock := newTestClock()
	w := newTestWorldWithClock(t, clock)
	j := &slowJournal{Journal: w, visibleFrom: 2}
	svc := worldServices(w)
	svc.Journal = j
	c := newServicesCompiler(t, svc, clock)
	open := compileTask(t, c, leveDefinition(), "OpenJournal(5)")

	needsUpdate, err := open.Start()
	require.NoError(err)
	require.True(needsUpdate)
	assert.Equal(1, j.opens)

	// The journal is not reopened before the reopen interval.
	clock.Add(2 * time.Second)
	res, err := open.Update()
	require.NoError(err)
	require.Equal(task.StillRunning, res)
	assert.Equal(1, j.opens)

	clock.Add(time.Second)
	res, err = open.Update()
	require.NoError(err)
	require.Equal(task.StillRunning, res)
	assert.Equal(2, j.opens)

	res, err = open.Update()
	require.NoError(err)
	assert.Equal(task.TaskComplete, res)
}

func TestInitiateLeve(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	clock := newTestClock()
	w := newTestWorldWithClock(t, clock)
	c := newServicesCompiler(t, worldServices(w), clock)

	tasks, err := c.CompileStep(step.Request{Definition: leveDefinition(), SequenceID: 0, StepIndex: 0})
	require.NoError(err)
	q := task.NewQueue(tasks, nil)

	outcome, err := q.Start()
	require.NoError(err)
	require.Equal(task.OutcomeRunning, outcome)
	assert.False(w.HasCondition(capability.ConditionBoundByDuty))

	outcome, err = q.Tick()
	require.NoError(err)
	assert.Equal(task.OutcomeStepComplete, outcome)
	assert.True(w.HasCondition(capability.ConditionBoundByDuty))

	// Once the leve is active the step is skipped.
	tasks, err = c.CompileStep(step.Request{Definition: leveDefinition(), SequenceID: 0, StepIndex: 0})
	require.NoError(err)
	q = task.NewQueue(tasks, nil)

	_, err = q.Start()
	require.NoError(err)
	outcome, err = q.Tick()
	require.NoError(err)
	assert.Equal(task.OutcomeSkipStep, outcome)
}
