package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/capability/fake"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
	"github.com/slok/questline/internal/task"
)

func TestSkipConditions(t *testing.T) {
	tests := map[string]struct {
		world   func(w *fake.World)
		cond    model.StepSkipConditions
		flags   []*model.QuestWorkValue
		expSkip bool
	}{
		"Being in a listed territory should skip.": {
			cond:    model.StepSkipConditions{InTerritory: []uint16{4, 1}},
			expSkip: true,
		},

		"Not being in a listed territory should not skip.": {
			cond:    model.StepSkipConditions{InTerritory: []uint16{4}},
			expSkip: false,
		},

		"Not being in any of the required territories should skip.": {
			cond:    model.StepSkipConditions{NotInTerritory: []uint16{4}},
			expSkip: true,
		},

		"Unlocked flying should skip when requested.": {
			world:   func(w *fake.World) { w.SetFlyingUnlocked(1) },
			cond:    model.StepSkipConditions{FlyingUnlocked: true},
			expSkip: true,
		},

		"Locked flying should skip when requested.": {
			cond:    model.StepSkipConditions{FlyingLocked: true},
			expSkip: true,
		},

		"An unlocked location should skip when requested.": {
			world:   func(w *fake.World) { w.AddLocation(capability.Location{ID: 3}, true) },
			cond:    model.StepSkipConditions{LocationUnlocked: u32(3)},
			expSkip: true,
		},

		"A locked location should not skip when unlocked is requested.": {
			world:   func(w *fake.World) { w.AddLocation(capability.Location{ID: 3}, false) },
			cond:    model.StepSkipConditions{LocationUnlocked: u32(3)},
			expSkip: false,
		},

		"An item in the inventory should skip when requested.": {
			world:   func(w *fake.World) { w.AddItem(20, 1) },
			cond:    model.StepSkipConditions{ItemInInventory: u32(20)},
			expSkip: true,
		},

		"A missing item should skip when requested.": {
			cond:    model.StepSkipConditions{ItemNotInInventory: u32(20)},
			expSkip: true,
		},

		"An accepted quest should skip when requested.": {
			world:   func(w *fake.World) { w.SetQuestProgress(40, model.QuestWork{}) },
			cond:    model.StepSkipConditions{QuestAccepted: qid(40)},
			expSkip: true,
		},

		"Matching skip completion flags should skip.": {
			world:   func(w *fake.World) { w.SetQuestProgress(5, model.QuestWork{Variables: [6]uint8{0, 2}}) },
			cond:    model.StepSkipConditions{CompletionFlags: flags(-1, 2, -1, -1, -1, -1)},
			expSkip: true,
		},

		"Matching step completion flags should skip.": {
			world:   func(w *fake.World) { w.SetQuestProgress(5, model.QuestWork{Variables: [6]uint8{3}}) },
			flags:   flags(3, 0, 0, 0, 0, 0),
			expSkip: true,
		},

		"Not matching step completion flags should not skip.": {
			world:   func(w *fake.World) { w.SetQuestProgress(5, model.QuestWork{Variables: [6]uint8{2}}) },
			flags:   flags(3, 0, 0, 0, 0, 0),
			expSkip: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			clock := newTestClock()
			w := newTestWorldWithClock(t, clock)
			if test.world != nil {
				test.world(w)
			}
			c := newTestCompiler(t, w, clock, nil)

			cond := test.cond
			def := testDefinition(model.Step{
				Interaction:     model.InteractionSay,
				ChatMessage:     "hi",
				TerritoryID:     1,
				CompletionFlags: test.flags,
				SkipConditions:  &model.SkipConditions{Step: &cond},
			})
			tasks, err := c.CompileStep(step.Request{Definition: def})
			require.NoError(err)
			require.Equal("CheckSkip", tasks[0].String())

			q := task.NewQueue(tasks, nil)
			outcome, err := q.Start()
			require.NoError(err)
			if test.expSkip {
				assert.Equal(task.OutcomeRunning, outcome)
				outcome, err = q.Tick()
				require.NoError(err)
				assert.Equal(task.OutcomeSkipStep, outcome)
			} else {
				// The skip check is absorbed and the core action is running.
				assert.Equal(task.OutcomeRunning, outcome)
				assert.Equal(1, q.Index())
			}
		})
	}
}

func TestSkipConditionsWinOverActiveLeve(t *testing.T) {
	require := require.New(t)

	clock := newTestClock()
	w := newTestWorldWithClock(t, clock)
	w.SetQuestProgress(5, model.QuestWork{})
	w.OpenJournal(5, model.DefinitionKindLeve)
	w.InitiateLeve(5)
	w.SelectLeveDifficulty()
	active, ok := w.ActiveLeve()
	require.True(ok)
	require.Equal(model.QuestID(5), active)

	c := newTestCompiler(t, w, clock, nil)
	def := testDefinition(model.Step{
		Interaction:    model.InteractionInitiateLeve,
		SkipConditions: &model.SkipConditions{Step: &model.StepSkipConditions{QuestAccepted: qid(5)}},
	})
	def.Kind = model.DefinitionKindLeve

	tasks, err := c.CompileStep(step.Request{Definition: def})
	require.NoError(err)

	var done []string
	q := task.NewQueue(tasks, func(_ int, t task.Task, _ task.Result, _ error) { done = append(done, t.String()) })
	_, err = q.Start()
	require.NoError(err)
	outcome, err := q.Tick()
	require.NoError(err)
	require.Equal(task.OutcomeSkipStep, outcome)
	require.Equal([]string{"CheckSkip"}, done)
}
