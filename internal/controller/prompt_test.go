package controller_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/controller"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

type prompt struct {
	kind    model.DialogueChoiceType
	text    string
	answers []string
}

type answer struct {
	index int
	ok    bool
}

func promptDefinition() model.Definition {
	return testDefinition(5,
		model.Sequence{ID: 0, Steps: []model.Step{
			{
				Interaction:       model.InteractionInteract,
				DataID:            u32(10),
				TargetTerritoryID: u16(2),
				DialogueChoices: []model.DialogueChoice{
					{Type: model.DialogueChoiceYesNo, Prompt: "Accept the quest?", Yes: true},
					{Type: model.DialogueChoiceYesNo, Prompt: "Leave – now?", Yes: false},
					{Type: model.DialogueChoiceList, Prompt: "What will you do?", Answer: "Ask about the crystals."},
				},
			},
			{Interaction: model.InteractionWalkTo, Position: &model.Vec3{}},
		}},
		model.Sequence{ID: model.TerminalSequence, Steps: steps(1)},
	)
}

func TestControllerNotifyPrompt(t *testing.T) {
	tests := map[string]struct {
		prompts         []prompt
		expAnswers      []answer
		expStep         int
		expDialogueSels int
	}{
		"A yes/no prompt matching a dialogue choice should be answered with yes.": {
			prompts:         []prompt{{kind: model.DialogueChoiceYesNo, text: "Accept the quest?\r\n"}},
			expAnswers:      []answer{{index: 0, ok: true}},
			expDialogueSels: 1,
		},
		"A yes/no prompt should be normalized before matching and answered with no.": {
			prompts:         []prompt{{kind: model.DialogueChoiceYesNo, text: "Leave - now?"}},
			expAnswers:      []answer{{index: 1, ok: true}},
			expDialogueSels: 1,
		},
		"A list prompt should select the expected answer.": {
			prompts: []prompt{{
				kind:    model.DialogueChoiceList,
				text:    "What will you do?",
				answers: []string{"Nothing.", " Ask about the crystals."},
			}},
			expAnswers:      []answer{{index: 1, ok: true}},
			expDialogueSels: 1,
		},
		"A list prompt without the expected answer should not be answered.": {
			prompts: []prompt{{
				kind:    model.DialogueChoiceList,
				text:    "What will you do?",
				answers: []string{"Nothing."},
			}},
			expAnswers: []answer{{ok: false}},
		},
		"An unexpected prompt should not be answered.": {
			prompts:    []prompt{{kind: model.DialogueChoiceYesNo, text: "Sell the item?"}},
			expAnswers: []answer{{ok: false}},
		},
		"A travel prompt into the step target territory should be accepted and advance the step.": {
			prompts:    []prompt{{kind: model.DialogueChoiceYesNo, text: "Travel to Limsa Lominsa?"}},
			expAnswers: []answer{{index: 0, ok: true}},
			expStep:    1,
		},
		"A repeated travel prompt should not advance the step twice.": {
			prompts: []prompt{
				{kind: model.DialogueChoiceYesNo, text: "Travel to Limsa Lominsa?"},
				{kind: model.DialogueChoiceYesNo, text: "Travel to Limsa Lominsa?"},
			},
			expAnswers: []answer{{index: 0, ok: true}, {index: 0, ok: true}},
			expStep:    1,
		},
		"A repeated dialogue choice should be counted once.": {
			prompts: []prompt{
				{kind: model.DialogueChoiceYesNo, text: "Accept the quest?"},
				{kind: model.DialogueChoiceYesNo, text: "Accept the quest?"},
			},
			expAnswers:      []answer{{index: 0, ok: true}, {index: 0, ok: true}},
			expDialogueSels: 1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			rec := &recorder{}
			w := newTestWorld(t)
			w.SetWarpPrompts(2, "Travel to Limsa Lominsa?")
			forever := func(rec *recorder) ([]task.Task, error) {
				return []task.Task{&testTask{name: "a", rec: rec, forever: true}}, nil
			}
			c := newController(t, w, stubCompiler{rec: rec, steps: map[stepKey]func(rec *recorder) ([]task.Task, error){
				{0, 0}: forever,
				{0, 1}: forever,
			}}, promptDefinition())
			require.NoError(c.StartRun(context.TODO(), 5, nil, nil))
			require.NoError(c.Tick())

			gotAnswers := []answer{}
			for _, p := range test.prompts {
				idx, ok := c.NotifyPrompt(p.kind, p.text, p.answers)
				gotAnswers = append(gotAnswers, answer{index: idx, ok: ok})
				require.NoError(c.Tick())
			}
			assert.Equal(test.expAnswers, gotAnswers)

			gotProgress, ok := c.CurrentProgress()
			require.True(ok)
			assert.Equal(test.expStep, gotProgress.Step)
			assert.Equal(test.expDialogueSels, gotProgress.DialogueChoicesSelected)
			assert.Equal(controller.StateRunning, c.State())
		})
	}
}

func TestControllerNotifyPromptWhenNotRunning(t *testing.T) {
	c := newController(t, newTestWorld(t), stubCompiler{rec: &recorder{}}, promptDefinition())

	_, ok := c.NotifyPrompt(model.DialogueChoiceYesNo, "Accept the quest?", nil)
	assert.False(t, ok)
}
