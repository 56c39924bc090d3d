package controller

import (
	"strings"

	"github.com/slok/questline/internal/model"
)

var promptReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "–", "-")

func normalizePrompt(s string) string {
	return strings.TrimSpace(promptReplacer.Replace(s))
}

// NotifyPrompt offers a prompt raised by the environment. For yes/no prompts the
// answers are ignored and the selected index is 0 for yes and 1 for no. It
// returns false when the prompt doesn't match anything the current step expects.
func (c *Controller) NotifyPrompt(kind model.DialogueChoiceType, prompt string, answers []string) (int, bool) {
	if c.state != StateRunning {
		return 0, false
	}
	st, ok := c.currentStep()
	if !ok {
		return 0, false
	}

	prompt = normalizePrompt(prompt)
	switch kind {
	case model.DialogueChoiceYesNo:
		if idx, ok := c.matchYesNo(st, prompt); ok {
			return idx, true
		}
		if c.matchWarp(st, prompt) {
			c.IncreaseStepCount("warp:" + prompt)
			return 0, true
		}
		if prev, ok := c.previousStep(); ok && c.matchWarp(prev, prompt) {
			return 0, true
		}
	case model.DialogueChoiceList:
		if idx, ok := c.matchList(st, prompt, answers); ok {
			return idx, true
		}
	}

	c.logger.Infof("Prompt %q (%s) doesn't match any expected choice at %s", prompt, kind, c.cursor)
	return 0, false
}

func (c *Controller) matchYesNo(st *model.Step, prompt string) (int, bool) {
	for _, ch := range st.DialogueChoices {
		if ch.Type != model.DialogueChoiceYesNo || normalizePrompt(ch.Prompt) != prompt {
			continue
		}
		c.IncreaseDialogueChoicesSelected("yes_no:" + prompt)
		if ch.Yes {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

func (c *Controller) matchList(st *model.Step, prompt string, answers []string) (int, bool) {
	for _, ch := range st.DialogueChoices {
		if ch.Type != model.DialogueChoiceList {
			continue
		}
		// A choice without prompt matches any list.
		if ch.Prompt != "" && normalizePrompt(ch.Prompt) != prompt {
			continue
		}
		want := normalizePrompt(ch.Answer)
		for i, a := range answers {
			if normalizePrompt(a) == want {
				c.IncreaseDialogueChoicesSelected("list:" + prompt + ":" + want)
				return i, true
			}
		}
	}
	return 0, false
}

// matchWarp returns true if the prompt is a travel confirmation into the step target territory.
func (c *Controller) matchWarp(st *model.Step, prompt string) bool {
	if st.TargetTerritoryID == nil {
		return false
	}
	for _, p := range c.cfg.Environment.WarpPrompts(*st.TargetTerritoryID) {
		if normalizePrompt(p) == prompt {
			return true
		}
	}
	return false
}

// previousStep returns the step before the cursor, crossing sequence boundaries.
func (c *Controller) previousStep() (*model.Step, bool) {
	if c.cursor.Step > 0 {
		seq, _ := c.definition.FindSequence(c.cursor.Sequence)
		return seq.FindStep(c.cursor.Step - 1)
	}
	for i := c.definition.SequenceIndex(c.cursor.Sequence) - 1; i >= 0; i-- {
		seq := c.definition.Sequences[i]
		if len(seq.Steps) > 0 {
			return &c.definition.Sequences[i].Steps[len(seq.Steps)-1], true
		}
	}
	return nil, false
}
