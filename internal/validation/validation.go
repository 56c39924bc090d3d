// Package validation checks definitions for problems that would make a run fault
// or behave unexpectedly.
package validation

import (
	"fmt"
	"strings"

	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
)

// Validator validates a definition.
type Validator interface {
	Validate(def model.Definition) []model.ValidationIssue
}

// ValidatorFunc is a helper to create validators from functions.
type ValidatorFunc func(def model.Definition) []model.ValidationIssue

// Validate satisfies Validator.
func (v ValidatorFunc) Validate(def model.Definition) []model.ValidationIssue { return v(def) }

// DefaultValidators are the validators used when none are configured.
var DefaultValidators = []Validator{
	ValidatorFunc(disabledDefinition),
	ValidatorFunc(nextQuestSelfReference),
	ValidatorFunc(sequenceLayout),
	ValidatorFunc(stepFields),
}

func issue(def model.Definition, sev model.IssueSeverity, format string, args ...any) model.ValidationIssue {
	return model.ValidationIssue{QuestID: def.ID, Severity: sev, Description: fmt.Sprintf(format, args...)}
}

func stepIssue(def model.Definition, ref model.StepRef, sev model.IssueSeverity, format string, args ...any) model.ValidationIssue {
	i := issue(def, sev, format, args...)
	seq, idx := ref.Sequence, ref.Index
	i.Sequence, i.Step = &seq, &idx
	return i
}

func disabledDefinition(def model.Definition) []model.ValidationIssue {
	if !def.Disabled {
		return nil
	}
	return []model.ValidationIssue{issue(def, model.IssueSeverityInfo, "Quest is disabled")}
}

func nextQuestSelfReference(def model.Definition) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, ref := range def.AllSteps() {
		if ref.Step.NextQuestID != nil && *ref.Step.NextQuestID == def.ID {
			issues = append(issues, stepIssue(def, ref, model.IssueSeverityError, "Next quest should not reference itself"))
		}
	}
	return issues
}

func sequenceLayout(def model.Definition) []model.ValidationIssue {
	var issues []model.ValidationIssue
	if len(def.Sequences) == 0 {
		return []model.ValidationIssue{issue(def, model.IssueSeverityError, "Quest has no sequences")}
	}

	seen := map[uint8]bool{}
	for i, seq := range def.Sequences {
		if seen[seq.ID] {
			issues = append(issues, issue(def, model.IssueSeverityError, "Duplicated sequence %d", seq.ID))
		}
		seen[seq.ID] = true
		if seq.IsTerminal() && i != len(def.Sequences)-1 {
			issues = append(issues, issue(def, model.IssueSeverityError, "Terminal sequence %d must be the last one", seq.ID))
		}
	}
	if !seen[model.TerminalSequence] {
		issues = append(issues, issue(def, model.IssueSeverityInfo, "Quest has no terminal sequence %d", model.TerminalSequence))
	}

	return issues
}

func stepFields(def model.Definition) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, ref := range def.AllSteps() {
		if err := step.ValidateStep(*ref.Step); err != nil {
			desc := strings.TrimPrefix(err.Error(), model.ErrDataFault.Error()+": ")
			issues = append(issues, stepIssue(def, ref, model.IssueSeverityError, "%s", desc))
		}
	}
	return issues
}
