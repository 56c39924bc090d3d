package model

import "fmt"

// QuestID identifies a definition.
type QuestID uint16

// DefinitionKind is the kind of activity a definition automates.
type DefinitionKind string

const (
	// DefinitionKindQuest is a regular quest.
	DefinitionKindQuest DefinitionKind = "quest"
	// DefinitionKindLeve is a levequest, initiated from the journal.
	DefinitionKindLeve DefinitionKind = "leve"
)

// TerminalSequence is the reserved sequence ID that closes a definition.
const TerminalSequence uint8 = 255

// Definition is the declarative description of one automatable activity.
// Definitions are read-only once loaded.
type Definition struct {
	ID        QuestID
	Name      string
	Kind      DefinitionKind
	Disabled  bool
	Comment   string
	Sequences []Sequence
}

// Sequence is an ordered phase of a definition.
type Sequence struct {
	ID    uint8
	Steps []Step
}

// IsTerminal returns true if the sequence is the reserved closing one.
func (s Sequence) IsTerminal() bool { return s.ID == TerminalSequence }

// FindStep returns the step at the given position.
func (s Sequence) FindStep(index int) (*Step, bool) {
	if index < 0 || index >= len(s.Steps) {
		return nil, false
	}
	return &s.Steps[index], true
}

// FindSequence returns the sequence with the given ID.
func (d Definition) FindSequence(id uint8) (*Sequence, bool) {
	i := d.SequenceIndex(id)
	if i < 0 {
		return nil, false
	}
	return &d.Sequences[i], true
}

// SequenceIndex returns the declared position of a sequence, -1 if missing.
func (d Definition) SequenceIndex(id uint8) int {
	for i, s := range d.Sequences {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// StepCount returns the number of steps across all sequences.
func (d Definition) StepCount() int {
	n := 0
	for _, s := range d.Sequences {
		n += len(s.Steps)
	}
	return n
}

// StepRef addresses a step inside a definition.
type StepRef struct {
	Sequence uint8
	Index    int
	Step     *Step
}

// AllSteps returns every step of the definition in declared order.
func (d Definition) AllSteps() []StepRef {
	refs := make([]StepRef, 0, d.StepCount())
	for i := range d.Sequences {
		seq := &d.Sequences[i]
		for j := range seq.Steps {
			refs = append(refs, StepRef{Sequence: seq.ID, Index: j, Step: &seq.Steps[j]})
		}
	}
	return refs
}

func (d Definition) String() string {
	if d.Name == "" {
		return fmt.Sprintf("%d", d.ID)
	}
	return fmt.Sprintf("%d (%s)", d.ID, d.Name)
}
