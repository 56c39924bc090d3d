package metrics

import (
	"time"

	"github.com/slok/questline/internal/model"
)

// Recorder knows how to record engine metrics.
type Recorder interface {
	RunStarted(questID model.QuestID)
	RunFinished(questID model.QuestID, status model.RunStatus)
	StepCompiled(interaction model.InteractionType, tasks int)
	TaskFinished(kind string, result string)
	TickDuration(d time.Duration)
}

// Noop is a recorder that doesn't record anything.
const Noop = noop(0)

type noop int

func (noop) RunStarted(model.QuestID)                   {}
func (noop) RunFinished(model.QuestID, model.RunStatus) {}
func (noop) StepCompiled(model.InteractionType, int)    {}
func (noop) TaskFinished(string, string)                {}
func (noop) TickDuration(time.Duration)                 {}
