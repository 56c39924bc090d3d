package lib

import (
	"errors"
	"time"

	"github.com/slok/questline/internal/app/history"
	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/controller"
	"github.com/slok/questline/internal/model"
)

// Capability contracts the host implements over the live environment. The
// engine only fires commands and polls their status through them.
type (
	Movement    = capability.Movement
	Combat      = capability.Combat
	Gathering   = capability.Gathering
	Interaction = capability.Interaction
	Journal     = capability.Journal
	Teleport    = capability.Teleport
	Environment = capability.Environment

	// ErrorNotifier is an Environment pushing its error messages.
	ErrorNotifier = capability.ErrorNotifier
	// Subscription is returned by ErrorNotifier.SubscribeErrors.
	Subscription = capability.Subscription

	MovementOptions  = capability.MovementOptions
	CombatSpec       = capability.CombatSpec
	CombatStatus     = capability.CombatStatus
	GatheringNode    = capability.GatheringNode
	GatheringRequest = capability.GatheringRequest
	Location         = capability.Location
	Condition        = capability.Condition

	// Messages are the environment error texts the engine reacts to.
	Messages = capability.Messages
)

// Types shared by the capability contracts.
type (
	QuestID        = model.QuestID
	Vec3           = model.Vec3
	QuestWork      = model.QuestWork
	DefinitionKind = model.DefinitionKind
	EnemySpawnType = model.EnemySpawnType
)

// Sentinel errors returned by the SDK, inspect them with [errors.Is].
var (
	// ErrNotFound is returned when a definition, sequence, step or run doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when two definitions share the same ID.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input or operations (e.g starting while running).
	ErrNotValid = errors.New("not valid")
	// ErrDataFault is returned when a step misses a field its kind requires.
	ErrDataFault = errors.New("data fault")
	// ErrExecutionFault is returned when a task can't complete.
	ErrExecutionFault = errors.New("execution fault")
)

// State is the state of the engine.
//
// The lifecycle is:
//
//	idle -> running -> stopped|completed -> running ...
type State string

const (
	// StateIdle means no run has been started yet or the engine was reset.
	StateIdle State = "idle"
	// StateRunning means a run is in progress and ticks drive it.
	StateRunning State = "running"
	// StateStopped means the run was stopped by a request, a hand off or a fault.
	StateStopped State = "stopped"
	// StateCompleted means the last run finished its terminal sequence.
	StateCompleted State = "completed"
)

// PromptKind is the kind of prompt raised by the environment.
type PromptKind string

const (
	// PromptYesNo is a confirmation prompt, answer 0 is yes and 1 is no.
	PromptYesNo PromptKind = PromptKind(model.DialogueChoiceYesNo)
	// PromptList is a selection prompt with a list of answers.
	PromptList PromptKind = PromptKind(model.DialogueChoiceList)
)

// Progress is the position of the running quest.
type Progress struct {
	QuestID                 QuestID
	Sequence                uint8
	Step                    int
	DialogueChoicesSelected int
}

// Fault describes the error that stopped a run.
type Fault struct {
	QuestID  QuestID
	Sequence uint8
	Step     int
	// Task is the name of the task that faulted, empty if it faulted while compiling.
	Task  string
	Error string
}

// Definition is a summary of a loaded definition.
type Definition struct {
	ID        QuestID
	Name      string
	Kind      DefinitionKind
	Disabled  bool
	Sequences int
	Steps     int
}

// ValidationIssue is a problem found on a definition.
type ValidationIssue struct {
	QuestID QuestID
	// Sequence and Step are nil when the issue is about the whole definition.
	Sequence *uint8
	Step     *int
	// Severity is "error" when the definition will likely fault, "info" otherwise.
	Severity    string
	Description string
}

// Run is a journaled run.
type Run struct {
	ID         string
	QuestID    QuestID
	Status     string
	Sequence   uint8
	Step       int
	Reason     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
	// Tasks are only set when getting a single run.
	Tasks []TaskRecord
}

// TaskRecord is a finished task of a journaled run.
type TaskRecord struct {
	Sequence  uint8
	Step      int
	Index     int
	Name      string
	Result    string
	Error     string
	CreatedAt time.Time
}

// ListRunsOpts filters the journaled runs.
type ListRunsOpts struct {
	QuestID *QuestID
	// Limit is the max number of runs, newest first. 0 means no limit.
	Limit int
}

// StartRunOpts are the optional start positions of a run.
type StartRunOpts struct {
	Sequence *uint8
	Step     *int
}

func fromInternalProgress(p controller.Progress) Progress {
	return Progress{
		QuestID:                 p.QuestID,
		Sequence:                p.Sequence,
		Step:                    p.Step,
		DialogueChoicesSelected: p.DialogueChoicesSelected,
	}
}

func fromInternalFault(f *controller.Fault) *Fault {
	if f == nil {
		return nil
	}
	return &Fault{
		QuestID:  f.Cursor.QuestID,
		Sequence: f.Cursor.Sequence,
		Step:     f.Cursor.Step,
		Task:     f.Task,
		Error:    f.Err.Error(),
	}
}

func fromInternalDefinitions(defs []model.Definition) []Definition {
	res := make([]Definition, 0, len(defs))
	for _, d := range defs {
		res = append(res, Definition{
			ID:        d.ID,
			Name:      d.Name,
			Kind:      d.Kind,
			Disabled:  d.Disabled,
			Sequences: len(d.Sequences),
			Steps:     d.StepCount(),
		})
	}
	return res
}

func fromInternalIssues(issues []model.ValidationIssue) []ValidationIssue {
	res := make([]ValidationIssue, 0, len(issues))
	for _, i := range issues {
		res = append(res, ValidationIssue{
			QuestID:     i.QuestID,
			Sequence:    i.Sequence,
			Step:        i.Step,
			Severity:    string(i.Severity),
			Description: i.Description,
		})
	}
	return res
}

func fromInternalRun(r model.Run) Run {
	return Run{
		ID:         r.ID,
		QuestID:    r.QuestID,
		Status:     string(r.Status),
		Sequence:   r.Sequence,
		Step:       r.Step,
		Reason:     r.Reason,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func fromInternalRunDetail(d *history.RunDetail) Run {
	run := fromInternalRun(d.Run)
	run.Tasks = make([]TaskRecord, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		run.Tasks = append(run.Tasks, TaskRecord{
			Sequence:  t.Sequence,
			Step:      t.Step,
			Index:     t.Index,
			Name:      t.Name,
			Result:    t.Result,
			Error:     t.Error,
			CreatedAt: t.CreatedAt,
		})
	}
	return run
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrDataFault):
		return joinErrors(err, ErrDataFault)
	case errors.Is(err, model.ErrExecutionFault):
		return joinErrors(err, ErrExecutionFault)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
