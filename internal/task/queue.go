package task

import "fmt"

// Outcome is what a queue reports to its owner after being driven.
type Outcome int

const (
	// OutcomeRunning means the active task is still running.
	OutcomeRunning Outcome = iota
	// OutcomeStepComplete means every task of the queue completed.
	OutcomeStepComplete
	// OutcomeNextStep means a task forced the step to advance.
	OutcomeNextStep
	// OutcomeSkipStep means a task skipped the remaining tasks of the step.
	OutcomeSkipStep
	// OutcomeEnd means a task ended the run.
	OutcomeEnd
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeStepComplete:
		return "step_complete"
	case OutcomeNextStep:
		return "next_step"
	case OutcomeSkipStep:
		return "skip_step"
	case OutcomeEnd:
		return "end"
	}
	return fmt.Sprintf("unknown(%d)", int(o))
}

// DoneFunc is called every time a task of the queue finishes, either with a
// result or with a fault.
type DoneFunc func(index int, t Task, result Result, err error)

// Queue drives the tasks compiled for one step strictly in order, one at a time.
type Queue struct {
	tasks   []Task
	current int
	started bool
	drained bool
	onDone  DoneFunc
}

// NewQueue returns a queue for the tasks. onDone is optional.
func NewQueue(tasks []Task, onDone DoneFunc) *Queue {
	if onDone == nil {
		onDone = func(int, Task, Result, error) {}
	}
	return &Queue{
		tasks:  tasks,
		onDone: onDone,
	}
}

// Start starts the first task. Tasks that have nothing to do are absorbed right
// away so an empty or all trivial queue reports step complete.
func (q *Queue) Start() (Outcome, error) {
	if q.started {
		return q.outcome(), nil
	}
	q.started = true
	return q.startFrom(0)
}

// Tick polls the active task once.
func (q *Queue) Tick() (Outcome, error) {
	if !q.started {
		return q.Start()
	}
	if q.drained {
		return OutcomeStepComplete, nil
	}

	t := q.tasks[q.current]
	res, err := t.Update()
	if err != nil {
		q.onDone(q.current, t, res, err)
		return OutcomeRunning, err
	}

	switch res {
	case StillRunning:
		return OutcomeRunning, nil
	case TaskComplete:
		q.onDone(q.current, t, res, nil)
		return q.startFrom(q.current + 1)
	case NextStep:
		q.onDone(q.current, t, res, nil)
		q.drained = true
		return OutcomeNextStep, nil
	case SkipRemainingTasksForStep:
		q.onDone(q.current, t, res, nil)
		q.drained = true
		return OutcomeSkipStep, nil
	case End:
		q.onDone(q.current, t, res, nil)
		q.drained = true
		return OutcomeEnd, nil
	}

	return OutcomeRunning, fmt.Errorf("task %s returned unknown result %d", t, res)
}

func (q *Queue) startFrom(i int) (Outcome, error) {
	for q.current = i; q.current < len(q.tasks); q.current++ {
		t := q.tasks[q.current]
		needsUpdate, err := t.Start()
		if err != nil {
			q.onDone(q.current, t, StillRunning, err)
			return OutcomeRunning, err
		}
		if needsUpdate {
			return OutcomeRunning, nil
		}
		q.onDone(q.current, t, TaskComplete, nil)
	}

	q.drained = true
	return OutcomeStepComplete, nil
}

func (q *Queue) outcome() Outcome {
	if q.drained {
		return OutcomeStepComplete
	}
	return OutcomeRunning
}

// Current returns the active task, nil when the queue is drained.
func (q *Queue) Current() Task {
	if q.drained || q.current >= len(q.tasks) {
		return nil
	}
	return q.tasks[q.current]
}

// Index returns the position of the active task.
func (q *Queue) Index() int { return q.current }

// Len returns the number of compiled tasks.
func (q *Queue) Len() int { return len(q.tasks) }

// Drained returns true once the queue will not run any more tasks.
func (q *Queue) Drained() bool { return q.drained }

// Tasks returns the compiled tasks.
func (q *Queue) Tasks() []Task { return q.tasks }

// OnEnvironmentError offers the notification to the active task.
func (q *Queue) OnEnvironmentError(message string) (bool, error) {
	t := q.Current()
	if t == nil || !q.started {
		return false, nil
	}
	h, ok := t.(ErrorHandler)
	if !ok {
		return false, nil
	}
	return h.OnEnvironmentError(message)
}
