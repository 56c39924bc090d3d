// Package task holds the executable unit of the engine and the queue that drives
// the tasks compiled for a single step.
package task

import "fmt"

// Result is what a task reports after being polled.
type Result int

const (
	// StillRunning keeps polling the same task.
	StillRunning Result = iota
	// TaskComplete advances to the next task of the queue.
	TaskComplete
	// NextStep forces the cursor to the next step.
	NextStep
	// SkipRemainingTasksForStep drops the rest of the queue and advances the step.
	SkipRemainingTasksForStep
	// End terminates the whole run.
	End
)

func (r Result) String() string {
	switch r {
	case StillRunning:
		return "still_running"
	case TaskComplete:
		return "task_complete"
	case NextStep:
		return "next_step"
	case SkipRemainingTasksForStep:
		return "skip_remaining_tasks_for_step"
	case End:
		return "end"
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Task is a unit of work with a two phase lifecycle.
//
// Start is called once when the task becomes active, returning false means there
// is nothing to do and the task is treated as complete. Update is called once per
// tick until it returns something other than StillRunning, it must be safe to poll
// repeatedly with no external change. A non nil error from either is a fault.
type Task interface {
	Start() (bool, error)
	Update() (Result, error)
	String() string
}

// ErrorHandler is implemented by tasks that want first refusal on environment
// error notifications. Returning true consumes the notification.
type ErrorHandler interface {
	OnEnvironmentError(message string) (bool, error)
}

// Names returns the names of the tasks in order.
func Names(tasks []Task) []string {
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.String())
	}
	return names
}
