package task

import (
	"fmt"
	"time"
)

// Delay waits for a fixed duration.
type Delay struct {
	Duration time.Duration
	Now      func() time.Time

	until time.Time
}

// NewDelay returns a delay task using the given clock.
func NewDelay(d time.Duration, now func() time.Time) *Delay {
	return &Delay{Duration: d, Now: now}
}

func (t *Delay) Start() (bool, error) {
	if t.Duration <= 0 {
		return false, nil
	}
	t.until = t.Now().Add(t.Duration)
	return true, nil
}

func (t *Delay) Update() (Result, error) {
	if t.Now().Before(t.until) {
		return StillRunning, nil
	}
	return TaskComplete, nil
}

func (t *Delay) String() string { return fmt.Sprintf("Wait(%s)", t.Duration) }

// WaitCondition completes once the predicate holds.
type WaitCondition struct {
	Name      string
	Condition func() bool
}

// NewWaitCondition returns a task waiting on the predicate.
func NewWaitCondition(name string, cond func() bool) *WaitCondition {
	return &WaitCondition{Name: name, Condition: cond}
}

func (t *WaitCondition) Start() (bool, error) { return !t.Condition(), nil }

func (t *WaitCondition) Update() (Result, error) {
	if t.Condition() {
		return TaskComplete, nil
	}
	return StillRunning, nil
}

func (t *WaitCondition) String() string { return t.Name }

// WaitForever never completes on its own, the step has to be advanced externally.
type WaitForever struct{}

func (WaitForever) Start() (bool, error)    { return true, nil }
func (WaitForever) Update() (Result, error) { return StillRunning, nil }
func (WaitForever) String() string          { return "WaitForever" }

// Signal returns a fixed result on its first update.
type Signal struct {
	Result Result
}

func (Signal) Start() (bool, error)      { return true, nil }
func (t Signal) Update() (Result, error) { return t.Result, nil }

func (t Signal) String() string {
	switch t.Result {
	case NextStep:
		return "NextStep"
	case End:
		return "End"
	case SkipRemainingTasksForStep:
		return "SkipStep"
	}
	return fmt.Sprintf("Signal(%s)", t.Result)
}

// NewNextStep returns a task forcing the cursor to the next step.
func NewNextStep() Task { return Signal{Result: NextStep} }

// NewEnd returns a task ending the run.
func NewEnd() Task { return Signal{Result: End} }

// NewSkipStep returns a task dropping the rest of the step.
func NewSkipStep() Task { return Signal{Result: SkipRemainingTasksForStep} }

// Func adapts a function as a task that completes within Start.
type Func struct {
	Name string
	Fn   func() error
}

func (t Func) Start() (bool, error)  { return false, t.Fn() }
func (Func) Update() (Result, error) { return TaskComplete, nil }
func (t Func) String() string        { return t.Name }
