package task_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/task"
)

type recorder struct {
	calls []string
}

type testTask struct {
	name     string
	rec      *recorder
	trivial  bool
	startErr error
	results  []task.Result
	updErr   error
	handled  bool
}

func (t *testTask) Start() (bool, error) {
	t.rec.calls = append(t.rec.calls, "start:"+t.name)
	if t.startErr != nil {
		return false, t.startErr
	}
	return !t.trivial, nil
}

func (t *testTask) Update() (task.Result, error) {
	t.rec.calls = append(t.rec.calls, "update:"+t.name)
	if t.updErr != nil {
		return task.StillRunning, t.updErr
	}
	if len(t.results) == 0 {
		return task.TaskComplete, nil
	}
	r := t.results[0]
	t.results = t.results[1:]
	return r, nil
}

func (t *testTask) String() string { return t.name }

func (t *testTask) OnEnvironmentError(msg string) (bool, error) {
	return t.handled, nil
}

func TestQueue(t *testing.T) {
	errTest := errors.New("whatever")

	tests := map[string]struct {
		tasks      func(rec *recorder) []task.Task
		ticks      int
		expOutcome task.Outcome
		expErr     bool
		expCalls   []string
		expDone    []string
	}{
		"An empty queue should be complete on start.": {
			tasks:      func(rec *recorder) []task.Task { return nil },
			ticks:      0,
			expOutcome: task.OutcomeStepComplete,
		},

		"A queue of trivial tasks should be complete on start without updates.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec, trivial: true},
					&testTask{name: "b", rec: rec, trivial: true},
				}
			},
			ticks:      0,
			expOutcome: task.OutcomeStepComplete,
			expCalls:   []string{"start:a", "start:b"},
			expDone:    []string{"a:task_complete", "b:task_complete"},
		},

		"N tasks completing on their first update should drain in N ticks in order.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec},
					&testTask{name: "b", rec: rec},
					&testTask{name: "c", rec: rec},
				}
			},
			ticks:      3,
			expOutcome: task.OutcomeStepComplete,
			expCalls:   []string{"start:a", "update:a", "start:b", "update:b", "start:c", "update:c"},
			expDone:    []string{"a:task_complete", "b:task_complete", "c:task_complete"},
		},

		"Trivial tasks in the middle should be absorbed in the same tick.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec},
					&testTask{name: "b", rec: rec, trivial: true},
					&testTask{name: "c", rec: rec},
				}
			},
			ticks:      2,
			expOutcome: task.OutcomeStepComplete,
			expCalls:   []string{"start:a", "update:a", "start:b", "start:c", "update:c"},
			expDone:    []string{"a:task_complete", "b:task_complete", "c:task_complete"},
		},

		"A still running task should keep the cursor.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec, results: []task.Result{task.StillRunning, task.StillRunning}},
					&testTask{name: "b", rec: rec},
				}
			},
			ticks:      2,
			expOutcome: task.OutcomeRunning,
			expCalls:   []string{"start:a", "update:a", "update:a"},
		},

		"Next step should stop the queue without running remaining tasks.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec, results: []task.Result{task.NextStep}},
					&testTask{name: "b", rec: rec},
				}
			},
			ticks:      1,
			expOutcome: task.OutcomeNextStep,
			expCalls:   []string{"start:a", "update:a"},
			expDone:    []string{"a:next_step"},
		},

		"Skip remaining tasks should stop the queue.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec, results: []task.Result{task.SkipRemainingTasksForStep}},
					&testTask{name: "b", rec: rec},
				}
			},
			ticks:      1,
			expOutcome: task.OutcomeSkipStep,
			expCalls:   []string{"start:a", "update:a"},
			expDone:    []string{"a:skip_remaining_tasks_for_step"},
		},

		"End should stop the queue.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec},
					&testTask{name: "b", rec: rec, results: []task.Result{task.End}},
				}
			},
			ticks:      2,
			expOutcome: task.OutcomeEnd,
			expCalls:   []string{"start:a", "update:a", "start:b", "update:b"},
			expDone:    []string{"a:task_complete", "b:end"},
		},

		"A fault on start should be returned.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec, trivial: true},
					&testTask{name: "b", rec: rec, startErr: errTest},
				}
			},
			ticks:    0,
			expErr:   true,
			expCalls: []string{"start:a", "start:b"},
			expDone:  []string{"a:task_complete", "b:fault"},
		},

		"A fault on update should be returned.": {
			tasks: func(rec *recorder) []task.Task {
				return []task.Task{
					&testTask{name: "a", rec: rec, updErr: errTest},
				}
			},
			ticks:    1,
			expErr:   true,
			expCalls: []string{"start:a", "update:a"},
			expDone:  []string{"a:fault"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			rec := &recorder{}
			var done []string
			q := task.NewQueue(test.tasks(rec), func(i int, tk task.Task, res task.Result, err error) {
				if err != nil {
					done = append(done, tk.String()+":fault")
					return
				}
				done = append(done, tk.String()+":"+res.String())
			})

			outcome, err := q.Start()
			for i := 0; i < test.ticks && err == nil; i++ {
				outcome, err = q.Tick()
			}

			if test.expErr {
				require.Error(err)
				assert.ErrorIs(err, errTest)
			} else {
				require.NoError(err)
				assert.Equal(test.expOutcome, outcome)
			}
			assert.Equal(test.expCalls, rec.calls)
			assert.Equal(test.expDone, done)
		})
	}
}

func TestQueueEnvironmentError(t *testing.T) {
	tests := map[string]struct {
		task      task.Task
		expHandle bool
	}{
		"A task implementing the handler should be offered the error.": {
			task:      &testTask{name: "a", rec: &recorder{}, handled: true},
			expHandle: true,
		},

		"A task not implementing the handler should not handle the error.": {
			task:      task.WaitForever{},
			expHandle: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			q := task.NewQueue([]task.Task{test.task}, nil)
			_, err := q.Start()
			require.NoError(err)

			handled, err := q.OnEnvironmentError("Unable to execute command at this time.")
			require.NoError(err)
			require.Equal(test.expHandle, handled)
		})
	}
}

func TestDelay(t *testing.T) {
	require := require.New(t)

	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	d := task.NewDelay(2*time.Second, clock)
	needsUpdate, err := d.Start()
	require.NoError(err)
	require.True(needsUpdate)

	res, _ := d.Update()
	require.Equal(task.StillRunning, res)

	now = now.Add(2 * time.Second)
	res, _ = d.Update()
	require.Equal(task.TaskComplete, res)

	needsUpdate, err = task.NewDelay(0, clock).Start()
	require.NoError(err)
	require.False(needsUpdate)
}
