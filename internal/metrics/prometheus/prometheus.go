package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slok/questline/internal/metrics"
	"github.com/slok/questline/internal/model"
)

const prefix = "questline"

// Recorder records the engine metrics on Prometheus.
type Recorder struct {
	runsStarted   *prometheus.CounterVec
	runsFinished  *prometheus.CounterVec
	stepsCompiled *prometheus.CounterVec
	compiledTasks *prometheus.HistogramVec
	tasksFinished *prometheus.CounterVec
	tickDuration  prometheus.Histogram
}

var _ metrics.Recorder = &Recorder{}

// NewRecorder returns a new Prometheus recorder registered on the registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "controller",
			Name:      "runs_started_total",
			Help:      "The number of quest runs started.",
		}, []string{"quest"}),

		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "controller",
			Name:      "runs_finished_total",
			Help:      "The number of quest runs finished by status.",
		}, []string{"quest", "status"}),

		stepsCompiled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "compiler",
			Name:      "steps_compiled_total",
			Help:      "The number of steps compiled by interaction.",
		}, []string{"interaction"}),

		compiledTasks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Subsystem: "compiler",
			Name:      "step_tasks",
			Help:      "The number of tasks compiled per step.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"interaction"}),

		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "queue",
			Name:      "tasks_finished_total",
			Help:      "The number of tasks finished by kind and result.",
		}, []string{"kind", "result"}),

		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: prefix,
			Subsystem: "controller",
			Name:      "tick_duration_seconds",
			Help:      "The duration of the controller ticks.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}

	reg.MustRegister(
		r.runsStarted,
		r.runsFinished,
		r.stepsCompiled,
		r.compiledTasks,
		r.tasksFinished,
		r.tickDuration,
	)

	return r
}

func (r *Recorder) RunStarted(questID model.QuestID) {
	r.runsStarted.WithLabelValues(quest(questID)).Inc()
}

func (r *Recorder) RunFinished(questID model.QuestID, status model.RunStatus) {
	r.runsFinished.WithLabelValues(quest(questID), string(status)).Inc()
}

func (r *Recorder) StepCompiled(interaction model.InteractionType, tasks int) {
	r.stepsCompiled.WithLabelValues(string(interaction)).Inc()
	r.compiledTasks.WithLabelValues(string(interaction)).Observe(float64(tasks))
}

func (r *Recorder) TaskFinished(kind string, result string) {
	r.tasksFinished.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) TickDuration(d time.Duration) {
	r.tickDuration.Observe(d.Seconds())
}

func quest(id model.QuestID) string { return strconv.Itoa(int(id)) }
