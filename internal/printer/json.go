package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/questline/internal/model"
)

// JSONPrinter prints engine information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// definitionItem represents a definition in the list output (subset of fields).
type definitionItem struct {
	ID        uint16 `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Sequences int    `json:"sequences"`
	Steps     int    `json:"steps"`
	Disabled  bool   `json:"disabled"`
}

type issueItem struct {
	QuestID     uint16 `json:"quest_id"`
	Sequence    *uint8 `json:"sequence"`
	Step        *int   `json:"step"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type runItem struct {
	ID         string     `json:"id"`
	QuestID    uint16     `json:"quest_id"`
	Status     string     `json:"status"`
	Sequence   uint8      `json:"sequence"`
	Step       int        `json:"step"`
	Reason     string     `json:"reason,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

type taskItem struct {
	Sequence  uint8     `json:"sequence"`
	Step      int       `json:"step"`
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// runOutput represents a run with its tasks.
type runOutput struct {
	runItem
	Tasks []taskItem `json:"tasks"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintDefinitions prints definitions in JSON format with a subset of fields.
func (j *JSONPrinter) PrintDefinitions(defs []model.Definition) error {
	items := make([]definitionItem, len(defs))
	for i, d := range defs {
		items[i] = definitionItem{
			ID:        uint16(d.ID),
			Name:      d.Name,
			Kind:      string(d.Kind),
			Sequences: len(d.Sequences),
			Steps:     d.StepCount(),
			Disabled:  d.Disabled,
		}
	}

	return j.encode(items)
}

// PrintIssues prints validation issues in JSON format.
func (j *JSONPrinter) PrintIssues(issues []model.ValidationIssue) error {
	items := make([]issueItem, len(issues))
	for i, is := range issues {
		items[i] = issueItem{
			QuestID:     uint16(is.QuestID),
			Sequence:    is.Sequence,
			Step:        is.Step,
			Severity:    string(is.Severity),
			Description: is.Description,
		}
	}

	return j.encode(items)
}

// PrintRuns prints journaled runs in JSON format.
func (j *JSONPrinter) PrintRuns(runs []model.Run) error {
	items := make([]runItem, len(runs))
	for i, r := range runs {
		items[i] = newRunItem(r)
	}

	return j.encode(items)
}

// PrintRun prints a run with its finished tasks in JSON format.
func (j *JSONPrinter) PrintRun(run model.Run, tasks []model.TaskRecord) error {
	output := runOutput{
		runItem: newRunItem(run),
		Tasks:   make([]taskItem, len(tasks)),
	}
	for i, t := range tasks {
		output.Tasks[i] = taskItem{
			Sequence:  t.Sequence,
			Step:      t.Step,
			Index:     t.Index,
			Name:      t.Name,
			Result:    t.Result,
			Error:     t.Error,
			CreatedAt: t.CreatedAt.UTC(),
		}
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRunItem(r model.Run) runItem {
	item := runItem{
		ID:        r.ID,
		QuestID:   uint16(r.QuestID),
		Status:    string(r.Status),
		Sequence:  r.Sequence,
		Step:      r.Step,
		Reason:    r.Reason,
		Error:     r.Error,
		StartedAt: r.StartedAt.UTC(),
	}
	if r.FinishedAt != nil {
		utcTime := r.FinishedAt.UTC()
		item.FinishedAt = &utcTime
	}
	return item
}
