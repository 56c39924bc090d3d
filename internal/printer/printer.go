package printer

import "github.com/slok/questline/internal/model"

// Printer knows how to print engine information in different formats.
type Printer interface {
	PrintDefinitions(defs []model.Definition) error
	PrintIssues(issues []model.ValidationIssue) error
	PrintRuns(runs []model.Run) error
	PrintRun(run model.Run, tasks []model.TaskRecord) error
	PrintMessage(msg string) error
}

var (
	_ Printer = &TablePrinter{}
	_ Printer = &JSONPrinter{}
)
