package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/slok/questline/internal/model"
)

// TablePrinter prints engine information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintDefinitions prints definitions in a table format.
func (t *TablePrinter) PrintDefinitions(defs []model.Definition) error {
	if len(defs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tKIND\tSEQUENCES\tSTEPS\tDISABLED")
	for _, d := range defs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", d.ID, d.Name, d.Kind, len(d.Sequences), d.StepCount(), yesNo(d.Disabled))
	}

	return nil
}

// PrintIssues prints validation issues in a table format.
func (t *TablePrinter) PrintIssues(issues []model.ValidationIssue) error {
	if len(issues) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "QUEST\tSEQUENCE\tSTEP\tSEVERITY\tDESCRIPTION")
	for _, i := range issues {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i.QuestID, optional(i.Sequence), optional(i.Step), i.Severity, i.Description)
	}

	return nil
}

// PrintRuns prints journaled runs in a table format.
func (t *TablePrinter) PrintRuns(runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	now := time.Now()
	fmt.Fprintln(tw, "ID\tQUEST\tSTATUS\tPOSITION\tSTARTED\tDURATION\tREASON")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d/%d\t%s\t%s\t%s\n", r.ID, r.QuestID, r.Status, r.Sequence, r.Step, Age(now, r.StartedAt), RunDuration(r), r.Reason)
	}

	return nil
}

// PrintRun prints a run with its finished tasks.
func (t *TablePrinter) PrintRun(run model.Run, tasks []model.TaskRecord) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", run.ID)
	fmt.Fprintf(t.writer, "Quest:      %d\n", run.QuestID)
	fmt.Fprintf(t.writer, "Status:     %s\n", run.Status)
	fmt.Fprintf(t.writer, "Position:   sequence %d step %d\n", run.Sequence, run.Step)
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(run.StartedAt))

	if run.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:   %s\n", FormatTimestamp(*run.FinishedAt))
	}
	fmt.Fprintf(t.writer, "Duration:   %s\n", RunDuration(run))
	if run.Reason != "" {
		fmt.Fprintf(t.writer, "Reason:     %s\n", run.Reason)
	}
	if run.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", run.Error)
	}

	if len(tasks) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "SEQUENCE\tSTEP\tTASK\tNAME\tRESULT\tERROR")
	for _, r := range tasks {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\n", r.Sequence, r.Step, r.Index, r.Name, r.Result, r.Error)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optional[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
