package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/questline/internal/app/history"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage/sqlite"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID   string
	questID uint16
	limit   int
	format  string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "Show the journaled runs.")
	c.Cmd.Flag("run", "Show the details and tasks of this run ID.").StringVar(&c.runID)
	c.Cmd.Flag("quest", "Filter runs by quest ID.").Uint16Var(&c.questID)
	c.Cmd.Flag("limit", "Max number of runs to show, 0 shows all.").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	journal, err := sqlite.NewJournal(ctx, sqlite.JournalConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	defer journal.Close()

	svc, err := history.NewService(history.ServiceConfig{
		Repository: journal,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	p := c.rootCmd.newPrinter(c.format)

	if c.runID != "" {
		detail, err := svc.GetRun(ctx, c.runID)
		if err != nil {
			return fmt.Errorf("could not get run: %w", err)
		}
		if err := p.PrintRun(detail.Run, detail.Tasks); err != nil {
			return fmt.Errorf("could not print run: %w", err)
		}
		return nil
	}

	req := history.ListRequest{Limit: c.limit}
	if c.questID != 0 {
		id := model.QuestID(c.questID)
		req.QuestID = &id
	}

	runs, err := svc.ListRuns(ctx, req)
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	if err := p.PrintRuns(runs); err != nil {
		return fmt.Errorf("could not print runs: %w", err)
	}

	return nil
}
