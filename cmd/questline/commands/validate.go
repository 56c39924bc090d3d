package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/questline/internal/app/validate"
	"github.com/slok/questline/internal/model"
)

type ValidateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	questID     uint16
	concurrency int
	format      string
}

// NewValidateCommand returns the validate command.
func NewValidateCommand(rootCmd *RootCommand, app *kingpin.Application) *ValidateCommand {
	c := &ValidateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("validate", "Validate the quest definitions.")
	c.Cmd.Flag("quest", "Only show the issues of this quest ID.").Uint16Var(&c.questID)
	c.Cmd.Flag("concurrency", "Number of definitions validated at the same time.").Default("4").IntVar(&c.concurrency)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ValidateCommand) Name() string { return c.Cmd.FullCommand() }

func (c ValidateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	reg, err := c.rootCmd.newDefinitionRegistry()
	if err != nil {
		return err
	}

	svc, err := validate.NewService(validate.ServiceConfig{
		Repository:  reg,
		Concurrency: c.concurrency,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	req := validate.Request{}
	if c.questID != 0 {
		id := model.QuestID(c.questID)
		req.QuestID = &id
	}

	res, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not validate definitions: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintIssues(res.Issues); err != nil {
		return fmt.Errorf("could not print issues: %w", err)
	}

	if res.HasErrors() {
		return fmt.Errorf("validation found %d errors", res.Errors)
	}

	return nil
}
