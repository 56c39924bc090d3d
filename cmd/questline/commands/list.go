package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/questline/internal/app/list"
	"github.com/slok/questline/internal/model"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kindFilter string
	all        bool
	format     string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List the quest definitions.")
	c.Cmd.Flag("kind", "Filter by kind (quest, leve).").StringVar(&c.kindFilter)
	c.Cmd.Flag("all", "Include disabled definitions.").BoolVar(&c.all)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var kindFilter *model.DefinitionKind
	if c.kindFilter != "" {
		kind := model.DefinitionKind(strings.ToLower(c.kindFilter))
		switch kind {
		case model.DefinitionKindQuest, model.DefinitionKindLeve:
			kindFilter = &kind
		default:
			return fmt.Errorf("invalid kind filter: %s (must be: quest, leve)", c.kindFilter)
		}
	}

	reg, err := c.rootCmd.newDefinitionRegistry()
	if err != nil {
		return err
	}

	svc, err := list.NewService(list.ServiceConfig{
		Repository: reg,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	defs, err := svc.Run(ctx, list.Request{
		KindFilter:      kindFilter,
		IncludeDisabled: c.all,
	})
	if err != nil {
		return fmt.Errorf("could not list definitions: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintDefinitions(defs); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}
