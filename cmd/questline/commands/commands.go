package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/questline/internal/conventions"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/printer"
	storageio "github.com/slok/questline/internal/storage/io"
	"github.com/slok/questline/internal/storage/memory"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	DBPath         string
	DefinitionsDir string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	home := homedir.HomeDir()
	app.Flag("db-path", "Path to the SQLite run journal database file.").Default(conventions.JournalDBPath(home)).StringVar(&c.DBPath)
	app.Flag("definitions-dir", "Directory the quest definitions are loaded from.").Default(conventions.DefinitionsPath(home)).StringVar(&c.DefinitionsDir)

	return c
}

// newDefinitionRegistry returns a lazy registry of the definitions directory.
func (r RootCommand) newDefinitionRegistry() (*memory.DefinitionRegistry, error) {
	if _, err := os.Stat(r.DefinitionsDir); err != nil {
		return nil, fmt.Errorf("could not access definitions dir: %w", err)
	}

	loader := storageio.NewDefinitionYAMLRepository(os.DirFS(r.DefinitionsDir), storageio.DefaultPattern)
	reg, err := memory.NewDefinitionRegistry(memory.DefinitionRegistryConfig{
		Loader: loader,
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create definition registry: %w", err)
	}

	return reg, nil
}

func (r RootCommand) newPrinter(format string) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(r.Stdout)
	default:
		return printer.NewTablePrinter(r.Stdout)
	}
}
