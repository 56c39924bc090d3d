package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apprun "github.com/slok/questline/internal/app/run"
	"github.com/slok/questline/internal/capability/fake"
	"github.com/slok/questline/internal/controller"
	"github.com/slok/questline/internal/conventions"
	metricsprometheus "github.com/slok/questline/internal/metrics/prometheus"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
	"github.com/slok/questline/internal/storage/sqlite"
	"github.com/slok/questline/internal/validation"
	"github.com/slok/questline/internal/watch"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	questID           uint16
	sequence          int
	step              int
	tickInterval      time.Duration
	maxTicks          int
	watch             bool
	chain             bool
	metricsListenAddr string
	format            string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run a quest definition on a simulated world.")
	c.Cmd.Flag("quest", "The quest ID to run.").Required().Uint16Var(&c.questID)
	c.Cmd.Flag("sequence", "Sequence to start at, by default the first declared one.").Default("-1").IntVar(&c.sequence)
	c.Cmd.Flag("step", "Step index to start at inside the sequence.").Default("-1").IntVar(&c.step)
	c.Cmd.Flag("tick-interval", "Time between engine ticks.").Default("100ms").DurationVar(&c.tickInterval)
	c.Cmd.Flag("max-ticks", "Stop the run after this many ticks, 0 means no limit.").Default("0").IntVar(&c.maxTicks)
	c.Cmd.Flag("watch", "Reload and revalidate the definitions when they change.").BoolVar(&c.watch)
	c.Cmd.Flag("chain", "Start the next quest declared by a completed quest.").BoolVar(&c.chain)
	c.Cmd.Flag("metrics-listen-address", "Address to serve Prometheus metrics on, empty disables it.").Default(conventions.DefaultMetricsListenAddress).StringVar(&c.metricsListenAddr)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	req := apprun.Request{QuestID: model.QuestID(c.questID)}
	if c.sequence >= 0 {
		if c.sequence > int(model.TerminalSequence) {
			return fmt.Errorf("invalid sequence %d", c.sequence)
		}
		seq := uint8(c.sequence)
		req.Sequence = &seq
	}
	if c.step >= 0 {
		stp := c.step
		req.Step = &stp
	}

	reg, err := c.rootCmd.newDefinitionRegistry()
	if err != nil {
		return err
	}

	def, err := reg.GetDefinition(ctx, req.QuestID)
	if err != nil {
		return fmt.Errorf("could not get definition: %w", err)
	}
	if len(def.Sequences) == 0 {
		return fmt.Errorf("quest %s has no sequences", def)
	}

	// Simulated world scripted with every definition so chained quests can run too.
	world, err := fake.NewWorld(fake.WorldConfig{
		TerritoryID: startTerritory(*def),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create world: %w", err)
	}
	defs, err := reg.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("could not list definitions: %w", err)
	}
	for _, d := range defs {
		world.Script(d)
	}
	startSeq := def.Sequences[0].ID
	if req.Sequence != nil {
		startSeq = *req.Sequence
	}
	world.SetQuestProgress(def.ID, model.QuestWork{Sequence: startSeq})

	journal, err := sqlite.NewJournal(ctx, sqlite.JournalConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	defer journal.Close()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	recorder := metricsprometheus.NewRecorder(promReg)

	compiler, err := step.NewCompiler(step.CompilerConfig{
		Services: step.Services{
			Movement:    world.Movement(),
			Combat:      world.Combat(),
			Gathering:   world,
			Interaction: world,
			Journal:     world,
			Teleport:    world,
			Environment: world,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create compiler: %w", err)
	}

	ctrl, err := controller.New(controller.Config{
		Definitions:    reg,
		Reloader:       reg,
		Compiler:       compiler,
		Movement:       world.Movement(),
		Combat:         world.Combat(),
		Environment:    world,
		Journal:        journal,
		Metrics:        recorder,
		ChainNextQuest: c.chain,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}

	validator, err := validation.NewWorker(validation.WorkerConfig{
		Definitions: reg,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create validation worker: %w", err)
	}
	validator.Start(ctx)

	svc, err := apprun.NewService(apprun.ServiceConfig{
		Controller:   ctrl,
		World:        world,
		TickInterval: c.tickInterval,
		MaxTicks:     c.maxTicks,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	var g run.Group

	// Quest run, the group ends when the run ends.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				res, err := svc.Run(ctx, req)
				if err != nil {
					return err
				}
				return c.printResult(context.WithoutCancel(ctx), journal, res)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Metrics.
	if c.metricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle(conventions.MetricsPath, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		server := &http.Server{
			Addr:              c.metricsListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Add(
			func() error {
				logger.Infof("Serving metrics on %s%s", c.metricsListenAddr, conventions.MetricsPath)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server failed: %w", err)
				}
				return nil
			},
			func(_ error) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(ctx)
			},
		)
	}

	// Definitions watcher. The running quest keeps the definition it started with.
	if c.watch {
		watcher, err := watch.NewWatcher(watch.WatcherConfig{
			Dir: c.rootCmd.DefinitionsDir,
			Reloader: watch.ReloaderFunc(func(ctx context.Context) error {
				if err := reg.Reload(ctx); err != nil {
					return err
				}
				validator.Start(ctx)
				return nil
			}),
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("could not create watcher: %w", err)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				return watcher.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func (c RunCommand) printResult(ctx context.Context, journal *sqlite.Journal, res *apprun.Result) error {
	p := c.rootCmd.newPrinter(c.format)

	if res.RunID != "" {
		r, err := journal.GetRun(ctx, res.RunID)
		if err != nil {
			return fmt.Errorf("could not get run: %w", err)
		}
		tasks, err := journal.ListTaskRecords(ctx, res.RunID)
		if err != nil {
			return fmt.Errorf("could not list run tasks: %w", err)
		}
		if err := p.PrintRun(*r, tasks); err != nil {
			return fmt.Errorf("could not print run: %w", err)
		}
	}

	if res.Fault != nil {
		return fmt.Errorf("run faulted: %w", res.Fault)
	}

	return nil
}

// startTerritory is the territory of the first step that declares one.
func startTerritory(def model.Definition) uint16 {
	for _, ref := range def.AllSteps() {
		if ref.Step.TerritoryID != 0 {
			return ref.Step.TerritoryID
		}
	}
	return 1
}
