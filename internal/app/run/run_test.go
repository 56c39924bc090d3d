package run_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/app/run"
	"github.com/slok/questline/internal/capability/fake"
	"github.com/slok/questline/internal/controller"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/step"
	"github.com/slok/questline/internal/storage/memory"
)

// stubController completes, faults or keeps running after a number of ticks.
type stubController struct {
	startErr    error
	ticksToEnd  int
	endState    controller.State
	tickErr     error
	envHandled  bool
	state       controller.State
	ticks       int
	stopReason  string
	envMessages []string
}

func (s *stubController) StartRun(ctx context.Context, id model.QuestID, sequence *uint8, stp *int) error {
	if s.startErr != nil {
		var f *controller.Fault
		if errors.As(s.startErr, &f) {
			s.state = controller.StateStopped
		}
		return s.startErr
	}
	s.state = controller.StateRunning
	return nil
}

func (s *stubController) Tick() error {
	s.ticks++
	if s.ticksToEnd > 0 && s.ticks >= s.ticksToEnd {
		s.state = s.endState
		return s.tickErr
	}
	return nil
}

func (s *stubController) Stop(reason string) {
	s.state = controller.StateStopped
	s.stopReason = reason
}

func (s *stubController) State() controller.State { return s.state }
func (s *stubController) CurrentProgress() (controller.Progress, bool) {
	return controller.Progress{}, false
}
func (s *stubController) Cursor() controller.Cursor    { return controller.Cursor{} }
func (s *stubController) LastFault() *controller.Fault { return nil }
func (s *stubController) StopReason() string           { return s.stopReason }
func (s *stubController) RunID() string                { return "run-1" }
func (s *stubController) NotifyEnvironmentError(message string) (bool, error) {
	s.envMessages = append(s.envMessages, message)
	return s.envHandled, nil
}

type stubWorld struct {
	advances int
	errors   []string
}

func (w *stubWorld) Advance() { w.advances++ }
func (w *stubWorld) DrainErrors() []string {
	errs := w.errors
	w.errors = nil
	return errs
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config run.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: run.ServiceConfig{Controller: &stubController{}},
		},
		"missing controller should fail": {
			config: run.ServiceConfig{},
			expErr: true,
		},
		"negative max ticks should fail": {
			config: run.ServiceConfig{Controller: &stubController{}, MaxTicks: -1},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := run.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		ctrl          *stubController
		world         *stubWorld
		maxTicks      int
		expErr        bool
		expState      controller.State
		expTicks      int
		expStopReason string
		expEnvErrors  []string
	}{
		"A run should be ticked until it completes.": {
			ctrl:     &stubController{ticksToEnd: 3, endState: controller.StateCompleted},
			expState: controller.StateCompleted,
			expTicks: 3,
		},
		"A faulted run should end the loop without error.": {
			ctrl:     &stubController{ticksToEnd: 2, endState: controller.StateStopped, tickErr: errors.New("whatever")},
			expState: controller.StateStopped,
			expTicks: 2,
		},
		"A run should be stopped after the max ticks.": {
			ctrl:          &stubController{},
			maxTicks:      4,
			expState:      controller.StateStopped,
			expTicks:      4,
			expStopReason: "max ticks reached",
		},
		"A start error should fail.": {
			ctrl:   &stubController{startErr: model.ErrNotFound},
			expErr: true,
		},
		"A start fault should be returned as a stopped result.": {
			ctrl:     &stubController{startErr: &controller.Fault{Err: model.ErrDataFault}},
			expState: controller.StateStopped,
			expTicks: 0,
		},
		"The world should be advanced and its errors offered to the controller.": {
			ctrl:         &stubController{ticksToEnd: 2, endState: controller.StateCompleted, envHandled: true},
			world:        &stubWorld{errors: []string{"e1", "e2"}},
			expState:     controller.StateCompleted,
			expTicks:     2,
			expEnvErrors: []string{"e1", "e2"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			cfg := run.ServiceConfig{
				Controller:   test.ctrl,
				TickInterval: time.Millisecond,
				MaxTicks:     test.maxTicks,
			}
			if test.world != nil {
				cfg.World = test.world
			}
			svc, err := run.NewService(cfg)
			require.NoError(err)

			res, err := svc.Run(context.Background(), run.Request{QuestID: 1})

			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(err)
			assert.Equal(test.expState, res.State)
			assert.Equal(test.expTicks, res.Ticks)
			assert.Equal(test.expStopReason, res.StopReason)
			assert.Equal("run-1", res.RunID)
			assert.Equal(test.expEnvErrors, test.ctrl.envMessages)
			if test.world != nil {
				assert.Equal(test.expTicks, test.world.advances)
			}
		})
	}
}

func TestService_RunInterrupted(t *testing.T) {
	require := require.New(t)

	ctrl := &stubController{}
	svc, err := run.NewService(run.ServiceConfig{Controller: ctrl, TickInterval: time.Hour})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Run(ctx, run.Request{QuestID: 1})
	require.NoError(err)
	require.Equal(controller.StateStopped, res.State)
	require.Equal("interrupted", res.StopReason)
	require.Equal(0, res.Ticks)
}

// clockWorld moves the clock forward on every advance.
type clockWorld struct {
	*fake.World
	now *time.Time
}

func (w clockWorld) Advance() {
	w.World.Advance()
	*w.now = w.now.Add(500 * time.Millisecond)
}

func TestService_RunOnFakeWorld(t *testing.T) {
	require := require.New(t)

	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	w, err := fake.NewWorld(fake.WorldConfig{TerritoryID: 1, Now: clock})
	require.NoError(err)

	dataID := uint32(99)
	def := model.Definition{
		ID:   3,
		Kind: model.DefinitionKindQuest,
		Sequences: []model.Sequence{
			{ID: 0, Steps: []model.Step{{Interaction: model.InteractionSay, ChatMessage: "hello"}}},
			{ID: model.TerminalSequence, Steps: []model.Step{
				{Interaction: model.InteractionCompleteQuest, DataID: &dataID, TerritoryID: 1, Position: &model.Vec3{X: 5}},
			}},
		},
	}
	w.Script(def)
	w.SetQuestProgress(3, model.QuestWork{Sequence: 0})

	reg, err := memory.NewDefinitionRegistry(memory.DefinitionRegistryConfig{Loader: memory.StaticLoader{def}})
	require.NoError(err)
	journal, err := memory.NewJournal(memory.JournalConfig{})
	require.NoError(err)

	compiler, err := step.NewCompiler(step.CompilerConfig{
		Services: step.Services{
			Movement:    w.Movement(),
			Combat:      w.Combat(),
			Gathering:   w,
			Interaction: w,
			Journal:     w,
			Teleport:    w,
			Environment: w,
		},
		Now: clock,
	})
	require.NoError(err)

	ctrl, err := controller.New(controller.Config{
		Definitions: reg,
		Compiler:    compiler,
		Movement:    w.Movement(),
		Combat:      w.Combat(),
		Environment: w,
		Journal:     journal,
		Now:         clock,
	})
	require.NoError(err)

	svc, err := run.NewService(run.ServiceConfig{
		Controller:   ctrl,
		World:        clockWorld{World: w, now: &now},
		TickInterval: time.Millisecond,
		MaxTicks:     200,
	})
	require.NoError(err)

	res, err := svc.Run(context.Background(), run.Request{QuestID: 3})
	require.NoError(err)

	require.Equal(controller.StateCompleted, res.State)
	require.Nil(res.Fault)
	require.True(w.IsQuestComplete(3))

	stored, err := journal.GetRun(context.Background(), res.RunID)
	require.NoError(err)
	require.Equal(model.RunStatusCompleted, stored.Status)
}
