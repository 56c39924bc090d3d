// Package lib provides a Go SDK to embed the questline engine in a host.
//
// The host owns the frame loop and the live environment. It implements the
// capability services ([Movement], [Combat], [Gathering], [Interaction],
// [Journal], [Teleport] and [Environment]) and calls [Engine.OnTick] once per
// frame. The engine compiles each step of the running quest into tasks and
// drives them until the quest completes, faults or hands control off.
//
// # Quick Start
//
//	engine, err := lib.New(ctx, lib.Config{
//	    Services:       services,
//	    DefinitionsDir: "/path/to/definitions",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	if err := engine.StartRun(ctx, 65, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// On every host frame.
//	if err := engine.OnTick(); err != nil {
//	    fault := engine.LastFault()
//	    fmt.Printf("quest %d faulted at %d/%d: %s\n", fault.QuestID, fault.Sequence, fault.Step, fault.Error)
//	}
//
// # Definitions
//
// Definitions are YAML files discovered recursively under the definitions
// directory (or [Config].DefinitionsFS). [Engine.Reload] stops the running
// quest and loads them again, and every load is validated in the background.
// The issues are available with [Engine.ValidationIssues].
//
// # Interrupts
//
// Prompts raised by the environment are offered with [Engine.NotifyPrompt], the
// engine answers the ones the running step expects. Environment error messages
// are offered with [Engine.NotifyEnvironmentError] to the running task. An
// [Environment] that also implements [ErrorNotifier] is subscribed to for the
// duration of every run instead, its errors reach the task on the next tick.
//
// # Journal
//
// Every run and finished task is journaled, in memory by default or on SQLite
// when [Config].DBPath is set. Use [Engine.ListRuns] and [Engine.GetRun] to
// inspect them.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Quest, sequence, step or run does not exist.
//   - [ErrAlreadyExists]: Two definitions share the same ID.
//   - [ErrNotValid]: Invalid input or operation (e.g. starting while running).
//   - [ErrDataFault]: A step lacks data its kind requires.
//   - [ErrExecutionFault]: A task couldn't complete.
//
// # Thread Safety
//
// An [Engine] is safe for concurrent use from multiple goroutines, calls are
// serialized. Capability services are only called from the goroutine calling
// the engine.
package lib
