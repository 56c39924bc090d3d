// Package log is the logging surface of the questline engine SDK.
//
// The engine logs run lifecycle (start, completion, stop reasons), compiled
// steps, interrupt mismatches and faults. Any [Logger] implementation can be
// plugged through [lib.Config]; [Noop] is used when none is set.
//
// Hosts already using logrus can use [NewLogrus]:
//
//	logger := log.NewLogrus(logrus.NewEntry(logrus.StandardLogger()))
//	engine, err := lib.New(ctx, lib.Config{Logger: logger, ...})
package log

import (
	"github.com/sirupsen/logrus"

	"github.com/slok/questline/internal/log"
	loglogrus "github.com/slok/questline/internal/log/logrus"
)

// Logger is the logger the engine writes to. Faults are logged at error level
// with the progress cursor, interrupt mismatches at info level.
type Logger = log.Logger

// Kv are structured key-values attached to a Logger.
type Kv = log.Kv

// Noop discards everything.
var Noop = log.Noop

// NewLogrus returns a Logger backed by a logrus entry.
func NewLogrus(l *logrus.Entry) Logger {
	return loglogrus.NewLogrus(l)
}
