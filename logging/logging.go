// Package logging provides structured logging for both mailbox roles.
// Output goes through zerolog; the default console format is meant for
// interactive runs, the JSON format for anything that ships logs.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum severity emitted. Defaults to info.
	Level Level

	// Format is console or json. Defaults to console.
	Format Format

	// Output is the destination writer. Defaults to stdout.
	Output io.Writer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatConsole,
		Output: os.Stdout,
	}
}

// Logger wraps a zerolog.Logger with the field conventions the mailbox
// loops rely on.
type Logger struct {
	zl zerolog.Logger
}

// New creates a Logger from cfg, filling in defaults for zero fields.
func New(cfg Config) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}

	zl := zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(cfg.Level))
	return &Logger{zl: zl}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// WithTask returns a child logger tagged with a task ID.
func (l *Logger) WithTask(taskID string) *Logger {
	return &Logger{zl: l.zl.With().Str("task", taskID).Logger()}
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

// Error logs an error message with optional fields.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// Err logs err at error level, rendering stacks captured via pkg/errors.
func (l *Logger) Err(msg string, err error, fields ...map[string]interface{}) {
	emit(l.zl.Error().Stack().Err(err), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	if len(fields) > 0 && fields[0] != nil {
		ev = ev.Fields(fields[0])
	}
	ev.Msg(msg)
}

// --- Protocol lifecycle logging methods ---
// Called by the session and loop at protocol boundaries so both roles
// produce uniform output.

// TaskSubmitted logs a new submission.
func (l *Logger) TaskSubmitted(taskID string, size int) {
	l.Info("task_submitted", map[string]interface{}{
		"task": taskID,
		"size": size,
	})
}

// TaskClaimed logs a server claiming the oldest pending task.
func (l *Logger) TaskClaimed(taskID string, age time.Duration) {
	l.Info("task_claimed", map[string]interface{}{
		"task": taskID,
		"age":  age.String(),
	})
}

// TaskResolved logs a terminal task outcome.
func (l *Logger) TaskResolved(taskID, outcome string, elapsed time.Duration) {
	l.Info("task_resolved", map[string]interface{}{
		"task":    taskID,
		"outcome": outcome,
		"elapsed": elapsed.String(),
	})
}

// CommandAttempt logs one execution of the external command.
func (l *Logger) CommandAttempt(taskID string, attempt int) {
	l.Debug("command_attempt", map[string]interface{}{
		"task":    taskID,
		"attempt": attempt,
	})
}

// ErrorPublished logs a signed error artifact being written.
func (l *Logger) ErrorPublished(taskID, reason string) {
	l.Warn("error_published", map[string]interface{}{
		"task":   taskID,
		"reason": reason,
	})
}

// ObjectSwept logs a garbage-collected object.
func (l *Logger) ObjectSwept(name string, age time.Duration) {
	l.Debug("object_swept", map[string]interface{}{
		"object": name,
		"age":    age.String(),
	})
}

// TransportError logs a store failure at the loop boundary.
func (l *Logger) TransportError(op string, err error) {
	l.Err("transport_error", err, map[string]interface{}{
		"op": op,
	})
}
