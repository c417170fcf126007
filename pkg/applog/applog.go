// Package applog carries the default-visible, leveled milestone logging
// channel spec §7 requires: INFO for milestones, WARN for recoverable
// anomalies, ERROR for fatals, with HTTP transport libraries pinned to
// WARN. This sits above pkg/logger's DEBUG-gated trace channel rather
// than replacing it — pkg/logger stays the low-level subprocess/HTTP-body
// trace, applog is what a user sees by default. Grounded on the
// teacher's pkg/workflow/logging, a log/slog wrapper with per-category
// level pinning; this trims it to a fixed pin table instead of an
// env-driven filter, since this module has no equivalent of
// GH_AW_LOG_FILTER to key off.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// pinned raises a component's minimum level above the package
// default of INFO. HTTP transport libraries are pinned to WARN so their
// routine request/response chatter doesn't compete with milestones.
var pinned = map[string]slog.Level{
	"http": slog.LevelWarn,
}

// Logger wraps slog.Logger with Milestone/Recoverable/Fatal methods for
// the INFO/WARN/ERROR levels spec §7 names, each taking a printf-style
// format string to match the
// call convention pkg/logger already uses throughout this module.
type Logger struct {
	*slog.Logger
}

// ForComponent returns a Logger for component, writing to stderr at
// Info level unless component is pinned to a higher level.
func ForComponent(component string) *Logger {
	return newLogger(component, os.Stderr)
}

// ForComponentWithWriter is ForComponent with an injectable writer, for
// tests that need to capture output.
func ForComponentWithWriter(component string, w io.Writer) *Logger {
	return newLogger(component, w)
}

func newLogger(component string, w io.Writer) *Logger {
	level := slog.LevelInfo
	if l, ok := pinned[component]; ok {
		level = l
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler).With("component", component)}
}

// Milestone logs an INFO-level progress message.
func (l *Logger) Milestone(format string, args ...any) {
	l.Logger.Info(fmt.Sprintf(format, args...))
}

// Recoverable logs a WARN-level anomaly that didn't abort the run.
func (l *Logger) Recoverable(format string, args ...any) {
	l.Logger.Warn(fmt.Sprintf(format, args...))
}

// Fatal logs an ERROR-level failure alongside the originating error.
func (l *Logger) Fatal(err error, format string, args ...any) {
	l.Logger.Error(fmt.Sprintf(format, args...), "error", err)
}
