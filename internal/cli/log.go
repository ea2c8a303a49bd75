// Package cli implements the labelsheet command-line interface.
//
// Commands lay out codes on label sheets and export them, print the preset
// catalog, compute EAN-13 check digits, edit code lists interactively and
// serve the same export over HTTP. The CLI is built with cobra and logs with
// charmbracelet/log.
//
// # Commands
//
//   - render: export codes from a file, flags or stdin as PDF, PNG or JSON
//   - presets: list the label-sheet presets
//   - check-digit: print EAN-13 check digits
//   - edit: interactive manual entry
//   - serve: HTTP API and offline asset cache
//   - cache: manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the starting log level (debug, info, warn, error).
// --verbose still forces debug.
const EnvLogLevel = "LABELSHEET_LOG_LEVEL"

// newLogger returns a logger writing to w with short timestamps
// ("14:32:01.45"). A valid level in EnvLogLevel replaces level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	if v := os.Getenv(EnvLogLevel); v != "" {
		if l, err := log.ParseLevel(v); err == nil {
			level = l
		}
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress measures one operation for a completion log line.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time as a "took" field, followed by kv.
func (p *progress) done(msg string, kv ...any) {
	fields := append([]any{"took", time.Since(p.start).Round(time.Millisecond)}, kv...)
	p.logger.Info(msg, fields...)
}

type ctxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() outside a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
