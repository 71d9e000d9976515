package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 2 artifacts (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability
// =============================================================================

// logHooks writes observability events to the debug log.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnMutation(op string, err error) {
	if err != nil {
		h.logger.Debug("store", "op", op, "err", err)
		return
	}
	h.logger.Debug("store", "op", op)
}

func (h logHooks) OnLayoutStart(persons int) {
	h.logger.Debug("layout start", "persons", persons)
}

func (h logHooks) OnLayoutComplete(persons int, d time.Duration, degraded int) {
	h.logger.Debug("layout done", "persons", persons, "took", d.Round(time.Microsecond), "degraded", degraded)
}

func (h logHooks) OnLoad(_ context.Context, backend, location string, d time.Duration, err error) {
	h.logger.Debug("load", "backend", backend, "location", location, "took", d.Round(time.Microsecond), "err", err)
}

func (h logHooks) OnSave(_ context.Context, backend, location string, d time.Duration, err error) {
	h.logger.Debug("save", "backend", backend, "location", location, "took", d.Round(time.Microsecond), "err", err)
}
