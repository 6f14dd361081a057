// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wmlog centralizes the structured logging used for the
// warn/trace diagnostics named in the process-wide configuration
// (software-warn, warn thresholds, trace, nm-for-trace).
package wmlog

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gviegas/wm/config"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(io.Discard)
	quiet  atomic.Bool
	trace  atomic.Bool
)

// Configure sets the destination writer and the quiet/trace toggles
// described by the process-wide options.
func Configure(w io.Writer, quietMode, traceMode bool) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logger = zerolog.New(w).With().Timestamp().Logger()
	quiet.Store(quietMode)
	trace.Store(traceMode)
}

// Apply installs the logging-related process options in one step:
// destination writer plus the quiet/trace toggles, and the start-up
// banner unless no-banner (or quiet) suppresses it.
func Apply(w io.Writer, opts config.Options) {
	Configure(w, opts.Quiet, opts.Trace)
	if !opts.NoBanner && !opts.Quiet {
		l := Named("core")
		l.Info().Msg("surface/window core starting")
	}
}

// Named returns a logger scoped to a subsystem name, e.g. "pool" or
// "windowstack".
func Named(name string) zerolog.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	return l.With().Str("component", name).Logger()
}

// Warn reports a condition matching one of the configured warn
// thresholds (e.g. an oversized AllocateBuffer request).
func Warn(component, msg string) {
	if quiet.Load() {
		return
	}
	l := Named(component)
	l.Warn().Msg(msg)
}

// Trace reports a trace-only diagnostic, gated on the trace toggle
// (and nm-for-trace, left to callers to pre-filter by name).
func Trace(component, msg string) {
	if !trace.Load() {
		return
	}
	l := Named(component)
	l.Trace().Msg(msg)
}
