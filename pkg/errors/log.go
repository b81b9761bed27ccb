package errors

import (
	"github.com/rs/zerolog"
)

// LogHandler is an ErrorHandler that writes errors to a zerolog logger.
// The zero value discards everything.
type LogHandler struct {
	// Logger receives the entries. A zero Logger is a no-op.
	Logger zerolog.Logger
	// Verbose attaches stack traces.
	Verbose bool
}

// NewLogHandler returns a LogHandler writing to logger.
func NewLogHandler(logger zerolog.Logger, verbose bool) *LogHandler {
	return &LogHandler{Logger: logger, Verbose: verbose}
}

// HandleError logs a TreeError. Commit exhaustion is a warning, everything
// else is an error.
func (h *LogHandler) HandleError(err *TreeError) {
	if err == nil {
		return
	}
	ev := h.Logger.Error()
	if err.Kind == KindCommitFailed {
		ev = h.Logger.Warn()
	}
	ev = ev.Str("op", err.Op).Stringer("kind", err.Kind)
	if err.Surface != 0 {
		ev = ev.Int64("surface", err.Surface)
	}
	if err.Tag != 0 {
		ev = ev.Int64("tag", err.Tag)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Err(err.Err).Msg("tree operation failed")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.Logger.Error().Interface("value", err.Value)
	if err.Op != "" {
		ev = ev.Str("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("recovered panic")
}
