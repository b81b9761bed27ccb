// Package observability provides logging, metrics and trace sections for
// shadow tree operations.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a structured logger tagged with app. A nil writer means
// stderr with human-readable console formatting.
func NewLogger(app string, level zerolog.Level, w io.Writer) zerolog.Logger {
	if w == nil {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel converts a config level name to a zerolog level. Empty means
// info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}
