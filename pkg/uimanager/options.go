package uimanager

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/go-drift/shadowtree/pkg/commit"
	"github.com/go-drift/shadowtree/pkg/observability"
)

// Option configures a Manager.
type Option func(*Manager)

// WithDelegate installs the initial delegate.
func WithDelegate(d Delegate) Option {
	return func(m *Manager) { m.SetDelegate(d) }
}

// WithLogger sets the logger used by the manager and the engines it creates.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock sets the time source for commit timing and transaction
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMetrics sets the metrics sink passed to new engines.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithPolicy sets the retry policy for surfaces started by the manager.
func WithPolicy(p commit.Policy) Option {
	return func(m *Manager) { m.policy = p }
}
