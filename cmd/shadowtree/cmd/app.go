package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/go-drift/shadowtree/pkg/component"
	"github.com/go-drift/shadowtree/pkg/config"
	"github.com/go-drift/shadowtree/pkg/errors"
	"github.com/go-drift/shadowtree/pkg/observability"
	"github.com/go-drift/shadowtree/pkg/surface"
	"github.com/go-drift/shadowtree/pkg/tree"
	"github.com/go-drift/shadowtree/pkg/uimanager"
)

// app bundles the pieces every command needs.
type app struct {
	cfg      *config.Resolved
	logger   zerolog.Logger
	registry *prometheus.Registry
	manager  *uimanager.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Resolve(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newAppWith(cfg)
}

func newAppWith(cfg *config.Resolved) (*app, error) {
	level, err := observability.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger("shadowtree", level, nil)
	errors.SetHandler(errors.NewLogHandler(logger, level <= zerolog.DebugLevel))

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(cfg.Namespace, registry)
	if err != nil {
		return nil, err
	}
	components, err := component.NewRegistry(component.NewRootView(), component.NewView())
	if err != nil {
		return nil, err
	}
	manager, err := uimanager.New(components,
		surface.NewRegistry(surface.WithLogger(logger), surface.WithMetrics(metrics)),
		uimanager.WithLogger(logger),
		uimanager.WithMetrics(metrics),
		uimanager.WithPolicy(cfg.Policy),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		logger.Info().Str("path", cfg.Path).Msg("config loaded")
	}
	return &app{cfg: cfg, logger: logger, registry: registry, manager: manager}, nil
}

// startDemoSurface starts surface id with leaves views laid out in a row and
// commits them.
func (a *app) startDemoSurface(ctx context.Context, id tree.SurfaceID, leaves int) ([]*tree.Node, error) {
	const size = 10.0
	if _, err := a.manager.StartSurface(id, tree.RawProps{"width": size * float64(leaves), "height": size}); err != nil {
		return nil, err
	}
	nodes := make([]*tree.Node, leaves)
	for i := range nodes {
		tag := tree.Tag(int64(id)*1000 + int64(i) + 1)
		raw := tree.RawProps{"x": size * float64(i), "width": size, "height": size, "testID": "leaf-" + strconv.Itoa(i)}
		n, err := a.manager.CreateNode(tag, component.ViewName, id, raw, nil)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	if _, err := a.manager.CompleteSurface(ctx, id, nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// parseInt reads the value following flag at args[i].
func parseInt(args []string, i int, flag string) (int, error) {
	if i+1 >= len(args) {
		return 0, fmt.Errorf("%s requires a value", flag)
	}
	n, err := strconv.Atoi(args[i+1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value %q", flag, args[i+1])
	}
	return n, nil
}

// parseDuration reads the duration following flag at args[i].
func parseDuration(args []string, i int, flag string) (time.Duration, error) {
	if i+1 >= len(args) {
		return 0, fmt.Errorf("%s requires a value", flag)
	}
	d, err := time.ParseDuration(args[i+1])
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s value %q", flag, args[i+1])
	}
	return d, nil
}
