package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-drift/shadowtree/pkg/debug"
	"github.com/go-drift/shadowtree/pkg/errors"
	"github.com/go-drift/shadowtree/pkg/tree"
)

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Serve the debug inspector over a demo surface",
		Long: `Start a demo surface and serve the debug inspector for it.

The inspector exposes /health, /surfaces, /surfaces/{id}/tree,
/surfaces/{id}/commits and /metrics. With --tick the demo surface keeps
committing state updates so the inspector shows live generations.

Flags:
  --port N        Listen port (default from config, 9393)
  --leaves N      Leaves on the demo surface (default 4)
  --tick DUR      Interval between demo updates (default 0, disabled)`,
		Usage: "shadowtree serve [--port N] [--leaves N] [--tick DUR]",
		Run:   runServe,
	})
}

type serveOptions struct {
	port   int
	leaves int
	tick   time.Duration
}

func parseServeArgs(args []string, defaultPort int) (serveOptions, error) {
	opts := serveOptions{port: defaultPort, leaves: 4}
	for i := 0; i < len(args); i++ {
		var err error
		switch args[i] {
		case "--port":
			opts.port, err = parseInt(args, i, "--port")
			i++
		case "--leaves":
			opts.leaves, err = parseInt(args, i, "--leaves")
			i++
		case "--tick":
			opts.tick, err = parseDuration(args, i, "--tick")
			i++
		default:
			err = fmt.Errorf("unknown flag %q", args[i])
		}
		if err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func runServe(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	opts, err := parseServeArgs(args, a.cfg.DebugPort)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	leaves, err := a.startDemoSurface(ctx, 1, opts.leaves)
	if err != nil {
		return err
	}

	server := debug.NewServer(a.manager.Surfaces(), a.registry, debug.WithLogger(a.logger))
	port, err := server.Start(opts.port)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Inspector listening on http://localhost:%d (Ctrl+C to stop)\n", port)

	if opts.tick > 0 && len(leaves) > 0 {
		go tickDemo(ctx, a, leaves, opts.tick)
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

// tickDemo updates the demo leaves round robin until ctx ends.
func tickDemo(ctx context.Context, a *app, leaves []*tree.Node, every time.Duration) {
	defer errors.Recover("cmd.serve.tick")

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			leaf := leaves[n%len(leaves)]
			if _, err := a.manager.UpdateState(ctx, leaf, n); err != nil {
				a.logger.Warn().Err(err).Int64("tag", int64(leaf.Tag())).Msg("demo update failed")
			}
		}
	}
}
