package cmd

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/shadowtree/pkg/commit"
	"github.com/go-drift/shadowtree/pkg/component"
	"github.com/go-drift/shadowtree/pkg/errors"
	"github.com/go-drift/shadowtree/pkg/tree"
)

func init() {
	RegisterCommand(&Command{
		Name:  "stress",
		Short: "Race concurrent state updates on one surface",
		Long: `Start one surface with a row of sibling leaves and run one writer per
leaf, each issuing state updates as fast as it can. Every writer edits its own
leaf, so every update must survive; the command fails if any was lost.

Flags:
  --workers N     Number of concurrent writers and leaves (default 8)
  --updates N     Updates issued by each writer (default 1000)
  --backoff DUR   Override the retry backoff (e.g. 50us)`,
		Usage: "shadowtree stress [--workers N] [--updates N] [--backoff DUR]",
		Run:   runStress,
	})
}

type stressOptions struct {
	workers int
	updates int
	backoff time.Duration
}

// stressReport summarizes one stress run.
type stressReport struct {
	Committed  int64
	Failed     int64
	Attempts   int64
	Conflicts  int64
	Generation uint64
	Nodes      int
	Lost       int
	Elapsed    time.Duration
}

func parseStressArgs(args []string) (stressOptions, error) {
	opts := stressOptions{workers: 8, updates: 1000, backoff: -1}
	for i := 0; i < len(args); i++ {
		var err error
		switch args[i] {
		case "--workers":
			opts.workers, err = parseInt(args, i, "--workers")
			i++
		case "--updates":
			opts.updates, err = parseInt(args, i, "--updates")
			i++
		case "--backoff":
			opts.backoff, err = parseDuration(args, i, "--backoff")
			i++
		default:
			err = fmt.Errorf("unknown flag %q", args[i])
		}
		if err != nil {
			return opts, err
		}
	}
	if opts.workers == 0 {
		return opts, fmt.Errorf("--workers must be at least 1")
	}
	return opts, nil
}

func runStress(args []string) error {
	opts, err := parseStressArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	if opts.backoff >= 0 {
		a.cfg.Policy.Backoff = opts.backoff
		if a, err = newAppWith(a.cfg); err != nil {
			return err
		}
	}

	report, err := stress(context.Background(), a, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Workers:     %d x %d updates\n", opts.workers, opts.updates)
	fmt.Fprintf(stdout, "Committed:   %d\n", report.Committed)
	fmt.Fprintf(stdout, "Failed:      %d\n", report.Failed)
	fmt.Fprintf(stdout, "Attempts:    %d\n", report.Attempts)
	fmt.Fprintf(stdout, "Conflicts:   %d\n", report.Conflicts)
	fmt.Fprintf(stdout, "Generation:  %d\n", report.Generation)
	fmt.Fprintf(stdout, "Nodes:       %d\n", report.Nodes)
	fmt.Fprintf(stdout, "Elapsed:     %s\n", report.Elapsed.Round(time.Millisecond))
	if report.Lost > 0 {
		return fmt.Errorf("%d leaves lost updates", report.Lost)
	}
	return nil
}

func stress(ctx context.Context, a *app, opts stressOptions) (stressReport, error) {
	const surfaceID tree.SurfaceID = 1

	leaves, err := a.startDemoSurface(ctx, surfaceID, opts.workers)
	if err != nil {
		return stressReport{}, err
	}
	engine, _ := a.manager.Surfaces().Get(surfaceID)
	base := engine.Generation()

	var (
		committed, failed, attempts, conflicts atomic.Int64
		wg                                     sync.WaitGroup
	)
	perLeaf := make([]uint64, len(leaves))
	start := time.Now()
	for idx, leaf := range leaves {
		wg.Add(1)
		go func(idx int, leaf *tree.Node) {
			defer wg.Done()
			defer errors.Recover("cmd.stress.worker")
			for i := 1; i <= opts.updates; i++ {
				res, err := a.manager.UpdateState(ctx, leaf, i)
				attempts.Add(int64(res.Attempts))
				conflicts.Add(int64(res.Conflicts))
				if err != nil || res.Status != commit.StatusCommitted {
					failed.Add(1)
					continue
				}
				committed.Add(1)
				perLeaf[idx]++
			}
		}(idx, leaf)
	}
	wg.Wait()

	snap := engine.Snapshot()
	report := stressReport{
		Committed:  committed.Load(),
		Failed:     failed.Load(),
		Attempts:   attempts.Load(),
		Conflicts:  conflicts.Load(),
		Generation: snap.Generation - base,
		Nodes:      snap.Root.Count(),
		Elapsed:    time.Since(start),
	}
	for idx, leaf := range leaves {
		n, ok := snap.Root.Find(leaf.Tag())
		if !ok {
			report.Lost++
			continue
		}
		if state, _ := n.State().(component.State); state.Revision != perLeaf[idx] {
			report.Lost++
		}
	}
	a.logger.Info().
		Int64("committed", report.Committed).
		Int64("conflicts", report.Conflicts).
		Uint64("generation", report.Generation).
		Msg("stress finished")
	return report, nil
}
