// Package commit implements the optimistic commit protocol that publishes
// immutable tree snapshots for one surface.
//
// An Engine holds the surface's committed root and a generation counter. A
// commit snapshots both, runs a pure transform over the root, and publishes
// the result only if no other commit has advanced the generation in the
// meantime. Otherwise it re-reads the latest snapshot and runs the transform
// again, up to the policy's attempt limit:
//
//	res, err := engine.TryCommit(ctx, func(root *tree.Node) (*tree.Node, bool) {
//	    return root.ReplaceDescendant(oldLeaf, newLeaf)
//	}, time.Now())
//
// Readers call Root or Snapshot and never block: published trees are sealed
// and never change. Edits to disjoint subtrees still conflict on the
// generation counter, so a commit can in principle keep losing under
// sustained contention; the attempt limit turns that into an ErrCommitFailed
// result instead of a livelock.
package commit

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-drift/shadowtree/pkg/errors"
	"github.com/go-drift/shadowtree/pkg/observability"
	"github.com/go-drift/shadowtree/pkg/tree"
)

// Transform derives a candidate root from the latest committed root. It may
// run several times for one commit and must not have side effects. Returning
// false, or a nil root, aborts the commit.
type Transform func(root *tree.Node) (*tree.Node, bool)

// Status is the outcome of TryCommit.
type Status int

const (
	// StatusCommitted means a new root was published.
	StatusCommitted Status = iota
	// StatusUnchanged means the transform returned the root it was given;
	// nothing was published and the generation did not move.
	StatusUnchanged
	// StatusAborted means the transform declined to produce a root.
	StatusAborted
	// StatusFailed means the attempt budget ran out or the context ended.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return observability.StatusCommitted
	case StatusUnchanged:
		return observability.StatusUnchanged
	case StatusAborted:
		return observability.StatusAborted
	default:
		return observability.StatusFailed
	}
}

// Snapshot is a committed root together with the generation it was
// published at.
type Snapshot struct {
	Root       *tree.Node
	Generation uint64
}

// Result describes a finished TryCommit call.
type Result struct {
	Status Status
	// Root is the published root for StatusCommitted, otherwise the latest
	// root the transform saw.
	Root *tree.Node
	// Generation is the generation of Root.
	Generation uint64
	// Attempts counts transform runs.
	Attempts int
	// Conflicts counts attempts that lost the generation race.
	Conflicts int
	// Elapsed is measured from the caller's start time.
	Elapsed time.Duration
	// TransactionID identifies a published commit.
	TransactionID string
}

// Committed reports whether a new root was published.
func (r Result) Committed() bool {
	return r.Status == StatusCommitted
}

// Committer is the commit surface of an Engine handed to registry visitors.
type Committer interface {
	SurfaceID() tree.SurfaceID
	Root() *tree.Node
	Generation() uint64
	Snapshot() Snapshot
	TryCommit(ctx context.Context, transform Transform, startTime time.Time) (Result, error)
	Samples() []Sample
	FailedCommits() int
}

// Engine owns the committed root of one surface.
type Engine struct {
	surface tree.SurfaceID
	current atomic.Pointer[Snapshot]

	policy  Policy
	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
	samples *SampleBuffer
	newID   func() string
}

var _ Committer = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the retry policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock sets the time source used for elapsed time and samples.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSampleBuffer sets the buffer receiving commit samples.
func WithSampleBuffer(b *SampleBuffer) Option {
	return func(e *Engine) { e.samples = b }
}

// WithTransactionIDs sets the generator for transaction ids.
func WithTransactionIDs(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// New creates an engine for surface with root as generation zero. The root
// is sealed.
func New(surface tree.SurfaceID, root *tree.Node, opts ...Option) *Engine {
	e := &Engine{
		surface: surface,
		policy:  DefaultPolicy(),
		logger:  zerolog.Nop(),
		now:     time.Now,
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(e)
	}
	if e.samples == nil {
		e.samples = NewSampleBuffer(0)
	}
	e.logger = e.logger.With().Int64("surface", int64(surface)).Logger()
	root.Seal()
	e.current.Store(&Snapshot{Root: root})
	return e
}

// SurfaceID returns the surface this engine commits for.
func (e *Engine) SurfaceID() tree.SurfaceID { return e.surface }

// Snapshot returns the latest committed root and its generation.
func (e *Engine) Snapshot() Snapshot { return *e.current.Load() }

// Root returns the latest committed root.
func (e *Engine) Root() *tree.Node { return e.current.Load().Root }

// Generation returns the generation of the latest committed root.
func (e *Engine) Generation() uint64 { return e.current.Load().Generation }

// Samples returns recent commit samples, oldest first.
func (e *Engine) Samples() []Sample { return e.samples.Snapshot() }

// FailedCommits returns how many commits failed since the engine was
// created. Unlike Samples it is not bounded by the ring size.
func (e *Engine) FailedCommits() int { return e.samples.Failed() }

// Policy returns the engine's retry policy.
func (e *Engine) Policy() Policy { return e.policy }

// TryCommit runs transform against the latest root and publishes the result
// if the generation is unchanged, retrying on conflict. A failed commit
// returns StatusFailed and an error matching errors.ErrCommitFailed; a
// panicking transform returns an error of kind errors.KindPanic. Nothing is
// published in either case.
func (e *Engine) TryCommit(ctx context.Context, transform Transform, startTime time.Time) (res Result, err error) {
	maxAttempts := e.policy.attempts()
	defer func() {
		if err != nil {
			res.Status = StatusFailed
		}
		res.Elapsed = e.now().Sub(startTime)
		e.record(res)
	}()
	defer errors.RecoverAs("commit.TryCommit", &err)

	for {
		if cerr := ctx.Err(); cerr != nil {
			res.Status = StatusFailed
			return res, e.failure(cerr, res)
		}

		old := e.current.Load()
		res.Attempts++
		res.Root, res.Generation = old.Root, old.Generation

		next, ok := transform(old.Root)
		if !ok || next == nil {
			res.Status = StatusAborted
			return res, nil
		}
		if next == old.Root {
			res.Status = StatusUnchanged
			return res, nil
		}

		sealed := next.SealTracked()
		candidate := &Snapshot{Root: next, Generation: old.Generation + 1}
		if e.current.CompareAndSwap(old, candidate) {
			res.Status = StatusCommitted
			res.Root, res.Generation = next, candidate.Generation
			res.TransactionID = e.newID()
			return res, nil
		}
		// The candidate was never published; its new nodes still belong to
		// the caller.
		tree.Unseal(sealed)

		res.Conflicts++
		e.logger.Debug().
			Int("attempt", res.Attempts).
			Uint64("generation", old.Generation).
			Msg("commit lost generation race")

		if res.Attempts >= maxAttempts {
			res.Status = StatusFailed
			latest := e.current.Load()
			res.Root, res.Generation = latest.Root, latest.Generation
			return res, e.failure(nil, res)
		}
		if werr := e.wait(ctx, res.Conflicts); werr != nil {
			res.Status = StatusFailed
			return res, e.failure(werr, res)
		}
	}
}

func (e *Engine) wait(ctx context.Context, retry int) error {
	d := e.policy.delay(retry)
	if d <= 0 {
		runtime.Gosched()
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) failure(cause error, res Result) error {
	var inner error
	if cause != nil {
		inner = fmt.Errorf("%w after %d attempts: %w", errors.ErrCommitFailed, res.Attempts, cause)
	} else {
		inner = fmt.Errorf("%w after %d attempts (%d conflicts)", errors.ErrCommitFailed, res.Attempts, res.Conflicts)
	}
	e.logger.Warn().
		Int("attempts", res.Attempts).
		Int("conflicts", res.Conflicts).
		Err(cause).
		Msg("commit abandoned")
	return &errors.TreeError{
		Op:      "commit.TryCommit",
		Kind:    errors.KindCommitFailed,
		Surface: int64(e.surface),
		Err:     inner,
	}
}

func (e *Engine) record(res Result) {
	e.metrics.ObserveCommit(res.Status.String(), res.Attempts, res.Conflicts, res.Elapsed)
	e.samples.Add(sampleFrom(res, e.now()))
}
