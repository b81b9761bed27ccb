// Package uimanager is the public facade over shadow trees. It composes
// component descriptors, which produce new immutable node data, with the
// per-surface commit engines that publish it, and notifies a Delegate.
//
// Mutations flow one way: descriptor, then commit, then delegate. Layout
// queries read the committed root directly and never take a lock.
package uimanager

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-drift/shadowtree/pkg/commit"
	"github.com/go-drift/shadowtree/pkg/component"
	"github.com/go-drift/shadowtree/pkg/errors"
	"github.com/go-drift/shadowtree/pkg/observability"
	"github.com/go-drift/shadowtree/pkg/surface"
	"github.com/go-drift/shadowtree/pkg/tree"
)

// Manager creates, clones and commits shadow nodes for every surface.
type Manager struct {
	components *component.Registry
	surfaces   *surface.Registry
	delegate   atomic.Pointer[delegateHolder]

	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
	policy  commit.Policy
}

// New returns a manager over the given descriptor and surface registries.
// Both are required.
func New(components *component.Registry, surfaces *surface.Registry, opts ...Option) (*Manager, error) {
	if components == nil || surfaces == nil {
		return nil, errors.New("uimanager.New", errors.KindInvalidArgument, "component and surface registries are required")
	}
	m := &Manager{
		components: components,
		surfaces:   surfaces,
		logger:     zerolog.Nop(),
		now:        time.Now,
		policy:     commit.DefaultPolicy(),
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Components returns the descriptor registry.
func (m *Manager) Components() *component.Registry { return m.components }

// Surfaces returns the surface registry.
func (m *Manager) Surfaces() *surface.Registry { return m.surfaces }

// Delegate returns the current delegate, or nil.
func (m *Manager) Delegate() Delegate {
	if h := m.delegate.Load(); h != nil {
		return h.d
	}
	return nil
}

// SetDelegate replaces the delegate. Passing nil clears it; calls that
// would notify a delegate are then skipped.
func (m *Manager) SetDelegate(d Delegate) {
	if d == nil {
		m.delegate.Store(nil)
		return
	}
	m.delegate.Store(&delegateHolder{d: d})
}

// StartSurface creates the surface's root node from rootProps and registers
// a commit engine for it. The root's tag equals the surface id. Root creation
// is silent: the delegate's DidCreateShadowNode only sees nodes made by
// CreateNode.
func (m *Manager) StartSurface(id tree.SurfaceID, rootProps tree.RawProps) (*tree.Node, error) {
	defer observability.StartSection(m.logger, "uimanager.StartSurface").End()

	root, err := m.createNode(tree.Tag(id), component.RootViewName, id, rootProps, nil)
	if err != nil {
		return nil, err
	}
	engine := commit.New(id, root,
		commit.WithPolicy(m.policy),
		commit.WithLogger(m.logger),
		commit.WithMetrics(m.metrics),
		commit.WithClock(m.now),
	)
	if err := m.surfaces.Register(engine); err != nil {
		return nil, err
	}
	m.logger.Info().Int64("surface", int64(id)).Msg("surface started")
	return engine.Root(), nil
}

// StopSurface unregisters the surface. Its last committed tree stays valid
// for readers that still hold it.
func (m *Manager) StopSurface(id tree.SurfaceID) error {
	defer observability.StartSection(m.logger, "uimanager.StopSurface").End()

	if _, ok := m.surfaces.Unregister(id); !ok {
		return m.report(errors.New("uimanager.StopSurface", errors.KindSurfaceNotFound, "no surface %d", id).
			WithSurface(int64(id)))
	}
	m.logger.Info().Int64("surface", int64(id)).Msg("surface stopped")
	return nil
}

// CreateNode builds a new builder-phase node of component type name and
// notifies the delegate. An unknown name fails with an error matching
// errors.ErrComponentNotFound.
func (m *Manager) CreateNode(tag tree.Tag, name string, surfaceID tree.SurfaceID, raw tree.RawProps, target tree.EventTarget) (*tree.Node, error) {
	defer observability.StartSection(m.logger, "uimanager.CreateNode").End()

	node, err := m.createNode(tag, name, surfaceID, raw, target)
	if err != nil {
		return nil, err
	}
	if d := m.Delegate(); d != nil {
		d.DidCreateShadowNode(node)
	}
	return node, nil
}

func (m *Manager) createNode(tag tree.Tag, name string, surfaceID tree.SurfaceID, raw tree.RawProps, target tree.EventTarget) (*tree.Node, error) {
	desc, err := m.components.At(name)
	if err != nil {
		return nil, m.report(errors.New("uimanager.CreateNode", errors.KindComponentNotFound, "%q", name).
			WithSurface(int64(surfaceID)).WithTag(int64(tag)))
	}
	props := desc.CloneProps(nil, raw)
	node := desc.CreateShadowNode(tree.Fields{
		Tag:          tag,
		Surface:      surfaceID,
		Props:        props,
		EventEmitter: desc.CreateEventEmitter(target, tag),
		State:        desc.CreateInitialState(props),
	})
	m.metrics.NodeCreated()
	return node, nil
}

// CloneNode returns a clone of node with the given children. When raw is
// non-nil the props are re-derived from node's props and raw; otherwise they
// are kept.
func (m *Manager) CloneNode(node *tree.Node, children tree.Children, raw tree.RawProps) (*tree.Node, error) {
	defer observability.StartSection(m.logger, "uimanager.CloneNode").End()

	desc, err := m.descriptorOf("uimanager.CloneNode", node)
	if err != nil {
		return nil, err
	}
	f := tree.Fragment{Children: tree.Some(children)}
	if raw != nil {
		f.Props = tree.Some(desc.CloneProps(node.Props(), raw))
	}
	return desc.CloneShadowNode(node, f), nil
}

// AppendChild appends child to parent. Only legal while parent is in the
// builder phase; a published parent fails with an error matching
// errors.ErrIllegalMutation.
func (m *Manager) AppendChild(parent, child *tree.Node) error {
	defer observability.StartSection(m.logger, "uimanager.AppendChild").End()

	desc, err := m.descriptorOf("uimanager.AppendChild", parent)
	if err != nil {
		return err
	}
	if err := desc.AppendChild(parent, child); err != nil {
		return m.report(err)
	}
	return nil
}

// CompleteSurface publishes rootChildren as the children of the surface's
// root and then tells the delegate the transaction is finished.
func (m *Manager) CompleteSurface(ctx context.Context, id tree.SurfaceID, rootChildren []*tree.Node) (commit.Result, error) {
	defer observability.StartSection(m.logger, "uimanager.CompleteSurface").End()

	start := m.now()
	children := tree.ChildrenOf(rootChildren...)
	res, err := m.commit(ctx, "uimanager.CompleteSurface", id, func(root *tree.Node) (*tree.Node, bool) {
		return root.Clone(tree.Fragment{Children: tree.Some(children)}), true
	}, start)
	if err != nil {
		return res, err
	}
	if d := m.Delegate(); d != nil {
		d.DidFinishTransaction(id, rootChildren, m.now())
	}
	return res, nil
}

// SetNativeProps applies raw on top of the props of node in the latest
// committed tree and commits the result. If node is no longer in the tree
// the commit is aborted and the result says so.
func (m *Manager) SetNativeProps(ctx context.Context, node *tree.Node, raw tree.RawProps) (commit.Result, error) {
	defer observability.StartSection(m.logger, "uimanager.SetNativeProps").End()

	start := m.now()
	desc, err := m.descriptorOf("uimanager.SetNativeProps", node)
	if err != nil {
		return commit.Result{Status: commit.StatusFailed}, err
	}
	return m.commit(ctx, "uimanager.SetNativeProps", node.Surface(), func(root *tree.Node) (*tree.Node, bool) {
		return root.Update(node.Tag(), func(current *tree.Node) *tree.Node {
			return current.Clone(tree.Fragment{Props: tree.Some(desc.CloneProps(current.Props(), raw))})
		})
	}, start)
}

// UpdateState advances the state of node in the latest committed tree with
// data and commits the result. If node is no longer in the tree the commit
// is aborted.
func (m *Manager) UpdateState(ctx context.Context, node *tree.Node, data tree.StateData) (commit.Result, error) {
	defer observability.StartSection(m.logger, "uimanager.UpdateState").End()

	start := m.now()
	desc, err := m.descriptorOf("uimanager.UpdateState", node)
	if err != nil {
		return commit.Result{Status: commit.StatusFailed}, err
	}
	return m.commit(ctx, "uimanager.UpdateState", node.Surface(), func(root *tree.Node) (*tree.Node, bool) {
		return root.Update(node.Tag(), func(current *tree.Node) *tree.Node {
			return current.Clone(tree.Fragment{State: tree.Some(desc.CreateState(current.State(), data))})
		})
	}, start)
}

// RelativeLayoutMetrics returns node's layout metrics relative to ancestor.
// A nil ancestor means the surface's committed root, and node is then
// resolved in that root, so the answer reflects the latest commit. If either
// side is not layout-capable the result is tree.EmptyLayoutMetrics.
func (m *Manager) RelativeLayoutMetrics(node, ancestor *tree.Node) tree.LayoutMetrics {
	defer observability.StartSection(m.logger, "uimanager.RelativeLayoutMetrics").End()

	if node == nil || !node.IsLayoutable() {
		return tree.EmptyLayoutMetrics
	}
	if ancestor == nil {
		m.surfaces.Visit(node.Surface(), func(c commit.Committer) {
			ancestor = c.Root()
		})
	}
	if ancestor == nil {
		return tree.EmptyLayoutMetrics
	}
	return tree.RelativeLayoutMetrics(node.Tag(), ancestor)
}

func (m *Manager) commit(ctx context.Context, op string, id tree.SurfaceID, transform commit.Transform, start time.Time) (commit.Result, error) {
	var (
		res  commit.Result
		cerr error
	)
	err := m.surfaces.VisitOrErr(id, func(c commit.Committer) {
		res, cerr = c.TryCommit(ctx, transform, start)
	})
	if err != nil {
		return commit.Result{Status: commit.StatusFailed}, m.report(
			errors.New(op, errors.KindSurfaceNotFound, "no surface %d", id).WithSurface(int64(id)))
	}
	if cerr != nil {
		return res, m.report(cerr)
	}
	if res.Status == commit.StatusAborted {
		m.logger.Debug().Str("op", op).Int64("surface", int64(id)).Msg("commit aborted: node no longer in tree")
	}
	return res, nil
}

func (m *Manager) descriptorOf(op string, node *tree.Node) (component.Descriptor, error) {
	if node == nil {
		return nil, m.report(errors.New(op, errors.KindInvalidArgument, "nil node"))
	}
	desc, err := m.components.At(node.Component())
	if err != nil {
		return nil, m.report(errors.New(op, errors.KindComponentNotFound, "%q", node.Component()).
			WithSurface(int64(node.Surface())).WithTag(int64(node.Tag())))
	}
	return desc, nil
}

// report forwards TreeErrors to the global error handler and returns err.
func (m *Manager) report(err error) error {
	if te, ok := err.(*errors.TreeError); ok {
		errors.Report(te)
	}
	return err
}
