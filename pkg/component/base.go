package component

import (
	"github.com/go-drift/shadowtree/pkg/tree"
)

// State is the state value produced by Base descriptors. Revision counts the
// updates applied since the node was created.
type State struct {
	Data     any
	Revision uint64
}

// Config describes a component type for New.
type Config[P any] struct {
	// Name is the component type name.
	Name string
	// Defaults are the props a node starts from before raw props apply.
	Defaults P
	// Parse applies raw props on top of base. Required.
	Parse func(base P, raw tree.RawProps) P
	// InitialState derives state data from props. Optional.
	InitialState func(props P) any
	// Reduce folds an update into old state data. Defaults to replacement.
	Reduce func(old any, data tree.StateData) any
	// Layout reports metrics for props. Nil means nodes of this type are not
	// layout-capable.
	Layout func(props P) tree.LayoutMetrics
}

// Base is a Descriptor assembled from a Config. Props are stored as values of
// type P.
type Base[P any] struct {
	cfg    Config[P]
	layout tree.LayoutFunc
}

var _ Descriptor = (*Base[struct{}])(nil)

// New returns a descriptor for cfg.
func New[P any](cfg Config[P]) *Base[P] {
	b := &Base[P]{cfg: cfg}
	if cfg.Layout != nil {
		b.layout = func(n *tree.Node) tree.LayoutMetrics {
			p, ok := n.Props().(P)
			if !ok {
				return tree.EmptyLayoutMetrics
			}
			return cfg.Layout(p)
		}
	}
	return b
}

// Name implements Descriptor.
func (b *Base[P]) Name() string { return b.cfg.Name }

// CloneProps implements Descriptor. A nil or foreign base starts from the
// configured defaults.
func (b *Base[P]) CloneProps(base tree.Props, raw tree.RawProps) tree.Props {
	start := b.cfg.Defaults
	if p, ok := base.(P); ok {
		start = p
	}
	if b.cfg.Parse == nil || len(raw) == 0 {
		return start
	}
	return b.cfg.Parse(start, raw)
}

// CreateInitialState implements Descriptor.
func (b *Base[P]) CreateInitialState(props tree.Props) tree.State {
	s := State{}
	if p, ok := props.(P); ok && b.cfg.InitialState != nil {
		s.Data = b.cfg.InitialState(p)
	}
	return s
}

// CreateState implements Descriptor.
func (b *Base[P]) CreateState(old tree.State, data tree.StateData) tree.State {
	prev, _ := old.(State)
	next := State{Data: data, Revision: prev.Revision + 1}
	if b.cfg.Reduce != nil {
		next.Data = b.cfg.Reduce(prev.Data, data)
	}
	return next
}

// CreateEventEmitter implements Descriptor.
func (b *Base[P]) CreateEventEmitter(target tree.EventTarget, tag tree.Tag) tree.EventEmitter {
	return NewEventEmitter(target, tag)
}

// CreateShadowNode implements Descriptor.
func (b *Base[P]) CreateShadowNode(fields tree.Fields) *tree.Node {
	fields.Component = b.cfg.Name
	fields.Cloner = b
	fields.Layout = b.layout
	return tree.NewNode(fields)
}

// CloneShadowNode implements Descriptor.
func (b *Base[P]) CloneShadowNode(n *tree.Node, f tree.Fragment) *tree.Node {
	return tree.CloneWith(n, f)
}

// AppendChild implements Descriptor.
func (b *Base[P]) AppendChild(parent, child *tree.Node) error {
	return parent.AppendChild(child)
}
