package tree

// Tag identifies a node. Tags are unique within a surface.
type Tag int64

// SurfaceID identifies an independently committed tree.
type SurfaceID int64

// RawProps is an opaque, externally produced prop blob. Only component
// descriptors interpret it.
type RawProps map[string]any

// StateData is an opaque state update handed to a component descriptor.
type StateData any

// Props is descriptor-owned, immutable prop data.
type Props any

// State is descriptor-owned, immutable state data.
type State any

// EventEmitter is the descriptor-owned event capability attached to a node.
type EventEmitter any

// EventTarget is the opaque host handle an EventEmitter dispatches to.
type EventTarget any

// LocalData is descriptor-owned data that is not part of props or state.
type LocalData any

// Opt is an optional field override. The zero value means "unset".
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the override is present.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Or returns the value if set, otherwise fallback.
func (o Opt[T]) Or(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Fragment is a sparse set of overrides applied by Clone. Unset fields are
// copied by reference from the source node.
type Fragment struct {
	Tag          Opt[Tag]
	Surface      Opt[SurfaceID]
	Props        Opt[Props]
	EventEmitter Opt[EventEmitter]
	Children     Opt[Children]
	LocalData    Opt[LocalData]
	State        Opt[State]
}

// IsEmpty reports whether no field is overridden.
func (f Fragment) IsEmpty() bool {
	return !f.Tag.IsSet() && !f.Surface.IsSet() && !f.Props.IsSet() &&
		!f.EventEmitter.IsSet() && !f.Children.IsSet() && !f.LocalData.IsSet() &&
		!f.State.IsSet()
}

// Cloner produces a new node from an existing one. Component descriptors
// implement it so that clones of their nodes go through the descriptor.
type Cloner interface {
	CloneShadowNode(n *Node, f Fragment) *Node
}

// Fields holds everything needed to construct a Node.
type Fields struct {
	Tag          Tag
	Surface      SurfaceID
	Component    string
	Props        Props
	EventEmitter EventEmitter
	Children     Children
	LocalData    LocalData
	State        State
	// Cloner is used by Node.Clone; nil means plain field copying.
	Cloner Cloner
	// Layout reports the node's layout metrics. Nil means the node is not
	// layout-capable.
	Layout LayoutFunc
}
