// Package component defines the capability contract through which the tree
// facade creates and clones nodes of a given component type, and a registry
// that maps component names to descriptors.
//
// Descriptors own everything type-specific: how raw props are parsed, how
// state is initialized and advanced, and which nodes are layout-capable. They
// must be pure with respect to commit state, because their methods may run
// inside commit transforms that are retried.
package component

import (
	"github.com/go-drift/shadowtree/pkg/tree"
)

// Descriptor produces props, state, event emitters and nodes for one
// component type.
type Descriptor interface {
	tree.Cloner

	// Name returns the component type name, e.g. "View".
	Name() string
	// CloneProps derives props from base (nil for initial props) and raw.
	CloneProps(base tree.Props, raw tree.RawProps) tree.Props
	// CreateInitialState returns the state for a node created with props.
	CreateInitialState(props tree.Props) tree.State
	// CreateState advances old with an externally produced update.
	CreateState(old tree.State, data tree.StateData) tree.State
	// CreateEventEmitter binds an emitter to target for the node tag.
	CreateEventEmitter(target tree.EventTarget, tag tree.Tag) tree.EventEmitter
	// CreateShadowNode constructs a builder-phase node.
	CreateShadowNode(fields tree.Fields) *tree.Node
	// AppendChild appends child to parent during the builder phase.
	AppendChild(parent, child *tree.Node) error
}
