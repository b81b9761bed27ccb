// Package tree provides the persistent shadow node model.
//
// A Node is an immutable record of a component instance: its identity, props,
// state, event emitter and ordered children. Nodes form trees that share
// structure. Producing a new tree for a change deep inside an existing one
// clones only the nodes on the path from the changed node to the root, and every
// untouched sibling subtree is shared by reference between the old and new
// trees:
//
//	next, ok := root.Update(leaf.Tag(), func(current *tree.Node) *tree.Node {
//	    return current.Clone(tree.Fragment{State: tree.Some[tree.State](newState)})
//	})
//
// # Builder phase
//
// A freshly created node is under exclusive construction by the goroutine that
// created it and may still receive children through AppendChild. Once a node is
// offered to a commit it is sealed, and any further AppendChild fails with an
// error matching errors.ErrIllegalMutation. Sealing propagates to every
// descendant, so a sealed node never has an unsealed child.
//
// # Fragments
//
// Clone takes a Fragment, a set of per-field optional overrides. A field left
// as its zero Opt keeps the value of the node being cloned; Some(v) replaces
// it, including with an explicitly empty value.
package tree
