package tree

import (
	"sync/atomic"

	"github.com/go-drift/shadowtree/pkg/errors"
)

// Node is an immutable shadow tree node. All accessors are safe for
// concurrent use once the node is sealed.
type Node struct {
	tag          Tag
	surface      SurfaceID
	component    string
	props        Props
	eventEmitter EventEmitter
	children     Children
	localData    LocalData
	state        State
	cloner       Cloner
	layout       LayoutFunc

	sealed atomic.Bool
}

// NewNode constructs a node in the builder phase.
func NewNode(f Fields) *Node {
	return &Node{
		tag:          f.Tag,
		surface:      f.Surface,
		component:    f.Component,
		props:        f.Props,
		eventEmitter: f.EventEmitter,
		children:     f.Children,
		localData:    f.LocalData,
		state:        f.State,
		cloner:       f.Cloner,
		layout:       f.Layout,
	}
}

// Tag returns the node's identity within its surface.
func (n *Node) Tag() Tag { return n.tag }

// Surface returns the id of the surface the node belongs to.
func (n *Node) Surface() SurfaceID { return n.surface }

// Component returns the component type name.
func (n *Node) Component() string { return n.component }

// Props returns the node's props.
func (n *Node) Props() Props { return n.props }

// EventEmitter returns the node's event emitter.
func (n *Node) EventEmitter() EventEmitter { return n.eventEmitter }

// Children returns the node's child list.
func (n *Node) Children() Children { return n.children }

// LocalData returns the node's local data.
func (n *Node) LocalData() LocalData { return n.localData }

// State returns the node's state.
func (n *Node) State() State { return n.state }

// Cloner returns the cloner this node was created with.
func (n *Node) Cloner() Cloner { return n.cloner }

// Sealed reports whether the node has been offered to a commit.
func (n *Node) Sealed() bool { return n.sealed.Load() }

// Clone returns a new node with f applied. Clones go through the node's
// Cloner when it has one.
func (n *Node) Clone(f Fragment) *Node {
	if n.cloner != nil {
		return n.cloner.CloneShadowNode(n, f)
	}
	return CloneWith(n, f)
}

// CloneWith copies src applying the overrides in f. Unset fields are copied
// by reference. The result is unsealed.
func CloneWith(src *Node, f Fragment) *Node {
	return &Node{
		tag:          f.Tag.Or(src.tag),
		surface:      f.Surface.Or(src.surface),
		component:    src.component,
		props:        f.Props.Or(src.props),
		eventEmitter: f.EventEmitter.Or(src.eventEmitter),
		children:     f.Children.Or(src.children),
		localData:    f.LocalData.Or(src.localData),
		state:        f.State.Or(src.state),
		cloner:       src.cloner,
		layout:       src.layout,
	}
}

// AppendChild adds child to the end of n's children. Only legal during the
// builder phase; on a sealed node it fails with ErrIllegalMutation.
func (n *Node) AppendChild(child *Node) error {
	if child == nil {
		return errors.New("tree.AppendChild", errors.KindInvalidArgument, "nil child").WithTag(int64(n.tag))
	}
	if n.sealed.Load() {
		return errors.New("tree.AppendChild", errors.KindIllegalMutation,
			"cannot append tag %d to published node %d", child.tag, n.tag).
			WithSurface(int64(n.surface)).WithTag(int64(n.tag))
	}
	n.children = n.children.Append(child)
	return nil
}

// Seal marks n and every unsealed descendant immutable. Sealed subtrees are
// not revisited, so sealing a path-copied tree touches only the new nodes.
func (n *Node) Seal() {
	n.seal(nil)
}

// SealTracked is like Seal but returns the nodes that were unsealed before
// the call. Passing them to Unseal undoes the seal.
func (n *Node) SealTracked() []*Node {
	var sealed []*Node
	n.seal(&sealed)
	return sealed
}

func (n *Node) seal(track *[]*Node) {
	if n == nil || n.sealed.Swap(true) {
		return
	}
	if track != nil {
		*track = append(*track, n)
	}
	for i := 0; i < n.children.Len(); i++ {
		n.children.At(i).seal(track)
	}
}

// Unseal returns nodes to the builder phase. Only nodes that were never
// reachable from a published root may be unsealed.
func Unseal(nodes []*Node) {
	for _, n := range nodes {
		n.sealed.Store(false)
	}
}

// Find returns the node with the given tag in n's subtree.
func (n *Node) Find(tag Tag) (*Node, bool) {
	path := n.pathTo(tag)
	if path == nil {
		return nil, false
	}
	return path[len(path)-1], true
}

// Path returns the nodes from n down to the node with the given tag,
// inclusive at both ends, or nil if tag is not in n's subtree.
func (n *Node) Path(tag Tag) []*Node {
	return n.pathTo(tag)
}

func (n *Node) pathTo(tag Tag) []*Node {
	if n.tag == tag {
		return []*Node{n}
	}
	for i := 0; i < n.children.Len(); i++ {
		if sub := n.children.At(i).pathTo(tag); sub != nil {
			return append([]*Node{n}, sub...)
		}
	}
	return nil
}

// indexPath returns child indexes from n to tag; ok is false if not found.
func (n *Node) indexPath(tag Tag) ([]int, bool) {
	if n.tag == tag {
		return nil, true
	}
	for i := 0; i < n.children.Len(); i++ {
		if sub, ok := n.children.At(i).indexPath(tag); ok {
			return append([]int{i}, sub...), true
		}
	}
	return nil, false
}

// Update returns a new tree in which the node identified by tag is replaced
// by fn(current). Every ancestor on the path is cloned; every other subtree is
// shared with n. It reports false, and returns nil, when tag is not in the
// tree or fn returns nil.
func (n *Node) Update(tag Tag, fn func(current *Node) *Node) (*Node, bool) {
	path, ok := n.indexPath(tag)
	if !ok {
		return nil, false
	}
	next := n.rebuild(path, fn)
	if next == nil {
		return nil, false
	}
	return next, true
}

func (n *Node) rebuild(path []int, fn func(*Node) *Node) *Node {
	if len(path) == 0 {
		return fn(n)
	}
	i := path[0]
	child := n.children.At(i).rebuild(path[1:], fn)
	if child == nil {
		return nil
	}
	return n.Clone(Fragment{Children: Some(n.children.With(i, child))})
}

// ReplaceDescendant returns a new tree in which old is replaced by
// replacement. Nodes are matched by tag.
func (n *Node) ReplaceDescendant(old, replacement *Node) (*Node, bool) {
	if old == nil || replacement == nil {
		return nil, false
	}
	return n.Update(old.tag, func(*Node) *Node { return replacement })
}

// Count returns the number of nodes in n's subtree, n included.
func (n *Node) Count() int {
	total := 1
	for i := 0; i < n.children.Len(); i++ {
		total += n.children.At(i).Count()
	}
	return total
}
