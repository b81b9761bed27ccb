package tree

import (
	"src.elv.sh/pkg/persistent/vector"
)

// Children is a persistent ordered sequence of nodes. Updates return a new
// sequence sharing unchanged chunks with the old one. The zero value is empty.
type Children struct {
	v vector.Vector
}

// EmptyChildren is an empty child list.
var EmptyChildren = Children{}

// ChildrenOf builds a child list from nodes in order.
func ChildrenOf(nodes ...*Node) Children {
	c := EmptyChildren
	for _, n := range nodes {
		c = c.Append(n)
	}
	return c
}

// Len returns the number of children.
func (c Children) Len() int {
	if c.v == nil {
		return 0
	}
	return c.v.Len()
}

// At returns the i-th child, or nil if out of range.
func (c Children) At(i int) *Node {
	if c.v == nil {
		return nil
	}
	v, ok := c.v.Index(i)
	if !ok {
		return nil
	}
	return v.(*Node)
}

// All returns the children as a fresh slice.
func (c Children) All() []*Node {
	out := make([]*Node, 0, c.Len())
	if c.v == nil {
		return out
	}
	for it := c.v.Iterator(); it.HasElem(); it.Next() {
		out = append(out, it.Elem().(*Node))
	}
	return out
}

// With returns a list with the i-th child replaced by n.
func (c Children) With(i int, n *Node) Children {
	if i < 0 || i >= c.Len() {
		return c
	}
	return Children{v: c.v.Assoc(i, n)}
}

// Append returns a list with n added at the end.
func (c Children) Append(n *Node) Children {
	v := c.v
	if v == nil {
		v = vector.Empty
	}
	return Children{v: v.Conj(n)}
}

// Same reports whether c and o are the same shared list, not merely equal.
func (c Children) Same(o Children) bool {
	if c.Len() == 0 && o.Len() == 0 {
		return true
	}
	return c.v == o.v
}
