package treetest

import (
	"testing"

	"github.com/go-drift/shadowtree/pkg/tree"
)

// Tags returns the tags of c in order.
func Tags(c tree.Children) []tree.Tag {
	out := make([]tree.Tag, 0, c.Len())
	for _, n := range c.All() {
		out = append(out, n.Tag())
	}
	return out
}

// AssertSealed fails t if any node under root is unsealed.
func AssertSealed(t testing.TB, root *tree.Node) {
	t.Helper()
	if !root.Sealed() {
		t.Errorf("node %d is not sealed", root.Tag())
	}
	for _, c := range root.Children().All() {
		AssertSealed(t, c)
	}
}

// AssertShared fails t unless the subtree with tag is the same node in both
// trees.
func AssertShared(t testing.TB, before, after *tree.Node, tag tree.Tag) {
	t.Helper()
	a, ok := before.Find(tag)
	if !ok {
		t.Fatalf("tag %d not in the old tree", tag)
	}
	b, ok := after.Find(tag)
	if !ok {
		t.Fatalf("tag %d not in the new tree", tag)
	}
	if a != b {
		t.Errorf("subtree %d was copied; want it shared between trees", tag)
	}
}
