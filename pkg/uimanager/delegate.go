package uimanager

import (
	"time"

	"github.com/go-drift/shadowtree/pkg/tree"
)

// Delegate observes node creation and finished transactions. The manager does
// not own its delegate: the delegate must outlive the manager, or be cleared
// with SetDelegate(nil) before it goes away.
type Delegate interface {
	// DidCreateShadowNode is called after CreateNode builds a node.
	DidCreateShadowNode(node *tree.Node)
	// DidFinishTransaction is called after CompleteSurface publishes the
	// surface's new root children.
	DidFinishTransaction(surface tree.SurfaceID, rootChildren []*tree.Node, timestamp time.Time)
}

type delegateHolder struct {
	d Delegate
}
