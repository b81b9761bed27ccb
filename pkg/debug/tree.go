package debug

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-drift/shadowtree/pkg/tree"
)

// maxTreeDepth limits recursion when serializing malformed trees.
const maxTreeDepth = 500

// TreeNode is the JSON form of a shadow node.
type TreeNode struct {
	Tag       int64      `json:"tag"`
	Component string     `json:"component"`
	Sealed    bool       `json:"sealed"`
	Props     string     `json:"props,omitempty"`
	State     string     `json:"state,omitempty"`
	Frame     *SafeRect  `json:"frame,omitempty"`
	Hidden    bool       `json:"hidden,omitempty"`
	Depth     int        `json:"depth"`
	Truncated bool       `json:"truncated,omitempty"`
	Children  []TreeNode `json:"children,omitempty"`
}

// SafeFloat wraps a float64 to handle Inf/NaN in JSON encoding.
type SafeFloat float64

func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(v)
}

// SafeRect is a JSON-safe tree.Rect.
type SafeRect struct {
	X      SafeFloat `json:"x"`
	Y      SafeFloat `json:"y"`
	Width  SafeFloat `json:"width"`
	Height SafeFloat `json:"height"`
}

func serializeNode(n *tree.Node, depth int) TreeNode {
	out := TreeNode{
		Tag:       int64(n.Tag()),
		Component: n.Component(),
		Sealed:    n.Sealed(),
		Depth:     depth,
	}
	if p := n.Props(); p != nil {
		out.Props = fmt.Sprintf("%+v", p)
	}
	if s := n.State(); s != nil {
		out.State = fmt.Sprintf("%+v", s)
	}
	if m, ok := n.LayoutMetrics(); ok {
		f := m.Frame
		out.Frame = &SafeRect{
			X:      SafeFloat(f.Origin.X),
			Y:      SafeFloat(f.Origin.Y),
			Width:  SafeFloat(f.Size.Width),
			Height: SafeFloat(f.Size.Height),
		}
		out.Hidden = m.Display == tree.DisplayNone
	}
	if depth >= maxTreeDepth {
		out.Truncated = n.Children().Len() > 0
		return out
	}
	for _, child := range n.Children().All() {
		out.Children = append(out.Children, serializeNode(child, depth+1))
	}
	return out
}
