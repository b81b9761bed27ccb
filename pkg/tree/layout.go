package tree

// Point is a position in layout coordinates.
type Point struct {
	X, Y float64
}

// Size is a width and height in layout coordinates.
type Size struct {
	Width, Height float64
}

// Rect is an origin and a size.
type Rect struct {
	Origin Point
	Size   Size
}

// DisplayType controls whether a node participates in layout.
type DisplayType int

const (
	// DisplayNone hides the node.
	DisplayNone DisplayType = iota
	// DisplayFlex is the default visible display type.
	DisplayFlex
)

// LayoutMetrics describes a node's computed frame.
type LayoutMetrics struct {
	Frame            Rect
	Display          DisplayType
	PointScaleFactor float64
}

// EmptyLayoutMetrics is returned by layout queries that cannot be answered,
// such as when a node is not layout-capable.
var EmptyLayoutMetrics = LayoutMetrics{PointScaleFactor: -1}

// IsEmpty reports whether m is the EmptyLayoutMetrics sentinel.
func (m LayoutMetrics) IsEmpty() bool {
	return m == EmptyLayoutMetrics
}

// LayoutFunc reports the layout metrics of a node.
type LayoutFunc func(n *Node) LayoutMetrics

// LayoutMetrics reports the node's metrics and whether the node is
// layout-capable. Non-layout-capable nodes return EmptyLayoutMetrics.
func (n *Node) LayoutMetrics() (LayoutMetrics, bool) {
	if n == nil || n.layout == nil {
		return EmptyLayoutMetrics, false
	}
	return n.layout(n), true
}

// IsLayoutable reports whether the node exposes layout metrics.
func (n *Node) IsLayoutable() bool {
	return n != nil && n.layout != nil
}

// RelativeLayoutMetrics returns the metrics of the node identified by tag,
// with its frame origin expressed relative to ancestor. The node is resolved
// inside ancestor's subtree, so the result reflects that tree's version of
// the node. If the node or any node on the path, ancestor included, is not
// layout-capable, or the tag is not below ancestor, EmptyLayoutMetrics is
// returned.
func RelativeLayoutMetrics(tag Tag, ancestor *Node) LayoutMetrics {
	if !ancestor.IsLayoutable() {
		return EmptyLayoutMetrics
	}
	path := ancestor.Path(tag)
	if path == nil {
		return EmptyLayoutMetrics
	}
	target := path[len(path)-1]
	metrics, ok := target.LayoutMetrics()
	if !ok {
		return EmptyLayoutMetrics
	}
	if len(path) == 1 {
		metrics.Frame.Origin = Point{}
		return metrics
	}
	var origin Point
	for _, node := range path[1:] {
		m, ok := node.LayoutMetrics()
		if !ok {
			return EmptyLayoutMetrics
		}
		origin.X += m.Frame.Origin.X
		origin.Y += m.Frame.Origin.Y
	}
	metrics.Frame.Origin = origin
	return metrics
}
