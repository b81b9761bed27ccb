package component

import (
	"encoding/json"
	"strconv"

	"github.com/go-drift/shadowtree/pkg/tree"
)

const (
	// ViewName is the component name of the reference View descriptor.
	ViewName = "View"
	// RootViewName is the component name used for surface roots.
	RootViewName = "RootView"
)

// ViewProps are the props understood by the reference View descriptor. They
// carry a precomputed frame; no layout algorithm runs here.
type ViewProps struct {
	Frame   tree.Rect
	Opacity float64
	Hidden  bool
	TestID  string
}

// DefaultViewProps are the props of a View with no raw props applied.
var DefaultViewProps = ViewProps{Opacity: 1}

// NewView returns the reference View descriptor.
func NewView() *Base[ViewProps] {
	return newViewLike(ViewName)
}

// NewRootView returns the descriptor used for surface root nodes.
func NewRootView() *Base[ViewProps] {
	return newViewLike(RootViewName)
}

func newViewLike(name string) *Base[ViewProps] {
	return New(Config[ViewProps]{
		Name:     name,
		Defaults: DefaultViewProps,
		Parse:    parseViewProps,
		Layout:   viewLayout,
	})
}

func viewLayout(p ViewProps) tree.LayoutMetrics {
	m := tree.LayoutMetrics{Frame: p.Frame, Display: tree.DisplayFlex, PointScaleFactor: 1}
	if p.Hidden {
		m.Display = tree.DisplayNone
	}
	return m
}

func parseViewProps(p ViewProps, raw tree.RawProps) ViewProps {
	for key, value := range raw {
		switch key {
		case "x", "left":
			if f, ok := toFloat(value); ok {
				p.Frame.Origin.X = f
			}
		case "y", "top":
			if f, ok := toFloat(value); ok {
				p.Frame.Origin.Y = f
			}
		case "width":
			if f, ok := toFloat(value); ok {
				p.Frame.Size.Width = f
			}
		case "height":
			if f, ok := toFloat(value); ok {
				p.Frame.Size.Height = f
			}
		case "opacity":
			if f, ok := toFloat(value); ok {
				p.Opacity = f
			}
		case "hidden":
			if b, ok := value.(bool); ok {
				p.Hidden = b
			}
		case "testID":
			if s, ok := value.(string); ok {
				p.TestID = s
			}
		}
	}
	return p
}

// toFloat accepts the numeric shapes raw props arrive in from JSON decoders
// and Go callers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
