package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRelativeLayoutMetrics(t *testing.T) {
	root := buildTree(t)

	tests := []struct {
		name string
		tag  Tag
		want Point
	}{
		{"self", 1, Point{}},
		{"child", 3, Point{X: 20}},
		{"grandchild", 5, Point{X: 7, Y: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeLayoutMetrics(tt.tag, root)
			if got.IsEmpty() {
				t.Fatal("got EmptyLayoutMetrics")
			}
			if diff := cmp.Diff(tt.want, got.Frame.Origin); diff != "" {
				t.Errorf("origin mismatch (-want +got):\n%s", diff)
			}
			if got.Frame.Size != (Size{Width: 10, Height: 10}) {
				t.Errorf("size = %+v", got.Frame.Size)
			}
		})
	}
}

func TestRelativeLayoutMetricsEmpty(t *testing.T) {
	root := buildTree(t)
	plain := NewNode(Fields{Tag: 50, Surface: 1})

	if got := RelativeLayoutMetrics(99, root); !got.IsEmpty() {
		t.Errorf("absent tag: got %+v, want empty", got)
	}
	if got := RelativeLayoutMetrics(50, plain); !got.IsEmpty() {
		t.Errorf("non-layoutable ancestor: got %+v, want empty", got)
	}

	withPlain := root.Clone(Fragment{Children: Some(root.Children().Append(plain))})
	if got := RelativeLayoutMetrics(50, withPlain); !got.IsEmpty() {
		t.Errorf("non-layoutable node: got %+v, want empty", got)
	}
	if _, ok := plain.LayoutMetrics(); ok {
		t.Error("plain node should not be layout-capable")
	}
}
