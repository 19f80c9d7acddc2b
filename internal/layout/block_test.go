// internal/layout/block_test.go
package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

func TestBlock_DefaultMargins(t *testing.T) {
	tree, root := newDocument()
	plain := tree.AddElement(root, "div", sized(300, 400))
	centredStyle := sized(300, 10)
	centredStyle.Margin.Left = layout.Auto
	centredStyle.Margin.Right = layout.Auto
	centred := tree.AddElement(root, "div", centredStyle)
	compute(t, tree, 800, 600)

	assert.Equal(t, layout.Rect{X: 0, Y: 0, Width: 300, Height: 400}, tree.AbsoluteBorderBox(plain))
	assert.InDelta(t, 250.0, tree.AbsoluteBorderBox(centred).X, 1e-9, "only explicit auto margins centre")
	assert.Equal(t, layout.Edges{}, tree.Node(plain).Box.Margin)
}

func TestBlock_CollapseThroughEmpty(t *testing.T) {
	tests := []struct {
		name      string
		emptyTop  float64
		emptyBot  float64
		wantAfter float64
	}{
		{"LargestWins", 30, 5, 30},
		{"NegativeSums", -15, 0, 5},
		{"SmallerThanNeighbours", 2, 3, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			container := tree.AddElement(root, "div", layout.DefaultStyle())
			before := sized(100, 10)
			before.Margin.Bottom = layout.Px(10)
			a := tree.AddElement(container, "div", before)
			empty := layout.DefaultStyle()
			empty.Margin.Top = layout.Px(tc.emptyTop)
			empty.Margin.Bottom = layout.Px(tc.emptyBot)
			tree.AddElement(container, "div", empty)
			after := sized(100, 10)
			after.Margin.Top = layout.Px(20)
			b := tree.AddElement(container, "div", after)
			compute(t, tree, 800, 600)

			gap := tree.AbsoluteBorderBox(b).Y - (tree.AbsoluteBorderBox(a).Y + 10)
			assert.InDelta(t, tc.wantAfter, gap, 1e-9)
		})
	}
}

func TestBlock_FormattingContextContainsMargins(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*layout.Style)
		parentY float64
		height  float64
	}{
		{"Visible", func(*layout.Style) {}, 20, 10},
		{"OverflowHidden", func(s *layout.Style) { s.Overflow = layout.OverflowHidden }, 0, 30},
		{"FlowRoot", func(s *layout.Style) { s.Display = layout.DisplayFlowRoot }, 0, 30},
		{"ContainLayout", func(s *layout.Style) { s.Contain = layout.ContainLayout }, 0, 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			ps := layout.DefaultStyle()
			tc.mutate(&ps)
			parent := tree.AddElement(root, "div", ps)
			cs := sized(50, 10)
			cs.Margin.Top = layout.Px(20)
			child := tree.AddElement(parent, "div", cs)
			compute(t, tree, 800, 600)

			assert.InDelta(t, tc.parentY, tree.AbsoluteBorderBox(parent).Y, 1e-9)
			assert.InDelta(t, 20.0, tree.AbsoluteBorderBox(child).Y, 1e-9)
			assert.InDelta(t, tc.height, tree.Node(parent).Box.Content.Height, 1e-9)
		})
	}
}
