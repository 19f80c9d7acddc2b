// internal/layout/floats_test.go
package layout_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

func floated(side layout.FloatSide, w, h float64) layout.Style {
	s := sized(w, h)
	s.Float = side
	return s
}

func TestFloat_Placement(t *testing.T) {
	tests := []struct {
		name string
		// second is placed after a 200x50 left float in a 300px container.
		second layout.Style
		x, y   float64
	}{
		{"FitsBeside", floated(layout.FloatLeft, 100, 30), 200, 0},
		{"DropsBelow", floated(layout.FloatLeft, 150, 30), 0, 50},
		{"RightDropsBelow", floated(layout.FloatRight, 150, 30), 150, 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			container := tree.AddElement(root, "div", sized(300, 200))
			tree.AddElement(container, "div", floated(layout.FloatLeft, 200, 50))
			second := tree.AddElement(container, "div", tc.second)
			compute(t, tree, 800, 600)

			box := tree.AbsoluteBorderBox(second)
			assert.InDelta(t, tc.x, box.X, 1e-9)
			assert.InDelta(t, tc.y, box.Y, 1e-9)
		})
	}
}

func TestFloat_Clear(t *testing.T) {
	tests := []struct {
		name  string
		clear layout.Clear
		y     float64
	}{
		{"None", layout.ClearNone, 0},
		{"Left", layout.ClearLeft, 60},
		{"Both", layout.ClearBoth, 60},
		{"OtherSide", layout.ClearRight, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			container := tree.AddElement(root, "div", sized(300, 200))
			tree.AddElement(container, "div", floated(layout.FloatLeft, 100, 60))
			bs := sized(50, 10)
			bs.Clear = tc.clear
			block := tree.AddElement(container, "div", bs)
			next := tree.AddElement(container, "div", sized(50, 10))
			compute(t, tree, 800, 600)

			assert.InDelta(t, tc.y, tree.AbsoluteBorderBox(block).Y, 1e-9)
			assert.InDelta(t, 0.0, tree.AbsoluteBorderBox(block).X, 1e-9)
			assert.InDelta(t, tc.y+10, tree.AbsoluteBorderBox(next).Y, 1e-9)
		})
	}
}

func TestFloat_ShapeOutside(t *testing.T) {
	// A 150x10 float placed after a 100x100 shaped float sits against the
	// shape's extent over its top 10px band.
	tests := []struct {
		name   string
		shape  layout.Shape
		margin float64
		x      float64
	}{
		// The band's widest point is 40px above the circle's centre.
		{"Circle", layout.Shape{Kind: layout.ShapeCircle}, 0, 80},
		{"CircleWithMargin", layout.Shape{Kind: layout.ShapeCircle}, 10, 50 + 20*math.Sqrt(5)},
		{"Inset", layout.Shape{Kind: layout.ShapeInset, Inset: layout.EdgeLengths{Right: layout.Px(40)}}, 0, 60},
		{"InsetWithMargin", layout.Shape{Kind: layout.ShapeInset, Inset: layout.EdgeLengths{Right: layout.Px(40)}}, 5, 65},
		{"NoShape", layout.Shape{}, 10, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			container := tree.AddElement(root, "div", sized(300, 200))
			shaped := floated(layout.FloatLeft, 100, 100)
			shaped.ShapeOutside = tc.shape
			shaped.ShapeMargin = tc.margin
			tree.AddElement(container, "div", shaped)
			next := tree.AddElement(container, "div", floated(layout.FloatLeft, 150, 10))
			compute(t, tree, 800, 600)

			box := tree.AbsoluteBorderBox(next)
			assert.InDelta(t, tc.x, box.X, 1e-6)
			assert.InDelta(t, 0.0, box.Y, 1e-9)
		})
	}
}

func TestFloat_FormattingContextBeside(t *testing.T) {
	tree, root := newDocument()
	container := tree.AddElement(root, "div", sized(300, 200))
	tree.AddElement(container, "div", floated(layout.FloatLeft, 100, 50))
	bs := layout.DefaultStyle()
	bs.Overflow = layout.OverflowHidden
	bs.Height = layout.Px(20)
	block := tree.AddElement(container, "div", bs)
	compute(t, tree, 800, 600)

	assert.Equal(t, layout.Rect{X: 100, Y: 0, Width: 200, Height: 20}, tree.AbsoluteBorderBox(block),
		"a new formatting context narrows to the band beside the float")
}
