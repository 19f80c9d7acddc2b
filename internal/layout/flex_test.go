// internal/layout/flex_test.go
package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

func flexBox(w, h float64) layout.Style {
	s := sized(w, h)
	s.Display = layout.DisplayFlex
	return s
}

// addItems appends one child per style and returns their IDs.
func addItems(tree *layout.Tree, parent layout.NodeID, styles ...layout.Style) []layout.NodeID {
	ids := make([]layout.NodeID, len(styles))
	for i, s := range styles {
		ids[i] = tree.AddElement(parent, "div", s)
	}
	return ids
}

func basis(px float64) layout.Style {
	s := layout.DefaultStyle()
	s.FlexBasis = layout.Px(px)
	return s
}

func TestFlex_Shrink(t *testing.T) {
	t.Run("WeightedByBaseSize", func(t *testing.T) {
		tree, root := newDocument()
		container := tree.AddElement(root, "div", flexBox(300, 50))
		items := addItems(tree, container, basis(100), basis(300))
		compute(t, tree, 800, 600)

		// 100px of overflow split 1:3 by shrink x basis.
		a, b := tree.AbsoluteBorderBox(items[0]), tree.AbsoluteBorderBox(items[1])
		assert.InDelta(t, 75.0, a.Width, 1e-9)
		assert.InDelta(t, 225.0, b.Width, 1e-9)
		assert.InDelta(t, 75.0, b.X, 1e-9)
	})

	t.Run("ZeroShrinkKeepsBase", func(t *testing.T) {
		tree, root := newDocument()
		container := tree.AddElement(root, "div", flexBox(300, 50))
		rigid := basis(200)
		rigid.FlexShrink = 0
		items := addItems(tree, container, rigid, basis(200))
		compute(t, tree, 800, 600)

		assert.InDelta(t, 200.0, tree.AbsoluteBorderBox(items[0]).Width, 1e-9)
		assert.InDelta(t, 100.0, tree.AbsoluteBorderBox(items[1]).Width, 1e-9)
	})

	t.Run("MinWidthFreezes", func(t *testing.T) {
		tree, root := newDocument()
		container := tree.AddElement(root, "div", flexBox(300, 50))
		floor := basis(200)
		floor.MinWidth = layout.Px(180)
		items := addItems(tree, container, floor, basis(200))
		compute(t, tree, 800, 600)

		assert.InDelta(t, 180.0, tree.AbsoluteBorderBox(items[0]).Width, 1e-9)
		assert.InDelta(t, 120.0, tree.AbsoluteBorderBox(items[1]).Width, 1e-9)
	})
}

func TestFlex_JustifyContent(t *testing.T) {
	tests := []struct {
		name      string
		direction layout.FlexDirection
		justify   layout.Align
		a, b      float64
	}{
		{"FlexStart", layout.FlexRow, layout.AlignFlexStart, 0, 50},
		{"FlexEnd", layout.FlexRow, layout.AlignFlexEnd, 200, 250},
		{"Center", layout.FlexRow, layout.AlignCenter, 100, 150},
		{"SpaceBetween", layout.FlexRow, layout.AlignSpaceBetween, 0, 250},
		{"SpaceAround", layout.FlexRow, layout.AlignSpaceAround, 50, 200},
		{"SpaceEvenly", layout.FlexRow, layout.AlignSpaceEvenly, 200.0 / 3, 550.0 / 3},
		{"ReverseStart", layout.FlexRowReverse, layout.AlignFlexStart, 250, 200},
		{"ReverseSpaceBetween", layout.FlexRowReverse, layout.AlignSpaceBetween, 250, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			cs := flexBox(300, 50)
			cs.FlexDirection = tc.direction
			cs.JustifyContent = tc.justify
			container := tree.AddElement(root, "div", cs)
			items := addItems(tree, container, sized(50, 50), sized(50, 50))
			compute(t, tree, 800, 600)

			assert.InDelta(t, tc.a, tree.AbsoluteBorderBox(items[0]).X, 1e-9)
			assert.InDelta(t, tc.b, tree.AbsoluteBorderBox(items[1]).X, 1e-9)
		})
	}
}

func TestFlex_AlignItems(t *testing.T) {
	tests := []struct {
		name  string
		items layout.Align
		self  layout.Align
		auto  bool
		y, h  float64
	}{
		{"Stretch", layout.AlignNormal, layout.AlignNormal, true, 0, 100},
		{"StretchNeedsAutoHeight", layout.AlignStretch, layout.AlignNormal, false, 0, 20},
		{"FlexStart", layout.AlignFlexStart, layout.AlignNormal, false, 0, 20},
		{"FlexEnd", layout.AlignFlexEnd, layout.AlignNormal, false, 80, 20},
		{"Center", layout.AlignCenter, layout.AlignNormal, false, 40, 20},
		{"SelfOverridesItems", layout.AlignCenter, layout.AlignFlexEnd, false, 80, 20},
		{"SelfCenterOnAuto", layout.AlignStretch, layout.AlignCenter, true, 50, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := newDocument()
			cs := flexBox(300, 100)
			cs.AlignItems = tc.items
			container := tree.AddElement(root, "div", cs)
			is := sized(50, 20)
			if tc.auto {
				is.Height = layout.Auto
			}
			is.AlignSelf = tc.self
			item := tree.AddElement(container, "div", is)
			compute(t, tree, 800, 600)

			box := tree.AbsoluteBorderBox(item)
			assert.InDelta(t, tc.y, box.Y, 1e-9)
			assert.InDelta(t, tc.h, box.Height, 1e-9)
		})
	}
}

func TestFlex_AutoMargins(t *testing.T) {
	t.Run("MainAxisBeforeJustify", func(t *testing.T) {
		tree, root := newDocument()
		cs := flexBox(300, 50)
		cs.JustifyContent = layout.AlignCenter
		container := tree.AddElement(root, "div", cs)
		pushed := sized(50, 50)
		pushed.Margin.Left = layout.Auto
		items := addItems(tree, container, pushed, sized(50, 50))
		compute(t, tree, 800, 600)

		assert.InDelta(t, 200.0, tree.AbsoluteBorderBox(items[0]).X, 1e-9)
		assert.InDelta(t, 250.0, tree.AbsoluteBorderBox(items[1]).X, 1e-9)
	})

	t.Run("CrossAxisBeforeAlignSelf", func(t *testing.T) {
		tree, root := newDocument()
		container := tree.AddElement(root, "div", flexBox(300, 100))
		bottom := sized(50, 20)
		bottom.Margin.Top = layout.Auto
		bottom.AlignSelf = layout.AlignFlexStart
		centred := sized(50, 20)
		centred.Margin.Top = layout.Auto
		centred.Margin.Bottom = layout.Auto
		items := addItems(tree, container, bottom, centred)
		compute(t, tree, 800, 600)

		assert.InDelta(t, 80.0, tree.AbsoluteBorderBox(items[0]).Y, 1e-9)
		assert.InDelta(t, 40.0, tree.AbsoluteBorderBox(items[1]).Y, 1e-9)
	})
}

func TestFlex_Order(t *testing.T) {
	tree, root := newDocument()
	container := tree.AddElement(root, "div", flexBox(300, 50))
	var styles []layout.Style
	for _, order := range []int{2, 0, 1} {
		s := sized(50, 50)
		s.Order = order
		styles = append(styles, s)
	}
	items := addItems(tree, container, styles...)
	compute(t, tree, 800, 600)

	assert.InDelta(t, 100.0, tree.AbsoluteBorderBox(items[0]).X, 1e-9)
	assert.InDelta(t, 0.0, tree.AbsoluteBorderBox(items[1]).X, 1e-9)
	assert.InDelta(t, 50.0, tree.AbsoluteBorderBox(items[2]).X, 1e-9)
}

func TestFlex_Wrap(t *testing.T) {
	// Two 60px items cannot share a 100px line.
	setup := func(t *testing.T, wrap layout.FlexWrap, content layout.Align) (*layout.Tree, []layout.NodeID) {
		t.Helper()
		tree, root := newDocument()
		cs := flexBox(100, 100)
		cs.FlexWrap = wrap
		cs.AlignContent = content
		container := tree.AddElement(root, "div", cs)
		fixed := sized(60, 20)
		fromContent := layout.DefaultStyle()
		fromContent.Width = layout.Px(60)
		items := addItems(tree, container, fixed, fromContent)
		tree.AddElement(items[1], "div", sized(10, 20))
		compute(t, tree, 800, 600)
		return tree, items
	}

	t.Run("AlignContentStretch", func(t *testing.T) {
		tree, items := setup(t, layout.FlexWrapOn, layout.AlignNormal)
		a, b := tree.AbsoluteBorderBox(items[0]), tree.AbsoluteBorderBox(items[1])
		assert.InDelta(t, 0.0, a.Y, 1e-9)
		assert.InDelta(t, 20.0, a.Height, 1e-9, "a fixed height is not stretched")
		assert.InDelta(t, 50.0, b.Y, 1e-9, "each line gets half of the 60px left over")
		assert.InDelta(t, 50.0, b.Height, 1e-9)
		assert.InDelta(t, 0.0, b.X, 1e-9)
	})

	t.Run("AlignContentCenter", func(t *testing.T) {
		tree, items := setup(t, layout.FlexWrapOn, layout.AlignCenter)
		assert.InDelta(t, 30.0, tree.AbsoluteBorderBox(items[0]).Y, 1e-9)
		assert.InDelta(t, 50.0, tree.AbsoluteBorderBox(items[1]).Y, 1e-9)
		assert.InDelta(t, 20.0, tree.AbsoluteBorderBox(items[1]).Height, 1e-9)
	})

	t.Run("WrapReverse", func(t *testing.T) {
		tree, items := setup(t, layout.FlexWrapReverse, layout.AlignNormal)
		assert.InDelta(t, 50.0, tree.AbsoluteBorderBox(items[0]).Y, 1e-9)
		assert.InDelta(t, 0.0, tree.AbsoluteBorderBox(items[1]).Y, 1e-9)
	})

	t.Run("NoWrapOverflows", func(t *testing.T) {
		tree, items := setup(t, layout.FlexNoWrap, layout.AlignNormal)
		assert.InDelta(t, 0.0, tree.AbsoluteBorderBox(items[1]).Y, 1e-9)
		assert.InDelta(t, 50.0, tree.AbsoluteBorderBox(items[1]).X, 1e-9, "both items shrink to share the line")
	})
}

func TestFlex_Column(t *testing.T) {
	t.Run("IndefiniteHeightFromItems", func(t *testing.T) {
		tree, root := newDocument()
		cs := layout.DefaultStyle()
		cs.Display = layout.DisplayFlex
		cs.FlexDirection = layout.FlexColumn
		cs.Width = layout.Px(200)
		container := tree.AddElement(root, "div", cs)
		fill := layout.DefaultStyle()
		fill.Height = layout.Px(20)
		items := addItems(tree, container, sized(50, 30), fill)
		compute(t, tree, 800, 600)

		assert.InDelta(t, 50.0, tree.Node(container).Box.Content.Height, 1e-9)
		assert.InDelta(t, 0.0, tree.AbsoluteBorderBox(items[0]).Y, 1e-9)
		assert.InDelta(t, 30.0, tree.AbsoluteBorderBox(items[1]).Y, 1e-9)
		assert.InDelta(t, 50.0, tree.AbsoluteBorderBox(items[0]).Width, 1e-9)
		assert.InDelta(t, 200.0, tree.AbsoluteBorderBox(items[1]).Width, 1e-9, "an auto width stretches across")
	})

	t.Run("Reverse", func(t *testing.T) {
		tree, root := newDocument()
		cs := flexBox(200, 100)
		cs.FlexDirection = layout.FlexColumnReverse
		container := tree.AddElement(root, "div", cs)
		items := addItems(tree, container, sized(50, 30), sized(50, 20))
		compute(t, tree, 800, 600)

		assert.InDelta(t, 70.0, tree.AbsoluteBorderBox(items[0]).Y, 1e-9)
		assert.InDelta(t, 50.0, tree.AbsoluteBorderBox(items[1]).Y, 1e-9)
	})
}

func TestFlex_LooseTextStartsAtOrigin(t *testing.T) {
	tree, root := newDocument()
	container := tree.AddElement(root, "div", flexBox(300, 50))
	txt := tree.AddText(container, "hi", layout.InlineStyle())
	spanStyle := layout.DefaultStyle()
	spanStyle.Width = layout.Px(20)
	span := tree.AddElement(container, "span", spanStyle)
	compute(t, tree, 800, 600)

	anon := tree.Node(txt).Parent
	require.True(t, tree.Node(anon).IsAnonymous())
	box := tree.AbsoluteBorderBox(anon)
	assert.InDelta(t, 0.0, box.X, 1e-9)
	assert.InDelta(t, 0.0, box.Y, 1e-9)
	assert.InDelta(t, 50.0, box.Height, 1e-9, "the anonymous item stretches")
	assert.Greater(t, box.Width, 0.0)
	assert.InDelta(t, box.X+box.Width, tree.AbsoluteBorderBox(span).X, 1e-9)
	assert.InDelta(t, 0.0, tree.AbsoluteContentRect(txt).X, 1e-9)
}
