// internal/layout/multicol_test.go
package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

func strip(h float64) layout.Style {
	s := layout.DefaultStyle()
	s.Height = layout.Px(h)
	return s
}

func TestMulticol_Balances(t *testing.T) {
	tree, root := newDocument()
	cs := paragraph(320)
	cs.ColumnCount = 3
	cs.ColumnGap = layout.Px(10)
	container := tree.AddElement(root, "div", cs)
	var items []layout.NodeID
	for i := 0; i < 6; i++ {
		items = append(items, tree.AddElement(container, "div", strip(20)))
	}
	compute(t, tree, 800, 600)

	want := []layout.Rect{
		{X: 0, Y: 0, Width: 100, Height: 20},
		{X: 0, Y: 20, Width: 100, Height: 20},
		{X: 110, Y: 0, Width: 100, Height: 20},
		{X: 110, Y: 20, Width: 100, Height: 20},
		{X: 220, Y: 0, Width: 100, Height: 20},
		{X: 220, Y: 20, Width: 100, Height: 20},
	}
	for i, id := range items {
		assert.Equal(t, want[i], tree.AbsoluteBorderBox(id), "item %d", i)
	}
	cols := tree.Node(container).Columns
	require.Len(t, cols, 3)
	for i, c := range cols {
		assert.InDelta(t, float64(i)*110, c.X, 1e-9)
		assert.InDelta(t, 100.0, c.Width, 1e-9)
		assert.InDelta(t, 40.0, c.Height, 1e-9)
	}
	assert.InDelta(t, 40.0, tree.Node(container).Box.Content.Height, 1e-9)
}

func TestMulticol_ColumnWidth(t *testing.T) {
	tree, root := newDocument()
	cs := paragraph(320)
	cs.ColumnWidth = layout.Px(150)
	cs.ColumnGap = layout.Px(10)
	container := tree.AddElement(root, "div", cs)
	item := tree.AddElement(container, "div", strip(20))
	compute(t, tree, 800, 600)

	require.Len(t, tree.Node(container).Columns, 2, "two 150px columns fit in 320px")
	assert.InDelta(t, 155.0, tree.Node(item).Box.Content.Width, 1e-9, "columns stretch to fill the row")
}

func TestMulticol_SpanAll(t *testing.T) {
	tree, root := newDocument()
	cs := paragraph(320)
	cs.ColumnCount = 2
	cs.ColumnGap = layout.Px(10)
	container := tree.AddElement(root, "div", cs)
	a := tree.AddElement(container, "div", strip(20))
	b := tree.AddElement(container, "div", strip(20))
	spanStyle := strip(30)
	spanStyle.ColumnSpanAll = true
	span := tree.AddElement(container, "h2", spanStyle)
	c := tree.AddElement(container, "div", strip(20))
	compute(t, tree, 800, 600)

	assert.Equal(t, layout.Rect{X: 0, Y: 0, Width: 155, Height: 20}, tree.AbsoluteBorderBox(a))
	assert.Equal(t, layout.Rect{X: 165, Y: 0, Width: 155, Height: 20}, tree.AbsoluteBorderBox(b))
	assert.Equal(t, layout.Rect{X: 0, Y: 20, Width: 320, Height: 30}, tree.AbsoluteBorderBox(span))
	assert.Equal(t, layout.Rect{X: 0, Y: 50, Width: 155, Height: 20}, tree.AbsoluteBorderBox(c))
	assert.InDelta(t, 70.0, tree.Node(container).Box.Content.Height, 1e-9)
	assert.Len(t, tree.Node(container).Columns, 4, "each segment records its own columns")
}
