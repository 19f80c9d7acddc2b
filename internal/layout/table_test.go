// internal/layout/table_test.go
package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type tableBuilder struct {
	tree  *Tree
	table NodeID
}

func newTableBuilder(style func(*Style)) *tableBuilder {
	tree := NewTree()
	root := tree.AddElement(NoNode, "html", DefaultStyle())
	s := DefaultStyle()
	s.Display = DisplayTable
	if style != nil {
		style(&s)
	}
	return &tableBuilder{tree: tree, table: tree.AddElement(root, "table", s)}
}

func (b *tableBuilder) row(parent NodeID) NodeID {
	s := DefaultStyle()
	s.Display = DisplayTableRow
	return b.tree.AddElement(parent, "tr", s)
}

// cell adds a cell holding a block of the given size.
func (b *tableBuilder) cell(row NodeID, w, h float64, style func(*Style)) NodeID {
	s := DefaultStyle()
	s.Display = DisplayTableCell
	if style != nil {
		style(&s)
	}
	id := b.tree.AddElement(row, "td", s)
	content := DefaultStyle()
	content.Width, content.Height = Px(w), Px(h)
	b.tree.AddElement(id, "div", content)
	return id
}

func (b *tableBuilder) compute(t *testing.T) {
	t.Helper()
	NewEngine(WithLogger(zaptest.NewLogger(t))).Compute(b.tree, 800, 600)
}

func TestCollapseBorders(t *testing.T) {
	solid := func(w float64) BorderSide { return BorderSide{Width: w, Style: BorderSolid} }

	assert.Equal(t, solid(3), CollapseBorders(solid(1), solid(3)), "wider border wins")
	assert.Equal(t, BorderSide{Width: 2, Style: BorderDouble}, CollapseBorders(solid(2), BorderSide{Width: 2, Style: BorderDouble}))
	assert.Equal(t, BorderStyle(BorderHidden), CollapseBorders(BorderSide{Width: 2, Style: BorderDouble}, BorderSide{Width: 2, Style: BorderHidden}).Style)
	assert.Equal(t, solid(1), CollapseBorders(BorderSide{Width: 5, Style: BorderNone}, solid(1)), "none has no width")
	assert.Equal(t, BorderSide{Width: 1, Style: BorderDashed}, CollapseBorders(BorderSide{Width: 1, Style: BorderDashed}, BorderSide{Width: 1, Style: BorderDotted}))
}

func TestTableColumns_Resolve(t *testing.T) {
	t.Run("FillSplitsEvenly", func(t *testing.T) {
		cols := newTableColumns(2)
		cols.add(0, 10, 50, false, 0)
		cols.add(1, 20, 150, false, 0)
		assert.Equal(t, []float64{100, 200}, cols.resolve(300, true))
		assert.Equal(t, []float64{50, 150}, cols.resolve(300, false), "auto tables keep their preferred widths")
	})

	t.Run("ShrinksTowardMinimum", func(t *testing.T) {
		cols := newTableColumns(2)
		cols.add(0, 10, 50, false, 0)
		cols.add(1, 20, 150, false, 0)
		w := cols.resolve(100, false)
		assert.InDelta(t, 100.0, w[0]+w[1], 1e-9)
		assert.GreaterOrEqual(t, w[0], 10.0)
		assert.GreaterOrEqual(t, w[1], 20.0)

		w = cols.resolve(5, false)
		assert.Equal(t, []float64{10, 20}, w, "columns never go below their minimum")
	})

	t.Run("ExplicitColumnsKeepWidth", func(t *testing.T) {
		cols := newTableColumns(2)
		cols.add(0, 10, 10, true, 80)
		cols.add(1, 0, 50, false, 0)
		assert.Equal(t, []float64{80, 120}, cols.resolve(200, true))
	})
}

func TestTable_RowSpan(t *testing.T) {
	b := newTableBuilder(nil)
	r1 := b.row(b.table)
	tall := b.cell(r1, 10, 100, func(s *Style) { s.RowSpan = 2 })
	b.cell(r1, 10, 20, nil)
	r2 := b.row(b.table)
	low := b.cell(r2, 10, 20, nil)
	b.compute(t)

	tree := b.tree
	assert.InDelta(t, 100.0, tree.Node(b.table).Box.Content.Height, 1e-9)
	assert.InDelta(t, 100.0, tree.Node(tall).Box.Content.Height, 1e-9)
	assert.InDelta(t, 80.0, tree.Node(low).Box.Content.Height, 1e-9, "the last spanned row grows to fit")
	box := tree.AbsoluteBorderBox(low)
	assert.InDelta(t, 10.0, box.X, 1e-9, "the spanning cell keeps its column taken")
	assert.InDelta(t, 20.0, box.Y, 1e-9)
	assert.InDelta(t, 20.0, tree.Node(r2).Box.Content.Y, 1e-9)
}

func TestTable_VerticalAlign(t *testing.T) {
	b := newTableBuilder(nil)
	r := b.row(b.table)
	b.cell(r, 10, 60, nil)
	middle := b.cell(r, 10, 20, func(s *Style) { s.VerticalAlign = AlignMiddle })
	bottom := b.cell(r, 10, 20, func(s *Style) { s.VerticalAlign = AlignBottom })
	b.compute(t)

	tree := b.tree
	content := func(cell NodeID) float64 { return tree.Node(tree.Node(cell).Children[0]).Box.Content.Y }
	assert.InDelta(t, 20.0, content(middle), 1e-9)
	assert.InDelta(t, 40.0, content(bottom), 1e-9)
	assert.InDelta(t, 60.0, tree.Node(middle).Box.Content.Height, 1e-9)
}

func TestTable_CollapsedRow(t *testing.T) {
	b := newTableBuilder(func(s *Style) { s.BorderSpacingV = 4 })
	r1 := b.row(b.table)
	b.cell(r1, 10, 20, nil)
	r2 := b.row(b.table)
	b.tree.Node(r2).Style.Visibility = Collapse
	b.cell(r2, 10, 30, nil)
	r3 := b.row(b.table)
	last := b.cell(r3, 10, 20, nil)
	b.compute(t)

	tree := b.tree
	assert.InDelta(t, 0.0, tree.Node(r2).Box.Content.Height, 1e-9)
	assert.InDelta(t, 4.0+20+4+20+4, tree.Node(b.table).Box.Content.Height, 1e-9)
	assert.InDelta(t, 28.0, tree.AbsoluteBorderBox(last).Y, 1e-9)
}

func TestTable_FixedLayout(t *testing.T) {
	b := newTableBuilder(func(s *Style) {
		s.TableLayout = TableLayoutFixed
		s.Width = Px(400)
	})
	r1 := b.row(b.table)
	first := b.cell(r1, 10, 10, func(s *Style) { s.Width = Px(100) })
	second := b.cell(r1, 10, 10, nil)
	r2 := b.row(b.table)
	b.cell(r2, 350, 10, nil)
	b.cell(r2, 10, 10, nil)
	b.compute(t)

	tree := b.tree
	assert.InDelta(t, 100.0, tree.Node(first).Box.Content.Width, 1e-9, "later rows do not widen fixed columns")
	assert.InDelta(t, 300.0, tree.Node(second).Box.Content.Width, 1e-9)
}

func TestTable_SectionsOrderedAndCollapsedBorders(t *testing.T) {
	b := newTableBuilder(func(s *Style) {
		s.BorderCollapse = true
		s.Border = SolidBorder(4)
	})
	bodyStyle := DefaultStyle()
	bodyStyle.Display = DisplayTableRowGroup
	body := b.tree.AddElement(b.table, "tbody", bodyStyle)
	headStyle := DefaultStyle()
	headStyle.Display = DisplayTableHeaderGroup
	head := b.tree.AddElement(b.table, "thead", headStyle)

	border := func(s *Style) { s.Border = SolidBorder(2) }
	bodyCell := b.cell(b.row(body), 10, 10, border)
	headRow := b.row(head)
	left := b.cell(headRow, 10, 10, border)
	b.cell(headRow, 10, 10, border)
	b.compute(t)

	tree := b.tree
	require.Less(t, tree.AbsoluteBorderBox(left).Y, tree.AbsoluteBorderBox(bodyCell).Y, "the header group comes first")
	lb := tree.Node(left).Box.Border
	assert.Equal(t, 2.0, lb.Left, "half of the table border that wins the outer edge")
	assert.Equal(t, 1.0, lb.Right, "half of the shared cell border")
	assert.Equal(t, 2.0, tree.Node(b.table).Box.Border.Left)
}
