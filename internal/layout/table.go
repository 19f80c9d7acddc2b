// internal/layout/table.go
package layout

import (
	"math"
	"sort"
)

// tableCell is a cell with its slot in the table grid.
type tableCell struct {
	node    *Node
	row     int
	col     int
	rowSpan int
	colSpan int
}

// tableRow is one row of the flattened table. node is nil for a row
// synthesized around cells placed directly in a table or row group.
type tableRow struct {
	node      *Node
	cells     []*tableCell
	y         float64
	height    float64
	baseline  float64
	collapsed bool
}

// tableGrid is the flattened structure of a table: header groups first,
// footer groups last.
type tableGrid struct {
	rows     []*tableRow
	captions []*Node
	sections []*Node
	cols     int
}

// blankAnonymous reports whether n is an anonymous block holding nothing
// but collapsible white space.
func (p *pass) blankAnonymous(n *Node) bool {
	if !n.IsAnonymous() {
		return false
	}
	for _, cid := range n.Children {
		if c := p.tree.Node(cid); !isCollapsibleSpace(c) && !c.Style.IsOutOfFlow() {
			return false
		}
	}
	return true
}

// tableSkip reports whether a child of a table structure box takes no part
// in the table grid.
func (p *pass) tableSkip(c *Node) bool {
	if c.Kind == KindText || c.Style.Display == DisplayNone || p.blankAnonymous(c) {
		return true
	}
	switch c.Style.Display {
	case DisplayTableColumn, DisplayTableColumnGroup:
		return true
	}
	return false
}

// collectTable flattens the row groups of n into rows and assigns every
// cell its column. With layout set, skipped boxes are cleared and
// out-of-flow children get a static position.
func (p *pass) collectTable(n *Node, layout bool) *tableGrid {
	g := &tableGrid{}
	type group struct {
		node  *Node
		order int
		ids   []NodeID
	}
	var groups []group
	var loose []NodeID
	flush := func() {
		if len(loose) > 0 {
			groups = append(groups, group{order: 1, ids: loose})
			loose = nil
		}
	}
	for _, cid := range n.Children {
		c := p.tree.Node(cid)
		switch {
		case p.tableSkip(c):
			if layout {
				p.zeroSubtree(cid)
			}
		case c.Style.IsOutOfFlow():
			if layout {
				c.static, c.hasStatic = Point{}, true
			}
		case c.Style.Display == DisplayTableCaption:
			g.captions = append(g.captions, c)
		case c.Style.isTableSection():
			flush()
			order := 1
			switch c.Style.Display {
			case DisplayTableHeaderGroup:
				order = 0
			case DisplayTableFooterGroup:
				order = 2
			}
			groups = append(groups, group{node: c, order: order, ids: c.Children})
		default:
			loose = append(loose, cid)
		}
	}
	flush()
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].order < groups[b].order })
	for _, gr := range groups {
		if gr.node != nil {
			g.sections = append(g.sections, gr.node)
		}
		p.collectRows(g, gr.ids, layout)
	}
	g.assignColumns()
	return g
}

func (p *pass) collectRows(g *tableGrid, ids []NodeID, layout bool) {
	var synthetic *tableRow
	for _, id := range ids {
		c := p.tree.Node(id)
		switch {
		case p.tableSkip(c):
			if layout {
				p.zeroSubtree(id)
			}
		case c.Style.IsOutOfFlow():
			if layout {
				c.static, c.hasStatic = Point{}, true
			}
		case c.Style.Display == DisplayTableRow:
			synthetic = nil
			row := &tableRow{node: c, collapsed: c.Style.Visibility == Collapse}
			for _, cellID := range c.Children {
				cell := p.tree.Node(cellID)
				switch {
				case p.tableSkip(cell):
					if layout {
						p.zeroSubtree(cellID)
					}
				case cell.Style.IsOutOfFlow():
					if layout {
						cell.static, cell.hasStatic = Point{}, true
					}
				default:
					row.cells = append(row.cells, &tableCell{node: cell})
				}
			}
			g.rows = append(g.rows, row)
		default:
			if synthetic == nil {
				synthetic = &tableRow{}
				g.rows = append(g.rows, synthetic)
			}
			synthetic.cells = append(synthetic.cells, &tableCell{node: c})
		}
	}
}

// assignColumns places cells left to right, skipping slots taken by
// row-spanning cells from earlier rows. The column count covers every row.
func (g *tableGrid) assignColumns() {
	taken := map[[2]int]bool{}
	for ri, row := range g.rows {
		col := 0
		for _, cell := range row.cells {
			for taken[[2]int{ri, col}] {
				col++
			}
			cell.row, cell.col = ri, col
			cell.colSpan = cell.node.Style.colSpan()
			cell.rowSpan = min(cell.node.Style.rowSpan(), len(g.rows)-ri)
			for r := ri; r < ri+cell.rowSpan; r++ {
				for c := col; c < col+cell.colSpan; c++ {
					taken[[2]int{r, c}] = true
				}
			}
			col += cell.colSpan
			g.cols = max(g.cols, col)
		}
	}
}

// tableColumns holds the width requirements of each column.
type tableColumns struct {
	min      []float64
	max      []float64
	fixed    []float64
	explicit []bool
}

func newTableColumns(n int) *tableColumns {
	return &tableColumns{
		min:      make([]float64, n),
		max:      make([]float64, n),
		fixed:    make([]float64, n),
		explicit: make([]bool, n),
	}
}

func (t *tableColumns) add(i int, mn, mx float64, explicit bool, w float64) {
	t.min[i] = math.Max(t.min[i], mn)
	t.max[i] = math.Max(t.max[i], mx)
	if explicit {
		t.explicit[i] = true
		t.fixed[i] = math.Max(t.fixed[i], w)
	}
}

// want is the preferred width of column i.
func (t *tableColumns) want(i int) float64 {
	if t.explicit[i] {
		return math.Max(t.fixed[i], t.min[i])
	}
	return math.Max(t.max[i], t.min[i])
}

// resolve turns the requirements into used widths for avail. Columns
// shrink toward their minimum when the preferred widths overflow; with
// fill set, leftover space is split equally among columns without an
// explicit width, or among all columns when every one has one.
func (t *tableColumns) resolve(avail float64, fill bool) []float64 {
	n := len(t.min)
	widths := make([]float64, n)
	sum := 0.0
	for i := range widths {
		widths[i] = t.want(i)
		sum += widths[i]
	}
	switch {
	case sum > avail+1e-9:
		give := 0.0
		for i := range widths {
			give += widths[i] - t.min[i]
		}
		excess := sum - avail
		for i := range widths {
			if give <= 0 || excess >= give {
				widths[i] = t.min[i]
				continue
			}
			widths[i] -= excess * (widths[i] - t.min[i]) / give
		}
	case fill && sum < avail-1e-9:
		var targets []int
		for i := range widths {
			if !t.explicit[i] {
				targets = append(targets, i)
			}
		}
		if len(targets) == 0 {
			for i := range widths {
				targets = append(targets, i)
			}
		}
		share := (avail - sum) / float64(len(targets))
		for _, i := range targets {
			widths[i] += share
		}
	}
	return widths
}

// cellWidth resolves the specified width of a cell as a border-box width.
func (p *pass) cellWidth(cell *Node, basis float64, def bool) (float64, bool) {
	s := &cell.Style
	v, ok := p.ctx.Resolve(s.Width, basis, def)
	if !ok {
		return 0, false
	}
	if s.BoxSizing != BorderBox {
		pad, _ := p.ctx.resolveEdges(s.Padding, basis)
		bw := s.Border.Widths()
		if b, ok := p.borders[cell.ID]; ok {
			bw = b
		}
		v += nonNeg(pad.Left) + nonNeg(pad.Right) + bw.Left + bw.Right
	}
	return nonNeg(v), true
}

// measureColumns gathers column requirements. The fixed algorithm reads
// only the first row's explicit widths; the auto algorithm takes the
// largest explicit or intrinsic width across all rows and spreads the
// deficit of spanning cells over their columns.
func (p *pass) measureColumns(n *Node, g *tableGrid, avail float64, def, fixedLayout bool, hs float64, depth int) *tableColumns {
	cols := newTableColumns(g.cols)
	for i, l := range n.Style.ColumnWidths {
		if i >= g.cols {
			break
		}
		if v, ok := p.ctx.Resolve(l, avail, def); ok {
			cols.add(i, 0, 0, true, nonNeg(v))
		}
	}
	type spanning struct {
		cell     *tableCell
		mn, mx   float64
		explicit bool
	}
	var spans []spanning
	for ri, row := range g.rows {
		if fixedLayout && ri > 0 {
			break
		}
		for _, cell := range row.cells {
			w, explicit := p.cellWidth(cell.node, avail, def)
			var mn, mx float64
			switch {
			case fixedLayout:
				mn, mx = w, w
			default:
				mn, mx = p.outerIntrinsic(cell.node.ID, depth+1)
				if explicit {
					mx = math.Max(w, mn)
				}
			}
			if cell.colSpan > 1 {
				spans = append(spans, spanning{cell: cell, mn: mn, mx: mx, explicit: explicit})
				continue
			}
			cols.add(cell.col, mn, mx, explicit, w)
		}
	}
	for _, sp := range spans {
		start, end := sp.cell.col, min(sp.cell.col+sp.cell.colSpan, g.cols)
		gaps := hs * float64(end-start-1)
		if fixedLayout {
			if sp.explicit {
				per := (sp.mx - gaps) / float64(end-start)
				for i := start; i < end; i++ {
					cols.add(i, 0, 0, true, nonNeg(per))
				}
			}
			continue
		}
		have, haveMin := gaps, gaps
		var unset []int
		for i := start; i < end; i++ {
			have += cols.want(i)
			haveMin += cols.min[i]
			if !cols.explicit[i] {
				unset = append(unset, i)
			}
		}
		if need := sp.mx - have; need > 0 {
			if len(unset) > 0 {
				for _, i := range unset {
					cols.max[i] = cols.want(i) + need/float64(len(unset))
				}
			} else {
				total := have - gaps
				for i := start; i < end; i++ {
					share := need / float64(end-start)
					if total > 0 {
						share = need * cols.want(i) / total
					}
					cols.fixed[i] = cols.want(i) + share
				}
			}
		}
		if need := sp.mn - haveMin; need > 0 {
			for i := start; i < end; i++ {
				cols.min[i] += need / float64(end-start)
			}
		}
	}
	return cols
}

// CollapseBorders picks the border that wins on an edge shared by two
// boxes in the collapsing border model: the wider one, then by style
// (hidden, double, solid, dashed, dotted, ridge, outset, groove, inset).
func CollapseBorders(a, b BorderSide) BorderSide {
	wa, wb := borderWeight(a), borderWeight(b)
	switch {
	case wa > wb:
		return a
	case wb > wa:
		return b
	}
	if borderRank(b.Style) > borderRank(a.Style) {
		return b
	}
	return a
}

func borderWeight(b BorderSide) float64 {
	if b.Style == BorderNone {
		return 0
	}
	return nonNeg(b.Width)
}

func borderRank(s BorderStyle) int {
	switch s {
	case BorderHidden:
		return 9
	case BorderDouble:
		return 8
	case BorderSolid:
		return 7
	case BorderDashed:
		return 6
	case BorderDotted:
		return 5
	case BorderRidge:
		return 4
	case BorderOutset:
		return 3
	case BorderGroove:
		return 2
	case BorderInset:
		return 1
	}
	return 0
}

// collapseBorders resolves every cell edge against its neighbour, or the
// table border on the outside. Cells and the table each take half of the
// winning width.
func (p *pass) collapseBorders(n *Node, g *tableGrid) {
	owner := map[[2]int]*tableCell{}
	for _, row := range g.rows {
		for _, cell := range row.cells {
			for r := cell.row; r < cell.row+cell.rowSpan; r++ {
				for c := cell.col; c < cell.col+cell.colSpan; c++ {
					owner[[2]int{r, c}] = cell
				}
			}
		}
	}
	tb := n.Style.Border
	var outer Edges
	resolve := func(own BorderSide, r, c int, opposite func(BorderEdges) BorderSide, table BorderSide, out *float64) float64 {
		if nb, ok := owner[[2]int{r, c}]; ok {
			return CollapseBorders(own, opposite(nb.node.Style.Border)).Used() / 2
		}
		w := CollapseBorders(own, table).Used()
		*out = math.Max(*out, w)
		return w / 2
	}
	for _, row := range g.rows {
		for _, cell := range row.cells {
			b := cell.node.Style.Border
			p.borders[cell.node.ID] = Edges{
				Top:    resolve(b.Top, cell.row-1, cell.col, func(e BorderEdges) BorderSide { return e.Bottom }, tb.Top, &outer.Top),
				Bottom: resolve(b.Bottom, cell.row+cell.rowSpan, cell.col, func(e BorderEdges) BorderSide { return e.Top }, tb.Bottom, &outer.Bottom),
				Left:   resolve(b.Left, cell.row, cell.col-1, func(e BorderEdges) BorderSide { return e.Right }, tb.Left, &outer.Left),
				Right:  resolve(b.Right, cell.row, cell.col+cell.colSpan, func(e BorderEdges) BorderSide { return e.Left }, tb.Right, &outer.Right),
			}
		}
	}
	if len(g.rows) == 0 {
		return
	}
	p.borders[n.ID] = Edges{Top: outer.Top / 2, Right: outer.Right / 2, Bottom: outer.Bottom / 2, Left: outer.Left / 2}
}

// tableSpacing returns the used border-spacing; it is zero when borders
// collapse.
func tableSpacing(s *Style) (h, v float64) {
	if s.BorderCollapse {
		return 0, 0
	}
	return nonNeg(s.BorderSpacingH), nonNeg(s.BorderSpacingV)
}

// layoutTable lays out a table box: captions, column widths, rows with
// their cells, then row groups.
func (p *pass) layoutTable(n *Node, c constraint, depth int) {
	s := &n.Style
	g := p.collectTable(n, true)
	if s.BorderCollapse {
		p.collapseBorders(n, g)
	}
	auto := p.resolveBoxEdges(n, c.cbWidth)
	hs, vs := tableSpacing(s)

	explicitW := !math.IsNaN(c.width) || s.Width.IsIntrinsic()
	if _, ok := p.ctx.Resolve(s.Width, c.cbWidth, true); ok {
		explicitW = true
	}
	spacing := 0.0
	if g.cols > 0 {
		spacing = hs * float64(g.cols+1)
	}
	var width float64
	fillW := nonNeg(c.cbWidth - n.Box.Margin.Left - n.Box.Margin.Right - n.Box.Frame(Horizontal))
	if explicitW {
		width = p.contentWidth(n, c, depth)
	} else {
		width = fillW
	}
	fixedLayout := s.TableLayout == TableLayoutFixed && explicitW
	cols := p.measureColumns(n, g, nonNeg(width-spacing), true, fixedLayout, hs, depth)
	widths := cols.resolve(nonNeg(width-spacing), explicitW)
	if !explicitW {
		used := spacing
		for _, w := range widths {
			used += w
		}
		clamped := p.clampWidth(n, used, c.cbWidth, fillW, depth)
		if clamped > used+1e-9 {
			widths = cols.resolve(nonNeg(clamped-spacing), true)
		}
		width = clamped
	}
	n.Box.Content.Width = nonNeg(width)
	if c.centre {
		centreAutoMargins(n, c.cbWidth, auto)
	}
	specH := p.specifiedHeight(n, c, width)

	colX := make([]float64, g.cols)
	x := hs
	for i, w := range widths {
		colX[i] = x
		x += w + hs
	}
	spanWidth := func(cell *tableCell) float64 {
		w := hs * float64(cell.colSpan-1)
		for i := cell.col; i < min(cell.col+cell.colSpan, g.cols); i++ {
			w += widths[i]
		}
		return w
	}

	for _, capNode := range g.captions {
		cc := newConstraint(width, 0, false)
		cc.centre = true
		p.layoutBox(capNode.ID, cc, depth+1)
	}
	for _, row := range g.rows {
		for _, cell := range row.cells {
			if row.collapsed {
				p.zeroSubtree(cell.node.ID)
				continue
			}
			cc := newConstraint(spanWidth(cell), 0, false)
			cc.width = spanWidth(cell)
			p.layoutBox(cell.node.ID, cc, depth+1)
		}
	}

	p.sizeTableRows(g, vs)

	var capTop, capBottom float64
	for _, capNode := range g.captions {
		if capNode.Style.CaptionSide == CaptionBottom {
			capBottom += capNode.Box.OuterSize(Vertical)
		} else {
			capTop += capNode.Box.OuterSize(Vertical)
		}
	}
	rowsBlock := 0.0
	visible := 0
	for _, row := range g.rows {
		if !row.collapsed {
			rowsBlock += row.height + vs
			visible++
		}
	}
	if visible > 0 {
		rowsBlock += vs
	}
	if !math.IsNaN(specH) && visible > 0 {
		if extra := specH - capTop - capBottom - rowsBlock; extra > 0 {
			for _, row := range g.rows {
				if !row.collapsed {
					row.height += extra / float64(visible)
				}
			}
			rowsBlock += extra
		}
	}

	y := 0.0
	for _, capNode := range g.captions {
		if capNode.Style.CaptionSide != CaptionBottom {
			capNode.Box.PlaceMarginBox(0, y)
			y += capNode.Box.OuterSize(Vertical)
		}
	}
	rowsTop := y
	if visible > 0 {
		y += vs
	}
	for _, row := range g.rows {
		row.y = y
		if !row.collapsed {
			y += row.height + vs
		}
	}
	rowsBottom := rowsTop + rowsBlock
	y = rowsBottom
	for _, capNode := range g.captions {
		if capNode.Style.CaptionSide == CaptionBottom {
			capNode.Box.PlaceMarginBox(0, y)
			y += capNode.Box.OuterSize(Vertical)
		}
	}
	p.finishHeight(n, c, specH, y)

	rtl := p.resolveDirection(n) == RTL
	p.placeTableBoxes(n, g, colX, vs, rtl)

	n.Columns = n.Columns[:0]
	for i, w := range widths {
		cx := colX[i]
		if rtl {
			cx = width - cx - w
		}
		n.Columns = append(n.Columns, Rect{X: cx, Y: rowsTop, Width: w, Height: rowsBottom - rowsTop})
	}
	for _, row := range g.rows {
		if !row.collapsed {
			n.Baseline = row.y + row.baseline
			if row.baseline == 0 {
				n.Baseline = row.y + row.height
			}
			break
		}
	}
}

// sizeTableRows sets each row to its tallest single-row cell, aligning
// baseline cells, then grows the last row a spanning cell covers until
// the cell fits.
func (p *pass) sizeTableRows(g *tableGrid, vs float64) {
	for _, row := range g.rows {
		row.height, row.baseline = 0, 0
		if row.collapsed {
			continue
		}
		if row.node != nil {
			if v, ok := p.ctx.Resolve(row.node.Style.Height, 0, false); ok {
				row.height = nonNeg(v)
			}
		}
		maxAbove, maxBelow := 0.0, 0.0
		for _, cell := range row.cells {
			d := cell.node.Box
			if cell.rowSpan == 1 {
				row.height = math.Max(row.height, d.BorderSize(Vertical))
			}
			if cell.node.Style.VerticalAlign == AlignBaseline {
				above := d.Border.Top + d.Padding.Top + cell.node.Baseline
				maxAbove = math.Max(maxAbove, above)
				if cell.rowSpan == 1 {
					maxBelow = math.Max(maxBelow, d.BorderSize(Vertical)-above)
				}
			}
		}
		row.baseline = maxAbove
		row.height = math.Max(row.height, maxAbove+maxBelow)
	}
	for _, row := range g.rows {
		for _, cell := range row.cells {
			if cell.rowSpan < 2 || row.collapsed {
				continue
			}
			last := cell.row + cell.rowSpan - 1
			spanned := vs * float64(cell.rowSpan-1)
			for r := cell.row; r <= last; r++ {
				spanned += g.rows[r].height
			}
			if need := cell.node.Box.BorderSize(Vertical) - spanned; need > 0 {
				g.rows[last].height += need
			}
		}
	}
}

// placeTableBoxes positions rows, row groups and cells. Cells stretch to
// the rows they span and their content moves by vertical-align.
func (p *pass) placeTableBoxes(n *Node, g *tableGrid, colX []float64, vs float64, rtl bool) {
	width := n.Box.Content.Width
	origin := map[NodeID]Point{n.ID: {}}
	rowOf := map[NodeID]*tableRow{}
	for _, row := range g.rows {
		for _, cell := range row.cells {
			rowOf[cell.node.ID] = row
		}
		if row.node != nil {
			rowOf[row.node.ID] = row
		}
	}
	for _, sec := range g.sections {
		top, bottom := math.Inf(1), math.Inf(-1)
		for _, cid := range sec.Children {
			if row, ok := rowOf[cid]; ok {
				top = math.Min(top, row.y)
				bottom = math.Max(bottom, row.y+row.height)
			}
		}
		if math.IsInf(top, 1) {
			top, bottom = 0, 0
		}
		sec.Box = Dimensions{Content: Rect{Y: top, Width: width, Height: bottom - top}}
		origin[sec.ID] = Point{Y: top}
	}
	for _, row := range g.rows {
		if row.node == nil {
			continue
		}
		po := origin[row.node.Parent]
		row.node.Box = Dimensions{Content: Rect{X: -po.X, Y: row.y - po.Y, Width: width, Height: row.height}}
		row.node.Baseline = row.baseline
		origin[row.node.ID] = Point{Y: row.y}
	}
	for _, row := range g.rows {
		if row.collapsed {
			continue
		}
		for _, cell := range row.cells {
			last := min(cell.row+cell.rowSpan, len(g.rows))
			cellH := vs * float64(cell.rowSpan-1)
			for r := cell.row; r < last; r++ {
				cellH += g.rows[r].height
			}
			p.alignCell(cell, row, cellH)
			cx := colX[cell.col]
			if rtl {
				cx = width - cx - cell.node.Box.BorderSize(Horizontal)
			}
			po := origin[cell.node.Parent]
			cell.node.Box.PlaceBorderBox(cx-po.X, row.y-po.Y)
		}
	}
}

// alignCell stretches a cell to the height of its rows and shifts its
// content by vertical-align.
func (p *pass) alignCell(cell *tableCell, row *tableRow, cellH float64) {
	n := cell.node
	d := &n.Box
	free := cellH - d.BorderSize(Vertical)
	if free <= 0 {
		return
	}
	var offset float64
	switch n.Style.VerticalAlign {
	case AlignMiddle:
		offset = free / 2
	case AlignBottom, AlignTextBottom:
		offset = free
	case AlignBaseline:
		if cell.rowSpan == 1 {
			offset = clamp(row.baseline-(d.Border.Top+d.Padding.Top+n.Baseline), 0, free)
		}
	}
	d.Content.Height += free
	if offset == 0 {
		return
	}
	for _, cid := range n.Children {
		p.tree.Node(cid).Box.Content.Y += offset
	}
	for i := range n.Columns {
		n.Columns[i].Y += offset
	}
	n.Baseline += offset
}

// tableIntrinsic returns the intrinsic widths of a table: the summed
// column requirements plus spacing, at least as wide as its captions.
func (p *pass) tableIntrinsic(n *Node, depth int) (float64, float64) {
	g := p.collectTable(n, false)
	hs, _ := tableSpacing(&n.Style)
	cols := p.measureColumns(n, g, 0, false, false, hs, depth)
	var minW, maxW float64
	if g.cols > 0 {
		minW = hs * float64(g.cols+1)
		maxW = minW
	}
	for i := 0; i < g.cols; i++ {
		minW += cols.min[i]
		maxW += cols.want(i)
	}
	for _, capNode := range g.captions {
		cmin, cmax := p.outerIntrinsic(capNode.ID, depth+1)
		minW = math.Max(minW, cmin)
		maxW = math.Max(maxW, cmax)
	}
	return minW, maxW
}
