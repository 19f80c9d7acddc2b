// internal/layout/multicol.go
package layout

import "math"

// columnBreakSlack lets a column run past the balanced target height by
// 10% before content moves to the next column.
const columnBreakSlack = 1.1

// columnGap returns the used column-gap; normal is 1em.
func (p *pass) columnGap(n *Node) float64 {
	if n.Style.ColumnGap.IsAuto() {
		return n.Style.fontSize()
	}
	return nonNeg(p.ctx.resolveOr(n.Style.ColumnGap, n.Box.Content.Width, 0))
}

// columnCount returns the number of columns and their width for a
// multi-column container of the given content width.
func (p *pass) columnCount(n *Node, width float64) (int, float64) {
	s := &n.Style
	gap := p.columnGap(n)
	count := s.ColumnCount
	if cw, ok := p.ctx.Resolve(s.ColumnWidth, width, true); ok && cw > 0 {
		fit := int(math.Floor((width + gap) / (cw + gap)))
		fit = max(fit, 1)
		if count <= 0 || fit < count {
			count = fit
		}
	}
	count = max(count, 1)
	colW := nonNeg((width - float64(count-1)*gap) / float64(count))
	return count, colW
}

// layoutMulticol flows the children into balanced columns and returns the
// content height. A column-span: all child splits the flow into segments
// above and below it.
func (p *pass) layoutMulticol(n *Node, width, specH float64, depth int) float64 {
	count, colW := p.columnCount(n, width)
	gap := p.columnGap(n)
	cbH, def := specH, !math.IsNaN(specH)
	if !def {
		cbH = 0
	}

	segY := 0.0
	var segment []NodeID
	flush := func() {
		if len(segment) == 0 {
			return
		}
		segY += p.fillColumns(n, segment, count, colW, gap, segY, cbH, def, depth)
		segment = segment[:0]
	}
	for _, cid := range n.Children {
		child := p.tree.Node(cid)
		switch {
		case child.Kind == KindText:
			continue
		case child.Style.Display == DisplayNone:
			p.zeroSubtree(cid)
			continue
		case child.Style.ColumnSpanAll && !child.Style.IsOutOfFlow() && !child.Style.IsFloating():
			flush()
			c := newConstraint(width, cbH, def)
			c.centre = true
			p.layoutBox(cid, c, depth+1)
			if child.Unsized {
				continue
			}
			child.Box.PlaceMarginBox(0, segY)
			segY += child.Box.OuterSize(Vertical)
			continue
		}
		segment = append(segment, cid)
	}
	flush()
	return segY
}

// fillColumns lays out one segment at colW and distributes it over the
// columns, breaking when a column would exceed the target height by more
// than the slack. It returns the segment height.
func (p *pass) fillColumns(n *Node, ids []NodeID, count int, colW, gap, top, cbH float64, def bool, depth int) float64 {
	type item struct {
		id NodeID
		h  float64
	}
	var flow []item
	total := 0.0
	for _, cid := range ids {
		child := p.tree.Node(cid)
		if child.Style.IsOutOfFlow() {
			flow = append(flow, item{id: cid, h: -1})
			continue
		}
		c := newConstraint(colW, cbH, def)
		c.centre = !child.Style.IsFloating()
		c.shrink = child.Style.IsFloating()
		p.layoutBox(cid, c, depth+1)
		if child.Unsized {
			continue
		}
		h := nonNeg(child.Box.OuterSize(Vertical))
		flow = append(flow, item{id: cid, h: h})
		total += h
	}
	target := total / float64(count)

	col, colY, height := 0, 0.0, 0.0
	for _, it := range flow {
		child := p.tree.Node(it.id)
		x := float64(col) * (colW + gap)
		if it.h < 0 {
			child.static = Point{x, top + colY}
			child.hasStatic = true
			continue
		}
		if colY > 0 && colY+it.h > target*columnBreakSlack && col < count-1 {
			col++
			colY = 0
			x = float64(col) * (colW + gap)
		}
		if child.Style.Float == FloatRight {
			x += colW - child.Box.OuterSize(Horizontal)
		}
		child.Box.PlaceMarginBox(x, top+colY)
		colY += it.h
		height = math.Max(height, colY)
	}
	for i := 0; i < count; i++ {
		n.Columns = append(n.Columns, Rect{X: float64(i) * (colW + gap), Y: top, Width: colW, Height: height})
	}
	return height
}
