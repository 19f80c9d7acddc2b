// internal/layout/intrinsic.go
package layout

import "math"

// intrinsicSize caches the min-content and max-content widths of a box.
type intrinsicSize struct {
	min, max float64
}

// intrinsicWidths returns the min-content and max-content content-box
// widths of id. Results are cached for the pass.
func (p *pass) intrinsicWidths(id NodeID, depth int) (float64, float64) {
	if v, ok := p.intrinsic[id]; ok {
		return v.min, v.max
	}
	n := p.tree.Node(id)
	if n == nil || depth > p.ctx.MaxDepth {
		return 0, 0
	}
	minW, maxW := p.computeIntrinsic(n, depth)
	minW, maxW = nonNeg(minW), nonNeg(maxW)
	if maxW < minW {
		maxW = minW
	}
	p.intrinsic[id] = intrinsicSize{minW, maxW}
	return minW, maxW
}

func (p *pass) computeIntrinsic(n *Node, depth int) (float64, float64) {
	s := &n.Style
	if n.Kind == KindText {
		b := newRunBuilder(p, 0, true, depth)
		return contentExtents(b.build([]NodeID{n.ID}), s.WhiteSpace.Wraps())
	}
	if s.Contain&(ContainSize|ContainInlineSize) != 0 {
		return s.ContainIntrinsicWidth, s.ContainIntrinsicWidth
	}
	if s.IsReplaced() {
		w := s.NaturalWidth
		if w <= 0 && s.AspectRatio > 0 {
			w = s.NaturalHeight * s.AspectRatio
		}
		return w, w
	}
	switch ModeOf(n) {
	case ModeNone:
		return 0, 0
	case ModeFlex:
		return p.flexIntrinsic(n, depth)
	case ModeGrid:
		return p.gridIntrinsic(n, depth)
	case ModeTable:
		return p.tableIntrinsic(n, depth)
	}
	var minW, maxW float64
	if p.hasInlineContent(n) {
		b := newRunBuilder(p, 0, true, depth)
		minW, maxW = contentExtents(b.build(n.Children), s.WhiteSpace.Wraps() && s.TextWrap != TextWrapNoWrap)
	} else {
		floats := 0.0
		for _, cid := range n.Children {
			c := p.tree.Node(cid)
			if c.Kind != KindText && (c.Style.Display == DisplayNone || c.Style.IsOutOfFlow()) {
				continue
			}
			cmin, cmax := p.outerIntrinsic(cid, depth+1)
			minW = math.Max(minW, cmin)
			if c.Kind != KindText && c.Style.IsFloating() {
				floats += cmax
				maxW = math.Max(maxW, floats)
				continue
			}
			floats = 0
			maxW = math.Max(maxW, cmax)
		}
	}
	if s.isMulticol() {
		count := s.ColumnCount
		gap := p.columnGap(n)
		if cw, ok := p.ctx.Resolve(s.ColumnWidth, 0, false); ok && s.ColumnWidth.IsFixed() && cw > 0 {
			minW = math.Min(minW, cw)
			if count <= 0 {
				count = 1
			}
			maxW = float64(count)*math.Max(cw, maxW) + float64(count-1)*gap
		} else if count > 1 {
			maxW = float64(count)*maxW + float64(count-1)*gap
		}
	}
	return minW, maxW
}

// outerIntrinsic returns the min-content and max-content contributions of
// id to its parent: the margin box, honoring fixed widths and min/max.
func (p *pass) outerIntrinsic(id NodeID, depth int) (float64, float64) {
	n := p.tree.Node(id)
	if n == nil || depth > p.ctx.MaxDepth {
		return 0, 0
	}
	if n.Kind == KindText {
		return p.intrinsicWidths(id, depth)
	}
	s := &n.Style
	pad, _ := p.ctx.resolveEdges(s.Padding, 0)
	m, _ := p.ctx.resolveEdges(s.Margin, 0)
	bw := s.Border.Widths()
	frame := nonNeg(pad.Left) + nonNeg(pad.Right) + bw.Left + bw.Right
	margins := m.Left + m.Right

	minW, maxW := p.intrinsicWidths(id, depth)
	if s.Width.IsFixed() && !s.Width.HasPercent() {
		if v, ok := p.ctx.Resolve(s.Width, 0, false); ok {
			if s.BoxSizing == BorderBox {
				v -= frame
			}
			minW, maxW = v, v
		}
	}
	if s.MaxWidth.IsFixed() && !s.MaxWidth.HasPercent() {
		if v, ok := p.ctx.Resolve(s.MaxWidth, 0, false); ok {
			if s.BoxSizing == BorderBox {
				v -= frame
			}
			minW, maxW = math.Min(minW, v), math.Min(maxW, v)
		}
	}
	if s.MinWidth.IsFixed() && !s.MinWidth.HasPercent() {
		if v, ok := p.ctx.Resolve(s.MinWidth, 0, false); ok {
			if s.BoxSizing == BorderBox {
				v -= frame
			}
			minW, maxW = math.Max(minW, v), math.Max(maxW, v)
		}
	}
	return nonNeg(minW + frame + margins), nonNeg(maxW + frame + margins)
}

// hasInlineContent reports whether the in-flow children of a block
// container are inline-level.
func (p *pass) hasInlineContent(n *Node) bool {
	for _, cid := range n.Children {
		if isInlineLevel(p.tree.Node(cid)) {
			return true
		}
	}
	return false
}
