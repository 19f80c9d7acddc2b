// internal/layout/position.go
package layout

import (
	"math"

	"go.uber.org/zap"
)

// resolvePositioned runs after in-flow geometry is final. It walks the
// tree in pre-order so containing blocks are placed before the boxes they
// contain, lays out absolute and fixed boxes, and records sticky boxes.
// Unsized and display:none subtrees are skipped.
func (p *pass) resolvePositioned() {
	t := p.tree
	root := t.Root()
	type frame struct {
		id    NodeID
		depth int
		// cb is the nearest positioned ancestor.
		cb NodeID
	}
	stack := []frame{{id: root, depth: 0, cb: root}}
	placed := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Node(f.id)
		if n == nil || n.Unsized || ModeOf(n) == ModeNone {
			continue
		}
		if f.id != root && n.Kind != KindText {
			switch n.Style.Position {
			case PositionAbsolute:
				p.layoutOutOfFlow(n, p.paddingBoxOf(f.cb), f.depth)
				placed++
			case PositionFixed:
				p.layoutOutOfFlow(n, Rect{Width: p.ctx.ViewportW, Height: p.ctx.ViewportH}, f.depth)
				placed++
			case PositionSticky:
				p.recordSticky(n)
			}
			if n.Unsized {
				continue
			}
		}
		cb := f.cb
		if n.Kind != KindText && n.Style.IsPositioned() {
			cb = f.id
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i], depth: f.depth + 1, cb: cb})
		}
	}
	if placed > 0 {
		p.ctx.Logger.Debug("Positioned out-of-flow boxes.",
			zap.String("pass_id", p.ctx.PassID),
			zap.Int("count", placed))
	}
}

// paddingBoxOf returns the padding box of id in root coordinates.
func (p *pass) paddingBoxOf(id NodeID) Rect {
	n := p.tree.Node(id)
	d := n.Box
	d.Content = p.tree.AbsoluteContentRect(id)
	return d.PaddingBox()
}

// insets resolves the four insets of n against the containing block;
// NaN means auto.
func (p *pass) insets(n *Node, cb Rect) (top, right, bottom, left float64) {
	in := n.Style.Inset
	return p.ctx.resolveInset(in.Top, cb.Height),
		p.ctx.resolveInset(in.Right, cb.Width),
		p.ctx.resolveInset(in.Bottom, cb.Height),
		p.ctx.resolveInset(in.Left, cb.Width)
}

// layoutOutOfFlow sizes and places an absolute or fixed box inside cb,
// given in root coordinates. Insets, size and margins are solved per
// axis; an axis with both insets auto keeps the static position.
func (p *pass) layoutOutOfFlow(n *Node, cb Rect, depth int) {
	s := &n.Style
	top, right, bottom, left := p.insets(n, cb)
	auto := p.resolveBoxEdges(n, cb.Width)
	m := n.Box.Margin
	frameH, frameV := n.Box.Frame(Horizontal), n.Box.Frame(Vertical)

	c := newConstraint(cb.Width, cb.Height, true)
	if s.Width.IsAuto() && !s.IsReplaced() && s.AspectRatio <= 0 {
		avail := cb.Width - m.Left - m.Right - frameH
		if !math.IsNaN(left) {
			avail -= left
		}
		if !math.IsNaN(right) {
			avail -= right
		}
		if !math.IsNaN(left) && !math.IsNaN(right) {
			c.width = nonNeg(avail) + frameH
		} else {
			minW, maxW := p.intrinsicWidths(n.ID, depth)
			c.width = nonNeg(p.clampWidth(n, clamp(nonNeg(avail), minW, maxW), cb.Width, avail, depth)) + frameH
		}
	}
	if s.Height.IsAuto() && !math.IsNaN(top) && !math.IsNaN(bottom) {
		c.height = nonNeg(cb.Height-top-bottom-m.Top-m.Bottom-frameV) + frameV
	}
	p.layoutBox(n.ID, c, depth)
	if n.Unsized {
		return
	}

	origin := p.tree.contentOrigin(n.Parent)
	static := Point{origin.X - cb.X, origin.Y - cb.Y}
	if n.hasStatic {
		static.X += n.static.X
		static.Y += n.static.Y
	}
	rtl := p.resolveDirection(n) == RTL

	d := &n.Box
	var x, y float64
	x, d.Margin.Left, d.Margin.Right = solvePositionedAxis(cb.Width, left, right, d.BorderSize(Horizontal),
		marginOrNaN(d.Margin.Left, auto[3]), marginOrNaN(d.Margin.Right, auto[1]), static.X, rtl)
	y, d.Margin.Top, d.Margin.Bottom = solvePositionedAxis(cb.Height, top, bottom, d.BorderSize(Vertical),
		marginOrNaN(d.Margin.Top, auto[0]), marginOrNaN(d.Margin.Bottom, auto[2]), static.Y, false)
	d.PlaceBorderBox(cb.X+x-origin.X, cb.Y+y-origin.Y)
}

func marginOrNaN(v float64, auto bool) float64 {
	if auto {
		return math.NaN()
	}
	return v
}

// solvePositionedAxis solves start + marginStart + size + marginEnd + end
// = avail for one axis, where NaN marks auto. size is the border-box
// extent. It returns the border-box offset from the containing block and
// the used margins. staticPos is the margin-box offset of the static
// position. When over-constrained the end inset is ignored, or the start
// inset when endWins is set.
func solvePositionedAxis(avail, start, end, size, mStart, mEnd, staticPos float64, endWins bool) (float64, float64, float64) {
	if math.IsNaN(start) && math.IsNaN(end) {
		start = staticPos
	}
	if !math.IsNaN(start) && !math.IsNaN(end) {
		remaining := avail - start - end - size
		switch {
		case math.IsNaN(mStart) && math.IsNaN(mEnd):
			if remaining < 0 {
				mStart, mEnd = 0, remaining
				if endWins {
					mStart, mEnd = remaining, 0
				}
			} else {
				mStart, mEnd = remaining/2, remaining/2
			}
		case math.IsNaN(mStart):
			mStart = remaining - mEnd
		case math.IsNaN(mEnd):
			mEnd = remaining - mStart
		case endWins:
			start = avail - end - size - mStart - mEnd
		}
		return start + mStart, mStart, mEnd
	}
	if math.IsNaN(mStart) {
		mStart = 0
	}
	if math.IsNaN(mEnd) {
		mEnd = 0
	}
	if math.IsNaN(start) {
		start = avail - end - size - mStart - mEnd
	}
	return start + mStart, mStart, mEnd
}

// recordSticky stores the normal-flow border box origin of a sticky box
// in root coordinates with its insets resolved against the nearest
// scrolling ancestor, or the viewport.
func (p *pass) recordSticky(n *Node) {
	scroller := Rect{Width: p.ctx.ViewportW, Height: p.ctx.ViewportH}
	for a := n.Parent; a != NoNode; a = p.tree.Parent(a) {
		if an := p.tree.Node(a); an.Style.Overflow != OverflowVisible && an.Style.Overflow != OverflowClip {
			scroller = an.Box.Content
			break
		}
	}
	bb := p.tree.AbsoluteBorderBox(n.ID)
	top, right, bottom, left := p.insets(n, scroller)
	n.Sticky = &StickyPosition{
		Normal: Point{bb.X, bb.Y},
		Top:    top,
		Right:  right,
		Bottom: bottom,
		Left:   left,
	}
}
