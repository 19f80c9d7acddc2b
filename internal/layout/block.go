// internal/layout/block.go
package layout

import "math"

// layoutBlock lays out a block container: width from the constraint,
// children in block or inline flow, then the used height.
func (p *pass) layoutBlock(n *Node, c constraint, depth int) {
	auto := p.resolveBoxEdges(n, c.cbWidth)
	n.Box.Content.Width = p.contentWidth(n, c, depth)
	if c.centre {
		centreAutoMargins(n, c.cbWidth, auto)
	}
	width := n.Box.Content.Width
	specH := p.specifiedHeight(n, c, width)

	bfc := p.establishesBFC(n)
	var scope *floatScope
	if bfc || c.scope == nil {
		scope = newFloatScope(width)
	} else {
		d := n.Box
		scope = c.scope.nested(d.Margin.Left+d.Border.Left+d.Padding.Left, d.Margin.Top+d.Border.Top+d.Padding.Top, width)
	}

	var content float64
	switch {
	case n.Style.isMulticol():
		content = p.layoutMulticol(n, width, specH, depth)
	case p.hasInlineContent(n):
		content = p.layoutInlineContent(n, width, scope, depth)
	default:
		content = p.layoutBlockChildren(n, width, specH, scope, depth)
	}
	if bfc {
		content = math.Max(content, scope.bottom())
	}
	p.finishHeight(n, c, specH, content)
	if n.Baseline == 0 {
		n.Baseline = p.firstChildBaseline(n)
	}
}

// firstChildBaseline returns the baseline of the first in-flow child with
// one, in n's content coordinates.
func (p *pass) firstChildBaseline(n *Node) float64 {
	for _, cid := range n.Children {
		c := p.tree.Node(cid)
		if c.Kind == KindText || c.Style.IsOutOfFlow() || c.Style.IsFloating() || c.Style.Display == DisplayNone {
			continue
		}
		if c.Baseline > 0 {
			return c.Box.Content.Y + c.Baseline
		}
	}
	return 0
}

// blockFlow tracks the vertical cursor and the adjoining margins of a
// block formatting pass over the children of one container.
type blockFlow struct {
	cursor  float64
	pending marginAcc
	// top collects margins escaping through the container's top edge.
	top       marginAcc
	escapeTop bool
	placed    bool
}

// position returns where the next border box would start if its margins
// were already in pending.
func (f *blockFlow) position() float64 {
	if f.escapeTop && !f.placed {
		return f.cursor
	}
	return f.cursor + f.pending.value()
}

func (f *blockFlow) positionWith(margin float64) float64 {
	if f.escapeTop && !f.placed {
		return f.cursor
	}
	acc := f.pending
	acc.add(margin)
	return f.cursor + acc.value()
}

// layoutBlockChildren stacks block-level children and returns the content
// height. Adjoining vertical margins collapse, and margins escape through
// an edge of the container that has no border or padding.
func (p *pass) layoutBlockChildren(n *Node, width, specH float64, scope *floatScope, depth int) float64 {
	d := &n.Box
	cbH, def := specH, !math.IsNaN(specH)
	if !def {
		cbH = 0
	}
	bfc := p.establishesBFC(n)
	minH, _ := p.ctx.Resolve(n.Style.MinHeight, 0, false)
	escapeBottom := !bfc && d.Border.Bottom == 0 && d.Padding.Bottom == 0 && !def && minH <= 0

	f := &blockFlow{escapeTop: !bfc && d.Border.Top == 0 && d.Padding.Top == 0}
	f.top.add(d.Margin.Top)

	for _, cid := range n.Children {
		child := p.tree.Node(cid)
		if child.Kind == KindText {
			continue
		}
		s := &child.Style
		switch {
		case s.Display == DisplayNone:
			p.zeroSubtree(cid)
			continue
		case s.IsOutOfFlow():
			child.static = Point{0, f.position()}
			child.hasStatic = true
			continue
		case s.IsFloating():
			p.layoutFloat(child, scope, f.position(), width, cbH, def, depth)
			continue
		}

		mt := p.ctx.resolveOr(s.Margin.Top, width, 0)
		if s.Margin.Top.IsAuto() {
			mt = 0
		}
		minY := math.Inf(-1)
		if s.Clear != ClearNone {
			if cl := scope.clearance(s.Clear); cl > f.positionWith(mt) {
				// Clearance separates the child from the margins above.
				if f.escapeTop && !f.placed {
					f.top.merge(f.pending)
				}
				f.pending.reset()
				f.placed = true
				f.cursor = cl - mt
				minY = cl
			}
		}

		c := newConstraint(width, cbH, def)
		c.centre = true
		yEst := math.Max(f.positionWith(mt), minY)
		xOff := 0.0
		if p.establishesBFC(child) && !scope.empty() {
			xOff, minY = p.avoidFloats(child, scope, yEst, width, &c, depth)
			yEst = math.Max(yEst, minY)
		}
		c.scope = scope.nested(0, yEst-mt, width)
		p.layoutBox(cid, c, depth+1)
		if child.Unsized {
			continue
		}

		x := xOff + child.Box.Margin.Left
		if p.collapsesThrough(child) {
			f.pending.merge(child.mtop)
			f.pending.merge(child.mbot)
			child.Box.PlaceBorderBox(x, math.Max(f.position(), minY))
			continue
		}
		f.pending.merge(child.mtop)
		var y float64
		if f.escapeTop && !f.placed {
			f.top.merge(f.pending)
			y = f.cursor
		} else {
			y = f.cursor + f.pending.value()
		}
		y = math.Max(y, minY)
		f.pending.reset()
		child.Box.PlaceBorderBox(x, y)
		f.cursor = y + child.Box.BorderSize(Vertical)
		f.pending.merge(child.mbot)
		f.placed = true
	}

	content := f.cursor
	switch {
	case !f.placed:
		if f.escapeTop {
			f.top.merge(f.pending)
			n.mtop = f.top
			if escapeBottom {
				bot := f.top
				bot.add(d.Margin.Bottom)
				n.mtop, n.mbot = bot, bot
			}
		}
	default:
		if f.escapeTop {
			n.mtop = f.top
		}
		if escapeBottom {
			var bot marginAcc
			bot.add(d.Margin.Bottom)
			bot.merge(f.pending)
			n.mbot = bot
		} else {
			content = f.cursor + f.pending.value()
		}
	}
	return nonNeg(content)
}

// avoidFloats finds a band beside the floats where a box that starts a new
// formatting context fits, narrowing an auto width to the band. It
// returns the x offset of the band and the lowest y the box may start at.
func (p *pass) avoidFloats(child *Node, scope *floatScope, y, width float64, c *constraint, depth int) (float64, float64) {
	need := 0.0
	if !child.Style.Width.IsAuto() {
		_, maxW := p.outerIntrinsic(child.ID, depth+1)
		need = maxW
	}
	for guard := 0; guard < 64; guard++ {
		x, w := scope.available(y, floatProbeHeight)
		if w >= width-1e-9 {
			return 0, y
		}
		if w >= need {
			if child.Style.Width.IsAuto() {
				c.width = w - p.ctx.resolveOr(child.Style.Margin.Left, width, 0) - p.ctx.resolveOr(child.Style.Margin.Right, width, 0)
				if child.Style.IsReplaced() || child.Style.AspectRatio > 0 {
					c.width = math.NaN()
				}
				c.centre = false
			}
			return x, y
		}
		next, ok := scope.nextEdge(y)
		if !ok {
			return 0, y
		}
		y = next
	}
	return 0, y
}
