// internal/layout/sizing.go
package layout

import "math"

// resolveBoxEdges fills padding, border and margins of n against the
// containing block width and reports which margins are auto.
func (p *pass) resolveBoxEdges(n *Node, cbWidth float64) [4]bool {
	s := &n.Style
	pad, _ := p.ctx.resolveEdges(s.Padding, cbWidth)
	n.Box.Padding = Edges{Top: nonNeg(pad.Top), Right: nonNeg(pad.Right), Bottom: nonNeg(pad.Bottom), Left: nonNeg(pad.Left)}
	n.Box.Border = s.Border.Widths()
	if b, ok := p.borders[n.ID]; ok {
		n.Box.Border = b
	}
	m, auto := p.ctx.resolveEdges(s.Margin, cbWidth)
	n.Box.Margin = m
	return auto
}

// contentWidth computes the used content width of n for constraint c,
// with padding, border and margins already resolved.
func (p *pass) contentWidth(n *Node, c constraint, depth int) float64 {
	s := &n.Style
	frame := n.Box.Frame(Horizontal)
	avail := c.cbWidth - n.Box.Margin.Left - n.Box.Margin.Right - frame
	var w float64
	switch {
	case !math.IsNaN(c.width):
		w = c.width - frame
	case s.Contain&(ContainSize|ContainInlineSize) != 0 && s.Width.IsAuto() && s.ContainIntrinsicWidth > 0:
		w = s.ContainIntrinsicWidth
		if c.shrink {
			w = math.Min(w, math.Max(avail, 0))
		}
	default:
		if v, ok := p.specifiedWidth(n, s.Width, c.cbWidth, avail, depth); ok {
			w = v
		} else if rw, ok := p.ratioWidth(n, c); ok {
			w = rw
		} else if c.shrink || s.IsReplaced() {
			minW, maxW := p.intrinsicWidths(n.ID, depth)
			w = clamp(avail, minW, maxW)
			if s.IsReplaced() && !c.shrink {
				w = maxW
			}
		} else {
			w = avail
		}
	}
	return nonNeg(p.clampWidth(n, w, c.cbWidth, avail, depth))
}

// specifiedWidth resolves a width-like property to a content width.
func (p *pass) specifiedWidth(n *Node, l Length, cbWidth, avail float64, depth int) (float64, bool) {
	switch l.Kind {
	case LengthFixed:
		v, ok := p.ctx.Resolve(l, cbWidth, true)
		if !ok {
			return 0, false
		}
		if n.Style.BoxSizing == BorderBox {
			v -= n.Box.Frame(Horizontal)
		}
		return v, true
	case LengthMinContent, LengthMaxContent, LengthFitContent:
		minW, maxW := p.intrinsicWidths(n.ID, depth)
		switch l.Kind {
		case LengthMinContent:
			return minW, true
		case LengthMaxContent:
			return maxW, true
		}
		return clamp(avail, minW, maxW), true
	}
	return 0, false
}

// ratioWidth derives an auto width from a definite height and the
// aspect ratio, or from the natural size of a replaced box.
func (p *pass) ratioWidth(n *Node, c constraint) (float64, bool) {
	s := &n.Style
	ratio := s.AspectRatio
	if ratio <= 0 && s.NaturalWidth > 0 && s.NaturalHeight > 0 {
		ratio = s.NaturalWidth / s.NaturalHeight
	}
	if ratio > 0 {
		if !math.IsNaN(c.height) {
			return (c.height - n.Box.Frame(Vertical)) * ratio, true
		}
		if v, ok := p.ctx.Resolve(s.Height, c.cbHeight, c.heightDef); ok {
			if s.BoxSizing == BorderBox {
				v -= n.Box.Frame(Vertical)
			}
			return v * ratio, true
		}
	}
	if s.NaturalWidth > 0 {
		return s.NaturalWidth, true
	}
	return 0, false
}

// clampWidth applies max-width then min-width; min wins.
func (p *pass) clampWidth(n *Node, w, cbWidth, avail float64, depth int) float64 {
	s := &n.Style
	if s.MaxWidth.Kind != LengthNone && !s.MaxWidth.IsAuto() {
		if v, ok := p.specifiedWidth(n, s.MaxWidth, cbWidth, avail, depth); ok {
			w = math.Min(w, v)
		}
	}
	if v, ok := p.specifiedWidth(n, s.MinWidth, cbWidth, avail, depth); ok {
		w = math.Max(w, v)
	}
	return w
}

// specifiedHeight returns the content height n is given independently of
// its content, or NaN when it depends on content.
func (p *pass) specifiedHeight(n *Node, c constraint, contentW float64) float64 {
	s := &n.Style
	frame := n.Box.Frame(Vertical)
	if !math.IsNaN(c.height) {
		return nonNeg(c.height - frame)
	}
	if v, ok := p.ctx.Resolve(s.Height, c.cbHeight, c.heightDef); ok {
		if s.BoxSizing == BorderBox {
			v -= frame
		}
		return nonNeg(v)
	}
	ratio := s.AspectRatio
	if ratio <= 0 && s.NaturalWidth > 0 && s.NaturalHeight > 0 {
		ratio = s.NaturalWidth / s.NaturalHeight
	}
	if ratio > 0 {
		return nonNeg(contentW / ratio)
	}
	if s.NaturalHeight > 0 {
		return s.NaturalHeight
	}
	if s.Contain&ContainSize != 0 {
		return nonNeg(s.ContainIntrinsicHeight)
	}
	return math.NaN()
}

// finishHeight stores the used content height: the specified height if
// any, else the content height, clamped by min-height and max-height.
func (p *pass) finishHeight(n *Node, c constraint, specH, content float64) {
	s := &n.Style
	h := content
	if !math.IsNaN(specH) {
		h = specH
		n.definiteHeight = true
	}
	frame := n.Box.Frame(Vertical)
	if s.MaxHeight.Kind == LengthFixed {
		if v, ok := p.ctx.Resolve(s.MaxHeight, c.cbHeight, c.heightDef); ok {
			if s.BoxSizing == BorderBox {
				v -= frame
			}
			h = math.Min(h, v)
		}
	}
	if v, ok := p.ctx.Resolve(s.MinHeight, c.cbHeight, c.heightDef); ok {
		if s.BoxSizing == BorderBox {
			v -= frame
		}
		h = math.Max(h, v)
	}
	n.Box.Content.Height = nonNeg(h)
}

// centreAutoMargins resolves auto horizontal margins of a block-level box
// with a known width against the containing block width.
func centreAutoMargins(n *Node, cbWidth float64, auto [4]bool) {
	if !auto[1] && !auto[3] {
		return
	}
	used := n.Box.Content.Width + n.Box.Frame(Horizontal)
	remaining := cbWidth - used - n.Box.Margin.Left - n.Box.Margin.Right
	if remaining < 0 {
		remaining = 0
	}
	switch {
	case auto[1] && auto[3]:
		n.Box.Margin.Left = remaining / 2
		n.Box.Margin.Right = remaining / 2
	case auto[3]:
		n.Box.Margin.Left = remaining
	default:
		n.Box.Margin.Right = remaining
	}
}

// fitContent returns min(max(min, avail), max).
func fitContent(avail, minW, maxW float64) float64 {
	return math.Min(math.Max(minW, avail), maxW)
}
