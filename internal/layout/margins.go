// internal/layout/margins.go
package layout

import "math"

// marginAcc accumulates adjoining vertical margins. The collapsed value is
// the largest positive margin plus the most negative one, so same-sign
// margins keep the largest magnitude and mixed signs sum.
type marginAcc struct {
	pos  float64
	neg  float64
	seen bool
}

func (m *marginAcc) add(v float64) {
	v = finite(v)
	m.seen = true
	if v > 0 {
		m.pos = math.Max(m.pos, v)
	} else if v < m.neg {
		m.neg = v
	}
}

func (m *marginAcc) merge(o marginAcc) {
	if !o.seen {
		return
	}
	m.seen = true
	m.pos = math.Max(m.pos, o.pos)
	m.neg = math.Min(m.neg, o.neg)
}

func (m marginAcc) value() float64 { return m.pos + m.neg }

func (m marginAcc) empty() bool { return !m.seen }

func (m *marginAcc) reset() { *m = marginAcc{} }

// CollapseMargins returns the collapsed value of a set of adjoining
// margins.
func CollapseMargins(margins ...float64) float64 {
	var acc marginAcc
	for _, m := range margins {
		acc.add(m)
	}
	return acc.value()
}

// collapsesThrough reports whether a laid-out block lets its own top and
// bottom margins collapse together.
func (p *pass) collapsesThrough(n *Node) bool {
	if ModeOf(n) != ModeBlock || p.establishesBFC(n) || n.Style.IsReplaced() {
		return false
	}
	d := n.Box
	if d.Content.Height != 0 || d.Border.Top != 0 || d.Border.Bottom != 0 || d.Padding.Top != 0 || d.Padding.Bottom != 0 {
		return false
	}
	if !n.Style.Height.IsAuto() {
		if v, ok := p.ctx.Resolve(n.Style.Height, 0, false); !ok || v != 0 {
			return false
		}
	}
	if v, ok := p.ctx.Resolve(n.Style.MinHeight, 0, false); ok && v > 0 {
		return false
	}
	return true
}

// establishesBFC reports whether n starts a new block formatting context.
func (p *pass) establishesBFC(n *Node) bool {
	if n.Parent == NoNode {
		return true
	}
	s := &n.Style
	if s.IsFloating() || s.IsOutOfFlow() || s.Overflow != OverflowVisible {
		return true
	}
	if s.Contain&(ContainLayout|ContainPaint) != 0 || s.isMulticol() {
		return true
	}
	if n.Kind != KindAnonymous {
		switch s.Display {
		case DisplayInlineBlock, DisplayFlowRoot, DisplayFlex, DisplayInlineFlex, DisplayGrid, DisplayInlineGrid,
			DisplayTable, DisplayInlineTable, DisplayTableCell, DisplayTableCaption:
			return true
		}
	}
	if parent := p.tree.Node(n.Parent); parent != nil {
		switch ModeOf(parent) {
		case ModeFlex, ModeGrid, ModeTable:
			return true
		}
	}
	return false
}
