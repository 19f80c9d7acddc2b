// internal/layout/anonymous.go
package layout

import (
	"sort"
	"strings"
)

// dissolveAnonymous removes the anonymous blocks of a previous pass and
// splices their children back into the original parent.
func (t *Tree) dissolveAnonymous() {
	released := false
	for i := range t.nodes {
		if t.nodes[i].Kind != KindAnonymous {
			continue
		}
		id := NodeID(i)
		parent := t.nodes[i].Parent
		kids := t.nodes[i].Children
		if parent != NoNode {
			p := &t.nodes[parent]
			out := make([]NodeID, 0, len(p.Children)+len(kids))
			for _, c := range p.Children {
				if c == id {
					out = append(out, kids...)
					continue
				}
				out = append(out, c)
			}
			p.Children = out
		}
		for _, k := range kids {
			t.nodes[k].Parent = parent
		}
		t.release(id)
		released = true
	}
	if released {
		// Hand out the lowest slots first so repeated passes reuse the
		// same IDs in the same order.
		sort.Slice(t.free, func(a, b int) bool { return t.free[a] > t.free[b] })
	}
}

// resetGeometry clears every output field before a pass.
func (t *Tree) resetGeometry() {
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.Kind == kindFree {
			continue
		}
		n.Box = Dimensions{}
		n.Baseline = 0
		n.Fragments = nil
		n.Columns = nil
		n.Sticky = nil
		n.Unsized = false
		n.static = Point{}
		n.hasStatic = false
		n.mtop, n.mbot = marginAcc{}, marginAcc{}
		n.definiteHeight = false
	}
}

// isInlineLevel reports whether n participates in an inline formatting
// context when it is in flow.
func isInlineLevel(n *Node) bool {
	if n.Kind == KindText {
		return true
	}
	if n.Style.IsFloating() || n.Style.IsOutOfFlow() {
		return false
	}
	switch n.Style.Display {
	case DisplayInline, DisplayInlineBlock, DisplayInlineFlex, DisplayInlineGrid, DisplayInlineTable:
		return true
	}
	return false
}

// isBlockLevel reports whether n is an in-flow block-level box or a float.
func isBlockLevel(n *Node) bool {
	if n.Kind == KindText || n.Style.Display == DisplayNone || n.Style.IsOutOfFlow() {
		return false
	}
	return !isInlineLevel(n)
}

// isCollapsibleSpace reports whether a text node holds only white space
// that the layout would collapse away.
func isCollapsibleSpace(n *Node) bool {
	if n.Kind != KindText || n.Style.WhiteSpace.PreservesNewlines() && n.Style.WhiteSpace != WhiteSpacePreLine {
		return false
	}
	return strings.TrimLeft(n.Text, " \t\n\r\f") == ""
}

// wrapInlineRuns wraps each maximal run of inline-level children in an
// anonymous block wherever a container mixes inline and block content,
// and wraps loose text in flex and grid containers.
func (t *Tree) wrapInlineRuns() {
	count := len(t.nodes)
	for i := 0; i < count; i++ {
		n := &t.nodes[i]
		if n.Kind == kindFree || n.Kind == KindText || len(n.Children) == 0 {
			continue
		}
		switch ModeOf(n) {
		case ModeBlock:
			if n.Style.isMulticol() || t.mixesInlineAndBlock(NodeID(i)) {
				t.wrapRuns(NodeID(i), isInlineLevel)
			}
		case ModeFlex, ModeGrid:
			t.wrapRuns(NodeID(i), func(c *Node) bool { return c.Kind == KindText })
		}
	}
}

func (t *Tree) mixesInlineAndBlock(id NodeID) bool {
	var inline, block bool
	for _, c := range t.nodes[id].Children {
		cn := &t.nodes[c]
		if isInlineLevel(cn) {
			inline = true
		} else if isBlockLevel(cn) {
			block = true
		}
	}
	return inline && block
}

// wrapRuns rebuilds the child list of id, moving each run of children
// matching inRun into a fresh anonymous block. Out-of-flow children
// inside a run stay with it; runs of collapsible white space alone in a
// flex or grid container are left unwrapped.
func (t *Tree) wrapRuns(id NodeID, inRun func(*Node) bool) {
	mode := ModeOf(&t.nodes[id])
	old := t.nodes[id].Children
	out := make([]NodeID, 0, len(old))
	var run []NodeID
	flush := func() {
		if len(run) == 0 {
			return
		}
		significant := false
		for _, r := range run {
			rn := &t.nodes[r]
			if !rn.Style.IsOutOfFlow() && !isCollapsibleSpace(rn) {
				significant = true
				break
			}
		}
		if !significant && mode != ModeBlock {
			out = append(out, run...)
			run = nil
			return
		}
		anon := t.alloc()
		parentStyle := t.nodes[id].Style
		t.nodes[anon] = Node{
			ID:       anon,
			Kind:     KindAnonymous,
			Style:    anonymousStyle(&parentStyle),
			Parent:   id,
			Children: append([]NodeID(nil), run...),
		}
		for _, r := range run {
			t.nodes[r].Parent = anon
		}
		out = append(out, anon)
		run = nil
	}
	for _, c := range old {
		cn := &t.nodes[c]
		switch {
		case inRun(cn):
			run = append(run, c)
		case cn.Style.IsOutOfFlow() && len(run) > 0:
			run = append(run, c)
		default:
			flush()
			out = append(out, c)
		}
	}
	flush()
	t.nodes[id].Children = out
}

// anonymousStyle inherits the text properties of the parent and resets
// the box properties.
func anonymousStyle(parent *Style) Style {
	s := DefaultStyle()
	s.Font = parent.Font
	s.LineHeight = parent.LineHeight
	s.WordSpacing = parent.WordSpacing
	s.TextAlign = parent.TextAlign
	s.TextAlignLast = parent.TextAlignLast
	s.TextIndent = parent.TextIndent
	s.TextTransform = parent.TextTransform
	s.WhiteSpace = parent.WhiteSpace
	s.WordBreak = parent.WordBreak
	s.OverflowWrap = parent.OverflowWrap
	s.TextWrap = parent.TextWrap
	s.TabSize = parent.TabSize
	s.Direction = parent.Direction
	s.Visibility = parent.Visibility
	return s
}
