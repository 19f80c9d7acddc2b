// internal/layout/inline.go
package layout

import (
	"math"
	"sort"
)

// placedRun is a run positioned on a line. x is the logical offset from
// the start edge of the line until alignLines makes it physical; y is the
// top of the run's inline box relative to the line top.
type placedRun struct {
	run int
	x   float64
	w   float64
	y   float64
}

// lineBox is one line of an inline formatting context.
type lineBox struct {
	top      float64
	height   float64
	baseline float64
	// x and width describe the float-free band the line sits in.
	x      float64
	width  float64
	items  []placedRun
	used   float64
	forced bool
}

type packOptions struct {
	wrap     bool
	perChild bool
	indent   float64
	limit    float64
	probe    float64
}

// bandFunc returns the available band for a line at y with height h.
type bandFunc func(y, h float64) (x, w float64)

// packLines breaks units into lines greedily: a unit moves to a new line
// when the line already has content and the unit would overflow it.
func packLines(items *inlineItems, units []unit, opt packOptions, band bandFunc, next func(float64) (float64, bool), finish func(*lineBox)) []*lineBox {
	runs := items.runs
	var owners []float64
	if opt.perChild {
		owners = ownerWidths(items)
	}
	var lines []*lineBox
	var cur *lineBox
	y, pos := 0.0, 0.0
	hasContent := false
	full := math.Inf(1)

	open := func() {
		x, w := band(y, opt.probe)
		if len(lines) == 0 && math.IsInf(full, 1) {
			full = w
		}
		cur = &lineBox{top: y, x: x, width: math.Min(w, opt.limit)}
		pos = 0
		if len(lines) == 0 {
			pos = opt.indent
		}
		hasContent = false
	}
	closeLine := func(forced bool) {
		cur.forced = forced
		used := pos
		for i := len(cur.items) - 1; i >= 0; i-- {
			r := &runs[cur.items[i].run]
			if r.kind != runSpace || r.style.WhiteSpace == WhiteSpaceBreakSpaces {
				break
			}
			used -= cur.items[i].w
		}
		cur.used = math.Max(used, 0)
		if finish != nil {
			finish(cur)
		}
		lines = append(lines, cur)
		y = cur.top + cur.height
		cur = nil
	}

	for _, u := range units {
		if cur == nil {
			open()
		}
		switch u.kind {
		case runBreak:
			cur.items = append(cur.items, placedRun{run: u.first, x: pos})
			closeLine(true)
			continue
		case runSpace:
			if !hasContent && runs[u.first].style.WhiteSpace.CollapsesSpaces() {
				continue
			}
			for i := u.first; i <= u.last; i++ {
				cur.items = append(cur.items, placedRun{run: i, x: pos, w: runs[i].width})
				pos += runs[i].width
			}
			continue
		}
		if opt.wrap && hasContent {
			need := pos + u.width
			if opt.perChild && u.ownerStart && u.owner < len(owners) {
				need = math.Max(need, pos+owners[u.owner])
			}
			if need > cur.width+1e-9 {
				closeLine(false)
				open()
			}
		}
		// An empty line narrowed by floats moves down until the unit fits.
		for guard := 0; opt.wrap && next != nil && !hasContent && u.width > cur.width && cur.width < full && guard < 64; guard++ {
			ny, ok := next(y)
			if !ok || ny <= y {
				break
			}
			y = ny
			indent := pos
			open()
			pos = indent
		}
		for i := u.first; i <= u.last; i++ {
			r := &runs[i]
			cur.items = append(cur.items, placedRun{run: i, x: pos, w: r.width})
			pos += r.width
			if r.text != "" || r.kind == runBox || r.width > 0 {
				hasContent = true
			}
		}
	}
	if cur != nil && hasContent {
		closeLine(false)
	}
	return lines
}

// finishLine computes the height and baseline of a line and the vertical
// offset of each run, against the strut of the container.
func finishLine(l *lineBox, runs []run, strut *Style) {
	pfs := strut.fontSize()
	above, below := textMetrics(strut)
	tops := make([]float64, len(l.items))
	for i, it := range l.items {
		r := &runs[it.run]
		h := r.height()
		var top float64
		switch r.va {
		case AlignTop, AlignBottom:
			continue
		case AlignMiddle:
			top = -0.25*pfs - h/2
		case AlignTextTop:
			top = -0.8 * pfs
		case AlignTextBottom:
			top = 0.2*pfs - h
		case AlignSub:
			top = -r.ascent + 0.2*pfs
		case AlignSuper:
			top = -r.ascent - 0.34*pfs
		default:
			top = -r.ascent
		}
		tops[i] = top
		above = math.Max(above, -top)
		below = math.Max(below, top+h)
	}
	height := above + below
	for _, it := range l.items {
		r := &runs[it.run]
		h := r.height()
		if h <= height {
			continue
		}
		switch r.va {
		case AlignTop:
			below += h - height
		case AlignBottom:
			above += h - height
		default:
			continue
		}
		height = above + below
	}
	l.baseline = above
	l.height = height
	for i := range l.items {
		r := &runs[l.items[i].run]
		switch r.va {
		case AlignTop:
			l.items[i].y = 0
		case AlignBottom:
			l.items[i].y = height - r.height()
		default:
			l.items[i].y = above + tops[i]
		}
	}
}

// alignLines applies text-align and text-align-last and converts logical
// offsets to physical x positions, mirroring each line for RTL.
func alignLines(lines []*lineBox, runs []run, st *Style, dir Direction) {
	for i, l := range lines {
		last := i == len(lines)-1 || l.forced
		a := st.TextAlign
		if last {
			switch {
			case st.TextAlignLast != TextAlignAuto:
				a = st.TextAlignLast
			case a == TextAlignJustify:
				a = TextAlignStart
			}
		}
		extra := l.width - l.used
		offset := 0.0
		switch a {
		case TextAlignEnd:
			offset = extra
		case TextAlignLeft:
			if dir == RTL {
				offset = extra
			}
		case TextAlignRight:
			if dir != RTL {
				offset = extra
			}
		case TextAlignCenter:
			offset = extra / 2
		case TextAlignJustify:
			justifyLine(l, runs, extra)
		}
		if offset < 0 {
			offset = 0
		}
		for j := range l.items {
			it := &l.items[j]
			x := it.x + offset
			if dir == RTL {
				it.x = l.x + l.width - x - it.w
			} else {
				it.x = l.x + x
			}
		}
	}
}

// justifyLine spreads extra space over the inner spaces of a line.
func justifyLine(l *lineBox, runs []run, extra float64) {
	if extra <= 0 {
		return
	}
	lastContent := -1
	for j := len(l.items) - 1; j >= 0; j-- {
		if runs[l.items[j].run].kind != runSpace {
			lastContent = j
			break
		}
	}
	spaces := 0
	for j := 0; j < lastContent; j++ {
		if runs[l.items[j].run].kind == runSpace {
			spaces++
		}
	}
	if spaces == 0 {
		return
	}
	gap := extra / float64(spaces)
	shift := 0.0
	for j := range l.items {
		l.items[j].x += shift
		if j < lastContent && runs[l.items[j].run].kind == runSpace {
			l.items[j].w += gap
			shift += gap
		}
	}
	l.used += extra
}

// inlineFlow is the result of laying out one inline formatting context.
type inlineFlow struct {
	items *inlineItems
	lines []*lineBox
}

func (f *inlineFlow) height() float64 {
	if len(f.lines) == 0 {
		return 0
	}
	l := f.lines[len(f.lines)-1]
	return l.top + l.height
}

// flowInline flattens participants and breaks them into aligned lines of
// the given width. Floats found in the content are placed first.
func (p *pass) flowInline(container *Node, participants []NodeID, width float64, scope *floatScope, depth int) *inlineFlow {
	st := &container.Style
	b := newRunBuilder(p, width, false, depth)
	items := b.build(participants)

	if scope == nil {
		scope = newFloatScope(width)
	}
	for _, fm := range items.floats {
		p.layoutFloat(p.tree.Node(fm.node), scope, 0, width, 0, false, depth)
	}

	units := buildUnits(items.runs)
	indent := p.ctx.resolveOr(st.TextIndent, width, 0)
	opt := packOptions{
		wrap:     st.WhiteSpace.Wraps() && st.TextWrap != TextWrapNoWrap,
		perChild: items.perChild,
		indent:   indent,
		limit:    math.Inf(1),
		probe:    st.lineHeightPx(),
	}
	if opt.wrap {
		switch st.TextWrap {
		case TextWrapBalance:
			opt.limit = balanceWidth(items, units, opt, width)
		case TextWrapPretty:
			opt.limit = prettyWidth(items, units, opt, width)
		}
	}
	lines := packLines(items, units, opt, scope.available, scope.nextEdge, func(l *lineBox) {
		finishLine(l, items.runs, st)
	})
	alignLines(lines, items.runs, st, p.resolveDirection(container))
	return &inlineFlow{items: items, lines: lines}
}

// layoutInlineContent lays out the inline children of a block container
// and returns the content height.
func (p *pass) layoutInlineContent(n *Node, width float64, scope *floatScope, depth int) float64 {
	flow := p.flowInline(n, n.Children, width, scope, depth)
	p.assignInlineGeometry(n, flow, width)
	h := flow.height()
	if k := n.Style.LineClamp; k > 0 && len(flow.lines) > k {
		l := flow.lines[k-1]
		h = l.top + l.height
	}
	if len(flow.lines) > 0 {
		n.Baseline = flow.lines[0].top + flow.lines[0].baseline
	}
	return h
}

// layoutInlineRoot handles an inline-level node laid out as a box on its
// own: a text node becomes its own line container, an inline element is
// treated as a shrink-to-fit block container.
func (p *pass) layoutInlineRoot(n *Node, c constraint, depth int) {
	if n.Kind != KindText {
		if math.IsNaN(c.width) {
			c.shrink = true
		}
		p.layoutBlock(n, c, depth)
		return
	}
	width := c.cbWidth
	if !math.IsNaN(c.width) {
		width = c.width
	}
	flow := p.flowInline(n, []NodeID{n.ID}, width, nil, depth)
	used := 0.0
	for _, l := range flow.lines {
		used = math.Max(used, l.used)
	}
	if !math.IsNaN(c.width) {
		used = c.width
	}
	n.Box.Content = Rect{Width: nonNeg(used), Height: flow.height()}
	text := flow.items.texts[n.ID]
	for li, l := range flow.lines {
		var r Rect
		first := true
		start, end := len(text), 0
		for _, it := range l.items {
			ru := &flow.items.runs[it.run]
			if ru.kind == runBreak {
				continue
			}
			rr := Rect{X: it.x, Y: l.top + it.y, Width: it.w, Height: ru.height()}
			if first {
				r, first = rr, false
			} else {
				r = r.Union(rr)
			}
			start = min(start, ru.start)
			end = max(end, ru.end)
		}
		if !first {
			n.Fragments = append(n.Fragments, Fragment{Rect: r, Text: sliceText(text, start, end), Line: li, Start: start, End: end})
		}
	}
	if len(flow.lines) > 0 {
		n.Baseline = flow.lines[0].top + flow.lines[0].baseline
	}
}

func sliceText(s string, start, end int) string {
	if start < 0 || end > len(s) || start >= end {
		return ""
	}
	return s[start:end]
}

// lineExtent collects the per-line rectangles of one node.
type lineExtent struct {
	lines []int
	rects map[int]Rect
	start map[int]int
	end   map[int]int
}

func (e *lineExtent) add(line int, r Rect, start, end int) {
	if old, ok := e.rects[line]; ok {
		e.rects[line] = old.Union(r)
		e.start[line] = min(e.start[line], start)
		e.end[line] = max(e.end[line], end)
		return
	}
	e.lines = append(e.lines, line)
	e.rects[line] = r
	e.start[line] = start
	e.end[line] = end
}

// box returns the owner box: the union on one line, or from the first
// piece to the end of the line width when the node wraps.
func (e *lineExtent) box(width float64) Rect {
	sort.Ints(e.lines)
	first := e.rects[e.lines[0]]
	if len(e.lines) == 1 {
		return first
	}
	minX, maxX := first.X, first.X+first.Width
	bottom := first.Y + first.Height
	for _, li := range e.lines[1:] {
		r := e.rects[li]
		minX = math.Min(minX, r.X)
		maxX = math.Max(maxX, r.X+r.Width)
		bottom = math.Max(bottom, r.Y+r.Height)
	}
	w := math.Max(maxX-minX, width-first.X)
	return Rect{X: first.X, Y: first.Y, Width: nonNeg(w), Height: nonNeg(bottom - first.Y)}
}

// assignInlineGeometry writes boxes and fragments for every node of the
// flow, relative to each node's parent.
func (p *pass) assignInlineGeometry(container *Node, flow *inlineFlow, width float64) {
	items := flow.items
	runs := items.runs
	extents := make(map[NodeID]*lineExtent)
	extent := func(id NodeID) *lineExtent {
		e, ok := extents[id]
		if !ok {
			e = &lineExtent{rects: map[int]Rect{}, start: map[int]int{}, end: map[int]int{}}
			extents[id] = e
		}
		return e
	}
	boxAt := make(map[NodeID]Point)
	firstRun := make(map[int]Point)

	for li, l := range flow.lines {
		for _, it := range l.items {
			r := &runs[it.run]
			if r.kind == runBreak {
				continue
			}
			if _, ok := firstRun[it.run]; !ok {
				firstRun[it.run] = Point{it.x, l.top}
			}
			if r.kind == runBox {
				boxAt[r.node] = Point{it.x, l.top + it.y}
			}
			rect := Rect{X: it.x + r.lead, Y: l.top + it.y, Width: nonNeg(it.w - r.lead - r.trail), Height: r.height()}
			if r.kind == runBox {
				rect.X = it.x
				rect.Width = it.w
			}
			id := r.node
			if r.kind == runBox {
				id = p.tree.Parent(r.node)
			}
			for guard := 0; id != NoNode && id != container.ID && guard <= p.ctx.MaxDepth; guard++ {
				extent(id).add(li, rect, r.start, r.end)
				id = p.tree.Parent(id)
			}
		}
	}

	// Content origins of flattened nodes, in container coordinates.
	origin := map[NodeID]Point{container.ID: {}}
	rects := make(map[NodeID]Rect, len(extents))
	for id, e := range extents {
		rects[id] = e.box(width)
		origin[id] = Point{rects[id].X, rects[id].Y}
	}
	parentOrigin := func(id NodeID) Point {
		return origin[p.tree.Parent(id)]
	}

	for id, r := range rects {
		n := p.tree.Node(id)
		po := parentOrigin(id)
		n.Box.Content = r.Translate(-po.X, -po.Y)
		e := extents[id]
		text := items.texts[id]
		for _, li := range e.lines {
			fr := e.rects[li]
			frag := Fragment{Rect: fr.Translate(-r.X, -r.Y), Line: li, Start: e.start[li], End: e.end[li]}
			if n.Kind == KindText {
				frag.Text = sliceText(text, e.start[li], e.end[li])
			}
			n.Fragments = append(n.Fragments, frag)
		}
		if l := flow.lines[e.lines[0]]; l != nil {
			n.Baseline = l.top + l.baseline - r.Y
		}
	}

	for id, at := range boxAt {
		n := p.tree.Node(id)
		po := parentOrigin(id)
		n.Box.PlaceMarginBox(at.X-po.X, at.Y-po.Y)
	}

	for _, fm := range items.floats {
		n := p.tree.Node(fm.node)
		if po := parentOrigin(fm.node); po != (Point{}) {
			n.Box.Content.X -= po.X
			n.Box.Content.Y -= po.Y
		}
	}

	for _, am := range items.abs {
		at := Point{0, flow.height()}
		for i := am.at; i < len(runs); i++ {
			if pt, ok := firstRun[i]; ok {
				at = pt
				break
			}
		}
		n := p.tree.Node(am.node)
		po := parentOrigin(am.node)
		n.static = Point{at.X - po.X, at.Y - po.Y}
		n.hasStatic = true
	}
}
