// internal/layout/runs.go
package layout

import (
	"math"
	"strings"
)

type runKind uint8

const (
	runWord runKind = iota
	runSpace
	runBreak
	runBox
)

// run is the smallest unit of inline content: a word, a space, a forced
// break or an atomic box.
type run struct {
	kind  runKind
	node  NodeID
	owner int
	text  string
	start int
	end   int
	width float64
	// minWidth is the min-content contribution of a box run.
	minWidth float64
	lead     float64
	trail    float64
	// glue forbids a line break before the run.
	glue  bool
	style *Style
	va    VerticalAlign
	// ascent and descent of the run's inline box around the baseline.
	ascent  float64
	descent float64
}

func (r *run) height() float64 { return r.ascent + r.descent }

type absMark struct {
	node NodeID
	at   int
}

type floatMark struct {
	node NodeID
	at   int
}

// inlineItems is the flattened content of one inline formatting context.
type inlineItems struct {
	runs   []run
	owners []NodeID
	floats []floatMark
	abs    []absMark
	// inlines lists the flattened inline elements, outermost first.
	inlines []NodeID
	texts   map[NodeID]string
	// perChild is set when no child is a flattenable inline element; a
	// child then moves to a new line as a whole when it does not fit.
	perChild bool
}

type measureKey struct {
	text string
	font FontSpec
}

// runBuilder flattens the children of an inline formatting context.
type runBuilder struct {
	p         *pass
	items     *inlineItems
	intrinsic bool
	depth     int
	// lineWidth is the full line width; words wider than it are split
	// when overflow-wrap allows.
	lineWidth float64
	cbWidth   float64

	pendingLead float64
	lastSpace   bool
	lastWord    bool
	cache       map[measureKey]float64
}

func newRunBuilder(p *pass, lineWidth float64, intrinsic bool, depth int) *runBuilder {
	return &runBuilder{
		p:         p,
		items:     &inlineItems{texts: make(map[NodeID]string)},
		intrinsic: intrinsic,
		depth:     depth,
		lineWidth: lineWidth,
		cbWidth:   lineWidth,
		lastSpace: true,
		cache:     make(map[measureKey]float64),
	}
}

// measure returns the width of text, asking the measurer once per
// distinct string and font.
func (b *runBuilder) measure(text string, font FontSpec) float64 {
	k := measureKey{text, font}
	if w, ok := b.cache[k]; ok {
		return w
	}
	w := b.p.ctx.Measure(text, font)
	b.cache[k] = w
	return w
}

// build flattens participants, the in-flow children of the context.
func (b *runBuilder) build(participants []NodeID) *inlineItems {
	b.items.perChild = true
	for _, id := range participants {
		if n := b.p.tree.Node(id); n != nil && b.flattenable(n, b.depth+1) {
			b.items.perChild = false
			break
		}
	}
	for _, id := range participants {
		n := b.p.tree.Node(id)
		owner := len(b.items.owners)
		b.items.owners = append(b.items.owners, id)
		b.add(n, owner, AlignBaseline, b.depth+1)
	}
	return b.items
}

// flattenable reports whether an inline element can be broken across
// lines: it holds only text, other flattenable inlines, atomic inline
// boxes and out-of-flow boxes.
func (b *runBuilder) flattenable(n *Node, depth int) bool {
	if n.Kind != KindElement || n.Style.Display != DisplayInline || n.Style.IsReplaced() ||
		n.Style.IsFloating() || n.Style.IsOutOfFlow() || depth > b.p.ctx.MaxDepth {
		return false
	}
	for _, cid := range n.Children {
		c := b.p.tree.Node(cid)
		switch {
		case c.Kind == KindText, c.Style.Display == DisplayNone, c.Style.IsOutOfFlow(), c.Style.IsFloating():
		case c.Style.Display == DisplayInline:
			if !b.flattenable(c, depth+1) {
				return false
			}
		case isInlineLevel(c):
		default:
			return false
		}
	}
	return true
}

func (b *runBuilder) add(n *Node, owner int, va VerticalAlign, depth int) {
	switch {
	case n.Kind != KindText && n.Style.Display == DisplayNone:
		if !b.intrinsic {
			b.p.zeroSubtree(n.ID)
		}
	case n.Kind != KindText && n.Style.IsOutOfFlow():
		b.items.abs = append(b.items.abs, absMark{node: n.ID, at: len(b.items.runs)})
	case n.Kind != KindText && n.Style.IsFloating():
		b.items.floats = append(b.items.floats, floatMark{node: n.ID, at: len(b.items.runs)})
	case n.Kind == KindText:
		b.addText(n, owner, va)
	case n.Style.Display == DisplayInline && b.flattenable(n, depth):
		b.addInline(n, owner, va, depth)
	default:
		b.addBox(n, owner, va, depth)
	}
}

func fontOf(s *Style) FontSpec {
	f := s.Font
	if f.Size <= 0 {
		f.Size = 16
	}
	return f
}

// textMetrics returns the ascent and descent of an inline box of style s,
// with half the leading on each side.
func textMetrics(s *Style) (ascent, descent float64) {
	fs := s.fontSize()
	half := (s.lineHeightPx() - fs) / 2
	return 0.8*fs + half, 0.2*fs + half
}

func (b *runBuilder) addText(n *Node, owner int, va VerticalAlign) {
	s := &n.Style
	text := processWhiteSpace(transformText(n.Text, s.TextTransform), s.WhiteSpace)
	b.items.texts[n.ID] = text
	if text == "" {
		return
	}
	font := fontOf(s)
	asc, desc := textMetrics(s)
	first := true
	offset := 0
	pieces := []string{text}
	if s.WhiteSpace.PreservesNewlines() {
		pieces = strings.Split(text, "\n")
	}
	for pi, piece := range pieces {
		if pi > 0 {
			b.emit(run{kind: runBreak, node: n.ID, owner: owner, start: offset - 1, end: offset, style: s, va: va, ascent: asc, descent: desc})
			b.lastSpace = true
			b.lastWord = false
		}
		for _, seg := range b.segmentsFor(piece, s) {
			word := strings.TrimRight(seg.text, " \t")
			spaces := seg.text[len(word):]
			start := offset + seg.start
			if word != "" {
				b.addWord(n, owner, va, word, start, first, font, asc, desc)
			}
			first = false
			if spaces != "" {
				b.addSpace(n, owner, va, spaces, start+len(word), font, asc, desc)
			}
		}
		offset += len(piece) + 1
	}
}

func (b *runBuilder) segmentsFor(text string, s *Style) []segment {
	switch s.WordBreak {
	case WordBreakKeepAll:
		return spaceSegments(text)
	case WordBreakBreakAll:
		var out []segment
		for _, seg := range lineSegments(text) {
			word := strings.TrimRight(seg.text, " \t")
			for _, g := range graphemes(word) {
				out = append(out, segment{text: g.text, start: seg.start + g.start})
			}
			if len(word) < len(seg.text) {
				out = append(out, segment{text: seg.text[len(word):], start: seg.start + len(word)})
			}
		}
		return out
	}
	return lineSegments(text)
}

func (b *runBuilder) addWord(n *Node, owner int, va VerticalAlign, word string, start int, first bool, font FontSpec, asc, desc float64) {
	s := &n.Style
	glue := first && b.lastWord
	w := b.measure(word, font)
	split := s.OverflowWrap == OverflowWrapAnywhere ||
		(!b.intrinsic && (s.OverflowWrap == OverflowWrapBreakWord || s.WordBreak == WordBreakBreakWord) && w > b.lineWidth)
	if split && s.WhiteSpace.Wraps() {
		for i, g := range graphemes(word) {
			b.emit(run{
				kind: runWord, node: n.ID, owner: owner, text: g.text,
				start: start + g.start, end: start + g.start + len(g.text),
				width: b.measure(g.text, font), glue: glue && i == 0,
				style: s, va: va, ascent: asc, descent: desc,
			})
		}
	} else {
		b.emit(run{
			kind: runWord, node: n.ID, owner: owner, text: word,
			start: start, end: start + len(word), width: w, glue: glue,
			style: s, va: va, ascent: asc, descent: desc,
		})
	}
	b.lastWord = true
	b.lastSpace = false
}

func (b *runBuilder) addSpace(n *Node, owner int, va VerticalAlign, spaces string, start int, font FontSpec, asc, desc float64) {
	s := &n.Style
	b.lastWord = false
	if s.WhiteSpace.CollapsesSpaces() {
		if b.lastSpace {
			return
		}
		spaces = " "
	}
	b.lastSpace = s.WhiteSpace.CollapsesSpaces()
	w := 0.0
	for _, r := range spaces {
		if r == '\t' {
			tab := s.TabSize
			if tab <= 0 {
				tab = 8
			}
			w += tab * b.measure(" ", font)
			continue
		}
		w += b.measure(" ", font) + s.WordSpacing
	}
	b.emit(run{
		kind: runSpace, node: n.ID, owner: owner, text: spaces,
		start: start, end: start + len(spaces), width: w,
		style: s, va: va, ascent: asc, descent: desc,
	})
}

// addInline flattens an inline element; its horizontal margin, border and
// padding attach to its first and last runs.
func (b *runBuilder) addInline(n *Node, owner int, va VerticalAlign, depth int) {
	if !b.intrinsic {
		b.p.resolveBoxEdges(n, b.cbWidth)
	}
	lead, trail := b.inlineEdges(n)
	b.items.inlines = append(b.items.inlines, n.ID)
	if n.Style.VerticalAlign != AlignBaseline {
		va = n.Style.VerticalAlign
	}
	b.pendingLead += lead
	mark := len(b.items.runs)
	for _, cid := range n.Children {
		b.add(b.p.tree.Node(cid), owner, va, depth+1)
	}
	if len(b.items.runs) == mark || b.pendingLead > 0 && !b.hasContentSince(mark) {
		asc, desc := textMetrics(&n.Style)
		b.emit(run{kind: runWord, node: n.ID, owner: owner, glue: b.lastWord, style: &n.Style, va: va, ascent: asc, descent: desc})
	}
	last := &b.items.runs[len(b.items.runs)-1]
	last.trail += trail
	last.width += trail
}

func (b *runBuilder) hasContentSince(mark int) bool {
	for i := mark; i < len(b.items.runs); i++ {
		if b.items.runs[i].kind != runBreak {
			return true
		}
	}
	return false
}

func (b *runBuilder) inlineEdges(n *Node) (lead, trail float64) {
	if b.intrinsic {
		pad, _ := b.p.ctx.resolveEdges(n.Style.Padding, 0)
		m, _ := b.p.ctx.resolveEdges(n.Style.Margin, 0)
		bw := n.Style.Border.Widths()
		return nonNeg(pad.Left) + bw.Left + m.Left, nonNeg(pad.Right) + bw.Right + m.Right
	}
	d := n.Box
	return d.Margin.Left + d.Border.Left + d.Padding.Left, d.Padding.Right + d.Border.Right + d.Margin.Right
}

// addBox adds an atomic inline-level box.
func (b *runBuilder) addBox(n *Node, owner int, va VerticalAlign, depth int) {
	if n.Style.VerticalAlign != AlignBaseline {
		va = n.Style.VerticalAlign
	}
	r := run{kind: runBox, node: n.ID, owner: owner, style: &n.Style, va: va}
	if b.intrinsic {
		minW, maxW := b.p.outerIntrinsic(n.ID, depth)
		r.width, r.minWidth = maxW, minW
	} else {
		c := newConstraint(b.cbWidth, 0, false)
		c.shrink = true
		b.p.layoutBox(n.ID, c, depth)
		d := n.Box
		r.width = nonNeg(d.OuterSize(Horizontal))
		r.minWidth = r.width
		h := nonNeg(d.OuterSize(Vertical))
		if b.p.hasLineBaseline(n) {
			r.ascent = d.Margin.Top + d.Border.Top + d.Padding.Top + n.Baseline
		} else {
			r.ascent = h - d.Margin.Bottom
		}
		r.ascent = clamp(r.ascent, 0, h)
		r.descent = h - r.ascent
	}
	b.emit(r)
	b.lastWord = false
	b.lastSpace = false
}

// hasLineBaseline reports whether a laid-out box exposes a text baseline.
func (p *pass) hasLineBaseline(n *Node) bool {
	if n.Style.IsReplaced() || n.Style.Overflow != OverflowVisible {
		return false
	}
	return n.Baseline > 0
}

func (b *runBuilder) emit(r run) {
	if b.pendingLead != 0 && r.kind != runBreak {
		r.lead += b.pendingLead
		r.width += b.pendingLead
		b.pendingLead = 0
	}
	b.items.runs = append(b.items.runs, r)
}

// unit is a group of runs without break opportunities between them.
type unit struct {
	kind  runKind
	first int
	last  int
	width float64
	owner int
	// ownerStart marks the first unit of an owner.
	ownerStart bool
}

func buildUnits(runs []run) []unit {
	var out []unit
	lastOwner := -1
	for i := range runs {
		r := &runs[i]
		kind := r.kind
		if kind == runBox {
			kind = runWord
		}
		if len(out) > 0 && r.glue && kind == runWord && out[len(out)-1].kind == runWord {
			u := &out[len(out)-1]
			u.last = i
			u.width += r.width
			continue
		}
		out = append(out, unit{kind: kind, first: i, last: i, width: r.width, owner: r.owner, ownerStart: r.owner != lastOwner})
		lastOwner = r.owner
	}
	return out
}

// ownerWidths sums the advance of each owner's runs.
func ownerWidths(items *inlineItems) []float64 {
	out := make([]float64, len(items.owners))
	for i := range items.runs {
		if o := items.runs[i].owner; o >= 0 && o < len(out) {
			out[o] += items.runs[i].width
		}
	}
	return out
}

// contentExtents returns the min-content and max-content widths of the
// flattened content.
func contentExtents(items *inlineItems, wraps bool) (minW, maxW float64) {
	units := buildUnits(items.runs)
	line := 0.0
	lineStart := true
	for _, u := range units {
		switch u.kind {
		case runBreak:
			maxW = math.Max(maxW, line)
			line = 0
			lineStart = true
			continue
		case runSpace:
			if lineStart {
				continue
			}
		}
		line += u.width
		lineStart = false
		if u.kind == runWord {
			w := 0.0
			for i := u.first; i <= u.last; i++ {
				r := &items.runs[i]
				if r.kind == runBox {
					w += r.minWidth
				} else {
					w += r.width
				}
			}
			minW = math.Max(minW, w)
		}
	}
	maxW = math.Max(maxW, line)
	if !wraps {
		minW = maxW
	}
	return minW, maxW
}
