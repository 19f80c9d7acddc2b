// internal/layout/grid.go
package layout

import (
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/gridsyntax"
)

// maxAutoRepeat bounds auto-fill and auto-fit repetitions.
const maxAutoRepeat = 1000

type trackKind uint8

const (
	trackFixed trackKind = iota
	trackContent
	trackFlex
)

// gridTrack is the sizing state of one row or column.
type gridTrack struct {
	fn     gridsyntax.Track
	kind   trackKind
	base   float64
	limit  float64
	factor float64
	size   float64
	pos    float64
	// minC and maxC are the largest contributions of items that span only
	// this track.
	minC float64
	maxC float64
}

// spanContribution is the size wanted by an item covering several tracks.
type spanContribution struct {
	start, end int
	size       float64
}

// gridAxis holds the tracks and line names of one axis.
type gridAxis struct {
	tracks    []gridTrack
	names     [][]string
	explicit  int
	autoStart int
	autoEnd   int
	autoFit   bool
	implicit  []gridsyntax.Track
	gap       float64
	spans     []spanContribution
}

func (g *gridAxis) resolver() lineResolver {
	return lineResolver{names: g.names, explicit: g.explicit}
}

// grow appends implicit tracks, sized by grid-auto-rows/columns, until the
// axis has count tracks.
func (g *gridAxis) grow(count int) {
	for len(g.tracks) < count {
		var fn gridsyntax.Track
		if len(g.implicit) > 0 {
			fn = g.implicit[(len(g.tracks)-g.explicit)%len(g.implicit)]
		}
		g.tracks = append(g.tracks, gridTrack{fn: fn})
		g.names = append(g.names, nil)
	}
}

// collapseEmpty drops auto-fit tracks no item occupies and remaps the item
// lines to the remaining tracks.
func (g *gridAxis) collapseEmpty(items []*gridItem, axis int) {
	if !g.autoFit || g.autoStart == g.autoEnd {
		return
	}
	used := make([]bool, len(g.tracks))
	for _, it := range items {
		for i := it.start[axis]; i < it.end[axis] && i < len(used); i++ {
			used[i] = true
		}
	}
	remap := make([]int, len(g.tracks)+1)
	tracks := make([]gridTrack, 0, len(g.tracks))
	names := [][]string{g.names[0]}
	for i, t := range g.tracks {
		remap[i] = len(tracks)
		if i >= g.autoStart && i < g.autoEnd && !used[i] {
			names[len(names)-1] = append(names[len(names)-1], g.names[i+1]...)
			continue
		}
		tracks = append(tracks, t)
		names = append(names, g.names[i+1])
	}
	remap[len(g.tracks)] = len(tracks)
	for _, it := range items {
		it.start[axis] = remap[min(it.start[axis], len(g.tracks))]
		it.end[axis] = remap[min(it.end[axis], len(g.tracks))]
	}
	g.explicit -= len(g.tracks) - len(tracks)
	g.autoEnd -= len(g.tracks) - len(tracks)
	g.tracks, g.names = tracks, names
}

// contribute records item sizes on the tracks they span.
func (g *gridAxis) contribute(items []*gridItem, axis int, size func(*gridItem) (float64, float64)) {
	for i := range g.tracks {
		g.tracks[i].minC, g.tracks[i].maxC = 0, 0
	}
	g.spans = g.spans[:0]
	for _, it := range items {
		start, end := it.start[axis], min(it.end[axis], len(g.tracks))
		if start >= end {
			continue
		}
		mn, mx := size(it)
		if end-start > 1 {
			g.spans = append(g.spans, spanContribution{start: start, end: end, size: mx})
			continue
		}
		t := &g.tracks[start]
		t.minC = math.Max(t.minC, mn)
		t.maxC = math.Max(t.maxC, mx)
	}
}

func (g *gridAxis) gaps() float64 {
	if len(g.tracks) == 0 {
		return 0
	}
	return g.gap * float64(len(g.tracks)-1)
}

// total is the sum of the track sizes and gaps.
func (g *gridAxis) total() float64 {
	sum := g.gaps()
	for _, t := range g.tracks {
		sum += t.size
	}
	return sum
}

// place assigns track positions from offset, adding spacing between
// tracks on top of the gap.
func (g *gridAxis) place(offset, spacing float64) {
	pos := offset
	for i := range g.tracks {
		g.tracks[i].pos = pos
		pos += g.tracks[i].size + g.gap + spacing
	}
}

// cell returns the start and extent of the tracks [start, end).
func (g *gridAxis) cell(start, end int) (float64, float64) {
	end = min(end, len(g.tracks))
	if start < 0 || start >= end {
		return 0, 0
	}
	last := g.tracks[end-1]
	return g.tracks[start].pos, last.pos + last.size - g.tracks[start].pos
}

func (p *pass) syntaxFallback(n *Node, prop string, err error) {
	p.ctx.Logger.Debug("Unparseable grid value, using auto.",
		zap.String("pass_id", p.ctx.PassID),
		zap.Int32("node", int32(n.ID)),
		zap.String("property", prop),
		zap.Error(err))
}

func (p *pass) parseTracks(n *Node, prop, src string) *gridsyntax.TrackList {
	l, err := gridsyntax.ParseTracks(src)
	if err != nil {
		p.syntaxFallback(n, prop, err)
		l, _ = gridsyntax.ParseTracks("")
	}
	return l
}

func (p *pass) gridAreas(n *Node) gridsyntax.Areas {
	a, err := gridsyntax.ParseAreas(n.Style.GridTemplateAreas)
	if err != nil {
		p.syntaxFallback(n, "grid-template-areas", err)
	}
	return a
}

// trackLength converts a fixed track breadth to pixels.
func (p *pass) trackLength(s gridsyntax.Size, basis float64, def bool, fontSize float64) (float64, bool) {
	switch s.Kind {
	case gridsyntax.SizeLength:
		switch s.Unit {
		case "em":
			return s.Value * fontSize, true
		case "rem":
			return s.Value * 16, true
		case "vw":
			return s.Value * p.ctx.ViewportW / 100, true
		case "vh":
			return s.Value * p.ctx.ViewportH / 100, true
		}
		return s.Value, true
	case gridsyntax.SizePercent:
		if !def || math.IsNaN(basis) || math.IsInf(basis, 0) {
			return 0, false
		}
		return s.Value * basis / 100, true
	}
	return 0, false
}

// gridGap resolves row-gap or column-gap; normal is zero.
func (p *pass) gridGap(l Length, basis float64, def bool) float64 {
	if l.IsAuto() {
		return 0
	}
	if v, ok := p.ctx.Resolve(l, basis, def); ok {
		return nonNeg(v)
	}
	return 0
}

// autoRepeatCount returns how many repetitions of an auto-fill or
// auto-fit block fit in avail, at least one.
func (p *pass) autoRepeatCount(n *Node, l *gridsyntax.TrackList, avail, gap float64) int {
	fs := n.Style.fontSize()
	size := func(t gridsyntax.Track) float64 {
		if v, ok := p.trackLength(t.Max, avail, true, fs); ok {
			return v
		}
		if v, ok := p.trackLength(t.Min, avail, true, fs); ok {
			return v
		}
		return 0
	}
	outer, rep := 0.0, 0.0
	for _, t := range l.Tracks {
		outer += size(t)
	}
	for _, t := range l.AutoTracks {
		rep += size(t)
	}
	step := rep + gap*float64(len(l.AutoTracks))
	if step <= 0 {
		return 1
	}
	k := math.Floor((avail - outer - gap*float64(len(l.Tracks)-1)) / step)
	if math.IsNaN(k) || k < 1 {
		return 1
	}
	return int(math.Min(k, maxAutoRepeat))
}

// gridAxisFor builds the explicit tracks of one axis: the template with
// auto repeats expanded, extended to cover grid-template-areas.
func (p *pass) gridAxisFor(n *Node, axis int, areas gridsyntax.Areas, avail float64, def bool, gap float64) *gridAxis {
	s := &n.Style
	tmpl, tmplProp := s.GridTemplateColumns, "grid-template-columns"
	implicit, implicitProp := s.GridAutoColumns, "grid-auto-columns"
	areaTracks := areas.Columns
	rowNames, colNames := areas.LineNames()
	areaNames := colNames
	if axis == axisRow {
		tmpl, tmplProp = s.GridTemplateRows, "grid-template-rows"
		implicit, implicitProp = s.GridAutoRows, "grid-auto-rows"
		areaTracks = areas.Rows
		areaNames = rowNames
	}

	list := p.parseTracks(n, tmplProp, tmpl)
	count := 0
	if list.HasAutoRepeat() {
		count = 1
		if def {
			count = p.autoRepeatCount(n, list, avail, gap)
		}
	}
	tracks, names, start, end := list.Expand(count)
	g := &gridAxis{
		names:     names,
		autoStart: start,
		autoEnd:   end,
		autoFit:   list.HasAutoRepeat() && list.AutoMode == gridsyntax.RepeatAutoFit,
		implicit:  p.parseTracks(n, implicitProp, implicit).Tracks,
		gap:       gap,
		explicit:  len(tracks),
	}
	for _, t := range tracks {
		g.tracks = append(g.tracks, gridTrack{fn: t})
	}
	g.grow(areaTracks)
	for i, extra := range areaNames {
		g.names[i] = append(g.names[i], extra...)
	}
	g.explicit = len(g.tracks)
	return g
}

// gridPlacement parses the placement properties of a grid item; the
// longhands override grid-area.
func (p *pass) gridPlacement(child *Node) (row, col gridsyntax.Placement) {
	s := &child.Style
	row = gridsyntax.Placement{Start: gridsyntax.AutoLine, End: gridsyntax.AutoLine}
	col = row
	if s.GridArea != "" {
		a, err := gridsyntax.ParseArea(s.GridArea)
		if err != nil {
			p.syntaxFallback(child, "grid-area", err)
		}
		row, col = a.Row, a.Column
	}
	if s.GridRow != "" {
		if pl, err := gridsyntax.ParsePlacement(s.GridRow); err != nil {
			p.syntaxFallback(child, "grid-row", err)
		} else {
			row = pl
		}
	}
	if s.GridColumn != "" {
		if pl, err := gridsyntax.ParsePlacement(s.GridColumn); err != nil {
			p.syntaxFallback(child, "grid-column", err)
		} else {
			col = pl
		}
	}
	return row, col
}

// collectGridItems resolves the definite lines of every in-flow child.
// With layout set, skipped children get their geometry cleared and
// out-of-flow children a static position at the grid origin.
func (p *pass) collectGridItems(n *Node, rows, cols *gridAxis, layout bool) []*gridItem {
	var items []*gridItem
	for _, cid := range n.Children {
		child := p.tree.Node(cid)
		switch {
		case child.Kind == KindText, child.Style.Display == DisplayNone:
			if layout {
				p.zeroSubtree(cid)
			}
			continue
		case child.Style.IsOutOfFlow():
			if layout {
				child.static = Point{}
				child.hasStatic = true
			}
			continue
		}
		it := &gridItem{node: child}
		row, col := p.gridPlacement(child)
		it.resolveAxis(axisRow, row, rows.resolver())
		it.resolveAxis(axisCol, col, cols.resolver())
		items = append(items, it)
	}
	return items
}

// sizeTracks resolves the track sizes of one axis. avail is NaN when the
// axis is indefinite; content and fr tracks then take their content size.
// growFixed lets fixed tracks grow to fit their items, as rows do.
//
// With a definite size, fixed tracks take their breadth, minmax ranges
// grow toward their maximum, and what remains is split between content
// tracks (one share each) and fr tracks (their factor), never below a
// track's minimum.
func (p *pass) sizeTracks(g *gridAxis, avail, fontSize float64, growFixed bool) {
	def := !math.IsNaN(avail)
	for i := range g.tracks {
		t := &g.tracks[i]
		fn := t.fn
		switch {
		case fn.Min.Kind == gridsyntax.SizeMaxContent:
			t.base = t.maxC
		default:
			if v, ok := p.trackLength(fn.Min, avail, def, fontSize); ok {
				t.base = nonNeg(v)
			} else {
				t.base = t.minC
			}
		}
		if v, ok := p.trackLength(fn.Max, avail, def, fontSize); ok {
			t.kind = trackFixed
			if growFixed {
				t.base = math.Max(t.base, t.maxC)
			}
			t.limit = math.Max(nonNeg(v), t.base)
		} else if fn.Max.IsFlexible() {
			t.kind = trackFlex
			t.factor = nonNeg(fn.Max.Value)
			t.limit = math.Inf(1)
		} else {
			t.kind = trackContent
			t.limit = math.Inf(1)
			switch {
			case fn.FitContent:
				lim, ok := p.trackLength(fn.Limit, avail, def, fontSize)
				if !ok {
					lim = t.maxC
				}
				t.limit = math.Max(t.base, math.Min(t.maxC, lim))
			case fn.Max.Kind == gridsyntax.SizeMinContent:
				t.limit = math.Max(t.base, t.minC)
			}
		}
		t.size = t.base
	}

	if !def {
		for i := range g.tracks {
			t := &g.tracks[i]
			switch t.kind {
			case trackFixed:
				t.size = t.limit
			default:
				t.size = math.Max(t.base, math.Min(t.maxC, t.limit))
			}
		}
		g.fitSpans()
		return
	}

	free := avail - g.gaps()
	for _, t := range g.tracks {
		free -= t.size
	}
	g.growFixedTracks(free)
	g.sharePool(avail)
	if growFixed {
		g.fitSpans()
	}
}

// growFixedTracks distributes free space equally to fixed tracks below
// their maximum.
func (g *gridAxis) growFixedTracks(free float64) {
	for free > 1e-9 {
		var open []int
		for i, t := range g.tracks {
			if t.kind == trackFixed && t.size < t.limit-1e-9 {
				open = append(open, i)
			}
		}
		if len(open) == 0 {
			break
		}
		share := free / float64(len(open))
		for _, i := range open {
			t := &g.tracks[i]
			add := math.Min(share, t.limit-t.size)
			t.size += add
			free -= add
		}
	}
}

// sharePool splits the space left after fixed tracks between content and
// fr tracks, freezing tracks that hit their minimum or maximum.
func (g *gridAxis) sharePool(avail float64) {
	frozen := make([]bool, len(g.tracks))
	weight := func(t gridTrack) float64 {
		if t.kind == trackFlex {
			return t.factor
		}
		return 1
	}
	for iter := 0; iter <= len(g.tracks); iter++ {
		remaining := avail - g.gaps()
		weights := 0.0
		for i, t := range g.tracks {
			if t.kind == trackFixed || frozen[i] {
				remaining -= t.size
				continue
			}
			weights += weight(t)
		}
		if weights <= 0 {
			return
		}
		unit := remaining / weights
		changed := false
		for i := range g.tracks {
			t := &g.tracks[i]
			if t.kind == trackFixed || frozen[i] {
				continue
			}
			target := weight(*t) * unit
			switch {
			case target < t.base:
				t.size = t.base
				frozen[i], changed = true, true
			case target > t.limit:
				t.size = t.limit
				frozen[i], changed = true, true
			default:
				t.size = target
			}
		}
		if !changed {
			return
		}
	}
}

// fitSpans grows tracks so every spanning item fits, preferring tracks
// that are not fixed.
func (g *gridAxis) fitSpans() {
	for _, sp := range g.spans {
		extent := g.gap * float64(sp.end-sp.start-1)
		var flexible []int
		for i := sp.start; i < sp.end; i++ {
			extent += g.tracks[i].size
			if g.tracks[i].kind != trackFixed {
				flexible = append(flexible, i)
			}
		}
		need := sp.size - extent
		if need <= 1e-9 {
			continue
		}
		if len(flexible) == 0 {
			for i := sp.start; i < sp.end; i++ {
				flexible = append(flexible, i)
			}
		}
		share := need / float64(len(flexible))
		for _, i := range flexible {
			g.tracks[i].size += share
		}
	}
}

// gridJustify returns the used justify-self of an item.
func gridJustify(container, child *Node) Align {
	a := child.Style.JustifySelf
	if a == AlignNormal {
		a = container.Style.JustifyItems
	}
	return normalizeGridAlign(a, child)
}

// gridAlign returns the used align-self of an item.
func gridAlign(container, child *Node) Align {
	a := child.Style.AlignSelf
	if a == AlignNormal {
		a = container.Style.AlignItems
	}
	return normalizeGridAlign(a, child)
}

func normalizeGridAlign(a Align, child *Node) Align {
	switch a {
	case AlignNormal:
		if child.Style.IsReplaced() || child.Style.AspectRatio > 0 {
			return AlignStart
		}
		return AlignStretch
	case AlignFlexStart, AlignLeft, AlignBaselineItems:
		return AlignStart
	case AlignFlexEnd, AlignRight:
		return AlignEnd
	}
	return a
}

// cellOffset positions an item of free leftover space inside its cell.
// Auto margins absorb the space before alignment applies.
func cellOffset(a Align, free float64, autoStart, autoEnd bool) float64 {
	if autoStart || autoEnd {
		switch {
		case free <= 0:
			return 0
		case autoStart && autoEnd:
			return free / 2
		case autoStart:
			return free
		}
		return 0
	}
	switch a {
	case AlignEnd:
		return free
	case AlignCenter:
		return free / 2
	}
	return 0
}

// layoutGridItem lays an item out in the width of its column span. A
// non-NaN height forces the border-box height.
func (p *pass) layoutGridItem(n *Node, it *gridItem, cols *gridAxis, cellH, height float64, depth int) {
	child := it.node
	s := &child.Style
	_, cellW := cols.cell(it.start[axisCol], it.end[axisCol])
	c := newConstraint(cellW, nonNeg(cellH), !math.IsNaN(cellH))
	if gridJustify(n, child) != AlignStretch || s.Margin.Left.IsAuto() || s.Margin.Right.IsAuto() {
		c.shrink = true
	}
	c.height = height
	p.layoutBox(child.ID, c, depth+1)
}

// layoutGrid places items on the grid, sizes columns then rows, and
// aligns each item in its cell.
func (p *pass) layoutGrid(n *Node, c constraint, depth int) {
	auto := p.resolveBoxEdges(n, c.cbWidth)
	n.Box.Content.Width = p.contentWidth(n, c, depth)
	if c.centre {
		centreAutoMargins(n, c.cbWidth, auto)
	}
	width := n.Box.Content.Width
	specH := p.specifiedHeight(n, c, width)
	s := &n.Style
	fs := s.fontSize()

	areas := p.gridAreas(n)
	cols := p.gridAxisFor(n, axisCol, areas, width, true, p.gridGap(s.ColumnGap, width, true))
	rows := p.gridAxisFor(n, axisRow, areas, specH, !math.IsNaN(specH), p.gridGap(s.RowGap, specH, !math.IsNaN(specH)))

	items := p.collectGridItems(n, rows, cols, true)
	counts := placeGridItems(items, s.GridAutoFlow, [2]int{len(rows.tracks), len(cols.tracks)})
	rows.grow(counts[axisRow])
	cols.grow(counts[axisCol])
	cols.collapseEmpty(items, axisCol)
	rows.collapseEmpty(items, axisRow)

	cols.contribute(items, axisCol, func(it *gridItem) (float64, float64) {
		return p.outerIntrinsic(it.node.ID, depth+1)
	})
	p.sizeTracks(cols, width, fs, false)
	offset, spacing := calculateAlignmentOffsets(len(cols.tracks), cols.total(), width, s.JustifyContent)
	cols.place(offset, spacing)

	for _, it := range items {
		p.layoutGridItem(n, it, cols, math.NaN(), math.NaN(), depth)
	}
	rows.contribute(items, axisRow, func(it *gridItem) (float64, float64) {
		h := it.node.Box.OuterSize(Vertical)
		return h, h
	})
	p.sizeTracks(rows, specH, fs, true)
	p.finishHeight(n, c, specH, rows.total())
	offset, spacing = calculateAlignmentOffsets(len(rows.tracks), rows.total(), n.Box.Content.Height, s.AlignContent)
	rows.place(offset, spacing)

	rtl := p.resolveDirection(n) == RTL
	for _, it := range items {
		p.alignGridItem(n, it, rows, cols, rtl, depth)
	}
	if len(items) > 0 {
		first := items[0]
		for _, it := range items[1:] {
			if it.start[axisRow] < first.start[axisRow] ||
				(it.start[axisRow] == first.start[axisRow] && it.start[axisCol] < first.start[axisCol]) {
				first = it
			}
		}
		n.Baseline = first.node.Box.Content.Y + first.node.Baseline
	}
}

// alignGridItem stretches or aligns an item inside its grid area and
// places it.
func (p *pass) alignGridItem(n *Node, it *gridItem, rows, cols *gridAxis, rtl bool, depth int) {
	child := it.node
	s := &child.Style
	x, w := cols.cell(it.start[axisCol], it.end[axisCol])
	y, h := rows.cell(it.start[axisRow], it.end[axisRow])
	align := gridAlign(n, child)
	autoTop, autoBottom := s.Margin.Top.IsAuto(), s.Margin.Bottom.IsAuto()

	d := &child.Box
	if align == AlignStretch && s.Height.IsAuto() && !autoTop && !autoBottom {
		target := nonNeg(h - d.Margin.Top - d.Margin.Bottom)
		if math.Abs(target-d.BorderSize(Vertical)) > 1e-9 {
			p.layoutGridItem(n, it, cols, h, target, depth)
		}
	} else if s.Height.HasPercent() {
		p.layoutGridItem(n, it, cols, h, math.NaN(), depth)
	}
	d = &child.Box

	ox := cellOffset(gridJustify(n, child), w-d.OuterSize(Horizontal), s.Margin.Left.IsAuto(), s.Margin.Right.IsAuto())
	oy := cellOffset(align, h-d.OuterSize(Vertical), autoTop, autoBottom)
	if rtl {
		x = n.Box.Content.Width - x - w
		ox = w - d.OuterSize(Horizontal) - ox
	}
	d.PlaceMarginBox(x+ox, y+oy)
}

// gridIntrinsic returns the intrinsic widths of a grid container: its
// columns sized without a definite width from min-content and then
// max-content contributions.
func (p *pass) gridIntrinsic(n *Node, depth int) (float64, float64) {
	s := &n.Style
	areas := p.gridAreas(n)
	cols := p.gridAxisFor(n, axisCol, areas, math.NaN(), false, p.gridGap(s.ColumnGap, 0, false))
	rows := p.gridAxisFor(n, axisRow, areas, math.NaN(), false, 0)
	items := p.collectGridItems(n, rows, cols, false)
	counts := placeGridItems(items, s.GridAutoFlow, [2]int{len(rows.tracks), len(cols.tracks)})
	cols.grow(counts[axisCol])
	cols.collapseEmpty(items, axisCol)

	var out [2]float64
	for i, useMin := range []bool{true, false} {
		cols.contribute(items, axisCol, func(it *gridItem) (float64, float64) {
			mn, mx := p.outerIntrinsic(it.node.ID, depth+1)
			if useMin {
				return mn, mn
			}
			return mx, mx
		})
		p.sizeTracks(cols, math.NaN(), s.fontSize(), false)
		out[i] = cols.total()
	}
	return out[0], out[1]
}
