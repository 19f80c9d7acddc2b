// internal/layout/flex.go
package layout

import (
	"math"
	"sort"
)

// flexDirectionInfo describes the axes of a flex container.
type flexDirectionInfo struct {
	mainAxis  Axis
	crossAxis Axis
	// reverse flips the main axis: *-reverse directions, and row
	// directions in right-to-left containers.
	reverse bool
	// crossReverse flips the cross axis for wrap-reverse.
	crossReverse bool
}

func (p *pass) flexDirection(n *Node) flexDirectionInfo {
	s := &n.Style
	info := flexDirectionInfo{mainAxis: Horizontal, crossAxis: Vertical}
	switch s.FlexDirection {
	case FlexRowReverse:
		info.reverse = true
	case FlexColumn:
		info.mainAxis, info.crossAxis = Vertical, Horizontal
	case FlexColumnReverse:
		info.mainAxis, info.crossAxis = Vertical, Horizontal
		info.reverse = true
	}
	if info.mainAxis == Horizontal && s.Direction == RTL {
		info.reverse = !info.reverse
	}
	info.crossReverse = s.FlexWrap == FlexWrapReverse
	return info
}

// flexItem carries the per-item state of one flex layout.
type flexItem struct {
	node     *Node
	base     float64
	hyp      float64
	target   float64
	minMain  float64
	maxMain  float64
	frozen   bool
	grow     float64
	shrink   float64
	autoMain [2]bool
	autoX    [2]bool
	// static is margin + border + padding along the main axis.
	static float64
	cross  float64
}

func (it *flexItem) outerHyp() float64    { return it.hyp + it.static }
func (it *flexItem) outerTarget() float64 { return it.target + it.static }

type flexLine struct {
	items      []*flexItem
	mainSize   float64
	crossSize  float64
	crossStart float64
	baseline   float64
}

// layoutFlex implements the flexbox algorithm: base sizes, line
// collection, flexible lengths, cross sizes and alignment.
func (p *pass) layoutFlex(n *Node, c constraint, depth int) {
	auto := p.resolveBoxEdges(n, c.cbWidth)
	n.Box.Content.Width = p.contentWidth(n, c, depth)
	if c.centre {
		centreAutoMargins(n, c.cbWidth, auto)
	}
	width := n.Box.Content.Width
	definite := p.specifiedHeight(n, c, width)
	info := p.flexDirection(n)
	s := &n.Style

	availMain := width
	mainGap := p.ctx.resolveOr(s.ColumnGap, width, 0)
	crossGap := p.ctx.resolveOr(s.RowGap, nonNeg(definite), 0)
	if s.RowGap.IsAuto() {
		crossGap = 0
	}
	if s.ColumnGap.IsAuto() {
		mainGap = 0
	}
	if info.mainAxis == Vertical {
		availMain = definite
		mainGap, crossGap = crossGap, mainGap
		if math.IsNaN(availMain) {
			availMain = math.Inf(1)
		}
	}
	mainGap, crossGap = nonNeg(mainGap), nonNeg(crossGap)

	items := p.collectFlexItems(n, info, width, definite, availMain, depth)
	if len(items) == 0 {
		p.finishHeight(n, c, definite, 0)
		return
	}

	lines := collectFlexLines(items, s.FlexWrap, availMain, mainGap)
	for _, line := range lines {
		resolveFlexibleLengths(line, availMain, mainGap)
	}
	p.determineCrossSizes(n, lines, info, width, definite, depth)

	// A single-line container with a definite cross size gives the line
	// that size.
	definiteCross := width
	crossDef := true
	if info.crossAxis == Vertical {
		definiteCross, crossDef = definite, !math.IsNaN(definite)
	}
	if len(lines) == 1 && s.FlexWrap == FlexNoWrap && crossDef {
		lines[0].crossSize = definiteCross
	}

	totalCross := crossGap * float64(len(lines)-1)
	for _, line := range lines {
		totalCross += line.crossSize
	}
	containerCross := totalCross
	if crossDef {
		containerCross = definiteCross
	}

	p.alignCrossAxis(n, lines, info, containerCross, totalCross, crossGap, width, definite, depth)

	containerMain := availMain
	if math.IsInf(containerMain, 1) {
		containerMain = 0
		for _, line := range lines {
			containerMain = math.Max(containerMain, line.mainSize)
		}
	}
	alignMainAxis(lines, info, containerMain, mainGap, s.JustifyContent)

	if info.mainAxis == Vertical {
		p.finishHeight(n, c, definite, containerMain)
	} else {
		p.finishHeight(n, c, definite, containerCross)
	}
	if len(lines[0].items) > 0 {
		first := lines[0].items[0].node
		n.Baseline = first.Box.Content.Y + first.Baseline
	}
}

// collectFlexItems gathers the in-flow children, records static positions
// of the out-of-flow ones, and computes flex base sizes.
func (p *pass) collectFlexItems(n *Node, info flexDirectionInfo, width, definite, availMain float64, depth int) []*flexItem {
	var items []*flexItem
	for _, cid := range n.Children {
		child := p.tree.Node(cid)
		switch {
		case child.Kind == KindText, child.Style.Display == DisplayNone:
			// Loose text is wrapped in anonymous items; what is left is
			// collapsible white space.
			p.zeroSubtree(cid)
			continue
		case child.Style.IsOutOfFlow():
			child.static = Point{}
			child.hasStatic = true
			continue
		}
		items = append(items, &flexItem{node: child})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].node.Style.Order < items[b].node.Style.Order
	})
	for _, it := range items {
		p.calculateFlexBaseSize(it, info, width, definite, availMain, depth)
	}
	return items
}

// calculateFlexBaseSize resolves flex-basis, falling back to the main size
// property, then to the content size.
func (p *pass) calculateFlexBaseSize(it *flexItem, info flexDirectionInfo, width, definite, availMain float64, depth int) {
	child := it.node
	s := &child.Style
	main := info.mainAxis
	auto := p.resolveBoxEdges(child, width)
	if main == Horizontal {
		it.autoMain = [2]bool{auto[3], auto[1]}
		it.autoX = [2]bool{auto[0], auto[2]}
	} else {
		it.autoMain = [2]bool{auto[0], auto[2]}
		it.autoX = [2]bool{auto[3], auto[1]}
	}
	d := child.Box
	frame := d.Frame(main)
	it.static = d.Static(main)
	it.grow = math.Max(0, s.FlexGrow)
	it.shrink = math.Max(0, s.FlexShrink)

	mainDef := main == Horizontal || !math.IsInf(availMain, 1)
	sizeProp, minProp, maxProp := s.Width, s.MinWidth, s.MaxWidth
	if main == Vertical {
		sizeProp, minProp, maxProp = s.Height, s.MinHeight, s.MaxHeight
	}
	resolve := func(l Length) (float64, bool) {
		v, ok := p.ctx.Resolve(l, availMain, mainDef)
		if ok && s.BoxSizing == BorderBox {
			v -= frame
		}
		return v, ok
	}

	base := math.NaN()
	if v, ok := resolve(s.FlexBasis); ok {
		base = v
	} else if v, ok := resolve(sizeProp); ok {
		base = v
	}
	var minContent float64
	if main == Horizontal {
		minW, maxW := p.intrinsicWidths(child.ID, depth+1)
		minContent = minW
		if math.IsNaN(base) {
			base = maxW
		}
	} else {
		c := newConstraint(width, nonNeg(definite), !math.IsNaN(definite))
		c.centre = false
		if s.Width.IsAuto() && p.alignFor(it, p.tree.Node(child.Parent)) != AlignStretch {
			c.shrink = true
		}
		p.layoutBox(child.ID, c, depth+1)
		minContent = child.Box.Content.Height
		if math.IsNaN(base) {
			base = child.Box.Content.Height
		}
	}
	it.base = nonNeg(base)

	it.maxMain = math.Inf(1)
	if v, ok := resolve(maxProp); ok {
		it.maxMain = nonNeg(v)
	}
	if v, ok := resolve(minProp); ok {
		it.minMain = nonNeg(v)
	} else if s.Overflow == OverflowVisible {
		// Automatic minimum: the content size, capped by a specified size.
		auto := minContent
		if v, ok := resolve(sizeProp); ok {
			auto = math.Min(auto, v)
		}
		it.minMain = math.Min(nonNeg(auto), it.maxMain)
	}
	it.hyp = clamp(it.base, it.minMain, it.maxMain)
	it.target = it.hyp
}

// collectFlexLines packs items into lines by their outer hypothetical main
// sizes.
func collectFlexLines(items []*flexItem, wrap FlexWrap, availMain, gap float64) []*flexLine {
	line := &flexLine{}
	lines := []*flexLine{line}
	for _, it := range items {
		size := it.outerHyp()
		next := line.mainSize + size
		if len(line.items) > 0 {
			next += gap
		}
		if wrap != FlexNoWrap && len(line.items) > 0 && next > availMain+1e-9 {
			line = &flexLine{}
			lines = append(lines, line)
			next = size
		}
		line.items = append(line.items, it)
		line.mainSize = next
	}
	return lines
}

// resolveFlexibleLengths grows or shrinks the items of a line, freezing
// items that hit their min or max until the free space settles.
func resolveFlexibleLengths(line *flexLine, availMain, gap float64) {
	if math.IsInf(availMain, 1) {
		line.mainSize = sumOuterTargets(line, gap)
		return
	}
	used := gap * float64(len(line.items)-1)
	for _, it := range line.items {
		used += it.outerHyp()
	}
	growing := availMain-used > 0
	for _, it := range line.items {
		it.target = it.hyp
		it.frozen = false
		switch {
		case growing && (it.grow == 0 || it.base > it.hyp):
			it.frozen = true
		case !growing && (it.shrink == 0 || it.base < it.hyp):
			it.frozen = true
		}
	}

	for iter := 0; iter <= len(line.items); iter++ {
		free := availMain - gap*float64(len(line.items)-1)
		var totalGrow, totalShrink float64
		active := 0
		for _, it := range line.items {
			if it.frozen {
				free -= it.outerTarget()
				continue
			}
			free -= it.base + it.static
			totalGrow += it.grow
			totalShrink += it.shrink * it.base
			active++
		}
		if active == 0 {
			break
		}
		// A sum of grow factors below one only hands out that fraction of
		// the free space.
		if growing && totalGrow < 1 {
			free *= totalGrow
		}
		violation := 0.0
		for _, it := range line.items {
			if it.frozen {
				continue
			}
			size := it.base
			switch {
			case growing && totalGrow > 0:
				size += free * it.grow / totalGrow
			case !growing && totalShrink > 0:
				size += free * it.shrink * it.base / totalShrink
			}
			clamped := clamp(math.Max(size, 0), it.minMain, it.maxMain)
			violation += clamped - size
			it.target = clamped
		}
		done := true
		for _, it := range line.items {
			if it.frozen {
				continue
			}
			size := it.target
			switch {
			case math.Abs(violation) < 1e-9:
				it.frozen = true
			case violation > 0 && size <= it.minMain+1e-9:
				it.frozen = true
			case violation < 0 && size >= it.maxMain-1e-9:
				it.frozen = true
			default:
				done = false
			}
		}
		if done {
			break
		}
	}
	line.mainSize = sumOuterTargets(line, gap)
}

func sumOuterTargets(line *flexLine, gap float64) float64 {
	total := gap * float64(len(line.items)-1)
	for _, it := range line.items {
		total += it.outerTarget()
	}
	return total
}

// alignFor returns the used align-self of an item; normal behaves as
// stretch.
func (p *pass) alignFor(it *flexItem, container *Node) Align {
	a := container.Style.AlignItems
	if it.node.Style.AlignSelf != AlignNormal {
		a = it.node.Style.AlignSelf
	}
	if a == AlignNormal {
		a = AlignStretch
	}
	return a
}

// crossIsAuto reports whether the item's cross size property is auto.
func crossIsAuto(it *flexItem, info flexDirectionInfo) bool {
	if info.crossAxis == Vertical {
		return it.node.Style.Height.IsAuto()
	}
	return it.node.Style.Width.IsAuto()
}

// layoutFlexItem lays the item out at its target main size, optionally
// forcing the cross size.
func (p *pass) layoutFlexItem(it *flexItem, info flexDirectionInfo, width, definite, cross float64, depth int) {
	c := newConstraint(width, nonNeg(definite), !math.IsNaN(definite))
	child := it.node
	// The item was laid out once already when the main axis is vertical;
	// its frame is known from the first edge resolution.
	frame := child.Box.Frame(info.mainAxis)
	if info.mainAxis == Horizontal {
		c.width = it.target + frame
		if !math.IsNaN(cross) {
			c.height = cross
		}
	} else {
		c.height = it.target + frame
		if !math.IsNaN(cross) {
			c.width = cross
		} else if crossIsAuto(it, info) {
			c.shrink = true
		}
	}
	p.layoutBox(child.ID, c, depth+1)
}

// determineCrossSizes lays out each item at its main size and sets each
// line's cross size to its largest outer item.
func (p *pass) determineCrossSizes(n *Node, lines []*flexLine, info flexDirectionInfo, width, definite float64, depth int) {
	for _, line := range lines {
		maxAbove, maxBelow := 0.0, 0.0
		for _, it := range line.items {
			p.layoutFlexItem(it, info, width, definite, math.NaN(), depth)
			it.cross = it.node.Box.OuterSize(info.crossAxis)
			line.crossSize = math.Max(line.crossSize, it.cross)
			if info.crossAxis == Vertical && p.alignFor(it, n) == AlignBaselineItems {
				d := it.node.Box
				above := d.Margin.Top + d.Border.Top + d.Padding.Top + it.node.Baseline
				maxAbove = math.Max(maxAbove, above)
				maxBelow = math.Max(maxBelow, it.cross-above)
			}
		}
		line.baseline = maxAbove
		line.crossSize = math.Max(line.crossSize, maxAbove+maxBelow)
	}
}

// alignCrossAxis positions lines with align-content and items within their
// line with align-self.
func (p *pass) alignCrossAxis(n *Node, lines []*flexLine, info flexDirectionInfo, containerCross, totalCross, gap, width, definite float64, depth int) {
	s := &n.Style
	offset, spacing := 0.0, 0.0
	if s.FlexWrap != FlexNoWrap {
		ac := s.AlignContent
		if (ac == AlignStretch || ac == AlignNormal) && containerCross > totalCross {
			extra := (containerCross - totalCross) / float64(len(lines))
			for _, line := range lines {
				line.crossSize += extra
			}
			totalCross = containerCross
		}
		offset, spacing = calculateAlignmentOffsets(len(lines), totalCross, containerCross, ac)
	}
	for _, line := range lines {
		if info.crossReverse {
			line.crossStart = containerCross - offset - line.crossSize
		} else {
			line.crossStart = offset
		}
		offset += line.crossSize + spacing + gap
		for _, it := range line.items {
			p.alignFlexItem(n, it, line, info, width, definite, depth)
		}
	}
}

// alignFlexItem resolves the cross offset of an item within its line.
// Cross-axis auto margins take priority over alignment.
func (p *pass) alignFlexItem(n *Node, it *flexItem, line *flexLine, info flexDirectionInfo, width, definite float64, depth int) {
	child := it.node
	d := &child.Box
	align := p.alignFor(it, n)
	cross := info.crossAxis
	free := line.crossSize - it.cross

	startOffset := 0.0
	switch {
	case it.autoX[0] || it.autoX[1]:
		if free > 0 {
			switch {
			case it.autoX[0] && it.autoX[1]:
				startOffset = free / 2
			case it.autoX[0]:
				startOffset = free
			}
		}
	case align == AlignStretch && crossIsAuto(it, info):
		size := line.crossSize - d.Margin.Sum(cross)
		if math.Abs(size-d.BorderSize(cross)) > 1e-9 {
			p.layoutFlexItem(it, info, width, definite, nonNeg(size), depth)
		}
	case align == AlignFlexEnd || align == AlignEnd:
		startOffset = free
	case align == AlignCenter:
		startOffset = free / 2
	case align == AlignBaselineItems && cross == Vertical:
		above := d.Margin.Top + d.Border.Top + d.Padding.Top + child.Baseline
		startOffset = line.baseline - above
	}
	if info.crossReverse {
		switch align {
		case AlignFlexStart, AlignStart, AlignBaselineItems:
			startOffset = free - startOffset
		case AlignFlexEnd, AlignEnd:
			startOffset = 0
		}
	}
	it.cross = d.OuterSize(cross)
	crossPos := line.crossStart + startOffset
	if cross == Vertical {
		d.Content.Y = crossPos + d.Margin.Top + d.Border.Top + d.Padding.Top
	} else {
		d.Content.X = crossPos + d.Margin.Left + d.Border.Left + d.Padding.Left
	}
}

// alignMainAxis distributes leftover main space to auto margins first and
// otherwise by justify-content, then places items along the main axis.
func alignMainAxis(lines []*flexLine, info flexDirectionInfo, containerMain, gap float64, justify Align) {
	main := info.mainAxis
	for _, line := range lines {
		free := containerMain - line.mainSize
		autoCount := 0
		for _, it := range line.items {
			for _, a := range it.autoMain {
				if a {
					autoCount++
				}
			}
		}
		offset, spacing := 0.0, 0.0
		perAuto := 0.0
		if autoCount > 0 && free > 0 {
			perAuto = free / float64(autoCount)
		} else {
			j := justify
			switch j {
			case AlignLeft:
				j = AlignStart
				if info.reverse && main == Horizontal {
					j = AlignEnd
				}
			case AlignRight:
				j = AlignEnd
				if info.reverse && main == Horizontal {
					j = AlignStart
				}
			}
			offset, spacing = calculateAlignmentOffsets(len(line.items), line.mainSize, containerMain, j)
		}
		pos := offset
		for _, it := range line.items {
			d := &it.node.Box
			if it.autoMain[0] {
				pos += perAuto
			}
			size := d.OuterSize(main)
			start := pos
			if info.reverse {
				start = containerMain - pos - size
			}
			if main == Horizontal {
				d.Content.X = start + d.Margin.Left + d.Border.Left + d.Padding.Left
			} else {
				d.Content.Y = start + d.Margin.Top + d.Border.Top + d.Padding.Top
			}
			pos += size + spacing + gap
			if it.autoMain[1] {
				pos += perAuto
			}
		}
	}
}

// calculateAlignmentOffsets returns the leading offset and the spacing
// between items for a distribution value. Overflow aligns to the start.
func calculateAlignmentOffsets(count int, total, avail float64, align Align) (start, spacing float64) {
	free := avail - total
	if free <= 1e-3 {
		return 0, 0
	}
	switch align {
	case AlignFlexEnd, AlignEnd:
		return free, 0
	case AlignCenter:
		return free / 2, 0
	case AlignSpaceBetween:
		if count > 1 {
			return 0, free / float64(count-1)
		}
		return 0, 0
	case AlignSpaceAround:
		if count > 0 {
			spacing = free / float64(count)
			return spacing / 2, spacing
		}
		return free / 2, 0
	case AlignSpaceEvenly:
		if count > 0 {
			spacing = free / float64(count+1)
			return spacing, spacing
		}
		return free / 2, 0
	}
	return 0, 0
}

// flexIntrinsic returns the intrinsic widths of a flex container.
func (p *pass) flexIntrinsic(n *Node, depth int) (float64, float64) {
	s := &n.Style
	row := s.FlexDirection == FlexRow || s.FlexDirection == FlexRowReverse
	gap := 0.0
	if row && !s.ColumnGap.IsAuto() {
		gap = nonNeg(p.ctx.resolveOr(s.ColumnGap, 0, 0))
	}
	var minW, maxW float64
	count := 0
	for _, cid := range n.Children {
		c := p.tree.Node(cid)
		if c.Kind == KindText && isCollapsibleSpace(c) {
			continue
		}
		if c.Kind != KindText && (c.Style.Display == DisplayNone || c.Style.IsOutOfFlow()) {
			continue
		}
		cmin, cmax := p.outerIntrinsic(cid, depth+1)
		count++
		if !row {
			minW = math.Max(minW, cmin)
			maxW = math.Max(maxW, cmax)
			continue
		}
		maxW += cmax
		if s.FlexWrap == FlexNoWrap {
			minW += cmin
		} else {
			minW = math.Max(minW, cmin)
		}
	}
	if row && count > 1 {
		maxW += gap * float64(count-1)
		if s.FlexWrap == FlexNoWrap {
			minW += gap * float64(count-1)
		}
	}
	return minW, maxW
}
