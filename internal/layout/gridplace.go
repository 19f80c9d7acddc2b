// internal/layout/gridplace.go
package layout

import (
	"slices"

	"github.com/xkilldash9x/boxflow/internal/gridsyntax"
)

const (
	axisRow = 0
	axisCol = 1
)

// gridItem is an in-flow grid child with its resolved area. Lines are
// 0-based and end-exclusive, per axis (axisRow, axisCol).
type gridItem struct {
	node  *Node
	start [2]int
	end   [2]int
	def   [2]bool
	span  [2]int
}

// lineResolver maps line references to indices for one axis.
type lineResolver struct {
	names    [][]string
	explicit int
}

// resolve returns the line index for l, or false when l does not pin a
// line. end selects the -end suffix for area names.
func (r lineResolver) resolve(l gridsyntax.Line, end bool) (int, bool) {
	if l.Auto || l.Span > 0 {
		return 0, false
	}
	if l.Name == "" {
		if l.Index > 0 {
			return l.Index - 1, true
		}
		return max(r.explicit+1+l.Index, 0), true
	}
	candidates := []string{l.Name}
	if l.Index == 0 {
		suffix := "-start"
		if end {
			suffix = "-end"
		}
		candidates = []string{l.Name + suffix, l.Name}
	}
	for _, name := range candidates {
		var matches []int
		for i, names := range r.names {
			if slices.Contains(names, name) {
				matches = append(matches, i)
			}
		}
		if len(matches) == 0 {
			continue
		}
		idx := l.Index
		if idx == 0 {
			idx = 1
		}
		if idx > 0 {
			if idx <= len(matches) {
				return matches[idx-1], true
			}
			return r.explicit + idx - len(matches), true
		}
		if k := len(matches) + idx; k >= 0 {
			return matches[k], true
		}
		return 0, true
	}
	return 0, false
}

// resolveAxis fills the definite position or span of one axis of an item.
func (it *gridItem) resolveAxis(axis int, pl gridsyntax.Placement, r lineResolver) {
	s, sOK := r.resolve(pl.Start, false)
	e, eOK := r.resolve(pl.End, true)
	span := 1
	switch {
	case pl.Start.Span > 0:
		span = pl.Start.Span
	case pl.End.Span > 0:
		span = pl.End.Span
	}
	switch {
	case sOK && eOK:
		if e < s {
			s, e = e, s
		}
		if e == s {
			e = s + 1
		}
	case sOK:
		e = s + span
	case eOK:
		s = max(e-span, 0)
		if e <= s {
			e = s + 1
		}
	default:
		it.span[axis] = span
		return
	}
	it.start[axis], it.end[axis] = s, e
	it.span[axis] = e - s
	it.def[axis] = true
}

// occupancy records the cells taken by placed items.
type occupancy map[[2]int]bool

func (o occupancy) fits(r0, r1, c0, c1 int) bool {
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			if o[[2]int{r, c}] {
				return false
			}
		}
	}
	return true
}

func (o occupancy) mark(it *gridItem) {
	for r := it.start[axisRow]; r < it.end[axisRow]; r++ {
		for c := it.start[axisCol]; c < it.end[axisCol]; c++ {
			o[[2]int{r, c}] = true
		}
	}
}

// fitsAt checks an item of the given spans with its flow-axis start at f
// and its other-axis start at o.
func (o occupancy) fitsAt(flowAxis, f, other, fSpan, oSpan int) bool {
	if flowAxis == axisCol {
		return o.fits(other, other+oSpan, f, f+fSpan)
	}
	return o.fits(f, f+fSpan, other, other+oSpan)
}

func (it *gridItem) set(axis, start int) {
	it.start[axis] = start
	it.end[axis] = start + it.span[axis]
}

// placeGridItems runs grid auto-placement. flow is the axis auto-placed
// items advance along (columns for row flow). It returns the track count
// on each axis, implicit tracks included.
func placeGridItems(items []*gridItem, flow GridAutoFlow, explicit [2]int) [2]int {
	flowAxis, otherAxis := axisCol, axisRow
	if flow.Columnar() {
		flowAxis, otherAxis = axisRow, axisCol
	}
	dense := flow.Dense()
	occ := occupancy{}
	counts := explicit

	grow := func(it *gridItem) {
		counts[axisRow] = max(counts[axisRow], it.end[axisRow])
		counts[axisCol] = max(counts[axisCol], it.end[axisCol])
	}

	// Fully definite items first.
	for _, it := range items {
		if it.def[axisRow] && it.def[axisCol] {
			occ.mark(it)
			grow(it)
		}
	}

	// Items locked to a line of the other axis.
	cursors := map[int]int{}
	for _, it := range items {
		if !it.def[otherAxis] || it.def[flowAxis] {
			continue
		}
		o := it.start[otherAxis]
		f := 0
		if !dense {
			f = cursors[o]
		}
		for !occ.fitsAt(flowAxis, f, o, it.span[flowAxis], it.span[otherAxis]) {
			f++
		}
		it.set(flowAxis, f)
		it.def[flowAxis] = true
		occ.mark(it)
		grow(it)
		cursors[o] = it.end[flowAxis]
	}

	// The flow axis is sized before the remaining items are placed.
	for _, it := range items {
		if it.def[flowAxis] {
			counts[flowAxis] = max(counts[flowAxis], it.end[flowAxis])
		} else {
			counts[flowAxis] = max(counts[flowAxis], it.span[flowAxis])
		}
	}
	limit := max(counts[flowAxis], 1)

	curO, curF := 0, 0
	for _, it := range items {
		if it.def[otherAxis] {
			continue
		}
		if dense {
			curO, curF = 0, 0
		}
		if it.def[flowAxis] {
			f := it.start[flowAxis]
			if !dense && f < curF {
				curO++
			}
			for !occ.fitsAt(flowAxis, f, curO, it.span[flowAxis], it.span[otherAxis]) {
				curO++
			}
			it.set(otherAxis, curO)
			it.def[otherAxis] = true
			curF = f
		} else {
			span := min(it.span[flowAxis], limit)
			it.span[flowAxis] = span
			for {
				placed := false
				for f := curF; f+span <= limit; f++ {
					if occ.fitsAt(flowAxis, f, curO, span, it.span[otherAxis]) {
						it.set(flowAxis, f)
						it.set(otherAxis, curO)
						placed = true
						break
					}
				}
				if placed {
					break
				}
				curO++
				curF = 0
			}
			it.def[flowAxis], it.def[otherAxis] = true, true
			curF = it.end[flowAxis]
		}
		occ.mark(it)
		grow(it)
	}
	return counts
}
