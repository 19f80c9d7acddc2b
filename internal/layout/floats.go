// internal/layout/floats.go
package layout

import "math"

// floatProbeHeight is the height estimate used when a box needs to know
// the float-free band before it has been laid out.
const floatProbeHeight = 20.0

// floatBox is a placed float, in the coordinates of its formatting context.
type floatBox struct {
	side  FloatSide
	rect  Rect
	shape *shapeRegion
}

// shapeRegion is a resolved shape-outside exclusion.
type shapeRegion struct {
	kind   ShapeKind
	cx, cy float64
	rx, ry float64
	inset  Rect
}

// floatContext tracks the floats of one block formatting context.
type floatContext struct {
	width float64
	boxes []floatBox
}

// floatScope is a view of a float context from a nested block, offset by
// the block's content origin.
type floatScope struct {
	fc    *floatContext
	dx    float64
	dy    float64
	width float64
}

func newFloatScope(width float64) *floatScope {
	return &floatScope{fc: &floatContext{width: width}, width: width}
}

// nested returns the scope seen from a child whose content box starts at
// (x, y) with the given width.
func (s *floatScope) nested(x, y, width float64) *floatScope {
	return &floatScope{fc: s.fc, dx: s.dx + x, dy: s.dy + y, width: width}
}

func (s *floatScope) empty() bool { return s == nil || len(s.fc.boxes) == 0 }

// exclusionRight returns the right edge of a left float's exclusion over
// the band [y, y+h), or NaN when the band misses it.
func (f *floatBox) exclusionRight(y, h float64) float64 {
	if !f.overlaps(y, h) {
		return math.NaN()
	}
	if f.shape == nil {
		return f.rect.X + f.rect.Width
	}
	_, hi, ok := f.shape.span(y, h)
	if !ok {
		return math.NaN()
	}
	return hi
}

// exclusionLeft is the mirror of exclusionRight for right floats.
func (f *floatBox) exclusionLeft(y, h float64) float64 {
	if !f.overlaps(y, h) {
		return math.NaN()
	}
	if f.shape == nil {
		return f.rect.X
	}
	lo, _, ok := f.shape.span(y, h)
	if !ok {
		return math.NaN()
	}
	return lo
}

func (f *floatBox) overlaps(y, h float64) bool {
	if h <= 0 {
		h = 1
	}
	return f.rect.Height > 0 && f.rect.Y < y+h && f.rect.Y+f.rect.Height > y
}

// span returns the horizontal extent of the shape over the band
// [y, y+h), taking the widest point of the band.
func (r *shapeRegion) span(y, h float64) (lo, hi float64, ok bool) {
	switch r.kind {
	case ShapeCircle, ShapeEllipse:
		if r.rx <= 0 || r.ry <= 0 {
			return 0, 0, false
		}
		// The point of the band closest to the centre row is the widest.
		closest := clamp(r.cy, y, y+math.Max(h, 0))
		dy := math.Abs(closest - r.cy)
		if dy >= r.ry {
			return 0, 0, false
		}
		half := r.rx * math.Sqrt(1-(dy*dy)/(r.ry*r.ry))
		return r.cx - half, r.cx + half, true
	case ShapeInset:
		if r.inset.Width <= 0 || r.inset.Height <= 0 {
			return 0, 0, false
		}
		if r.inset.Y >= y+math.Max(h, 1) || r.inset.Y+r.inset.Height <= y {
			return 0, 0, false
		}
		return r.inset.X, r.inset.X + r.inset.Width, true
	}
	return 0, 0, false
}

// available returns the float-free band at local y for a box of height h,
// as a local x offset and width.
func (s *floatScope) available(y, h float64) (x, w float64) {
	if s.empty() {
		return 0, s.widthOrZero()
	}
	gy := y + s.dy
	left := s.dx
	right := s.dx + s.width
	for i := range s.fc.boxes {
		f := &s.fc.boxes[i]
		switch f.side {
		case FloatLeft:
			if e := f.exclusionRight(gy, h); !math.IsNaN(e) && e > left {
				left = e
			}
		case FloatRight:
			if e := f.exclusionLeft(gy, h); !math.IsNaN(e) && e < right {
				right = e
			}
		}
	}
	return left - s.dx, math.Max(0, right-left)
}

func (s *floatScope) widthOrZero() float64 {
	if s == nil {
		return 0
	}
	return s.width
}

// clearance returns the local y below all floats matching clear.
func (s *floatScope) clearance(cl Clear) float64 {
	if s.empty() || cl == ClearNone {
		return math.Inf(-1)
	}
	bottom := math.Inf(-1)
	for _, f := range s.fc.boxes {
		if cl == ClearBoth || (cl == ClearLeft && f.side == FloatLeft) || (cl == ClearRight && f.side == FloatRight) {
			bottom = math.Max(bottom, f.rect.Y+f.rect.Height)
		}
	}
	return bottom - s.dy
}

// nextEdge returns the smallest float bottom below local y.
func (s *floatScope) nextEdge(y float64) (float64, bool) {
	if s.empty() {
		return 0, false
	}
	gy := y + s.dy
	best := math.Inf(1)
	for _, f := range s.fc.boxes {
		if b := f.rect.Y + f.rect.Height; b > gy && b < best {
			best = b
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best - s.dy, true
}

// bottom returns the lowest float edge in local coordinates.
func (s *floatScope) bottom() float64 {
	if s.empty() {
		return 0
	}
	b := 0.0
	for _, f := range s.fc.boxes {
		b = math.Max(b, f.rect.Y+f.rect.Height)
	}
	return b - s.dy
}

// place finds the position of a float margin box of size w x h at or
// below local y and records it. It returns the local margin box origin.
func (s *floatScope) place(side FloatSide, y, w, h float64, shape func(Rect) *shapeRegion) Point {
	for _, f := range s.fc.boxes {
		// A float may not start above an earlier float.
		if top := f.rect.Y - s.dy; top > y {
			y = top
		}
	}
	probe := math.Max(h, 1)
	for i := 0; i <= len(s.fc.boxes); i++ {
		_, bw := s.available(y, probe)
		if w <= bw+1e-9 || bw >= s.width {
			break
		}
		next, ok := s.nextEdge(y)
		if !ok {
			break
		}
		y = next
	}
	x, bw := s.available(y, probe)
	if side == FloatRight {
		x += bw - w
	}
	r := Rect{X: x + s.dx, Y: y + s.dy, Width: w, Height: h}
	fb := floatBox{side: side, rect: r}
	if shape != nil {
		fb.shape = shape(r)
	}
	s.fc.boxes = append(s.fc.boxes, fb)
	return Point{x, y}
}

// resolveShape builds the exclusion of a float from its shape-outside
// against its margin box in context coordinates.
func (p *pass) resolveShape(st *Style) func(Rect) *shapeRegion {
	sh := st.ShapeOutside
	if sh.Kind == ShapeNone {
		return nil
	}
	margin := nonNeg(st.ShapeMargin)
	return func(box Rect) *shapeRegion {
		r := &shapeRegion{kind: sh.Kind}
		switch sh.Kind {
		case ShapeCircle, ShapeEllipse:
			cx := p.ctx.resolveOr(sh.CenterX, box.Width, box.Width/2)
			cy := p.ctx.resolveOr(sh.CenterY, box.Height, box.Height/2)
			closestX := math.Min(cx, box.Width-cx)
			closestY := math.Min(cy, box.Height-cy)
			if sh.Kind == ShapeCircle {
				ref := math.Sqrt((box.Width*box.Width + box.Height*box.Height) / 2)
				rad := p.ctx.resolveOr(sh.RadiusX, ref, math.Min(closestX, closestY))
				r.rx, r.ry = rad, rad
			} else {
				r.rx = p.ctx.resolveOr(sh.RadiusX, box.Width, closestX)
				r.ry = p.ctx.resolveOr(sh.RadiusY, box.Height, closestY)
			}
			r.cx = box.X + cx
			r.cy = box.Y + cy
			r.rx = nonNeg(r.rx + margin)
			r.ry = nonNeg(r.ry + margin)
		case ShapeInset:
			top := p.ctx.resolveOr(sh.Inset.Top, box.Height, 0)
			right := p.ctx.resolveOr(sh.Inset.Right, box.Width, 0)
			bottom := p.ctx.resolveOr(sh.Inset.Bottom, box.Height, 0)
			left := p.ctx.resolveOr(sh.Inset.Left, box.Width, 0)
			r.inset = Rect{
				X:      box.X + left - margin,
				Y:      box.Y + top - margin,
				Width:  nonNeg(box.Width - left - right + 2*margin),
				Height: nonNeg(box.Height - top - bottom + 2*margin),
			}
		}
		return r
	}
}

// layoutFloat lays out a floated child and places it in scope at or below
// local y.
func (p *pass) layoutFloat(child *Node, scope *floatScope, y, cbWidth float64, cbHeight float64, heightDef bool, depth int) {
	c := newConstraint(cbWidth, cbHeight, heightDef)
	c.shrink = true
	p.layoutBox(child.ID, c, depth+1)
	if child.Unsized {
		return
	}
	w := nonNeg(child.Box.OuterSize(Horizontal))
	h := nonNeg(child.Box.OuterSize(Vertical))
	at := scope.place(child.Style.Float, y, w, h, p.resolveShape(&child.Style))
	child.Box.PlaceMarginBox(at.X, at.Y)
}
