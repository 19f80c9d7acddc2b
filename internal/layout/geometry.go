// internal/layout/geometry.go
package layout

import "math"

// Axis represents a layout direction.
type Axis int

const (
	// Horizontal axis for layout calculations.
	Horizontal Axis = iota
	// Vertical axis for layout calculations.
	Vertical
)

// Cross returns the perpendicular axis.
func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// ExpandedBy returns a new rectangle expanded by the edge sizes.
func (r Rect) ExpandedBy(e Edges) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

// Translate returns the rectangle moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Union returns the smallest rectangle covering both.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.X+r.Width, o.X+o.Width)
	y1 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Start returns the position along axis.
func (r Rect) Start(axis Axis) float64 {
	if axis == Horizontal {
		return r.X
	}
	return r.Y
}

// Size returns the extent along axis.
func (r Rect) Size(axis Axis) float64 {
	if axis == Horizontal {
		return r.Width
	}
	return r.Height
}

// SetStart is an axis-agnostic setter for the position.
func (r *Rect) SetStart(axis Axis, pos float64) {
	if axis == Horizontal {
		r.X = pos
	} else {
		r.Y = pos
	}
}

// SetSize is an axis-agnostic setter for the extent.
func (r *Rect) SetSize(axis Axis, size float64) {
	if axis == Horizontal {
		r.Width = size
	} else {
		r.Height = size
	}
}

// Edges holds the four sides of a padding, border or margin area.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Start returns the leading edge along axis.
func (e Edges) Start(axis Axis) float64 {
	if axis == Horizontal {
		return e.Left
	}
	return e.Top
}

// End returns the trailing edge along axis.
func (e Edges) End(axis Axis) float64 {
	if axis == Horizontal {
		return e.Right
	}
	return e.Bottom
}

// Sum returns Start+End along axis.
func (e Edges) Sum(axis Axis) float64 {
	return e.Start(axis) + e.End(axis)
}

// Dimensions defines the geometry of a layout box. Content.X and Content.Y
// are relative to the content origin of the parent box.
type Dimensions struct {
	Content Rect

	Padding Edges
	Border  Edges
	Margin  Edges
}

// MarginBox returns the rectangle enclosing the margin area.
func (d Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// BorderBox returns the rectangle enclosing the border area.
func (d Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// PaddingBox returns the rectangle enclosing the padding area.
func (d Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

// Static returns the total size of margins, borders and paddings on axis.
func (d Dimensions) Static(axis Axis) float64 {
	return d.Margin.Sum(axis) + d.Border.Sum(axis) + d.Padding.Sum(axis)
}

// Frame returns the size of borders and paddings on axis.
func (d Dimensions) Frame(axis Axis) float64 {
	return d.Border.Sum(axis) + d.Padding.Sum(axis)
}

// OuterSize returns the margin box extent along axis.
func (d Dimensions) OuterSize(axis Axis) float64 {
	return d.Content.Size(axis) + d.Static(axis)
}

// BorderSize returns the border box extent along axis.
func (d Dimensions) BorderSize(axis Axis) float64 {
	return d.Content.Size(axis) + d.Frame(axis)
}

// PlaceMarginBox moves the box so that its margin box starts at (x, y).
func (d *Dimensions) PlaceMarginBox(x, y float64) {
	d.Content.X = x + d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = y + d.Margin.Top + d.Border.Top + d.Padding.Top
}

// PlaceBorderBox moves the box so that its border box starts at (x, y).
func (d *Dimensions) PlaceBorderBox(x, y float64) {
	d.Content.X = x + d.Border.Left + d.Padding.Left
	d.Content.Y = y + d.Border.Top + d.Padding.Top
}

// Point is a position in CSS pixels.
type Point struct {
	X, Y float64
}

// nonNeg clamps v to zero and maps NaN and infinities to zero.
func nonNeg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// finite maps NaN and infinities to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
