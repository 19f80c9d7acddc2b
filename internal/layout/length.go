// internal/layout/length.go
package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LengthKind tells how a Length participates in sizing.
type LengthKind uint8

const (
	// LengthAuto lets the formatting context decide.
	LengthAuto LengthKind = iota
	// LengthFixed is a linear combination of px, percent and viewport units.
	LengthFixed
	// LengthMinContent sizes to the narrowest unbreakable content.
	LengthMinContent
	// LengthMaxContent sizes to the content laid out without wrapping.
	LengthMaxContent
	// LengthFitContent clamps the available size between min and max content.
	LengthFitContent
	// LengthNone disables a max-width or max-height constraint.
	LengthNone
)

// Length is a symbolic CSS length. A Fixed length is the linear calc
// expression Px + Percent% + Vw vw + Vh vh; em and rem units are resolved
// to Px by the style resolver before layout.
type Length struct {
	Kind    LengthKind
	Px      float64
	Percent float64
	Vw      float64
	Vh      float64
}

// Auto is the zero Length.
var Auto = Length{}

// None is the "no constraint" value for max-width and max-height.
var None = Length{Kind: LengthNone}

// Px returns a fixed pixel length.
func Px(v float64) Length { return Length{Kind: LengthFixed, Px: v} }

// Pct returns a percentage length; 50 means 50%.
func Pct(p float64) Length { return Length{Kind: LengthFixed, Percent: p} }

// Vw returns a length in viewport-width units.
func Vw(v float64) Length { return Length{Kind: LengthFixed, Vw: v} }

// Vh returns a length in viewport-height units.
func Vh(v float64) Length { return Length{Kind: LengthFixed, Vh: v} }

// Calc returns the fixed length px + pct%.
func Calc(px, pct float64) Length { return Length{Kind: LengthFixed, Px: px, Percent: pct} }

// Keyword lengths.
var (
	MinContent = Length{Kind: LengthMinContent}
	MaxContent = Length{Kind: LengthMaxContent}
	FitContent = Length{Kind: LengthFitContent}
)

// IsAuto reports whether l is auto.
func (l Length) IsAuto() bool { return l.Kind == LengthAuto }

// IsFixed reports whether l is a calc expression.
func (l Length) IsFixed() bool { return l.Kind == LengthFixed }

// IsIntrinsic reports whether l is one of the content-sizing keywords.
func (l Length) IsIntrinsic() bool {
	return l.Kind == LengthMinContent || l.Kind == LengthMaxContent || l.Kind == LengthFitContent
}

// HasPercent reports whether l depends on its percentage basis.
func (l Length) HasPercent() bool { return l.Kind == LengthFixed && l.Percent != 0 }

// Add returns the sum of two fixed lengths. Non-fixed operands yield auto.
func (l Length) Add(o Length) Length {
	if l.Kind != LengthFixed || o.Kind != LengthFixed {
		return Auto
	}
	return Length{Kind: LengthFixed, Px: l.Px + o.Px, Percent: l.Percent + o.Percent, Vw: l.Vw + o.Vw, Vh: l.Vh + o.Vh}
}

// Scale multiplies every term of a fixed length.
func (l Length) Scale(f float64) Length {
	if l.Kind != LengthFixed {
		return l
	}
	return Length{Kind: LengthFixed, Px: l.Px * f, Percent: l.Percent * f, Vw: l.Vw * f, Vh: l.Vh * f}
}

func (l Length) String() string {
	switch l.Kind {
	case LengthAuto:
		return "auto"
	case LengthMinContent:
		return "min-content"
	case LengthMaxContent:
		return "max-content"
	case LengthFitContent:
		return "fit-content"
	case LengthNone:
		return "none"
	}
	var terms []string
	if l.Px != 0 {
		terms = append(terms, strconv.FormatFloat(l.Px, 'f', -1, 64)+"px")
	}
	if l.Percent != 0 {
		terms = append(terms, strconv.FormatFloat(l.Percent, 'f', -1, 64)+"%")
	}
	if l.Vw != 0 {
		terms = append(terms, strconv.FormatFloat(l.Vw, 'f', -1, 64)+"vw")
	}
	if l.Vh != 0 {
		terms = append(terms, strconv.FormatFloat(l.Vh, 'f', -1, 64)+"vh")
	}
	switch len(terms) {
	case 0:
		return "0px"
	case 1:
		return terms[0]
	}
	return fmt.Sprintf("calc(%s)", strings.Join(terms, " + "))
}

// EdgeLengths holds per-side lengths for margin, padding and inset.
type EdgeLengths struct {
	Top, Right, Bottom, Left Length
}

// UniformEdges returns EdgeLengths with the same value on every side.
func UniformEdges(l Length) EdgeLengths {
	return EdgeLengths{Top: l, Right: l, Bottom: l, Left: l}
}

// Resolve resolves a fixed length against basis. The result is not ok
// when l is not fixed, or when it has a percentage part and the basis is
// not definite; callers then fall back to auto behaviour.
func (c *Context) Resolve(l Length, basis float64, definite bool) (float64, bool) {
	if l.Kind != LengthFixed {
		return 0, false
	}
	v := l.Px + l.Vw*c.ViewportW/100 + l.Vh*c.ViewportH/100
	if l.Percent != 0 {
		if !definite || math.IsNaN(basis) || math.IsInf(basis, 0) {
			return 0, false
		}
		v += l.Percent * basis / 100
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// resolveOr resolves l against a definite basis, returning fallback when
// it cannot be resolved.
func (c *Context) resolveOr(l Length, basis, fallback float64) float64 {
	if v, ok := c.Resolve(l, basis, true); ok {
		return v
	}
	return fallback
}

// resolveEdges resolves margin or padding lengths; all four sides use the
// containing block width. Auto sides come back as zero with the matching
// flag set.
func (c *Context) resolveEdges(e EdgeLengths, basis float64) (Edges, [4]bool) {
	var auto [4]bool
	side := func(l Length, i int) float64 {
		if l.Kind == LengthAuto {
			auto[i] = true
			return 0
		}
		return c.resolveOr(l, basis, 0)
	}
	return Edges{
		Top:    side(e.Top, 0),
		Right:  side(e.Right, 1),
		Bottom: side(e.Bottom, 2),
		Left:   side(e.Left, 3),
	}, auto
}

// resolveInset resolves an inset; NaN means auto.
func (c *Context) resolveInset(l Length, basis float64) float64 {
	if v, ok := c.Resolve(l, basis, true); ok {
		return v
	}
	return math.NaN()
}
