// internal/layout/context.go
package layout

import (
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextMeasurer returns the advance width of text set in font, in CSS
// pixels. Implementations must be safe for concurrent use when one
// Engine serves several goroutines.
type TextMeasurer interface {
	MeasureText(text string, font FontSpec) float64
}

// MeasureFunc adapts a plain function to TextMeasurer.
type MeasureFunc func(text string, font FontSpec) float64

// MeasureText implements TextMeasurer.
func (f MeasureFunc) MeasureText(text string, font FontSpec) float64 { return f(text, font) }

// Context is the immutable per-pass environment. It is created by
// Engine.Compute and shared by pointer with every layout routine.
type Context struct {
	ViewportW float64
	ViewportH float64
	Measurer  TextMeasurer
	Logger    *zap.Logger
	MaxDepth  int
	PassID    string

	charRatio float64
	monoRatio float64
}

// Measure returns the width of text in font, falling back to a
// per-character estimate without a measurer.
func (c *Context) Measure(text string, font FontSpec) float64 {
	if text == "" {
		return 0
	}
	if c.Measurer != nil {
		return nonNeg(c.Measurer.MeasureText(text, font))
	}
	return FallbackWidth(text, font, c.charRatio, c.monoRatio)
}

// FallbackWidth estimates text width as runes x (ratio x size +
// letter-spacing), using monoRatio for monospace families.
func FallbackWidth(text string, font FontSpec, ratio, monoRatio float64) float64 {
	size := font.Size
	if size <= 0 {
		size = 16
	}
	r := ratio
	if font.Monospace() {
		r = monoRatio
	}
	n := float64(utf8.RuneCountInString(text))
	return nonNeg(n * (r*size + font.LetterSpacing))
}
