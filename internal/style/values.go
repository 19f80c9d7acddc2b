// internal/style/values.go
package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

const (
	// BaseFontSize is the root font size in pixels.
	BaseFontSize = 16.0
)

// units carries what relative units resolve against for one element.
type units struct {
	fontSize     float64
	rootFontSize float64
	viewportW    float64
	viewportH    float64
}

// term is a linear combination of the length units layout keeps
// symbolic, plus a scalar for unitless numbers.
type term struct {
	px, pct, vw, vh float64
	scalar          float64
	unitless        bool
}

func (t term) scale(f float64) term {
	return term{px: t.px * f, pct: t.pct * f, vw: t.vw * f, vh: t.vh * f, scalar: t.scalar * f, unitless: t.unitless}
}

func (t term) add(o term, sign float64) (term, error) {
	if t.unitless != o.unitless {
		return term{}, fmt.Errorf("cannot add a number to a length")
	}
	o = o.scale(sign)
	return term{px: t.px + o.px, pct: t.pct + o.pct, vw: t.vw + o.vw, vh: t.vh + o.vh, scalar: t.scalar + o.scalar, unitless: t.unitless}, nil
}

func (t term) length() layout.Length {
	if t.unitless {
		return layout.Px(t.scalar)
	}
	return layout.Length{Kind: layout.LengthFixed, Px: t.px, Percent: t.pct, Vw: t.vw, Vh: t.vh}
}

var (
	calcLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Number", Pattern: `(?:\d+\.?\d*|\.\d+)(?:%|[a-zA-Z]+)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_-]*`},
		{Name: "Punct", Pattern: `[-+*/()]`},
	})

	calcParser = participle.MustBuild[calcSum](
		participle.Lexer(calcLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
	)
)

type calcSum struct {
	Head *calcProduct `parser:"@@"`
	Tail []*calcAddOp `parser:"@@*"`
}

type calcAddOp struct {
	Op   string       `parser:"@( '+' | '-' )"`
	Term *calcProduct `parser:"@@"`
}

type calcProduct struct {
	Head *calcFactor  `parser:"@@"`
	Tail []*calcMulOp `parser:"@@*"`
}

type calcMulOp struct {
	Op     string      `parser:"@( '*' | '/' )"`
	Factor *calcFactor `parser:"@@"`
}

type calcFactor struct {
	Number string      `parser:"  @Number"`
	Neg    *calcFactor `parser:"| '-' @@"`
	Group  *calcSum    `parser:"| 'calc'? '(' @@ ')'"`
}

func (s *calcSum) eval(u units) (term, error) {
	acc, err := s.Head.eval(u)
	if err != nil {
		return term{}, err
	}
	for _, op := range s.Tail {
		v, err := op.Term.eval(u)
		if err != nil {
			return term{}, err
		}
		sign := 1.0
		if op.Op == "-" {
			sign = -1
		}
		if acc, err = acc.add(v, sign); err != nil {
			return term{}, err
		}
	}
	return acc, nil
}

func (p *calcProduct) eval(u units) (term, error) {
	acc, err := p.Head.eval(u)
	if err != nil {
		return term{}, err
	}
	for _, op := range p.Tail {
		v, err := op.Factor.eval(u)
		if err != nil {
			return term{}, err
		}
		switch {
		case op.Op == "/" && (!v.unitless || v.scalar == 0):
			return term{}, fmt.Errorf("division by a length or zero")
		case op.Op == "/":
			acc = acc.scale(1 / v.scalar)
		case v.unitless:
			acc = acc.scale(v.scalar)
		case acc.unitless:
			acc = v.scale(acc.scalar)
		default:
			return term{}, fmt.Errorf("cannot multiply two lengths")
		}
	}
	return acc, nil
}

func (f *calcFactor) eval(u units) (term, error) {
	switch {
	case f.Neg != nil:
		v, err := f.Neg.eval(u)
		return v.scale(-1), err
	case f.Group != nil:
		return f.Group.eval(u)
	}
	return u.dimension(f.Number)
}

// absoluteUnits maps absolute length units to pixels.
var absoluteUnits = map[string]float64{
	"px": 1,
	"pt": 4.0 / 3,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
	"q":  96 / 101.6,
}

// dimension converts a number with an optional unit.
func (u units) dimension(raw string) (term, error) {
	i := len(raw)
	for i > 0 && (raw[i-1] < '0' || raw[i-1] > '9') && raw[i-1] != '.' {
		i--
	}
	v, err := strconv.ParseFloat(raw[:i], 64)
	if err != nil {
		return term{}, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	unit := strings.ToLower(raw[i:])
	if f, ok := absoluteUnits[unit]; ok {
		return term{px: v * f}, nil
	}
	switch unit {
	case "":
		return term{scalar: v, unitless: true}, nil
	case "%":
		return term{pct: v}, nil
	case "em":
		return term{px: v * u.fontSize}, nil
	case "rem":
		return term{px: v * u.rootFontSize}, nil
	case "ex", "ch":
		return term{px: v * u.fontSize / 2}, nil
	case "vw":
		return term{vw: v}, nil
	case "vh":
		return term{vh: v}, nil
	case "vmin":
		return term{px: v * math.Min(u.viewportW, u.viewportH) / 100}, nil
	case "vmax":
		return term{px: v * math.Max(u.viewportW, u.viewportH) / 100}, nil
	}
	return term{}, fmt.Errorf("unknown unit %q", unit)
}

// parseLength parses a length, percentage, calc() expression or sizing
// keyword. Unitless numbers are taken as pixels.
func (u units) parseLength(value string) (layout.Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "auto", "":
		return layout.Auto, nil
	case "none":
		return layout.None, nil
	case "min-content":
		return layout.MinContent, nil
	case "max-content":
		return layout.MaxContent, nil
	case "fit-content":
		return layout.FitContent, nil
	case "-webkit-fill-available", "stretch":
		return layout.Auto, nil
	}
	expr, err := calcParser.ParseString("", v)
	if err != nil {
		return layout.Auto, fmt.Errorf("invalid length %q: %w", value, err)
	}
	t, err := expr.eval(u)
	if err != nil {
		return layout.Auto, fmt.Errorf("invalid length %q: %w", value, err)
	}
	return t.length(), nil
}

// pixels resolves a length that may not depend on a percentage basis,
// such as border widths and spacing.
func (u units) pixels(value string) (float64, bool) {
	l, err := u.parseLength(value)
	if err != nil || !l.IsFixed() || l.Percent != 0 {
		return 0, false
	}
	return l.Px + l.Vw*u.viewportW/100 + l.Vh*u.viewportH/100, true
}

// borderWidthKeywords maps the named border widths.
var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

func (u units) borderWidth(value string) float64 {
	if w, ok := borderWidthKeywords[strings.ToLower(value)]; ok {
		return w
	}
	w, _ := u.pixels(value)
	return math.Max(w, 0)
}

// fontSizeKeywords maps absolute font-size keywords to pixels.
var fontSizeKeywords = map[string]float64{
	"xx-small":  9,
	"x-small":   10,
	"small":     13,
	"medium":    16,
	"large":     18,
	"x-large":   24,
	"xx-large":  32,
	"xxx-large": 48,
}

// resolveFontSize resolves a font-size value against the parent's size.
func resolveFontSize(value string, parent, root, vw, vh float64) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	if px, ok := fontSizeKeywords[v]; ok {
		return px
	}
	switch v {
	case "smaller":
		return parent / 1.2
	case "larger":
		return parent * 1.2
	}
	// em and percentages refer to the parent's font size here.
	u := units{fontSize: parent, rootFontSize: root, viewportW: vw, viewportH: vh}
	l, err := u.parseLength(v)
	if err != nil || !l.IsFixed() {
		return parent
	}
	size := l.Px + l.Percent*parent/100 + l.Vw*vw/100 + l.Vh*vh/100
	if size < 0 || math.IsNaN(size) {
		return parent
	}
	return size
}

// lineHeight returns the line-height as a multiple of the font size;
// zero means normal.
func (u units) lineHeight(value string) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "normal" || v == "" || u.fontSize <= 0 {
		return 0
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return math.Max(f, 0)
	}
	l, err := u.parseLength(v)
	if err != nil || !l.IsFixed() {
		return 0
	}
	px := l.Px + l.Percent*u.fontSize/100 + l.Vw*u.viewportW/100 + l.Vh*u.viewportH/100
	return math.Max(px/u.fontSize, 0)
}

// parseNumber parses a plain number, returning fallback on failure.
func parseNumber(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

// parseInt parses a positive integer, returning fallback on failure.
func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// parseAspectRatio accepts "16 / 9", "1.5" and "auto 4/3".
func parseAspectRatio(value string) float64 {
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "auto"))
	if w, h, ok := strings.Cut(v, "/"); ok {
		num, den := parseNumber(w, 0), parseNumber(h, 0)
		if num > 0 && den > 0 {
			return num / den
		}
		return 0
	}
	return math.Max(parseNumber(v, 0), 0)
}
