// internal/gridsyntax/placement.go
package gridsyntax

import (
	"fmt"
	"strings"
)

// Line is one side of a grid placement.
type Line struct {
	Auto bool
	// Span is positive for span N or span name.
	Span int
	// Index is a 1-based line number, negative counting from the end; zero
	// means no number was given.
	Index int
	Name  string
}

// IsAuto reports whether the line does not pin a position.
func (l Line) IsAuto() bool { return l.Auto || (l.Span > 0) }

// AutoLine is the placement of an unset property.
var AutoLine = Line{Auto: true}

// Placement is a start/end pair for one axis.
type Placement struct {
	Start Line
	End   Line
}

// ParsePlacement parses a grid-row or grid-column value. A single custom
// ident applies to both sides; any other single value leaves the end auto.
func ParsePlacement(src string) (Placement, error) {
	lines, err := parseLines(src)
	if err != nil {
		return Placement{Start: AutoLine, End: AutoLine}, err
	}
	if len(lines) > 2 {
		return Placement{Start: AutoLine, End: AutoLine}, fmt.Errorf("parse placement %q: too many lines", src)
	}
	return placementOf(lines, 0), nil
}

// Area is a grid-area value: either a single area name or up to four
// lines.
type Area struct {
	Row    Placement
	Column Placement
}

// ParseArea parses a grid-area value in the order row-start / column-start
// / row-end / column-end. Omitted custom-ident sides copy the opposite
// side; everything else defaults to auto.
func ParseArea(src string) (Area, error) {
	lines, err := parseLines(src)
	if err != nil {
		return Area{Row: Placement{AutoLine, AutoLine}, Column: Placement{AutoLine, AutoLine}}, err
	}
	if len(lines) > 4 {
		return Area{Row: Placement{AutoLine, AutoLine}, Column: Placement{AutoLine, AutoLine}}, fmt.Errorf("parse area %q: too many lines", src)
	}
	get := func(i, fallback int) Line {
		if i < len(lines) {
			return lines[i]
		}
		if fallback >= 0 && fallback < len(lines) && isIdent(lines[fallback]) {
			return lines[fallback]
		}
		return AutoLine
	}
	colStart := get(1, 0)
	colEnd := get(3, 1)
	if len(lines) < 2 && isIdent(colStart) {
		colEnd = colStart
	}
	return Area{
		Row:    Placement{Start: get(0, -1), End: get(2, 0)},
		Column: Placement{Start: colStart, End: colEnd},
	}, nil
}

func placementOf(lines []Line, from int) Placement {
	pl := Placement{Start: AutoLine, End: AutoLine}
	if from < len(lines) {
		pl.Start = lines[from]
	}
	switch {
	case from+1 < len(lines):
		pl.End = lines[from+1]
	case isIdent(pl.Start):
		pl.End = pl.Start
	}
	return pl
}

func isIdent(l Line) bool { return l.Name != "" && l.Index == 0 && l.Span == 0 && !l.Auto }

func parseLines(src string) ([]Line, error) {
	if strings.TrimSpace(src) == "" {
		return []Line{AutoLine}, nil
	}
	ast, err := placementParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse placement %q: %w", src, err)
	}
	out := make([]Line, 0, len(ast.Lines))
	for _, l := range ast.Lines {
		switch {
		case l.Auto:
			out = append(out, AutoLine)
		case l.Span != nil:
			line := Line{Span: 1, Name: l.Span.Name}
			if n := l.Span.number(); n != nil {
				if *n < 1 {
					return nil, fmt.Errorf("parse placement %q: span must be positive", src)
				}
				line.Span = *n
			}
			out = append(out, line)
		default:
			line := Line{Name: l.Ref.Name}
			if n := l.Ref.number(); n != nil {
				if *n == 0 {
					return nil, fmt.Errorf("parse placement %q: line 0 is invalid", src)
				}
				line.Index = *n
			}
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *lineRef) number() *int {
	d := r.Index
	if d == nil {
		d = r.After
	}
	if d == nil {
		return nil
	}
	n := int(d.Value)
	return &n
}
