// internal/gridsyntax/areas.go
package gridsyntax

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// AreaRect is a named area as 0-based line indices, end exclusive.
type AreaRect struct {
	RowStart, RowEnd int
	ColStart, ColEnd int
}

// Areas is a parsed grid-template-areas value.
type Areas struct {
	Rows    int
	Columns int
	Named   map[string]AreaRect
}

// ParseAreas parses grid-template-areas. Every row must have the same
// number of cells and every name must form a rectangle; a dot sequence
// marks an empty cell.
func ParseAreas(src string) (Areas, error) {
	out := Areas{Named: map[string]AreaRect{}}
	if strings.TrimSpace(src) == "" {
		return out, nil
	}
	ast, err := areasParser.ParseString("", src)
	if err != nil {
		return out, fmt.Errorf("parse areas %q: %w", src, err)
	}
	if ast.None {
		return out, nil
	}
	seen := map[string]int{}
	for r, raw := range ast.Rows {
		cells := strings.Fields(raw[1 : len(raw)-1])
		if r == 0 {
			out.Columns = len(cells)
		} else if len(cells) != out.Columns {
			return Areas{Named: map[string]AreaRect{}}, fmt.Errorf("parse areas %q: row %d has %d cells, want %d", src, r+1, len(cells), out.Columns)
		}
		for c, name := range cells {
			if strings.Trim(name, ".") == "" {
				continue
			}
			seen[name]++
			a, ok := out.Named[name]
			if !ok {
				out.Named[name] = AreaRect{RowStart: r, RowEnd: r + 1, ColStart: c, ColEnd: c + 1}
				continue
			}
			a.RowStart = min(a.RowStart, r)
			a.RowEnd = max(a.RowEnd, r+1)
			a.ColStart = min(a.ColStart, c)
			a.ColEnd = max(a.ColEnd, c+1)
			out.Named[name] = a
		}
	}
	out.Rows = len(ast.Rows)
	for name, a := range out.Named {
		if (a.RowEnd-a.RowStart)*(a.ColEnd-a.ColStart) != seen[name] {
			return Areas{Named: map[string]AreaRect{}}, fmt.Errorf("parse areas %q: area %q is not a rectangle", src, name)
		}
	}
	return out, nil
}

// LineNames returns the implicit line names an area template defines:
// name-start and name-end on each axis.
func (a Areas) LineNames() (rows, cols [][]string) {
	rows = make([][]string, a.Rows+1)
	cols = make([][]string, a.Columns+1)
	for _, name := range slices.Sorted(maps.Keys(a.Named)) {
		r := a.Named[name]
		rows[r.RowStart] = append(rows[r.RowStart], name+"-start")
		rows[r.RowEnd] = append(rows[r.RowEnd], name+"-end")
		cols[r.ColStart] = append(cols[r.ColStart], name+"-start")
		cols[r.ColEnd] = append(cols[r.ColEnd], name+"-end")
	}
	return rows, cols
}
