// internal/gridsyntax/grammar.go
package gridsyntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	gridLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "String", Pattern: `"[^"]*"|'[^']*'`},
		{Name: "Number", Pattern: `[-+]?(?:\d+\.\d*|\.\d+|\d+)(?:px|fr|%|em|rem|vw|vh)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[\[\](),/]`},
	})

	trackParser = participle.MustBuild[trackListAST](
		participle.Lexer(gridLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
	)
	placementParser = participle.MustBuild[placementAST](
		participle.Lexer(gridLexer),
		participle.Elide("Whitespace"),
	)
	areasParser = participle.MustBuild[areasAST](
		participle.Lexer(gridLexer),
		participle.Elide("Whitespace"),
	)
)

// trackListAST is a grid-template-rows/columns value.
type trackListAST struct {
	None    bool          `parser:"  @'none'"`
	Entries []*trackEntry `parser:"| @@*"`
}

type trackEntry struct {
	Names  *lineNamesAST `parser:"  @@"`
	Repeat *repeatAST    `parser:"| @@"`
	Track  *trackAST     `parser:"| @@"`
}

type lineNamesAST struct {
	Names []string `parser:"'[' @Ident* ']'"`
}

type repeatAST struct {
	Count   *dimension    `parser:"'repeat' '(' ( @Number"`
	AutoFit bool          `parser:"        | @'auto-fit'"`
	Auto    bool          `parser:"        | @'auto-fill' ) ','"`
	Entries []*trackEntry `parser:"@@+ ')'"`
}

type trackAST struct {
	MinMax     *minMaxAST `parser:"  'minmax' '(' @@ ')'"`
	FitContent *dimension `parser:"| 'fit-content' '(' @Number ')'"`
	Size       *sizeAST   `parser:"| @@"`
}

type minMaxAST struct {
	Min *sizeAST `parser:"@@ ','"`
	Max *sizeAST `parser:"@@"`
}

type sizeAST struct {
	Dim     *dimension `parser:"  @Number"`
	Keyword string     `parser:"| @( 'auto' | 'min-content' | 'max-content' )"`
}

// placementAST is a grid-row/grid-column/grid-area value: up to four
// lines separated by slashes.
type placementAST struct {
	Lines []*lineAST `parser:"@@ ( '/' @@ )*"`
}

type lineAST struct {
	Auto bool     `parser:"  @'auto'"`
	Span *lineRef `parser:"| 'span' @@"`
	Ref  *lineRef `parser:"| @@"`
}

// lineRef is an integer, a line name, or both in either order.
type lineRef struct {
	Index *dimension `parser:"( @Number"`
	Name  string     `parser:"  @Ident? | @Ident"`
	After *dimension `parser:"  @Number? )"`
}

// areasAST is a grid-template-areas value.
type areasAST struct {
	None bool     `parser:"  @'none'"`
	Rows []string `parser:"| @String+"`
}

// dimension is a number with an optional unit.
type dimension struct {
	Value float64
	Unit  string
}

// Capture implements participle.Capture.
func (d *dimension) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("empty dimension")
	}
	raw := values[0]
	i := len(raw)
	for i > 0 && (raw[i-1] < '0' || raw[i-1] > '9') && raw[i-1] != '.' {
		i--
	}
	v, err := strconv.ParseFloat(raw[:i], 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", raw, err)
	}
	d.Value = v
	d.Unit = strings.ToLower(raw[i:])
	return nil
}
