// internal/style/values_test.go
package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

func TestParseLength(t *testing.T) {
	u := units{fontSize: 10, rootFontSize: 16, viewportW: 1000, viewportH: 500}
	tests := []struct {
		input string
		want  layout.Length
	}{
		{"auto", layout.Auto},
		{"none", layout.None},
		{"min-content", layout.MinContent},
		{"fit-content", layout.FitContent},
		{"12px", layout.Px(12)},
		{"12", layout.Px(12)},
		{"0", layout.Px(0)},
		{"1.5em", layout.Px(15)},
		{"2rem", layout.Px(32)},
		{"1in", layout.Px(96)},
		{"12pt", layout.Px(16)},
		{"50%", layout.Pct(50)},
		{"10vw", layout.Vw(10)},
		{"10vmin", layout.Px(50)},
		{"calc(100% - 20px)", layout.Calc(-20, 100)},
		{"calc(50% + 2em - 10vh)", layout.Length{Kind: layout.LengthFixed, Px: 20, Percent: 50, Vh: -10}},
		{"calc(2 * (10px + 5%))", layout.Calc(20, 10)},
		{"calc(100px / 4)", layout.Px(25)},
		{"CALC(-1 * 8px)", layout.Px(-8)},
		{"-4px", layout.Px(-4)},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := u.parseLength(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want.Kind, got.Kind)
			assert.InDelta(t, tc.want.Px, got.Px, 1e-9)
			assert.InDelta(t, tc.want.Percent, got.Percent, 1e-9)
			assert.InDelta(t, tc.want.Vw, got.Vw, 1e-9)
			assert.InDelta(t, tc.want.Vh, got.Vh, 1e-9)
		})
	}
}

func TestParseLength_Invalid(t *testing.T) {
	u := units{fontSize: 16, rootFontSize: 16}
	for _, input := range []string{"10furlongs", "calc(10px * 10px)", "calc(10px / 0)", "calc(1 + 10px)", "red", "calc(10px"} {
		_, err := u.parseLength(input)
		assert.Error(t, err, input)
	}
}

func TestResolveFontSize(t *testing.T) {
	assert.InDelta(t, 24.0, resolveFontSize("1.5em", 16, 16, 0, 0), 1e-9)
	assert.InDelta(t, 8.0, resolveFontSize("50%", 16, 16, 0, 0), 1e-9)
	assert.InDelta(t, 32.0, resolveFontSize("xx-large", 16, 16, 0, 0), 1e-9)
	assert.InDelta(t, 20.0, resolveFontSize("2vw", 16, 16, 1000, 0), 1e-9)
	assert.InDelta(t, 16.0, resolveFontSize("bogus", 16, 16, 0, 0), 1e-9)
}

func TestLineHeightAndAspectRatio(t *testing.T) {
	u := units{fontSize: 20, rootFontSize: 16}
	assert.Zero(t, u.lineHeight("normal"))
	assert.InDelta(t, 1.5, u.lineHeight("1.5"), 1e-9)
	assert.InDelta(t, 1.5, u.lineHeight("30px"), 1e-9)
	assert.InDelta(t, 2.0, u.lineHeight("200%"), 1e-9)

	assert.InDelta(t, 16.0/9, parseAspectRatio("16 / 9"), 1e-9)
	assert.InDelta(t, 1.5, parseAspectRatio("auto 1.5"), 1e-9)
	assert.Zero(t, parseAspectRatio("1/0"))
}

func TestLayoutStyle(t *testing.T) {
	e := setupEngine(t, `
		.card {
			display: flex; flex-flow: column wrap; gap: 4px 8px;
			width: calc(100% - 2em); max-width: 600px; padding: 1em 5%;
			border: 3px solid; border-right: none; box-sizing: border-box;
			position: relative; top: 10px; overflow: hidden auto;
			justify-content: space-between; align-items: safe center;
			font: italic bold 12px/2 "Fira Mono", monospace; letter-spacing: 1px;
		}
		.grid { display: grid; grid-template-columns: repeat(2, 1fr); grid-template-areas: none;
			grid-column-start: 2; grid-column-end: span 2; grid-auto-flow: column dense }
		.float { float: right; shape-outside: circle(40% at left 20px); shape-margin: 4px }
	`)
	e.SetViewport(800, 600)
	root := buildTree(t, e, `<div class="card" id="card"></div><div class="grid" id="grid"></div><img class="float" id="float" width="120" height="60">`)

	s := e.LayoutStyle(mustFind(t, root, "card"))
	assert.Equal(t, layout.DisplayFlex, s.Display)
	assert.Equal(t, layout.FlexColumn, s.FlexDirection)
	assert.Equal(t, layout.FlexWrapOn, s.FlexWrap)
	assert.Equal(t, layout.Px(4), s.RowGap)
	assert.Equal(t, layout.Px(8), s.ColumnGap)
	assert.Equal(t, layout.Calc(-24, 100), s.Width)
	assert.Equal(t, layout.Px(600), s.MaxWidth)
	assert.Equal(t, layout.Px(12), s.Padding.Top)
	assert.Equal(t, layout.Pct(5), s.Padding.Left)
	assert.Equal(t, layout.BorderSide{Width: 3, Style: layout.BorderSolid}, s.Border.Top)
	assert.Zero(t, s.Border.Right.Used())
	assert.Equal(t, layout.BorderBox, s.BoxSizing)
	assert.Equal(t, layout.PositionRelative, s.Position)
	assert.Equal(t, layout.Px(10), s.Inset.Top)
	assert.True(t, s.Inset.Left.IsAuto())
	assert.Equal(t, layout.OverflowHidden, s.Overflow)
	assert.Equal(t, layout.AlignSpaceBetween, s.JustifyContent)
	assert.Equal(t, layout.AlignCenter, s.AlignItems)
	assert.InDelta(t, 12.0, s.Font.Size, 1e-9)
	assert.Equal(t, 700, s.Font.Weight)
	assert.True(t, s.Font.Italic)
	assert.True(t, s.Font.Monospace())
	assert.InDelta(t, 2.0, s.LineHeight, 1e-9)
	assert.InDelta(t, 1.0, s.Font.LetterSpacing, 1e-9)

	g := e.LayoutStyle(mustFind(t, root, "grid"))
	assert.Equal(t, layout.DisplayGrid, g.Display)
	assert.Equal(t, "repeat(2, 1fr)", g.GridTemplateColumns)
	assert.Empty(t, g.GridTemplateAreas)
	assert.Equal(t, "2 / span 2", g.GridColumn)
	assert.Equal(t, layout.GridFlowColumnDense, g.GridAutoFlow)

	f := e.LayoutStyle(mustFind(t, root, "float"))
	assert.Equal(t, layout.DisplayInlineBlock, f.Display)
	assert.Equal(t, layout.FloatRight, f.Float)
	assert.Equal(t, 120.0, f.NaturalWidth)
	assert.Equal(t, 60.0, f.NaturalHeight)
	assert.True(t, f.IsReplaced())
	assert.True(t, f.Width.IsAuto(), "replaced size attributes are natural sizes, not styles")
	assert.Equal(t, layout.ShapeCircle, f.ShapeOutside.Kind)
	assert.Equal(t, layout.Pct(40), f.ShapeOutside.RadiusX)
	assert.Equal(t, layout.Pct(0), f.ShapeOutside.CenterX)
	assert.Equal(t, layout.Px(20), f.ShapeOutside.CenterY)
	assert.InDelta(t, 4.0, f.ShapeMargin, 1e-9)
}

func TestLayoutStyle_Tables(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	root := buildTree(t, e, `<table id="t" cellspacing="0" style="border-collapse: collapse; table-layout: fixed">
		<colgroup><col span="2" style="width: 50px"><col></colgroup>
		<tr><td id="c" colspan="2" rowspan="0" valign="top">x</td></tr></table>`)

	ts := e.LayoutStyle(mustFind(t, root, "t"))
	assert.Equal(t, layout.DisplayTable, ts.Display)
	assert.True(t, ts.BorderCollapse)
	assert.Equal(t, layout.TableLayoutFixed, ts.TableLayout)
	assert.Zero(t, ts.BorderSpacingH)
	assert.Equal(t, []layout.Length{layout.Px(50), layout.Px(50), layout.Auto}, ts.ColumnWidths)

	cs := e.LayoutStyle(mustFind(t, root, "c"))
	assert.Equal(t, layout.DisplayTableCell, cs.Display)
	assert.Equal(t, 2, cs.ColSpan)
	assert.Equal(t, 1, cs.RowSpan)
	assert.Equal(t, layout.AlignTop, cs.VerticalAlign)
	assert.Equal(t, layout.Px(1), cs.Padding.Left)
}
