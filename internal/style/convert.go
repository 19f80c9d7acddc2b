// internal/style/convert.go
package style

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

var displayValues = map[string]layout.Display{
	"block":              layout.DisplayBlock,
	"inline":             layout.DisplayInline,
	"contents":           layout.DisplayInline,
	"inline-block":       layout.DisplayInlineBlock,
	"list-item":          layout.DisplayListItem,
	"flow-root":          layout.DisplayFlowRoot,
	"run-in":             layout.DisplayBlock,
	"flex":               layout.DisplayFlex,
	"inline-flex":        layout.DisplayInlineFlex,
	"grid":               layout.DisplayGrid,
	"inline-grid":        layout.DisplayInlineGrid,
	"table":              layout.DisplayTable,
	"inline-table":       layout.DisplayInlineTable,
	"table-row-group":    layout.DisplayTableRowGroup,
	"table-header-group": layout.DisplayTableHeaderGroup,
	"table-footer-group": layout.DisplayTableFooterGroup,
	"table-row":          layout.DisplayTableRow,
	"table-cell":         layout.DisplayTableCell,
	"table-caption":      layout.DisplayTableCaption,
	"table-column":       layout.DisplayTableColumn,
	"table-column-group": layout.DisplayTableColumnGroup,
	"none":               layout.DisplayNone,
}

var positionValues = map[string]layout.Position{
	"static":         layout.PositionStatic,
	"relative":       layout.PositionRelative,
	"absolute":       layout.PositionAbsolute,
	"fixed":          layout.PositionFixed,
	"sticky":         layout.PositionSticky,
	"-webkit-sticky": layout.PositionSticky,
}

var floatValues = map[string]layout.FloatSide{
	"left":         layout.FloatLeft,
	"right":        layout.FloatRight,
	"inline-start": layout.FloatLeft,
	"inline-end":   layout.FloatRight,
}

var clearValues = map[string]layout.Clear{
	"left":  layout.ClearLeft,
	"right": layout.ClearRight,
	"both":  layout.ClearBoth,
}

var overflowValues = map[string]layout.Overflow{
	"hidden": layout.OverflowHidden,
	"scroll": layout.OverflowScroll,
	"auto":   layout.OverflowAuto,
	"clip":   layout.OverflowClip,
}

var visibilityValues = map[string]layout.Visibility{
	"hidden":   layout.Hidden,
	"collapse": layout.Collapse,
}

var borderStyleValues = map[string]layout.BorderStyle{
	"hidden": layout.BorderHidden,
	"dotted": layout.BorderDotted,
	"dashed": layout.BorderDashed,
	"solid":  layout.BorderSolid,
	"double": layout.BorderDouble,
	"groove": layout.BorderGroove,
	"ridge":  layout.BorderRidge,
	"inset":  layout.BorderInset,
	"outset": layout.BorderOutset,
}

var textAlignValues = map[string]layout.TextAlign{
	"auto":           layout.TextAlignAuto,
	"start":          layout.TextAlignStart,
	"end":            layout.TextAlignEnd,
	"left":           layout.TextAlignLeft,
	"right":          layout.TextAlignRight,
	"center":         layout.TextAlignCenter,
	"justify":        layout.TextAlignJustify,
	"-webkit-center": layout.TextAlignCenter,
}

var textTransformValues = map[string]layout.TextTransform{
	"uppercase":  layout.TransformUppercase,
	"lowercase":  layout.TransformLowercase,
	"capitalize": layout.TransformCapitalize,
}

var whiteSpaceValues = map[string]layout.WhiteSpace{
	"nowrap":       layout.WhiteSpaceNoWrap,
	"pre":          layout.WhiteSpacePre,
	"pre-wrap":     layout.WhiteSpacePreWrap,
	"pre-line":     layout.WhiteSpacePreLine,
	"break-spaces": layout.WhiteSpaceBreakSpaces,
}

var wordBreakValues = map[string]layout.WordBreak{
	"break-all":  layout.WordBreakBreakAll,
	"keep-all":   layout.WordBreakKeepAll,
	"break-word": layout.WordBreakBreakWord,
}

var overflowWrapValues = map[string]layout.OverflowWrap{
	"break-word": layout.OverflowWrapBreakWord,
	"anywhere":   layout.OverflowWrapAnywhere,
}

var textWrapValues = map[string]layout.TextWrap{
	"nowrap":  layout.TextWrapNoWrap,
	"balance": layout.TextWrapBalance,
	"pretty":  layout.TextWrapPretty,
}

var directionValues = map[string]layout.Direction{
	"rtl":  layout.RTL,
	"auto": layout.DirectionAuto,
}

var verticalAlignValues = map[string]layout.VerticalAlign{
	"top":         layout.AlignTop,
	"middle":      layout.AlignMiddle,
	"bottom":      layout.AlignBottom,
	"text-top":    layout.AlignTextTop,
	"text-bottom": layout.AlignTextBottom,
	"sub":         layout.AlignSub,
	"super":       layout.AlignSuper,
}

var flexDirectionValues = map[string]layout.FlexDirection{
	"row-reverse":    layout.FlexRowReverse,
	"column":         layout.FlexColumn,
	"column-reverse": layout.FlexColumnReverse,
}

var flexWrapValues = map[string]layout.FlexWrap{
	"wrap":         layout.FlexWrapOn,
	"wrap-reverse": layout.FlexWrapReverse,
}

var alignValues = map[string]layout.Align{
	"normal":        layout.AlignNormal,
	"auto":          layout.AlignNormal,
	"start":         layout.AlignStart,
	"self-start":    layout.AlignStart,
	"end":           layout.AlignEnd,
	"self-end":      layout.AlignEnd,
	"flex-start":    layout.AlignFlexStart,
	"flex-end":      layout.AlignFlexEnd,
	"center":        layout.AlignCenter,
	"space-between": layout.AlignSpaceBetween,
	"space-around":  layout.AlignSpaceAround,
	"space-evenly":  layout.AlignSpaceEvenly,
	"stretch":       layout.AlignStretch,
	"baseline":      layout.AlignBaselineItems,
	"left":          layout.AlignLeft,
	"right":         layout.AlignRight,
}

var gridFlowValues = map[string]layout.GridAutoFlow{
	"column":       layout.GridFlowColumn,
	"dense":        layout.GridFlowRowDense,
	"row dense":    layout.GridFlowRowDense,
	"dense row":    layout.GridFlowRowDense,
	"column dense": layout.GridFlowColumnDense,
	"dense column": layout.GridFlowColumnDense,
}

var containValues = map[string]layout.Contain{
	"size":        layout.ContainSize,
	"inline-size": layout.ContainInlineSize,
	"layout":      layout.ContainLayout,
	"paint":       layout.ContainPaint,
	"style":       layout.ContainStyle,
	"strict":      layout.ContainStrict,
	"content":     layout.ContainContent,
}

// lookup maps a keyword through values, keeping def for anything unknown.
func lookup[T any](values map[string]T, value string, def T) T {
	if v, ok := values[strings.ToLower(strings.TrimSpace(value))]; ok {
		return v
	}
	return def
}

// alignValue drops the first/last and safe/unsafe modifiers.
func alignValue(value string, def layout.Align) layout.Align {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, prefix := range []string{"first ", "last ", "safe ", "unsafe ", "legacy "} {
		v = strings.TrimPrefix(v, prefix)
	}
	return lookup(alignValues, v, def)
}

// LayoutStyle converts the computed values of sn into a layout style.
func (e *Engine) LayoutStyle(sn *StyledNode) layout.Style {
	s := layout.DefaultStyle()
	u := units{fontSize: sn.FontSize, rootFontSize: sn.rootSize, viewportW: e.viewportW, viewportH: e.viewportH}
	if u.rootFontSize <= 0 {
		u.rootFontSize = BaseFontSize
	}
	get := func(prop string) (string, bool) {
		v, ok := sn.Computed[prop]
		return strings.TrimSpace(v), ok
	}
	length := func(prop string, def layout.Length) layout.Length {
		v, ok := get(prop)
		if !ok {
			return def
		}
		l, err := u.parseLength(v)
		if err != nil {
			e.logger.Debug("Ignoring invalid length.", zap.String("property", prop), zap.String("value", v), zap.Error(err))
			return def
		}
		return l
	}
	pixels := func(prop string) float64 {
		if v, ok := get(prop); ok {
			if px, ok := u.pixels(v); ok {
				return px
			}
		}
		return 0
	}

	if sn.Node.Type == html.TextNode {
		s.Display = layout.DisplayInline
	} else {
		s.Display = lookup(displayValues, sn.Lookup("display", "inline"), layout.DisplayInline)
	}
	s.Position = lookup(positionValues, sn.Lookup("position", ""), layout.PositionStatic)
	s.Float = lookup(floatValues, sn.Lookup("float", ""), layout.FloatNone)
	s.Clear = lookup(clearValues, sn.Lookup("clear", ""), layout.ClearNone)
	if sn.Lookup("box-sizing", "") == "border-box" {
		s.BoxSizing = layout.BorderBox
	}
	s.Visibility = lookup(visibilityValues, sn.Lookup("visibility", ""), layout.Visible)

	s.Width = length("width", layout.Auto)
	s.Height = length("height", layout.Auto)
	s.MinWidth = length("min-width", layout.Auto)
	s.MinHeight = length("min-height", layout.Auto)
	s.MaxWidth = length("max-width", layout.None)
	s.MaxHeight = length("max-height", layout.None)
	if v, ok := get("aspect-ratio"); ok {
		s.AspectRatio = parseAspectRatio(v)
	}

	edges := func(pattern string, def layout.Length) layout.EdgeLengths {
		side := func(name string) layout.Length { return length(strings.Replace(pattern, "%s", name, 1), def) }
		return layout.EdgeLengths{Top: side("top"), Right: side("right"), Bottom: side("bottom"), Left: side("left")}
	}
	s.Margin = edges("margin-%s", layout.Px(0))
	s.Padding = edges("padding-%s", layout.Px(0))
	s.Inset = edges("%s", layout.Auto)
	border := func(side string) layout.BorderSide {
		return layout.BorderSide{
			Width: u.borderWidth(sn.Lookup("border-"+side+"-width", "medium")),
			Style: lookup(borderStyleValues, sn.Lookup("border-"+side+"-style", ""), layout.BorderNone),
		}
	}
	s.Border = layout.BorderEdges{Top: border("top"), Right: border("right"), Bottom: border("bottom"), Left: border("left")}

	s.Overflow = lookup(overflowValues, sn.Lookup("overflow", ""), layout.OverflowVisible)
	for _, word := range strings.Fields(sn.Lookup("contain", "")) {
		s.Contain |= lookup(containValues, word, 0)
	}
	if v, ok := get("contain-intrinsic-size"); ok {
		var sizes []float64
		for _, f := range strings.Fields(v) {
			if px, ok := u.pixels(f); ok {
				sizes = append(sizes, px)
			}
		}
		switch len(sizes) {
		case 1:
			s.ContainIntrinsicWidth, s.ContainIntrinsicHeight = sizes[0], sizes[0]
		case 2:
			s.ContainIntrinsicWidth, s.ContainIntrinsicHeight = sizes[0], sizes[1]
		}
	}

	s.Font = layout.FontSpec{
		Size:          sn.FontSize,
		Family:        sn.Lookup("font-family", "sans-serif"),
		Weight:        fontWeight(sn.Lookup("font-weight", "normal")),
		Italic:        sn.Lookup("font-style", "") == "italic" || sn.Lookup("font-style", "") == "oblique",
		LetterSpacing: pixels("letter-spacing"),
	}
	s.LineHeight = u.lineHeight(sn.Lookup("line-height", "normal"))
	s.WordSpacing = pixels("word-spacing")
	s.TextAlign = lookup(textAlignValues, sn.Lookup("text-align", "start"), layout.TextAlignStart)
	s.TextAlignLast = lookup(textAlignValues, sn.Lookup("text-align-last", "auto"), layout.TextAlignAuto)
	s.TextIndent = length("text-indent", layout.Px(0))
	s.TextTransform = lookup(textTransformValues, sn.Lookup("text-transform", ""), layout.TransformNone)
	s.WhiteSpace = lookup(whiteSpaceValues, sn.Lookup("white-space", ""), layout.WhiteSpaceNormal)
	s.WordBreak = lookup(wordBreakValues, sn.Lookup("word-break", ""), layout.WordBreakNormal)
	s.OverflowWrap = lookup(overflowWrapValues, sn.Lookup("overflow-wrap", ""), layout.OverflowWrapNormal)
	s.TextWrap = lookup(textWrapValues, sn.Lookup("text-wrap", ""), layout.TextWrapWrap)
	s.TabSize = parseNumber(sn.Lookup("tab-size", "8"), 8)
	s.Direction = lookup(directionValues, sn.Lookup("direction", ""), layout.LTR)
	s.VerticalAlign = lookup(verticalAlignValues, sn.Lookup("vertical-align", ""), layout.AlignBaseline)
	s.LineClamp = parseInt(sn.Lookup("line-clamp", ""), 0)

	s.FlexDirection = lookup(flexDirectionValues, sn.Lookup("flex-direction", ""), layout.FlexRow)
	s.FlexWrap = lookup(flexWrapValues, sn.Lookup("flex-wrap", ""), layout.FlexNoWrap)
	s.FlexGrow = max(parseNumber(sn.Lookup("flex-grow", "0"), 0), 0)
	s.FlexShrink = max(parseNumber(sn.Lookup("flex-shrink", "1"), 1), 0)
	s.FlexBasis = length("flex-basis", layout.Auto)
	if n, err := strconv.Atoi(sn.Lookup("order", "0")); err == nil {
		s.Order = n
	}
	s.JustifyContent = alignValue(sn.Lookup("justify-content", ""), layout.AlignNormal)
	s.AlignItems = alignValue(sn.Lookup("align-items", ""), layout.AlignNormal)
	s.AlignSelf = alignValue(sn.Lookup("align-self", ""), layout.AlignNormal)
	s.AlignContent = alignValue(sn.Lookup("align-content", ""), layout.AlignNormal)
	s.JustifyItems = alignValue(sn.Lookup("justify-items", ""), layout.AlignNormal)
	s.JustifySelf = alignValue(sn.Lookup("justify-self", ""), layout.AlignNormal)
	s.RowGap = gapLength(length("row-gap", layout.Auto))
	s.ColumnGap = gapLength(length("column-gap", layout.Auto))

	s.GridTemplateColumns = noneToEmpty(sn.Lookup("grid-template-columns", ""))
	s.GridTemplateRows = noneToEmpty(sn.Lookup("grid-template-rows", ""))
	s.GridTemplateAreas = noneToEmpty(sn.Lookup("grid-template-areas", ""))
	s.GridAutoColumns = sn.Lookup("grid-auto-columns", "")
	s.GridAutoRows = sn.Lookup("grid-auto-rows", "")
	s.GridAutoFlow = lookup(gridFlowValues, strings.Join(strings.Fields(sn.Lookup("grid-auto-flow", "")), " "), layout.GridFlowRow)
	s.GridColumn = gridLines(sn, "grid-column")
	s.GridRow = gridLines(sn, "grid-row")
	s.GridArea = sn.Lookup("grid-area", "")

	if sn.Lookup("table-layout", "") == "fixed" {
		s.TableLayout = layout.TableLayoutFixed
	}
	s.BorderCollapse = sn.Lookup("border-collapse", "") == "collapse"
	if v, ok := get("border-spacing"); ok {
		h, vv := pair(v)
		s.BorderSpacingH, _ = u.pixels(h)
		s.BorderSpacingV, _ = u.pixels(vv)
	}
	if sn.Lookup("caption-side", "") == "bottom" {
		s.CaptionSide = layout.CaptionBottom
	}
	if v, ok := sn.Attr("colspan"); ok {
		s.ColSpan = min(parseInt(v, 1), 1000)
	}
	if v, ok := sn.Attr("rowspan"); ok {
		s.RowSpan = min(parseInt(v, 1), 65534)
	}
	if s.Display == layout.DisplayTable || s.Display == layout.DisplayInlineTable {
		s.ColumnWidths = e.columnWidths(sn, u)
	}

	s.ColumnCount = parseInt(sn.Lookup("column-count", ""), 0)
	s.ColumnWidth = length("column-width", layout.Auto)
	s.ColumnSpanAll = sn.Lookup("column-span", "") == "all"

	if v, ok := get("shape-outside"); ok {
		s.ShapeOutside = u.parseShape(v)
	}
	s.ShapeMargin = pixels("shape-margin")

	s.NaturalWidth, s.NaturalHeight = naturalSize(sn)
	return s
}

// gapLength maps the normal keyword to zero.
func gapLength(l layout.Length) layout.Length {
	if l.IsAuto() {
		return layout.Px(0)
	}
	return l
}

func noneToEmpty(v string) string {
	if strings.TrimSpace(v) == "none" {
		return ""
	}
	return v
}

// gridLines combines grid-column or grid-row with its -start and -end
// longhands.
func gridLines(sn *StyledNode, prop string) string {
	if v, ok := sn.Computed[prop]; ok {
		return v
	}
	start, hasStart := sn.Computed[prop+"-start"]
	end, hasEnd := sn.Computed[prop+"-end"]
	switch {
	case hasStart && hasEnd:
		return start + " / " + end
	case hasStart:
		return start
	case hasEnd:
		return "auto / " + end
	}
	return ""
}

func fontWeight(v string) int {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "normal", "":
		return 400
	case "bold", "bolder":
		return 700
	case "lighter":
		return 300
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 1 && n <= 1000 {
		return n
	}
	return 400
}

// columnWidths collects <col> widths for a table, repeating each for its
// span.
func (e *Engine) columnWidths(table *StyledNode, u units) []layout.Length {
	var out []layout.Length
	colWidth := func(col *StyledNode) layout.Length {
		cu := u
		cu.fontSize = col.FontSize
		if v, ok := col.Computed["width"]; ok {
			if l, err := cu.parseLength(v); err == nil {
				return l
			}
		}
		return layout.Auto
	}
	for _, child := range table.Children {
		switch child.Tag() {
		case "col":
			out = appendSpan(out, colWidth(child), child)
		case "colgroup":
			cols := 0
			for _, c := range child.Children {
				if c.Tag() == "col" {
					out = appendSpan(out, colWidth(c), c)
					cols++
				}
			}
			if cols == 0 {
				out = appendSpan(out, colWidth(child), child)
			}
		}
	}
	return out
}

func appendSpan(out []layout.Length, l layout.Length, sn *StyledNode) []layout.Length {
	span := 1
	if v, ok := sn.Attr("span"); ok {
		span = min(parseInt(v, 1), 1000)
	}
	for i := 0; i < span; i++ {
		out = append(out, l)
	}
	return out
}

// defaultObjectSize is the natural size of replaced elements without
// width and height attributes.
var defaultObjectSize = map[string][2]float64{
	"canvas": {300, 150},
	"video":  {300, 150},
	"iframe": {300, 150},
	"embed":  {300, 150},
	"object": {300, 150},
	"svg":    {300, 150},
}

// naturalSize reads the natural dimensions of replaced elements from
// their width and height attributes.
func naturalSize(sn *StyledNode) (float64, float64) {
	tag := sn.Tag()
	def, replaced := defaultObjectSize[tag]
	if tag == "img" {
		replaced = true
	}
	if !replaced {
		return 0, 0
	}
	w, h := def[0], def[1]
	if v, ok := sn.Attr("width"); ok {
		w = max(parseNumber(strings.TrimSuffix(v, "px"), w), 0)
	}
	if v, ok := sn.Attr("height"); ok {
		h = max(parseNumber(strings.TrimSuffix(v, "px"), h), 0)
	}
	return w, h
}

// positionKeywords maps shape center keywords to percentages.
var positionKeywords = map[string]float64{"left": 0, "top": 0, "center": 50, "right": 100, "bottom": 100}

// parseShape parses circle(), ellipse() and inset() basic shapes.
func (u units) parseShape(value string) layout.Shape {
	v := strings.ToLower(strings.TrimSpace(value))
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return layout.Shape{}
	}
	name, args := v[:open], strings.TrimSpace(v[open+1:len(v)-1])
	radii, at, _ := strings.Cut(" "+args+" ", " at ")
	var shape layout.Shape

	pos := func(s string) layout.Length {
		if p, ok := positionKeywords[s]; ok {
			return layout.Pct(p)
		}
		l, err := u.parseLength(s)
		if err != nil {
			return layout.Auto
		}
		return l
	}
	if parts := splitValues(strings.TrimSpace(at)); len(parts) > 0 {
		shape.CenterX = pos(parts[0])
		shape.CenterY = layout.Pct(50)
		if len(parts) > 1 {
			shape.CenterY = pos(parts[1])
		}
	}
	radius := func(s string) layout.Length {
		if s == "closest-side" || s == "farthest-side" {
			return layout.Auto
		}
		l, err := u.parseLength(s)
		if err != nil {
			return layout.Auto
		}
		return l
	}

	switch name {
	case "circle":
		shape.Kind = layout.ShapeCircle
		if parts := splitValues(radii); len(parts) > 0 {
			shape.RadiusX = radius(parts[0])
			shape.RadiusY = shape.RadiusX
		}
	case "ellipse":
		shape.Kind = layout.ShapeEllipse
		parts := splitValues(radii)
		if len(parts) > 0 {
			shape.RadiusX = radius(parts[0])
		}
		if len(parts) > 1 {
			shape.RadiusY = radius(parts[1])
		}
	case "inset":
		shape = layout.Shape{Kind: layout.ShapeInset}
		body, _, _ := strings.Cut(args, "round")
		vals := boxSides("%s", body)
		if vals == nil {
			return layout.Shape{}
		}
		get := func(i int) layout.Length {
			l, err := u.parseLength(vals[2*i+1])
			if err != nil {
				return layout.Px(0)
			}
			return l
		}
		shape.Inset = layout.EdgeLengths{Top: get(0), Right: get(1), Bottom: get(2), Left: get(3)}
	default:
		return layout.Shape{}
	}
	return shape
}
