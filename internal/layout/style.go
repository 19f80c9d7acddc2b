// internal/layout/style.go
package layout

import "strings"

// -- Enumerated CSS values --

// Display is the computed display type. The zero value is block so that
// programmatically built trees lay out as block flow by default.
type Display uint8

const (
	DisplayBlock Display = iota
	DisplayInline
	DisplayInlineBlock
	DisplayListItem
	DisplayFlowRoot
	DisplayFlex
	DisplayInlineFlex
	DisplayGrid
	DisplayInlineGrid
	DisplayTable
	DisplayInlineTable
	DisplayTableRowGroup
	DisplayTableHeaderGroup
	DisplayTableFooterGroup
	DisplayTableRow
	DisplayTableCell
	DisplayTableCaption
	DisplayTableColumn
	DisplayTableColumnGroup
	DisplayNone
)

// Position is the CSS position scheme.
type Position uint8

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

// FloatSide is the computed float value.
type FloatSide uint8

const (
	FloatNone FloatSide = iota
	FloatLeft
	FloatRight
)

// Clear is the computed clear value.
type Clear uint8

const (
	ClearNone Clear = iota
	ClearLeft
	ClearRight
	ClearBoth
)

// BoxSizing selects which box width and height apply to.
type BoxSizing uint8

const (
	ContentBox BoxSizing = iota
	BorderBox
)

// Overflow is the computed overflow value.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
	OverflowAuto
	OverflowClip
)

// Contain is a set of containment flags.
type Contain uint8

const (
	ContainSize Contain = 1 << iota
	ContainInlineSize
	ContainLayout
	ContainPaint
	ContainStyle

	ContainStrict  = ContainSize | ContainLayout | ContainPaint | ContainStyle
	ContainContent = ContainLayout | ContainPaint | ContainStyle
)

// Visibility is the computed visibility value.
type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
	Collapse
)

// BorderStyle is the line style of one border side.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderHidden
	BorderDotted
	BorderDashed
	BorderSolid
	BorderDouble
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

// BorderSide is the width and style of one border side.
type BorderSide struct {
	Width float64
	Style BorderStyle
}

// Used returns the width that takes up space: none and hidden borders
// have no width.
func (b BorderSide) Used() float64 {
	if b.Style == BorderNone || b.Style == BorderHidden {
		return 0
	}
	return nonNeg(b.Width)
}

// BorderEdges holds all four border sides.
type BorderEdges struct {
	Top, Right, Bottom, Left BorderSide
}

// SolidBorder returns a uniform solid border of width w.
func SolidBorder(w float64) BorderEdges {
	s := BorderSide{Width: w, Style: BorderSolid}
	return BorderEdges{Top: s, Right: s, Bottom: s, Left: s}
}

// Widths returns the used border widths.
func (b BorderEdges) Widths() Edges {
	return Edges{Top: b.Top.Used(), Right: b.Right.Used(), Bottom: b.Bottom.Used(), Left: b.Left.Used()}
}

// TextAlign covers text-align and text-align-last. Auto only has meaning
// for text-align-last, where it defers to text-align.
type TextAlign uint8

const (
	TextAlignAuto TextAlign = iota
	TextAlignStart
	TextAlignEnd
	TextAlignLeft
	TextAlignRight
	TextAlignCenter
	TextAlignJustify
)

// TextTransform is the computed text-transform value.
type TextTransform uint8

const (
	TransformNone TextTransform = iota
	TransformUppercase
	TransformLowercase
	TransformCapitalize
)

// WhiteSpace is the computed white-space value.
type WhiteSpace uint8

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNoWrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
	WhiteSpaceBreakSpaces
)

// Wraps reports whether lines may break at soft wrap opportunities.
func (w WhiteSpace) Wraps() bool { return w != WhiteSpaceNoWrap && w != WhiteSpacePre }

// CollapsesSpaces reports whether runs of spaces and tabs collapse.
func (w WhiteSpace) CollapsesSpaces() bool {
	return w == WhiteSpaceNormal || w == WhiteSpaceNoWrap || w == WhiteSpacePreLine
}

// PreservesNewlines reports whether newlines force a break.
func (w WhiteSpace) PreservesNewlines() bool {
	return w == WhiteSpacePre || w == WhiteSpacePreWrap || w == WhiteSpacePreLine || w == WhiteSpaceBreakSpaces
}

// WordBreak is the computed word-break value.
type WordBreak uint8

const (
	WordBreakNormal WordBreak = iota
	WordBreakBreakAll
	WordBreakKeepAll
	WordBreakBreakWord
)

// OverflowWrap is the computed overflow-wrap value.
type OverflowWrap uint8

const (
	OverflowWrapNormal OverflowWrap = iota
	OverflowWrapBreakWord
	OverflowWrapAnywhere
)

// TextWrap is the computed text-wrap value.
type TextWrap uint8

const (
	TextWrapWrap TextWrap = iota
	TextWrapNoWrap
	TextWrapBalance
	TextWrapPretty
)

// Direction is the inline base direction.
type Direction uint8

const (
	LTR Direction = iota
	RTL
	// DirectionAuto picks the direction from the first strong character.
	DirectionAuto
)

// VerticalAlign is the computed vertical-align value for inline-level
// boxes and table cells.
type VerticalAlign uint8

const (
	AlignBaseline VerticalAlign = iota
	AlignTop
	AlignMiddle
	AlignBottom
	AlignTextTop
	AlignTextBottom
	AlignSub
	AlignSuper
)

// FlexDirection is the computed flex-direction value.
type FlexDirection uint8

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

// FlexWrap is the computed flex-wrap value.
type FlexWrap uint8

const (
	FlexNoWrap FlexWrap = iota
	FlexWrapOn
	FlexWrapReverse
)

// Align covers justify-content, align-content, align-items, align-self,
// justify-items and justify-self. Normal behaves as stretch for item
// alignment and as start for content distribution; for align-self and
// justify-self it defers to the container's items value.
type Align uint8

const (
	AlignNormal Align = iota
	AlignStart
	AlignEnd
	AlignFlexStart
	AlignFlexEnd
	AlignCenter
	AlignSpaceBetween
	AlignSpaceAround
	AlignSpaceEvenly
	AlignStretch
	AlignBaselineItems
	AlignLeft
	AlignRight
)

// GridAutoFlow is the computed grid-auto-flow value.
type GridAutoFlow uint8

const (
	GridFlowRow GridAutoFlow = iota
	GridFlowColumn
	GridFlowRowDense
	GridFlowColumnDense
)

// Dense reports whether holes are back-filled.
func (g GridAutoFlow) Dense() bool { return g == GridFlowRowDense || g == GridFlowColumnDense }

// Columnar reports whether auto-placement advances down columns.
func (g GridAutoFlow) Columnar() bool { return g == GridFlowColumn || g == GridFlowColumnDense }

// TableLayout is the computed table-layout value.
type TableLayout uint8

const (
	TableLayoutAuto TableLayout = iota
	TableLayoutFixed
)

// CaptionSide is the computed caption-side value.
type CaptionSide uint8

const (
	CaptionTop CaptionSide = iota
	CaptionBottom
)

// ShapeKind selects the basic shape of shape-outside.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeCircle
	ShapeEllipse
	ShapeInset
)

// Shape is a shape-outside basic shape. Radii and center coordinates
// resolve against the float's margin box; a zero center means 50%.
type Shape struct {
	Kind    ShapeKind
	RadiusX Length
	RadiusY Length
	CenterX Length
	CenterY Length
	Inset   EdgeLengths
}

// FontSpec is the font description handed to the text measurer.
type FontSpec struct {
	Size          float64
	Family        string
	Weight        int
	Italic        bool
	LetterSpacing float64
}

// Monospace reports whether the family list names a monospace face.
func (f FontSpec) Monospace() bool {
	fam := strings.ToLower(f.Family)
	return strings.Contains(fam, "mono") || strings.Contains(fam, "courier")
}

// Style holds the fully resolved CSS values of one box.
type Style struct {
	Display    Display
	Position   Position
	Float      FloatSide
	Clear      Clear
	BoxSizing  BoxSizing
	Visibility Visibility

	Width, Height       Length
	MinWidth, MinHeight Length
	MaxWidth, MaxHeight Length
	// AspectRatio is width/height; zero disables it.
	AspectRatio float64

	Margin  EdgeLengths
	Padding EdgeLengths
	Inset   EdgeLengths
	Border  BorderEdges

	Overflow               Overflow
	Contain                Contain
	ContainIntrinsicWidth  float64
	ContainIntrinsicHeight float64

	Font FontSpec
	// LineHeight is a multiplier of the font size; zero means normal.
	LineHeight    float64
	WordSpacing   float64
	TextAlign     TextAlign
	TextAlignLast TextAlign
	TextIndent    Length
	TextTransform TextTransform
	WhiteSpace    WhiteSpace
	WordBreak     WordBreak
	OverflowWrap  OverflowWrap
	TextWrap      TextWrap
	// TabSize is measured in spaces; zero means 8.
	TabSize       float64
	Direction     Direction
	VerticalAlign VerticalAlign
	LineClamp     int

	FlexDirection  FlexDirection
	FlexWrap       FlexWrap
	FlexGrow       float64
	FlexShrink     float64
	FlexBasis      Length
	Order          int
	JustifyContent Align
	AlignItems     Align
	AlignSelf      Align
	AlignContent   Align
	JustifyItems   Align
	JustifySelf    Align
	RowGap         Length
	ColumnGap      Length

	GridTemplateColumns string
	GridTemplateRows    string
	GridTemplateAreas   string
	GridAutoColumns     string
	GridAutoRows        string
	GridAutoFlow        GridAutoFlow
	GridColumn          string
	GridRow             string
	GridArea            string

	TableLayout    TableLayout
	BorderCollapse bool
	BorderSpacingH float64
	BorderSpacingV float64
	CaptionSide    CaptionSide
	ColSpan        int
	RowSpan        int
	// ColumnWidths carries <col> width hints for a table.
	ColumnWidths []Length

	ColumnCount   int
	ColumnWidth   Length
	ColumnSpanAll bool

	ShapeOutside Shape
	ShapeMargin  float64

	// NaturalWidth and NaturalHeight mark a replaced box (image, canvas)
	// when either is positive.
	NaturalWidth  float64
	NaturalHeight float64
}

// DefaultStyle returns the CSS initial values for a block box with a
// 16px font.
func DefaultStyle() Style {
	return Style{
		Margin:     EdgeLengths{Top: Px(0), Right: Px(0), Bottom: Px(0), Left: Px(0)},
		MaxWidth:   None,
		MaxHeight:  None,
		FlexShrink: 1,
		Font:       FontSpec{Size: 16, Family: "sans-serif", Weight: 400},
		ColSpan:    1,
		RowSpan:    1,
	}
}

// InlineStyle returns DefaultStyle with display inline.
func InlineStyle() Style {
	s := DefaultStyle()
	s.Display = DisplayInline
	return s
}

// IsReplaced reports whether the box has natural dimensions.
func (s *Style) IsReplaced() bool { return s.NaturalWidth > 0 || s.NaturalHeight > 0 }

// IsOutOfFlow reports whether the box is absolutely or fixed positioned.
func (s *Style) IsOutOfFlow() bool {
	return s.Position == PositionAbsolute || s.Position == PositionFixed
}

// IsFloating reports whether the box floats in normal flow.
func (s *Style) IsFloating() bool { return s.Float != FloatNone && !s.IsOutOfFlow() }

// IsPositioned reports whether the box is a containing block for
// absolutely positioned descendants.
func (s *Style) IsPositioned() bool { return s.Position != PositionStatic }

func (s *Style) fontSize() float64 {
	if s.Font.Size <= 0 {
		return 16
	}
	return s.Font.Size
}

// lineHeightPx returns the used line height in pixels.
func (s *Style) lineHeightPx() float64 {
	lh := s.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	return lh * s.fontSize()
}

func (s *Style) colSpan() int {
	if s.ColSpan < 1 {
		return 1
	}
	return s.ColSpan
}

func (s *Style) rowSpan() int {
	if s.RowSpan < 1 {
		return 1
	}
	return s.RowSpan
}

func (s *Style) isMulticol() bool {
	return s.ColumnCount > 0 || s.ColumnWidth.IsFixed()
}

func (s *Style) isTableSection() bool {
	switch s.Display {
	case DisplayTableRowGroup, DisplayTableHeaderGroup, DisplayTableFooterGroup:
		return true
	}
	return false
}
