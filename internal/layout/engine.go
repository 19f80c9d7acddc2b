// internal/layout/engine.go
package layout

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMaxDepth bounds the recursion of a single pass.
	DefaultMaxDepth = 256
	// DefaultCharWidthRatio is the fallback advance per character, as a
	// fraction of the font size.
	DefaultCharWidthRatio = 0.6
	// DefaultMonoWidthRatio is the fallback ratio for monospace families.
	DefaultMonoWidthRatio = 0.65
)

// Mode selects the layout algorithm of a box.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeBlock
	ModeInline
	ModeFlex
	ModeGrid
	ModeTable
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeBlock:
		return "block"
	case ModeInline:
		return "inline"
	case ModeFlex:
		return "flex"
	case ModeGrid:
		return "grid"
	case ModeTable:
		return "table"
	}
	return "unknown"
}

// ModeOf derives the layout mode from the node kind and display value.
func ModeOf(n *Node) Mode {
	if n.Kind == KindText {
		return ModeInline
	}
	if n.Kind == KindAnonymous {
		return ModeBlock
	}
	switch n.Style.Display {
	case DisplayNone:
		return ModeNone
	case DisplayInline:
		return ModeInline
	case DisplayFlex, DisplayInlineFlex:
		return ModeFlex
	case DisplayGrid, DisplayInlineGrid:
		return ModeGrid
	case DisplayTable, DisplayInlineTable:
		return ModeTable
	case DisplayTableColumn, DisplayTableColumnGroup:
		return ModeNone
	}
	return ModeBlock
}

// Option configures an Engine.
type Option func(*Engine)

// WithMeasurer injects the text measurer.
func WithMeasurer(m TextMeasurer) Option {
	return func(e *Engine) { e.measurer = m }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth sets the recursion limit; values below 1 are ignored.
func WithMaxDepth(d int) Option {
	return func(e *Engine) {
		if d > 0 {
			e.maxDepth = d
		}
	}
}

// WithFallbackRatios sets the per-character width ratios used when no
// measurer is configured.
func WithFallbackRatios(char, mono float64) Option {
	return func(e *Engine) {
		if char > 0 {
			e.charRatio = char
		}
		if mono > 0 {
			e.monoRatio = mono
		}
	}
}

// Engine computes box geometry. It holds no per-pass state, so one
// Engine may lay out independent trees from several goroutines.
type Engine struct {
	measurer  TextMeasurer
	logger    *zap.Logger
	maxDepth  int
	charRatio float64
	monoRatio float64
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:    zap.NewNop(),
		maxDepth:  DefaultMaxDepth,
		charRatio: DefaultCharWidthRatio,
		monoRatio: DefaultMonoWidthRatio,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarizes one layout pass.
type Result struct {
	PassID   string
	Nodes    int
	Unsized  int
	Duration time.Duration
}

// pass carries the mutable state of one Compute call.
type pass struct {
	ctx     *Context
	tree    *Tree
	unsized int

	intrinsic map[NodeID]intrinsicSize
	// borders holds the used border widths of table cells in the
	// collapsing border model.
	borders map[NodeID]Edges
}

// Compute lays out the whole tree for the viewport and writes geometry
// into the nodes in place. It never fails: unresolvable values fall back
// to auto, and subtrees deeper than the depth limit are left unsized.
func (e *Engine) Compute(t *Tree, viewportW, viewportH float64) Result {
	start := time.Now()
	ctx := &Context{
		ViewportW: nonNeg(viewportW),
		ViewportH: nonNeg(viewportH),
		Measurer:  e.measurer,
		Logger:    e.logger,
		MaxDepth:  e.maxDepth,
		PassID:    uuid.NewString(),
		charRatio: e.charRatio,
		monoRatio: e.monoRatio,
	}
	res := Result{PassID: ctx.PassID}
	if t == nil || t.Root() == NoNode {
		return res
	}
	log := ctx.Logger.With(zap.String("pass_id", ctx.PassID))
	log.Debug("Layout pass starting.", zap.Int("nodes", t.Len()), zap.Float64("viewport_w", ctx.ViewportW), zap.Float64("viewport_h", ctx.ViewportH))

	p := &pass{ctx: ctx, tree: t, intrinsic: make(map[NodeID]intrinsicSize), borders: make(map[NodeID]Edges)}
	t.dissolveAnonymous()
	t.resetGeometry()
	t.wrapInlineRuns()

	p.layoutRoot()
	p.resolvePositioned()

	res.Nodes = t.Len()
	res.Unsized = p.unsized
	res.Duration = time.Since(start)
	log.Debug("Layout pass finished.", zap.Int("unsized", p.unsized), zap.Duration("duration", res.Duration))
	return res
}

// constraint is what a parent algorithm hands to a child layout.
type constraint struct {
	cbWidth   float64
	cbHeight  float64
	heightDef bool
	// width and height force the border-box size; NaN leaves them free.
	width  float64
	height float64
	// shrink makes an auto width fit its content instead of filling.
	shrink bool
	// centre resolves auto horizontal margins against the leftover space.
	centre bool
	scope  *floatScope
}

func newConstraint(cbWidth, cbHeight float64, heightDef bool) constraint {
	return constraint{
		cbWidth:   nonNeg(cbWidth),
		cbHeight:  nonNeg(cbHeight),
		heightDef: heightDef,
		width:     math.NaN(),
		height:    math.NaN(),
	}
}

func (p *pass) layoutRoot() {
	t := p.tree
	root := t.Root()
	n := t.Node(root)
	vw, vh := p.ctx.ViewportW, p.ctx.ViewportH
	c := newConstraint(vw, vh, true)
	if n.Style.Width.IsIntrinsic() {
		minW, maxW := p.outerIntrinsic(root, 0)
		w := maxW
		switch n.Style.Width.Kind {
		case LengthMinContent:
			w = minW
		case LengthFitContent:
			w = clamp(vw, minW, maxW)
		}
		c.width = math.Min(w, vw)
	} else if v, ok := p.ctx.Resolve(n.Style.Width, vw, true); ok {
		pad, _ := p.ctx.resolveEdges(n.Style.Padding, vw)
		frame := n.Style.Border.Left.Used() + n.Style.Border.Right.Used() + pad.Left + pad.Right
		if n.Style.BoxSizing == ContentBox {
			v += frame
		}
		c.width = math.Min(v, vw)
	}
	c.centre = true
	p.layoutBox(root, c, 0)
	n.Box.PlaceMarginBox(0, 0)
	p.applyRelative(n, vw, vh, true)
}

// layoutBox computes the size of id and lays out its subtree. The parent
// positions the box afterwards.
func (p *pass) layoutBox(id NodeID, c constraint, depth int) {
	n := p.tree.Node(id)
	if n == nil {
		return
	}
	if depth > p.ctx.MaxDepth {
		p.markUnsized(n, depth)
		return
	}
	n.Box = Dimensions{}
	n.Baseline = 0
	n.Fragments = nil
	n.Columns = nil
	n.mtop, n.mbot = marginAcc{}, marginAcc{}
	n.definiteHeight = false

	switch ModeOf(n) {
	case ModeNone:
		p.zeroSubtree(id)
		return
	case ModeInline:
		p.layoutInlineRoot(n, c, depth)
	case ModeBlock:
		p.layoutBlock(n, c, depth)
	case ModeFlex:
		p.layoutFlex(n, c, depth)
	case ModeGrid:
		p.layoutGrid(n, c, depth)
	case ModeTable:
		p.layoutTable(n, c, depth)
	}
	if n.mtop.empty() {
		n.mtop.add(n.Box.Margin.Top)
	}
	if n.mbot.empty() {
		n.mbot.add(n.Box.Margin.Bottom)
	}
	p.applyChildOffsets(n)
}

// applyChildOffsets shifts relatively positioned children once the
// parent has placed them.
func (p *pass) applyChildOffsets(n *Node) {
	for _, cid := range n.Children {
		child := p.tree.Node(cid)
		if child.Kind != KindText && child.Style.Position == PositionRelative && !child.Unsized {
			p.applyRelative(child, n.Box.Content.Width, n.Box.Content.Height, n.definiteHeight)
		}
	}
}

// applyRelative shifts a box by its insets; left wins over right and top
// over bottom.
func (p *pass) applyRelative(n *Node, cbW, cbH float64, heightDef bool) {
	if n.Style.Position != PositionRelative {
		return
	}
	in := n.Style.Inset
	dx, dy := 0.0, 0.0
	if v, ok := p.ctx.Resolve(in.Left, cbW, true); ok {
		dx = v
	} else if v, ok := p.ctx.Resolve(in.Right, cbW, true); ok {
		dx = -v
	}
	if v, ok := p.ctx.Resolve(in.Top, cbH, heightDef); ok {
		dy = v
	} else if v, ok := p.ctx.Resolve(in.Bottom, cbH, heightDef); ok {
		dy = -v
	}
	n.Box.Content.X += dx
	n.Box.Content.Y += dy
}

// markUnsized gives a subtree zero geometry when the depth limit trips.
func (p *pass) markUnsized(n *Node, depth int) {
	p.zeroSubtree(n.ID)
	n.Unsized = true
	p.unsized++
	p.ctx.Logger.Debug("Depth limit reached, leaving subtree unsized.",
		zap.String("pass_id", p.ctx.PassID),
		zap.Int32("node", int32(n.ID)),
		zap.String("tag", n.Tag),
		zap.Int("depth", depth),
		zap.Int("max_depth", p.ctx.MaxDepth))
}

// zeroSubtree clears the geometry of id and all its descendants.
func (p *pass) zeroSubtree(id NodeID) {
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := p.tree.Node(cur)
		n.Box = Dimensions{}
		n.Baseline = 0
		n.Fragments = nil
		n.Columns = nil
		n.Sticky = nil
		n.hasStatic = false
		stack = append(stack, n.Children...)
	}
}
