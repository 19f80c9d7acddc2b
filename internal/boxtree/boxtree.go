// internal/boxtree/boxtree.go
package boxtree

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxflow/internal/css"
	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

// Document is a layout tree built from HTML, together with the mapping
// between DOM nodes and layout nodes.
type Document struct {
	Tree *layout.Tree
	DOM  *html.Node
	// Sheets counts the author style sheets that were applied.
	Sheets int

	byNode map[*html.Node]layout.NodeID
	byID   map[layout.NodeID]*html.Node
}

// NodeFor returns the layout node generated for a DOM node.
func (d *Document) NodeFor(n *html.Node) (layout.NodeID, bool) {
	id, ok := d.byNode[n]
	return id, ok
}

// ElementFor returns the DOM node a layout node was generated from, or
// nil for generated boxes.
func (d *Document) ElementFor(id layout.NodeID) *html.Node {
	return d.byID[id]
}

// Label names a layout node for reports, e.g. div#main.card or #text.
func (d *Document) Label(id layout.NodeID) string {
	n := d.byID[id]
	if n == nil {
		if node := d.Tree.Node(id); node != nil && node.Tag != "" {
			return node.Tag
		}
		return "#anonymous"
	}
	if n.Type == html.TextNode {
		return "#text"
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(n.Data))
	if id := htmlquery.SelectAttr(n, "id"); id != "" {
		b.WriteString("#" + id)
	}
	for _, class := range strings.Fields(htmlquery.SelectAttr(n, "class")) {
		b.WriteString("." + class)
	}
	return b.String()
}

// Query returns the layout nodes of every rendered element matching the
// XPath expression, in document order.
func (d *Document) Query(xpath string) ([]layout.NodeID, error) {
	nodes, err := htmlquery.QueryAll(d.DOM, xpath)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath selector '%s': %w", xpath, err)
	}
	var out []layout.NodeID
	for _, n := range nodes {
		if id, ok := d.byNode[n]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Geometry returns the absolute border box of the first element matching
// the XPath expression.
func (d *Document) Geometry(xpath string) (layout.Rect, error) {
	target, err := htmlquery.Query(d.DOM, xpath)
	if err != nil {
		return layout.Rect{}, fmt.Errorf("invalid XPath selector '%s': %w", xpath, err)
	}
	if target == nil {
		return layout.Rect{}, fmt.Errorf("element not found matching selector '%s'", xpath)
	}
	id, ok := d.byNode[target]
	if !ok {
		return layout.Rect{}, fmt.Errorf("element '%s' found in DOM but not rendered (e.g., display: none)", xpath)
	}
	return d.Tree.AbsoluteBorderBox(id), nil
}

// Builder turns HTML into layout trees.
type Builder struct {
	logger    *zap.Logger
	viewportW float64
	viewportH float64
	sheets    []css.Sheet
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithViewport sets the viewport that vmin and vmax resolve against.
func WithViewport(w, h float64) Option {
	return func(b *Builder) { b.viewportW, b.viewportH = w, h }
}

// WithStylesheet adds an author sheet applied before the document's own
// <style> elements.
func WithStylesheet(s css.Sheet) Option {
	return func(b *Builder) { b.sheets = append(b.sheets, s) }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{logger: zap.NewNop(), viewportW: 1280, viewportH: 720}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ParseFile reads and builds an HTML file.
func (b *Builder) ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := b.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse reads HTML and builds its layout tree.
func (b *Builder) Parse(r io.Reader) (*Document, error) {
	dom, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return b.Build(dom)
}

// Build runs the cascade over dom and converts the styled tree into a
// layout tree. Each call uses a fresh cascade, so documents never share
// style sheets.
func (b *Builder) Build(dom *html.Node) (*Document, error) {
	styles := style.NewEngine(b.logger)
	styles.SetViewport(b.viewportW, b.viewportH)
	doc := &Document{
		Tree:   layout.NewTree(),
		DOM:    dom,
		byNode: make(map[*html.Node]layout.NodeID),
		byID:   make(map[layout.NodeID]*html.Node),
	}
	for _, s := range b.sheets {
		styles.AddAuthorSheet(s)
		doc.Sheets++
	}
	for _, n := range htmlquery.Find(dom, "//style") {
		if !screenMedia(htmlquery.SelectAttr(n, "media")) {
			continue
		}
		styles.AddAuthorSheet(css.Parse(htmlquery.InnerText(n)))
		doc.Sheets++
	}

	root := styles.BuildTree(dom)
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	rootStyle := styles.LayoutStyle(root)
	if rootStyle.Display == layout.DisplayNone {
		return nil, fmt.Errorf("root element <%s> is not rendered", root.Tag())
	}
	c := &converter{styles: styles, doc: doc}
	c.add(layout.NoNode, root, rootStyle)
	b.logger.Debug("Layout tree built.",
		zap.Int("nodes", doc.Tree.Len()),
		zap.Int("sheets", doc.Sheets),
		zap.Int("skipped_whitespace", c.skipped))
	return doc, nil
}

// screenMedia reports whether a media attribute applies to a screen.
func screenMedia(media string) bool {
	media = strings.ToLower(strings.TrimSpace(media))
	return media == "" || strings.Contains(media, "screen") || strings.Contains(media, "all")
}

type converter struct {
	styles  *style.Engine
	doc     *Document
	skipped int
}

// add appends sn with its converted style s under parent, then its
// children.
func (c *converter) add(parent layout.NodeID, sn *style.StyledNode, s layout.Style) {
	tree := c.doc.Tree
	var id layout.NodeID
	if sn.Node.Type == html.TextNode {
		id = tree.AddText(parent, sn.Node.Data, s)
	} else {
		id = tree.AddElement(parent, sn.Tag(), s)
	}
	c.doc.byNode[sn.Node] = id
	c.doc.byID[id] = sn.Node
	if sn.Node.Type == html.TextNode {
		return
	}

	styles := make([]layout.Style, len(sn.Children))
	for i, child := range sn.Children {
		styles[i] = c.styles.LayoutStyle(child)
	}
	for i, child := range sn.Children {
		cs := styles[i]
		switch {
		case cs.Display == layout.DisplayNone:
			continue
		case child.Tag() == "br":
			// A forced break is a preserved newline.
			cs.WhiteSpace = layout.WhiteSpacePreLine
			bid := tree.AddText(id, "\n", cs)
			c.doc.byNode[child.Node] = bid
			c.doc.byID[bid] = child.Node
			continue
		case child.Node.Type == html.TextNode && c.droppable(s, styles, sn.Children, i):
			c.skipped++
			continue
		}
		c.add(id, child, cs)
	}
}

// droppable reports whether the text child i is collapsible white space
// that can never produce a line: inside flex, grid and table structure,
// between block-level siblings, or at the edge of a block container.
func (c *converter) droppable(parent layout.Style, styles []layout.Style, children []*style.StyledNode, i int) bool {
	text := children[i].Node.Data
	ws := styles[i].WhiteSpace
	if strings.TrimLeft(text, " \t\n\r\f") != "" || (ws.PreservesNewlines() && ws != layout.WhiteSpacePreLine) {
		return false
	}
	switch parent.Display {
	case layout.DisplayFlex, layout.DisplayInlineFlex, layout.DisplayGrid, layout.DisplayInlineGrid,
		layout.DisplayTable, layout.DisplayInlineTable, layout.DisplayTableRowGroup,
		layout.DisplayTableHeaderGroup, layout.DisplayTableFooterGroup, layout.DisplayTableRow,
		layout.DisplayTableColumnGroup:
		return true
	}
	if isInline(parent.Display) {
		return false
	}
	return !inlineNeighbour(styles, children, i, -1) || !inlineNeighbour(styles, children, i, 1)
}

// inlineNeighbour reports whether the nearest rendered sibling in
// direction step is inline-level content.
func inlineNeighbour(styles []layout.Style, children []*style.StyledNode, i, step int) bool {
	for j := i + step; j >= 0 && j < len(children); j += step {
		s := styles[j]
		if s.Display == layout.DisplayNone || s.IsOutOfFlow() {
			continue
		}
		if children[j].Node.Type == html.TextNode {
			if strings.TrimLeft(children[j].Node.Data, " \t\n\r\f") == "" {
				continue
			}
			return true
		}
		return isInline(s.Display) && s.Float == layout.FloatNone
	}
	return false
}

func isInline(d layout.Display) bool {
	switch d {
	case layout.DisplayInline, layout.DisplayInlineBlock, layout.DisplayInlineFlex,
		layout.DisplayInlineGrid, layout.DisplayInlineTable:
		return true
	}
	return false
}
