// internal/style/cascade.go
package style

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxflow/internal/css"
)

// StyledNode is a DOM node with its computed property values. Text nodes
// carry only inherited properties.
type StyledNode struct {
	Node     *html.Node
	Computed map[string]string
	// FontSize is the resolved font size in pixels.
	FontSize float64
	Children []*StyledNode

	rootSize float64
}

// Lookup returns the computed value of property, or fallback.
func (sn *StyledNode) Lookup(property, fallback string) string {
	if v, ok := sn.Computed[property]; ok {
		return v
	}
	return fallback
}

// Attr returns the value of an HTML attribute.
func (sn *StyledNode) Attr(key string) (string, bool) {
	if sn.Node == nil {
		return "", false
	}
	for _, a := range sn.Node.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// Tag returns the lower-case element name, or "" for text.
func (sn *StyledNode) Tag() string {
	if sn.Node == nil || sn.Node.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(sn.Node.Data)
}

// Engine runs the cascade over an HTML tree.
type Engine struct {
	userAgent []css.Sheet
	author    []css.Sheet
	viewportW float64
	viewportH float64
	logger    *zap.Logger
}

// NewEngine returns an engine with the default user-agent sheet.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		userAgent: []css.Sheet{css.Parse(DefaultUserAgentCSS)},
		viewportW: 1280,
		viewportH: 720,
		logger:    logger.Named("style"),
	}
}

// AddAuthorSheet appends an author style sheet; later sheets win ties.
func (e *Engine) AddAuthorSheet(sheet css.Sheet) {
	e.author = append(e.author, sheet)
}

// SetViewport sets the size viewport units and font sizes resolve against.
func (e *Engine) SetViewport(width, height float64) {
	e.viewportW, e.viewportH = width, height
}

// skippedElements never generate boxes.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "base": true, "noscript": true,
}

// BuildTree styles the subtree rooted at node. Comments, doctypes and
// non-rendered elements are left out.
func (e *Engine) BuildTree(node *html.Node) *StyledNode {
	if node == nil {
		return nil
	}
	if node.Type == html.DocumentNode {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				return e.build(c, nil, BaseFontSize)
			}
		}
		return nil
	}
	return e.build(node, nil, BaseFontSize)
}

func (e *Engine) build(node *html.Node, parent *StyledNode, rootSize float64) *StyledNode {
	switch node.Type {
	case html.ElementNode:
		if skippedElements[strings.ToLower(node.Data)] {
			return nil
		}
	case html.TextNode:
		if parent == nil {
			return nil
		}
	default:
		return nil
	}

	sn := &StyledNode{Node: node, Computed: map[string]string{}}
	if node.Type == html.ElementNode {
		sn.Computed = e.CalculateStyles(node)
	}
	e.inherit(sn, parent)
	e.resolveFontSize(sn, parent, rootSize)
	if parent == nil {
		rootSize = sn.FontSize
	}

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if child := e.build(c, sn, rootSize); child != nil {
			sn.Children = append(sn.Children, child)
		}
	}
	return sn
}

// inheritedProperties inherit by default.
var inheritedProperties = []string{
	"font-family", "font-size", "font-weight", "font-style", "letter-spacing",
	"line-height", "word-spacing", "text-align", "text-align-last",
	"text-indent", "text-transform", "white-space", "word-break",
	"overflow-wrap", "text-wrap", "tab-size", "direction", "visibility",
	"border-collapse", "border-spacing", "caption-side",
}

var isInherited = func() map[string]bool {
	m := make(map[string]bool, len(inheritedProperties))
	for _, p := range inheritedProperties {
		m[p] = true
	}
	return m
}()

func (e *Engine) inherit(sn, parent *StyledNode) {
	reset := map[string]bool{}
	for prop, val := range sn.Computed {
		switch strings.ToLower(val) {
		case "inherit":
			if parent != nil {
				if pv, ok := parent.Computed[prop]; ok {
					sn.Computed[prop] = pv
					continue
				}
			}
			delete(sn.Computed, prop)
		case "initial":
			delete(sn.Computed, prop)
			reset[prop] = true
		case "unset":
			delete(sn.Computed, prop)
			if parent != nil && isInherited[prop] {
				if pv, ok := parent.Computed[prop]; ok {
					sn.Computed[prop] = pv
				}
			}
		}
	}
	if parent == nil {
		return
	}
	for _, prop := range inheritedProperties {
		if _, ok := sn.Computed[prop]; ok || reset[prop] {
			continue
		}
		if pv, ok := parent.Computed[prop]; ok {
			sn.Computed[prop] = pv
		}
	}
}

// resolveFontSize turns font-size into pixels so that em units of
// descendants see a resolved value.
func (e *Engine) resolveFontSize(sn, parent *StyledNode, rootSize float64) {
	parentSize := BaseFontSize
	if parent != nil {
		parentSize = parent.FontSize
	}
	sn.FontSize = parentSize
	sn.rootSize = rootSize
	if v, ok := sn.Computed["font-size"]; ok {
		sn.FontSize = resolveFontSize(v, parentSize, rootSize, e.viewportW, e.viewportH)
	}
	sn.Computed["font-size"] = strconv.FormatFloat(sn.FontSize, 'f', -1, 64) + "px"
}

type origin uint8

const (
	originUserAgent origin = iota
	originHint
	originAuthor
	originInline
)

type cascaded struct {
	decl        css.Declaration
	specificity css.Specificity
	origin      origin
	order       int
}

// priority ranks origin and importance: important user-agent rules beat
// important author rules, which beat every normal declaration.
func (c cascaded) priority() int {
	if c.decl.Important {
		switch c.origin {
		case originUserAgent:
			return 6
		case originInline:
			return 5
		default:
			return 4
		}
	}
	return int(c.origin)
}

// CalculateStyles runs the cascade for one element and returns its
// specified values with shorthands expanded.
func (e *Engine) CalculateStyles(node *html.Node) map[string]string {
	var decls []cascaded
	order := 0
	add := func(d css.Declaration, spec css.Specificity, o origin) {
		for _, long := range expandShorthand(d) {
			decls = append(decls, cascaded{decl: long, specificity: spec, origin: o, order: order})
			order++
		}
	}

	apply := func(sheets []css.Sheet, o origin) {
		for _, sheet := range sheets {
			for _, rule := range sheet.Rules {
				spec, ok := matchAny(node, rule.Selectors)
				if !ok {
					continue
				}
				for _, d := range rule.Declarations {
					add(d, spec, o)
				}
			}
		}
	}
	apply(e.userAgent, originUserAgent)
	for _, d := range presentationalHints(node) {
		add(d, css.Specificity{}, originHint)
	}
	apply(e.author, originAuthor)
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, "style") {
			for _, d := range css.ParseDeclarations(a.Val) {
				add(d, css.Specificity{1, 0, 0}, originInline)
			}
		}
	}

	sort.SliceStable(decls, func(i, j int) bool {
		a, b := decls[i], decls[j]
		if pa, pb := a.priority(), b.priority(); pa != pb {
			return pa < pb
		}
		if a.specificity != b.specificity {
			return a.specificity.Less(b.specificity)
		}
		return a.order < b.order
	})

	styles := make(map[string]string, len(decls))
	for _, d := range decls {
		styles[d.decl.Property] = d.decl.Value
	}
	return styles
}

// presentationalHints maps legacy HTML attributes to declarations that
// author rules override.
func presentationalHints(node *html.Node) []css.Declaration {
	var out []css.Declaration
	tag := strings.ToLower(node.Data)
	for _, a := range node.Attr {
		key := strings.ToLower(a.Key)
		switch {
		case key == "width" || key == "height":
			if tag == "img" || tag == "video" || tag == "canvas" || tag == "iframe" || tag == "embed" || tag == "object" {
				// Natural sizes of replaced elements come from attributes instead.
				continue
			}
			v := strings.TrimSpace(a.Val)
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				v += "px"
			}
			out = append(out, css.Declaration{Property: key, Value: v})
		case key == "dir" && tag != "bdi":
			out = append(out, css.Declaration{Property: "direction", Value: a.Val})
		case key == "cellspacing" && tag == "table":
			out = append(out, css.Declaration{Property: "border-spacing", Value: strings.TrimSpace(a.Val) + "px"})
		case key == "cellpadding" && tag == "table":
			// Applied to cells by the cell's own hint lookup below.
		case key == "align" && (tag == "td" || tag == "th" || tag == "p" || tag == "div"):
			out = append(out, css.Declaration{Property: "text-align", Value: a.Val})
		case key == "valign" && (tag == "td" || tag == "th" || tag == "tr"):
			out = append(out, css.Declaration{Property: "vertical-align", Value: a.Val})
		case key == "nowrap" && (tag == "td" || tag == "th"):
			out = append(out, css.Declaration{Property: "white-space", Value: "nowrap"})
		}
	}
	if tag == "td" || tag == "th" {
		if table := enclosingTable(node); table != nil {
			for _, a := range table.Attr {
				if strings.EqualFold(a.Key, "cellpadding") {
					out = append(out, css.Declaration{Property: "padding", Value: strings.TrimSpace(a.Val) + "px"})
				}
			}
		}
	}
	return out
}

func enclosingTable(node *html.Node) *html.Node {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.EqualFold(p.Data, "table") {
			return p
		}
	}
	return nil
}

// -- Selector matching --

// matchAny returns the specificity of the most specific selector in the
// list that matches node.
func matchAny(node *html.Node, selectors []css.Selector) (css.Specificity, bool) {
	var best css.Specificity
	found := false
	for _, sel := range selectors {
		if len(sel.Parts) == 0 || !matchFrom(node, sel, len(sel.Parts)-1) {
			continue
		}
		if s := sel.Specificity(); !found || best.Less(s) {
			best = s
		}
		found = true
	}
	return best, found
}

func matchFrom(node *html.Node, sel css.Selector, index int) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	part := sel.Parts[index]
	if !matchCompound(node, part.Compound) {
		return false
	}
	if index == 0 {
		return true
	}
	switch part.Combinator {
	case css.CombinatorDescendant:
		for p := node.Parent; p != nil; p = p.Parent {
			if matchFrom(p, sel, index-1) {
				return true
			}
		}
		return false
	case css.CombinatorChild:
		return matchFrom(node.Parent, sel, index-1)
	case css.CombinatorAdjacentSibling:
		return matchFrom(previousElement(node), sel, index-1)
	case css.CombinatorGeneralSibling:
		for s := previousElement(node); s != nil; s = previousElement(s) {
			if matchFrom(s, sel, index-1) {
				return true
			}
		}
	}
	return false
}

func previousElement(node *html.Node) *html.Node {
	for s := node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func nextElement(node *html.Node) *html.Node {
	for s := node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func matchCompound(node *html.Node, c css.Compound) bool {
	if c.Tag != "" && c.Tag != "*" && !strings.EqualFold(node.Data, c.Tag) {
		return false
	}
	if c.ID != "" && attr(node, "id") != c.ID {
		return false
	}
	if len(c.Classes) > 0 {
		have := strings.Fields(attr(node, "class"))
		for _, want := range c.Classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range c.Attributes {
		if !matchAttribute(node, a) {
			return false
		}
	}
	for _, p := range c.Pseudo {
		if !matchPseudo(node, p) {
			return false
		}
	}
	return true
}

func attr(node *html.Node, key string) string {
	v, _ := lookupAttr(node, key)
	return v
}

func lookupAttr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func matchAttribute(node *html.Node, sel css.AttributeSelector) bool {
	v, found := lookupAttr(node, sel.Name)
	if !found {
		return false
	}
	switch sel.Operator {
	case "":
		return true
	case "=":
		return v == sel.Value
	case "~=":
		for _, w := range strings.Fields(v) {
			if w == sel.Value {
				return true
			}
		}
		return false
	case "|=":
		return v == sel.Value || strings.HasPrefix(v, sel.Value+"-")
	case "^=":
		return sel.Value != "" && strings.HasPrefix(v, sel.Value)
	case "$=":
		return sel.Value != "" && strings.HasSuffix(v, sel.Value)
	case "*=":
		return sel.Value != "" && strings.Contains(v, sel.Value)
	}
	return false
}

func matchPseudo(node *html.Node, name string) bool {
	switch name {
	case "root":
		return node.Parent != nil && node.Parent.Type == html.DocumentNode
	case "first-child":
		return previousElement(node) == nil
	case "last-child":
		return nextElement(node) == nil
	case "only-child":
		return previousElement(node) == nil && nextElement(node) == nil
	case "empty":
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || (c.Type == html.TextNode && c.Data != "") {
				return false
			}
		}
		return true
	}
	return false
}
