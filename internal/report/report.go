// internal/report/report.go
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

// Labeler names layout nodes, e.g. by tag, id and class.
type Labeler interface {
	Label(id layout.NodeID) string
}

// Rect is an absolute rectangle in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Edges holds the four sides of a margin, border or padding.
type Edges struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Fragment is one line's piece of a text or inline box.
type Fragment struct {
	Rect
	Line int    `json:"line"`
	Text string `json:"text,omitempty"`
}

// Sticky carries the normal-flow position of a sticky box; nil insets
// are auto.
type Sticky struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Top    *float64 `json:"top,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`
}

// Box is the geometry of one layout node and its subtree.
type Box struct {
	ID        int        `json:"id"`
	Label     string     `json:"label"`
	Kind      string     `json:"kind"`
	Border    Rect       `json:"border_box"`
	Content   Rect       `json:"content_box"`
	Margin    Edges      `json:"margin"`
	Borders   Edges      `json:"border"`
	Padding   Edges      `json:"padding"`
	Baseline  float64    `json:"baseline,omitempty"`
	Fragments []Fragment `json:"fragments,omitempty"`
	Columns   []Rect     `json:"columns,omitempty"`
	Sticky    *Sticky    `json:"sticky,omitempty"`
	Unsized   bool       `json:"unsized,omitempty"`
	Children  []*Box     `json:"children,omitempty"`
}

// Report is the geometry of one layout pass.
type Report struct {
	Source     string  `json:"source,omitempty"`
	PassID     string  `json:"pass_id"`
	Viewport   Rect    `json:"viewport"`
	Nodes      int     `json:"nodes"`
	Unsized    int     `json:"unsized"`
	DurationMS float64 `json:"duration_ms"`
	Root       *Box    `json:"root,omitempty"`
}

// Build snapshots the geometry of tree after a pass. labels may be nil.
func Build(source string, tree *layout.Tree, res layout.Result, viewportW, viewportH float64, labels Labeler) *Report {
	r := &Report{
		Source:     source,
		PassID:     res.PassID,
		Viewport:   Rect{Width: viewportW, Height: viewportH},
		Nodes:      res.Nodes,
		Unsized:    res.Unsized,
		DurationMS: float64(res.Duration) / float64(time.Millisecond),
	}
	if tree != nil && tree.Root() != layout.NoNode {
		r.Root = buildBox(tree, tree.Root(), labels)
	}
	return r
}

func buildBox(tree *layout.Tree, id layout.NodeID, labels Labeler) *Box {
	n := tree.Node(id)
	content := tree.AbsoluteContentRect(id)
	b := &Box{
		ID:       int(id),
		Kind:     kindName(n),
		Border:   fromRect(tree.AbsoluteBorderBox(id)),
		Content:  fromRect(content),
		Margin:   fromEdges(n.Box.Margin),
		Borders:  fromEdges(n.Box.Border),
		Padding:  fromEdges(n.Box.Padding),
		Baseline: n.Baseline,
		Unsized:  n.Unsized,
	}
	if labels != nil {
		b.Label = labels.Label(id)
	} else {
		b.Label = n.Tag
	}
	for _, f := range n.Fragments {
		b.Fragments = append(b.Fragments, Fragment{Rect: offset(f.Rect, content), Line: f.Line, Text: f.Text})
	}
	for _, c := range n.Columns {
		b.Columns = append(b.Columns, offset(c, content))
	}
	if s := n.Sticky; s != nil {
		b.Sticky = &Sticky{X: s.Normal.X, Y: s.Normal.Y, Top: inset(s.Top), Right: inset(s.Right), Bottom: inset(s.Bottom), Left: inset(s.Left)}
	}
	for _, c := range n.Children {
		b.Children = append(b.Children, buildBox(tree, c, labels))
	}
	return b
}

func kindName(n *layout.Node) string {
	switch {
	case n.IsText():
		return "text"
	case n.IsAnonymous():
		return "anonymous"
	}
	return "element"
}

func fromRect(r layout.Rect) Rect { return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height} }

func fromEdges(e layout.Edges) Edges {
	return Edges{Top: e.Top, Right: e.Right, Bottom: e.Bottom, Left: e.Left}
}

// offset moves r from content coordinates of origin to absolute ones.
func offset(r layout.Rect, origin layout.Rect) Rect {
	return Rect{X: origin.X + r.X, Y: origin.Y + r.Y, Width: r.Width, Height: r.Height}
}

func inset(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Walk visits every box depth first.
func (r *Report) Walk(fn func(b *Box, depth int)) {
	var visit func(b *Box, depth int)
	visit = func(b *Box, depth int) {
		fn(b, depth)
		for _, c := range b.Children {
			visit(c, depth+1)
		}
	}
	if r.Root != nil {
		visit(r.Root, 0)
	}
}

// WriteJSON encodes the report.
func WriteJSON(w io.Writer, r *Report, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode layout report: %w", err)
	}
	return nil
}
