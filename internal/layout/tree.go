// internal/layout/tree.go
package layout

// NodeID addresses a node in a Tree arena.
type NodeID int32

// NoNode is the parent of the root and the result of failed lookups.
const NoNode NodeID = -1

// NodeKind distinguishes elements from text and synthesized boxes.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	// KindAnonymous marks a block box synthesized around an inline run.
	KindAnonymous
	kindFree
)

// Fragment is the piece of a text or inline node that sits on one line,
// relative to the node's content origin.
type Fragment struct {
	Rect  Rect
	Text  string
	Line  int
	Start int
	End   int
}

// StickyPosition records the normal-flow position of a sticky box and the
// resolved inset thresholds a scroller applies; NaN means auto.
type StickyPosition struct {
	Normal Point
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Node is one box of the tree: the style is the input, everything below
// Box is written by the engine.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Tag      string
	Text     string
	Style    Style
	Parent   NodeID
	Children []NodeID

	Box       Dimensions
	Baseline  float64
	Fragments []Fragment
	Columns   []Rect
	Sticky    *StickyPosition
	Unsized   bool

	// static is the hypothetical normal-flow position of an out-of-flow
	// box, in the parent's content coordinates.
	static    Point
	hasStatic bool

	// mtop and mbot hold the collapsed margins including any that
	// escaped from children.
	mtop, mbot marginAcc
	// definiteHeight is set when the used height did not depend on
	// content.
	definiteHeight bool
}

// IsText reports whether the node is a text run.
func (n *Node) IsText() bool { return n.Kind == KindText }

// IsAnonymous reports whether the node was synthesized by the engine.
func (n *Node) IsAnonymous() bool { return n.Kind == KindAnonymous }

// Tree is an arena of nodes. The first node is the root; parents are
// non-owning indices.
type Tree struct {
	nodes []Node
	free  []NodeID
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Len returns the number of live nodes.
func (t *Tree) Len() int { return len(t.nodes) - len(t.free) }

// Root returns the root node ID, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node for id. The pointer is invalidated by later
// additions to the tree.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) || t.nodes[id].Kind == kindFree {
		return nil
	}
	return &t.nodes[id]
}

// Parent returns the parent of id.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// Children returns the ordered children of id.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

// AddElement appends an element under parent; NoNode creates the root,
// which must be the first node added.
func (t *Tree) AddElement(parent NodeID, tag string, style Style) NodeID {
	return t.add(parent, Node{Kind: KindElement, Tag: tag, Style: style})
}

// AddText appends a text run under parent.
func (t *Tree) AddText(parent NodeID, text string, style Style) NodeID {
	style.Display = DisplayInline
	return t.add(parent, Node{Kind: KindText, Text: text, Style: style})
}

func (t *Tree) add(parent NodeID, n Node) NodeID {
	if parent == NoNode && len(t.nodes) > 0 {
		parent = 0
	}
	id := t.alloc()
	n.ID = id
	n.Parent = parent
	t.nodes[id] = n
	if parent != NoNode {
		p := &t.nodes[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

func (t *Tree) alloc() NodeID {
	if k := len(t.free); k > 0 {
		id := t.free[k-1]
		t.free = t.free[:k-1]
		return id
	}
	t.nodes = append(t.nodes, Node{})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) release(id NodeID) {
	t.nodes[id] = Node{ID: id, Kind: kindFree, Parent: NoNode}
	t.free = append(t.free, id)
}

// Walk visits every node in pre-order until fn returns false. It uses an
// explicit stack so arbitrarily deep trees are safe.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	root := t.Root()
	if root == NoNode {
		return
	}
	type frame struct {
		id    NodeID
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.id, f.depth) {
			return
		}
		kids := t.nodes[f.id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], f.depth + 1})
		}
	}
}

// Depth returns the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		d++
	}
	return d
}

// AbsoluteContentRect returns the content box of id in root coordinates.
func (t *Tree) AbsoluteContentRect(id NodeID) Rect {
	n := t.Node(id)
	if n == nil {
		return Rect{}
	}
	r := n.Box.Content
	for p := n.Parent; p != NoNode; p = t.nodes[p].Parent {
		r.X += t.nodes[p].Box.Content.X
		r.Y += t.nodes[p].Box.Content.Y
	}
	return r
}

// AbsoluteBorderBox returns the border box of id in root coordinates.
func (t *Tree) AbsoluteBorderBox(id NodeID) Rect {
	n := t.Node(id)
	if n == nil {
		return Rect{}
	}
	c := t.AbsoluteContentRect(id)
	d := n.Box
	d.Content = c
	return d.BorderBox()
}

// contentOrigin returns the absolute content origin of id; NoNode maps
// to the root origin (0,0).
func (t *Tree) contentOrigin(id NodeID) Point {
	if id == NoNode {
		return Point{}
	}
	r := t.AbsoluteContentRect(id)
	return Point{r.X, r.Y}
}
