// internal/report/report_test.go
package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/etree"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/report"
)

type tagLabels struct{ tree *layout.Tree }

func (l tagLabels) Label(id layout.NodeID) string { return "<" + l.tree.Node(id).Tag + ">" }

// sample lays out a padded root with a sized box, a text run and a
// sticky box.
func sample(t *testing.T) (*layout.Tree, layout.Result) {
	t.Helper()
	tree := layout.NewTree()
	rootStyle := layout.DefaultStyle()
	rootStyle.Padding = layout.EdgeLengths{Top: layout.Px(10), Right: layout.Px(10), Bottom: layout.Px(10), Left: layout.Px(10)}
	root := tree.AddElement(layout.NoNode, "body", rootStyle)

	box := layout.DefaultStyle()
	box.Width, box.Height = layout.Px(100), layout.Px(50)
	tree.AddElement(root, "div", box)

	p := tree.AddElement(root, "p", layout.DefaultStyle())
	tree.AddText(p, "hello", layout.InlineStyle())

	sticky := layout.DefaultStyle()
	sticky.Position = layout.PositionSticky
	sticky.Inset = layout.EdgeLengths{Top: layout.Px(5), Right: layout.Auto, Bottom: layout.Auto, Left: layout.Auto}
	sticky.Height = layout.Px(20)
	tree.AddElement(root, "header", sticky)

	res := layout.NewEngine().Compute(tree, 400, 300)
	return tree, res
}

func TestBuild(t *testing.T) {
	tree, res := sample(t)
	r := report.Build("sample.html", tree, res, 400, 300, tagLabels{tree})

	assert.Equal(t, res.PassID, r.PassID)
	assert.Equal(t, tree.Len(), r.Nodes)
	require.NotNil(t, r.Root)
	assert.Equal(t, "<body>", r.Root.Label)
	assert.Equal(t, report.Edges{Top: 10, Right: 10, Bottom: 10, Left: 10}, r.Root.Padding)
	require.Len(t, r.Root.Children, 3)

	div := r.Root.Children[0]
	assert.Equal(t, "element", div.Kind)
	assert.Equal(t, report.Rect{X: 10, Y: 10, Width: 100, Height: 50}, div.Border)

	para := r.Root.Children[1]
	require.Len(t, para.Children, 1)
	text := para.Children[0]
	assert.Equal(t, "text", text.Kind)
	require.Len(t, text.Fragments, 1)
	frag := text.Fragments[0]
	assert.InDelta(t, 10.0, frag.X, 1e-9, "fragments are reported in absolute coordinates")
	assert.InDelta(t, 60.0, frag.Y, 1e-9)
	assert.InDelta(t, 5*0.6*16, frag.Width, 1e-9)
	assert.Equal(t, "hello", frag.Text)

	header := r.Root.Children[2]
	require.NotNil(t, header.Sticky)
	require.NotNil(t, header.Sticky.Top)
	assert.InDelta(t, 5.0, *header.Sticky.Top, 1e-9)
	assert.Nil(t, header.Sticky.Left, "auto insets are omitted")

	var visited int
	r.Walk(func(*report.Box, int) { visited++ })
	assert.Equal(t, tree.Len(), visited)
}

func TestBuild_EmptyTree(t *testing.T) {
	r := report.Build("", layout.NewTree(), layout.Result{}, 800, 600, nil)
	assert.Nil(t, r.Root)

	var buf bytes.Buffer
	require.NoError(t, report.WriteSVG(&buf, r))
	assert.Contains(t, buf.String(), `width="800"`)
}

func TestWriteJSON(t *testing.T) {
	tree, res := sample(t)
	r := report.Build("sample.html", tree, res, 400, 300, nil)

	var pretty, compact bytes.Buffer
	require.NoError(t, report.WriteJSON(&pretty, r, true))
	require.NoError(t, report.WriteJSON(&compact, r, false))
	assert.Contains(t, pretty.String(), "\n  \"pass_id\"")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(compact.String()), "\n")+1, "compact output is one line")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(compact.Bytes(), &decoded))
	assert.Equal(t, "sample.html", decoded["source"])
	assert.Equal(t, res.PassID, decoded["pass_id"])
	root := decoded["root"].(map[string]any)
	assert.Equal(t, "body", root["label"], "without a labeler the tag is used")
	children := root["children"].([]any)
	header := children[2].(map[string]any)
	sticky := header["sticky"].(map[string]any)
	assert.EqualValues(t, 5, sticky["top"])
	assert.NotContains(t, sticky, "left")
}

func TestWriteSVG(t *testing.T) {
	tree, res := sample(t)
	r := report.Build("sample.html", tree, res, 400, 300, nil)

	var buf bytes.Buffer
	require.NoError(t, report.WriteSVG(&buf, r))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))
	svg := doc.SelectElement("svg")
	require.NotNil(t, svg)
	assert.Equal(t, "400", svg.SelectAttrValue("width", ""))
	assert.Equal(t, res.PassID, svg.SelectAttrValue("data-pass-id", ""))
	assert.Equal(t, "sample.html", svg.SelectElement("title").Text())

	groups := svg.FindElements("//g")
	assert.Len(t, groups, tree.Len(), "one group per box")
	div := svg.FindElement(`//g[@data-label='div']/rect`)
	require.NotNil(t, div)
	assert.Equal(t, "10", div.SelectAttrValue("x", ""))
	assert.Equal(t, "100", div.SelectAttrValue("width", ""))
	text := svg.FindElement(`//rect[@data-line='0']`)
	require.NotNil(t, text, "text fragments are outlined per line")
	assert.Equal(t, "48", text.SelectAttrValue("width", ""))
}
