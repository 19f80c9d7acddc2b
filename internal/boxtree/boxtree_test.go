// internal/boxtree/boxtree_test.go
package boxtree_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/boxflow/internal/boxtree"
	"github.com/xkilldash9x/boxflow/internal/css"
	"github.com/xkilldash9x/boxflow/internal/layout"
)

// -- Test Helpers --

func build(t *testing.T, markup string, opts ...boxtree.Option) *boxtree.Document {
	t.Helper()
	opts = append([]boxtree.Option{boxtree.WithLogger(zaptest.NewLogger(t)), boxtree.WithViewport(800, 600)}, opts...)
	doc, err := boxtree.NewBuilder(opts...).Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func layoutDoc(t *testing.T, markup string, opts ...boxtree.Option) *boxtree.Document {
	t.Helper()
	doc := build(t, markup, opts...)
	layout.NewEngine(layout.WithLogger(zaptest.NewLogger(t))).Compute(doc.Tree, 800, 600)
	return doc
}

func geometry(t *testing.T, doc *boxtree.Document, xpath string) layout.Rect {
	t.Helper()
	r, err := doc.Geometry(xpath)
	require.NoError(t, err)
	return r
}

const reset = `<style>html, body { margin: 0; padding: 0 }</style>`

// -- Test Cases --

func TestBuild_MarginCollapse(t *testing.T) {
	doc := layoutDoc(t, reset+`
		<div id="a" style="height: 10px; margin-bottom: 20px"></div>
		<div id="b" style="height: 10px; margin-top: 10px"></div>`)

	a := geometry(t, doc, `//*[@id="a"]`)
	b := geometry(t, doc, `//*[@id="b"]`)
	assert.InDelta(t, 20.0, b.Y-(a.Y+a.Height), 1e-9, "adjoining margins collapse to the larger")
	assert.InDelta(t, 800.0, a.Width, 1e-9)
}

func TestBuild_AbsoluteInsidePositioned(t *testing.T) {
	doc := layoutDoc(t, reset+`
		<div style="position: relative; margin: 40px 0 0 50px; width: 200px; height: 200px">
			<div id="abs" style="position: absolute; left: 20px; top: 20px; width: 10px; height: 10px"></div>
		</div>`)

	r := geometry(t, doc, `//*[@id="abs"]`)
	assert.InDelta(t, 70.0, r.X, 1e-9)
	assert.InDelta(t, 60.0, r.Y, 1e-9)
}

func TestBuild_FlexGrowFromStylesheet(t *testing.T) {
	doc := layoutDoc(t, reset+`
		<style>
			.row { display: flex; width: 400px }
			.row > div { flex: 1 }
			.row > .wide { flex-grow: 2 }
		</style>
		<div class="row">
			<div id="f1"></div>
			<div id="f2"></div>
			<div id="f3" class="wide"></div>
		</div>`)

	assert.InDelta(t, 100.0, geometry(t, doc, `//*[@id="f1"]`).Width, 1e-9)
	assert.InDelta(t, 100.0, geometry(t, doc, `//*[@id="f2"]`).Width, 1e-9)
	assert.InDelta(t, 200.0, geometry(t, doc, `//*[@id="f3"]`).Width, 1e-9)
}

func TestBuild_LooseTextInContainers(t *testing.T) {
	doc := layoutDoc(t, reset+`
		<div id="row" style="display:flex;width:300px;height:50px">hi<span id="s" style="width:20px">x</span></div>
		<div id="grid" style="display:grid;grid-template-columns:200px">hello</div>
		<div id="sized" style="width:300px;height:400px"></div>`)

	anonymousItem := func(xpath string) layout.Rect {
		t.Helper()
		ids, err := doc.Query(xpath)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		anon := doc.Tree.Node(ids[0]).Parent
		require.True(t, doc.Tree.Node(anon).IsAnonymous(), "loose text is wrapped in an anonymous item")
		return doc.Tree.AbsoluteBorderBox(anon)
	}

	row := geometry(t, doc, `//*[@id="row"]`)
	item := anonymousItem(`//*[@id="row"]/text()`)
	assert.InDelta(t, row.X, item.X, 1e-9)
	assert.InDelta(t, row.Y, item.Y, 1e-9)
	assert.InDelta(t, 50.0, item.Height, 1e-9)
	span := geometry(t, doc, `//*[@id="s"]`)
	assert.InDelta(t, item.X+item.Width, span.X, 1e-9)
	assert.InDelta(t, 20.0, span.Width, 1e-9)

	grid := geometry(t, doc, `//*[@id="grid"]`)
	cell := anonymousItem(`//*[@id="grid"]/text()`)
	assert.InDelta(t, 0.0, cell.X, 1e-9)
	assert.InDelta(t, grid.Y, cell.Y, 1e-9)
	assert.InDelta(t, 200.0, cell.Width, 1e-9)

	sized := geometry(t, doc, `//*[@id="sized"]`)
	assert.InDelta(t, 0.0, sized.X, 1e-9)
}

func TestBuild_WhitespaceAndBreaks(t *testing.T) {
	doc := build(t, `<body>
		<div id="blocks">
			<p>one</p>
			<p>two</p>
		</div>
		<p id="inline">a <b>bold</b> word<br>next</p>
	</body>`)

	ids, err := doc.Query(`//*[@id="blocks"]`)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	for _, c := range doc.Tree.Node(ids[0]).Children {
		assert.False(t, doc.Tree.Node(c).IsText(), "white space between blocks is dropped")
	}

	ids, err = doc.Query(`//*[@id="inline"]`)
	require.NoError(t, err)
	var texts []string
	for _, c := range doc.Tree.Node(ids[0]).Children {
		if n := doc.Tree.Node(c); n.IsText() {
			texts = append(texts, n.Text)
		}
	}
	assert.Equal(t, []string{"a ", " word", "\n", "next"}, texts, "inline white space and <br> survive")
}

func TestBuild_StyleSources(t *testing.T) {
	doc := layoutDoc(t, reset+`
		<style media="print">#box { width: 10px }</style>
		<style media="screen and (min-width: 1px)">#box { height: 30px }</style>
		<div id="box"></div>
		<div id="hidden" style="display: none"><span>x</span></div>`,
		boxtree.WithStylesheet(css.Parse(`#box { width: 120px }`)))

	assert.Equal(t, 3, doc.Sheets, "one option sheet and two screen sheets, the reset included")
	box := geometry(t, doc, `//div[@id="box"]`)
	assert.InDelta(t, 120.0, box.Width, 1e-9, "print sheets are ignored")
	assert.InDelta(t, 30.0, box.Height, 1e-9)

	_, err := doc.Geometry(`//*[@id="hidden"]`)
	assert.ErrorContains(t, err, "not rendered")
	_, err = doc.Geometry(`//*[@id="missing"]`)
	assert.ErrorContains(t, err, "element not found")
	_, err = doc.Geometry(`//div[`)
	assert.ErrorContains(t, err, "invalid XPath")
	_, err = doc.Query(`//div[`)
	assert.Error(t, err)
}

func TestDocument_Mapping(t *testing.T) {
	doc := build(t, `<div id="main" class="card wide"><span>text</span></div>`)

	var ids []layout.NodeID
	for _, xpath := range []string{`//div`, `//span`, `//span/text()`} {
		found, err := doc.Query(xpath)
		require.NoError(t, err)
		require.Len(t, found, 1, xpath)
		ids = append(ids, found[0])
	}
	assert.Equal(t, "div#main.card.wide", doc.Label(ids[0]))
	assert.Equal(t, "span", doc.Label(ids[1]))
	assert.Equal(t, "#text", doc.Label(ids[2]))

	el := doc.ElementFor(ids[0])
	require.NotNil(t, el)
	back, ok := doc.NodeFor(el)
	assert.True(t, ok)
	assert.Equal(t, ids[0], back)
	assert.Equal(t, "html", doc.Label(doc.Tree.Root()))
}

func TestBuilder_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<p>hi</p>`), 0o600))

	doc, err := boxtree.NewBuilder().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Tree.Len(), "html, body, p and the text; head is not rendered")

	_, err = boxtree.NewBuilder().ParseFile(filepath.Join(t.TempDir(), "missing.html"))
	assert.ErrorContains(t, err, "failed to open")
}
