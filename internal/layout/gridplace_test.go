// internal/layout/gridplace_test.go
package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/gridsyntax"
)

func testPass() *pass {
	return &pass{
		ctx:       &Context{ViewportW: 800, ViewportH: 600, Logger: zap.NewNop(), MaxDepth: DefaultMaxDepth, charRatio: DefaultCharWidthRatio, monoRatio: DefaultMonoWidthRatio},
		tree:      NewTree(),
		intrinsic: make(map[NodeID]intrinsicSize),
		borders:   make(map[NodeID]Edges),
	}
}

func autoItem() *gridItem {
	it := &gridItem{}
	auto := gridsyntax.Placement{Start: gridsyntax.AutoLine, End: gridsyntax.AutoLine}
	r := lineResolver{explicit: 0}
	it.resolveAxis(axisRow, auto, r)
	it.resolveAxis(axisCol, auto, r)
	return it
}

func spanItem(colSpan int) *gridItem {
	it := autoItem()
	it.span[axisCol] = colSpan
	return it
}

func cellOf(it *gridItem) [2]int { return [2]int{it.start[axisRow], it.start[axisCol]} }

func TestLineResolver(t *testing.T) {
	r := lineResolver{names: [][]string{{"a"}, nil, {"b", "a-end"}, nil}, explicit: 3}

	tests := []struct {
		name string
		line gridsyntax.Line
		end  bool
		want int
		ok   bool
	}{
		{"Numeric", gridsyntax.Line{Index: 2}, false, 1, true},
		{"NegativeFromEnd", gridsyntax.Line{Index: -1}, false, 3, true},
		{"NegativeClamped", gridsyntax.Line{Index: -9}, false, 0, true},
		{"Named", gridsyntax.Line{Name: "b"}, false, 2, true},
		{"AreaEndSuffix", gridsyntax.Line{Name: "a"}, true, 2, true},
		{"AreaStartFallsBackToName", gridsyntax.Line{Name: "a"}, false, 0, true},
		{"NamedBeyondMatches", gridsyntax.Line{Name: "b", Index: 2}, false, 4, true},
		{"Unknown", gridsyntax.Line{Name: "nope"}, false, 0, false},
		{"Span", gridsyntax.Line{Span: 2}, false, 0, false},
		{"Auto", gridsyntax.AutoLine, false, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.resolve(tc.line, tc.end)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestGridItem_ResolveAxis(t *testing.T) {
	r := lineResolver{names: make([][]string, 4), explicit: 3}

	it := &gridItem{}
	it.resolveAxis(axisCol, gridsyntax.Placement{Start: gridsyntax.Line{Index: 3}, End: gridsyntax.Line{Index: 1}}, r)
	assert.True(t, it.def[axisCol])
	assert.Equal(t, 0, it.start[axisCol], "reversed lines swap")
	assert.Equal(t, 2, it.end[axisCol])

	it = &gridItem{}
	it.resolveAxis(axisCol, gridsyntax.Placement{Start: gridsyntax.Line{Index: 2}, End: gridsyntax.Line{Span: 2}}, r)
	assert.Equal(t, [2]int{0, 1}, [2]int{it.start[axisRow], it.start[axisCol]})
	assert.Equal(t, 3, it.end[axisCol])

	it = &gridItem{}
	it.resolveAxis(axisRow, gridsyntax.Placement{Start: gridsyntax.Line{Span: 3}, End: gridsyntax.AutoLine}, r)
	assert.False(t, it.def[axisRow])
	assert.Equal(t, 3, it.span[axisRow])
}

func TestPlaceGridItems(t *testing.T) {
	t.Run("RowFlowFillsColumnsFirst", func(t *testing.T) {
		items := []*gridItem{autoItem(), autoItem(), autoItem()}
		counts := placeGridItems(items, GridFlowRow, [2]int{0, 2})
		assert.Equal(t, [2]int{0, 0}, cellOf(items[0]))
		assert.Equal(t, [2]int{0, 1}, cellOf(items[1]))
		assert.Equal(t, [2]int{1, 0}, cellOf(items[2]))
		assert.Equal(t, [2]int{2, 2}, counts)
	})

	t.Run("ColumnFlow", func(t *testing.T) {
		items := []*gridItem{autoItem(), autoItem(), autoItem()}
		counts := placeGridItems(items, GridFlowColumn, [2]int{2, 0})
		assert.Equal(t, [2]int{0, 0}, cellOf(items[0]))
		assert.Equal(t, [2]int{1, 0}, cellOf(items[1]))
		assert.Equal(t, [2]int{0, 1}, cellOf(items[2]))
		assert.Equal(t, [2]int{2, 2}, counts)
	})

	t.Run("DefiniteItemsClaimCellsFirst", func(t *testing.T) {
		r := lineResolver{names: make([][]string, 3), explicit: 2}
		pinned := &gridItem{}
		pl := gridsyntax.Placement{Start: gridsyntax.Line{Index: 1}, End: gridsyntax.Line{Index: 2}}
		pinned.resolveAxis(axisRow, pl, r)
		pinned.resolveAxis(axisCol, pl, r)
		items := []*gridItem{autoItem(), pinned, autoItem()}
		placeGridItems(items, GridFlowRow, [2]int{0, 2})
		assert.Equal(t, [2]int{0, 0}, cellOf(pinned))
		assert.Equal(t, [2]int{0, 1}, cellOf(items[0]))
		assert.Equal(t, [2]int{1, 0}, cellOf(items[2]))
	})

	t.Run("SparseLeavesHoles", func(t *testing.T) {
		items := []*gridItem{spanItem(1), spanItem(3), spanItem(1)}
		counts := placeGridItems(items, GridFlowRow, [2]int{0, 3})
		assert.Equal(t, [2]int{0, 0}, cellOf(items[0]))
		assert.Equal(t, [2]int{1, 0}, cellOf(items[1]))
		assert.Equal(t, [2]int{2, 0}, cellOf(items[2]))
		assert.Equal(t, 3, counts[axisRow])
	})

	t.Run("DenseBackfills", func(t *testing.T) {
		items := []*gridItem{spanItem(1), spanItem(3), spanItem(1)}
		counts := placeGridItems(items, GridFlowRowDense, [2]int{0, 3})
		assert.Equal(t, [2]int{1, 0}, cellOf(items[1]))
		assert.Equal(t, [2]int{0, 1}, cellOf(items[2]))
		assert.Equal(t, 2, counts[axisRow])
	})

	t.Run("WideItemGrowsImplicitColumns", func(t *testing.T) {
		items := []*gridItem{spanItem(4)}
		counts := placeGridItems(items, GridFlowRow, [2]int{0, 2})
		assert.Equal(t, 4, counts[axisCol])
		assert.Equal(t, 4, items[0].end[axisCol])
	})
}

func TestSizeTracks_Definite(t *testing.T) {
	p := testPass()
	list, err := gridsyntax.ParseTracks("100px 1fr 2fr")
	require.NoError(t, err)
	g := &gridAxis{}
	for _, tr := range list.Tracks {
		g.tracks = append(g.tracks, gridTrack{fn: tr})
	}
	p.sizeTracks(g, 400, 16, false)
	assert.InDelta(t, 100.0, g.tracks[0].size, 1e-9)
	assert.InDelta(t, 100.0, g.tracks[1].size, 1e-9)
	assert.InDelta(t, 200.0, g.tracks[2].size, 1e-9)

	g.gap = 10
	p.sizeTracks(g, 400, 16, false)
	assert.InDelta(t, 400.0, g.total(), 1e-9, "tracks and gaps fill the container")
}

func TestSizeTracks_ContentSplit(t *testing.T) {
	p := testPass()
	list, err := gridsyntax.ParseTracks("auto minmax(50px, 80px) auto")
	require.NoError(t, err)
	g := &gridAxis{}
	for _, tr := range list.Tracks {
		g.tracks = append(g.tracks, gridTrack{fn: tr})
	}
	p.sizeTracks(g, 300, 16, false)
	assert.InDelta(t, 80.0, g.tracks[1].size, 1e-9, "minmax grows to its maximum first")
	assert.InDelta(t, 110.0, g.tracks[0].size, 1e-9)
	assert.InDelta(t, 110.0, g.tracks[2].size, 1e-9)
}

func TestAutoRepeatCount(t *testing.T) {
	p := testPass()
	n := &Node{Style: DefaultStyle()}
	list, err := gridsyntax.ParseTracks("repeat(auto-fill, minmax(100px, 1fr))")
	require.NoError(t, err)
	assert.Equal(t, 2, p.autoRepeatCount(n, list, 250, 0))
	assert.Equal(t, 1, p.autoRepeatCount(n, list, 50, 0), "at least one repetition")
	assert.Equal(t, 3, p.autoRepeatCount(n, list, 340, 10))
}
