// internal/gridsyntax/gridsyntax_test.go
package gridsyntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTracks(t *testing.T) {
	t.Run("FixedAndFr", func(t *testing.T) {
		l, err := ParseTracks("100px 1fr 2fr")
		require.NoError(t, err)
		require.Len(t, l.Tracks, 3)
		assert.Equal(t, Size{Kind: SizeLength, Value: 100, Unit: "px"}, l.Tracks[0].Min)
		assert.Equal(t, SizeAuto, l.Tracks[1].Min.Kind, "a bare fr track has an auto minimum")
		assert.Equal(t, 2.0, l.Tracks[2].Max.Value)
		assert.False(t, l.HasAutoRepeat())
	})

	t.Run("RepeatCountAndNames", func(t *testing.T) {
		l, err := ParseTracks("[a] repeat(2, [b] 50px) [c]")
		require.NoError(t, err)
		require.Len(t, l.Tracks, 2)
		require.Len(t, l.Names, 3)
		assert.Equal(t, []string{"a", "b"}, l.Names[0])
		assert.Equal(t, []string{"b"}, l.Names[1])
		assert.Equal(t, []string{"c"}, l.Names[2])
	})

	t.Run("MinMaxAndFitContent", func(t *testing.T) {
		l, err := ParseTracks("minmax(100px, 1fr) fit-content(200px) min-content auto")
		require.NoError(t, err)
		require.Len(t, l.Tracks, 4)
		assert.Equal(t, SizeFr, l.Tracks[0].Max.Kind)
		assert.True(t, l.Tracks[1].FitContent)
		assert.Equal(t, 200.0, l.Tracks[1].Limit.Value)
		assert.Equal(t, SizeMinContent, l.Tracks[2].Min.Kind)
		assert.Equal(t, SizeAuto, l.Tracks[3].Max.Kind)
	})

	t.Run("AutoFitExpands", func(t *testing.T) {
		l, err := ParseTracks("[x] 10px repeat(auto-fit, minmax(100px, 1fr)) [y] 20px")
		require.NoError(t, err)
		require.True(t, l.HasAutoRepeat())
		assert.Equal(t, RepeatAutoFit, l.AutoMode)

		tracks, names, start, end := l.Expand(3)
		require.Len(t, tracks, 5)
		require.Len(t, names, 6)
		assert.Equal(t, 1, start)
		assert.Equal(t, 4, end)
		assert.Equal(t, []string{"x"}, names[0])
		assert.Equal(t, []string{"y"}, names[4])

		tracks, names, start, end = l.Expand(0)
		assert.Len(t, tracks, 2)
		assert.Len(t, names, 3)
		assert.Equal(t, start, end)
	})

	t.Run("None", func(t *testing.T) {
		l, err := ParseTracks("none")
		require.NoError(t, err)
		assert.Empty(t, l.Tracks)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseTracks("repeat(0, 10px)")
		assert.Error(t, err)
		_, err = ParseTracks("repeat(auto-fill, 10px) repeat(auto-fit, 10px)")
		assert.Error(t, err)
		_, err = ParseTracks("10px (")
		assert.Error(t, err)
	})
}

func TestParsePlacement(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Placement
	}{
		{"Numeric", "1 / 3", Placement{Start: Line{Index: 1}, End: Line{Index: 3}}},
		{"Negative", "1 / -1", Placement{Start: Line{Index: 1}, End: Line{Index: -1}}},
		{"Span", "2 / span 3", Placement{Start: Line{Index: 2}, End: Line{Span: 3}}},
		{"SpanOnly", "span 2", Placement{Start: Line{Span: 2}, End: AutoLine}},
		{"Named", "a-start / a-end", Placement{Start: Line{Name: "a-start"}, End: Line{Name: "a-end"}}},
		{"SingleIdent", "main", Placement{Start: Line{Name: "main"}, End: Line{Name: "main"}}},
		{"NamedIndex", "col 2", Placement{Start: Line{Name: "col", Index: 2}, End: AutoLine}},
		{"Empty", "", Placement{Start: AutoLine, End: AutoLine}},
		{"Auto", "auto / auto", Placement{Start: AutoLine, End: AutoLine}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePlacement(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParsePlacement("0")
	assert.Error(t, err)
	_, err = ParsePlacement("1 / 2 / 3")
	assert.Error(t, err)
}

func TestParseArea(t *testing.T) {
	a, err := ParseArea("header")
	require.NoError(t, err)
	assert.Equal(t, Line{Name: "header"}, a.Row.Start)
	assert.Equal(t, Line{Name: "header"}, a.Row.End)
	assert.Equal(t, Line{Name: "header"}, a.Column.Start)
	assert.Equal(t, Line{Name: "header"}, a.Column.End)

	a, err = ParseArea("1 / 2 / 3 / 4")
	require.NoError(t, err)
	assert.Equal(t, Placement{Start: Line{Index: 1}, End: Line{Index: 3}}, a.Row)
	assert.Equal(t, Placement{Start: Line{Index: 2}, End: Line{Index: 4}}, a.Column)
}

func TestParseAreas(t *testing.T) {
	a, err := ParseAreas(`"head head" "side main" ". main"`)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Rows)
	assert.Equal(t, 2, a.Columns)
	assert.Equal(t, AreaRect{RowStart: 0, RowEnd: 1, ColStart: 0, ColEnd: 2}, a.Named["head"])
	assert.Equal(t, AreaRect{RowStart: 1, RowEnd: 3, ColStart: 1, ColEnd: 2}, a.Named["main"])
	_, ok := a.Named["."]
	assert.False(t, ok)

	rows, cols := a.LineNames()
	assert.Contains(t, rows[0], "head-start")
	assert.Contains(t, rows[3], "main-end")
	assert.Contains(t, cols[1], "main-start")

	_, err = ParseAreas(`"a b" "b a"`)
	assert.Error(t, err, "non-rectangular areas are rejected")
	_, err = ParseAreas(`"a b" "c"`)
	assert.Error(t, err, "ragged rows are rejected")
}
