// internal/layout/runs_test.go
package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMeasurer struct {
	mock.Mock
}

func (m *mockMeasurer) MeasureText(text string, font FontSpec) float64 {
	args := m.Called(text, font)
	if fn, ok := args.Get(0).(func(string, FontSpec) float64); ok {
		return fn(text, font)
	}
	return args.Get(0).(float64)
}

func TestRunBuilder_MeasuresEachStringOnce(t *testing.T) {
	font := FontSpec{Size: 10, Family: "serif"}
	m := &mockMeasurer{}
	m.On("MeasureText", "word", font).Return(42.0).Once()
	m.On("MeasureText", "other", font).Return(7.0).Once()

	p := testPass()
	p.ctx.Measurer = m
	b := newRunBuilder(p, 100, false, 0)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 42.0, b.measure("word", font))
	}
	assert.Equal(t, 7.0, b.measure("other", font))
	m.AssertExpectations(t)
}

func TestContext_MeasureFallback(t *testing.T) {
	p := testPass()
	font := FontSpec{Size: 20, Family: "Courier New"}
	assert.InDelta(t, 3*0.65*20, p.ctx.Measure("abc", font), 1e-9)
	font.LetterSpacing = 1
	assert.InDelta(t, 3*(0.65*20+1), p.ctx.Measure("abc", font), 1e-9)
	assert.Zero(t, p.ctx.Measure("", font))

	m := &mockMeasurer{}
	m.On("MeasureText", "neg", font).Return(-5.0)
	p.ctx.Measurer = m
	assert.Zero(t, p.ctx.Measure("neg", font), "negative widths clamp to zero")
}

func TestInlineLayout_UsesMeasurer(t *testing.T) {
	m := &mockMeasurer{}
	m.On("MeasureText", mock.Anything, mock.Anything).Return(func(text string, _ FontSpec) float64 {
		return float64(len([]rune(text))) * 5
	})

	tree := NewTree()
	root := tree.AddElement(NoNode, "html", DefaultStyle())
	para := tree.AddElement(root, "p", DefaultStyle())
	txt := tree.AddText(para, "alpha beta", InlineStyle())
	NewEngine(WithMeasurer(m)).Compute(tree, 800, 600)

	require.NotEmpty(t, tree.Node(txt).Fragments)
	m.AssertCalled(t, "MeasureText", "alpha", mock.Anything)
	assert.InDelta(t, 50.0, tree.Node(txt).Fragments[0].Rect.Width, 1e-9)
}
