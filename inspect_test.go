package phiview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intchart "github.com/cbegin/phiview-go/internal/chart"
)

func TestSummarize(t *testing.T) {
	c, err := intchart.Parse([]byte(testChart))
	require.NoError(t, err)

	s := Summarize(c)
	assert.Equal(t, 3, s.FormatVersion)
	assert.Equal(t, 1, s.Lines)
	assert.Equal(t, 5, s.Notes)
	assert.Equal(t, [2]int{1, 1}, s.ByType[intchart.Tap])
	assert.Equal(t, [2]int{1, 0}, s.ByType[intchart.Flick])
	assert.Equal(t, [2]int{1, 0}, s.ByType[intchart.Hold])
	assert.Equal(t, 2, s.Siblings, "tap and flick are half a unit apart")
	assert.InDelta(t, 10000, s.LastNote, 1e-9)

	assert.Zero(t, Summarize(nil).Notes)
}

func TestSummarizeFrame(t *testing.T) {
	v, _, _ := newTestViewer(t)
	rec := v.RenderFrameAt(0, 2000, 900)
	s := SummarizeFrame(rec)
	assert.Positive(t, s.Rects)
	assert.Positive(t, s.Texts)
	assert.GreaterOrEqual(t, s.MaxDepth, 1)
}
