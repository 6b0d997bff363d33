package phiview

import (
	"math"

	intchart "github.com/cbegin/phiview-go/internal/chart"
	intclip "github.com/cbegin/phiview-go/internal/clip"
	inteval "github.com/cbegin/phiview-go/internal/eval"
	intrender "github.com/cbegin/phiview-go/internal/render"
)

// ChartSummary describes a loaded chart.
type ChartSummary struct {
	FormatVersion int
	Offset        float64
	Lines         int
	Notes         int
	// ByType counts notes per type, split by side.
	ByType   map[intchart.NoteType][2]int
	Siblings int
	// LastNote is the chart time in ms of the latest judge or hold end.
	LastNote float64
}

// Summarize counts the notes of c.
func Summarize(c *intchart.Chart) ChartSummary {
	s := ChartSummary{ByType: map[intchart.NoteType][2]int{}}
	if c == nil {
		return s
	}
	s.FormatVersion = c.FormatVersion
	s.Offset = c.Offset
	s.Lines = len(c.Lines)
	c.EachNote(func(i int, side intchart.Side, n *intchart.Note) {
		s.Notes++
		counts := s.ByType[n.Type]
		counts[side]++
		s.ByType[n.Type] = counts
		if n.HasSibling {
			s.Siblings++
		}
		s.LastNote = math.Max(s.LastNote, inteval.Millis(c.Lines[i], n.EndTime()))
	})
	return s
}

// FrameSummary counts the draws of a recorded frame.
type FrameSummary struct {
	Textures, Rects, Texts int
	// Hidden draws fall entirely outside the clip in force at the time.
	Hidden   int
	MaxDepth int
}

// SummarizeFrame counts the draw commands in rec.
func SummarizeFrame(rec *intrender.Recorder) FrameSummary {
	var s FrameSummary
	for _, c := range rec.Draws() {
		switch c.Op {
		case intrender.OpTexture:
			s.Textures++
		case intrender.OpRect:
			s.Rects++
		case intrender.OpText:
			s.Texts++
		}
		if c.Coverage == intclip.Hidden {
			s.Hidden++
		}
		s.MaxDepth = max(s.MaxDepth, c.Depth)
	}
	return s
}
