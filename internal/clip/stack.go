// Package clip implements nested clipping with full-target alpha masks. Each
// depth of the stack owns one mask; drawing samples the mask at the current
// depth and multiplies it into coverage. Rectangles are clipped by painting
// their complement, which keeps the result correct under any affine transform.
package clip

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/cbegin/phiview-go/internal/mathx"
)

const (
	// Hidden and Visible are the two mask values written by the stack.
	Hidden  uint8 = 0
	Visible uint8 = 255
)

// Point is a position in render-target pixels.
type Point struct {
	X, Y float64
}

// Quad is a convex quadrilateral in render-target pixels, corners in order.
type Quad [4]Point

// Buffer is the storage behind one stack depth.
type Buffer interface {
	Size() (w, h int)
	// Fill sets every texel to v.
	Fill(v uint8)
	// CopyFrom replaces the contents with those of src, which has the same size.
	CopyFrom(src Buffer)
	// FillQuads overwrites the texels covered by quads with v, without blending.
	FillQuads(quads []Quad, v uint8)
}

// NewBufferFunc allocates a buffer of the given size.
type NewBufferFunc func(w, h int) Buffer

// Stack is a depth-indexed stack of equally sized mask buffers. Buffers are
// kept across Pop so a frame that pushes to the same depth again reuses them.
type Stack struct {
	newBuffer NewBufferFunc
	buffers   []Buffer
	depth     int
	w, h      int
}

// NewStack creates a stack with an unclipped depth 0.
func NewStack(w, h int, newBuffer NewBufferFunc) *Stack {
	s := &Stack{newBuffer: newBuffer, w: w, h: h}
	s.buffers = []Buffer{newBuffer(w, h)}
	s.buffers[0].Fill(Visible)
	return s
}

// Size returns the target resolution the buffers are allocated for.
func (s *Stack) Size() (w, h int) {
	return s.w, s.h
}

// Depth is the current clip level. Depth 0 is unclipped.
func (s *Stack) Depth() int {
	return s.depth
}

// Allocated reports how many depth buffers exist.
func (s *Stack) Allocated() int {
	return len(s.buffers)
}

// Top returns the buffer at the current depth.
func (s *Stack) Top() Buffer {
	return s.buffers[s.depth]
}

// Resize reallocates every buffer when the target resolution changes. Existing
// depth levels are recreated, never stretched, and start out fully visible.
func (s *Stack) Resize(w, h int) bool {
	if w == s.w && h == s.h {
		return false
	}
	s.w, s.h = w, h
	for i := range s.buffers {
		s.buffers[i] = s.newBuffer(w, h)
		s.buffers[i].Fill(Visible)
	}
	return true
}

// Push duplicates the current mask into the next depth, allocating it on
// first use.
func (s *Stack) Push() {
	old := s.buffers[s.depth]
	s.depth++
	if s.depth == len(s.buffers) {
		s.buffers = append(s.buffers, s.newBuffer(s.w, s.h))
	}
	s.buffers[s.depth].CopyFrom(old)
}

// Pop returns to the previous depth. Popping at depth 0 does nothing.
func (s *Stack) Pop() {
	if s.depth == 0 {
		return
	}
	s.depth--
}

// Clear makes the current mask fully visible.
func (s *Stack) Clear() {
	s.buffers[s.depth].Fill(Visible)
}

// Reset returns to depth 0 and clears it.
func (s *Stack) Reset() {
	s.depth = 0
	s.Clear()
}

// ClipRect restricts the current mask to the rectangle (x, y, w, h) given in
// the local space of m.
func (s *Stack) ClipRect(m mgl64.Mat3, x, y, w, h float64) {
	s.buffers[s.depth].FillQuads(ComplementQuads(m, float64(s.w), float64(s.h), x, y, w, h), Hidden)
}

// ComplementQuads returns four quads that together cover everything around
// the rectangle out to a margin large enough for a tw×th target.
func ComplementQuads(m mgl64.Mat3, tw, th, x, y, w, h float64) []Quad {
	p := tw + th + w + h
	return []Quad{
		quad(m, x-p, y, p, p),
		quad(m, x, y+h, p, p),
		quad(m, x+w, y+h-p, p, p),
		quad(m, x-p, y-p, p*2, p),
	}
}

func quad(m mgl64.Mat3, x, y, w, h float64) Quad {
	var q Quad
	for i, c := range [4][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}} {
		q[i].X, q[i].Y = mathx.Apply(m, c[0], c[1])
	}
	return q
}
