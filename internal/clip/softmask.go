package clip

import "math"

// SoftMask is a CPU mask buffer, one byte per texel. It is used for headless
// frames and as the reference behaviour for GPU buffers.
type SoftMask struct {
	w, h int
	pix  []uint8
}

// NewSoftMask allocates a fully hidden mask.
func NewSoftMask(w, h int) *SoftMask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &SoftMask{w: w, h: h, pix: make([]uint8, w*h)}
}

// NewSoftBuffer adapts NewSoftMask to NewBufferFunc.
func NewSoftBuffer(w, h int) Buffer {
	return NewSoftMask(w, h)
}

func (m *SoftMask) Size() (int, int) { return m.w, m.h }

func (m *SoftMask) Fill(v uint8) {
	for i := range m.pix {
		m.pix[i] = v
	}
}

func (m *SoftMask) CopyFrom(src Buffer) {
	if s, ok := src.(*SoftMask); ok {
		copy(m.pix, s.pix)
		return
	}
	// other buffer kinds carry no readable texels
	m.Fill(Visible)
}

// At returns the texel containing (x, y). Outside the mask everything is hidden.
func (m *SoftMask) At(x, y float64) uint8 {
	ix, iy := int(math.Floor(x)), int(math.Floor(y))
	if ix < 0 || iy < 0 || ix >= m.w || iy >= m.h {
		return Hidden
	}
	return m.pix[iy*m.w+ix]
}

// Pix exposes the raw texels, row-major.
func (m *SoftMask) Pix() []uint8 {
	return m.pix
}

// FillQuads writes v to every texel whose centre lies inside a quad.
func (m *SoftMask) FillQuads(quads []Quad, v uint8) {
	for _, q := range quads {
		m.fillQuad(q, v)
	}
}

func (m *SoftMask) fillQuad(q Quad, v uint8) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	x0 := clampIndex(math.Floor(minX), m.w)
	x1 := clampIndex(math.Ceil(maxX), m.w)
	y0 := clampIndex(math.Floor(minY), m.h)
	y1 := clampIndex(math.Ceil(maxY), m.h)
	for y := y0; y < y1; y++ {
		cy := float64(y) + 0.5
		row := m.pix[y*m.w : (y+1)*m.w]
		for x := x0; x < x1; x++ {
			if contains(q, float64(x)+0.5, cy) {
				row[x] = v
			}
		}
	}
}

func clampIndex(v float64, n int) int {
	if v < 0 {
		return 0
	}
	if v > float64(n) {
		return n
	}
	return int(v)
}

// contains tests a point against a convex quad of either winding. Points on an
// edge count as inside.
func contains(q Quad, x, y float64) bool {
	var pos, neg bool
	for i := range q {
		a, b := q[i], q[(i+1)%len(q)]
		c := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}
