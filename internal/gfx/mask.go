package gfx

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/cbegin/phiview-go/internal/clip"
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// maskImage is a clip buffer on the GPU. The mask value lives in the red
// channel.
type maskImage struct {
	img *ebiten.Image
}

func newMaskImage(w, h int) clip.Buffer {
	return &maskImage{img: ebiten.NewImageWithOptions(image.Rect(0, 0, max(w, 1), max(h, 1)), &ebiten.NewImageOptions{Unmanaged: true})}
}

func maskColor(v uint8) color.RGBA {
	return color.RGBA{R: v, A: 0xff}
}

func (m *maskImage) Size() (int, int) {
	b := m.img.Bounds()
	return b.Dx(), b.Dy()
}

func (m *maskImage) Fill(v uint8) {
	m.img.Fill(maskColor(v))
}

func (m *maskImage) CopyFrom(src clip.Buffer) {
	s, ok := src.(*maskImage)
	if !ok {
		m.Fill(clip.Visible)
		return
	}
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy}
	m.img.DrawImage(s.img, op)
}

func (m *maskImage) FillQuads(quads []clip.Quad, v uint8) {
	if len(quads) == 0 {
		return
	}
	cr := float32(v) / 0xff
	vs := make([]ebiten.Vertex, 0, len(quads)*4)
	is := make([]uint16, 0, len(quads)*6)
	for _, q := range quads {
		base := uint16(len(vs))
		for _, p := range q {
			vs = append(vs, ebiten.Vertex{
				DstX: float32(p.X), DstY: float32(p.Y),
				SrcX: 1, SrcY: 1,
				ColorR: cr, ColorA: 1,
			})
		}
		is = append(is, base, base+1, base+2, base, base+2, base+3)
	}
	op := &ebiten.DrawTrianglesOptions{Blend: ebiten.BlendCopy}
	m.img.DrawTriangles(vs, is, whiteSubImage, op)
}
