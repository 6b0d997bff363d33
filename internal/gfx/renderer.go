// Package gfx draws through Ebitengine. Clip masks are offscreen images; draws
// made while a mask is active collect in a layer that is multiplied by the
// mask when the clip state changes.
package gfx

import (
	"bytes"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cbegin/phiview-go/internal/clip"
	"github.com/cbegin/phiview-go/internal/logging"
	"github.com/cbegin/phiview-go/internal/render"
)

var maskShaderSrc = []byte(`//kage:unit pixels

package main

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return imageSrc0At(srcPos) * imageSrc1At(srcPos).r
}
`)

// Renderer implements render.Renderer on an *ebiten.Image target.
type Renderer struct {
	render.Xform

	target *ebiten.Image
	layer  *ebiten.Image
	dirty  bool
	clips  *clip.Stack
	// plain[d] reports that the mask at depth d is known to be fully visible.
	plain  []bool
	shader *ebiten.Shader
	font   *text.GoTextFaceSource
	faces  map[float64]*text.GoTextFace
}

// New compiles the mask shader and loads the Go Regular face.
func New() (*Renderer, error) {
	shader, err := ebiten.NewShader(maskShaderSrc)
	if err != nil {
		return nil, err
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, err
	}
	return &Renderer{shader: shader, font: src, faces: map[float64]*text.GoTextFace{}}, nil
}

// SetTarget selects the image the next frame draws into.
func (r *Renderer) SetTarget(img *ebiten.Image) {
	r.target = img
}

func (r *Renderer) BeginFrame(w, h int) {
	if r.layer == nil || r.layer.Bounds().Dx() != w || r.layer.Bounds().Dy() != h {
		if r.layer != nil {
			r.layer.Deallocate()
		}
		r.layer = ebiten.NewImage(max(w, 1), max(h, 1))
		logging.L().Debug("render target resized", "w", w, "h", h)
	}
	if r.clips == nil {
		r.clips = clip.NewStack(w, h, newMaskImage)
	} else {
		r.clips.Resize(w, h)
	}
	r.clips.Reset()
	r.plain = append(r.plain[:0], true)
	r.dirty = false
	r.ResetTransform()
}

func (r *Renderer) EndFrame() {
	r.flush()
}

func (r *Renderer) PushClip() {
	r.flush()
	r.clips.Push()
	d := r.clips.Depth()
	r.plain = append(r.plain[:d], r.plain[d-1])
}

func (r *Renderer) PopClip() {
	r.flush()
	r.clips.Pop()
	r.plain = r.plain[:r.clips.Depth()+1]
}

func (r *Renderer) ClipRect(x, y, w, h float64) {
	r.flush()
	r.clips.ClipRect(r.Transform(), x, y, w, h)
	r.plain[r.clips.Depth()] = false
}

func (r *Renderer) ClearClip() {
	r.flush()
	r.clips.Clear()
	r.plain[r.clips.Depth()] = true
}

func (r *Renderer) ClipDepth() int {
	return r.clips.Depth()
}

// dst is where the next draw goes: the target when nothing is masked, else the
// layer awaiting the mask.
func (r *Renderer) dst() *ebiten.Image {
	if r.plain[r.clips.Depth()] {
		return r.target
	}
	r.dirty = true
	return r.layer
}

// flush composites the layer through the current mask.
func (r *Renderer) flush() {
	if !r.dirty || r.target == nil {
		return
	}
	mask := r.clips.Top().(*maskImage)
	b := r.layer.Bounds()
	op := &ebiten.DrawRectShaderOptions{}
	op.Images[0] = r.layer
	op.Images[1] = mask.img
	r.target.DrawRectShader(b.Dx(), b.Dy(), r.shader, op)
	r.layer.Clear()
	r.dirty = false
}

// GeoM converts an affine mgl64 matrix to Ebitengine's representation.
func GeoM(m mgl64.Mat3) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[3])
	g.SetElement(0, 2, m[6])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[4])
	g.SetElement(1, 2, m[7])
	return g
}

func (r *Renderer) place(g *ebiten.GeoM, x, y, sx, sy float64) {
	g.Scale(sx, sy)
	g.Translate(x, y)
	g.Concat(GeoM(r.Transform()))
}

func (r *Renderer) DrawTexture(tex render.Texture, x, y, w, h float64, tint render.Tint) {
	img, ok := tex.(*ebiten.Image)
	if !ok || img == nil || r.target == nil {
		return
	}
	b := img.Bounds()
	if b.Empty() {
		return
	}
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	r.place(&op.GeoM, x, y, w/float64(b.Dx()), h/float64(b.Dy()))
	op.ColorScale = tintScale(tint)
	r.dst().DrawImage(img, op)
}

func tintScale(t render.Tint) ebiten.ColorScale {
	mix := func(c float64) float32 {
		return float32((1 + (c-1)*t.Factor) * t.Alpha)
	}
	var cs ebiten.ColorScale
	cs.Scale(mix(t.R), mix(t.G), mix(t.B), float32(t.Alpha))
	return cs
}

func (r *Renderer) DrawRect(c color.Color, x, y, w, h float64) {
	if r.target == nil || w == 0 || h == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	r.place(&op.GeoM, x, y, w, h)
	op.ColorScale.ScaleWithColor(c)
	r.dst().DrawImage(whiteSubImage, op)
}

func (r *Renderer) face(size float64) *text.GoTextFace {
	f, ok := r.faces[size]
	if !ok {
		f = &text.GoTextFace{Source: r.font, Size: size}
		r.faces[size] = f
	}
	return f
}

func (r *Renderer) MeasureText(s string, size float64) (float64, float64) {
	if size <= 0 {
		return 0, 0
	}
	f := r.face(size)
	w, _ := text.Measure(s, f, 0)
	m := f.Metrics()
	return w, m.HAscent + m.HDescent
}

func (r *Renderer) DrawText(s string, c color.Color, size, x, y float64) {
	if r.target == nil || size <= 0 || s == "" {
		return
	}
	f := r.face(size)
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y-f.Metrics().HAscent)
	op.GeoM.Concat(GeoM(r.Transform()))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(r.dst(), s, f, op)
}

// Converter uploads decoded images for drawing.
func Converter(img image.Image) render.Texture {
	if img == nil {
		return nil
	}
	if e, ok := img.(*ebiten.Image); ok {
		return e
	}
	return ebiten.NewImageFromImage(img)
}

var _ render.Renderer = (*Renderer)(nil)
