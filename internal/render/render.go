// Package render defines the drawing surface the viewer targets. Coordinates
// are render-target pixels transformed by the current affine matrix.
package render

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Texture is anything with pixel bounds, for example *ebiten.Image.
type Texture interface {
	Bounds() image.Rectangle
}

// Tint mixes a colour into a texture and scales its alpha.
type Tint struct {
	R, G, B float64
	Factor  float64 // 0 keeps texture colour, 1 replaces it
	Alpha   float64
}

// Opaque draws a texture unchanged.
var Opaque = Tint{R: 1, G: 1, B: 1, Alpha: 1}

// WithAlpha draws a texture unchanged at alpha a.
func WithAlpha(a float64) Tint {
	return Tint{R: 1, G: 1, B: 1, Alpha: a}
}

// Renderer is the drawing contract used by the frame orchestrator. Draw calls
// are multiplied by the clip mask at the current depth.
type Renderer interface {
	BeginFrame(w, h int)
	EndFrame()

	Transform() mgl64.Mat3
	SetTransform(m mgl64.Mat3)
	// Translate, Rotate and Scale compose in local space: the new operation
	// applies before the existing transform.
	Translate(x, y float64)
	Rotate(radians float64)
	Scale(x, y float64)

	PushClip()
	PopClip()
	ClipRect(x, y, w, h float64)
	ClearClip()
	ClipDepth() int

	// DrawTexture draws tex stretched over (x, y, w, h). A nil texture is
	// skipped.
	DrawTexture(tex Texture, x, y, w, h float64, tint Tint)
	DrawRect(c color.Color, x, y, w, h float64)
	MeasureText(s string, size float64) (w, h float64)
	// DrawText draws s with its baseline at y.
	DrawText(s string, c color.Color, size, x, y float64)
}

// Xform holds the current transform and implements the transform half of
// Renderer. Renderers embed it.
type Xform struct {
	m     mgl64.Mat3
	valid bool
}

func (x *Xform) Transform() mgl64.Mat3 {
	if !x.valid {
		return mgl64.Ident3()
	}
	return x.m
}

func (x *Xform) SetTransform(m mgl64.Mat3) {
	x.m = m
	x.valid = true
}

// ResetTransform sets the identity transform.
func (x *Xform) ResetTransform() {
	x.SetTransform(mgl64.Ident3())
}

func (x *Xform) Translate(tx, ty float64) {
	x.SetTransform(x.Transform().Mul3(mgl64.Translate2D(tx, ty)))
}

func (x *Xform) Rotate(radians float64) {
	x.SetTransform(x.Transform().Mul3(mgl64.HomogRotate2D(radians)))
}

func (x *Xform) Scale(sx, sy float64) {
	x.SetTransform(x.Transform().Mul3(mgl64.Scale2D(sx, sy)))
}

// StrokeRect outlines (x, y, w, h) with lines of width lw drawn inside the
// rectangle edge.
func StrokeRect(r Renderer, c color.Color, x, y, w, h, lw float64) {
	if lw <= 0 {
		return
	}
	if lw*2 >= w || lw*2 >= h {
		r.DrawRect(c, x, y, w, h)
		return
	}
	r.DrawRect(c, x, y, w, lw)
	r.DrawRect(c, x, y+h-lw, w, lw)
	r.DrawRect(c, x, y+lw, lw, h-lw*2)
	r.DrawRect(c, x+w-lw, y+lw, lw, h-lw*2)
}

// ColorAlpha returns c with its alpha replaced by a in [0,1], premultiplied.
func ColorAlpha(c color.RGBA, a float64) color.RGBA {
	if a <= 0 {
		return color.RGBA{}
	}
	if a > 1 {
		a = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}
