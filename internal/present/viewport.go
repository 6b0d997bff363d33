package present

import "github.com/cbegin/phiview-go/internal/mathx"

// Reference playfield the chart coordinates and HUD metrics are authored for.
const (
	RefWidth  = 1440.0
	RefHeight = 1080.0
)

// DefaultMaxAspect is the widest playfield before the sides are letterboxed.
const DefaultMaxAspect = 16.0 / 9.0

// Viewport describes the render target in pixels.
type Viewport struct {
	W, H      float64
	MaxAspect float64
}

func (v Viewport) maxAspect() float64 {
	if v.MaxAspect <= 0 {
		return DefaultMaxAspect
	}
	return v.MaxAspect
}

// XPad is the horizontal letterbox on each side when the target is wider than
// the maximum aspect.
func (v Viewport) XPad() float64 {
	if v.H <= 0 || v.W/v.H <= v.maxAspect() {
		return 0
	}
	return (v.W - v.H*v.maxAspect()) / 2
}

// PlayfieldWidth is the target width without the letterbox.
func (v Viewport) PlayfieldWidth() float64 {
	return v.W - v.XPad()*2
}

// Ratio scales reference pixels to target pixels.
func (v Viewport) Ratio() float64 {
	if v.H <= 0 {
		return 1
	}
	w := v.PlayfieldWidth()
	if w/v.H > RefWidth/RefHeight {
		return v.H / RefHeight
	}
	return w / RefWidth
}

// NoteRatio is Ratio shrunk further on playfields narrower than 16:9 so notes
// keep some room between them.
func (v Viewport) NoteRatio() float64 {
	ref := 16.0 / 9.0
	mult := 1.0
	if v.H > 0 {
		if aspect := v.PlayfieldWidth() / v.H; aspect < ref {
			mult = mathx.Lerp(1, aspect/ref, 0.8)
		}
	}
	return v.Ratio() * mult
}

// Canvas maps a normalized playfield position, origin bottom-left, to target
// pixels.
func (v Viewport) Canvas(nx, ny float64) (x, y float64) {
	return nx*v.PlayfieldWidth() + v.XPad(), v.H - ny*v.H
}
