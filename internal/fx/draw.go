package fx

import (
	"image/color"
	"math"

	"github.com/cbegin/phiview-go/internal/present"
	"github.com/cbegin/phiview-go/internal/render"
)

var effectColor = color.RGBA{R: 0xff, G: 0xee, B: 0xaa, A: 0xff}

// Draw renders the current snapshot into r, mapping reference-screen
// positions onto vp.
func (s *System) Draw(r render.Renderer, vp present.Viewport) {
	now := s.cfg.Now()
	lifetime := s.cfg.Lifetime / s.Rate()
	for _, e := range s.Snapshot() {
		p := e.Progress(now, lifetime)
		if p < 0 || p >= 1 {
			continue
		}
		drawEffect(r, vp, e, p)
	}
}

func drawEffect(r render.Renderer, vp present.Viewport, e Effect, p float64) {
	saved := r.Transform()
	defer r.SetTransform(saved)

	ratio := vp.NoteRatio()
	size := 100 * ratio
	fade := 1 - p
	alpha := math.Pow(fade, 1.1)

	r.Translate(e.X*vp.W/present.RefWidth, e.Y*vp.H/present.RefHeight)

	ring := size * (0.75 + 0.25*(1-math.Pow(fade, 5)))
	render.StrokeRect(r, render.ColorAlpha(effectColor, alpha), -ring, -ring, ring*2, ring*2, 4*ratio)

	thickProg := fade * fade
	thick := 48 * thickProg
	inner := (size - thick*0.5*thickProg*ratio) * (0.8 + 0.3*math.Pow(p, 0.25))
	r.Rotate(math.Pi / 4)
	render.StrokeRect(r, render.ColorAlpha(effectColor, alpha*0.125), -inner, -inner, inner*2, inner*2, thick*thickProg*ratio)
	r.Rotate(-math.Pi / 4)

	if grow := 1 - math.Pow(fade, 4); grow > 0 {
		flash := size * math.Min(0.25, 0.1/grow)
		r.DrawRect(render.ColorAlpha(effectColor, thickProg), -flash, -flash, flash*2, flash*2)
	}
	glow := size * 0.5 * math.Pow(p, 0.25)
	r.DrawRect(render.ColorAlpha(effectColor, thickProg/4), -glow, -glow, glow*2, glow*2)

	c := render.ColorAlpha(effectColor, thickProg)
	half := (math.Pow(p, 0.25)*7.5 + 7.5) * ratio
	for _, pt := range e.Particles {
		x, y := pt.X*ratio, pt.Y*ratio
		r.DrawRect(c, x-half, y-half, half*2, half*2)
	}
}
