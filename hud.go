package phiview

import (
	"fmt"
	"image/color"
	"math"

	intpresent "github.com/cbegin/phiview-go/internal/present"
	intrender "github.com/cbegin/phiview-go/internal/render"
)

var (
	white       = color.RGBA{255, 255, 255, 255}
	faintWhite  = intrender.ColorAlpha(white, 0.3)
	shadow      = color.RGBA{0, 0, 0, 0x88}
	invalidBack = color.RGBA{64, 64, 64, 64}
)

// drawBackground draws the blurred-looking full-window backdrop, then the
// dimmed illustration fitted to the playfield height.
func (v *Viewer) drawBackground(r intrender.Renderer, vp intpresent.Viewport) {
	bg := v.background
	if bg == nil {
		w, h := r.MeasureText("Invalid background!", 48)
		r.DrawText("Invalid background!", invalidBack, 48, (vp.W-w)/2, (vp.H+h)/2)
		return
	}
	b := bg.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw <= 0 || ih <= 0 {
		return
	}
	r.DrawTexture(bg, 0, 0, vp.W, vp.H, intrender.Tint{R: 1, G: 1, B: 1, Alpha: 0.4})

	pad := vp.XPad()
	cw := vp.PlayfieldWidth()
	r.PushClip()
	r.ClipRect(pad, 0, cw, vp.H)
	xOffset := cw - vp.H/ih*iw
	r.DrawTexture(bg, pad+xOffset/2, 0, iw/ih*vp.H, vp.H, intrender.Opaque)
	dim := math.Max(0, math.Min(1, v.cfg.backgroundDim))
	r.DrawRect(color.RGBA{A: uint8(math.Round(255 * dim))}, pad, 0, cw, vp.H)
	r.PopClip()
}

// drawHUD draws the progress bar, pause glyph, song title, difficulty, combo
// and score.
func (v *Viewer) drawHUD(r intrender.Renderer, ctx intpresent.Context) {
	vp := ctx.Viewport
	ratio := vp.Ratio() * 1.25
	pad := vp.XPad()
	cw, ch := vp.PlayfieldWidth(), vp.H

	cleared, total := v.presenter.Stats()
	score := 0
	if total > 0 {
		score = int(math.Round(1e6 * float64(cleared) / float64(total)))
	}

	if dur := v.clock.Duration(); dur > 0 {
		offset := v.cfg.clock.AudioOffset
		if c := v.presenter.Chart(); c != nil {
			offset += c.Offset * 1000
		}
		visual := (ctx.Time - offset) / dur
		heard := visual
		if v.music != nil {
			heard = v.music.Position() / dur
		}
		r.DrawRect(faintWhite, pad, 0, visual*cw, 10*ratio)
		r.DrawRect(faintWhite, pad, 0, heard*cw, 10*ratio)
		r.DrawRect(white, visual*cw+pad, 0, 2.5*ratio+math.Max(0, (heard-visual)*cw), 10*ratio)
	}

	r.DrawRect(shadow, 30*ratio+pad, 32*ratio, 9*ratio, 29*ratio)
	r.DrawRect(shadow, 47*ratio+pad, 32*ratio, 9*ratio, 29*ratio)
	r.DrawRect(white, 26*ratio+pad, 28*ratio, 9*ratio, 29*ratio)
	r.DrawRect(white, 43*ratio+pad, 28*ratio, 9*ratio, 29*ratio)

	r.DrawRect(white, pad+30*ratio, ch-62*ratio, 7.5*ratio, 35*ratio)

	info := v.cfg.info
	size := 28 * ratio
	w, h := r.MeasureText(info.Title, size)
	sScale := 1.0
	if w > 545*ratio {
		sScale = 545 * ratio / w
	}
	textYOff := h / 2 * sScale
	r.DrawText(info.Title, white, size*sScale, pad+50*ratio, ch-45*ratio+textYOff)

	level := "?"
	if info.Level >= 0 {
		level = fmt.Sprint(info.Level)
	}
	diff := fmt.Sprintf("%s Lv.%s", info.Difficulty, level)
	w, h = r.MeasureText(diff, size)
	r.DrawText(diff, white, size, cw+pad-40*ratio-w, ch-45*ratio+h/2)

	if combo := cleared; combo >= 3 {
		w, _ = r.MeasureText("COMBO", 22*ratio)
		r.DrawText("COMBO", white, 22*ratio, (cw-w)/2+pad, 87*ratio)
		n := fmt.Sprint(combo)
		w, _ = r.MeasureText(n, 58*ratio)
		r.DrawText(n, white, 58*ratio, (cw-w)/2+pad, 60*ratio)
	}

	s := fmt.Sprintf("%07d", score)
	w, _ = r.MeasureText(s, 36*ratio)
	r.DrawText(s, white, 36*ratio, cw+pad-30*ratio-w, 55*ratio)
}
