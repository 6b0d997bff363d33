package present

import (
	"math"

	"github.com/cbegin/phiview-go/internal/chart"
	"github.com/cbegin/phiview-go/internal/eval"
	"github.com/cbegin/phiview-go/internal/render"
)

// NoteWidth is the note width in reference pixels.
const NoteWidth = 240.0

// holdClearLead is how long before its end a hold counts as cleared.
const holdClearLead = 250.0

// noteDraw is what a behaviour needs to draw one note in the line frame.
type noteDraw struct {
	note  *chart.Note
	state *NoteState
	line  eval.State
	x     float64 // along the line
	y     float64 // distance above the line
	yEnd  float64 // hold tail distance
	ratio float64 // note ratio
}

// behaviour is the per-type presentation table entry.
type behaviour struct {
	clearTime           func(l *chart.JudgeLine, n *chart.Note) float64
	draw                func(p *Presenter, r render.Renderer, d noteDraw)
	sound               chart.NoteType
	clipOnPositiveSpeed bool
	hold                bool
}

var (
	tapBehaviour = behaviour{
		clearTime: judgeTime,
		draw:      shortNote(18, 32),
		sound:     chart.Tap,
	}

	flickBehaviour = behaviour{
		clearTime: judgeTime,
		draw:      shortNote(35, 55),
		sound:     chart.Flick,
	}

	catchBehaviour = behaviour{
		clearTime: judgeTime,
		draw:      shortNote(12, 28),
		sound:     chart.Catch,
	}

	holdBehaviour = behaviour{
		clearTime:           holdClearTime,
		draw:                drawHold,
		sound:               chart.Tap,
		clipOnPositiveSpeed: true,
		hold:                true,
	}
)

var behaviours = map[chart.NoteType]behaviour{
	chart.Tap:   tapBehaviour,
	chart.Flick: flickBehaviour,
	chart.Catch: catchBehaviour,
	chart.Hold:  holdBehaviour,
}

// behaviourFor returns the table entry for t. Dummy and unknown types behave
// like taps.
func behaviourFor(t chart.NoteType) behaviour {
	if b, ok := behaviours[t]; ok {
		return b
	}
	return tapBehaviour
}

// ClearTime is the beat-local time at which n counts as cleared.
func ClearTime(l *chart.JudgeLine, n *chart.Note) float64 {
	return behaviourFor(n.Type).clearTime(l, n)
}

func judgeTime(_ *chart.JudgeLine, n *chart.Note) float64 {
	return n.Time
}

func holdClearTime(l *chart.JudgeLine, n *chart.Note) float64 {
	end := eval.Millis(l, n.EndTime()) - holdClearLead
	return math.Max(n.Time, eval.Beats(l, end))
}

func shortNote(height, siblingHeight float64) func(*Presenter, render.Renderer, noteDraw) {
	return func(p *Presenter, r render.Renderer, d noteDraw) {
		if d.state.Cleared {
			return
		}
		tex := p.skin.Note(d.note.Type, d.note.HasSibling)
		if tex == nil {
			return
		}
		h := height
		if d.note.HasSibling {
			h = siblingHeight
		}
		w := NoteWidth * d.ratio
		h *= d.ratio
		r.DrawTexture(tex, -w/2+d.x, -h/2-d.y, w, h, render.Opaque)
	}
}

func drawHold(p *Presenter, r render.Renderer, d noteDraw) {
	if d.line.Time > d.note.EndTime() || p.skin == nil {
		return
	}
	s := p.skin
	w := NoteWidth * d.ratio
	h := d.yEnd - d.y
	headH := aspect(s.HoldHead) * w
	endH := aspect(s.HoldEnd) * w
	r.DrawTexture(s.HoldEnd, -w/2+d.x, -d.y-h, w, endH, render.Opaque)

	body, head := s.Hold, s.HoldHead
	if d.note.HasSibling {
		body, head = s.HoldHL, s.HoldHeadHL
		w *= 1060.0 / 989.0 * 1.025
		endH -= d.ratio * 1060.0 / 989.0
	}
	r.DrawTexture(body, -w/2+d.x, -d.y-h+endH, w, h-endH, render.Opaque)
	r.DrawTexture(head, -w/2+d.x, -d.y, w, headH, render.Opaque)
}

// aspect is height over width, 0 for a missing texture.
func aspect(tex render.Texture) float64 {
	if tex == nil {
		return 0
	}
	b := tex.Bounds()
	if b.Dx() == 0 {
		return 0
	}
	return float64(b.Dy()) / float64(b.Dx())
}
