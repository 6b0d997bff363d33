// Package present turns judge-line state into note draws. It owns the derived
// per-note state (cleared, crossed) and decides culling, clipping and texture
// variants for every note each frame.
package present

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cbegin/phiview-go/internal/chart"
	"github.com/cbegin/phiview-go/internal/eval"
	"github.com/cbegin/phiview-go/internal/logging"
	"github.com/cbegin/phiview-go/internal/render"
	"github.com/cbegin/phiview-go/internal/skin"
)

const (
	// floorYScale converts floor position into target heights.
	floorYScale = 0.6
	// crossWindow is how many beat-local units past its judge time a crossing
	// still fires hit feedback.
	crossWindow = 10.0
	// holdJudgeInterval is the wall time between effects while a hold is held.
	holdJudgeInterval = 75.0
	lineThickness     = 8.0
)

var lineColor = color.RGBA{0xff, 0xff, 0xff, 0xff}

type pass int

const (
	passHold pass = iota
	passShort
)

// Presenter draws the notes and bodies of every judge line.
type Presenter struct {
	chart    *chart.Chart
	skin     *skin.Set
	feedback Feedback

	states map[*chart.Note]*NoteState
	lines  []eval.State
	meters []eval.Meter
	gen    uint64
	synced bool
}

// New creates a presenter. Any argument may be nil.
func New(c *chart.Chart, s *skin.Set, fb Feedback) *Presenter {
	p := &Presenter{skin: s, feedback: fb}
	p.SetChart(c)
	return p
}

// SetChart replaces the chart and forgets all note state.
func (p *Presenter) SetChart(c *chart.Chart) {
	p.chart = c
	p.states = make(map[*chart.Note]*NoteState)
	p.lines = nil
	p.meters = nil
	p.synced = false
}

func (p *Presenter) Chart() *chart.Chart    { return p.chart }
func (p *Presenter) SetSkin(s *skin.Set)    { p.skin = s }
func (p *Presenter) SetFeedback(f Feedback) { p.feedback = f }

// State returns the derived state of n as of the last Update.
func (p *Presenter) State(n *chart.Note) NoteState {
	if st, ok := p.states[n]; ok {
		return *st
	}
	return NoteState{}
}

// Line returns the sampled state of line i as of the last Update.
func (p *Presenter) Line(i int) (eval.State, bool) {
	if i < 0 || i >= len(p.lines) {
		return eval.State{}, false
	}
	return p.lines[i], true
}

// Stats counts cleared notes and all notes.
func (p *Presenter) Stats() (cleared, total int) {
	if p.chart == nil {
		return 0, 0
	}
	p.chart.EachNote(func(_ int, _ chart.Side, n *chart.Note) {
		total++
		if st, ok := p.states[n]; ok && st.Cleared {
			cleared++
		}
	})
	return cleared, total
}

// sync rebuilds derived caches after edits and keeps state for notes that
// still exist.
func (p *Presenter) sync() {
	if p.chart.Refresh() {
		logging.L().Debug("chart caches rebuilt", "generation", p.chart.Generation())
	}
	if p.synced && p.gen == p.chart.Generation() && len(p.lines) == len(p.chart.Lines) {
		return
	}
	n := len(p.chart.Lines)
	p.lines = make([]eval.State, n)
	p.meters = make([]eval.Meter, n)
	live := make(map[*chart.Note]*NoteState, len(p.states))
	p.chart.EachNote(func(_ int, _ chart.Side, note *chart.Note) {
		st, ok := p.states[note]
		if !ok {
			st = &NoteState{}
		}
		live[note] = st
	})
	p.states = live
	p.gen = p.chart.Generation()
	p.synced = true
}

// Update samples every line at ctx.Time and recomputes note state. Hit
// feedback fires on the rising edge of crossing while playing.
func (p *Presenter) Update(ctx Context) {
	if p.chart == nil {
		return
	}
	p.sync()
	for i, l := range p.chart.Lines {
		p.lines[i] = eval.Sample(l, ctx.Time)
	}
	p.chart.EachNote(func(i int, _ chart.Side, n *chart.Note) {
		p.updateNote(ctx, i, n)
	})
}

func (p *Presenter) updateNote(ctx Context, i int, n *chart.Note) {
	st := p.states[n]
	l := p.chart.Lines[i]
	b := behaviourFor(n.Type)
	gt := p.lines[i].Time

	crossed := gt >= n.Time
	rising := crossed && !st.Crossed
	st.Cleared = gt >= b.clearTime(l, n)
	st.Crossed = crossed

	if rising && gt-n.Time < crossWindow && ctx.Playing {
		if ctx.Flags.ClickSound && p.feedback != nil {
			p.feedback.Click(b.sound)
		}
		p.judge(ctx, i, n)
		st.lastJudge = ctx.Now
		return
	}
	if b.hold && crossed && gt < n.EndTime() && ctx.Playing {
		if ctx.Now-st.lastJudge > holdJudgeInterval {
			st.lastJudge = ctx.Now
			p.judge(ctx, i, n)
		}
		return
	}
	if !crossed || gt >= n.EndTime() {
		st.lastJudge = 0
	}
}

func (p *Presenter) judge(ctx Context, i int, n *chart.Note) {
	if !ctx.Flags.Particles || p.feedback == nil {
		return
	}
	p.feedback.Judge(p.JudgePoint(ctx, i, n))
}

// JudgePoint is where n meets its line, in target pixels.
func (p *Presenter) JudgePoint(ctx Context, i int, n *chart.Note) (float64, float64) {
	ls := p.lines[i]
	ox, oy := ctx.Viewport.Canvas(ls.X, ls.Y)
	rad := -mgl64.DegToRad(ls.Rotation)
	x := p.noteX(ctx.Viewport, ls, n)
	return math.Cos(rad)*x + ox, math.Sin(rad)*x + oy
}

// noteX places a note along its line: the lane offset is rotated into canvas
// space, scaled by the playfield extents, then projected back through the line
// rotation a second time.
func (p *Presenter) noteX(vp Viewport, ls eval.State, n *chart.Note) float64 {
	rot := mgl64.Rotate2D(mgl64.DegToRad(ls.Rotation))
	rp := rot.Mul2x1(mgl64.Vec2{0.845 * n.PositionX / 15, 0})
	sp := mgl64.Vec2{
		rp.X() * vp.PlayfieldWidth(),
		-rp.Y() * vp.H * 1.8 * vp.NoteRatio() / vp.Ratio(),
	}
	return rot.Mul2x1(sp).X()
}

// distance is how far above line i the beat-local time t is drawn, before
// any per-note speed.
func (p *Presenter) distance(ctx Context, i int, t float64) float64 {
	l := p.chart.Lines[i]
	ls := p.lines[i]
	h := ctx.Viewport.H
	if ctx.Flags.TimeBasedYPos {
		mult := 0.00001 * RefHeight * h / math.Pow(l.BPM/127, 1.5)
		if ctx.Flags.UniqueSpeed {
			return mult * (t - ls.Time)
		}
		m := &p.meters[i]
		return mult * (m.At(l, t) - m.At(l, ls.Time))
	}
	if ctx.Flags.UniqueSpeed {
		return (t - ls.Time) * l.MillisPerUnit() / 1000 * floorYScale * h
	}
	return (l.FloorPositionAt(t) - ls.Floor) * floorYScale * h
}

// noteY is the head distance of n including its speed multiplier.
func (p *Presenter) noteY(ctx Context, i int, n *chart.Note, b behaviour) float64 {
	var y float64
	if !ctx.Flags.TimeBasedYPos && !ctx.Flags.UniqueSpeed {
		y = (n.FloorPosition - p.lines[i].Floor) * floorYScale * ctx.Viewport.H
	} else {
		y = p.distance(ctx, i, n.Time)
	}
	if !b.hold && !ctx.Flags.UniqueSpeed {
		y *= n.Speed
	}
	return y
}

// offscreen reports whether n lies entirely beyond the target, outside its
// active hold window.
func offscreen(ctx Context, gt float64, n *chart.Note, y, yEnd float64) bool {
	if gt >= n.Time && gt <= n.EndTime() {
		return false
	}
	r := math.Max(ctx.Viewport.W, ctx.Viewport.H)
	return math.Abs(y) > r && math.Abs(yEnd) > r
}

// Draw emits every hold, then every other note, then every line body. Update
// must have run for the same context first.
func (p *Presenter) Draw(r render.Renderer, ctx Context) {
	if p.chart == nil || len(p.lines) != len(p.chart.Lines) {
		return
	}
	for i := range p.chart.Lines {
		p.drawNotes(r, ctx, i, passHold)
	}
	for i := range p.chart.Lines {
		p.drawNotes(r, ctx, i, passShort)
	}
	for i := range p.chart.Lines {
		p.drawLine(r, ctx, i)
	}
}

// enterLine moves the renderer into line i's frame: origin at the line centre,
// x along the line, negative y above it.
func (p *Presenter) enterLine(r render.Renderer, vp Viewport, i int) {
	ls := p.lines[i]
	r.Translate(vp.Canvas(ls.X, ls.Y))
	r.Rotate(-mgl64.DegToRad(ls.Rotation))
}

func (p *Presenter) drawNotes(r render.Renderer, ctx Context, i int, ps pass) {
	saved := r.Transform()
	p.enterLine(r, ctx.Viewport, i)
	l := p.chart.Lines[i]
	for _, n := range l.NotesAbove {
		p.drawNote(r, ctx, i, n, ps)
	}
	r.Scale(1, -1)
	for _, n := range l.NotesBelow {
		p.drawNote(r, ctx, i, n, ps)
	}
	r.SetTransform(saved)
}

func (p *Presenter) drawNote(r render.Renderer, ctx Context, i int, n *chart.Note, ps pass) {
	b := behaviourFor(n.Type)
	if b.hold != (ps == passHold) {
		return
	}
	st, ok := p.states[n]
	if !ok {
		return
	}
	ls := p.lines[i]
	y := p.noteY(ctx, i, n, b)
	yEnd := y
	if b.hold {
		yEnd = p.distance(ctx, i, n.EndTime())
	}
	if offscreen(ctx, ls.Time, n, y, yEnd) && !ctx.Flags.ForceRenderOffscreen {
		return
	}

	doClip := (ls.Speed < 0 || b.clipOnPositiveSpeed || n.FloorPosition < ls.Floor)
	if doClip {
		cw, ch := ctx.Viewport.PlayfieldWidth(), ctx.Viewport.H
		r.PushClip()
		r.ClipRect(-cw, -ch*2, cw*2, ch*2)
	}
	b.draw(p, r, noteDraw{
		note:  n,
		state: st,
		line:  ls,
		x:     p.noteX(ctx.Viewport, ls, n),
		y:     y,
		yEnd:  yEnd,
		ratio: ctx.Viewport.NoteRatio(),
	})
	if doClip {
		r.PopClip()
	}
}

func (p *Presenter) drawLine(r render.Renderer, ctx Context, i int) {
	saved := r.Transform()
	p.enterLine(r, ctx.Viewport, i)
	cw := ctx.Viewport.PlayfieldWidth()
	th := lineThickness * ctx.Viewport.NoteRatio()
	r.DrawRect(render.ColorAlpha(lineColor, p.lines[i].Alpha), -cw*2, -th/2, cw*4, th)
	r.SetTransform(saved)
}
