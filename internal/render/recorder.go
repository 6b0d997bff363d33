package render

import (
	"image/color"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cbegin/phiview-go/internal/clip"
	"github.com/cbegin/phiview-go/internal/mathx"
)

// Op identifies a recorded command.
type Op int

const (
	OpBeginFrame Op = iota
	OpEndFrame
	OpPushClip
	OpPopClip
	OpClipRect
	OpClearClip
	OpTexture
	OpRect
	OpText
)

func (o Op) String() string {
	switch o {
	case OpBeginFrame:
		return "begin"
	case OpEndFrame:
		return "end"
	case OpPushClip:
		return "push-clip"
	case OpPopClip:
		return "pop-clip"
	case OpClipRect:
		return "clip-rect"
	case OpClearClip:
		return "clear-clip"
	case OpTexture:
		return "texture"
	case OpRect:
		return "rect"
	case OpText:
		return "text"
	default:
		return "unknown"
	}
}

// Command is one recorded call. Geometry is in local space; Transform maps it
// to the target.
type Command struct {
	Op        Op
	Transform mgl64.Mat3
	Depth     int
	X, Y      float64
	W, H      float64
	Texture   Texture
	Tint      Tint
	Color     color.RGBA
	Text      string
	Size      float64
	// Coverage is the clip mask value under the centre of a draw.
	Coverage uint8
}

// Centre returns the target-space centre of the command's rectangle.
func (c Command) Centre() (float64, float64) {
	return mathx.Apply(c.Transform, c.X+c.W/2, c.Y+c.H/2)
}

// Recorder is a Renderer that keeps a command list and evaluates clipping on
// CPU masks. It needs no GPU and is not safe for concurrent use.
type Recorder struct {
	Xform
	clips    *clip.Stack
	commands []Command
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Commands() []Command {
	return r.commands
}

// Draws returns only the commands that put pixels on the target.
func (r *Recorder) Draws() []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Op == OpTexture || c.Op == OpRect || c.Op == OpText {
			out = append(out, c)
		}
	}
	return out
}

// Mask returns the CPU mask at the current depth.
func (r *Recorder) Mask() *clip.SoftMask {
	if r.clips == nil {
		return nil
	}
	return r.clips.Top().(*clip.SoftMask)
}

func (r *Recorder) BeginFrame(w, h int) {
	r.commands = r.commands[:0]
	if r.clips == nil {
		r.clips = clip.NewStack(w, h, clip.NewSoftBuffer)
	} else {
		r.clips.Resize(w, h)
	}
	r.clips.Reset()
	r.ResetTransform()
	r.record(Command{Op: OpBeginFrame, W: float64(w), H: float64(h)})
}

func (r *Recorder) EndFrame() {
	r.record(Command{Op: OpEndFrame})
}

// stack returns the clip stack, allocating a 1×1 one when clip calls arrive
// before the first BeginFrame.
func (r *Recorder) stack() *clip.Stack {
	if r.clips == nil {
		r.clips = clip.NewStack(1, 1, clip.NewSoftBuffer)
	}
	return r.clips
}

func (r *Recorder) PushClip() {
	r.stack().Push()
	r.record(Command{Op: OpPushClip})
}

func (r *Recorder) PopClip() {
	r.stack().Pop()
	r.record(Command{Op: OpPopClip})
}

func (r *Recorder) ClipRect(x, y, w, h float64) {
	r.stack().ClipRect(r.Transform(), x, y, w, h)
	r.record(Command{Op: OpClipRect, X: x, Y: y, W: w, H: h})
}

func (r *Recorder) ClearClip() {
	r.stack().Clear()
	r.record(Command{Op: OpClearClip})
}

func (r *Recorder) ClipDepth() int {
	if r.clips == nil {
		return 0
	}
	return r.clips.Depth()
}

func (r *Recorder) DrawTexture(tex Texture, x, y, w, h float64, tint Tint) {
	if tex == nil {
		return
	}
	r.draw(Command{Op: OpTexture, Texture: tex, Tint: tint, X: x, Y: y, W: w, H: h})
}

func (r *Recorder) DrawRect(c color.Color, x, y, w, h float64) {
	r.draw(Command{Op: OpRect, Color: color.RGBAModel.Convert(c).(color.RGBA), X: x, Y: y, W: w, H: h})
}

// MeasureText uses fixed advance metrics so headless layouts are stable.
func (r *Recorder) MeasureText(s string, size float64) (float64, float64) {
	return float64(utf8.RuneCountInString(s)) * size * 0.6, size
}

func (r *Recorder) DrawText(s string, c color.Color, size, x, y float64) {
	w, h := r.MeasureText(s, size)
	r.draw(Command{Op: OpText, Text: s, Size: size, Color: color.RGBAModel.Convert(c).(color.RGBA), X: x, Y: y - h, W: w, H: h})
}

func (r *Recorder) draw(c Command) {
	c.Transform = r.Transform()
	c.Coverage = clip.Visible
	if m := r.Mask(); m != nil {
		cx, cy := c.Centre()
		c.Coverage = m.At(cx, cy)
	}
	r.record(c)
}

func (r *Recorder) record(c Command) {
	if c.Op != OpTexture && c.Op != OpRect && c.Op != OpText {
		c.Transform = r.Transform()
	}
	c.Depth = r.ClipDepth()
	r.commands = append(r.commands, c)
}
