// Package eval answers where a judge line is at a given time. Every query takes
// beat-local time and performs a fresh segment search, so callers may scrub in
// either direction without resetting anything.
package eval

import (
	"math"

	"github.com/cbegin/phiview-go/internal/chart"
	"github.com/cbegin/phiview-go/internal/mathx"
)

// Beats converts milliseconds of playback into the line's beat-local time.
func Beats(l *chart.JudgeLine, ms float64) float64 {
	return ms * l.BPM / 1875
}

// Millis converts beat-local time on l back into milliseconds.
func Millis(l *chart.JudgeLine, t float64) float64 {
	return t / l.BPM * 1875
}

// PositionAt returns the normalized line centre, (0,0) bottom-left and (1,1)
// top-right of the playfield.
func PositionAt(l *chart.JudgeLine, t float64) (x, y float64) {
	i := chart.Find(l.MoveEvents, t)
	if i < 0 {
		return 0.5, 0.5
	}
	ev := l.MoveEvents[i]
	p := progress(ev, t)
	return mathx.Lerp(ev.Start, ev.End, p), mathx.Lerp(ev.Start2, ev.End2, p)
}

// RotationAt returns the line rotation in degrees, counter-clockwise.
func RotationAt(l *chart.JudgeLine, t float64) float64 {
	i := chart.Find(l.RotateEvents, t)
	if i < 0 {
		return 0
	}
	ev := l.RotateEvents[i]
	return mathx.Lerp(ev.Start, ev.End, progress(ev, t))
}

// AlphaAt returns the line opacity clamped to [0,1]. NaN resolves to 0.
func AlphaAt(l *chart.JudgeLine, t float64) float64 {
	i := chart.Find(l.FadeEvents, t)
	if i < 0 {
		return 0
	}
	ev := l.FadeEvents[i]
	a := mathx.Lerp(ev.Start, ev.End, progress(ev, t))
	if math.IsNaN(a) {
		return 0
	}
	return mathx.Clamp(a, 0, 1)
}

// SpeedAt returns the raw value of the speed segment containing t. Speed is
// stepwise, never interpolated.
func SpeedAt(l *chart.JudgeLine, t float64) float64 {
	i := chart.Find(l.SpeedEvents, t)
	if i < 0 {
		return 1
	}
	return l.SpeedEvents[i].Value
}

// FloorPositionAt returns the scroll distance travelled by the line at t.
func FloorPositionAt(l *chart.JudgeLine, t float64) float64 {
	return l.FloorPositionAt(t)
}

// State bundles every per-line quantity the presenter needs for one frame.
type State struct {
	Time     float64 // beat-local
	X, Y     float64
	Rotation float64
	Alpha    float64
	Speed    float64
	Floor    float64
}

// Sample evaluates l at playback time ms.
func Sample(l *chart.JudgeLine, ms float64) State {
	t := Beats(l, ms)
	x, y := PositionAt(l, t)
	return State{
		Time:     t,
		X:        x,
		Y:        y,
		Rotation: RotationAt(l, t),
		Alpha:    AlphaAt(l, t),
		Speed:    SpeedAt(l, t),
		Floor:    FloorPositionAt(l, t),
	}
}

// progress is the interpolation factor inside ev. Queries before the segment
// hold its start value, queries past its end extrapolate. Zero-length segments
// act as a step.
func progress(ev chart.LineEvent, t float64) float64 {
	p := mathx.Progress(ev.StartTime, ev.EndTime, t)
	if !mathx.Finite(p) || p < 0 {
		return 0
	}
	return p
}
