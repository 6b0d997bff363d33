package chart

import "fmt"

// NoteType identifies how a note is judged and drawn. The numeric values are
// the codes used by chart documents.
type NoteType int

const (
	Dummy NoteType = iota
	Tap
	Catch
	Hold
	Flick
)

func (t NoteType) String() string {
	switch t {
	case Dummy:
		return "dummy"
	case Tap:
		return "tap"
	case Catch:
		return "catch"
	case Hold:
		return "hold"
	case Flick:
		return "flick"
	default:
		return fmt.Sprintf("notetype(%d)", int(t))
	}
}

// Playable reports whether t is one of the four judged note types.
func (t NoteType) Playable() bool {
	return t >= Tap && t <= Flick
}

// Side is the canonical screen side of a judge line a note travels on.
type Side int

const (
	Above Side = iota
	Below
)

func (s Side) String() string {
	if s == Below {
		return "below"
	}
	return "above"
}

// Event is anything occupying a [StartTime, EndTime] span in beat-local units.
type Event interface {
	Span() (start, end float64)
}

// SpeedEvent is a stepwise scroll-speed segment. FloorPosition is the scroll
// distance accumulated by every earlier segment of the track.
type SpeedEvent struct {
	StartTime     float64
	EndTime       float64
	Value         float64
	FloorPosition float64
}

func (e SpeedEvent) Span() (float64, float64) { return e.StartTime, e.EndTime }

// LineEvent linearly interpolates (Start, Start2) to (End, End2) across its
// span. Rotate and fade tracks only use Start and End.
type LineEvent struct {
	StartTime float64
	EndTime   float64
	Start     float64
	End       float64
	Start2    float64
	End2      float64
}

func (e LineEvent) Span() (float64, float64) { return e.StartTime, e.EndTime }

type Note struct {
	Type      NoteType
	Time      float64 // beat-local judge time
	PositionX float64
	Speed     float64
	HoldTime  float64
	// FloorPosition is derived from the owning line's speed track at Time.
	FloorPosition float64
	// HasSibling is derived; true when another note on the same side, on any
	// line, is judged less than one time unit away.
	HasSibling bool
}

// EndTime is the judge time plus the hold duration.
func (n *Note) EndTime() float64 {
	return n.Time + n.HoldTime
}

type JudgeLine struct {
	BPM          float64
	SpeedEvents  []SpeedEvent
	MoveEvents   []LineEvent
	RotateEvents []LineEvent
	FadeEvents   []LineEvent
	NotesAbove   []*Note
	NotesBelow   []*Note

	gen      uint64
	floorGen uint64
}

// Notes returns the container for one side.
func (l *JudgeLine) Notes(side Side) []*Note {
	if side == Below {
		return l.NotesBelow
	}
	return l.NotesAbove
}

func (l *JudgeLine) setNotes(side Side, notes []*Note) {
	if side == Below {
		l.NotesBelow = notes
		return
	}
	l.NotesAbove = notes
}

// MillisPerUnit is the length in milliseconds of one beat-local time unit.
func (l *JudgeLine) MillisPerUnit() float64 {
	return 1875 / l.BPM
}

// Generation changes whenever the line's notes or events are edited.
func (l *JudgeLine) Generation() uint64 {
	return l.gen
}

type Chart struct {
	FormatVersion int
	// Offset is the global audio offset in seconds.
	Offset float64
	Lines  []*JudgeLine

	gen        uint64
	siblingGen uint64
}

// Generation changes on every edit that can invalidate derived caches.
func (c *Chart) Generation() uint64 {
	return c.gen
}

// EachNote visits every note of every line, above side first.
func (c *Chart) EachNote(fn func(line int, side Side, n *Note)) {
	for i, l := range c.Lines {
		for _, n := range l.NotesAbove {
			fn(i, Above, n)
		}
		for _, n := range l.NotesBelow {
			fn(i, Below, n)
		}
	}
}

// NoteCount returns the total number of notes across all lines.
func (c *Chart) NoteCount() int {
	count := 0
	for _, l := range c.Lines {
		count += len(l.NotesAbove) + len(l.NotesBelow)
	}
	return count
}

// Find returns the index of the first event whose span satisfies
// start < t <= end. When no event contains t the first event is used, which
// clamps queries before the first keyframe. It returns -1 for an empty track.
func Find[E Event](events []E, t float64) int {
	for i, ev := range events {
		start, end := ev.Span()
		if t > start && t <= end {
			return i
		}
	}
	if len(events) == 0 {
		return -1
	}
	return 0
}
