package present

import "github.com/cbegin/phiview-go/internal/chart"

// Flags are viewer toggles that change presentation.
type Flags struct {
	ForceRenderOffscreen bool
	UniqueSpeed          bool
	TimeBasedYPos        bool
	ClickSound           bool
	Particles            bool
}

// Context is everything a frame depends on besides the chart. It replaces any
// notion of a current viewer.
type Context struct {
	// Time is the chart time in milliseconds, offset already applied.
	Time     float64
	Playing  bool
	Viewport Viewport
	Flags    Flags
	// Now is a monotonic wall clock in milliseconds.
	Now float64
}

// Feedback receives fire-and-forget judge events.
type Feedback interface {
	// Click plays the hit sound for a note type.
	Click(t chart.NoteType)
	// Judge spawns a hit effect at target pixel (x, y).
	Judge(x, y float64)
}

// NoteState is the per-frame derived state of one note.
type NoteState struct {
	Cleared bool
	Crossed bool

	lastJudge float64
}
