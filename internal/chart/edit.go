package chart

import (
	"fmt"
	"sort"

	"github.com/cbegin/phiview-go/internal/logging"
)

// Edits mutate the chart in place and bump generation counters. Derived data
// (floor positions, sibling flags) is rebuilt by Refresh, which is cheap to
// call every frame when nothing changed.

// Touch marks line i as edited. Callers that mutate a line's exported slices
// directly must call it so Refresh picks the change up.
func (c *Chart) Touch(i int) {
	if i >= 0 && i < len(c.Lines) {
		c.Lines[i].gen++
	}
	c.gen++
}

// Stale reports whether Refresh has work to do.
func (c *Chart) Stale() bool {
	if c.siblingGen != c.gen {
		return true
	}
	for _, l := range c.Lines {
		if l.floorGen != l.gen {
			return true
		}
	}
	return false
}

// Refresh rebuilds derived caches invalidated by edits since the last call and
// reports whether anything was rebuilt.
func (c *Chart) Refresh() bool {
	rebuilt := false
	for i, l := range c.Lines {
		if l.floorGen != l.gen {
			l.rebuildFloor()
			logging.L().Debug("floor cache rebuilt", "line", i)
			rebuilt = true
		}
	}
	if c.siblingGen != c.gen {
		c.ResolveSiblings()
		rebuilt = true
	}
	return rebuilt
}

// Locate finds the line and side owning n.
func (c *Chart) Locate(n *Note) (line int, side Side, ok bool) {
	for i, l := range c.Lines {
		for _, s := range []Side{Above, Below} {
			if indexOf(l.Notes(s), n) >= 0 {
				return i, s, true
			}
		}
	}
	return -1, Above, false
}

// AddNote appends n to a line side.
func (c *Chart) AddNote(line int, side Side, n *Note) error {
	if line < 0 || line >= len(c.Lines) {
		return fmt.Errorf("line %d out of range [0,%d)", line, len(c.Lines))
	}
	if n == nil {
		return fmt.Errorf("nil note")
	}
	if _, _, ok := c.Locate(n); ok {
		return fmt.Errorf("note already belongs to the chart")
	}
	l := c.Lines[line]
	l.setNotes(side, append(l.Notes(side), n))
	c.Touch(line)
	return nil
}

// RemoveNote deletes n from whichever container holds it.
func (c *Chart) RemoveNote(n *Note) bool {
	line, side, ok := c.Locate(n)
	if !ok {
		return false
	}
	l := c.Lines[line]
	notes := l.Notes(side)
	i := indexOf(notes, n)
	l.setNotes(side, append(notes[:i:i], notes[i+1:]...))
	c.Touch(line)
	return true
}

// MoveNote moves n to another line or side. Moving between sides is a full
// container move.
func (c *Chart) MoveNote(n *Note, line int, side Side) error {
	if line < 0 || line >= len(c.Lines) {
		return fmt.Errorf("line %d out of range [0,%d)", line, len(c.Lines))
	}
	if !c.RemoveNote(n) {
		return fmt.Errorf("note does not belong to the chart")
	}
	return c.AddNote(line, side, n)
}

func (c *Chart) SetNoteTime(n *Note, t float64) bool {
	return c.edit(n, func() { n.Time = t })
}

func (c *Chart) SetHoldTime(n *Note, d float64) bool {
	if d < 0 {
		d = 0
	}
	return c.edit(n, func() { n.HoldTime = d })
}

func (c *Chart) SetNoteType(n *Note, t NoteType) bool {
	return c.edit(n, func() { n.Type = t })
}

func (c *Chart) SetNotePosition(n *Note, x float64) bool {
	return c.edit(n, func() { n.PositionX = x })
}

func (c *Chart) SetNoteSpeed(n *Note, speed float64) bool {
	return c.edit(n, func() { n.Speed = speed })
}

// SetSpeedEvents replaces a line's speed track. The track is re-sorted and an
// empty track gets the default event.
func (c *Chart) SetSpeedEvents(line int, events []SpeedEvent) error {
	if line < 0 || line >= len(c.Lines) {
		return fmt.Errorf("line %d out of range [0,%d)", line, len(c.Lines))
	}
	l := c.Lines[line]
	l.SpeedEvents = append([]SpeedEvent(nil), events...)
	normalizeTracks(l)
	c.Touch(line)
	return nil
}

func (c *Chart) edit(n *Note, fn func()) bool {
	line, _, ok := c.Locate(n)
	if !ok {
		return false
	}
	fn()
	c.Touch(line)
	return true
}

// SortNotes orders every note container by judge time.
func (c *Chart) SortNotes() {
	for i, l := range c.Lines {
		for _, s := range []Side{Above, Below} {
			notes := l.Notes(s)
			sort.SliceStable(notes, func(a, b int) bool { return notes[a].Time < notes[b].Time })
		}
		c.Touch(i)
	}
}

func indexOf(notes []*Note, n *Note) int {
	for i, m := range notes {
		if m == n {
			return i
		}
	}
	return -1
}
