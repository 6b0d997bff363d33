package chart

import "sort"

// SiblingWindow is the judge-time distance below which two notes on the same
// side are considered simultaneous.
const SiblingWindow = 1.0

// ResolveSiblings recomputes HasSibling for every note. Notes are compared
// against every other note on the same side across all lines, the owning line
// included. Sides never cross.
func (c *Chart) ResolveSiblings() {
	for _, side := range []Side{Above, Below} {
		var notes []*Note
		for _, l := range c.Lines {
			notes = append(notes, l.Notes(side)...)
		}
		flagSiblings(notes)
	}
	c.siblingGen = c.gen
}

// flagSiblings sorts a copy of notes by time and sweeps a window over it, which
// flags exactly the pairs an all-pairs comparison would.
func flagSiblings(notes []*Note) {
	sorted := make([]*Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for _, n := range sorted {
		n.HasSibling = false
	}
	for i, a := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if b.Time-a.Time >= SiblingWindow {
				break
			}
			if a == b {
				continue
			}
			a.HasSibling = true
			b.HasSibling = true
		}
	}
}
