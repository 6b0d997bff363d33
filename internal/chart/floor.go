package chart

// rebuildFloor recomputes the cumulative floor position of every speed event
// and the derived floor position of every note on the line.
func (l *JudgeLine) rebuildFloor() {
	secondsPerUnit := l.MillisPerUnit() / 1000
	floor := 0.0
	for i := range l.SpeedEvents {
		ev := &l.SpeedEvents[i]
		ev.FloorPosition = floor
		floor += ev.Value * (ev.EndTime - ev.StartTime) * secondsPerUnit
	}
	for _, n := range l.NotesAbove {
		n.FloorPosition = l.FloorPositionAt(n.Time)
	}
	for _, n := range l.NotesBelow {
		n.FloorPosition = l.FloorPositionAt(n.Time)
	}
	l.floorGen = l.gen
}

// FloorPositionAt returns the scroll distance travelled by the line at the
// beat-local time t: the containing speed segment's cumulative floor position
// plus the distance covered inside that segment.
func (l *JudgeLine) FloorPositionAt(t float64) float64 {
	i := Find(l.SpeedEvents, t)
	if i < 0 {
		return 0
	}
	ev := l.SpeedEvents[i]
	return ev.FloorPosition + (t-ev.StartTime)*(l.MillisPerUnit()/1000)*ev.Value
}
