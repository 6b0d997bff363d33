package eval

import "github.com/cbegin/phiview-go/internal/chart"

type meterEntry struct {
	start  float64
	startY float64
	speed  float64
}

// Meter integrates a line's speed track in beat-local units. It backs the
// time-based note placement mode and is rebuilt when the line is edited.
type Meter struct {
	entries []meterEntry
	gen     uint64
	built   bool
}

// At returns the integrated speed of l up to t. Before the first segment the
// meter reads 0.
func (m *Meter) At(l *chart.JudgeLine, t float64) float64 {
	if !m.built || m.gen != l.Generation() {
		m.rebuild(l)
	}
	y := 0.0
	for _, e := range m.entries {
		if e.start >= t {
			break
		}
		y = e.startY + e.speed*(t-e.start)
	}
	return y
}

func (m *Meter) rebuild(l *chart.JudgeLine) {
	m.entries = m.entries[:0]
	acc := 0.0
	for _, ev := range l.SpeedEvents {
		m.entries = append(m.entries, meterEntry{start: ev.StartTime, startY: acc, speed: ev.Value})
		acc += (ev.EndTime - ev.StartTime) * ev.Value
	}
	m.gen = l.Generation()
	m.built = true
}
