package audio

import (
	"math"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/cbegin/phiview-go/internal/logging"
)

// Music is the song player the playback clock follows. Times are ms of music.
// Pitch always follows the playback rate.
type Music struct {
	mu        sync.Mutex
	pcm       *PCM
	voice     *Voice
	out       Output
	rate      float64
	volume    float64
	playing   bool
	anchor    float64
	anchorOut time.Duration
	preRoll   *time.Timer
	preFrom   float64
	preStart  time.Time
	now       func() time.Time
}

// NewMusic opens an output for pcm, resampled to outRate.
func NewMusic(pcm *PCM, outRate int, open OutputFunc) (*Music, error) {
	if pcm == nil || pcm.SampleRate <= 0 {
		return nil, fault.New("music has no samples", fmsg.WithDesc("open music", "The music file is empty."))
	}
	voice := NewVoice(pcm, outRate, true)
	out, err := open(voice)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open music output", "Audio output is unavailable."))
	}
	logging.L().Info("music loaded", "ms", pcm.Millis(), "rate", pcm.SampleRate)
	return &Music{pcm: pcm, voice: voice, out: out, rate: 1, volume: 1, now: time.Now}, nil
}

func (m *Music) Duration() float64 { return m.pcm.Millis() }

func (m *Music) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

// Pitch is the pitch shift in semitones implied by the rate. Music is
// resampled, so pitch cannot be set apart from tempo.
func (m *Music) Pitch() float64 {
	return 12 * math.Log2(m.Rate())
}

func (m *Music) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Position is the heard music time in ms, negative while pre-rolling.
func (m *Music) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position()
}

func (m *Music) position() float64 {
	switch {
	case m.preRoll != nil:
		elapsed := float64(m.now().Sub(m.preStart)) / float64(time.Millisecond)
		return math.Min(m.preFrom+elapsed*m.rate, 0)
	case m.playing:
		heard := float64(m.out.Position()-m.anchorOut) / float64(time.Millisecond)
		return math.Min(m.anchor+heard*m.rate, m.pcm.Millis())
	}
	return m.anchor
}

// Play starts at from ms. A negative start counts up to zero before the
// music begins.
func (m *Music) Play(from float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halt()
	m.play(from)
}

func (m *Music) play(from float64) {
	m.playing = true
	if from >= 0 {
		m.start(from)
		return
	}
	m.preFrom, m.preStart = from, m.now()
	var t *time.Timer
	t = time.AfterFunc(time.Duration(-from/m.rate*float64(time.Millisecond)), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.preRoll != t {
			return
		}
		m.preRoll = nil
		m.start(0)
	})
	m.preRoll = t
}

func (m *Music) start(from float64) {
	m.voice.Seek(from)
	m.anchor = from
	m.anchorOut = m.out.Position()
	m.out.Play()
}

// halt stops output and pre-roll, keeping the position.
func (m *Music) halt() {
	if !m.playing {
		return
	}
	m.anchor = m.position()
	if m.preRoll != nil {
		m.preRoll.Stop()
		m.preRoll = nil
	} else {
		m.out.Pause()
	}
	m.playing = false
}

func (m *Music) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halt()
}

func (m *Music) Seek(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		m.anchor = ms
		m.voice.Seek(ms)
		return
	}
	if ms < 0 || m.preRoll != nil {
		m.halt()
		m.play(ms)
		return
	}
	m.voice.Seek(ms)
	m.anchor = ms
	m.anchorOut = m.out.Position()
}

// SetRate changes speed and pitch together. Non-positive rates are ignored.
func (m *Music) SetRate(rate float64) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := m.position()
	m.rate = rate
	m.voice.SetRate(rate)
	switch {
	case m.preRoll != nil:
		m.halt()
		m.play(pos)
	case m.playing:
		m.anchor = pos
		m.anchorOut = m.out.Position()
	}
}

func (m *Music) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Music) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = math.Max(v, 0)
	m.out.SetVolume(m.volume)
}

func (m *Music) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halt()
	return m.out.Close()
}
