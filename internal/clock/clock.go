// Package clock keeps the visual playback time in step with the music. While
// playing it advances by frame delta and snaps to the audio position when they
// drift apart; while paused it eases toward the seek target.
package clock

import (
	"math"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/cbegin/phiview-go/internal/logging"
	"github.com/cbegin/phiview-go/internal/mathx"
)

// Source is the music player the clock follows. Times are milliseconds.
type Source interface {
	Position() float64
	Duration() float64
	Rate() float64
	Play(from float64)
	Stop()
	Seek(ms float64)
}

type Config struct {
	// SeekSmoothing is the window, in ms, over which a paused clock closes
	// the gap to its target. Zero jumps immediately.
	SeekSmoothing float64
	// DriftSnap is the largest tolerated gap between visual and audio time.
	DriftSnap float64
	// SeekDebounce delays audio seeks while playing until input settles.
	// Zero seeks immediately.
	SeekDebounce time.Duration
	Loop         bool
	// AudioOffset is a user correction in ms, scaled by the playback rate.
	AudioOffset float64
	// Latency is the output latency in ms.
	Latency float64
	// PreRoll is how far before the music start, in ms, a seek may go.
	PreRoll float64
}

func DefaultConfig() Config {
	return Config{SeekSmoothing: 100, DriftSnap: 27, SeekDebounce: 150 * time.Millisecond}
}

// Event reports what happened during Advance.
type Event int

const (
	EventNone Event = iota
	EventEnded
	EventLooped
)

type Clock struct {
	mu          sync.Mutex
	cfg         Config
	src         Source
	playing     bool
	playback    float64
	time        float64
	chartOffset float64
	pendingSeek bool

	// seekGen changes on every transport change; a debounced audio seek only
	// lands if it is still current.
	seekGen   uint64
	debounced func(func())
}

func New(src Source, cfg Config) *Clock {
	c := &Clock{cfg: cfg, src: src}
	if cfg.SeekDebounce > 0 {
		c.debounced = debounce.New(cfg.SeekDebounce)
	}
	return c
}

// SetSource swaps the music player and pauses.
func (c *Clock) SetSource(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing && c.src != nil {
		c.src.Stop()
	}
	c.src = src
	c.playing = false
	c.pendingSeek = false
	c.seekGen++
}

// SetChartOffset sets the chart's global offset in seconds.
func (c *Clock) SetChartOffset(seconds float64) {
	c.mu.Lock()
	c.chartOffset = seconds * 1000
	c.mu.Unlock()
}

func (c *Clock) SetLoop(loop bool) {
	c.mu.Lock()
	c.cfg.Loop = loop
	c.mu.Unlock()
}

func (c *Clock) SetAudioOffset(ms float64) {
	c.mu.Lock()
	c.cfg.AudioOffset = ms
	c.mu.Unlock()
}

// Time is the chart time in ms: playback time plus the chart offset.
func (c *Clock) Time() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

// PlaybackTime is the music time in ms the clock is at or heading to.
func (c *Clock) PlaybackTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Duration is the music length in ms, 0 without music.
func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration()
}

func (c *Clock) duration() float64 {
	if c.src == nil {
		return 0
	}
	return c.src.Duration()
}

func (c *Clock) rate() float64 {
	if c.src == nil {
		return 1
	}
	if r := c.src.Rate(); r > 0 {
		return r
	}
	return 1
}

// audioOffset is added to the audio position to get the visual time.
func (c *Clock) audioOffset() float64 {
	return c.cfg.Latency + c.cfg.AudioOffset/c.rate()
}

// Play starts the music from the current playback time.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing || c.src == nil {
		return
	}
	c.playing = true
	c.pendingSeek = false
	c.seekGen++
	c.src.Play(c.playback)
	logging.L().Info("playback started", "at", c.playback)
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.playing = false
	c.pendingSeek = false
	c.seekGen++
	if c.src != nil {
		c.src.Stop()
	}
	logging.L().Info("playback paused", "at", c.playback)
}

func (c *Clock) Toggle() {
	if c.Playing() {
		c.Pause()
		return
	}
	c.Play()
}

// Seek moves the playback target to ms, clamped to [-PreRoll, duration]. A
// paused clock eases toward it; a playing clock moves at once and reseeks the
// music when input settles.
func (c *Clock) Seek(ms float64) {
	c.mu.Lock()
	if d := c.duration(); d > 0 {
		ms = math.Min(ms, d)
	}
	ms = math.Max(ms, -c.cfg.PreRoll)
	c.playback = ms
	c.seekGen++
	if !c.playing || c.src == nil {
		c.mu.Unlock()
		return
	}
	c.time = ms + c.chartOffset
	c.pendingSeek = true
	src := c.src
	gen := c.seekGen
	debounced := c.debounced
	c.mu.Unlock()

	apply := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.seekGen != gen || !c.playing || c.src != src {
			return
		}
		src.Seek(ms)
		c.pendingSeek = false
	}
	if debounced == nil {
		apply()
		return
	}
	debounced(apply)
}

// Advance moves the clock forward by delta ms of wall time.
func (c *Clock) Advance(delta float64) Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing || c.src == nil {
		smooth := 1.0
		if c.cfg.SeekSmoothing > 0 {
			smooth = mathx.Clamp(delta/c.cfg.SeekSmoothing, 0, 1)
		}
		c.time = mathx.Lerp(c.time, c.playback+c.chartOffset, smooth)
		return EventNone
	}

	dur := c.src.Duration()
	t := delta*c.rate() + c.playback
	if !c.pendingSeek {
		pos := c.src.Position()
		if audio := pos + c.audioOffset(); math.Abs(t-audio) > c.cfg.DriftSnap {
			t = audio
		}
		if pos >= dur {
			c.src.Stop()
			if c.cfg.Loop {
				c.src.Play(0)
				c.playback = 0
				c.time = c.chartOffset
				logging.L().Info("playback looped")
				return EventLooped
			}
			c.playing = false
			c.playback = dur
			c.time = dur + c.chartOffset
			logging.L().Info("playback ended")
			return EventEnded
		}
	}
	c.playback = math.Min(t, dur)
	c.time = c.playback + c.chartOffset
	return EventNone
}
