package phiview

import (
	intchart "github.com/cbegin/phiview-go/internal/chart"
	intclock "github.com/cbegin/phiview-go/internal/clock"
	intpresent "github.com/cbegin/phiview-go/internal/present"
	intskin "github.com/cbegin/phiview-go/internal/skin"
)

// SongInfo is shown in the HUD. A negative level prints as "?".
type SongInfo struct {
	Title      string
	Difficulty string
	Level      int
}

// MusicPlayer is the song the clock follows.
type MusicPlayer interface {
	intclock.Source
	SetRate(rate float64)
	Close() error
}

// SoundBank plays the one-shot sound for a cleared note.
type SoundBank interface {
	Click(t intchart.NoteType)
}

type Option func(*viewerConfig)

type viewerConfig struct {
	sampleRate        int
	loop              bool
	clock             intclock.Config
	flags             intpresent.Flags
	disableGlobalClip bool
	maxAspect         float64
	info              SongInfo
	backgroundDim     float64
	music             MusicPlayer
	bank              SoundBank
	skin              *intskin.Set
	customClock       *intclock.Clock
}

func defaultViewerConfig() viewerConfig {
	return viewerConfig{
		sampleRate:    48000,
		clock:         intclock.DefaultConfig(),
		flags:         intpresent.Flags{ClickSound: true, Particles: true},
		maxAspect:     intpresent.DefaultMaxAspect,
		info:          SongInfo{Level: -1},
		backgroundDim: 0.66,
	}
}

// WithSampleRate sets the audio output rate used for music and click sounds.
func WithSampleRate(rate int) Option {
	return func(cfg *viewerConfig) {
		if rate > 0 {
			cfg.sampleRate = rate
		}
	}
}

func WithLoop(enabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.loop = enabled
		cfg.clock.Loop = enabled
	}
}

// WithSeekSmoothing sets the window in ms over which a paused clock eases to
// a new seek target.
func WithSeekSmoothing(ms float64) Option {
	return func(cfg *viewerConfig) {
		cfg.clock.SeekSmoothing = ms
	}
}

// WithAudioOffset shifts notes against the music, in ms of music time.
func WithAudioOffset(ms float64) Option {
	return func(cfg *viewerConfig) {
		cfg.clock.AudioOffset = ms
	}
}

// WithOutputLatency compensates for audio output latency in ms.
func WithOutputLatency(ms float64) Option {
	return func(cfg *viewerConfig) {
		cfg.clock.Latency = ms
	}
}

// WithPreRoll lets seeks go up to ms before the music starts.
func WithPreRoll(ms float64) Option {
	return func(cfg *viewerConfig) {
		cfg.clock.PreRoll = ms
	}
}

func WithClickSound(enabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.flags.ClickSound = enabled
	}
}

func WithParticles(enabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.flags.Particles = enabled
	}
}

// WithForceRenderOffscreen draws notes even when they are culled.
func WithForceRenderOffscreen(enabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.flags.ForceRenderOffscreen = enabled
	}
}

// WithUniqueSpeed ignores speed events: notes scroll at a constant rate.
func WithUniqueSpeed(enabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.flags.UniqueSpeed = enabled
	}
}

// WithTimeBasedYPos places notes by the integrated speed meter instead of
// floor positions.
func WithTimeBasedYPos(enabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.flags.TimeBasedYPos = enabled
	}
}

// WithDisableGlobalClip lets judge lines draw into the letterbox.
func WithDisableGlobalClip(disabled bool) Option {
	return func(cfg *viewerConfig) {
		cfg.disableGlobalClip = disabled
	}
}

// WithMaxAspect sets the widest playfield aspect before letterboxing.
func WithMaxAspect(aspect float64) Option {
	return func(cfg *viewerConfig) {
		if aspect > 0 {
			cfg.maxAspect = aspect
		}
	}
}

func WithSongInfo(info SongInfo) Option {
	return func(cfg *viewerConfig) {
		cfg.info = info
	}
}

// WithBackgroundDim sets how dark the playfield background is, from 0 to 1.
func WithBackgroundDim(dim float64) Option {
	return func(cfg *viewerConfig) {
		cfg.backgroundDim = dim
	}
}

// WithMusicPlayer installs an already opened music player.
func WithMusicPlayer(m MusicPlayer) Option {
	return func(cfg *viewerConfig) {
		cfg.music = m
	}
}

// WithSoundBank replaces the click sound bank.
func WithSoundBank(b SoundBank) Option {
	return func(cfg *viewerConfig) {
		cfg.bank = b
	}
}

func WithSkin(s *intskin.Set) Option {
	return func(cfg *viewerConfig) {
		cfg.skin = s
	}
}

// WithClock replaces the playback clock. Clock options are then ignored.
func WithClock(c *intclock.Clock) Option {
	return func(cfg *viewerConfig) {
		cfg.customClock = c
	}
}
