// Package phiview plays rhythm-game charts: judge lines move, rotate and fade
// while notes scroll toward them in time with the music.
package phiview

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	intaudio "github.com/cbegin/phiview-go/internal/audio"
	intchart "github.com/cbegin/phiview-go/internal/chart"
	intclock "github.com/cbegin/phiview-go/internal/clock"
	intfx "github.com/cbegin/phiview-go/internal/fx"
	intgfx "github.com/cbegin/phiview-go/internal/gfx"
	intlogging "github.com/cbegin/phiview-go/internal/logging"
	intpresent "github.com/cbegin/phiview-go/internal/present"
	intrender "github.com/cbegin/phiview-go/internal/render"
	intskin "github.com/cbegin/phiview-go/internal/skin"
)

// PlaybackEvent is delivered through Watch.
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

// Viewer is the frame orchestrator. It implements ebiten.Game; RenderFrame
// draws the same frame into any renderer.
type Viewer struct {
	mu        sync.Mutex
	cfg       viewerConfig
	clock     *intclock.Clock
	presenter *intpresent.Presenter
	music     MusicPlayer
	bank      SoundBank
	effects   *intfx.System

	renderer    *intgfx.Renderer
	rendererErr error
	background  intrender.Texture

	canvasScale      float64
	canvasX, canvasY float64
	size             intpresent.Viewport
	lastTick         float64
	ticked           bool
	warned           map[string]bool

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

// NewViewer creates a viewer with no chart loaded.
func NewViewer(opts ...Option) *Viewer {
	cfg := defaultViewerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	v := &Viewer{
		cfg:         cfg,
		music:       cfg.music,
		bank:        cfg.bank,
		effects:     intfx.New(intfx.DefaultConfig()),
		canvasScale: 1,
		size:        intpresent.Viewport{MaxAspect: cfg.maxAspect},
		warned:      map[string]bool{},
	}
	if v.bank == nil {
		v.bank = intaudio.NewBank(cfg.sampleRate, intaudio.Ebiten(cfg.sampleRate))
	}
	if cfg.customClock != nil {
		v.clock = cfg.customClock
		v.clock.SetLoop(cfg.loop)
	} else {
		v.clock = intclock.New(nil, cfg.clock)
	}
	if v.music != nil {
		v.clock.SetSource(v.music)
	}
	v.presenter = intpresent.New(nil, cfg.skin, viewerFeedback{v})
	return v
}

// viewerFeedback routes presenter hit feedback to the sound bank and the
// effect system.
type viewerFeedback struct{ v *Viewer }

func (f viewerFeedback) Click(t intchart.NoteType) {
	if f.v.bank != nil {
		f.v.bank.Click(t)
	}
}

func (f viewerFeedback) Judge(x, y float64) {
	f.v.effects.Judge(f.v.size, x, y)
}

// Effects is the judge effect system. Its Run loop belongs on its own
// goroutine.
func (v *Viewer) Effects() *intfx.System { return v.effects }

func (v *Viewer) Clock() *intclock.Clock { return v.clock }

func (v *Viewer) Presenter() *intpresent.Presenter { return v.presenter }

// Chart returns the loaded chart, nil before LoadChart.
func (v *Viewer) Chart() *intchart.Chart {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.presenter.Chart()
}

// SetChart shows c, forgetting all note state.
func (v *Viewer) SetChart(c *intchart.Chart) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.presenter.SetChart(c)
	if c == nil {
		v.clock.SetChartOffset(0)
		return
	}
	v.clock.SetChartOffset(c.Offset)
	intlogging.L().Info("chart loaded", "lines", len(c.Lines), "notes", c.NoteCount(), "offset", c.Offset)
}

// LoadChart parses a chart document. On failure the current chart is kept.
func (v *Viewer) LoadChart(r io.Reader) error {
	c, err := intchart.Load(r)
	if err != nil {
		return err
	}
	v.SetChart(c)
	return nil
}

func (v *Viewer) LoadChartFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return v.LoadChart(f)
}

// SetMusic replaces the song, closing the previous one.
func (v *Viewer) SetMusic(m MusicPlayer) {
	v.mu.Lock()
	old := v.music
	v.music = m
	v.mu.Unlock()
	v.clock.SetSource(m)
	if old != nil && old != m {
		if err := old.Close(); err != nil {
			intlogging.L().Warn("closing previous music failed", "err", err)
		}
	}
}

// LoadMusicFile decodes a .wav, .ogg or .mp3 file and plays it through the
// shared audio context.
func (v *Viewer) LoadMusicFile(path string) error {
	pcm, err := decodeMusic(path)
	if err != nil {
		return err
	}
	m, err := intaudio.NewMusic(pcm, v.cfg.sampleRate, intaudio.Ebiten(v.cfg.sampleRate))
	if err != nil {
		return err
	}
	v.SetMusic(m)
	return nil
}

func decodeMusic(path string) (*intaudio.PCM, error) {
	return intaudio.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func (v *Viewer) SetBackground(tex intrender.Texture) {
	v.mu.Lock()
	v.background = tex
	v.mu.Unlock()
}

func (v *Viewer) SetSkin(s *intskin.Set) {
	v.mu.Lock()
	v.presenter.SetSkin(s)
	v.mu.Unlock()
}

func (v *Viewer) SetSongInfo(info SongInfo) {
	v.mu.Lock()
	v.cfg.info = info
	v.mu.Unlock()
}

// SetCanvasTransform scales the whole frame about the window centre, then
// moves it by (tx, ty).
func (v *Viewer) SetCanvasTransform(scale, tx, ty float64) {
	v.mu.Lock()
	v.canvasScale, v.canvasX, v.canvasY = scale, tx, ty
	v.mu.Unlock()
}

func (v *Viewer) Play()   { v.clock.Play() }
func (v *Viewer) Pause()  { v.clock.Pause() }
func (v *Viewer) Toggle() { v.clock.Toggle() }

// Seek moves to ms of music time.
func (v *Viewer) Seek(ms float64) { v.clock.Seek(ms) }

// SeekBy moves the seek target by delta ms.
func (v *Viewer) SeekBy(delta float64) {
	v.clock.Seek(v.clock.PlaybackTime() + delta)
}

// SetRate changes the music speed; pitch follows it.
func (v *Viewer) SetRate(rate float64) {
	v.mu.Lock()
	m := v.music
	v.mu.Unlock()
	if m != nil {
		m.SetRate(rate)
	}
}

// Rate is the music speed, 1 without music.
func (v *Viewer) Rate() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rate()
}

func (v *Viewer) rate() float64 {
	if v.music == nil {
		return 1
	}
	if r := v.music.Rate(); r > 0 {
		return r
	}
	return 1
}

func (v *Viewer) SetClickSound(on bool) {
	v.mu.Lock()
	v.cfg.flags.ClickSound = on
	v.mu.Unlock()
}

func (v *Viewer) SetParticles(on bool) {
	v.mu.Lock()
	v.cfg.flags.Particles = on
	v.mu.Unlock()
}

// Flags returns the current presentation toggles.
func (v *Viewer) Flags() intpresent.Flags {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.flags
}

// Tick advances the clock and note state by delta ms of wall time. Update
// calls it with the measured frame time.
func (v *Viewer) Tick(delta float64) {
	switch v.clock.Advance(delta) {
	case intclock.EventEnded:
		v.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	case intclock.EventLooped:
		v.sendEvent(PlaybackEvent{Kind: EventLoopCompleted})
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.effects.SetRate(v.rate())
	v.presenter.Update(v.context())
}

// context snapshots what a frame depends on. Callers hold v.mu.
func (v *Viewer) context() intpresent.Context {
	return intpresent.Context{
		Time:     v.clock.Time(),
		Playing:  v.clock.Playing(),
		Viewport: v.size,
		Flags:    v.cfg.flags,
		Now:      v.effects.Now(),
	}
}

// Update implements ebiten.Game.
func (v *Viewer) Update() error {
	now := v.effects.Now()
	delta := 0.0
	if v.ticked {
		delta = now - v.lastTick
	}
	v.lastTick, v.ticked = now, true
	v.Tick(delta)
	return nil
}

// Layout implements ebiten.Game. The viewer renders at the window size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.mu.Lock()
	v.size.W, v.size.H = float64(outsideWidth), float64(outsideHeight)
	v.mu.Unlock()
	return outsideWidth, outsideHeight
}

// Draw implements ebiten.Game. A panic while drawing drops the frame.
func (v *Viewer) Draw(screen *ebiten.Image) {
	defer func() {
		if r := recover(); r != nil {
			v.warnOnce("draw-panic", "frame dropped", "panic", r)
		}
	}()
	if v.renderer == nil && v.rendererErr == nil {
		v.renderer, v.rendererErr = intgfx.New()
		if v.rendererErr != nil {
			intlogging.L().Error("renderer unavailable", "err", v.rendererErr)
		}
	}
	if v.renderer == nil {
		return
	}
	v.renderer.SetTarget(screen)
	b := screen.Bounds()
	v.RenderFrame(v.renderer, b.Dx(), b.Dy())
}

// RenderFrame draws one frame of w×h pixels into r: background, judge lines
// with their notes, judge effects and the HUD.
func (v *Viewer) RenderFrame(r intrender.Renderer, w, h int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size.W, v.size.H = float64(w), float64(h)
	ctx := v.context()
	vp := ctx.Viewport

	r.BeginFrame(w, h)
	r.Translate((vp.W-vp.W*v.canvasScale)/2, (vp.H-vp.H*v.canvasScale)/2)
	r.Translate(v.canvasX, v.canvasY)
	r.Scale(v.canvasScale, v.canvasScale)

	v.drawBackground(r, vp)

	r.PushClip()
	if !v.cfg.disableGlobalClip {
		r.ClipRect(vp.XPad(), 0, vp.PlayfieldWidth(), vp.H)
	}
	v.presenter.Draw(r, ctx)
	r.PopClip()

	if ctx.Flags.Particles {
		v.effects.Draw(r, vp)
	}
	v.drawHUD(r, ctx)
	r.EndFrame()
}

func (v *Viewer) warnOnce(key, msg string, args ...any) {
	if v.warned[key] {
		return
	}
	v.warned[key] = true
	intlogging.L().Warn(msg, args...)
}

func (v *Viewer) sendEvent(ev PlaybackEvent) {
	v.eventChMu.Lock()
	ch := v.eventCh
	v.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Watch returns a channel that receives loop and end events. The channel is
// buffered (cap 8) and only the most recent Watch channel receives events.
func (v *Viewer) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	v.eventChMu.Lock()
	v.eventCh = ch
	v.eventChMu.Unlock()
	return ch
}

// Close stops playback and releases audio.
func (v *Viewer) Close() error {
	v.clock.Pause()
	v.mu.Lock()
	m, b := v.music, v.bank
	v.music = nil
	v.mu.Unlock()
	var errs []error
	if m != nil {
		errs = append(errs, m.Close())
	}
	if c, ok := b.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
