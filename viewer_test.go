package phiview

import (
	"encoding/binary"
	"image"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intaudio "github.com/cbegin/phiview-go/internal/audio"
	intchart "github.com/cbegin/phiview-go/internal/chart"
	intmathx "github.com/cbegin/phiview-go/internal/mathx"
	intrender "github.com/cbegin/phiview-go/internal/render"
)

// 120 bpm: one beat-local unit is 15.625 ms, so 64 is one second.
const testChart = `{
  "formatVersion": 3,
  "offset": 0,
  "judgeLineList": [{
    "bpm": 120,
    "notesAbove": [
      {"type": 1, "time": 64, "positionX": 0, "speed": 1},
      {"type": 4, "time": 64.5, "positionX": 1.5, "speed": 1},
      {"type": 3, "time": 68, "positionX": 0, "speed": 1, "holdTime": 32},
      {"type": 2, "time": 640, "positionX": 0, "speed": 1}
    ],
    "notesBelow": [
      {"type": 1, "time": 72, "positionX": 0, "speed": 1}
    ]
  }]
}`

type fakeMusic struct {
	mu      sync.Mutex
	pos     float64
	dur     float64
	rate    float64
	playing bool
	closed  bool
}

func (m *fakeMusic) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *fakeMusic) Duration() float64 { return m.dur }

func (m *fakeMusic) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

func (m *fakeMusic) Play(from float64) {
	m.mu.Lock()
	m.pos, m.playing = from, true
	m.mu.Unlock()
}

func (m *fakeMusic) Stop() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
}

func (m *fakeMusic) Seek(ms float64) {
	m.mu.Lock()
	m.pos = ms
	m.mu.Unlock()
}

func (m *fakeMusic) SetRate(rate float64) {
	m.mu.Lock()
	m.rate = rate
	m.mu.Unlock()
}

func (m *fakeMusic) Close() error {
	m.closed = true
	return nil
}

func (m *fakeMusic) set(pos float64) {
	m.mu.Lock()
	m.pos = pos
	m.mu.Unlock()
}

type fakeBank struct {
	clicks []intchart.NoteType
	closed bool
}

func (b *fakeBank) Click(t intchart.NoteType) { b.clicks = append(b.clicks, t) }

func (b *fakeBank) Close() error {
	b.closed = true
	return nil
}

func newTestViewer(t *testing.T, opts ...Option) (*Viewer, *fakeMusic, *fakeBank) {
	t.Helper()
	music := &fakeMusic{dur: 12000, rate: 1}
	bank := &fakeBank{}
	v := NewViewer(append([]Option{WithMusicPlayer(music), WithSoundBank(bank)}, opts...)...)
	require.NoError(t, v.LoadChart(strings.NewReader(testChart)))
	return v, music, bank
}

func texts(rec *intrender.Recorder) []string {
	var out []string
	for _, c := range rec.Draws() {
		if c.Op == intrender.OpText {
			out = append(out, c.Text)
		}
	}
	return out
}

func TestTickClearsNotesAndFiresFeedback(t *testing.T) {
	v, music, bank := newTestViewer(t)
	v.Play()
	music.set(500)
	v.Tick(16)
	assert.Empty(t, bank.clicks)

	music.set(1010)
	v.Tick(16)
	assert.Equal(t, []intchart.NoteType{intchart.Tap, intchart.Flick}, bank.clicks)

	v.Effects().Step()
	assert.Len(t, v.Effects().Snapshot(), 2)

	cleared, total := v.Stats()
	assert.Equal(t, 2, cleared)
	assert.Equal(t, 5, total)
}

func TestTickWithoutFeedbackFlags(t *testing.T) {
	v, music, bank := newTestViewer(t, WithClickSound(false), WithParticles(false))
	v.Play()
	music.set(500)
	v.Tick(16)
	music.set(1010)
	v.Tick(16)

	assert.Empty(t, bank.clicks)
	v.Effects().Step()
	assert.Empty(t, v.Effects().Snapshot())
	cleared, _ := v.Stats()
	assert.Equal(t, 2, cleared)
}

func TestPlaybackEndedEvent(t *testing.T) {
	v, music, _ := newTestViewer(t)
	events := v.Watch()
	v.Play()
	music.set(12000)
	v.Tick(16)

	select {
	case ev := <-events:
		assert.Equal(t, EventPlaybackEnded, ev.Kind)
	default:
		t.Fatal("expected an end event")
	}
	assert.False(t, v.Clock().Playing())
}

func TestLoopEvent(t *testing.T) {
	v, music, _ := newTestViewer(t, WithLoop(true))
	events := v.Watch()
	v.Play()
	music.set(12000)
	v.Tick(16)

	select {
	case ev := <-events:
		assert.Equal(t, EventLoopCompleted, ev.Kind)
	default:
		t.Fatal("expected a loop event")
	}
	assert.True(t, v.Clock().Playing())
	assert.Equal(t, 0.0, music.Position())
}

func TestRenderFrameLayersAndClip(t *testing.T) {
	v, _, _ := newTestViewer(t)
	rec := intrender.NewRecorder()
	v.RenderFrame(rec, 2000, 900)

	cmds := rec.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, intrender.OpBeginFrame, cmds[0].Op)
	assert.Equal(t, intrender.OpEndFrame, cmds[len(cmds)-1].Op)

	var clipRect *intrender.Command
	for i := range cmds {
		if cmds[i].Op == intrender.OpClipRect {
			clipRect = &cmds[i]
			break
		}
	}
	require.NotNil(t, clipRect)
	assert.InDelta(t, 200, clipRect.X, 1e-9, "letterbox pad at 2000x900")
	assert.InDelta(t, 1600, clipRect.W, 1e-9)
	assert.Equal(t, 0, rec.ClipDepth())

	ts := texts(rec)
	require.NotEmpty(t, ts)
	assert.Equal(t, "Invalid background!", ts[0])
	assert.Equal(t, "0000000", ts[len(ts)-1])
}

func TestRenderFrameWithoutGlobalClip(t *testing.T) {
	v, _, _ := newTestViewer(t, WithDisableGlobalClip(true))
	rec := intrender.NewRecorder()
	v.RenderFrame(rec, 2000, 900)
	for _, c := range rec.Commands() {
		assert.NotEqual(t, intrender.OpClipRect, c.Op)
	}
}

func TestBackgroundIsFittedAndDimmed(t *testing.T) {
	v, _, _ := newTestViewer(t, WithBackgroundDim(0.5))
	bg := fakeTexture{w: 200, h: 100}
	v.SetBackground(bg)
	rec := intrender.NewRecorder()
	v.RenderFrame(rec, 2000, 900)

	draws := rec.Draws()
	require.GreaterOrEqual(t, len(draws), 3)
	assert.Equal(t, intrender.OpTexture, draws[0].Op)
	assert.InDelta(t, 2000, draws[0].W, 1e-9)
	assert.InDelta(t, 0.4, draws[0].Tint.Alpha, 1e-9)

	fitted := draws[1]
	assert.Equal(t, intrender.OpTexture, fitted.Op)
	assert.InDelta(t, 1800, fitted.W, 1e-9)
	assert.InDelta(t, 100, fitted.X, 1e-9, "centred and overhanging the clip")

	dim := draws[2]
	assert.Equal(t, intrender.OpRect, dim.Op)
	assert.Equal(t, uint8(128), dim.Color.A)
	assert.InDelta(t, 200, dim.X, 1e-9)
}

type fakeTexture struct{ w, h int }

func (f fakeTexture) Bounds() image.Rectangle { return image.Rect(0, 0, f.w, f.h) }

func TestHUDText(t *testing.T) {
	v, music, _ := newTestViewer(t, WithSongInfo(SongInfo{Title: "Test Song", Difficulty: "IN", Level: 15}))
	v.Play()
	music.set(500)
	v.Tick(16)
	music.set(1200)
	v.Tick(16)

	rec := intrender.NewRecorder()
	v.RenderFrame(rec, 1440, 1080)
	ts := texts(rec)
	assert.Contains(t, ts, "Test Song")
	assert.Contains(t, ts, "IN Lv.15")
	assert.Contains(t, ts, "COMBO")
	assert.Contains(t, ts, "3")
	assert.Contains(t, ts, "0600000")
}

func TestHUDUnknownLevel(t *testing.T) {
	v, _, _ := newTestViewer(t, WithSongInfo(SongInfo{Title: "x", Difficulty: "HD", Level: -1}))
	rec := intrender.NewRecorder()
	v.RenderFrame(rec, 1440, 1080)
	assert.Contains(t, texts(rec), "HD Lv.?")
	assert.NotContains(t, texts(rec), "COMBO")
}

func TestCanvasTransform(t *testing.T) {
	v, _, _ := newTestViewer(t)
	v.SetCanvasTransform(0.5, 10, 0)
	rec := intrender.NewRecorder()
	v.RenderFrame(rec, 1000, 800)

	first := rec.Draws()[0]
	x, y := intmathx.Apply(first.Transform, 0, 0)
	assert.InDelta(t, 260, x, 1e-9)
	assert.InDelta(t, 200, y, 1e-9)
	x, _ = intmathx.Apply(first.Transform, 100, 0)
	assert.InDelta(t, 310, x, 1e-9)
}

func TestRenderFrameAt(t *testing.T) {
	v, _, bank := newTestViewer(t)
	rec := v.RenderFrameAt(1010, 1440, 1080)
	require.NotEmpty(t, rec.Draws())

	assert.InDelta(t, 1010, v.Clock().Time(), 1e-9)
	cleared, _ := v.Stats()
	assert.Equal(t, 2, cleared)
	assert.Empty(t, bank.clicks, "paused frames are silent")
}

func TestLoadChartErrorKeepsChart(t *testing.T) {
	v, _, _ := newTestViewer(t)
	before := v.Chart()
	err := v.LoadChart(strings.NewReader(`{"formatVersion": 3`))
	require.Error(t, err)
	assert.Same(t, before, v.Chart())
}

func TestSetRateAndClose(t *testing.T) {
	v, music, bank := newTestViewer(t)
	v.SetRate(1.5)
	assert.Equal(t, 1.5, music.Rate())

	replacement := &fakeMusic{dur: 1000, rate: 1}
	v.SetMusic(replacement)
	assert.True(t, music.closed)

	require.NoError(t, v.Close())
	assert.True(t, replacement.closed)
	assert.True(t, bank.closed)
}

func TestSeekBy(t *testing.T) {
	v, _, _ := newTestViewer(t, WithSeekSmoothing(0))
	v.Seek(2000)
	v.SeekBy(-500)
	v.Tick(16)
	assert.InDelta(t, 1500, v.Clock().Time(), 1e-9)
}

func TestRenderClickTrack(t *testing.T) {
	c, err := intchart.Parse([]byte(testChart))
	require.NoError(t, err)
	const rate = 1000
	bank := intaudio.NewBank(rate, nil)
	out := RenderClickTrack(c, bank, rate, 2)
	require.Len(t, out, 4000)

	for _, s := range out[:2000] {
		require.Zero(t, s)
	}
	peak := 0.0
	for _, s := range out[2000:2100] {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	assert.Greater(t, peak, 0.0)

	assert.Len(t, RenderClickTrack(nil, bank, rate, 1), 2000)
}

func TestEncodeFloatWAV(t *testing.T) {
	wav := EncodeFloatWAV([]float32{0, 0.5, -0.5, 1}, 48000, 2)
	require.Len(t, wav, 44+16)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+16), binary.LittleEndian.Uint32(wav[4:]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[40:]))
	assert.Equal(t, uint16(8), binary.LittleEndian.Uint16(wav[32:]), "block align")

	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(wav[20:]), "IEEE float format")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[24:]))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(wav[48:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(wav[56:])))

	assert.Len(t, EncodeFloatWAV(nil, 44100, 2), 44, "an empty clip is just the header")
}
