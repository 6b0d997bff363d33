package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/phiview-go/internal/chart"
)

type fakeOutput struct {
	mu      sync.Mutex
	source  Source
	playing bool
	pos     time.Duration
	volume  float64
	closed  bool
}

func (o *fakeOutput) Play()  { o.mu.Lock(); o.playing = true; o.mu.Unlock() }
func (o *fakeOutput) Pause() { o.mu.Lock(); o.playing = false; o.mu.Unlock() }

func (o *fakeOutput) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *fakeOutput) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *fakeOutput) advance(d time.Duration) {
	o.mu.Lock()
	o.pos += d
	o.mu.Unlock()
}

func (o *fakeOutput) SetVolume(v float64) { o.volume = v }
func (o *fakeOutput) Close() error        { o.closed = true; return nil }

type outputs struct {
	mu   sync.Mutex
	list []*fakeOutput
	err  error
}

func (f *outputs) open(source Source) (Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	o := &fakeOutput{source: source}
	f.list = append(f.list, o)
	return o, nil
}

// ramp is a mono ramp duplicated to both channels: frame i holds i.
func ramp(rate, frames int) *PCM {
	s := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		s[i*2], s[i*2+1] = float32(i), float32(i)
	}
	return &PCM{SampleRate: rate, Samples: s}
}

func TestPCMDuration(t *testing.T) {
	p := ramp(1000, 1500)
	assert.Equal(t, 1500, p.Frames())
	assert.Equal(t, 1500.0, p.Millis())
	assert.Equal(t, 1500*time.Millisecond, p.Duration())

	var nilPCM *PCM
	assert.Zero(t, nilPCM.Millis())
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ok   bool
	}{
		{"song.wav", FormatWAV, true},
		{"song.OGG", FormatVorbis, true},
		{"dir/song.mp3", FormatMP3, true},
		{"song.flac", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatOf(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func wavBytes(rate int, frames []int16) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(frames) * 4)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*4))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(4))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	for _, v := range frames {
		_ = binary.Write(&buf, binary.LittleEndian, v)
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	pcm, err := DecodeBytes(wavBytes(22050, []int16{0x4000, 0, -0x4000, 0}), FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, 22050, pcm.SampleRate)
	require.Equal(t, 4, pcm.Frames())
	assert.InDelta(t, 0.5, pcm.Samples[0], 1e-3)
	assert.InDelta(t, -0.5, pcm.Samples[4], 1e-3)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeBytes([]byte("not audio"), FormatWAV)
	assert.Error(t, err)

	_, err = DecodeBytes(nil, Format("flac"))
	assert.Error(t, err)

	_, err = LoadFile(fstest.MapFS{}, "missing.ogg")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = LoadFile(fstest.MapFS{}, "song.txt")
	assert.Error(t, err)
}

func TestF32ReaderEncodesFloats(t *testing.T) {
	v := NewVoice(&PCM{SampleRate: 100, Samples: []float32{0.25, -0.5}}, 100, false)
	r := NewF32Reader(v)
	p := make([]byte, 16)
	n, err := r.Read(p)
	assert.Equal(t, 16, n)
	assert.ErrorIs(t, err, io.EOF)
	got := samplesFromBytes(p)
	assert.Equal(t, []float32{0.25, -0.5, 0, 0}, got)
}

func TestVoiceResamples(t *testing.T) {
	v := NewVoice(ramp(100, 10), 200, false)
	dst := make([]float32, 8)
	v.Process(dst)
	assert.Equal(t, []float32{0, 0, 0.5, 0.5, 1, 1, 1.5, 1.5}, dst)
	assert.InDelta(t, 20, v.Millis(), 1e-9)

	v.SetRate(2)
	v.Process(dst)
	assert.Equal(t, []float32{2, 2, 3, 3, 4, 4, 5, 5}, dst)
	assert.False(t, v.Finished())
}

func TestVoiceFinishesUnlessHeld(t *testing.T) {
	short := NewVoice(ramp(100, 2), 100, false)
	held := NewVoice(ramp(100, 2), 100, true)
	dst := make([]float32, 8)
	short.Process(dst)
	held.Process(dst)
	assert.True(t, short.Finished())
	assert.False(t, held.Finished())
	assert.Equal(t, []float32{0, 0, 1, 1, 0, 0, 0, 0}, dst)

	short.Seek(0)
	assert.False(t, short.Finished())
}

func TestVoiceSeekClamps(t *testing.T) {
	v := NewVoice(ramp(1000, 100), 1000, true)
	v.Seek(-50)
	assert.Zero(t, v.Millis())
	v.Seek(5000)
	assert.Equal(t, 100.0, v.Millis())
	v.Seek(40)
	assert.Equal(t, 40.0, v.Millis())
}

func TestVoiceGain(t *testing.T) {
	v := NewVoice(&PCM{SampleRate: 10, Samples: []float32{1, -1}}, 10, false)
	v.SetGain(0.5)
	dst := make([]float32, 2)
	v.Process(dst)
	assert.Equal(t, []float32{0.5, -0.5}, dst)
}

func newTestMusic(t *testing.T) (*Music, *fakeOutput, *time.Time) {
	t.Helper()
	var outs outputs
	m, err := NewMusic(ramp(1000, 10000), 1000, outs.open)
	require.NoError(t, err)
	require.Len(t, outs.list, 1)
	now := time.Unix(0, 0)
	m.now = func() time.Time { return now }
	return m, outs.list[0], &now
}

func TestMusicPositionFollowsOutput(t *testing.T) {
	m, out, _ := newTestMusic(t)
	assert.Equal(t, 10000.0, m.Duration())

	m.Play(2000)
	assert.True(t, out.IsPlaying())
	out.advance(500 * time.Millisecond)
	assert.InDelta(t, 2500, m.Position(), 1e-9)

	m.Stop()
	assert.False(t, out.IsPlaying())
	out.advance(time.Second)
	assert.InDelta(t, 2500, m.Position(), 1e-9, "stopped music holds its position")

	m.Play(m.Position())
	out.advance(time.Second)
	assert.InDelta(t, 3500, m.Position(), 1e-9)
}

func TestMusicPositionCapsAtDuration(t *testing.T) {
	m, out, _ := newTestMusic(t)
	m.Play(9900)
	out.advance(time.Second)
	assert.Equal(t, 10000.0, m.Position())
}

func TestMusicSeek(t *testing.T) {
	m, out, _ := newTestMusic(t)
	m.Seek(1234)
	assert.Equal(t, 1234.0, m.Position())
	assert.InDelta(t, 1234, m.voice.Millis(), 1e-9)

	m.Play(0)
	out.advance(100 * time.Millisecond)
	m.Seek(5000)
	assert.Equal(t, 5000.0, m.Position())
	out.advance(100 * time.Millisecond)
	assert.InDelta(t, 5100, m.Position(), 1e-9)
}

func TestMusicRateAndPitch(t *testing.T) {
	m, out, _ := newTestMusic(t)
	m.Play(1000)
	out.advance(100 * time.Millisecond)
	m.SetRate(2)
	out.advance(100 * time.Millisecond)
	assert.InDelta(t, 1300, m.Position(), 1e-9)
	assert.InDelta(t, 12, m.Pitch(), 1e-9)

	m.SetRate(0.5)
	assert.InDelta(t, -12, m.Pitch(), 1e-9)

	m.SetRate(0)
	m.SetRate(-1)
	assert.InDelta(t, 0.5, m.Rate(), 1e-9)
}

func TestMusicPreRoll(t *testing.T) {
	m, out, now := newTestMusic(t)
	m.Play(-10000)
	assert.True(t, m.Playing())
	assert.False(t, out.IsPlaying(), "output waits for the pre-roll")

	*now = now.Add(4 * time.Second)
	assert.InDelta(t, -6000, m.Position(), 1e-9)

	m.Stop()
	assert.False(t, m.Playing())
	assert.InDelta(t, -6000, m.Position(), 1e-9)
}

func TestMusicPreRollStartsOutput(t *testing.T) {
	m, out, _ := newTestMusic(t)
	m.Play(-20)
	require.Eventually(t, out.IsPlaying, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 0, m.Position(), 1e-9)
}

func TestMusicVolume(t *testing.T) {
	m, out, _ := newTestMusic(t)
	m.SetVolume(0.4)
	assert.Equal(t, 0.4, m.Volume())
	assert.Equal(t, 0.4, out.volume)
	m.SetVolume(-1)
	assert.Zero(t, m.Volume())
	require.NoError(t, m.Close())
	assert.True(t, out.closed)
}

func TestNewMusicErrors(t *testing.T) {
	var outs outputs
	_, err := NewMusic(nil, 1000, outs.open)
	assert.Error(t, err)

	outs.err = errors.New("no device")
	_, err = NewMusic(ramp(1000, 10), 1000, outs.open)
	assert.ErrorIs(t, err, outs.err)
}

func TestClipFor(t *testing.T) {
	assert.Equal(t, ClipTap, ClipFor(chart.Tap))
	assert.Equal(t, ClipTap, ClipFor(chart.Hold))
	assert.Equal(t, ClipTap, ClipFor(chart.Dummy))
	assert.Equal(t, ClipTap, ClipFor(chart.NoteType(9)))
	assert.Equal(t, ClipCatch, ClipFor(chart.Catch))
	assert.Equal(t, ClipFlick, ClipFor(chart.Flick))
	assert.Equal(t, "flick", ClipFlick.String())
}

func TestBankPlaysAndReaps(t *testing.T) {
	var outs outputs
	b := NewBank(1000, outs.open)
	b.SetVolume(0.5)
	b.Click(chart.Tap)
	b.Click(chart.Flick)
	require.Len(t, outs.list, 2)
	assert.Equal(t, 2, b.Active())
	assert.Equal(t, 0.5, outs.list[0].volume)

	outs.list[0].Pause()
	assert.Equal(t, 1, b.Active())
	assert.True(t, outs.list[0].closed)

	require.NoError(t, b.Close())
	assert.True(t, outs.list[1].closed)
	assert.Zero(t, b.Active())
}

func TestBankOutputFailureIsAbsorbed(t *testing.T) {
	outs := outputs{err: errors.New("no device")}
	b := NewBank(1000, outs.open)
	b.Click(chart.Catch)
	assert.Zero(t, b.Active())
}

func TestBankLoadFS(t *testing.T) {
	var outs outputs
	b := NewBank(1000, outs.open)
	before := b.Clip(ClipCatch)

	fsys := fstest.MapFS{
		"tap.wav":   {Data: wavBytes(1000, []int16{100, 200, 300})},
		"flick.ogg": {Data: []byte("broken")},
	}
	err := b.LoadFS(fsys)
	assert.Error(t, err, "broken flick is reported")
	assert.Equal(t, 3, b.Clip(ClipTap).Frames())
	assert.Same(t, before, b.Clip(ClipCatch), "missing catch keeps the default")
	assert.NotNil(t, b.Clip(ClipFlick))
}

func TestCompressTamesLoudClip(t *testing.T) {
	loud := &PCM{SampleRate: 1000, Samples: make([]float32, 2000)}
	for i := range loud.Samples {
		loud.Samples[i] = 1
	}
	out := compress(loud)
	assert.Len(t, out.Samples, len(loud.Samples))
	assert.Less(t, out.Samples[len(out.Samples)-1], float32(1))
	assert.Equal(t, float32(1), loud.Samples[0], "source clip is untouched")
}

func TestTone(t *testing.T) {
	p := Tone(1000, 100, 50, 0.5)
	assert.Equal(t, 50, p.Frames())
	for _, s := range p.Samples {
		assert.LessOrEqual(t, s, float32(0.5))
		assert.GreaterOrEqual(t, s, float32(-0.5))
	}
}
