package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// PCM is decoded audio held in memory as interleaved stereo float32.
type PCM struct {
	SampleRate int
	Samples    []float32
}

func (p *PCM) Frames() int {
	if p == nil {
		return 0
	}
	return len(p.Samples) / 2
}

// Millis is the length in milliseconds.
func (p *PCM) Millis() float64 {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) * 1000 / float64(p.SampleRate)
}

func (p *PCM) Duration() time.Duration {
	return time.Duration(p.Millis() * float64(time.Millisecond))
}

// Format names an encoded audio container.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatVorbis Format = "ogg"
	FormatMP3    Format = "mp3"
)

// FormatOf guesses the format from a file name.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav":
		return FormatWAV, true
	case ".ogg", ".oga":
		return FormatVorbis, true
	case ".mp3":
		return FormatMP3, true
	}
	return "", false
}

// Decode reads a whole encoded stream into memory.
func Decode(r io.Reader, format Format) (*PCM, error) {
	var (
		src  io.Reader
		rate int
		err  error
	)
	switch format {
	case FormatWAV:
		var s *wav.Stream
		if s, err = wav.DecodeF32(r); err == nil {
			src, rate = s, s.SampleRate()
		}
	case FormatVorbis:
		var s *vorbis.Stream
		if s, err = vorbis.DecodeF32(r); err == nil {
			src, rate = s, s.SampleRate()
		}
	case FormatMP3:
		var s *mp3.Stream
		if s, err = mp3.DecodeF32(r); err == nil {
			src, rate = s, s.SampleRate()
		}
	default:
		return nil, fault.New(fmt.Sprintf("unsupported audio format %q", format),
			fmsg.WithDesc("decode audio", "This audio format is not supported."),
			ftag.With(ftag.InvalidArgument))
	}
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode "+string(format), "The audio file could not be decoded."),
			ftag.With(ftag.InvalidArgument))
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read decoded "+string(format)))
	}
	return &PCM{SampleRate: rate, Samples: samplesFromBytes(raw)}, nil
}

// DecodeBytes decodes an in-memory file.
func DecodeBytes(b []byte, format Format) (*PCM, error) {
	return Decode(bytes.NewReader(b), format)
}

// LoadFile decodes name from fsys, picking the format from its extension.
func LoadFile(fsys fs.FS, name string) (*PCM, error) {
	format, ok := FormatOf(name)
	if !ok {
		return nil, fault.New(fmt.Sprintf("unknown audio extension %q", path.Ext(name)),
			fmsg.WithDesc("load "+name, "Music must be a .wav, .ogg or .mp3 file."),
			ftag.With(ftag.InvalidArgument))
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("open "+name, "The audio file could not be opened."),
			ftag.With(ftag.NotFound))
	}
	defer f.Close()
	return Decode(f, format)
}

// putSamples writes samples as little-endian float32.
func putSamples(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

// samplesFromBytes is the inverse of putSamples.
func samplesFromBytes(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// Tone synthesises a short decaying sine burst, used when no click sample is
// available.
func Tone(sampleRate int, freq, ms, gain float64) *PCM {
	frames := int(float64(sampleRate) * ms / 1000)
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		env := math.Exp(-t * 1000 / (ms / 4))
		v := float32(gain * env * math.Sin(2*math.Pi*freq*t))
		out[i*2], out[i*2+1] = v, v
	}
	return &PCM{SampleRate: sampleRate, Samples: out}
}
