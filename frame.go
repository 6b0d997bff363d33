package phiview

import (
	"encoding/binary"
	"math"

	intaudio "github.com/cbegin/phiview-go/internal/audio"
	intchart "github.com/cbegin/phiview-go/internal/chart"
	inteval "github.com/cbegin/phiview-go/internal/eval"
	intpresent "github.com/cbegin/phiview-go/internal/present"
	intrender "github.com/cbegin/phiview-go/internal/render"
)

// RenderFrameAt draws the chart as it looks at music time ms into a recorder
// of w×h pixels. Nothing is played and no judge effects are spawned.
func (v *Viewer) RenderFrameAt(ms float64, w, h int) *intrender.Recorder {
	v.clock.Pause()
	v.clock.Seek(ms)
	v.clock.Advance(math.Inf(1))
	v.Tick(0)
	rec := intrender.NewRecorder()
	v.RenderFrame(rec, w, h)
	return rec
}

// RenderClickTrack mixes the bank's clip for every note of c at the moment the
// note reaches its line, on a music timeline of the given length. The result
// is interleaved stereo at sampleRate.
func RenderClickTrack(c *intchart.Chart, bank *intaudio.Bank, sampleRate int, seconds float64) []float32 {
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	if c == nil || bank == nil {
		return out
	}
	var buf []float32
	c.EachNote(func(i int, _ intchart.Side, n *intchart.Note) {
		pcm := bank.Clip(intaudio.ClipFor(n.Type))
		if pcm == nil {
			return
		}
		at := inteval.Millis(c.Lines[i], n.Time) - c.Offset*1000
		start := int(math.Round(at * float64(sampleRate) / 1000))
		if start < 0 || start >= frames {
			return
		}
		voice := intaudio.NewVoice(pcm, sampleRate, false)
		length := int(math.Ceil(pcm.Millis() * float64(sampleRate) / 1000))
		length = min(length, frames-start)
		if cap(buf) < length*2 {
			buf = make([]float32, length*2)
		}
		buf = buf[:length*2]
		voice.Process(buf)
		dst := out[start*2:]
		for j, s := range buf {
			dst[j] += s
		}
	})
	return out
}

// Stats reports cleared and total notes as of the last frame.
func (v *Viewer) Stats() (cleared, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.presenter.Stats()
}

// Viewport is the window geometry seen by the last frame.
func (v *Viewer) Viewport() intpresent.Viewport {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// floatWAVHeader is the canonical 44-byte RIFF header for IEEE float PCM.
type floatWAVHeader struct {
	RIFF       [4]byte
	RIFFSize   uint32
	WAVE       [4]byte
	Fmt        [4]byte
	FmtSize    uint32
	Format     uint16
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	Data       [4]byte
	DataSize   uint32
}

// EncodeFloatWAV wraps interleaved float32 samples in a WAVE file (format 3,
// 32 bits per sample, little endian), the layout the click track is exported in.
func EncodeFloatWAV(samples []float32, sampleRate, channels int) []byte {
	dataSize := uint32(len(samples) * 4)
	h := floatWAVHeader{
		RIFF:       [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize:   36 + dataSize,
		WAVE:       [4]byte{'W', 'A', 'V', 'E'},
		Fmt:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:    16,
		Format:     3,
		Channels:   uint16(channels),
		SampleRate: uint32(sampleRate),
		ByteRate:   uint32(sampleRate * channels * 4),
		BlockAlign: uint16(channels * 4),
		Bits:       32,
		Data:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:   dataSize,
	}
	out := make([]byte, 0, 44+dataSize)
	out, _ = binary.Append(out, binary.LittleEndian, &h)
	out, _ = binary.Append(out, binary.LittleEndian, samples)
	return out
}
