package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Source renders interleaved stereo frames into dst. Voice is the only
// implementation outside tests.
type Source interface {
	Process(dst []float32)
}

// F32Reader pulls frames from a Source and encodes them for ebiten's F32
// players. It reports io.EOF once a source that can finish has finished.
type F32Reader struct {
	mu  sync.Mutex
	src Source
	buf []float32
}

func NewF32Reader(src Source) *F32Reader {
	return &F32Reader{src: src}
}

func (r *F32Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p) / 8 * 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.buf) < n {
		r.buf = make([]float32, n)
	}
	r.buf = r.buf[:n]
	r.src.Process(r.buf)
	putSamples(p, r.buf)
	if f, ok := r.src.(interface{ Finished() bool }); ok && f.Finished() {
		return n * 4, io.EOF
	}
	return n * 4, nil
}

// Output is a running audio sink pulling from a Source.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	// Position is how much audio the listener has heard.
	Position() time.Duration
	SetVolume(v float64)
	Close() error
}

// OutputFunc opens an Output reading from src.
type OutputFunc func(src Source) (Output, error)

// Ebiten opens outputs on the process-wide ebiten audio context.
func Ebiten(sampleRate int) OutputFunc {
	return func(src Source) (Output, error) {
		ctx, err := audioContext(sampleRate)
		if err != nil {
			return nil, err
		}
		p, err := ctx.NewPlayerF32(NewF32Reader(src))
		if err != nil {
			return nil, fault.Wrap(err, fmsg.WithDesc("open audio player", "Audio output is unavailable."))
		}
		return ebitenOutput{p}, nil
	}
}

// ebiten allows one context per process, so every output shares it.
var (
	sharedOnce sync.Once
	shared     *ebitaudio.Context
	sharedRate int
)

func audioContext(sampleRate int) (*ebitaudio.Context, error) {
	sharedOnce.Do(func() {
		sharedRate = sampleRate
		shared = ebitaudio.NewContext(sampleRate)
	})
	if sharedRate != sampleRate {
		return nil, fault.New(fmt.Sprintf("audio context runs at %d Hz, %d Hz requested", sharedRate, sampleRate),
			fmsg.WithDesc("sample rate mismatch", "Audio was already started at a different sample rate."))
	}
	return shared, nil
}

type ebitenOutput struct{ *ebitaudio.Player }

func (o ebitenOutput) Close() error {
	o.Player.Pause()
	return o.Player.Close()
}
