package audio

import (
	"sync"
	"sync/atomic"
)

// Voice plays a PCM clip at a variable rate, resampled linearly to the output
// rate. A held voice keeps producing silence past the end instead of finishing.
type Voice struct {
	mu      sync.Mutex
	pcm     *PCM
	outRate int
	rate    float64
	gain    float32
	cursor  float64 // source frames
	hold    bool
	done    atomic.Bool
}

func NewVoice(pcm *PCM, outRate int, hold bool) *Voice {
	return &Voice{pcm: pcm, outRate: outRate, rate: 1, gain: 1, hold: hold}
}

func (v *Voice) step() float64 {
	if v.pcm == nil || v.outRate <= 0 {
		return 0
	}
	return v.rate * float64(v.pcm.SampleRate) / float64(v.outRate)
}

func (v *Voice) Process(dst []float32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	frames := v.pcm.Frames()
	step := v.step()
	for i := 0; i+1 < len(dst); i += 2 {
		idx := int(v.cursor)
		if idx >= frames || step == 0 {
			dst[i], dst[i+1] = 0, 0
			continue
		}
		frac := float32(v.cursor - float64(idx))
		l0, r0 := v.pcm.Samples[idx*2], v.pcm.Samples[idx*2+1]
		l1, r1 := l0, r0
		if idx+1 < frames {
			l1, r1 = v.pcm.Samples[idx*2+2], v.pcm.Samples[idx*2+3]
		}
		dst[i] = (l0 + (l1-l0)*frac) * v.gain
		dst[i+1] = (r0 + (r1-r0)*frac) * v.gain
		v.cursor += step
	}
	if !v.hold && int(v.cursor) >= frames {
		v.done.Store(true)
	}
}

func (v *Voice) Finished() bool {
	return v.done.Load()
}

// Seek moves the read position to ms, clamped to the clip.
func (v *Voice) Seek(ms float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pcm == nil {
		return
	}
	c := ms / 1000 * float64(v.pcm.SampleRate)
	if c < 0 {
		c = 0
	}
	if f := float64(v.pcm.Frames()); c > f {
		c = f
	}
	v.cursor = c
	v.done.Store(false)
}

// Millis is the read position in ms of the clip.
func (v *Voice) Millis() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pcm == nil || v.pcm.SampleRate <= 0 {
		return 0
	}
	return v.cursor * 1000 / float64(v.pcm.SampleRate)
}

func (v *Voice) SetRate(rate float64) {
	v.mu.Lock()
	v.rate = rate
	v.mu.Unlock()
}

func (v *Voice) SetGain(gain float32) {
	v.mu.Lock()
	v.gain = gain
	v.mu.Unlock()
}
