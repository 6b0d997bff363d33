package audio

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/cbegin/phiview-go/internal/chart"
	"github.com/cbegin/phiview-go/internal/effects"
	"github.com/cbegin/phiview-go/internal/logging"
)

// Clip names one-shot sounds. Notes without their own sound use ClipTap.
type Clip int

const (
	ClipTap Clip = iota
	ClipCatch
	ClipFlick
)

var clipNames = [...]string{ClipTap: "tap", ClipCatch: "catch", ClipFlick: "flick"}

func (c Clip) String() string { return clipNames[c] }

// ClipFor maps a note type to the sound played when it is cleared.
func ClipFor(t chart.NoteType) Clip {
	switch t {
	case chart.Flick:
		return ClipFlick
	case chart.Catch:
		return ClipCatch
	}
	return ClipTap
}

var clipExts = []string{".wav", ".ogg", ".mp3"}

// Bank plays short one-shot clips for cleared notes. Every clip is run
// through a compressor when it is set.
type Bank struct {
	mu      sync.Mutex
	outRate int
	open    OutputFunc
	clips   [len(clipNames)]*PCM
	active  []Output
	volume  float64
}

// NewBank starts with synthesised clicks for every clip.
func NewBank(outRate int, open OutputFunc) *Bank {
	b := &Bank{outRate: outRate, open: open, volume: 1}
	b.SetClip(ClipTap, Tone(outRate, 1760, 60, 0.5))
	b.SetClip(ClipCatch, Tone(outRate, 2637, 40, 0.35))
	b.SetClip(ClipFlick, Tone(outRate, 1318, 90, 0.5))
	return b
}

func (b *Bank) SetClip(c Clip, pcm *PCM) {
	if pcm == nil {
		return
	}
	pcm = compress(pcm)
	b.mu.Lock()
	b.clips[c] = pcm
	b.mu.Unlock()
}

func (b *Bank) Clip(c Clip) *PCM {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clips[c]
}

func (b *Bank) SetVolume(v float64) {
	b.mu.Lock()
	b.volume = v
	b.mu.Unlock()
}

// LoadFS replaces clips with tap, catch and flick files found in fsys. Missing
// files keep the current clip; the first decode failure is returned after all
// clips have been tried.
func (b *Bank) LoadFS(fsys fs.FS) error {
	var first error
	for c := range clipNames {
		clip := Clip(c)
		pcm, err := loadClip(fsys, clip.String())
		switch {
		case err == nil:
			b.SetClip(clip, pcm)
		case errors.Is(err, fs.ErrNotExist):
			logging.L().Debug("click sound not found, keeping default", "clip", clip)
		default:
			logging.L().Warn("click sound unreadable, keeping default", "clip", clip, "err", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func loadClip(fsys fs.FS, name string) (*PCM, error) {
	for _, ext := range clipExts {
		pcm, err := LoadFile(fsys, name+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return pcm, err
	}
	return nil, fs.ErrNotExist
}

// Click plays the clip for a cleared note of type t.
func (b *Bank) Click(t chart.NoteType) {
	b.Play(ClipFor(t))
}

func (b *Bank) Play(c Clip) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reap()
	pcm := b.clips[c]
	if pcm == nil || b.open == nil {
		return
	}
	v := NewVoice(pcm, b.outRate, false)
	out, err := b.open(v)
	if err != nil {
		logging.L().Warn("click sound output failed", "clip", c, "err", err)
		return
	}
	out.SetVolume(b.volume)
	out.Play()
	b.active = append(b.active, out)
}

// reap closes outputs that have finished playing.
func (b *Bank) reap() {
	kept := b.active[:0]
	for _, out := range b.active {
		if out.IsPlaying() {
			kept = append(kept, out)
			continue
		}
		_ = out.Close()
	}
	clear(b.active[len(kept):])
	b.active = kept
}

// Active is the number of clips still playing.
func (b *Bank) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reap()
	return len(b.active)
}

func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for _, out := range b.active {
		errs = append(errs, out.Close())
	}
	b.active = nil
	return errors.Join(errs...)
}

// compress runs the clip through a fast-attack compressor.
func compress(pcm *PCM) *PCM {
	samples := effects.Bake(pcm.Samples, effects.NewCompressor(pcm.SampleRate, effects.ClickCompressor()))
	return &PCM{SampleRate: pcm.SampleRate, Samples: samples}
}
