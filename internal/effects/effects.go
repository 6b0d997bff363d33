// Package effects bakes stereo processing into one-shot clips at load time.
package effects

import "slices"

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Bake returns a processed copy of an interleaved stereo clip. Each effector
// starts from a reset state and sees every frame in order. A trailing half
// frame is copied through untouched. The input is never modified.
func Bake(clip []float32, fx ...Effector) []float32 {
	out := slices.Clone(clip)
	if len(fx) == 0 {
		return out
	}
	for _, e := range fx {
		e.Reset()
	}
	for i := 0; i+1 < len(out); i += 2 {
		l, r := out[i], out[i+1]
		for _, e := range fx {
			l, r = e.Process(l, r)
		}
		out[i], out[i+1] = l, r
	}
	return out
}
