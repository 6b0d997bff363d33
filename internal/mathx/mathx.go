package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

func Clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Progress returns how far t lies through [start, end]. A zero-length span is
// treated as an instantaneous step: 0 before start, 1 at or after it.
func Progress[T constraints.Float](start, end, t T) T {
	d := end - start
	if d == 0 {
		if t >= start {
			return 1
		}
		return 0
	}
	return (t - start) / d
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Apply maps (x, y) through the 2D affine transform m.
func Apply(m mgl64.Mat3, x, y float64) (float64, float64) {
	v := m.Mul3x1(mgl64.Vec3{x, y, 1})
	return v.X(), v.Y()
}
