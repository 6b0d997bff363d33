package fx

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/phiview-go/internal/present"
	"github.com/cbegin/phiview-go/internal/render"
)

type manualClock struct{ ms atomic.Uint64 }

func (c *manualClock) now() float64   { return math.Float64frombits(c.ms.Load()) }
func (c *manualClock) set(ms float64) { c.ms.Store(math.Float64bits(ms)) }
func (c *manualClock) add(ms float64) { c.set(c.now() + ms) }

func newSystem(t *testing.T, queue int) (*System, *manualClock) {
	t.Helper()
	clk := &manualClock{}
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Queue = queue
	cfg.Now = clk.now
	return New(cfg), clk
}

var vp = present.Viewport{W: 1920, H: 1080}

func TestSpawnIsVisibleAfterStep(t *testing.T) {
	s, _ := newSystem(t, 8)
	s.Spawn(100, 200)
	assert.Empty(t, s.Snapshot(), "spawns wait for the physics step")

	s.Step()
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 100.0, snap[0].X)
	assert.Equal(t, 200.0, snap[0].Y)
	assert.Len(t, snap[0].Particles, 4)
}

func TestParticlesMoveAndDamp(t *testing.T) {
	s, _ := newSystem(t, 8)
	s.Spawn(0, 0)
	s.Step()
	first := s.Snapshot()[0].Particles[0]
	speed := math.Hypot(first.VX, first.VY)
	assert.InDelta(t, 0.92*math.Hypot(first.X, first.Y), speed, 1e-9,
		"the first step moves by the initial velocity and then damps it")

	initial := math.Hypot(first.X, first.Y)
	assert.GreaterOrEqual(t, initial, 7.0)
	assert.Less(t, initial, 14.0)

	s.Step()
	second := s.Snapshot()[0].Particles[0]
	assert.InDelta(t, first.X+first.VX, second.X, 1e-9)
	assert.InDelta(t, first.Y+first.VY, second.Y, 1e-9)
}

func TestDampingFollowsRate(t *testing.T) {
	s, _ := newSystem(t, 8)
	s.SetRate(2)
	s.Spawn(0, 0)
	s.Step()
	p := s.Snapshot()[0].Particles[0]
	want := math.Pow(0.92, math.Pow(2, 0.275))
	assert.InDelta(t, want*math.Hypot(p.X, p.Y), math.Hypot(p.VX, p.VY), 1e-9)

	s.SetRate(0)
	assert.Equal(t, 1.0, s.Rate())
}

func TestEffectsExpire(t *testing.T) {
	s, clk := newSystem(t, 8)
	s.Spawn(0, 0)
	s.Step()
	clk.add(499)
	s.Step()
	assert.Len(t, s.Snapshot(), 1)
	clk.add(1)
	s.Step()
	assert.Empty(t, s.Snapshot())
}

func TestFasterRateShortensLife(t *testing.T) {
	s, clk := newSystem(t, 8)
	s.SetRate(2)
	s.Spawn(0, 0)
	s.Step()
	clk.add(250)
	s.Step()
	assert.Empty(t, s.Snapshot())
}

func TestSnapshotIsIndependent(t *testing.T) {
	s, _ := newSystem(t, 8)
	s.Spawn(0, 0)
	s.Step()
	before := s.Snapshot()
	x := before[0].Particles[0].X
	s.Step()
	assert.Equal(t, x, before[0].Particles[0].X, "later steps do not touch published snapshots")
}

func TestFullQueueDrops(t *testing.T) {
	s, _ := newSystem(t, 2)
	for i := 0; i < 5; i++ {
		s.Spawn(0, 0)
	}
	assert.Equal(t, int64(3), s.Dropped())
	s.Step()
	assert.Len(t, s.Snapshot(), 2)
}

func TestJudgeMapsToReferenceSpace(t *testing.T) {
	s, _ := newSystem(t, 8)
	s.Judge(vp, 960, 540)
	s.Judge(present.Viewport{}, 1, 1)
	s.Step()
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.InDelta(t, present.RefWidth/2, snap[0].X, 1e-9)
	assert.InDelta(t, present.RefHeight/2, snap[0].Y, 1e-9)
}

func TestRunStepsUntilCancelled(t *testing.T) {
	s, _ := newSystem(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Spawn(10, 10)
	require.Eventually(t, func() bool { return len(s.Snapshot()) == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDrawRestoresTransform(t *testing.T) {
	s, clk := newSystem(t, 8)
	s.Judge(vp, 960, 540)
	s.Step()
	clk.add(100)

	rec := render.NewRecorder()
	rec.BeginFrame(1920, 1080)
	rec.Translate(5, 5)
	before := rec.Transform()
	s.Draw(rec, vp)
	assert.Equal(t, before, rec.Transform())

	draws := rec.Draws()
	require.NotEmpty(t, draws)
	last := draws[len(draws)-1]
	x, y := last.Centre()
	assert.InDelta(t, 965, x, 60, "particles stay near the effect centre")
	assert.InDelta(t, 545, y, 60)
}

func TestDrawSkipsExpired(t *testing.T) {
	s, clk := newSystem(t, 8)
	s.Spawn(0, 0)
	s.Step()
	clk.add(600)

	rec := render.NewRecorder()
	rec.BeginFrame(100, 100)
	s.Draw(rec, vp)
	assert.Empty(t, rec.Draws())
	assert.Equal(t, mgl64.Ident3(), rec.Transform())
}
