// Package fx runs judge-effect particles. Physics advances on its own
// fixed-interval goroutine; the frame loop spawns effects through a queue and
// draws the last published snapshot, so neither side takes a lock.
package fx

import (
	"context"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/cbegin/phiview-go/internal/logging"
	"github.com/cbegin/phiview-go/internal/present"
)

type Config struct {
	// Interval is the physics step.
	Interval time.Duration
	// Particles per effect.
	Particles int
	// Lifetime in ms at rate 1.
	Lifetime float64
	// Queue is the spawn queue capacity; spawns beyond it are dropped.
	Queue int
	Seed  uint64
	// Now is a monotonic clock in ms shared with the frame loop.
	Now func() float64
}

func DefaultConfig() Config {
	start := time.Now()
	return Config{
		Interval:  5 * time.Millisecond,
		Particles: 4,
		Lifetime:  500,
		Queue:     256,
		Seed:      uint64(start.UnixNano()),
		Now: func() float64 {
			return float64(time.Since(start)) / float64(time.Millisecond)
		},
	}
}

type Particle struct {
	X, Y   float64
	VX, VY float64
}

// Effect is one judge burst. X and Y are in reference-screen units so effects
// keep their place across window resizes.
type Effect struct {
	X, Y      float64
	Start     float64
	Particles []Particle
}

// Progress is the fraction of the effect's life spent at now.
func (e Effect) Progress(now, lifetime float64) float64 {
	return (now - e.Start) / lifetime
}

type spawn struct {
	x, y, at float64
}

// System owns live effects. Step must only be called from one goroutine,
// normally Run.
type System struct {
	cfg     Config
	queue   chan spawn
	snap    atomic.Pointer[[]Effect]
	rate    atomic.Uint64
	dropped atomic.Int64
	rng     *rand.Rand
	live    []Effect
}

func New(cfg Config) *System {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Particles < 0 {
		cfg.Particles = 0
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = def.Lifetime
	}
	if cfg.Queue <= 0 {
		cfg.Queue = def.Queue
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	s := &System{
		cfg:   cfg,
		queue: make(chan spawn, cfg.Queue),
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
	s.SetRate(1)
	empty := []Effect{}
	s.snap.Store(&empty)
	return s
}

func (s *System) Now() float64 { return s.cfg.Now() }

// SetRate follows the music playback rate: effects age faster and particles
// slow down sooner at higher rates.
func (s *System) SetRate(rate float64) {
	if rate <= 0 || math.IsNaN(rate) {
		rate = 1
	}
	s.rate.Store(math.Float64bits(rate))
}

func (s *System) Rate() float64 { return math.Float64frombits(s.rate.Load()) }

// Spawn queues an effect at reference-screen point (x, y). It never blocks.
func (s *System) Spawn(x, y float64) {
	select {
	case s.queue <- spawn{x: x, y: y, at: s.cfg.Now()}:
	default:
		if s.dropped.Add(1) == 1 {
			logging.L().Warn("judge effect queue full, dropping effects")
		}
	}
}

// Dropped counts spawns lost to a full queue.
func (s *System) Dropped() int64 { return s.dropped.Load() }

// Snapshot is the most recently published set of live effects. Callers must
// not modify it.
func (s *System) Snapshot() []Effect { return *s.snap.Load() }

// Run steps physics every Interval until ctx is done.
func (s *System) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Step()
		}
	}
}

// Step admits queued spawns, advances every particle one tick, drops expired
// effects and publishes a new snapshot.
func (s *System) Step() {
	now := s.cfg.Now()
	rate := s.Rate()
	lifetime := s.cfg.Lifetime / rate

	for admitting := true; admitting; {
		select {
		case sp := <-s.queue:
			s.live = append(s.live, s.newEffect(sp))
		default:
			admitting = false
		}
	}

	damp := math.Pow(0.92, math.Pow(rate, 0.275))
	kept := s.live[:0]
	for _, e := range s.live {
		if e.Progress(now, lifetime) >= 1 {
			continue
		}
		for i := range e.Particles {
			p := &e.Particles[i]
			p.X += p.VX
			p.Y += p.VY
			p.VX *= damp
			p.VY *= damp
		}
		kept = append(kept, e)
	}
	clear(s.live[len(kept):])
	s.live = kept

	out := make([]Effect, len(s.live))
	for i, e := range s.live {
		out[i] = e
		out[i].Particles = append([]Particle(nil), e.Particles...)
	}
	s.snap.Store(&out)
}

func (s *System) newEffect(sp spawn) Effect {
	e := Effect{X: sp.x, Y: sp.y, Start: sp.at, Particles: make([]Particle, s.cfg.Particles)}
	for i := range e.Particles {
		dir := s.rng.Float64() * math.Pi * 2
		force := s.rng.Float64()*7 + 7
		e.Particles[i] = Particle{VX: math.Cos(dir) * force, VY: math.Sin(dir) * force}
	}
	return e
}

// Judge spawns an effect at window pixel (x, y).
func (s *System) Judge(vp present.Viewport, x, y float64) {
	if vp.W <= 0 || vp.H <= 0 {
		return
	}
	s.Spawn(x/vp.W*present.RefWidth, y/vp.H*present.RefHeight)
}
