package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cbegin/phiview-go"
	intgfx "github.com/cbegin/phiview-go/internal/gfx"
	intskin "github.com/cbegin/phiview-go/internal/skin"
)

const (
	windowW = 1280
	windowH = 720

	seekStep = 5000.0
	rateStep = 0.05
)

type playOptions struct {
	assets      phiview.Assets
	title       string
	difficulty  string
	level       int
	loop        bool
	rate        float64
	audioOffset float64
	latency     float64
	preRoll     float64
	noClick     bool
	noParticles bool
	noClip      bool
	offscreen   bool
	uniqueSpeed bool
	timeYPos    bool
	autoplay    bool
}

var playFlags playOptions

func init() {
	rootCmd.AddCommand(playCmd)
	f := playCmd.Flags()
	f.StringVar(&playFlags.assets.Music, "music", "", "music file (.wav, .ogg or .mp3)")
	f.StringVar(&playFlags.assets.Background, "bg", "", "background image")
	f.StringVar(&playFlags.assets.SkinDir, "skin", "", "directory of note textures")
	f.StringVar(&playFlags.assets.SoundDir, "sounds", "", "directory of tap, catch and flick clips")
	f.StringVar(&playFlags.title, "title", "", "song title shown in the HUD")
	f.StringVar(&playFlags.difficulty, "difficulty", "IN", "difficulty name shown in the HUD")
	f.IntVar(&playFlags.level, "level", -1, "difficulty level, negative prints ?")
	f.BoolVar(&playFlags.loop, "loop", false, "restart the song when it ends")
	f.Float64Var(&playFlags.rate, "rate", 1, "playback rate")
	f.Float64Var(&playFlags.audioOffset, "offset", 0, "audio offset in ms")
	f.Float64Var(&playFlags.latency, "latency", 0, "output latency in ms")
	f.Float64Var(&playFlags.preRoll, "pre-roll", 3000, "how far before the music seeks may go, in ms")
	f.BoolVar(&playFlags.noClick, "no-click", false, "disable hit sounds")
	f.BoolVar(&playFlags.noParticles, "no-particles", false, "disable judge effects")
	f.BoolVar(&playFlags.noClip, "no-clip", false, "let judge lines draw into the letterbox")
	f.BoolVar(&playFlags.offscreen, "force-offscreen", false, "draw notes that would be culled")
	f.BoolVar(&playFlags.uniqueSpeed, "unique-speed", false, "ignore speed events")
	f.BoolVar(&playFlags.timeYPos, "time-ypos", false, "place notes by time instead of floor position")
	f.BoolVar(&playFlags.autoplay, "autoplay", true, "start playing once loaded")
}

var playCmd = &cobra.Command{
	Use:   "play <chart.json>",
	Short: "Play a chart in a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pf := playFlags
		pf.assets.Chart = args[0]
		return play(cmd.Context(), pf)
	},
}

func play(ctx context.Context, pf playOptions) error {
	v := phiview.NewViewer(
		phiview.WithLoop(pf.loop),
		phiview.WithAudioOffset(pf.audioOffset),
		phiview.WithOutputLatency(pf.latency),
		phiview.WithPreRoll(pf.preRoll),
		phiview.WithClickSound(!pf.noClick),
		phiview.WithParticles(!pf.noParticles),
		phiview.WithDisableGlobalClip(pf.noClip),
		phiview.WithForceRenderOffscreen(pf.offscreen),
		phiview.WithUniqueSpeed(pf.uniqueSpeed),
		phiview.WithTimeBasedYPos(pf.timeYPos),
		phiview.WithSongInfo(phiview.SongInfo{Title: pf.title, Difficulty: pf.difficulty, Level: pf.level}),
		phiview.WithSkin(intskin.Procedural(intgfx.Converter)),
	)
	defer v.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	if err := v.LoadAssets(ctx, pf.assets, intgfx.Converter); err != nil {
		return err
	}
	v.SetRate(pf.rate)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return v.Effects().Run(ctx)
	})

	events := v.Watch()
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				if ev.Kind == phiview.EventPlaybackEnded {
					cleared, total := v.Stats()
					fmt.Printf("playback ended: %d/%d notes\n", cleared, total)
				}
			}
		}
	})

	if pf.autoplay {
		v.Play()
	}
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("phiview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(&game{viewer: v})
	cancel()
	if werr := g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
		return werr
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game adds keyboard control and a debug overlay on top of the viewer.
type game struct {
	viewer *phiview.Viewer
	debug  bool
}

func (g *game) Update() error {
	v := g.viewer
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		v.Toggle()
	case repeated(ebiten.KeyLeft):
		v.SeekBy(-seekStep)
	case repeated(ebiten.KeyRight):
		v.SeekBy(seekStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		v.SetRate(v.Rate() + rateStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		v.SetRate(max(rateStep, v.Rate()-rateStep))
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		v.SetClickSound(!v.Flags().ClickSound)
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		v.SetParticles(!v.Flags().Particles)
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		g.debug = !g.debug
	}
	return v.Update()
}

// repeated fires on press and then every few ticks while held.
func repeated(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 20 && d%4 == 0)
}

func (g *game) Draw(screen *ebiten.Image) {
	g.viewer.Draw(screen)
	if !g.debug {
		return
	}
	c := g.viewer.Clock()
	cleared, total := g.viewer.Stats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FPS %.1f  TPS %.1f\ntime %.0f / %.0f ms  rate %.2f\nnotes %d/%d  effects %d (dropped %d)",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		c.Time(), c.Duration(), g.viewer.Rate(),
		cleared, total, len(g.viewer.Effects().Snapshot()), g.viewer.Effects().Dropped(),
	))
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.viewer.Layout(outsideWidth, outsideHeight)
}
