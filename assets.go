package phiview

import (
	"context"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"golang.org/x/sync/errgroup"

	intaudio "github.com/cbegin/phiview-go/internal/audio"
	intchart "github.com/cbegin/phiview-go/internal/chart"
	intgfx "github.com/cbegin/phiview-go/internal/gfx"
	intlogging "github.com/cbegin/phiview-go/internal/logging"
	intrender "github.com/cbegin/phiview-go/internal/render"
	intskin "github.com/cbegin/phiview-go/internal/skin"
)

// Assets names the files of one song. Empty fields are skipped.
type Assets struct {
	Chart      string
	Music      string
	Background string
	// SkinDir holds note textures, SoundDir holds tap, catch and flick clips.
	SkinDir  string
	SoundDir string
}

// LoadAssets decodes every named file concurrently and installs them only if
// all succeed. Image files are uploaded with conv; nil uses the GPU renderer's
// converter.
func (v *Viewer) LoadAssets(ctx context.Context, a Assets, conv intskin.Converter) error {
	if conv == nil {
		conv = intgfx.Converter
	}
	var (
		c     *intchart.Chart
		music *intaudio.PCM
		bg    intrender.Texture
		set   *intskin.Set
	)
	var g errgroup.Group
	if a.Chart != "" {
		g.Go(func() error {
			f, err := os.Open(a.Chart)
			if err != nil {
				return fault.Wrap(err, fmsg.WithDesc("open chart", "The chart file could not be opened."))
			}
			defer f.Close()
			c, err = intchart.Load(f)
			return err
		})
	}
	if a.Music != "" {
		g.Go(func() error {
			var err error
			music, err = decodeMusic(a.Music)
			return err
		})
	}
	if a.Background != "" {
		g.Go(func() error {
			img, err := intskin.LoadImage(a.Background)
			if err != nil {
				return fault.Wrap(err, fmsg.WithDesc("load background", "The background image could not be read."))
			}
			bg = conv(img)
			return nil
		})
	}
	if a.SkinDir != "" {
		g.Go(func() error {
			var err error
			set, err = intskin.LoadDir(a.SkinDir, conv)
			if set == nil {
				return err
			}
			if err != nil {
				intlogging.L().Warn("skin partially loaded", "dir", a.SkinDir, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if c != nil {
		v.SetChart(c)
	}
	if music != nil {
		m, err := intaudio.NewMusic(music, v.cfg.sampleRate, intaudio.Ebiten(v.cfg.sampleRate))
		if err != nil {
			return err
		}
		v.SetMusic(m)
		intlogging.L().Info("music loaded", "file", a.Music, "ms", music.Millis())
	}
	if bg != nil {
		v.SetBackground(bg)
	}
	if set != nil {
		v.SetSkin(set)
	}
	if a.SoundDir != "" {
		if err := v.LoadSoundDir(a.SoundDir); err != nil {
			intlogging.L().Warn("click sounds partially loaded", "dir", a.SoundDir, "err", err)
		}
	}
	return nil
}

// LoadSoundDir replaces the click clips from dir when the viewer uses the
// built-in sound bank.
func (v *Viewer) LoadSoundDir(dir string) error {
	b, ok := v.bank.(*intaudio.Bank)
	if !ok {
		return nil
	}
	return b.LoadFS(os.DirFS(dir))
}
