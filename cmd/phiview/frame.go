package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbegin/phiview-go"
	intaudio "github.com/cbegin/phiview-go/internal/audio"
	intchart "github.com/cbegin/phiview-go/internal/chart"
)

var frameFlags struct {
	at         float64
	width      int
	height     int
	clicks     string
	sampleRate int
}

func init() {
	rootCmd.AddCommand(frameCmd)
	f := frameCmd.Flags()
	f.Float64Var(&frameFlags.at, "at", 0, "music time in ms")
	f.IntVar(&frameFlags.width, "width", 1920, "frame width")
	f.IntVar(&frameFlags.height, "height", 1080, "frame height")
	f.StringVar(&frameFlags.clicks, "clicks", "", "also write the chart's click track to this WAV file")
	f.IntVar(&frameFlags.sampleRate, "sample-rate", 48000, "click track sample rate")
}

var frameCmd = &cobra.Command{
	Use:   "frame <chart.json>",
	Short: "Render one frame headlessly and print its draw list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ff := frameFlags
		v := phiview.NewViewer(phiview.WithSoundBank(nopBank{}), phiview.WithPreRoll(1e9))
		if err := v.LoadChartFile(args[0]); err != nil {
			return err
		}
		rec := v.RenderFrameAt(ff.at, ff.width, ff.height)
		for _, c := range rec.Draws() {
			x, y := c.Centre()
			fmt.Printf("%-7s depth=%d cover=%3d centre=(%.1f, %.1f) size=%.1fx%.1f %s\n",
				c.Op, c.Depth, c.Coverage, x, y, c.W, c.H, c.Text)
		}
		s := phiview.SummarizeFrame(rec)
		cleared, total := v.Stats()
		fmt.Printf("textures=%d rects=%d texts=%d hidden=%d max-depth=%d cleared=%d/%d\n",
			s.Textures, s.Rects, s.Texts, s.Hidden, s.MaxDepth, cleared, total)

		if ff.clicks == "" {
			return nil
		}
		song := phiview.Summarize(v.Chart())
		seconds := (song.LastNote-song.Offset*1000)/1000 + 1
		bank := intaudio.NewBank(ff.sampleRate, nil)
		samples := phiview.RenderClickTrack(v.Chart(), bank, ff.sampleRate, seconds)
		return os.WriteFile(ff.clicks, phiview.EncodeFloatWAV(samples, ff.sampleRate, 2), 0o644)
	},
}

type nopBank struct{}

func (nopBank) Click(intchart.NoteType) {}
