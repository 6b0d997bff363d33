// Package skin provides the note textures, each with a highlighted variant
// used for simultaneous notes.
package skin

import (
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/cbegin/phiview-go/internal/chart"
	"github.com/cbegin/phiview-go/internal/logging"
	"github.com/cbegin/phiview-go/internal/render"
)

// Set holds every note texture. Nil entries are skipped when drawing.
type Set struct {
	Tap, TapHL     render.Texture
	Flick, FlickHL render.Texture
	Catch, CatchHL render.Texture
	Hold, HoldHL   render.Texture
	HoldHead       render.Texture
	HoldHeadHL     render.Texture
	HoldEnd        render.Texture
}

// Note returns the texture for a short note type. Unknown types use Tap.
func (s *Set) Note(t chart.NoteType, highlighted bool) render.Texture {
	if s == nil {
		return nil
	}
	switch t {
	case chart.Flick:
		return pick(s.Flick, s.FlickHL, highlighted)
	case chart.Catch:
		return pick(s.Catch, s.CatchHL, highlighted)
	default:
		return pick(s.Tap, s.TapHL, highlighted)
	}
}

func pick(normal, hl render.Texture, highlighted bool) render.Texture {
	if highlighted {
		return hl
	}
	return normal
}

// Converter turns a decoded image into something a renderer can draw.
type Converter func(image.Image) render.Texture

// AsIs keeps decoded images as textures, which is what headless rendering
// wants.
func AsIs(img image.Image) render.Texture {
	return img
}

// file names looked up by Load, without extension
var names = []struct {
	name string
	dst  func(*Set) *render.Texture
}{
	{"Tap", func(s *Set) *render.Texture { return &s.Tap }},
	{"TapHL", func(s *Set) *render.Texture { return &s.TapHL }},
	{"Flick", func(s *Set) *render.Texture { return &s.Flick }},
	{"FlickHL", func(s *Set) *render.Texture { return &s.FlickHL }},
	{"Catch", func(s *Set) *render.Texture { return &s.Catch }},
	{"CatchHL", func(s *Set) *render.Texture { return &s.CatchHL }},
	{"Hold", func(s *Set) *render.Texture { return &s.Hold }},
	{"HoldHL", func(s *Set) *render.Texture { return &s.HoldHL }},
	{"HoldHead", func(s *Set) *render.Texture { return &s.HoldHead }},
	{"HoldHeadHL", func(s *Set) *render.Texture { return &s.HoldHeadHL }},
	{"HoldEnd", func(s *Set) *render.Texture { return &s.HoldEnd }},
}

var extensions = []string{".png", ".webp", ".bmp", ".jpg"}

// Load reads a skin from fsys. Textures that are missing or fail to decode
// fall back to the procedural skin; the first decode error is returned with
// the otherwise complete set.
func Load(fsys fs.FS, conv Converter) (*Set, error) {
	s := &Set{}
	fallback := Procedural(conv)
	var firstErr error
	for _, n := range names {
		img, err := openFirst(fsys, n.name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
		dst := n.dst(s)
		if img == nil {
			logging.L().Warn("skin texture unavailable, using procedural", "texture", n.name, "err", err)
			*dst = *n.dst(fallback)
			continue
		}
		*dst = conv(img)
	}
	return s, firstErr
}

// LoadDir is Load on a directory.
func LoadDir(dir string, conv Converter) (*Set, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	return Load(os.DirFS(dir), conv)
}

func openFirst(fsys fs.FS, name string) (image.Image, error) {
	err := fs.ErrNotExist
	for _, ext := range extensions {
		f, openErr := fsys.Open(name + ext)
		if openErr != nil {
			continue
		}
		img, decErr := DecodeImage(f)
		f.Close()
		if decErr == nil {
			return img, nil
		}
		err = decErr
	}
	return nil, err
}

// DecodeImage decodes PNG, JPEG, WebP or BMP data.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// LoadImage decodes the image file at p.
func LoadImage(p string) (image.Image, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeImage(f)
}

var (
	tapColor   = color.RGBA{0x0a, 0xc3, 0xff, 0xff}
	flickColor = color.RGBA{0xfe, 0x43, 0x65, 0xff}
	catchColor = color.RGBA{0xf0, 0xed, 0x69, 0xff}
	holdColor  = color.RGBA{0x0a, 0xc3, 0xff, 0xff}
	hlColor    = color.RGBA{0xff, 0xe6, 0x5a, 0xff}
)

// Procedural draws a flat-coloured skin with the same proportions as the
// stock textures.
func Procedural(conv Converter) *Set {
	return &Set{
		Tap:        conv(bar(240, 24, tapColor, color.RGBA{})),
		TapHL:      conv(bar(240, 24, tapColor, hlColor)),
		Flick:      conv(bar(240, 24, flickColor, color.RGBA{})),
		FlickHL:    conv(bar(240, 24, flickColor, hlColor)),
		Catch:      conv(bar(240, 24, catchColor, color.RGBA{})),
		CatchHL:    conv(bar(240, 24, catchColor, hlColor)),
		Hold:       conv(bar(240, 8, holdColor, color.RGBA{})),
		HoldHL:     conv(bar(240, 8, holdColor, hlColor)),
		HoldHead:   conv(bar(240, 12, holdColor, color.RGBA{})),
		HoldHeadHL: conv(bar(240, 12, holdColor, hlColor)),
		HoldEnd:    conv(bar(240, 6, color.RGBA{0xff, 0xff, 0xff, 0xc0}, color.RGBA{})),
	}
}

// bar is a filled rectangle with an optional border.
func bar(w, h int, fill, border color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	edge := h / 6
	if edge < 1 {
		edge = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := fill
			if border.A != 0 && (x < edge || y < edge || x >= w-edge || y >= h-edge) {
				c = border
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
