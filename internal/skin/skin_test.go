package skin

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/phiview-go/internal/chart"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProceduralIsComplete(t *testing.T) {
	s := Procedural(AsIs)
	for _, n := range names {
		assert.NotNil(t, *n.dst(s), n.name)
	}
	assert.Equal(t, 240, s.HoldHead.Bounds().Dx())
}

func TestLoadUsesFilesAndFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"Tap.png":      {Data: pngBytes(t, 100, 10)},
		"HoldHead.png": {Data: pngBytes(t, 50, 25)},
		"Flick.png":    {Data: []byte("not an image")},
	}
	s, err := Load(fsys, AsIs)
	require.NotNil(t, s)
	assert.Error(t, err, "undecodable Flick.png is reported")

	assert.Equal(t, image.Rect(0, 0, 100, 10), s.Tap.Bounds())
	assert.Equal(t, image.Rect(0, 0, 50, 25), s.HoldHead.Bounds())
	// missing and broken files use the procedural textures
	assert.Equal(t, 240, s.Flick.Bounds().Dx())
	assert.Equal(t, 240, s.HoldEnd.Bounds().Dx())
}

func TestLoadCleanDirectory(t *testing.T) {
	s, err := Load(fstest.MapFS{}, AsIs)
	require.NoError(t, err)
	assert.NotNil(t, s.Tap)
}

func TestNoteTextureSelection(t *testing.T) {
	s := Procedural(AsIs)
	assert.Same(t, s.TapHL, s.Note(chart.Tap, true))
	assert.Same(t, s.Flick, s.Note(chart.Flick, false))
	assert.Same(t, s.CatchHL, s.Note(chart.Catch, true))
	assert.Same(t, s.Tap, s.Note(chart.Dummy, false))
	assert.Same(t, s.Tap, s.Note(chart.NoteType(42), false))

	var none *Set
	assert.Nil(t, none.Note(chart.Tap, false))
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(t.TempDir()+"/nope", AsIs)
	assert.Error(t, err)
}
