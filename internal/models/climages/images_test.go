package climages

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	return img
}

func TestResize(t *testing.T) {
	small := testImage(100, 50)
	assert.Same(t, small, Resize(small, 1600))

	resized := Resize(testImage(400, 200), 100)
	assert.Equal(t, 100, resized.Bounds().Dx())
	assert.Equal(t, 50, resized.Bounds().Dy())
}

func TestProcessPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(300, 150)))

	out, err := Process(buf.Bytes(), 200)
	require.NoError(t, err)
	assert.Equal(t, ".png", out.Ext)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 200, out.Width)
	assert.Equal(t, 100, out.Height)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
}

func TestProcessJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(64, 32), nil))

	out, err := Process(buf.Bytes(), 1600)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", out.Ext)
	assert.Equal(t, 64, out.Width)
}

func TestProcessGIFKeptAsIs(t *testing.T) {
	var buf bytes.Buffer
	pal := image.NewPaletted(image.Rect(0, 0, 20, 10), color.Palette{color.Black, color.White})
	require.NoError(t, gif.Encode(&buf, pal, nil))

	out, err := Process(buf.Bytes(), 5)
	require.NoError(t, err)
	assert.Equal(t, ".gif", out.Ext)
	assert.Equal(t, buf.Bytes(), out.Data)
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Process([]byte("pas une image"), 1600)
	assert.Error(t, err)
}
