package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
)

func rampBuffer(w, h int) *mosaic.HeightBuffer {
	buf := &mosaic.HeightBuffer{Width: w, Height: h, Samples: make([]float64, w*h)}
	for i := range buf.Samples {
		buf.Samples[i] = float64(i)*0.5 - 3
	}
	return buf
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestExporter_Filename(t *testing.T) {
	e := NewExporter("out", "world01")
	assert.Equal(t, filepath.Join("out", "world01_height.png"), e.Filename("height", ".png"))

	bare := NewExporter("", "x")
	assert.Equal(t, "x_texture.png", bare.Filename("texture", ".png"))
}

func TestExporter_HeightPNG16(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	e := NewExporter(dir, "map")

	path, err := e.HeightPNG(rampBuffer(4, 3), 16)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "map_height.png"), path)

	img := decodePNG(t, path)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())

	lo := color.Gray16Model.Convert(img.At(0, 0)).(color.Gray16)
	hi := color.Gray16Model.Convert(img.At(3, 2)).(color.Gray16)
	assert.Equal(t, uint16(0), lo.Y)
	assert.Equal(t, uint16(65535), hi.Y)
}

func TestExporter_HeightPNG8(t *testing.T) {
	e := NewExporter(t.TempDir(), "map")

	path, err := e.HeightPNG(rampBuffer(2, 2), 8)
	require.NoError(t, err)

	img := decodePNG(t, path)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "expected 8-bit grayscale, got %T", img)
	assert.Equal(t, uint8(255), gray.GrayAt(1, 1).Y)
}

func TestExporter_HeightPNGBadDepth(t *testing.T) {
	_, err := NewExporter(t.TempDir(), "map").HeightPNG(rampBuffer(2, 2), 12)
	assert.Error(t, err)
}

func TestExporter_TexturePNG(t *testing.T) {
	buf := &mosaic.TextureBuffer{Width: 2, Height: 1, Pix: []uint8{10, 20, 30, 200, 100, 0}}

	path, err := NewExporter(t.TempDir(), "map").TexturePNG(buf)
	require.NoError(t, err)

	img := decodePNG(t, path)
	r, g, b, a := img.At(1, 0).RGBA()
	assert.Equal(t, []uint32{200, 100, 0, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})
}

func TestExporter_PatternTexturePNG(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(dir, "map")
	buf := &mosaic.TextureBuffer{Width: 1, Height: 1, Pix: []uint8{1, 2, 3}}

	for _, p := range layout.Patterns() {
		path, err := exp.PatternTexturePNG(p, buf)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "map_texture_"+p.String()+".png"), path)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(layout.Patterns()))
}

func TestExporter_WaterPNG(t *testing.T) {
	buf := &mosaic.WaterBuffer{
		Width:   2,
		Height:  2,
		Samples: []float32{4, 0, 0, 4},
		Mask:    []bool{true, false, false, true},
	}

	path, err := NewExporter(t.TempDir(), "map").WaterPNG(buf)
	require.NoError(t, err)

	gray, ok := decodePNG(t, path).(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, []uint8{255, 0, 0, 255}, gray.Pix)
}

func TestExporter_HeightRawRoundTrip(t *testing.T) {
	src := rampBuffer(5, 4)

	for _, compress := range []bool{false, true} {
		e := NewExporter(t.TempDir(), "map")

		path, err := e.HeightRaw(src, compress)
		require.NoError(t, err)
		if compress {
			assert.Equal(t, ".zst", filepath.Ext(path))
		} else {
			assert.Equal(t, ".f32", filepath.Ext(path))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, int64(5*4*4), info.Size())
		}

		f, err := os.Open(path)
		require.NoError(t, err)
		got, err := ReadHeightRaw(f, 5, 4, compress)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, src.Samples, got.Samples, "compress=%v", compress)
	}
}

func TestReadHeightRawShort(t *testing.T) {
	var raw bytes.Buffer
	require.NoError(t, WriteHeightRaw(&raw, rampBuffer(2, 2), false))

	_, err := ReadHeightRaw(&raw, 3, 3, false)
	assert.Error(t, err)
}

func TestTerrainPalette(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 51, G: 51, B: 153, A: 255}, TerrainPalette(0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, TerrainPalette(1))
	assert.Equal(t, TerrainPalette(0), TerrainPalette(-2))

	mid := TerrainPalette(0.5)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 153, A: 255}, mid)
}

func TestExporter_ColorHeightPNG(t *testing.T) {
	path, err := NewExporter(t.TempDir(), "map").ColorHeightPNG(rampBuffer(3, 3), TerrainPalette)
	require.NoError(t, err)

	img := decodePNG(t, path)
	r, g, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, []uint32{255, 255, 255}, []uint32{r >> 8, g >> 8, b >> 8})
}
