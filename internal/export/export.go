// Package export writes composited mosaics to disk.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
)

// Exporter names and writes output files under one directory.
type Exporter struct {
	outputDir string
	prefix    string
}

// NewExporter creates an exporter writing <prefix>_<kind>.<ext> files to
// outputDir.
func NewExporter(outputDir, prefix string) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Filename returns the output path for kind and ext without writing.
func (e *Exporter) Filename(kind, ext string) string {
	name := fmt.Sprintf("%s_%s%s", e.prefix, kind, ext)
	if e.outputDir != "" {
		name = filepath.Join(e.outputDir, name)
	}
	return name
}

// create opens path for writing, creating the output directory if needed.
func (e *Exporter) create(path string) (*os.File, error) {
	if e.outputDir != "" {
		if err := os.MkdirAll(e.outputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	return file, nil
}

// writePNG encodes img to path.
func (e *Exporter) writePNG(path string, img image.Image) (string, error) {
	file, err := e.create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return path, file.Close()
}

// HeightPNG writes the height mosaic as min-max normalised grayscale with
// 8 or 16 bits per sample.
func (e *Exporter) HeightPNG(buf *mosaic.HeightBuffer, bits int) (string, error) {
	var img image.Image
	switch bits {
	case 8:
		img = buf.Gray8()
	case 16:
		img = buf.Gray16()
	default:
		return "", fmt.Errorf("unsupported bit depth %d", bits)
	}
	return e.writePNG(e.Filename("height", ".png"), img)
}

// TexturePNG writes the texture mosaic.
func (e *Exporter) TexturePNG(buf *mosaic.TextureBuffer) (string, error) {
	return e.writePNG(e.Filename("texture", ".png"), buf.RGBA())
}

// PatternTexturePNG writes a texture mosaic assembled with atlas pattern p,
// named after the pattern so the variants can be compared side by side.
func (e *Exporter) PatternTexturePNG(p layout.Pattern, buf *mosaic.TextureBuffer) (string, error) {
	return e.writePNG(e.Filename("texture_"+p.String(), ".png"), buf.RGBA())
}

// WaterPNG writes the water mask: white where a sector carries water.
func (e *Exporter) WaterPNG(buf *mosaic.WaterBuffer) (string, error) {
	img := image.NewGray(image.Rect(0, 0, buf.Width, buf.Height))
	for i, wet := range buf.Mask {
		if wet {
			img.Pix[i] = 255
		}
	}
	return e.writePNG(e.Filename("water", ".png"), img)
}

// HeightRaw writes the height mosaic as little-endian float32 rows. With
// compress set the stream is zstd-compressed and the name ends in .zst.
func (e *Exporter) HeightRaw(buf *mosaic.HeightBuffer, compress bool) (string, error) {
	ext := ".f32"
	if compress {
		ext += ".zst"
	}
	path := e.Filename(fmt.Sprintf("height_%dx%d", buf.Width, buf.Height), ext)

	file, err := e.create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteHeightRaw(file, buf, compress); err != nil {
		return "", err
	}
	return path, file.Close()
}

// WriteHeightRaw streams buf to w as little-endian float32 samples.
func WriteHeightRaw(w io.Writer, buf *mosaic.HeightBuffer, compress bool) error {
	var enc *zstd.Encoder
	if compress {
		var err error
		enc, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("creating compressor: %w", err)
		}
		w = enc
	}

	bw := bufio.NewWriter(w)
	var sample [4]byte
	for _, v := range buf.Samples {
		binary.LittleEndian.PutUint32(sample[:], math.Float32bits(float32(v)))
		if _, err := bw.Write(sample[:]); err != nil {
			return fmt.Errorf("writing samples: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing compressor: %w", err)
		}
	}
	return nil
}

// ReadHeightRaw reads width*height samples written by WriteHeightRaw.
func ReadHeightRaw(r io.Reader, width, height int, compressed bool) (*mosaic.HeightBuffer, error) {
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating decompressor: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	data := make([]byte, width*height*4)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	buf := &mosaic.HeightBuffer{Width: width, Height: height, Samples: make([]float64, width*height)}
	for i := range buf.Samples {
		buf.Samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return buf, nil
}

// Palette colours a normalised height for preview images.
type Palette func(t float64) color.RGBA

// TerrainPalette ramps from deep water blue through green lowlands and
// brown hills to white peaks.
func TerrainPalette(t float64) color.RGBA {
	stops := []struct {
		at      float64
		r, g, b float64
	}{
		{0.00, 51, 51, 153},
		{0.15, 0, 153, 255},
		{0.25, 0, 204, 102},
		{0.50, 255, 255, 153},
		{0.75, 128, 92, 84},
		{1.00, 255, 255, 255},
	}

	t = math.Max(0, math.Min(1, t))
	for i := 1; i < len(stops); i++ {
		hi := stops[i]
		if t > hi.at {
			continue
		}
		lo := stops[i-1]
		f := (t - lo.at) / (hi.at - lo.at)
		return color.RGBA{
			R: uint8(math.Round(lo.r + (hi.r-lo.r)*f)),
			G: uint8(math.Round(lo.g + (hi.g-lo.g)*f)),
			B: uint8(math.Round(lo.b + (hi.b-lo.b)*f)),
			A: 255,
		}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// ColorHeightPNG writes the height mosaic coloured through p.
func (e *Exporter) ColorHeightPNG(buf *mosaic.HeightBuffer, p Palette) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	min, max := buf.Range()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			t := 0.0
			if max > min {
				t = (buf.At(x, y) - min) / (max - min)
			}
			img.SetRGBA(x, y, p(t))
		}
	}
	return e.writePNG(e.Filename("height_color", ".png"), img)
}
