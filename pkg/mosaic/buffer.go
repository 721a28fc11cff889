package mosaic

import (
	"image"
	"image/color"
	"math"
)

// HeightBuffer is an assembled height mosaic, row-major.
type HeightBuffer struct {
	Width   int
	Height  int
	Samples []float64
}

func newHeightBuffer(w, h int) *HeightBuffer {
	return &HeightBuffer{Width: w, Height: h, Samples: make([]float64, w*h)}
}

// At returns the sample at column x, row y.
func (b *HeightBuffer) At(x, y int) float64 {
	return b.Samples[y*b.Width+x]
}

// Row returns row y as a slice aliasing the buffer storage.
func (b *HeightBuffer) Row(y int) []float64 {
	return b.Samples[y*b.Width : (y+1)*b.Width]
}

// Range returns the minimum and maximum sample.
func (b *HeightBuffer) Range() (min, max float64) {
	if len(b.Samples) == 0 {
		return 0, 0
	}
	min, max = b.Samples[0], b.Samples[0]
	for _, v := range b.Samples {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

// normalize maps v into [0,1] over [min,max]; flat ranges map to 0.
func normalize(v, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}

// Gray16 returns the mosaic min-max normalised to 16-bit grayscale.
func (b *HeightBuffer) Gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, b.Width, b.Height))
	min, max := b.Range()
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := normalize(b.At(x, y), min, max)
			img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535)})
		}
	}
	return img
}

// Gray8 returns the mosaic min-max normalised to 8-bit grayscale.
func (b *HeightBuffer) Gray8() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	min, max := b.Range()
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := normalize(b.At(x, y), min, max)
			img.SetGray(x, y, color.Gray{Y: uint8(v * 255)})
		}
	}
	return img
}

// TextureBuffer is an assembled RGB texture mosaic, 3 bytes per pixel.
type TextureBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

func newTextureBuffer(w, h int) *TextureBuffer {
	return &TextureBuffer{Width: w, Height: h, Pix: make([]uint8, w*h*3)}
}

// RGB returns the colour at column x, row y.
func (b *TextureBuffer) RGB(x, y int) (r, g, bl uint8) {
	i := (y*b.Width + x) * 3
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Row returns row y as a slice aliasing the buffer storage.
func (b *TextureBuffer) Row(y int) []uint8 {
	stride := b.Width * 3
	return b.Pix[y*stride : (y+1)*stride]
}

// RGBA returns the mosaic as an opaque RGBA image.
func (b *TextureBuffer) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 255
	}
	return img
}

// Brighten returns a copy with every channel scaled by factor and clamped
// to [0,255].
func (b *TextureBuffer) Brighten(factor float64) *TextureBuffer {
	out := newTextureBuffer(b.Width, b.Height)
	for i, v := range b.Pix {
		out.Pix[i] = clampByte(float64(v) * factor)
	}
	return out
}

// Rotate returns a copy rotated clockwise by r. Any multiple of 90 is
// accepted; other values return an unrotated copy.
func (b *TextureBuffer) Rotate(r Rotation) *TextureBuffer {
	if n, err := ParseRotation(int(r)); err == nil {
		r = n
	}
	w, h := b.Width, b.Height
	var out *TextureBuffer
	var dst func(x, y int) (int, int)

	switch r {
	case Rotate90CW:
		out = newTextureBuffer(h, w)
		dst = func(x, y int) (int, int) { return h - 1 - y, x }
	case Rotate180:
		out = newTextureBuffer(w, h)
		dst = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case Rotate90CCW:
		out = newTextureBuffer(h, w)
		dst = func(x, y int) (int, int) { return y, w - 1 - x }
	default:
		out = newTextureBuffer(w, h)
		copy(out.Pix, b.Pix)
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := dst(x, y)
			si := (y*w + x) * 3
			di := (dy*out.Width + dx) * 3
			copy(out.Pix[di:di+3], b.Pix[si:si+3])
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

// WaterBuffer marks sector footprints that carry water and their water
// height. It shares the geometry of the height mosaic.
type WaterBuffer struct {
	Width   int
	Height  int
	Samples []float32
	Mask    []bool
}

func newWaterBuffer(w, h int) *WaterBuffer {
	return &WaterBuffer{
		Width:   w,
		Height:  h,
		Samples: make([]float32, w*h),
		Mask:    make([]bool, w*h),
	}
}

// At returns the water height at column x, row y and whether water is
// present there.
func (b *WaterBuffer) At(x, y int) (float32, bool) {
	i := y*b.Width + x
	return b.Samples[i], b.Mask[i]
}
