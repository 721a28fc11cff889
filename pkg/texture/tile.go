// Package texture turns atlas images into per-sector RGB texture tiles.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/Faultbox/terramosaic/pkg/formats"
	"github.com/Faultbox/terramosaic/pkg/layout"
)

// Texture errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported texture format")
	ErrEmptySubTile      = errors.New("empty atlas sub-tile")
)

// Tile is a square RGB texture with the footprint of one height grid.
type Tile struct {
	Dim int
	Pix []uint8 // 3 bytes per sample, row-major
}

// NewTile allocates a black tile.
func NewTile(dim int) *Tile {
	return &Tile{Dim: dim, Pix: make([]uint8, dim*dim*3)}
}

// RGB returns the colour at column x, row y.
func (t *Tile) RGB(x, y int) (r, g, b uint8) {
	i := (y*t.Dim + x) * 3
	return t.Pix[i], t.Pix[i+1], t.Pix[i+2]
}

// SetRGB stores a colour at column x, row y.
func (t *Tile) SetRGB(x, y int, r, g, b uint8) {
	i := (y*t.Dim + x) * 3
	t.Pix[i], t.Pix[i+1], t.Pix[i+2] = r, g, b
}

// Row returns row y as a slice aliasing the tile storage.
func (t *Tile) Row(y int) []uint8 {
	stride := t.Dim * 3
	return t.Pix[y*stride : (y+1)*stride]
}

// FlipVertical returns a copy of the tile with rows in reverse order.
func (t *Tile) FlipVertical() *Tile {
	out := NewTile(t.Dim)
	for y := 0; y < t.Dim; y++ {
		copy(out.Row(t.Dim-1-y), t.Row(y))
	}
	return out
}

// FromImage resamples img to a dim x dim tile, dropping alpha.
func FromImage(img image.Image, dim int) *Tile {
	dst := image.NewRGBA(image.Rect(0, 0, dim, dim))
	if img.Bounds().Dx() == dim && img.Bounds().Dy() == dim {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	}

	tile := NewTile(dim)
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			c := dst.RGBAAt(x, y)
			tile.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return tile
}

// Image returns the tile as an opaque RGBA image.
func (t *Tile) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Dim, t.Dim))
	for y := 0; y < t.Dim; y++ {
		for x := 0; x < t.Dim; x++ {
			r, g, b := t.RGB(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// ExtractTile cuts sub-tile id out of a 2x2 atlas using pattern p and
// resamples it to dim x dim.
func ExtractTile(atlas image.Image, subTile int, p layout.Pattern, dim int) (*Tile, error) {
	bounds := atlas.Bounds()
	rect := layout.SubTileRect(bounds.Dy(), bounds.Dx(), subTile, p)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: sub-tile %d of %dx%d atlas", ErrEmptySubTile, subTile, bounds.Dx(), bounds.Dy())
	}
	rect = rect.Add(bounds.Min)

	sub, ok := atlas.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, atlas, bounds.Min, draw.Src)
		sub = rgba
	}
	return FromImage(sub.SubImage(rect), dim), nil
}

// DecodeAtlas decodes atlas image data, choosing the decoder from the file
// extension of name. XBT containers are unwrapped; their DDS payload has no
// decoder and yields ErrUnsupportedFormat.
func DecodeAtlas(name string, data []byte) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Decode(bytes.NewReader(data))
	case ".tga":
		return DecodeTGA(data)
	case ".xbt":
		if _, err := formats.UnwrapXBT(data); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: DDS payload in %s", ErrUnsupportedFormat, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// DefaultDim is the tile dimension matching a sector height grid.
const DefaultDim = formats.GridDim
