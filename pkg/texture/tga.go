package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

// ErrTruncatedTGA is returned when TGA data ends early.
var ErrTruncatedTGA = errors.New("truncated TGA data")

// tgaPixels walks TGA pixel data and stores decoded colours into an image,
// honouring the top-to-bottom descriptor bit.
type tgaPixels struct {
	img         *image.RGBA
	width       int
	height      int
	bpp         int
	topToBottom bool
	next        int
}

func (p *tgaPixels) done() bool {
	return p.next >= p.width*p.height
}

func (p *tgaPixels) color(src []byte) color.RGBA {
	c := color.RGBA{R: src[2], G: src[1], B: src[0], A: 255}
	if p.bpp == 4 {
		c.A = src[3]
	}
	return c
}

func (p *tgaPixels) put(c color.RGBA) {
	x := p.next % p.width
	y := p.next / p.width
	if !p.topToBottom {
		y = p.height - 1 - y
	}
	p.img.SetRGBA(x, y, c)
	p.next++
}

// DecodeTGA decodes an uncompressed (type 2) or RLE (type 10) true-color
// TGA image, the formats atlas textures are commonly exported as.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: header", ErrTruncatedTGA)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bitDepth := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", imageType)
	}
	if bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bitDepth)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: image id", ErrTruncatedTGA)
	}

	px := &tgaPixels{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		bpp:         bitDepth / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = decodeTGARaw(px, data[offset:])
	} else {
		decodeTGARLE(px, data[offset:])
	}
	if err != nil {
		return nil, err
	}
	return px.img, nil
}

func decodeTGARaw(px *tgaPixels, data []byte) error {
	if len(data) < px.width*px.height*px.bpp {
		return fmt.Errorf("%w: pixel data", ErrTruncatedTGA)
	}
	for i := 0; !px.done(); i += px.bpp {
		px.put(px.color(data[i:]))
	}
	return nil
}

// decodeTGARLE decodes RLE packets. Truncated streams leave the remaining
// pixels transparent black.
func decodeTGARLE(px *tgaPixels, data []byte) {
	i := 0
	for !px.done() && i < len(data) {
		packet := data[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if i+px.bpp > len(data) {
				return
			}
			c := px.color(data[i:])
			i += px.bpp
			for n := 0; n < count && !px.done(); n++ {
				px.put(c)
			}
			continue
		}

		for n := 0; n < count && !px.done(); n++ {
			if i+px.bpp > len(data) {
				return
			}
			px.put(px.color(data[i:]))
			i += px.bpp
		}
	}
}
