// Package synth generates synthetic sector records for fixtures and demos.
package synth

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/aquilax/go-perlin"

	"github.com/Faultbox/terramosaic/pkg/encoding"
	"github.com/Faultbox/terramosaic/pkg/formats"
	"github.com/Faultbox/terramosaic/pkg/layout"
)

// MaterialOffset is where SectorBytes stores the material path in the header.
const MaterialOffset = 0x100

// MaterialPrefix is the path prefix of water materials.
const MaterialPrefix = `graphics\_materials\editor\water_`

// HeightFunc returns the height of cell (x, y) of one sector, row 0 first.
type HeightFunc func(x, y int) float64

// Flat returns a HeightFunc with a constant height.
func Flat(h float64) HeightFunc {
	return func(int, int) float64 { return h }
}

// SectorBytes encodes a sector record. Heights are quantised to 1/128 and
// clamped to the uint16 range. A non-empty material is stored as a
// NUL-terminated Latin-1 path after MaterialPrefix.
func SectorBytes(h HeightFunc, water float32, material string) []byte {
	data := make([]byte, formats.MinSectorSize)

	binary.LittleEndian.PutUint32(data[formats.WaterHeightOffset:], math.Float32bits(water))
	if material != "" {
		path := encoding.UTF8ToLatin1(MaterialPrefix + material)
		n := copy(data[MaterialOffset:formats.HeaderSize-1], path)
		data[MaterialOffset+n] = 0
	}

	for y := 0; y < formats.GridDim; y++ {
		for x := 0; x < formats.GridDim; x++ {
			off := formats.HeaderSize + (y*formats.GridDim+x)*formats.CellStride
			binary.LittleEndian.PutUint16(data[off:], quantize(h(x, y)))
		}
	}
	return data
}

func quantize(h float64) uint16 {
	raw := math.Round(h * formats.HeightScale)
	switch {
	case raw <= 0:
		return 0
	case raw >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(raw)
	}
}

// Terrain is a continuous height field in mosaic coordinates.
type Terrain func(gx, gy float64) float64

// Perlin returns a Terrain built from Perlin noise mapped to [0, amplitude].
// scale sets the feature size in cells.
func Perlin(seed int64, scale, amplitude float64) Terrain {
	noise := perlin.NewPerlin(2, 2, 3, seed)
	return func(gx, gy float64) float64 {
		n := (noise.Noise2D(gx/scale, gy/scale) + 1) / 2
		return math.Max(0, math.Min(1, n)) * amplitude
	}
}

// Options controls WriteDir.
type Options struct {
	SectorsX int
	SectorsY int
	Seed     int64

	Scale     float64 // noise feature size in cells; zero means 96
	Amplitude float64 // height range; zero means 200

	// WaterLevel marks sectors whose lowest cell lies below it as water
	// sectors. Zero disables water.
	WaterLevel float64
	Material   string
}

func (o Options) withDefaults() Options {
	if o.Scale == 0 {
		o.Scale = 96
	}
	if o.Amplitude == 0 {
		o.Amplitude = 200
	}
	if o.Material == "" {
		o.Material = "lake01"
	}
	return o
}

// FileName returns the file name of sector index.
func FileName(index int) string {
	return fmt.Sprintf("sd%d.csdat", index)
}

// Sector returns the HeightFunc for the sector at a display cell of the
// terrain. Adjacent sectors share their edge samples so the mosaic of all
// sectors is continuous.
func Sector(t Terrain, row, col, sectorsY int) HeightFunc {
	step := formats.GridDim - 1
	originX := col * step
	originY := (sectorsY - 1 - row) * step
	return func(x, y int) float64 {
		// row 0 of a stored sector is the bottom of its footprint.
		return t(float64(originX+x), float64(originY+y))
	}
}

// WriteDir writes a synthetic dataset laid out bottom-left-sequential and
// returns the written paths in index order.
func WriteDir(dir string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if opts.SectorsX < 1 || opts.SectorsY < 1 {
		return nil, fmt.Errorf("invalid sector grid %dx%d", opts.SectorsX, opts.SectorsY)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	terrain := Perlin(opts.Seed, opts.Scale, opts.Amplitude)
	paths := make([]string, opts.SectorsX*opts.SectorsY)

	for row := 0; row < opts.SectorsY; row++ {
		for col := 0; col < opts.SectorsX; col++ {
			index := layout.Resolve(row, col, opts.SectorsX, opts.SectorsY, layout.BottomLeftSequential)
			h := Sector(terrain, row, col, opts.SectorsY)

			var water float32
			material := ""
			if opts.WaterLevel > 0 && lowest(h) < opts.WaterLevel {
				water = float32(opts.WaterLevel)
				material = opts.Material
			}

			path := filepath.Join(dir, FileName(index))
			if err := os.WriteFile(path, SectorBytes(h, water, material), 0o644); err != nil {
				return nil, fmt.Errorf("write sector %d: %w", index, err)
			}
			paths[index] = path
		}
	}
	return paths, nil
}

func lowest(h HeightFunc) float64 {
	min := math.Inf(1)
	for y := 0; y < formats.GridDim; y++ {
		for x := 0; x < formats.GridDim; x++ {
			min = math.Min(min, h(x, y))
		}
	}
	return min
}
