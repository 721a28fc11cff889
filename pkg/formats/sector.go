package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Sector record layout.
const (
	// GridDim is the number of height samples along each side of a sector.
	GridDim = 65

	// HeaderSize is the number of bytes preceding the height cells.
	HeaderSize = 708

	// CellStride is the size of one height cell: uint16 height + 2 reserved bytes.
	CellStride = 4

	// HeightScale converts raw cell values to heights.
	HeightScale = 128.0

	// MinSectorSize is the smallest record that holds a full height grid.
	MinSectorSize = HeaderSize + GridDim*GridDim*CellStride
)

// Sector format errors.
var (
	ErrTruncatedSector = errors.New("truncated sector data")
)

// HeightGrid is a square matrix of height samples stored row-major.
type HeightGrid struct {
	Dim     int
	Samples []float64
}

// NewHeightGrid allocates a zeroed grid of the given dimension.
func NewHeightGrid(dim int) *HeightGrid {
	return &HeightGrid{
		Dim:     dim,
		Samples: make([]float64, dim*dim),
	}
}

// At returns the sample at column x, row y.
func (g *HeightGrid) At(x, y int) float64 {
	return g.Samples[y*g.Dim+x]
}

// Set stores a sample at column x, row y.
func (g *HeightGrid) Set(x, y int, v float64) {
	g.Samples[y*g.Dim+x] = v
}

// Row returns row y as a slice aliasing the grid storage.
func (g *HeightGrid) Row(y int) []float64 {
	return g.Samples[y*g.Dim : (y+1)*g.Dim]
}

// FlipVertical returns a copy of the grid with rows in reverse order.
func (g *HeightGrid) FlipVertical() *HeightGrid {
	out := NewHeightGrid(g.Dim)
	for y := 0; y < g.Dim; y++ {
		copy(out.Row(g.Dim-1-y), g.Row(y))
	}
	return out
}

// Range returns the minimum and maximum sample.
func (g *HeightGrid) Range() (min, max float64) {
	if len(g.Samples) == 0 {
		return 0, 0
	}

	min, max = g.Samples[0], g.Samples[0]
	for _, v := range g.Samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// DecodeHeightGrid decodes the height grid of a sector record.
//
// The record starts with a HeaderSize-byte header followed by GridDim*GridDim
// cells in row-major order. Each cell is a little-endian uint16 height
// (scaled by 1/128) and two reserved bytes. Trailing bytes are ignored.
func DecodeHeightGrid(data []byte) (*HeightGrid, error) {
	if len(data) < MinSectorSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedSector, len(data), MinSectorSize)
	}

	grid := NewHeightGrid(GridDim)
	cells := data[HeaderSize:MinSectorSize]
	for i := range grid.Samples {
		raw := binary.LittleEndian.Uint16(cells[i*CellStride:])
		grid.Samples[i] = float64(raw) / HeightScale
	}

	return grid, nil
}

// DecodeHeightGridFile decodes the height grid of a sector file on disk.
func DecodeHeightGridFile(path string) (*HeightGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sector file: %w", err)
	}
	return DecodeHeightGrid(data)
}
