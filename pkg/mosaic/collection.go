// Package mosaic assembles decoded sectors into height, texture and water
// mosaics.
//
// Every Compose call is a pure function of the collection and the request;
// buffers are allocated fresh and never shared between calls.
package mosaic

import (
	"sort"

	"github.com/Faultbox/terramosaic/pkg/formats"
	"github.com/Faultbox/terramosaic/pkg/texture"
)

// Collection holds the sectors of one dataset keyed by sector index.
// Indices are sparse; an absent key is a missing sector, not an error.
type Collection struct {
	Heights  map[int]*formats.HeightGrid
	Textures map[int]*texture.Tile
	Water    map[int]formats.WaterRecord

	// Failed records sectors whose records could not be decoded.
	Failed map[int]error
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{
		Heights:  make(map[int]*formats.HeightGrid),
		Textures: make(map[int]*texture.Tile),
		Water:    make(map[int]formats.WaterRecord),
		Failed:   make(map[int]error),
	}
}

// AddSector decodes a raw sector record and stores its height grid and
// water record. A decode failure is recorded in Failed and returned; the
// collection stays usable.
func (c *Collection) AddSector(index int, data []byte) error {
	grid, err := formats.DecodeHeightGrid(data)
	if err != nil {
		c.Failed[index] = err
		return err
	}

	c.Heights[index] = grid
	c.Water[index] = formats.ParseWater(index, data)
	delete(c.Failed, index)
	return nil
}

// Indices returns the sorted indices of all sectors with height data.
func (c *Collection) Indices() []int {
	indices := make([]int, 0, len(c.Heights))
	for idx := range c.Heights {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// MaxIndex returns the largest sector index with height data, or -1.
func (c *Collection) MaxIndex() int {
	max := -1
	for idx := range c.Heights {
		if idx > max {
			max = idx
		}
	}
	return max
}

// WaterSectors returns the sorted indices of sectors that have water.
func (c *Collection) WaterSectors() []int {
	var indices []int
	for idx, w := range c.Water {
		if w.HasWater {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)
	return indices
}
