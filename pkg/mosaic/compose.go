package mosaic

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Stats reports how the cells of a composite were filled.
type Stats struct {
	Slots  int // SectorsX * SectorsY
	Placed int // cells with height data

	// Missing lists, in display order, the height sector indices that had
	// no data. Failed is the subset whose records failed to decode.
	Missing []int
	Failed  []int

	TexturePlaced  int
	TextureMissing []int

	WaterSectors int
}

// Result is the output of one composite.
type Result struct {
	Height  *HeightBuffer
	Texture *TextureBuffer // nil when the collection has no textures
	Water   *WaterBuffer
	Stats   Stats

	// Stride is the distance between adjacent sector origins in the
	// unrotated buffers.
	Stride int
}

// cell is one resolved display position.
type cell struct {
	row, col int
	height   int
	texture  int
}

// Compose assembles the height, texture and water mosaics described by req.
func Compose(c *Collection, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.normalized()

	if err := checkDimensions(c, req.GridDim); err != nil {
		return nil, err
	}

	plan := planCells(req)
	w, h := req.outputSize()

	res := &Result{
		Height: newHeightBuffer(w, h),
		Water:  newWaterBuffer(w, h),
		Stats:  collectStats(c, plan),
		Stride: req.stride(),
	}
	if len(c.Textures) > 0 {
		res.Texture = newTextureBuffer(w, h)
	}

	if req.Blend.Enabled {
		newBlender(c, req, plan).compose(res)
	} else {
		composeStandard(c, req, plan, res)
	}
	res.Stats.WaterSectors = placeWater(c, req, plan, res.Water)

	if res.Texture != nil && req.Rotation != Rotate0 {
		res.Texture = res.Texture.Rotate(req.Rotation)
	}

	return res, nil
}

// checkDimensions verifies every grid and tile matches dim.
func checkDimensions(c *Collection, dim int) error {
	for idx, grid := range c.Heights {
		if grid == nil || grid.Dim != dim || len(grid.Samples) != dim*dim {
			return fmt.Errorf("%w: height sector %d, want %dx%d", ErrDimensionMismatch, idx, dim, dim)
		}
	}
	for idx, tile := range c.Textures {
		if tile == nil || tile.Dim != dim || len(tile.Pix) != dim*dim*3 {
			return fmt.Errorf("%w: texture sector %d, want %dx%d", ErrDimensionMismatch, idx, dim, dim)
		}
	}
	return nil
}

// planCells resolves every display cell in row-major order.
func planCells(req Request) []cell {
	plan := make([]cell, 0, req.SectorsX*req.SectorsY)
	for row := 0; row < req.SectorsY; row++ {
		for col := 0; col < req.SectorsX; col++ {
			plan = append(plan, cell{
				row:     row,
				col:     col,
				height:  req.heightIndex(row, col),
				texture: req.textureIndex(row, col),
			})
		}
	}
	return plan
}

func collectStats(c *Collection, plan []cell) Stats {
	st := Stats{Slots: len(plan)}
	for _, cl := range plan {
		if _, ok := c.Heights[cl.height]; ok {
			st.Placed++
		} else {
			st.Missing = append(st.Missing, cl.height)
			if _, failed := c.Failed[cl.height]; failed {
				st.Failed = append(st.Failed, cl.height)
			}
		}

		if len(c.Textures) > 0 {
			if _, ok := c.Textures[cl.texture]; ok {
				st.TexturePlaced++
			} else {
				st.TextureMissing = append(st.TextureMissing, cl.texture)
			}
		}
	}
	return st
}

// composeStandard places whole sectors edge to edge. Each worker owns one
// display row of sectors, so writes never overlap.
func composeStandard(c *Collection, req Request, plan []cell, res *Result) {
	dim := req.GridDim
	flipH := req.flipHeights()
	flipT := req.flipTextures()

	var g errgroup.Group
	g.SetLimit(req.Workers)

	for row := 0; row < req.SectorsY; row++ {
		g.Go(func() error {
			for _, cl := range plan[row*req.SectorsX : (row+1)*req.SectorsX] {
				if grid, ok := c.Heights[cl.height]; ok {
					for y := 0; y < dim; y++ {
						src := y
						if flipH {
							src = dim - 1 - y
						}
						dst := res.Height.Row(row*dim + y)[cl.col*dim:]
						copy(dst[:dim], grid.Row(src))
					}
				}

				if res.Texture == nil {
					continue
				}
				if tile, ok := c.Textures[cl.texture]; ok {
					for y := 0; y < dim; y++ {
						src := y
						if flipT {
							src = dim - 1 - y
						}
						dst := res.Texture.Row(row*dim + y)[cl.col*dim*3:]
						copy(dst[:dim*3], tile.Row(src))
					}
				}
			}
			return nil
		})
	}

	// Row workers never fail; the group only bounds concurrency.
	_ = g.Wait()
}

// placeWater fills the footprint of every placed sector that has water.
// Overlapping footprints in blend mode keep the later sector's value.
func placeWater(c *Collection, req Request, plan []cell, water *WaterBuffer) int {
	dim := req.GridDim
	stride := req.stride()

	count := 0
	for _, cl := range plan {
		rec, ok := c.Water[cl.height]
		if !ok || !rec.HasWater {
			continue
		}
		if _, placed := c.Heights[cl.height]; !placed {
			continue
		}

		count++
		for y := cl.row * stride; y < cl.row*stride+dim; y++ {
			for x := cl.col * stride; x < cl.col*stride+dim; x++ {
				i := y*water.Width + x
				water.Samples[i] = rec.Height
				water.Mask[i] = true
			}
		}
	}
	return count
}
