package mosaic

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// minWeight guards the normalisation against uncovered pixels.
const minWeight = 1e-10

// blendChunkRows is the number of output rows handled per worker task.
const blendChunkRows = 16

// WeightMask returns the dim x dim feather mask for seam blending. The
// outer overlap pixels on each edge ramp towards zero with t = (e+0.5)/overlap,
// e being the distance from that edge; factors from different edges
// multiply. Every weight is strictly positive.
func WeightMask(dim, overlap int, mode BlendMode) []float64 {
	edge := make([]float64, dim)
	for i := range edge {
		edge[i] = 1
		if i < overlap {
			edge[i] *= mode.ramp((float64(i) + 0.5) / float64(overlap))
		}
		if j := dim - 1 - i; j < overlap {
			edge[i] *= mode.ramp((float64(j) + 0.5) / float64(overlap))
		}
	}

	mask := make([]float64, dim*dim)
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			mask[y*dim+x] = edge[x] * edge[y]
		}
	}
	return mask
}

// blender accumulates overlapping sectors. Work is split by output row:
// each output row gathers every sector row covering it, so workers write
// disjoint rows and need no locking.
type blender struct {
	c      *Collection
	req    Request
	plan   []cell
	mask   []float64
	dim    int
	stride int
}

func newBlender(c *Collection, req Request, plan []cell) *blender {
	return &blender{
		c:      c,
		req:    req,
		plan:   plan,
		mask:   WeightMask(req.GridDim, req.Blend.Overlap, req.Blend.Mode),
		dim:    req.GridDim,
		stride: req.stride(),
	}
}

// sectorRows returns the inclusive range of sector rows whose footprint
// covers output row y.
func (b *blender) sectorRows(y int) (lo, hi int) {
	hi = y / b.stride
	if hi > b.req.SectorsY-1 {
		hi = b.req.SectorsY - 1
	}
	if first := y - b.dim + 1; first > 0 {
		lo = (first + b.stride - 1) / b.stride
	}
	return lo, hi
}

func (b *blender) compose(res *Result) {
	var g errgroup.Group
	g.SetLimit(b.req.Workers)

	outH := res.Height.Height
	for y0 := 0; y0 < outH; y0 += blendChunkRows {
		y1 := min(y0+blendChunkRows, outH)
		g.Go(func() error {
			wsum := make([]float64, res.Height.Width)
			var acc []float64
			if res.Texture != nil {
				acc = make([]float64, res.Texture.Width*3)
			}
			for y := y0; y < y1; y++ {
				b.heightRow(y, res.Height.Row(y), wsum)
				if res.Texture != nil {
					b.textureRow(y, res.Texture.Row(y), acc, wsum)
				}
			}
			return nil
		})
	}

	// Band workers never fail; the group only bounds concurrency.
	_ = g.Wait()
}

func (b *blender) heightRow(y int, out, wsum []float64) {
	clear(out)
	clear(wsum)

	flip := b.req.flipHeights()
	lo, hi := b.sectorRows(y)
	for r := lo; r <= hi; r++ {
		ly := y - r*b.stride
		src := ly
		if flip {
			src = b.dim - 1 - ly
		}
		weights := b.mask[ly*b.dim : (ly+1)*b.dim]

		for _, cl := range b.plan[r*b.req.SectorsX : (r+1)*b.req.SectorsX] {
			grid, ok := b.c.Heights[cl.height]
			if !ok {
				continue
			}
			ox := cl.col * b.stride
			for lx, v := range grid.Row(src) {
				w := weights[lx]
				out[ox+lx] += v * w
				wsum[ox+lx] += w
			}
		}
	}

	for x := range out {
		out[x] /= math.Max(wsum[x], minWeight)
	}
}

func (b *blender) textureRow(y int, out []uint8, acc, wsum []float64) {
	clear(acc)
	clear(wsum)

	flip := b.req.flipTextures()
	lo, hi := b.sectorRows(y)
	for r := lo; r <= hi; r++ {
		ly := y - r*b.stride
		src := ly
		if flip {
			src = b.dim - 1 - ly
		}
		weights := b.mask[ly*b.dim : (ly+1)*b.dim]

		for _, cl := range b.plan[r*b.req.SectorsX : (r+1)*b.req.SectorsX] {
			tile, ok := b.c.Textures[cl.texture]
			if !ok {
				continue
			}
			ox := cl.col * b.stride
			row := tile.Row(src)
			for lx := 0; lx < b.dim; lx++ {
				w := weights[lx]
				i := (ox + lx) * 3
				acc[i] += float64(row[lx*3]) * w
				acc[i+1] += float64(row[lx*3+1]) * w
				acc[i+2] += float64(row[lx*3+2]) * w
				wsum[ox+lx] += w
			}
		}
	}

	for x := range wsum {
		norm := math.Max(wsum[x], minWeight)
		for ch := 0; ch < 3; ch++ {
			out[x*3+ch] = clampByte(acc[x*3+ch] / norm)
		}
	}
}
