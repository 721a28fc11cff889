// Package loader reads a sector directory into a mosaic collection.
//
// Files are decoded in parallel. A sector that fails to decode is recorded
// in the report and loading continues with the rest.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terramosaic/internal/logger"
	"github.com/Faultbox/terramosaic/pkg/formats"
	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
	"github.com/Faultbox/terramosaic/pkg/texture"
)

// ShadowLayer is the texture layer stored as one file per sector.
const ShadowLayer = "shadow"

// Options controls Load.
type Options struct {
	// Workers bounds parallel decoding; zero means GOMAXPROCS.
	Workers int

	// TextureLayer selects atlas files named atlas<N>_<layer>.<ext>, or
	// per-sector shadow files for ShadowLayer. Empty loads no textures.
	TextureLayer string

	// ShadowDir holds shadow files; empty means the sector directory.
	ShadowDir string

	AtlasPattern layout.Pattern

	// GridDim is the texture tile dimension; zero means formats.GridDim.
	GridDim int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) gridDim() int {
	if o.GridDim > 0 {
		return o.GridDim
	}
	return formats.GridDim
}

// Failure records one file that could not be used.
type Failure struct {
	Sector int
	Path   string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("sector %d (%s): %v", f.Sector, filepath.Base(f.Path), f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarises a load.
type Report struct {
	Loaded       int
	WaterSectors int
	MaxIndex     int // -1 when nothing loaded
	Failures     []Failure

	Textures        int
	TextureFailures []Failure
}

// Err combines all sector failures, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

// TextureErr combines all texture failures, or returns nil.
func (r *Report) TextureErr() error {
	var err error
	for _, f := range r.TextureFailures {
		err = multierr.Append(err, f)
	}
	return err
}

type sectorFile struct {
	index int
	path  string
}

type decodedSector struct {
	grid  *formats.HeightGrid
	water formats.WaterRecord
	err   error
}

// Load decodes every sector record in dir and, when configured, the
// texture layer. The returned error covers directory and cancellation
// problems only; per-file failures are in the report.
func Load(ctx context.Context, dir string, opts Options) (*mosaic.Collection, *Report, error) {
	log := logger.Named("loader")

	files, err := listSectors(dir)
	if err != nil {
		return nil, nil, err
	}

	results := make([]decodedSector, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = decodeSector(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	c := mosaic.NewCollection()
	report := &Report{MaxIndex: -1}

	for i, f := range files {
		res := results[i]
		if res.err != nil {
			c.Failed[f.index] = res.err
			report.Failures = append(report.Failures, Failure{Sector: f.index, Path: f.path, Err: res.err})
			log.Warn("sector failed to decode",
				zap.Int("sector", f.index),
				zap.String("path", f.path),
				zap.Error(res.err))
			continue
		}

		c.Heights[f.index] = res.grid
		c.Water[f.index] = res.water
		report.Loaded++
		report.MaxIndex = max(report.MaxIndex, f.index)

		if res.water.HasWater {
			report.WaterSectors++
			log.Debug("water sector",
				zap.Int("sector", f.index),
				zap.Float32("height", res.water.Height),
				zap.String("material", res.water.MaterialPath))
		}
	}

	if opts.TextureLayer != "" {
		if err := loadTextures(ctx, dir, opts, c, report, log); err != nil {
			return nil, nil, err
		}
	}

	log.Info("load complete",
		zap.String("dir", dir),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed", len(report.Failures)),
		zap.Int("water", report.WaterSectors),
		zap.Int("textures", report.Textures))

	return c, report, nil
}

// LoadTextures replaces the textures of c with the layer selected by opts
// and returns a report that covers textures only. It is used to reassemble
// one dataset under several atlas patterns without decoding sectors again.
func LoadTextures(ctx context.Context, dir string, opts Options, c *mosaic.Collection) (*Report, error) {
	c.Textures = make(map[int]*texture.Tile)
	report := &Report{Loaded: len(c.Heights), MaxIndex: c.MaxIndex()}
	if opts.TextureLayer == "" {
		return report, nil
	}
	if err := loadTextures(ctx, dir, opts, c, report, logger.Named("loader")); err != nil {
		return nil, err
	}
	return report, nil
}

// listSectors returns the sector files of dir ordered by index. When two
// names resolve to the same index the first in name order wins.
func listSectors(dir string) ([]sectorFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sector dir: %w", err)
	}

	seen := make(map[int]bool)
	var files []sectorFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := ParseSectorName(e.Name())
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		files = append(files, sectorFile{index: idx, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	return files, nil
}

func decodeSector(f sectorFile) decodedSector {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return decodedSector{err: err}
	}
	grid, err := formats.DecodeHeightGrid(data)
	if err != nil {
		return decodedSector{err: err}
	}
	return decodedSector{grid: grid, water: formats.ParseWater(f.index, data)}
}
