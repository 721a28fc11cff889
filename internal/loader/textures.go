package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
	"github.com/Faultbox/terramosaic/pkg/texture"
)

// atlasFile groups the candidate files of one atlas number.
type atlasFile struct {
	num   int
	paths []string // in textureExts priority
}

type decodedAtlas struct {
	tiles [layout.SubTilesPerAtlas]*texture.Tile
	path  string
	err   error
}

func loadTextures(ctx context.Context, dir string, opts Options, c *mosaic.Collection, report *Report, log *zap.Logger) error {
	var err error
	if opts.TextureLayer == ShadowLayer {
		err = loadShadows(ctx, dir, opts, c, report, log)
	} else {
		err = loadAtlases(ctx, dir, opts, c, report, log)
	}
	if err != nil {
		return err
	}

	report.Textures = len(c.Textures)
	for _, f := range report.TextureFailures {
		log.Warn("texture skipped",
			zap.Int("sector", f.Sector),
			zap.String("path", f.Path),
			zap.Error(f.Err))
	}
	return nil
}

// listAtlases finds atlas<N>_<layer> files, ordered by atlas number.
func listAtlases(dir, layer string) ([]atlasFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read atlas dir: %w", err)
	}

	byNum := make(map[int]*atlasFile)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		num, _, ok := ParseAtlasName(e.Name(), layer)
		if !ok {
			continue
		}
		a := byNum[num]
		if a == nil {
			a = &atlasFile{num: num}
			byNum[num] = a
		}
		a.paths = append(a.paths, filepath.Join(dir, e.Name()))
	}

	atlases := make([]atlasFile, 0, len(byNum))
	for _, a := range byNum {
		sort.Slice(a.paths, func(i, j int) bool {
			return extPriority(strings.ToLower(filepath.Ext(a.paths[i]))) <
				extPriority(strings.ToLower(filepath.Ext(a.paths[j])))
		})
		atlases = append(atlases, *a)
	}
	sort.Slice(atlases, func(i, j int) bool { return atlases[i].num < atlases[j].num })
	return atlases, nil
}

// loadAtlases maps the i-th atlas in number order to sectors i*4..i*4+3.
func loadAtlases(ctx context.Context, dir string, opts Options, c *mosaic.Collection, report *Report, log *zap.Logger) error {
	atlases, err := listAtlases(dir, opts.TextureLayer)
	if err != nil {
		return err
	}
	log.Debug("atlases found", zap.String("layer", opts.TextureLayer), zap.Int("count", len(atlases)))

	results := make([]decodedAtlas, len(atlases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, a := range atlases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = decodeAtlas(a, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, res := range results {
		if res.err != nil {
			report.TextureFailures = append(report.TextureFailures,
				Failure{Sector: layout.AtlasSector(i, 0), Path: res.path, Err: res.err})
			continue
		}
		for sub, tile := range res.tiles {
			c.Textures[layout.AtlasSector(i, sub)] = tile
		}
	}
	return nil
}

// decodeAtlas tries each candidate file in priority order and cuts the
// first that decodes into its four sub-tiles.
func decodeAtlas(a atlasFile, opts Options) decodedAtlas {
	var res decodedAtlas
	for _, path := range a.paths {
		res = decodeAtlasFile(path, opts)
		if res.err == nil {
			return res
		}
	}
	return res
}

func decodeAtlasFile(path string, opts Options) decodedAtlas {
	res := decodedAtlas{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.err = err
		return res
	}
	img, err := texture.DecodeAtlas(path, data)
	if err != nil {
		res.err = err
		return res
	}

	for sub := range res.tiles {
		tile, err := texture.ExtractTile(img, sub, opts.AtlasPattern, opts.gridDim())
		if err != nil {
			res.err = err
			return res
		}
		res.tiles[sub] = tile
	}
	return res
}

// loadShadows reads one shadow image per sector.
func loadShadows(ctx context.Context, dir string, opts Options, c *mosaic.Collection, report *Report, log *zap.Logger) error {
	if opts.ShadowDir != "" {
		dir = opts.ShadowDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read shadow dir: %w", err)
	}

	paths := make(map[int]string)
	tagged := make(map[int]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, isTagged, ok := ParseShadowName(e.Name())
		if !ok || tagged[idx] {
			continue
		}
		if _, exists := paths[idx]; exists && !isTagged {
			continue
		}
		paths[idx] = filepath.Join(dir, e.Name())
		tagged[idx] = isTagged
	}
	log.Debug("shadow files found", zap.String("dir", dir), zap.Int("count", len(paths)))

	files := make([]sectorFile, 0, len(paths))
	for idx, path := range paths {
		files = append(files, sectorFile{index: idx, path: path})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	tiles := make([]*texture.Tile, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tiles[i], errs[i] = decodeShadow(f.path, opts.gridDim())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, f := range files {
		if errs[i] != nil {
			report.TextureFailures = append(report.TextureFailures, Failure{Sector: f.index, Path: f.path, Err: errs[i]})
			continue
		}
		c.Textures[f.index] = tiles[i]
	}
	return nil
}

func decodeShadow(path string, dim int) (*texture.Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := texture.DecodeAtlas(path, data)
	if err != nil {
		return nil, err
	}
	return texture.FromImage(img, dim), nil
}
