// terraintool is a CLI utility for decoding terrain sector archives and
// assembling them into height, texture and water mosaics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/terramosaic/internal/config"
	"github.com/Faultbox/terramosaic/internal/export"
	"github.com/Faultbox/terramosaic/internal/loader"
	"github.com/Faultbox/terramosaic/internal/logger"
	"github.com/Faultbox/terramosaic/internal/synth"
	"github.com/Faultbox/terramosaic/pkg/formats"
	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/measure"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "water":
		cmdWater(args)
	case "sector":
		cmdSector(args)
	case "compose", "c":
		cmdCompose(args)
	case "patterns":
		cmdPatterns()
	case "config":
		cmdConfig(args)
	case "synth":
		cmdSynth(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terraintool - terrain sector mosaic utility

Usage:
  terraintool <command> [options]

Commands:
  info [flags] <dir>       Show sector counts, failures and map size
  water [flags] <dir>      List sectors that carry water
  sector <file.csdat>      Decode a single sector record
  compose [flags] <dir>    Assemble and export height, texture and water mosaics
  patterns                 List ordering policies and atlas patterns
  config [flags] [path]    Save the effective settings as a config file
  synth [flags] <dir>      Write a synthetic sector dataset

Examples:
  terraintool info ./world01
  terraintool compose -x 16 -y 12 -layer color -blend -overlap 4 -color ./world01
  terraintool compose -policy top-left-sequential -height-format raw -zstd ./world01
  terraintool compose -layer color -all-patterns ./world01
  terraintool config -policy top-left-sequential -blend -overlap 4
  terraintool synth -x 4 -y 4 -seed 7 ./demo`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	logger.Sync()
	os.Exit(1)
}

// setup registers the shared flags on fs, parses args, loads the config
// and initialises logging. It returns the dataset directory.
func setup(fs *flag.FlagSet, args []string) (*config.Config, string) {
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fatal("%v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal("init logger: %v", err)
	}

	dir := cfg.Input.Dir
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	return cfg, dir
}

func load(cfg *config.Config, dir string, textures bool) (*mosaic.Collection, *loader.Report) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.LoadOptions()
	if !textures {
		opts.TextureLayer = ""
	}

	c, report, err := loader.Load(ctx, dir, opts)
	if err != nil {
		fatal("%v", err)
	}
	return c, report
}

// grid returns the configured grid, or the one suggested by the sector count.
func grid(cfg *config.Config, report *loader.Report) (int, int) {
	sx, sy := cfg.Layout.SectorsX, cfg.Layout.SectorsY
	if sx > 0 && sy > 0 {
		return sx, sy
	}

	n := report.Loaded
	if report.MaxIndex+1 > n {
		n = report.MaxIndex + 1
	}
	suggestedX, suggestedY, ok := loader.SuggestGrid(n)
	if !ok {
		fatal("cannot suggest a grid for %d sectors; pass -x and -y", n)
	}
	if sx == 0 {
		sx = suggestedX
	}
	if sy == 0 {
		sy = suggestedY
	}
	return sx, sy
}

func cmdInfo(args []string) {
	cfg, dir := setup(flag.NewFlagSet("info", flag.ExitOnError), args)
	defer logger.Sync()

	c, report := load(cfg, dir, false)
	sx, sy := grid(cfg, report)

	fmt.Printf("Directory:  %s\n", dir)
	fmt.Printf("Sectors:    %d loaded, %d failed\n", report.Loaded, len(report.Failures))
	fmt.Printf("Max index:  %d\n", report.MaxIndex)
	fmt.Printf("Water:      %d sectors\n", report.WaterSectors)
	fmt.Printf("Grid:       %dx%d\n", sx, sy)

	size := measure.MapSize(sx, sy, formats.GridDim, cfg.Measure.MetersPerCoordinate)
	fmt.Printf("Map size:   %s\n", size.Format(cfg.Measure.Units))

	if len(c.Heights) > 0 {
		lo, hi := heightRange(c)
		fmt.Printf("Heights:    %.2f .. %.2f\n", lo, hi)
	}

	if len(report.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failures:")
		for _, f := range report.Failures {
			fmt.Printf("  %v\n", f)
		}
	}
}

func heightRange(c *mosaic.Collection) (lo, hi float64) {
	first := true
	for _, g := range c.Heights {
		gl, gh := g.Range()
		if first || gl < lo {
			lo = gl
		}
		if first || gh > hi {
			hi = gh
		}
		first = false
	}
	return lo, hi
}

func cmdWater(args []string) {
	cfg, dir := setup(flag.NewFlagSet("water", flag.ExitOnError), args)
	defer logger.Sync()

	c, report := load(cfg, dir, false)
	sx, sy := grid(cfg, report)

	req, err := cfg.Request(sx, sy)
	if err != nil {
		fatal("%v", err)
	}

	indices := c.WaterSectors()
	for _, idx := range indices {
		cell := "not placed"
		if row, col, ok := req.LocateHeight(idx); ok {
			cell = fmt.Sprintf("row %d col %d", row, col)
		}
		fmt.Printf("%s  [%s]\n", c.Water[idx], cell)
	}
	fmt.Fprintf(os.Stderr, "\n(%d of %d sectors have water, grid %dx%d)\n", len(indices), len(c.Heights), sx, sy)
}

func cmdSector(args []string) {
	fs := flag.NewFlagSet("sector", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terraintool sector <file.csdat>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fatal("%v", err)
	}
	g, err := formats.DecodeHeightGrid(data)
	if err != nil {
		fatal("%s: %v", path, err)
	}

	index, ok := loader.ParseSectorName(filepath.Base(path))
	if !ok {
		index = -1
	}

	lo, hi := g.Range()
	fmt.Printf("File:     %s\n", path)
	fmt.Printf("Size:     %d bytes\n", len(data))
	fmt.Printf("Grid:     %dx%d\n", g.Dim, g.Dim)
	fmt.Printf("Heights:  %.4f .. %.4f\n", lo, hi)
	fmt.Printf("Water:    %s\n", formats.ParseWater(index, data))
}

func cmdCompose(args []string) {
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	allPatterns := fs.Bool("all-patterns", false, "Also write one texture mosaic per atlas pattern")
	cfg, dir := setup(fs, args)
	defer logger.Sync()

	if *allPatterns && (cfg.Input.TextureLayer == "" || cfg.Input.TextureLayer == loader.ShadowLayer) {
		fatal("-all-patterns needs an atlas texture layer (-layer color, normal or mask)")
	}

	c, report := load(cfg, dir, true)
	sx, sy := grid(cfg, report)

	req, err := cfg.Request(sx, sy)
	if err != nil {
		fatal("%v", err)
	}

	res, err := mosaic.Compose(c, req)
	if err != nil {
		fatal("compose: %v", err)
	}
	logger.Info("composite ready",
		zap.Int("width", res.Height.Width),
		zap.Int("height", res.Height.Height),
		zap.Int("placed", res.Stats.Placed),
		zap.Int("missing", len(res.Stats.Missing)))

	exp := export.NewExporter(cfg.Export.OutputDir, filepath.Base(filepath.Clean(dir)))
	var written []string

	switch strings.ToLower(cfg.Export.HeightFormat) {
	case config.HeightGray8:
		written = append(written, must(exp.HeightPNG(res.Height, 8)))
	case config.HeightRaw:
		written = append(written, must(exp.HeightRaw(res.Height, cfg.Export.CompressRaw)))
	default:
		written = append(written, must(exp.HeightPNG(res.Height, 16)))
	}
	if cfg.Export.ColorPreview {
		written = append(written, must(exp.ColorHeightPNG(res.Height, export.TerrainPalette)))
	}
	if res.Texture != nil {
		tex := res.Texture
		if cfg.Export.Brightness != 1 {
			tex = tex.Brighten(cfg.Export.Brightness)
		}
		written = append(written, must(exp.TexturePNG(tex)))
	}
	if res.Stats.WaterSectors > 0 {
		written = append(written, must(exp.WaterPNG(res.Water)))
	}
	if *allPatterns {
		written = append(written, composePatterns(cfg, dir, c, req, exp)...)
	}

	printStats(req, res.Stats)

	size := measure.MapSize(sx, sy, formats.GridDim, cfg.Measure.MetersPerCoordinate)
	fmt.Printf("Map size: %s\n", size.Format(cfg.Measure.Units))

	fmt.Println()
	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}
}

// composePatterns reassembles the texture mosaic under every atlas pattern
// so the arrangements can be compared.
func composePatterns(cfg *config.Config, dir string, c *mosaic.Collection, req mosaic.Request, exp *export.Exporter) []string {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var written []string
	for _, p := range layout.Patterns() {
		opts := cfg.LoadOptions()
		opts.AtlasPattern = p

		report, err := loader.LoadTextures(ctx, dir, opts, c)
		if err != nil {
			fatal("%v", err)
		}
		res, err := mosaic.Compose(c, req)
		if err != nil {
			fatal("compose %s: %v", p, err)
		}
		if res.Texture == nil {
			logger.Warn("no textures for pattern", zap.Stringer("pattern", p))
			continue
		}

		tex := res.Texture
		if cfg.Export.Brightness != 1 {
			tex = tex.Brighten(cfg.Export.Brightness)
		}
		written = append(written, must(exp.PatternTexturePNG(p, tex)))
		logger.Info("pattern composed",
			zap.Stringer("pattern", p),
			zap.Int("textures", report.Textures),
			zap.Int("texture_failures", len(report.TextureFailures)))
	}
	return written
}

func must(path string, err error) string {
	if err != nil {
		fatal("export: %v", err)
	}
	return path
}

func printStats(req mosaic.Request, st mosaic.Stats) {
	fmt.Printf("Grid:     %dx%d (%s", req.SectorsX, req.SectorsY, req.Policy)
	if req.OrderHeights {
		fmt.Print(", heights ordered")
	}
	if req.Blend.Enabled {
		fmt.Printf(", %s blend overlap %d", req.Blend.Mode, req.Blend.Overlap)
	}
	fmt.Println(")")

	fmt.Printf("Heights:  %d/%d placed\n", st.Placed, st.Slots)
	if len(st.Missing) > 0 {
		fmt.Printf("  missing: %s\n", joinInts(st.Missing, 20))
	}
	if len(st.Failed) > 0 {
		fmt.Printf("  failed:  %s\n", joinInts(st.Failed, 20))
	}
	if st.TexturePlaced > 0 || len(st.TextureMissing) > 0 {
		fmt.Printf("Textures: %d/%d placed\n", st.TexturePlaced, st.Slots)
	}
	fmt.Printf("Water:    %d sectors\n", st.WaterSectors)
}

func joinInts(values []int, limit int) string {
	parts := make([]string, 0, min(len(values), limit))
	for i, v := range values {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(values)-limit))
			break
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ", ")
}

func cmdPatterns() {
	fmt.Println("Ordering policies:")
	for _, p := range layout.Policies() {
		fmt.Printf("  %-26s %s\n", p, p.Origin())
	}

	fmt.Println()
	fmt.Println("Atlas patterns:")
	for _, p := range layout.Patterns() {
		m := p.Mapping()
		fmt.Printf("  %-14s 0=%s 1=%s 2=%s 3=%s\n", p, m[0], m[1], m[2], m[3])
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fatal("%v", err)
	}

	path := filepath.Join(config.ConfigDir(), config.FileName)
	if fs.NArg() > 0 {
		path = fs.Arg(0)
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fatal("save config: %v", err)
	}
	fmt.Printf("Saved %s\n", path)
}

func cmdSynth(args []string) {
	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	sx := fs.Int("x", 4, "Sectors across")
	sy := fs.Int("y", 4, "Sectors down")
	seed := fs.Int64("seed", 1, "Noise seed")
	scale := fs.Float64("scale", 0, "Noise feature size in cells (0 = default)")
	amplitude := fs.Float64("amplitude", 0, "Height range (0 = default)")
	water := fs.Float64("water", 0, "Water level (0 = no water)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terraintool synth [flags] <dir>")
		os.Exit(1)
	}

	paths, err := synth.WriteDir(fs.Arg(0), synth.Options{
		SectorsX:   *sx,
		SectorsY:   *sy,
		Seed:       *seed,
		Scale:      *scale,
		Amplitude:  *amplitude,
		WaterLevel: *water,
	})
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Wrote %d sectors to %s\n", len(paths), fs.Arg(0))
}
