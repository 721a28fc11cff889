package config

import (
	"flag"
	"fmt"

	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/measure"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
)

// Flags are the command-line overrides shared by terraintool commands.
type Flags struct {
	fs *flag.FlagSet

	config       *string
	debug        *bool
	logFile      *string
	sectorsX     *int
	sectorsY     *int
	policy       *string
	orderHeights *bool
	atlasPattern *string
	rotation     *int
	textureFlip  *string
	layer        *string
	shadowDir    *string
	blend        *bool
	overlap      *int
	blendMode    *string
	output       *string
	heightFormat *string
	compress     *bool
	brightness   *float64
	colorPreview *bool
	scale        *float64
	units        *string
	workers      *int
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:           fs,
		config:       fs.String("config", "", "Path to config file"),
		debug:        fs.Bool("debug", false, "Enable debug logging"),
		logFile:      fs.String("log-file", "", "Also write logs to this file"),
		sectorsX:     fs.Int("x", 0, "Sectors across (0 = suggest from sector count)"),
		sectorsY:     fs.Int("y", 0, "Sectors down (0 = suggest from sector count)"),
		policy:       fs.String("policy", "", "Sector ordering policy"),
		orderHeights: fs.Bool("order-heights", false, "Apply the ordering policy to heights"),
		atlasPattern: fs.String("atlas-pattern", "", "Atlas sub-tile pattern"),
		rotation:     fs.Int("rotate", 0, "Clockwise texture rotation in degrees"),
		textureFlip:  fs.String("flip", "", "Texture flip: auto, always or never"),
		layer:        fs.String("layer", "", "Texture layer (color, normal, mask, shadow)"),
		shadowDir:    fs.String("shadow-dir", "", "Directory holding shadow files"),
		blend:        fs.Bool("blend", false, "Enable seam blending"),
		overlap:      fs.Int("overlap", 0, "Seam blend overlap in pixels"),
		blendMode:    fs.String("blend-mode", "", "Blend ramp: linear, smoothstep or smootherstep"),
		output:       fs.String("o", "", "Output directory"),
		heightFormat: fs.String("height-format", "", "Height export: gray8, gray16 or raw"),
		compress:     fs.Bool("zstd", false, "Compress raw height exports with zstd"),
		brightness:   fs.Float64("brightness", 0, "Texture brightness factor"),
		colorPreview: fs.Bool("color", false, "Also write a coloured height preview"),
		scale:        fs.Float64("scale", 0, "Meters per coordinate"),
		units:        fs.String("units", "", "Units: metric, imperial or both"),
		workers:      fs.Int("workers", 0, "Parallel workers (0 = all CPUs)"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies the flags that were set on the command line to cfg.
func (f *Flags) apply(cfg *Config) error {
	if f == nil {
		return nil
	}

	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if set["log-file"] {
		cfg.Logging.LogFile = *f.logFile
	}
	if set["x"] {
		cfg.Layout.SectorsX = *f.sectorsX
	}
	if set["y"] {
		cfg.Layout.SectorsY = *f.sectorsY
	}
	if set["policy"] {
		p, ok := layout.ParsePolicy(*f.policy)
		if !ok {
			return fmt.Errorf("unknown ordering policy %q", *f.policy)
		}
		cfg.Layout.Policy = p
	}
	if set["order-heights"] {
		cfg.Layout.OrderHeights = *f.orderHeights
	}
	if set["atlas-pattern"] {
		p, ok := layout.ParsePattern(*f.atlasPattern)
		if !ok {
			return fmt.Errorf("unknown atlas pattern %q", *f.atlasPattern)
		}
		cfg.Layout.AtlasPattern = p
	}
	if set["rotate"] {
		cfg.Layout.Rotation = *f.rotation
	}
	if set["flip"] {
		cfg.Layout.TextureFlip = *f.textureFlip
	}
	if set["layer"] {
		cfg.Input.TextureLayer = *f.layer
	}
	if set["shadow-dir"] {
		cfg.Input.ShadowDir = *f.shadowDir
	}
	if set["blend"] {
		cfg.Blend.Enabled = *f.blend
	}
	if set["overlap"] {
		cfg.Blend.Overlap = *f.overlap
	}
	if set["blend-mode"] {
		m, err := mosaic.ParseBlendMode(*f.blendMode)
		if err != nil {
			return err
		}
		cfg.Blend.Mode = m
	}
	if set["o"] {
		cfg.Export.OutputDir = *f.output
	}
	if set["height-format"] {
		cfg.Export.HeightFormat = *f.heightFormat
	}
	if set["zstd"] {
		cfg.Export.CompressRaw = *f.compress
	}
	if set["brightness"] {
		cfg.Export.Brightness = *f.brightness
	}
	if set["color"] {
		cfg.Export.ColorPreview = *f.colorPreview
	}
	if set["scale"] {
		cfg.Measure.MetersPerCoordinate = *f.scale
	}
	if set["units"] {
		u, err := measure.ParseUnits(*f.units)
		if err != nil {
			return err
		}
		cfg.Measure.Units = u
	}
	if set["workers"] {
		cfg.Workers = *f.workers
	}
	return nil
}
