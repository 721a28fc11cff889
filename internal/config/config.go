// Package config handles terraintool configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/Faultbox/terramosaic/internal/loader"
	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/measure"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
)

// Height export formats.
const (
	HeightGray8  = "gray8"
	HeightGray16 = "gray16"
	HeightRaw    = "raw"
)

// Config holds all terraintool settings.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Layout  LayoutConfig  `yaml:"layout"`
	Blend   BlendConfig   `yaml:"blend"`
	Export  ExportConfig  `yaml:"export"`
	Measure MeasureConfig `yaml:"measure"`
	Logging LoggingConfig `yaml:"logging"`

	// Workers bounds decode and composite parallelism; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// InputConfig holds dataset locations.
type InputConfig struct {
	Dir          string `yaml:"dir"`
	TextureLayer string `yaml:"texture_layer"` // color, normal, mask, shadow or empty
	ShadowDir    string `yaml:"shadow_dir"`    // defaults to Dir
}

// LayoutConfig holds sector placement settings.
type LayoutConfig struct {
	// SectorsX and SectorsY of 0 use the grid suggested from the sector count.
	SectorsX     int            `yaml:"sectors_x"`
	SectorsY     int            `yaml:"sectors_y"`
	Policy       layout.Policy  `yaml:"policy"`
	OrderHeights bool           `yaml:"order_heights"`
	AtlasPattern layout.Pattern `yaml:"atlas_pattern"`
	Rotation     int            `yaml:"rotation"` // clockwise degrees, texture only
	TextureFlip  string         `yaml:"texture_flip"`
}

// BlendConfig holds seam blending settings.
type BlendConfig struct {
	Enabled bool             `yaml:"enabled"`
	Overlap int              `yaml:"overlap"`
	Mode    mosaic.BlendMode `yaml:"mode"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	OutputDir    string  `yaml:"output_dir"`
	HeightFormat string  `yaml:"height_format"`
	CompressRaw  bool    `yaml:"compress_raw"`
	Brightness   float64 `yaml:"brightness"`
	ColorPreview bool    `yaml:"color_preview"` // also write a palette-coloured height image
}

// MeasureConfig holds real-world scale settings.
type MeasureConfig struct {
	MetersPerCoordinate float64       `yaml:"meters_per_coordinate"`
	Units               measure.Units `yaml:"units"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Dir: ".",
		},
		Layout: LayoutConfig{
			Policy:       layout.GameBlocksVertical,
			AtlasPattern: layout.PatternStandard,
			Rotation:     270,
			TextureFlip:  "auto",
		},
		Blend: BlendConfig{
			Enabled: false,
			Overlap: 2,
			Mode:    mosaic.BlendSmoothstep,
		},
		Export: ExportConfig{
			OutputDir:    "out",
			HeightFormat: HeightGray16,
			Brightness:   1.0,
		},
		Measure: MeasureConfig{
			MetersPerCoordinate: measure.DefaultMetersPerCoord,
			Units:               measure.Metric,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Export.HeightFormat) {
	case HeightGray8, HeightGray16, HeightRaw:
	default:
		return fmt.Errorf("unknown height format %q", c.Export.HeightFormat)
	}
	if _, err := mosaic.ParseRotation(c.Layout.Rotation); err != nil {
		return err
	}
	if _, err := mosaic.ParseFlipMode(c.Layout.TextureFlip); err != nil {
		return err
	}
	if c.Layout.SectorsX < 0 || c.Layout.SectorsY < 0 {
		return fmt.Errorf("negative sector grid %dx%d", c.Layout.SectorsX, c.Layout.SectorsY)
	}
	if c.Export.Brightness <= 0 {
		return fmt.Errorf("brightness must be positive, got %g", c.Export.Brightness)
	}
	if c.Measure.MetersPerCoordinate <= 0 {
		return fmt.Errorf("meters per coordinate must be positive, got %g", c.Measure.MetersPerCoordinate)
	}
	if c.Workers < 0 {
		return fmt.Errorf("negative worker count %d", c.Workers)
	}
	return nil
}

// LoadOptions returns the loader settings.
func (c *Config) LoadOptions() loader.Options {
	return loader.Options{
		Workers:      c.Workers,
		TextureLayer: c.Input.TextureLayer,
		ShadowDir:    c.Input.ShadowDir,
		AtlasPattern: c.Layout.AtlasPattern,
	}
}

// Request builds the composite request for an sx by sy grid. The shadow
// layer is stored upright, so its tiles are never flipped.
func (c *Config) Request(sx, sy int) (mosaic.Request, error) {
	rot, err := mosaic.ParseRotation(c.Layout.Rotation)
	if err != nil {
		return mosaic.Request{}, err
	}
	flip, err := mosaic.ParseFlipMode(c.Layout.TextureFlip)
	if err != nil {
		return mosaic.Request{}, err
	}
	if c.Input.TextureLayer == loader.ShadowLayer {
		flip = mosaic.FlipNever
	}

	return mosaic.Request{
		SectorsX:     sx,
		SectorsY:     sy,
		Policy:       c.Layout.Policy,
		OrderHeights: c.Layout.OrderHeights,
		Rotation:     rot,
		TextureFlip:  flip,
		Blend: mosaic.BlendConfig{
			Enabled: c.Blend.Enabled,
			Overlap: c.Blend.Overlap,
			Mode:    c.Blend.Mode,
		},
		Workers: c.Workers,
	}, nil
}
