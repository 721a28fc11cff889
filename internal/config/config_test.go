package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Faultbox/terramosaic/internal/loader"
	"github.com/Faultbox/terramosaic/pkg/layout"
	"github.com/Faultbox/terramosaic/pkg/measure"
	"github.com/Faultbox/terramosaic/pkg/mosaic"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Layout defaults
	if cfg.Layout.Policy != layout.GameBlocksVertical {
		t.Errorf("expected policy game-blocks-vertical, got %v", cfg.Layout.Policy)
	}
	if cfg.Layout.AtlasPattern != layout.PatternStandard {
		t.Errorf("expected atlas pattern standard, got %v", cfg.Layout.AtlasPattern)
	}
	if cfg.Layout.Rotation != 270 {
		t.Errorf("expected rotation 270, got %d", cfg.Layout.Rotation)
	}
	if cfg.Layout.OrderHeights {
		t.Error("expected order_heights to be false by default")
	}

	// Blend defaults
	if cfg.Blend.Enabled {
		t.Error("expected blending to be disabled by default")
	}
	if cfg.Blend.Overlap != 2 {
		t.Errorf("expected overlap 2, got %d", cfg.Blend.Overlap)
	}
	if cfg.Blend.Mode != mosaic.BlendSmoothstep {
		t.Errorf("expected smoothstep blending, got %v", cfg.Blend.Mode)
	}

	// Export and measure defaults
	if cfg.Export.HeightFormat != HeightGray16 {
		t.Errorf("expected gray16 height format, got %s", cfg.Export.HeightFormat)
	}
	if cfg.Measure.Units != measure.Metric {
		t.Errorf("expected metric units, got %v", cfg.Measure.Units)
	}
	if cfg.Measure.MetersPerCoordinate != 1.0 {
		t.Errorf("expected 1 m per coordinate, got %f", cfg.Measure.MetersPerCoordinate)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
input:
  dir: "/data/world01"
  texture_layer: "color"

layout:
  sectors_x: 12
  sectors_y: 8
  policy: "Top-Left Sequential"
  order_heights: true
  atlas_pattern: "Flipped V"
  rotation: 90

blend:
  enabled: true
  overlap: 6
  mode: "Gaussian"

export:
  height_format: "raw"
  compress_raw: true
  brightness: 1.4

measure:
  meters_per_coordinate: 2.5
  units: "both"

logging:
  level: "debug"
  log_file: "terraintool.log"

workers: 3
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Input.Dir != "/data/world01" {
		t.Errorf("expected dir /data/world01, got %s", cfg.Input.Dir)
	}
	if cfg.Input.TextureLayer != "color" {
		t.Errorf("expected color layer, got %s", cfg.Input.TextureLayer)
	}
	if cfg.Layout.SectorsX != 12 || cfg.Layout.SectorsY != 8 {
		t.Errorf("expected 12x8 grid, got %dx%d", cfg.Layout.SectorsX, cfg.Layout.SectorsY)
	}
	if cfg.Layout.Policy != layout.TopLeftSequential {
		t.Errorf("expected top-left-sequential, got %v", cfg.Layout.Policy)
	}
	if !cfg.Layout.OrderHeights {
		t.Error("expected order_heights to be true")
	}
	if cfg.Layout.Rotation != 90 {
		t.Errorf("expected rotation 90, got %d", cfg.Layout.Rotation)
	}
	if cfg.Layout.AtlasPattern != layout.PatternFlippedV {
		t.Errorf("expected flipped-v atlas pattern, got %v", cfg.Layout.AtlasPattern)
	}
	if !cfg.Blend.Enabled || cfg.Blend.Overlap != 6 {
		t.Errorf("expected blend enabled with overlap 6, got %+v", cfg.Blend)
	}
	if cfg.Blend.Mode != mosaic.BlendSmootherstep {
		t.Errorf("expected smootherstep, got %v", cfg.Blend.Mode)
	}
	if cfg.Export.HeightFormat != HeightRaw || !cfg.Export.CompressRaw {
		t.Errorf("expected compressed raw export, got %+v", cfg.Export)
	}
	if cfg.Measure.Units != measure.Both {
		t.Errorf("expected both units, got %v", cfg.Measure.Units)
	}
	if cfg.Measure.MetersPerCoordinate != 2.5 {
		t.Errorf("expected 2.5 m per coordinate, got %f", cfg.Measure.MetersPerCoordinate)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Workers)
	}
}

func TestLoadFromFileUnknownPolicyFallsBack(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	if err := os.WriteFile(configPath, []byte("layout:\n  policy: spiral\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("unknown policy should not fail loading: %v", err)
	}
	if cfg.Layout.Policy != layout.PolicyUnknown {
		t.Errorf("expected PolicyUnknown, got %v", cfg.Layout.Policy)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
layout:
  sectors_x: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/terraintool.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "grid and policy",
			args: []string{"-x", "6", "-y", "4", "-policy", "bottom-left-by-column", "-order-heights"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Layout.SectorsX != 6 || cfg.Layout.SectorsY != 4 {
					t.Errorf("expected 6x4, got %dx%d", cfg.Layout.SectorsX, cfg.Layout.SectorsY)
				}
				if cfg.Layout.Policy != layout.BottomLeftByColumn {
					t.Errorf("expected bottom-left-by-column, got %v", cfg.Layout.Policy)
				}
				if !cfg.Layout.OrderHeights {
					t.Error("expected order_heights to be enabled")
				}
			},
		},
		{
			name: "explicit zero rotation",
			args: []string{"-rotate", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Layout.Rotation != 0 {
					t.Errorf("expected rotation 0, got %d", cfg.Layout.Rotation)
				}
			},
		},
		{
			name: "blend flags",
			args: []string{"-blend", "-overlap", "8", "-blend-mode", "linear"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Blend.Enabled || cfg.Blend.Overlap != 8 || cfg.Blend.Mode != mosaic.BlendLinear {
					t.Errorf("unexpected blend config %+v", cfg.Blend)
				}
			},
		},
		{
			name: "unset flags keep defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Layout.Rotation != 270 {
					t.Errorf("expected default rotation 270, got %d", cfg.Layout.Rotation)
				}
				if cfg.Blend.Overlap != 2 {
					t.Errorf("expected default overlap 2, got %d", cfg.Blend.Overlap)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := newFlags(t, tt.args...).apply(cfg); err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestApplyFlagsRejectsUnknownNames(t *testing.T) {
	for _, args := range [][]string{
		{"-policy", "spiral"},
		{"-atlas-pattern", "zigzag"},
		{"-blend-mode", "cubic"},
		{"-units", "furlongs"},
	} {
		if err := newFlags(t, args...).apply(Default()); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
layout:
  sectors_x: 10
  sectors_y: 5
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(newFlags(t, "-config", configPath, "-x", "16"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// SectorsX should be from flag (16), not file (10)
	if cfg.Layout.SectorsX != 16 {
		t.Errorf("expected sectors_x 16 from flag, got %d", cfg.Layout.SectorsX)
	}

	// SectorsY should be from file (5) since no flag override
	if cfg.Layout.SectorsY != 5 {
		t.Errorf("expected sectors_y 5 from file, got %d", cfg.Layout.SectorsY)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	if err := os.WriteFile(configPath, []byte("export:\n  height_format: jpeg\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(newFlags(t, "-config", configPath)); err == nil {
		t.Error("expected validation error for unknown height format")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rotation", func(c *Config) { c.Layout.Rotation = 45 }},
		{"flip", func(c *Config) { c.Layout.TextureFlip = "sideways" }},
		{"negative grid", func(c *Config) { c.Layout.SectorsX = -1 }},
		{"brightness", func(c *Config) { c.Export.Brightness = 0 }},
		{"scale", func(c *Config) { c.Measure.MetersPerCoordinate = -2 }},
		{"workers", func(c *Config) { c.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRequest(t *testing.T) {
	cfg := Default()
	cfg.Blend.Enabled = true
	cfg.Blend.Overlap = 4

	req, err := cfg.Request(8, 6)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if req.SectorsX != 8 || req.SectorsY != 6 {
		t.Errorf("expected 8x6, got %dx%d", req.SectorsX, req.SectorsY)
	}
	if req.Rotation != mosaic.Rotate90CCW {
		t.Errorf("expected 90 CCW rotation, got %d", req.Rotation)
	}
	if req.TextureFlip != mosaic.FlipAuto {
		t.Errorf("expected auto flip, got %v", req.TextureFlip)
	}
	if !req.Blend.Enabled || req.Blend.Overlap != 4 {
		t.Errorf("unexpected blend %+v", req.Blend)
	}

	cfg.Input.TextureLayer = loader.ShadowLayer
	req, err = cfg.Request(1, 1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if req.TextureFlip != mosaic.FlipNever {
		t.Errorf("expected shadow layer to disable flipping, got %v", req.TextureFlip)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Layout.Policy = layout.GameBlocksSwap03
	cfg.Blend.Mode = mosaic.BlendLinear
	cfg.Measure.Units = measure.Imperial

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Layout.Policy != layout.GameBlocksSwap03 {
		t.Errorf("expected policy to survive save, got %v", loaded.Layout.Policy)
	}
	if loaded.Blend.Mode != mosaic.BlendLinear {
		t.Errorf("expected blend mode to survive save, got %v", loaded.Blend.Mode)
	}
	if loaded.Measure.Units != measure.Imperial {
		t.Errorf("expected units to survive save, got %v", loaded.Measure.Units)
	}
}

func TestSave(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config dir ignores XDG_CONFIG_HOME on this OS")
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	cfg := Default()
	cfg.Workers = 3
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := filepath.Join(tmpDir, "xdg", "terramosaic", FileName)
	if path := findConfigFile(); path != want {
		t.Fatalf("expected saved config at %s, found %q", want, path)
	}

	loaded, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Workers != 3 {
		t.Errorf("expected workers 3 from saved config, got %d", loaded.Workers)
	}
}
