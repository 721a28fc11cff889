package mosaic

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Faultbox/terramosaic/pkg/formats"
	"github.com/Faultbox/terramosaic/pkg/layout"
)

// Request errors.
var (
	ErrInvalidGrid        = errors.New("invalid sector grid")
	ErrInvalidOverlap     = errors.New("invalid seam overlap")
	ErrInvalidRotation    = errors.New("invalid rotation")
	ErrDimensionMismatch  = errors.New("sector dimension mismatch")
	ErrUnknownBlendMode   = errors.New("unknown blend mode")
	ErrUnknownFlipSetting = errors.New("unknown texture flip setting")
)

// Rotation is a clockwise texture rotation in degrees.
type Rotation int

// Supported rotations.
const (
	Rotate0     Rotation = 0
	Rotate90CW  Rotation = 90
	Rotate180   Rotation = 180
	Rotate90CCW Rotation = 270
)

// ParseRotation converts degrees to a Rotation. Negative values count
// counter-clockwise.
func ParseRotation(degrees int) (Rotation, error) {
	switch r := Rotation(((degrees % 360) + 360) % 360); r {
	case Rotate0, Rotate90CW, Rotate180, Rotate90CCW:
		return r, nil
	default:
		return 0, fmt.Errorf("%w: %d degrees", ErrInvalidRotation, degrees)
	}
}

// BlendMode selects the ramp used to feather sector edges.
type BlendMode int

// Blend ramps.
const (
	BlendLinear       BlendMode = iota // t
	BlendSmoothstep                    // t²(3-2t)
	BlendSmootherstep                  // t³(t(6t-15)+10)
)

// String returns the canonical blend mode name.
func (m BlendMode) String() string {
	switch m {
	case BlendLinear:
		return "linear"
	case BlendSmoothstep:
		return "smoothstep"
	case BlendSmootherstep:
		return "smootherstep"
	default:
		return fmt.Sprintf("BlendMode(%d)", int(m))
	}
}

// ParseBlendMode accepts canonical names and the viewer labels
// "Linear", "Smooth Feather" and "Gaussian".
func ParseBlendMode(name string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return BlendLinear, nil
	case "smoothstep", "smooth feather", "smooth":
		return BlendSmoothstep, nil
	case "smootherstep", "gaussian":
		return BlendSmootherstep, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBlendMode, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	mode, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ramp maps t in (0,1] to a weight in (0,1].
func (m BlendMode) ramp(t float64) float64 {
	switch m {
	case BlendSmoothstep:
		return t * t * (3 - 2*t)
	case BlendSmootherstep:
		return t * t * t * (t*(t*6-15) + 10)
	default:
		return t
	}
}

// FlipMode controls vertical flipping of texture tiles.
type FlipMode int

// Texture flip settings.
const (
	// FlipAuto flips every tile except under GameBlocksVertical, whose
	// textures are stored in display orientation.
	FlipAuto FlipMode = iota
	FlipAlways
	FlipNever
)

// String returns the flip setting name.
func (f FlipMode) String() string {
	switch f {
	case FlipAuto:
		return "auto"
	case FlipAlways:
		return "always"
	case FlipNever:
		return "never"
	default:
		return fmt.Sprintf("FlipMode(%d)", int(f))
	}
}

// ParseFlipMode parses "auto", "always" or "never".
func ParseFlipMode(name string) (FlipMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FlipAuto, nil
	case "always":
		return FlipAlways, nil
	case "never":
		return FlipNever, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFlipSetting, name)
	}
}

// BlendConfig enables seam blending.
type BlendConfig struct {
	Enabled bool
	Overlap int // pixels shared by adjacent sectors
	Mode    BlendMode
}

// Request describes one composite.
type Request struct {
	SectorsX int
	SectorsY int

	// GridDim is the sector dimension; zero means formats.GridDim.
	GridDim int

	Policy layout.Policy

	// OrderHeights places heights with Policy instead of
	// bottom-left-sequential.
	OrderHeights bool

	// Rotation applies to the texture mosaic only.
	Rotation Rotation

	TextureFlip FlipMode

	Blend BlendConfig

	// Workers bounds parallelism; zero means GOMAXPROCS.
	Workers int
}

// normalized returns a copy of r with defaults filled in.
func (r Request) normalized() Request {
	if r.GridDim == 0 {
		r.GridDim = formats.GridDim
	}
	if r.Workers <= 0 {
		r.Workers = runtime.GOMAXPROCS(0)
	}
	if rot, err := ParseRotation(int(r.Rotation)); err == nil {
		r.Rotation = rot
	}
	return r
}

// Validate checks the request for structural errors.
func (r Request) Validate() error {
	r = r.normalized()

	if r.SectorsX < 1 || r.SectorsY < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, r.SectorsX, r.SectorsY)
	}
	if r.GridDim < 1 {
		return fmt.Errorf("%w: grid dimension %d", ErrInvalidGrid, r.GridDim)
	}
	if _, err := ParseRotation(int(r.Rotation)); err != nil {
		return err
	}
	if r.Blend.Enabled && (r.Blend.Overlap < 1 || r.Blend.Overlap >= r.GridDim) {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidOverlap, r.Blend.Overlap, r.GridDim-1)
	}
	return nil
}

// heightIndex resolves the sector placed at a display cell of the height
// mosaic.
func (r Request) heightIndex(row, col int) int {
	return layout.Resolve(row, col, r.SectorsX, r.SectorsY, r.heightPolicy())
}

// heightPolicy is the policy that places height grids.
func (r Request) heightPolicy() layout.Policy {
	if r.OrderHeights {
		return r.Policy
	}
	return layout.BottomLeftSequential
}

// LocateHeight returns the display cell whose height grid and water
// footprint come from sector index. ok is false when no cell shows it.
func (r Request) LocateHeight(index int) (displayRow, col int, ok bool) {
	return layout.Locate(index, r.SectorsX, r.SectorsY, r.heightPolicy())
}

// textureIndex resolves the sector placed at a display cell of the texture
// mosaic.
func (r Request) textureIndex(row, col int) int {
	return layout.Resolve(row, col, r.SectorsX, r.SectorsY, r.Policy)
}

// flipHeights reports whether height grids are flipped vertically when
// placed. Only the vertical game layout with height ordering stores
// heights in display orientation.
func (r Request) flipHeights() bool {
	return !(r.OrderHeights && r.Policy == layout.GameBlocksVertical)
}

// flipTextures reports whether texture tiles are flipped vertically.
func (r Request) flipTextures() bool {
	switch r.TextureFlip {
	case FlipAlways:
		return true
	case FlipNever:
		return false
	default:
		return r.Policy != layout.GameBlocksVertical
	}
}

// stride is the distance between the origins of adjacent sectors.
func (r Request) stride() int {
	if r.Blend.Enabled {
		return r.GridDim - r.Blend.Overlap
	}
	return r.GridDim
}

// outputSize returns the width and height of the unrotated mosaics.
func (r Request) outputSize() (w, h int) {
	s := r.stride()
	w = r.SectorsX * s
	h = r.SectorsY * s
	if r.Blend.Enabled {
		w += r.Blend.Overlap
		h += r.Blend.Overlap
	}
	return w, h
}
