// Package measure converts mosaic coordinates into real-world distances and
// areas.
package measure

import (
	"fmt"
	"math"
	"strings"
)

// Conversion factors.
const (
	FeetPerMeter    = 3.28084
	FeetPerMile     = 5280
	MilesPerMeter   = 0.000621371
	SqMilesPerSqKm  = 0.386102
	MetersPerKm     = 1000
	SqMetersPerSqKm = 1_000_000
)

// DefaultMetersPerCoord is the scale used when none is configured.
const DefaultMetersPerCoord = 1.0

// Units selects the unit system used when formatting.
type Units int

// Unit systems.
const (
	Metric Units = iota
	Imperial
	Both
)

// String returns the unit system name.
func (u Units) String() string {
	switch u {
	case Metric:
		return "metric"
	case Imperial:
		return "imperial"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("Units(%d)", int(u))
	}
}

// ParseUnits parses "metric", "imperial" or "both", ignoring case.
func ParseUnits(name string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "metric", "":
		return Metric, nil
	case "imperial":
		return Imperial, nil
	case "both":
		return Both, nil
	default:
		return 0, fmt.Errorf("unknown unit system %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Units) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Units) UnmarshalText(text []byte) error {
	parsed, err := ParseUnits(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Point is a position in mosaic coordinates.
type Point struct {
	X, Y float64
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{p.X - other.X, p.Y - other.Y}
}

// Length returns the distance from the origin.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the distance to another point in coordinates.
func (p Point) Distance(other Point) float64 {
	return p.Sub(other).Length()
}

// Size is the real-world extent of a mosaic.
type Size struct {
	WidthCoords  int
	HeightCoords int

	Width    float64 // meters
	Height   float64 // meters
	Diagonal float64 // meters
	AreaKm2  float64
}

// MapSize computes the extent of an sx by sy sector mosaic.
func MapSize(sx, sy, gridDim int, metersPerCoord float64) Size {
	w := sx * gridDim
	h := sy * gridDim

	s := Size{
		WidthCoords:  w,
		HeightCoords: h,
		Width:        float64(w) * metersPerCoord,
		Height:       float64(h) * metersPerCoord,
	}
	s.Diagonal = math.Hypot(s.Width, s.Height)
	s.AreaKm2 = s.Width * s.Height / SqMetersPerSqKm
	return s
}

// AreaSqMiles returns the area in square miles.
func (s Size) AreaSqMiles() float64 {
	return s.AreaKm2 * SqMilesPerSqKm
}

// Format renders the size in one line.
func (s Size) Format(u Units) string {
	return fmt.Sprintf("%s × %s (diagonal: %s) | Area: %s | Resolution: %d×%d coordinates",
		FormatDistance(s.Width, u),
		FormatDistance(s.Height, u),
		FormatDistance(s.Diagonal, u),
		FormatArea(s.AreaKm2, u),
		s.WidthCoords, s.HeightCoords)
}

// FormatDistance renders a distance given in meters.
func FormatDistance(meters float64, u Units) string {
	switch u {
	case Imperial:
		feet := meters * FeetPerMeter
		if miles := feet / FeetPerMile; miles >= 1 {
			return fmt.Sprintf("%.2f miles", miles)
		}
		return fmt.Sprintf("%.2f ft", feet)
	case Both:
		if meters >= MetersPerKm {
			return fmt.Sprintf("%.2f km / %.2f miles", meters/MetersPerKm, meters*MilesPerMeter)
		}
		return fmt.Sprintf("%.2f m / %.2f ft", meters, meters*FeetPerMeter)
	default:
		if meters >= MetersPerKm {
			return fmt.Sprintf("%.2f km", meters/MetersPerKm)
		}
		return fmt.Sprintf("%.2f m", meters)
	}
}

// FormatArea renders an area given in square kilometers.
func FormatArea(km2 float64, u Units) string {
	mi2 := km2 * SqMilesPerSqKm
	switch u {
	case Imperial:
		return fmt.Sprintf("%.2f mi²", mi2)
	case Both:
		return fmt.Sprintf("%.2f km² / %.2f mi²", km2, mi2)
	default:
		return fmt.Sprintf("%.2f km²", km2)
	}
}
