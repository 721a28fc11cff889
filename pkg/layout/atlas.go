package layout

import (
	"fmt"
	"image"
	"strings"
)

// SubTilesPerAtlas is the number of sector textures packed into one atlas.
const SubTilesPerAtlas = 4

// Quadrant identifies one quarter of a 2x2 atlas image.
type Quadrant int

// Atlas quadrants.
const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

// String returns the short quadrant name.
func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "TL"
	case TopRight:
		return "TR"
	case BottomLeft:
		return "BL"
	case BottomRight:
		return "BR"
	default:
		return fmt.Sprintf("Quadrant(%d)", int(q))
	}
}

// Rect returns the quadrant's pixel rectangle in an image of height h and
// width w. Odd dimensions leave the extra row or column in the second half.
func (q Quadrant) Rect(h, w int) image.Rectangle {
	halfH, halfW := h/2, w/2
	switch q {
	case TopLeft:
		return image.Rect(0, 0, halfW, halfH)
	case TopRight:
		return image.Rect(halfW, 0, w, halfH)
	case BottomLeft:
		return image.Rect(0, halfH, halfW, h)
	case BottomRight:
		return image.Rect(halfW, halfH, w, h)
	default:
		return image.Rectangle{}
	}
}

// Pattern selects how sub-tile ids map to atlas quadrants.
type Pattern int

// Atlas arrangement patterns.
const (
	PatternStandard    Pattern = iota // 0=TL 1=TR 2=BL 3=BR
	PatternRotatedCW                  // 0=TR 1=BR 2=TL 3=BL
	PatternRotatedCCW                 // 0=BL 1=TL 2=BR 3=TR
	PatternRotated180                 // 0=BR 1=BL 2=TR 3=TL
	PatternFlippedH                   // 0=TR 1=TL 2=BR 3=BL
	PatternFlippedV                   // 0=BL 1=BR 2=TL 3=TR
	PatternByColumn                   // 0=TL 1=BL 2=TR 3=BR
	PatternByColumnRev                // 0=BL 1=TL 2=BR 3=TR
)

type patternInfo struct {
	name    string
	label   string
	mapping [SubTilesPerAtlas]Quadrant
}

var patternTable = map[Pattern]patternInfo{
	PatternStandard:    {"standard", "Standard", [4]Quadrant{TopLeft, TopRight, BottomLeft, BottomRight}},
	PatternRotatedCW:   {"rotated-cw", "Rotated CW", [4]Quadrant{TopRight, BottomRight, TopLeft, BottomLeft}},
	PatternRotatedCCW:  {"rotated-ccw", "Rotated CCW", [4]Quadrant{BottomLeft, TopLeft, BottomRight, TopRight}},
	PatternRotated180:  {"rotated-180", "Rotated 180°", [4]Quadrant{BottomRight, BottomLeft, TopRight, TopLeft}},
	PatternFlippedH:    {"flipped-h", "Flipped H", [4]Quadrant{TopRight, TopLeft, BottomRight, BottomLeft}},
	PatternFlippedV:    {"flipped-v", "Flipped V", [4]Quadrant{BottomLeft, BottomRight, TopLeft, TopRight}},
	PatternByColumn:    {"by-column", "By Column", [4]Quadrant{TopLeft, BottomLeft, TopRight, BottomRight}},
	PatternByColumnRev: {"by-column-rev", "By Column Rev", [4]Quadrant{BottomLeft, TopLeft, BottomRight, TopRight}},
}

// Patterns returns every atlas pattern in declaration order.
func Patterns() []Pattern {
	return []Pattern{
		PatternStandard,
		PatternRotatedCW,
		PatternRotatedCCW,
		PatternRotated180,
		PatternFlippedH,
		PatternFlippedV,
		PatternByColumn,
		PatternByColumnRev,
	}
}

func (p Pattern) info() patternInfo {
	if info, ok := patternTable[p]; ok {
		return info
	}
	return patternTable[PatternStandard]
}

// String returns the canonical pattern name.
func (p Pattern) String() string {
	if info, ok := patternTable[p]; ok {
		return info.name
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// Mapping returns the quadrant for each sub-tile id. Unknown patterns use
// the standard mapping.
func (p Pattern) Mapping() [SubTilesPerAtlas]Quadrant {
	return p.info().mapping
}

// ParsePattern looks up a pattern by canonical name or viewer label,
// ignoring case. Viewer labels may carry a bracketed mapping suffix such as
// "Standard [0=TL, 1=TR, 2=BL, 3=BR]". Unknown names fall back to
// PatternStandard with ok=false.
func ParsePattern(name string) (p Pattern, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if i := strings.Index(key, "["); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}
	for _, candidate := range Patterns() {
		info := patternTable[candidate]
		if key == info.name || key == strings.ToLower(info.label) {
			return candidate, true
		}
	}
	return PatternStandard, false
}

// MarshalText implements encoding.TextMarshaler.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.info().name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	*p, _ = ParsePattern(string(text))
	return nil
}

// SubTileQuadrant returns the quadrant holding sub-tile id under p.
// ok is false for ids outside 0..3.
func SubTileQuadrant(subTile int, p Pattern) (Quadrant, bool) {
	if subTile < 0 || subTile >= SubTilesPerAtlas {
		return 0, false
	}
	return p.Mapping()[subTile], true
}

// SubTileRect returns the pixel rectangle of sub-tile id in an atlas of
// height h and width w. Invalid ids yield an empty rectangle.
func SubTileRect(h, w, subTile int, p Pattern) image.Rectangle {
	q, ok := SubTileQuadrant(subTile, p)
	if !ok {
		return image.Rectangle{}
	}
	return q.Rect(h, w)
}

// AtlasSector returns the sector index stored in sub-tile of the atlas at
// position atlasIndex of the sorted atlas list.
func AtlasSector(atlasIndex, subTile int) int {
	return atlasIndex*SubTilesPerAtlas + subTile
}

// AtlasSlot is the inverse of AtlasSector.
func AtlasSlot(sector int) (atlasIndex, subTile int) {
	return sector / SubTilesPerAtlas, sector % SubTilesPerAtlas
}
