package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/Faultbox/terramosaic/pkg/encoding"
)

// Water record layout.
const (
	// WaterHeightOffset is the fixed offset of the float32 water height.
	WaterHeightOffset = 0xB0

	// MaterialPathLimit caps the material path when no NUL terminator follows it.
	MaterialPathLimit = 100
)

// waterMaterialMarkers are the known prefixes of a water material path,
// tried in order.
var waterMaterialMarkers = [][]byte{
	[]byte(`graphics\_materials\editor\water_`),
	[]byte(`graphics_materials\editor\water_`),
}

// WaterRecord describes the water plane stored in a sector record.
type WaterRecord struct {
	Sector   int
	Height   float32
	HasWater bool // Height != 0

	// MaterialPath is best-effort diagnostic data and never affects HasWater.
	MaterialPath string
	HasMaterial  bool

	// Byte offsets of the parsed fields; -1 when the field was not read.
	HeightOffset   int
	MaterialOffset int
}

// String returns a human-readable summary of the record.
func (w WaterRecord) String() string {
	if !w.HasWater {
		return fmt.Sprintf("Sector %d: No water", w.Sector)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sector %d: Water height %.2f", w.Sector, w.Height)
	if w.HeightOffset >= 0 {
		fmt.Fprintf(&sb, " @0x%X", w.HeightOffset)
	}
	if w.HasMaterial {
		fmt.Fprintf(&sb, ", material %s @0x%X", w.MaterialPath, w.MaterialOffset)
	}
	return sb.String()
}

// ParseWater extracts the water record of a sector.
//
// A buffer too short to hold the height field is treated as "no water"
// rather than an error. The material path is only searched for when the
// sector has water.
func ParseWater(sector int, data []byte) WaterRecord {
	rec := WaterRecord{
		Sector:         sector,
		HeightOffset:   -1,
		MaterialOffset: -1,
	}

	if len(data) < WaterHeightOffset+4 {
		return rec
	}

	bits := binary.LittleEndian.Uint32(data[WaterHeightOffset:])
	rec.Height = math.Float32frombits(bits)
	rec.HeightOffset = WaterHeightOffset
	rec.HasWater = rec.Height != 0

	if rec.HasWater {
		if offset, path, ok := findMaterialPath(data); ok {
			rec.MaterialPath = path
			rec.MaterialOffset = offset
			rec.HasMaterial = true
		}
	}

	return rec
}

// findMaterialPath locates the first known water material marker and
// returns the NUL-terminated string starting there.
func findMaterialPath(data []byte) (int, string, bool) {
	for _, marker := range waterMaterialMarkers {
		pos := bytes.Index(data, marker)
		if pos < 0 {
			continue
		}
		raw := encoding.CString(data[pos:], MaterialPathLimit)
		return pos, encoding.Latin1ToUTF8(raw), true
	}
	return -1, "", false
}
