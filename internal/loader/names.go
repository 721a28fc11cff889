package loader

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// SectorExt is the extension of sector records.
const SectorExt = ".csdat"

// MaxSuggestedSide is the largest grid side SuggestGrid proposes.
const MaxSuggestedSide = 100

// textureExts lists texture extensions in lookup priority.
var textureExts = []string{".xbt", ".dds", ".png", ".tga"}

func extPriority(ext string) int {
	for i, e := range textureExts {
		if e == ext {
			return i
		}
	}
	return -1
}

// parseIndex parses a non-negative decimal sector or atlas number.
func parseIndex(s string) (int, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseSectorName extracts the sector index from a name like "sd12.csdat".
func ParseSectorName(name string) (int, bool) {
	if !strings.HasPrefix(name, "sd") || !strings.HasSuffix(name, SectorExt) {
		return 0, false
	}
	return parseIndex(name[2 : len(name)-len(SectorExt)])
}

// ParseAtlasName extracts the atlas number from a name like
// "atlas12_color.png" when its layer matches.
func ParseAtlasName(name, layer string) (num int, ext string, ok bool) {
	ext = strings.ToLower(filepath.Ext(name))
	if extPriority(ext) < 0 || !strings.HasPrefix(name, "atlas") {
		return 0, "", false
	}

	stem := strings.TrimSuffix(name[len("atlas"):], filepath.Ext(name))
	numPart, layerPart, found := strings.Cut(stem, "_")
	if !found || layerPart != layer {
		return 0, "", false
	}
	num, ok = parseIndex(numPart)
	return num, ext, ok
}

// ParseShadowName extracts the sector index from a per-sector shadow file
// such as "sd12_shadow.png" or "sd12.png". tagged reports the "_shadow"
// form, which wins over the bare form.
func ParseShadowName(name string) (index int, tagged, ok bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if extPriority(ext) < 0 || !strings.HasPrefix(name, "sd") {
		return 0, false, false
	}

	stem := strings.TrimSuffix(name[2:], filepath.Ext(name))
	if s, found := strings.CutSuffix(stem, "_shadow"); found {
		stem, tagged = s, true
	}
	index, ok = parseIndex(stem)
	return index, tagged, ok
}

// SuggestGrid proposes a near-square grid holding n sectors: a side of
// ceil(sqrt(n)) and enough rows for the rest. ok is false for n < 1 or
// when the side would exceed MaxSuggestedSide.
func SuggestGrid(n int) (sx, sy int, ok bool) {
	if n < 1 {
		return 0, 0, false
	}
	side := int(math.Ceil(math.Sqrt(float64(n))))
	if side > MaxSuggestedSide {
		return 0, 0, false
	}
	return side, (n + side - 1) / side, true
}
