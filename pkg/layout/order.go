// Package layout maps mosaic display cells to sector indices and atlas
// sub-tiles to quadrants.
package layout

import (
	"fmt"
	"strings"
)

// Policy selects how display cells map to sector indices.
type Policy int

// Ordering policies.
const (
	// PolicyUnknown marks an unrecognised policy name. It resolves like
	// BottomLeftSequential.
	PolicyUnknown Policy = iota

	BottomLeftSequential  // sector 0 bottom-left, fills right then up
	TopLeftSequential     // sector 0 top-left, fills right then down
	BottomRightSequential // sector 0 bottom-right, fills left then up
	TopRightSequential    // sector 0 top-right, fills left then down
	BottomLeftByColumn    // sector 0 bottom-left, fills up then right
	TopLeftByColumn       // sector 0 top-left, fills down then right

	// Game layouts group four consecutive sectors into 2x2 atlas blocks.
	GameBlocksVertical   // blocks run down then across, slots 1 and 2 swapped
	GameBlocksHorizontal // blocks run across then down, slots 1 and 2 swapped
	GameBlocksNoSwap     // blocks run down then across, slots in atlas order
	GameBlocksSwap03     // blocks run down then across, slots 0 and 3 swapped
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = BottomLeftSequential

type policyInfo struct {
	name   string
	label  string // display name shown by viewer tools
	origin string
}

var policyTable = map[Policy]policyInfo{
	BottomLeftSequential:  {"bottom-left-sequential", "Bottom-Left Sequential", "Bottom-Left (right then up)"},
	TopLeftSequential:     {"top-left-sequential", "Top-Left Sequential", "Top-Left (right then down)"},
	BottomRightSequential: {"bottom-right-sequential", "Bottom-Right Sequential", "Bottom-Right (left then up)"},
	TopRightSequential:    {"top-right-sequential", "Top-Right Sequential", "Top-Right (left then down)"},
	BottomLeftByColumn:    {"bottom-left-by-column", "Bottom-Left by Column", "Bottom-Left (up then right)"},
	TopLeftByColumn:       {"top-left-by-column", "Top-Left by Column", "Top-Left (down then right)"},
	GameBlocksVertical:    {"game-blocks-vertical", "Avatar Game Layout (2x2 blocks, vertical)", "Top-Left (2x2 blocks down, swap 1-2)"},
	GameBlocksHorizontal:  {"game-blocks-horizontal", "Avatar Game Layout - Horizontal", "Top-Left (2x2 blocks across, swap 1-2)"},
	GameBlocksNoSwap:      {"game-blocks-no-swap", "Avatar Game Layout - No Swap", "Top-Left (2x2 blocks down, no swap)"},
	GameBlocksSwap03:      {"game-blocks-swap-0-3", "Avatar Game Layout - Swap 0↔3", "Top-Left (2x2 blocks down, swap 0-3)"},
}

// Policies returns every named policy in declaration order.
func Policies() []Policy {
	return []Policy{
		BottomLeftSequential,
		TopLeftSequential,
		BottomRightSequential,
		TopRightSequential,
		BottomLeftByColumn,
		TopLeftByColumn,
		GameBlocksVertical,
		GameBlocksHorizontal,
		GameBlocksNoSwap,
		GameBlocksSwap03,
	}
}

// String returns the canonical policy name.
func (p Policy) String() string {
	if info, ok := policyTable[p]; ok {
		return info.name
	}
	if p == PolicyUnknown {
		return "unknown"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Origin describes where sector 0 sits and how numbering proceeds.
func (p Policy) Origin() string {
	return policyTable[p.effective()].origin
}

// IsBlockLayout reports whether p groups sectors into 2x2 atlas blocks.
func (p Policy) IsBlockLayout() bool {
	switch p {
	case GameBlocksVertical, GameBlocksHorizontal, GameBlocksNoSwap, GameBlocksSwap03:
		return true
	}
	return false
}

// effective maps unknown values to the fallback policy.
func (p Policy) effective() Policy {
	if _, ok := policyTable[p]; ok {
		return p
	}
	return DefaultPolicy
}

// ParsePolicy looks up a policy by canonical name or viewer label,
// ignoring case. Unknown names yield PolicyUnknown and ok=false.
func ParsePolicy(name string) (p Policy, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, candidate := range Policies() {
		info := policyTable[candidate]
		if key == info.name || key == strings.ToLower(info.label) {
			return candidate, true
		}
	}
	return PolicyUnknown, false
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown names are kept as PolicyUnknown rather than rejected.
func (p *Policy) UnmarshalText(text []byte) error {
	*p, _ = ParsePolicy(string(text))
	return nil
}

// Block slot offsets indexed by position within a 2x2 block:
// [0]=top-left, [1]=top-right, [2]=bottom-left, [3]=bottom-right.
var (
	slotsIdentity = [4]int{0, 1, 2, 3}
	slotsSwap12   = [4]int{0, 2, 1, 3}
	slotsSwap03   = [4]int{3, 1, 2, 0}
)

// Resolve returns the sector index shown at a display cell.
// displayRow 0 is the top row of the output. Unknown policies resolve like
// BottomLeftSequential.
func Resolve(displayRow, col, sectorsX, sectorsY int, p Policy) int {
	switch p.effective() {
	case TopLeftSequential:
		return displayRow*sectorsX + col
	case BottomRightSequential:
		return (sectorsY-1-displayRow)*sectorsX + (sectorsX - 1 - col)
	case TopRightSequential:
		return displayRow*sectorsX + (sectorsX - 1 - col)
	case BottomLeftByColumn:
		return col*sectorsY + (sectorsY - 1 - displayRow)
	case TopLeftByColumn:
		return col*sectorsY + displayRow
	case GameBlocksVertical:
		return resolveBlock(displayRow, col, sectorsX, sectorsY, true, slotsSwap12)
	case GameBlocksHorizontal:
		return resolveBlock(displayRow, col, sectorsX, sectorsY, false, slotsSwap12)
	case GameBlocksNoSwap:
		return resolveBlock(displayRow, col, sectorsX, sectorsY, true, slotsIdentity)
	case GameBlocksSwap03:
		return resolveBlock(displayRow, col, sectorsX, sectorsY, true, slotsSwap03)
	default:
		return (sectorsY-1-displayRow)*sectorsX + col
	}
}

// resolveBlock resolves a cell under a 2x2 block layout. Blocks are
// enumerated column-major (down first) when vertical is set, row-major
// otherwise.
func resolveBlock(displayRow, col, sectorsX, sectorsY int, vertical bool, slots [4]int) int {
	blockRow, blockCol := displayRow/2, col/2

	var block int
	if vertical {
		block = blockCol*(sectorsY/2) + blockRow
	} else {
		block = blockRow*(sectorsX/2) + blockCol
	}

	slot := (displayRow%2)*2 + col%2
	return block*4 + slots[slot]
}

// Locate returns the display cell that shows sector index under p.
// ok is false when no cell of the grid maps to index.
func Locate(index, sectorsX, sectorsY int, p Policy) (displayRow, col int, ok bool) {
	if index < 0 || sectorsX <= 0 || sectorsY <= 0 {
		return 0, 0, false
	}

	switch p.effective() {
	case BottomLeftSequential:
		if index >= sectorsX*sectorsY {
			return 0, 0, false
		}
		return sectorsY - 1 - index/sectorsX, index % sectorsX, true
	case TopLeftSequential:
		if index >= sectorsX*sectorsY {
			return 0, 0, false
		}
		return index / sectorsX, index % sectorsX, true
	}

	for r := 0; r < sectorsY; r++ {
		for c := 0; c < sectorsX; c++ {
			if Resolve(r, c, sectorsX, sectorsY, p) == index {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}
