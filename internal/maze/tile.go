// Package maze provides the box-drawing pipe tiles placed by the wave engine
// and the adjacency rules that keep their passages joined up.
package maze

import "github.com/lawnchairsociety/mazewave/internal/wfc"

// Tile represents a maze tile variant
type Tile int

const (
	TShaped           Tile = iota // ╦
	TShapedLeft                   // ╣
	TShapedRight                  // ╠
	TShapedUpsideDown             // ╩
	TopRightCorner                // ╗
	TopLeftCorner                 // ╔
	BottomLeftCorner              // ╚
	BottomRightCorner             // ╝
	HorizontalLine                // ═
	VerticalLine                  // ║
	CenterCross                   // ╬
	Empty                         // blank
)

var allTiles = []Tile{
	TShaped, TShapedLeft, TShapedRight, TShapedUpsideDown,
	TopRightCorner, TopLeftCorner, BottomLeftCorner, BottomRightCorner,
	HorizontalLine, VerticalLine, CenterCross, Empty,
}

// tileInfo describes how a tile is drawn and which sides it opens to
type tileInfo struct {
	name  string
	glyph rune
	opens [4]bool // indexed by wfc.Direction: up, down, left, right
}

var tileTable = map[Tile]tileInfo{
	TShaped:           {"t_shaped", '╦', [4]bool{false, true, true, true}},
	TShapedLeft:       {"t_shaped_left", '╣', [4]bool{true, true, true, false}},
	TShapedRight:      {"t_shaped_right", '╠', [4]bool{true, true, false, true}},
	TShapedUpsideDown: {"t_shaped_upside_down", '╩', [4]bool{true, false, true, true}},
	TopRightCorner:    {"top_right_corner", '╗', [4]bool{false, true, true, false}},
	TopLeftCorner:     {"top_left_corner", '╔', [4]bool{false, true, false, true}},
	BottomLeftCorner:  {"bottom_left_corner", '╚', [4]bool{true, false, false, true}},
	BottomRightCorner: {"bottom_right_corner", '╝', [4]bool{true, false, true, false}},
	HorizontalLine:    {"horizontal_line", '═', [4]bool{false, false, true, true}},
	VerticalLine:      {"vertical_line", '║', [4]bool{true, true, false, false}},
	CenterCross:       {"center_cross", '╬', [4]bool{true, true, true, true}},
	Empty:             {"empty", ' ', [4]bool{}},
}

// Variants returns every maze tile in enumeration order
func (Tile) Variants() []Tile {
	return append([]Tile(nil), allTiles...)
}

// Glyph returns the box-drawing character for the tile
func (t Tile) Glyph() rune {
	if info, ok := tileTable[t]; ok {
		return info.glyph
	}
	return '?'
}

// String returns the string representation of a Tile
func (t Tile) String() string {
	if info, ok := tileTable[t]; ok {
		return info.name
	}
	return "unknown"
}

// Opens returns true if the tile has a passage toward dir
func (t Tile) Opens(dir wfc.Direction) bool {
	info, ok := tileTable[t]
	if !ok || dir < wfc.Up || dir > wfc.Right {
		return false
	}
	return info.opens[dir]
}

// Openings returns how many sides of the tile are open
func (t Tile) Openings() int {
	count := 0
	for _, dir := range wfc.AllDirections() {
		if t.Opens(dir) {
			count++
		}
	}
	return count
}

// ParseTile converts a tile name back into a Tile
func ParseTile(name string) (Tile, bool) {
	for _, t := range allTiles {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}
