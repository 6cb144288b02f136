package maze

import "github.com/lawnchairsociety/mazewave/internal/wfc"

// Connects returns true if b may sit next to a in direction dir: either both
// facing sides are open, or both are closed.
func Connects(a, b Tile, dir wfc.Direction) bool {
	return a.Opens(dir) == b.Opens(dir.Opposite())
}

// DefaultRules returns the adjacency rules for the maze tiles. Every pair of
// tiles whose facing sides agree is allowed in that direction, which makes
// the table symmetric: (a, b, d) is present exactly when (b, a, opposite d) is.
func DefaultRules() *wfc.RuleSet[Tile] {
	rs := wfc.NewRuleSet[Tile]()
	for _, a := range allTiles {
		for _, b := range allTiles {
			for _, dir := range wfc.AllDirections() {
				if Connects(a, b, dir) {
					rs.Add(wfc.Rule[Tile]{Tile: a, Neighbor: b, Dir: dir})
				}
			}
		}
	}
	return rs
}

// NewWave creates a maze wave using the default rules
func NewWave(width, height int) (*wfc.Wave[Tile], error) {
	return wfc.New(width, height, DefaultRules())
}
