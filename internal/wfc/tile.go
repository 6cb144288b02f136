package wfc

// Tile is the capability set a tile variant type must provide to be placed by
// a Wave. Variants are compared and hashed with ==, so the type must be
// comparable with structural equality (an enum, a small struct, a string).
type Tile[T any] interface {
	comparable

	// Variants returns every variant of the type in a fixed order. It is
	// called on the zero value and must not depend on the receiver.
	Variants() []T

	// Glyph returns the single character used when rendering the variant.
	Glyph() rune
}

// Direction represents a neighbor direction in the grid
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection converts a direction name back into a Direction.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range AllDirections() {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// Offset returns the x/y step taken when moving one cell in the direction.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// AllDirections returns all four directions in iteration order.
// Every loop over directions in this package uses this order.
func AllDirections() []Direction {
	return []Direction{Up, Down, Left, Right}
}

// Cell is the state of one grid position.
type Cell[T any] struct {
	Tile      T    // The assigned variant (zero value until collapsed)
	Collapsed bool // Whether a variant has been assigned
	Entropy   int  // Candidate count; 0 once collapsed
}

// variantsOf returns the enumeration of T.
func variantsOf[T Tile[T]]() []T {
	var zero T
	return zero.Variants()
}
