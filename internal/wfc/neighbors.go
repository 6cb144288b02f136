package wfc

// slot is one side of a cell's neighborhood. A slot outside the grid is not
// available; an available slot may still be unassigned.
type slot[T any] struct {
	dir       Direction
	available bool
	assigned  bool
	tile      T
	x, y      int
}

// neighborhood holds the four slots of a cell in AllDirections order
type neighborhood[T any] [4]slot[T]

// informative returns true if at least one neighbor has been assigned
func (h neighborhood[T]) informative() bool {
	for _, s := range h {
		if s.available && s.assigned {
			return true
		}
	}
	return false
}

// neighborhood returns the slots around (x, y)
func (w *Wave[T]) neighborhood(x, y int) neighborhood[T] {
	var hood neighborhood[T]
	for i, dir := range AllDirections() {
		hood[i].dir = dir

		dx, dy := dir.Offset()
		nx, ny := x+dx, y+dy
		if !w.inBounds(nx, ny) {
			continue
		}

		cell := w.grid[ny][nx]
		hood[i].available = true
		hood[i].assigned = cell.Collapsed
		hood[i].tile = cell.Tile
		hood[i].x, hood[i].y = nx, ny
	}
	return hood
}
