package wfc

// Rand is the random source consumed by Collapse. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Step describes one successful cell assignment during Collapse.
type Step[T any] struct {
	X, Y      int
	Tile      T
	Collapsed int // Cells assigned so far, including this one
	Total     int
}

// Wave implements the Wave Function Collapse algorithm over a fixed grid.
//
// Cells are collapsed one at a time, always picking a cell with the lowest
// entropy (fewest candidate variants). After each assignment only the direct
// neighbors have their entropy recomputed. There is no backtracking: the
// first cell with no valid candidate ends the run.
type Wave[T Tile[T]] struct {
	width, height int
	grid          [][]Cell[T]
	variants      []T
	rules         *RuleSet[T]

	collapsed int
	failure   *CollapseError
	observer  func(Step[T])
}

// position is a grid coordinate
type position struct{ x, y int }

// New creates a wave of the given size. A nil rule set is treated as empty.
func New[T Tile[T]](width, height int, rules *RuleSet[T]) (*Wave[T], error) {
	if width <= 0 || height <= 0 {
		return nil, ErrZeroDimension
	}
	if rules == nil {
		rules = NewRuleSet[T]()
	}

	w := &Wave[T]{
		width:    width,
		height:   height,
		variants: variantsOf[T](),
		rules:    rules,
	}
	w.initializeGrid()
	return w, nil
}

// initializeGrid sets every cell to uncollapsed with full entropy
func (w *Wave[T]) initializeGrid() {
	w.grid = make([][]Cell[T], w.height)
	for y := 0; y < w.height; y++ {
		w.grid[y] = make([]Cell[T], w.width)
		for x := 0; x < w.width; x++ {
			w.grid[y][x] = Cell[T]{Entropy: len(w.variants)}
		}
	}
}

// Width returns the grid width
func (w *Wave[T]) Width() int { return w.width }

// Height returns the grid height
func (w *Wave[T]) Height() int { return w.height }

// Collapsed returns the number of assigned cells
func (w *Wave[T]) Collapsed() int { return w.collapsed }

// Done returns true once every cell has been assigned
func (w *Wave[T]) Done() bool { return w.collapsed == w.width*w.height }

// Rules returns the live rule set used by the wave
func (w *Wave[T]) Rules() *RuleSet[T] { return w.rules }

// AddRule inserts an adjacency rule. Only meaningful before Collapse.
func (w *Wave[T]) AddRule(r Rule[T]) {
	w.rules.Add(r)
}

// RemoveRule deletes an adjacency rule. Only meaningful before Collapse.
func (w *Wave[T]) RemoveRule(r Rule[T]) {
	w.rules.Remove(r)
}

// Observe registers a callback invoked after every successful assignment.
func (w *Wave[T]) Observe(fn func(Step[T])) {
	w.observer = fn
}

// At returns the variant assigned at (x, y), or false if the cell is
// uncollapsed or out of range.
func (w *Wave[T]) At(x, y int) (T, bool) {
	var zero T
	if !w.inBounds(x, y) || !w.grid[y][x].Collapsed {
		return zero, false
	}
	return w.grid[y][x].Tile, true
}

// Entropy returns the stored entropy of (x, y), or -1 if out of range.
func (w *Wave[T]) Entropy(x, y int) int {
	if !w.inBounds(x, y) {
		return -1
	}
	return w.grid[y][x].Entropy
}

// Rows returns a row-major copy of the grid
func (w *Wave[T]) Rows() [][]Cell[T] {
	rows := make([][]Cell[T], w.height)
	for y := range w.grid {
		rows[y] = append([]Cell[T](nil), w.grid[y]...)
	}
	return rows
}

// Collapse assigns a variant to every cell. It returns a *CollapseError,
// which matches ErrNotFullyCollapsed, as soon as a cell has no valid
// candidate; the wave is then left partially collapsed and must be discarded.
func (w *Wave[T]) Collapse(rng Rand) error {
	if w.failure != nil {
		return w.failure
	}

	total := w.width * w.height
	for w.collapsed < total {
		candidates := w.lowestEntropyCells()
		pos := candidates[rng.Intn(len(candidates))]

		if err := w.assign(pos.x, pos.y, rng); err != nil {
			w.failure = &CollapseError{X: pos.x, Y: pos.y, Collapsed: w.collapsed, Total: total}
			return w.failure
		}
		w.collapsed++

		if w.observer != nil {
			w.observer(Step[T]{
				X:         pos.x,
				Y:         pos.y,
				Tile:      w.grid[pos.y][pos.x].Tile,
				Collapsed: w.collapsed,
				Total:     total,
			})
		}
	}

	return nil
}

// lowestEntropyCells returns every uncollapsed cell sharing the minimum
// entropy, in row-major order. An uncollapsed cell with entropy 0 has no
// candidates left and is returned first so the run fails on it.
func (w *Wave[T]) lowestEntropyCells() []position {
	lowest := -1
	var cells []position

	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.grid[y][x]
			if c.Collapsed {
				continue
			}
			switch {
			case lowest < 0 || c.Entropy < lowest:
				lowest = c.Entropy
				cells = append(cells[:0], position{x, y})
			case c.Entropy == lowest:
				cells = append(cells, position{x, y})
			}
		}
	}

	return cells
}

// assign collapses the cell at (x, y) and propagates to its direct neighbors
func (w *Wave[T]) assign(x, y int, rng Rand) error {
	hood := w.neighborhood(x, y)

	choices := w.variants
	if hood.informative() {
		choices = w.candidates(hood)
	}
	if len(choices) == 0 {
		return ErrUncollapsible
	}

	w.grid[y][x] = Cell[T]{
		Tile:      choices[rng.Intn(len(choices))],
		Collapsed: true,
		Entropy:   0,
	}

	// Single hop: cells further away are refreshed when one of their own
	// neighbors collapses.
	for _, s := range hood {
		if s.available && !s.assigned {
			w.grid[s.y][s.x].Entropy = len(w.candidates(w.neighborhood(s.x, s.y)))
		}
	}

	return nil
}

// candidates returns the variants consistent with a neighborhood
func (w *Wave[T]) candidates(hood neighborhood[T]) []T {
	var out []T
	for _, v := range w.variants {
		if w.allows(v, hood) {
			out = append(out, v)
		}
	}
	return out
}

// allows returns true if every assigned neighbor permits v
func (w *Wave[T]) allows(v T, hood neighborhood[T]) bool {
	for _, s := range hood {
		if !s.available || !s.assigned {
			continue
		}
		if !w.rules.Allows(v, s.tile, s.dir) {
			return false
		}
	}
	return true
}

func (w *Wave[T]) inBounds(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}
