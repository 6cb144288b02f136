package wfc

import (
	"errors"
	"fmt"
)

var (
	ErrZeroDimension     = errors.New("wfc: grid dimensions can't be 0")
	ErrUncollapsible     = errors.New("wfc: no valid tiles for cell")
	ErrNotFullyCollapsed = errors.New("wfc: the wave has not fully collapsed")
	ErrNoSolution        = errors.New("wfc: failed to find valid solution")
)

// CollapseError reports the cell at which a collapse run stopped. It matches
// both ErrNotFullyCollapsed and ErrUncollapsible with errors.Is.
type CollapseError struct {
	X, Y      int // The cell that had no valid candidate
	Collapsed int // Cells assigned before the failure
	Total     int // Cells in the grid
}

func (e *CollapseError) Error() string {
	return fmt.Sprintf("wfc: the wave has not fully collapsed: no valid tiles for cell (%d, %d) after %d of %d cells",
		e.X, e.Y, e.Collapsed, e.Total)
}

func (e *CollapseError) Unwrap() []error {
	return []error{ErrNotFullyCollapsed, ErrUncollapsible}
}
