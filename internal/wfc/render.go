package wfc

import (
	"bufio"
	"io"
	"strings"
)

// Placeholder is rendered for cells that have no assigned variant
const Placeholder = 'X'

// Render writes one line per grid row: the glyph of each assigned cell, or
// Placeholder for unassigned cells.
func (w *Wave[T]) Render(out io.Writer) error {
	bw := bufio.NewWriter(out)
	for _, row := range w.grid {
		for _, c := range row {
			r := Placeholder
			if c.Collapsed {
				r = c.Tile.Glyph()
			}
			if _, err := bw.WriteRune(r); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String returns the rendered grid
func (w *Wave[T]) String() string {
	var sb strings.Builder
	_ = w.Render(&sb)
	return sb.String()
}
