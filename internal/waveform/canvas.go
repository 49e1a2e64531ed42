// Package waveform renders live audio traces into a character canvas.
package waveform

import "strings"

// Canvas is a grid of character cells the renderer draws into. Cell
// (0,0) is the top-left corner.
type Canvas struct {
	width  int
	height int
	cells  [][]bool
}

// NewCanvas creates a cleared canvas of the given cell size.
func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &Canvas{width: width, height: height}
	c.cells = make([][]bool, height)
	for y := range c.cells {
		c.cells[y] = make([]bool, width)
	}
	return c
}

// Size returns the canvas dimensions in cells.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Clear resets every cell to the background.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = false
		}
	}
}

// Set turns on one cell. Out-of-range coordinates are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y][x] = true
}

// VSpan fills the vertical run of cells from y0 to y1 in column x, in
// either order.
func (c *Canvas) VSpan(x, y0, y1 int) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.Set(x, y)
	}
}

// Polyline draws a connected trace with one y value per column,
// bridging the gap between adjacent columns so the line stays solid.
func (c *Canvas) Polyline(ys []int) {
	prev := 0
	for x, y := range ys {
		if x == 0 {
			c.Set(x, y)
		} else {
			c.VSpan(x, prev, y)
		}
		prev = y
	}
}

// Blank reports whether every cell is background.
func (c *Canvas) Blank() bool {
	for y := range c.cells {
		for x := range c.cells[y] {
			if c.cells[y][x] {
				return false
			}
		}
	}
	return true
}

// On reports whether the cell at (x, y) is set.
func (c *Canvas) On(x, y int) bool {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return false
	}
	return c.cells[y][x]
}

// String renders the grid as text, one line per row.
func (c *Canvas) String() string {
	var b strings.Builder
	for y := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range c.cells[y] {
			if c.cells[y][x] {
				b.WriteRune('█')
			} else {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}
