// Package geometry provides the discrete grid math used by combat targeting:
// Chebyshev distance, line alignment, and line-of-sight rasterization.
package geometry

// Cell is a single grid coordinate inside a location.
type Cell struct {
	X int
	Y int
}

// BlocksFunc reports whether the cell (x, y) in the given location blocks
// line of sight.
type BlocksFunc func(location string, x, y int) bool

// Distance returns the Chebyshev distance between a and b: max(|dx|, |dy|).
// Diagonal movement costs the same as orthogonal movement.
//
// Postcondition: Returns >= 0; Distance(a, a) == 0.
func Distance(a, b Cell) int {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Aligned reports whether b lies on an exact orthogonal or diagonal line
// from a: dx == 0, dy == 0, or |dx| == |dy|.
func Aligned(a, b Cell) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx == 0 || dy == 0 || abs(dx) == abs(dy)
}

// LineCells rasterizes the segment from a to b using Bresenham's algorithm.
// The start cell is excluded and the end cell is included.
//
// Postcondition: For a != b the last element equals b; for a == b the result
// is empty.
func LineCells(a, b Cell) []Cell {
	var cells []Cell

	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx := 1
	if a.X > b.X {
		sx = -1
	}
	sy := 1
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	for {
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		cells = append(cells, Cell{X: x, Y: y})
	}
	return cells
}

// HasLOS reports whether an unobstructed line of sight exists from a to b in
// the given location. The target cell itself is exempt from its own blocking
// flag: a target standing behind cover that blocks LOS is still a valid
// target of an attack that reaches it.
//
// Precondition: blocks must be non-nil.
// Postcondition: Returns true iff no intermediate cell on the line blocks.
func HasLOS(location string, a, b Cell, blocks BlocksFunc) bool {
	for _, c := range LineCells(a, b) {
		if c == b {
			continue
		}
		if blocks(location, c.X, c.Y) {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
