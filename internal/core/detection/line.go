package detection

import "github.com/zeusync/unseen/internal/core/spacetime"

// BresenhamLine rasterises the segment from a to b, both endpoints included, in travel order.
func BresenhamLine(a, b spacetime.SpatialPos) []spacetime.SpatialPos {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	stepX, stepY := 1, 1
	if b.X < a.X {
		stepX = -1
	}
	if b.Y < a.Y {
		stepY = -1
	}

	cells := make([]spacetime.SpatialPos, 0, max(dx, dy)+1)
	x, y := a.X, a.Y
	err := dx - dy
	for {
		cells = append(cells, spacetime.NewSpatialPos(x, y))
		if x == b.X && y == b.Y {
			return cells
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += stepX
		}
		if e2 < dx {
			err += dx
			y += stepY
		}
	}
}

// IsLineBlocked reports whether any cell strictly between from and to blocks vision in slice t.
// The endpoints never block their own check.
func IsLineBlocked(cube *spacetime.Cube, from, to spacetime.SpatialPos, t int) bool {
	line := BresenhamLine(from, to)
	if len(line) <= 2 {
		return false
	}
	for _, cell := range line[1 : len(line)-1] {
		if cube.BlocksVision(cell.At(t)) {
			return true
		}
	}
	return false
}

// HasLineOfSight is the negation of IsLineBlocked.
func HasLineOfSight(cube *spacetime.Cube, from, to spacetime.SpatialPos, t int) bool {
	return !IsLineBlocked(cube, from, to, t)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
