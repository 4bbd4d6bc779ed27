package spacetime

import (
	"fmt"
	"math"
)

// Position is an absolute coordinate in the space-time cube.
// Valid ranges are 0 <= X < width, 0 <= Y < height, 0 <= T < depth.
type Position struct {
	X int
	Y int
	T int
}

// SpatialPos is a 2D coordinate without the time component.
type SpatialPos struct {
	X int
	Y int
}

// Direction is a cardinal movement direction. Diagonals do not exist.
type Direction uint8

const (
	North Direction = iota // y - 1
	South                  // y + 1
	East                   // x + 1
	West                   // x - 1
)

// NewPosition creates a space-time position.
func NewPosition(x, y, t int) Position {
	return Position{X: x, Y: y, T: t}
}

// NewSpatialPos creates a spatial position.
func NewSpatialPos(x, y int) SpatialPos {
	return SpatialPos{X: x, Y: y}
}

// Spatial drops the time component.
func (p Position) Spatial() SpatialPos {
	return SpatialPos{X: p.X, Y: p.Y}
}

// Move shifts the position one cell in dir, time unchanged.
func (p Position) Move(dir Direction) Position {
	dx, dy := dir.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy, T: p.T}
}

// Tick advances time by one, space unchanged.
func (p Position) Tick() Position {
	return Position{X: p.X, Y: p.Y, T: p.T + 1}
}

// Step moves one cell in dir and advances time by one (the standard game move).
func (p Position) Step(dir Direction) Position {
	return p.Move(dir).Tick()
}

// Wait stays in place for one turn.
func (p Position) Wait() Position {
	return p.Tick()
}

// ManhattanDistance is the spatial L1 distance, ignoring T.
func (p Position) ManhattanDistance(other Position) int {
	return p.Spatial().ManhattanDistance(other.Spatial())
}

// EuclideanDistance is the spatial L2 distance, ignoring T.
func (p Position) EuclideanDistance(other Position) float64 {
	return math.Hypot(float64(p.X-other.X), float64(p.Y-other.Y))
}

// SameSpacetime reports whether both positions share (x, y, t).
func (p Position) SameSpacetime(other Position) bool {
	return p == other
}

// SameSpace reports whether both positions share (x, y), ignoring t.
func (p Position) SameSpace(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// IsAdjacent reports a spatial Manhattan distance of exactly one.
func (p Position) IsAdjacent(other Position) bool {
	return p.ManhattanDistance(other) == 1
}

// IsValidStepFrom reports whether p is a legal causal step from current:
// exactly one time step later, and either the same cell or a cardinal neighbour.
func (p Position) IsValidStepFrom(current Position) bool {
	return p.T == current.T+1 && current.ManhattanDistance(p) <= 1
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.T)
}

// At lifts a spatial position into the cube at time t.
func (s SpatialPos) At(t int) Position {
	return Position{X: s.X, Y: s.Y, T: t}
}

// ManhattanDistance is the L1 distance between two cells.
func (s SpatialPos) ManhattanDistance(other SpatialPos) int {
	return abs(s.X-other.X) + abs(s.Y-other.Y)
}

// IsAdjacent reports a Manhattan distance of exactly one.
func (s SpatialPos) IsAdjacent(other SpatialPos) bool {
	return s.ManhattanDistance(other) == 1
}

func (s SpatialPos) String() string {
	return fmt.Sprintf("(%d, %d)", s.X, s.Y)
}

// Delta returns the (dx, dy) unit vector of the direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// AllDirections lists the four cardinal directions in a fixed order.
func AllDirections() [4]Direction {
	return [4]Direction{North, South, East, West}
}

// DirectionFromDelta maps a unit delta back to its direction.
func DirectionFromDelta(dx, dy int) (Direction, bool) {
	switch {
	case dx == 0 && dy == -1:
		return North, true
	case dx == 0 && dy == 1:
		return South, true
	case dx == 1 && dy == 0:
		return East, true
	case dx == -1 && dy == 0:
		return West, true
	default:
		return 0, false
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
