// Package worldline records the player's path through space-time in turn order.
//
// Time is not monotonic along a world line: a rift may jump into the past or the far future,
// so several turns may share one t. The only global rule is that no (x, y, t) triple is ever
// visited twice.
package worldline

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/unseen/internal/core/spacetime"
)

var (
	ErrSelfIntersection = errors.New("world line self-intersection")
	ErrEmpty            = errors.New("world line is empty")
	ErrInvalidStep      = errors.New("invalid world line step")
)

// StepError describes a rejected extension.
type StepError struct {
	From spacetime.Position
	To   spacetime.Position
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", e.Err, e.From, e.To)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// WorldLine is an append-only sequence of positions, one per turn, with a membership set.
type WorldLine struct {
	path    []spacetime.Position
	visited map[spacetime.Position]struct{}
}

// New starts a world line at turn 0.
func New(start spacetime.Position) *WorldLine {
	w := Empty()
	w.append(start)
	return w
}

// Empty creates a world line with no positions.
func Empty() *WorldLine {
	return &WorldLine{visited: make(map[spacetime.Position]struct{})}
}

func (w *WorldLine) append(pos spacetime.Position) {
	w.path = append(w.path, pos)
	w.visited[pos] = struct{}{}
}

// Extend appends an ordinary step: one tick forward, same cell or a cardinal neighbour.
// The line is unchanged on error.
func (w *WorldLine) Extend(to spacetime.Position) error {
	from, ok := w.Current()
	if !ok {
		return ErrEmpty
	}
	if !to.IsValidStepFrom(from) {
		return &StepError{From: from, To: to, Err: ErrInvalidStep}
	}
	if w.Contains(to) {
		return &StepError{From: from, To: to, Err: ErrSelfIntersection}
	}
	w.append(to)
	return nil
}

// ExtendViaRift appends a teleport. Only self-intersection is enforced.
func (w *WorldLine) ExtendViaRift(to spacetime.Position) error {
	from, ok := w.Current()
	if !ok {
		return ErrEmpty
	}
	if w.Contains(to) {
		return &StepError{From: from, To: to, Err: ErrSelfIntersection}
	}
	w.append(to)
	return nil
}

// IsValidStep reports whether Extend(to) would succeed.
func (w *WorldLine) IsValidStep(to spacetime.Position) bool {
	from, ok := w.Current()
	return ok && to.IsValidStepFrom(from) && !w.Contains(to)
}

// TryExtend returns an extended copy, leaving w untouched.
func (w *WorldLine) TryExtend(to spacetime.Position) (*WorldLine, error) {
	out := w.Clone()
	if err := out.Extend(to); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *WorldLine) Contains(pos spacetime.Position) bool {
	_, ok := w.visited[pos]
	return ok
}

// Current returns the position of the latest turn.
func (w *WorldLine) Current() (spacetime.Position, bool) {
	if len(w.path) == 0 {
		return spacetime.Position{}, false
	}
	return w.path[len(w.path)-1], true
}

// Start returns the turn-0 position.
func (w *WorldLine) Start() (spacetime.Position, bool) {
	if len(w.path) == 0 {
		return spacetime.Position{}, false
	}
	return w.path[0], true
}

func (w *WorldLine) PositionAtTurn(turn int) (spacetime.Position, bool) {
	if turn < 0 || turn >= len(w.path) {
		return spacetime.Position{}, false
	}
	return w.path[turn], true
}

// CurrentTurn is the index of the latest turn, or -1 when empty.
func (w *WorldLine) CurrentTurn() int {
	return len(w.path) - 1
}

func (w *WorldLine) Len() int      { return len(w.path) }
func (w *WorldLine) IsEmpty() bool { return len(w.path) == 0 }

// Positions returns a copy of the path in turn order.
func (w *WorldLine) Positions() []spacetime.Position {
	return slices.Clone(w.path)
}

// All iterates (turn, position) pairs in turn order.
func (w *WorldLine) All() iter.Seq2[int, spacetime.Position] {
	return func(yield func(int, spacetime.Position) bool) {
		for i, p := range w.path {
			if !yield(i, p) {
				return
			}
		}
	}
}

// PositionsAtTime returns every recorded position with the given t, in turn order.
func (w *WorldLine) PositionsAtTime(t int) []spacetime.Position {
	var out []spacetime.Position
	for _, p := range w.path {
		if p.T == t {
			out = append(out, p)
		}
	}
	return out
}

// LatestAtTime returns the position recorded by the most recent turn at time t.
func (w *WorldLine) LatestAtTime(t int) (spacetime.Position, bool) {
	for i := len(w.path) - 1; i >= 0; i-- {
		if w.path[i].T == t {
			return w.path[i], true
		}
	}
	return spacetime.Position{}, false
}

// TimeRange returns the minimum and maximum t ever visited.
func (w *WorldLine) TimeRange() (minT, maxT int, ok bool) {
	if len(w.path) == 0 {
		return 0, 0, false
	}
	minT, maxT = w.path[0].T, w.path[0].T
	for _, p := range w.path[1:] {
		minT = min(minT, p.T)
		maxT = max(maxT, p.T)
	}
	return minT, maxT, true
}

// MaxT is the latest time ever visited, or -1 when empty.
func (w *WorldLine) MaxT() int {
	_, maxT, ok := w.TimeRange()
	if !ok {
		return -1
	}
	return maxT
}

// VisitedTimes returns the distinct t values in ascending order.
func (w *WorldLine) VisitedTimes() []int {
	times := make([]int, 0, len(w.path))
	for _, p := range w.path {
		times = append(times, p.T)
	}
	slices.Sort(times)
	return slices.Compact(times)
}

// Reset discards history and restarts at start.
func (w *WorldLine) Reset(start spacetime.Position) {
	w.Clear()
	w.append(start)
}

// Clear discards all history.
func (w *WorldLine) Clear() {
	w.path = w.path[:0]
	clear(w.visited)
}

func (w *WorldLine) Clone() *WorldLine {
	out := &WorldLine{
		path:    slices.Clone(w.path),
		visited: make(map[spacetime.Position]struct{}, len(w.visited)),
	}
	for p := range w.visited {
		out.visited[p] = struct{}{}
	}
	return out
}

// Digest fingerprints the path in turn order.
func (w *WorldLine) Digest() uint64 {
	buf := make([]byte, 0, len(w.path)*24)
	for _, p := range w.path {
		buf = spacetime.AppendPosition(buf, p)
	}
	return xxhash.Sum64(buf)
}
