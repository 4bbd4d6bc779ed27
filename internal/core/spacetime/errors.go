package spacetime

import (
	"errors"
	"fmt"
)

// World-geometry errors
var (
	ErrOutOfBounds         = errors.New("position out of bounds")
	ErrTimeSliceNotFound   = errors.New("time slice not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")
	ErrEntityNotFound      = errors.New("entity not found")
	ErrPositionBlocked     = errors.New("position blocked")

	// ErrInvalidComponents describes malformed level data. Constructors panic with it.
	ErrInvalidComponents = errors.New("invalid component combination")
)

// OutOfBoundsError carries the violated coordinate and the valid range.
type OutOfBoundsError struct {
	Pos    Position
	Width  int
	Height int
	Depth  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("position out of bounds: %s - valid range: x=[0,%d), y=[0,%d), t=[0,%d)",
		e.Pos, e.Width, e.Height, e.Depth)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// EntityError reports an entity-level failure at a given slice.
type EntityError struct {
	ID  EntityID
	T   int
	Err error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%v: %s at t=%d", e.Err, e.ID, e.T)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// SliceError reports a missing time slice.
type SliceError struct {
	T int
}

func (e *SliceError) Error() string {
	return fmt.Sprintf("%v: t=%d", ErrTimeSliceNotFound, e.T)
}

func (e *SliceError) Unwrap() error {
	return ErrTimeSliceNotFound
}
