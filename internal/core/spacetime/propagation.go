package spacetime

import (
	"fmt"
	"slices"
)

// WarningKind classifies a non-fatal propagation event.
type WarningKind uint8

const (
	// WarnOutOfBounds means a propagated instance fell outside the cube and was dropped.
	WarnOutOfBounds WarningKind = iota + 1
	// WarnCollision means two movement-blocking entities landed on one cell.
	WarnCollision
)

func (k WarningKind) String() string {
	switch k {
	case WarnOutOfBounds:
		return "out_of_bounds"
	case WarnCollision:
		return "collision"
	default:
		return fmt.Sprintf("WarningKind(%d)", uint8(k))
	}
}

// Warning reports a clipped or colliding instance. Other is set for collisions only.
type Warning struct {
	Kind   WarningKind
	Entity EntityID
	Other  EntityID
	Pos    Position
}

func (w Warning) String() string {
	if w.Kind == WarnCollision {
		return fmt.Sprintf("collision between %s and %s at %s", w.Entity, w.Other, w.Pos)
	}
	return fmt.Sprintf("entity %s propagated out of bounds to %s", w.Entity, w.Pos)
}

// PropagationContext summarises what a propagation run touched.
type PropagationContext struct {
	DirtyFrom        int
	AffectedEntities []EntityID
	SlicesUpdated    int
}

type PropagationResult struct {
	Context  PropagationContext
	Warnings []Warning
}

func (r PropagationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

type propagationOptions struct {
	only           []EntityID
	stopAt         int
	hasStop        bool
	skipCollisions bool
}

// PropagationOption tunes a propagation run.
type PropagationOption func(*propagationOptions)

// OnlyEntities restricts propagation to the given ids.
func OnlyEntities(ids ...EntityID) PropagationOption {
	return func(o *propagationOptions) {
		o.only = append(o.only, ids...)
	}
}

// StopAt bounds the last target slice (inclusive).
func StopAt(t int) PropagationOption {
	return func(o *propagationOptions) {
		o.stopAt = t
		o.hasStop = true
	}
}

// SkipCollisions drops colliding instances instead of writing them.
func SkipCollisions() PropagationOption {
	return func(o *propagationOptions) {
		o.skipCollisions = true
	}
}

// ComputePropagatedEntity returns the instance of e expected in slice t.
// Patrolling entities follow their patrol; everything else keeps its cell.
func ComputePropagatedEntity(e Entity, t int) Entity {
	if p, ok := e.PatrolData(); ok {
		return e.AtPosition(p.PositionAt(t).At(t))
	}
	return e.AtTime(t)
}

// WouldCollide reports whether two distinct blocking instances occupy the same space-time cell.
func WouldCollide(a, b Entity) bool {
	return a.id != b.id && a.BlocksMovement() && b.BlocksMovement() && a.pos == b.pos
}

// Propagate copies every time-persistent, non-player entity of slice from into later slices.
// Target slices are overwritten by id, so repeated runs converge. The player is never propagated.
func Propagate(c *Cube, from int, opts ...PropagationOption) (PropagationResult, error) {
	o := propagationOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	src, err := c.Slice(from)
	if err != nil {
		return PropagationResult{}, err
	}

	var sources []Entity
	for _, e := range src.AllEntities() {
		if !e.IsTimePersistent() || e.IsPlayer() {
			continue
		}
		if len(o.only) > 0 && !slices.Contains(o.only, e.id) {
			continue
		}
		sources = append(sources, e)
	}

	result := PropagationResult{Context: PropagationContext{DirtyFrom: from}}
	for _, e := range sources {
		result.Context.AffectedEntities = append(result.Context.AffectedEntities, e.id)
	}

	stop := c.depth - 1
	if o.hasStop {
		stop = min(stop, o.stopAt)
	}

	inSources := make(map[EntityID]struct{}, len(sources))
	for _, e := range sources {
		inSources[e.id] = struct{}{}
	}

	for t := from + 1; t <= stop; t++ {
		target := c.slices[t]
		placed := make(map[SpatialPos]EntityID)
		written := false

		for _, e := range sources {
			next := ComputePropagatedEntity(e, t)
			if !c.InBounds(next.pos) {
				result.Warnings = append(result.Warnings, Warning{Kind: WarnOutOfBounds, Entity: e.id, Pos: next.pos})
				continue
			}

			if next.BlocksMovement() {
				cell := next.pos.Spatial()
				other, collided := placed[cell]
				if !collided {
					for _, existing := range target.EntitiesAt(cell) {
						if _, moving := inSources[existing.id]; moving {
							continue
						}
						if WouldCollide(next, existing) {
							other, collided = existing.id, true
							break
						}
					}
				}
				if collided {
					result.Warnings = append(result.Warnings, Warning{Kind: WarnCollision, Entity: e.id, Other: other, Pos: next.pos})
					if o.skipCollisions {
						continue
					}
				} else {
					placed[cell] = e.id
				}
			}

			target.AddEntity(next)
			written = true
		}

		if written {
			result.Context.SlicesUpdated++
		}
	}

	return result, nil
}

// PropagateEntity propagates a single entity forward from slice from.
func (c *Cube) PropagateEntity(id EntityID, from int) (PropagationResult, error) {
	s, err := c.Slice(from)
	if err != nil {
		return PropagationResult{}, err
	}
	if !s.Contains(id) {
		return PropagationResult{}, &EntityError{ID: id, T: from, Err: ErrEntityNotFound}
	}
	return Propagate(c, from, OnlyEntities(id))
}

// DepropagateEntity removes id from slice from and every later slice, returning the number removed.
func (c *Cube) DepropagateEntity(id EntityID, from int) (int, error) {
	if from < 0 || from >= c.depth {
		return 0, &SliceError{T: from}
	}
	removed := 0
	for _, s := range c.slices[from:] {
		if _, ok := s.RemoveEntity(id); ok {
			removed++
		}
	}
	return removed, nil
}
