package spacetime

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// EntityID identifies one logical entity across every slice it appears in.
type EntityID uuid.UUID

// NilEntityID is the zero identifier.
var NilEntityID EntityID

// NewEntityID generates a random identifier.
func NewEntityID() EntityID {
	return EntityID(uuid.New())
}

func (id EntityID) String() string {
	return uuid.UUID(id).String()
}

func (id EntityID) IsNil() bool {
	return id == NilEntityID
}

// Compare orders identifiers bytewise; used for deterministic iteration.
func (id EntityID) Compare(other EntityID) int {
	return bytes.Compare(id[:], other[:])
}

// EntityType is a coarse classification derived from the component set.
type EntityType uint8

const (
	TypeCustom EntityType = iota
	TypePlayer
	TypeEnemy
	TypeRift
	TypeExit
	TypeBox
	TypeWall
	TypeFloor
)

func (t EntityType) String() string {
	switch t {
	case TypePlayer:
		return "Player"
	case TypeEnemy:
		return "Enemy"
	case TypeRift:
		return "Rift"
	case TypeExit:
		return "Exit"
	case TypeBox:
		return "Box"
	case TypeWall:
		return "Wall"
	case TypeFloor:
		return "Floor"
	default:
		return "Custom"
	}
}

// Entity is one instance of a logical entity inside one slice.
// Instances in different slices share an ID but are otherwise independent values.
type Entity struct {
	id         EntityID
	pos        Position
	components []Component
	name       string
}

// NewEntity creates an entity with a fresh ID. An invalid component set panics.
func NewEntity(pos Position, components ...Component) Entity {
	return NewEntityWithID(NewEntityID(), pos, components...)
}

// NewEntityWithID creates an entity with a caller-chosen ID. An invalid component set panics.
func NewEntityWithID(id EntityID, pos Position, components ...Component) Entity {
	mustValidate(components)
	cp := make([]Component, len(components))
	copy(cp, components)
	return Entity{id: id, pos: pos, components: cp}
}

// ValidateComponents checks the structural rules of a component set:
// Player excludes everything else, and Rift, Patrol and VisionCone appear at most once.
func ValidateComponents(components []Component) error {
	var hasPlayer, hasOther bool
	var rifts, patrols, visions int
	for _, c := range components {
		switch v := c.(type) {
		case nil:
			return fmt.Errorf("%w: nil component", ErrInvalidComponents)
		case Player:
			hasPlayer = true
			continue
		case Rift:
			rifts++
		case Patrol:
			if v.Len() == 0 {
				return fmt.Errorf("%w: patrol path must be non-empty", ErrInvalidComponents)
			}
			patrols++
		case VisionCone:
			visions++
		}
		hasOther = true
	}
	switch {
	case hasPlayer && hasOther:
		return fmt.Errorf("%w: player cannot be combined with other components", ErrInvalidComponents)
	case rifts > 1:
		return fmt.Errorf("%w: entity may only have one rift", ErrInvalidComponents)
	case patrols > 1:
		return fmt.Errorf("%w: entity may only have one patrol", ErrInvalidComponents)
	case visions > 1:
		return fmt.Errorf("%w: entity may only have one vision cone", ErrInvalidComponents)
	}
	return nil
}

func mustValidate(components []Component) {
	if err := ValidateComponents(components); err != nil {
		panic(err)
	}
}

func (e Entity) ID() EntityID       { return e.id }
func (e Entity) Position() Position { return e.pos }
func (e Entity) Name() string       { return e.name }

// Components returns a copy of the component set.
func (e Entity) Components() []Component {
	cp := make([]Component, len(e.components))
	copy(cp, e.components)
	return cp
}

// Has reports whether any component of the given kind is present.
func (e Entity) Has(kind ComponentKind) bool {
	for _, c := range e.components {
		if c.Kind() == kind {
			return true
		}
	}
	return false
}

func (e Entity) BlocksMovement() bool   { return e.Has(KindBlocksMovement) }
func (e Entity) BlocksVision() bool     { return e.Has(KindBlocksVision) }
func (e Entity) IsTimePersistent() bool { return e.Has(KindTimePersistent) }
func (e Entity) IsPlayer() bool         { return e.Has(KindPlayer) }
func (e Entity) IsEnemy() bool          { return e.Has(KindVisionCone) }
func (e Entity) IsRift() bool           { return e.Has(KindRift) }
func (e Entity) IsExit() bool           { return e.Has(KindExit) }
func (e Entity) IsPushable() bool       { return e.Has(KindPushable) }
func (e Entity) IsPullable() bool       { return e.Has(KindPullable) }

// Type classifies the entity. Precedence:
// Player > Enemy > Rift > Exit > Box > Wall/Floor (by blocking flags) > Custom.
func (e Entity) Type() EntityType {
	switch {
	case e.IsPlayer():
		return TypePlayer
	case e.IsEnemy():
		return TypeEnemy
	case e.IsRift():
		return TypeRift
	case e.IsExit():
		return TypeExit
	case e.IsPushable() || e.IsPullable():
		return TypeBox
	}
	move, vision := e.BlocksMovement(), e.BlocksVision()
	switch {
	case move && vision:
		return TypeWall
	case !move && !vision:
		return TypeFloor
	default:
		return TypeCustom
	}
}

func (e Entity) RiftData() (Rift, bool) {
	for _, c := range e.components {
		if r, ok := c.(Rift); ok {
			return r, true
		}
	}
	return Rift{}, false
}

func (e Entity) PatrolData() (Patrol, bool) {
	for _, c := range e.components {
		if p, ok := c.(Patrol); ok {
			return p, true
		}
	}
	return Patrol{}, false
}

func (e Entity) VisionData() (VisionCone, bool) {
	for _, c := range e.components {
		if v, ok := c.(VisionCone); ok {
			return v, true
		}
	}
	return VisionCone{}, false
}

// AtPosition returns a new instance with the same identity at pos.
func (e Entity) AtPosition(pos Position) Entity {
	out := e
	out.pos = pos
	out.components = e.Components()
	return out
}

// AtTime returns a new instance at the same cell in slice t.
func (e Entity) AtTime(t int) Entity {
	return e.AtPosition(e.pos.Spatial().At(t))
}

// PropagateToNextTime returns the instance one slice later.
func (e Entity) PropagateToNextTime() Entity {
	return e.AtTime(e.pos.T + 1)
}

// WithName returns a copy carrying a display name.
func (e Entity) WithName(name string) Entity {
	out := e
	out.name = name
	return out
}

func (e Entity) String() string {
	if e.name != "" {
		return fmt.Sprintf("%s[%s]@%s", e.name, e.Type(), e.pos)
	}
	return fmt.Sprintf("%s[%s]@%s", e.id, e.Type(), e.pos)
}

// NewWall blocks movement and vision and persists through time.
func NewWall(pos Position) Entity {
	return NewEntity(pos, BlocksMovement{}, BlocksVision{}, TimePersistent{})
}

// NewFloor carries no components.
func NewFloor(pos Position) Entity {
	return NewEntity(pos)
}

// NewPlayer is not time-persistent; its presence follows the world line.
func NewPlayer(pos Position) Entity {
	return NewEntity(pos, Player{})
}

// NewEnemy patrols and watches, and persists through time.
func NewEnemy(pos Position, patrol Patrol, vision VisionCone) Entity {
	return NewEntity(pos, patrol, vision, TimePersistent{})
}

func NewPushableBox(pos Position) Entity {
	return NewEntity(pos, Pushable{}, BlocksMovement{}, TimePersistent{})
}

// NewPullableBox can be both pushed and pulled.
func NewPullableBox(pos Position) Entity {
	return NewEntity(pos, Pushable{}, Pullable{}, BlocksMovement{}, TimePersistent{})
}

func NewRift(pos Position, target Position, bidirectional bool) Entity {
	rift := OneWayRift(target)
	if bidirectional {
		rift = BidirectionalRift(target)
	}
	return NewEntity(pos, rift, TimePersistent{})
}

func NewExit(pos Position) Entity {
	return NewEntity(pos, Exit{}, TimePersistent{})
}
