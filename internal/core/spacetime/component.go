package spacetime

import "fmt"

// ComponentKind identifies one variant of the closed component set.
type ComponentKind uint8

const (
	KindBlocksMovement ComponentKind = iota + 1
	KindBlocksVision
	KindPushable
	KindPullable
	KindTimePersistent
	KindPatrol
	KindVisionCone
	KindRift
	KindExit
	KindPlayer
)

func (k ComponentKind) String() string {
	switch k {
	case KindBlocksMovement:
		return "BlocksMovement"
	case KindBlocksVision:
		return "BlocksVision"
	case KindPushable:
		return "Pushable"
	case KindPullable:
		return "Pullable"
	case KindTimePersistent:
		return "TimePersistent"
	case KindPatrol:
		return "Patrol"
	case KindVisionCone:
		return "VisionCone"
	case KindRift:
		return "Rift"
	case KindExit:
		return "Exit"
	case KindPlayer:
		return "Player"
	default:
		return fmt.Sprintf("ComponentKind(%d)", uint8(k))
	}
}

// Component is one capability tag carried by an entity.
// The set of implementations is closed: only the types in this file satisfy it.
// Components are immutable values and may be shared between entity instances.
type Component interface {
	Kind() ComponentKind
	isComponent()
}

type (
	// BlocksMovement prevents other blocking entities and the player from entering the cell.
	BlocksMovement struct{}
	// BlocksVision interrupts line of sight through the cell.
	BlocksVision struct{}
	// Pushable entities can be displaced by a push chain.
	Pushable struct{}
	// Pullable entities can be dragged by the player.
	Pullable struct{}
	// TimePersistent entities are propagated forward into later slices.
	TimePersistent struct{}
	// Exit marks the win cell.
	Exit struct{}
	// Player marks the single player entity.
	Player struct{}
)

func (BlocksMovement) Kind() ComponentKind { return KindBlocksMovement }
func (BlocksVision) Kind() ComponentKind   { return KindBlocksVision }
func (Pushable) Kind() ComponentKind       { return KindPushable }
func (Pullable) Kind() ComponentKind       { return KindPullable }
func (TimePersistent) Kind() ComponentKind { return KindTimePersistent }
func (Exit) Kind() ComponentKind           { return KindExit }
func (Player) Kind() ComponentKind         { return KindPlayer }
func (Patrol) Kind() ComponentKind         { return KindPatrol }
func (VisionCone) Kind() ComponentKind     { return KindVisionCone }
func (Rift) Kind() ComponentKind           { return KindRift }

func (BlocksMovement) isComponent() {}
func (BlocksVision) isComponent()   {}
func (Pushable) isComponent()       {}
func (Pullable) isComponent()       {}
func (TimePersistent) isComponent() {}
func (Exit) isComponent()           {}
func (Player) isComponent()         {}
func (Patrol) isComponent()         {}
func (VisionCone) isComponent()     {}
func (Rift) isComponent()           {}

// Patrol is a deterministic waypoint path indexed by time.
type Patrol struct {
	path  []SpatialPos
	loops bool
}

// NewPatrol copies path into a patrol. An empty path is malformed level data and panics.
func NewPatrol(path []SpatialPos, loops bool) Patrol {
	if len(path) == 0 {
		panic("spacetime: patrol path must be non-empty")
	}
	cp := make([]SpatialPos, len(path))
	copy(cp, path)
	return Patrol{path: cp, loops: loops}
}

// PositionAt returns the waypoint occupied at time t.
// Looping patrols wrap with t % len; non-looping patrols hold the last waypoint once t passes the end.
// t must be non-negative.
func (p Patrol) PositionAt(t int) SpatialPos {
	if t < 0 {
		panic("spacetime: patrol position requires non-negative time")
	}
	n := len(p.path)
	if p.loops {
		return p.path[t%n]
	}
	return p.path[min(t, n-1)]
}

// Path returns a copy of the waypoints.
func (p Patrol) Path() []SpatialPos {
	cp := make([]SpatialPos, len(p.path))
	copy(cp, p.path)
	return cp
}

func (p Patrol) Loops() bool { return p.loops }
func (p Patrol) Len() int    { return len(p.path) }

// VisionCone gives an entity perception. LightSpeed is in cells per turn.
type VisionCone struct {
	LightSpeed int
	Facing     Direction
	FOVDegrees int
}

// NewVisionCone creates a forward-facing 90 degree cone.
func NewVisionCone(lightSpeed int, facing Direction) VisionCone {
	return VisionCone{LightSpeed: lightSpeed, Facing: facing, FOVDegrees: 90}
}

// OmnidirectionalVision sees all around.
func OmnidirectionalVision(lightSpeed int) VisionCone {
	return VisionCone{LightSpeed: lightSpeed, Facing: North, FOVDegrees: 360}
}

// Rift teleports the player to Target, which may lie in the past or future.
type Rift struct {
	Target        Position
	Bidirectional bool
}

func OneWayRift(target Position) Rift {
	return Rift{Target: target}
}

func BidirectionalRift(target Position) Rift {
	return Rift{Target: target, Bidirectional: true}
}
