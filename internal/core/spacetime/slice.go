package spacetime

import (
	"maps"
	"slices"
)

// TimeSlice owns every entity instance at one instant.
// The spatial index is kept as the exact inverse of entity positions.
type TimeSlice struct {
	t        int
	entities map[EntityID]Entity
	index    map[SpatialPos][]EntityID
}

func NewTimeSlice(t int) *TimeSlice {
	return &TimeSlice{
		t:        t,
		entities: make(map[EntityID]Entity),
		index:    make(map[SpatialPos][]EntityID),
	}
}

func (s *TimeSlice) T() int { return s.t }

// AddEntity inserts or overwrites by id. An overwritten instance leaves the index first.
func (s *TimeSlice) AddEntity(e Entity) {
	if old, ok := s.entities[e.id]; ok {
		s.unindex(old.id, old.pos.Spatial())
	}
	s.entities[e.id] = e
	cell := e.pos.Spatial()
	s.index[cell] = append(s.index[cell], e.id)
}

// RemoveEntity returns the removed instance, or false if id is absent.
func (s *TimeSlice) RemoveEntity(id EntityID) (Entity, bool) {
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	delete(s.entities, id)
	s.unindex(id, e.pos.Spatial())
	return e, true
}

// MoveEntity relocates an entity within the slice. No bounds or walkability checks.
func (s *TimeSlice) MoveEntity(id EntityID, to SpatialPos) bool {
	e, ok := s.entities[id]
	if !ok {
		return false
	}
	s.unindex(id, e.pos.Spatial())
	e.pos = to.At(s.t)
	s.entities[id] = e
	s.index[to] = append(s.index[to], id)
	return true
}

func (s *TimeSlice) unindex(id EntityID, cell SpatialPos) {
	ids := s.index[cell]
	for i, other := range ids {
		if other == id {
			ids = slices.Delete(ids, i, i+1)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.index, cell)
		return
	}
	s.index[cell] = ids
}

func (s *TimeSlice) Entity(id EntityID) (Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

func (s *TimeSlice) Contains(id EntityID) bool {
	_, ok := s.entities[id]
	return ok
}

func (s *TimeSlice) EntityCount() int { return len(s.entities) }

// EntityIDsAt returns ids at a cell in id order.
func (s *TimeSlice) EntityIDsAt(cell SpatialPos) []EntityID {
	ids := slices.Clone(s.index[cell])
	slices.SortFunc(ids, EntityID.Compare)
	return ids
}

// EntitiesAt returns the instances at a cell in id order.
func (s *TimeSlice) EntitiesAt(cell SpatialPos) []Entity {
	ids := s.EntityIDsAt(cell)
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entities[id])
	}
	return out
}

// AllEntities returns every instance in id order.
func (s *TimeSlice) AllEntities() []Entity {
	ids := slices.SortedFunc(maps.Keys(s.entities), EntityID.Compare)
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entities[id])
	}
	return out
}

// OccupiedPositions lists cells holding at least one entity, ordered by (y, x).
func (s *TimeSlice) OccupiedPositions() []SpatialPos {
	cells := slices.Collect(maps.Keys(s.index))
	slices.SortFunc(cells, func(a, b SpatialPos) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return cells
}

func (s *TimeSlice) anyAt(cell SpatialPos, pred func(Entity) bool) bool {
	for _, id := range s.index[cell] {
		if pred(s.entities[id]) {
			return true
		}
	}
	return false
}

func (s *TimeSlice) BlocksMovement(cell SpatialPos) bool {
	return s.anyAt(cell, Entity.BlocksMovement)
}

func (s *TimeSlice) BlocksVision(cell SpatialPos) bool {
	return s.anyAt(cell, Entity.BlocksVision)
}

func (s *TimeSlice) IsWalkable(cell SpatialPos) bool {
	return !s.BlocksMovement(cell)
}

func (s *TimeSlice) HasRift(cell SpatialPos) bool {
	return s.anyAt(cell, Entity.IsRift)
}

func (s *TimeSlice) IsExit(cell SpatialPos) bool {
	return s.anyAt(cell, Entity.IsExit)
}

// RiftTarget returns the target of the first rift at cell in id order.
func (s *TimeSlice) RiftTarget(cell SpatialPos) (Position, bool) {
	for _, e := range s.EntitiesAt(cell) {
		if r, ok := e.RiftData(); ok {
			return r.Target, true
		}
	}
	return Position{}, false
}

// Player returns the first player-tagged entity in id order.
func (s *TimeSlice) Player() (Entity, bool) {
	for _, e := range s.AllEntities() {
		if e.IsPlayer() {
			return e, true
		}
	}
	return Entity{}, false
}

// Players returns every player-tagged entity in id order.
func (s *TimeSlice) Players() []Entity {
	var out []Entity
	for _, e := range s.AllEntities() {
		if e.IsPlayer() {
			out = append(out, e)
		}
	}
	return out
}

// Enemies returns every vision-carrying entity in id order.
func (s *TimeSlice) Enemies() []Entity {
	var out []Entity
	for _, e := range s.AllEntities() {
		if e.IsEnemy() {
			out = append(out, e)
		}
	}
	return out
}

func (s *TimeSlice) Clear() {
	clear(s.entities)
	clear(s.index)
}

// Clone returns an independent copy.
func (s *TimeSlice) Clone() *TimeSlice {
	out := &TimeSlice{
		t:        s.t,
		entities: make(map[EntityID]Entity, len(s.entities)),
		index:    make(map[SpatialPos][]EntityID, len(s.index)),
	}
	for id, e := range s.entities {
		out.entities[id] = e.AtPosition(e.pos)
	}
	for cell, ids := range s.index {
		out.index[cell] = slices.Clone(ids)
	}
	return out
}
