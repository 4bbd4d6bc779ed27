package spacetime

// Cube is the full space-time world: one TimeSlice per time value.
// Every stored entity lies within [0,width) x [0,height) x [0,depth).
type Cube struct {
	width  int
	height int
	depth  int
	slices []*TimeSlice
}

// NewCube allocates depth empty slices. Negative dimensions are treated as zero.
func NewCube(width, height, depth int) *Cube {
	width, height, depth = max(width, 0), max(height, 0), max(depth, 0)
	c := &Cube{
		width:  width,
		height: height,
		depth:  depth,
		slices: make([]*TimeSlice, depth),
	}
	for t := range c.slices {
		c.slices[t] = NewTimeSlice(t)
	}
	return c
}

func (c *Cube) Width() int  { return c.width }
func (c *Cube) Height() int { return c.height }
func (c *Cube) Depth() int  { return c.depth }

// InBounds reports whether pos lies inside the cube.
func (c *Cube) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < c.width &&
		pos.Y >= 0 && pos.Y < c.height &&
		pos.T >= 0 && pos.T < c.depth
}

func (c *Cube) inBoundsSpatial(cell SpatialPos) bool {
	return cell.X >= 0 && cell.X < c.width && cell.Y >= 0 && cell.Y < c.height
}

// ValidatePosition returns an *OutOfBoundsError when pos lies outside the cube.
func (c *Cube) ValidatePosition(pos Position) error {
	if c.InBounds(pos) {
		return nil
	}
	return &OutOfBoundsError{Pos: pos, Width: c.width, Height: c.height, Depth: c.depth}
}

// Slice returns the slice at t.
func (c *Cube) Slice(t int) (*TimeSlice, error) {
	if t < 0 || t >= c.depth {
		return nil, &SliceError{T: t}
	}
	return c.slices[t], nil
}

// Slices returns the slices in time order. The slices are owned by the cube.
func (c *Cube) Slices() []*TimeSlice {
	out := make([]*TimeSlice, len(c.slices))
	copy(out, c.slices)
	return out
}

func (c *Cube) sliceAt(t int) *TimeSlice {
	if t < 0 || t >= c.depth {
		return nil
	}
	return c.slices[t]
}

// Spawn inserts into exactly one slice. The id must not already exist there.
func (c *Cube) Spawn(e Entity) error {
	if err := c.ValidatePosition(e.pos); err != nil {
		return err
	}
	s := c.slices[e.pos.T]
	if s.Contains(e.id) {
		return &EntityError{ID: e.id, T: e.pos.T, Err: ErrEntityAlreadyExists}
	}
	s.AddEntity(e)
	return nil
}

// SpawnAndPropagate inserts e and, if it is time-persistent, a copy into every later slice.
// All target slices are checked for id conflicts before anything is written.
func (c *Cube) SpawnAndPropagate(e Entity) error {
	if err := c.ValidatePosition(e.pos); err != nil {
		return err
	}
	last := e.pos.T
	if e.IsTimePersistent() {
		last = c.depth - 1
	}
	for t := e.pos.T; t <= last; t++ {
		if c.slices[t].Contains(e.id) {
			return &EntityError{ID: e.id, T: t, Err: ErrEntityAlreadyExists}
		}
	}
	c.slices[e.pos.T].AddEntity(e)
	for t := e.pos.T + 1; t <= last; t++ {
		c.slices[t].AddEntity(e.AtTime(t))
	}
	return nil
}

// SpawnOrReplace overwrites any same-id instance in the target slice. It never propagates.
func (c *Cube) SpawnOrReplace(e Entity) error {
	if err := c.ValidatePosition(e.pos); err != nil {
		return err
	}
	c.slices[e.pos.T].AddEntity(e)
	return nil
}

// MoveEntity relocates an instance within slice t, refusing cells blocked by any other entity.
func (c *Cube) MoveEntity(id EntityID, t int, to SpatialPos) error {
	if err := c.ValidatePosition(to.At(t)); err != nil {
		return err
	}
	s := c.slices[t]
	if !s.Contains(id) {
		return &EntityError{ID: id, T: t, Err: ErrEntityNotFound}
	}
	for _, other := range s.EntitiesAt(to) {
		if other.id != id && other.BlocksMovement() {
			return &EntityError{ID: other.id, T: t, Err: ErrPositionBlocked}
		}
	}
	s.MoveEntity(id, to)
	return nil
}

// DespawnAt removes the instance of id from slice t.
func (c *Cube) DespawnAt(id EntityID, t int) (Entity, error) {
	s, err := c.Slice(t)
	if err != nil {
		return Entity{}, err
	}
	e, ok := s.RemoveEntity(id)
	if !ok {
		return Entity{}, &EntityError{ID: id, T: t, Err: ErrEntityNotFound}
	}
	return e, nil
}

// DespawnAll removes id from every slice and returns the removed instances in time order.
func (c *Cube) DespawnAll(id EntityID) []Entity {
	var removed []Entity
	for _, s := range c.slices {
		if e, ok := s.RemoveEntity(id); ok {
			removed = append(removed, e)
		}
	}
	return removed
}

// EntityAtTime returns the instance of id in slice t.
func (c *Cube) EntityAtTime(id EntityID, t int) (Entity, bool) {
	s := c.sliceAt(t)
	if s == nil {
		return Entity{}, false
	}
	return s.Entity(id)
}

func (c *Cube) EntitiesAt(pos Position) []Entity {
	if !c.InBounds(pos) {
		return nil
	}
	return c.slices[pos.T].EntitiesAt(pos.Spatial())
}

func (c *Cube) EntityIDsAt(pos Position) []EntityID {
	if !c.InBounds(pos) {
		return nil
	}
	return c.slices[pos.T].EntityIDsAt(pos.Spatial())
}

// Aggregate queries answer "nothing here" for positions outside the cube.

func (c *Cube) BlocksMovement(pos Position) bool {
	return c.InBounds(pos) && c.slices[pos.T].BlocksMovement(pos.Spatial())
}

func (c *Cube) BlocksVision(pos Position) bool {
	return c.InBounds(pos) && c.slices[pos.T].BlocksVision(pos.Spatial())
}

func (c *Cube) IsWalkable(pos Position) bool {
	return c.InBounds(pos) && c.slices[pos.T].IsWalkable(pos.Spatial())
}

func (c *Cube) HasRift(pos Position) bool {
	return c.InBounds(pos) && c.slices[pos.T].HasRift(pos.Spatial())
}

func (c *Cube) RiftTarget(pos Position) (Position, bool) {
	if !c.InBounds(pos) {
		return Position{}, false
	}
	return c.slices[pos.T].RiftTarget(pos.Spatial())
}

func (c *Cube) IsExit(pos Position) bool {
	return c.InBounds(pos) && c.slices[pos.T].IsExit(pos.Spatial())
}

// PlayerAt returns the player in slice t.
func (c *Cube) PlayerAt(t int) (Entity, bool) {
	s := c.sliceAt(t)
	if s == nil {
		return Entity{}, false
	}
	return s.Player()
}

// EnemiesAt returns the enemies in slice t in slice order.
func (c *Cube) EnemiesAt(t int) []Entity {
	s := c.sliceAt(t)
	if s == nil {
		return nil
	}
	return s.Enemies()
}

// Clone returns an independent deep copy.
func (c *Cube) Clone() *Cube {
	out := &Cube{
		width:  c.width,
		height: c.height,
		depth:  c.depth,
		slices: make([]*TimeSlice, len(c.slices)),
	}
	for t, s := range c.slices {
		out.slices[t] = s.Clone()
	}
	return out
}

// PropagateSlice propagates every persistent entity of slice from into slice from+1 only.
func (c *Cube) PropagateSlice(from int) (PropagationResult, error) {
	return Propagate(c, from, StopAt(from+1))
}

// PropagateAll propagates slice 0 through the whole cube.
func (c *Cube) PropagateAll() (PropagationResult, error) {
	return Propagate(c, 0)
}
