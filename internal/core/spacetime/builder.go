package spacetime

// EntityBuilder assembles custom component combinations.
// Build enforces the same structural rules as NewEntity.
type EntityBuilder struct {
	id         EntityID
	pos        Position
	name       string
	components []Component
}

// NewEntityBuilder starts an entity at pos with a fresh ID.
func NewEntityBuilder(pos Position) *EntityBuilder {
	return &EntityBuilder{id: NewEntityID(), pos: pos}
}

func (b *EntityBuilder) WithID(id EntityID) *EntityBuilder {
	b.id = id
	return b
}

func (b *EntityBuilder) WithName(name string) *EntityBuilder {
	b.name = name
	return b
}

func (b *EntityBuilder) With(c Component) *EntityBuilder {
	b.components = append(b.components, c)
	return b
}

func (b *EntityBuilder) Blocking() *EntityBuilder   { return b.With(BlocksMovement{}) }
func (b *EntityBuilder) Opaque() *EntityBuilder     { return b.With(BlocksVision{}) }
func (b *EntityBuilder) Persistent() *EntityBuilder { return b.With(TimePersistent{}) }
func (b *EntityBuilder) Pushable() *EntityBuilder   { return b.With(Pushable{}) }
func (b *EntityBuilder) Pullable() *EntityBuilder   { return b.With(Pullable{}) }

// TryBuild returns the entity or the validation error.
func (b *EntityBuilder) TryBuild() (Entity, error) {
	if err := ValidateComponents(b.components); err != nil {
		return Entity{}, err
	}
	e := NewEntityWithID(b.id, b.pos, b.components...)
	e.name = b.name
	return e, nil
}

// Build panics on an invalid component set.
func (b *EntityBuilder) Build() Entity {
	e, err := b.TryBuild()
	if err != nil {
		panic(err)
	}
	return e
}
