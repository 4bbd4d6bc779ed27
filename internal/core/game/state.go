// Package game turns player intents into validated transitions over a space-time world.
//
// A State is a value: Apply clones before mutating and returns a fresh State, so a State handed
// to a caller is never modified afterwards. Callers that need a mutable session wrap States in
// their own owner (see internal/session).
package game

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/unseen/internal/core/detection"
	"github.com/zeusync/unseen/internal/core/spacetime"
	"github.com/zeusync/unseen/internal/core/worldline"
)

// snapshot is the frozen starting world. It is shared by every State derived from one session
// and never mutated.
type snapshot struct {
	cube      *spacetime.Cube
	worldLine *worldline.WorldLine
}

type State struct {
	cube      *spacetime.Cube
	worldLine *worldline.WorldLine
	playerID  spacetime.EntityID
	phase     Phase
	turn      int
	history   []Action
	config    Config
	initial   *snapshot
}

// NewState creates a session from a populated cube. The cube must contain exactly one player
// instance across all slices. The State works on its own copy; later changes to cube are not seen.
func NewState(cube *spacetime.Cube, cfg Config) (*State, error) {
	if cube == nil {
		return nil, ErrMissingCube
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		player spacetime.Entity
		found  bool
	)
	for _, s := range cube.Slices() {
		for _, e := range s.Players() {
			if found {
				return nil, ErrMultiplePlayers
			}
			player, found = e, true
		}
	}
	if !found {
		return nil, ErrNoPlayer
	}

	wl := worldline.New(player.Position())
	return &State{
		cube:      cube.Clone(),
		worldLine: wl,
		playerID:  player.ID(),
		phase:     PhasePlaying,
		config:    cfg,
		initial:   &snapshot{cube: cube.Clone(), worldLine: wl.Clone()},
	}, nil
}

// StateBuilder assembles a State from optional parts.
type StateBuilder struct {
	cube   *spacetime.Cube
	config Config
}

func NewStateBuilder() *StateBuilder {
	return &StateBuilder{config: DefaultConfig()}
}

func (b *StateBuilder) WithCube(c *spacetime.Cube) *StateBuilder {
	b.cube = c
	return b
}

func (b *StateBuilder) WithConfig(cfg Config) *StateBuilder {
	b.config = cfg
	return b
}

func (b *StateBuilder) Build() (*State, error) {
	if b.cube == nil {
		return nil, ErrMissingCube
	}
	return NewState(b.cube, b.config)
}

func (s *State) clone() *State {
	return &State{
		cube:      s.cube.Clone(),
		worldLine: s.worldLine.Clone(),
		playerID:  s.playerID,
		phase:     s.phase,
		turn:      s.turn,
		history:   slices.Clone(s.history),
		config:    s.config,
		initial:   s.initial,
	}
}

// Cube is a read-only view of the world. Callers must not mutate it.
func (s *State) Cube() *spacetime.Cube { return s.cube }

// WorldLine is a read-only view of the player's path. Callers must not mutate it.
func (s *State) WorldLine() *worldline.WorldLine { return s.worldLine }

func (s *State) PlayerID() spacetime.EntityID { return s.playerID }
func (s *State) Phase() Phase                 { return s.phase }
func (s *State) Turn() int                    { return s.turn }
func (s *State) Config() Config               { return s.config }
func (s *State) IsActive() bool               { return s.phase == PhasePlaying }
func (s *State) HasWon() bool                 { return s.phase == PhaseWon }

// History returns a copy of the applied actions since the last restart.
func (s *State) History() []Action { return slices.Clone(s.history) }

// PlayerPosition is the latest world-line position.
func (s *State) PlayerPosition() spacetime.Position {
	pos, _ := s.worldLine.Current()
	return pos
}

// CurrentTime is the t coordinate of the player.
func (s *State) CurrentTime() int {
	return s.PlayerPosition().T
}

func (s *State) AtRift() bool {
	return s.cube.HasRift(s.PlayerPosition())
}

func (s *State) RiftTarget() (spacetime.Position, bool) {
	return s.cube.RiftTarget(s.PlayerPosition())
}

func (s *State) AtExit() bool {
	return s.cube.IsExit(s.PlayerPosition())
}

// BlockingEntityAt returns the first movement-blocking entity at pos that is not in ignore.
func (s *State) BlockingEntityAt(pos spacetime.Position, ignore ...spacetime.EntityID) (spacetime.Entity, bool) {
	for _, e := range s.cube.EntitiesAt(pos) {
		if e.BlocksMovement() && !slices.Contains(ignore, e.ID()) {
			return e, true
		}
	}
	return spacetime.Entity{}, false
}

// CanMoveTo reports whether the player could legally occupy pos.
func (s *State) CanMoveTo(pos spacetime.Position) bool {
	return s.ValidatePosition(pos) == nil
}

// ValidatePosition explains why the player could not occupy pos.
func (s *State) ValidatePosition(pos spacetime.Position) error {
	if me := s.validateMoveTarget(pos); me != nil {
		return me
	}
	return nil
}

// EntityTypesAt classifies everything at pos, for glyph selection.
func (s *State) EntityTypesAt(pos spacetime.Position) []spacetime.EntityType {
	entities := s.cube.EntitiesAt(pos)
	out := make([]spacetime.EntityType, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Type())
	}
	return out
}

// GhostsAt returns world-line positions recorded at time t, in turn order.
func (s *State) GhostsAt(t int) []spacetime.Position {
	return s.worldLine.PositionsAtTime(t)
}

// EnemyView is where one enemy stands at a given time.
type EnemyView struct {
	ID       spacetime.EntityID
	Position spacetime.Position
	Vision   spacetime.VisionCone
}

// EnemiesAt lists enemies at time t in slice order.
func (s *State) EnemiesAt(t int) []EnemyView {
	enemies := s.cube.EnemiesAt(t)
	out := make([]EnemyView, 0, len(enemies))
	for _, e := range enemies {
		vision, _ := e.VisionData()
		out = append(out, EnemyView{ID: e.ID(), Position: detection.EnemyPositionAt(e, t), Vision: vision})
	}
	return out
}

// DangerZone is the union of enemy vision footprints at time t, ordered by (y, x).
func (s *State) DangerZone(t int) []spacetime.SpatialPos {
	seen := make(map[spacetime.SpatialPos]struct{})
	var out []spacetime.SpatialPos
	for _, e := range s.cube.EnemiesAt(t) {
		for _, cell := range detection.VisionFootprint(s.cube, e, t, s.config.Detection.VisionRadius) {
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			out = append(out, cell)
		}
	}
	slices.SortFunc(out, func(a, b spacetime.SpatialPos) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return out
}

// Digest fingerprints the cube, the world line, phase and turn.
func (s *State) Digest() uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], s.cube.Digest())
	binary.LittleEndian.PutUint64(buf[8:], s.worldLine.Digest())
	binary.LittleEndian.PutUint64(buf[16:], uint64(s.phase))
	binary.LittleEndian.PutUint64(buf[24:], uint64(s.turn))
	return xxhash.Sum64(buf[:])
}

// WorldDigest fingerprints only the cube and the world line.
func (s *State) WorldDigest() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], s.cube.Digest())
	binary.LittleEndian.PutUint64(buf[8:], s.worldLine.Digest())
	return xxhash.Sum64(buf[:])
}

// InitialDigest fingerprints the frozen starting world.
func (s *State) InitialDigest() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], s.initial.cube.Digest())
	binary.LittleEndian.PutUint64(buf[8:], s.initial.worldLine.Digest())
	return xxhash.Sum64(buf[:])
}
