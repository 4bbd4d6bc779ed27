// Package levels holds the built-in demo levels.
package levels

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zeusync/unseen/internal/core/detection"
	"github.com/zeusync/unseen/internal/core/game"
	"github.com/zeusync/unseen/internal/core/spacetime"
)

var ErrUnknownLevel = errors.New("unknown level")

// Level is a named recipe for a fresh cube. Tune adjusts the session config before the state is built.
type Level struct {
	ID    string
	Name  string
	build func(c *spacetime.Cube) error
	dims  [3]int
	tune  func(cfg *game.Config)
}

var catalog = []Level{
	{
		ID:    "corridor",
		Name:  "Corridor",
		dims:  [3]int{7, 3, 12},
		build: buildCorridor,
	},
	{
		ID:    "push",
		Name:  "Out of the Way",
		dims:  [3]int{9, 5, 16},
		build: buildPush,
	},
	{
		ID:    "sentry",
		Name:  "Behind the Wall",
		dims:  [3]int{9, 5, 20},
		build: buildSentry,
		tune: func(cfg *game.Config) {
			cfg.Detection = detection.Config{Model: detection.DiscreteDelay, DelayTurns: 2, VisionRadius: 2}
		},
	},
	{
		ID:    "rift",
		Name:  "Yesterday's Door",
		dims:  [3]int{9, 3, 10},
		build: buildRift,
	},
}

// All lists the built-in levels in a stable order.
func All() []Level {
	return slices.Clone(catalog)
}

func IDs() []string {
	out := make([]string, 0, len(catalog))
	for _, l := range catalog {
		out = append(out, l.ID)
	}
	return out
}

// Load builds a fresh state for level id. The level's name, id and tuning override cfg.
func Load(id string, cfg game.Config) (*game.State, error) {
	for _, l := range catalog {
		if l.ID == id {
			return l.New(cfg)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, id)
}

// Cube builds the level's populated cube.
func (l Level) Cube() (*spacetime.Cube, error) {
	c := spacetime.NewCube(l.dims[0], l.dims[1], l.dims[2])
	if err := l.build(c); err != nil {
		return nil, fmt.Errorf("build level %s: %w", l.ID, err)
	}
	return c, nil
}

// New builds a fresh state for the level.
func (l Level) New(cfg game.Config) (*game.State, error) {
	c, err := l.Cube()
	if err != nil {
		return nil, err
	}
	cfg.LevelID = l.ID
	cfg.LevelName = l.Name
	if l.tune != nil {
		l.tune(&cfg)
	}
	return game.NewStateBuilder().WithCube(c).WithConfig(cfg).Build()
}

func at(x, y int) spacetime.Position { return spacetime.NewPosition(x, y, 0) }

// persist spawns each entity at t=0 and copies it through every later slice.
func persist(c *spacetime.Cube, entities ...spacetime.Entity) error {
	for _, e := range entities {
		if err := c.SpawnAndPropagate(e); err != nil {
			return err
		}
	}
	return nil
}

func wallRow(c *spacetime.Cube, y, fromX, toX int) error {
	for x := fromX; x <= toX; x++ {
		if err := persist(c, spacetime.NewWall(at(x, y))); err != nil {
			return err
		}
	}
	return nil
}

func wallColumn(c *spacetime.Cube, x, fromY, toY int) error {
	for y := fromY; y <= toY; y++ {
		if err := persist(c, spacetime.NewWall(at(x, y))); err != nil {
			return err
		}
	}
	return nil
}

// buildCorridor: walk east along the middle row.
func buildCorridor(c *spacetime.Cube) error {
	if err := c.Spawn(spacetime.NewPlayer(at(1, 1))); err != nil {
		return err
	}
	return persist(c, spacetime.NewExit(at(5, 1)))
}

// buildPush: a box plugs a narrow corridor that opens into a room holding the exit.
func buildPush(c *spacetime.Cube) error {
	if err := wallRow(c, 1, 0, 5); err != nil {
		return err
	}
	if err := wallRow(c, 3, 0, 5); err != nil {
		return err
	}
	if err := c.Spawn(spacetime.NewPlayer(at(1, 2))); err != nil {
		return err
	}
	return persist(c,
		spacetime.NewPushableBox(at(3, 2)).WithName("crate"),
		spacetime.NewExit(at(7, 0)),
	)
}

// buildSentry: a guard patrols the top row; a wall shields the middle row from its sight.
func buildSentry(c *spacetime.Cube) error {
	if err := wallRow(c, 1, 2, 6); err != nil {
		return err
	}
	route := []spacetime.SpatialPos{{X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}, {X: 5, Y: 0}, {X: 6, Y: 0}, {X: 5, Y: 0}, {X: 4, Y: 0}, {X: 3, Y: 0}}
	guard := spacetime.NewEnemy(at(2, 0), spacetime.NewPatrol(route, true), spacetime.NewVisionCone(2, spacetime.South)).WithName("guard")
	if err := c.Spawn(spacetime.NewPlayer(at(0, 2))); err != nil {
		return err
	}
	return persist(c, guard, spacetime.NewExit(at(8, 2)))
}

// buildRift: a solid wall splits the level; a rift leads to the far side in the past.
func buildRift(c *spacetime.Cube) error {
	if err := wallColumn(c, 4, 0, 2); err != nil {
		return err
	}
	if err := c.Spawn(spacetime.NewPlayer(at(1, 1))); err != nil {
		return err
	}
	return persist(c,
		spacetime.NewRift(at(2, 1), at(6, 1), false).WithName("door"),
		spacetime.NewExit(at(7, 1)),
	)
}
