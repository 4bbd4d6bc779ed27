// Package detection decides whether an enemy has perceived the player.
//
// Two causal models are supported. Under DiscreteDelay an enemy at time te sees where the
// player was exactly DelayTurns earlier. Under LightCone an enemy at te sees any recorded
// player position (x, y, tp) with tp < te whose distance fits inside the light cone
// light_speed * (te - tp). Both require the distance to be within VisionRadius and an
// unobstructed line of sight evaluated on the obstacle layout at te.
package detection

import (
	"errors"
	"fmt"

	"github.com/zeusync/unseen/internal/core/spacetime"
	"github.com/zeusync/unseen/internal/core/worldline"
)

// Model selects the perception rule.
type Model uint8

const (
	DiscreteDelay Model = iota
	LightCone
)

func (m Model) String() string {
	switch m {
	case DiscreteDelay:
		return "discrete_delay"
	case LightCone:
		return "light_cone"
	default:
		return fmt.Sprintf("Model(%d)", uint8(m))
	}
}

func (m Model) MarshalText() ([]byte, error) {
	switch m {
	case DiscreteDelay, LightCone:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, uint8(m))
	}
}

func (m *Model) UnmarshalText(text []byte) error {
	switch string(text) {
	case "discrete_delay", "discrete", "":
		*m = DiscreteDelay
	case "light_cone", "lightcone":
		*m = LightCone
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModel, string(text))
	}
	return nil
}

var (
	ErrUnknownModel  = errors.New("unknown detection model")
	ErrInvalidConfig = errors.New("invalid detection config")
)

// Config is the per-level detection setup.
type Config struct {
	Model        Model `yaml:"model"`
	DelayTurns   int   `yaml:"delay_turns"`
	VisionRadius int   `yaml:"vision_radius"`
}

// DefaultConfig is a two-turn discrete delay with radius 8.
func DefaultConfig() Config {
	return Config{Model: DiscreteDelay, DelayTurns: 2, VisionRadius: 8}
}

func (c Config) Validate() error {
	if c.DelayTurns < 0 {
		return fmt.Errorf("%w: delay_turns must be >= 0, got %d", ErrInvalidConfig, c.DelayTurns)
	}
	if c.VisionRadius < 0 {
		return fmt.Errorf("%w: vision_radius must be >= 0, got %d", ErrInvalidConfig, c.VisionRadius)
	}
	if c.Model != DiscreteDelay && c.Model != LightCone {
		return fmt.Errorf("%w: %s", ErrUnknownModel, c.Model)
	}
	return nil
}

// Result identifies the first qualifying observation.
type Result struct {
	EnemyID        spacetime.EntityID
	EnemyPosition  spacetime.Position
	PlayerPosition spacetime.Position
}

// EnemyPositionAt is the enemy's spatial position at te: its patrol waypoint when patrolling,
// otherwise the position of the given instance.
func EnemyPositionAt(enemy spacetime.Entity, te int) spacetime.Position {
	if p, ok := enemy.PatrolData(); ok {
		return p.PositionAt(te).At(te)
	}
	return enemy.Position().Spatial().At(te)
}

// Check scans observation times 0..maxT of the world line, enemies in slice order, and returns
// the first perception found. fallbackLightSpeed is used for enemies whose vision cone has no speed.
func Check(cube *spacetime.Cube, wl *worldline.WorldLine, cfg Config, fallbackLightSpeed int) (Result, bool) {
	maxT := wl.MaxT()
	for te := 0; te <= maxT; te++ {
		for _, enemy := range cube.EnemiesAt(te) {
			enemyPos := EnemyPositionAt(enemy, te)

			var (
				seen spacetime.Position
				ok   bool
			)
			switch cfg.Model {
			case LightCone:
				speed := fallbackLightSpeed
				if v, has := enemy.VisionData(); has && v.LightSpeed > 0 {
					speed = v.LightSpeed
				}
				seen, ok = perceiveLightCone(cube, wl, enemyPos, cfg.VisionRadius, speed)
			default:
				seen, ok = perceiveDiscrete(cube, wl, enemyPos, cfg.DelayTurns, cfg.VisionRadius)
			}

			if ok {
				return Result{EnemyID: enemy.ID(), EnemyPosition: enemyPos, PlayerPosition: seen}, true
			}
		}
	}
	return Result{}, false
}

func perceiveDiscrete(cube *spacetime.Cube, wl *worldline.WorldLine, enemyPos spacetime.Position, delay, radius int) (spacetime.Position, bool) {
	tp := enemyPos.T - delay
	if tp < 0 {
		return spacetime.Position{}, false
	}
	player, ok := wl.LatestAtTime(tp)
	if !ok {
		return spacetime.Position{}, false
	}
	if !visible(cube, enemyPos, player, radius) {
		return spacetime.Position{}, false
	}
	return player, true
}

func perceiveLightCone(cube *spacetime.Cube, wl *worldline.WorldLine, enemyPos spacetime.Position, radius, speed int) (spacetime.Position, bool) {
	for _, player := range wl.All() {
		if player.T >= enemyPos.T {
			continue
		}
		elapsed := enemyPos.T - player.T
		if enemyPos.ManhattanDistance(player) > speed*elapsed {
			continue
		}
		if visible(cube, enemyPos, player, radius) {
			return player, true
		}
	}
	return spacetime.Position{}, false
}

// visible applies the shared radius and line-of-sight gates. Obstruction is evaluated at the enemy's time.
func visible(cube *spacetime.Cube, enemyPos, player spacetime.Position, radius int) bool {
	if enemyPos.ManhattanDistance(player) > radius {
		return false
	}
	return !IsLineBlocked(cube, enemyPos.Spatial(), player.Spatial(), enemyPos.T)
}

// VisionFootprint lists the cells an enemy can see at t within radius, ordered by (y, x).
// Used to render danger zones.
func VisionFootprint(cube *spacetime.Cube, enemy spacetime.Entity, t, radius int) []spacetime.SpatialPos {
	origin := EnemyPositionAt(enemy, t).Spatial()
	var cells []spacetime.SpatialPos
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			cell := spacetime.NewSpatialPos(x, y)
			if !cube.InBounds(cell.At(t)) || origin.ManhattanDistance(cell) > radius {
				continue
			}
			if IsLineBlocked(cube, origin, cell, t) {
				continue
			}
			cells = append(cells, cell)
		}
	}
	return cells
}
