package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/unseen/internal/core/detection"
	"github.com/zeusync/unseen/internal/core/spacetime"
	"github.com/zeusync/unseen/internal/core/worldline"
)

func pos(x, y, t int) spacetime.Position { return spacetime.NewPosition(x, y, t) }

func newState(t *testing.T, cube *spacetime.Cube, cfg Config) *State {
	t.Helper()
	s, err := NewState(cube, cfg)
	require.NoError(t, err)
	return s
}

func apply(t *testing.T, s *State, a Action) Result {
	t.Helper()
	res, err := s.Apply(a)
	require.NoError(t, err, "apply %s", a)
	return res
}

func spawnPersistent(t *testing.T, c *spacetime.Cube, e spacetime.Entity) spacetime.Entity {
	t.Helper()
	require.NoError(t, c.SpawnAndPropagate(e))
	return e
}

func TestScenarioSimpleWin(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	spawnPersistent(t, c, spacetime.NewExit(pos(2, 1, 0)))
	s := newState(t, c, DefaultConfig())

	res := apply(t, s, Move(spacetime.East))

	assert.Equal(t, PhaseWon, res.State.Phase())
	assert.Equal(t, Won{At: pos(2, 1, 1)}, res.Outcome)
	assert.True(t, res.State.HasWon())
	assert.True(t, res.State.AtExit())
	assert.Equal(t, 1, res.State.Turn())
}

func TestScenarioPush(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	box := spawnPersistent(t, c, spacetime.NewPushableBox(pos(2, 1, 0)))
	s := newState(t, c, DefaultConfig())

	res := apply(t, s, Push(spacetime.East))
	next := res.State

	assert.Equal(t, pos(2, 1, 1), next.PlayerPosition())
	got, ok := next.Cube().EntityAtTime(box.ID(), 1)
	require.True(t, ok)
	assert.Equal(t, pos(3, 1, 1), got.Position())

	// The past is untouched and the future follows the moved box.
	got, ok = next.Cube().EntityAtTime(box.ID(), 0)
	require.True(t, ok)
	assert.Equal(t, pos(2, 1, 0), got.Position())
	for tt := 2; tt < 5; tt++ {
		got, ok = next.Cube().EntityAtTime(box.ID(), tt)
		require.True(t, ok)
		assert.Equal(t, pos(3, 1, tt), got.Position())
	}

	pushed, ok := res.Outcome.(Pushed)
	require.True(t, ok, "outcome %T", res.Outcome)
	assert.Equal(t, pos(2, 1, 1), pushed.PlayerTo)
	require.Len(t, pushed.Pushed, 1)
	assert.Equal(t, Displacement{ID: box.ID(), From: pos(2, 1, 0), To: pos(3, 1, 1)}, pushed.Pushed[0])

	require.Len(t, res.Moved, 2)
	assert.Equal(t, s.PlayerID(), res.Moved[0].ID)
	require.NotNil(t, res.Propagation)
	assert.Equal(t, 1, res.Propagation.Context.DirtyFrom)
	assert.Equal(t, 3, res.Propagation.Context.SlicesUpdated)
}

func TestScenarioDetection(t *testing.T) {
	c := spacetime.NewCube(8, 5, 6)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(2, 2, 0))))
	at := spacetime.NewSpatialPos(5, 2)
	enemy := spawnPersistent(t, c, spacetime.NewEnemy(at.At(0), spacetime.NewPatrol([]spacetime.SpatialPos{at}, true), spacetime.OmnidirectionalVision(3)))

	cfg := DefaultConfig()
	cfg.Detection = detection.Config{Model: detection.DiscreteDelay, DelayTurns: 2, VisionRadius: 5}
	s := newState(t, c, cfg)

	res := apply(t, s, Wait())
	assert.Equal(t, PhasePlaying, res.State.Phase())
	assert.Equal(t, Waited{At: pos(2, 2, 1)}, res.Outcome)

	res = apply(t, res.State, Wait())
	assert.Equal(t, PhaseDetected, res.State.Phase())
	detected, ok := res.Outcome.(Detected)
	require.True(t, ok, "outcome %T", res.Outcome)
	assert.Equal(t, enemy.ID(), detected.By)
	assert.Equal(t, pos(2, 2, 0), detected.SeenAt)
}

func TestScenarioRestart(t *testing.T) {
	c := spacetime.NewCube(6, 6, 6)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	spawnPersistent(t, c, spacetime.NewPushableBox(pos(2, 1, 0)))
	s := newState(t, c, DefaultConfig())
	start := s.WorldDigest()
	assert.Equal(t, start, s.InitialDigest())

	cur := s
	for _, a := range []Action{Push(spacetime.East), Wait(), Move(spacetime.South), Move(spacetime.West)} {
		cur = apply(t, cur, a).State
	}
	require.NotEqual(t, start, cur.WorldDigest())
	require.Len(t, cur.History(), 4)

	res := apply(t, cur, Restart())
	restarted := res.State
	assert.Equal(t, Restarted{}, res.Outcome)
	assert.Equal(t, start, restarted.WorldDigest())
	assert.Equal(t, s.Digest(), restarted.Digest())
	assert.Equal(t, PhasePlaying, restarted.Phase())
	assert.Zero(t, restarted.Turn())
	assert.Empty(t, restarted.History())
	assert.Equal(t, pos(1, 1, 0), restarted.PlayerPosition())

	// The restarted world is independent of the snapshot.
	again := apply(t, restarted, Push(spacetime.East)).State
	assert.Equal(t, start, again.InitialDigest())
	assert.Equal(t, start, restarted.WorldDigest())
}

func TestPushChainBound(t *testing.T) {
	const maxChain = 3
	build := func(k int, wallAfter bool) *State {
		c := spacetime.NewCube(12, 3, 4)
		require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(0, 1, 0))))
		for i := 1; i <= k; i++ {
			spawnPersistent(t, c, spacetime.NewPushableBox(pos(i, 1, 0)))
		}
		if wallAfter {
			spawnPersistent(t, c, spacetime.NewWall(pos(k+1, 1, 0)))
		}
		cfg := DefaultConfig()
		cfg.MaxPushChain = maxChain
		return newState(t, c, cfg)
	}

	for k := 1; k <= maxChain; k++ {
		s := build(k, false)
		res, err := s.Apply(Push(spacetime.East))
		require.NoError(t, err, "k=%d", k)
		pushed := res.Outcome.(Pushed)
		assert.Len(t, pushed.Pushed, k)
		for i, d := range pushed.Pushed {
			assert.Equal(t, pos(i+2, 1, 1), d.To)
		}
	}

	for _, wall := range []bool{false, true} {
		s := build(maxChain+1, wall)
		err := s.Validate(Push(spacetime.East))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPushChainTooLong)
		assert.NotErrorIs(t, err, ErrPushBlocked)
		assert.Equal(t, ErrorCodePushChainTooLong, GetErrorCode(err))

		var ae *ActionError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, maxChain+1, ae.Context["chain_length"])
	}

	s := build(maxChain, true)
	err := s.Validate(Push(spacetime.East))
	assert.ErrorIs(t, err, ErrPushBlocked)
	assert.ErrorIs(t, err, spacetime.ErrPositionBlocked)
	var me *MoveError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, MoveBlockedByEntity, me.Reason)
	assert.Equal(t, spacetime.TypeWall, me.BlockerType)
}

func TestNothingToPush(t *testing.T) {
	c := spacetime.NewCube(5, 5, 3)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	s := newState(t, c, DefaultConfig())

	_, err := s.Apply(Push(spacetime.North))
	assert.ErrorIs(t, err, ErrNothingToPush)
}

func TestPull(t *testing.T) {
	build := func(behind func(spacetime.Position) spacetime.Entity) (*State, spacetime.Entity) {
		c := spacetime.NewCube(6, 3, 4)
		require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(2, 1, 0))))
		var e spacetime.Entity
		if behind != nil {
			e = spawnPersistent(t, c, behind(pos(1, 1, 0)))
		}
		return newState(t, c, DefaultConfig()), e
	}

	t.Run("pullable", func(t *testing.T) {
		s, box := build(spacetime.NewPullableBox)
		res := apply(t, s, Pull(spacetime.East))

		assert.Equal(t, pos(3, 1, 1), res.State.PlayerPosition())
		assert.Equal(t, Pulled{
			PlayerTo: pos(3, 1, 1),
			Pulled:   Displacement{ID: box.ID(), From: pos(1, 1, 0), To: pos(2, 1, 1)},
		}, res.Outcome)

		got, ok := res.State.Cube().EntityAtTime(box.ID(), 3)
		require.True(t, ok)
		assert.Equal(t, pos(2, 1, 3), got.Position())
	})

	t.Run("not pullable", func(t *testing.T) {
		s, box := build(spacetime.NewPushableBox)
		err := s.Validate(Pull(spacetime.East))
		require.ErrorIs(t, err, ErrNotPullable)
		var ae *ActionError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, box.ID(), ae.Context["entity_id"])
	})

	t.Run("nothing", func(t *testing.T) {
		s, _ := build(nil)
		assert.ErrorIs(t, s.Validate(Pull(spacetime.East)), ErrNothingToPull)
		assert.ErrorIs(t, s.Validate(Pull(spacetime.West)), ErrNothingToPull)
	})
}

func TestMoveValidation(t *testing.T) {
	c := spacetime.NewCube(4, 4, 2)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(0, 1, 0))))
	spawnPersistent(t, c, spacetime.NewWall(pos(1, 1, 0)))
	s := newState(t, c, DefaultConfig())

	err := s.Validate(Move(spacetime.East))
	require.ErrorIs(t, err, ErrMoveBlocked)
	var me *MoveError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, MoveBlockedByEntity, me.Reason)
	assert.Equal(t, spacetime.TypeWall, me.BlockerType)

	err = s.Validate(Move(spacetime.West))
	require.ErrorAs(t, err, &me)
	assert.Equal(t, MoveOutOfBounds, me.Reason)
	assert.ErrorIs(t, err, spacetime.ErrOutOfBounds)

	next := apply(t, s, Wait()).State
	err = next.Validate(Wait())
	require.ErrorAs(t, err, &me)
	assert.Equal(t, MoveTimeOverflow, me.Reason)
	assert.Equal(t, 1, me.MaxT)

	assert.False(t, s.CanMoveTo(pos(1, 1, 1)))
	assert.True(t, s.CanMoveTo(pos(0, 2, 1)))
	assert.False(t, next.CanMoveTo(pos(0, 1, 1)))
	assert.ErrorIs(t, next.ValidatePosition(pos(0, 1, 1)), worldline.ErrSelfIntersection)
}

func TestRift(t *testing.T) {
	build := func(target spacetime.Position) *State {
		c := spacetime.NewCube(5, 5, 5)
		require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
		spawnPersistent(t, c, spacetime.NewRift(pos(1, 1, 0), target, false))
		return newState(t, c, DefaultConfig())
	}

	s := build(pos(3, 3, 3))
	assert.True(t, s.AtRift())
	target, ok := s.RiftTarget()
	require.True(t, ok)
	assert.Equal(t, pos(3, 3, 3), target)

	next := apply(t, s, Wait()).State
	res := apply(t, next, UseRift())
	assert.Equal(t, Rifted{From: pos(1, 1, 1), To: pos(3, 3, 3)}, res.Outcome)
	assert.Equal(t, pos(3, 3, 3), res.State.PlayerPosition())
	assert.Equal(t, 2, res.State.Turn())

	player, ok := res.State.Cube().PlayerAt(3)
	require.True(t, ok)
	assert.Equal(t, pos(3, 3, 3), player.Position())
	_, ok = res.State.Cube().PlayerAt(1)
	assert.False(t, ok)

	// A rift into the past.
	back := build(pos(4, 4, 0))
	stepped := apply(t, apply(t, back, Wait()).State, UseRift()).State
	assert.Equal(t, []spacetime.Position{pos(4, 4, 0)}, stepped.GhostsAt(0)[1:])
	assert.Equal(t, 0, stepped.CurrentTime())

	err := build(pos(9, 9, 0)).Validate(UseRift())
	assert.ErrorIs(t, err, ErrInvalidRiftTarget)
	assert.ErrorIs(t, err, spacetime.ErrOutOfBounds)

	err = build(pos(1, 1, 0)).Validate(UseRift())
	assert.ErrorIs(t, err, ErrInvalidRiftTarget)
	assert.ErrorIs(t, err, worldline.ErrSelfIntersection)

	_, err = apply(t, s, Move(spacetime.East)).State.Apply(UseRift())
	assert.ErrorIs(t, err, ErrNoRiftHere)
}

func TestDetectionTakesPrecedenceOverWin(t *testing.T) {
	c := spacetime.NewCube(6, 5, 4)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 2, 0))))
	spawnPersistent(t, c, spacetime.NewExit(pos(2, 2, 0)))
	at := spacetime.NewSpatialPos(4, 2)
	spawnPersistent(t, c, spacetime.NewEnemy(at.At(0), spacetime.NewPatrol([]spacetime.SpatialPos{at}, true), spacetime.OmnidirectionalVision(3)))

	cfg := DefaultConfig()
	cfg.Detection = detection.Config{Model: detection.DiscreteDelay, DelayTurns: 0, VisionRadius: 5}
	s := newState(t, c, cfg)

	res := apply(t, s, Move(spacetime.East))
	assert.Equal(t, PhaseDetected, res.State.Phase())
	assert.IsType(t, Detected{}, res.Outcome)
	assert.True(t, res.State.AtExit())
}

func TestInactiveStateRejectsActions(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	spawnPersistent(t, c, spacetime.NewExit(pos(2, 1, 0)))
	won := apply(t, newState(t, c, DefaultConfig()), Move(spacetime.East)).State

	for _, a := range []Action{Wait(), Move(spacetime.North), Push(spacetime.East), UseRift()} {
		_, err := won.Apply(a)
		assert.ErrorIs(t, err, ErrNotActive, "%s", a)
		assert.Equal(t, ErrorCodeNotActive, GetErrorCode(err))
		assert.ErrorIs(t, won.Validate(a), ErrNotActive)
		_, err = won.Preview(a)
		assert.ErrorIs(t, err, ErrNotActive)
	}
	assert.Empty(t, won.ValidActions())
	assert.Empty(t, won.ReachablePositions())

	res := apply(t, won, Restart())
	assert.True(t, res.State.IsActive())
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	spawnPersistent(t, c, spacetime.NewPushableBox(pos(2, 1, 0)))
	s := newState(t, c, DefaultConfig())
	before := s.Digest()

	_ = apply(t, s, Push(spacetime.East))
	_, err := s.Apply(Move(spacetime.East))
	require.Error(t, err)

	assert.Equal(t, before, s.Digest())
	assert.Equal(t, pos(1, 1, 0), s.PlayerPosition())
	assert.Zero(t, s.Turn())
	assert.Empty(t, s.History())
}

func TestNewStateCopiesCube(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	s := newState(t, c, DefaultConfig())
	before := s.Digest()

	spawnPersistent(t, c, spacetime.NewWall(pos(2, 1, 0)))

	assert.Equal(t, before, s.Digest())
	assert.Equal(t, s.InitialDigest(), s.WorldDigest())
	assert.False(t, s.Cube().BlocksMovement(pos(2, 1, 1)))
	res := apply(t, s, Move(spacetime.East))
	assert.Equal(t, pos(2, 1, 1), res.State.PlayerPosition())
}

func TestPreviewDoesNotDecideOutcome(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	spawnPersistent(t, c, spacetime.NewExit(pos(2, 1, 0)))
	s := newState(t, c, DefaultConfig())

	out, err := s.Preview(Move(spacetime.East))
	require.NoError(t, err)
	assert.Equal(t, Moved{From: pos(1, 1, 0), To: pos(2, 1, 1)}, out)
	assert.Equal(t, PhasePlaying, s.Phase())

	out, err = s.Preview(Restart())
	require.NoError(t, err)
	assert.Equal(t, Restarted{}, out)
}

func TestValidActionsAndReachable(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(2, 2, 0))))
	s := newState(t, c, DefaultConfig())

	actions := s.ValidActions()
	assert.Equal(t, []Action{
		Move(spacetime.North), Move(spacetime.South), Move(spacetime.East), Move(spacetime.West),
		Wait(), Restart(),
	}, actions)

	reachable := s.ReachablePositions()
	require.Len(t, reachable, 5)
	assert.Equal(t, Reachable{Position: pos(2, 1, 1), Action: Move(spacetime.North)}, reachable[0])
	assert.Equal(t, Reachable{Position: pos(2, 2, 1), Action: Wait()}, reachable[4])

	spawnPersistent(t, c, spacetime.NewPullableBox(pos(3, 2, 0)))
	s = newState(t, c, DefaultConfig())
	actions = s.ValidActions()
	assert.Contains(t, actions, Push(spacetime.East))
	assert.Contains(t, actions, Pull(spacetime.West))
	assert.NotContains(t, actions, Move(spacetime.East))
}

func TestNewStateErrors(t *testing.T) {
	_, err := NewState(spacetime.NewCube(3, 3, 3), DefaultConfig())
	assert.ErrorIs(t, err, ErrNoPlayer)

	c := spacetime.NewCube(3, 3, 3)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(0, 0, 0))))
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 2))))
	_, err = NewState(c, DefaultConfig())
	assert.ErrorIs(t, err, ErrMultiplePlayers)

	_, err = NewStateBuilder().Build()
	assert.ErrorIs(t, err, ErrMissingCube)

	bad := DefaultConfig()
	bad.MaxPushChain = 0
	c = spacetime.NewCube(3, 3, 3)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(0, 0, 0))))
	_, err = NewStateBuilder().WithCube(c).WithConfig(bad).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewStateBuilder().WithCube(c).Build()
	require.NoError(t, err)
	assert.Equal(t, "Unnamed", s.Config().LevelName)
}

func TestInspection(t *testing.T) {
	c := spacetime.NewCube(6, 6, 4)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(0, 0, 0))))
	spawnPersistent(t, c, spacetime.NewWall(pos(3, 3, 0)))
	at := spacetime.NewSpatialPos(5, 5)
	enemy := spawnPersistent(t, c, spacetime.NewEnemy(at.At(0), spacetime.NewPatrol([]spacetime.SpatialPos{at, {X: 5, Y: 4}}, true), spacetime.OmnidirectionalVision(2)))

	cfg := DefaultConfig()
	cfg.Detection.VisionRadius = 1
	s := newState(t, c, cfg)

	assert.Equal(t, []spacetime.EntityType{spacetime.TypeWall}, s.EntityTypesAt(pos(3, 3, 2)))
	assert.Equal(t, []spacetime.EntityType{spacetime.TypePlayer}, s.EntityTypesAt(pos(0, 0, 0)))
	wall, ok := s.BlockingEntityAt(pos(3, 3, 1))
	require.True(t, ok)
	_, ok = s.BlockingEntityAt(pos(3, 3, 1), wall.ID())
	assert.False(t, ok)

	enemies := s.EnemiesAt(1)
	require.Len(t, enemies, 1)
	assert.Equal(t, enemy.ID(), enemies[0].ID)
	assert.Equal(t, pos(5, 4, 1), enemies[0].Position)
	assert.Equal(t, 2, enemies[0].Vision.LightSpeed)

	assert.Equal(t, []spacetime.SpatialPos{{X: 5, Y: 4}, {X: 4, Y: 5}, {X: 5, Y: 5}}, s.DangerZone(0))
	assert.Equal(t, []spacetime.Position{pos(0, 0, 0)}, s.GhostsAt(0))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, ErrorCodeNone, GetErrorCode(nil))
	assert.Equal(t, ErrorCodePushBlocked, GetErrorCode(ErrPushBlocked))
	assert.Equal(t, ErrorCodeUnknown, GetErrorCode(errors.New("boom")))

	ae := NewActionError(ErrorCodeInternal, "internal error: x", errors.New("cause"))
	assert.True(t, ae.IsInternal())
	assert.ErrorIs(t, ae, ErrInternal)
	assert.True(t, strings.HasSuffix(ae.Error(), ": cause"))
}

func TestParseAction(t *testing.T) {
	for _, a := range []Action{Move(spacetime.West), Wait(), UseRift(), Push(spacetime.North), Pull(spacetime.South), Restart()} {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAction("jump")
	assert.Error(t, err)
	_, err = ParseAction("move up")
	assert.Error(t, err)
}

func TestSimulateMatchesApply(t *testing.T) {
	c := spacetime.NewCube(5, 5, 5)
	require.NoError(t, c.Spawn(spacetime.NewPlayer(pos(1, 1, 0))))
	spawnPersistent(t, c, spacetime.NewPushableBox(pos(2, 1, 0)))
	spawnPersistent(t, c, spacetime.NewExit(pos(3, 2, 0)))
	s := newState(t, c, DefaultConfig())

	for _, a := range []Action{Push(spacetime.East), Move(spacetime.South), Move(spacetime.East)} {
		applied, err := s.Apply(a)
		require.NoError(t, err)
		simulated, err := s.Simulate(a)
		require.NoError(t, err)
		assert.Equal(t, applied.State.Digest(), simulated.State.Digest())
		assert.Equal(t, applied.Outcome, simulated.Outcome)
		s = applied.State
	}
	assert.True(t, s.HasWon())

	_, err := s.Simulate(Wait())
	assert.ErrorIs(t, err, ErrNotActive)
}
