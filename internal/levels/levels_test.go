package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/unseen/internal/core/detection"
	"github.com/zeusync/unseen/internal/core/game"
	"github.com/zeusync/unseen/internal/core/spacetime"
)

func TestAllLevelsBuild(t *testing.T) {
	assert.Equal(t, []string{"corridor", "push", "sentry", "rift"}, IDs())
	for _, l := range All() {
		t.Run(l.ID, func(t *testing.T) {
			s, err := l.New(game.DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, l.ID, s.Config().LevelID)
			assert.Equal(t, l.Name, s.Config().LevelName)
			assert.True(t, s.IsActive())
			assert.NotEmpty(t, s.ValidActions())
			assert.Equal(t, s.InitialDigest(), s.WorldDigest())
		})
	}
}

func TestLoad(t *testing.T) {
	s, err := Load("sentry", game.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, detection.Config{Model: detection.DiscreteDelay, DelayTurns: 2, VisionRadius: 2}, s.Config().Detection)
	assert.Len(t, s.EnemiesAt(0), 1)

	_, err = Load("atlantis", game.DefaultConfig())
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestLevelsAreFreshEachTime(t *testing.T) {
	a, err := Load("push", game.DefaultConfig())
	require.NoError(t, err)
	b, err := Load("push", game.DefaultConfig())
	require.NoError(t, err)
	assert.NotEqual(t, a.PlayerID(), b.PlayerID())

	res, err := a.Apply(game.Move(spacetime.East))
	require.NoError(t, err)
	assert.NotEqual(t, res.State.WorldDigest(), b.WorldDigest())
}

func TestRiftLevelByHand(t *testing.T) {
	s, err := Load("rift", game.DefaultConfig())
	require.NoError(t, err)

	for _, a := range []game.Action{game.Move(spacetime.East), game.UseRift(), game.Move(spacetime.East)} {
		res, err := s.Apply(a)
		require.NoError(t, err, "%s", a)
		s = res.State
	}
	assert.True(t, s.HasWon())
	assert.Equal(t, spacetime.NewPosition(7, 1, 1), s.PlayerPosition())
}

func TestSentryWatchesTheOpenRow(t *testing.T) {
	s, err := Load("sentry", game.DefaultConfig())
	require.NoError(t, err)

	// Waiting on the guard's row gets the player seen when the patrol comes back.
	for _, a := range []game.Action{game.Move(spacetime.East), game.Move(spacetime.North), game.Move(spacetime.North)} {
		res, err := s.Apply(a)
		require.NoError(t, err, "%s", a)
		s = res.State
	}
	for s.IsActive() && s.Turn() < 12 {
		res, err := s.Apply(game.Wait())
		require.NoError(t, err)
		s = res.State
	}
	assert.Equal(t, game.PhaseDetected, s.Phase())
	assert.Equal(t, 7, s.Turn())
}
