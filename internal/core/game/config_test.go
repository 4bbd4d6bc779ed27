package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/unseen/internal/core/detection"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
light_speed: 2
max_push_chain: 5
level_name: Corridor
level_id: corridor-01
allow_undo: true
detection:
  model: light_cone
  delay_turns: 1
  vision_radius: 4
`))
	require.NoError(t, err)
	assert.Equal(t, Config{
		LightSpeed:   2,
		MaxPushChain: 5,
		LevelName:    "Corridor",
		LevelID:      "corridor-01",
		AllowUndo:    true,
		Detection:    detection.Config{Model: detection.LightCone, DelayTurns: 1, VisionRadius: 4},
	}, cfg)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(strings.NewReader("level_name: Partial\n"))
	require.NoError(t, err)
	assert.Equal(t, "Partial", cfg.LevelName)
	assert.Equal(t, 3, cfg.MaxPushChain)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "lightspeed: 3\n"},
		{"zero light speed", "light_speed: 0\n"},
		{"negative chain", "max_push_chain: -1\n"},
		{"bad model", "detection:\n  model: telepathy\n"},
		{"negative delay", "detection:\n  delay_turns: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(strings.NewReader("light_speed: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = LoadConfig(strings.NewReader("detection:\n  vision_radius: -1\n"))
	assert.ErrorIs(t, err, detection.ErrInvalidConfig)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.yaml")
	require.NoError(t, os.WriteFile(path, []byte("level_id: file-level\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-level", cfg.LevelID)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
