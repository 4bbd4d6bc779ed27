package game

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/unseen/internal/core/detection"
)

// Config is immutable per session.
type Config struct {
	// LightSpeed is the fallback perception speed for enemies whose vision cone carries none.
	LightSpeed   int              `yaml:"light_speed"`
	MaxPushChain int              `yaml:"max_push_chain"`
	LevelName    string           `yaml:"level_name"`
	LevelID      string           `yaml:"level_id"`
	AllowUndo    bool             `yaml:"allow_undo"`
	Detection    detection.Config `yaml:"detection"`
}

func DefaultConfig() Config {
	return Config{
		LightSpeed:   3,
		MaxPushChain: 3,
		LevelName:    "Unnamed",
		LevelID:      "unknown",
		AllowUndo:    false,
		Detection:    detection.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if c.LightSpeed <= 0 {
		return fmt.Errorf("%w: light_speed must be > 0, got %d", ErrInvalidConfig, c.LightSpeed)
	}
	if c.MaxPushChain <= 0 {
		return fmt.Errorf("%w: max_push_chain must be > 0, got %d", ErrInvalidConfig, c.MaxPushChain)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig decodes YAML over the defaults. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open game config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}
