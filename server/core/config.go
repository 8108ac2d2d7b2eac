package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/netconfig"
	"gopkg.in/yaml.v3"
)

// Config is the server's game tuning. Zero fields in a loaded file keep
// their defaults.
type Config struct {
	Name               string                `yaml:"name"`
	Version            string                `yaml:"version"` // required client version, empty accepts any
	TickRate           int                   `yaml:"tick_rate"`
	DefaultArmDuration float64               `yaml:"default_arm_duration"`
	Fuse               fuseYAML              `yaml:"fuse"`
	Arena              netconfig.ArenaTuning `yaml:"arena"`
	Bomb               netconfig.BombTuning  `yaml:"bomb"`
	Chain              netconfig.ChainTuning `yaml:"chain"`
	Cord               netconfig.CordTuning  `yaml:"cord"`
}

type fuseYAML struct {
	JitterRate float64 `yaml:"jitter_rate"`
	PullRate   float64 `yaml:"pull_rate"`
	MaxPull    float64 `yaml:"max_pull"`
}

func (f fuseYAML) controller() fuse.Config {
	return fuse.Config{JitterRate: f.JitterRate, PullRate: f.PullRate, MaxPull: f.MaxPull}
}

func DefaultConfig() Config {
	f := netconfig.DefaultFuse()
	return Config{
		Name:               "Doomerang Fuse Server",
		TickRate:           20,
		DefaultArmDuration: netconfig.DefaultArmDuration,
		Fuse:               fuseYAML{JitterRate: f.JitterRate, PullRate: f.PullRate, MaxPull: f.MaxPull},
		Arena:              netconfig.DefaultArena(),
		Bomb:               netconfig.DefaultBomb(),
		Chain:              netconfig.DefaultChain(),
		Cord:               netconfig.DefaultCord(),
	}
}

var ErrInvalidConfig = errors.New("invalid server config")

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick rate must be positive, got %d", ErrInvalidConfig, c.TickRate)
	}
	if c.DefaultArmDuration <= 0 {
		return fmt.Errorf("%w: default arm duration must be positive, got %v", ErrInvalidConfig, c.DefaultArmDuration)
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 || c.Arena.CellSize <= 0 {
		return fmt.Errorf("%w: arena size and cell size must be positive", ErrInvalidConfig)
	}
	if c.Bomb.Radius <= 0 {
		return fmt.Errorf("%w: bomb radius must be positive, got %v", ErrInvalidConfig, c.Bomb.Radius)
	}
	if c.Chain.Radius < 0 || c.Chain.Delay < 0 {
		return fmt.Errorf("%w: chain radius and delay must not be negative", ErrInvalidConfig)
	}
	return c.Fuse.controller().Validate()
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read server config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse server config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
