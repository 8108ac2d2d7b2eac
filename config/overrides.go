package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides is the on-disk tuning file. Missing sections keep their defaults.
type Overrides struct {
	Fuse        *FuseConfig        `yaml:"fuse"`
	Cord        *CordConfig        `yaml:"cord"`
	Bomb        *BombConfig        `yaml:"bomb"`
	Explosion   *ExplosionConfig   `yaml:"explosion"`
	ScreenShake *ScreenShakeConfig `yaml:"screen_shake"`
}

// ParseOverrides decodes a tuning document. Sections are decoded on top of the
// current globals so a file may set single fields.
func ParseOverrides(data []byte) (*Overrides, error) {
	fuseCfg, cordCfg, bombCfg, explosionCfg, shakeCfg := Fuse, Cord, Bomb, Explosion, ScreenShake
	o := &Overrides{
		Fuse:        &fuseCfg,
		Cord:        &cordCfg,
		Bomb:        &bombCfg,
		Explosion:   &explosionCfg,
		ScreenShake: &shakeCfg,
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("parse tuning overrides: %w", err)
	}
	if err := o.Fuse.Controller().Validate(); err != nil {
		return nil, err
	}
	if o.Fuse.DefaultDuration <= 0 || o.Fuse.RearmDuration <= 0 {
		return nil, fmt.Errorf("parse tuning overrides: fuse durations must be positive")
	}
	return o, nil
}

// Apply installs the overrides into the package globals.
func (o *Overrides) Apply() {
	if o.Fuse != nil {
		Fuse = *o.Fuse
	}
	if o.Cord != nil {
		Cord = *o.Cord
	}
	if o.Bomb != nil {
		Bomb = *o.Bomb
	}
	if o.Explosion != nil {
		Explosion = *o.Explosion
	}
	if o.ScreenShake != nil {
		ScreenShake = *o.ScreenShake
	}
}

// LoadOverrides reads and applies a tuning file. A missing file is not an
// error; the defaults stay in place.
func LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read tuning overrides %s: %w", path, err)
	}
	o, err := ParseOverrides(data)
	if err != nil {
		return err
	}
	o.Apply()
	return nil
}
