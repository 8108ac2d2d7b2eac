// Package netconfig defines tuning shared between client and server. It must
// have zero dependencies on ebiten or any graphics library so the dedicated
// server binary stays headless.
package netconfig

import (
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	dmath "github.com/yohamta/donburi/features/math"
)

// ArenaTuning describes the static arena box.
type ArenaTuning struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	FloorHeight   float64 `yaml:"floor_height"`
	WallThickness float64 `yaml:"wall_thickness"`
	CellSize      int     `yaml:"cell_size"`
}

// BombTuning contains bomb body physics
type BombTuning struct {
	Radius       float64 `yaml:"radius"`
	Gravity      float64 `yaml:"gravity"`
	MaxFallSpeed float64 `yaml:"max_fall_speed"`
	Friction     float64 `yaml:"friction"`
	Restitution  float64 `yaml:"restitution"`
	RestSpeed    float64 `yaml:"rest_speed"`   // bounce speeds under this settle
	ImpactSpeed  float64 `yaml:"impact_speed"` // landing speed that sets off a lit bomb
	MaxBombs     int     `yaml:"max_bombs"`
}

// ChainTuning controls chain reactions between bombs.
type ChainTuning struct {
	Radius float64 `yaml:"chain_radius"` // bombs inside this radius are set off
	Delay  int     `yaml:"chain_delay"`  // ticks before a chained bomb goes off
}

// CordTuning sizes the fuse cord. The cord tip is where a timed-out fuse
// detonates, so client and server must agree on it.
type CordTuning struct {
	RestLength float64 `yaml:"rest_length"` // pixels
	PixelsPer  float64 `yaml:"pixels_per"`  // pixels drawn in per unit of pull
}

// Geometry hangs the cord off the top of a bomb of the given radius,
// leaning right.
func (c CordTuning) Geometry(bombRadius float64) gamemath.CordGeometry {
	return gamemath.CordGeometry{
		Anchor:     dmath.Vec2{X: 0, Y: -bombRadius},
		Direction:  dmath.Vec2{X: 0.6, Y: -0.8},
		RestLength: c.RestLength,
		PixelsPer:  c.PixelsPer,
	}
}

// Countdown seconds used when an arm request names no duration.
const DefaultArmDuration = 3.0

func DefaultFuse() fuse.Config {
	return fuse.Config{
		JitterRate: 0.01,
		PullRate:   0.06,
		MaxPull:    0.2,
	}
}

func DefaultArena() ArenaTuning {
	return ArenaTuning{
		Width:         640,
		Height:        360,
		FloorHeight:   24,
		WallThickness: 16,
		CellSize:      16,
	}
}

func DefaultBomb() BombTuning {
	return BombTuning{
		Radius:       8,
		Gravity:      0.35,
		MaxFallSpeed: 10,
		Friction:     0.05,
		Restitution:  0.4,
		RestSpeed:    0.8,
		ImpactSpeed:  9,
		MaxBombs:     32,
	}
}

func DefaultChain() ChainTuning {
	return ChainTuning{
		Radius: 48,
		Delay:  6,
	}
}

func DefaultCord() CordTuning {
	return CordTuning{
		RestLength: 18,
		PixelsPer:  80,
	}
}
