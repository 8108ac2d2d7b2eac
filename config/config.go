package config

import (
	"image/color"

	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/automoto/doomerang-fuse/shared/netconfig"
	"github.com/yohamta/donburi/ecs"
)

// Config holds general game configuration
type Config struct {
	Width  int
	Height int
	TPS    int // simulation ticks per second
}

// FuseConfig contains timed fuse tuning
type FuseConfig struct {
	JitterRate      float64 `yaml:"jitter_rate"`      // cord drift per second while lit, unarmed
	PullRate        float64 `yaml:"pull_rate"`        // cord pull per second while counting down
	MaxPull         float64 `yaml:"max_pull"`         // cap on armed pull
	DefaultDuration float64 `yaml:"default_duration"` // countdown seconds used by the arm action
	RearmDuration   float64 `yaml:"rearm_duration"`   // countdown seconds used by the re-arm action
	PullRateStep    float64 `yaml:"pull_rate_step"`   // tuning step for the pull rate keys
}

// Controller returns the immutable part handed to each fuse controller.
func (f FuseConfig) Controller() fuse.Config {
	return fuse.Config{
		JitterRate: f.JitterRate,
		PullRate:   f.PullRate,
		MaxPull:    f.MaxPull,
	}
}

// CordConfig describes the drawn fuse cord
type CordConfig struct {
	netconfig.CordTuning `yaml:",inline"`
	Width                float32 `yaml:"width"`
	SparkSize            float32 `yaml:"spark_size"`
}

// Geometry returns the cord geometry for a bomb of the configured size.
func (c CordConfig) Geometry() gamemath.CordGeometry {
	return c.CordTuning.Geometry(Bomb.Radius)
}

// BombConfig contains bomb body physics plus client-only placement tuning
type BombConfig struct {
	netconfig.BombTuning `yaml:",inline"`
	ThrowSpeed           float64 `yaml:"throw_speed"`
}

// ExplosionConfig contains detonation effect and chain reaction tuning
type ExplosionConfig struct {
	ChainRadius   float64 `yaml:"chain_radius"`   // bombs inside this radius are set off
	ChainDelay    int     `yaml:"chain_delay"`    // frames before a chained bomb goes off
	RingRadius    float64 `yaml:"ring_radius"`    // final radius of the blast ring
	RingDuration  float64 `yaml:"ring_duration"`  // seconds the ring takes to expand
	LifetimeTicks int     `yaml:"lifetime_ticks"` // frames the explosion entity lives
}

// ScreenShakeConfig contains screen shake tuning
type ScreenShakeConfig struct {
	DetonationIntensity float64 `yaml:"detonation_intensity"` // pixels at the blast center
	DetonationDuration  int     `yaml:"detonation_duration"`  // frames
}

// ArenaConfig describes the static arena geometry
type ArenaConfig struct {
	FloorHeight   float64
	WallThickness float64
	CellSize      int
}

// UIConfig contains HUD layout and colors
type UIConfig struct {
	BarWidth      float64
	BarHeight     float64
	BarOffsetY    float64
	BackgroundCol color.RGBA
	FloorColor    color.RGBA
	BombColor     color.RGBA
	CordColor     color.RGBA
	SparkColor    color.RGBA
	RingColor     color.RGBA
}

// DebugConfig contains debug/testing options
type DebugConfig struct {
	ShowBodies bool // outline resolv bodies
}

// Global configuration instances
var C *Config
var Fuse FuseConfig
var Cord CordConfig
var Bomb BombConfig
var Explosion ExplosionConfig
var ScreenShake ScreenShakeConfig
var Arena ArenaConfig
var UI UIConfig
var Debug DebugConfig

// Render layers
const (
	Default ecs.LayerID = iota
	HUD
)

// Shared RGBA color constants
var (
	White        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow       = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	BrightYellow = color.RGBA{R: 255, G: 255, B: 100, A: 255}
	Orange       = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Red          = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green        = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	DarkGray     = color.RGBA{R: 40, G: 40, B: 48, A: 255}
	Charcoal     = color.RGBA{R: 20, G: 20, B: 26, A: 255}
	Tan          = color.RGBA{R: 190, G: 160, B: 110, A: 255}
	BlackOverlay = color.RGBA{R: 0, G: 0, B: 0, A: 180}
)

func init() {
	Reset()
}

// Reset restores every global to its built-in default.
func Reset() {
	arena := netconfig.DefaultArena()
	fuseDefaults := netconfig.DefaultFuse()
	chain := netconfig.DefaultChain()

	C = &Config{
		Width:  int(arena.Width),
		Height: int(arena.Height),
		TPS:    60,
	}

	Fuse = FuseConfig{
		JitterRate:      fuseDefaults.JitterRate,
		PullRate:        fuseDefaults.PullRate,
		MaxPull:         fuseDefaults.MaxPull,
		DefaultDuration: netconfig.DefaultArmDuration,
		RearmDuration:   netconfig.DefaultArmDuration,
		PullRateStep:    0.01,
	}

	Cord = CordConfig{
		CordTuning: netconfig.DefaultCord(),
		Width:      2,
		SparkSize:  3,
	}

	Bomb = BombConfig{
		BombTuning: netconfig.DefaultBomb(),
		ThrowSpeed: 4,
	}

	Explosion = ExplosionConfig{
		ChainRadius:   chain.Radius,
		ChainDelay:    chain.Delay,
		RingRadius:    40,
		RingDuration:  0.35,
		LifetimeTicks: 30,
	}

	ScreenShake = ScreenShakeConfig{
		DetonationIntensity: 5.0,
		DetonationDuration:  12,
	}

	Arena = ArenaConfig{
		FloorHeight:   arena.FloorHeight,
		WallThickness: arena.WallThickness,
		CellSize:      arena.CellSize,
	}

	UI = UIConfig{
		BarWidth:      20,
		BarHeight:     3,
		BarOffsetY:    14,
		BackgroundCol: Charcoal,
		FloorColor:    DarkGray,
		BombColor:     Tan,
		CordColor:     White,
		SparkColor:    BrightYellow,
		RingColor:     Orange,
	}

	Debug = DebugConfig{}
}
