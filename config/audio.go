package config

// SoundID represents a logical sound effect
type SoundID int

const (
	SoundNone SoundID = iota
	SoundBoom
	SoundArm
)

// AudioConfig contains audio-related configuration values
type AudioConfig struct {
	SampleRate     int
	DefaultSFXVol  float64
	HissVolume     float64 // ambient loop volume while any fuse is lit
	BoomDuration   float64 // seconds
	ArmDuration    float64 // seconds
	HissLoopLength float64 // seconds of noise in one loop
}

var Audio AudioConfig

func init() {
	Audio = AudioConfig{
		SampleRate:     44100,
		DefaultSFXVol:  0.8,
		HissVolume:     0.15,
		BoomDuration:   0.6,
		ArmDuration:    0.08,
		HissLoopLength: 0.5,
	}
}
