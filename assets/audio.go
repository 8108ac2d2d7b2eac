package assets

import (
	"bytes"
	"fmt"
	"io"

	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

const noiseSeed = 7

// AudioLoader builds and caches the synthesized sounds
type AudioLoader struct {
	sfxCache map[cfg.SoundID][]byte // decoded PCM per sound
	context  *audio.Context
}

// NewAudioLoader creates a new audio loader with the given context
func NewAudioLoader(ctx *audio.Context) *AudioLoader {
	return &AudioLoader{
		sfxCache: make(map[cfg.SoundID][]byte),
		context:  ctx,
	}
}

// SoundWAV returns the WAV document for a sound effect.
func SoundWAV(id cfg.SoundID, sampleRate int) ([]byte, error) {
	switch id {
	case cfg.SoundBoom:
		return EncodeWAV(Boom(sampleRate, cfg.Audio.BoomDuration, noiseSeed), sampleRate), nil
	case cfg.SoundArm:
		return EncodeWAV(Blip(sampleRate, cfg.Audio.ArmDuration, 880), sampleRate), nil
	default:
		return nil, fmt.Errorf("unknown sound %d", id)
	}
}

// PreloadSFX synthesizes and decodes a sound effect without creating a player.
func (l *AudioLoader) PreloadSFX(id cfg.SoundID) error {
	if _, ok := l.sfxCache[id]; ok {
		return nil
	}

	data, err := SoundWAV(id, l.context.SampleRate())
	if err != nil {
		return err
	}

	stream, err := wav.DecodeWithSampleRate(l.context.SampleRate(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode sound %d: %w", id, err)
	}
	decoded, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("failed to read decoded sound %d: %w", id, err)
	}

	l.sfxCache[id] = decoded
	return nil
}

// LoadSFX returns a new player for a sound effect each time.
func (l *AudioLoader) LoadSFX(id cfg.SoundID) (*audio.Player, error) {
	if err := l.PreloadSFX(id); err != nil {
		return nil, err
	}
	return l.context.NewPlayer(bytes.NewReader(l.sfxCache[id]))
}

// LoadHissLoop returns a looping player for the lit fuse hiss.
func (l *AudioLoader) LoadHissLoop() (*audio.Player, error) {
	pcm := Hiss(l.context.SampleRate(), cfg.Audio.HissLoopLength, noiseSeed)
	loop := audio.NewInfiniteLoop(bytes.NewReader(pcm), int64(len(pcm)))
	return l.context.NewPlayer(loop)
}
