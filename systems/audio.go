package systems

import (
	"sync"

	"github.com/automoto/doomerang-fuse/assets"
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi/ecs"
)

// AudioPlayer plays what the audio system asks for.
type AudioPlayer interface {
	PlaySFX(id cfg.SoundID)
	SetHiss(on bool)
}

// NewAudioSystem returns a system that drains queued sound effects into
// player and keeps the hiss loop running while any fuse is lit.
func NewAudioSystem(player AudioPlayer) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		audioData := components.AudioOf(e.World)
		for _, soundID := range audioData.PendingSFX {
			player.PlaySFX(soundID)
		}
		audioData.PendingSFX = audioData.PendingSFX[:0]
		player.SetHiss(audioData.AmbientRefs > 0)
	}
}

// PlaySFX queues a sound effect to be played
func PlaySFX(e *ecs.ECS, sound cfg.SoundID) {
	audioData := components.AudioOf(e.World)
	audioData.PendingSFX = append(audioData.PendingSFX, sound)
}

// The audio context can only be created once per process.
var (
	globalAudioContext *audio.Context
	audioInitOnce      sync.Once
)

// EbitenAudio plays the synthesized sounds through ebiten's audio context.
type EbitenAudio struct {
	loader    *assets.AudioLoader
	hiss      *audio.Player
	sfxVolume float64
	log       zerolog.Logger
}

// NewEbitenAudio prepares the loader and preloads every sound effect.
func NewEbitenAudio(logger zerolog.Logger) *EbitenAudio {
	audioInitOnce.Do(func() {
		globalAudioContext = audio.NewContext(cfg.Audio.SampleRate)
	})

	a := &EbitenAudio{
		loader:    assets.NewAudioLoader(globalAudioContext),
		sfxVolume: cfg.Audio.DefaultSFXVol,
		log:       logger,
	}
	for _, id := range []cfg.SoundID{cfg.SoundBoom, cfg.SoundArm} {
		if err := a.loader.PreloadSFX(id); err != nil {
			logger.Warn().Err(err).Int("sound", int(id)).Msg("could not preload sound")
		}
	}

	hiss, err := a.loader.LoadHissLoop()
	if err != nil {
		logger.Warn().Err(err).Msg("hiss loop unavailable")
	} else {
		hiss.SetVolume(cfg.Audio.HissVolume)
		a.hiss = hiss
	}
	return a
}

func (a *EbitenAudio) PlaySFX(id cfg.SoundID) {
	if a.sfxVolume <= 0 || id == cfg.SoundNone {
		return
	}
	player, err := a.loader.LoadSFX(id)
	if err != nil {
		a.log.Debug().Err(err).Int("sound", int(id)).Msg("sfx skipped")
		return
	}
	player.SetVolume(a.sfxVolume)
	player.Play()
}

func (a *EbitenAudio) SetHiss(on bool) {
	if a.hiss == nil || a.hiss.IsPlaying() == on {
		return
	}
	if on {
		a.hiss.Play()
	} else {
		a.hiss.Pause()
	}
}

// SetSFXVolume changes the SFX volume (0.0 - 1.0)
func (a *EbitenAudio) SetSFXVolume(volume float64) {
	a.sfxVolume = volume
}

// Close releases the hiss player.
func (a *EbitenAudio) Close() error {
	if a.hiss == nil {
		return nil
	}
	err := a.hiss.Close()
	a.hiss = nil
	return err
}
