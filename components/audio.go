package components

import (
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/yohamta/donburi"
)

// AudioData stores per-world audio requests (singleton component). Playback
// belongs to the scene's audio player.
type AudioData struct {
	PendingSFX  []cfg.SoundID
	AmbientRefs int // lit fuses currently asking for the hiss loop
}

var Audio = donburi.NewComponentType[AudioData]()

// AudioOf returns the world's Audio singleton, creating it if needed.
func AudioOf(w donburi.World) *AudioData {
	entry, ok := Audio.First(w)
	if !ok {
		entry = w.Entry(w.Create(Audio))
		Audio.SetValue(entry, AudioData{
			PendingSFX: make([]cfg.SoundID, 0, 8),
		})
	}
	return Audio.Get(entry)
}
