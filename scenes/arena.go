package scenes

import (
	"image/color"
	"sync"

	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/systems"
	"github.com/automoto/doomerang-fuse/systems/factory"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// ArenaScene is the local sandbox: bombs are simulated on this machine.
type ArenaScene struct {
	ecs      *ecs.ECS
	store    *systems.Store
	audio    systems.AudioPlayer
	log      zerolog.Logger
	handlers *systems.DetonationHandlers
	once     sync.Once
}

// NewArenaScene builds the scene lazily on its first Update. store and audio
// may be nil.
func NewArenaScene(store *systems.Store, audio systems.AudioPlayer, logger zerolog.Logger) *ArenaScene {
	return &ArenaScene{store: store, audio: audio, log: logger}
}

func (as *ArenaScene) Update() {
	as.once.Do(as.configure)
	as.ecs.Update()
}

func (as *ArenaScene) Draw(screen *ebiten.Image) {
	// Always clear screen to prevent white flashes from OS window background
	screen.Fill(color.Black)

	if as.ecs == nil {
		return
	}
	as.ecs.Draw(screen)
}

// Close drops the scene's event subscriptions. Safe to call more than once,
// and before the first Update.
func (as *ArenaScene) Close() {
	if as.handlers != nil {
		as.handlers.Unsubscribe()
	}
}

func (as *ArenaScene) configure() {
	as.ecs = ecs.NewECS(donburi.NewWorld())

	factory.CreateArena(as.ecs, cfg.C.Width, cfg.C.Height)

	tuning := as.store.LoadTuning()
	if session, ok := components.SessionOf(as.ecs.World); ok {
		session.PullRate = tuning.PullRate
	}

	as.handlers = systems.NewDetonationHandlers(as.ecs, as.store, as.log)
	as.handlers.Subscribe()

	bombInput := systems.NewBombInput(as.store, as.log)

	as.ecs.AddSystem(systems.UpdateInput)
	as.ecs.AddSystem(bombInput.Update)
	as.ecs.AddSystem(systems.UpdateBombs)
	as.ecs.AddSystem(systems.ProcessEvents)
	as.ecs.AddSystem(systems.UpdateEffects)
	as.ecs.AddSystem(systems.UpdateCamera)
	if as.audio != nil {
		as.ecs.AddSystem(systems.NewAudioSystem(as.audio))
	}

	as.ecs.AddRenderer(cfg.Default, systems.DrawArena)
	as.ecs.AddRenderer(cfg.Default, systems.DrawBombs)
	as.ecs.AddRenderer(cfg.Default, systems.DrawExplosions)
	as.ecs.AddRenderer(cfg.Default, systems.DrawDebug)
	as.ecs.AddRenderer(cfg.HUD, systems.NewHUDRenderer(as.store))
}
