package scenes

import (
	"image/color"
	"sync"

	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/network"
	"github.com/automoto/doomerang-fuse/systems"
	"github.com/automoto/doomerang-fuse/systems/factory"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/leap-fish/necs/esync"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// NetworkedScene renders bombs simulated by a remote server and forwards
// the player's actions to it.
type NetworkedScene struct {
	ecsWorld   *ecs.ECS
	netClient  *network.Client
	store      *systems.Store
	audio      systems.AudioPlayer
	log        zerolog.Logger
	handlers   *systems.DetonationHandlers
	once       sync.Once
	presentIDs map[esync.NetworkId]bool
}

func NewNetworkedScene(client *network.Client, store *systems.Store, audio systems.AudioPlayer, logger zerolog.Logger) *NetworkedScene {
	return &NetworkedScene{
		netClient:  client,
		store:      store,
		audio:      audio,
		log:        logger,
		presentIDs: make(map[esync.NetworkId]bool),
	}
}

func (ns *NetworkedScene) Update() {
	ns.once.Do(ns.configure)

	if snap := ns.netClient.LatestSnapshot(); snap != nil {
		systems.ApplySnapshot(ns.ecsWorld.World, *snap, ns.presentIDs, ns.log)
	}
	systems.PublishRemoteDetonations(ns.ecsWorld.World, ns.netClient.DrainDetonations())

	ns.ecsWorld.Update()
}

func (ns *NetworkedScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	if ns.ecsWorld == nil {
		return
	}

	ns.ecsWorld.Draw(screen)
}

// Close unsubscribes the detonation handlers and drops the connection.
func (ns *NetworkedScene) Close() {
	if ns.handlers != nil {
		ns.handlers.Unsubscribe()
	}
	ns.netClient.Disconnect()
}

func (ns *NetworkedScene) configure() {
	ns.ecsWorld = ecs.NewECS(donburi.NewWorld())
	factory.CreateArena(ns.ecsWorld, cfg.C.Width, cfg.C.Height)

	ns.handlers = systems.NewDetonationHandlers(ns.ecsWorld, ns.store, ns.log)
	ns.handlers.Subscribe()

	netInput := systems.NewNetBombInput(ns.netClient.SendMessage, ns.log)

	ns.ecsWorld.AddSystem(systems.UpdateInput)
	ns.ecsWorld.AddSystem(netInput.Update)
	ns.ecsWorld.AddSystem(systems.NewNetInterpSystem(ns.netClient.TickRate))
	ns.ecsWorld.AddSystem(systems.ProcessEvents)
	ns.ecsWorld.AddSystem(systems.UpdateEffects)
	ns.ecsWorld.AddSystem(systems.UpdateCamera)
	if ns.audio != nil {
		ns.ecsWorld.AddSystem(systems.NewAudioSystem(ns.audio))
	}

	ns.ecsWorld.AddRenderer(cfg.Default, systems.DrawArena)
	ns.ecsWorld.AddRenderer(cfg.Default, systems.DrawNetBombs)
	ns.ecsWorld.AddRenderer(cfg.Default, systems.DrawExplosions)
	ns.ecsWorld.AddRenderer(cfg.Default, systems.DrawDebug)
	ns.ecsWorld.AddRenderer(cfg.HUD, ns.drawHUD)
}

func (ns *NetworkedScene) drawHUD(e *ecs.ECS, screen *ebiten.Image) {
	text := systems.NetHUDText(e.World, ns.netClient.ServerName(), ns.netClient.State().String())
	if err := ns.netClient.LastError(); err != nil {
		text += "\n" + err.Error()
	}
	ebitenutil.DebugPrintAt(screen, text, 10, 10)
}
