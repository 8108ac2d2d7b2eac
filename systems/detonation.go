package systems

import (
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/events"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/automoto/doomerang-fuse/systems/factory"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	devents "github.com/yohamta/donburi/features/events"
)

// DetonationHandlers reacts to bomb detonations for one scene. Subscribe on
// enable, Unsubscribe on close.
type DetonationHandlers struct {
	ecs    *ecs.ECS
	store  *Store
	log    zerolog.Logger
	active bool
}

// NewDetonationHandlers builds handlers for ecs. store may be nil.
func NewDetonationHandlers(ecs *ecs.ECS, store *Store, logger zerolog.Logger) *DetonationHandlers {
	return &DetonationHandlers{ecs: ecs, store: store, log: logger}
}

func (h *DetonationHandlers) Subscribe() {
	if h.active {
		return
	}
	w := h.ecs.World
	events.Detonation.Subscribe(w, h.spawnExplosion)
	events.Detonation.Subscribe(w, h.shakeCamera)
	events.Detonation.Subscribe(w, h.playBoom)
	events.Detonation.Subscribe(w, h.recordStats)
	events.Detonation.Subscribe(w, h.flagChain)
	h.active = true
}

func (h *DetonationHandlers) Unsubscribe() {
	if !h.active {
		return
	}
	w := h.ecs.World
	events.Detonation.Unsubscribe(w, h.spawnExplosion)
	events.Detonation.Unsubscribe(w, h.shakeCamera)
	events.Detonation.Unsubscribe(w, h.playBoom)
	events.Detonation.Unsubscribe(w, h.recordStats)
	events.Detonation.Unsubscribe(w, h.flagChain)
	h.active = false
}

func (h *DetonationHandlers) Active() bool { return h.active }

func (h *DetonationHandlers) spawnExplosion(w donburi.World, e events.DetonationEvent) {
	factory.CreateExplosion(h.ecs, e.Position.X, e.Position.Y)
}

func (h *DetonationHandlers) shakeCamera(w donburi.World, e events.DetonationEvent) {
	TriggerScreenShake(h.ecs, cfg.ScreenShake.DetonationIntensity, cfg.ScreenShake.DetonationDuration)
}

func (h *DetonationHandlers) playBoom(w donburi.World, e events.DetonationEvent) {
	PlaySFX(h.ecs, cfg.SoundBoom)
}

func (h *DetonationHandlers) recordStats(w donburi.World, e events.DetonationEvent) {
	if session, ok := components.SessionOf(w); ok {
		session.Detonations++
		if e.Chained {
			session.ChainDetonations++
		}
	}
	h.store.RecordDetonation(e.Chained)

	h.log.Debug().
		Str("bomb_id", e.BombID.String()).
		Float64("x", e.Position.X).
		Float64("y", e.Position.Y).
		Bool("chained", e.Chained).
		Msg("bomb detonated")
}

// flagChain schedules every live bomb inside the blast radius to go off
// after cfg.Explosion.ChainDelay frames.
func (h *DetonationHandlers) flagChain(w donburi.World, e events.DetonationEvent) {
	delay := cfg.Explosion.ChainDelay
	if delay < 1 {
		delay = 1
	}
	tags.Bomb.Each(w, func(entry *donburi.Entry) {
		bomb := components.Bomb.Get(entry)
		if bomb.ID == e.BombID || bomb.Fuse.Spent() || bomb.ChainTimer > 0 {
			return
		}
		center := factory.ObjectCenter(components.Object.Get(entry).Object)
		if gamemath.WithinRadius(e.Position, center, cfg.Explosion.ChainRadius) {
			bomb.Chained = true
			bomb.ChainTimer = delay
		}
	})
}

// ProcessEvents delivers queued world events to their subscribers.
func ProcessEvents(ecs *ecs.ECS) {
	devents.ProcessAllEvents(ecs.World)
}
