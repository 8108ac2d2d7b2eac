package factory

import (
	"errors"
	"fmt"

	"github.com/automoto/doomerang-fuse/archetypes"
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/events"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	dmath "github.com/yohamta/donburi/features/math"
	"github.com/yohamta/donburi/filter"
)

var bombQuery = donburi.NewQuery(filter.Contains(tags.Bomb))

// ErrBombLimit is returned when the arena already holds cfg.Bomb.MaxBombs bombs.
var ErrBombLimit = errors.New("bomb limit reached")

// CreateBomb spawns an unlit bomb centered at (x, y) moving at (velX, velY)
// and wires its fuse to the world through bombEffects.
func CreateBomb(ecs *ecs.ECS, x, y, velX, velY float64, logger zerolog.Logger) (*donburi.Entry, error) {
	if cfg.Bomb.MaxBombs > 0 && bombQuery.Count(ecs.World) >= cfg.Bomb.MaxBombs {
		return nil, ErrBombLimit
	}

	spaceEntry, ok := components.Space.First(ecs.World)
	if !ok {
		return nil, errors.New("create bomb: no collision space")
	}
	space := components.Space.Get(spaceEntry)

	fuseCfg := cfg.Fuse.Controller()
	if session, ok := components.SessionOf(ecs.World); ok && session.PullRate > 0 {
		fuseCfg.PullRate = session.PullRate
	}

	bomb := archetypes.Bomb.Spawn(ecs)

	r := cfg.Bomb.Radius
	obj := resolv.NewObject(x-r, y-r, r*2, r*2, tags.ResolvBomb)
	obj.Data = bomb
	space.Add(obj)
	components.Object.SetValue(bomb, components.ObjectData{Object: obj})

	components.Physics.SetValue(bomb, components.PhysicsData{Body: BombBody(velX, velY)})

	id := uuid.New()
	geometry := cfg.Cord.Geometry()
	ctrl, err := fuse.New(fuseCfg, &bombEffects{world: ecs.World, entry: bomb},
		fuse.WithLogger(logger.With().Str("bomb_id", id.String()).Logger()),
		fuse.WithCordTip(func(pulled float64) dmath.Vec2 {
			return gamemath.CordTip(geometry, ObjectCenter(obj), pulled)
		}),
	)
	if err != nil {
		space.Remove(obj)
		ecs.World.Remove(bomb.Entity())
		return nil, fmt.Errorf("create bomb fuse: %w", err)
	}

	components.Bomb.SetValue(bomb, components.BombData{
		ID:   id,
		Fuse: ctrl,
	})

	if session, ok := components.SessionOf(ecs.World); ok {
		session.LastBomb = bomb
	}

	return bomb, nil
}

// DestroyBomb removes a bomb's body from the space and the entity from the world.
func DestroyBomb(ecs *ecs.ECS, entry *donburi.Entry) {
	if entry == nil || !entry.Valid() {
		return
	}
	if spaceEntry, ok := components.Space.First(ecs.World); ok {
		obj := components.Object.Get(entry)
		if obj != nil && obj.Object != nil {
			components.Space.Get(spaceEntry).Remove(obj.Object)
		}
	}
	if session, ok := components.SessionOf(ecs.World); ok && session.LastBomb == entry {
		session.LastBomb = nil
	}
	ecs.World.Remove(entry.Entity())
}

// BombBody returns a bomb's motion state from cfg.Bomb.
func BombBody(velX, velY float64) gamemath.Body {
	return gamemath.Body{
		SpeedX:      velX,
		SpeedY:      velY,
		Gravity:     cfg.Bomb.Gravity,
		Friction:    cfg.Bomb.Friction,
		MaxFall:     cfg.Bomb.MaxFallSpeed,
		Restitution: cfg.Bomb.Restitution,
	}
}

// ObjectCenter returns the center of a resolv object.
func ObjectCenter(obj *resolv.Object) dmath.Vec2 {
	return dmath.Vec2{X: obj.X + obj.W/2, Y: obj.Y + obj.H/2}
}

// bombEffects applies fuse side effects to one bomb entity.
type bombEffects struct {
	world donburi.World
	entry *donburi.Entry
}

func (b *bombEffects) StartAmbient() {
	bomb := components.Bomb.Get(b.entry)
	if bomb.Lit {
		return
	}
	bomb.Lit = true
	components.AudioOf(b.world).AmbientRefs++
}

func (b *bombEffects) StopAmbient() {
	bomb := components.Bomb.Get(b.entry)
	if !bomb.Lit {
		return
	}
	bomb.Lit = false
	audio := components.AudioOf(b.world)
	if audio.AmbientRefs > 0 {
		audio.AmbientRefs--
	}
}

func (b *bombEffects) Detonate(position dmath.Vec2) {
	bomb := components.Bomb.Get(b.entry)
	events.Detonation.Publish(b.world, events.DetonationEvent{
		BombID:   bomb.ID,
		Position: position,
		Chained:  bomb.Chained,
	})
}

func (b *bombEffects) SetCordOffset(pulled float64) {
	components.Bomb.Get(b.entry).CordOffset = pulled
}
