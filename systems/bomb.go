package systems

import (
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/automoto/doomerang-fuse/systems/factory"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// UpdateBombs runs one simulation tick for every bomb: pending chain
// detonations, body physics, impact detonation and the fuse countdown.
// Spent bombs are removed once the tick is done.
func UpdateBombs(ecs *ecs.ECS) {
	session, ok := components.SessionOf(ecs.World)
	if ok {
		session.Tick++
	}
	dt := 1.0 / float64(cfg.C.TPS)

	var spent []*donburi.Entry

	tags.Bomb.Each(ecs.World, func(e *donburi.Entry) {
		bomb := components.Bomb.Get(e)
		obj := components.Object.Get(e)

		if bomb.ChainTimer > 0 {
			bomb.ChainTimer--
			if bomb.ChainTimer == 0 {
				bomb.Fuse.ExplodeNow(factory.ObjectCenter(obj.Object))
			}
		}

		if !bomb.Fuse.Spent() {
			impact := gamemath.StepBody(&components.Physics.Get(e).Body, obj.Object, tags.ResolvSolid, cfg.Bomb.RestSpeed)
			if bomb.Lit && impact >= cfg.Bomb.ImpactSpeed {
				bomb.Fuse.ExplodeNow(factory.ObjectCenter(obj.Object))
			}
		}

		bomb.Fuse.Advance(dt)

		if bomb.Fuse.Spent() {
			spent = append(spent, e)
		}
	})

	for _, e := range spent {
		factory.DestroyBomb(ecs, e)
	}
}
