package systems

import (
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// UpdateEffects advances explosion tweens and removes expired effect entities.
func UpdateEffects(ecs *ecs.ECS) {
	updateExplosions(ecs)
	updateAutoDestroy(ecs)
}

func updateExplosions(ecs *ecs.ECS) {
	dt := float32(1.0 / float64(cfg.C.TPS))

	components.Explosion.Each(ecs.World, func(e *donburi.Entry) {
		ex := components.Explosion.Get(e)
		if ex.Ring != nil {
			r, _ := ex.Ring.Update(dt)
			ex.Radius = float64(r)
		}
		if ex.Fade != nil {
			a, _ := ex.Fade.Update(dt)
			ex.Alpha = float64(a)
		}
	})
}

// updateAutoDestroy counts down AutoDestroy frames and removes the entity at zero.
func updateAutoDestroy(ecs *ecs.ECS) {
	var toDestroy []*donburi.Entry

	components.AutoDestroy.Each(ecs.World, func(e *donburi.Entry) {
		ad := components.AutoDestroy.Get(e)
		ad.FramesRemaining--
		if ad.FramesRemaining <= 0 {
			toDestroy = append(toDestroy, e)
		}
	})

	for _, e := range toDestroy {
		if e.HasComponent(components.Object) {
			obj := components.Object.Get(e)
			if obj.Space != nil {
				obj.Space.Remove(obj.Object)
			}
		}
		e.Remove()
	}
}
