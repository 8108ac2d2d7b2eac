package factory

import (
	"github.com/automoto/doomerang-fuse/archetypes"
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// CreateExplosion spawns the blast ring at (x, y). The ring radius and alpha
// are driven by gween tweens and the entity removes itself after
// cfg.Explosion.LifetimeTicks frames.
func CreateExplosion(ecs *ecs.ECS, x, y float64) *donburi.Entry {
	explosion := archetypes.Explosion.Spawn(ecs)

	d := float32(cfg.Explosion.RingDuration)
	components.Explosion.SetValue(explosion, components.ExplosionData{
		X:     x,
		Y:     y,
		Alpha: 1,
		Ring:  gween.New(0, float32(cfg.Explosion.RingRadius), d, ease.OutQuad),
		Fade:  gween.New(1, 0, d*2, ease.InQuad),
	})
	components.AutoDestroy.SetValue(explosion, components.AutoDestroyData{
		FramesRemaining: cfg.Explosion.LifetimeTicks,
	})

	return explosion
}
