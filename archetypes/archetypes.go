package archetypes

import (
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

var (
	Bomb = newArchetype(
		tags.Bomb,
		components.Bomb,
		components.Object,
		components.Physics,
	)
	Wall = newArchetype(
		tags.Wall,
		components.Object,
	)
	Floor = newArchetype(
		tags.Floor,
		components.Object,
	)
	Explosion = newArchetype(
		tags.Explosion,
		components.Explosion,
		components.AutoDestroy,
	)
	Space = newArchetype(
		components.Space,
	)
	Camera = newArchetype(
		components.Camera,
	)
	Session = newArchetype(
		components.Session,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(ecs *ecs.ECS, cs ...donburi.IComponentType) *donburi.Entry {
	all := make([]donburi.IComponentType, 0, len(a.components)+len(cs))
	all = append(all, a.components...)
	all = append(all, cs...)
	e := ecs.World.Entry(ecs.Create(
		cfg.Default,
		all...,
	))
	return e
}
