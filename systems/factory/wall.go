package factory

import (
	"github.com/automoto/doomerang-fuse/archetypes"
	"github.com/automoto/doomerang-fuse/components"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

func CreateWall(ecs *ecs.ECS, x, y, w, h float64) *donburi.Entry {
	return createSolid(ecs, archetypes.Wall.Spawn(ecs), x, y, w, h)
}

func CreateFloor(ecs *ecs.ECS, x, y, w, h float64) *donburi.Entry {
	return createSolid(ecs, archetypes.Floor.Spawn(ecs), x, y, w, h)
}

func createSolid(ecs *ecs.ECS, entry *donburi.Entry, x, y, w, h float64) *donburi.Entry {
	obj := resolv.NewObject(x, y, w, h, tags.ResolvSolid)
	obj.SetShape(resolv.NewRectangle(0, 0, w, h))
	obj.Data = entry // Link for O(1) lookup

	components.Object.SetValue(entry, components.ObjectData{Object: obj})

	// Add to space if it exists
	if spaceEntry, ok := components.Space.First(ecs.World); ok {
		components.Space.Get(spaceEntry).Add(obj)
	}

	return entry
}
