package factory

import (
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/yohamta/donburi/ecs"
)

// CreateArena builds the collision space, floor, side walls and camera for
// a width x height arena.
func CreateArena(ecs *ecs.ECS, width, height int) {
	CreateSpace(ecs, width, height, cfg.Arena.CellSize, cfg.Arena.CellSize)

	w := float64(width)
	h := float64(height)
	t := cfg.Arena.WallThickness

	CreateFloor(ecs, 0, h-cfg.Arena.FloorHeight, w, cfg.Arena.FloorHeight)
	CreateWall(ecs, 0, 0, t, h-cfg.Arena.FloorHeight)
	CreateWall(ecs, w-t, 0, t, h-cfg.Arena.FloorHeight)

	CreateCamera(ecs, w/2, h/2)
	CreateSession(ecs)
}
