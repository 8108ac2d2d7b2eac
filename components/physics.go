package components

import (
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/yohamta/donburi"
)

type PhysicsData struct {
	gamemath.Body
}

var Physics = donburi.NewComponentType[PhysicsData]()
