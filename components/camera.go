package components

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/math"
)

type CameraData struct {
	Position math.Vec2
	Shake    math.Vec2 // current shake offset, applied on top of Position
}

var Camera = donburi.NewComponentType[CameraData]()
