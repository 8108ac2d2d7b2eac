package components

import (
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// ScreenShakeData tracks active screen shake effect on the camera
type ScreenShakeData struct {
	Intensity float64 // max offset in pixels
	Duration  int     // frames total
	Elapsed   int     // frames elapsed (for oscillation)
}

var ScreenShake = donburi.NewComponentType[ScreenShakeData]()

// AutoDestroyData marks entities that should be destroyed after a duration
type AutoDestroyData struct {
	FramesRemaining int
}

var AutoDestroy = donburi.NewComponentType[AutoDestroyData]()

// ExplosionData drives the expanding blast ring
type ExplosionData struct {
	X, Y   float64
	Radius float64
	Alpha  float64
	Ring   *gween.Tween // radius
	Fade   *gween.Tween // alpha
}

var Explosion = donburi.NewComponentType[ExplosionData]()
