package tags

import "github.com/yohamta/donburi"

var (
	Bomb      = donburi.NewTag().SetName("Bomb")
	Wall      = donburi.NewTag().SetName("Wall")
	Floor     = donburi.NewTag().SetName("Floor")
	Explosion = donburi.NewTag().SetName("Explosion")
)

// Resolv tags for physics collision
const (
	ResolvSolid = "solid"
	ResolvBomb  = "Bomb"
)
