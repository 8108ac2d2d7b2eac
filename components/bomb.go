package components

import (
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/google/uuid"
	"github.com/yohamta/donburi"
)

// BombData holds a bomb's fuse and the view state its effects write into.
type BombData struct {
	ID         uuid.UUID
	Fuse       *fuse.Controller
	Lit        bool    // ambient hiss and spark active
	CordOffset float64 // last pull amount reported by the fuse
	ChainTimer int     // frames until a chained detonation, 0 = none pending
	Chained    bool    // detonation was set off by another blast
}

var Bomb = donburi.NewComponentType[BombData]()
