package components

import (
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/yohamta/donburi"
)

// NetInterpData smooths a replicated bomb between server snapshots.
type NetInterpData struct {
	Prev, Target netcomponents.NetBombData
	T            float64
	Initialized  bool
}

var NetInterp = donburi.NewComponentType[NetInterpData]()
