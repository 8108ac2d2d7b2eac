package netcomponents

import "github.com/yohamta/donburi"

// NetBombData is the replicated view of a server bomb.
type NetBombData struct {
	BombID     string
	Seq        uint64 // placement order, increasing per server
	X, Y       float64
	VelX, VelY float64
	State      int     // fuse.State
	Lit        bool    // ambient hiss/spark active
	CordOffset float64 // fuse pull amount
	Progress   float64 // countdown progress 0.0-1.0
}

var NetBomb = donburi.NewComponentType[NetBombData]()

// LerpNetBomb interpolates position and cord; discrete fields come from the
// newer snapshot.
func LerpNetBomb(from, to NetBombData, t float64) *NetBombData {
	return &NetBombData{
		BombID:     to.BombID,
		Seq:        to.Seq,
		X:          from.X + (to.X-from.X)*t,
		Y:          from.Y + (to.Y-from.Y)*t,
		VelX:       to.VelX,
		VelY:       to.VelY,
		State:      to.State,
		Lit:        to.Lit,
		CordOffset: from.CordOffset + (to.CordOffset-from.CordOffset)*t,
		Progress:   to.Progress,
	}
}
