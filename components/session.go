package components

import "github.com/yohamta/donburi"

// SessionData tracks arena-wide counters and tuning (singleton component).
type SessionData struct {
	Tick             int
	Detonations      int
	ChainDetonations int
	PullRate         float64 // current fuse pull rate for new bombs
	LastBomb         *donburi.Entry
	ShowDebug        bool
}

var Session = donburi.NewComponentType[SessionData]()

// SessionOf returns the world's Session singleton, if one was created.
func SessionOf(w donburi.World) (*SessionData, bool) {
	entry, ok := Session.First(w)
	if !ok {
		return nil, false
	}
	return Session.Get(entry), true
}
