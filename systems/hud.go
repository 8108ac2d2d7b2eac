package systems

import (
	"fmt"

	"github.com/automoto/doomerang-fuse/components"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

const hudMargin = 10

// HUDText is the status block shown in the top-left corner.
func HUDText(w donburi.World, stats Stats) string {
	var lit, armed int
	soonest := -1.0
	tags.Bomb.Each(w, func(e *donburi.Entry) {
		ctrl := components.Bomb.Get(e).Fuse
		switch ctrl.State() {
		case fuse.VisualOn:
			lit++
		case fuse.Armed:
			armed++
			if r := ctrl.Remaining(); soonest < 0 || r < soonest {
				soonest = r
			}
		}
	})

	var pullRate float64
	var detonations, chains int
	if session, ok := components.SessionOf(w); ok {
		pullRate = session.PullRate
		detonations = session.Detonations
		chains = session.ChainDetonations
	}

	text := fmt.Sprintf("lit %d  armed %d\npull rate %.2f/s\nbooms %d (chain %d)  total %d",
		lit, armed, pullRate, detonations, chains, stats.Detonations)
	if soonest >= 0 {
		text += fmt.Sprintf("\nnext %.1fs", soonest)
	}
	return text
}

// NewHUDRenderer returns a renderer for the HUD. store may be nil.
func NewHUDRenderer(store *Store) func(*ecs.ECS, *ebiten.Image) {
	return func(ecs *ecs.ECS, screen *ebiten.Image) {
		ebitenutil.DebugPrintAt(screen, HUDText(ecs.World, store.Stats()), hudMargin, hudMargin)
	}
}
