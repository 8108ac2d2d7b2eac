package systems

import (
	"image/color"

	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi/ecs"
)

// DrawDebug outlines every collision body when debug drawing is on.
func DrawDebug(ecs *ecs.ECS, screen *ebiten.Image) {
	session, ok := components.SessionOf(ecs.World)
	if !cfg.Debug.ShowBodies && (!ok || !session.ShowDebug) {
		return
	}

	spaceEntry, ok := components.Space.First(ecs.World)
	if !ok {
		return
	}
	space := components.Space.Get(spaceEntry)
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	camX, camY := CameraOffset(ecs.World, width, height)

	for _, obj := range space.Objects() {
		x := obj.X + camX
		y := obj.Y + camY

		c := color.RGBA{0, 255, 255, 255} // Cyan default
		if obj.HasTags(tags.ResolvSolid) {
			c = color.RGBA{100, 100, 100, 255} // Grey
		} else if obj.HasTags(tags.ResolvBomb) {
			c = color.RGBA{255, 0, 0, 255} // Red
		}

		vector.FillRect(screen, float32(x), float32(y), float32(obj.W), 1, c, false)         // Top
		vector.FillRect(screen, float32(x), float32(y+obj.H-1), float32(obj.W), 1, c, false) // Bottom
		vector.FillRect(screen, float32(x), float32(y), 1, float32(obj.H), c, false)         // Left
		vector.FillRect(screen, float32(x+obj.W-1), float32(y), 1, float32(obj.H), c, false) // Right
	}
}
