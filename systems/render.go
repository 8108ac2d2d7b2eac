package systems

import (
	"image/color"

	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/automoto/doomerang-fuse/systems/factory"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	dmath "github.com/yohamta/donburi/features/math"
)

// DrawArena fills the background and draws the floor and walls.
func DrawArena(ecs *ecs.ECS, screen *ebiten.Image) {
	screen.Fill(cfg.UI.BackgroundCol)
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	camX, camY := CameraOffset(ecs.World, width, height)

	drawSolid := func(e *donburi.Entry) {
		o := components.Object.Get(e)
		vector.FillRect(screen, float32(o.X+camX), float32(o.Y+camY), float32(o.W), float32(o.H), cfg.UI.FloorColor, false)
	}
	tags.Floor.Each(ecs.World, drawSolid)
	tags.Wall.Each(ecs.World, drawSolid)
}

// DrawBombs renders each bomb body, its cord and the spark on a lit cord.
func DrawBombs(ecs *ecs.ECS, screen *ebiten.Image) {
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	camX, camY := CameraOffset(ecs.World, width, height)
	geometry := cfg.Cord.Geometry()

	tags.Bomb.Each(ecs.World, func(e *donburi.Entry) {
		bomb := components.Bomb.Get(e)
		center := factory.ObjectCenter(components.Object.Get(e).Object)
		progress := -1.0
		if bomb.Fuse.ArmedDuration() > 0 {
			progress = bomb.Fuse.Progress()
		}
		drawBomb(screen, geometry, center, bomb.CordOffset, bomb.Lit, progress, camX, camY)
	})
}

// DrawNetBombs renders replicated bombs in the networked scene.
func DrawNetBombs(ecs *ecs.ECS, screen *ebiten.Image) {
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	camX, camY := CameraOffset(ecs.World, width, height)
	geometry := cfg.Cord.Geometry()

	netcomponents.NetBomb.Each(ecs.World, func(e *donburi.Entry) {
		b := netcomponents.NetBomb.Get(e)
		progress := -1.0
		if fuse.State(b.State) == fuse.Armed {
			progress = b.Progress
		}
		drawBomb(screen, geometry, dmath.Vec2{X: b.X, Y: b.Y}, b.CordOffset, b.Lit, progress, camX, camY)
	})
}

// drawBomb draws one bomb; a negative progress hides the countdown bar.
func drawBomb(screen *ebiten.Image, geometry gamemath.CordGeometry, center dmath.Vec2, cord float64, lit bool, progress, camX, camY float64) {
	cx, cy := float32(center.X+camX), float32(center.Y+camY)

	anchorX := float32(center.X + geometry.Anchor.X + camX)
	anchorY := float32(center.Y + geometry.Anchor.Y + camY)
	tip := gamemath.CordTip(geometry, center, cord)
	tipX, tipY := float32(tip.X+camX), float32(tip.Y+camY)

	vector.StrokeLine(screen, anchorX, anchorY, tipX, tipY, cfg.Cord.Width, cfg.UI.CordColor, true)
	vector.DrawFilledCircle(screen, cx, cy, float32(cfg.Bomb.Radius), cfg.UI.BombColor, true)

	if lit {
		vector.DrawFilledCircle(screen, tipX, tipY, cfg.Cord.SparkSize, cfg.UI.SparkColor, true)
	}
	if progress >= 0 {
		drawCountdownBar(screen, cx, cy-float32(cfg.UI.BarOffsetY), progress)
	}
}

func drawCountdownBar(screen *ebiten.Image, cx, y float32, progress float64) {
	w := float32(cfg.UI.BarWidth)
	h := float32(cfg.UI.BarHeight)
	x := cx - w/2

	vector.FillRect(screen, x, y, w, h, cfg.DarkGray, false)
	fill := cfg.Yellow
	if progress > 0.75 {
		fill = cfg.Red
	}
	vector.FillRect(screen, x, y, w*float32(progress), h, fill, false)
}

// DrawExplosions renders the expanding blast rings.
func DrawExplosions(ecs *ecs.ECS, screen *ebiten.Image) {
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	camX, camY := CameraOffset(ecs.World, width, height)

	components.Explosion.Each(ecs.World, func(e *donburi.Entry) {
		ex := components.Explosion.Get(e)
		if ex.Alpha <= 0 || ex.Radius <= 0 {
			return
		}
		c := fade(cfg.UI.RingColor, ex.Alpha)
		x, y := float32(ex.X+camX), float32(ex.Y+camY)
		vector.DrawFilledCircle(screen, x, y, float32(ex.Radius)*0.6, fade(cfg.BrightYellow, ex.Alpha*0.5), true)
		vector.StrokeCircle(screen, x, y, float32(ex.Radius), 3, c, true)
	})
}

// fade scales a color's alpha, premultiplied the way ebiten expects.
func fade(c color.RGBA, alpha float64) color.RGBA {
	if alpha > 1 {
		alpha = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(float64(c.A) * alpha),
	}
}
