package gamemath

import "github.com/solarlune/resolv"

// Body is the motion state of a bouncing round body.
type Body struct {
	SpeedX      float64
	SpeedY      float64
	Gravity     float64
	Friction    float64
	MaxFall     float64
	Restitution float64
	OnGround    bool
	LastImpact  float64 // downward speed at the last landing
}

// StepBody moves obj one frame against objects tagged solidTag and returns
// the downward speed it landed with, or 0 when it did not land. Landings
// slower than restSpeed after restitution settle on the surface.
func StepBody(b *Body, obj *resolv.Object, solidTag string, restSpeed float64) float64 {
	b.SpeedY = ApplyGravity(b.SpeedY, b.Gravity, b.MaxFall)

	stepHorizontal(b, obj, solidTag)
	landed := stepVertical(b, obj, solidTag, restSpeed)

	if b.OnGround {
		b.SpeedX = ApplyFriction(b.SpeedX, b.Friction)
	}

	obj.Update()
	return landed
}

func stepHorizontal(b *Body, obj *resolv.Object, solidTag string) {
	dx := b.SpeedX
	if dx == 0 {
		return
	}

	if check := obj.Check(reach(dx), 0, solidTag); check != nil {
		for _, solid := range check.ObjectsByTags(solidTag) {
			// Touching a floor from above is not a wall hit.
			if obj.Y+obj.H <= solid.Y || obj.Y >= solid.Y+solid.H {
				continue
			}
			switch {
			case dx > 0 && obj.X < solid.X && obj.X+obj.W+dx > solid.X:
				obj.X = solid.X - obj.W
			case dx < 0 && obj.X+obj.W > solid.X+solid.W && obj.X+dx < solid.X+solid.W:
				obj.X = solid.X + solid.W
			default:
				continue
			}
			b.SpeedX = -dx * b.Restitution
			return
		}
	}

	obj.X += dx
}

func stepVertical(b *Body, obj *resolv.Object, solidTag string, restSpeed float64) float64 {
	dy := b.SpeedY
	b.OnGround = false

	check := obj.Check(0, reach(dy), solidTag)
	if check == nil {
		obj.Y += dy
		return 0
	}

	for _, solid := range check.ObjectsByTags(solidTag) {
		if obj.X+obj.W <= solid.X || obj.X >= solid.X+solid.W {
			continue
		}
		if dy >= 0 && obj.Y+obj.H <= solid.Y && obj.Y+obj.H+dy >= solid.Y {
			obj.Y = solid.Y - obj.H
			b.LastImpact = dy
			b.SpeedY = Bounce(dy, b.Restitution, restSpeed)
			b.OnGround = b.SpeedY == 0
			return dy
		}
		if dy < 0 && obj.Y >= solid.Y+solid.H && obj.Y+dy <= solid.Y+solid.H {
			obj.Y = solid.Y + solid.H
			b.SpeedY = 0
			return 0
		}
	}

	obj.Y += dy
	return 0
}

// reach extends a forward collision check by a pixel: resolv insets the far
// edge of a box by one pixel when mapping it to cells.
func reach(d float64) float64 {
	if d >= 0 {
		return d + 1
	}
	return d
}
