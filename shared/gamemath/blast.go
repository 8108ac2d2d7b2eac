package gamemath

import (
	"math"

	dmath "github.com/yohamta/donburi/features/math"
)

// WithinRadius reports whether p lies within radius of center.
func WithinRadius(center, p dmath.Vec2, radius float64) bool {
	dx := p.X - center.X
	dy := p.Y - center.Y
	return dx*dx+dy*dy <= radius*radius
}

// BlastFalloff scales intensity linearly from 1 at the center to 0 at radius.
func BlastFalloff(center, p dmath.Vec2, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	d := math.Hypot(p.X-center.X, p.Y-center.Y)
	if d >= radius {
		return 0
	}
	return 1 - d/radius
}
