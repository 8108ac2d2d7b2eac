package gamemath

import (
	"math"

	dmath "github.com/yohamta/donburi/features/math"
)

// CordGeometry describes how a fuse cord hangs off its bomb.
type CordGeometry struct {
	Anchor     dmath.Vec2 // cord root, relative to the bomb center
	Direction  dmath.Vec2 // unit vector from root to tip at rest
	RestLength float64    // visible cord length before any pull, in pixels
	PixelsPer  float64    // pixels of cord drawn in per unit of pull
}

// CordLength returns the visible cord length for a pull amount. The cord
// never gets shorter than zero.
func CordLength(g CordGeometry, pulled float64) float64 {
	return math.Max(0, g.RestLength-pulled*g.PixelsPer)
}

// CordTip returns the world position of the cord tip for a bomb centered at
// center.
func CordTip(g CordGeometry, center dmath.Vec2, pulled float64) dmath.Vec2 {
	l := CordLength(g, pulled)
	return dmath.Vec2{
		X: center.X + g.Anchor.X + g.Direction.X*l,
		Y: center.Y + g.Anchor.Y + g.Direction.Y*l,
	}
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
