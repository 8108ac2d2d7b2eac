package gamemath

// ApplyFriction reduces speed toward zero by friction amount.
func ApplyFriction(speedX, friction float64) float64 {
	if speedX > friction {
		return speedX - friction
	}
	if speedX < -friction {
		return speedX + friction
	}
	return 0
}

// ClampSpeed clamps a value to [-max, max].
func ClampSpeed(speed, max float64) float64 {
	if speed > max {
		return max
	}
	if speed < -max {
		return -max
	}
	return speed
}

// ApplyGravity adds gravity to a vertical speed and caps the fall speed.
func ApplyGravity(speedY, gravity, maxFall float64) float64 {
	speedY += gravity
	if speedY > maxFall {
		return maxFall
	}
	return speedY
}

// Bounce reflects a speed with restitution, returning 0 once it drops under
// the rest threshold.
func Bounce(speed, restitution, rest float64) float64 {
	out := -speed * restitution
	if out > -rest && out < rest {
		return 0
	}
	return out
}
