package messages

// PlaceBombRequest asks the server to drop a lit bomb.
type PlaceBombRequest struct {
	X, Y       float64
	VelX, VelY float64
}

// ArmBombRequest starts or restarts the countdown of a bomb.
type ArmBombRequest struct {
	BombID   string
	Duration float64 // seconds; <= 0 uses the server default
}

// DetonateBombRequest detonates a bomb immediately at its center.
type DetonateBombRequest struct {
	BombID string
}

// BombDetonatedEvent is broadcast when a bomb explodes.
type BombDetonatedEvent struct {
	BombID  string
	X, Y    float64
	Chained bool // set off by another bomb's blast
}
