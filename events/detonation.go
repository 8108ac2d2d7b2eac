// Package events declares the world-scoped event types systems publish and
// scenes subscribe to.
package events

import (
	"github.com/google/uuid"
	"github.com/yohamta/donburi/features/events"
	dmath "github.com/yohamta/donburi/features/math"
)

// DetonationEvent is published when a bomb's fuse explodes.
type DetonationEvent struct {
	BombID   uuid.UUID
	Position dmath.Vec2
	Chained  bool
}

var Detonation = events.NewEventType[DetonationEvent]()
