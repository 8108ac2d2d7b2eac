package protocol

import (
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/leap-fish/necs/esync"
)

// Sync ID constants - ID 1 is reserved by necs for NetworkId
const (
	SyncIDNetBomb uint = 20
)

// Interpolation IDs (uint8 for WithInterpFn)
const (
	InterpIDNetBomb uint8 = 20
)

// RegisterComponents registers all network components with necs for serialization.
// This must be called by both server and client before any network operations.
func RegisterComponents() error {
	return esync.RegisterComponent(
		SyncIDNetBomb,
		netcomponents.NetBombData{},
		netcomponents.NetBomb,
		esync.WithInterpFn(InterpIDNetBomb, netcomponents.LerpNetBomb),
	)
}
