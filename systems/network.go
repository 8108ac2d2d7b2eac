package systems

import (
	"fmt"
	"math"

	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/events"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/messages"
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/google/uuid"
	"github.com/leap-fish/necs/esync"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	dmath "github.com/yohamta/donburi/features/math"
)

// ApplySnapshot mirrors a server snapshot into w: new bombs are created,
// known bombs get a new interpolation target and bombs missing from the
// snapshot are removed. present is scratch space reused between calls.
func ApplySnapshot(w donburi.World, snapshot esync.WorldSnapshot, present map[esync.NetworkId]bool, logger zerolog.Logger) {
	clear(present)

	for _, ent := range snapshot {
		present[ent.Id] = true

		for _, componentBytes := range ent.State {
			instance, err := esync.Mapper.Deserialize(componentBytes)
			if err != nil {
				logger.Debug().Err(err).Msg("skipping undecodable component")
				continue
			}
			data, ok := instance.(netcomponents.NetBombData)
			if !ok {
				continue
			}
			SetNetBombTarget(w, findOrCreateNetBomb(w, ent.Id), data)
		}
	}

	var stale []*donburi.Entry
	esync.NetworkEntityQuery.Each(w, func(entry *donburi.Entry) {
		id := esync.GetNetworkId(entry)
		if id == nil || !present[*id] {
			stale = append(stale, entry)
		}
	})
	for _, entry := range stale {
		entry.Remove()
	}
}

func findOrCreateNetBomb(w donburi.World, id esync.NetworkId) *donburi.Entry {
	entity := esync.FindByNetworkId(w, id)
	if w.Valid(entity) {
		return w.Entry(entity)
	}
	entry := w.Entry(w.Create(netcomponents.NetBomb, components.NetInterp))
	entry.AddComponent(esync.NetworkIdComponent)
	esync.NetworkIdComponent.SetValue(entry, id)
	return entry
}

// SetNetBombTarget starts interpolating entry toward data. The first
// snapshot of a bomb is applied directly.
func SetNetBombTarget(w donburi.World, entry *donburi.Entry, data netcomponents.NetBombData) {
	interp := components.NetInterp.Get(entry)
	if !interp.Initialized {
		interp.Prev, interp.Target = data, data
		interp.T = 1
		interp.Initialized = true
		netcomponents.NetBomb.SetValue(entry, data)
		return
	}
	interp.Prev = *netcomponents.NetBomb.Get(entry)
	interp.Target = data
	interp.T = 0
}

// NewNetInterpSystem moves replicated bombs toward their latest snapshot,
// reaching it after one server tick.
func NewNetInterpSystem(tickRate func() int) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		rate := tickRate()
		if rate <= 0 {
			return
		}
		step := float64(rate) / float64(cfg.C.TPS)

		components.NetInterp.Each(e.World, func(entry *donburi.Entry) {
			interp := components.NetInterp.Get(entry)
			if interp.T >= 1 {
				return
			}
			interp.T = math.Min(1, interp.T+step)
			netcomponents.NetBomb.SetValue(entry, *netcomponents.LerpNetBomb(interp.Prev, interp.Target, interp.T))
		})
	}
}

// PublishRemoteDetonations feeds server detonations into the local event
// bus so the scene's detonation handlers react to them.
func PublishRemoteDetonations(w donburi.World, detonations []messages.BombDetonatedEvent) {
	for _, d := range detonations {
		id, err := uuid.Parse(d.BombID)
		if err != nil {
			id = uuid.Nil
		}
		events.Detonation.Publish(w, events.DetonationEvent{
			BombID:   id,
			Position: dmath.Vec2{X: d.X, Y: d.Y},
			Chained:  d.Chained,
		})
	}
}

// NetBombInput turns actions into requests for the bomb server.
type NetBombInput struct {
	send func(any) error
	log  zerolog.Logger

	last    string // most recently placed bomb still in play
	lastSeq uint64
}

func NewNetBombInput(send func(any) error, logger zerolog.Logger) *NetBombInput {
	return &NetBombInput{
		send: send,
		log:  logger,
	}
}

func (n *NetBombInput) Update(ecs *ecs.ECS) {
	n.trackBombs(ecs.World)

	entry, ok := components.Input.First(ecs.World)
	if !ok {
		return
	}
	input := components.Input.Get(entry)

	if GetAction(input, cfg.ActionPlaceBomb).JustPressed {
		n.request(messages.PlaceBombRequest{X: input.CursorX, Y: input.CursorY, VelY: -cfg.Bomb.ThrowSpeed})
	}
	if GetAction(input, cfg.ActionArm).JustPressed {
		n.armAll(ecs.World, fuse.VisualOn, 0)
	}
	if GetAction(input, cfg.ActionRearm).JustPressed {
		n.armAll(ecs.World, fuse.Armed, cfg.Fuse.RearmDuration)
	}
	if GetAction(input, cfg.ActionDetonate).JustPressed && n.last != "" {
		n.request(messages.DetonateBombRequest{BombID: n.last})
	}
	if GetAction(input, cfg.ActionToggleDebug).JustPressed {
		if session, ok := components.SessionOf(ecs.World); ok {
			session.ShowDebug = !session.ShowDebug
		}
	}
}

// trackBombs targets the most recently placed bomb by server placement
// order. Once it is gone there is no target until a newer one arrives.
func (n *NetBombInput) trackBombs(w donburi.World) {
	present := false
	netcomponents.NetBomb.Each(w, func(e *donburi.Entry) {
		data := netcomponents.NetBomb.Get(e)
		if data.Seq > n.lastSeq {
			n.last, n.lastSeq = data.BombID, data.Seq
		}
		if data.BombID == n.last {
			present = true
		}
	})
	if !present {
		n.last = ""
	}
}

// armAll requests a countdown for every bomb in state. Duration 0 lets the
// server pick its default.
func (n *NetBombInput) armAll(w donburi.World, state fuse.State, duration float64) {
	netcomponents.NetBomb.Each(w, func(e *donburi.Entry) {
		b := netcomponents.NetBomb.Get(e)
		if fuse.State(b.State) == state {
			n.request(messages.ArmBombRequest{BombID: b.BombID, Duration: duration})
		}
	})
}

func (n *NetBombInput) request(msg any) {
	if err := n.send(msg); err != nil {
		n.log.Warn().Err(err).Msgf("could not send %T", msg)
	}
}

// NetHUDText is the status block for the networked scene.
func NetHUDText(w donburi.World, server, state string) string {
	var lit, armed int
	netcomponents.NetBomb.Each(w, func(e *donburi.Entry) {
		switch fuse.State(netcomponents.NetBomb.Get(e).State) {
		case fuse.VisualOn:
			lit++
		case fuse.Armed:
			armed++
		}
	})
	var booms, chains int
	if session, ok := components.SessionOf(w); ok {
		booms, chains = session.Detonations, session.ChainDetonations
	}
	return fmt.Sprintf("%s [%s]\nlit %d  armed %d\nbooms %d (chain %d)", server, state, lit, armed, booms, chains)
}
