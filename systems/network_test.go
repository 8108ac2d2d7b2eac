package systems

import (
	"strings"
	"testing"

	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/messages"
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
)

func (a *arena) netBomb(data netcomponents.NetBombData) *donburi.Entry {
	entry := a.ecs.World.Entry(a.ecs.World.Create(netcomponents.NetBomb, components.NetInterp))
	SetNetBombTarget(a.ecs.World, entry, data)
	return entry
}

func TestNetInterpReachesTargetInOneServerTick(t *testing.T) {
	a := newArena(t)
	entry := a.netBomb(netcomponents.NetBombData{BombID: "a", X: 100, Y: 100})

	if got := netcomponents.NetBomb.Get(entry); got.X != 100 {
		t.Fatalf("first snapshot should apply directly, x = %v", got.X)
	}

	SetNetBombTarget(a.ecs.World, entry, netcomponents.NetBombData{BombID: "a", X: 130, Y: 100, State: int(fuse.Armed)})
	interp := NewNetInterpSystem(func() int { return 20 })

	interp(a.ecs) // 20/60 of the way
	mid := netcomponents.NetBomb.Get(entry)
	if mid.X <= 100 || mid.X >= 130 {
		t.Fatalf("x after one frame = %v, want between 100 and 130", mid.X)
	}
	if fuse.State(mid.State) != fuse.Armed {
		t.Fatal("state should come from the newest snapshot")
	}

	for i := 0; i < cfg.C.TPS/20; i++ {
		interp(a.ecs)
	}
	if got := netcomponents.NetBomb.Get(entry).X; got != 130 {
		t.Fatalf("x = %v, want 130 after a full server tick", got)
	}
}

func TestNetBombInputRequests(t *testing.T) {
	a := newArena(t)
	var sent []any
	in := NewNetBombInput(func(msg any) error {
		sent = append(sent, msg)
		return nil
	}, zerolog.Nop())

	a.netBomb(netcomponents.NetBombData{BombID: "old", Seq: 1, State: int(fuse.Armed)})
	in.Update(a.ecs)
	a.netBomb(netcomponents.NetBombData{BombID: "new", Seq: 2, State: int(fuse.VisualOn)})

	input := getOrCreateInput(a.ecs)
	input.CursorX, input.CursorY = 200, 100
	input.Previous = [cfg.ActionCount]bool{}
	for _, id := range []cfg.ActionID{cfg.ActionPlaceBomb, cfg.ActionArm, cfg.ActionRearm, cfg.ActionDetonate} {
		input.Current[id] = true
	}
	in.Update(a.ecs)

	var place *messages.PlaceBombRequest
	var arms []messages.ArmBombRequest
	var det *messages.DetonateBombRequest
	for _, m := range sent {
		switch v := m.(type) {
		case messages.PlaceBombRequest:
			place = &v
		case messages.ArmBombRequest:
			arms = append(arms, v)
		case messages.DetonateBombRequest:
			det = &v
		}
	}

	if place == nil || place.X != 200 || place.Y != 100 || place.VelY != -cfg.Bomb.ThrowSpeed {
		t.Fatalf("place request = %+v", place)
	}
	if len(arms) != 2 {
		t.Fatalf("arm requests = %+v, want one arm and one re-arm", arms)
	}
	for _, arm := range arms {
		switch arm.BombID {
		case "new":
			if arm.Duration != 0 {
				t.Fatalf("arm should leave the duration to the server, got %v", arm.Duration)
			}
		case "old":
			if arm.Duration != cfg.Fuse.RearmDuration {
				t.Fatalf("re-arm duration = %v", arm.Duration)
			}
		default:
			t.Fatalf("unexpected arm target %q", arm.BombID)
		}
	}
	if det == nil || det.BombID != "new" {
		t.Fatalf("detonate should target the newest bomb, got %+v", det)
	}
}

func TestNetDetonateTargetsLatestPlacement(t *testing.T) {
	a := newArena(t)
	var dets []string
	in := NewNetBombInput(func(msg any) error {
		if d, ok := msg.(messages.DetonateBombRequest); ok {
			dets = append(dets, d.BombID)
		}
		return nil
	}, zerolog.Nop())

	// One snapshot can bring several bombs in any order.
	a.netBomb(netcomponents.NetBombData{BombID: "five", Seq: 5})
	newest := a.netBomb(netcomponents.NetBombData{BombID: "nine", Seq: 9})
	a.netBomb(netcomponents.NetBombData{BombID: "seven", Seq: 7})

	input := getOrCreateInput(a.ecs)
	pressDetonate := func() {
		input.Previous = [cfg.ActionCount]bool{}
		input.Current = [cfg.ActionCount]bool{}
		input.Current[cfg.ActionDetonate] = true
		in.Update(a.ecs)
	}

	pressDetonate()
	if len(dets) != 1 || dets[0] != "nine" {
		t.Fatalf("detonate targets = %v, want [nine]", dets)
	}

	newest.Remove()
	pressDetonate()
	if len(dets) != 1 {
		t.Fatalf("older bombs must not become the target, sent %v", dets)
	}

	a.netBomb(netcomponents.NetBombData{BombID: "ten", Seq: 10})
	pressDetonate()
	if len(dets) != 2 || dets[1] != "ten" {
		t.Fatalf("detonate targets = %v, want [nine ten]", dets)
	}
}

func TestRemoteDetonationRunsHandlers(t *testing.T) {
	a := newArena(t)
	id := uuid.New()

	PublishRemoteDetonations(a.ecs.World, []messages.BombDetonatedEvent{
		{BombID: id.String(), X: 50, Y: 60},
		{BombID: "not-a-uuid", X: 70, Y: 60, Chained: true},
	})
	ProcessEvents(a.ecs)

	if n := countExplosions(a.ecs.World); n != 2 {
		t.Fatalf("explosions = %d, want 2", n)
	}
	s := a.session()
	if s.Detonations != 2 || s.ChainDetonations != 1 {
		t.Fatalf("session counters = %d/%d", s.Detonations, s.ChainDetonations)
	}

	a.netBomb(netcomponents.NetBombData{BombID: "x", State: int(fuse.VisualOn)})
	text := NetHUDText(a.ecs.World, "arena", "joined")
	for _, want := range []string{"arena [joined]", "lit 1  armed 0", "booms 2 (chain 1)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("HUD %q missing %q", text, want)
		}
	}
}
