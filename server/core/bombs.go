package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/automoto/doomerang-fuse/server/telemetry"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/gamemath"
	"github.com/automoto/doomerang-fuse/shared/messages"
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/google/uuid"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	dmath "github.com/yohamta/donburi/features/math"
)

const (
	solidTag = "solid"
	bombTag  = "bomb"

	// Bomb tuning is expressed per 60 Hz frame; slower server ticks take
	// several physics steps.
	physicsTPS = 60
)

var (
	ErrBombLimit   = errors.New("bomb limit reached")
	ErrUnknownBomb = errors.New("unknown bomb")
	ErrOutOfArena  = errors.New("position outside the arena")
)

// serverBomb is one simulated bomb. Only the loop goroutine touches it.
type serverBomb struct {
	id     string
	seq    uint64
	entity donburi.Entity
	ctrl   *fuse.Controller
	obj    *resolv.Object
	body   gamemath.Body

	lit        bool
	cord       float64
	chainTimer int // ticks until a chained detonation, 0 = none pending
	chained    bool
}

func (b *serverBomb) center() dmath.Vec2 {
	return dmath.Vec2{X: b.obj.X + b.obj.W/2, Y: b.obj.Y + b.obj.H/2}
}

type detonation struct {
	bomb     *serverBomb
	position dmath.Vec2
}

// serverEffects records a fuse's side effects on its bomb and queues
// detonations for the end of the tick.
type serverEffects struct {
	s *Server
	b *serverBomb
}

func (e *serverEffects) StartAmbient()                { e.b.lit = true }
func (e *serverEffects) StopAmbient()                 { e.b.lit = false }
func (e *serverEffects) SetCordOffset(pulled float64) { e.b.cord = pulled }
func (e *serverEffects) Detonate(position dmath.Vec2) {
	e.s.detonations = append(e.s.detonations, detonation{bomb: e.b, position: position})
}

func (s *Server) buildArena() {
	a := s.cfg.Arena
	s.space = resolv.NewSpace(int(a.Width), int(a.Height), a.CellSize, a.CellSize)
	s.space.Add(
		resolv.NewObject(0, a.Height-a.FloorHeight, a.Width, a.FloorHeight, solidTag),
		resolv.NewObject(0, 0, a.WallThickness, a.Height-a.FloorHeight, solidTag),
		resolv.NewObject(a.Width-a.WallThickness, 0, a.WallThickness, a.Height-a.FloorHeight, solidTag),
	)
}

func (s *Server) insideArena(x, y float64) bool {
	a := s.cfg.Arena
	r := s.cfg.Bomb.Radius
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return x-r >= a.WallThickness && x+r <= a.Width-a.WallThickness &&
		y-r >= 0 && y+r <= a.Height-a.FloorHeight
}

func (s *Server) placeBomb(req messages.PlaceBombRequest) (*serverBomb, error) {
	if s.cfg.Bomb.MaxBombs > 0 && len(s.bombs) >= s.cfg.Bomb.MaxBombs {
		return nil, ErrBombLimit
	}
	if !s.insideArena(req.X, req.Y) {
		return nil, fmt.Errorf("%w: (%v, %v)", ErrOutOfArena, req.X, req.Y)
	}

	r := s.cfg.Bomb.Radius
	b := &serverBomb{
		id:  uuid.NewString(),
		obj: resolv.NewObject(req.X-r, req.Y-r, r*2, r*2, bombTag),
		body: gamemath.Body{
			SpeedX:      req.VelX,
			SpeedY:      req.VelY,
			Gravity:     s.cfg.Bomb.Gravity,
			Friction:    s.cfg.Bomb.Friction,
			MaxFall:     s.cfg.Bomb.MaxFallSpeed,
			Restitution: s.cfg.Bomb.Restitution,
		},
	}
	b.obj.Data = b

	geometry := s.cfg.Cord.Geometry(r)
	ctrl, err := fuse.New(s.cfg.Fuse.controller(), &serverEffects{s: s, b: b},
		fuse.WithLogger(s.log.With().Str("bomb_id", b.id).Logger()),
		fuse.WithCordTip(func(pulled float64) dmath.Vec2 {
			return gamemath.CordTip(geometry, b.center(), pulled)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create bomb fuse: %w", err)
	}
	b.ctrl = ctrl

	b.entity = s.world.Create(netcomponents.NetBomb)
	if err := s.sync.Track(s.world, &b.entity); err != nil {
		s.world.Remove(b.entity)
		return nil, fmt.Errorf("network sync bomb: %w", err)
	}

	s.placed++
	b.seq = s.placed

	s.space.Add(b.obj)
	s.bombs = append(s.bombs, b)
	s.byID[b.id] = b

	// Placed bombs are lit straight away.
	b.ctrl.BeginVisual()
	s.writeNetBomb(b)

	s.log.Debug().Str("bomb_id", b.id).Float64("x", req.X).Float64("y", req.Y).Msg("bomb placed")
	return b, nil
}

func (s *Server) armBomb(req messages.ArmBombRequest) error {
	b, ok := s.byID[req.BombID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBomb, req.BombID)
	}
	duration := req.Duration
	if duration <= 0 {
		duration = s.cfg.DefaultArmDuration
	}
	b.ctrl.Arm(duration)
	return nil
}

func (s *Server) detonateBomb(req messages.DetonateBombRequest) error {
	b, ok := s.byID[req.BombID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBomb, req.BombID)
	}
	b.ctrl.ExplodeNow(b.center())
	return nil
}

// stepBombs advances every live bomb by one server tick.
func (s *Server) stepBombs() {
	dt := 1 / float64(s.cfg.TickRate)
	substeps := max(1, physicsTPS/s.cfg.TickRate)

	for _, b := range s.bombs {
		if b.ctrl.Spent() {
			continue
		}

		if b.chainTimer > 0 {
			b.chainTimer--
			if b.chainTimer == 0 {
				b.ctrl.ExplodeNow(b.center())
				continue
			}
		}

		if s.stepBody(b, substeps) {
			b.ctrl.ExplodeNow(b.center())
			continue
		}

		b.ctrl.Advance(dt)
	}
}

// stepBody runs the physics substeps and reports whether a lit bomb hit the
// ground hard enough to go off.
func (s *Server) stepBody(b *serverBomb, substeps int) bool {
	for range substeps {
		landed := gamemath.StepBody(&b.body, b.obj, solidTag, s.cfg.Bomb.RestSpeed)
		if b.lit && landed >= s.cfg.Bomb.ImpactSpeed {
			return true
		}
	}
	return false
}

// resolveDetonations handles every detonation queued this tick: it flags
// neighbours for chain reactions, tells clients, and publishes telemetry.
func (s *Server) resolveDetonations() {
	// Flagging can't detonate anything this tick, so the queue is stable.
	pending := s.detonations
	s.detonations = nil

	for _, d := range pending {
		s.flagChain(d)

		evt := messages.BombDetonatedEvent{
			BombID:  d.bomb.id,
			X:       d.position.X,
			Y:       d.position.Y,
			Chained: d.bomb.chained,
		}
		s.broadcast(evt)
		s.publish(telemetry.DetonationRecord{
			Server:  s.cfg.Name,
			BombID:  d.bomb.id,
			X:       d.position.X,
			Y:       d.position.Y,
			Chained: d.bomb.chained,
			Tick:    s.ticks.Load(),
			At:      s.clock.Now(),
		})
		s.log.Info().Str("bomb_id", d.bomb.id).Bool("chained", d.bomb.chained).
			Float64("x", d.position.X).Float64("y", d.position.Y).Msg("bomb detonated")
	}
}

func (s *Server) flagChain(d detonation) {
	radius := s.cfg.Chain.Radius
	if radius <= 0 {
		return
	}
	delay := max(1, s.cfg.Chain.Delay)

	for _, obj := range s.space.Objects() {
		if !obj.HasTags(bombTag) {
			continue
		}
		other, ok := obj.Data.(*serverBomb)
		if !ok || other == d.bomb || other.ctrl.Spent() || other.chainTimer > 0 {
			continue
		}
		if gamemath.WithinRadius(d.position, other.center(), radius) {
			other.chained = true
			other.chainTimer = delay
		}
	}
}

func (s *Server) writeNetBomb(b *serverBomb) {
	if !s.world.Valid(b.entity) {
		return
	}
	c := b.center()
	netcomponents.NetBomb.SetValue(s.world.Entry(b.entity), netcomponents.NetBombData{
		BombID:     b.id,
		Seq:        b.seq,
		X:          c.X,
		Y:          c.Y,
		VelX:       b.body.SpeedX,
		VelY:       b.body.SpeedY,
		State:      int(b.ctrl.State()),
		Lit:        b.lit,
		CordOffset: b.cord,
		Progress:   b.ctrl.Progress(),
	})
}

func (s *Server) removeSpent() {
	live := s.bombs[:0]
	for _, b := range s.bombs {
		if !b.ctrl.Spent() {
			live = append(live, b)
			continue
		}
		s.space.Remove(b.obj)
		delete(s.byID, b.id)
		if s.world.Valid(b.entity) {
			s.world.Remove(b.entity)
		}
	}
	clear(s.bombs[len(live):])
	s.bombs = live
}
