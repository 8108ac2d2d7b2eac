package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/doomerang-fuse/server/telemetry"
	"github.com/automoto/doomerang-fuse/shared/messages"
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/jonboulle/clockwork"
	"github.com/leap-fish/necs/esync/srvsync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/rs/zerolog"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// ErrUnknownCommand is returned by Submit for message types the server
// does not simulate.
var ErrUnknownCommand = errors.New("unknown command")

const (
	publishTimeout  = 2 * time.Second
	telemetryBuffer = 256
)

// peer is a connected client the server can reply to.
type peer interface {
	Id() string
	SendMessage(msg any) error
}

// Syncer replicates tracked entities to clients.
type Syncer interface {
	Track(world donburi.World, entity *donburi.Entity) error
	Flush() error
}

// necsSync replicates through the necs server sync.
type necsSync struct{}

func newNecsSync(world donburi.World) necsSync {
	srvsync.UseEsync(world)
	return necsSync{}
}

func (necsSync) Track(world donburi.World, entity *donburi.Entity) error {
	return srvsync.NetworkSync(world, entity, srvsync.WithInterp(netcomponents.NetBomb))
}

func (necsSync) Flush() error { return srvsync.DoSync() }

// Option customises a Server.
type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithPublisher(p telemetry.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithSyncer replaces the necs replication, mostly for tests.
func WithSyncer(sy Syncer) Option {
	return func(s *Server) { s.sync = sy }
}

// Server is the authoritative bomb simulation. Network handlers only queue
// commands; all simulation state is owned by the loop goroutine.
type Server struct {
	cfg       Config
	log       zerolog.Logger
	clock     clockwork.Clock
	publisher telemetry.Publisher
	sync      Syncer

	world donburi.World
	space *resolv.Space
	loop  *GameLoop

	// loop goroutine only
	bombs       []*serverBomb
	byID        map[string]*serverBomb
	detonations []detonation
	placed      uint64

	ticks atomic.Int64

	cmdMu    sync.Mutex
	commands []any

	mu      sync.RWMutex
	clients map[string]peer // joined clients by connection id

	// detonation records waiting for the telemetry worker
	records       chan telemetry.DetonationRecord
	queued        sync.WaitGroup
	quit          chan struct{}
	telemetryDone chan struct{}

	stopOnce sync.Once
}

// NewServer validates cfg and builds a server ready to Start or Tick.
func NewServer(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		log:       zerolog.Nop(),
		clock:     clockwork.NewRealClock(),
		publisher: telemetry.NopPublisher{},
		world:     donburi.NewWorld(),
		byID:      make(map[string]*serverBomb),
		clients:   make(map[string]peer),

		records:       make(chan telemetry.DetonationRecord, telemetryBuffer),
		quit:          make(chan struct{}),
		telemetryDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sync == nil {
		s.sync = newNecsSync(s.world)
	}

	s.buildArena()
	s.loop = NewGameLoop(s.clock, cfg.TickRate, s.Tick, s.sync.Flush, s.log)
	go s.runTelemetry()
	return s, nil
}

// Start registers the network handlers, runs the game loop and serves
// websocket clients on port until the transport fails.
func (s *Server) Start(port uint) error {
	s.setupRouterCallbacks()

	go s.loop.Run(context.Background())

	s.log.Info().Str("name", s.cfg.Name).Uint("port", port).Int("tick_rate", s.cfg.TickRate).
		Msg("server listening")
	transport := transports.NewWsServerTransport(port, "", nil)
	if err := transport.Start(); err != nil {
		return fmt.Errorf("websocket transport: %w", err)
	}
	return nil
}

// Stop halts the game loop, flushes queued telemetry and closes the
// publisher. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.loop.Stop()
		close(s.quit)
		<-s.telemetryDone
		if err := s.publisher.Close(); err != nil {
			s.log.Warn().Err(err).Msg("could not close telemetry publisher")
		}
	})
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		s.log.Info().Str("client", client.Id()).Msg("client connected")
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.onDisconnect(client, err)
	})

	router.On(func(client *router.NetworkClient, req messages.JoinRequest) {
		s.onJoin(client, req)
	})
	router.On(func(client *router.NetworkClient, req messages.PlaceBombRequest) {
		s.onRequest(client, req)
	})
	router.On(func(client *router.NetworkClient, req messages.ArmBombRequest) {
		s.onRequest(client, req)
	})
	router.On(func(client *router.NetworkClient, req messages.DetonateBombRequest) {
		s.onRequest(client, req)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		s.log.Warn().Err(err).Msg("client error")
	})
}

func (s *Server) onJoin(p peer, req messages.JoinRequest) {
	if s.cfg.Version != "" && req.Version != s.cfg.Version {
		s.log.Info().Str("client", p.Id()).Str("version", req.Version).Msg("join rejected")
		reason := fmt.Sprintf("version mismatch: server requires %s", s.cfg.Version)
		if err := p.SendMessage(messages.JoinRejected{Reason: reason}); err != nil {
			s.log.Warn().Err(err).Str("client", p.Id()).Msg("could not send join rejection")
		}
		return
	}

	s.mu.Lock()
	s.clients[p.Id()] = p
	s.mu.Unlock()

	s.log.Info().Str("client", p.Id()).Str("player", req.PlayerName).Msg("client joined")
	err := p.SendMessage(messages.JoinAccepted{
		ServerName: s.cfg.Name,
		TickRate:   s.cfg.TickRate,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("client", p.Id()).Msg("could not send join acceptance")
	}
}

func (s *Server) onRequest(p peer, msg any) {
	s.mu.RLock()
	_, joined := s.clients[p.Id()]
	s.mu.RUnlock()
	if !joined {
		s.log.Debug().Str("client", p.Id()).Msgf("dropping %T from client that has not joined", msg)
		return
	}
	if err := s.Submit(msg); err != nil {
		s.log.Warn().Err(err).Str("client", p.Id()).Msg("request refused")
	}
}

func (s *Server) onDisconnect(p peer, err error) {
	s.mu.Lock()
	delete(s.clients, p.Id())
	s.mu.Unlock()

	ev := s.log.Info()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("client", p.Id()).Msg("client disconnected")
}

// Submit queues a request for the next tick. It is safe to call from any
// goroutine.
func (s *Server) Submit(msg any) error {
	switch m := msg.(type) {
	case messages.PlaceBombRequest:
		if !s.insideArena(m.X, m.Y) {
			return fmt.Errorf("%w: (%v, %v)", ErrOutOfArena, m.X, m.Y)
		}
	case messages.ArmBombRequest, messages.DetonateBombRequest:
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, msg)
	}

	s.cmdMu.Lock()
	s.commands = append(s.commands, msg)
	s.cmdMu.Unlock()
	return nil
}

// Tick runs one simulation step: queued commands, fuses and bodies, chain
// reactions and detonation reports, then replicated state. Sync is left to
// the loop.
func (s *Server) Tick() {
	s.ticks.Add(1)
	s.drainCommands()
	s.stepBombs()
	s.resolveDetonations()
	for _, b := range s.bombs {
		s.writeNetBomb(b)
	}
	s.removeSpent()
}

func (s *Server) drainCommands() {
	s.cmdMu.Lock()
	cmds := s.commands
	s.commands = nil
	s.cmdMu.Unlock()

	for _, cmd := range cmds {
		var err error
		switch m := cmd.(type) {
		case messages.PlaceBombRequest:
			_, err = s.placeBomb(m)
		case messages.ArmBombRequest:
			err = s.armBomb(m)
		case messages.DetonateBombRequest:
			err = s.detonateBomb(m)
		}
		if err != nil {
			s.log.Info().Err(err).Msgf("%T not applied", cmd)
		}
	}
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.clients {
		if err := p.SendMessage(msg); err != nil {
			s.log.Warn().Err(err).Str("client", id).Msgf("could not send %T", msg)
		}
	}
}

// publish queues rec for the telemetry worker without blocking the tick.
func (s *Server) publish(rec telemetry.DetonationRecord) {
	s.queued.Add(1)
	select {
	case s.records <- rec:
	default:
		s.queued.Done()
		s.log.Warn().Str("bomb_id", rec.BombID).Msg("telemetry queue full, dropping detonation")
	}
}

func (s *Server) runTelemetry() {
	defer close(s.telemetryDone)
	for {
		select {
		case <-s.quit:
			for {
				select {
				case rec := <-s.records:
					s.sendRecord(rec)
				default:
					return
				}
			}
		case rec := <-s.records:
			s.sendRecord(rec)
		}
	}
}

func (s *Server) sendRecord(rec telemetry.DetonationRecord) {
	defer s.queued.Done()
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishDetonation(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("bomb_id", rec.BombID).Msg("could not publish detonation")
	}
}

// World returns the replicated ECS world.
func (s *Server) World() donburi.World {
	return s.world
}

// BombCount returns the number of live bombs. Loop goroutine or tests only.
func (s *Server) BombCount() int {
	return len(s.bombs)
}

// Ticks returns how many ticks have run.
func (s *Server) Ticks() int64 {
	return s.ticks.Load()
}

// PlayerCount returns the number of joined clients.
func (s *Server) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
