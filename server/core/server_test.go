package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/automoto/doomerang-fuse/server/telemetry"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/shared/messages"
	"github.com/automoto/doomerang-fuse/shared/netcomponents"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
)

type recordingSync struct {
	tracked int
	flushed int
}

func (r *recordingSync) Track(donburi.World, *donburi.Entity) error {
	r.tracked++
	return nil
}

func (r *recordingSync) Flush() error {
	r.flushed++
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	records []telemetry.DetonationRecord
	closed  int
}

func (p *recordingPublisher) PublishDetonation(_ context.Context, rec telemetry.DetonationRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed++
	return nil
}

func (p *recordingPublisher) snapshot() []telemetry.DetonationRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]telemetry.DetonationRecord(nil), p.records...)
}

type fakePeer struct {
	id   string
	sent []any
}

func (f *fakePeer) Id() string { return f.id }

func (f *fakePeer) SendMessage(msg any) error {
	f.sent = append(f.sent, msg)
	return nil
}

type harness struct {
	srv  *Server
	pub  *recordingPublisher
	sync *recordingSync
	logs *bytes.Buffer
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	h := &harness{pub: &recordingPublisher{}, sync: &recordingSync{}, logs: &bytes.Buffer{}}
	srv, err := NewServer(cfg,
		WithLogger(zerolog.New(h.logs)),
		WithPublisher(h.pub),
		WithSyncer(h.sync),
		WithClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))),
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	h.srv = srv
	t.Cleanup(srv.Stop)
	return h
}

// records waits for queued telemetry to reach the publisher.
func (h *harness) records() []telemetry.DetonationRecord {
	h.srv.queued.Wait()
	return h.pub.snapshot()
}

// floorY is the center height of a bomb resting on the default floor.
func floorY() float64 {
	a := DefaultConfig().Arena
	return a.Height - a.FloorHeight - DefaultConfig().Bomb.Radius
}

func (h *harness) submit(t *testing.T, msg any) {
	t.Helper()
	if err := h.srv.Submit(msg); err != nil {
		t.Fatalf("Submit(%T): %v", msg, err)
	}
}

func (h *harness) onlyBomb(t *testing.T) *serverBomb {
	t.Helper()
	if len(h.srv.bombs) != 1 {
		t.Fatalf("expected 1 bomb, got %d", len(h.srv.bombs))
	}
	return h.srv.bombs[0]
}

func TestPlacedBombIsLitAndReplicated(t *testing.T) {
	h := newHarness(t, nil)
	h.submit(t, messages.PlaceBombRequest{X: 200, Y: floorY()})
	h.srv.Tick()

	b := h.onlyBomb(t)
	if b.ctrl.State() != fuse.VisualOn || !b.lit {
		t.Fatalf("placed bomb state = %v lit = %v", b.ctrl.State(), b.lit)
	}
	if h.sync.tracked != 1 {
		t.Fatalf("tracked = %d, want 1", h.sync.tracked)
	}

	entry := h.srv.World().Entry(b.entity)
	net := netcomponents.NetBomb.Get(entry)
	if net.BombID != b.id || !net.Lit || net.State != int(fuse.VisualOn) {
		t.Fatalf("replicated bomb = %+v", net)
	}
	if net.CordOffset <= 0 {
		t.Fatalf("lit cord should drift, offset = %v", net.CordOffset)
	}
}

func TestArmWithoutDurationUsesDefault(t *testing.T) {
	h := newHarness(t, nil)
	peer := &fakePeer{id: "p1"}
	h.srv.onJoin(peer, messages.JoinRequest{PlayerName: "ann"})

	h.submit(t, messages.PlaceBombRequest{X: 200, Y: floorY()})
	h.srv.Tick()
	b := h.onlyBomb(t)

	h.submit(t, messages.ArmBombRequest{BombID: b.id})
	ticks := 0
	for h.srv.BombCount() > 0 && ticks < 200 {
		h.srv.Tick()
		ticks++
	}

	// 3s at 20 ticks per second, allowing for float accumulation.
	if ticks < 60 || ticks > 61 {
		t.Fatalf("bomb went off after %d ticks, want 60 or 61", ticks)
	}

	recs := h.records()
	if len(recs) != 1 || recs[0].BombID != b.id || recs[0].Chained {
		t.Fatalf("published = %+v", recs)
	}
	if recs[0].Server != DefaultConfig().Name || recs[0].At.IsZero() {
		t.Fatalf("record missing server metadata: %+v", recs[0])
	}

	var events []messages.BombDetonatedEvent
	for _, m := range peer.sent {
		if e, ok := m.(messages.BombDetonatedEvent); ok {
			events = append(events, e)
		}
	}
	if len(events) != 1 || events[0].BombID != b.id {
		t.Fatalf("broadcast = %+v", events)
	}
	if h.srv.World().Valid(b.entity) {
		t.Fatal("spent bomb entity should be removed")
	}
}

func TestDetonateRequestExplodesAtCenter(t *testing.T) {
	h := newHarness(t, nil)
	h.submit(t, messages.PlaceBombRequest{X: 200, Y: floorY()})
	h.srv.Tick()
	b := h.onlyBomb(t)
	center := b.center()

	h.submit(t, messages.DetonateBombRequest{BombID: b.id})
	h.srv.Tick()

	recs := h.records()
	if len(recs) != 1 {
		t.Fatalf("published %d records, want 1", len(recs))
	}
	if recs[0].X != center.X || recs[0].Y != center.Y {
		t.Fatalf("detonated at (%v, %v), want %v", recs[0].X, recs[0].Y, center)
	}
	if h.srv.BombCount() != 0 {
		t.Fatal("bomb should be removed the tick it explodes")
	}
}

func TestChainReaction(t *testing.T) {
	h := newHarness(t, nil)
	chain := DefaultConfig().Chain

	h.submit(t, messages.PlaceBombRequest{X: 100, Y: floorY()})
	h.submit(t, messages.PlaceBombRequest{X: 100 + chain.Radius/2, Y: floorY()})
	h.submit(t, messages.PlaceBombRequest{X: 100 + chain.Radius*4, Y: floorY()})
	h.srv.Tick()
	if h.srv.BombCount() != 3 {
		t.Fatalf("bombs = %d, want 3", h.srv.BombCount())
	}
	first := h.srv.bombs[0]
	far := h.srv.bombs[2]

	h.submit(t, messages.DetonateBombRequest{BombID: first.id})
	h.srv.Tick()
	if got := len(h.records()); got != 1 {
		t.Fatalf("neighbour must not go off in the same tick, got %d records", got)
	}

	for range chain.Delay {
		h.srv.Tick()
	}

	recs := h.records()
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Chained || !recs[1].Chained {
		t.Fatalf("chained flags = %v, %v", recs[0].Chained, recs[1].Chained)
	}
	if h.srv.BombCount() != 1 || h.srv.bombs[0] != far {
		t.Fatal("bomb outside the chain radius should survive")
	}
}

func TestHardLandingSetsOffLitBomb(t *testing.T) {
	h := newHarness(t, nil)
	h.submit(t, messages.PlaceBombRequest{X: 300, Y: 40, VelY: 10})

	for i := 0; i < 60 && len(h.records()) == 0; i++ {
		h.srv.Tick()
	}

	recs := h.records()
	if len(recs) != 1 {
		t.Fatalf("lit bomb should explode on a hard landing, records = %d", len(recs))
	}
	if recs[0].Y < floorY()-1 {
		t.Fatalf("exploded at y=%v, expected at the floor", recs[0].Y)
	}
}

type blockingPublisher struct {
	recordingPublisher
	release chan struct{}
}

func (p *blockingPublisher) PublishDetonation(ctx context.Context, rec telemetry.DetonationRecord) error {
	<-p.release
	return p.recordingPublisher.PublishDetonation(ctx, rec)
}

func TestSlowPublisherDoesNotStallTicks(t *testing.T) {
	var logs bytes.Buffer
	pub := &blockingPublisher{release: make(chan struct{})}
	srv, err := NewServer(DefaultConfig(),
		WithLogger(zerolog.New(&logs)),
		WithPublisher(pub),
		WithSyncer(&recordingSync{}),
		WithClock(clockwork.NewFakeClock()),
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.Stop()

	if err := srv.Submit(messages.PlaceBombRequest{X: 200, Y: floorY()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	srv.Tick()
	if err := srv.Submit(messages.DetonateBombRequest{BombID: srv.bombs[0].id}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ticked := make(chan struct{})
	go func() {
		srv.Tick()
		for i := 0; i < telemetryBuffer+2; i++ {
			srv.publish(telemetry.DetonationRecord{BombID: "filler"})
		}
		close(ticked)
	}()
	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("tick blocked on the telemetry publisher")
	}

	if srv.BombCount() != 0 {
		t.Fatal("bomb should be gone once the tick returns")
	}
	if !strings.Contains(logs.String(), "telemetry queue full") {
		t.Fatal("expected a dropped record warning when the queue is full")
	}

	close(pub.release)
	srv.queued.Wait()
	recs := pub.snapshot()
	if len(recs) == 0 || recs[0].BombID == "filler" {
		t.Fatalf("detonation record should publish first, got %d records", len(recs))
	}
}

func TestPlacementOrderIsReplicated(t *testing.T) {
	h := newHarness(t, nil)
	for i := 0; i < 3; i++ {
		h.submit(t, messages.PlaceBombRequest{X: 100 + float64(i)*40, Y: floorY()})
	}
	h.srv.Tick()

	var prev uint64
	for _, b := range h.srv.bombs {
		net := netcomponents.NetBomb.Get(h.srv.World().Entry(b.entity))
		if net.Seq <= prev {
			t.Fatalf("seq %d after %d, want increasing in placement order", net.Seq, prev)
		}
		prev = net.Seq
	}
}

func TestBombLimit(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Bomb.MaxBombs = 2 })
	for i := 0; i < 3; i++ {
		h.submit(t, messages.PlaceBombRequest{X: 100 + float64(i)*40, Y: floorY()})
	}
	h.srv.Tick()

	if h.srv.BombCount() != 2 {
		t.Fatalf("bombs = %d, want 2", h.srv.BombCount())
	}
	if !strings.Contains(h.logs.String(), ErrBombLimit.Error()) {
		t.Fatalf("expected bomb limit to be logged, logs: %s", h.logs)
	}
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.srv.Submit("hello"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unknown type: %v", err)
	}
	if err := h.srv.Submit(messages.PlaceBombRequest{X: -50, Y: 10}); !errors.Is(err, ErrOutOfArena) {
		t.Fatalf("outside arena: %v", err)
	}

	h.submit(t, messages.ArmBombRequest{BombID: "missing"})
	h.srv.Tick()
	if !strings.Contains(h.logs.String(), ErrUnknownBomb.Error()) {
		t.Fatalf("expected unknown bomb to be logged, logs: %s", h.logs)
	}
}

func TestJoinHandshake(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Version = "1.2.0" })

	stale := &fakePeer{id: "old"}
	h.srv.onJoin(stale, messages.JoinRequest{Version: "1.0.0"})
	if len(stale.sent) != 1 {
		t.Fatalf("sent = %v", stale.sent)
	}
	if _, ok := stale.sent[0].(messages.JoinRejected); !ok {
		t.Fatalf("expected JoinRejected, got %T", stale.sent[0])
	}

	h.srv.onRequest(stale, messages.PlaceBombRequest{X: 200, Y: floorY()})
	h.srv.Tick()
	if h.srv.BombCount() != 0 {
		t.Fatal("requests from clients that have not joined must be dropped")
	}

	ok := &fakePeer{id: "new"}
	h.srv.onJoin(ok, messages.JoinRequest{Version: "1.2.0", PlayerName: "bo"})
	acc, isAcc := ok.sent[0].(messages.JoinAccepted)
	if !isAcc || acc.TickRate != DefaultConfig().TickRate || acc.ServerName != DefaultConfig().Name {
		t.Fatalf("expected JoinAccepted, got %+v", ok.sent[0])
	}
	if h.srv.PlayerCount() != 1 {
		t.Fatalf("players = %d", h.srv.PlayerCount())
	}

	h.srv.onRequest(ok, messages.PlaceBombRequest{X: 200, Y: floorY()})
	h.srv.Tick()
	if h.srv.BombCount() != 1 {
		t.Fatal("joined client's request should be applied")
	}

	h.srv.onDisconnect(ok, nil)
	if h.srv.PlayerCount() != 0 {
		t.Fatal("disconnect should forget the client")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.srv.Stop()
	h.srv.Stop()
	if h.pub.closed != 1 {
		t.Fatalf("publisher closed %d times", h.pub.closed)
	}
}

func TestGameLoopTicksOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticked := make(chan struct{}, 8)
	synced := 0
	loop := NewGameLoop(clock, 20, func() { ticked <- struct{}{} }, func() error {
		synced++
		return nil
	}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("loop never created its ticker: %v", err)
	}

	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Millisecond)
		select {
		case <-ticked:
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not run", i)
		}
	}

	loop.Stop()
	loop.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if synced != 3 {
		t.Fatalf("synced %d times, want 3", synced)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "server.yaml")
	data := "tick_rate: 30\nchain:\n  chain_radius: 64\nfuse:\n  pull_rate: 0.1\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TickRate != 30 || cfg.Chain.Radius != 64 || cfg.Fuse.PullRate != 0.1 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Chain.Delay != DefaultConfig().Chain.Delay || cfg.Fuse.MaxPull != DefaultConfig().Fuse.MaxPull {
		t.Fatal("unset fields should keep defaults")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("tick_rate: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero tick rate: %v", err)
	}

	negative := filepath.Join(dir, "negative.yaml")
	if err := os.WriteFile(negative, []byte("fuse:\n  max_pull: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(negative); !errors.Is(err, fuse.ErrInvalidConfig) {
		t.Fatalf("negative max pull: %v", err)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}
	if cfg, err := LoadConfig(""); err != nil || cfg.TickRate != DefaultConfig().TickRate {
		t.Fatalf("empty path should give defaults: %v", err)
	}
}
