package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/doomerang-fuse/shared/messages"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/rs/zerolog"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedGame
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoinedGame:
		return "joined"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrNotConnected = errors.New("not connected")

// Client manages a WebSocket connection to the bomb server.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu  sync.RWMutex
	log zerolog.Logger

	state      ClientState
	lastError  error
	serverName string
	tickRate   int
	conn       *websocket.Conn

	snapshotCh   chan esync.WorldSnapshot // size-1 buffered; latest wins
	detonationCh chan messages.BombDetonatedEvent
}

func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		log:          logger,
		state:        StateDisconnected,
		snapshotCh:   make(chan esync.WorldSnapshot, 1),
		detonationCh: make(chan messages.BombDetonatedEvent, 32),
	}
}

// Connect dials the server in a background goroutine and initiates the join handshake.
func (c *Client) Connect(address, version, playerName string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		c.log.Info().Str("address", address).Msg("connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		err := c.send(messages.JoinRequest{Version: version, PlayerName: playerName})
		if err != nil && !errors.Is(err, ErrNotConnected) {
			c.setError(fmt.Errorf("send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		c.onJoinAccepted(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		c.log.Warn().Str("reason", msg.Reason).Msg("join rejected")
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, snapshot esync.WorldSnapshot) {
		c.pushSnapshot(snapshot)
	})

	router.On(func(_ *router.NetworkClient, evt messages.BombDetonatedEvent) {
		c.pushDetonation(evt)
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		c.log.Info().Err(err).Msg("disconnected")
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		c.log.Warn().Err(err).Msg("network error")
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName
}

func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// LatestSnapshot returns the most recent WorldSnapshot, or nil. Non-blocking.
func (c *Client) LatestSnapshot() *esync.WorldSnapshot {
	select {
	case snap := <-c.snapshotCh:
		return &snap
	default:
		return nil
	}
}

// DrainDetonations returns all pending detonation events, non-blocking.
func (c *Client) DrainDetonations() []messages.BombDetonatedEvent {
	var out []messages.BombDetonatedEvent
	for {
		select {
		case evt := <-c.detonationCh:
			out = append(out, evt)
		default:
			return out
		}
	}
}

// SendMessage sends a request once the join has been accepted. Requests
// before that are dropped.
func (c *Client) SendMessage(msg any) error {
	if c.State() != StateJoinedGame {
		return nil
	}
	return c.send(msg)
}

func (c *Client) send(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize %T: %w", msg, err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) onJoinAccepted(msg messages.JoinAccepted) {
	c.log.Info().Str("server", msg.ServerName).Int("tick_rate", msg.TickRate).Msg("join accepted")
	c.mu.Lock()
	c.serverName = msg.ServerName
	c.tickRate = msg.TickRate
	c.state = StateJoinedGame
	c.mu.Unlock()
}

func (c *Client) pushSnapshot(snapshot esync.WorldSnapshot) {
	select { // drain stale, push latest
	case <-c.snapshotCh:
	default:
	}
	c.snapshotCh <- snapshot
}

func (c *Client) pushDetonation(evt messages.BombDetonatedEvent) {
	select {
	case c.detonationCh <- evt:
	default:
		c.log.Warn().Str("bomb_id", evt.BombID).Msg("detonation event dropped")
	}
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}
