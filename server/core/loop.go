package core

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// GameLoop drives tick then sync at a fixed rate.
type GameLoop struct {
	clock    clockwork.Clock
	tickRate int
	tick     func()
	sync     func() error
	log      zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewGameLoop(clock clockwork.Clock, tickRate int, tick func(), sync func() error, logger zerolog.Logger) *GameLoop {
	return &GameLoop{
		clock:    clock,
		tickRate: tickRate,
		tick:     tick,
		sync:     sync,
		log:      logger,
		stopChan: make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx is done.
func (g *GameLoop) Run(ctx context.Context) {
	ticker := g.clock.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	g.log.Info().Int("tick_rate", g.tickRate).Msg("game loop started")

	for {
		select {
		case <-ctx.Done():
			g.log.Info().Msg("game loop stopped")
			return
		case <-g.stopChan:
			g.log.Info().Msg("game loop stopped")
			return
		case <-ticker.Chan():
			g.step()
		}
	}
}

// Stop ends Run. Extra calls are no-ops.
func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

func (g *GameLoop) step() {
	g.tick()
	if g.sync == nil {
		return
	}
	if err := g.sync(); err != nil {
		g.log.Warn().Err(err).Msg("sync error")
	}
}
