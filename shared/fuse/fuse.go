// Package fuse implements the timed fuse controller shared by the client and
// the dedicated server. It has no dependency on ebiten so the server binary
// stays headless.
package fuse

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	dmath "github.com/yohamta/donburi/features/math"
)

// State is the fuse lifecycle state.
type State int

const (
	Idle State = iota
	VisualOn
	Armed
	Exploded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case VisualOn:
		return "visual_on"
	case Armed:
		return "armed"
	case Exploded:
		return "exploded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Effects receives the controller's side effects. The host owns all
// rendering, audio and transforms; the controller only reports through here.
type Effects interface {
	StartAmbient()
	StopAmbient()
	Detonate(position dmath.Vec2)
	SetCordOffset(pulled float64)
}

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid fuse config")

// Config is fixed for the lifetime of a controller.
type Config struct {
	JitterRate float64 // cord drift per second while lit but not counting down
	PullRate   float64 // cord pull per second while counting down
	MaxPull    float64 // cap on the armed pull
}

func (c Config) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, name, v)
		}
		return nil
	}
	if err := check("jitter rate", c.JitterRate); err != nil {
		return err
	}
	if err := check("pull rate", c.PullRate); err != nil {
		return err
	}
	return check("max pull", c.MaxPull)
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for caller contract violations.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithCordTip sets the function that maps the current pull amount to the
// world position used as the detonation point when the countdown elapses.
func WithCordTip(fn func(pulled float64) dmath.Vec2) Option {
	return func(c *Controller) { c.cordTip = fn }
}

// WithOnSpent registers a callback fired once, after detonation, telling the
// host the entity may be destroyed.
func WithOnSpent(fn func()) Option {
	return func(c *Controller) { c.onSpent = fn }
}

// Controller is a single-threaded, tick-driven fuse. It never blocks and has
// no internal timers: time only moves through Advance.
type Controller struct {
	cfg     Config
	fx      Effects
	log     zerolog.Logger
	cordTip func(pulled float64) dmath.Vec2
	onSpent func()

	state         State
	pulled        float64
	elapsed       float64
	armedDuration float64
}

// New returns an Idle controller.
func New(cfg Config, fx Effects, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fx == nil {
		return nil, fmt.Errorf("%w: effects must not be nil", ErrInvalidConfig)
	}
	c := &Controller{
		cfg: cfg,
		fx:  fx,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) State() State           { return c.state }
func (c *Controller) Pulled() float64        { return c.pulled }
func (c *Controller) Elapsed() float64       { return c.elapsed }
func (c *Controller) ArmedDuration() float64 { return c.armedDuration }
func (c *Controller) Config() Config         { return c.cfg }
func (c *Controller) Spent() bool            { return c.state == Exploded }

// Remaining returns the seconds left on the countdown, or 0 when not armed.
func (c *Controller) Remaining() float64 {
	if c.state != Armed {
		return 0
	}
	return math.Max(0, c.armedDuration-c.elapsed)
}

// Progress returns the countdown progress in [0, 1], or 0 when not armed.
func (c *Controller) Progress() float64 {
	if c.state != Armed || c.armedDuration <= 0 {
		return 0
	}
	return math.Min(1, c.elapsed/c.armedDuration)
}

// BeginVisual lights the fuse. Only an Idle fuse reacts.
func (c *Controller) BeginVisual() {
	if c.state != Idle {
		return
	}
	c.state = VisualOn
	c.pulled = 0
	c.fx.StartAmbient()
	c.fx.SetCordOffset(c.pulled)
}

// Arm starts the countdown, or restarts it when already armed. The cord
// keeps its current pull either way.
func (c *Controller) Arm(duration float64) {
	if c.state == Exploded {
		return
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		c.log.Warn().Float64("duration", duration).Str("state", c.state.String()).
			Msg("ignoring arm with non-positive duration")
		return
	}
	if c.state == Idle {
		c.BeginVisual()
	}
	c.state = Armed
	c.elapsed = 0
	c.armedDuration = duration
}

// Advance steps the fuse by delta seconds. Negative deltas are a caller bug;
// they are logged and treated as zero.
func (c *Controller) Advance(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta < 0 {
		c.log.Warn().Float64("delta", delta).Str("state", c.state.String()).
			Msg("invalid advance delta clamped to zero")
		delta = 0
	}

	switch c.state {
	case VisualOn:
		// Drift is not clamped against MaxPull.
		c.pull(c.cfg.JitterRate * delta)
	case Armed:
		c.elapsed += delta
		c.pull(math.Min(c.cfg.PullRate*delta, math.Max(0, c.cfg.MaxPull-c.pulled)))
		if c.elapsed >= c.armedDuration {
			c.ExplodeNow(c.tip())
		}
	}
}

// ExplodeNow detonates at position. It is terminal and fires its effects at
// most once; it reports whether this call did the detonation.
func (c *Controller) ExplodeNow(position dmath.Vec2) bool {
	if c.state == Exploded {
		return false
	}
	c.state = Exploded
	c.elapsed = 0
	c.armedDuration = 0
	c.fx.StopAmbient()
	c.fx.Detonate(position)
	if c.onSpent != nil {
		c.onSpent()
	}
	return true
}

func (c *Controller) pull(amount float64) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return
	}
	c.pulled += amount
	c.fx.SetCordOffset(c.pulled)
}

func (c *Controller) tip() dmath.Vec2 {
	if c.cordTip == nil {
		return dmath.Vec2{}
	}
	return c.cordTip(c.pulled)
}
