package systems

import (
	"math"

	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/automoto/doomerang-fuse/systems/factory"
	"github.com/automoto/doomerang-fuse/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// Reusable slice for gamepad IDs to avoid allocations
var gamepadIDs []ebiten.GamepadID

// UpdateInput polls raw input and updates the Input component.
// Must run BEFORE the bomb input system.
func UpdateInput(ecs *ecs.ECS) {
	input := getOrCreateInput(ecs)

	// Swap buffers: current becomes previous, then zero out current
	input.Previous = input.Current
	input.Current = [cfg.ActionCount]bool{}

	gamepadIDs = ebiten.AppendGamepadIDs(gamepadIDs[:0])

	var keyboardUsed, gamepadUsed bool

	for actionID, binding := range cfg.Input.Bindings {
		for _, key := range binding.Keys {
			if ebiten.IsKeyPressed(key) {
				input.Current[actionID] = true
				keyboardUsed = true
			}
		}
		for _, btn := range binding.MouseButtons {
			if ebiten.IsMouseButtonPressed(btn) {
				input.Current[actionID] = true
				keyboardUsed = true
			}
		}
		for _, gpID := range gamepadIDs {
			if !ebiten.IsStandardGamepadLayoutAvailable(gpID) {
				continue
			}
			for _, btn := range binding.StandardGamepadButtons {
				if ebiten.IsStandardGamepadButtonPressed(gpID, btn) {
					input.Current[actionID] = true
					gamepadUsed = true
				}
			}
		}
	}

	if gamepadUsed {
		input.LastInputMethod = components.InputGamepad
		// Gamepads drop bombs from the top middle of the arena.
		input.CursorX = float64(cfg.C.Width) / 2
		input.CursorY = float64(cfg.C.Height) / 4
	} else {
		if keyboardUsed {
			input.LastInputMethod = components.InputKeyboard
		}
		cx, cy := ebiten.CursorPosition()
		ox, oy := CameraOffset(ecs.World, cfg.C.Width, cfg.C.Height)
		input.CursorX = float64(cx) - ox
		input.CursorY = float64(cy) - oy
	}
}

// getOrCreateInput returns the singleton Input component, creating if needed
func getOrCreateInput(ecs *ecs.ECS) *components.InputData {
	entry, ok := components.Input.First(ecs.World)
	if !ok {
		entry = ecs.World.Entry(ecs.World.Create(components.Input))
	}
	return components.Input.Get(entry)
}

// GetAction returns the full ActionState for an action ID.
// JustPressed/JustReleased are derived from current vs previous frame.
func GetAction(input *components.InputData, id cfg.ActionID) components.ActionState {
	curr := input.Current[id]
	prev := input.Previous[id]
	return components.ActionState{
		Pressed:      curr,
		JustPressed:  curr && !prev,
		JustReleased: !curr && prev,
	}
}

// BombInput turns actions into fuse operations.
type BombInput struct {
	store *Store
	log   zerolog.Logger
}

// NewBombInput builds the bomb input system. store may be nil.
func NewBombInput(store *Store, logger zerolog.Logger) *BombInput {
	return &BombInput{store: store, log: logger}
}

// Update handles this frame's freshly pressed actions.
func (b *BombInput) Update(ecs *ecs.ECS) {
	entry, ok := components.Input.First(ecs.World)
	if !ok {
		return
	}
	input := components.Input.Get(entry)
	session, ok := components.SessionOf(ecs.World)
	if !ok {
		return
	}

	if GetAction(input, cfg.ActionPlaceBomb).JustPressed {
		b.place(ecs, input.CursorX, input.CursorY)
	}
	if GetAction(input, cfg.ActionArm).JustPressed {
		if armBombs(ecs.World, fuse.VisualOn, cfg.Fuse.DefaultDuration) > 0 {
			PlaySFX(ecs, cfg.SoundArm)
		}
	}
	if GetAction(input, cfg.ActionRearm).JustPressed {
		if armBombs(ecs.World, fuse.Armed, cfg.Fuse.RearmDuration) > 0 {
			PlaySFX(ecs, cfg.SoundArm)
		}
	}
	if GetAction(input, cfg.ActionDetonate).JustPressed {
		detonateLast(session)
	}
	if GetAction(input, cfg.ActionPullRateUp).JustPressed {
		b.adjustPullRate(session, cfg.Fuse.PullRateStep)
	}
	if GetAction(input, cfg.ActionPullRateDown).JustPressed {
		b.adjustPullRate(session, -cfg.Fuse.PullRateStep)
	}
	if GetAction(input, cfg.ActionToggleDebug).JustPressed {
		session.ShowDebug = !session.ShowDebug
	}
}

func (b *BombInput) place(ecs *ecs.ECS, x, y float64) {
	bomb, err := factory.CreateBomb(ecs, x, y, 0, -cfg.Bomb.ThrowSpeed, b.log)
	if err != nil {
		b.log.Info().Err(err).Msg("bomb not placed")
		return
	}
	components.Bomb.Get(bomb).Fuse.BeginVisual()
}

func (b *BombInput) adjustPullRate(session *components.SessionData, step float64) {
	// strip float drift from repeated steps
	rate := math.Max(0, session.PullRate+step)
	rate = math.Round(rate*1e6) / 1e6
	if rate == session.PullRate {
		return
	}
	session.PullRate = rate

	err := b.store.SaveTuning(FuseTuning{
		PullRate:   rate,
		JitterRate: cfg.Fuse.JitterRate,
		MaxPull:    cfg.Fuse.MaxPull,
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("could not save fuse tuning")
	}
	b.log.Info().Float64("pull_rate", rate).Msg("pull rate changed")
}

// armBombs arms every bomb currently in state and returns how many.
func armBombs(w donburi.World, state fuse.State, duration float64) int {
	n := 0
	tags.Bomb.Each(w, func(e *donburi.Entry) {
		ctrl := components.Bomb.Get(e).Fuse
		if ctrl.State() == state {
			ctrl.Arm(duration)
			n++
		}
	})
	return n
}

func detonateLast(session *components.SessionData) {
	last := session.LastBomb
	if last == nil || !last.Valid() {
		return
	}
	center := factory.ObjectCenter(components.Object.Get(last).Object)
	components.Bomb.Get(last).Fuse.ExplodeNow(center)
}
