package fuse

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	dmath "github.com/yohamta/donburi/features/math"
)

type recorder struct {
	calls      []string
	detonateAt []dmath.Vec2
	offsets    []float64
}

func (r *recorder) StartAmbient() { r.calls = append(r.calls, "start") }
func (r *recorder) StopAmbient()  { r.calls = append(r.calls, "stop") }
func (r *recorder) Detonate(p dmath.Vec2) {
	r.calls = append(r.calls, "detonate")
	r.detonateAt = append(r.detonateAt, p)
}
func (r *recorder) SetCordOffset(v float64) { r.offsets = append(r.offsets, v) }

func (r *recorder) count(name string) int {
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

var testConfig = Config{JitterRate: 0.01, PullRate: 0.06, MaxPull: 0.2}

func newTestController(t *testing.T, opts ...Option) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	c, err := New(testConfig, rec, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, rec
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative jitter", Config{JitterRate: -1, PullRate: 1, MaxPull: 1}},
		{"nan pull rate", Config{JitterRate: 1, PullRate: math.NaN(), MaxPull: 1}},
		{"infinite max pull", Config{JitterRate: 1, PullRate: 1, MaxPull: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, &recorder{})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := New(testConfig, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil effects, got %v", err)
	}
}

func TestBeginVisualStartsAmbientOnce(t *testing.T) {
	c, rec := newTestController(t)

	c.BeginVisual()
	c.BeginVisual()

	if c.State() != VisualOn {
		t.Fatalf("state = %v, want visual_on", c.State())
	}
	if got := rec.count("start"); got != 1 {
		t.Fatalf("StartAmbient called %d times, want 1", got)
	}
	if c.Pulled() != 0 {
		t.Fatalf("pulled = %v, want 0", c.Pulled())
	}
}

func TestVisualOnJitterIsUnclamped(t *testing.T) {
	c, rec := newTestController(t)
	c.BeginVisual()

	// 30s of drift at 0.01/s is 0.3, past MaxPull of 0.2.
	for i := 0; i < 30; i++ {
		c.Advance(1)
	}

	if !approx(c.Pulled(), 0.3) {
		t.Fatalf("pulled = %v, want 0.3", c.Pulled())
	}
	if last := rec.offsets[len(rec.offsets)-1]; !approx(last, c.Pulled()) {
		t.Fatalf("last reported offset %v != pulled %v", last, c.Pulled())
	}

	// Arming with the cord already past MaxPull adds nothing and never shrinks it.
	c.Arm(10)
	c.Advance(1)
	if !approx(c.Pulled(), 0.3) {
		t.Fatalf("armed pull changed an over-drifted cord: %v", c.Pulled())
	}
}

func TestArmedPullIsClamped(t *testing.T) {
	c, _ := newTestController(t)
	c.BeginVisual()
	c.Arm(100)

	for i := 0; i < 500; i++ {
		c.Advance(0.1)
		if c.Pulled() < 0 || c.Pulled() > testConfig.MaxPull+1e-12 {
			t.Fatalf("step %d: pulled %v outside [0, %v]", i, c.Pulled(), testConfig.MaxPull)
		}
	}
	if !approx(c.Pulled(), testConfig.MaxPull) {
		t.Fatalf("pulled = %v, want cap %v", c.Pulled(), testConfig.MaxPull)
	}
}

func TestCountdownDetonatesExactlyOnce(t *testing.T) {
	durations := []float64{0.1, 0.5, 1, 2.75, 7}
	deltas := []float64{1.0 / 60, 0.05, 0.3, 1}

	for _, d := range durations {
		for _, step := range deltas {
			c, rec := newTestController(t)
			c.BeginVisual()
			c.Arm(d)

			total := 0.0
			for total < d+step {
				c.Advance(step)
				total += step
			}
			if c.State() != Exploded {
				t.Fatalf("d=%v step=%v: state = %v, want exploded", d, step, c.State())
			}
			if got := rec.count("detonate"); got != 1 {
				t.Fatalf("d=%v step=%v: Detonate called %d times", d, step, got)
			}
		}
	}
}

func TestRearmResetsElapsedKeepsPull(t *testing.T) {
	c, rec := newTestController(t)
	c.BeginVisual()
	c.Arm(1)
	c.Advance(0.8)

	pulled := c.Pulled()
	c.Arm(1)

	if c.Elapsed() != 0 {
		t.Fatalf("elapsed = %v after re-arm, want 0", c.Elapsed())
	}
	if c.Pulled() != pulled {
		t.Fatalf("pulled = %v after re-arm, want %v", c.Pulled(), pulled)
	}

	// The old countdown would have fired here.
	c.Advance(0.5)
	if c.State() != Armed {
		t.Fatalf("state = %v, want armed", c.State())
	}
	if rec.count("detonate") != 0 {
		t.Fatal("re-armed fuse detonated on the old schedule")
	}

	c.Advance(0.5)
	if c.State() != Exploded {
		t.Fatalf("state = %v, want exploded", c.State())
	}
}

func TestArmFromIdleLightsFuse(t *testing.T) {
	c, rec := newTestController(t)
	c.Arm(2)

	if c.State() != Armed {
		t.Fatalf("state = %v, want armed", c.State())
	}
	if rec.count("start") != 1 {
		t.Fatalf("StartAmbient called %d times, want 1", rec.count("start"))
	}
}

func TestArmIgnoresInvalidDuration(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestController(t, WithLogger(zerolog.New(&buf)))
	c.BeginVisual()

	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		c.Arm(d)
	}

	if c.State() != VisualOn {
		t.Fatalf("state = %v, want visual_on", c.State())
	}
	if n := strings.Count(buf.String(), "ignoring arm"); n != 4 {
		t.Fatalf("logged %d warnings, want 4: %s", n, buf.String())
	}
}

func TestExplodeNowDispatchesOnce(t *testing.T) {
	spent := 0
	c, rec := newTestController(t, WithOnSpent(func() { spent++ }))
	c.BeginVisual()

	pos := dmath.Vec2{X: 12, Y: 34}
	if !c.ExplodeNow(pos) {
		t.Fatal("first ExplodeNow reported no detonation")
	}
	if c.ExplodeNow(dmath.Vec2{X: 1, Y: 1}) {
		t.Fatal("second ExplodeNow reported a detonation")
	}

	want := []string{"start", "stop", "detonate"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if rec.detonateAt[0] != pos {
		t.Fatalf("detonated at %v, want %v", rec.detonateAt[0], pos)
	}
	if spent != 1 {
		t.Fatalf("spent callback fired %d times, want 1", spent)
	}
}

func TestExplodedIsTerminal(t *testing.T) {
	c, rec := newTestController(t)
	c.BeginVisual()
	c.Arm(1)
	c.Advance(0.3)
	c.ExplodeNow(dmath.Vec2{})

	calls := len(rec.calls)
	offsets := len(rec.offsets)
	pulled := c.Pulled()

	c.BeginVisual()
	c.Arm(5)
	c.Advance(1)
	c.Advance(-1)
	c.ExplodeNow(dmath.Vec2{X: 9, Y: 9})

	if c.State() != Exploded {
		t.Fatalf("state = %v, want exploded", c.State())
	}
	if len(rec.calls) != calls || len(rec.offsets) != offsets {
		t.Fatalf("side effects after exploding: calls %v offsets %v", rec.calls[calls:], rec.offsets[offsets:])
	}
	if c.Pulled() != pulled {
		t.Fatalf("pulled changed after exploding: %v -> %v", pulled, c.Pulled())
	}
}

func TestNegativeDeltaClampedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	c, rec := newTestController(t, WithLogger(zerolog.New(&buf)))
	c.BeginVisual()
	c.Arm(1)

	c.Advance(-0.5)

	if c.Elapsed() != 0 || c.Pulled() != 0 {
		t.Fatalf("negative delta moved the fuse: elapsed %v pulled %v", c.Elapsed(), c.Pulled())
	}
	if rec.count("detonate") != 0 {
		t.Fatal("negative delta detonated")
	}
	if !strings.Contains(buf.String(), "invalid advance delta") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}

func TestNonFiniteDeltaKeepsPullInRange(t *testing.T) {
	deltas := []float64{math.Inf(1), math.Inf(-1), math.NaN()}
	configs := []Config{
		{JitterRate: 0, PullRate: 0, MaxPull: 0.2},
		{JitterRate: 0.01, PullRate: 0.06, MaxPull: 0.2},
	}
	for _, cfg := range configs {
		for _, delta := range deltas {
			for _, armed := range []bool{false, true} {
				var buf bytes.Buffer
				rec := &recorder{}
				c, err := New(cfg, rec, WithLogger(zerolog.New(&buf)))
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				c.BeginVisual()
				if armed {
					c.Arm(1)
				}

				c.Advance(delta)

				if p := c.Pulled(); !(p >= 0 && p <= cfg.MaxPull) {
					t.Fatalf("%+v delta %v armed %v: pulled = %v", cfg, delta, armed, p)
				}
				for _, off := range rec.offsets {
					if math.IsNaN(off) || math.IsInf(off, 0) {
						t.Fatalf("%+v delta %v armed %v: cord offset %v", cfg, delta, armed, off)
					}
				}
				if rec.count("detonate") != 0 || c.Elapsed() != 0 {
					t.Fatalf("%+v delta %v armed %v: fuse moved", cfg, delta, armed)
				}
				if !strings.Contains(buf.String(), "invalid advance delta") {
					t.Fatalf("expected warning for delta %v, got %q", delta, buf.String())
				}
			}
		}
	}
}

func TestTimeoutDetonatesAtCordTip(t *testing.T) {
	tip := func(pulled float64) dmath.Vec2 { return dmath.Vec2{X: 100, Y: 50 + pulled*100} }
	c, rec := newTestController(t, WithCordTip(tip))
	c.BeginVisual()
	c.Arm(1)

	c.Advance(1)

	if len(rec.detonateAt) != 1 {
		t.Fatalf("detonations = %d, want 1", len(rec.detonateAt))
	}
	want := tip(c.Pulled())
	if rec.detonateAt[0] != want {
		t.Fatalf("detonated at %v, want %v", rec.detonateAt[0], want)
	}
}

func TestScenarioShortCountdownBeatsPullCap(t *testing.T) {
	c, rec := newTestController(t)
	c.Arm(1.0)

	explodedAt := -1
	for i := 1; i <= 5; i++ {
		c.Advance(0.5)
		if explodedAt < 0 && c.State() == Exploded {
			explodedAt = i
		}
	}

	if explodedAt != 2 {
		t.Fatalf("exploded on call %d, want 2", explodedAt)
	}
	if rec.count("detonate") != 1 {
		t.Fatalf("Detonate called %d times, want 1", rec.count("detonate"))
	}
	if !approx(c.Pulled(), 0.06) {
		t.Fatalf("pulled at detonation = %v, want 0.06", c.Pulled())
	}
}

func TestProgressAndRemaining(t *testing.T) {
	c, _ := newTestController(t)
	if c.Progress() != 0 || c.Remaining() != 0 {
		t.Fatal("idle fuse reports countdown")
	}
	c.Arm(2)
	c.Advance(0.5)
	if !approx(c.Progress(), 0.25) {
		t.Fatalf("progress = %v, want 0.25", c.Progress())
	}
	if !approx(c.Remaining(), 1.5) {
		t.Fatalf("remaining = %v, want 1.5", c.Remaining())
	}
}
