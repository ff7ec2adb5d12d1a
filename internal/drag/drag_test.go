package drag

import (
	"errors"
	"testing"

	"github.com/1broseidon/biscuitwm/internal/platform"
	"github.com/1broseidon/biscuitwm/internal/platform/platformtest"
)

func setup(t *testing.T, r platform.Rect) (*Controller, *platformtest.Backend) {
	t.Helper()
	fake := platformtest.New()
	fake.AddWindow(9, platformtest.Window{
		Geometry: platform.Geometry{Rect: r},
		Type:     platform.TypeNormal,
	})
	return New(fake, 20, nil), fake
}

func TestSessionGeometry(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		origin  platform.Rect
		pointer platform.Point
		want    platform.Rect
	}{
		{
			name:    "move follows delta",
			mode:    Move,
			origin:  platform.Rect{X: 100, Y: 100, Width: 50, Height: 40},
			pointer: platform.Point{X: 130, Y: 90},
			want:    platform.Rect{X: 130, Y: 90, Width: 50, Height: 40},
		},
		{
			name:    "move up clamps at bar",
			mode:    Move,
			origin:  platform.Rect{X: 0, Y: 15, Width: 50, Height: 40},
			pointer: platform.Point{X: 0, Y: -50},
			want:    platform.Rect{X: 0, Y: 20, Width: 50, Height: 40},
		},
		{
			name:    "move down is not clamped",
			mode:    Move,
			origin:  platform.Rect{X: 0, Y: 15, Width: 50, Height: 40},
			pointer: platform.Point{X: 0, Y: 2},
			want:    platform.Rect{X: 0, Y: 17, Width: 50, Height: 40},
		},
		{
			name:    "resize grows",
			mode:    Resize,
			origin:  platform.Rect{X: 100, Y: 100, Width: 10, Height: 10},
			pointer: platform.Point{X: 5, Y: 7},
			want:    platform.Rect{X: 100, Y: 100, Width: 15, Height: 17},
		},
		{
			name:    "resize clamps to one pixel",
			mode:    Resize,
			origin:  platform.Rect{X: 100, Y: 100, Width: 10, Height: 10},
			pointer: platform.Point{X: -20, Y: -20},
			want:    platform.Rect{X: 100, Y: 100, Width: 1, Height: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{Mode: tt.mode, Origin: tt.origin}
			if got := s.Geometry(tt.pointer, 20); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestController_Lifecycle(t *testing.T) {
	origin := platform.Rect{X: 100, Y: 100, Width: 10, Height: 10}
	c, fake := setup(t, origin)

	if _, err := c.Update(platform.Point{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession while idle, got %v", err)
	}

	if err := c.Begin(9, platform.Point{X: 200, Y: 200}, origin, Resize); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if c.Phase() != PhaseDragging {
		t.Fatalf("phase = %v", c.Phase())
	}

	for _, p := range []platform.Point{{X: 205, Y: 205}, {X: 180, Y: 180}} {
		if _, err := c.Update(p); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	w, _ := fake.Window(9)
	if w.Geometry.Width != 1 || w.Geometry.Height != 1 {
		t.Fatalf("expected every update applied and clamped, got %+v", w.Geometry)
	}

	target, ok := c.End()
	if !ok || target != 9 {
		t.Fatalf("End = %v, %v", target, ok)
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("expected idle after End")
	}
	if _, ok := c.End(); ok {
		t.Fatalf("second End should report no session")
	}
}

func TestController_SecondPressIgnored(t *testing.T) {
	origin := platform.Rect{X: 100, Y: 100, Width: 10, Height: 10}
	c, _ := setup(t, origin)

	c.Begin(9, platform.Point{X: 1, Y: 1}, origin, Move)
	err := c.Begin(9, platform.Point{X: 50, Y: 50}, platform.Rect{}, Resize)
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	s, _ := c.Session()
	if s.Mode != Move || s.Anchor != (platform.Point{X: 1, Y: 1}) {
		t.Fatalf("running session was changed: %+v", s)
	}
}

func TestController_EndClearsMaximized(t *testing.T) {
	origin := platform.Rect{X: 100, Y: 100, Width: 10, Height: 10}
	c, fake := setup(t, origin)
	fake.SetMaximized(9, true)

	c.Begin(9, platform.Point{}, origin, Move)
	c.Update(platform.Point{X: 3, Y: 3})
	c.End()

	if w, _ := fake.Window(9); w.Maximized {
		t.Fatalf("expected maximized hints cleared")
	}
}

func TestController_Abort(t *testing.T) {
	origin := platform.Rect{Width: 10, Height: 10}
	c, _ := setup(t, origin)
	c.Begin(9, platform.Point{}, origin, Move)

	if c.Abort(8) {
		t.Fatalf("abort of another window must not end the session")
	}
	if !c.Abort(9) {
		t.Fatalf("expected abort of the target")
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("expected idle after abort")
	}
}

func TestModeForButton(t *testing.T) {
	if m, ok := ModeForButton(platform.ButtonPrimary); !ok || m != Move {
		t.Fatalf("button 1 = %v, %v", m, ok)
	}
	if m, ok := ModeForButton(platform.ButtonSecondary); !ok || m != Resize {
		t.Fatalf("button 3 = %v, %v", m, ok)
	}
	if _, ok := ModeForButton(2); ok {
		t.Fatalf("button 2 should not start a drag")
	}
}
