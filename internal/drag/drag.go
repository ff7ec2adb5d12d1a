// Package drag implements interactive pointer move and resize of windows.
package drag

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/biscuitwm/internal/platform"
)

// Phase is the controller state.
type Phase int

const (
	// PhaseIdle means no button is held over a window.
	PhaseIdle Phase = iota
	// PhaseDragging means a window follows the pointer.
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Mode selects what a drag changes.
type Mode int

const (
	Move Mode = iota
	Resize
)

func (m Mode) String() string {
	if m == Resize {
		return "resize"
	}
	return "move"
}

// ModeForButton maps the primary button to Move and the secondary to Resize.
func ModeForButton(button byte) (Mode, bool) {
	switch button {
	case platform.ButtonPrimary:
		return Move, true
	case platform.ButtonSecondary:
		return Resize, true
	}
	return Move, false
}

var (
	// ErrSessionActive is returned by Begin while another drag is running.
	ErrSessionActive = errors.New("drag session already active")
	// ErrNoSession is returned by Update while idle.
	ErrNoSession = errors.New("no drag session")
)

// Session is the state of one drag.
type Session struct {
	Target platform.WindowID
	Mode   Mode
	Anchor platform.Point
	Origin platform.Rect
}

// Controller runs at most one drag session at a time.
type Controller struct {
	windows   platform.Configurer
	barHeight int
	logger    *slog.Logger

	phase   Phase
	session Session
}

// New creates an idle controller. barHeight is the band at the top of the
// screen a moving window may not be dragged into from below.
func New(windows platform.Configurer, barHeight int, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{windows: windows, barHeight: barHeight, logger: logger}
}

// Phase returns the current state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Session returns the running session, if any.
func (c *Controller) Session() (Session, bool) {
	if c.phase != PhaseDragging {
		return Session{}, false
	}
	return c.session, true
}

// Begin starts a session anchored at pointer with origin as the window's
// geometry at grab time. A press during a running session is rejected with
// ErrSessionActive and leaves that session untouched.
func (c *Controller) Begin(target platform.WindowID, pointer platform.Point, origin platform.Rect, mode Mode) error {
	if c.phase == PhaseDragging {
		return ErrSessionActive
	}
	c.session = Session{Target: target, Mode: mode, Anchor: pointer, Origin: origin}
	c.phase = PhaseDragging
	c.logger.Debug("drag started", "window", fmt.Sprintf("0x%x", uint32(target)), "mode", mode)
	return nil
}

// Geometry computes the window rectangle for a pointer position without
// applying it.
func (s Session) Geometry(pointer platform.Point, barHeight int) platform.Rect {
	dx := pointer.X - s.Anchor.X
	dy := pointer.Y - s.Anchor.Y

	r := s.Origin
	switch s.Mode {
	case Resize:
		r.Width = max(1, s.Origin.Width+dx)
		r.Height = max(1, s.Origin.Height+dy)
	default:
		r.X = s.Origin.X + dx
		r.Y = s.Origin.Y + dy
		if barHeight > 0 && dy < 0 && r.Y < barHeight {
			r.Y = barHeight
		}
	}
	return r
}

// Update reconfigures the target for a new pointer position.
func (c *Controller) Update(pointer platform.Point) (platform.Rect, error) {
	if c.phase != PhaseDragging {
		return platform.Rect{}, ErrNoSession
	}
	r := c.session.Geometry(pointer, c.barHeight)
	if err := c.windows.MoveResize(c.session.Target, r); err != nil {
		return platform.Rect{}, err
	}
	return r, nil
}

// End finishes the session and clears the target's maximized hints. It
// returns the target and whether a session was running.
func (c *Controller) End() (platform.WindowID, bool) {
	if c.phase != PhaseDragging {
		return platform.None, false
	}
	target := c.session.Target
	c.reset()

	if err := c.windows.SetMaximized(target, false); err != nil {
		c.logger.Debug("clear maximized state", "window", fmt.Sprintf("0x%x", uint32(target)), "error", err)
	}
	c.logger.Debug("drag ended", "window", fmt.Sprintf("0x%x", uint32(target)))
	return target, true
}

// Abort discards the session when target is being dragged, without touching
// the window. It reports whether a session was discarded.
func (c *Controller) Abort(target platform.WindowID) bool {
	if c.phase != PhaseDragging || c.session.Target != target {
		return false
	}
	c.reset()
	return true
}

func (c *Controller) reset() {
	c.phase = PhaseIdle
	c.session = Session{}
}
