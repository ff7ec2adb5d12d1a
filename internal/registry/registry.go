// Package registry tracks the top-level windows under management.
//
// The Registry owns every ManagedWindow; other components refer to windows
// by handle only and read copies.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/biscuitwm/internal/platform"
)

// Outcome is the result of a registration attempt.
type Outcome int

const (
	Registered Outcome = iota
	AlreadyManaged
	OverrideRedirect
	Dock
	Gone
)

func (o Outcome) String() string {
	switch o {
	case Registered:
		return "registered"
	case AlreadyManaged:
		return "already managed"
	case OverrideRedirect:
		return "override-redirect"
	case Dock:
		return "dock"
	case Gone:
		return "gone"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ManagedWindow is the per-window state kept by the registry.
type ManagedWindow struct {
	ID        platform.WindowID
	Geometry  platform.Geometry
	Focused   bool
	Decorated bool
	Exposed   bool
}

// CountObserver is told the number of managed windows after every change.
type CountObserver interface {
	SetWindowCount(n int)
}

// Registry is the ordered set of managed windows plus the cycle cursor.
// It is not safe for concurrent use; the dispatch loop owns it.
type Registry struct {
	inspector platform.Inspector
	observer  CountObserver
	logger    *slog.Logger

	order   []platform.WindowID
	windows map[platform.WindowID]*ManagedWindow
	cursor  int
}

// New creates an empty registry. observer may be nil.
func New(inspector platform.Inspector, observer CountObserver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		inspector: inspector,
		observer:  observer,
		logger:    logger,
		windows:   make(map[platform.WindowID]*ManagedWindow),
		cursor:    -1,
	}
}

// Register starts managing a window. Windows that are already managed,
// override-redirect, or docks are left alone. A window that vanished before
// its attributes could be read yields Gone and an error wrapping
// platform.ErrWindowGone.
func (r *Registry) Register(id platform.WindowID) (Outcome, error) {
	if r.IsManaged(id) {
		return AlreadyManaged, nil
	}

	attrs, err := r.inspector.Attributes(id)
	if err != nil {
		if errors.Is(err, platform.ErrWindowGone) {
			return Gone, err
		}
		return Gone, fmt.Errorf("register 0x%x: %w", uint32(id), err)
	}
	if attrs.OverrideRedirect {
		return OverrideRedirect, nil
	}
	if r.isDock(id) {
		return Dock, nil
	}

	geom, err := r.inspector.Geometry(id)
	if err != nil {
		return Gone, err
	}

	r.windows[id] = &ManagedWindow{ID: id, Geometry: geom, Exposed: true}
	r.order = append(r.order, id)
	r.cursor = len(r.order) - 1
	r.logger.Debug("managing window", "window", fmt.Sprintf("0x%x", uint32(id)), "count", len(r.order))
	r.publishCount()
	return Registered, nil
}

// Unregister stops managing a window and reports whether it was managed.
// The cycle cursor moves to the last entry, or -1 when empty.
func (r *Registry) Unregister(id platform.WindowID) bool {
	if _, ok := r.windows[id]; !ok {
		return false
	}
	delete(r.windows, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.cursor = len(r.order) - 1
	r.logger.Debug("unmanaged window", "window", fmt.Sprintf("0x%x", uint32(id)), "count", len(r.order))
	r.publishCount()
	return true
}

// IsManaged reports whether the window is in the registry.
func (r *Registry) IsManaged(id platform.WindowID) bool {
	_, ok := r.windows[id]
	return ok
}

// IsAlive reports whether the window is still a child of the root. Failing
// to enumerate counts as not alive.
func (r *Registry) IsAlive(id platform.WindowID) bool {
	children, err := r.inspector.Children()
	if err != nil {
		return false
	}
	for _, child := range children {
		if child == id {
			return true
		}
	}
	return false
}

// IsDock reports whether the window is typed as a dock. A vanished window
// is not a dock.
func (r *Registry) IsDock(id platform.WindowID) bool {
	return r.isDock(id)
}

func (r *Registry) isDock(id platform.WindowID) bool {
	t, err := r.inspector.WindowType(id)
	return err == nil && t == platform.TypeDock
}

// IsCyclical reports whether the window's type takes part in focus cycling.
// A vanished window is not cyclical.
func (r *Registry) IsCyclical(id platform.WindowID) bool {
	t, err := r.inspector.WindowType(id)
	return err == nil && t.Cyclical()
}

// NextCyclical advances the cursor by one, wrapping past the end. When the
// landed-on window is not cyclical the cursor advances once more; the window
// there is returned whether or not it is cyclical. Only a single adjacent
// non-cyclical entry is ever skipped.
func (r *Registry) NextCyclical() (platform.WindowID, bool) {
	if len(r.order) == 0 {
		r.cursor = -1
		return platform.None, false
	}

	r.cursor++
	if r.cursor > len(r.order)-1 {
		r.cursor = 0
	}
	if !r.IsCyclical(r.order[r.cursor]) {
		if r.cursor >= len(r.order)-1 {
			r.cursor = 0
		} else {
			r.cursor++
		}
	}
	return r.order[r.cursor], true
}

// Get returns a copy of a managed window's state.
func (r *Registry) Get(id platform.WindowID) (ManagedWindow, bool) {
	w, ok := r.windows[id]
	if !ok {
		return ManagedWindow{}, false
	}
	return *w, true
}

// Windows returns the managed handles in insertion order.
func (r *Registry) Windows() []platform.WindowID {
	return append([]platform.WindowID(nil), r.order...)
}

// Len returns the number of managed windows.
func (r *Registry) Len() int {
	return len(r.order)
}

// Cursor returns the cycle cursor, -1 when empty.
func (r *Registry) Cursor() int {
	return r.cursor
}

// SetCursor points the cycle cursor at a managed window.
func (r *Registry) SetCursor(id platform.WindowID) bool {
	for i, existing := range r.order {
		if existing == id {
			r.cursor = i
			return true
		}
	}
	return false
}

// SetFocused marks one window focused and clears the flag everywhere else.
// Passing platform.None clears every flag.
func (r *Registry) SetFocused(id platform.WindowID) {
	for wid, w := range r.windows {
		w.Focused = wid == id
	}
}

// SetGeometry records the last geometry applied to a managed window.
func (r *Registry) SetGeometry(id platform.WindowID, geom platform.Geometry) {
	if w, ok := r.windows[id]; ok {
		w.Geometry = geom
	}
}

// MarkDecorated records that borders and placement were applied.
func (r *Registry) MarkDecorated(id platform.WindowID) {
	if w, ok := r.windows[id]; ok {
		w.Decorated = true
	}
}

func (r *Registry) publishCount() {
	if r.observer != nil {
		r.observer.SetWindowCount(len(r.order))
	}
}
