//go:build linux

package platform

import (
	"fmt"
	"strings"
	"sync"

	"github.com/1broseidon/biscuitwm/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn       *x11.Connection
	ignoreOnce sync.Once
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection to display (empty means $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Connection returns the underlying X11 connection for overlay windows that
// draw directly.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// Close closes the underlying X11 connection.
func (b *LinuxBackend) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Flush waits for the server to process every queued request.
func (b *LinuxBackend) Flush() {
	b.conn.Sync()
}

// Root returns the root window.
func (b *LinuxBackend) Root() WindowID {
	return WindowID(b.conn.Root)
}

// DisplayGeometry returns the size of the default screen.
func (b *LinuxBackend) DisplayGeometry() Rect {
	screen := b.conn.Screen()
	return Rect{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}
}

// NextEvent blocks for the next protocol event. Asynchronous request errors
// are returned wrapped so the caller can log them and keep going.
func (b *LinuxBackend) NextEvent() (Event, error) {
	ev, xerr := b.conn.WaitForEvent()
	if ev == nil && xerr == nil {
		return Event{}, ErrConnectionLost
	}
	if xerr != nil {
		if x11.IsWindowGone(xerr) {
			return Event{}, fmt.Errorf("x11: %s: %w", xerr, ErrWindowGone)
		}
		return Event{}, fmt.Errorf("x11: %s", xerr)
	}
	return translateEvent(ev), nil
}

func translateEvent(ev interface{}) Event {
	switch e := ev.(type) {
	case xproto.MapNotifyEvent:
		return Event{Kind: EventMap, Window: WindowID(e.Window)}
	case xproto.DestroyNotifyEvent:
		return Event{Kind: EventDestroy, Window: WindowID(e.Window)}
	case xproto.EnterNotifyEvent:
		// Crossings caused by our own pointer grabs carry no focus intent.
		if e.Mode != xproto.NotifyModeNormal {
			return Event{Kind: EventOther}
		}
		return Event{Kind: EventEnter, Window: WindowID(e.Event), Child: WindowID(e.Child),
			State: e.State, Root: Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.LeaveNotifyEvent:
		if e.Mode != xproto.NotifyModeNormal {
			return Event{Kind: EventOther}
		}
		return Event{Kind: EventLeave, Window: WindowID(e.Event), Child: WindowID(e.Child),
			State: e.State, Root: Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.KeyPressEvent:
		return Event{Kind: EventKeyPress, Window: WindowID(e.Event), Child: WindowID(e.Child),
			Detail: byte(e.Detail), State: e.State, Root: Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.ButtonPressEvent:
		return Event{Kind: EventButtonPress, Window: WindowID(e.Event), Child: WindowID(e.Child),
			Detail: byte(e.Detail), State: e.State, Root: Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.ButtonReleaseEvent:
		return Event{Kind: EventButtonRelease, Window: WindowID(e.Event), Child: WindowID(e.Child),
			Detail: byte(e.Detail), State: e.State, Root: Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.MotionNotifyEvent:
		return Event{Kind: EventMotion, Window: WindowID(e.Event), Child: WindowID(e.Child),
			State: e.State, Root: Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.ExposeEvent:
		return Event{Kind: EventExpose, Window: WindowID(e.Window)}
	}
	return Event{Kind: EventOther}
}

// Children lists the top-level windows in stacking order.
func (b *LinuxBackend) Children() ([]WindowID, error) {
	children, err := b.conn.Children()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	out := make([]WindowID, len(children))
	for i, child := range children {
		out[i] = WindowID(child)
	}
	return out, nil
}

// Attributes reports override-redirect and map state of a window.
func (b *LinuxBackend) Attributes(windowID WindowID) (Attributes, error) {
	attrs, err := b.conn.Attributes(xproto.Window(windowID))
	if err != nil {
		return Attributes{}, wrapWindowErr("attributes", windowID, err)
	}
	return Attributes{
		OverrideRedirect: attrs.OverrideRedirect,
		Mapped:           attrs.MapState == xproto.MapStateViewable,
	}, nil
}

// WindowType returns the first recognized _NET_WM_WINDOW_TYPE of a window.
// Windows without the property are normal windows.
func (b *LinuxBackend) WindowType(windowID WindowID) (WindowType, error) {
	types, err := b.conn.WindowTypes(xproto.Window(windowID))
	if err != nil {
		// The property read cannot tell a missing property from a missing
		// window, so ask the server whether the window still exists.
		if _, gerr := b.conn.Geometry(xproto.Window(windowID)); gerr != nil {
			return TypeUnknown, wrapWindowErr("window type", windowID, gerr)
		}
		return TypeNormal, nil
	}
	for _, name := range types {
		if t, ok := windowTypeNames[name]; ok {
			return t, nil
		}
	}
	if len(types) == 0 {
		return TypeNormal, nil
	}
	return TypeUnknown, nil
}

var windowTypeNames = map[string]WindowType{
	"_NET_WM_WINDOW_TYPE_NORMAL":  TypeNormal,
	"_NET_WM_WINDOW_TYPE_DIALOG":  TypeDialog,
	"_NET_WM_WINDOW_TYPE_UTILITY": TypeUtility,
	"_NET_WM_WINDOW_TYPE_TOOLBAR": TypeToolbar,
	"_NET_WM_WINDOW_TYPE_MENU":    TypeMenu,
	"_NET_WM_WINDOW_TYPE_SPLASH":  TypeSplash,
	"_NET_WM_WINDOW_TYPE_DOCK":    TypeDock,
}

// Geometry returns the current geometry of a window relative to its parent.
func (b *LinuxBackend) Geometry(windowID WindowID) (Geometry, error) {
	geom, err := b.conn.Geometry(xproto.Window(windowID))
	if err != nil {
		return Geometry{}, wrapWindowErr("geometry", windowID, err)
	}
	return Geometry{
		Rect: Rect{
			X:      int(geom.X),
			Y:      int(geom.Y),
			Width:  int(geom.Width),
			Height: int(geom.Height),
		},
		BorderWidth: int(geom.BorderWidth),
	}, nil
}

// Title returns _NET_WM_NAME, falling back to WM_NAME.
func (b *LinuxBackend) Title(windowID WindowID) (string, error) {
	title, err := ewmh.WmNameGet(b.conn.XUtil, xproto.Window(windowID))
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title, nil
		}
	}

	title, err = icccm.WmNameGet(b.conn.XUtil, xproto.Window(windowID))
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title, nil
		}
	}

	if _, gerr := b.conn.Geometry(xproto.Window(windowID)); gerr != nil {
		return "", wrapWindowErr("title", windowID, gerr)
	}
	return "", nil
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	err := b.conn.MoveResizeWindow(
		xproto.Window(windowID),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	)
	return wrapWindowErr("move resize", windowID, err)
}

func (b *LinuxBackend) SetBorderWidth(windowID WindowID, width int) error {
	return wrapWindowErr("border width", windowID, b.conn.SetBorderWidth(xproto.Window(windowID), width))
}

func (b *LinuxBackend) SetBorderColor(windowID WindowID, pixel uint32) error {
	return wrapWindowErr("border color", windowID, b.conn.SetBorderPixel(xproto.Window(windowID), pixel))
}

func (b *LinuxBackend) SetMaximized(windowID WindowID, maximized bool) error {
	return wrapWindowErr("maximized state", windowID, b.conn.SetMaximized(xproto.Window(windowID), maximized))
}

func (b *LinuxBackend) SetCursor(windowID WindowID) error {
	return wrapWindowErr("cursor", windowID, b.conn.SetCursor(xproto.Window(windowID)))
}

func (b *LinuxBackend) Map(windowID WindowID) error {
	b.conn.MapWindow(xproto.Window(windowID))
	return nil
}

func (b *LinuxBackend) Raise(windowID WindowID) error {
	return wrapWindowErr("raise", windowID, b.conn.RaiseWindow(xproto.Window(windowID)))
}

func (b *LinuxBackend) Focus(windowID WindowID) error {
	return wrapWindowErr("focus", windowID, b.conn.FocusWindow(xproto.Window(windowID)))
}

func (b *LinuxBackend) SetActiveWindow(windowID WindowID) error {
	return b.conn.SetActiveWindow(xproto.Window(windowID))
}

// WatchCrossing selects pointer enter/leave events on a client window.
func (b *LinuxBackend) WatchCrossing(windowID WindowID) error {
	mask := uint32(xproto.EventMaskEnterWindow | xproto.EventMaskLeaveWindow)
	return wrapWindowErr("select crossing", windowID, b.conn.SetEventMask(xproto.Window(windowID), mask))
}

// CloseWindow asks a client to close, destroying it when it cannot be asked.
func (b *LinuxBackend) CloseWindow(windowID WindowID) error {
	return wrapWindowErr("close", windowID, b.conn.CloseWindow(xproto.Window(windowID)))
}

// WatchRoot selects structure notifications for every top-level window.
func (b *LinuxBackend) WatchRoot() error {
	if err := b.conn.SetEventMask(b.conn.Root, xproto.EventMaskSubstructureNotify); err != nil {
		return fmt.Errorf("select root events: %w", err)
	}
	return nil
}

// SetRootBackground paints the root window with a solid pixel.
func (b *LinuxBackend) SetRootBackground(pixel uint32) error {
	c := b.conn.Conn()
	err := xproto.ChangeWindowAttributesChecked(c, b.conn.Root, xproto.CwBackPixel, []uint32{pixel}).Check()
	if err != nil {
		return fmt.Errorf("set root background: %w", err)
	}
	return xproto.ClearAreaChecked(c, false, b.conn.Root, 0, 0, 0, 0).Check()
}

// KeycodesFor resolves a keysym name to the keycodes that produce it under
// the current keyboard mapping.
func (b *LinuxBackend) KeycodesFor(name string) []Keycode {
	codes := keybind.StrToKeycodes(b.conn.XUtil, name)
	out := make([]Keycode, len(codes))
	for i, code := range codes {
		out[i] = Keycode(code)
	}
	return out
}

// KeyRune returns the printable ASCII character a key produces, honoring Shift.
func (b *LinuxBackend) KeyRune(code Keycode, state uint16) (rune, bool) {
	column := byte(0)
	if state&xproto.ModMaskShift != 0 {
		column = 1
	}
	sym := keybind.KeysymGet(b.conn.XUtil, xproto.Keycode(code), column)
	if sym == 0 && column == 1 {
		sym = keybind.KeysymGet(b.conn.XUtil, xproto.Keycode(code), 0)
	}
	if sym < 0x20 || sym > 0x7e {
		return 0, false
	}
	return rune(sym), true
}

// GrabKeys grabs every key on the root window with the given modifiers,
// once for each combination of ignored lock modifiers.
func (b *LinuxBackend) GrabKeys(modifiers uint16) error {
	b.ignoreOnce.Do(b.configureIgnoreMods)
	err := keybind.GrabChecked(b.conn.XUtil, b.conn.Root, modifiers, xproto.Keycode(xproto.GrabAny))
	if err != nil {
		return fmt.Errorf("grab keys (mods=0x%x): %w", modifiers, err)
	}
	return nil
}

// GrabButtons grabs the given buttons on the root window with the given
// modifiers, reporting press, release and motion while held.
func (b *LinuxBackend) GrabButtons(modifiers uint16, buttons ...byte) error {
	b.ignoreOnce.Do(b.configureIgnoreMods)
	for _, button := range buttons {
		err := mousebind.GrabChecked(b.conn.XUtil, b.conn.Root, modifiers, xproto.Button(button), false)
		if err != nil {
			return fmt.Errorf("grab button %d (mods=0x%x): %w", button, modifiers, err)
		}
	}
	return nil
}

// GrabKeyboard routes every keystroke to the root window until released.
func (b *LinuxBackend) GrabKeyboard() error {
	reply, err := xproto.GrabKeyboard(b.conn.Conn(), true, b.conn.Root, xproto.TimeCurrentTime,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
	if err != nil {
		return fmt.Errorf("grab keyboard: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("grab keyboard: status %d", reply.Status)
	}
	return nil
}

func (b *LinuxBackend) UngrabKeyboard() error {
	return xproto.UngrabKeyboardChecked(b.conn.Conn(), xproto.TimeCurrentTime).Check()
}

// configureIgnoreMods points xevent.IgnoreMods at the lock-modifier
// combinations present in the server's modifier map, so grabs still fire
// with CapsLock, NumLock or ScrollLock engaged.
func (b *LinuxBackend) configureIgnoreMods() {
	xevent.IgnoreMods = ignoredModifiers(b.conn.XUtil)
}

func ignoredModifiers(xu *xgbutil.XUtil) []uint16 {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	return lockCombinations(base)
}

// lockCombinations returns every OR of a subset of base, starting with 0.
func lockCombinations(base []uint16) []uint16 {
	ignore := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}

// wrapWindowErr tags a failed request against a vanished window with
// ErrWindowGone so callers can fall back with errors.Is.
func wrapWindowErr(op string, windowID WindowID, err error) error {
	if err == nil {
		return nil
	}
	if x11.IsWindowGone(err) {
		return fmt.Errorf("%s 0x%x: %w", op, uint32(windowID), ErrWindowGone)
	}
	return fmt.Errorf("%s 0x%x: %w", op, uint32(windowID), err)
}
