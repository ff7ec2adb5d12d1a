package platform

import "errors"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// None is the zero window handle.
const None WindowID = 0

// Keycode is a hardware key code as reported by the display server.
type Keycode byte

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Geometry is a window rectangle plus its border width.
type Geometry struct {
	Rect
	BorderWidth int
}

// Point is a pointer position in root coordinates.
type Point struct {
	X int
	Y int
}

// Attributes holds the window attributes the window manager cares about.
type Attributes struct {
	OverrideRedirect bool
	Mapped           bool
}

// WindowType is the _NET_WM_WINDOW_TYPE classification of a window.
type WindowType int

const (
	TypeUnknown WindowType = iota
	TypeNormal
	TypeDialog
	TypeUtility
	TypeToolbar
	TypeMenu
	TypeSplash
	TypeDock
)

func (t WindowType) String() string {
	switch t {
	case TypeNormal:
		return "normal"
	case TypeDialog:
		return "dialog"
	case TypeUtility:
		return "utility"
	case TypeToolbar:
		return "toolbar"
	case TypeMenu:
		return "menu"
	case TypeSplash:
		return "splash"
	case TypeDock:
		return "dock"
	default:
		return "unknown"
	}
}

// Cyclical reports whether windows of this type take part in focus cycling.
func (t WindowType) Cyclical() bool {
	switch t {
	case TypeNormal, TypeDialog, TypeUtility, TypeToolbar:
		return true
	}
	return false
}

var (
	// ErrWindowGone is returned by queries against a handle the server no
	// longer knows about.
	ErrWindowGone = errors.New("window gone")
	// ErrConnectionLost is returned by NextEvent once the connection to the
	// display server is closed.
	ErrConnectionLost = errors.New("display connection lost")
)

// Inspector answers read-only questions about windows.
type Inspector interface {
	Children() ([]WindowID, error)
	Attributes(windowID WindowID) (Attributes, error)
	WindowType(windowID WindowID) (WindowType, error)
	Geometry(windowID WindowID) (Geometry, error)
	Title(windowID WindowID) (string, error)
}

// Configurer changes window geometry, borders and state hints.
type Configurer interface {
	MoveResize(windowID WindowID, bounds Rect) error
	SetBorderWidth(windowID WindowID, width int) error
	SetBorderColor(windowID WindowID, pixel uint32) error
	SetMaximized(windowID WindowID, maximized bool) error
	SetCursor(windowID WindowID) error
}

// Backend abstracts the display-server operations used by the window manager.
type Backend interface {
	Inspector
	Configurer

	Root() WindowID
	DisplayGeometry() Rect

	NextEvent() (Event, error)
	Flush()
	Close()

	Map(windowID WindowID) error
	Raise(windowID WindowID) error
	Focus(windowID WindowID) error
	SetActiveWindow(windowID WindowID) error
	WatchCrossing(windowID WindowID) error
	CloseWindow(windowID WindowID) error

	WatchRoot() error
	SetRootBackground(pixel uint32) error

	KeycodesFor(name string) []Keycode
	KeyRune(code Keycode, state uint16) (rune, bool)
	GrabKeys(modifiers uint16) error
	GrabButtons(modifiers uint16, buttons ...byte) error
	GrabKeyboard() error
	UngrabKeyboard() error
}
