package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
)

// Children returns the direct children of the root window in stacking order.
func (c *Connection) Children() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.Conn(), c.Root).Reply()
	if err != nil {
		return nil, err
	}
	return tree.Children, nil
}

// Attributes fetches the window attributes of windowID.
func (c *Connection) Attributes(windowID xproto.Window) (*xproto.GetWindowAttributesReply, error) {
	return xproto.GetWindowAttributes(c.Conn(), windowID).Reply()
}

// Geometry fetches position, size and border width of windowID.
func (c *Connection) Geometry(windowID xproto.Window) (*xproto.GetGeometryReply, error) {
	return xproto.GetGeometry(c.Conn(), xproto.Drawable(windowID)).Reply()
}

// MoveResizeWindow moves and resizes a window to the specified geometry.
// Negative coordinates are allowed.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(int32(x)), uint32(int32(y)), uint32(width), uint32(height)}
	return xproto.ConfigureWindowChecked(c.Conn(), windowID, mask, values).Check()
}

// SetBorderWidth sets the core border width of windowID.
func (c *Connection) SetBorderWidth(windowID xproto.Window, width int) error {
	return xproto.ConfigureWindowChecked(c.Conn(), windowID,
		xproto.ConfigWindowBorderWidth, []uint32{uint32(width)}).Check()
}

// SetBorderPixel sets the border color of windowID to a raw 0xRRGGBB pixel.
func (c *Connection) SetBorderPixel(windowID xproto.Window, pixel uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.Conn(), windowID,
		xproto.CwBorderPixel, []uint32{pixel}).Check()
}

// SetEventMask replaces the event mask this client selects on windowID.
func (c *Connection) SetEventMask(windowID xproto.Window, mask uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.Conn(), windowID,
		xproto.CwEventMask, []uint32{mask}).Check()
}

// SetCursor gives windowID the shared left_ptr cursor.
func (c *Connection) SetCursor(windowID xproto.Window) error {
	cursor, err := c.LeftPointer()
	if err != nil {
		return err
	}
	return xproto.ChangeWindowAttributesChecked(c.Conn(), windowID,
		xproto.CwCursor, []uint32{uint32(cursor)}).Check()
}

// MapWindow maps windowID.
func (c *Connection) MapWindow(windowID xproto.Window) {
	xwindow.New(c.XUtil, windowID).Map()
}

// RaiseWindow places windowID on top of its siblings.
func (c *Connection) RaiseWindow(windowID xproto.Window) error {
	return xproto.ConfigureWindowChecked(c.Conn(), windowID,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
}

// FocusWindow gives windowID the keyboard focus.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	return xproto.SetInputFocusChecked(c.Conn(), xproto.InputFocusPointerRoot,
		windowID, xproto.TimeCurrentTime).Check()
}

// SetActiveWindow publishes windowID as _NET_ACTIVE_WINDOW on the root.
func (c *Connection) SetActiveWindow(windowID xproto.Window) error {
	return ewmh.ActiveWindowSet(c.XUtil, windowID)
}

// SetMaximized adds or removes both maximized state atoms on windowID,
// leaving every other _NET_WM_STATE entry untouched.
func (c *Connection) SetMaximized(windowID xproto.Window, maximized bool) error {
	// A missing property reads as an error; treat it as no states.
	states, _ := ewmh.WmStateGet(c.XUtil, windowID)

	kept := make([]string, 0, len(states)+2)
	for _, state := range states {
		if state == stateMaximizedVert || state == stateMaximizedHorz {
			continue
		}
		kept = append(kept, state)
	}
	if maximized {
		kept = append(kept, stateMaximizedVert, stateMaximizedHorz)
	}
	return ewmh.WmStateSet(c.XUtil, windowID, kept)
}

// WindowTypes returns the _NET_WM_WINDOW_TYPE atom names set on windowID.
func (c *Connection) WindowTypes(windowID xproto.Window) ([]string, error) {
	return ewmh.WmWindowTypeGet(c.XUtil, windowID)
}
