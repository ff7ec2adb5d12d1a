package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	cursor xproto.Cursor
}

// NewConnection establishes a connection to the X11 server named by display
// (empty means $DISPLAY) and initializes required extensions.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for keycode lookups and grabs)
	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Conn returns the raw xgb connection.
func (c *Connection) Conn() *xgb.Conn {
	return c.XUtil.Conn()
}

// Screen returns the default screen.
func (c *Connection) Screen() *xproto.ScreenInfo {
	return c.XUtil.Screen()
}

// WaitForEvent blocks until the next event or error arrives. Both return
// values are nil once the connection has been closed.
func (c *Connection) WaitForEvent() (xgb.Event, xgb.Error) {
	return c.XUtil.Conn().WaitForEvent()
}

// Sync waits until the server has processed every request sent so far.
func (c *Connection) Sync() {
	c.XUtil.Sync()
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	if c.cursor != 0 {
		xproto.FreeCursor(c.XUtil.Conn(), c.cursor)
		c.cursor = 0
	}
	c.XUtil.Conn().Close()
}

// InternAtom returns the atom for name, creating it if needed.
func (c *Connection) InternAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

// LeftPointer returns the shared left_ptr cursor, creating it on first use.
func (c *Connection) LeftPointer() (xproto.Cursor, error) {
	if c.cursor != 0 {
		return c.cursor, nil
	}
	cursor, err := xcursor.CreateCursor(c.XUtil, xcursor.LeftPtr)
	if err != nil {
		return 0, fmt.Errorf("failed to create cursor: %w", err)
	}
	c.cursor = cursor
	return cursor, nil
}

// IsWindowGone reports whether err is the server's answer to a request
// against a window or drawable that no longer exists.
func IsWindowGone(err error) bool {
	switch err.(type) {
	case xproto.WindowError, *xproto.WindowError, xproto.DrawableError, *xproto.DrawableError:
		return true
	}
	return false
}
