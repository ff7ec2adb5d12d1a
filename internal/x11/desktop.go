package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// allDesktops is the _NET_WM_DESKTOP value for windows shown on every desktop.
const allDesktops = 0xFFFFFFFF

// MarkDock tags windowID as a dock that stays above other windows, skips
// taskbars and pagers, and is visible on every desktop.
func (c *Connection) MarkDock(windowID xproto.Window) error {
	if err := ewmh.WmWindowTypeSet(c.XUtil, windowID, []string{"_NET_WM_WINDOW_TYPE_DOCK"}); err != nil {
		return fmt.Errorf("failed to set window type: %w", err)
	}
	states := []string{
		"_NET_WM_STATE_SKIP_TASKBAR",
		"_NET_WM_STATE_SKIP_PAGER",
		"_NET_WM_STATE_STICKY",
		"_NET_WM_STATE_ABOVE",
	}
	if err := ewmh.WmStateSet(c.XUtil, windowID, states); err != nil {
		return fmt.Errorf("failed to set window state: %w", err)
	}
	if err := ewmh.WmDesktopSet(c.XUtil, windowID, allDesktops); err != nil {
		return fmt.Errorf("failed to set window desktop: %w", err)
	}
	return nil
}

// CloseWindow asks windowID to close itself via WM_DELETE_WINDOW when it
// takes part in that protocol, and destroys it outright otherwise.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	protocols, err := icccm.WmProtocolsGet(c.XUtil, windowID)
	if err != nil || !contains(protocols, "WM_DELETE_WINDOW") {
		return xproto.DestroyWindowChecked(c.Conn(), windowID).Check()
	}

	deleteAtom, err := c.InternAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.InternAtom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// AnnounceSession publishes name as this window manager via
// _NET_SUPPORTING_WM_CHECK on a small unmapped child of the root.
func (c *Connection) AnnounceSession(name string) (xproto.Window, error) {
	win, err := xproto.NewWindowId(c.Conn())
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(c.Conn(), c.Screen().RootDepth, win, c.Root,
		-1, -1, 1, 1, 0, xproto.WindowClassInputOutput, c.Screen().RootVisual,
		xproto.CwOverrideRedirect, []uint32{1}).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create check window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, c.Root, win); err != nil {
		return 0, err
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, win, win); err != nil {
		return 0, err
	}
	if err := ewmh.WmNameSet(c.XUtil, win, name); err != nil {
		return 0, err
	}
	return win, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
