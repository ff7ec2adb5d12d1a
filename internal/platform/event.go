package platform

import "fmt"

// EventKind classifies a protocol notification.
type EventKind int

const (
	EventOther EventKind = iota
	EventMap
	EventDestroy
	EventEnter
	EventLeave
	EventKeyPress
	EventButtonPress
	EventButtonRelease
	EventMotion
	EventExpose
)

func (k EventKind) String() string {
	switch k {
	case EventMap:
		return "MapNotify"
	case EventDestroy:
		return "DestroyNotify"
	case EventEnter:
		return "EnterNotify"
	case EventLeave:
		return "LeaveNotify"
	case EventKeyPress:
		return "KeyPress"
	case EventButtonPress:
		return "ButtonPress"
	case EventButtonRelease:
		return "ButtonRelease"
	case EventMotion:
		return "MotionNotify"
	case EventExpose:
		return "Expose"
	default:
		return "Other"
	}
}

// Mouse buttons reported in Event.Detail.
const (
	ButtonPrimary   byte = 1
	ButtonSecondary byte = 3
)

// Event is a decoded protocol notification.
//
// Window is the window the event was reported on; Child is the subwindow of
// Window under the pointer (None when there is none). Detail carries the
// keycode for key events and the button number for button events.
type Event struct {
	Kind   EventKind
	Window WindowID
	Child  WindowID
	Detail byte
	State  uint16
	Root   Point
}

func (e Event) String() string {
	return fmt.Sprintf("%s window=0x%x child=0x%x detail=%d", e.Kind, uint32(e.Window), uint32(e.Child), e.Detail)
}
