// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"fmt"
	"sync"

	"github.com/1broseidon/biscuitwm/internal/platform"
)

// queued is one NextEvent result.
type queued struct {
	ev  platform.Event
	err error
}

// Window is the fake server-side state of one window.
type Window struct {
	Geometry    platform.Geometry
	Attributes  platform.Attributes
	Type        platform.WindowType
	TypeErr     error
	Title       string
	BorderColor uint32
	Maximized   bool
	HasCursor   bool
	Crossing    bool
	Closed      bool
}

// Backend is a scripted platform.Backend. Windows live in a map keyed by
// handle; events are fed through Push and consumed by NextEvent.
type Backend struct {
	mu sync.Mutex

	root    platform.WindowID
	display platform.Rect
	windows map[platform.WindowID]*Window
	order   []platform.WindowID

	keys  map[string][]platform.Keycode
	runes map[platform.Keycode]rune

	events    chan queued
	closeOnce sync.Once

	focused         platform.WindowID
	active          platform.WindowID
	raised          []platform.WindowID
	keyboardGrabbed bool
	rootBackground  uint32
	rootWatched     bool
	keyGrabs        []uint16
	buttonGrabs     []byte
	flushes         int
	closed          bool
	childrenErr     error
}

var _ platform.Backend = (*Backend)(nil)

// New returns a fake backend with a 1000x800 display and root window 1.
func New() *Backend {
	return &Backend{
		root:    1,
		display: platform.Rect{Width: 1000, Height: 800},
		windows: make(map[platform.WindowID]*Window),
		keys:    make(map[string][]platform.Keycode),
		runes:   make(map[platform.Keycode]rune),
		events:  make(chan queued, 64),
	}
}

// SetDisplay changes the reported display geometry.
func (b *Backend) SetDisplay(r platform.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.display = r
}

// AddWindow creates a window on the fake server.
func (b *Backend) AddWindow(id platform.WindowID, w Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[id]; !ok {
		b.order = append(b.order, id)
	}
	copied := w
	b.windows[id] = &copied
}

// RemoveWindow makes a window vanish without notifying anyone.
func (b *Backend) RemoveWindow(id platform.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(id)
}

func (b *Backend) removeLocked(id platform.WindowID) {
	delete(b.windows, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Window returns a copy of a window's state.
func (b *Backend) Window(id platform.WindowID) (Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// SetChildrenErr makes Children fail with err.
func (b *Backend) SetChildrenErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.childrenErr = err
}

// BindKey maps a keysym name to a keycode and, optionally, the rune it types.
func (b *Backend) BindKey(name string, code platform.Keycode, r rune) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys[name] = append(b.keys[name], code)
	if r != 0 {
		b.runes[code] = r
	}
}

// Push queues an event for NextEvent.
func (b *Backend) Push(ev platform.Event) {
	b.events <- queued{ev: ev}
}

// PushError queues a request error for NextEvent, the way the server
// reports a failed unchecked request.
func (b *Backend) PushError(err error) {
	b.events <- queued{err: err}
}

// Disconnect simulates the server going away.
func (b *Backend) Disconnect() {
	b.closeOnce.Do(func() { close(b.events) })
}

// Focused returns the window that last received input focus.
func (b *Backend) Focused() platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

// ActiveWindow returns the last published _NET_ACTIVE_WINDOW.
func (b *Backend) ActiveWindow() platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Raised returns every raise in call order.
func (b *Backend) Raised() []platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.WindowID(nil), b.raised...)
}

// KeyboardGrabbed reports whether the whole keyboard is grabbed.
func (b *Backend) KeyboardGrabbed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keyboardGrabbed
}

// RootState reports the root background pixel and whether structure
// events were selected on the root.
func (b *Backend) RootState() (uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rootBackground, b.rootWatched
}

// Grabs returns the modifier masks of key grabs and the grabbed buttons.
func (b *Backend) Grabs() ([]uint16, []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint16(nil), b.keyGrabs...), append([]byte(nil), b.buttonGrabs...)
}

// Flushes returns how many times Flush was called.
func (b *Backend) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Closed reports whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) lookup(id platform.WindowID) (*Window, error) {
	w, ok := b.windows[id]
	if !ok {
		return nil, fmt.Errorf("window 0x%x: %w", uint32(id), platform.ErrWindowGone)
	}
	return w, nil
}

func (b *Backend) Root() platform.WindowID { return b.root }

func (b *Backend) DisplayGeometry() platform.Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.display
}

func (b *Backend) NextEvent() (platform.Event, error) {
	q, ok := <-b.events
	if !ok {
		return platform.Event{}, platform.ErrConnectionLost
	}
	return q.ev, q.err
}

func (b *Backend) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushes++
}

func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Disconnect()
}

func (b *Backend) Children() ([]platform.WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.childrenErr != nil {
		return nil, b.childrenErr
	}
	return append([]platform.WindowID(nil), b.order...), nil
}

func (b *Backend) Attributes(id platform.WindowID) (platform.Attributes, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return platform.Attributes{}, err
	}
	return w.Attributes, nil
}

func (b *Backend) WindowType(id platform.WindowID) (platform.WindowType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return platform.TypeUnknown, err
	}
	if w.TypeErr != nil {
		return platform.TypeUnknown, w.TypeErr
	}
	if w.Type == platform.TypeUnknown {
		return platform.TypeNormal, nil
	}
	return w.Type, nil
}

func (b *Backend) Geometry(id platform.WindowID) (platform.Geometry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return platform.Geometry{}, err
	}
	return w.Geometry, nil
}

func (b *Backend) Title(id platform.WindowID) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return "", err
	}
	return w.Title, nil
}

func (b *Backend) MoveResize(id platform.WindowID, r platform.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Geometry.Rect = r
	return nil
}

func (b *Backend) SetBorderWidth(id platform.WindowID, width int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Geometry.BorderWidth = width
	return nil
}

func (b *Backend) SetBorderColor(id platform.WindowID, pixel uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.BorderColor = pixel
	return nil
}

func (b *Backend) SetMaximized(id platform.WindowID, maximized bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Maximized = maximized
	return nil
}

func (b *Backend) SetCursor(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == b.root {
		return nil
	}
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.HasCursor = true
	return nil
}

func (b *Backend) Map(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Attributes.Mapped = true
	return nil
}

func (b *Backend) Raise(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.lookup(id); err != nil {
		return err
	}
	b.raised = append(b.raised, id)
	return nil
}

func (b *Backend) Focus(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.lookup(id); err != nil {
		return err
	}
	b.focused = id
	return nil
}

func (b *Backend) SetActiveWindow(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = id
	return nil
}

func (b *Backend) WatchCrossing(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Crossing = true
	return nil
}

// CloseWindow marks the window closed and removes it, as a client honoring
// WM_DELETE_WINDOW would.
func (b *Backend) CloseWindow(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Closed = true
	b.removeLocked(id)
	return nil
}

func (b *Backend) WatchRoot() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rootWatched = true
	return nil
}

func (b *Backend) SetRootBackground(pixel uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rootBackground = pixel
	return nil
}

func (b *Backend) KeycodesFor(name string) []platform.Keycode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.Keycode(nil), b.keys[name]...)
}

func (b *Backend) KeyRune(code platform.Keycode, _ uint16) (rune, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.runes[code]
	return r, ok
}

func (b *Backend) GrabKeys(modifiers uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keyGrabs = append(b.keyGrabs, modifiers)
	return nil
}

func (b *Backend) GrabButtons(modifiers uint16, buttons ...byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buttonGrabs = append(b.buttonGrabs, buttons...)
	return nil
}

func (b *Backend) GrabKeyboard() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keyboardGrabbed = true
	return nil
}

func (b *Backend) UngrabKeyboard() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keyboardGrabbed = false
	return nil
}
