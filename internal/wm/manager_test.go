package wm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/hotkeys"
	"github.com/1broseidon/biscuitwm/internal/platform"
	"github.com/1broseidon/biscuitwm/internal/platform/platformtest"
	"github.com/1broseidon/biscuitwm/internal/statusbar"
)

const barWindow platform.WindowID = 99

type testBar struct {
	*statusbar.Headless
	updates int
	started bool
	stopped bool
}

func (b *testBar) Window() platform.WindowID { return barWindow }
func (b *testBar) Height() int               { return 20 }
func (b *testBar) Update()                   { b.updates++ }
func (b *testBar) Start()                    { b.started = true }
func (b *testBar) Stop()                     { b.stopped = true }

type testCorners struct {
	draws, updates, stops int
}

func (c *testCorners) Draw() error { c.draws++; return nil }
func (c *testCorners) Update()     { c.updates++ }
func (c *testCorners) Stop()       { c.stops++ }

type testSpawner struct {
	commands []string
}

func (s *testSpawner) Spawn(commandLine string) error {
	s.commands = append(s.commands, commandLine)
	return nil
}

var keyCodes = map[string]platform.Keycode{
	hotkeys.KeyTerminal:  53,
	hotkeys.KeyClose:     24,
	hotkeys.KeyCenter:    20,
	hotkeys.KeyMaximize:  21,
	hotkeys.KeyLeft:      34,
	hotkeys.KeyRight:     35,
	hotkeys.KeyTop:       51,
	hotkeys.KeyBottom:    61,
	hotkeys.KeyFocus:     67,
	hotkeys.KeyCycle:     23,
	hotkeys.KeyEscape:    9,
	hotkeys.KeyLauncher:  65,
	hotkeys.KeyReturn:    36,
	hotkeys.KeyBackSpace: 22,
	"t":                  28,
	"e":                  26,
	"r":                  27,
	"m":                  58,
}

var keyRunes = map[string]rune{
	hotkeys.KeyTerminal: 'x',
	hotkeys.KeyClose:    'q',
	hotkeys.KeyLauncher: ' ',
	"t":                 't',
	"e":                 'e',
	"r":                 'r',
	"m":                 'm',
}

type harness struct {
	backend *platformtest.Backend
	manager *Manager
	bar     *testBar
	corners *testCorners
	spawner *testSpawner
	cfg     *config.Config
}

func newHarness(t *testing.T, cfg *config.Config, windows map[platform.WindowID]platformtest.Window) *harness {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	backend := platformtest.New()
	for name, code := range keyCodes {
		backend.BindKey(name, code, keyRunes[name])
	}
	ids := make([]platform.WindowID, 0, len(windows))
	for id := range windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		backend.AddWindow(id, windows[id])
	}

	h := &harness{
		backend: backend,
		bar:     &testBar{Headless: statusbar.NewHeadless()},
		corners: &testCorners{},
		spawner: &testSpawner{},
		cfg:     cfg,
	}
	h.manager = New(backend, Options{
		Config:  cfg,
		Bar:     h.bar,
		Corners: h.corners,
		Spawner: h.spawner,
	})
	if err := h.manager.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return h
}

func (h *harness) handle(t *testing.T, ev platform.Event) {
	t.Helper()
	if err := h.manager.Handle(ev); err != nil {
		t.Fatalf("Handle(%s) error = %v", ev, err)
	}
}

func (h *harness) mapWindow(t *testing.T, id platform.WindowID, w platformtest.Window) {
	t.Helper()
	h.backend.AddWindow(id, w)
	h.handle(t, platform.Event{Kind: platform.EventMap, Window: id})
}

func (h *harness) key(name string, child platform.WindowID) platform.Event {
	return platform.Event{
		Kind:   platform.EventKeyPress,
		Window: h.backend.Root(),
		Child:  child,
		Detail: byte(keyCodes[name]),
		State:  hotkeys.ModAlt,
	}
}

func normalWindow(x, y, w, h int) platformtest.Window {
	return platformtest.Window{
		Geometry:   platform.Geometry{Rect: platform.Rect{X: x, Y: y, Width: w, Height: h}},
		Attributes: platform.Attributes{Mapped: true},
		Type:       platform.TypeNormal,
	}
}

func TestSetupAdoptsMappedWindows(t *testing.T) {
	dock := normalWindow(0, 0, 1000, 20)
	dock.Type = platform.TypeDock
	unmapped := normalWindow(0, 0, 100, 100)
	unmapped.Attributes.Mapped = false
	popup := normalWindow(0, 0, 100, 100)
	popup.Attributes.OverrideRedirect = true
	editor := normalWindow(40, 40, 300, 200)
	editor.Title = "editor"

	h := newHarness(t, nil, map[platform.WindowID]platformtest.Window{
		10: editor,
		11: dock,
		12: unmapped,
		13: popup,
	})

	if got := h.manager.Registry().Windows(); len(got) != 1 || got[0] != 10 {
		t.Fatalf("managed = %v, want [10]", got)
	}
	if h.manager.Active() != 10 || h.backend.Focused() != 10 || h.backend.ActiveWindow() != 10 {
		t.Fatalf("active=%v focused=%v published=%v, want 10", h.manager.Active(), h.backend.Focused(), h.backend.ActiveWindow())
	}
	if got := h.bar.ActiveTitle(); got != "editor" {
		t.Fatalf("title = %q, want editor", got)
	}

	keyMods, buttons := h.backend.Grabs()
	if len(keyMods) != 1 || keyMods[0] != hotkeys.ModAlt {
		t.Fatalf("key grabs = %v", keyMods)
	}
	if len(buttons) != 2 || buttons[0] != platform.ButtonPrimary || buttons[1] != platform.ButtonSecondary {
		t.Fatalf("button grabs = %v", buttons)
	}

	bg, watched := h.backend.RootState()
	if !watched {
		t.Fatal("root events not selected")
	}
	if want := config.ResolveColor(h.cfg.Appearance.BackgroundColor, config.FallbackRootBackground); bg != want {
		t.Fatalf("root background = %#x, want %#x", bg, want)
	}

	if h.corners.draws != 1 || !h.bar.started {
		t.Fatalf("corners drawn %d times, bar started %v", h.corners.draws, h.bar.started)
	}
	if h.backend.Flushes() == 0 {
		t.Fatal("setup never flushed")
	}
}

func TestMapRegistersDecoratesAndRaises(t *testing.T) {
	h := newHarness(t, nil, nil)

	w := normalWindow(0, 0, 400, 300)
	w.Title = "terminal"
	h.mapWindow(t, 10, w)

	got, ok := h.backend.Window(10)
	if !ok {
		t.Fatal("window vanished")
	}
	if !got.HasCursor || !got.Crossing {
		t.Fatalf("cursor=%v crossing=%v, want both set", got.HasCursor, got.Crossing)
	}
	if got.Geometry.BorderWidth != h.cfg.Appearance.BorderWidth {
		t.Fatalf("border width = %d", got.Geometry.BorderWidth)
	}
	activePixel := config.ResolveColor(h.cfg.Appearance.ActiveBorderColor, config.FallbackActiveBorder)
	if got.BorderColor != activePixel {
		t.Fatalf("border color = %#x, want active %#x", got.BorderColor, activePixel)
	}
	mw, _ := h.manager.Registry().Get(10)
	if !mw.Decorated || !mw.Exposed || !mw.Focused {
		t.Fatalf("managed state = %+v", mw)
	}
	if h.manager.Active() != 10 || h.bar.ActiveTitle() != "terminal" {
		t.Fatalf("active=%v title=%q", h.manager.Active(), h.bar.ActiveTitle())
	}
	if h.bar.WindowCountText() != "1 window" {
		t.Fatalf("count = %q", h.bar.WindowCountText())
	}
}

func TestMapIgnoresNonCyclicalAndVanishedWindows(t *testing.T) {
	h := newHarness(t, nil, nil)

	menu := normalWindow(0, 0, 100, 100)
	menu.Type = platform.TypeMenu
	h.mapWindow(t, 10, menu)

	// Mapped and destroyed before the manager looked at it.
	h.handle(t, platform.Event{Kind: platform.EventMap, Window: 11})

	if n := h.manager.Registry().Len(); n != 0 {
		t.Fatalf("managed %d windows, want 0", n)
	}
	if h.bar.ActiveTitle() != statusbar.SessionName {
		t.Fatalf("title = %q", h.bar.ActiveTitle())
	}
}

func TestCycleThenCloseReportsOneWindow(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 200, 200))
	h.mapWindow(t, 20, normalWindow(50, 50, 200, 200))

	h.handle(t, h.key(hotkeys.KeyFocus, 10))
	if h.manager.Active() != 10 {
		t.Fatalf("active = %v after focus, want 10", h.manager.Active())
	}

	h.handle(t, h.key(hotkeys.KeyCycle, platform.None))
	if h.manager.Active() != 20 || h.backend.ActiveWindow() != 20 {
		t.Fatalf("active = %v after cycle, want 20", h.manager.Active())
	}

	h.handle(t, h.key(hotkeys.KeyClose, 20))
	if _, ok := h.backend.Window(20); ok {
		t.Fatal("window 20 still exists")
	}
	if n := h.manager.Registry().Len(); n != 1 {
		t.Fatalf("managed %d windows, want 1", n)
	}
	if got := h.bar.WindowCountText(); got != "1 window" {
		t.Fatalf("count = %q, want %q", got, "1 window")
	}
	if h.manager.Active() != platform.None || h.bar.ActiveTitle() != statusbar.SessionName {
		t.Fatalf("active=%v title=%q after closing active window", h.manager.Active(), h.bar.ActiveTitle())
	}

	// The late destroy notification is harmless.
	h.handle(t, platform.Event{Kind: platform.EventDestroy, Window: 20})
	if n := h.manager.Registry().Len(); n != 1 {
		t.Fatalf("managed %d windows after duplicate destroy", n)
	}
}

func TestCycleSkipsAdjacentNonCyclical(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 1, normalWindow(0, 0, 100, 100))
	h.mapWindow(t, 2, normalWindow(0, 0, 100, 100))
	h.mapWindow(t, 3, normalWindow(0, 0, 100, 100))

	// Window 2 becomes a menu after it was managed.
	w, _ := h.backend.Window(2)
	w.Type = platform.TypeMenu
	h.backend.AddWindow(2, w)

	h.handle(t, h.key(hotkeys.KeyFocus, 1))
	h.handle(t, h.key(hotkeys.KeyCycle, platform.None))
	if h.manager.Active() != 3 {
		t.Fatalf("first cycle = %v, want 3", h.manager.Active())
	}
	h.handle(t, h.key(hotkeys.KeyCycle, platform.None))
	if h.manager.Active() != 1 {
		t.Fatalf("second cycle = %v, want 1", h.manager.Active())
	}
}

func TestMaximizeThenDragClearsHints(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(100, 100, 300, 200))

	h.handle(t, h.key(hotkeys.KeyMaximize, 10))
	w, _ := h.backend.Window(10)
	if !w.Maximized {
		t.Fatal("maximize preset did not set hints")
	}
	bw := h.cfg.Appearance.BorderWidth
	if w.Geometry.X != -bw || w.Geometry.Y != 20-bw {
		t.Fatalf("maximized origin = (%d,%d)", w.Geometry.X, w.Geometry.Y)
	}

	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Window: 1, Child: 10,
		Detail: platform.ButtonPrimary, Root: platform.Point{X: 500, Y: 500}})
	h.handle(t, platform.Event{Kind: platform.EventMotion, Window: 1, Child: 10,
		Root: platform.Point{X: 530, Y: 300}})

	w, _ = h.backend.Window(10)
	if w.Geometry.X != -bw+30 {
		t.Fatalf("dragged x = %d, want %d", w.Geometry.X, -bw+30)
	}
	if w.Geometry.Y != 20 {
		t.Fatalf("dragged y = %d, want clamp at 20", w.Geometry.Y)
	}

	h.handle(t, platform.Event{Kind: platform.EventButtonRelease, Window: 1, Child: 10,
		Detail: platform.ButtonPrimary, Root: platform.Point{X: 530, Y: 300}})
	w, _ = h.backend.Window(10)
	if w.Maximized {
		t.Fatal("drag did not clear maximized hints")
	}
	if _, active := h.manager.drag.Session(); active {
		t.Fatal("session still active after release")
	}
}

func TestResizeDragClampsSize(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(100, 100, 10, 10))

	start, _ := h.backend.Window(10)
	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Child: 10,
		Detail: platform.ButtonSecondary, Root: platform.Point{X: 200, Y: 200}})
	// A second press during the drag is ignored.
	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Child: 10,
		Detail: platform.ButtonPrimary, Root: platform.Point{X: 0, Y: 0}})
	h.handle(t, platform.Event{Kind: platform.EventMotion, Child: 10,
		Root: platform.Point{X: 200 - start.Geometry.Width - 20, Y: 200 - start.Geometry.Height - 20}})

	w, _ := h.backend.Window(10)
	if w.Geometry.Width != 1 || w.Geometry.Height != 1 {
		t.Fatalf("size = %dx%d, want 1x1", w.Geometry.Width, w.Geometry.Height)
	}
	if w.Geometry.X != start.Geometry.X || w.Geometry.Y != start.Geometry.Y {
		t.Fatal("resize moved the window")
	}
}

func TestDestroyDuringDragAbortsSession(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(100, 100, 300, 200))

	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Child: 10,
		Detail: platform.ButtonPrimary, Root: platform.Point{X: 150, Y: 150}})
	h.backend.RemoveWindow(10)
	h.handle(t, platform.Event{Kind: platform.EventDestroy, Window: 10})

	if _, active := h.manager.drag.Session(); active {
		t.Fatal("drag survived target destruction")
	}
	if h.manager.Registry().IsManaged(10) {
		t.Fatal("destroyed window still managed")
	}
	// Motion after the abort must not touch the vanished window.
	h.handle(t, platform.Event{Kind: platform.EventMotion, Root: platform.Point{X: 10, Y: 10}})
	h.handle(t, platform.Event{Kind: platform.EventButtonRelease, Detail: platform.ButtonPrimary})
}

func TestEnterLeaveBorders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Placement.AutoRaise = false
	h := newHarness(t, cfg, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 100, 100))
	h.mapWindow(t, 20, normalWindow(0, 0, 100, 100))

	active := config.ResolveColor(cfg.Appearance.ActiveBorderColor, config.FallbackActiveBorder)
	inactive := config.ResolveColor(cfg.Appearance.InactiveBorderColor, config.FallbackInactiveBorder)

	raisedBefore := len(h.backend.Raised())
	h.handle(t, platform.Event{Kind: platform.EventEnter, Window: 10})
	if h.backend.Focused() != 10 {
		t.Fatalf("focused = %v, want 10", h.backend.Focused())
	}
	if len(h.backend.Raised()) != raisedBefore {
		t.Fatal("enter raised a window with auto-raise off")
	}
	w10, _ := h.backend.Window(10)
	w20, _ := h.backend.Window(20)
	if w10.BorderColor != active || w20.BorderColor != inactive {
		t.Fatalf("borders = %#x/%#x, want %#x/%#x", w10.BorderColor, w20.BorderColor, active, inactive)
	}

	h.handle(t, platform.Event{Kind: platform.EventLeave, Window: 10})
	w10, _ = h.backend.Window(10)
	if w10.BorderColor != inactive {
		t.Fatalf("border after leave = %#x, want %#x", w10.BorderColor, inactive)
	}
}

func TestEnterAutoRaise(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 100, 100))
	h.mapWindow(t, 20, normalWindow(0, 0, 100, 100))

	h.handle(t, platform.Event{Kind: platform.EventEnter, Window: 10})
	raised := h.backend.Raised()
	if raised[len(raised)-1] != 10 || h.manager.Active() != 10 {
		t.Fatalf("raised=%v active=%v, want 10 on top", raised, h.manager.Active())
	}

	// Entering an unmanaged window changes nothing.
	h.handle(t, platform.Event{Kind: platform.EventEnter, Window: 77})
	if h.manager.Active() != 10 {
		t.Fatalf("active = %v", h.manager.Active())
	}
}

func TestLauncher(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.handle(t, h.key(hotkeys.KeyLauncher, platform.None))
	if !h.backend.KeyboardGrabbed() || !h.bar.CommandEntryActive() {
		t.Fatal("launcher not active")
	}

	for _, name := range []string{hotkeys.KeyTerminal, "t", "e", "r", "m", hotkeys.KeyClose, hotkeys.KeyBackSpace} {
		h.handle(t, h.key(name, platform.None))
	}
	if got := h.bar.Layout().Leading; got != "xterm|" {
		t.Fatalf("leading = %q, want %q", got, "xterm|")
	}

	h.handle(t, h.key(hotkeys.KeyReturn, platform.None))
	if len(h.spawner.commands) != 1 || h.spawner.commands[0] != "xterm" {
		t.Fatalf("spawned %v, want [xterm]", h.spawner.commands)
	}
	if h.backend.KeyboardGrabbed() || h.bar.CommandEntryActive() {
		t.Fatal("launcher still active after Return")
	}
}

func TestLauncherEscapeCancels(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.handle(t, h.key(hotkeys.KeyLauncher, platform.None))
	h.handle(t, h.key("t", platform.None))
	if err := h.manager.Handle(h.key(hotkeys.KeyEscape, platform.None)); err != nil {
		t.Fatalf("Escape in launcher returned %v", err)
	}
	if h.bar.CommandEntryActive() || h.backend.KeyboardGrabbed() {
		t.Fatal("launcher still active after Escape")
	}
	if len(h.spawner.commands) != 0 {
		t.Fatalf("spawned %v", h.spawner.commands)
	}
}

func TestKeyCommands(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.handle(t, h.key(hotkeys.KeyTerminal, platform.None))
	if len(h.spawner.commands) != 1 || h.spawner.commands[0] != TerminalCommand {
		t.Fatalf("spawned %v", h.spawner.commands)
	}

	// Child-bound keys with nothing under the pointer do nothing.
	h.handle(t, h.key(hotkeys.KeyClose, platform.None))
	h.handle(t, h.key(hotkeys.KeyMaximize, platform.None))

	// Unaliased keys are ignored.
	h.handle(t, platform.Event{Kind: platform.EventKeyPress, Detail: 200})

	if err := h.manager.Handle(h.key(hotkeys.KeyEscape, platform.None)); !errors.Is(err, ErrQuit) {
		t.Fatalf("Escape returned %v, want ErrQuit", err)
	}
}

func TestPresetsKeepBarBandClear(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(100, 100, 300, 200))
	bw := h.cfg.Appearance.BorderWidth

	tests := []struct {
		key       string
		x, y      int
		maximized bool
	}{
		{hotkeys.KeyLeft, -bw, 20 - bw, false},
		{hotkeys.KeyRight, 500 - bw, 20 - bw, false},
		{hotkeys.KeyTop, -bw, 20 - bw, false},
		{hotkeys.KeyMaximize, -bw, 20 - bw, true},
	}
	for _, tt := range tests {
		h.handle(t, h.key(tt.key, 10))
		w, _ := h.backend.Window(10)
		if w.Geometry.X != tt.x || w.Geometry.Y != tt.y || w.Maximized != tt.maximized {
			t.Errorf("%s: origin=(%d,%d) maximized=%v, want (%d,%d) %v",
				tt.key, w.Geometry.X, w.Geometry.Y, w.Maximized, tt.x, tt.y, tt.maximized)
		}
		if w.Geometry.Width < 1 || w.Geometry.Height < 1 {
			t.Errorf("%s: degenerate size %dx%d", tt.key, w.Geometry.Width, w.Geometry.Height)
		}
	}
}

func TestBarClicks(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 100, 100))
	h.mapWindow(t, 20, normalWindow(0, 0, 100, 100))

	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Window: barWindow, Detail: platform.ButtonSecondary})
	if got := h.bar.Layout().Leading; got != "2 windows" {
		t.Fatalf("leading = %q, want count", got)
	}

	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Window: barWindow, Detail: platform.ButtonPrimary})
	if h.manager.Active() != 10 {
		t.Fatalf("active = %v after bar click, want 10", h.manager.Active())
	}
	if _, active := h.manager.drag.Session(); active {
		t.Fatal("bar click started a drag")
	}
}

func TestEveryEventRaisesCornersAndFlushes(t *testing.T) {
	h := newHarness(t, nil, nil)
	updates, flushes := h.corners.updates, h.backend.Flushes()

	h.handle(t, platform.Event{Kind: platform.EventExpose, Window: barWindow})
	h.handle(t, platform.Event{Kind: platform.EventMotion})

	if h.corners.updates != updates+2 || h.backend.Flushes() != flushes+2 {
		t.Fatalf("corner updates %d->%d, flushes %d->%d", updates, h.corners.updates, flushes, h.backend.Flushes())
	}
}

func TestShutdown(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.handle(t, h.key(hotkeys.KeyLauncher, platform.None))

	h.manager.Shutdown()
	if !h.bar.stopped || h.corners.stops != 1 {
		t.Fatalf("bar stopped=%v corner stops=%d", h.bar.stopped, h.corners.stops)
	}
	if h.backend.KeyboardGrabbed() {
		t.Fatal("keyboard still grabbed after shutdown")
	}
}

func runAsync(ctx context.Context, m *Manager) <-chan error {
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestRunQuitKey(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.backend.AddWindow(10, normalWindow(0, 0, 100, 100))

	h.backend.Push(platform.Event{Kind: platform.EventMap, Window: 10})
	h.backend.Push(h.key(hotkeys.KeyEscape, platform.None))

	if err := waitRun(t, runAsync(context.Background(), h.manager)); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !h.manager.Registry().IsManaged(10) {
		t.Fatal("events before quit were not handled")
	}
}

func TestRunConnectionLost(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.backend.Disconnect()

	err := waitRun(t, runAsync(context.Background(), h.manager))
	if !errors.Is(err, platform.ErrConnectionLost) {
		t.Fatalf("Run() = %v, want ErrConnectionLost", err)
	}
}

func TestRunCancel(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, h.manager)
	cancel()

	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunRedrawRequest(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := h.bar.updates
	h.bar.RequestRedraw()
	h.backend.Push(h.key(hotkeys.KeyEscape, platform.None))
	done := runAsync(ctx, h.manager)

	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	// The redraw and the quit key race in select; the redraw is still
	// pending or consumed, never lost.
	select {
	case <-h.bar.Redraws():
	default:
		if h.bar.updates == before {
			t.Fatal("redraw request was dropped")
		}
	}
}

func TestReconcileDropsStaleWindows(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 100, 100))
	h.mapWindow(t, 20, normalWindow(0, 0, 100, 100))

	// Window 20 disappears without a destroy notification.
	h.backend.RemoveWindow(20)

	h.backend.SetChildrenErr(errors.New("query tree failed"))
	if n := h.manager.Reconcile(); n != 0 {
		t.Fatalf("Reconcile() with failing enumeration dropped %d", n)
	}
	h.backend.SetChildrenErr(nil)

	if n := h.manager.Reconcile(); n != 1 {
		t.Fatalf("Reconcile() = %d, want 1", n)
	}
	if got := h.manager.Registry().Windows(); len(got) != 1 || got[0] != 10 {
		t.Fatalf("managed = %v, want [10]", got)
	}
	if h.manager.Active() != platform.None {
		t.Fatalf("active = %v, want none after its window vanished", h.manager.Active())
	}
	if got := h.bar.WindowCountText(); got != "1 window" {
		t.Fatalf("count = %q", got)
	}
}

func TestSetupAdoptsNonCyclicalMappedWindows(t *testing.T) {
	menu := normalWindow(0, 0, 120, 200)
	menu.Type = platform.TypeMenu

	h := newHarness(t, nil, map[platform.WindowID]platformtest.Window{
		5:  menu,
		10: normalWindow(40, 40, 300, 200),
	})

	got := h.manager.Registry().Windows()
	if len(got) != 2 || got[0] != 5 || got[1] != 10 {
		t.Fatalf("managed = %v, want [5 10]", got)
	}
	if h.manager.Active() != 10 {
		t.Fatalf("active = %v, want 10", h.manager.Active())
	}
}

func TestRemapRaisesManagedWindow(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 200, 200))
	h.mapWindow(t, 11, normalWindow(50, 50, 200, 200))

	h.handle(t, platform.Event{Kind: platform.EventMap, Window: 10})

	if h.manager.Active() != 10 || h.backend.Focused() != 10 {
		t.Fatalf("active=%v focused=%v, want 10", h.manager.Active(), h.backend.Focused())
	}
	raised := h.backend.Raised()
	if raised[len(raised)-1] != 10 {
		t.Fatalf("last raised = %v, want 10", raised[len(raised)-1])
	}
	if n := h.manager.Registry().Len(); n != 2 {
		t.Fatalf("managed %d windows, want 2", n)
	}
}

func TestPressDuringDragKeepsFocusOnTarget(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.mapWindow(t, 10, normalWindow(0, 0, 200, 200))
	h.mapWindow(t, 11, normalWindow(300, 300, 200, 200))

	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Child: 10,
		Detail: platform.ButtonPrimary, Root: platform.Point{X: 50, Y: 50}})
	h.handle(t, platform.Event{Kind: platform.EventButtonPress, Child: 11,
		Detail: platform.ButtonSecondary, Root: platform.Point{X: 350, Y: 350}})

	session, ok := h.manager.drag.Session()
	if !ok || session.Target != 10 {
		t.Fatalf("session = %+v (active %v), want target 10", session, ok)
	}
	if h.manager.Active() != 10 || h.backend.Focused() != 10 {
		t.Fatalf("active=%v focused=%v, want 10", h.manager.Active(), h.backend.Focused())
	}
}

func TestLauncherNeedsBarWindow(t *testing.T) {
	backend := platformtest.New()
	for name, code := range keyCodes {
		backend.BindKey(name, code, keyRunes[name])
	}
	bar := statusbar.NewHeadless()
	spawner := &testSpawner{}
	m := New(backend, Options{Config: config.DefaultConfig(), Bar: bar, Spawner: spawner})
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	h := &harness{backend: backend}
	for _, ev := range []platform.Event{
		h.key(hotkeys.KeyLauncher, platform.None),
		h.key("t", platform.None),
		h.key(hotkeys.KeyReturn, platform.None),
	} {
		if err := m.Handle(ev); err != nil {
			t.Fatalf("Handle(%s) error = %v", ev, err)
		}
	}

	if backend.KeyboardGrabbed() || bar.CommandEntryActive() {
		t.Fatalf("keyboardGrabbed=%v commandEntry=%v, want both false", backend.KeyboardGrabbed(), bar.CommandEntryActive())
	}
	if len(spawner.commands) != 0 {
		t.Fatalf("spawned %v", spawner.commands)
	}
}

func TestRunSurvivesRequestErrors(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.backend.AddWindow(10, normalWindow(0, 0, 100, 100))

	h.backend.PushError(errors.New("x11: BadValue {NiceName: Value, Sequence: 42}"))
	h.backend.PushError(fmt.Errorf("x11: BadWindow: %w", platform.ErrWindowGone))
	h.backend.Push(platform.Event{Kind: platform.EventMap, Window: 10})
	h.backend.Push(h.key(hotkeys.KeyEscape, platform.None))

	if err := waitRun(t, runAsync(context.Background(), h.manager)); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !h.manager.Registry().IsManaged(10) {
		t.Fatal("events after a request error were not handled")
	}
}
