package wm

import (
	"errors"

	"github.com/1broseidon/biscuitwm/internal/drag"
	"github.com/1broseidon/biscuitwm/internal/hotkeys"
	"github.com/1broseidon/biscuitwm/internal/placement"
	"github.com/1broseidon/biscuitwm/internal/platform"
	"github.com/1broseidon/biscuitwm/internal/registry"
)

// Handle processes one event, then raises the corner mask and flushes.
// Failures against single windows are logged and swallowed; only ErrQuit is
// returned.
func (m *Manager) Handle(ev platform.Event) error {
	m.logger.Debug("event", "event", ev.String())

	var err error
	switch ev.Kind {
	case platform.EventMap:
		m.handleMap(ev)
	case platform.EventDestroy:
		m.handleDestroy(ev)
	case platform.EventEnter:
		m.handleEnter(ev)
	case platform.EventLeave:
		m.handleLeave(ev)
	case platform.EventKeyPress:
		err = m.handleKey(ev)
	case platform.EventButtonPress:
		m.handleButtonPress(ev)
	case platform.EventMotion:
		m.handleMotion(ev)
	case platform.EventButtonRelease:
		m.handleButtonRelease(ev)
	case platform.EventExpose:
		if ev.Window == m.bar.Window() {
			m.bar.Update()
		}
	}

	m.afterEvent()
	return err
}

// Redraw refreshes the title from the active window and repaints the bar.
func (m *Manager) Redraw() {
	m.refreshTitle()
	m.bar.Update()
	m.afterEvent()
}

func (m *Manager) handleMap(ev platform.Event) {
	defer m.refreshTitle()

	id := ev.Window
	if id == m.bar.Window() || !m.registry.IsCyclical(id) {
		return
	}
	outcome, err := m.manage(id)
	if err != nil {
		m.logWindowErr("manage window", id, err)
		return
	}
	if outcome == registry.Registered || outcome == registry.AlreadyManaged {
		m.raise(id)
	}
}

// manage registers a window and decorates it on first sight.
func (m *Manager) manage(id platform.WindowID) (registry.Outcome, error) {
	outcome, err := m.registry.Register(id)
	if err != nil || outcome != registry.Registered {
		return outcome, err
	}

	geom, err := m.policy.Decorate(id)
	if err != nil {
		return outcome, err
	}
	m.registry.SetGeometry(id, geom)
	m.registry.MarkDecorated(id)

	if err := m.backend.WatchCrossing(id); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (m *Manager) handleDestroy(ev platform.Event) {
	m.forget(ev.Window)
}

// forget drops every trace of a window that is gone or going.
func (m *Manager) forget(id platform.WindowID) {
	if m.drag.Abort(id) {
		m.logger.Debug("drag target destroyed", "window", hexID(id))
	}
	m.registry.Unregister(id)
	if m.active == id {
		m.active = platform.None
		m.bar.SetActiveTitle("")
		m.bar.Update()
	}
}

func (m *Manager) handleEnter(ev platform.Event) {
	defer m.refreshTitle()

	id := ev.Window
	if !m.registry.IsManaged(id) || m.registry.IsDock(id) || !m.registry.IsAlive(id) {
		return
	}
	if m.cfg.Placement.AutoRaise {
		m.raise(id)
		return
	}
	m.focus(id)
}

func (m *Manager) handleLeave(ev platform.Event) {
	defer m.refreshTitle()

	id := ev.Window
	if !m.registry.IsManaged(id) {
		return
	}
	if err := m.policy.ApplyFocusBorder(id, false); err != nil {
		m.logWindowErr("clear focus border", id, err)
	}
}

// focus gives a window input focus and the active border, moving the cycle
// cursor to it.
func (m *Manager) focus(id platform.WindowID) {
	for _, other := range m.registry.Windows() {
		if w, _ := m.registry.Get(other); w.Focused && other != id {
			if err := m.policy.ApplyFocusBorder(other, false); err != nil {
				m.logWindowErr("clear focus border", other, err)
			}
		}
	}
	if err := m.backend.Focus(id); err != nil {
		m.logWindowErr("focus", id, err)
		return
	}
	if err := m.policy.ApplyFocusBorder(id, true); err != nil {
		m.logWindowErr("set focus border", id, err)
	}
	m.registry.SetFocused(id)
	m.registry.SetCursor(id)
}

// raise stacks a window on top, focuses it and makes it the active window.
func (m *Manager) raise(id platform.WindowID) {
	if err := m.backend.Raise(id); err != nil {
		m.logWindowErr("raise", id, err)
		return
	}
	m.focus(id)
	if err := m.backend.SetActiveWindow(id); err != nil {
		m.logWindowErr("publish active window", id, err)
	}
	m.active = id
	m.refreshTitle()
	m.bar.Update()
}

// refreshTitle shows the active window's title, or the session name when
// there is no active window or it has no title.
func (m *Manager) refreshTitle() {
	if m.active == platform.None {
		m.bar.SetActiveTitle("")
		return
	}
	title, err := m.backend.Title(m.active)
	if err != nil {
		if errors.Is(err, platform.ErrWindowGone) {
			m.active = platform.None
		}
		m.bar.SetActiveTitle("")
		return
	}
	m.bar.SetActiveTitle(title)
}

func (m *Manager) handleKey(ev platform.Event) error {
	code := platform.Keycode(ev.Detail)
	if m.bar.CommandEntryActive() {
		m.handleLauncherKey(code, ev.State)
		return nil
	}

	action, ok := m.keys.Lookup(code)
	if !ok {
		return nil
	}
	child := ev.Child
	if action.NeedsChild && (child == platform.None || !m.registry.IsManaged(child)) {
		return nil
	}
	m.logger.Debug("command", "command", action.Command.String(), "window", hexID(child))

	switch action.Command {
	case hotkeys.CommandTerminal:
		m.spawn(TerminalCommand)
	case hotkeys.CommandClose:
		if err := m.backend.CloseWindow(child); err != nil {
			m.logWindowErr("close window", child, err)
		}
		m.forget(child)
	case hotkeys.CommandPreset:
		m.resizeToPreset(child, action.Preset)
	case hotkeys.CommandFocus:
		m.raise(child)
	case hotkeys.CommandCycle:
		m.cycle()
	case hotkeys.CommandLauncher:
		m.startLauncher()
	case hotkeys.CommandQuit:
		return ErrQuit
	}
	return nil
}

func (m *Manager) resizeToPreset(id platform.WindowID, preset placement.Preset) {
	r, err := m.policy.ResizeToPreset(id, preset)
	if err != nil {
		m.logWindowErr("resize to "+preset.String(), id, err)
		return
	}
	if w, ok := m.registry.Get(id); ok {
		w.Geometry.Rect = r
		m.registry.SetGeometry(id, w.Geometry)
	}
}

func (m *Manager) cycle() {
	id, ok := m.registry.NextCyclical()
	if !ok {
		return
	}
	m.raise(id)
}

func (m *Manager) spawn(commandLine string) {
	if m.spawner == nil {
		return
	}
	if err := m.spawner.Spawn(commandLine); err != nil {
		m.logger.Error("spawn failed", "command", commandLine, "error", err)
	}
}

// startLauncher needs a bar window to show what is being typed.
func (m *Manager) startLauncher() {
	if m.bar.Window() == platform.None {
		m.logger.Debug("launcher needs the status bar")
		return
	}
	if err := m.backend.GrabKeyboard(); err != nil {
		m.logger.Warn("launcher unavailable", "error", err)
		return
	}
	m.bar.ToggleCommandEntry(true)
	m.bar.Update()
}

func (m *Manager) stopLauncher() {
	m.bar.ToggleCommandEntry(false)
	if err := m.backend.UngrabKeyboard(); err != nil {
		m.logger.Warn("failed to release keyboard", "error", err)
	}
	m.bar.Update()
}

func (m *Manager) handleLauncherKey(code platform.Keycode, state uint16) {
	switch {
	case m.keys.Is(code, hotkeys.KeyEscape):
		m.stopLauncher()
		return
	case m.keys.Is(code, hotkeys.KeyBackSpace):
		m.bar.DeleteCommandRune()
	case m.keys.Is(code, hotkeys.KeyReturn):
		command := m.bar.Command()
		m.stopLauncher()
		if command != "" {
			m.spawn(command)
		}
		return
	default:
		r, ok := m.backend.KeyRune(code, state)
		if !ok {
			return
		}
		m.bar.AppendCommand(r)
	}
	m.bar.Update()
}

func (m *Manager) isBar(ev platform.Event) bool {
	bar := m.bar.Window()
	return bar != platform.None && (ev.Window == bar || ev.Child == bar)
}

func (m *Manager) handleButtonPress(ev platform.Event) {
	if m.isBar(ev) {
		switch ev.Detail {
		case platform.ButtonPrimary:
			m.cycle()
		case platform.ButtonSecondary:
			m.bar.ToggleDisplayMode()
			m.bar.Update()
		}
		return
	}

	id := ev.Child
	if id == platform.None || !m.registry.IsManaged(id) || m.registry.IsDock(id) {
		return
	}
	if m.drag.Phase() == drag.PhaseDragging {
		m.logger.Debug("ignoring button press during drag", "window", hexID(id))
		return
	}
	mode, ok := drag.ModeForButton(ev.Detail)
	if !ok {
		return
	}

	m.raise(id)
	geom, err := m.backend.Geometry(id)
	if err != nil {
		m.logWindowErr("read geometry", id, err)
		return
	}
	if err := m.drag.Begin(id, ev.Root, geom.Rect, mode); err != nil {
		m.logger.Debug("ignoring button press", "window", hexID(id), "error", err)
	}
}

func (m *Manager) handleMotion(ev platform.Event) {
	session, ok := m.drag.Session()
	if !ok {
		return
	}
	r, err := m.drag.Update(ev.Root)
	if err != nil {
		m.logWindowErr("drag", session.Target, err)
		return
	}
	if w, ok := m.registry.Get(session.Target); ok {
		w.Geometry.Rect = r
		m.registry.SetGeometry(session.Target, w.Geometry)
	}
}

func (m *Manager) handleButtonRelease(ev platform.Event) {
	m.drag.End()

	id := ev.Child
	if id == platform.None || m.isBar(ev) || !m.registry.IsManaged(id) || m.registry.IsDock(id) {
		return
	}
	if err := m.backend.SetMaximized(id, false); err != nil {
		m.logWindowErr("clear maximized state", id, err)
	}
}
