// Package wm is the window manager's dispatch loop. A Manager owns the
// registry, the decoration policy and the drag controller, and is the only
// writer to the display connection.
package wm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/drag"
	"github.com/1broseidon/biscuitwm/internal/hotkeys"
	"github.com/1broseidon/biscuitwm/internal/placement"
	"github.com/1broseidon/biscuitwm/internal/platform"
	"github.com/1broseidon/biscuitwm/internal/registry"
)

// TerminalCommand is spawned by the terminal key.
const TerminalCommand = "x-terminal-emulator"

// ErrQuit is returned by Handle when the quit key ends the session.
var ErrQuit = errors.New("session ended by quit command")

// StatusBar is the bar the manager keeps informed. Every method except
// Redraws is called from the dispatch goroutine only.
type StatusBar interface {
	registry.CountObserver

	Window() platform.WindowID
	Height() int
	SetActiveTitle(title string)
	ToggleDisplayMode()

	ToggleCommandEntry(on bool)
	CommandEntryActive() bool
	AppendCommand(r rune)
	DeleteCommandRune() bool
	Command() string

	Update()
	Redraws() <-chan struct{}
	Start()
	Stop()
}

// CornerMask is the rounded-corner overlay.
type CornerMask interface {
	Draw() error
	Update()
	Stop()
}

// Spawner launches commands typed into the launcher or bound to keys.
type Spawner interface {
	Spawn(commandLine string) error
}

// Options are the collaborators handed to New. Corners may be nil.
type Options struct {
	Config  *config.Config
	Bar     StatusBar
	Corners CornerMask
	Spawner Spawner
	Logger  *slog.Logger
}

// Manager reacts to display events. It is not safe for concurrent use.
type Manager struct {
	backend platform.Backend
	cfg     *config.Config
	bar     StatusBar
	corners CornerMask
	spawner Spawner
	logger  *slog.Logger

	registry *registry.Registry
	policy   *placement.Policy
	drag     *drag.Controller
	keys     *hotkeys.AliasTable

	// active is the last window raised; its title is shown on the bar.
	active platform.WindowID
}

// New wires a manager around backend. Nothing touches the display until
// Setup.
func New(backend platform.Backend, opts Options) *Manager {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	barHeight := opts.Bar.Height()
	return &Manager{
		backend:  backend,
		cfg:      cfg,
		bar:      opts.Bar,
		corners:  opts.Corners,
		spawner:  opts.Spawner,
		logger:   logger,
		registry: registry.New(backend, opts.Bar, logger.With("component", "registry")),
		policy:   placement.NewPolicy(backend, backend.DisplayGeometry, barHeight, cfg, logger.With("component", "placement")),
		drag:     drag.New(backend, barHeight, logger.With("component", "drag")),
	}
}

// Registry exposes the managed window set for inspection.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Active returns the last raised window, platform.None if there is none.
func (m *Manager) Active() platform.WindowID {
	return m.active
}

// Setup takes over the display: key and button grabs, root events and
// background, already-mapped windows, then the bar and corner mask.
func (m *Manager) Setup() error {
	m.keys = hotkeys.NewAliasTable(m.backend)
	if unbound := m.keys.Unbound(); len(unbound) > 0 {
		m.logger.Warn("keys missing from keyboard layout", "keys", unbound)
	}

	if err := hotkeys.Register(m.backend); err != nil {
		return err
	}
	if err := m.backend.WatchRoot(); err != nil {
		return fmt.Errorf("failed to select root events (another window manager running?): %w", err)
	}

	root := m.backend.Root()
	bg := config.ResolveColor(m.cfg.Appearance.BackgroundColor, config.FallbackRootBackground)
	if err := m.backend.SetRootBackground(bg); err != nil {
		m.logger.Warn("failed to set root background", "error", err)
	}
	if err := m.backend.SetCursor(root); err != nil {
		m.logger.Warn("failed to set root cursor", "error", err)
	}

	if err := m.manageExisting(); err != nil {
		m.logger.Warn("failed to adopt existing windows", "error", err)
	}

	m.refreshTitle()
	m.bar.Update()
	if m.corners != nil {
		if err := m.corners.Draw(); err != nil {
			m.logger.Warn("failed to draw corner mask", "error", err)
			m.corners = nil
		}
	}
	m.bar.Start()
	m.afterEvent()
	return nil
}

// manageExisting adopts every mapped top-level window, raising the last
// one. Docks and override-redirect windows are left to Register to reject.
func (m *Manager) manageExisting() error {
	children, err := m.backend.Children()
	if err != nil {
		return err
	}
	for _, id := range children {
		if id == m.bar.Window() {
			continue
		}
		attrs, err := m.backend.Attributes(id)
		if err != nil || !attrs.Mapped {
			continue
		}
		if _, err := m.manage(id); err != nil {
			m.logWindowErr("adopt window", id, err)
		}
	}
	if n := m.registry.Len(); n > 0 {
		m.raise(m.registry.Windows()[n-1])
	}
	return nil
}

// Shutdown stops the bar timers and removes the corner mask. The caller
// closes the backend.
func (m *Manager) Shutdown() {
	m.bar.Stop()
	if m.corners != nil {
		m.corners.Stop()
	}
	if m.bar.CommandEntryActive() {
		_ = m.backend.UngrabKeyboard()
	}
}

func (m *Manager) afterEvent() {
	if m.corners != nil {
		m.corners.Update()
	}
	m.backend.Flush()
}

func (m *Manager) logWindowErr(action string, id platform.WindowID, err error) {
	level := slog.LevelWarn
	if errors.Is(err, platform.ErrWindowGone) || errors.Is(err, placement.ErrDock) {
		level = slog.LevelDebug
	}
	m.logger.Log(context.Background(), level, action+" failed", "window", hexID(id), "error", err)
}

func hexID(id platform.WindowID) string {
	return fmt.Sprintf("0x%x", uint32(id))
}
