package placement

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/platform"
)

// ErrDock is returned for operations that never touch dock windows.
var ErrDock = errors.New("dock windows are not decorated")

// Windows is the window access the policy needs.
type Windows interface {
	platform.Inspector
	platform.Configurer
}

// Policy applies placement, presets and focus borders to live windows.
type Policy struct {
	windows   Windows
	display   func() platform.Rect
	barHeight int
	placement config.Placement

	borderWidth   int
	activePixel   uint32
	inactivePixel uint32
	logger        *slog.Logger
}

// NewPolicy resolves border colors once from cfg. barHeight is the band
// reserved at the top of the display, zero without a status bar.
func NewPolicy(windows Windows, display func() platform.Rect, barHeight int, cfg *config.Config, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		windows:       windows,
		display:       display,
		barHeight:     barHeight,
		placement:     cfg.Placement,
		borderWidth:   cfg.Appearance.BorderWidth,
		activePixel:   config.ResolveColor(cfg.Appearance.ActiveBorderColor, config.FallbackActiveBorder),
		inactivePixel: config.ResolveColor(cfg.Appearance.InactiveBorderColor, config.FallbackInactiveBorder),
		logger:        logger,
	}
}

// BarHeight returns the reserved band height.
func (p *Policy) BarHeight() int {
	return p.barHeight
}

func (p *Policy) isDock(id platform.WindowID) bool {
	t, err := p.windows.WindowType(id)
	return err == nil && t == platform.TypeDock
}

// Decorate prepares a newly managed window: pointer cursor, initial
// placement and the inactive border. It returns the applied geometry.
func (p *Policy) Decorate(id platform.WindowID) (platform.Geometry, error) {
	if err := p.windows.SetCursor(id); err != nil {
		return platform.Geometry{}, err
	}
	if p.isDock(id) {
		return platform.Geometry{}, ErrDock
	}

	geom, err := p.windows.Geometry(id)
	if err != nil {
		return platform.Geometry{}, err
	}

	if p.placement.AutoPlace {
		geom.Rect = InitialPlacement(geom.Rect, p.display(), p.placement)
		if err := p.windows.MoveResize(id, geom.Rect); err != nil {
			return platform.Geometry{}, err
		}
	}

	if err := p.windows.SetBorderWidth(id, p.borderWidth); err != nil {
		return platform.Geometry{}, err
	}
	geom.BorderWidth = p.borderWidth
	if err := p.windows.SetBorderColor(id, p.inactivePixel); err != nil {
		return platform.Geometry{}, err
	}
	return geom, nil
}

// ResizeToPreset moves a window to a preset and updates its maximized hints.
func (p *Policy) ResizeToPreset(id platform.WindowID, preset Preset) (platform.Rect, error) {
	if p.isDock(id) {
		return platform.Rect{}, ErrDock
	}

	geom, err := p.windows.Geometry(id)
	if err != nil {
		return platform.Rect{}, err
	}

	r, maximized := PresetGeometry(geom.Rect, preset, p.display(), p.barHeight, p.borderWidth)
	p.logger.Debug("resize to preset", "window", fmt.Sprintf("0x%x", uint32(id)), "preset", preset, "geometry", r)

	if err := p.windows.SetMaximized(id, maximized); err != nil {
		return platform.Rect{}, err
	}
	if err := p.windows.MoveResize(id, r); err != nil {
		return platform.Rect{}, err
	}
	return r, nil
}

// ApplyFocusBorder paints the active or inactive border. Focusing also
// resets the border width.
func (p *Policy) ApplyFocusBorder(id platform.WindowID, focused bool) error {
	if p.isDock(id) {
		return ErrDock
	}
	if !focused {
		return p.windows.SetBorderColor(id, p.inactivePixel)
	}
	if err := p.windows.SetBorderWidth(id, p.borderWidth); err != nil {
		return err
	}
	return p.windows.SetBorderColor(id, p.activePixel)
}
