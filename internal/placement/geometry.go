// Package placement computes window geometry for new windows and resize
// presets and applies border decorations.
package placement

import (
	"fmt"

	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/platform"
)

// Offset of a freshly placed window from the top-left screen corner. The
// vertical inset keeps new windows clear of the status bar.
const (
	InsetX = 5
	InsetY = 25
)

// Preset is a named resize target.
type Preset int

const (
	Center Preset = iota
	Maximize
	Left
	Right
	Top
	Bottom
)

var presetNames = map[Preset]string{
	Center:   "center",
	Maximize: "maximize",
	Left:     "left",
	Right:    "right",
	Top:      "top",
	Bottom:   "bottom",
}

func (p Preset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Preset(%d)", int(p))
}

// ParsePreset converts a preset name to a Preset.
func ParsePreset(name string) (Preset, error) {
	for p, n := range presetNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown preset %q", name)
}

// InitialPlacement returns where a newly managed window should go. With
// auto placement off the requested geometry is returned untouched.
// Otherwise the window is moved to the fixed inset, shrunk by twice the
// inset on any axis where it would overflow the display when auto fit is
// on, and centered when center placement is on.
func InitialPlacement(requested, display platform.Rect, cfg config.Placement) platform.Rect {
	if !cfg.AutoPlace {
		return requested
	}

	x, y := InsetX, InsetY
	width, height := requested.Width, requested.Height

	if cfg.AutoFit {
		if requested.Width+InsetX >= display.Width {
			width -= InsetX * 2
		}
		if requested.Height+InsetY >= display.Height {
			height -= InsetY * 2
		}
	}
	width = max(1, width)
	height = max(1, height)

	if cfg.CenterPlacement {
		x = display.X + (display.Width-width)/2
		y = display.Y + (display.Height-height)/2
	}

	return platform.Rect{X: x, Y: y, Width: width, Height: height}
}

// PresetGeometry computes the geometry for a resize preset. The usable area
// is the display minus a band of barHeight pixels along the top. Every
// origin is shifted by -borderWidth so the client area, not the border,
// lines up with the display edge. The second result reports whether the
// window should carry the maximized state hints.
func PresetGeometry(current platform.Rect, preset Preset, display platform.Rect, barHeight, borderWidth int) (platform.Rect, bool) {
	usableHeight := display.Height - barHeight
	top := display.Y + barHeight - borderWidth
	left := display.X - borderWidth

	var r platform.Rect
	switch preset {
	case Maximize:
		r = platform.Rect{X: left, Y: top, Width: display.Width, Height: usableHeight}
	case Left:
		r = platform.Rect{X: left, Y: top, Width: display.Width / 2, Height: usableHeight}
	case Right:
		half := display.Width / 2
		r = platform.Rect{X: left + half, Y: top, Width: half, Height: usableHeight}
	case Top:
		r = platform.Rect{X: left, Y: top, Width: display.Width, Height: usableHeight / 2}
	case Bottom:
		half := usableHeight / 2
		r = platform.Rect{X: left, Y: top + half, Width: display.Width, Height: half}
	default:
		r = platform.Rect{
			X:      display.X + (display.Width-current.Width)/2 - borderWidth,
			Y:      display.Y + (display.Height-current.Height)/2 - borderWidth,
			Width:  current.Width,
			Height: current.Height,
		}
	}

	r.Width = max(1, r.Width)
	r.Height = max(1, r.Height)
	return r, preset == Maximize
}
