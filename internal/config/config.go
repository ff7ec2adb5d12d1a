package config

import (
	"errors"
	"fmt"
)

// Placement controls where newly managed windows are put.
type Placement struct {
	AutoPlace       bool `yaml:"auto_place"`
	AutoFit         bool `yaml:"auto_fit"`
	AutoRaise       bool `yaml:"auto_raise"`
	CenterPlacement bool `yaml:"center_placement"`
}

// Clock selects which clock fields the status bar shows.
type Clock struct {
	Enabled     bool `yaml:"enabled"`
	ShowDay     bool `yaml:"show_day"`
	ShowDate    bool `yaml:"show_date"`
	ShowSeconds bool `yaml:"show_seconds"`
}

// StatusBar configures the bar drawn along the top edge of the screen.
type StatusBar struct {
	Enabled         bool   `yaml:"enabled"`
	BackgroundColor string `yaml:"background_color"`
	ForegroundColor string `yaml:"foreground_color"`
	Clock           Clock  `yaml:"clock"`
}

// Corners toggles the rounded screen-corner mask.
type Corners struct {
	Enabled bool `yaml:"enabled"`
}

// Appearance holds window border and root background settings. Colors are
// either names from the built-in table or #rgb / #rrggbb hex codes.
type Appearance struct {
	BorderWidth         int    `yaml:"border_width"`
	ActiveBorderColor   string `yaml:"active_border_color"`
	InactiveBorderColor string `yaml:"inactive_border_color"`
	BackgroundColor     string `yaml:"background_color"`
}

// Config is the complete window manager configuration. It is built once at
// startup and passed by pointer to every component; nothing mutates it
// afterwards.
type Config struct {
	Debug      bool       `yaml:"debug"`
	Placement  Placement  `yaml:"placement"`
	StatusBar  StatusBar  `yaml:"status_bar"`
	Corners    Corners    `yaml:"corners"`
	Appearance Appearance `yaml:"appearance"`
}

const (
	DefaultBorderWidth = 2
	MaxBorderWidth     = 64
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Debug: true,
		Placement: Placement{
			AutoPlace:       true,
			AutoFit:         true,
			AutoRaise:       true,
			CenterPlacement: true,
		},
		StatusBar: StatusBar{
			Enabled:         true,
			BackgroundColor: "white",
			ForegroundColor: "black",
			Clock: Clock{
				Enabled:     true,
				ShowDay:     true,
				ShowDate:    true,
				ShowSeconds: true,
			},
		},
		Corners: Corners{Enabled: true},
		Appearance: Appearance{
			BorderWidth:         DefaultBorderWidth,
			ActiveBorderColor:   "sienna",
			InactiveBorderColor: "black",
			BackgroundColor:     "#D2B48C",
		},
	}
}

// ValidationError reports an invalid value at a YAML path.
type ValidationError struct {
	Path string
	File string
	Line int
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var errInvalidColor = errors.New("not a known color name or hex code")

// Validate checks value ranges and color specs.
func (c *Config) Validate() error {
	if c.Appearance.BorderWidth < 0 || c.Appearance.BorderWidth > MaxBorderWidth {
		return &ValidationError{
			Path: "appearance.border_width",
			Err:  fmt.Errorf("must be between 0 and %d, got %d", MaxBorderWidth, c.Appearance.BorderWidth),
		}
	}

	colors := []struct {
		path  string
		value string
	}{
		{"status_bar.background_color", c.StatusBar.BackgroundColor},
		{"status_bar.foreground_color", c.StatusBar.ForegroundColor},
		{"appearance.active_border_color", c.Appearance.ActiveBorderColor},
		{"appearance.inactive_border_color", c.Appearance.InactiveBorderColor},
		{"appearance.background_color", c.Appearance.BackgroundColor},
	}
	for _, col := range colors {
		if _, ok := LookupColor(col.value); !ok {
			return &ValidationError{Path: col.path, Err: fmt.Errorf("%q: %w", col.value, errInvalidColor)}
		}
	}
	return nil
}
