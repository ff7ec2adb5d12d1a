package statusbar

import (
	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/platform"
)

// Headless is a bar with no window. It keeps the model up to date so the
// window count and command buffer behave the same when the bar is disabled.
type Headless struct {
	*Model
}

// NewHeadless returns a windowless bar.
func NewHeadless() *Headless {
	return &Headless{Model: NewModel(config.Clock{})}
}

func (*Headless) Window() platform.WindowID { return platform.None }
func (*Headless) Height() int               { return 0 }
func (*Headless) Update()                   {}
func (*Headless) Start()                    {}
func (*Headless) Stop()                     {}
func (*Headless) Close()                    {}
