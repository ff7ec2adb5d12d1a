package hotkeys

import "fmt"

// ModAlt is the Mod1 modifier mask every binding is grabbed with.
const ModAlt uint16 = 1 << 3

// Pointer buttons grabbed under ModAlt for move and resize.
var DragButtons = []byte{1, 3}

// Grabber installs passive grabs on the root window.
type Grabber interface {
	GrabKeys(modifiers uint16) error
	GrabButtons(modifiers uint16, buttons ...byte) error
}

// Register grabs every key and the drag buttons under ModAlt.
func Register(g Grabber) error {
	if err := g.GrabKeys(ModAlt); err != nil {
		return fmt.Errorf("failed to grab keys: %w", err)
	}
	if err := g.GrabButtons(ModAlt, DragButtons...); err != nil {
		return fmt.Errorf("failed to grab buttons: %w", err)
	}
	return nil
}
