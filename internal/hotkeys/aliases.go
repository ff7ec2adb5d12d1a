// Package hotkeys maps key presses under the window manager modifier to
// commands.
package hotkeys

import (
	"github.com/1broseidon/biscuitwm/internal/placement"
	"github.com/1broseidon/biscuitwm/internal/platform"
)

// Key names, as X keysym names, that carry a binding.
const (
	KeyTerminal  = "x"
	KeyClose     = "q"
	KeyCenter    = "minus"
	KeyMaximize  = "equal"
	KeyLeft      = "bracketleft"
	KeyRight     = "bracketright"
	KeyTop       = "backslash"
	KeyBottom    = "slash"
	KeyFocus     = "F1"
	KeyCycle     = "Tab"
	KeyEscape    = "Escape"
	KeyLauncher  = "space"
	KeyReturn    = "Return"
	KeyBackSpace = "BackSpace"
)

// Names lists every aliased key in resolution order.
var Names = []string{
	KeyTerminal, KeyClose,
	KeyCenter, KeyMaximize, KeyLeft, KeyRight, KeyTop, KeyBottom,
	KeyFocus, KeyCycle, KeyEscape, KeyLauncher, KeyReturn, KeyBackSpace,
}

// Resolver looks up the keycodes producing a keysym name.
type Resolver interface {
	KeycodesFor(name string) []platform.Keycode
}

// AliasTable maps key names to the keycodes of the live keyboard layout.
type AliasTable struct {
	codes map[string][]platform.Keycode
	names map[platform.Keycode]string
}

// NewAliasTable resolves every name in Names once. Names without a keycode
// in the current layout are left unbound.
func NewAliasTable(r Resolver) *AliasTable {
	t := &AliasTable{
		codes: make(map[string][]platform.Keycode, len(Names)),
		names: make(map[platform.Keycode]string),
	}
	for _, name := range Names {
		codes := r.KeycodesFor(name)
		if len(codes) == 0 {
			continue
		}
		t.codes[name] = codes
		for _, code := range codes {
			if _, taken := t.names[code]; !taken {
				t.names[code] = name
			}
		}
	}
	return t
}

// Name returns the aliased key name for a keycode.
func (t *AliasTable) Name(code platform.Keycode) (string, bool) {
	name, ok := t.names[code]
	return name, ok
}

// Is reports whether code produces the named key.
func (t *AliasTable) Is(code platform.Keycode, name string) bool {
	for _, c := range t.codes[name] {
		if c == code {
			return true
		}
	}
	return false
}

// Unbound returns the names that did not resolve to any keycode.
func (t *AliasTable) Unbound() []string {
	var out []string
	for _, name := range Names {
		if _, ok := t.codes[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Command is a window manager action bound to a key.
type Command int

const (
	CommandNone Command = iota
	CommandTerminal
	CommandClose
	CommandPreset
	CommandFocus
	CommandCycle
	CommandLauncher
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandTerminal:
		return "terminal"
	case CommandClose:
		return "close"
	case CommandPreset:
		return "preset"
	case CommandFocus:
		return "focus"
	case CommandCycle:
		return "cycle"
	case CommandLauncher:
		return "launcher"
	case CommandQuit:
		return "quit"
	default:
		return "none"
	}
}

// Action is a resolved binding. Preset is meaningful for CommandPreset only.
// NeedsChild marks actions that operate on the window under the pointer.
type Action struct {
	Command    Command
	Preset     placement.Preset
	NeedsChild bool
}

var bindings = map[string]Action{
	KeyTerminal: {Command: CommandTerminal},
	KeyClose:    {Command: CommandClose, NeedsChild: true},
	KeyCenter:   {Command: CommandPreset, Preset: placement.Center, NeedsChild: true},
	KeyMaximize: {Command: CommandPreset, Preset: placement.Maximize, NeedsChild: true},
	KeyLeft:     {Command: CommandPreset, Preset: placement.Left, NeedsChild: true},
	KeyRight:    {Command: CommandPreset, Preset: placement.Right, NeedsChild: true},
	KeyTop:      {Command: CommandPreset, Preset: placement.Top, NeedsChild: true},
	KeyBottom:   {Command: CommandPreset, Preset: placement.Bottom, NeedsChild: true},
	KeyFocus:    {Command: CommandFocus, NeedsChild: true},
	KeyCycle:    {Command: CommandCycle},
	KeyLauncher: {Command: CommandLauncher},
	KeyEscape:   {Command: CommandQuit},
}

// Lookup resolves a keycode to its bound action. Return and BackSpace are
// aliased for the launcher but carry no command.
func (t *AliasTable) Lookup(code platform.Keycode) (Action, bool) {
	name, ok := t.names[code]
	if !ok {
		return Action{}, false
	}
	action, ok := bindings[name]
	return action, ok
}
