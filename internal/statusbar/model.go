// Package statusbar renders the bar along the top edge of the screen: the
// active window title or window count, a text-command launcher, memory
// usage and a clock.
package statusbar

import (
	"fmt"
	"sync"
	"time"

	"github.com/1broseidon/biscuitwm/internal/config"
)

// SessionName is shown in place of a title when no window provides one.
const SessionName = "BiscuitWM"

// Layout is the text to draw, captured under the model lock.
type Layout struct {
	// Leading is drawn left-aligned.
	Leading string
	// Trailing items are drawn right-aligned, first item rightmost.
	Trailing []string
}

// Model is the bar's text state. Timer goroutines and the dispatch loop both
// write it; only the dispatch loop draws it.
type Model struct {
	mu sync.Mutex

	title     string
	count     int
	showCount bool
	launcher  bool
	command   []rune
	memory    string
	clock     string

	clockCfg config.Clock
	redraw   chan struct{}
}

// NewModel returns a model showing the session name and zero windows.
func NewModel(clock config.Clock) *Model {
	return &Model{
		title:    SessionName,
		clockCfg: clock,
		redraw:   make(chan struct{}, 1),
	}
}

// Redraws delivers coalesced redraw requests posted by timers.
func (m *Model) Redraws() <-chan struct{} {
	return m.redraw
}

// RequestRedraw posts a redraw request without blocking. Requests made
// while one is pending collapse into it.
func (m *Model) RequestRedraw() {
	select {
	case m.redraw <- struct{}{}:
	default:
	}
}

// SetActiveTitle sets the title text. An empty title shows the session name.
func (m *Model) SetActiveTitle(title string) {
	if title == "" {
		title = SessionName
	}
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
}

// ActiveTitle returns the current title text.
func (m *Model) ActiveTitle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// SetWindowCount records the number of managed windows.
func (m *Model) SetWindowCount(n int) {
	m.mu.Lock()
	m.count = n
	m.mu.Unlock()
}

// WindowCountText formats the count as "N windows" or "1 window".
func (m *Model) WindowCountText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return countText(m.count)
}

func countText(n int) string {
	if n == 1 {
		return "1 window"
	}
	return fmt.Sprintf("%d windows", n)
}

// ToggleDisplayMode switches the leading item between title and count.
func (m *Model) ToggleDisplayMode() {
	m.mu.Lock()
	m.showCount = !m.showCount
	m.mu.Unlock()
}

// ToggleCommandEntry turns launcher mode on or off. Either way the command
// buffer starts empty.
func (m *Model) ToggleCommandEntry(on bool) {
	m.mu.Lock()
	m.launcher = on
	m.command = m.command[:0]
	m.mu.Unlock()
}

// CommandEntryActive reports whether launcher mode is on.
func (m *Model) CommandEntryActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.launcher
}

// AppendCommand adds a character to the command buffer.
func (m *Model) AppendCommand(r rune) {
	m.mu.Lock()
	m.command = append(m.command, r)
	m.mu.Unlock()
}

// DeleteCommandRune removes the last character and reports whether there
// was one.
func (m *Model) DeleteCommandRune() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.command) == 0 {
		return false
	}
	m.command = m.command[:len(m.command)-1]
	return true
}

// Command returns the command buffer.
func (m *Model) Command() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.command)
}

// SetMemoryPercent records memory usage.
func (m *Model) SetMemoryPercent(pct float64) {
	m.mu.Lock()
	m.memory = fmt.Sprintf("MEM: %.2f%%", pct)
	m.mu.Unlock()
}

// SetClock records the time shown by the clock.
func (m *Model) SetClock(t time.Time) {
	text := FormatClock(t, m.clockCfg)
	m.mu.Lock()
	m.clock = text
	m.mu.Unlock()
}

// Layout captures what to draw.
func (m *Model) Layout() Layout {
	m.mu.Lock()
	defer m.mu.Unlock()

	var l Layout
	switch {
	case m.launcher:
		l.Leading = string(m.command) + "|"
	case m.showCount:
		l.Leading = countText(m.count)
	default:
		l.Leading = m.title
	}

	if m.clockCfg.Enabled && m.clock != "" {
		l.Trailing = append(l.Trailing, m.clock)
	}
	if m.memory != "" {
		l.Trailing = append(l.Trailing, m.memory)
	}
	return l
}

// FormatClock renders t as e.g. "Tue 03 Mar 04:05:06 pm", dropping the
// day, date or seconds per cfg.
func FormatClock(t time.Time, cfg config.Clock) string {
	layout := ""
	if cfg.ShowDay {
		layout += "Mon "
	}
	if cfg.ShowDate {
		layout += "02 Jan "
	}
	layout += "03:04"
	if cfg.ShowSeconds {
		layout += ":05"
	}
	layout += " pm"
	return t.Format(layout)
}

// ClockInterval is how often the clock text needs refreshing.
func ClockInterval(cfg config.Clock) time.Duration {
	if cfg.ShowSeconds {
		return time.Second
	}
	return 30 * time.Second
}
