package statusbar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/platform"
	"github.com/1broseidon/biscuitwm/internal/schedule"
	"github.com/1broseidon/biscuitwm/internal/x11"
)

// Bar geometry. The window sits at (-1, -1) so its top border is off screen;
// RealHeight is the band windows must stay below.
const (
	Height      = 20
	BorderWidth = 1
	RealHeight  = Height + BorderWidth
)

const (
	textBaseline     = 15
	leadingPadding   = 15
	trailingPadding  = 15
	itemSpacing      = 20
	fallbackCharSize = 7
	maxTextLength    = 255
)

const (
	memoryInterval = 10 * time.Second
	redrawInterval = time.Second
)

var fontNames = []string{"fixed", "9x15", "8x13", "6x13"}

// Bar draws a Model into a dock window along the top of the screen.
type Bar struct {
	*Model

	conn   *x11.Connection
	logger *slog.Logger

	window  xproto.Window
	gc      xproto.Gcontext
	font    xproto.Font
	metrics fontMetrics
	width   int

	clock  config.Clock
	sample MemorySampler
	now    func() time.Time
	timers []*schedule.Periodic
}

// New creates and maps the bar window. Colors that do not resolve fall back
// to black on white.
func New(conn *x11.Connection, cfg config.StatusBar, logger *slog.Logger) (*Bar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bar{
		Model:  NewModel(cfg.Clock),
		conn:   conn,
		logger: logger,
		width:  int(conn.Screen().WidthInPixels),
		clock:  cfg.Clock,
		sample: VirtualMemoryPercent,
		now:    time.Now,
	}

	bg := config.ResolveColor(cfg.BackgroundColor, config.FallbackBarBackground)
	fg := config.ResolveColor(cfg.ForegroundColor, config.FallbackBarForeground)

	if err := b.createWindow(bg, fg); err != nil {
		return nil, err
	}
	if err := b.openFont(bg, fg); err != nil {
		b.Close()
		return nil, err
	}
	if err := conn.MarkDock(b.window); err != nil {
		logger.Warn("failed to mark status bar as dock", "error", err)
	}
	conn.MapWindow(b.window)

	b.timers = b.newTimers()
	return b, nil
}

func (b *Bar) createWindow(bg, fg uint32) error {
	conn := b.conn.Conn()
	screen := b.conn.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}

	mask := uint32(xproto.EventMaskStructureNotify | xproto.EventMaskExposure |
		xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease)
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		b.conn.Root,
		-BorderWidth, -BorderWidth,
		uint16(b.width), Height,
		BorderWidth,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwEventMask,
		[]uint32{bg, fg, mask},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to create status bar window: %w", err)
	}
	b.window = wid
	return nil
}

func (b *Bar) openFont(bg, fg uint32) error {
	conn := b.conn.Conn()

	font, err := xproto.NewFontId(conn)
	if err != nil {
		return err
	}
	opened := false
	for _, name := range fontNames {
		if err = xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			opened = true
			break
		}
	}
	if !opened {
		return fmt.Errorf("failed to open any of %v: %w", fontNames, err)
	}
	b.font = font

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateGCChecked(
		conn,
		gc,
		xproto.Drawable(b.window),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{fg, bg, uint32(font), 0},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to create status bar GC: %w", err)
	}
	b.gc = gc

	b.metrics = queryMetrics(conn, font, b.logger)
	return nil
}

func (b *Bar) newTimers() []*schedule.Periodic {
	timers := []*schedule.Periodic{
		schedule.New("memory", memoryInterval, b.refreshMemory, b.logger),
		schedule.New("redraw", redrawInterval, b.RequestRedraw, b.logger),
	}
	if b.clock.Enabled {
		timers = append(timers, schedule.New("clock", ClockInterval(b.clock), b.refreshClock, b.logger))
	}
	return timers
}

func (b *Bar) refreshMemory() {
	pct, err := b.sample()
	if err != nil {
		b.logger.Debug("memory sample failed", "error", err)
		return
	}
	b.SetMemoryPercent(pct)
	b.RequestRedraw()
}

func (b *Bar) refreshClock() {
	b.SetClock(b.now())
	b.RequestRedraw()
}

// Window returns the bar's window handle.
func (b *Bar) Window() platform.WindowID {
	return platform.WindowID(b.window)
}

// Height returns the band at the top of the screen the bar occupies.
func (b *Bar) Height() int {
	return RealHeight
}

// Start fills in memory and clock text and launches the refresh timers.
func (b *Bar) Start() {
	b.refreshMemory()
	if b.clock.Enabled {
		b.refreshClock()
	}
	for _, t := range b.timers {
		t.Start()
	}
}

// Stop halts the refresh timers.
func (b *Bar) Stop() {
	for _, t := range b.timers {
		t.Stop()
	}
}

// Update redraws the bar from the current model. It must be called from the
// goroutine that owns the connection.
func (b *Bar) Update() {
	if b.window == 0 || b.gc == 0 {
		return
	}
	conn := b.conn.Conn()
	layout := b.Layout()

	xproto.ClearArea(conn, false, b.window, 0, 0, 0, 0)
	b.drawText(leadingPadding, layout.Leading)

	widths := make([]int, len(layout.Trailing))
	for i, item := range layout.Trailing {
		widths[i] = b.metrics.textWidth(item)
	}
	for i, x := range trailingPositions(b.width, widths) {
		b.drawText(x, layout.Trailing[i])
	}
}

func (b *Bar) drawText(x int, text string) {
	if text == "" {
		return
	}
	text = truncateText(text, maxTextLength)
	xproto.ImageText8(
		b.conn.Conn(),
		byte(len(text)),
		xproto.Drawable(b.window),
		b.gc,
		int16(x),
		textBaseline,
		text,
	)
}

// Close stops the timers and releases every server resource the bar holds.
func (b *Bar) Close() {
	b.Stop()
	conn := b.conn.Conn()
	if b.gc != 0 {
		xproto.FreeGC(conn, b.gc)
		b.gc = 0
	}
	if b.font != 0 {
		xproto.CloseFont(conn, b.font)
		b.font = 0
	}
	if b.window != 0 {
		xproto.DestroyWindow(conn, b.window)
		b.window = 0
	}
}

// trailingPositions lays items out right to left: the first item ends
// trailingPadding from the right edge and each following item sits
// itemSpacing to the left of the previous one.
func trailingPositions(width int, widths []int) []int {
	xs := make([]int, len(widths))
	spacing := trailingPadding
	for i, w := range widths {
		xs[i] = width - (w + spacing)
		spacing += w + itemSpacing
	}
	return xs
}
