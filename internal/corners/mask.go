package corners

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/biscuitwm/internal/x11"
)

// Mask is a screen-sized window whose bounding shape is only the four
// rounded corners.
type Mask struct {
	conn   *x11.Connection
	logger *slog.Logger

	window  xproto.Window
	pixmaps []xproto.Pixmap
	drawn   bool
}

// New creates the mask window without mapping it. The shape extension must
// be available.
func New(conn *x11.Connection, logger *slog.Logger) (*Mask, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := shape.Init(conn.Conn()); err != nil {
		return nil, fmt.Errorf("shape extension unavailable: %w", err)
	}

	m := &Mask{conn: conn, logger: logger}
	if err := m.createWindow(); err != nil {
		return nil, err
	}
	if err := conn.MarkDock(m.window); err != nil {
		logger.Warn("failed to mark corner mask as dock", "error", err)
	}
	return m, nil
}

func (m *Mask) createWindow() error {
	conn := m.conn.Conn()
	screen := m.conn.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		m.conn.Root,
		0, 0,
		screen.WidthInPixels, screen.HeightInPixels,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{screen.BlackPixel, 1},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to create corner mask window: %w", err)
	}
	m.window = wid
	return nil
}

// Draw builds the corner shape and maps the window. Later calls are no-ops.
func (m *Mask) Draw() error {
	if m.drawn {
		return nil
	}
	screen := m.conn.Screen()
	for i, c := range Layout(int(screen.WidthInPixels), int(screen.HeightInPixels)) {
		pixmap, err := m.cornerPixmap(c)
		if err != nil {
			return fmt.Errorf("failed to draw %s corner: %w", c.Name, err)
		}
		m.pixmaps = append(m.pixmaps, pixmap)

		op := shape.Op(shape.SoUnion)
		if i == 0 {
			op = shape.SoSet
		}
		shape.Mask(m.conn.Conn(), op, shape.SkBounding, m.window, int16(c.X), int16(c.Y), pixmap)
	}

	m.conn.MapWindow(m.window)
	m.drawn = true
	m.logger.Debug("corner mask drawn", "window", m.window)
	return nil
}

// cornerPixmap returns a depth-1 bitmap that is opaque except for the
// quarter circle described by c.
func (m *Mask) cornerPixmap(c Corner) (xproto.Pixmap, error) {
	conn := m.conn.Conn()

	pixmap, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreatePixmapChecked(conn, 1, pixmap, xproto.Drawable(m.window), Size, Size).Check(); err != nil {
		return 0, err
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.FreePixmap(conn, pixmap)
		return 0, err
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(pixmap),
		xproto.GcForeground, []uint32{1}).Check(); err != nil {
		xproto.FreePixmap(conn, pixmap)
		return 0, err
	}
	defer xproto.FreeGC(conn, gc)

	xproto.PolyFillRectangle(conn, xproto.Drawable(pixmap), gc,
		[]xproto.Rectangle{{X: 0, Y: 0, Width: Size, Height: Size}})
	xproto.ChangeGC(conn, gc, xproto.GcForeground, []uint32{0})
	xproto.PolyFillArc(conn, xproto.Drawable(pixmap), gc, []xproto.Arc{{
		X:      int16(c.ArcX),
		Y:      int16(c.ArcY),
		Width:  Size,
		Height: Size,
		Angle1: int16(c.Angle1),
		Angle2: int16(c.Angle2),
	}})
	return pixmap, nil
}

// Update keeps the mask above every other window.
func (m *Mask) Update() {
	if !m.drawn {
		return
	}
	if err := m.conn.RaiseWindow(m.window); err != nil {
		m.logger.Debug("failed to raise corner mask", "error", err)
	}
}

// Stop destroys the mask window and its pixmaps.
func (m *Mask) Stop() {
	conn := m.conn.Conn()
	for _, p := range m.pixmaps {
		xproto.FreePixmap(conn, p)
	}
	m.pixmaps = nil
	if m.window != 0 {
		xproto.DestroyWindow(conn, m.window)
		m.window = 0
	}
	m.drawn = false
}
