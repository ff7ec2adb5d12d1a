// Package corners rounds off the four screen corners with a shaped black
// window that stays above everything else.
package corners

// Size is the edge of the square pixmap each corner is cut from; the
// visible rounding has radius Size/2.
const Size = 16

const half = Size / 2

// Arc angles are in 1/64ths of a degree.
const (
	deg90  = 90 * 64
	deg180 = 180 * 64
)

// Corner describes one rounded corner: where its mask pixmap lands in the
// window and which quarter of the circle is cut out of it.
type Corner struct {
	Name string
	// X, Y place the pixmap in window coordinates.
	X, Y int
	// ArcX, ArcY position the Size x Size circle inside the pixmap.
	ArcX, ArcY int
	// Angle1 is the start angle and Angle2 the signed extent.
	Angle1, Angle2 int
}

// Layout returns the corners for a width x height screen in the order they
// are combined into the shape.
func Layout(width, height int) []Corner {
	return []Corner{
		{Name: "nw", X: -half, Y: -half, ArcX: half, ArcY: half, Angle1: deg180, Angle2: -deg90},
		{Name: "ne", X: width - half, Y: -half, ArcX: -half, ArcY: half, Angle1: 0, Angle2: deg90},
		{Name: "se", X: width - half, Y: height - half, ArcX: -half, ArcY: -half, Angle1: 0, Angle2: -deg90},
		{Name: "sw", X: -half, Y: height - half, ArcX: half, ArcY: -half, Angle1: -deg90, Angle2: -deg90},
	}
}
