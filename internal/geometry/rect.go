package geometry

// Rect describes a rectangular region in virtual-desktop coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FromEdges builds a rect from its four edges. A right/bottom edge that lies
// before the left/top edge yields a zero width/height, never a negative one.
func FromEdges(left, top, right, bottom int) Rect {
	w := right - left
	h := bottom - top
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: left, Y: top, Width: w, Height: h}
}

func (r Rect) Left() int   { return r.X }
func (r Rect) Top() int    { return r.Y }
func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rect covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns Width*Height, or 0 for empty rects.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the integer midpoint.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// ContainsPoint uses half-open edges so adjacent displays never both claim a
// point on their shared border.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and o share a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Intersect returns the overlap of r and o. When they do not overlap the
// result has zero width and/or height.
func (r Rect) Intersect(o Rect) Rect {
	return FromEdges(
		max(r.X, o.X),
		max(r.Y, o.Y),
		min(r.Right(), o.Right()),
		min(r.Bottom(), o.Bottom()),
	)
}

// ClampTo is Intersect with the argument read as the clamping bounds.
func (r Rect) ClampTo(bounds Rect) Rect {
	return r.Intersect(bounds)
}
