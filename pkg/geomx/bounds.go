package geomx

import "math"

// Bounds is an axis-aligned rectangle, minX <= maxX and minY <= maxY.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBounds returns a degenerate bounds that Union treats as absorbing.
func EmptyBounds() Bounds {
	return Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// IsEmpty reports whether b has never been unioned with a point.
func (b Bounds) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// BoundsOf returns the axis-aligned bounds enclosing pts. Panics-free on an
// empty slice: returns EmptyBounds().
func BoundsOf(pts []Point) Bounds {
	b := EmptyBounds()
	for _, p := range pts {
		b = b.ExpandPoint(p)
	}
	return b
}

// ExpandPoint returns the smallest bounds enclosing b and p.
func (b Bounds) ExpandPoint(p Point) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, p.X),
		MinY: math.Min(b.MinY, p.Y),
		MaxX: math.Max(b.MaxX, p.X),
		MaxY: math.Max(b.MaxY, p.Y),
	}
}

// Union returns the smallest bounds enclosing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Expand grows b by d millimetres on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{
		MinX: b.MinX - d, MinY: b.MinY - d,
		MaxX: b.MaxX + d, MaxY: b.MaxY + d,
	}
}

// Width returns maxX - minX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns maxY - minY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of b.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// ContainsPoint reports whether p lies inside b (inclusive).
func (b Bounds) ContainsPoint(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Overlaps reports whether b and o share any area, including touching edges.
func (b Bounds) Overlaps(o Bounds) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Intersects is an alias for Overlaps kept for readability at call sites
// that test obstacle interference rather than general overlap.
func (b Bounds) Intersects(o Bounds) bool { return b.Overlaps(o) }
