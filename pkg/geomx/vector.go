package geomx

import "math"

// Vector is a 2D direction or displacement in millimetres. A Vector is a
// unit direction only where the call site documents it as such.
type Vector struct {
	X, Y float64
}

// Len returns the euclidean length of v.
func (v Vector) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Scale returns v scaled by s.
func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

// Add returns v + w.
func (v Vector) Add(w Vector) Vector {
	return Vector{X: v.X + w.X, Y: v.Y + w.Y}
}

// Normalized returns v scaled to unit length. Returns the zero vector if v
// is degenerate (length below 1e-9).
func (v Vector) Normalized() Vector {
	l := v.Len()
	if l < 1e-9 {
		return Vector{}
	}
	return Vector{X: v.X / l, Y: v.Y / l}
}

// Perp returns the vector rotated 90 degrees counter-clockwise: for a unit
// longitudinal axis u this yields a unit transverse axis v with u.v == 0.
func (v Vector) Perp() Vector {
	return Vector{X: -v.Y, Y: v.X}
}

// Dot returns the dot product of v and w.
func (v Vector) Dot(w Vector) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the z-component of the 3D cross product of v and w.
func (v Vector) Cross(w Vector) float64 {
	return v.X*w.Y - v.Y*w.X
}

// AngleDeg returns the direction of v in degrees, in [0, 360).
func (v Vector) AngleDeg() float64 {
	a := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	return a
}

// DirectionFromTo returns the unit vector pointing from p to q, and the
// distance between them.
func DirectionFromTo(p, q Point) (Vector, float64) {
	d := q.Sub(p)
	l := d.Len()
	if l < 1e-9 {
		return Vector{}, 0
	}
	return Vector{X: d.X / l, Y: d.Y / l}, l
}
