package geomx

import "math"

// OBB is an oriented bounding box: a centre, a unit longitudinal axis U, a
// unit transverse axis V perpendicular to U, a half-width, and a signed
// longitudinal interval [MinT, MaxT] measured from Center along U.
//
// Invariant: |U| == |V| == 1, U.Dot(V) == 0. The interval need not be
// symmetric about zero — after Step 4 fragment cutting, MinT/MaxT shift
// while Center stays the original rectangle's centroid, so callers that
// need the *current* midpoint should use Midpoint(), not Center.
type OBB struct {
	Center    Point
	U, V      Vector
	HalfWidth float64
	MinT      float64
	MaxT      float64
}

// HalfLen returns (MaxT-MinT)/2.
func (o OBB) HalfLen() float64 { return (o.MaxT - o.MinT) / 2 }

// Length returns the longitudinal extent of the interval, MaxT-MinT.
func (o OBB) Length() float64 { return o.MaxT - o.MinT }

// Width returns the full transverse width, 2*HalfWidth.
func (o OBB) Width() float64 { return 2 * o.HalfWidth }

// Midpoint returns the point at the centre of the current [MinT,MaxT]
// interval, which differs from Center once a fragment has been cut
// asymmetrically.
func (o OBB) Midpoint() Point {
	t := (o.MinT + o.MaxT) / 2
	return o.Center.Add(o.U.Scale(t))
}

// PointAtT returns the point on the longitudinal axis at parameter t.
func (o OBB) PointAtT(t float64) Point {
	return o.Center.Add(o.U.Scale(t))
}

// Corners returns the four corners of the rectangle in order:
// (minT,-hw) (maxT,-hw) (maxT,+hw) (minT,+hw).
func (o OBB) Corners() [4]Point {
	hw := o.HalfWidth
	a := o.Center.Add(o.U.Scale(o.MinT)).Add(o.V.Scale(-hw))
	b := o.Center.Add(o.U.Scale(o.MaxT)).Add(o.V.Scale(-hw))
	c := o.Center.Add(o.U.Scale(o.MaxT)).Add(o.V.Scale(hw))
	d := o.Center.Add(o.U.Scale(o.MinT)).Add(o.V.Scale(hw))
	return [4]Point{a, b, c, d}
}

// Bounds returns the axis-aligned bounding box of the rotated rectangle.
func (o OBB) Bounds() Bounds {
	c := o.Corners()
	return BoundsOf(c[:])
}

// NewOBBFromRect builds an OBB from four corners of a (possibly rotated)
// rectangle, in either winding order. The longitudinal axis is taken from
// the longer pair of opposite edges.
func NewOBBFromRect(corners [4]Point) OBB {
	e01 := corners[1].Sub(corners[0])
	e12 := corners[2].Sub(corners[1])

	var u Vector
	var halfLen, halfWidth float64
	if e01.Len() >= e12.Len() {
		u = e01.Normalized()
		halfLen = e01.Len() / 2
		halfWidth = e12.Len() / 2
	} else {
		u = e12.Normalized()
		halfLen = e12.Len() / 2
		halfWidth = e01.Len() / 2
	}
	v := u.Perp()
	center := Point{
		X: (corners[0].X + corners[1].X + corners[2].X + corners[3].X) / 4,
		Y: (corners[0].Y + corners[1].Y + corners[2].Y + corners[3].Y) / 4,
	}
	return OBB{
		Center: center, U: u, V: v,
		HalfWidth: halfWidth,
		MinT:      -halfLen,
		MaxT:      halfLen,
	}
}

// NewOBBFromAxis builds an OBB given an explicit longitudinal axis line from
// p0 to p1 and a transverse half-width, centring the interval on the
// segment's midpoint.
func NewOBBFromAxis(p0, p1 Point, halfWidth float64) OBB {
	u, length := DirectionFromTo(p0, p1)
	if length < 1e-9 {
		u = Vector{X: 1, Y: 0}
	}
	v := u.Perp()
	center := p0.Lerp(p1, 0.5)
	halfLen := length / 2
	return OBB{Center: center, U: u, V: v, HalfWidth: halfWidth, MinT: -halfLen, MaxT: halfLen}
}

// ToLocal projects a world point into the OBB's local (t, n) frame: t is the
// signed longitudinal coordinate along U, n is the signed transverse
// coordinate along V, both measured from Center.
func (o OBB) ToLocal(p Point) (t, n float64) {
	d := p.Sub(o.Center)
	return d.Dot(o.U), d.Dot(o.V)
}

// Contains reports whether p lies inside the rectangle, expanded by tol
// millimetres on every side.
func (o OBB) Contains(p Point, tol float64) bool {
	t, n := o.ToLocal(p)
	return t >= o.MinT-tol && t <= o.MaxT+tol && n >= -o.HalfWidth-tol && n <= o.HalfWidth+tol
}

// LongitudinalOverlap returns the overlap length of this OBB's interval with
// [minT, maxT] expressed in this OBB's own local axis. Returns 0 if disjoint.
func (o OBB) LongitudinalOverlap(minT, maxT float64) float64 {
	lo := math.Max(o.MinT, minT)
	hi := math.Min(o.MaxT, maxT)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// WithInterval returns a copy of o with a new [minT, maxT] interval.
func (o OBB) WithInterval(minT, maxT float64) OBB {
	o.MinT = minT
	o.MaxT = maxT
	return o
}

// EnclosesWithinTolerance reports whether every point in pts lies inside o
// expanded by tol millimetres. Used to validate the construction invariant
// in tests.
func (o OBB) EnclosesWithinTolerance(pts []Point, tol float64) bool {
	for _, p := range pts {
		if !o.Contains(p, tol) {
			return false
		}
	}
	return true
}
